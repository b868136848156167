package game

import (
	"encoding/json"
	"time"
)

// EventType enum for event classification
type EventType uint8

const (
	EventTypeUnknown EventType = iota
	EventTypePlayerJoin
	EventTypePlayerLeave
	EventTypeDamage
	EventTypeKill
	EventTypeHeal
	EventTypeRespawn
	EventTypeRename
	EventTypeMatchStart
	EventTypeMatchEnd
)

// EventVersion for backwards compatibility in replay
const EventVersion uint8 = 1

// Event is the core event structure for the event log
type Event struct {
	Version   uint8     `json:"version"`   // Schema version
	Type      EventType `json:"type"`      // Event type
	Timestamp int64     `json:"timestamp"` // Unix nano
	Sequence  uint64    `json:"sequence"`  // Monotonic sequence
	TickNum   uint64    `json:"tickNum"`   // Game tick this occurred in
	PlayerID  string    `json:"playerId"`  // Source player (for rate limiting)
	Payload   []byte    `json:"payload"`   // JSON-encoded payload
}

// String returns human-readable event type
func (t EventType) String() string {
	switch t {
	case EventTypePlayerJoin:
		return "player_join"
	case EventTypePlayerLeave:
		return "player_leave"
	case EventTypeDamage:
		return "damage"
	case EventTypeKill:
		return "kill"
	case EventTypeHeal:
		return "heal"
	case EventTypeRespawn:
		return "respawn"
	case EventTypeRename:
		return "rename"
	case EventTypeMatchStart:
		return "match_start"
	case EventTypeMatchEnd:
		return "match_end"
	default:
		return "unknown"
	}
}

// Typed payloads for different event types

// PlayerJoinPayload contains player join details
type PlayerJoinPayload struct {
	PlayerID   string `json:"playerId"`
	PlayerName string `json:"playerName"`
	Spawn      Vec3   `json:"spawn"`
}

// DamagePayload contains damage event details
type DamagePayload struct {
	ShooterID    string  `json:"shooterId"`
	VictimID     string  `json:"victimId"`
	Damage       int     `json:"damage"`
	VictimHealth int     `json:"victimHealth"`
	HitDistance  float64 `json:"hitDistance"`
}

// KillPayload contains kill event details
type KillPayload struct {
	KillerID     string `json:"killerId"`
	VictimID     string `json:"victimId"`
	KillerKills  int    `json:"killerKills"`
	VictimDeaths int    `json:"victimDeaths"`
}

// HealEventPayload contains heal event details
type HealEventPayload struct {
	PlayerID      string `json:"playerId"`
	Amount        int    `json:"amount"`
	CurrentHealth int    `json:"currentHealth"`
}

// RespawnPayload contains respawn event details
type RespawnPayload struct {
	PlayerID string `json:"playerId"`
	Spawn    Vec3   `json:"spawn"`
}

// RenamePayload contains display-name change details
type RenamePayload struct {
	PlayerID string `json:"playerId"`
	Name     string `json:"name"`
}

// MatchPayload contains match lifecycle details
type MatchPayload struct {
	MatchID     string `json:"matchId"`
	PlayerCount int    `json:"playerCount"`
}

// EncodePayload marshals a payload to JSON bytes
func EncodePayload(payload interface{}) []byte {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil
	}
	return data
}

// NewEvent creates a new event with the current timestamp
func NewEvent(eventType EventType, tickNum uint64, playerID string, payload interface{}) Event {
	return Event{
		Version:   EventVersion,
		Type:      eventType,
		Timestamp: time.Now().UnixNano(),
		TickNum:   tickNum,
		PlayerID:  playerID,
		Payload:   EncodePayload(payload),
	}
}
