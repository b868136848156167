package api

import (
	"encoding/json"
	"time"

	"arena-fps/internal/game"
)

// Wire message types. Server → client: init, playerId, gameState, error.
// Client → server: playerAction, setName, heal, ping.
const (
	MsgTypeInit      = "init"
	MsgTypePlayerID  = "playerId" // same semantics as init, kept for older clients
	MsgTypeGameState = "gameState"
	MsgTypeError     = "error"

	MsgTypePlayerAction = "playerAction"
	MsgTypeSetName      = "setName"
	MsgTypeHeal         = "heal"
	MsgTypePing         = "ping"
)

// Error codes carried in error payloads. Values are part of the protocol.
const (
	CodeInvalidPayload    = "INVALID_PAYLOAD"
	CodeInvalidActionType = "INVALID_ACTION_TYPE"
	CodePlayerNotFound    = "PLAYER_NOT_FOUND"
	CodeInvalidName       = "INVALID_NAME"
	CodeMatchFull         = "MATCH_FULL"
)

// Envelope is the frame every message travels in. Payload stays raw until
// the type tag selects a decoder. A single transport frame may carry one
// envelope or a newline-separated batch of them.
type Envelope struct {
	Type      string          `json:"type"`
	Payload   json.RawMessage `json:"payload"`
	Timestamp int64           `json:"timestamp,omitempty"` // ms since epoch
}

// InitPayload assigns the session its player id.
type InitPayload struct {
	ID string `json:"id"`
}

// ErrorPayload reports a per-session fault.
type ErrorPayload struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

// ActionPayload is the inbound playerAction body: a sub-type tag plus
// whatever fields that action carries.
type ActionPayload struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// ActionData covers the field surface of all gameplay actions. Pointers keep
// "absent" distinguishable from zero values.
type ActionData struct {
	Position  *game.Vec3 `json:"position"`
	Rotation  *game.Vec3 `json:"rotation"`
	Lean      *float64   `json:"lean"`
	Target    *game.Vec3 `json:"target"`
	Direction *game.Vec3 `json:"direction"`
}

// SetNamePayload renames the sending player.
type SetNamePayload struct {
	DisplayName string `json:"displayName"`
}

// HealPayload adjusts the sending player's health. Both fields are required
// and must be integers; JSON numbers arrive as float64 so presence and
// integrality are checked at dispatch.
type HealPayload struct {
	Amount    *float64 `json:"amount"`
	NewHealth *float64 `json:"newHealth"`
}

// encodeMessage wraps a payload in an envelope and marshals the whole frame.
func encodeMessage(msgType string, payload interface{}) ([]byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Envelope{
		Type:      msgType,
		Payload:   body,
		Timestamp: time.Now().UnixMilli(),
	})
}

// errorMessage builds an error envelope. The inputs are all server-owned
// strings, so encoding cannot fail.
func errorMessage(code, message string) []byte {
	msg, _ := encodeMessage(MsgTypeError, ErrorPayload{Code: code, Message: message})
	return msg
}
