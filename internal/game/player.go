package game

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"
)

const (
	// MaxHealth is full health for every player.
	MaxHealth = 100

	// MaxNameLength bounds display names, in codepoints.
	MaxNameLength = 32

	// defaultNameLength bounds the display name derived from a player id.
	defaultNameLength = 12
)

// Player is one connected fighter. Every field is guarded by the owning
// Match's lock; nothing outside this package holds a *Player.
type Player struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`

	// World state (client-reported, server-trusted in MVP)
	Position Vec3 `json:"position"`
	Rotation Vec3 `json:"rotation"`

	// Combat state
	Health  int  `json:"health"`
	IsAlive bool `json:"isAlive"`
	Kills   int  `json:"kills"`
	Deaths  int  `json:"deaths"`
}

// NewPlayer creates a full-health player standing at spawn.
func NewPlayer(id string, spawn Vec3) *Player {
	return &Player{
		ID:          id,
		DisplayName: defaultDisplayName(id),
		Position:    spawn,
		Health:      MaxHealth,
		IsAlive:     true,
	}
}

// NewPlayerID returns a fresh random player identifier.
func NewPlayerID() string {
	b := make([]byte, 4)
	if _, err := rand.Read(b); err != nil {
		return fmt.Sprintf("player_%x", time.Now().UnixNano())
	}
	return "player_" + hex.EncodeToString(b)
}

func defaultDisplayName(id string) string {
	if len(id) > defaultNameLength {
		return id[:defaultNameLength]
	}
	return id
}

// ApplyDamage subtracts amount from health, clamping at zero. Returns true
// when this damage killed the player; Deaths is incremented here so the
// bookkeeping lands in the same critical section as the hit.
func (p *Player) ApplyDamage(amount int) bool {
	if !p.IsAlive {
		return false
	}
	p.Health -= amount
	if p.Health > 0 {
		return false
	}
	p.Health = 0
	p.IsAlive = false
	p.Deaths++
	return true
}

// SetHealth overwrites health with h clamped to [0, MaxHealth]. Setting a
// live player to zero counts as a death. Returns true when the player died.
func (p *Player) SetHealth(h int) bool {
	if h > MaxHealth {
		h = MaxHealth
	}
	if h < 0 {
		h = 0
	}
	p.Health = h
	if h == 0 && p.IsAlive {
		p.IsAlive = false
		p.Deaths++
		return true
	}
	return false
}

// Respawn puts a dead player back into the world at spawn with full health.
// Kills and deaths carry over.
func (p *Player) Respawn(spawn Vec3) {
	p.Health = MaxHealth
	p.IsAlive = true
	p.Position = spawn
}
