package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"math"

	"arena-fps/internal/game"
)

// Dispatcher turns inbound frames into state-store calls. It owns no state
// beyond the match reference; every mutation goes through Match operations.
// Replies (error envelopes only, in practice) ride the sender's control
// queue, never the broadcast path.
type Dispatcher struct {
	match   *game.Match
	verbose bool
}

// NewDispatcher creates a dispatcher. verbose enables per-rejection logging
// and is meant for development.
func NewDispatcher(match *game.Match, verbose bool) *Dispatcher {
	return &Dispatcher{match: match, verbose: verbose}
}

// Dispatch handles one JSON message from playerID and returns any reply
// frames. Validation failures never mutate state.
func (d *Dispatcher) Dispatch(playerID string, raw []byte) [][]byte {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return d.reject(playerID, CodeInvalidPayload, "unparseable message")
	}

	switch env.Type {
	case MsgTypePlayerAction:
		return d.handleAction(playerID, env.Payload)
	case MsgTypeSetName:
		return d.handleSetName(playerID, env.Payload)
	case MsgTypeHeal:
		return d.handleHeal(playerID, env.Payload)
	case MsgTypePing:
		// Keepalive; accepted and ignored.
		return nil
	default:
		return d.reject(playerID, CodeInvalidActionType, fmt.Sprintf("unknown message type %q", env.Type))
	}
}

func (d *Dispatcher) handleAction(playerID string, payload json.RawMessage) [][]byte {
	var p ActionPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return d.reject(playerID, CodeInvalidPayload, "malformed playerAction payload")
	}

	var kind game.ActionKind
	switch p.Type {
	case "move":
		kind = game.ActionMove
	case "jump":
		kind = game.ActionJump
	case "shoot":
		kind = game.ActionShoot
	case "reload":
		kind = game.ActionReload
	default:
		return d.reject(playerID, CodeInvalidActionType, fmt.Sprintf("unknown action type %q", p.Type))
	}

	var data ActionData
	if len(p.Data) > 0 {
		if err := json.Unmarshal(p.Data, &data); err != nil {
			return d.reject(playerID, CodeInvalidPayload, "malformed action data")
		}
	}

	return d.apply(playerID, d.match.HandleAction(playerID, game.Action{
		Kind:      kind,
		Position:  data.Position,
		Rotation:  data.Rotation,
		Target:    data.Target,
		Direction: data.Direction,
		Lean:      data.Lean,
	}))
}

func (d *Dispatcher) handleSetName(playerID string, payload json.RawMessage) [][]byte {
	var p SetNamePayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return d.reject(playerID, CodeInvalidPayload, "malformed setName payload")
	}
	return d.apply(playerID, d.match.UpdatePlayerName(playerID, p.DisplayName))
}

func (d *Dispatcher) handleHeal(playerID string, payload json.RawMessage) [][]byte {
	var p HealPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return d.reject(playerID, CodeInvalidPayload, "malformed heal payload")
	}
	if p.Amount == nil || p.NewHealth == nil {
		return d.reject(playerID, CodeInvalidPayload, "heal requires amount and newHealth")
	}
	if *p.Amount != math.Trunc(*p.Amount) || *p.NewHealth != math.Trunc(*p.NewHealth) {
		return d.reject(playerID, CodeInvalidPayload, "heal fields must be integers")
	}
	if *p.Amount < 0 {
		return d.reject(playerID, CodeInvalidPayload, "heal amount must be non-negative")
	}
	return d.apply(playerID, d.match.HealPlayer(playerID, int(*p.Amount), int(*p.NewHealth)))
}

// apply translates store errors into wire errors. Dead-player faults are
// deliberately silent: stale actions arrive constantly around a death and
// spamming errors at a respawning client helps nobody.
func (d *Dispatcher) apply(playerID string, err error) [][]byte {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, game.ErrPlayerDead):
		return nil
	case errors.Is(err, game.ErrPlayerNotFound):
		return d.reject(playerID, CodePlayerNotFound, "player not in match")
	case errors.Is(err, game.ErrInvalidName):
		return d.reject(playerID, CodeInvalidName, fmt.Sprintf("display name must be 1-%d printable characters", game.MaxNameLength))
	case errors.Is(err, game.ErrBadAction):
		return d.reject(playerID, CodeInvalidPayload, "invalid action fields")
	default:
		return d.reject(playerID, CodeInvalidPayload, err.Error())
	}
}

func (d *Dispatcher) reject(playerID, code, message string) [][]byte {
	if d.verbose {
		log.Printf("📨 Rejected message from %s: %s (%s)", playerID, message, code)
	}
	return [][]byte{errorMessage(code, message)}
}
