package api

import (
	"encoding/json"
	"testing"

	"arena-fps/internal/game"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newDispatchFixture builds a match with the named players plus a dispatcher.
func newDispatchFixture(t *testing.T, ids ...string) (*game.Match, *Dispatcher) {
	t.Helper()
	m := game.NewMatch(game.MatchConfig{})
	for _, id := range ids {
		_, err := m.AddPlayer(id)
		require.NoError(t, err)
	}
	return m, NewDispatcher(m, false)
}

// decodeError asserts the frame is an error envelope and returns its payload.
func decodeError(t *testing.T, frame []byte) ErrorPayload {
	t.Helper()
	var env Envelope
	require.NoError(t, json.Unmarshal(frame, &env))
	require.Equal(t, MsgTypeError, env.Type)
	var p ErrorPayload
	require.NoError(t, json.Unmarshal(env.Payload, &p))
	return p
}

// placePlayer moves a player to pos through the public action path.
func placePlayer(t *testing.T, m *game.Match, id string, pos game.Vec3) {
	t.Helper()
	require.NoError(t, m.HandleAction(id, game.Action{Kind: game.ActionMove, Position: &pos}))
}

func TestDispatchUnparseableMessage(t *testing.T) {
	_, d := newDispatchFixture(t, "p1")

	replies := d.Dispatch("p1", []byte(`{not json`))
	require.Len(t, replies, 1)
	p := decodeError(t, replies[0])
	assert.Equal(t, CodeInvalidPayload, p.Code)
}

func TestDispatchUnknownMessageType(t *testing.T) {
	_, d := newDispatchFixture(t, "p1")

	replies := d.Dispatch("p1", []byte(`{"type":"dance","payload":{}}`))
	require.Len(t, replies, 1)
	p := decodeError(t, replies[0])
	assert.Equal(t, CodeInvalidActionType, p.Code)
	assert.Contains(t, p.Message, "dance")
}

func TestDispatchUnknownActionSubtype(t *testing.T) {
	_, d := newDispatchFixture(t, "p1")

	replies := d.Dispatch("p1", []byte(`{"type":"playerAction","payload":{"type":"fly","data":{}}}`))
	require.Len(t, replies, 1)
	p := decodeError(t, replies[0])
	assert.Equal(t, CodeInvalidActionType, p.Code)
	assert.Contains(t, p.Message, "fly")
}

func TestDispatchMalformedActionData(t *testing.T) {
	_, d := newDispatchFixture(t, "p1")

	tests := []struct {
		name string
		raw  string
	}{
		{"payload not an object", `{"type":"playerAction","payload":"zap"}`},
		{"data not an object", `{"type":"playerAction","payload":{"type":"move","data":"zap"}}`},
		{"position not a vector", `{"type":"playerAction","payload":{"type":"move","data":{"position":"here"}}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			replies := d.Dispatch("p1", []byte(tt.raw))
			require.Len(t, replies, 1)
			assert.Equal(t, CodeInvalidPayload, decodeError(t, replies[0]).Code)
		})
	}
}

func TestDispatchMove(t *testing.T) {
	m, d := newDispatchFixture(t, "p1")

	raw := `{"type":"playerAction","payload":{"type":"move","data":{"position":{"x":3,"y":0,"z":4},"rotation":{"x":0,"y":45,"z":0}}}}`
	replies := d.Dispatch("p1", []byte(raw))
	assert.Empty(t, replies)

	p := m.GetSnapshot().Players["p1"]
	assert.Equal(t, game.Vec3{X: 3, Y: 0, Z: 4}, p.Position)
	assert.Equal(t, game.Vec3{X: 0, Y: 45, Z: 0}, p.Rotation)
}

func TestDispatchMoveRejectsNonFinite(t *testing.T) {
	m, d := newDispatchFixture(t, "p1")
	before := m.GetSnapshot().Players["p1"].Position

	// JSON has no NaN literal; the closest a client can get is an exponent
	// that overflows float64, which must die in decoding.
	raw := `{"type":"playerAction","payload":{"type":"move","data":{"position":{"x":1e999,"y":0,"z":0}}}}`
	replies := d.Dispatch("p1", []byte(raw))
	require.Len(t, replies, 1)
	assert.Equal(t, CodeInvalidPayload, decodeError(t, replies[0]).Code)
	assert.Equal(t, before, m.GetSnapshot().Players["p1"].Position)
}

func TestDispatchShoot(t *testing.T) {
	m, d := newDispatchFixture(t, "shooter", "victim")
	placePlayer(t, m, "shooter", game.Vec3{})
	placePlayer(t, m, "victim", game.Vec3{X: 10})

	raw := `{"type":"playerAction","payload":{"type":"shoot","data":{"direction":{"x":1,"y":0,"z":0}}}}`
	replies := d.Dispatch("shooter", []byte(raw))
	assert.Empty(t, replies)

	assert.Equal(t, game.MaxHealth-game.ShotDamage, m.GetSnapshot().Players["victim"].Health)
}

func TestDispatchShootWithoutGeometry(t *testing.T) {
	_, d := newDispatchFixture(t, "p1")

	raw := `{"type":"playerAction","payload":{"type":"shoot","data":{}}}`
	replies := d.Dispatch("p1", []byte(raw))
	require.Len(t, replies, 1)
	assert.Equal(t, CodeInvalidPayload, decodeError(t, replies[0]).Code)
}

func TestDispatchReloadAndPing(t *testing.T) {
	_, d := newDispatchFixture(t, "p1")

	assert.Empty(t, d.Dispatch("p1", []byte(`{"type":"playerAction","payload":{"type":"reload"}}`)))
	assert.Empty(t, d.Dispatch("p1", []byte(`{"type":"ping"}`)))
}

func TestDispatchSetName(t *testing.T) {
	m, d := newDispatchFixture(t, "p1")

	replies := d.Dispatch("p1", []byte(`{"type":"setName","payload":{"displayName":"Slayer"}}`))
	assert.Empty(t, replies)
	assert.Equal(t, "Slayer", m.GetSnapshot().Players["p1"].DisplayName)

	replies = d.Dispatch("p1", []byte(`{"type":"setName","payload":{"displayName":""}}`))
	require.Len(t, replies, 1)
	assert.Equal(t, CodeInvalidName, decodeError(t, replies[0]).Code)

	replies = d.Dispatch("p1", []byte(`{"type":"setName","payload":"zap"}`))
	require.Len(t, replies, 1)
	assert.Equal(t, CodeInvalidPayload, decodeError(t, replies[0]).Code)
}

func TestDispatchHeal(t *testing.T) {
	m, d := newDispatchFixture(t, "p1")

	tests := []struct {
		name     string
		raw      string
		wantCode string
	}{
		{"missing newHealth", `{"type":"heal","payload":{"amount":10}}`, CodeInvalidPayload},
		{"missing amount", `{"type":"heal","payload":{"newHealth":80}}`, CodeInvalidPayload},
		{"fractional amount", `{"type":"heal","payload":{"amount":1.5,"newHealth":80}}`, CodeInvalidPayload},
		{"fractional newHealth", `{"type":"heal","payload":{"amount":10,"newHealth":80.5}}`, CodeInvalidPayload},
		{"negative amount", `{"type":"heal","payload":{"amount":-10,"newHealth":80}}`, CodeInvalidPayload},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			replies := d.Dispatch("p1", []byte(tt.raw))
			require.Len(t, replies, 1)
			assert.Equal(t, tt.wantCode, decodeError(t, replies[0]).Code)
		})
	}

	// Valid heal pins health to newHealth.
	replies := d.Dispatch("p1", []byte(`{"type":"heal","payload":{"amount":20,"newHealth":80}}`))
	assert.Empty(t, replies)
	assert.Equal(t, 80, m.GetSnapshot().Players["p1"].Health)

	// Values beyond max clamp instead of erroring.
	replies = d.Dispatch("p1", []byte(`{"type":"heal","payload":{"amount":500,"newHealth":500}}`))
	assert.Empty(t, replies)
	assert.Equal(t, game.MaxHealth, m.GetSnapshot().Players["p1"].Health)
}

func TestDispatchDeadPlayerIsSilent(t *testing.T) {
	m, d := newDispatchFixture(t, "shooter", "victim")
	placePlayer(t, m, "shooter", game.Vec3{})
	placePlayer(t, m, "victim", game.Vec3{X: 10})

	shootFrame := []byte(`{"type":"playerAction","payload":{"type":"shoot","data":{"direction":{"x":1,"y":0,"z":0}}}}`)
	for i := 0; i < 4; i++ {
		assert.Empty(t, d.Dispatch("shooter", shootFrame))
	}
	require.False(t, m.GetSnapshot().Players["victim"].IsAlive)

	// Stale actions from the corpse draw no error spam.
	moveFrame := []byte(`{"type":"playerAction","payload":{"type":"move","data":{"position":{"x":1,"y":0,"z":1}}}}`)
	assert.Empty(t, d.Dispatch("victim", moveFrame))
	assert.Empty(t, d.Dispatch("victim", shootFrame))
	assert.Empty(t, d.Dispatch("victim", []byte(`{"type":"heal","payload":{"amount":10,"newHealth":50}}`)))

	// Renames still surface their own validation errors even for the dead.
	replies := d.Dispatch("victim", []byte(`{"type":"setName","payload":{"displayName":""}}`))
	require.Len(t, replies, 1)
	assert.Equal(t, CodeInvalidName, decodeError(t, replies[0]).Code)
}

func TestDispatchUnknownPlayer(t *testing.T) {
	_, d := newDispatchFixture(t)

	raw := `{"type":"playerAction","payload":{"type":"move","data":{"position":{"x":1,"y":0,"z":0}}}}`
	replies := d.Dispatch("ghost", []byte(raw))
	require.Len(t, replies, 1)
	assert.Equal(t, CodePlayerNotFound, decodeError(t, replies[0]).Code)
}

func TestDispatchErrorEnvelopeShape(t *testing.T) {
	_, d := newDispatchFixture(t, "p1")

	replies := d.Dispatch("p1", []byte(`{"type":"dance"}`))
	require.Len(t, replies, 1)

	var env Envelope
	require.NoError(t, json.Unmarshal(replies[0], &env))
	assert.Equal(t, MsgTypeError, env.Type)
	assert.NotZero(t, env.Timestamp, "error frames carry a timestamp")

	p := decodeError(t, replies[0])
	assert.Equal(t, CodeInvalidActionType, p.Code)
	assert.NotEmpty(t, p.Message)
}
