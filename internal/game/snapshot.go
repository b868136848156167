package game

import (
	"sync/atomic"
	"time"
)

// PlayerSnapshot is an immutable copy of one player's state.
// Value type (no pointers) so a published snapshot never aliases the live player.
type PlayerSnapshot struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
	Position    Vec3   `json:"position"`
	Rotation    Vec3   `json:"rotation"`
	Health      int    `json:"health"`
	IsAlive     bool   `json:"isAlive"`
	Kills       int    `json:"kills"`
	Deaths      int    `json:"deaths"`
}

// MatchSnapshot is the consistent read view handed to the broadcaster and the
// status endpoint. It is built under one lock acquisition and owned by the
// caller afterwards.
type MatchSnapshot struct {
	MatchID  string                    `json:"matchId"`
	IsActive bool                      `json:"isActive"`
	GameTime float64                   `json:"gameTime"`
	Players  map[string]PlayerSnapshot `json:"players"`
}

// PlayerCount returns the number of players in the view.
func (s MatchSnapshot) PlayerCount() int {
	return len(s.Players)
}

// AliveCount returns the number of live players in the view.
func (s MatchSnapshot) AliveCount() int {
	n := 0
	for _, p := range s.Players {
		if p.IsAlive {
			n++
		}
	}
	return n
}

// ResourceLimits defines hard caps on pooled snapshot sizes so client count
// spikes can never balloon pool memory.
type ResourceLimits struct {
	MaxPlayers int // Hard cap on players per pooled snapshot
}

// DefaultLimits provides production-safe default limits
var DefaultLimits = ResourceLimits{
	MaxPlayers: 200,
}

// GameSnapshot is a complete immutable frame of match state for diagnostics
// (debug endpoints, arena rendering). The Players slice is pre-allocated and
// capped; it belongs to the pool and must not be retained across reads.
type GameSnapshot struct {
	Sequence   uint64    // Monotonic sequence for ordering
	Timestamp  time.Time // When the snapshot was produced
	TickNumber uint64    // Tick this frame represents

	GameTime    float64
	MatchActive bool

	Players []PlayerSnapshot

	// Aggregate stats
	PlayerCount int
	AliveCount  int
	TotalKills  int
}

// SnapshotPool pre-allocates snapshots to avoid GC pressure.
// Uses triple buffering for lock-free producer/consumer.
type SnapshotPool struct {
	snapshots [3]GameSnapshot // Triple buffer
	limits    ResourceLimits
	writeIdx  uint32 // atomic - producer index
	readIdx   uint32 // atomic - consumer index
	sequence  uint64 // atomic - monotonic sequence
}

// NewSnapshotPool creates a pool with pre-allocated slices
func NewSnapshotPool(limits ResourceLimits) *SnapshotPool {
	pool := &SnapshotPool{limits: limits}

	for i := 0; i < 3; i++ {
		pool.snapshots[i] = GameSnapshot{
			Players: make([]PlayerSnapshot, 0, limits.MaxPlayers),
		}
	}

	return pool
}

// AcquireWrite gets the next write slot (producer only, called from the tick
// loop). Returns a snapshot with reset slices but preserved capacity.
func (p *SnapshotPool) AcquireWrite() *GameSnapshot {
	idx := atomic.AddUint32(&p.writeIdx, 1) % 3
	snap := &p.snapshots[idx]

	// Reset slices but keep capacity (zero allocation)
	snap.Players = snap.Players[:0]

	snap.Sequence = atomic.AddUint64(&p.sequence, 1)
	snap.Timestamp = time.Now()

	return snap
}

// PublishWrite marks the write complete and advances the read pointer.
// Called after the snapshot is fully populated.
func (p *SnapshotPool) PublishWrite() {
	atomic.StoreUint32(&p.readIdx, atomic.LoadUint32(&p.writeIdx))
}

// AcquireRead gets the latest complete snapshot (consumer only, called from
// debug endpoints). The returned frame is overwritten within two ticks; copy
// anything that must outlive the read.
func (p *SnapshotPool) AcquireRead() *GameSnapshot {
	idx := atomic.LoadUint32(&p.readIdx) % 3
	return &p.snapshots[idx]
}

// GetLimits returns the resource limits
func (p *SnapshotPool) GetLimits() ResourceLimits {
	return p.limits
}
