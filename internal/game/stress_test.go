package game

import (
	"fmt"
	"math/rand"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// =============================================================================
// STRESS TEST SUITE: REAL-WORLD LOAD SIMULATION
// Run with: go test -v -run=TestStress -timeout=60s ./internal/game/...
// =============================================================================

// TestStress_SustainedCombat runs a fixed roster under a full action mix and
// checks the bookkeeping invariants at the end.
func TestStress_SustainedCombat(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping stress test in short mode")
	}

	const (
		playerCount = 30
		numWorkers  = 10
		duration    = 3 * time.Second
	)

	m := NewMatch(MatchConfig{
		MaxPlayers:   playerCount,
		RespawnDelay: 100 * time.Millisecond,
	})
	ids := make([]string, playerCount)
	for i := range ids {
		ids[i] = fmt.Sprintf("p%d", i)
		if _, err := m.AddPlayer(ids[i]); err != nil {
			t.Fatalf("AddPlayer failed: %v", err)
		}
	}

	// Tick loop with latency tracking.
	var (
		maxTickNanos int64
		tickCount    int64
	)
	stopTick := make(chan struct{})
	var tickWg sync.WaitGroup
	tickWg.Add(1)
	go func() {
		defer tickWg.Done()
		ticker := time.NewTicker(time.Second / 60)
		defer ticker.Stop()
		for {
			select {
			case <-stopTick:
				return
			case <-ticker.C:
				start := time.Now()
				m.tick()
				elapsed := time.Since(start).Nanoseconds()
				atomic.AddInt64(&tickCount, 1)
				for {
					prev := atomic.LoadInt64(&maxTickNanos)
					if elapsed <= prev || atomic.CompareAndSwapInt64(&maxTickNanos, prev, elapsed) {
						break
					}
				}
			}
		}
	}()

	var commandsProcessed int64
	var wg sync.WaitGroup
	deadline := time.Now().Add(duration)

	for w := 0; w < numWorkers; w++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			rng := rand.New(rand.NewSource(int64(workerID)))
			for time.Now().Before(deadline) {
				id := ids[rng.Intn(playerCount)]
				switch rng.Intn(5) {
				case 0, 1: // movement dominates real traffic
					pos := Vec3{
						X: rng.Float64()*2*ArenaHalfExtent - ArenaHalfExtent,
						Z: rng.Float64()*2*ArenaHalfExtent - ArenaHalfExtent,
					}
					rot := Vec3{Y: rng.Float64() * 360}
					m.HandleAction(id, Action{Kind: ActionMove, Position: &pos, Rotation: &rot})
				case 2:
					dir := Vec3{X: rng.Float64() - 0.5, Z: rng.Float64() - 0.5}
					m.HandleAction(id, Action{Kind: ActionShoot, Direction: &dir})
				case 3:
					// Heals never target zero here; self-downs would skew
					// the kill/death balance checked below.
					h := 10 + rng.Intn(MaxHealth-10)
					m.HealPlayer(id, 10, h)
				case 4:
					m.GetSnapshot()
				}
				atomic.AddInt64(&commandsProcessed, 1)
			}
		}(w)
	}

	wg.Wait()
	close(stopTick)
	tickWg.Wait()
	m.Stop()
	time.Sleep(50 * time.Millisecond) // let in-flight respawns land

	snap := m.GetSnapshot()
	kills, deaths := 0, 0
	for id, p := range snap.Players {
		if p.Health < 0 || p.Health > MaxHealth {
			t.Errorf("%s health %d out of bounds", id, p.Health)
		}
		if p.IsAlive && p.Health == 0 {
			t.Errorf("%s alive at zero health", id)
		}
		if !p.IsAlive && p.Health != 0 {
			t.Errorf("%s dead with health %d", id, p.Health)
		}
		kills += p.Kills
		deaths += p.Deaths
	}

	m.mu.RLock()
	total := m.totalKills
	m.mu.RUnlock()

	if kills != total {
		t.Errorf("Kill ledger mismatch: players sum %d, match total %d", kills, total)
	}
	if deaths != kills {
		t.Errorf("Every kill needs exactly one death: %d kills, %d deaths", kills, deaths)
	}

	maxTick := time.Duration(atomic.LoadInt64(&maxTickNanos))
	t.Logf("Sustained Combat Results:")
	t.Logf("  Commands: %d", atomic.LoadInt64(&commandsProcessed))
	t.Logf("  Ticks: %d", atomic.LoadInt64(&tickCount))
	t.Logf("  Max Tick Time: %v", maxTick)
	t.Logf("  Kills: %d", total)

	if maxTick > 50*time.Millisecond {
		t.Errorf("Max tick time %v exceeds 50ms threshold", maxTick)
	}
}

// TestStress_JoinLeaveChurn hammers the roster with overlapping joins and
// leaves while combat continues.
func TestStress_JoinLeaveChurn(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping stress test in short mode")
	}

	const maxPlayers = 50

	m := NewMatch(MatchConfig{
		MaxPlayers:   maxPlayers,
		RespawnDelay: 50 * time.Millisecond,
	})
	m.Start()
	defer m.Stop()

	var wg sync.WaitGroup
	deadline := time.Now().Add(2 * time.Second)

	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			rng := rand.New(rand.NewSource(int64(workerID) + 100))
			for time.Now().Before(deadline) {
				// Overlapping id space forces duplicate-join and
				// missing-leave collisions on purpose.
				id := fmt.Sprintf("churn%d", rng.Intn(60))
				switch rng.Intn(4) {
				case 0:
					m.AddPlayer(id)
				case 1:
					m.RemovePlayer(id)
				case 2:
					dir := Vec3{X: 1}
					m.HandleAction(id, Action{Kind: ActionShoot, Direction: &dir})
				case 3:
					m.GetSnapshot()
				}
			}
		}(w)
	}

	wg.Wait()

	snap := m.GetSnapshot()
	if snap.PlayerCount() > maxPlayers {
		t.Errorf("Player count %d exceeds cap %d", snap.PlayerCount(), maxPlayers)
	}
	for id, p := range snap.Players {
		if p.Health < 0 || p.Health > MaxHealth {
			t.Errorf("%s health %d out of bounds", id, p.Health)
		}
		if p.IsAlive != (p.Health > 0) {
			t.Errorf("%s liveness inconsistent: alive=%v health=%d", id, p.IsAlive, p.Health)
		}
	}

	t.Logf("Churn survived with %d players resident", snap.PlayerCount())
}
