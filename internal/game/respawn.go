package game

import (
	"log"
	"time"
)

// scheduleRespawn arms a one-shot respawn for the given id. The task
// captures only the id, never a *Player, so a disconnect during the delay
// simply makes the lookup fail. Match shutdown releases pending tasks.
func (m *Match) scheduleRespawn(id string) {
	timer := time.NewTimer(m.respawnDelay)
	go func() {
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-m.stopChan:
			return
		}
		m.respawn(id)
	}()
}

// respawn restores a still-present, still-dead player to full health at the
// next spawn point. Kills and deaths carry over.
func (m *Match) respawn(id string) {
	m.mu.Lock()
	player, ok := m.players[id]
	if !ok || player.IsAlive {
		m.mu.Unlock()
		return
	}

	spawn := m.nextSpawnLocked()
	player.Respawn(spawn)
	m.eventLog.EmitSimple(EventTypeRespawn, uint64(m.tickCount), id,
		RespawnPayload{PlayerID: id, Spawn: spawn})
	name := player.DisplayName
	m.mu.Unlock()

	log.Printf("🔄 %s respawned at (%.1f, %.1f, %.1f)", name, spawn.X, spawn.Y, spawn.Z)
}
