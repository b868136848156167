package game

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log"
	"sync"
	"time"
	"unicode"
	"unicode/utf8"
)

const (
	// DefaultMaxPlayers caps a match when no explicit limit is configured.
	DefaultMaxPlayers = 50

	// DefaultTickRate is the simulation frequency in ticks per second.
	DefaultTickRate = 60

	// DefaultRespawnDelay is how long a killed player stays down.
	DefaultRespawnDelay = 3 * time.Second

	// MinPlayersToStart is the population needed for an active match.
	MinPlayersToStart = 2

	// statusInterval is the game-time spacing of periodic status summaries.
	statusInterval = 30.0

	// Achievement thresholds. Milestones fire on nonzero multiples of
	// killMilestoneStep; a close match needs the top two live players at
	// closeMatchMinKills or better within closeMatchMaxGap of each other.
	killMilestoneStep  = 5
	closeMatchMinKills = 6
	closeMatchMaxGap   = 2
)

// MatchConfig carries the tunables for a match. Zero values select the
// defaults above.
type MatchConfig struct {
	MaxPlayers   int
	TickRate     int
	RespawnDelay time.Duration
	SpawnPoints  []Vec3
}

// Callbacks are optional hooks invoked outside the match lock. Set them
// before Start; they are not guarded afterwards.
type Callbacks struct {
	OnTick func(d time.Duration)
	OnShot func(hit bool)
	OnKill func(killerID, victimID string)
}

// Match is the authoritative store for one arena. All player state lives
// behind its RWMutex; reads share, mutators exclude, and nothing sleeps or
// does I/O while holding it. Scheduled work (respawns) re-acquires the lock
// when it fires.
type Match struct {
	mu      sync.RWMutex
	players map[string]*Player

	id       string
	active   bool
	gameTime float64
	lastTick time.Time

	spawnPoints []Vec3
	nextSpawn   int

	maxPlayers   int
	tickRate     int
	respawnDelay time.Duration

	running  bool
	ticker   *time.Ticker
	stopChan chan struct{}

	// Stats
	totalKills int
	tickCount  int64

	// Edge-trigger state for achievement announcements
	killMilestones map[string]int
	closeMatchOn   bool

	callbacks Callbacks

	// Lock-free frames for diagnostic consumers (debug renderer, stats)
	snapshotPool *SnapshotPool

	// Event sourcing for audit and debugging
	eventLog *EventLog
}

// NewMatch creates an idle match with no players.
func NewMatch(cfg MatchConfig) *Match {
	if cfg.MaxPlayers <= 0 {
		cfg.MaxPlayers = DefaultMaxPlayers
	}
	if cfg.TickRate <= 0 {
		cfg.TickRate = DefaultTickRate
	}
	if cfg.RespawnDelay <= 0 {
		cfg.RespawnDelay = DefaultRespawnDelay
	}
	spawns := cfg.SpawnPoints
	if len(spawns) == 0 {
		spawns = DefaultSpawnPoints()
	}

	return &Match{
		id:             NewMatchID(),
		players:        make(map[string]*Player),
		spawnPoints:    spawns,
		maxPlayers:     cfg.MaxPlayers,
		tickRate:       cfg.TickRate,
		respawnDelay:   cfg.RespawnDelay,
		lastTick:       time.Now(),
		stopChan:       make(chan struct{}),
		killMilestones: make(map[string]int),
		snapshotPool:   NewSnapshotPool(ResourceLimits{MaxPlayers: cfg.MaxPlayers}),
		eventLog:       NewEventLog(),
	}
}

// NewMatchID returns a fresh random match identifier.
func NewMatchID() string {
	b := make([]byte, 4)
	if _, err := rand.Read(b); err != nil {
		return fmt.Sprintf("match_%x", time.Now().UnixNano())
	}
	return "match_" + hex.EncodeToString(b)
}

// MatchID returns the stable identifier assigned at construction.
func (m *Match) MatchID() string {
	return m.id
}

// SetCallbacks installs the observer hooks. Call before Start.
func (m *Match) SetCallbacks(cb Callbacks) {
	m.callbacks = cb
}

// Start begins the tick loop.
func (m *Match) Start() {
	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		return
	}
	m.running = true
	m.lastTick = time.Now()
	m.mu.Unlock()

	m.ticker = time.NewTicker(time.Second / time.Duration(m.tickRate))

	go func() {
		for {
			select {
			case <-m.ticker.C:
				m.tick()
			case <-m.stopChan:
				return
			}
		}
	}()

	log.Printf("🎮 Match %s ticking at %d TPS", m.id, m.tickRate)
}

// Stop halts the tick loop and releases pending respawn tasks.
func (m *Match) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.running {
		return
	}

	m.running = false
	if m.ticker != nil {
		m.ticker.Stop()
	}
	close(m.stopChan)
	log.Println("🛑 Match loop stopped")
}

// tick runs once per simulation step. Ticker dispatch means an overlong
// tick is simply followed by the next one; there is no catch-up stacking.
func (m *Match) tick() {
	start := time.Now()

	m.mu.Lock()
	now := time.Now()
	delta := now.Sub(m.lastTick).Seconds()
	if delta < 0 {
		delta = 0
	}
	m.lastTick = now
	prev := m.gameTime
	m.gameTime += delta
	m.tickCount++

	var status *statusSummary
	if int64(prev/statusInterval) != int64(m.gameTime/statusInterval) {
		status = m.statusLocked()
	}
	notes := m.achievementsLocked()

	m.publishFrameLocked()
	m.mu.Unlock()

	// Lock released: observers and logging only from here on.
	if m.callbacks.OnTick != nil {
		m.callbacks.OnTick(time.Since(start))
	}
	if status != nil {
		leader := "nobody"
		if status.leaderName != "" {
			leader = fmt.Sprintf("%s (%d kills)", status.leaderName, status.leaderKills)
		}
		log.Printf("📊 Status: %d players, %d alive, %d total kills, leader: %s, game time %.0fs, active=%v",
			status.players, status.alive, status.totalKills, leader, status.gameTime, status.active)
	}
	for _, note := range notes {
		log.Printf("🏆 %s", note)
	}
}

// statusSummary is snapshotted under the lock and logged after release.
type statusSummary struct {
	players     int
	alive       int
	totalKills  int
	leaderName  string
	leaderKills int
	gameTime    float64
	active      bool
}

func (m *Match) statusLocked() *statusSummary {
	s := &statusSummary{
		players:    len(m.players),
		totalKills: m.totalKills,
		gameTime:   m.gameTime,
		active:     m.active,
	}
	var leader *Player
	for _, p := range m.players {
		if p.IsAlive {
			s.alive++
		}
		if leader == nil || p.Kills > leader.Kills ||
			(p.Kills == leader.Kills && p.DisplayName < leader.DisplayName) {
			leader = p
		}
	}
	if leader != nil {
		s.leaderName = leader.DisplayName
		s.leaderKills = leader.Kills
	}
	return s
}

// achievementsLocked collects announcement lines. Milestones log once per
// player per value; the close-match call logs once per onset.
func (m *Match) achievementsLocked() []string {
	var notes []string

	for _, p := range m.players {
		if p.Kills > 0 && p.Kills%killMilestoneStep == 0 && m.killMilestones[p.ID] != p.Kills {
			m.killMilestones[p.ID] = p.Kills
			notes = append(notes, fmt.Sprintf("%s reached %d kills!", p.DisplayName, p.Kills))
		}
	}

	var first, second *Player
	for _, p := range m.players {
		if !p.IsAlive {
			continue
		}
		switch {
		case first == nil || p.Kills > first.Kills:
			second = first
			first = p
		case second == nil || p.Kills > second.Kills:
			second = p
		}
	}
	tight := first != nil && second != nil &&
		second.Kills >= closeMatchMinKills &&
		first.Kills-second.Kills <= closeMatchMaxGap
	if tight && !m.closeMatchOn {
		m.closeMatchOn = true
		notes = append(notes, fmt.Sprintf("Close match! %s (%d) vs %s (%d)",
			first.DisplayName, first.Kills, second.DisplayName, second.Kills))
	} else if !tight {
		m.closeMatchOn = false
	}
	return notes
}

// AddPlayer creates a full-health player at the next spawn point. The match
// auto-starts when the population reaches MinPlayersToStart.
func (m *Match) AddPlayer(id string) (PlayerSnapshot, error) {
	m.mu.Lock()
	if len(m.players) >= m.maxPlayers {
		count := len(m.players)
		m.mu.Unlock()
		log.Printf("⚠️ Match full (%d/%d), rejecting %s", count, m.maxPlayers, id)
		return PlayerSnapshot{}, ErrMatchFull
	}
	if _, ok := m.players[id]; ok {
		m.mu.Unlock()
		return PlayerSnapshot{}, ErrDuplicatePlayer
	}

	player := NewPlayer(id, m.nextSpawnLocked())
	m.players[id] = player
	count := len(m.players)

	m.eventLog.EmitSimple(EventTypePlayerJoin, uint64(m.tickCount), id,
		PlayerJoinPayload{
			PlayerID:   player.ID,
			PlayerName: player.DisplayName,
			Spawn:      player.Position,
		})

	started := false
	if !m.active && count >= MinPlayersToStart {
		m.startMatchLocked()
		started = true
	}
	snap := copyPlayer(player)
	m.mu.Unlock()

	log.Printf("👤 Player joined: %s (%d/%d)", id, count, m.maxPlayers)
	if started {
		log.Printf("🎮 Match %s started with %d players", m.id, count)
	}
	return snap, nil
}

// RemovePlayer drops the player from the match. A respawn pending for the
// id observes the absence and exits without reinsertion. The match auto-ends
// when the population falls below MinPlayersToStart.
func (m *Match) RemovePlayer(id string) error {
	m.mu.Lock()
	player, ok := m.players[id]
	if !ok {
		m.mu.Unlock()
		return ErrPlayerNotFound
	}
	delete(m.players, id)
	delete(m.killMilestones, id)
	count := len(m.players)
	name := player.DisplayName

	m.eventLog.EmitSimple(EventTypePlayerLeave, uint64(m.tickCount), id, nil)

	ended := false
	if m.active && count < MinPlayersToStart {
		m.endMatchLocked()
		ended = true
	}
	m.mu.Unlock()

	log.Printf("👤 Player left: %s (%d remaining)", name, count)
	if ended {
		log.Printf("🏁 Match %s ended: %d players remaining", m.id, count)
	}
	return nil
}

// GetSnapshot returns a deep copy of the match state taken under one shared
// lock acquisition. Callers own the result.
func (m *Match) GetSnapshot() MatchSnapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	snap := MatchSnapshot{
		MatchID:  m.id,
		IsActive: m.active,
		GameTime: m.gameTime,
		Players:  make(map[string]PlayerSnapshot, len(m.players)),
	}
	for id, p := range m.players {
		snap.Players[id] = copyPlayer(p)
	}
	return snap
}

// HandleAction validates and applies one gameplay action for a live player.
func (m *Match) HandleAction(id string, action Action) error {
	if err := action.validate(); err != nil {
		return err
	}

	m.mu.Lock()
	player, ok := m.players[id]
	if !ok {
		m.mu.Unlock()
		return ErrPlayerNotFound
	}
	if !player.IsAlive {
		m.mu.Unlock()
		return ErrPlayerDead
	}

	var shot *shotResult
	switch action.Kind {
	case ActionMove, ActionJump:
		if action.Position != nil {
			player.Position = *action.Position
		}
		if action.Rotation != nil {
			player.Rotation = *action.Rotation
		}
	case ActionShoot:
		shot = m.resolveShotLocked(player, action.Target, action.Direction)
		if shot != nil && shot.hit {
			m.eventLog.EmitSimple(EventTypeDamage, uint64(m.tickCount), id,
				DamagePayload{
					ShooterID:    id,
					VictimID:     shot.victimID,
					Damage:       ShotDamage,
					VictimHealth: shot.victimHealth,
					HitDistance:  shot.distance,
				})
			if shot.killed {
				m.totalKills++
				m.eventLog.EmitSimple(EventTypeKill, uint64(m.tickCount), id,
					KillPayload{
						KillerID:     id,
						VictimID:     shot.victimID,
						KillerKills:  shot.shooterKills,
						VictimDeaths: shot.victimDeaths,
					})
			}
		}
	case ActionReload:
		// Accepted for forward compatibility; ammo is not modeled.
	}
	m.mu.Unlock()

	if shot != nil {
		if m.callbacks.OnShot != nil {
			m.callbacks.OnShot(shot.hit)
		}
		if shot.killed {
			log.Printf("💀 %s killed by %s! (kills: %d)", shot.victimName, shot.shooterName, shot.shooterKills)
			if m.callbacks.OnKill != nil {
				m.callbacks.OnKill(id, shot.victimID)
			}
			m.scheduleRespawn(shot.victimID)
		}
	}
	return nil
}

// HandleShot resolves a shot outside the action path. It never fails
// externally; bad input degrades to a no-op.
func (m *Match) HandleShot(shooterID string, target, direction *Vec3) {
	_ = m.HandleAction(shooterID, Action{Kind: ActionShoot, Target: target, Direction: direction})
}

// UpdatePlayerName renames a player after validation.
func (m *Match) UpdatePlayerName(id, name string) error {
	if err := ValidateDisplayName(name); err != nil {
		return err
	}

	m.mu.Lock()
	player, ok := m.players[id]
	if !ok {
		m.mu.Unlock()
		return ErrPlayerNotFound
	}
	old := player.DisplayName
	player.DisplayName = name
	m.eventLog.EmitSimple(EventTypeRename, uint64(m.tickCount), id,
		RenamePayload{PlayerID: id, Name: name})
	m.mu.Unlock()

	log.Printf("📝 %s is now known as %s", old, name)
	return nil
}

// HealPlayer sets a live player's health to newHealth clamped to
// [0, MaxHealth]. Dead players are left for the respawn scheduler.
func (m *Match) HealPlayer(id string, amount, newHealth int) error {
	if amount < 0 {
		return ErrBadAction
	}

	m.mu.Lock()
	player, ok := m.players[id]
	if !ok {
		m.mu.Unlock()
		return ErrPlayerNotFound
	}
	if !player.IsAlive {
		m.mu.Unlock()
		return ErrPlayerDead
	}

	died := player.SetHealth(newHealth)
	m.eventLog.EmitSimple(EventTypeHeal, uint64(m.tickCount), id,
		HealEventPayload{PlayerID: id, Amount: amount, CurrentHealth: player.Health})
	name := player.DisplayName
	m.mu.Unlock()

	// Healing to zero is a self-inflicted death and respawns like any other.
	if died {
		log.Printf("💀 %s downed themselves", name)
		m.scheduleRespawn(id)
	}
	return nil
}

// StartMatch activates the match explicitly. Joins normally trigger this
// through the auto-start path.
func (m *Match) StartMatch() error {
	m.mu.Lock()
	if len(m.players) < MinPlayersToStart {
		m.mu.Unlock()
		return ErrTooFewPlayers
	}
	m.startMatchLocked()
	count := len(m.players)
	m.mu.Unlock()

	log.Printf("🎮 Match %s started with %d players", m.id, count)
	return nil
}

// EndMatch deactivates the match. Players stay connected.
func (m *Match) EndMatch() {
	m.mu.Lock()
	m.endMatchLocked()
	count := len(m.players)
	m.mu.Unlock()

	log.Printf("🏁 Match %s ended: %d players remaining", m.id, count)
}

// startMatchLocked begins a new match epoch: gameTime rewinds to zero here
// and nowhere else.
func (m *Match) startMatchLocked() {
	m.active = true
	m.gameTime = 0
	m.closeMatchOn = false
	m.eventLog.EmitSimple(EventTypeMatchStart, uint64(m.tickCount), "",
		MatchPayload{MatchID: m.id, PlayerCount: len(m.players)})
}

func (m *Match) endMatchLocked() {
	if !m.active {
		return
	}
	m.active = false
	m.eventLog.EmitSimple(EventTypeMatchEnd, uint64(m.tickCount), "",
		MatchPayload{MatchID: m.id, PlayerCount: len(m.players)})
}

// nextSpawnLocked rotates through the spawn table so consecutive spawns
// never co-locate.
func (m *Match) nextSpawnLocked() Vec3 {
	spawn := m.spawnPoints[m.nextSpawn%len(m.spawnPoints)]
	m.nextSpawn++
	return spawn
}

// copyPlayer produces the value view handed outside the lock.
func copyPlayer(p *Player) PlayerSnapshot {
	return PlayerSnapshot{
		ID:          p.ID,
		DisplayName: p.DisplayName,
		Position:    p.Position,
		Rotation:    p.Rotation,
		Health:      p.Health,
		IsAlive:     p.IsAlive,
		Kills:       p.Kills,
		Deaths:      p.Deaths,
	}
}

// ValidateDisplayName enforces the rename rules: 1..MaxNameLength codepoints,
// all printable.
func ValidateDisplayName(name string) error {
	n := utf8.RuneCountInString(name)
	if n < 1 || n > MaxNameLength {
		return ErrInvalidName
	}
	for _, r := range name {
		if !unicode.IsPrint(r) {
			return ErrInvalidName
		}
	}
	return nil
}

// publishFrameLocked copies the current state into the snapshot pool's write
// slot. Alive players publish first so a frame truncated at the pool limit
// keeps the interesting ones.
func (m *Match) publishFrameLocked() {
	snap := m.snapshotPool.AcquireWrite()
	snap.TickNumber = uint64(m.tickCount)
	snap.GameTime = m.gameTime
	snap.MatchActive = m.active
	snap.TotalKills = m.totalKills

	limit := m.snapshotPool.GetLimits().MaxPlayers
	alive := 0
	for pass := 0; pass < 2; pass++ {
		wantAlive := pass == 0
		for _, p := range m.players {
			if p.IsAlive != wantAlive {
				continue
			}
			if p.IsAlive {
				alive++
			}
			if len(snap.Players) >= limit {
				continue
			}
			snap.Players = append(snap.Players, copyPlayer(p))
		}
	}

	snap.PlayerCount = len(m.players)
	snap.AliveCount = alive
	m.snapshotPool.PublishWrite()
}

// LatestFrame returns the most recent published frame. The pool overwrites
// frames within two ticks; copy anything long-lived.
func (m *Match) LatestFrame() *GameSnapshot {
	return m.snapshotPool.AcquireRead()
}

// StartEventLog begins event persistence. An empty path keeps the in-memory
// ring only.
func (m *Match) StartEventLog(filePath string) error {
	return m.eventLog.Start(filePath)
}

// StopEventLog drains and closes the event writer.
func (m *Match) StopEventLog() {
	m.eventLog.Stop()
}

// EventLogStats exposes event-log counters for the debug endpoints.
func (m *Match) EventLogStats() map[string]interface{} {
	return m.eventLog.GetStats()
}
