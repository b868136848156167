package api

import (
	"errors"
	"log"
	"net/http"
	"sync"
	"time"

	"arena-fps/internal/game"

	"github.com/gorilla/websocket"
)

const (
	// MaxWSConnectionsTotal is the transport-level connection ceiling. The
	// match's own player cap is enforced separately by AddPlayer.
	MaxWSConnectionsTotal = 500

	// MaxWSConnectionsPerIP is the per-IP concurrent connection cap.
	MaxWSConnectionsPerIP = 10

	// DefaultBroadcastRate is the state fan-out frequency in Hz.
	DefaultBroadcastRate = 20
)

// HubConfig wires a Hub to its match and transport limits.
type HubConfig struct {
	Match          *game.Match
	BroadcastRate  int      // broadcasts per second; 0 selects the default
	AllowedOrigins []string // browser origins; "*" permits any
	MaxConnections int      // total connection cap; 0 selects the default
	MaxPerIP       int      // per-IP cap; 0 selects the default
	Verbose        bool     // per-rejection dispatch logging
}

// Hub owns every live session: admission, join handshake, fan-out, and
// shutdown. Sessions remove themselves through dropSession when their pumps
// die.
type Hub struct {
	match      *game.Match
	dispatcher *Dispatcher
	upgrader   websocket.Upgrader

	mu       sync.RWMutex
	sessions map[string]*Session // keyed by player id

	wsLimiter      *WebSocketRateLimiter
	maxConnections int
	broadcastRate  int

	stopChan chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewHub creates a hub. No goroutines start until StartBroadcastLoop.
func NewHub(cfg HubConfig) *Hub {
	if cfg.BroadcastRate <= 0 {
		cfg.BroadcastRate = DefaultBroadcastRate
	}
	if cfg.MaxConnections <= 0 {
		cfg.MaxConnections = MaxWSConnectionsTotal
	}
	if cfg.MaxPerIP <= 0 {
		cfg.MaxPerIP = MaxWSConnectionsPerIP
	}

	h := &Hub{
		match:          cfg.Match,
		dispatcher:     NewDispatcher(cfg.Match, cfg.Verbose),
		sessions:       make(map[string]*Session),
		wsLimiter:      NewWebSocketRateLimiter(cfg.MaxPerIP),
		maxConnections: cfg.MaxConnections,
		broadcastRate:  cfg.BroadcastRate,
		stopChan:       make(chan struct{}),
	}

	origins := cfg.AllowedOrigins
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if IsAllowedOrigin(origin, origins) {
				return true
			}
			log.Printf("⚠️ WebSocket connection rejected from origin: %s", origin)
			RecordConnectionRejected("origin")
			return false
		},
	}
	return h
}

// HandleWebSocket admits, upgrades, and joins one connection. The join
// handshake queues init and playerId before the pumps start, so the id
// always reaches the client ahead of the first snapshot.
func (h *Hub) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	ip := GetClientIP(r)

	if h.SessionCount() >= h.maxConnections {
		log.Printf("⚠️ Connection rejected: total limit reached (%d)", h.maxConnections)
		RecordConnectionRejected("ws_total_limit")
		http.Error(w, "Too many connections", http.StatusServiceUnavailable)
		return
	}

	if !h.wsLimiter.Allow(ip) {
		log.Printf("⚠️ Connection rejected from %s: per-IP limit reached", ip)
		RecordConnectionRejected("ws_ip_limit")
		http.Error(w, "Too many connections from your IP", http.StatusTooManyRequests)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("⚠️ WebSocket upgrade error: %v", err)
		h.wsLimiter.Release(ip)
		return
	}

	// Random ids collide only in theory, but a duplicate join must not leak
	// a half-open session; retry a couple of times, then give up.
	var playerID string
	var joinErr error
	for attempt := 0; attempt < 3; attempt++ {
		playerID = game.NewPlayerID()
		if _, joinErr = h.match.AddPlayer(playerID); !errors.Is(joinErr, game.ErrDuplicatePlayer) {
			break
		}
	}
	if joinErr != nil {
		h.rejectJoin(conn, ip, joinErr)
		return
	}

	sess := newSession(h, conn, playerID, ip)
	if initMsg, err := encodeMessage(MsgTypeInit, InitPayload{ID: playerID}); err == nil {
		sess.QueueControl(initMsg)
	}
	if idMsg, err := encodeMessage(MsgTypePlayerID, InitPayload{ID: playerID}); err == nil {
		sess.QueueControl(idMsg)
	}

	h.addSession(sess)
	h.wg.Add(2)
	go sess.writePump()
	go sess.readPump()
}

// rejectJoin surfaces a join failure on the not-yet-session connection and
// closes it. The error frame is written directly; no pumps exist yet.
func (h *Hub) rejectJoin(conn *websocket.Conn, ip string, joinErr error) {
	code := CodeInvalidPayload
	msg := "join failed"
	switch {
	case errors.Is(joinErr, game.ErrMatchFull):
		code, msg = CodeMatchFull, "match is full"
		RecordConnectionRejected("match_full")
	case errors.Is(joinErr, game.ErrDuplicatePlayer):
		code, msg = CodeInvalidPayload, "could not assign a player id"
		RecordConnectionRejected("id_collision")
	}

	conn.SetWriteDeadline(time.Now().Add(writeWait))
	conn.WriteMessage(websocket.TextMessage, errorMessage(code, msg))
	conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.ClosePolicyViolation, msg),
		time.Now().Add(writeWait))
	conn.Close()
	h.wsLimiter.Release(ip)
}

func (h *Hub) addSession(s *Session) {
	h.mu.Lock()
	h.sessions[s.PlayerID] = s
	count := len(h.sessions)
	h.mu.Unlock()

	log.Printf("📱 Client connected from %s (%d total)", s.ip, count)
	UpdateWSConnections(count)
}

// dropSession detaches a session and removes its player. Reached exactly
// once per session via teardown, however the session died.
func (h *Hub) dropSession(s *Session) {
	h.mu.Lock()
	if _, ok := h.sessions[s.PlayerID]; !ok {
		h.mu.Unlock()
		return
	}
	delete(h.sessions, s.PlayerID)
	count := len(h.sessions)
	h.mu.Unlock()

	h.wsLimiter.Release(s.ip)
	h.match.RemovePlayer(s.PlayerID)

	log.Printf("📱 Client disconnected (%d remaining)", count)
	UpdateWSConnections(count)
}

// SessionCount returns the number of live sessions.
func (h *Hub) SessionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions)
}

// StartBroadcastLoop launches the periodic state fan-out.
func (h *Hub) StartBroadcastLoop() {
	ticker := time.NewTicker(time.Second / time.Duration(h.broadcastRate))

	h.wg.Add(1)
	go func() {
		defer func() {
			ticker.Stop()
			h.wg.Done()
		}()
		for {
			select {
			case <-ticker.C:
				h.broadcastState()
			case <-h.stopChan:
				return
			}
		}
	}()

	log.Printf("📡 Broadcasting state at %d Hz", h.broadcastRate)
}

// broadcastState takes one consistent snapshot, marshals it once, and hands
// the identical bytes to every session's queue. Slow peers shed old frames
// in QueueSnapshot instead of stalling the loop.
func (h *Hub) broadcastState() {
	if h.SessionCount() == 0 {
		return
	}
	start := time.Now()

	snap := h.match.GetSnapshot()
	msg, err := encodeMessage(MsgTypeGameState, snap)
	if err != nil {
		log.Printf("⚠️ gameState encode failed: %v", err)
		return
	}

	h.mu.RLock()
	targets := make([]*Session, 0, len(h.sessions))
	for _, s := range h.sessions {
		targets = append(targets, s)
	}
	h.mu.RUnlock()

	for _, s := range targets {
		s.QueueSnapshot(msg)
	}

	RecordBroadcast(time.Since(start))
	UpdatePlayerCount(snap.PlayerCount())
}

// Stop halts the broadcaster, closes every session with a close frame, and
// waits for pump cleanup to finish.
func (h *Hub) Stop() {
	h.stopOnce.Do(func() {
		close(h.stopChan)

		h.mu.RLock()
		targets := make([]*Session, 0, len(h.sessions))
		for _, s := range h.sessions {
			targets = append(targets, s)
		}
		h.mu.RUnlock()

		for _, s := range targets {
			s.closeGraceful("server shutting down")
		}
		h.wg.Wait()
	})
}
