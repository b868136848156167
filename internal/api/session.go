package api

import (
	"bytes"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	// writeWait bounds a single write to the peer.
	writeWait = 10 * time.Second

	// pongWait is how long the peer may stay silent. The read deadline
	// resets on every pong, so a healthy client is never cut off.
	pongWait = 60 * time.Second

	// pingPeriod must be shorter than pongWait so pings keep the deadline fed.
	pingPeriod = (pongWait * 9) / 10

	// maxMessageSize bounds inbound frames; gameplay messages are tiny.
	maxMessageSize = 4096

	// controlQueueSize holds init/error frames, which are rare and never
	// dropped. snapshotQueueSize absorbs broadcast bursts; overflow drops
	// the oldest snapshot since only the newest state matters.
	controlQueueSize  = 8
	snapshotQueueSize = 16
)

// Session owns one player's WebSocket connection. The reader pump is the
// only goroutine reading the peer and the writer pump the only one writing
// it; everything else talks to the session through its queues. Either pump
// failing tears the whole session down exactly once.
type Session struct {
	PlayerID string

	hub  *Hub
	conn *websocket.Conn
	ip   string

	control   chan []byte // init/error frames, drained ahead of snapshots
	snapshots chan []byte // gameState frames, bounded, drop-oldest
	done      chan struct{}
	closeOnce sync.Once
}

func newSession(hub *Hub, conn *websocket.Conn, playerID, ip string) *Session {
	return &Session{
		PlayerID:  playerID,
		hub:       hub,
		conn:      conn,
		ip:        ip,
		control:   make(chan []byte, controlQueueSize),
		snapshots: make(chan []byte, snapshotQueueSize),
		done:      make(chan struct{}),
	}
}

// QueueControl enqueues an init or error frame. Control frames are never
// dropped; if the session is dying the frame is moot anyway.
func (s *Session) QueueControl(msg []byte) {
	select {
	case s.control <- msg:
	case <-s.done:
	}
}

// QueueSnapshot enqueues a gameState frame. A full queue means the peer is
// not keeping up: the oldest snapshot is discarded to make room, since a
// newer one supersedes it.
func (s *Session) QueueSnapshot(msg []byte) {
	select {
	case <-s.done:
		return
	default:
	}

	select {
	case s.snapshots <- msg:
		return
	default:
	}

	select {
	case <-s.snapshots:
		RecordSnapshotDropped()
	default:
	}
	select {
	case s.snapshots <- msg:
	default:
	}
}

// readPump pulls frames off the wire and hands them to the dispatcher.
// A transport frame may carry a single message or a newline-separated batch.
func (s *Session) readPump() {
	defer func() {
		s.teardown()
		s.hub.wg.Done()
	}()

	s.conn.SetReadLimit(maxMessageSize)
	s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		s.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, raw, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Printf("⚠️ Session %s read error: %v", s.PlayerID, err)
			}
			return
		}
		RecordWSMessage("in")

		for _, part := range bytes.Split(raw, []byte{'\n'}) {
			part = bytes.TrimSpace(part)
			if len(part) == 0 {
				continue
			}
			for _, reply := range s.hub.dispatcher.Dispatch(s.PlayerID, part) {
				s.QueueControl(reply)
			}
		}
	}
}

// writePump pushes queued frames and keepalive pings to the peer. Control
// frames always drain before snapshots.
func (s *Session) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		s.teardown()
		s.hub.wg.Done()
	}()

	for {
		select {
		case msg := <-s.control:
			if !s.write(msg) {
				return
			}
			continue
		default:
		}

		select {
		case msg := <-s.control:
			if !s.write(msg) {
				return
			}
		case msg := <-s.snapshots:
			if !s.write(msg) {
				return
			}
		case <-ticker.C:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-s.done:
			return
		}
	}
}

func (s *Session) write(msg []byte) bool {
	s.conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := s.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
		return false
	}
	RecordWSMessage("out")
	return true
}

// teardown is the one-shot cleanup shared by both pumps and the shutdown
// path: closing the connection unblocks the other pump, closing done stops
// producers, and the hub removes the player. Double-close is a no-op.
func (s *Session) teardown() {
	s.closeOnce.Do(func() {
		close(s.done)
		s.conn.Close()
		s.hub.dropSession(s)
	})
}

// closeGraceful tells the peer we are going away before tearing down. Used
// on server shutdown; WriteControl is safe alongside a concurrent writer.
func (s *Session) closeGraceful(reason string) {
	msg := websocket.FormatCloseMessage(websocket.CloseGoingAway, reason)
	s.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait))
	s.teardown()
}
