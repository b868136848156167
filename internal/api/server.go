package api

import (
	"context"
	"log"
	"net/http"

	"arena-fps/internal/game"

	"github.com/go-chi/chi/v5"
)

// Options tunes the public server surface.
type Options struct {
	BroadcastRate  int      // gameState broadcasts per second
	CORSOrigins    []string // allowed browser origins
	MaxPlayers     int      // advisory; the match enforces its own cap
	DisableLogging bool     // drop the request logger (production, tests)
	Verbose        bool     // per-rejection dispatch logging (development)
}

// Server is the public HTTP listener: the /ws game endpoint plus the
// /health and /status sideband.
type Server struct {
	match       *game.Match
	router      *chi.Mux
	hub         *Hub
	rateLimiter *IPRateLimiter
	httpServer  *http.Server
}

// NewServer creates the server around an existing match.
//
// IMPORTANT: Background workers do NOT start until Start (or StartWorkers)
// is called. This enables testing by allowing the server to be constructed
// without starting goroutines or opening network listeners.
func NewServer(match *game.Match, opts Options) *Server {
	s := &Server{
		match: match,
		hub: NewHub(HubConfig{
			Match:          match,
			BroadcastRate:  opts.BroadcastRate,
			AllowedOrigins: opts.CORSOrigins,
			Verbose:        opts.Verbose,
		}),
	}

	// Track the rate limiter so Shutdown can stop its cleanup loop.
	s.rateLimiter = NewIPRateLimiter(DefaultRateLimitConfig)

	s.router = NewRouter(RouterConfig{
		Match:          match,
		RateLimiter:    s.rateLimiter,
		CORSOrigins:    opts.CORSOrigins,
		DisableLogging: opts.DisableLogging,
	})

	// The /ws route needs the hub instance, so it cannot live in the pure
	// NewRouter factory.
	s.router.Get("/ws", s.hub.HandleWebSocket)

	s.httpServer = &http.Server{Handler: s.router}
	return s
}

// StartWorkers launches the broadcaster without opening a listener. Tests
// pair this with Router() and httptest.NewServer.
func (s *Server) StartWorkers() {
	s.hub.StartBroadcastLoop()
}

// Start begins serving on addr. Blocks until the listener fails or Shutdown
// runs; a clean shutdown returns http.ErrServerClosed.
func (s *Server) Start(addr string) error {
	s.StartWorkers()
	log.Printf("🌐 Server listening on %s", addr)
	s.httpServer.Addr = addr
	return s.httpServer.ListenAndServe()
}

// StartTLS begins serving with TLS on addr. A broken keypair surfaces here.
func (s *Server) StartTLS(addr, certFile, keyFile string) error {
	s.StartWorkers()
	log.Printf("🔐 Server listening with TLS on %s", addr)
	s.httpServer.Addr = addr
	return s.httpServer.ListenAndServeTLS(certFile, keyFile)
}

// Router returns the HTTP handler for use with httptest.
// Use this in integration tests instead of calling Start().
//
// Example:
//
//	server := api.NewServer(match, api.Options{DisableLogging: true})
//	server.StartWorkers()
//	ts := httptest.NewServer(server.Router())
//	defer ts.Close()
func (s *Server) Router() http.Handler {
	return s.router
}

// Hub exposes the session hub, mainly for shutdown and tests.
func (s *Server) Hub() *Hub {
	return s.hub
}

// Shutdown drains gracefully: stop broadcasting, close every session with a
// close frame, wait for pump cleanup, then stop the listener.
func (s *Server) Shutdown(ctx context.Context) error {
	s.hub.Stop()
	s.rateLimiter.Stop()
	return s.httpServer.Shutdown(ctx)
}
