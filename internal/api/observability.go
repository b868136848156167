package api

import (
	"log"
	"net"
	"net/http"
	"net/http/pprof"
	"os"
	"runtime"
	"time"

	"arena-fps/internal/game"
	"arena-fps/internal/render"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
)

// Metrics with bounded cardinality (no per-player labels to prevent DoS)
var (
	tickDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "game_tick_duration_seconds",
		Help:    "Time spent in one simulation tick",
		Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.0166, 0.05},
	})

	broadcastDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "broadcast_duration_seconds",
		Help:    "Time spent snapshotting, encoding, and queuing one broadcast",
		Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1},
	})

	playerCount = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "game_player_count",
		Help: "Current number of players in the match",
	})

	shotsFired = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "game_shots_fired_total",
		Help: "Shots resolved by the server",
	}, []string{"result"}) // Bounded: "hit", "miss"

	killsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "game_kills_total",
		Help: "Total kills across the match",
	})

	// DoS detection metrics - use ONLY bounded label values
	connectionRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "connection_rejected_total",
		Help: "Connections rejected by rate limiter, origin check, or capacity",
	}, []string{"reason"}) // Bounded: "rate_limit", "origin", "ws_total_limit", "ws_ip_limit", "match_full", "id_collision"

	// HTTP metrics with bounded labels
	requestLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "endpoint"}) // endpoint is the route pattern, not the full URL

	requestTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total HTTP requests",
	}, []string{"method", "endpoint", "status"})

	// WebSocket metrics
	wsConnectionsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "websocket_connections_active",
		Help: "Currently active WebSocket sessions",
	})

	wsMessagesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "websocket_messages_total",
		Help: "WebSocket messages by direction",
	}, []string{"direction"}) // Bounded: "in", "out"

	snapshotsDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "websocket_snapshots_dropped_total",
		Help: "Snapshots shed from slow sessions' outbound queues",
	})
)

var processStart = time.Now()

// DebugConfig configures the localhost-only debug server.
type DebugConfig struct {
	Enabled       bool
	ListenAddr    string // Loopback only unless ALLOW_DEBUG_EXTERNAL=true
	BasicAuthUser string // Optional basic auth
	BasicAuthPass string
}

// StartDebugServer starts the internal observability server: pprof,
// Prometheus metrics, system stats, and a live arena rendering.
// CRITICAL: binds to loopback only; pprof on a public port is a DoS vector.
func StartDebugServer(cfg DebugConfig, match *game.Match) error {
	if !cfg.Enabled {
		log.Println("📊 Debug server disabled")
		return nil
	}

	// SECURITY: refuse non-loopback binds unless explicitly overridden
	host, port, err := net.SplitHostPort(cfg.ListenAddr)
	if err != nil {
		return err
	}
	if host != "127.0.0.1" && host != "localhost" && host != "::1" {
		if os.Getenv("ALLOW_DEBUG_EXTERNAL") != "true" {
			log.Println("⚠️ Debug server forced to localhost for security")
			cfg.ListenAddr = net.JoinHostPort("127.0.0.1", port)
		}
	}

	arena := render.NewArena(render.DefaultImageSize, render.DefaultImageSize)

	mux := http.NewServeMux()

	// pprof endpoints for profiling
	mux.HandleFunc("/debug/pprof/", pprof.Index)
	mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
	mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
	mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	mux.HandleFunc("/debug/pprof/trace", pprof.Trace)

	// Prometheus metrics endpoint
	mux.Handle("/metrics", promhttp.Handler())

	// Health check
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	// System and match stats
	mux.HandleFunc("/debug/vars", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, collectDebugVars(match))
	})

	// Top-down view of the live arena
	mux.HandleFunc("/debug/arena", func(w http.ResponseWriter, r *http.Request) {
		frame := match.LatestFrame()
		w.Header().Set("Content-Type", "image/png")
		if err := arena.RenderPNG(w, frame, game.DefaultSpawnPoints()); err != nil {
			log.Printf("⚠️ Arena render failed: %v", err)
		}
	})

	// Optional basic auth wrapper
	var handler http.Handler = mux
	if cfg.BasicAuthUser != "" {
		handler = basicAuthMiddleware(cfg.BasicAuthUser, cfg.BasicAuthPass, mux)
	}

	go func() {
		log.Printf("📊 Debug server starting on %s", cfg.ListenAddr)
		log.Printf("   - pprof:   http://%s/debug/pprof/", cfg.ListenAddr)
		log.Printf("   - metrics: http://%s/metrics", cfg.ListenAddr)
		log.Printf("   - arena:   http://%s/debug/arena", cfg.ListenAddr)

		if err := http.ListenAndServe(cfg.ListenAddr, handler); err != nil {
			log.Printf("⚠️ Debug server error: %v", err)
		}
	}()

	return nil
}

// collectDebugVars gathers runtime, host, and match counters for /debug/vars.
func collectDebugVars(match *game.Match) map[string]interface{} {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)

	vars := map[string]interface{}{
		"uptime_seconds": time.Since(processStart).Seconds(),
		"goroutines":     runtime.NumGoroutine(),
		"heap_alloc_mb":  float64(ms.HeapAlloc) / 1024 / 1024,
		"heap_sys_mb":    float64(ms.HeapSys) / 1024 / 1024,
		"gc_cycles":      ms.NumGC,
		"gc_pause_ms":    float64(ms.PauseTotalNs) / 1e6,
		"event_log":      match.EventLogStats(),
	}

	if percents, err := cpu.Percent(0, false); err == nil && len(percents) > 0 {
		vars["cpu_percent"] = percents[0]
	}
	if vm, err := mem.VirtualMemory(); err == nil {
		vars["mem_used_percent"] = vm.UsedPercent
		vars["mem_total_mb"] = float64(vm.Total) / 1024 / 1024
	}

	frame := match.LatestFrame()
	vars["frame"] = map[string]interface{}{
		"tick":         frame.TickNumber,
		"sequence":     frame.Sequence,
		"game_time":    frame.GameTime,
		"match_active": frame.MatchActive,
		"players":      frame.PlayerCount,
		"alive":        frame.AliveCount,
		"total_kills":  frame.TotalKills,
	}
	return vars
}

// basicAuthMiddleware adds basic authentication to the handler.
func basicAuthMiddleware(user, pass string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, p, ok := r.BasicAuth()
		if !ok || u != user || p != pass {
			w.Header().Set("WWW-Authenticate", `Basic realm="debug"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RecordTick records tick timing for metrics.
func RecordTick(duration time.Duration) {
	tickDuration.Observe(duration.Seconds())
}

// RecordBroadcast records broadcast timing for metrics.
func RecordBroadcast(duration time.Duration) {
	broadcastDuration.Observe(duration.Seconds())
}

// UpdatePlayerCount updates the player gauge.
func UpdatePlayerCount(count int) {
	playerCount.Set(float64(count))
}

// RecordShot counts a resolved shot.
func RecordShot(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	shotsFired.WithLabelValues(result).Inc()
}

// RecordKill counts a kill.
func RecordKill() {
	killsTotal.Inc()
}

// RecordConnectionRejected increments the rejection counter.
// reason must come from the bounded set documented on the metric.
func RecordConnectionRejected(reason string) {
	connectionRejected.WithLabelValues(reason).Inc()
}

// RecordRequest records HTTP request metrics.
func RecordRequest(method, endpoint string, status int, duration time.Duration) {
	requestLatency.WithLabelValues(method, endpoint).Observe(duration.Seconds())
	requestTotal.WithLabelValues(method, endpoint, http.StatusText(status)).Inc()
}

// UpdateWSConnections updates the WebSocket session gauge.
func UpdateWSConnections(count int) {
	wsConnectionsActive.Set(float64(count))
}

// RecordWSMessage counts one WebSocket message; direction is "in" or "out".
func RecordWSMessage(direction string) {
	wsMessagesTotal.WithLabelValues(direction).Inc()
}

// RecordSnapshotDropped counts a snapshot shed from a slow session.
func RecordSnapshotDropped() {
	snapshotsDropped.Inc()
}
