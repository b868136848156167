// Package config provides centralized configuration management.
// This is the SINGLE SOURCE OF TRUTH for all server and match settings.
//
// IMPORTANT: When changing defaults, only modify this file.
// All other parts of the codebase should reference these values.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// =============================================================================
// SERVER CONFIGURATION
// =============================================================================

// ServerConfig holds the public HTTP/WebSocket listener settings.
type ServerConfig struct {
	Port        int
	Env         string // "development" or "production"; log verbosity only
	TLSCertFile string // TLS is enabled when both cert and key are set
	TLSKeyFile  string
	CORSOrigins []string // Allowed browser origins; "*" permits any
}

// DefaultServer returns the default server configuration.
func DefaultServer() ServerConfig {
	return ServerConfig{
		Port:        8080,
		Env:         "development",
		CORSOrigins: []string{"*"},
	}
}

// ServerFromEnv returns server configuration with environment variable overrides.
func ServerFromEnv() ServerConfig {
	cfg := DefaultServer()

	if p := getEnvInt("PORT", 0); p > 0 {
		cfg.Port = p
	}
	if env := getEnvString("ENV", ""); env != "" {
		cfg.Env = env
	}
	cfg.TLSCertFile = getEnvString("TLS_CERT_FILE", "")
	cfg.TLSKeyFile = getEnvString("TLS_KEY_FILE", "")
	if origins := splitCSV(getEnvString("CORS_ORIGINS", "")); len(origins) > 0 {
		cfg.CORSOrigins = origins
	}

	return cfg
}

// IsProduction reports whether per-message debug logging should be suppressed.
func (c ServerConfig) IsProduction() bool {
	return c.Env == "production"
}

// UseTLS reports whether both halves of the keypair are configured.
func (c ServerConfig) UseTLS() bool {
	return c.TLSCertFile != "" && c.TLSKeyFile != ""
}

// =============================================================================
// GAME CONFIGURATION
// =============================================================================

// GameConfig holds match simulation settings.
type GameConfig struct {
	MaxPlayers    int           // Hard cap on concurrent players
	TickRate      int           // Simulation ticks per second
	BroadcastRate int           // State broadcasts per second
	RespawnDelay  time.Duration // Downtime after a death
}

// DefaultGame returns the default game configuration.
func DefaultGame() GameConfig {
	return GameConfig{
		MaxPlayers:    50,
		TickRate:      60,
		BroadcastRate: 20,
		RespawnDelay:  3 * time.Second,
	}
}

// GameFromEnv returns game configuration with environment variable overrides.
func GameFromEnv() GameConfig {
	cfg := DefaultGame()

	if mp := getEnvInt("MAX_PLAYERS", 0); mp > 0 {
		cfg.MaxPlayers = mp
	}
	if tr := getEnvInt("TICK_RATE", 0); tr > 0 {
		cfg.TickRate = tr
	}
	if br := getEnvInt("BROADCAST_RATE", 0); br > 0 {
		cfg.BroadcastRate = br
	}
	if d := getEnvFloat("RESPAWN_DELAY_SECONDS", -1); d >= 0 {
		cfg.RespawnDelay = time.Duration(d * float64(time.Second))
	}

	return cfg
}

// =============================================================================
// OBSERVABILITY CONFIGURATION
// =============================================================================

// ObservabilityConfig holds debug server and event log settings.
type ObservabilityConfig struct {
	DebugPort    int    // Localhost-only debug server port; 0 disables it
	DebugUser    string // Optional basic auth on the debug server
	DebugPass    string
	EventLogPath string // JSONL event sink; empty keeps the in-memory ring only
}

// DefaultObservability returns the default observability configuration.
func DefaultObservability() ObservabilityConfig {
	return ObservabilityConfig{
		DebugPort:    0,
		EventLogPath: "",
	}
}

// ObservabilityFromEnv returns observability configuration with environment
// variable overrides.
func ObservabilityFromEnv() ObservabilityConfig {
	cfg := DefaultObservability()

	if p := getEnvInt("DEBUG_PORT", 0); p > 0 {
		cfg.DebugPort = p
	}
	cfg.DebugUser = getEnvString("DEBUG_BASIC_AUTH_USER", "")
	cfg.DebugPass = getEnvString("DEBUG_BASIC_AUTH_PASS", "")
	cfg.EventLogPath = getEnvString("EVENT_LOG_PATH", "")

	return cfg
}

// =============================================================================
// COMPLETE APP CONFIGURATION
// =============================================================================

// AppConfig holds the complete application configuration.
type AppConfig struct {
	Server        ServerConfig
	Game          GameConfig
	Observability ObservabilityConfig
}

// Load returns the complete configuration with environment overrides.
func Load() AppConfig {
	return AppConfig{
		Server:        ServerFromEnv(),
		Game:          GameFromEnv(),
		Observability: ObservabilityFromEnv(),
	}
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

func getEnvInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvFloat(key string, defaultVal float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return defaultVal
}

func getEnvString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func splitCSV(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
