package config

import (
	"testing"
	"time"
)

// clearEnv blanks every variable the loader reads so host settings cannot
// leak into a test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"PORT", "ENV", "TLS_CERT_FILE", "TLS_KEY_FILE", "CORS_ORIGINS",
		"MAX_PLAYERS", "TICK_RATE", "BROADCAST_RATE", "RESPAWN_DELAY_SECONDS",
		"DEBUG_PORT", "DEBUG_BASIC_AUTH_USER", "DEBUG_BASIC_AUTH_PASS",
		"EVENT_LOG_PATH",
	} {
		t.Setenv(key, "")
	}
}

// TestLoadDefaults verifies the configuration without any environment set.
func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg := Load()

	if cfg.Server.Port != 8080 {
		t.Errorf("Expected port 8080, got %d", cfg.Server.Port)
	}
	if cfg.Server.Env != "development" {
		t.Errorf("Expected env 'development', got %q", cfg.Server.Env)
	}
	if cfg.Server.IsProduction() {
		t.Error("Default config should not be production")
	}
	if cfg.Server.UseTLS() {
		t.Error("TLS should be off without a keypair")
	}
	if len(cfg.Server.CORSOrigins) != 1 || cfg.Server.CORSOrigins[0] != "*" {
		t.Errorf("Expected CORS origins [*], got %v", cfg.Server.CORSOrigins)
	}

	if cfg.Game.MaxPlayers != 50 {
		t.Errorf("Expected 50 max players, got %d", cfg.Game.MaxPlayers)
	}
	if cfg.Game.TickRate != 60 {
		t.Errorf("Expected tick rate 60, got %d", cfg.Game.TickRate)
	}
	if cfg.Game.BroadcastRate != 20 {
		t.Errorf("Expected broadcast rate 20, got %d", cfg.Game.BroadcastRate)
	}
	if cfg.Game.RespawnDelay != 3*time.Second {
		t.Errorf("Expected 3s respawn delay, got %v", cfg.Game.RespawnDelay)
	}

	if cfg.Observability.DebugPort != 0 {
		t.Errorf("Expected debug server off, got port %d", cfg.Observability.DebugPort)
	}
	if cfg.Observability.EventLogPath != "" {
		t.Errorf("Expected no event log path, got %q", cfg.Observability.EventLogPath)
	}
}

// TestLoadEnvOverrides verifies each environment variable reaches its field.
func TestLoadEnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "9090")
	t.Setenv("ENV", "production")
	t.Setenv("TLS_CERT_FILE", "/etc/arena/cert.pem")
	t.Setenv("TLS_KEY_FILE", "/etc/arena/key.pem")
	t.Setenv("CORS_ORIGINS", "https://a.example.com, https://b.example.com")
	t.Setenv("MAX_PLAYERS", "8")
	t.Setenv("TICK_RATE", "30")
	t.Setenv("BROADCAST_RATE", "10")
	t.Setenv("RESPAWN_DELAY_SECONDS", "1.5")
	t.Setenv("DEBUG_PORT", "6061")
	t.Setenv("DEBUG_BASIC_AUTH_USER", "ops")
	t.Setenv("DEBUG_BASIC_AUTH_PASS", "hunter2")
	t.Setenv("EVENT_LOG_PATH", "/var/log/arena/events.jsonl")

	cfg := Load()

	if cfg.Server.Port != 9090 {
		t.Errorf("Expected port 9090, got %d", cfg.Server.Port)
	}
	if !cfg.Server.IsProduction() {
		t.Error("ENV=production should report IsProduction")
	}
	if !cfg.Server.UseTLS() {
		t.Error("Expected TLS on with both halves of the keypair set")
	}
	if len(cfg.Server.CORSOrigins) != 2 || cfg.Server.CORSOrigins[1] != "https://b.example.com" {
		t.Errorf("Expected two trimmed origins, got %v", cfg.Server.CORSOrigins)
	}
	if cfg.Game.MaxPlayers != 8 {
		t.Errorf("Expected 8 max players, got %d", cfg.Game.MaxPlayers)
	}
	if cfg.Game.TickRate != 30 {
		t.Errorf("Expected tick rate 30, got %d", cfg.Game.TickRate)
	}
	if cfg.Game.BroadcastRate != 10 {
		t.Errorf("Expected broadcast rate 10, got %d", cfg.Game.BroadcastRate)
	}
	if cfg.Game.RespawnDelay != 1500*time.Millisecond {
		t.Errorf("Expected 1.5s respawn delay, got %v", cfg.Game.RespawnDelay)
	}
	if cfg.Observability.DebugPort != 6061 {
		t.Errorf("Expected debug port 6061, got %d", cfg.Observability.DebugPort)
	}
	if cfg.Observability.DebugUser != "ops" || cfg.Observability.DebugPass != "hunter2" {
		t.Error("Debug basic auth credentials not loaded")
	}
	if cfg.Observability.EventLogPath != "/var/log/arena/events.jsonl" {
		t.Errorf("Unexpected event log path %q", cfg.Observability.EventLogPath)
	}
}

// TestLoadRejectsGarbage verifies unparseable or out-of-range values fall
// back to defaults instead of breaking startup.
func TestLoadRejectsGarbage(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "not-a-port")
	t.Setenv("MAX_PLAYERS", "-5")
	t.Setenv("TICK_RATE", "0")
	t.Setenv("RESPAWN_DELAY_SECONDS", "-2")

	cfg := Load()

	if cfg.Server.Port != 8080 {
		t.Errorf("Expected fallback port 8080, got %d", cfg.Server.Port)
	}
	if cfg.Game.MaxPlayers != 50 {
		t.Errorf("Expected fallback of 50 max players, got %d", cfg.Game.MaxPlayers)
	}
	if cfg.Game.TickRate != 60 {
		t.Errorf("Expected fallback tick rate 60, got %d", cfg.Game.TickRate)
	}
	if cfg.Game.RespawnDelay != 3*time.Second {
		t.Errorf("Expected fallback 3s respawn delay, got %v", cfg.Game.RespawnDelay)
	}
}

// TestUseTLSRequiresBothHalves verifies a lone cert or key leaves TLS off.
func TestUseTLSRequiresBothHalves(t *testing.T) {
	clearEnv(t)
	t.Setenv("TLS_CERT_FILE", "/etc/arena/cert.pem")

	if Load().Server.UseTLS() {
		t.Error("Cert without key should not enable TLS")
	}
}
