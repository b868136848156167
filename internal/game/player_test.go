package game

import (
	"strings"
	"testing"
)

// TestNewPlayer tests player creation with defaults
func TestNewPlayer(t *testing.T) {
	spawn := Vec3{X: 30, Y: 0, Z: 0}
	player := NewPlayer("player_abc123", spawn)

	if player == nil {
		t.Fatal("NewPlayer returned nil")
	}
	if player.ID != "player_abc123" {
		t.Errorf("Expected id 'player_abc123', got '%s'", player.ID)
	}
	if player.Health != MaxHealth {
		t.Errorf("Expected health %d, got %d", MaxHealth, player.Health)
	}
	if !player.IsAlive {
		t.Error("New player should be alive")
	}
	if player.Position != spawn {
		t.Errorf("Expected position %v, got %v", spawn, player.Position)
	}
	if player.Kills != 0 || player.Deaths != 0 {
		t.Errorf("Expected zero score, got %d/%d", player.Kills, player.Deaths)
	}
}

// TestDefaultDisplayName tests the name derived from the id
func TestDefaultDisplayName(t *testing.T) {
	long := NewPlayer("player_abcdef12", Vec3{})
	if len(long.DisplayName) != defaultNameLength {
		t.Errorf("Expected %d-char name, got %q", defaultNameLength, long.DisplayName)
	}

	short := NewPlayer("bob", Vec3{})
	if short.DisplayName != "bob" {
		t.Errorf("Expected short id kept whole, got %q", short.DisplayName)
	}
}

// TestNewPlayerID tests id generation
func TestNewPlayerID(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id := NewPlayerID()
		if !strings.HasPrefix(id, "player_") {
			t.Fatalf("Expected player_ prefix, got %q", id)
		}
		if seen[id] {
			t.Fatalf("Duplicate id generated: %q", id)
		}
		seen[id] = true
	}
}

// TestApplyDamage tests the damage path and its clamps
func TestApplyDamage(t *testing.T) {
	p := NewPlayer("p", Vec3{})

	if killed := p.ApplyDamage(25); killed {
		t.Error("25 damage should not kill a full-health player")
	}
	if p.Health != 75 {
		t.Errorf("Expected health 75, got %d", p.Health)
	}

	// Overkill clamps at zero instead of going negative.
	if killed := p.ApplyDamage(80); !killed {
		t.Error("80 damage at 75 health should kill")
	}
	if p.Health != 0 {
		t.Errorf("Expected health clamped to 0, got %d", p.Health)
	}
	if p.IsAlive {
		t.Error("Player should be dead at zero health")
	}
	if p.Deaths != 1 {
		t.Errorf("Expected 1 death, got %d", p.Deaths)
	}

	// Damage to a corpse is a no-op and never double-counts the death.
	if killed := p.ApplyDamage(25); killed {
		t.Error("A dead player cannot be killed again")
	}
	if p.Deaths != 1 {
		t.Errorf("Expected deaths to stay at 1, got %d", p.Deaths)
	}
}

// TestExactlyFourShotsKill tests the headline damage math
func TestExactlyFourShotsKill(t *testing.T) {
	p := NewPlayer("p", Vec3{})

	for i := 0; i < 3; i++ {
		if killed := p.ApplyDamage(ShotDamage); killed {
			t.Fatalf("Shot %d should not kill", i+1)
		}
	}
	if !p.IsAlive {
		t.Fatal("Player should survive three shots")
	}
	if killed := p.ApplyDamage(ShotDamage); !killed {
		t.Error("Fourth shot should kill")
	}
}

// TestSetHealth tests the absolute health setter
func TestSetHealth(t *testing.T) {
	p := NewPlayer("p", Vec3{})

	if died := p.SetHealth(60); died {
		t.Error("Setting health to 60 should not kill")
	}
	if p.Health != 60 {
		t.Errorf("Expected health 60, got %d", p.Health)
	}

	p.SetHealth(500)
	if p.Health != MaxHealth {
		t.Errorf("Expected clamp to %d, got %d", MaxHealth, p.Health)
	}

	p.SetHealth(-10)
	if p.Health != 0 {
		t.Errorf("Expected clamp to 0, got %d", p.Health)
	}
	if p.IsAlive {
		t.Error("Clamping to zero should kill")
	}
	if p.Deaths != 1 {
		t.Errorf("Expected 1 death, got %d", p.Deaths)
	}

	// Setting zero health on a corpse does not count another death.
	p.SetHealth(0)
	if p.Deaths != 1 {
		t.Errorf("Expected deaths to stay at 1, got %d", p.Deaths)
	}
}

// TestRespawnRestoresState tests respawn semantics
func TestRespawnRestoresState(t *testing.T) {
	p := NewPlayer("p", Vec3{X: 30, Y: 0, Z: 0})
	p.Kills = 7
	p.ApplyDamage(MaxHealth)

	spawn := Vec3{X: -30, Y: 0, Z: 0}
	p.Respawn(spawn)

	if !p.IsAlive {
		t.Error("Respawned player should be alive")
	}
	if p.Health != MaxHealth {
		t.Errorf("Expected full health, got %d", p.Health)
	}
	if p.Position != spawn {
		t.Errorf("Expected position %v, got %v", spawn, p.Position)
	}
	if p.Kills != 7 {
		t.Errorf("Kills should survive a respawn, got %d", p.Kills)
	}
	if p.Deaths != 1 {
		t.Errorf("Deaths should survive a respawn, got %d", p.Deaths)
	}
}

// TestValidateDisplayName tests the rename rules
func TestValidateDisplayName(t *testing.T) {
	tests := []struct {
		name  string
		value string
		valid bool
	}{
		{"plain ascii", "Slayer", true},
		{"single char", "x", true},
		{"spaces allowed", "The Boss", true},
		{"unicode", "Ünïcødé", true},
		{"max length", strings.Repeat("a", MaxNameLength), true},
		{"empty", "", false},
		{"over max length", strings.Repeat("a", MaxNameLength+1), false},
		{"nul byte", "a\x00b", false},
		{"newline", "a\nb", false},
		{"tab", "a\tb", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateDisplayName(tt.value)
			if tt.valid && err != nil {
				t.Errorf("Expected %q to validate, got %v", tt.value, err)
			}
			if !tt.valid && err == nil {
				t.Errorf("Expected %q to be rejected", tt.value)
			}
		})
	}
}
