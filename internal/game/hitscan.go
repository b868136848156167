package game

import "math"

// Combat tuning. The lateral hit tolerance widens with distance along the
// ray so long-range shots remain landable despite client interpolation
// error; clients only report intent and the server owns the verdict.
const (
	// ShotDamage is the health cost of a single landed shot. Four shots kill.
	ShotDamage = 25

	// baseHitTolerance is the lateral hit radius at point-blank range.
	baseHitTolerance = 2.5

	// tolerancePerDistance is the additional radius per unit of distance
	// between the shooter and the victim's closest approach on the ray.
	tolerancePerDistance = 0.15
)

// hitToleranceAt returns the lateral hit radius for a victim whose closest
// approach lies t units in front of the shooter.
func hitToleranceAt(t float64) float64 {
	return baseHitTolerance + tolerancePerDistance*t
}

// shotResult carries everything the post-lock section needs to log, emit
// metrics and schedule a respawn without re-acquiring the match lock.
type shotResult struct {
	hit          bool
	victimID     string
	victimName   string
	victimHealth int
	victimDeaths int
	killed       bool
	distance     float64
	shooterName  string
	shooterKills int
}

// resolveShotLocked casts a ray from the shooter and applies ShotDamage to
// the nearest live player within tolerance. A nil return means the shot had
// no usable direction and resolved to a silent no-op. Callers hold the match
// write lock.
func (m *Match) resolveShotLocked(shooter *Player, target, direction *Vec3) *shotResult {
	var aim Vec3
	if target != nil {
		aim = target.Sub(shooter.Position)
	} else {
		aim = *direction
	}
	dir, ok := aim.Normalized()
	if !ok {
		return nil
	}

	// Nearest candidate along the ray wins. Players behind the muzzle or
	// outside the distance-scaled tolerance never count.
	var victim *Player
	bestT := math.MaxFloat64
	for _, p := range m.players {
		if p.ID == shooter.ID || !p.IsAlive {
			continue
		}
		t := p.Position.Sub(shooter.Position).Dot(dir)
		if t <= 0 {
			continue
		}
		closest := shooter.Position.Add(dir.Scale(t))
		if p.Position.DistanceTo(closest) >= hitToleranceAt(t) {
			continue
		}
		if t < bestT {
			bestT = t
			victim = p
		}
	}
	if victim == nil {
		return &shotResult{hit: false, shooterName: shooter.DisplayName}
	}

	killed := victim.ApplyDamage(ShotDamage)
	if killed {
		shooter.Kills++
	}
	return &shotResult{
		hit:          true,
		victimID:     victim.ID,
		victimName:   victim.DisplayName,
		victimHealth: victim.Health,
		victimDeaths: victim.Deaths,
		killed:       killed,
		distance:     bestT,
		shooterName:  shooter.DisplayName,
		shooterKills: shooter.Kills,
	}
}
