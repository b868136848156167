package game

// Arena geometry. The world is a flat square centred on the origin: X/Z are
// the ground plane, Y is up. Clients render whatever they like inside the
// bounds; the server only needs the extent for the debug view and the spawn
// ring.
const ArenaHalfExtent = 40.0

// spawnRingRadius places spawn points on a ring inside the arena. Adjacent
// points sit ~23 world units apart, which keeps simultaneous spawns well
// outside hit tolerance without a separation check.
const spawnRingRadius = 30.0

// defaultSpawnPoints is the 8-entry perimeter spawn table, counter-clockwise
// from +X. The diagonal entries are spawnRingRadius/sqrt(2).
var defaultSpawnPoints = []Vec3{
	{X: 30, Y: 0, Z: 0},
	{X: 21.21, Y: 0, Z: 21.21},
	{X: 0, Y: 0, Z: 30},
	{X: -21.21, Y: 0, Z: 21.21},
	{X: -30, Y: 0, Z: 0},
	{X: -21.21, Y: 0, Z: -21.21},
	{X: 0, Y: 0, Z: -30},
	{X: 21.21, Y: 0, Z: -21.21},
}

// DefaultSpawnPoints returns a fresh copy of the built-in spawn table.
func DefaultSpawnPoints() []Vec3 {
	points := make([]Vec3, len(defaultSpawnPoints))
	copy(points, defaultSpawnPoints)
	return points
}
