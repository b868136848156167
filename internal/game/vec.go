package game

import "math"

// minDirectionLength is the shortest vector that still carries a usable
// direction. Anything below this normalizes to nothing.
const minDirectionLength = 1e-9

// Vec3 is a point or direction in arena space.
type Vec3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Add returns v + w.
func (v Vec3) Add(w Vec3) Vec3 {
	return Vec3{X: v.X + w.X, Y: v.Y + w.Y, Z: v.Z + w.Z}
}

// Sub returns v - w.
func (v Vec3) Sub(w Vec3) Vec3 {
	return Vec3{X: v.X - w.X, Y: v.Y - w.Y, Z: v.Z - w.Z}
}

// Scale returns v scaled by s.
func (v Vec3) Scale(s float64) Vec3 {
	return Vec3{X: v.X * s, Y: v.Y * s, Z: v.Z * s}
}

// Dot returns the dot product of v and w.
func (v Vec3) Dot(w Vec3) float64 {
	return v.X*w.X + v.Y*w.Y + v.Z*w.Z
}

// Length returns the euclidean magnitude of v.
func (v Vec3) Length() float64 {
	return math.Sqrt(v.Dot(v))
}

// DistanceTo returns the euclidean distance between v and w.
func (v Vec3) DistanceTo(w Vec3) float64 {
	return v.Sub(w).Length()
}

// Normalized returns v scaled to unit length. Returns false when v is not
// finite or too short to carry a direction.
func (v Vec3) Normalized() (Vec3, bool) {
	if !v.IsFinite() {
		return Vec3{}, false
	}
	l := v.Length()
	if l < minDirectionLength {
		return Vec3{}, false
	}
	return v.Scale(1 / l), true
}

// IsFinite reports whether all three components are real numbers
// (no NaN, no infinities).
func (v Vec3) IsFinite() bool {
	return !math.IsNaN(v.X) && !math.IsInf(v.X, 0) &&
		!math.IsNaN(v.Y) && !math.IsInf(v.Y, 0) &&
		!math.IsNaN(v.Z) && !math.IsInf(v.Z, 0)
}
