package components

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// Position is a continuous world position in tile units.
// GlobalZ is a presentation-only depth offset and never affects distances.
type Position struct {
	X, Y, Z float32
	GlobalZ float32
}

// Vec3 returns the position as a vector, ignoring GlobalZ.
func (p Position) Vec3() mgl32.Vec3 {
	return mgl32.Vec3{p.X, p.Y, p.Z}
}

// Distance returns the Euclidean distance between two positions.
func (p Position) Distance(o Position) float32 {
	return p.Vec3().Sub(o.Vec3()).Len()
}

// Distance2 returns the squared Euclidean distance between two positions.
func (p Position) Distance2(o Position) float32 {
	d := p.Vec3().Sub(o.Vec3())
	return d.Dot(d)
}

// ToBoard rounds the position to the nearest grid cell, halves away from zero.
func (p Position) ToBoard() BoardPosition {
	return BoardPosition{
		X: int(math.Round(float64(p.X))),
		Y: int(math.Round(float64(p.Y))),
		Z: int(math.Round(float64(p.Z))),
	}
}

// BoardPosition is an integer grid cell. It is comparable and used as a map key.
type BoardPosition struct {
	X, Y, Z int
}

// ToPosition returns the continuous position at the cell center.
func (b BoardPosition) ToPosition() Position {
	return Position{X: float32(b.X), Y: float32(b.Y), Z: float32(b.Z)}
}

// Add returns the position offset by (dx, dy, dz).
func (b BoardPosition) Add(dx, dy, dz int) BoardPosition {
	return BoardPosition{X: b.X + dx, Y: b.Y + dy, Z: b.Z + dz}
}

// Distance returns the Euclidean distance between two cell centers.
func (b BoardPosition) Distance(o BoardPosition) float32 {
	return b.ToPosition().Distance(o.ToPosition())
}

// DistanceTo returns the Euclidean distance from the cell center to a continuous position.
func (b BoardPosition) DistanceTo(p Position) float32 {
	return b.ToPosition().Distance(p)
}
