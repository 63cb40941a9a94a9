package systems

import "github.com/pthm-cable/gloam/components"

// LightCell is the light arriving at one cell.
type LightCell struct {
	Lux            float32
	Color          components.Color
	Transmissivity float32
	Spectral       components.Spectral
}

// LightField is a dense grid of light cells.
type LightField = Grid[LightCell]

// NewLightField returns a dark field whose cells transmit like open air.
func NewLightField(dims Dims, airTransmissivity float32) *LightField {
	return NewGrid(dims, LightCell{Color: components.White, Transmissivity: airTransmissivity})
}

// CollisionCell describes who and what passes through one cell.
// The zero value blocks everything.
type CollisionCell struct {
	PlayerFree bool
	GhostFree  bool
	SeeThrough bool
	Dynamic    bool
}

// CollisionField is a dense grid of collision cells.
type CollisionField = Grid[CollisionCell]

// NewCollisionField returns a field where every cell blocks.
func NewCollisionField(dims Dims) *CollisionField {
	return NewGrid(dims, CollisionCell{})
}

// Tile is a placed tile handed to the rebuilds.
type Tile struct {
	Pos      components.BoardPosition
	Behavior components.Behavior
}
