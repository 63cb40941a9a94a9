package systems

import (
	"testing"

	"github.com/pthm-cable/gloam/components"
	"github.com/pthm-cable/gloam/config"
)

func init() {
	// Initialize config for tests
	config.MustInit("")
}

func pos(x, y int) components.BoardPosition {
	return components.BoardPosition{X: x, Y: y}
}

// floorRoom returns floor tiles covering a w*h single-level board.
func floorRoom(w, h int) []Tile {
	tiles := make([]Tile, 0, w*h)
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			tiles = append(tiles, Tile{Pos: pos(x, y), Behavior: components.Floor()})
		}
	}
	return tiles
}

// withTile replaces every tile at p with b.
func withTile(tiles []Tile, p components.BoardPosition, b components.Behavior) []Tile {
	out := make([]Tile, 0, len(tiles)+1)
	for _, t := range tiles {
		if t.Pos != p {
			out = append(out, t)
		}
	}
	return append(out, Tile{Pos: p, Behavior: b})
}

func lamp(lux float32) components.Behavior {
	return components.Lamp(lux, components.White, true)
}

func newTestSolver() *Solver {
	return NewSolver(config.Cfg().Lighting)
}

func rebuild(t testing.TB, s *Solver, dims Dims, tiles []Tile) *LightField {
	t.Helper()
	field := NewLightField(dims, float32(config.Cfg().Lighting.AirTransmissivity))
	if _, ok := s.Rebuild(field, dims, tiles); !ok {
		t.Fatalf("rebuild of %+v was skipped", dims)
	}
	return field
}
