package systems

import (
	"math"
	"math/rand"
	"testing"

	"github.com/pthm-cable/gloam/components"
	"github.com/pthm-cable/gloam/config"
)

// twoRooms returns a 9x5 board split by a wall at x=4 with a door at (4,2)
// and a lamp at (2,2) in the left room.
func twoRooms(doorOpen, lampOn bool) []Tile {
	tiles := floorRoom(9, 5)
	for y := 0; y < 5; y++ {
		tiles = withTile(tiles, pos(4, y), components.Wall())
	}
	tiles = withTile(tiles, pos(4, 2), components.Door(doorOpen))
	return withTile(tiles, pos(2, 2), components.Lamp(1000, components.White, lampOn))
}

func newTestBaker(s *Solver) *Baker {
	cfg := config.Cfg()
	return NewBaker(cfg.Prebake, cfg.Lighting, s)
}

func newTestOptimizer() *Optimizer {
	cfg := config.Cfg()
	return NewOptimizer(cfg.Prebake, cfg.Lighting)
}

func prebakedRebuild(t *testing.T, baked *PrebakedField, tiles []Tile) (*LightField, LightingStats) {
	t.Helper()
	cf := NewCollisionField(baked.Dims)
	RebuildCollision(cf, tiles)
	field := NewLightField(baked.Dims, float32(config.Cfg().Lighting.AirTransmissivity))
	stats, ok := newTestOptimizer().Rebuild(field, baked, ActiveSources(baked, tiles), cf, tiles)
	if !ok {
		t.Fatal("prebaked rebuild skipped")
	}
	return field, stats
}

func TestBakeOwnershipStopsAtDoors(t *testing.T) {
	s := newTestSolver()
	defer s.Close()

	dims := Dims{X: 9, Y: 5, Z: 1}
	baked, stats := newTestBaker(s).Bake(dims, twoRooms(true, false))

	if len(baked.Sources) != 1 || baked.Sources[0].Pos != pos(2, 2) {
		t.Fatalf("sources = %+v, want the lamp at (2,2)", baked.Sources)
	}
	if stats.Edges == 0 {
		t.Fatal("expected wave edges next to the door")
	}

	for i, c := range baked.Cells {
		p := dims.Pos(i)
		switch {
		case p.X > 4 && c.Source != 0:
			t.Errorf("cell %+v behind the door owned by source %d", p, c.Source)
		case p == pos(4, 2) && c.Source != 0:
			t.Error("door cell should never be owned")
		case p.X < 4 && c.Source != 1:
			t.Errorf("left room cell %+v not owned", p)
		}
		if c.Edge != nil && p != pos(3, 2) {
			t.Errorf("unexpected wave edge at %+v", p)
		}
	}

	edge, _ := baked.Get(pos(3, 2))
	if edge.Edge == nil {
		t.Fatal("cell in front of the door should be a wave edge")
	}
	if edge.Edge.DistanceTravelled != 2 || math.Abs(float64(edge.Edge.ResidualLux-edge.Lux)) > 1e-4 {
		t.Errorf("edge = %+v for lux %f, want residual = lux at distance 1", *edge.Edge, edge.Lux)
	}
}

func TestPrebakedDoorStates(t *testing.T) {
	s := newTestSolver()
	defer s.Close()

	dims := Dims{X: 9, Y: 5, Z: 1}
	baked, _ := newTestBaker(s).Bake(dims, twoRooms(false, true))

	open, openStats := prebakedRebuild(t, baked, twoRooms(true, true))
	closed, _ := prebakedRebuild(t, baked, twoRooms(false, true))
	dark, darkStats := prebakedRebuild(t, baked, twoRooms(true, false))

	target := pos(6, 2)
	o, _ := open.Get(target)
	c, _ := closed.Get(target)
	if !(o.Lux > c.Lux && c.Lux > 0) {
		t.Errorf("behind the door: open %f, closed %f; want open > closed > 0", o.Lux, c.Lux)
	}
	if openStats.Propagated == 0 || openStats.Sources != 1 {
		t.Errorf("open stats = %+v", openStats)
	}

	lit, _ := open.Get(pos(2, 3))
	bakedCell, _ := baked.Get(pos(2, 3))
	if lit.Lux != bakedCell.Lux {
		t.Errorf("baked cell lux = %f, want %f", lit.Lux, bakedCell.Lux)
	}

	for i, cell := range dark.Cells {
		if cell.Lux != 0 {
			t.Fatalf("inactive source lit %+v with %f", dims.Pos(i), cell.Lux)
		}
	}
	if darkStats.Sources != 0 || darkStats.Propagated != 0 {
		t.Errorf("dark stats = %+v", darkStats)
	}
	if want := config.Cfg().Lighting.ExposureOffset / 2; math.Abs(darkStats.ExposureLux-want) > 1e-9 {
		t.Errorf("dark exposure reference = %f, want %f", darkStats.ExposureLux, want)
	}
}

func TestPrebakedNonNegative(t *testing.T) {
	s := newTestSolver()
	defer s.Close()

	rng := rand.New(rand.NewSource(5))
	dims := Dims{X: 16, Y: 12, Z: 1}
	baker := newTestBaker(s)
	for trial := 0; trial < 3; trial++ {
		tiles := randomLayout(rng, dims.X, dims.Y)
		baked, _ := baker.Bake(dims, tiles)
		field, _ := prebakedRebuild(t, baked, tiles)
		for i, c := range field.Cells {
			if c.Lux < 0 || c.Transmissivity < 0 || math.IsNaN(float64(c.Lux)) {
				t.Fatalf("trial %d cell %+v invalid: %+v", trial, dims.Pos(i), c)
			}
		}
	}
}

func TestPrebakedSizeMismatchIsNoop(t *testing.T) {
	baked := &PrebakedField{Grid: *NewGrid(Dims{X: 4, Y: 4, Z: 1}, PrebakedCell{})}
	field := NewLightField(Dims{X: 3, Y: 3, Z: 1}, 1.05)
	field.Cells[0].Lux = 7

	_, ok := newTestOptimizer().Rebuild(field, baked, nil, NewCollisionField(baked.Dims), nil)
	if ok || field.Cells[0].Lux != 7 {
		t.Errorf("mismatched rebuild ran or modified the field (ok=%v)", ok)
	}
}

func TestActiveSourcesAndDoors(t *testing.T) {
	baked := &PrebakedField{Sources: []BakedSource{{ID: 1, Pos: pos(0, 0)}, {ID: 2, Pos: pos(1, 0)}}}
	tiles := []Tile{
		{Pos: pos(0, 0), Behavior: components.Lamp(100, components.White, true)},
		{Pos: pos(1, 0), Behavior: components.Lamp(100, components.White, false)},
		{Pos: pos(2, 0), Behavior: components.Door(true)},
		{Pos: pos(3, 0), Behavior: components.Door(false)},
	}

	active := ActiveSources(baked, tiles)
	if !active[1] || active[2] {
		t.Errorf("active = %v, want only source 1", active)
	}

	doors := CollectDoorStates(tiles)
	if len(doors) != 2 || !doors[pos(2, 0)] || doors[pos(3, 0)] {
		t.Errorf("doors = %v", doors)
	}
}

// lampBesideDoor returns a 9x5 board where the lamp at (3,2) sits directly in
// front of the door at (4,2), walled in above and below.
func lampBesideDoor(doorOpen bool) []Tile {
	tiles := floorRoom(9, 5)
	for y := 0; y < 5; y++ {
		tiles = withTile(tiles, pos(4, y), components.Wall())
	}
	tiles = withTile(tiles, pos(4, 2), components.Door(doorOpen))
	tiles = withTile(tiles, pos(3, 1), components.Wall())
	tiles = withTile(tiles, pos(3, 3), components.Wall())
	return withTile(tiles, pos(3, 2), components.Lamp(1000, components.White, true))
}

func TestBakeSourceOnWaveEdge(t *testing.T) {
	s := newTestSolver()
	defer s.Close()

	dims := Dims{X: 9, Y: 5, Z: 1}
	baked, _ := newTestBaker(s).Bake(dims, lampBesideDoor(false))

	src, _ := baked.Get(pos(3, 2))
	if src.Edge == nil {
		t.Fatal("lamp cell next to the door should be a wave edge")
	}
	if src.Lux <= 0 || math.Abs(float64(src.Edge.ResidualLux-src.Lux)) > 1e-4*float64(src.Lux) {
		t.Errorf("edge = %+v for lux %f, want the lamp's own lux as residual", *src.Edge, src.Lux)
	}
	if src.Edge.DistanceTravelled != 2 {
		t.Errorf("distance travelled = %f, want 2", src.Edge.DistanceTravelled)
	}

	open, _ := prebakedRebuild(t, baked, lampBesideDoor(true))
	full := rebuild(t, s, dims, lampBesideDoor(true))
	closedFull := rebuild(t, s, dims, lampBesideDoor(false))
	closed, _ := prebakedRebuild(t, baked, lampBesideDoor(false))

	// Behind the open door both rebuilds light the row and fade with distance
	row := []components.BoardPosition{pos(5, 2), pos(6, 2), pos(7, 2)}
	for _, f := range []struct {
		name  string
		field *LightField
	}{{"prebaked", open}, {"full", full}} {
		prev := float32(math.MaxFloat32)
		for _, p := range row {
			c, _ := f.field.Get(p)
			if c.Lux <= 0 || c.Lux >= prev {
				t.Errorf("%s: lux at %+v = %f, want positive and below %f", f.name, p, c.Lux, prev)
			}
			prev = c.Lux
		}
	}

	// Opening the door brightens the far room in both modes
	for _, p := range row {
		o, _ := open.Get(p)
		c, _ := closed.Get(p)
		fo, _ := full.Get(p)
		fc, _ := closedFull.Get(p)
		if !(o.Lux > c.Lux) || !(fo.Lux > fc.Lux) {
			t.Errorf("%+v: prebaked open %f closed %f, full open %f closed %f", p, o.Lux, c.Lux, fo.Lux, fc.Lux)
		}
	}
}

func TestPrebakedBlendsMeetingWaves(t *testing.T) {
	s := newTestSolver()
	defer s.Close()

	red := components.Color{R: 1}
	blue := components.Color{B: 1}
	layout := func(blueOn bool) []Tile {
		tiles := floorRoom(11, 5)
		for y := 0; y < 5; y++ {
			tiles = withTile(tiles, pos(3, y), components.Wall())
			tiles = withTile(tiles, pos(7, y), components.Wall())
		}
		tiles = withTile(tiles, pos(3, 2), components.Door(true))
		tiles = withTile(tiles, pos(7, 2), components.Door(true))
		tiles = withTile(tiles, pos(1, 2), components.Lamp(1000, red, true))
		return withTile(tiles, pos(9, 2), components.Lamp(1000, blue, blueOn))
	}

	dims := Dims{X: 11, Y: 5, Z: 1}
	baked, _ := newTestBaker(s).Bake(dims, layout(true))
	if middle, _ := baked.Get(pos(5, 2)); middle.Source != 0 {
		t.Fatalf("middle room owned by source %d, want unowned", middle.Source)
	}

	both, _ := prebakedRebuild(t, baked, layout(true))
	redOnly, _ := prebakedRebuild(t, baked, layout(false))

	mixed, _ := both.Get(pos(5, 2))
	single, _ := redOnly.Get(pos(5, 2))
	if !(mixed.Lux > single.Lux && single.Lux > 0) {
		t.Errorf("middle lux: both %f, red only %f; want both > red only > 0", mixed.Lux, single.Lux)
	}
	if mixed.Color.R < 0.2 || mixed.Color.B < 0.2 || mixed.Color.G > 0.05 {
		t.Errorf("middle color = %+v, want a red and blue mix", mixed.Color)
	}
	if single.Color.R < 0.95 || single.Color.B > 0.05 {
		t.Errorf("red-only color = %+v, want red", single.Color)
	}
}

func TestPrebakedKeepsTileSurfaces(t *testing.T) {
	s := newTestSolver()
	defer s.Close()

	dims := Dims{X: 9, Y: 5, Z: 1}
	tiles := twoRooms(true, true)
	tiles = withTile(tiles, pos(7, 4), components.Behavior{
		Light: components.LightBehavior{Color: components.White, Transmissivity: 1, SeeThrough: true,
			Spectral: components.Spectral{Infrared: 3}},
		Move: components.MovementBehavior{Walkable: true},
	})
	baked, _ := newTestBaker(s).Bake(dims, tiles)

	prebaked, _ := prebakedRebuild(t, baked, tiles)
	full := rebuild(t, s, dims, tiles)
	for i := range full.Cells {
		a, b := full.Cells[i], prebaked.Cells[i]
		if a.Transmissivity != b.Transmissivity || a.Spectral != b.Spectral {
			t.Errorf("cell %+v surfaces differ: full %g %+v, prebaked %g %+v",
				dims.Pos(i), a.Transmissivity, a.Spectral, b.Transmissivity, b.Spectral)
		}
	}

	wall, _ := prebaked.Get(pos(4, 0))
	if wall.Transmissivity >= 0.5 {
		t.Errorf("wall transmissivity = %g, want opaque", wall.Transmissivity)
	}
	if ir, _ := prebaked.Get(pos(7, 4)); ir.Spectral.Infrared != 3 {
		t.Errorf("spectral = %+v, want the tile's infrared", ir.Spectral)
	}
}
