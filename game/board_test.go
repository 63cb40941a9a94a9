package game

import (
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pthm-cable/gloam/components"
	"github.com/pthm-cable/gloam/config"
	"github.com/pthm-cable/gloam/systems"
	"github.com/pthm-cable/gloam/telemetry"
)

var (
	lampPos   = components.BoardPosition{X: 2, Y: 2}
	doorPos   = components.BoardPosition{X: 4, Y: 2}
	behindPos = components.BoardPosition{X: 6, Y: 2}
)

func newTestBoard(t *testing.T, mode string, opts Options) *Board {
	t.Helper()
	cfg := *config.Cfg()
	cfg.Lighting.Mode = mode

	layout, err := ParseLayout(strings.NewReader(twoRooms), testLamp)
	if err != nil {
		t.Fatalf("ParseLayout: %v", err)
	}
	b, err := NewBoard(&cfg, layout, opts)
	if err != nil {
		t.Fatalf("NewBoard: %v", err)
	}
	t.Cleanup(func() { b.Close() })
	return b
}

func luxAt(t *testing.T, b *Board, p components.BoardPosition) float32 {
	t.Helper()
	cell, ok := b.Light().Get(p)
	if !ok {
		t.Fatalf("cell %+v outside the light field", p)
	}
	return cell.Lux
}

func TestBoardPublishesLight(t *testing.T) {
	for _, mode := range []string{config.ModeFull, config.ModePrebaked} {
		t.Run(mode, func(t *testing.T) {
			b := newTestBoard(t, mode, Options{})
			b.Step()

			field := b.Light()
			if field == nil || field.Dims != b.Dims() {
				t.Fatalf("published field dims = %+v, want %+v", field.Dims, b.Dims())
			}
			if luxAt(t, b, lampPos) <= 0 {
				t.Error("lamp cell is dark after the first tick")
			}
			for i, c := range field.Cells {
				if c.Lux < 0 || math.IsNaN(float64(c.Lux)) {
					t.Fatalf("cell %+v has lux %f", field.Dims.Pos(i), c.Lux)
				}
			}
			if b.Tick() != 1 {
				t.Errorf("tick = %d, want 1", b.Tick())
			}
			if b.LightingStats().Mode != mode {
				t.Errorf("lighting stats mode = %q, want %q", b.LightingStats().Mode, mode)
			}
		})
	}
}

func TestBoardDoorToggle(t *testing.T) {
	for _, mode := range []string{config.ModeFull, config.ModePrebaked} {
		t.Run(mode, func(t *testing.T) {
			b := newTestBoard(t, mode, Options{})
			b.Step()
			closed := luxAt(t, b, behindPos)
			if cell, _ := b.Collision().Get(doorPos); cell.PlayerFree {
				t.Error("closed door cell is walkable")
			}

			open, err := b.ToggleDoor(doorPos)
			if err != nil {
				t.Fatalf("ToggleDoor: %v", err)
			}
			if !open {
				t.Fatal("toggling a closed door should open it")
			}
			b.Step()
			opened := luxAt(t, b, behindPos)
			if cell, _ := b.Collision().Get(doorPos); !cell.PlayerFree || !cell.SeeThrough {
				t.Errorf("open door cell = %+v, want walkable and see-through", cell)
			}

			if !(opened > closed) {
				t.Errorf("light behind the door: open %f, closed %f", opened, closed)
			}
			if !b.Doors()[doorPos] {
				t.Error("Doors() reports the door closed")
			}

			if err := b.SetDoor(doorPos, false); err != nil {
				t.Fatalf("SetDoor: %v", err)
			}
			b.Step()
			if again := luxAt(t, b, behindPos); math.Abs(float64(again-closed)) > 1e-4*math.Max(1, float64(closed)) {
				t.Errorf("closing the door again gives %f, want %f", again, closed)
			}
		})
	}
}

func TestBoardLampSwitch(t *testing.T) {
	for _, mode := range []string{config.ModeFull, config.ModePrebaked} {
		t.Run(mode, func(t *testing.T) {
			b := newTestBoard(t, mode, Options{})
			b.Step()
			if !b.Lamps()[lampPos] {
				t.Fatal("lamp should start switched on")
			}

			if err := b.SetLamp(lampPos, false); err != nil {
				t.Fatalf("SetLamp: %v", err)
			}
			b.Step()
			for i, c := range b.Light().Cells {
				if c.Lux != 0 {
					t.Fatalf("cell %+v lit (%f) with every lamp off", b.Dims().Pos(i), c.Lux)
				}
			}
			if b.Lamps()[lampPos] {
				t.Error("Lamps() reports the lamp on")
			}
		})
	}
}

func TestBoardToggleErrors(t *testing.T) {
	b := newTestBoard(t, config.ModeFull, Options{})
	wall := components.BoardPosition{}

	if err := b.SetDoor(wall, true); err == nil {
		t.Error("SetDoor on a wall should fail")
	}
	if _, err := b.ToggleDoor(lampPos); err == nil {
		t.Error("ToggleDoor on a lamp should fail")
	}
	if err := b.SetLamp(doorPos, true); err == nil {
		t.Error("SetLamp on a door should fail")
	}
}

func TestBoardRemoveAndResize(t *testing.T) {
	b := newTestBoard(t, config.ModeFull, Options{})
	b.Step()

	if n := b.RemoveTiles(doorPos); n != 1 {
		t.Fatalf("removed %d tiles, want 1", n)
	}
	if n := b.RemoveTiles(doorPos); n != 0 {
		t.Errorf("second removal removed %d tiles", n)
	}
	b.Step()
	if cell, _ := b.Collision().Get(doorPos); cell != (systems.CollisionCell{}) {
		t.Errorf("empty cell collision = %+v, want blocked", cell)
	}
	if len(b.Doors()) != 0 {
		t.Errorf("doors after removal: %v", b.Doors())
	}

	b.AddTile(PlacedTile{Pos: doorPos, Behavior: components.Door(true)})
	b.Step()
	if !b.Doors()[doorPos] {
		t.Error("added door missing")
	}

	dims := systems.Dims{X: 12, Y: 6, Z: 1}
	b.Resize(dims)
	b.Step()
	if b.Light().Dims != dims || b.Collision().Dims != dims {
		t.Errorf("after resize: light %+v, collision %+v, want %+v", b.Light().Dims, b.Collision().Dims, dims)
	}
	if luxAt(t, b, lampPos) <= 0 {
		t.Error("lamp dark after resize")
	}
}

func TestBoardExposureFollowsLight(t *testing.T) {
	settle := func(lampOn bool) float64 {
		b := newTestBoard(t, config.ModeFull, Options{})
		b.MoveViewer(components.Position{X: 2, Y: 1})
		if err := b.SetLamp(lampPos, lampOn); err != nil {
			t.Fatalf("SetLamp: %v", err)
		}
		for i := 0; i < 400; i++ {
			b.Step()
		}
		return b.Exposure()
	}

	lit, dark := settle(true), settle(false)
	if !(lit > dark) {
		t.Errorf("exposure in a lit room %f should exceed a dark room %f", lit, dark)
	}
}

func TestBoardVisibility(t *testing.T) {
	b := newTestBoard(t, config.ModeFull, Options{})
	b.Step()

	vis := b.Visibility()
	if v := vis.At(b.Viewer().ToBoard()); v != 1 {
		t.Errorf("viewer cell visibility = %f, want 1", v)
	}
	if v := vis.At(lampPos); v != 0 {
		t.Errorf("cell behind a closed door visible: %f", v)
	}
	if !b.Rooms().IsRoom(b.Viewer().ToBoard()) {
		t.Error("viewer cell should be an interior cell")
	}
}

func TestBoardOutput(t *testing.T) {
	dir := t.TempDir()
	snapDir := t.TempDir()
	b := newTestBoard(t, config.ModeFull, Options{OutputDir: dir, SnapshotDir: snapDir})

	for i := 0; i < config.Cfg().Telemetry.StatsInterval+1; i++ {
		b.Step()
	}

	path, err := b.SaveSnapshot(snapDir)
	if err != nil {
		t.Fatalf("SaveSnapshot: %v", err)
	}
	if err := b.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	for _, name := range []string{"stats.csv", "perf.csv", "exposure.csv", "rebuilds.csv"} {
		info, err := os.Stat(filepath.Join(dir, name))
		if err != nil {
			t.Errorf("missing %s: %v", name, err)
			continue
		}
		if info.Size() == 0 {
			t.Errorf("%s is empty", name)
		}
	}

	snap, err := telemetry.LoadSnapshot(path)
	if err != nil {
		t.Fatalf("LoadSnapshot: %v", err)
	}
	if snap.Width != 9 || snap.Height != 5 || snap.Floors != 1 {
		t.Errorf("snapshot dims = %dx%dx%d", snap.Width, snap.Height, snap.Floors)
	}
	viewer := b.Viewer().ToBoard()
	if v := snap.Visibility[snap.Index(viewer.X, viewer.Y, viewer.Z)]; v != 1 {
		t.Errorf("snapshot viewer visibility = %f, want 1", v)
	}
	if lux := snap.Lux[snap.Index(lampPos.X, lampPos.Y, 0)]; lux <= 0 {
		t.Errorf("snapshot lamp lux = %f", lux)
	}
}

func TestPhaseRegistryMatchesPerf(t *testing.T) {
	reg := systems.NewSystemRegistry()
	ids := reg.IDs()
	if len(ids) != len(telemetry.Phases) {
		t.Fatalf("registry has %d phases, perf collector %d", len(ids), len(telemetry.Phases))
	}
	for i, id := range ids {
		if id != telemetry.Phases[i] {
			t.Errorf("phase %d: registry %q, perf collector %q", i, id, telemetry.Phases[i])
		}
	}
	if got := reg.GetName(telemetry.PhaseLighting); got != "Lighting" {
		t.Errorf("lighting phase name = %q", got)
	}
	if got := reg.GetName("unknown"); got != "unknown" {
		t.Errorf("unknown phase name = %q, want the id", got)
	}
}

func TestBoardHeldLightStaysIntact(t *testing.T) {
	b := newTestBoard(t, config.ModeFull, Options{})
	b.Step()

	held := b.Light()
	before := held.Clone()

	for i := 0; i < 3; i++ {
		if _, err := b.ToggleDoor(doorPos); err != nil {
			t.Fatalf("ToggleDoor: %v", err)
		}
		b.Step()
	}

	if b.Light() == held {
		t.Fatal("rebuilds should publish a new field")
	}
	for i := range held.Cells {
		if held.Cells[i] != before.Cells[i] {
			t.Fatalf("held field changed at %+v: %+v, was %+v", held.Dims.Pos(i), held.Cells[i], before.Cells[i])
		}
	}
}

func TestBoardModesShareSurfaces(t *testing.T) {
	full := newTestBoard(t, config.ModeFull, Options{})
	prebaked := newTestBoard(t, config.ModePrebaked, Options{})
	full.Step()
	prebaked.Step()

	a, c := full.Light(), prebaked.Light()
	for i := range a.Cells {
		p := a.Dims.Pos(i)
		if a.Cells[i].Transmissivity != c.Cells[i].Transmissivity {
			t.Errorf("cell %+v transmissivity: full %g, prebaked %g", p, a.Cells[i].Transmissivity, c.Cells[i].Transmissivity)
		}
		if a.Cells[i].Spectral != c.Cells[i].Spectral {
			t.Errorf("cell %+v spectral: full %+v, prebaked %+v", p, a.Cells[i].Spectral, c.Cells[i].Spectral)
		}
	}

	wall, _ := c.Get(components.BoardPosition{X: 4, Y: 0})
	if wall.Transmissivity >= 0.5 {
		t.Errorf("prebaked wall transmissivity = %g, want opaque", wall.Transmissivity)
	}
}
