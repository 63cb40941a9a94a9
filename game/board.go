// Package game owns the tile world and runs the lighting pipeline each tick.
package game

import (
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/gloam/components"
	"github.com/pthm-cable/gloam/config"
	"github.com/pthm-cable/gloam/systems"
	"github.com/pthm-cable/gloam/telemetry"
)

// Options configures optional board features.
type Options struct {
	LogStats    bool   // log window stats and perf via slog
	OutputDir   string // CSV output directory (empty = disabled)
	SnapshotDir string // field snapshots on bookmarks (empty = disabled)
}

// Board holds the tile world and every field derived from it.
// It is single-owner: only Light may be read from other goroutines.
type Board struct {
	cfg *config.Config

	world       *ecs.World
	tileMapper  *ecs.Map2[components.BoardPosition, components.Behavior]
	roomMapper  *ecs.Map3[components.BoardPosition, components.Behavior, components.Room]
	tileFilter  *ecs.Filter2[components.BoardPosition, components.Behavior]
	roomFilter  *ecs.Filter2[components.BoardPosition, components.Room]
	behaviorMap *ecs.Map[components.Behavior]
	cells       map[components.BoardPosition][]ecs.Entity

	dims  systems.Dims
	tiles []systems.Tile // tile snapshot taken when a rebuild is due
	rooms systems.RoomSet

	// Derived fields
	collision *systems.CollisionField
	light     atomic.Pointer[systems.LightField]
	spare     *systems.LightField // private rebuild target, replaced after each publish
	baked     *systems.PrebakedField
	bakeStale bool
	vis       systems.VisibilityField

	// Engines
	solver     *systems.Solver
	baker      *systems.Baker
	optimizer  *systems.Optimizer
	visibility *systems.Visibility
	exposure   *systems.ExposureController
	pending    systems.PendingRebuilds

	// Viewer
	viewer   components.Position
	handheld []components.HandheldLight

	// State
	tick         int32
	lastLighting systems.LightingStats
	exposureOK   bool

	// Telemetry
	perf          *telemetry.PerfCollector
	collector     *telemetry.Collector
	bookmarks     *telemetry.BookmarkDetector
	outputManager *telemetry.OutputManager
	logStats      bool
	snapshotDir   string
	luxBuf        []float64
}

// NewBoard creates a board from a layout. A nil layout gives an empty board of
// the configured size.
func NewBoard(cfg *config.Config, layout *Layout, opts Options) (*Board, error) {
	if layout == nil {
		layout = &Layout{Dims: systems.Dims{X: cfg.Board.Width, Y: cfg.Board.Height, Z: cfg.Board.Floors}}
		layout.Viewer = components.Position{X: float32(layout.Dims.X / 2), Y: float32(layout.Dims.Y / 2)}
	}

	world := ecs.NewWorld()
	b := &Board{
		cfg:         cfg,
		world:       world,
		tileMapper:  ecs.NewMap2[components.BoardPosition, components.Behavior](world),
		roomMapper:  ecs.NewMap3[components.BoardPosition, components.Behavior, components.Room](world),
		tileFilter:  ecs.NewFilter2[components.BoardPosition, components.Behavior](world),
		roomFilter:  ecs.NewFilter2[components.BoardPosition, components.Room](world),
		behaviorMap: ecs.NewMap[components.Behavior](world),
		cells:       make(map[components.BoardPosition][]ecs.Entity),
		viewer:      layout.Viewer,

		solver:     systems.NewSolver(cfg.Lighting),
		optimizer:  systems.NewOptimizer(cfg.Prebake, cfg.Lighting),
		visibility: systems.NewVisibility(cfg.Visibility, cfg.Derived.ExteriorRange),
		exposure:   systems.NewExposureController(cfg.Exposure, cfg.Derived.EyeSpeed),

		perf:        telemetry.NewPerfCollector(cfg.Telemetry.PerfWindow),
		collector:   telemetry.NewCollector(cfg.Telemetry.StatsInterval),
		bookmarks:   telemetry.NewBookmarkDetector(10),
		logStats:    opts.LogStats,
		snapshotDir: opts.SnapshotDir,
	}
	b.baker = systems.NewBaker(cfg.Prebake, cfg.Lighting, b.solver)

	om, err := telemetry.NewOutputManager(opts.OutputDir)
	if err != nil {
		b.solver.Close()
		return nil, fmt.Errorf("setting up output: %w", err)
	}
	b.outputManager = om
	if err := om.WriteConfig(cfg); err != nil {
		slog.Error("failed to write config snapshot", "error", err)
	}

	for i := range layout.Tiles {
		b.spawnTile(layout.Tiles[i])
	}
	b.Resize(layout.Dims)

	slog.Info("board created",
		"dims", b.dims,
		"tiles", len(layout.Tiles),
		"mode", cfg.Lighting.Mode,
	)
	return b, nil
}

// spawnTile adds one tile entity to the world.
func (b *Board) spawnTile(t PlacedTile) ecs.Entity {
	pos, behavior := t.Pos, t.Behavior
	var e ecs.Entity
	if t.Room {
		e = b.roomMapper.NewEntity(&pos, &behavior, &components.Room{Name: fmt.Sprintf("floor%d", pos.Z)})
	} else {
		e = b.tileMapper.NewEntity(&pos, &behavior)
	}
	b.cells[pos] = append(b.cells[pos], e)
	return e
}

// AddTile places a tile and schedules the rebuilds it affects.
func (b *Board) AddTile(t PlacedTile) {
	b.spawnTile(t)
	if t.Room {
		b.collectRooms()
	}
	b.bakeStale = true
	b.pending.Request(systems.RebuildRequest{Collision: true, Lighting: true})
}

// RemoveTiles deletes every tile at p. Returns the number removed.
func (b *Board) RemoveTiles(p components.BoardPosition) int {
	entities := b.cells[p]
	for _, e := range entities {
		b.world.RemoveEntity(e)
	}
	delete(b.cells, p)
	if len(entities) > 0 {
		b.collectRooms()
		b.bakeStale = true
		b.pending.Request(systems.RebuildRequest{Collision: true, Lighting: true})
	}
	return len(entities)
}

// Resize changes the declared board size and schedules full rebuilds.
// Tiles outside the new size stay in the world but are ignored.
func (b *Board) Resize(dims systems.Dims) {
	b.dims = dims
	b.collision = systems.NewCollisionField(dims)
	air := float32(b.cfg.Lighting.AirTransmissivity)
	b.spare = systems.NewLightField(dims, air)
	if b.light.Load() == nil {
		b.light.Store(systems.NewLightField(dims, air))
	}
	b.bakeStale = true
	b.collectRooms()
	b.pending.Request(systems.RebuildRequest{Collision: true, Lighting: true})
}

// collectRooms rebuilds the interior cell set from Room components.
func (b *Board) collectRooms() {
	b.rooms = make(systems.RoomSet)
	query := b.roomFilter.Query()
	for query.Next() {
		pos, _ := query.Get()
		b.rooms[*pos] = struct{}{}
	}
}

// collectTiles snapshots every tile for the rebuilds.
func (b *Board) collectTiles() {
	b.tiles = b.tiles[:0]
	query := b.tileFilter.Query()
	for query.Next() {
		pos, behavior := query.Get()
		b.tiles = append(b.tiles, systems.Tile{Pos: *pos, Behavior: *behavior})
	}
}

// Light returns the published light field. Safe for concurrent readers: a
// published field is immutable, so a held pointer stays consistent after later
// rebuilds replace it.
func (b *Board) Light() *systems.LightField {
	return b.light.Load()
}

// Collision returns the collision field.
func (b *Board) Collision() *systems.CollisionField {
	return b.collision
}

// Visibility returns the visibility field of the last tick.
func (b *Board) Visibility() systems.VisibilityField {
	return b.vis
}

// Exposure returns the current exposure scalar.
func (b *Board) Exposure() float64 {
	return b.exposure.Exposure()
}

// ExposureState returns the full exposure controller state.
func (b *Board) ExposureState() systems.ExposureState {
	return b.exposure.State()
}

// LightingStats returns the stats of the last successful lighting rebuild.
func (b *Board) LightingStats() systems.LightingStats {
	return b.lastLighting
}

// Dims returns the declared board size.
func (b *Board) Dims() systems.Dims {
	return b.dims
}

// Tick returns the number of completed ticks.
func (b *Board) Tick() int32 {
	return b.tick
}

// Rooms returns the interior cells.
func (b *Board) Rooms() systems.RoomSet {
	return b.rooms
}

// Viewer returns the viewer position.
func (b *Board) Viewer() components.Position {
	return b.viewer
}

// MoveViewer places the viewer.
func (b *Board) MoveViewer(p components.Position) {
	b.viewer = p
}

// SetHandheld replaces the handheld lights near the viewer.
func (b *Board) SetHandheld(lights []components.HandheldLight) {
	b.handheld = append(b.handheld[:0], lights...)
}

// RequestRebuild schedules rebuilds for the next tick.
func (b *Board) RequestRebuild(r systems.RebuildRequest) {
	b.pending.Request(r)
}

// Close stops worker goroutines and flushes output.
func (b *Board) Close() error {
	b.solver.Close()
	return b.outputManager.Close()
}

// ExposureTarget returns the exposure the eye was adapting toward last tick.
func (b *Board) ExposureTarget() float64 {
	return b.exposure.LastTarget()
}

// Baked returns the prebaked field, or nil before the first bake.
func (b *Board) Baked() *systems.PrebakedField {
	return b.baked
}

// Perf returns the tick performance collector.
func (b *Board) Perf() *telemetry.PerfCollector {
	return b.perf
}
