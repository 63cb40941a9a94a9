package systems

import (
	"log/slog"
	"time"

	"github.com/pthm-cable/gloam/components"
	"github.com/pthm-cable/gloam/config"
)

// WaveEdge marks a baked cell from which light may continue past a door.
type WaveEdge struct {
	ResidualLux       float32 // lux scaled back to the source, lux·d²
	DistanceTravelled float32
}

// PrebakedCell is the baked contribution of the brightest source at a cell.
type PrebakedCell struct {
	Source int // 0 when no source owns the cell
	Lux    float32
	Color  components.Color
	Edge   *WaveEdge
}

// BakedSource is an emitter the bake assigned an id to.
type BakedSource struct {
	ID  int
	Pos components.BoardPosition
}

// PrebakedField holds per-source baked light with doors treated as closed.
type PrebakedField struct {
	Grid[PrebakedCell]
	Sources []BakedSource
}

// BakeStats summarizes one bake.
type BakeStats struct {
	Sources  int
	Owned    int
	Edges    int
	Duration time.Duration
}

// LogValue implements slog.LogValuer for structured logging.
func (s BakeStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("sources", s.Sources),
		slog.Int("owned", s.Owned),
		slog.Int("edges", s.Edges),
		slog.Int64("duration_us", s.Duration.Microseconds()),
	)
}

// Baker precomputes a PrebakedField by solving every emitter on its own.
type Baker struct {
	cfg    config.PrebakeConfig
	solver *Solver
	opaque float32

	scratch *LightField
	best    []float32
	queue   []components.BoardPosition
	reached []bool
}

// NewBaker creates a baker that solves with solver.
func NewBaker(cfg config.PrebakeConfig, lighting config.LightingConfig, solver *Solver) *Baker {
	return &Baker{cfg: cfg, solver: solver, opaque: float32(lighting.OpaqueThreshold)}
}

// Bake solves each emitter alone with every door closed. A cell belongs to the
// source lighting it most among those that reach it without crossing a door.
// Transparent owned cells next to a door become wave edges.
func (b *Baker) Bake(dims Dims, tiles []Tile) (*PrebakedField, BakeStats) {
	start := time.Now()
	baked := &PrebakedField{Grid: Grid[PrebakedCell]{Dims: dims, Cells: make([]PrebakedCell, dims.Len())}}
	var stats BakeStats

	doors := make([]bool, dims.Len())
	emitters := make(map[int]bool)
	base := make([]Tile, len(tiles))
	for i, t := range tiles {
		base[i] = t
		if !dims.Contains(t.Pos) {
			continue
		}
		idx := dims.Index(t.Pos)
		if t.Behavior.IsDoor() {
			doors[idx] = true
			base[i].Behavior.Light.Transmissivity = 0
			base[i].Behavior.Light.SeeThrough = false
		}
		if t.Behavior.Light.Emissivity > 0 {
			emitters[idx] = true
		}
		base[i].Behavior.Light.EmissionEnabled = false
	}

	if b.scratch == nil || b.scratch.Dims != dims {
		b.scratch = NewLightField(dims, float32(b.solver.cfg.AirTransmissivity))
		b.best = make([]float32, dims.Len())
		b.reached = make([]bool, dims.Len())
	}
	clear(b.best)

	work := make([]Tile, len(base))
	for idx := 0; idx < dims.Len(); idx++ {
		if !emitters[idx] {
			continue
		}
		src := dims.Pos(idx)
		id := len(baked.Sources) + 1
		baked.Sources = append(baked.Sources, BakedSource{ID: id, Pos: src})

		copy(work, base)
		for i := range work {
			if work[i].Pos == src {
				work[i].Behavior.Light.EmissionEnabled = true
			}
		}
		if _, ok := b.solver.Rebuild(b.scratch, dims, work); !ok {
			continue
		}
		color := b.scratch.Cells[idx].Color

		b.flood(src, doors)
		for i, reached := range b.reached {
			lux := b.scratch.Cells[i].Lux
			if !reached || lux < float32(b.cfg.BakeMinLux) || lux <= b.best[i] {
				continue
			}
			b.best[i] = lux
			baked.Cells[i] = PrebakedCell{Source: id, Lux: lux, Color: color}
		}
	}
	stats.Sources = len(baked.Sources)

	// Wave edges need the source position, so resolve them after ownership settles
	opaque := b.opaqueCells(dims, base)
	for i := range baked.Cells {
		cell := &baked.Cells[i]
		if cell.Source == 0 {
			continue
		}
		stats.Owned++
		if opaque[i] || !nextToDoor(dims, dims.Pos(i), doors) {
			continue
		}
		// A source cell on the edge keeps its own lux as the residual
		d := max(dims.Pos(i).Distance(baked.Sources[cell.Source-1].Pos), 1)
		cell.Edge = &WaveEdge{ResidualLux: cell.Lux * d * d, DistanceTravelled: d + 1}
		stats.Edges++
	}

	stats.Duration = time.Since(start)
	slog.Debug("lighting baked", "stats", stats)
	return baked, stats
}

// flood marks the cells connected to src through transparent, non-door cells
// holding at least the bake threshold. Opaque cells are marked but not crossed.
func (b *Baker) flood(src components.BoardPosition, doors []bool) {
	dims := b.scratch.Dims
	minLux := float32(b.cfg.BakeMinLux)
	clear(b.reached)

	b.reached[dims.Index(src)] = true
	b.queue = append(b.queue[:0], src)
	for head := 0; head < len(b.queue); head++ {
		p := b.queue[head]
		if b.scratch.Cells[dims.Index(p)].Transmissivity < b.opaque {
			continue
		}
		for _, d := range cardinals {
			np := p.Add(d.X, d.Y, 0)
			if !dims.Contains(np) {
				continue
			}
			j := dims.Index(np)
			if b.reached[j] || doors[j] || b.scratch.Cells[j].Lux < minLux {
				continue
			}
			b.reached[j] = true
			b.queue = append(b.queue, np)
		}
	}
}

// opaqueCells seeds tiles with doors closed and reports which cells block light.
func (b *Baker) opaqueCells(dims Dims, tiles []Tile) []bool {
	b.solver.Seed(b.scratch, tiles)
	opaque := make([]bool, dims.Len())
	for i := range b.scratch.Cells {
		opaque[i] = b.scratch.Cells[i].Transmissivity < b.opaque
	}
	return opaque
}

var cardinals = [4]components.BoardPosition{{X: 0, Y: 1}, {X: 1, Y: 0}, {X: 0, Y: -1}, {X: -1, Y: 0}}

func nextToDoor(dims Dims, p components.BoardPosition, doors []bool) bool {
	for _, d := range cardinals {
		np := p.Add(d.X, d.Y, 0)
		if dims.Contains(np) && doors[dims.Index(np)] {
			return true
		}
	}
	return false
}
