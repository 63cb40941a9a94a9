package systems

import (
	"log/slog"
	"time"

	"github.com/pthm-cable/gloam/components"
	"github.com/pthm-cable/gloam/config"
)

// waveStep is a queued wave front cell of one source.
type waveStep struct {
	pos    components.BoardPosition
	source int
	color  components.Color
	edge   WaveEdge
}

type visitKey struct {
	idx, source int
}

// Optimizer rebuilds lighting from a PrebakedField, re-propagating only the
// light that crosses doors from the baked wave edges.
type Optimizer struct {
	cfg      config.PrebakeConfig
	lighting config.LightingConfig

	queue   []waveStep
	visited map[visitKey]struct{}
	luxBuf  []float64
}

// NewOptimizer creates an optimizer.
func NewOptimizer(cfg config.PrebakeConfig, lighting config.LightingConfig) *Optimizer {
	return &Optimizer{
		cfg:      cfg,
		lighting: lighting,
		visited:  make(map[visitKey]struct{}),
	}
}

// ActiveSources returns the ids of baked sources whose tiles currently emit.
func ActiveSources(baked *PrebakedField, tiles []Tile) map[int]bool {
	emitting := make(map[components.BoardPosition]bool)
	for _, t := range tiles {
		if t.Behavior.Light.EmittedLux() > 0 {
			emitting[t.Pos] = true
		}
	}
	active := make(map[int]bool, len(baked.Sources))
	for _, s := range baked.Sources {
		if emitting[s.Pos] {
			active[s.ID] = true
		}
	}
	return active
}

// CollectDoorStates returns whether each door on the board is open.
func CollectDoorStates(tiles []Tile) map[components.BoardPosition]bool {
	doors := make(map[components.BoardPosition]bool)
	for _, t := range tiles {
		if t.Behavior.IsDoor() {
			doors[t.Pos] = t.Behavior.State == components.StateOpen
		}
	}
	return doors
}

// Rebuild writes the baked light of active sources into dst and spreads it
// from wave edges through see-through and dynamic cells. Transmissivity,
// spectral data and unlit colors come from the current tiles, seeded the same
// way as a full rebuild. Returns false without touching dst if the fields
// disagree on size.
func (o *Optimizer) Rebuild(dst *LightField, baked *PrebakedField, active map[int]bool, cf *CollisionField, tiles []Tile) (LightingStats, bool) {
	start := time.Now()
	stats := LightingStats{Mode: config.ModePrebaked}

	if dst.Dims != baked.Dims || dst.Dims != cf.Dims {
		slog.Warn("prebaked field size mismatch, skipping rebuild",
			"field", dst.Dims, "baked", baked.Dims, "collision", cf.Dims)
		return stats, false
	}
	dims := dst.Dims
	seedTiles(dst, tiles, float32(o.lighting.AirTransmissivity), float32(o.lighting.TransmissivityEpsilon))
	for i := range dst.Cells {
		dst.Cells[i].Lux = 0
	}

	minLux := float32(o.cfg.MinLux)
	for i := range baked.Cells {
		b := &baked.Cells[i]
		if b.Source == 0 || !active[b.Source] || b.Lux <= minLux {
			continue
		}
		dst.Cells[i].Lux = b.Lux
		dst.Cells[i].Color = b.Color
	}
	for _, on := range active {
		if on {
			stats.Sources++
		}
	}

	o.queue = o.queue[:0]
	clear(o.visited)
	for i := range baked.Cells {
		b := &baked.Cells[i]
		if b.Edge == nil || !active[b.Source] {
			continue
		}
		o.queue = append(o.queue, waveStep{pos: dims.Pos(i), source: b.Source, color: b.Color, edge: *b.Edge})
	}

	seeThrough := float32(o.cfg.SeeThroughTransparency)
	closed := float32(o.cfg.DynamicTransparency)
	cutoff := float32(o.cfg.CutoffRatio)
	for head := 0; head < len(o.queue); head++ {
		step := o.queue[head]
		for _, d := range cardinals {
			np := step.pos.Add(d.X, d.Y, 0)
			if !dims.Contains(np) {
				continue
			}
			j := dims.Index(np)
			if baked.Cells[j].Source == step.source {
				continue
			}
			key := visitKey{idx: j, source: step.source}
			if _, seen := o.visited[key]; seen {
				continue
			}
			o.visited[key] = struct{}{}

			col := cf.Cells[j]
			if !col.SeeThrough && !col.Dynamic {
				continue
			}
			transparency := closed
			if col.SeeThrough {
				transparency = seeThrough
			}
			residual := step.edge.ResidualLux * transparency
			dist := step.edge.DistanceTravelled
			add := residual / (dist * dist)

			cell := &dst.Cells[j]
			if cell.Lux > add*cutoff {
				continue
			}
			if cell.Lux > 0 {
				cell.Color = components.BlendColors(cell.Color, cell.Lux, step.color, add)
			} else {
				cell.Color = step.color
			}
			cell.Lux += add

			o.queue = append(o.queue, waveStep{
				pos:    np,
				source: step.source,
				color:  step.color,
				edge:   WaveEdge{ResidualLux: residual, DistanceTravelled: dist + 1},
			})
			stats.Propagated++
		}
	}

	stats.MeanLux = MeanLux(dst, &o.luxBuf)
	stats.ExposureLux = (stats.MeanLux + o.lighting.ExposureOffset) / 2
	stats.Duration = time.Since(start)

	slog.Debug("prebaked lighting rebuilt", "stats", stats, "wave_edges", len(o.queue)-stats.Propagated)
	return stats, true
}
