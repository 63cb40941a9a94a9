package systems

import (
	"log/slog"
	"math"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/pthm-cable/gloam/components"
	"github.com/pthm-cable/gloam/config"
)

// LightingStats summarizes one lighting rebuild.
type LightingStats struct {
	Mode        string
	Sources     int // source cells processed over all passes
	Skipped     int // source cells skipped by heuristics
	Propagated  int // optimizer wave steps
	MeanLux     float64
	ExposureLux float64 // baseline exposure reference
	Duration    time.Duration
}

// LogValue implements slog.LogValuer for structured logging.
func (s LightingStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("mode", s.Mode),
		slog.Int("sources", s.Sources),
		slog.Int("skipped", s.Skipped),
		slog.Int("propagated", s.Propagated),
		slog.Float64("mean_lux", s.MeanLux),
		slog.Float64("exposure_lux", s.ExposureLux),
		slog.Int64("duration_us", s.Duration.Microseconds()),
	)
}

// Solver is the multi-pass light propagation engine. It owns its scratch
// buffers and worker pool; it is not safe for concurrent Rebuild calls.
type Solver struct {
	cfg    config.LightingConfig
	angles *AngleCache
	pool   *passPool

	prevLux []float32
	sources []int
	luxBuf  []float64
}

// NewSolver creates a solver from lighting configuration.
func NewSolver(cfg config.LightingConfig) *Solver {
	return &Solver{
		cfg:    cfg,
		angles: Angles(),
		pool:   newPassPool(cfg.Workers),
	}
}

// Close stops the solver's worker goroutines.
func (s *Solver) Close() {
	s.pool.stopWorkers()
}

// Rebuild recomputes dst from the placed tiles. If dst does not match the
// declared board size the rebuild is skipped and false is returned.
func (s *Solver) Rebuild(dst *LightField, declared Dims, tiles []Tile) (LightingStats, bool) {
	start := time.Now()
	stats := LightingStats{Mode: config.ModeFull}

	if dst.Dims != declared {
		slog.Warn("light field size mismatch, skipping rebuild",
			"field", dst.Dims, "board", declared)
		return stats, false
	}

	s.Seed(dst, tiles)

	n := dst.Dims.Len()
	if cap(s.prevLux) < n {
		s.prevLux = make([]float32, n)
	}
	s.prevLux = s.prevLux[:n]
	s.pool.resize(n)

	for i := range s.cfg.Passes {
		processed, skipped := s.runPass(dst, s.cfg.Passes[i])
		stats.Sources += processed
		stats.Skipped += skipped
	}

	stats.MeanLux = s.meanLux(dst)
	stats.ExposureLux = (stats.MeanLux + s.cfg.ExposureOffset) / 2
	stats.Duration = time.Since(start)

	slog.Debug("lighting rebuilt", "stats", stats)
	return stats, true
}

// Seed resets field and writes every tile's own emission, color and transmissivity.
// Tiles sharing a cell add their lux and spectra, multiply their transmissivity
// factors and blend their colors by lux.
func (s *Solver) Seed(field *LightField, tiles []Tile) {
	seedTiles(field, tiles, float32(s.cfg.AirTransmissivity), float32(s.cfg.TransmissivityEpsilon))
}

// seedTiles resets field and writes each tile's emitted lux, color,
// transmissivity and spectral contribution into its cell.
func seedTiles(field *LightField, tiles []Tile, air, eps float32) {
	field.Fill(LightCell{Color: components.White, Transmissivity: air})

	factor := make(map[int]float32, len(tiles))
	for _, t := range tiles {
		if !field.Dims.Contains(t.Pos) {
			continue
		}
		i := field.Dims.Index(t.Pos)
		light := t.Behavior.Light
		cell := &field.Cells[i]

		lux := light.EmittedLux()
		if _, seen := factor[i]; !seen {
			factor[i] = 1
			cell.Color = light.Color
		} else {
			cell.Color = components.BlendColors(cell.Color, cell.Lux, light.Color, lux)
		}
		factor[i] *= max(light.Transmissivity, 0)
		cell.Lux += lux
		cell.Spectral = cell.Spectral.Add(light.Spectral)
	}
	for i, f := range factor {
		field.Cells[i].Transmissivity = f*air + eps
	}
}

// runPass redistributes light once. Sources read the committed lux of the
// previous pass; contributions land in per-chunk deltas committed afterwards.
func (s *Solver) runPass(field *LightField, pass config.PassConfig) (processed, skipped int) {
	for i := range field.Cells {
		s.prevLux[i] = field.Cells[i].Lux
	}

	minLux := float32(pass.MinLux)
	maxLux := float32(math.MaxFloat32)
	if pass.MaxLux > 0 {
		maxLux = float32(pass.MaxLux)
	}
	s.sources = s.sources[:0]
	for i, lux := range s.prevLux {
		if lux >= minLux && lux <= maxLux {
			s.sources = append(s.sources, i)
		}
	}

	s.pool.run(len(s.sources), s.cfg.ParallelThreshold, func(i0, i1 int, scratch *passScratch) {
		for _, idx := range s.sources[i0:i1] {
			if !s.propagateSource(field, idx, pass, scratch) {
				scratch.skipped++
			}
		}
	})

	// Sources give away less than they hold, so the sums stay non-negative
	lux := s.prevLux
	s.pool.sumInto(lux)
	for i := range field.Cells {
		field.Cells[i].Lux = lux[i]
	}

	for i := range s.pool.scratches {
		skipped += s.pool.scratches[i].skipped
	}
	return len(s.sources) - skipped, skipped
}

// propagateSource spreads a portion of one cell's light over its neighborhood.
// Returns false if the cell was skipped.
func (s *Solver) propagateSource(field *LightField, idx int, pass config.PassConfig, scratch *passScratch) bool {
	cfg := &s.cfg
	dims := field.Dims
	p := dims.Pos(idx)
	srcLux := s.prevLux[idx]
	luxEps := float32(cfg.LuxEpsilon)

	if pass.Heuristics {
		minL, maxL := float32(math.MaxFloat32), float32(0)
		minT := float32(math.MaxFloat32)
		for x := max(p.X-1, 0); x <= min(p.X+1, dims.X-1); x++ {
			for y := max(p.Y-1, 0); y <= min(p.Y+1, dims.Y-1); y++ {
				j := dims.Index(components.BoardPosition{X: x, Y: y, Z: p.Z})
				l := s.prevLux[j]
				minL = min(minL, l)
				maxL = max(maxL, l)
				minT = min(minT, field.Cells[j].Transmissivity)
			}
		}
		// Flat neighborhood, nothing to bounce
		if maxL/(minL+luxEps) < float32(cfg.ContrastRatio) {
			return false
		}
		// No walls nearby and not a local peak
		if minT > float32(cfg.WallTransmissivity) && srcLux/(minL+luxEps) < float32(cfg.ReflectRatio) {
			return false
		}
	}

	portion := srcLux / float32(pass.Divisor)
	scratch.delta[idx] -= portion

	r := pass.Radius
	x0, x1 := max(p.X-r, 0), min(p.X+r, dims.X-1)
	y0, y1 := max(p.Y-r, 0), min(p.Y+r, dims.Y-1)
	opaque := float32(cfg.OpaqueThreshold)

	shadow := &scratch.shadow
	if field.Cells[idx].Transmissivity < opaque {
		for b := range shadow {
			shadow[b] = 0
		}
	} else {
		for b := range shadow {
			shadow[b] = float32(r + 1)
		}
		for x := x0; x <= x1; x++ {
			for y := y0; y <= y1; y++ {
				j := dims.Index(components.BoardPosition{X: x, Y: y, Z: p.Z})
				if field.Cells[j].Transmissivity >= opaque {
					continue
				}
				dist, bucket, lo, hi := s.angles.lookup(x-p.X, y-p.Y)
				for k := lo; k <= hi; k++ {
					b := (bucket + k + AngleBuckets) % AngleBuckets
					shadow[b] = min(shadow[b], dist)
				}
			}
		}
	}

	height := float32(cfg.LightHeight)
	norm := max(float32(cfg.TotalLuxNorm), luxEps)
	margin := float32(cfg.ShadowMargin)
	offset := cfg.ShadowOffset
	bleed := math.Max(cfg.BleedTiles, 1e-6)
	for x := x0; x <= x1; x++ {
		for y := y0; y <= y1; y++ {
			dist, bucket, _, _ := s.angles.lookup(x-p.X, y-p.Y)
			sd := shadow[bucket]
			if dist-margin >= sd {
				continue
			}
			d := dist + height
			add := portion / (d * d) / norm
			f := (math.Tanh((float64(sd-dist)-offset)/bleed) + 1) / 2
			j := dims.Index(components.BoardPosition{X: x, Y: y, Z: p.Z})
			scratch.delta[j] += add * float32(f)
		}
	}
	return true
}

// meanLux returns the grid-wide mean lux.
func (s *Solver) meanLux(field *LightField) float64 {
	return MeanLux(field, &s.luxBuf)
}

// MeanLux returns the mean lux over all cells, reusing buf between calls.
func MeanLux(field *LightField, buf *[]float64) float64 {
	if len(field.Cells) == 0 {
		return 0
	}
	if cap(*buf) < len(field.Cells) {
		*buf = make([]float64, len(field.Cells))
	}
	vals := (*buf)[:len(field.Cells)]
	for i := range field.Cells {
		vals[i] = float64(field.Cells[i].Lux)
	}
	return stat.Mean(vals, nil)
}
