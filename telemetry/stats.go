// Package telemetry provides lighting health tracking, bookmarks, snapshots and CSV output.
package telemetry

import (
	"log/slog"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// WindowStats holds aggregated statistics for a window of ticks.
type WindowStats struct {
	WindowStartTick int32  `csv:"-"`
	WindowEndTick   int32  `csv:"window_end"`
	Mode            string `csv:"mode"`

	// Rebuilds during the window
	CollisionRebuilds int     `csv:"collision_rebuilds"`
	LightingRebuilds  int     `csv:"lighting_rebuilds"`
	SkippedRebuilds   int     `csv:"skipped_rebuilds"`
	Sources           int     `csv:"sources"`
	SkippedSources    int     `csv:"skipped_sources"`
	Propagated        int     `csv:"propagated"`
	RebuildAvgUS      float64 `csv:"rebuild_avg_us"`

	// Light field (sampled at window end)
	Cells       int     `csv:"cells"`
	CellsLit    int     `csv:"cells_lit"`
	LuxMean     float64 `csv:"lux_mean"`
	LuxMax      float64 `csv:"lux_max"`
	LuxP10      float64 `csv:"lux_p10"`
	LuxP50      float64 `csv:"lux_p50"`
	LuxP90      float64 `csv:"lux_p90"`
	ExposureLux float64 `csv:"exposure_lux"`

	// Eye adaptation over the window
	ExposureMean     float64 `csv:"exposure_mean"`
	ExposureMin      float64 `csv:"exposure_min"`
	ExposureMax      float64 `csv:"exposure_max"`
	ExposureTarget   float64 `csv:"exposure_target"`
	ExposureRejected int     `csv:"exposure_rejected"`

	// Visibility
	VisibleCellsMean float64 `csv:"visible_cells"`
}

// Percentile calculates the p-th percentile of a sorted slice.
// p should be in [0, 1]. Returns 0 if slice is empty.
func Percentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if p <= 0 {
		return sorted[0]
	}
	if p >= 1 {
		return sorted[n-1]
	}

	// Linear interpolation
	idx := p * float64(n-1)
	lo := int(idx)
	hi := lo + 1
	if hi >= n {
		return sorted[n-1]
	}

	frac := idx - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}

// LuxStats summarizes the lux values of a light field.
type LuxStats struct {
	Cells, Lit    int
	Mean, Max     float64
	P10, P50, P90 float64
}

// ComputeLuxStats calculates mean, maximum and percentiles of lux values.
// values is sorted in place.
func ComputeLuxStats(values []float64) LuxStats {
	s := LuxStats{Cells: len(values)}
	if len(values) == 0 {
		return s
	}

	for _, v := range values {
		if v > 0 {
			s.Lit++
		}
	}
	s.Mean = stat.Mean(values, nil)
	s.Max = floats.Max(values)

	sort.Float64s(values)
	s.P10 = Percentile(values, 0.10)
	s.P50 = Percentile(values, 0.50)
	s.P90 = Percentile(values, 0.90)
	return s
}

// LitFraction returns the share of cells receiving any light.
func (s WindowStats) LitFraction() float64 {
	if s.Cells == 0 {
		return 0
	}
	return float64(s.CellsLit) / float64(s.Cells)
}

// LogValue implements slog.LogValuer for structured logging.
func (s WindowStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("window_start", int(s.WindowStartTick)),
		slog.Int("window_end", int(s.WindowEndTick)),
		slog.String("mode", s.Mode),
		slog.Int("collision_rebuilds", s.CollisionRebuilds),
		slog.Int("lighting_rebuilds", s.LightingRebuilds),
		slog.Int("skipped_rebuilds", s.SkippedRebuilds),
		slog.Int("sources", s.Sources),
		slog.Int("skipped_sources", s.SkippedSources),
		slog.Int("propagated", s.Propagated),
		slog.Float64("rebuild_avg_us", s.RebuildAvgUS),
		slog.Int("cells", s.Cells),
		slog.Int("cells_lit", s.CellsLit),
		slog.Float64("lux_mean", s.LuxMean),
		slog.Float64("lux_max", s.LuxMax),
		slog.Float64("lux_p10", s.LuxP10),
		slog.Float64("lux_p50", s.LuxP50),
		slog.Float64("lux_p90", s.LuxP90),
		slog.Float64("exposure_lux", s.ExposureLux),
		slog.Float64("exposure_mean", s.ExposureMean),
		slog.Float64("exposure_min", s.ExposureMin),
		slog.Float64("exposure_max", s.ExposureMax),
		slog.Float64("exposure_target", s.ExposureTarget),
		slog.Int("exposure_rejected", s.ExposureRejected),
		slog.Float64("visible_cells", s.VisibleCellsMean),
	)
}

// LogStats logs the window stats using slog.
func (s WindowStats) LogStats() {
	slog.Info("stats",
		"window_end", s.WindowEndTick,
		"mode", s.Mode,
		"lighting_rebuilds", s.LightingRebuilds,
		"collision_rebuilds", s.CollisionRebuilds,
		"skipped_rebuilds", s.SkippedRebuilds,
		"sources", s.Sources,
		"propagated", s.Propagated,
		"rebuild_avg_us", s.RebuildAvgUS,
		"lit_pct", s.LitFraction()*100,
		"lux_mean", s.LuxMean,
		"lux_max", s.LuxMax,
		"lux_p50", s.LuxP50,
		"lux_p90", s.LuxP90,
		"exposure_lux", s.ExposureLux,
		"exposure", s.ExposureMean,
		"exposure_target", s.ExposureTarget,
		"exposure_rejected", s.ExposureRejected,
		"visible_cells", s.VisibleCellsMean,
	)
}
