package telemetry

import "time"

// Collector accumulates board events within tick windows and produces WindowStats.
type Collector struct {
	windowDurationTicks int32

	// Current window tracking
	windowStartTick int32

	// Rebuild counters for current window
	collisionRebuilds int
	lightingRebuilds  int
	skippedRebuilds   int
	sources           int
	skippedSources    int
	propagated        int
	rebuildTime       time.Duration

	// Exposure and visibility samples for current window
	exposureSum      float64
	exposureMin      float64
	exposureMax      float64
	exposureSamples  int
	exposureTarget   float64
	exposureRejected int
	visibleSum       int
	visibleSamples   int
}

// NewCollector creates a new stats collector flushing every windowTicks ticks.
func NewCollector(windowTicks int) *Collector {
	if windowTicks < 1 {
		windowTicks = 1
	}
	return &Collector{windowDurationTicks: int32(windowTicks)}
}

// RecordCollisionRebuild records a collision field rebuild.
func (c *Collector) RecordCollisionRebuild() {
	c.collisionRebuilds++
}

// RecordLightingRebuild records a lighting rebuild. Skipped rebuilds only count.
func (c *Collector) RecordLightingRebuild(sources, skipped, propagated int, d time.Duration, ok bool) {
	if !ok {
		c.skippedRebuilds++
		return
	}
	c.lightingRebuilds++
	c.sources += sources
	c.skippedSources += skipped
	c.propagated += propagated
	c.rebuildTime += d
}

// RecordExposure records the exposure after a tick. Rejected updates only count.
func (c *Collector) RecordExposure(exposure, target float64, ok bool) {
	if !ok {
		c.exposureRejected++
		return
	}
	if c.exposureSamples == 0 || exposure < c.exposureMin {
		c.exposureMin = exposure
	}
	if exposure > c.exposureMax {
		c.exposureMax = exposure
	}
	c.exposureSum += exposure
	c.exposureSamples++
	c.exposureTarget = target
}

// RecordVisibility records how many cells the viewer could see this tick.
func (c *Collector) RecordVisibility(cells int) {
	c.visibleSum += cells
	c.visibleSamples++
}

// ShouldFlush returns true if enough ticks have passed to flush the window.
func (c *Collector) ShouldFlush(currentTick int32) bool {
	return currentTick-c.windowStartTick >= c.windowDurationTicks
}

// Flush produces a WindowStats and resets counters for the next window.
// lux holds the current field's cell values and is sorted in place;
// exposureLux is the baseline exposure reference of the last rebuild.
func (c *Collector) Flush(currentTick int32, mode string, lux []float64, exposureLux float64) WindowStats {
	ls := ComputeLuxStats(lux)

	stats := WindowStats{
		WindowStartTick: c.windowStartTick,
		WindowEndTick:   currentTick,
		Mode:            mode,

		CollisionRebuilds: c.collisionRebuilds,
		LightingRebuilds:  c.lightingRebuilds,
		SkippedRebuilds:   c.skippedRebuilds,
		Sources:           c.sources,
		SkippedSources:    c.skippedSources,
		Propagated:        c.propagated,

		Cells:       ls.Cells,
		CellsLit:    ls.Lit,
		LuxMean:     ls.Mean,
		LuxMax:      ls.Max,
		LuxP10:      ls.P10,
		LuxP50:      ls.P50,
		LuxP90:      ls.P90,
		ExposureLux: exposureLux,

		ExposureMin:      c.exposureMin,
		ExposureMax:      c.exposureMax,
		ExposureTarget:   c.exposureTarget,
		ExposureRejected: c.exposureRejected,
	}
	if c.lightingRebuilds > 0 {
		stats.RebuildAvgUS = float64(c.rebuildTime.Microseconds()) / float64(c.lightingRebuilds)
	}
	if c.exposureSamples > 0 {
		stats.ExposureMean = c.exposureSum / float64(c.exposureSamples)
	}
	if c.visibleSamples > 0 {
		stats.VisibleCellsMean = float64(c.visibleSum) / float64(c.visibleSamples)
	}

	// Reset for next window
	*c = Collector{
		windowDurationTicks: c.windowDurationTicks,
		windowStartTick:     currentTick,
		exposureTarget:      c.exposureTarget,
	}

	return stats
}

// WindowDurationTicks returns the number of ticks per window.
func (c *Collector) WindowDurationTicks() int32 {
	return c.windowDurationTicks
}
