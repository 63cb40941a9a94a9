package game

import (
	"log/slog"

	"github.com/pthm-cable/gloam/telemetry"
)

// recordTick feeds per-tick samples to the collector and the exposure trace.
func (b *Board) recordTick() {
	state := b.exposure.State()
	b.collector.RecordExposure(state.Exposure, b.exposure.LastTarget(), b.exposureOK)

	if err := b.outputManager.WriteExposure(telemetry.ExposureSample{
		Tick:     b.tick,
		ViewerX:  b.viewer.X,
		ViewerY:  b.viewer.Y,
		Exposure: state.Exposure,
		Target:   b.exposure.LastTarget(),
		Accel:    state.Accel,
	}); err != nil {
		slog.Error("failed to write exposure", "error", err)
	}
}

// flushTelemetry checks if the stats window should be flushed and handles bookmarks.
func (b *Board) flushTelemetry() {
	if !b.collector.ShouldFlush(b.tick) {
		return
	}

	field := b.Light()
	b.luxBuf = b.luxBuf[:0]
	for i := range field.Cells {
		b.luxBuf = append(b.luxBuf, float64(field.Cells[i].Lux))
	}

	stats := b.collector.Flush(b.tick, b.cfg.Lighting.Mode, b.luxBuf, b.lastLighting.ExposureLux)
	perfStats := b.perf.Stats()

	// Log stats if enabled (console output)
	if b.logStats {
		stats.LogStats()
		perfStats.LogStats()
	}

	// Write to CSV if output manager is enabled
	if b.outputManager != nil {
		if err := b.outputManager.WriteStats(stats); err != nil {
			slog.Error("failed to write stats", "error", err)
		}
		if err := b.outputManager.WritePerf(perfStats, stats.WindowEndTick); err != nil {
			slog.Error("failed to write perf", "error", err)
		}
	}

	for _, bm := range b.bookmarks.Check(stats) {
		if b.logStats {
			bm.LogBookmark()
		}

		if b.outputManager != nil {
			if err := b.outputManager.WriteBookmark(bm); err != nil {
				slog.Error("failed to write bookmark", "error", err)
			}
		}

		// Save snapshot on bookmark
		if b.snapshotDir != "" {
			b.saveSnapshot(&bm)
		}
	}
}

// SaveSnapshot writes the current fields to dir.
func (b *Board) SaveSnapshot(dir string) (string, error) {
	return telemetry.SaveSnapshot(b.Snapshot(nil), dir)
}

// saveSnapshot creates and saves a bookmark snapshot to disk.
func (b *Board) saveSnapshot(bookmark *telemetry.Bookmark) {
	path, err := telemetry.SaveSnapshot(b.Snapshot(bookmark), b.snapshotDir)
	if err != nil {
		slog.Error("failed to save snapshot", "error", err)
		return
	}

	slog.Info("snapshot saved", "path", path, "tick", b.tick)
}

// Snapshot builds a snapshot of the current light and visibility fields.
func (b *Board) Snapshot(bookmark *telemetry.Bookmark) *telemetry.Snapshot {
	field := b.Light()
	viewer := b.viewer.ToBoard()
	snapshot := &telemetry.Snapshot{
		Version:    telemetry.SnapshotVersion,
		Width:      field.Dims.X,
		Height:     field.Dims.Y,
		Floors:     field.Dims.Z,
		Tick:       b.tick,
		Mode:       b.lastLighting.Mode,
		Exposure:   b.exposure.Exposure(),
		ViewerX:    viewer.X,
		ViewerY:    viewer.Y,
		ViewerZ:    viewer.Z,
		Lux:        make([]float32, len(field.Cells)),
		Visibility: make([]float32, len(field.Cells)),
		Bookmark:   bookmark,
	}

	for i := range field.Cells {
		snapshot.Lux[i] = field.Cells[i].Lux
		snapshot.Visibility[i] = b.vis.At(field.Dims.Pos(i))
	}
	return snapshot
}
