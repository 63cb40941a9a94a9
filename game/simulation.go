package game

import (
	"log/slog"

	"github.com/pthm-cable/gloam/config"
	"github.com/pthm-cable/gloam/systems"
	"github.com/pthm-cable/gloam/telemetry"
)

// Step runs one board tick: pending rebuilds, visibility, exposure and telemetry.
func (b *Board) Step() {
	b.perf.StartTick()

	req := b.pending.Take()
	if req.Any() {
		b.collectTiles()
		b.perf.MarkRebuild()
	}

	b.perf.StartPhase(telemetry.PhaseCollision)
	if req.Collision {
		systems.RebuildCollision(b.collision, b.tiles)
		b.collector.RecordCollisionRebuild()
	}

	b.perf.StartPhase(telemetry.PhaseLighting)
	if req.Lighting {
		b.rebuildLighting()
	}

	b.perf.StartPhase(telemetry.PhaseVisibility)
	b.vis = b.visibility.Compute(b.viewer, b.collision, b.rooms)
	b.collector.RecordVisibility(len(b.vis))

	b.perf.StartPhase(telemetry.PhaseExposure)
	b.exposureOK = b.exposure.Update(systems.ExposureInput{
		Viewer:   b.viewer,
		Light:    b.Light(),
		Handheld: b.handheld,
	})
	if !b.exposureOK {
		slog.Warn("exposure update rejected", "tick", b.tick, "state", b.exposure.State())
	}

	b.tick++

	b.perf.StartPhase(telemetry.PhaseTelemetry)
	b.recordTick()
	b.flushTelemetry()

	b.perf.EndTick()
}

// rebuildLighting recomputes the light field into the private spare buffer and
// publishes it when the rebuild succeeds.
func (b *Board) rebuildLighting() {
	var stats systems.LightingStats
	var ok bool

	switch b.cfg.Lighting.Mode {
	case config.ModePrebaked:
		if b.baked == nil || b.bakeStale {
			b.bake()
		}
		doors := systems.CollectDoorStates(b.tiles)
		active := systems.ActiveSources(b.baked, b.tiles)
		slog.Debug("prebaked rebuild", "doors", len(doors), "active_sources", len(active))
		stats, ok = b.optimizer.Rebuild(b.spare, b.baked, active, b.collision, b.tiles)
	default:
		stats, ok = b.solver.Rebuild(b.spare, b.dims, b.tiles)
	}

	b.collector.RecordLightingRebuild(stats.Sources, stats.Skipped, stats.Propagated, stats.Duration, ok)
	if !ok {
		return
	}
	// Published fields are never written again; the next rebuild gets a fresh target
	b.light.Store(b.spare)
	b.spare = systems.NewLightField(b.dims, float32(b.cfg.Lighting.AirTransmissivity))
	b.lastLighting = stats

	if err := b.outputManager.WriteRebuild(telemetry.RebuildRecord{
		Tick:        b.tick,
		Mode:        stats.Mode,
		Sources:     stats.Sources,
		Skipped:     stats.Skipped,
		Propagated:  stats.Propagated,
		MeanLux:     stats.MeanLux,
		ExposureLux: stats.ExposureLux,
		DurationUS:  stats.Duration.Microseconds(),
	}); err != nil {
		slog.Error("failed to write rebuild", "error", err)
	}
}

// Bake recomputes the prebaked field from the current tiles.
func (b *Board) Bake() {
	b.collectTiles()
	b.bake()
}

func (b *Board) bake() {
	baked, stats := b.baker.Bake(b.dims, b.tiles)
	b.baked = baked
	b.bakeStale = false
	slog.Info("lighting baked", "stats", stats)
}
