package telemetry

import (
	"log/slog"
	"slices"
	"time"
)

// Phase names for the board tick.
const (
	PhaseCollision  = "collision"
	PhaseLighting   = "lighting"
	PhaseVisibility = "visibility"
	PhaseExposure   = "exposure"
	PhaseTelemetry  = "telemetry"
)

// Phases lists the tick phases in execution order.
var Phases = []string{PhaseCollision, PhaseLighting, PhaseVisibility, PhaseExposure, PhaseTelemetry}

// tickSample is the timing of one tick. phases is indexed like PerfCollector.names.
type tickSample struct {
	total   time.Duration
	phases  []time.Duration
	rebuild bool
}

// PerfCollector tracks tick timings over a rolling window. Ticks that rebuilt a
// field are timed separately so rare rebuild spikes stay visible next to the
// steady per-tick cost.
type PerfCollector struct {
	windowSize  int
	samples     []tickSample
	writeIndex  int
	sampleCount int

	names []string       // phase names in first-seen order
	index map[string]int // phase name -> slot in tickSample.phases

	current    *tickSample
	tickStart  time.Time
	phaseStart time.Time
	phase      int // active phase slot, -1 when none

	// Frame timing (preview window)
	lastFrameTime time.Time
	frameDuration time.Duration

	sortBuf []time.Duration
}

// NewPerfCollector creates a collector averaging over windowSize ticks.
func NewPerfCollector(windowSize int) *PerfCollector {
	if windowSize < 1 {
		windowSize = 60
	}
	p := &PerfCollector{
		windowSize: windowSize,
		samples:    make([]tickSample, windowSize),
		index:      make(map[string]int),
		phase:      -1,
	}
	for _, name := range Phases {
		p.slot(name)
	}
	return p
}

// slot returns the phase slot for name, registering it on first use.
func (p *PerfCollector) slot(name string) int {
	if i, ok := p.index[name]; ok {
		return i
	}
	p.index[name] = len(p.names)
	p.names = append(p.names, name)
	return len(p.names) - 1
}

// StartTick begins timing a new board tick. The sample slot it overwrites is reused.
func (p *PerfCollector) StartTick() {
	s := &p.samples[p.writeIndex]
	s.total = 0
	s.rebuild = false
	s.phases = s.phases[:0]
	for range p.names {
		s.phases = append(s.phases, 0)
	}
	p.current = s
	p.phase = -1
	p.tickStart = time.Now()
}

// StartPhase ends the running phase, if any, and starts timing phase.
func (p *PerfCollector) StartPhase(phase string) {
	now := time.Now()
	p.endPhase(now)
	p.phase = p.slot(phase)
	p.phaseStart = now
}

func (p *PerfCollector) endPhase(now time.Time) {
	if p.current == nil || p.phase < 0 {
		return
	}
	for len(p.current.phases) <= p.phase {
		p.current.phases = append(p.current.phases, 0)
	}
	p.current.phases[p.phase] += now.Sub(p.phaseStart)
}

// MarkRebuild flags the running tick as one that rebuilt a field.
func (p *PerfCollector) MarkRebuild() {
	if p.current != nil {
		p.current.rebuild = true
	}
}

// EndTick finishes timing the current tick and commits its sample.
func (p *PerfCollector) EndTick() {
	if p.current == nil {
		return
	}
	now := time.Now()
	p.endPhase(now)
	p.current.total = now.Sub(p.tickStart)
	p.current = nil
	p.phase = -1

	p.writeIndex = (p.writeIndex + 1) % p.windowSize
	if p.sampleCount < p.windowSize {
		p.sampleCount++
	}
}

// RecordFrame records frame timing for the preview window.
func (p *PerfCollector) RecordFrame() {
	now := time.Now()
	if !p.lastFrameTime.IsZero() {
		p.frameDuration = now.Sub(p.lastFrameTime)
	}
	p.lastFrameTime = now
}

// PerfStats holds aggregated performance statistics.
type PerfStats struct {
	// Tick timing
	AvgTickDuration time.Duration
	MinTickDuration time.Duration
	MaxTickDuration time.Duration
	P95TickDuration time.Duration

	// Ticks that rebuilt a field, and their mean duration
	RebuildTicks       int
	AvgRebuildDuration time.Duration

	// Phase breakdown (average durations)
	PhaseAvg map[string]time.Duration

	// Phase percentages of total tick time
	PhasePct map[string]float64

	// Throughput
	TicksPerSecond float64

	// Frame timing (preview window)
	FrameDuration time.Duration
	FPS           float64
}

// Stats aggregates the samples in the current window.
func (p *PerfCollector) Stats() PerfStats {
	stats := PerfStats{
		PhaseAvg:      make(map[string]time.Duration),
		PhasePct:      make(map[string]float64),
		FrameDuration: p.frameDuration,
	}
	if p.frameDuration > 0 {
		stats.FPS = float64(time.Second) / float64(p.frameDuration)
	}
	var total, rebuildTotal time.Duration
	phaseSum := make([]time.Duration, len(p.names))
	p.sortBuf = p.sortBuf[:0]
	for i := 0; i < p.sampleCount; i++ {
		s := &p.samples[i]
		if s == p.current {
			// Slot being refilled by a tick in progress
			continue
		}
		total += s.total
		p.sortBuf = append(p.sortBuf, s.total)
		if s.rebuild {
			stats.RebuildTicks++
			rebuildTotal += s.total
		}
		for j, d := range s.phases {
			phaseSum[j] += d
		}
	}

	n := len(p.sortBuf)
	if n == 0 {
		return stats
	}
	slices.Sort(p.sortBuf)
	stats.MinTickDuration = p.sortBuf[0]
	stats.MaxTickDuration = p.sortBuf[n-1]
	stats.P95TickDuration = p.sortBuf[min(n-1, n*95/100)]
	stats.AvgTickDuration = total / time.Duration(n)
	if stats.RebuildTicks > 0 {
		stats.AvgRebuildDuration = rebuildTotal / time.Duration(stats.RebuildTicks)
	}

	for j, sum := range phaseSum {
		if sum == 0 {
			continue
		}
		name := p.names[j]
		avg := sum / time.Duration(n)
		stats.PhaseAvg[name] = avg
		if stats.AvgTickDuration > 0 {
			stats.PhasePct[name] = float64(avg) / float64(stats.AvgTickDuration) * 100
		}
	}

	if stats.AvgTickDuration > 0 {
		stats.TicksPerSecond = float64(time.Second) / float64(stats.AvgTickDuration)
	}
	return stats
}

// LogStats logs performance statistics.
func (s PerfStats) LogStats() {
	slog.Info("perf", "stats", s)
}

// LogValue implements slog.LogValuer for structured logging.
func (s PerfStats) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.Int64("avg_tick_us", s.AvgTickDuration.Microseconds()),
		slog.Int64("p95_tick_us", s.P95TickDuration.Microseconds()),
		slog.Int64("max_tick_us", s.MaxTickDuration.Microseconds()),
		slog.Float64("ticks_per_sec", s.TicksPerSecond),
	}
	if s.RebuildTicks > 0 {
		attrs = append(attrs,
			slog.Int("rebuild_ticks", s.RebuildTicks),
			slog.Int64("avg_rebuild_us", s.AvgRebuildDuration.Microseconds()),
		)
	}
	if s.FPS > 0 {
		attrs = append(attrs, slog.Float64("fps", s.FPS))
	}
	for _, phase := range Phases {
		if pct, ok := s.PhasePct[phase]; ok && pct > 0.1 {
			attrs = append(attrs, slog.Float64(phase+"_pct", float64(int(pct*10))/10))
		}
	}
	return slog.GroupValue(attrs...)
}

// PerfStatsCSV is a flat struct for CSV export of performance stats.
type PerfStatsCSV struct {
	WindowEnd     int32   `csv:"window_end"`
	AvgTickUS     int64   `csv:"avg_tick_us"`
	MinTickUS     int64   `csv:"min_tick_us"`
	MaxTickUS     int64   `csv:"max_tick_us"`
	P95TickUS     int64   `csv:"p95_tick_us"`
	RebuildTicks  int     `csv:"rebuild_ticks"`
	AvgRebuildUS  int64   `csv:"avg_rebuild_us"`
	TicksPerSec   float64 `csv:"ticks_per_sec"`
	FPS           float64 `csv:"fps"`
	CollisionPct  float64 `csv:"collision_pct"`
	LightingPct   float64 `csv:"lighting_pct"`
	VisibilityPct float64 `csv:"visibility_pct"`
	ExposurePct   float64 `csv:"exposure_pct"`
	TelemetryPct  float64 `csv:"telemetry_pct"`
}

// ToCSV converts PerfStats to a flat CSV-friendly struct.
func (s PerfStats) ToCSV(windowEnd int32) PerfStatsCSV {
	return PerfStatsCSV{
		WindowEnd:     windowEnd,
		AvgTickUS:     s.AvgTickDuration.Microseconds(),
		MinTickUS:     s.MinTickDuration.Microseconds(),
		MaxTickUS:     s.MaxTickDuration.Microseconds(),
		P95TickUS:     s.P95TickDuration.Microseconds(),
		RebuildTicks:  s.RebuildTicks,
		AvgRebuildUS:  s.AvgRebuildDuration.Microseconds(),
		TicksPerSec:   s.TicksPerSecond,
		FPS:           s.FPS,
		CollisionPct:  s.PhasePct[PhaseCollision],
		LightingPct:   s.PhasePct[PhaseLighting],
		VisibilityPct: s.PhasePct[PhaseVisibility],
		ExposurePct:   s.PhasePct[PhaseExposure],
		TelemetryPct:  s.PhasePct[PhaseTelemetry],
	}
}
