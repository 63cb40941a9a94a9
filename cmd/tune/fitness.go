package main

import (
	"math"
	"math/rand"
	"sync"

	"gonum.org/v1/gonum/stat"

	"github.com/pthm-cable/gloam/config"
	"github.com/pthm-cable/gloam/systems"
)

// phase holds the viewer in constant surroundings for a number of ticks.
type phase struct {
	lux   float32
	ticks int
}

// scenario is a sequence of brightness changes the eye must adapt to.
type scenario struct {
	name   string
	phases []phase
}

// scenarios cover the transitions a viewer meets walking between rooms.
var scenarios = []scenario{
	{"enter lit room", []phase{{0.05, 200}, {200, 300}}},
	{"leave lit room", []phase{{200, 200}, {0.05, 300}}},
	{"dim to moderate", []phase{{1, 200}, {20, 300}}},
	{"door flicker", []phase{{5, 150}, {80, 60}, {5, 60}, {80, 300}}},
}

// Fitness weights.
const (
	settleTolerance = 0.03 // relative distance from target that counts as settled
	jitterFraction  = 0.05 // per-cell lux noise
	overshootWeight = 2.0
	rejectPenalty   = 10.0
)

// FitnessEvaluator runs exposure scenarios and computes fitness.
type FitnessEvaluator struct {
	params     *ParamVector
	seeds      []int64
	baseConfig *config.Config

	mu         sync.Mutex
	lastSettle float64 // mean settle fraction from the most recent Evaluate call
	lastOver   float64
}

// NewFitnessEvaluator creates a new evaluator.
func NewFitnessEvaluator(params *ParamVector, seeds []int64, baseCfg *config.Config) *FitnessEvaluator {
	return &FitnessEvaluator{
		params:     params,
		seeds:      seeds,
		baseConfig: baseCfg,
	}
}

// Last returns the settle fraction and overshoot of the most recent evaluation.
func (fe *FitnessEvaluator) Last() (settle, overshoot float64) {
	fe.mu.Lock()
	defer fe.mu.Unlock()
	return fe.lastSettle, fe.lastOver
}

// runResult holds the results from one scenario run.
type runResult struct {
	settle    []float64 // per transition: ticks to settle / phase length
	overshoot []float64 // per transition: relative overshoot past the target
	rejected  int
}

// Evaluate computes fitness for a parameter vector (lower = better).
func (fe *FitnessEvaluator) Evaluate(x []float64) float64 {
	cfg := fe.copyConfig()
	if err := fe.params.ApplyToConfig(cfg, x); err != nil {
		return math.Inf(1)
	}

	// Run all seeds in parallel
	results := make([]runResult, len(fe.seeds)*len(scenarios))
	var wg sync.WaitGroup
	for i, seed := range fe.seeds {
		for j := range scenarios {
			wg.Add(1)
			go func(idx int, s int64, sc scenario) {
				defer wg.Done()
				results[idx] = runScenario(cfg, sc, s)
			}(i*len(scenarios)+j, seed, scenarios[j])
		}
	}
	wg.Wait()

	var settle, overshoot []float64
	var rejected int
	for _, r := range results {
		settle = append(settle, r.settle...)
		overshoot = append(overshoot, r.overshoot...)
		rejected += r.rejected
	}

	meanSettle := stat.Mean(settle, nil)
	meanOver := stat.Mean(overshoot, nil)

	fe.mu.Lock()
	fe.lastSettle = meanSettle
	fe.lastOver = meanOver
	fe.mu.Unlock()

	return meanSettle + overshootWeight*meanOver + rejectPenalty*float64(rejected)
}

// runScenario drives a fresh exposure controller through one scenario.
func runScenario(cfg *config.Config, sc scenario, seed int64) runResult {
	rng := rand.New(rand.NewSource(seed))
	c := systems.NewExposureController(cfg.Exposure, cfg.Derived.EyeSpeed)
	lux := make([]float32, 9)
	var r runResult

	for pi, ph := range sc.phases {
		for i := range lux {
			lux[i] = ph.lux
		}
		target := c.Target(systems.ExposureInput{NearbyLux: lux})
		start := c.Exposure()
		rising := target > start

		settledAt := ph.ticks
		var over float64
		for tick := 0; tick < ph.ticks; tick++ {
			for i := range lux {
				lux[i] = ph.lux * float32(1+jitterFraction*(2*rng.Float64()-1))
			}
			if !c.Update(systems.ExposureInput{NearbyLux: lux}) {
				r.rejected++
			}

			rel := c.Exposure()/target - 1
			if math.Abs(rel) > settleTolerance {
				settledAt = ph.ticks
			} else if settledAt == ph.ticks {
				settledAt = tick
			}
			if !rising {
				rel = -rel
			}
			over = math.Max(over, rel)
		}

		// The first phase only warms up the controller
		if pi == 0 {
			continue
		}
		r.settle = append(r.settle, float64(settledAt)/float64(ph.ticks))
		r.overshoot = append(r.overshoot, over)
	}
	return r
}

// copyConfig creates a copy of the base config with its own pass slice.
func (fe *FitnessEvaluator) copyConfig() *config.Config {
	cfg := *fe.baseConfig
	cfg.Lighting.Passes = append([]config.PassConfig(nil), fe.baseConfig.Lighting.Passes...)
	return &cfg
}

// spread returns the coefficient of variation of values.
func spread(values []float64) float64 {
	mean, std := stat.MeanStdDev(values, nil)
	if mean == 0 {
		return 0
	}
	return std / mean
}
