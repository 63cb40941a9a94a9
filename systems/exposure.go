package systems

import (
	"math"

	"github.com/pthm-cable/gloam/components"
	"github.com/pthm-cable/gloam/config"
)

// ExposureState is the persistent eye adaptation state.
type ExposureState struct {
	Exposure float64
	Accel    float64
}

// ExposureInput is what the viewer sees during one tick.
type ExposureInput struct {
	Viewer    components.Position
	Light     *LightField
	Handheld  []components.HandheldLight
	NearbyLux []float32 // used instead of Light when set
}

// ExposureController adapts exposure toward the brightness around the viewer,
// changing it by a bounded factor per tick.
type ExposureController struct {
	cfg      config.ExposureConfig
	eyeSpeed float64
	state    ExposureState
	target   float64
	luxBuf   []float32
}

// NewExposureController creates a controller at the configured initial exposure.
// eyeSpeed is the darkness-scaled adaptation speed.
func NewExposureController(cfg config.ExposureConfig, eyeSpeed float64) *ExposureController {
	return &ExposureController{
		cfg:      cfg,
		eyeSpeed: eyeSpeed,
		state:    ExposureState{Exposure: cfg.Initial, Accel: 1},
		target:   cfg.Initial,
	}
}

// State returns the current exposure state.
func (c *ExposureController) State() ExposureState {
	return c.state
}

// Exposure returns the current exposure scalar.
func (c *ExposureController) Exposure() float64 {
	return c.state.Exposure
}

// LastTarget returns the target computed on the most recent update.
func (c *ExposureController) LastTarget() float64 {
	return c.target
}

// Reset restores a given state, e.g. after a board change.
func (c *ExposureController) Reset(s ExposureState) {
	c.state = s
}

// Sensitivity returns how strongly the viewer perceives light of type t.
func (c *ExposureController) Sensitivity(t components.LightType) float64 {
	s := c.cfg.Sensitivity
	switch t {
	case components.LightRed:
		return s.Red
	case components.LightInfrared:
		return s.Infrared
	case components.LightUltraviolet:
		return s.Ultraviolet
	}
	return s.Visible
}

// nearbyLux returns the lux of the viewer's cell and its in-bounds neighbors.
func (c *ExposureController) nearbyLux(in ExposureInput) []float32 {
	if in.NearbyLux != nil {
		return in.NearbyLux
	}
	c.luxBuf = c.luxBuf[:0]
	if in.Light == nil {
		return c.luxBuf
	}
	center := in.Viewer.ToBoard()
	for dx := -1; dx <= 1; dx++ {
		for dy := -1; dy <= 1; dy++ {
			if cell, ok := in.Light.Get(center.Add(dx, dy, 0)); ok {
				c.luxBuf = append(c.luxBuf, cell.Lux)
			}
		}
	}
	return c.luxBuf
}

// Target computes the exposure the eye would settle on for this input.
func (c *ExposureController) Target(in ExposureInput) float64 {
	cfg := &c.cfg
	gamma := cfg.EnvironmentGamma
	center := cfg.CenterBase - gamma
	centerGamma := 1 + cfg.Darkness

	// Gamma-weighted average that favors bright cells
	sum := cfg.BaseWeight / gamma
	count := cfg.BaseCount
	for _, lux := range c.nearbyLux(in) {
		l := math.Max(float64(lux), 0)
		w := math.Pow(l, gamma)
		sum += w
		count += w / (l + cfg.LuxEpsilon)
	}
	cursor := sum / count
	cursor = math.Pow(cursor/center, 1/centerGamma)*center + cfg.CenterEpsilon

	var handheld float64
	for _, h := range in.Handheld {
		if !h.On {
			continue
		}
		d2 := float64(h.Pos.Distance2(in.Viewer))
		handheld += float64(h.Power) * c.Sensitivity(h.Type) / (d2 + 1)
	}
	cursor += math.Sqrt(math.Max(handheld, 0)) * cfg.HandheldGain
	cursor += cfg.BaseWeight / gamma
	return cursor / cfg.BrightnessDivisor
}

// Update advances the adaptation loop one tick. Returns false and keeps the
// previous state if the update produced a non-finite value.
func (c *ExposureController) Update(in ExposureInput) bool {
	cfg := &c.cfg
	target := c.Target(in)

	accel := c.state.Accel
	ratio := target / c.state.Exposure / math.Pow(accel, cfg.AccelDamping)
	accel = (accel*cfg.Inertia + ratio*c.eyeSpeed) / (cfg.Inertia + c.eyeSpeed)
	accel = math.Min(math.Max(accel, 1/cfg.MaxAccel), cfg.MaxAccel)
	accel = math.Pow(accel, cfg.AccelDecay)
	exposure := c.state.Exposure * accel

	if !finitePositive(target) || !finitePositive(accel) || !finitePositive(exposure) {
		return false
	}
	c.target = target
	c.state = ExposureState{Exposure: exposure, Accel: accel}
	return true
}

func finitePositive(x float64) bool {
	return x > 0 && !math.IsInf(x, 0) && !math.IsNaN(x)
}
