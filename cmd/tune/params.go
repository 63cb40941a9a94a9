package main

import (
	"github.com/pthm-cable/gloam/config"
)

// ParamSpec defines a single tunable parameter.
type ParamSpec struct {
	Name    string  // Human-readable name
	Path    string  // Config path for logging
	Min     float64 // Lower bound
	Max     float64 // Upper bound
	Default float64 // Default value
}

// ParamVector holds the set of all tunable parameters.
type ParamVector struct {
	Specs []ParamSpec
}

// NewParamVector creates the standard set of exposure loop parameters.
func NewParamVector() *ParamVector {
	return &ParamVector{
		Specs: []ParamSpec{
			{Name: "eye_speed", Path: "exposure.eye_speed", Min: 0.2, Max: 4.0, Default: 1.0},
			{Name: "inertia", Path: "exposure.inertia", Min: 2.0, Max: 40.0, Default: 10.0},
			{Name: "accel_damping", Path: "exposure.accel_damping", Min: 1.0, Max: 30.0, Default: 10.0},
			{Name: "accel_decay", Path: "exposure.accel_decay", Min: 0.9, Max: 0.999, Default: 0.99},
			{Name: "max_accel", Path: "exposure.max_accel", Min: 1.01, Max: 1.2, Default: 1.05},
		},
	}
}

// Dim returns the number of parameters.
func (pv *ParamVector) Dim() int {
	return len(pv.Specs)
}

// DefaultVector returns the default parameter values as a slice.
func (pv *ParamVector) DefaultVector() []float64 {
	v := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		v[i] = spec.Default
	}
	return v
}

// Normalize converts raw parameter values to [0,1] range.
func (pv *ParamVector) Normalize(raw []float64) []float64 {
	normalized := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		normalized[i] = (raw[i] - spec.Min) / (spec.Max - spec.Min)
	}
	return normalized
}

// Denormalize converts [0,1] values back to raw parameter values.
func (pv *ParamVector) Denormalize(normalized []float64) []float64 {
	raw := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		raw[i] = spec.Min + normalized[i]*(spec.Max-spec.Min)
	}
	return raw
}

// Clamp ensures all values are within bounds.
func (pv *ParamVector) Clamp(v []float64) []float64 {
	clamped := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		clamped[i] = min(max(v[i], spec.Min), spec.Max)
	}
	return clamped
}

// ApplyToConfig applies parameter values to a Config struct and refreshes
// its derived values. Order must match Specs order.
func (pv *ParamVector) ApplyToConfig(cfg *config.Config, values []float64) error {
	clamped := pv.Clamp(values)

	cfg.Exposure.EyeSpeed = clamped[0]
	cfg.Exposure.Inertia = clamped[1]
	cfg.Exposure.AccelDamping = clamped[2]
	cfg.Exposure.AccelDecay = clamped[3]
	cfg.Exposure.MaxAccel = clamped[4]

	return cfg.Refresh()
}

// ExtractFromConfig extracts current parameter values from a Config struct.
func (pv *ParamVector) ExtractFromConfig(cfg *config.Config) []float64 {
	return []float64{
		cfg.Exposure.EyeSpeed,
		cfg.Exposure.Inertia,
		cfg.Exposure.AccelDamping,
		cfg.Exposure.AccelDecay,
		cfg.Exposure.MaxAccel,
	}
}
