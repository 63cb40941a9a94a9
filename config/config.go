// Package config provides configuration loading and access for the light engine.
package config

import (
	_ "embed"
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// AngleCacheRadius is the largest offset the angular cache covers on each axis.
// Pass radii may not exceed it.
const AngleCacheRadius = 32

// Lighting modes.
const (
	ModeFull     = "full"
	ModePrebaked = "prebaked"
)

// Config holds all engine configuration parameters.
type Config struct {
	Board      BoardConfig      `yaml:"board"`
	Lighting   LightingConfig   `yaml:"lighting"`
	Visibility VisibilityConfig `yaml:"visibility"`
	Exposure   ExposureConfig   `yaml:"exposure"`
	Prebake    PrebakeConfig    `yaml:"prebake"`
	Telemetry  TelemetryConfig  `yaml:"telemetry"`
	Preview    PreviewConfig    `yaml:"preview"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// BoardConfig holds the declared board size in cells.
type BoardConfig struct {
	Width      int     `yaml:"width"`
	Height     int     `yaml:"height"`
	Floors     int     `yaml:"floors"`
	LampLumens float64 `yaml:"lamp_lumens"`
	LampColor  string  `yaml:"lamp_color"`
}

// LightingConfig holds propagation solver parameters.
type LightingConfig struct {
	Mode                  string       `yaml:"mode"`
	AirTransmissivity     float64      `yaml:"air_transmissivity"`
	TransmissivityEpsilon float64      `yaml:"transmissivity_epsilon"`
	OpaqueThreshold       float64      `yaml:"opaque_threshold"`
	LightHeight           float64      `yaml:"light_height"`
	TotalLuxNorm          float64      `yaml:"total_lux_norm"`
	BleedTiles            float64      `yaml:"bleed_tiles"`
	ShadowMargin          float64      `yaml:"shadow_margin"`
	ShadowOffset          float64      `yaml:"shadow_offset"`
	ContrastRatio         float64      `yaml:"contrast_ratio"`
	WallTransmissivity    float64      `yaml:"wall_transmissivity"`
	ReflectRatio          float64      `yaml:"reflect_ratio"`
	LuxEpsilon            float64      `yaml:"lux_epsilon"`
	ExposureOffset        float64      `yaml:"exposure_offset"`
	Workers               int          `yaml:"workers"`
	ParallelThreshold     int          `yaml:"parallel_threshold"`
	Passes                []PassConfig `yaml:"passes"`
}

// PassConfig describes one propagation pass.
type PassConfig struct {
	Radius     int     `yaml:"radius"`
	MinLux     float64 `yaml:"min_lux"`
	MaxLux     float64 `yaml:"max_lux"` // 0 = unbounded
	Divisor    float64 `yaml:"divisor"` // source lux / divisor is redistributed
	Heuristics bool    `yaml:"heuristics"`
}

// VisibilityConfig holds flood-fill parameters.
type VisibilityConfig struct {
	Profile           string             `yaml:"profile"`
	NearRadius        float64            `yaml:"near_radius"`
	MinVisibility     float64            `yaml:"min_visibility"`
	InteriorRange     float64            `yaml:"interior_range"`
	UnclassifiedRange float64            `yaml:"unclassified_range"`
	ExteriorRange     map[string]float64 `yaml:"exterior_range"`
	MaxFalloff        float64            `yaml:"max_falloff"`
	FirstHitWeight    float64            `yaml:"first_hit_weight"`
	DistanceEpsilon   float64            `yaml:"distance_epsilon"`
}

// ExposureConfig holds eye adaptation parameters.
type ExposureConfig struct {
	Initial           float64           `yaml:"initial"`
	EnvironmentGamma  float64           `yaml:"environment_gamma"`
	Darkness          float64           `yaml:"darkness"`
	CenterBase        float64           `yaml:"center_base"`
	BaseWeight        float64           `yaml:"base_weight"`
	BaseCount         float64           `yaml:"base_count"`
	LuxEpsilon        float64           `yaml:"lux_epsilon"`
	CenterEpsilon     float64           `yaml:"center_epsilon"`
	HandheldGain      float64           `yaml:"handheld_gain"`
	BrightnessDivisor float64           `yaml:"brightness_divisor"`
	EyeSpeed          float64           `yaml:"eye_speed"`
	Inertia           float64           `yaml:"inertia"`
	AccelDamping      float64           `yaml:"accel_damping"`
	AccelDecay        float64           `yaml:"accel_decay"`
	MaxAccel          float64           `yaml:"max_accel"`
	Sensitivity       SensitivityConfig `yaml:"sensitivity"`
}

// SensitivityConfig holds the viewer's sensitivity to each light type.
type SensitivityConfig struct {
	Visible     float64 `yaml:"visible"`
	Red         float64 `yaml:"red"`
	Infrared    float64 `yaml:"infrared"`
	Ultraviolet float64 `yaml:"ultraviolet"`
}

// PrebakeConfig holds incremental optimizer parameters.
type PrebakeConfig struct {
	SeeThroughTransparency float64 `yaml:"see_through_transparency"`
	DynamicTransparency    float64 `yaml:"dynamic_transparency"`
	MinLux                 float64 `yaml:"min_lux"`
	CutoffRatio            float64 `yaml:"cutoff_ratio"`
	BakeMinLux             float64 `yaml:"bake_min_lux"`
}

// TelemetryConfig holds telemetry parameters.
type TelemetryConfig struct {
	PerfWindow    int `yaml:"perf_window"`
	StatsInterval int `yaml:"stats_interval"`
}

// PreviewConfig holds field preview window settings.
type PreviewConfig struct {
	Width     int `yaml:"width"`
	Height    int `yaml:"height"`
	CellSize  int `yaml:"cell_size"`
	TargetFPS int `yaml:"target_fps"`
}

// DerivedConfig holds computed values derived from the loaded config.
type DerivedConfig struct {
	ExteriorRange float64 // exterior visibility range for the active profile
	EyeSpeed      float64 // Exposure.EyeSpeed scaled by darkness
	MaxPassRadius int
}

// global holds the loaded configuration.
var global *Config

// Init loads configuration from the given path, or uses embedded defaults if path is empty.
// Must be called before Cfg().
func Init(path string) error {
	cfg, err := Load(path)
	if err != nil {
		return err
	}
	global = cfg
	return nil
}

// MustInit is like Init but panics on error.
func MustInit(path string) {
	if err := Init(path); err != nil {
		panic(fmt.Sprintf("config: failed to initialize: %v", err))
	}
}

// Cfg returns the global configuration. Panics if Init was not called.
func Cfg() *Config {
	if global == nil {
		panic("config: Cfg() called before Init()")
	}
	return global
}

// Load loads configuration from a YAML file, merging with embedded defaults.
// If path is empty, only embedded defaults are used.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Only overwrites fields present in file
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	cfg.computeDerived()

	return cfg, nil
}

// Validate reports tuning values the engines cannot run with.
func (c *Config) Validate() error {
	if c.Board.Width < 1 || c.Board.Height < 1 || c.Board.Floors < 1 {
		return fmt.Errorf("board size %dx%dx%d must be positive", c.Board.Width, c.Board.Height, c.Board.Floors)
	}
	if c.Board.LampLumens < 0 {
		return fmt.Errorf("lamp_lumens %.1f must be non-negative", c.Board.LampLumens)
	}
	if c.Lighting.Mode != ModeFull && c.Lighting.Mode != ModePrebaked {
		return fmt.Errorf("unknown lighting mode %q", c.Lighting.Mode)
	}
	if len(c.Lighting.Passes) == 0 {
		return fmt.Errorf("lighting needs at least one pass")
	}
	for i, p := range c.Lighting.Passes {
		if p.Radius < 1 || p.Radius > AngleCacheRadius {
			return fmt.Errorf("pass %d radius %d outside [1,%d]", i, p.Radius, AngleCacheRadius)
		}
		if p.Divisor <= 1 {
			return fmt.Errorf("pass %d divisor %.3f must exceed 1", i, p.Divisor)
		}
		if p.MaxLux != 0 && p.MaxLux < p.MinLux {
			return fmt.Errorf("pass %d max_lux below min_lux", i)
		}
	}
	if c.Lighting.LightHeight <= 0 {
		return fmt.Errorf("light_height %.3f must be positive", c.Lighting.LightHeight)
	}
	if c.Lighting.ShadowMargin < 0 || c.Lighting.BleedTiles <= 0 {
		return fmt.Errorf("shadow_margin must be non-negative and bleed_tiles positive")
	}
	if c.Lighting.AirTransmissivity < 0 || c.Lighting.TransmissivityEpsilon <= 0 {
		return fmt.Errorf("transmissivity tuning must be non-negative with a positive epsilon")
	}
	if _, ok := c.Visibility.ExteriorRange[c.Visibility.Profile]; !ok {
		return fmt.Errorf("no exterior range for visibility profile %q", c.Visibility.Profile)
	}
	if c.Visibility.InteriorRange <= 0 || c.Visibility.UnclassifiedRange <= 0 {
		return fmt.Errorf("visibility ranges must be positive")
	}
	if c.Exposure.MaxAccel <= 1 {
		return fmt.Errorf("exposure max_accel %.3f must exceed 1", c.Exposure.MaxAccel)
	}
	if c.Exposure.EnvironmentGamma <= 0 || c.Exposure.Darkness < 0 {
		return fmt.Errorf("exposure gamma must be positive and darkness non-negative")
	}
	if c.Exposure.Initial <= 0 || c.Exposure.Inertia <= 0 || c.Exposure.EyeSpeed <= 0 {
		return fmt.Errorf("exposure initial, inertia and eye_speed must be positive")
	}
	return nil
}

// Refresh validates c and recomputes derived values after fields were set in code.
func (c *Config) Refresh() error {
	if err := c.Validate(); err != nil {
		return err
	}
	c.computeDerived()
	return nil
}

// computeDerived calculates values derived from loaded config.
func (c *Config) computeDerived() {
	c.Derived.ExteriorRange = c.Visibility.ExteriorRange[c.Visibility.Profile]

	// Darkness zero would make adaptation instantaneous
	c.Derived.EyeSpeed = c.Exposure.EyeSpeed / math.Sqrt(math.Max(c.Exposure.Darkness, 0.01))

	c.Derived.MaxPassRadius = 0
	for _, p := range c.Lighting.Passes {
		c.Derived.MaxPassRadius = max(c.Derived.MaxPassRadius, p.Radius)
	}
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
