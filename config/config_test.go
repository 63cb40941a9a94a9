package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("loading defaults: %v", err)
	}

	if len(cfg.Lighting.Passes) != 3 {
		t.Fatalf("expected 3 default passes, got %d", len(cfg.Lighting.Passes))
	}
	radii := []int{26, 6, 3}
	for i, want := range radii {
		if got := cfg.Lighting.Passes[i].Radius; got != want {
			t.Errorf("pass %d radius = %d, want %d", i, got, want)
		}
	}
	if cfg.Lighting.Passes[0].Heuristics {
		t.Error("first pass should not use skip heuristics")
	}
	if cfg.Derived.ExteriorRange != 7.0 {
		t.Errorf("desktop exterior range = %.2f, want 7", cfg.Derived.ExteriorRange)
	}
	if cfg.Derived.MaxPassRadius != 26 {
		t.Errorf("max pass radius = %d, want 26", cfg.Derived.MaxPassRadius)
	}
}

func TestLoadOverridesMerge(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "override.yaml")
	data := []byte("visibility:\n  profile: web\nboard:\n  width: 10\n")
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("writing override: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("loading override: %v", err)
	}
	if cfg.Board.Width != 10 {
		t.Errorf("board width = %d, want 10", cfg.Board.Width)
	}
	if cfg.Board.Height != 32 {
		t.Errorf("board height should keep default 32, got %d", cfg.Board.Height)
	}
	if cfg.Derived.ExteriorRange != 4.0 {
		t.Errorf("web exterior range = %.2f, want 4", cfg.Derived.ExteriorRange)
	}
}

func TestValidateRejectsBadTuning(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"radius beyond cache", func(c *Config) { c.Lighting.Passes[0].Radius = AngleCacheRadius + 1 }},
		{"divisor not damping", func(c *Config) { c.Lighting.Passes[1].Divisor = 1 }},
		{"unknown profile", func(c *Config) { c.Visibility.Profile = "console" }},
		{"clamp not above one", func(c *Config) { c.Exposure.MaxAccel = 1 }},
		{"unknown mode", func(c *Config) { c.Lighting.Mode = "raytraced" }},
		{"empty board", func(c *Config) { c.Board.Floors = 0 }},
		{"zero light height", func(c *Config) { c.Lighting.LightHeight = 0 }},
		{"negative shadow margin", func(c *Config) { c.Lighting.ShadowMargin = -1 }},
		{"sharp shadow edges", func(c *Config) { c.Lighting.BleedTiles = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load("")
			if err != nil {
				t.Fatalf("loading defaults: %v", err)
			}
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestWriteYAMLRoundTrip(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("loading defaults: %v", err)
	}
	cfg.Exposure.Inertia = 12.5

	path := filepath.Join(t.TempDir(), "snapshot.yaml")
	if err := cfg.WriteYAML(path); err != nil {
		t.Fatalf("writing snapshot: %v", err)
	}

	reloaded, err := Load(path)
	if err != nil {
		t.Fatalf("reloading snapshot: %v", err)
	}
	if reloaded.Exposure.Inertia != 12.5 {
		t.Errorf("inertia = %.2f after reload, want 12.5", reloaded.Exposure.Inertia)
	}
}

func TestMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing config file")
	}
}

func TestRefreshRecomputesDerived(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("loading defaults: %v", err)
	}

	cfg.Visibility.Profile = "web"
	cfg.Exposure.Darkness = 4
	if err := cfg.Refresh(); err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if cfg.Derived.ExteriorRange != 4.0 {
		t.Errorf("web exterior range = %.2f, want 4", cfg.Derived.ExteriorRange)
	}
	if want := cfg.Exposure.EyeSpeed / 2; cfg.Derived.EyeSpeed != want {
		t.Errorf("eye speed = %f, want %f", cfg.Derived.EyeSpeed, want)
	}

	cfg.Lighting.Mode = "raytraced"
	if err := cfg.Refresh(); err == nil {
		t.Error("expected error for unknown mode")
	}
}
