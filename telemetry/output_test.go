package telemetry

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pthm-cable/gloam/config"
)

func init() {
	config.MustInit("")
}

func TestOutputManagerDisabled(t *testing.T) {
	om, err := NewOutputManager("")
	if err != nil || om != nil {
		t.Fatalf("empty dir should disable output, got %v, %v", om, err)
	}

	// Nil manager is safe to use
	if err := om.WriteStats(WindowStats{}); err != nil {
		t.Error(err)
	}
	if err := om.WriteExposure(ExposureSample{}); err != nil {
		t.Error(err)
	}
	if err := om.Close(); err != nil {
		t.Error(err)
	}
}

func TestOutputManagerWritesHeaderOnce(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "run")
	om, err := NewOutputManager(dir)
	if err != nil {
		t.Fatalf("NewOutputManager: %v", err)
	}

	for tick := int32(1); tick <= 3; tick++ {
		if err := om.WriteExposure(ExposureSample{Tick: tick, Exposure: 1, Target: 2, Accel: 1}); err != nil {
			t.Fatalf("WriteExposure: %v", err)
		}
	}
	if err := om.WriteRebuild(RebuildRecord{Tick: 1, Mode: "full", Sources: 4}); err != nil {
		t.Fatalf("WriteRebuild: %v", err)
	}
	if err := om.WriteConfig(config.Cfg()); err != nil {
		t.Fatalf("WriteConfig: %v", err)
	}
	if err := om.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "exposure.csv"))
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 4 {
		t.Fatalf("exposure.csv has %d lines, want header + 3", len(lines))
	}
	if !strings.HasPrefix(lines[0], "tick,") || strings.HasPrefix(lines[1], "tick,") {
		t.Errorf("unexpected header layout: %q / %q", lines[0], lines[1])
	}

	for _, name := range []string{"stats.csv", "perf.csv", "bookmarks.csv", "rebuilds.csv", "config.yaml"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("missing %s: %v", name, err)
		}
	}
}
