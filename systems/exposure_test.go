package systems

import (
	"math"
	"testing"

	"github.com/pthm-cable/gloam/components"
	"github.com/pthm-cable/gloam/config"
)

func newTestExposure() *ExposureController {
	cfg := config.Cfg()
	return NewExposureController(cfg.Exposure, cfg.Derived.EyeSpeed)
}

func constantLux(lux float32) []float32 {
	vals := make([]float32, 9)
	for i := range vals {
		vals[i] = lux
	}
	return vals
}

func TestExposureConvergesToTarget(t *testing.T) {
	c := newTestExposure()
	maxAccel := config.Cfg().Exposure.MaxAccel
	in := ExposureInput{NearbyLux: constantLux(5)}

	if c.Exposure() != 1 {
		t.Fatalf("initial exposure = %f, want 1", c.Exposure())
	}

	prev := c.Exposure()
	for tick := 0; tick < 200; tick++ {
		if !c.Update(in) {
			t.Fatalf("tick %d: update rejected", tick)
		}
		ratio := c.Exposure() / prev
		if ratio > maxAccel+1e-9 || ratio < 1/maxAccel-1e-9 {
			t.Fatalf("tick %d: exposure changed by factor %f beyond clamp %f", tick, ratio, maxAccel)
		}
		prev = c.Exposure()
	}

	target := c.Target(in)
	if rel := math.Abs(c.Exposure()/target - 1); rel > 0.01 {
		t.Errorf("exposure %f not within 1%% of target %f (off by %.2f%%)", c.Exposure(), target, rel*100)
	}
	if math.Abs(c.State().Accel-1) > 1e-3 {
		t.Errorf("accel = %f after settling, want ~1", c.State().Accel)
	}
}

func TestExposureTracksBrightness(t *testing.T) {
	tests := []struct {
		name string
		lux  float32
	}{
		{"dark", 0},
		{"dim", 0.5},
		{"bright", 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestExposure()
			in := ExposureInput{NearbyLux: constantLux(tt.lux)}
			for tick := 0; tick < 400; tick++ {
				c.Update(in)
			}
			if rel := math.Abs(c.Exposure()/c.Target(in) - 1); rel > 0.01 {
				t.Errorf("exposure %f not settled on target %f", c.Exposure(), c.Target(in))
			}
		})
	}

	c := newTestExposure()
	dark := c.Target(ExposureInput{NearbyLux: constantLux(0.1)})
	bright := c.Target(ExposureInput{NearbyLux: constantLux(50)})
	if !(bright > dark) {
		t.Errorf("brighter surroundings should raise the target: %f vs %f", bright, dark)
	}
}

func TestExposureReadsLightField(t *testing.T) {
	dims := Dims{X: 5, Y: 5, Z: 1}
	field := NewLightField(dims, 1.05)
	for i := range field.Cells {
		field.Cells[i].Lux = 5
	}

	c := newTestExposure()
	fromField := c.Target(ExposureInput{Viewer: viewerAt(2, 2), Light: field})
	fromList := c.Target(ExposureInput{NearbyLux: constantLux(5)})
	if math.Abs(fromField-fromList) > 1e-9 {
		t.Errorf("field target %f differs from list target %f", fromField, fromList)
	}

	// A corner viewer only has four cells in bounds
	corner := c.Target(ExposureInput{Viewer: viewerAt(0, 0), Light: field})
	if corner <= 0 || math.IsNaN(corner) {
		t.Errorf("corner target = %f, want positive", corner)
	}
}

func TestExposureHandheldSensitivity(t *testing.T) {
	c := newTestExposure()
	viewer := viewerAt(3, 3)
	base := ExposureInput{Viewer: viewer, NearbyLux: constantLux(0.1)}
	without := c.Target(base)

	withTorch := func(kind components.GearKind) float64 {
		in := base
		in.Handheld = []components.HandheldLight{
			components.NewHandheld(kind, components.Position{X: 3, Y: 4}, 100, components.White),
		}
		return c.Target(in)
	}

	visible := withTorch(components.GearFlashlight)
	red := withTorch(components.GearRedTorch)
	uv := withTorch(components.GearUVTorch)

	if !(visible > uv && uv > red && red > without) {
		t.Errorf("expected visible > uv > red > none, got %f, %f, %f, %f", visible, uv, red, without)
	}

	off := base
	torch := components.NewHandheld(components.GearFlashlight, viewer, 100, components.White)
	torch.On = false
	off.Handheld = []components.HandheldLight{torch}
	if got := c.Target(off); got != without {
		t.Errorf("switched-off torch changed the target: %f vs %f", got, without)
	}
}

func TestExposureHoldsOnNonFinite(t *testing.T) {
	c := newTestExposure()
	for tick := 0; tick < 10; tick++ {
		c.Update(ExposureInput{NearbyLux: constantLux(5)})
	}
	before := c.State()

	for _, bad := range []float32{float32(math.NaN()), float32(math.Inf(1))} {
		if c.Update(ExposureInput{NearbyLux: constantLux(bad)}) {
			t.Errorf("update with lux %f should be rejected", bad)
		}
		if c.State() != before {
			t.Errorf("state changed after rejected update: %+v vs %+v", c.State(), before)
		}
	}
}
