package systems

import (
	"math"
	"testing"
)

func TestAngleBucketsCardinal(t *testing.T) {
	c := Angles()
	tests := []struct {
		dx, dy int
		want   int
	}{
		{1, 0, 0},
		{0, 1, 12},
		{-1, 0, 24},
		{0, -1, 36},
		{1, 1, 6},
		{-1, -1, 30},
		{0, 0, 0},
	}

	for _, tt := range tests {
		got, ok := c.Bucket(tt.dx, tt.dy)
		if !ok {
			t.Fatalf("offset (%d,%d) should be cached", tt.dx, tt.dy)
		}
		if got != tt.want {
			t.Errorf("Bucket(%d,%d) = %d, want %d", tt.dx, tt.dy, got, tt.want)
		}
	}
}

func TestAngleRangeAdjacentOccluder(t *testing.T) {
	lo, hi, ok := Angles().Range(0, 1)
	if !ok {
		t.Fatal("offset (0,1) should be cached")
	}
	if lo != -6 || hi != 6 {
		t.Errorf("Range(0,1) = [%d,%d], want [-6,6]", lo, hi)
	}

	// A distant occluder on the axis covers a single bucket
	lo, hi, _ = Angles().Range(20, 0)
	if lo != 0 || hi != 0 {
		t.Errorf("Range(20,0) = [%d,%d], want [0,0]", lo, hi)
	}

	lo, hi, _ = Angles().Range(0, 0)
	if lo != 0 || hi != 0 {
		t.Errorf("zero offset range = [%d,%d], want [0,0]", lo, hi)
	}
}

func TestAngleCacheInvariants(t *testing.T) {
	c := Angles()
	fresh := buildAngleCache()

	for dx := -angleCenter; dx <= angleCenter; dx++ {
		for dy := -angleCenter; dy <= angleCenter; dy++ {
			b, _ := c.Bucket(dx, dy)
			lo, hi, _ := c.Range(dx, dy)
			d, _ := c.Distance(dx, dy)

			if b < 0 || b >= AngleBuckets {
				t.Fatalf("Bucket(%d,%d) = %d out of range", dx, dy, b)
			}
			if lo > hi || lo > 0 || hi < 0 {
				t.Fatalf("Range(%d,%d) = [%d,%d] violates lo <= 0 <= hi", dx, dy, lo, hi)
			}
			if hi-lo > AngleBuckets/2 {
				t.Fatalf("Range(%d,%d) spans %d buckets", dx, dy, hi-lo)
			}
			want := math.Hypot(float64(dx), float64(dy))
			if math.Abs(float64(d)-want) > 1e-4 {
				t.Fatalf("Distance(%d,%d) = %f, want %f", dx, dy, d, want)
			}

			// Deterministic: rebuilding gives the same tables
			fb, _ := fresh.Bucket(dx, dy)
			flo, fhi, _ := fresh.Range(dx, dy)
			if fb != b || flo != lo || fhi != hi {
				t.Fatalf("rebuilt cache differs at (%d,%d)", dx, dy)
			}

			// Mirror across the x axis
			if dy != 0 {
				mb, _ := c.Bucket(dx, -dy)
				if mb != (AngleBuckets-b)%AngleBuckets {
					t.Fatalf("Bucket(%d,%d) = %d not the mirror of %d", dx, -dy, mb, b)
				}
			}
		}
	}
}

func TestAngleCacheWindow(t *testing.T) {
	c := Angles()
	if _, ok := c.Bucket(angleCenter+1, 0); ok {
		t.Error("offset beyond the window should not be cached")
	}
	if _, _, ok := c.Range(0, -angleCenter-1); ok {
		t.Error("offset beyond the window should not be cached")
	}
	if _, ok := c.Distance(angleCenter, -angleCenter); !ok {
		t.Error("window corner should be cached")
	}
	if Angles() != c {
		t.Error("Angles should return the shared instance")
	}
}
