package systems

import (
	"math"
	"sync"

	"github.com/pthm-cable/gloam/config"
)

// AngleBuckets is the number of discrete directions used for shadow casting (7.5 degrees each).
const AngleBuckets = 48

const (
	angleCenter = config.AngleCacheRadius
	angleSize   = 2*angleCenter + 1
)

// AngleCache holds distance, direction bucket, and occluder footprint for every
// relative offset within the cached window. It is immutable once built.
type AngleCache struct {
	dist     [angleSize * angleSize]float32
	bucket   [angleSize * angleSize]uint8
	rangeMin [angleSize * angleSize]int8
	rangeMax [angleSize * angleSize]int8
}

var (
	angleCache     *AngleCache
	angleCacheOnce sync.Once
)

// Angles returns the shared angular cache, building it on first use.
func Angles() *AngleCache {
	angleCacheOnce.Do(func() {
		angleCache = buildAngleCache()
	})
	return angleCache
}

func buildAngleCache() *AngleCache {
	c := &AngleCache{}
	for x := -angleCenter; x <= angleCenter; x++ {
		for y := -angleCenter; y <= angleCenter; y++ {
			i := angleIndex(x, y)
			fx, fy := float64(x), float64(y)
			c.dist[i] = float32(math.Hypot(fx, fy))
			if x == 0 && y == 0 {
				continue
			}
			b := quantizeAngle(fx, fy)
			c.bucket[i] = uint8(b)

			var lo, hi int
			for _, corner := range [4][2]float64{{-0.5, -0.5}, {-0.5, 0.5}, {0.5, -0.5}, {0.5, 0.5}} {
				d := quantizeAngle(fx+corner[0], fy+corner[1]) - b
				if d > AngleBuckets/2 || d < -AngleBuckets/2 {
					if d > 0 {
						d -= AngleBuckets
					} else {
						d += AngleBuckets
					}
				}
				lo = min(lo, d)
				hi = max(hi, d)
			}
			c.rangeMin[i] = int8(lo)
			c.rangeMax[i] = int8(hi)
		}
	}
	return c
}

// quantizeAngle maps a direction to a bucket in [0, AngleBuckets).
// sign(0) counts as positive so the negative x axis lands on bucket 24.
func quantizeAngle(x, y float64) int {
	d := math.Hypot(x, y)
	if d == 0 {
		return 0
	}
	sign := 1.0
	if y < 0 {
		sign = -1
	}
	a := math.Acos(math.Max(-1, math.Min(1, x/d))) * sign
	b := int(math.Round(a * AngleBuckets / (2 * math.Pi)))
	return ((b % AngleBuckets) + AngleBuckets) % AngleBuckets
}

func angleIndex(dx, dy int) int {
	return (dx+angleCenter)*angleSize + dy + angleCenter
}

// InWindow reports whether the offset is covered by the cache.
func InWindow(dx, dy int) bool {
	return dx >= -angleCenter && dx <= angleCenter && dy >= -angleCenter && dy <= angleCenter
}

// Distance returns the Euclidean length of the offset.
func (c *AngleCache) Distance(dx, dy int) (float32, bool) {
	if !InWindow(dx, dy) {
		return 0, false
	}
	return c.dist[angleIndex(dx, dy)], true
}

// Bucket returns the direction bucket of the offset. The zero offset is bucket 0.
func (c *AngleCache) Bucket(dx, dy int) (int, bool) {
	if !InWindow(dx, dy) {
		return 0, false
	}
	return int(c.bucket[angleIndex(dx, dy)]), true
}

// Range returns the bucket deltas, relative to Bucket, swept by a unit occluder at the offset.
// lo <= 0 <= hi always holds.
func (c *AngleCache) Range(dx, dy int) (lo, hi int, ok bool) {
	if !InWindow(dx, dy) {
		return 0, 0, false
	}
	i := angleIndex(dx, dy)
	return int(c.rangeMin[i]), int(c.rangeMax[i]), true
}

// lookup returns distance, bucket and range without bounds checks for hot loops.
func (c *AngleCache) lookup(dx, dy int) (dist float32, bucket, lo, hi int) {
	i := angleIndex(dx, dy)
	return c.dist[i], int(c.bucket[i]), int(c.rangeMin[i]), int(c.rangeMax[i])
}
