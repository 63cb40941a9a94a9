package systems

import (
	"github.com/pthm-cable/gloam/components"
	"github.com/pthm-cable/gloam/config"
)

// VisibilityField maps cells to how perceivable they are from the viewer, in [0,1].
// Cells the flood never reached are absent and read as 0.
type VisibilityField map[components.BoardPosition]float32

// At returns the visibility of p, 0 when unreached.
func (v VisibilityField) At(p components.BoardPosition) float32 {
	return v[p]
}

// RoomClassifier tells interior cells from exterior ones.
type RoomClassifier interface {
	IsRoom(p components.BoardPosition) bool
}

// RoomSet is a RoomClassifier backed by a set of interior cells.
type RoomSet map[components.BoardPosition]struct{}

// IsRoom reports whether p is an interior cell.
func (r RoomSet) IsRoom(p components.BoardPosition) bool {
	_, ok := r[p]
	return ok
}

type visitStep struct {
	pos, prev components.BoardPosition
}

// Visibility computes decaying line-of-sight floods.
type Visibility struct {
	cfg           config.VisibilityConfig
	exteriorRange float32
	queue         []visitStep
}

// NewVisibility creates a visibility engine. exteriorRange is the falloff range
// outdoors for the active deployment profile.
func NewVisibility(cfg config.VisibilityConfig, exteriorRange float64) *Visibility {
	return &Visibility{cfg: cfg, exteriorRange: float32(exteriorRange)}
}

// Compute floods outward from the viewer through passable or see-through cells.
// rooms may be nil, in which case every cell uses the unclassified range.
func (v *Visibility) Compute(viewer components.Position, cf *CollisionField, rooms RoomClassifier) VisibilityField {
	cfg := &v.cfg
	start := viewer.ToBoard()
	vf := make(VisibilityField)
	vf[start] = 1

	near := float32(cfg.NearRadius)
	minVis := float32(cfg.MinVisibility)
	maxFalloff := float32(cfg.MaxFalloff)
	eps := float32(cfg.DistanceEpsilon)
	firstHit := float32(cfg.FirstHitWeight)

	v.queue = append(v.queue[:0], visitStep{pos: start, prev: start})
	for head := 0; head < len(v.queue); head++ {
		step := v.queue[head]
		p := step.pos

		cell, ok := cf.Get(p)
		if !ok || !(cell.PlayerFree || cell.SeeThrough) {
			continue
		}
		pds := p.DistanceTo(viewer)
		src := vf[p]

		for dx := -1; dx <= 1; dx++ {
			for dy := -1; dy <= 1; dy++ {
				if dx == 0 && dy == 0 {
					continue
				}
				np := p.Add(dx, dy, 0)
				if !cf.Dims.Contains(np) {
					continue
				}

				npds := np.DistanceTo(viewer)
				f := float32(1)
				if npds >= near {
					npref := np.Distance(step.prev)/2 + eps
					f = clamp01((npds - pds) / npref)
					f *= f
				}
				dst := src * f
				if dst < minVis {
					continue
				}

				old, seen := vf[np]
				if !seen {
					v.queue = append(v.queue, visitStep{pos: np, prev: p})
				}

				k := float32(cfg.UnclassifiedRange)
				if rooms != nil {
					if rooms.IsRoom(np) {
						k = float32(cfg.InteriorRange)
					} else {
						k = v.exteriorRange
					}
				}
				dst /= 1 + min(max((npds-near)/k, 0), maxFalloff)

				if !seen {
					old = dst * firstHit
				}
				vf[np] = 1 - (1-old)*(1-dst)
			}
		}
	}
	return vf
}

func clamp01(x float32) float32 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}
