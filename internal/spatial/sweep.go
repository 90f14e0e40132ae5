package spatial

import (
	"math"
	"time"

	"github.com/vovakirdan/notefall/internal/core"
)

// SweepHit is the result of a continuous collision test.
type SweepHit struct {
	TOI    float64   // Normalized time of impact in [0, 1] over the sweep
	Normal core.Vec2 // Face normal of the target at the entry point
}

// Sweep tests a box moving at velocity v (units per millisecond) for dt
// against a static target box using the slab method. A box that already
// overlaps the target reports TOI 0. It returns false when the boxes never
// touch during the sweep.
func Sweep(moving core.AABB, v core.Vec2, dt time.Duration, target core.AABB) (SweepHit, bool) {
	d := v.Scale(core.Millis(dt))
	if moving.Intersects(target) {
		c := moving.Center()
		t := target.Center()
		n := core.V(0, -1)
		if c.Y > t.Y {
			n = core.V(0, 1)
		}
		return SweepHit{TOI: 0, Normal: n}, true
	}

	entryX, exitX, okX := slab(moving.Min.X, moving.Max.X, target.Min.X, target.Max.X, d.X)
	if !okX {
		return SweepHit{}, false
	}
	entryY, exitY, okY := slab(moving.Min.Y, moving.Max.Y, target.Min.Y, target.Max.Y, d.Y)
	if !okY {
		return SweepHit{}, false
	}

	entry := math.Max(entryX, entryY)
	exit := math.Min(exitX, exitY)
	if entry > exit || entry > 1 || exit < 0 {
		return SweepHit{}, false
	}

	var n core.Vec2
	if entryX > entryY {
		n = core.V(-sign(d.X), 0)
	} else {
		n = core.V(0, -sign(d.Y))
	}
	return SweepHit{TOI: math.Max(entry, 0), Normal: n}, true
}

// slab returns the normalized entry and exit times of an interval [aMin, aMax]
// moving by v against a static interval [bMin, bMax]. ok is false when the
// axis is stationary and the intervals are disjoint.
func slab(aMin, aMax, bMin, bMax, v float64) (entry, exit float64, ok bool) {
	if v == 0 {
		if aMax < bMin || bMax < aMin {
			return 0, 0, false
		}
		return math.Inf(-1), math.Inf(1), true
	}
	var nearDist, farDist float64
	if v > 0 {
		nearDist = bMin - aMax
		farDist = bMax - aMin
	} else {
		nearDist = bMax - aMin
		farDist = bMin - aMax
	}
	return nearDist / v, farDist / v, true
}
