package spatial

import (
	"math"

	"github.com/vovakirdan/notefall/internal/core"
	"github.com/vovakirdan/notefall/internal/note"
)

// Contact describes an overlap between two shapes.
type Contact struct {
	Depth  float64   // Penetration depth along Normal
	Normal core.Vec2 // Unit vector pointing from the first shape toward the second
}

// Collide runs the exact narrow-phase test for shape a centered at pa against
// shape b centered at pb. It returns false when the shapes do not overlap or
// either shape kind is unknown.
func Collide(a note.Shape, pa core.Vec2, b note.Shape, pb core.Vec2) (Contact, bool) {
	switch a.Kind {
	case note.ShapeCircle:
		switch b.Kind {
		case note.ShapeCircle:
			return circleCircle(pa, a.Radius, pb, b.Radius)
		case note.ShapeRect:
			return circleRect(pa, a.Radius, pb, b.HalfExtents())
		case note.ShapeNone:
			return Contact{}, false
		}
	case note.ShapeRect:
		switch b.Kind {
		case note.ShapeCircle:
			c, ok := circleRect(pb, b.Radius, pa, a.HalfExtents())
			c.Normal = c.Normal.Scale(-1)
			return c, ok
		case note.ShapeRect:
			return rectRect(pa, a.HalfExtents(), pb, b.HalfExtents())
		case note.ShapeNone:
			return Contact{}, false
		}
	case note.ShapeNone:
		return Contact{}, false
	}
	return Contact{}, false
}

// BoundsOverlap is the low-precision narrow phase: it compares bounding boxes
// only, treating every shape as its AABB.
func BoundsOverlap(a note.Shape, pa core.Vec2, b note.Shape, pb core.Vec2) (Contact, bool) {
	if a.Kind == note.ShapeNone || b.Kind == note.ShapeNone {
		return Contact{}, false
	}
	return rectRect(pa, a.HalfExtents(), pb, b.HalfExtents())
}

func circleCircle(pa core.Vec2, ra float64, pb core.Vec2, rb float64) (Contact, bool) {
	d := pb.Sub(pa)
	sum := ra + rb
	distSq := d.LenSq()
	if distSq > sum*sum {
		return Contact{}, false
	}
	dist := math.Sqrt(distSq)
	if dist == 0 {
		// Concentric: any normal is valid, pick the fall axis.
		return Contact{Depth: sum, Normal: core.V(0, 1)}, true
	}
	return Contact{Depth: sum - dist, Normal: d.Scale(1 / dist)}, true
}

// rectRect is a separating-axis test over the two world axes. The contact
// normal is the axis of minimum overlap.
func rectRect(pa, ha, pb, hb core.Vec2) (Contact, bool) {
	d := pb.Sub(pa)
	overlapX := ha.X + hb.X - math.Abs(d.X)
	if overlapX < 0 {
		return Contact{}, false
	}
	overlapY := ha.Y + hb.Y - math.Abs(d.Y)
	if overlapY < 0 {
		return Contact{}, false
	}
	if overlapX < overlapY {
		return Contact{Depth: overlapX, Normal: core.V(sign(d.X), 0)}, true
	}
	return Contact{Depth: overlapY, Normal: core.V(0, sign(d.Y))}, true
}

// circleRect projects the circle center onto the rectangle to find the
// closest point and compares its distance with the radius.
func circleRect(pc core.Vec2, r float64, pr, hr core.Vec2) (Contact, bool) {
	local := pc.Sub(pr)
	closest := core.V(
		core.ClampF(local.X, -hr.X, hr.X),
		core.ClampF(local.Y, -hr.Y, hr.Y),
	)

	inside := closest == local
	if inside {
		// Center is inside the rectangle: push out along the nearest face.
		dx := hr.X - math.Abs(local.X)
		dy := hr.Y - math.Abs(local.Y)
		if dx < dy {
			return Contact{Depth: r + dx, Normal: core.V(-sign(local.X), 0)}, true
		}
		return Contact{Depth: r + dy, Normal: core.V(0, -sign(local.Y))}, true
	}

	diff := closest.Sub(local) // circle center -> closest point
	distSq := diff.LenSq()
	if distSq > r*r {
		return Contact{}, false
	}
	dist := math.Sqrt(distSq)
	return Contact{Depth: r - dist, Normal: diff.Scale(1 / dist)}, true
}

func sign(v float64) float64 {
	if v < 0 {
		return -1
	}
	return 1
}
