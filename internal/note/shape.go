package note

import "github.com/vovakirdan/notefall/internal/core"

// ShapeKind tags the active variant of a Shape.
type ShapeKind uint8

const (
	ShapeNone ShapeKind = iota
	ShapeCircle
	ShapeRect
)

// String returns the shape kind name as used in config files.
func (k ShapeKind) String() string {
	switch k {
	case ShapeCircle:
		return "circle"
	case ShapeRect:
		return "rect"
	default:
		return "none"
	}
}

// ParseShapeKind maps a config name to a ShapeKind. Unknown names map to circle.
func ParseShapeKind(s string) ShapeKind {
	switch s {
	case "rect", "rectangle":
		return ShapeRect
	default:
		return ShapeCircle
	}
}

// Shape is a tagged union of the collision shapes a note or zone can have.
// Radius is meaningful for circles, W and H for rectangles.
type Shape struct {
	Kind   ShapeKind
	Radius float64
	W, H   float64
}

// Circle returns a circle shape.
func Circle(radius float64) Shape {
	return Shape{Kind: ShapeCircle, Radius: radius}
}

// Rect returns an axis-aligned rectangle shape.
func Rect(w, h float64) Shape {
	return Shape{Kind: ShapeRect, W: w, H: h}
}

// HalfExtents returns the half width and half height of the shape's bounds.
func (s Shape) HalfExtents() core.Vec2 {
	switch s.Kind {
	case ShapeCircle:
		return core.Vec2{X: s.Radius, Y: s.Radius}
	case ShapeRect:
		return core.Vec2{X: s.W / 2, Y: s.H / 2}
	default:
		return core.Vec2{}
	}
}

// Bounds returns the axis-aligned bounds of the shape centered on c.
func (s Shape) Bounds(c core.Vec2) core.AABB {
	h := s.HalfExtents()
	return core.BoxAround(c, h.X, h.Y)
}
