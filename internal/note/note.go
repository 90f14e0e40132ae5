// Package note defines the pooled note entity, its lifecycle states, its
// collision shape and the judgment grades a hit can earn.
package note

import (
	"time"

	"github.com/vovakirdan/notefall/internal/core"
)

// State is the lifecycle state of a note.
type State uint8

const (
	StatePending  State = iota // Reset and owned by the pool, or about to be spawned
	StateActive                // Falling, owned by the active-note collection
	StateJudged                // Hit or missed; judgment is set
	StateReleased              // Returned to the pool
)

// String returns a human-readable name for the state.
func (s State) String() string {
	switch s {
	case StatePending:
		return "Pending"
	case StateActive:
		return "Active"
	case StateJudged:
		return "Judged"
	case StateReleased:
		return "Released"
	default:
		return "Unknown"
	}
}

// Subtype distinguishes plain taps from notes with a tail.
type Subtype uint8

const (
	SubtypeTap Subtype = iota
	SubtypeHold
	SubtypeSlide
)

// String returns a human-readable name for the subtype.
func (s Subtype) String() string {
	switch s {
	case SubtypeTap:
		return "tap"
	case SubtypeHold:
		return "hold"
	case SubtypeSlide:
		return "slide"
	default:
		return "unknown"
	}
}

// Note is the mutable, pooled note record.
type Note struct {
	ID       uint64        // Unique within the engine lifetime, never reused
	Lane     int           // Track index
	Timing   time.Duration // Scheduled arrival at the judgment line, track-relative
	Position core.Vec2     // Current play-field position of the note center
	Velocity core.Vec2     // Units per millisecond; notes fall along +Y
	Speed    float64       // Magnitude of Velocity
	Shape    Shape
	Subtype  Subtype
	HoldFor  time.Duration // Tail length for hold and slide notes
	State    State
	Judgment *Judgment // nil until judged

	// judgment is the backing storage for Judgment so judging does not allocate.
	judgment Judgment
}

// Reset zeroes every field and puts the note back in StatePending.
// Only the pool calls this; it is the single Released -> Pending edge.
func (n *Note) Reset() {
	*n = Note{}
}

// Advance moves the note to a later state. Transitions are monotonic:
// moving backwards or staying put returns false and leaves the note unchanged.
func (n *Note) Advance(to State) bool {
	if to <= n.State {
		return false
	}
	n.State = to
	return true
}

// Judge records the judgment and marks the note Judged. A note is judged at
// most once; later calls return false.
func (n *Note) Judge(j Judgment) bool {
	if n.Judgment != nil || n.State != StateActive {
		return false
	}
	n.judgment = j
	n.Judgment = &n.judgment
	n.State = StateJudged
	return true
}

// IsJudged reports whether a judgment has been assigned.
func (n *Note) IsJudged() bool {
	return n.Judgment != nil
}

// YAt returns the fall-axis coordinate of the note center at track time t for
// a judgment line at lineY.
func (n *Note) YAt(t time.Duration, lineY float64) float64 {
	return lineY - core.Millis(n.Timing-t)*n.Speed
}

// PositionAt returns the note center at track time t.
func (n *Note) PositionAt(t time.Duration, lineY float64) core.Vec2 {
	return core.Vec2{X: n.Position.X, Y: n.YAt(t, lineY)}
}

// Bounds returns the note's bounding box at its current position.
func (n *Note) Bounds() core.AABB {
	return n.Shape.Bounds(n.Position)
}
