package note

import "time"

// JudgmentType is the discrete grade of a hit.
type JudgmentType uint8

const (
	Perfect JudgmentType = iota
	Great
	Good
	Bad
	Miss
)

// JudgmentTypes lists every grade from best to worst.
var JudgmentTypes = []JudgmentType{Perfect, Great, Good, Bad, Miss}

// String returns the display name for the grade.
func (j JudgmentType) String() string {
	switch j {
	case Perfect:
		return "perfect"
	case Great:
		return "great"
	case Good:
		return "good"
	case Bad:
		return "bad"
	case Miss:
		return "miss"
	default:
		return "unknown"
	}
}

// ScoreDelta returns the base points awarded for the grade.
func (j JudgmentType) ScoreDelta() int {
	switch j {
	case Perfect:
		return 300
	case Great:
		return 200
	case Good:
		return 100
	case Bad:
		return 50
	default:
		return 0
	}
}

// BreaksCombo reports whether the grade resets the combo counter.
func (j JudgmentType) BreaksCombo() bool {
	return j == Bad || j == Miss
}

// Judgment is the result attached to a note once it is judged.
type Judgment struct {
	Type  JudgmentType
	Depth float64       // Distance from the judgment line along the fall axis
	At    time.Duration // Track time of the hit or of miss detection
}

// Bands are the nested tolerance bands, tightest first. Each value is an
// inclusive upper bound on judgment depth.
type Bands struct {
	Perfect float64 `yaml:"perfect"`
	Great   float64 `yaml:"great"`
	Good    float64 `yaml:"good"`
	Bad     float64 `yaml:"bad"`
}

// DefaultBands returns the default tolerances in play-field units. At the
// default speed of one unit per millisecond they read as milliseconds.
func DefaultBands() Bands {
	return Bands{Perfect: 22, Great: 45, Good: 90, Bad: 135}
}

// Classify maps a depth onto a band. A depth beyond the loosest band yields
// no judgment and ok is false.
func (b Bands) Classify(depth float64) (JudgmentType, bool) {
	if depth < 0 {
		depth = -depth
	}
	switch {
	case depth <= b.Perfect:
		return Perfect, true
	case depth <= b.Great:
		return Great, true
	case depth <= b.Good:
		return Good, true
	case depth <= b.Bad:
		return Bad, true
	default:
		return Miss, false
	}
}

// Loosest returns the widest tolerance.
func (b Bands) Loosest() float64 {
	return b.Bad
}

// Normalize forces the bands to be non-negative and non-decreasing.
func (b Bands) Normalize() Bands {
	if b.Perfect < 0 {
		b.Perfect = 0
	}
	if b.Great < b.Perfect {
		b.Great = b.Perfect
	}
	if b.Good < b.Great {
		b.Good = b.Great
	}
	if b.Bad < b.Good {
		b.Bad = b.Good
	}
	return b
}
