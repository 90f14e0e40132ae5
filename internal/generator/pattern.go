// Package generator produces timed note-spawn descriptors from rhythm
// patterns, density ceilings and the live difficulty scalar.
package generator

import (
	"errors"
	"fmt"
	"time"
)

// Step is one entry of a pattern: a lane and the gap to the following step.
type Step struct {
	Lane     int           `yaml:"lane"`
	Interval time.Duration `yaml:"interval"`
}

// Pattern is a static rhythm template. Lanes are written for a four-lane
// track and wrap on narrower ones. Patterns are read-only once registered.
type Pattern struct {
	Name           string  `yaml:"name"`
	Title          string  `yaml:"title"`
	BaseDifficulty float64 `yaml:"base_difficulty"` // Difficulty the intervals are written for
	Steps          []Step  `yaml:"steps"`
}

// Duration returns the length of one full pass over the pattern.
func (p Pattern) Duration() time.Duration {
	var d time.Duration
	for _, s := range p.Steps {
		d += s.Interval
	}
	return d
}

// Validate reports structural problems with the pattern.
func (p Pattern) Validate() error {
	if p.Name == "" {
		return errors.New("pattern: name is required")
	}
	if len(p.Steps) == 0 {
		return fmt.Errorf("pattern %q: no steps", p.Name)
	}
	if p.BaseDifficulty < 0 || p.BaseDifficulty > 1 {
		return fmt.Errorf("pattern %q: difficulty %v outside [0, 1]", p.Name, p.BaseDifficulty)
	}
	for i, s := range p.Steps {
		if s.Lane < 0 {
			return fmt.Errorf("pattern %q: step %d has negative lane %d", p.Name, i, s.Lane)
		}
		if s.Interval <= 0 {
			return fmt.Errorf("pattern %q: step %d has non-positive interval", p.Name, i)
		}
	}
	return nil
}

// steps builds a step list from lanes sharing one interval.
func steps(interval time.Duration, lanes ...int) []Step {
	out := make([]Step, len(lanes))
	for i, l := range lanes {
		out[i] = Step{Lane: l, Interval: interval}
	}
	return out
}

// builtinPatterns returns the patterns shipped with the engine.
func builtinPatterns() []Pattern {
	ms := time.Millisecond
	return []Pattern{
		{
			Name:           "stream",
			Title:          "Stream",
			BaseDifficulty: 0.5,
			Steps:          steps(125*ms, 0, 1, 2, 3, 2, 1),
		},
		{
			Name:           "stairs",
			Title:          "Stairs",
			BaseDifficulty: 0.2,
			Steps:          steps(150*ms, 0, 1, 2, 3),
		},
		{
			Name:           "trill",
			Title:          "Trill",
			BaseDifficulty: 0.6,
			Steps:          steps(120*ms, 1, 2, 1, 2, 0, 3, 0, 3),
		},
		{
			Name:           "jacks",
			Title:          "Jacks",
			BaseDifficulty: 0.7,
			Steps:          steps(150*ms, 1, 1, 2, 2, 0, 0, 3, 3),
		},
		{
			Name:           "gallop",
			Title:          "Gallop",
			BaseDifficulty: 0.4,
			Steps: []Step{
				{Lane: 0, Interval: 100 * ms},
				{Lane: 1, Interval: 300 * ms},
				{Lane: 2, Interval: 100 * ms},
				{Lane: 3, Interval: 300 * ms},
			},
		},
	}
}
