package engine

import (
	"time"

	"github.com/vovakirdan/notefall/internal/note"
)

// JudgmentResult is returned by a hit attempt that lands on a note.
type JudgmentResult struct {
	NoteID     uint64
	Lane       int
	Type       note.JudgmentType
	Depth      float64
	ScoreDelta int
	At         time.Duration
}

// Stats are the session counters.
type Stats struct {
	Score    int
	Combo    int
	MaxCombo int
	Counts   map[note.JudgmentType]int // Judged notes per grade, misses included

	Spawned   int // Notes made Active
	Active    int // Notes currently Active
	Whiffs    int // Hit attempts that landed on nothing
	Dropped   int // Generator proposals removed by the density floor
	Thinned   int // Generator proposals removed by quality thinning
	Rejected  int // Generator proposals refused by a ceiling
	Exhausted int // Accepted spawns lost to pool exhaustion

	MinQuality float64
}

// Judged returns the number of notes judged so far.
func (s Stats) Judged() int {
	n := 0
	for _, c := range s.Counts {
		n += c
	}
	return n
}

// Accuracy returns the weighted hit accuracy in [0, 1]: each judged note
// counts its score delta against a perfect score. It is 1 before any note
// is judged.
func (s Stats) Accuracy() float64 {
	judged := s.Judged()
	if judged == 0 {
		return 1
	}
	earned := 0
	for jt, c := range s.Counts {
		earned += jt.ScoreDelta() * c
	}
	return float64(earned) / float64(judged*note.Perfect.ScoreDelta())
}

func (s *Stats) record(jt note.JudgmentType) {
	s.Counts[jt]++
	s.Score += jt.ScoreDelta()
	if jt.BreaksCombo() {
		s.Combo = 0
		return
	}
	s.Combo++
	if s.Combo > s.MaxCombo {
		s.MaxCombo = s.Combo
	}
}

func (s Stats) clone() Stats {
	c := s
	c.Counts = make(map[note.JudgmentType]int, len(s.Counts))
	for k, v := range s.Counts {
		c.Counts[k] = v
	}
	return c
}

func newStats() Stats {
	return Stats{Counts: make(map[note.JudgmentType]int), MinQuality: 1}
}
