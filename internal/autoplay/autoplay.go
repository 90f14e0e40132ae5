// Package autoplay is a scripted player for headless engine runs. It watches
// the detector's one-frame lookahead and taps each note it decides to take
// near the note's arrival, with seeded timing error and skill.
package autoplay

import (
	"context"
	"errors"
	"io"
	"math/rand"
	"sort"
	"time"

	"github.com/charmbracelet/log"

	"github.com/vovakirdan/notefall/internal/core"
	"github.com/vovakirdan/notefall/internal/engine"
	"github.com/vovakirdan/notefall/internal/note"
)

// ErrBadStep is returned by Run for a non-positive frame step.
var ErrBadStep = errors.New("autoplay: frame step must be positive")

// Config controls the player's skill.
type Config struct {
	Accuracy float64       // Chance in [0, 1] that a note is played at all
	Jitter   time.Duration // Max timing error either side of arrival
	Seed     int64
	Logger   *log.Logger
}

// Attempt is one planned tap.
type Attempt struct {
	NoteID uint64
	Lane   int
	At     time.Duration
}

// Stats counts the player's decisions.
type Stats struct {
	Seen     int // Notes that entered the lookahead
	Skipped  int // Notes deliberately left to miss
	Attempts int
	Landed   int // Attempts that produced a judgment
	Judged   map[note.JudgmentType]int
}

// Player plans taps from detector lookahead. It is not safe for concurrent
// use.
type Player struct {
	cfg     Config
	rng     *rand.Rand
	decided map[uint64]bool // Note ids already planned or skipped
	pending []Attempt
	stats   Stats
	logger  *log.Logger
}

// New creates a player. Accuracy is clamped into [0, 1] and a negative jitter
// is treated as zero.
func New(cfg Config) *Player {
	cfg.Accuracy = core.ClampF(cfg.Accuracy, 0, 1)
	if cfg.Jitter < 0 {
		cfg.Jitter = 0
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Player{
		cfg:     cfg,
		rng:     rand.New(rand.NewSource(cfg.Seed)),
		decided: make(map[uint64]bool),
		stats:   Stats{Judged: make(map[note.JudgmentType]int)},
		logger:  logger,
	}
}

// Stats returns a copy of the decision counters.
func (p *Player) Stats() Stats {
	s := p.stats
	s.Judged = make(map[note.JudgmentType]int, len(p.stats.Judged))
	for k, v := range p.stats.Judged {
		s.Judged[k] = v
	}
	return s
}

// Pending returns the planned taps that have not fired yet.
func (p *Player) Pending() []Attempt {
	return append([]Attempt(nil), p.pending...)
}

// Plan looks at every note that overlaps a judgment zone now or within the
// next dt and decides, once per note, whether and when to tap it.
func (p *Player) Plan(e *engine.Engine, now, dt time.Duration) {
	det := e.Detector()
	for id := range p.decided {
		if _, ok := det.Get(id); !ok {
			delete(p.decided, id)
		}
	}

	for _, c := range det.Query(now, dt) {
		id := c.Note.ID
		if p.decided[id] {
			continue
		}
		p.decided[id] = true
		p.stats.Seen++

		if p.rng.Float64() >= p.cfg.Accuracy {
			p.stats.Skipped++
			continue
		}
		at := c.Note.Timing + p.jitter()
		p.pending = append(p.pending, Attempt{NoteID: id, Lane: c.Note.Lane, At: max(0, at)})
	}

	sort.SliceStable(p.pending, func(i, j int) bool {
		return p.pending[i].At < p.pending[j].At
	})
}

func (p *Player) jitter() time.Duration {
	if p.cfg.Jitter == 0 {
		return 0
	}
	return time.Duration(p.rng.Int63n(int64(2*p.cfg.Jitter)+1)) - p.cfg.Jitter
}

// Fire submits every planned tap due at or before now, with its own
// timestamp.
func (p *Player) Fire(e *engine.Engine, now time.Duration) {
	n := 0
	for n < len(p.pending) && p.pending[n].At <= now {
		a := p.pending[n]
		n++
		p.stats.Attempts++
		res := e.OnHitAttempt(a.Lane, core.Millis(a.At))
		if res == nil {
			p.logger.Debug("tap landed on nothing", "note", a.NoteID, "lane", a.Lane, "at", a.At)
			continue
		}
		p.stats.Landed++
		p.stats.Judged[res.Type]++
	}
	p.pending = append(p.pending[:0], p.pending[n:]...)
}

// Run drives frames on clock every step until duration has elapsed, planning
// and firing taps after each frame. The engine must be started.
func (p *Player) Run(ctx context.Context, e *engine.Engine, clock *core.ManualClock, duration, step time.Duration) error {
	if step <= 0 {
		return ErrBadStep
	}
	end := clock.Now() + duration
	for clock.Now() <= end {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := e.Frame(); err != nil {
			return err
		}
		now := clock.Now()
		p.Plan(e, now, step)
		p.Fire(e, now)
		clock.Advance(step)
	}
	return nil
}
