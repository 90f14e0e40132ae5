package engine

import (
	"math"
	"time"

	"github.com/vovakirdan/notefall/internal/core"
	"github.com/vovakirdan/notefall/internal/generator"
	"github.com/vovakirdan/notefall/internal/note"
	"github.com/vovakirdan/notefall/internal/scheduler"
)

// judgeTask repositions every tracked note, records which notes can be hit
// before the next frame, judges notes that slipped past the loosest band as
// misses and releases notes that left the field.
func (e *Engine) judgeTask(f scheduler.Frame) error {
	e.detector.Advance(f.Now)

	clear(e.inZone)
	for _, c := range e.detector.Query(f.Now, f.Delta) {
		e.inZone[c.Note.ID] = true
	}

	for _, n := range e.detector.Expired(f.Now) {
		e.miss(n, f.Now)
	}
	for _, n := range e.detector.Exited(f.Now) {
		if n.State == note.StateActive {
			e.miss(n, f.Now)
		}
		e.release(n)
	}
	return nil
}

// miss judges an active note a miss. A note already judged is left alone,
// so each note is missed at most once.
func (e *Engine) miss(n *note.Note, now time.Duration) {
	lineY := e.cfg.Spatial.LineY
	depth := math.Abs(n.YAt(now, lineY) - lineY)
	if !n.Judge(note.Judgment{Type: note.Miss, Depth: depth, At: now}) {
		return
	}
	e.active--
	e.stats.record(note.Miss)
	e.gen.RecordOutcome(false)
	e.emit(Event{Type: EventNoteMissed, At: now, Note: viewOf(n), Judgment: note.Miss})
}

// spawnTask asks the generator for due notes and activates each accepted
// spawn with a pooled note.
func (e *Engine) spawnTask(f scheduler.Frame) error {
	res := e.gen.Generate(generator.Request{
		Now:        f.Now,
		Difficulty: e.diff.Level(),
		Strategy:   e.strategy,
		Pattern:    e.pattern,
		Active:     e.active,
	})
	e.stats.Dropped += res.Dropped
	e.stats.Thinned += res.Thinned
	e.stats.Rejected += res.Rejected

	// Acquire only fails once the pool is at its ceiling and nothing is
	// released mid-loop, so the lost spawns are always the tail of res.Spawns.
	lost := 0
	for _, s := range res.Spawns {
		n, ok := e.pool.Acquire()
		if !ok {
			lost++
			continue
		}
		e.activate(n, s, f.Now)
	}
	if lost > 0 {
		e.gen.Unaccept(lost)
		e.stats.Exhausted += lost
		e.logger.Warn("note pool exhausted",
			"lost", lost,
			"active", e.active,
			"pool_max", e.pool.MaxSize(),
		)
	}
	return nil
}

func (e *Engine) activate(n *note.Note, s generator.Spawn, now time.Duration) {
	e.nextID++
	speed := e.cfg.Notes.Speed

	n.ID = e.nextID
	n.Lane = s.Lane
	n.Timing = s.Timing
	n.Speed = speed
	n.Velocity = core.V(0, speed)
	n.Shape = e.shape
	n.Subtype = s.Subtype
	n.HoldFor = s.HoldFor
	n.Position = core.V(e.detector.LaneCenter(s.Lane), n.YAt(now, e.cfg.Spatial.LineY))
	n.Advance(note.StateActive)

	e.detector.Insert(n)
	e.active++
	e.stats.Spawned++
	e.emit(Event{Type: EventNoteSpawned, At: now, Note: viewOf(n)})
}

// uiSyncTask publishes a snapshot of the tracked notes.
func (e *Engine) uiSyncTask(f scheduler.Frame) error {
	if len(e.subs) == 0 {
		return nil
	}
	e.emit(Event{Type: EventSnapshotReady, At: f.Now, Snapshot: e.Snapshot()})
	return nil
}

// difficultyTask derives a performance signal from the session counters.
func (e *Engine) difficultyTask(scheduler.Frame) error {
	if e.stats.Judged() == 0 {
		return nil
	}
	e.diff.Signal(e.stats.Score, e.stats.Combo, e.stats.Accuracy())
	return nil
}

// poolTask gives the pool a chance to run its own, slower, maintenance sweep.
func (e *Engine) poolTask(scheduler.Frame) error {
	e.pool.Maintain()
	return nil
}
