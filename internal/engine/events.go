package engine

import (
	"time"

	"github.com/vovakirdan/notefall/internal/note"
	"github.com/vovakirdan/notefall/internal/scheduler"
)

// EventType represents the type of engine event.
type EventType int

const (
	// EventNoteSpawned is emitted when a generated note becomes Active.
	// Payload: Note.
	EventNoteSpawned EventType = iota

	// EventNoteJudged is emitted when a hit attempt lands on a note.
	// Payload: Note, Judgment, ScoreDelta.
	EventNoteJudged

	// EventNoteMissed is emitted exactly once for a note that crossed the
	// judgment line without being hit.
	// Payload: Note.
	EventNoteMissed

	// EventPerformanceSample is emitted every scheduler performance interval.
	// Payload: Sample.
	EventPerformanceSample

	// EventSnapshotReady is emitted by the ui-sync task.
	// Payload: Snapshot.
	EventSnapshotReady
)

// String returns a human-readable name for the event type.
func (t EventType) String() string {
	switch t {
	case EventNoteSpawned:
		return "NoteSpawned"
	case EventNoteJudged:
		return "NoteJudged"
	case EventNoteMissed:
		return "NoteMissed"
	case EventPerformanceSample:
		return "PerformanceSample"
	case EventSnapshotReady:
		return "SnapshotReady"
	default:
		return "Unknown"
	}
}

// Event is a single engine event. Only the fields documented for its Type
// are set.
type Event struct {
	Type  EventType
	Frame uint64        // Scheduler frame that produced the event
	At    time.Duration // Track time

	Note       NoteView
	Judgment   note.JudgmentType
	ScoreDelta int
	Sample     scheduler.Sample
	Snapshot   []NoteView
}

// NoteView is a copy of a note's public state, safe to keep after the note
// has been returned to the pool.
type NoteView struct {
	ID       uint64
	Lane     int
	Timing   time.Duration
	X, Y     float64
	Subtype  note.Subtype
	HoldFor  time.Duration
	State    note.State
	InZone   bool // Hittable at the last judge pass, or entering within a frame
	Judged   bool
	Judgment note.Judgment
}

func viewOf(n *note.Note) NoteView {
	v := NoteView{
		ID:      n.ID,
		Lane:    n.Lane,
		Timing:  n.Timing,
		X:       n.Position.X,
		Y:       n.Position.Y,
		Subtype: n.Subtype,
		HoldFor: n.HoldFor,
		State:   n.State,
	}
	if n.Judgment != nil {
		v.Judged = true
		v.Judgment = *n.Judgment
	}
	return v
}

// Subscribe registers a handler for every engine event. Handlers run
// synchronously on the engine goroutine and must not call back into the
// engine.
func (e *Engine) Subscribe(fn func(Event)) {
	if fn == nil {
		return
	}
	e.subs = append(e.subs, fn)
}

func (e *Engine) emit(ev Event) {
	if len(e.subs) == 0 {
		return
	}
	ev.Frame = e.sched.Frames()
	for _, fn := range e.subs {
		fn(ev)
	}
}
