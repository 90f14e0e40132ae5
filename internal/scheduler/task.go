package scheduler

import (
	"fmt"
	"time"
)

// Priority orders tasks within a frame. High tasks run every frame they are
// due; Medium and Low tasks are shed first when the frame rate drops.
type Priority uint8

const (
	High Priority = iota
	Medium
	Low
)

// String returns a human-readable name for the priority.
func (p Priority) String() string {
	switch p {
	case High:
		return "high"
	case Medium:
		return "medium"
	case Low:
		return "low"
	default:
		return "unknown"
	}
}

// State is where a task is in its per-frame cycle. Every cycle starts again
// from Idle.
type State uint8

const (
	StateIdle State = iota
	StateDue
	StateExecuting
	StateCompleted
	StateSkipped
	StateFaulted
)

// String returns a human-readable name for the state.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateDue:
		return "due"
	case StateExecuting:
		return "executing"
	case StateCompleted:
		return "completed"
	case StateSkipped:
		return "skipped"
	case StateFaulted:
		return "faulted"
	default:
		return "unknown"
	}
}

// Frame is passed to every task run.
type Frame struct {
	Number  uint64
	Now     time.Duration // Clock reading at the start of the tick
	Delta   time.Duration // Elapsed since the previous tick
	Quality float64       // Last propagated quality level
}

// Task is a unit of per-frame work.
type Task struct {
	Name     string
	Priority Priority
	// Interval is the minimum time between runs; zero runs every frame.
	Interval time.Duration
	// MaxConsecutiveSkips caps how many cycles in a row backoff may skip.
	MaxConsecutiveSkips int

	Run func(Frame) error
	// OnQuality, if set, receives every propagated quality level.
	OnQuality func(float64)
}

// TaskStats is a snapshot of one task's bookkeeping.
type TaskStats struct {
	Name             string
	Priority         Priority
	State            State // State reached in the most recent frame
	Runs             int
	Skips            int // Cycles skipped by backoff or frame skipping
	Faults           int
	SkipCounter      int // Current backoff level
	ConsecutiveSkips int // Backoff skips since the last run
	LastDuration     time.Duration
	AvgDuration      time.Duration
	MaxDuration      time.Duration
	Quality          float64 // Last quality pushed to the task
	LastErr          error
}

// TaskPanicError wraps a panic recovered from a task body.
type TaskPanicError struct {
	Task  string
	Value any
}

func (e *TaskPanicError) Error() string {
	return fmt.Sprintf("scheduler: task %q panicked: %v", e.Task, e.Value)
}

// entry is the scheduler's internal record for a registered task.
type entry struct {
	Task

	state       State
	lastRun     time.Duration
	hasRun      bool
	skipCounter int
	pending     int // Backoff cycles still to skip
	consecutive int // Cycles skipped in a row

	runs, skips, faults    int
	lastDur, maxDur, total time.Duration
	quality                float64
	lastErr                error
}

func (e *entry) stats() TaskStats {
	st := TaskStats{
		Name:             e.Name,
		Priority:         e.Priority,
		State:            e.state,
		Runs:             e.runs,
		Skips:            e.skips,
		Faults:           e.faults,
		SkipCounter:      e.skipCounter,
		ConsecutiveSkips: e.consecutive,
		LastDuration:     e.lastDur,
		MaxDuration:      e.maxDur,
		Quality:          e.quality,
		LastErr:          e.lastErr,
	}
	if e.runs > 0 {
		st.AvgDuration = e.total / time.Duration(e.runs)
	}
	return st
}

// due reports whether the task's interval has elapsed at now.
func (e *entry) due(now time.Duration) bool {
	return e.Interval <= 0 || !e.hasRun || now-e.lastRun >= e.Interval
}
