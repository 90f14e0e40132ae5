// Package scheduler runs prioritized per-frame tasks under a frame budget,
// shedding low-priority work when the frame rate drops and propagating a
// quality level to every quality-aware task.
package scheduler

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/vovakirdan/notefall/internal/core"
)

var (
	// ErrHalted is returned by Tick once the error ceiling has been exceeded.
	ErrHalted = errors.New("scheduler: halted after too many task errors")
	// ErrDuplicateTask is returned when registering a name twice.
	ErrDuplicateTask = errors.New("scheduler: duplicate task name")
)

// Sample is one performance measurement, emitted every PerfInterval.
type Sample struct {
	FPS       float64
	FrameTime time.Duration
	Quality   float64
}

// Config controls the scheduler's budget and fail-safe.
type Config struct {
	TargetFPS    int
	MinFPS       int
	MaxErrors    int           // Task errors tolerated before halting
	PerfWindow   int           // Frames in the rolling FPS average
	PerfInterval time.Duration // How often quality is recomputed
	MaxFrameSkip int
	Clock        core.Clock // Track time; frame deltas and intervals
	CostClock    core.Clock // Times task bodies; defaults to a SystemClock
	Logger       *log.Logger
	OnSample     func(Sample)
}

// DefaultConfig returns the stock scheduler settings.
func DefaultConfig() Config {
	return Config{
		TargetFPS:    60,
		MinFPS:       30,
		MaxErrors:    10,
		PerfWindow:   60,
		PerfInterval: time.Second,
		MaxFrameSkip: 4,
	}
}

// defaultMaxConsecutiveSkips applies to tasks registered without a cap.
const defaultMaxConsecutiveSkips = 3

// Scheduler is a single-threaded cooperative task runner. Tick is called once
// per host frame; it is not safe for concurrent use.
type Scheduler struct {
	cfg       Config
	clock     core.Clock
	costClock core.Clock
	logger    *log.Logger
	budget    time.Duration

	tasks  []*entry
	byName map[string]*entry

	started  bool
	halted   bool
	frame    uint64
	last     time.Duration
	lastPerf time.Duration

	frameTimes []time.Duration // Ring of recent frame deltas
	ftPos      int
	ftLen      int

	frameSkip int
	errors    int
	quality   float64
	avgFPS    float64
}

// New creates a scheduler. Zero fields in cfg take DefaultConfig values.
func New(cfg Config) *Scheduler {
	def := DefaultConfig()
	if cfg.TargetFPS <= 0 {
		cfg.TargetFPS = def.TargetFPS
	}
	if cfg.MinFPS <= 0 || cfg.MinFPS > cfg.TargetFPS {
		cfg.MinFPS = min(def.MinFPS, cfg.TargetFPS)
	}
	if cfg.MaxErrors <= 0 {
		cfg.MaxErrors = def.MaxErrors
	}
	if cfg.PerfWindow <= 0 {
		cfg.PerfWindow = def.PerfWindow
	}
	if cfg.PerfInterval <= 0 {
		cfg.PerfInterval = def.PerfInterval
	}
	if cfg.MaxFrameSkip < 0 {
		cfg.MaxFrameSkip = 0
	}
	clock := cfg.Clock
	if clock == nil {
		clock = core.NewSystemClock()
	}
	costClock := cfg.CostClock
	if costClock == nil {
		costClock = core.NewSystemClock()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}

	return &Scheduler{
		cfg:        cfg,
		clock:      clock,
		costClock:  costClock,
		logger:     logger,
		budget:     time.Second / time.Duration(cfg.TargetFPS),
		byName:     make(map[string]*entry),
		frameTimes: make([]time.Duration, cfg.PerfWindow),
		quality:    1,
		avgFPS:     float64(cfg.TargetFPS),
	}
}

// Budget returns the per-frame time budget.
func (s *Scheduler) Budget() time.Duration {
	return s.budget
}

// Register adds a task. Tasks must be registered before the first Tick; within
// a priority tier they run in registration order.
func (s *Scheduler) Register(t Task) error {
	if t.Name == "" {
		return errors.New("scheduler: task name is required")
	}
	if t.Run == nil {
		return fmt.Errorf("scheduler: task %q has no run function", t.Name)
	}
	if t.Priority > Low {
		return fmt.Errorf("scheduler: task %q has unknown priority %d", t.Name, t.Priority)
	}
	if s.started {
		return fmt.Errorf("scheduler: task %q registered after the first tick", t.Name)
	}
	if _, exists := s.byName[t.Name]; exists {
		return fmt.Errorf("%w: %q", ErrDuplicateTask, t.Name)
	}
	if t.MaxConsecutiveSkips <= 0 {
		t.MaxConsecutiveSkips = defaultMaxConsecutiveSkips
	}

	e := &entry{Task: t, quality: 1}
	s.tasks = append(s.tasks, e)
	s.byName[t.Name] = e
	return nil
}

// Tick runs one frame: High tasks, then Medium and Low tasks if the frame is
// not being skipped, then the periodic quality update.
func (s *Scheduler) Tick() error {
	if s.halted {
		return ErrHalted
	}

	now := s.clock.Now()
	delta := s.budget
	if s.started {
		delta = now - s.last
	} else {
		s.started = true
		s.lastPerf = now
	}
	s.last = now
	s.frame++
	s.recordFrame(delta)

	f := Frame{Number: s.frame, Now: now, Delta: delta, Quality: s.quality}

	for _, e := range s.tasks {
		e.state = StateIdle
	}

	if !s.runTier(High, f) {
		return ErrHalted
	}

	s.adjustFrameSkip()
	if s.frame%uint64(s.frameSkip+1) == 0 {
		if !s.runTier(Medium, f) || !s.runTier(Low, f) {
			return ErrHalted
		}
	} else {
		s.skipTier(Medium, now)
		s.skipTier(Low, now)
	}

	if now-s.lastPerf >= s.cfg.PerfInterval {
		s.lastPerf = now
		s.updateQuality()
	}
	return nil
}

// runTier runs every due task of one priority. It returns false if the
// scheduler halted part way through.
func (s *Scheduler) runTier(p Priority, f Frame) bool {
	for _, e := range s.tasks {
		if e.Priority != p || !e.due(f.Now) {
			continue
		}
		e.state = StateDue

		if p != High && e.pending > 0 && e.consecutive < e.MaxConsecutiveSkips {
			e.pending--
			e.consecutive++
			e.skips++
			e.state = StateSkipped
			continue
		}
		e.consecutive = 0
		e.pending = 0

		s.execute(e, f)
		if s.halted {
			return false
		}
	}
	return true
}

// skipTier marks due tasks of a tier as skipped for a shed frame.
func (s *Scheduler) skipTier(p Priority, now time.Duration) {
	for _, e := range s.tasks {
		if e.Priority == p && e.due(now) {
			e.skips++
			e.state = StateSkipped
		}
	}
}

// execute runs one task inside timing and a fault boundary.
func (s *Scheduler) execute(e *entry, f Frame) {
	e.state = StateExecuting
	start := s.costClock.Now()
	err := safeRun(e, f)
	dur := s.costClock.Now() - start

	e.runs++
	e.lastRun = f.Now
	e.hasRun = true
	e.lastDur = dur
	e.total += dur
	if dur > e.maxDur {
		e.maxDur = dur
	}

	if err != nil {
		e.state = StateFaulted
		e.faults++
		e.lastErr = err
		e.skipCounter++
		e.pending = e.skipCounter
		s.errors++
		s.logger.Error("task failed", "task", e.Name, "errors", s.errors, "err", err)
		if s.errors > s.cfg.MaxErrors {
			s.halted = true
			s.logger.Error("scheduler halted", "errors", s.errors, "max_errors", s.cfg.MaxErrors)
		}
		return
	}

	e.state = StateCompleted
	switch {
	case dur > s.budget/2:
		e.skipCounter++
		e.pending = e.skipCounter
		s.logger.Debug("task over budget", "task", e.Name, "took", dur, "budget", s.budget, "skip", e.skipCounter)
	case dur < s.budget/4 && e.skipCounter > 0:
		e.skipCounter--
	}
}

// safeRun converts a panicking task into a TaskPanicError.
func safeRun(e *entry, f Frame) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &TaskPanicError{Task: e.Name, Value: r}
		}
	}()
	return e.Run(f)
}

func (s *Scheduler) recordFrame(delta time.Duration) {
	s.frameTimes[s.ftPos] = delta
	s.ftPos = (s.ftPos + 1) % len(s.frameTimes)
	if s.ftLen < len(s.frameTimes) {
		s.ftLen++
	}

	var sum time.Duration
	for i := 0; i < s.ftLen; i++ {
		sum += s.frameTimes[i]
	}
	if sum <= 0 {
		s.avgFPS = float64(s.cfg.TargetFPS)
		return
	}
	s.avgFPS = float64(s.ftLen) / sum.Seconds()
}

// adjustFrameSkip grows the frame-skip counter below MinFPS and shrinks it at
// or above TargetFPS.
func (s *Scheduler) adjustFrameSkip() {
	switch {
	case s.avgFPS < float64(s.cfg.MinFPS):
		if s.frameSkip < s.cfg.MaxFrameSkip {
			s.frameSkip++
			s.logger.Debug("frame skip raised", "skip", s.frameSkip, "fps", s.avgFPS)
		}
	case s.avgFPS >= float64(s.cfg.TargetFPS):
		if s.frameSkip > 0 {
			s.frameSkip--
		}
	}
}

// Score maps an average frame rate onto [0, 1] between MinFPS and TargetFPS.
func Score(avg float64, minFPS, targetFPS int) float64 {
	if targetFPS <= minFPS {
		if avg >= float64(targetFPS) {
			return 1
		}
		return 0
	}
	return core.ClampF((avg-float64(minFPS))/float64(targetFPS-minFPS), 0, 1)
}

// QualityFor maps a performance score onto a quality level in [0.1, 1].
func QualityFor(score float64) float64 {
	return 0.1 + 0.9*core.ClampF(score, 0, 1)
}

func (s *Scheduler) updateQuality() {
	q := QualityFor(Score(s.avgFPS, s.cfg.MinFPS, s.cfg.TargetFPS))
	if q != s.quality {
		s.logger.Debug("quality changed", "from", s.quality, "to", q, "fps", s.avgFPS)
	}
	s.quality = q

	for _, e := range s.tasks {
		e.quality = q
		if e.OnQuality != nil {
			e.OnQuality(q)
		}
	}
	if s.cfg.OnSample != nil {
		var ft time.Duration
		if s.avgFPS > 0 {
			ft = time.Duration(float64(time.Second) / s.avgFPS)
		}
		s.cfg.OnSample(Sample{FPS: s.avgFPS, FrameTime: ft, Quality: q})
	}
}

// Stats returns the bookkeeping of a named task.
func (s *Scheduler) Stats(name string) (TaskStats, bool) {
	e, ok := s.byName[name]
	if !ok {
		return TaskStats{}, false
	}
	return e.stats(), true
}

// AllStats returns every task's bookkeeping in registration order.
func (s *Scheduler) AllStats() []TaskStats {
	out := make([]TaskStats, len(s.tasks))
	for i, e := range s.tasks {
		out[i] = e.stats()
	}
	return out
}

// Quality returns the last propagated quality level.
func (s *Scheduler) Quality() float64 { return s.quality }

// AverageFPS returns the rolling average frame rate.
func (s *Scheduler) AverageFPS() float64 { return s.avgFPS }

// FrameSkip returns the current frame-skip counter.
func (s *Scheduler) FrameSkip() int { return s.frameSkip }

// Errors returns the global task error tally.
func (s *Scheduler) Errors() int { return s.errors }

// Halted reports whether the error ceiling has been exceeded.
func (s *Scheduler) Halted() bool { return s.halted }

// Frames returns the number of ticks run.
func (s *Scheduler) Frames() uint64 { return s.frame }
