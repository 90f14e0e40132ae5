// Package engine wires the note pool, spatial detector, generator, difficulty
// controller and frame scheduler into one rhythm-game core. It receives hit
// intents and host frames and emits judgment events; it renders nothing and
// stores nothing.
package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"

	"github.com/vovakirdan/notefall/internal/config"
	"github.com/vovakirdan/notefall/internal/core"
	"github.com/vovakirdan/notefall/internal/difficulty"
	"github.com/vovakirdan/notefall/internal/generator"
	"github.com/vovakirdan/notefall/internal/note"
	"github.com/vovakirdan/notefall/internal/pool"
	"github.com/vovakirdan/notefall/internal/scheduler"
	"github.com/vovakirdan/notefall/internal/spatial"
)

var (
	// ErrNotInitialized is returned before Initialize has succeeded.
	ErrNotInitialized = errors.New("engine: not initialized")
	// ErrAlreadyRunning is returned by Start and Run on a running engine,
	// and by Initialize while it runs.
	ErrAlreadyRunning = errors.New("engine: already running")
	// ErrNotRunning is returned by Frame before Start, and by Submit outside Run.
	ErrNotRunning = errors.New("engine: not running")
)

// Task names registered with the scheduler.
const (
	TaskJudge           = "judge"
	TaskSpawn           = "spawn"
	TaskUISync          = "ui-sync"
	TaskDifficulty      = "difficulty"
	TaskPoolMaintenance = "pool-maintenance"
)

// Option configures an Engine.
type Option func(*Engine)

// WithClock sets the track clock. The default is a SystemClock started at
// construction.
func WithClock(c core.Clock) Option {
	return func(e *Engine) { e.clock = c }
}

// WithCostClock sets the clock task bodies are timed with. The default is a
// SystemClock, so a host stepping the track clock by hand still gets real
// task costs.
func WithCostClock(c core.Clock) Option {
	return func(e *Engine) { e.costClock = c }
}

// WithLogger sets the logger.
func WithLogger(l *log.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// WithCatalog sets the pattern catalog used by the sequential strategy.
func WithCatalog(c *generator.Catalog) Option {
	return func(e *Engine) { e.catalog = c }
}

// WithFrameSource sets the frame source Run ticks from. The default ticks at
// the configured target FPS.
func WithFrameSource(fs FrameSource) Option {
	return func(e *Engine) { e.frames = fs }
}

// hitIntent is a hit attempt submitted from outside the engine goroutine.
type hitIntent struct {
	lane  int
	ms    float64
	reply chan *JudgmentResult
}

// Engine is the rhythm-game core. All game state is owned by the goroutine
// that calls Frame and OnHitAttempt; other goroutines go through Submit.
type Engine struct {
	cfg       config.EngineConfig
	clock     core.Clock
	costClock core.Clock
	logger    *log.Logger
	catalog   *generator.Catalog
	frames    FrameSource

	pool     *pool.Pool[note.Note]
	detector *spatial.Detector
	gen      *generator.Generator
	diff     *difficulty.Controller
	sched    *scheduler.Scheduler

	strategy generator.Strategy
	pattern  string
	shape    note.Shape

	nextID uint64
	active int
	inZone map[uint64]bool // Set by the judge task from the detector lookahead
	stats  Stats
	subs   []func(Event)

	initialized bool
	running     atomic.Bool
	mu          sync.Mutex // Guards cancel
	cancel      context.CancelFunc
	intents     chan hitIntent
}

// New creates an engine. Initialize must be called before use.
func New(cfg config.EngineConfig, opts ...Option) *Engine {
	e := &Engine{
		cfg:     cfg,
		intents: make(chan hitIntent),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.clock == nil {
		e.clock = core.NewSystemClock()
	}
	if e.logger == nil {
		e.logger = log.New(io.Discard)
	}
	if e.catalog == nil {
		e.catalog = generator.DefaultCatalog()
	}
	return e
}

// Initialize clamps cfg and rebuilds every component from it. Session state
// is reset. It fails while the engine is running.
func (e *Engine) Initialize(cfg config.EngineConfig) error {
	if e.running.Load() {
		return ErrAlreadyRunning
	}
	cfg = cfg.Clamp()
	e.cfg = cfg

	strategy, err := generator.ParseStrategy(cfg.Generator.Strategy)
	if err != nil {
		e.logger.Warn("unknown strategy, using adaptive", "strategy", cfg.Generator.Strategy)
	}
	e.strategy = strategy
	e.pattern = cfg.Generator.Pattern
	if e.pattern != "" && !e.catalog.Exists(e.pattern) {
		e.logger.Warn("unknown pattern", "pattern", e.pattern)
	}

	if note.ParseShapeKind(cfg.Notes.Shape) == note.ShapeRect {
		e.shape = note.Rect(cfg.Spatial.LaneWidth*0.8, cfg.Notes.Size)
	} else {
		e.shape = note.Circle(cfg.Notes.Size)
	}

	e.pool = pool.New(pool.Options{
		Name:                "notes",
		MinSize:             cfg.Pool.MinSize,
		MaxSize:             cfg.Pool.MaxSize,
		IdleTimeout:         cfg.Pool.IdleTimeout,
		MaintenanceInterval: cfg.Pool.MaintenanceInterval,
		Clock:               e.clock,
		Logger:              e.logger.WithPrefix("pool"),
	}, func() *note.Note { return &note.Note{} }, (*note.Note).Reset)

	e.detector = spatial.NewDetector(spatial.DetectorConfig{
		Lanes:       cfg.Notes.Lanes,
		LaneWidth:   cfg.Spatial.LaneWidth,
		LineY:       cfg.Spatial.LineY,
		FieldHeight: cfg.Spatial.FieldHeight,
		CellSize:    cfg.Spatial.CellSize,
		Bands:       cfg.Spatial.Bands,
		Logger:      e.logger.WithPrefix("detector"),
	})

	e.gen = generator.New(generator.Config{
		Lanes:        cfg.Notes.Lanes,
		MaxActive:    cfg.Notes.MaxActive,
		MaxPerSecond: cfg.Notes.MaxPerSecond,
		MinInterval:  cfg.Notes.MinInterval(),
		LeadTime:     cfg.Notes.LeadTime(),
		BurstSize:    cfg.Generator.BurstSize,
		BurstSpacing: cfg.Generator.BurstSpacing(),
		Seed:         cfg.Generator.Seed,
		Catalog:      e.catalog,
		Logger:       e.logger.WithPrefix("generator"),
	})

	e.diff = difficulty.New(cfg.Difficulty.Controller())

	e.sched = scheduler.New(scheduler.Config{
		TargetFPS:    cfg.Timing.TargetFPS,
		MinFPS:       cfg.Timing.MinFPS,
		MaxErrors:    cfg.Scheduler.MaxErrors,
		PerfWindow:   cfg.Scheduler.PerfWindow,
		PerfInterval: cfg.Scheduler.PerfInterval,
		MaxFrameSkip: cfg.Scheduler.MaxFrameSkip,
		Clock:        e.clock,
		CostClock:    e.costClock,
		Logger:       e.logger.WithPrefix("scheduler"),
		OnSample:     e.onSample,
	})
	if err := e.registerTasks(); err != nil {
		return fmt.Errorf("engine: register tasks: %w", err)
	}

	e.nextID = 0
	e.active = 0
	e.inZone = make(map[uint64]bool)
	e.stats = newStats()
	e.initialized = true

	e.logger.Info("engine initialized",
		"lanes", cfg.Notes.Lanes,
		"strategy", e.strategy,
		"target_fps", cfg.Timing.TargetFPS,
		"max_active", cfg.Notes.MaxActive,
		"pool_max", cfg.Pool.MaxSize,
	)
	return nil
}

func (e *Engine) registerTasks() error {
	tasks := []scheduler.Task{
		{Name: TaskJudge, Priority: scheduler.High, Run: e.judgeTask, OnQuality: e.detector.SetQuality},
		{Name: TaskSpawn, Priority: scheduler.High, Run: e.spawnTask, OnQuality: e.gen.SetQuality},
		{Name: TaskUISync, Priority: scheduler.Medium, Interval: 33 * time.Millisecond, Run: e.uiSyncTask},
		{Name: TaskDifficulty, Priority: scheduler.Low, Interval: 500 * time.Millisecond, Run: e.difficultyTask},
		{Name: TaskPoolMaintenance, Priority: scheduler.Low, Interval: time.Second, Run: e.poolTask},
	}
	for _, t := range tasks {
		if err := e.sched.Register(t); err != nil {
			return err
		}
	}
	return nil
}

// Start marks the engine running for hosts that drive Frame themselves.
func (e *Engine) Start() error {
	if !e.initialized {
		return ErrNotInitialized
	}
	if !e.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	e.logger.Debug("engine started")
	return nil
}

// Stop stops the engine. A loop started by Run returns after its current
// frame completes.
func (e *Engine) Stop() {
	e.mu.Lock()
	cancel := e.cancel
	e.mu.Unlock()
	if cancel != nil {
		cancel()
		return
	}
	if e.running.CompareAndSwap(true, false) {
		e.logger.Debug("engine stopped")
	}
}

// Running reports whether the engine has been started and not stopped.
func (e *Engine) Running() bool {
	return e.running.Load()
}

// Run starts the engine and serves frames and submitted hit intents on the
// calling goroutine until ctx is done, Stop is called or the scheduler halts.
func (e *Engine) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	e.mu.Lock()
	if e.cancel != nil {
		e.mu.Unlock()
		return ErrAlreadyRunning
	}
	e.cancel = cancel
	e.mu.Unlock()
	defer func() {
		e.mu.Lock()
		e.cancel = nil
		e.mu.Unlock()
	}()

	if err := e.Start(); err != nil {
		return err
	}
	defer func() {
		e.running.Store(false)
		e.logger.Debug("engine loop exited")
	}()

	frames := e.frames
	if frames == nil {
		frames = NewTickerSource(time.Second / time.Duration(e.cfg.Timing.TargetFPS))
	}
	defer frames.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case _, ok := <-frames.C():
			if !ok {
				return nil
			}
			if err := e.Frame(); err != nil {
				return err
			}
		case in := <-e.intents:
			in.reply <- e.OnHitAttempt(in.lane, in.ms)
		}
	}
}

// Submit hands a hit attempt to the goroutine inside Run and waits for its
// result. The result is nil on a whiff or invalid input.
func (e *Engine) Submit(ctx context.Context, lane int, timestampMs float64) (*JudgmentResult, error) {
	e.mu.Lock()
	looping := e.cancel != nil
	e.mu.Unlock()
	if !looping || !e.running.Load() {
		return nil, ErrNotRunning
	}
	in := hitIntent{lane: lane, ms: timestampMs, reply: make(chan *JudgmentResult, 1)}
	select {
	case e.intents <- in:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	select {
	case res := <-in.reply:
		return res, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Frame runs one host animation frame through the scheduler.
func (e *Engine) Frame() error {
	if !e.initialized {
		return ErrNotInitialized
	}
	if !e.running.Load() {
		return ErrNotRunning
	}
	if err := e.sched.Tick(); err != nil {
		return fmt.Errorf("engine: frame %d: %w", e.sched.Frames(), err)
	}
	return nil
}

// Now returns the current track time.
func (e *Engine) Now() time.Duration {
	return e.clock.Now()
}

// NowMillis returns the current track time in milliseconds, the unit hit
// attempts are timestamped in.
func (e *Engine) NowMillis() float64 {
	return core.Millis(e.clock.Now())
}

// OnHitAttempt judges a hit in lane at timestampMs of track time. It returns
// the judgment of the qualifying note closest to the judgment line, or nil on
// a whiff or invalid input.
func (e *Engine) OnHitAttempt(lane int, timestampMs float64) *JudgmentResult {
	if !e.initialized {
		return nil
	}
	if math.IsNaN(timestampMs) || math.IsInf(timestampMs, 0) || timestampMs < 0 {
		e.logger.Debug("invalid hit timestamp", "lane", lane, "timestamp_ms", timestampMs)
		return nil
	}
	if lane < 0 || lane >= e.cfg.Notes.Lanes {
		e.logger.Debug("invalid hit lane", "lane", lane, "lanes", e.cfg.Notes.Lanes)
		return nil
	}

	at := core.FromMillis(timestampMs)
	if off, win := at-e.clock.Now(), e.hitWindow(); off > win || off < -win {
		e.logger.Debug("hit timestamp outside the judgment window", "lane", lane, "timestamp_ms", timestampMs, "now", e.clock.Now())
		return nil
	}
	c, jt, ok := e.detector.Hit(lane, at)
	if !ok {
		e.stats.Whiffs++
		return nil
	}

	n := c.Note
	if !n.Judge(note.Judgment{Type: jt, Depth: c.Depth, At: at}) {
		return nil
	}
	e.active--
	e.stats.record(jt)
	e.gen.RecordOutcome(true)

	res := &JudgmentResult{
		NoteID:     n.ID,
		Lane:       lane,
		Type:       jt,
		Depth:      c.Depth,
		ScoreDelta: jt.ScoreDelta(),
		At:         at,
	}
	e.emit(Event{Type: EventNoteJudged, At: at, Note: viewOf(n), Judgment: jt, ScoreDelta: res.ScoreDelta})
	e.release(n)
	return res
}

// hitWindow is how far a hit timestamp may sit from the current track time:
// the time a note takes to cross the loosest band, plus one frame.
func (e *Engine) hitWindow() time.Duration {
	return core.FromMillis(e.detector.Bands().Loosest()/e.cfg.Notes.Speed) + e.sched.Budget()
}

// OnDifficultySignal feeds a player-performance sample to the difficulty
// controller that drives the generator.
func (e *Engine) OnDifficultySignal(score, combo int, accuracy float64) {
	if !e.initialized {
		return
	}
	if math.IsNaN(accuracy) {
		accuracy = 0
	}
	e.diff.Signal(score, combo, accuracy)
}

// SetStrategy switches the generation strategy for later frames.
func (e *Engine) SetStrategy(s generator.Strategy) {
	e.strategy = s
}

// Strategy returns the current generation strategy.
func (e *Engine) Strategy() generator.Strategy {
	return e.strategy
}

// SetPattern selects the catalog pattern replayed by the sequential strategy.
func (e *Engine) SetPattern(name string) error {
	if !e.catalog.Exists(name) {
		return fmt.Errorf("engine: unknown pattern %q", name)
	}
	e.pattern = name
	return nil
}

// Pattern returns the selected catalog pattern.
func (e *Engine) Pattern() string {
	return e.pattern
}

// Stats returns a copy of the session counters.
func (e *Engine) Stats() Stats {
	s := e.stats.clone()
	s.Active = e.active
	return s
}

// Snapshot returns a copy of every tracked note, ordered by timing.
func (e *Engine) Snapshot() []NoteView {
	if !e.initialized {
		return nil
	}
	out := make([]NoteView, 0, e.detector.Len())
	for _, c := range e.detector.Notes() {
		v := viewOf(c)
		v.InZone = e.inZone[c.ID] && !v.Judged
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Timing != out[j].Timing {
			return out[i].Timing < out[j].Timing
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// Config returns the effective, clamped configuration.
func (e *Engine) Config() config.EngineConfig {
	return e.cfg
}

// Catalog returns the pattern catalog.
func (e *Engine) Catalog() *generator.Catalog {
	return e.catalog
}

// Detector exposes the spatial detector for lookahead queries.
func (e *Engine) Detector() *spatial.Detector {
	return e.detector
}

// Scheduler exposes the frame scheduler for diagnostics.
func (e *Engine) Scheduler() *scheduler.Scheduler {
	return e.sched
}

// PoolStats returns the note pool counters.
func (e *Engine) PoolStats() pool.Stats {
	return e.pool.Stats()
}

// Difficulty returns the current difficulty level.
func (e *Engine) Difficulty() float64 {
	return e.diff.Level()
}

// release stops tracking a note and returns it to the pool.
func (e *Engine) release(n *note.Note) {
	e.detector.Remove(n.ID)
	delete(e.inZone, n.ID)
	n.Advance(note.StateReleased)
	e.pool.Release(n)
}

func (e *Engine) onSample(s scheduler.Sample) {
	if s.Quality < e.stats.MinQuality {
		e.stats.MinQuality = s.Quality
	}
	e.emit(Event{Type: EventPerformanceSample, At: e.clock.Now(), Sample: s})
}
