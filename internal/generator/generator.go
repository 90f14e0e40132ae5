package generator

import (
	"fmt"
	"io"
	"math/rand"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/vovakirdan/notefall/internal/core"
	"github.com/vovakirdan/notefall/internal/note"
)

// Strategy selects how a Generate call lays out notes.
type Strategy uint8

const (
	StrategySequential   Strategy = iota // Replay a catalog pattern
	StrategyBurst                        // Clustered near-simultaneous notes across lanes
	StrategyAlternating                  // Strict left/right ping-pong between outer and inner lanes
	StrategySynchronized                 // Chords: every lane at the same timing
	StrategyAdaptive                     // Interval and lanes driven by difficulty and recent misses
)

// Strategies lists every strategy in declaration order.
var Strategies = []Strategy{
	StrategySequential,
	StrategyBurst,
	StrategyAlternating,
	StrategySynchronized,
	StrategyAdaptive,
}

// String returns the strategy's config name.
func (s Strategy) String() string {
	switch s {
	case StrategySequential:
		return "sequential"
	case StrategyBurst:
		return "burst"
	case StrategyAlternating:
		return "alternating"
	case StrategySynchronized:
		return "synchronized"
	case StrategyAdaptive:
		return "adaptive"
	default:
		return "unknown"
	}
}

// ParseStrategy maps a config name onto a strategy.
func ParseStrategy(s string) (Strategy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "sequential", "pattern":
		return StrategySequential, nil
	case "burst":
		return StrategyBurst, nil
	case "alternating", "alternate":
		return StrategyAlternating, nil
	case "synchronized", "sync", "chord":
		return StrategySynchronized, nil
	case "adaptive", "":
		return StrategyAdaptive, nil
	default:
		return StrategyAdaptive, fmt.Errorf("generator: unknown strategy %q", s)
	}
}

// Interval bounds for the difficulty-driven strategies.
const (
	slowInterval = 400 * time.Millisecond
	fastInterval = 120 * time.Millisecond
)

// historySize is the number of recent hit/miss outcomes adaptive mode keeps.
const historySize = 32

// Config holds the generator's ceilings and layout.
type Config struct {
	Lanes        int
	MaxActive    int           // Ceiling on concurrently active notes
	MaxPerSecond int           // Ceiling on accepted spawns per sliding second
	MinInterval  time.Duration // Per-lane density floor
	LeadTime     time.Duration // How far ahead of arrival a note is spawned
	BurstSize    int
	BurstSpacing time.Duration
	Seed         int64
	Catalog      *Catalog
	Logger       *log.Logger
}

// DefaultConfig returns the stock generator settings.
func DefaultConfig() Config {
	return Config{
		Lanes:        4,
		MaxActive:    64,
		MaxPerSecond: 20,
		MinInterval:  100 * time.Millisecond,
		LeadTime:     2 * time.Second,
		BurstSize:    4,
		BurstSpacing: 30 * time.Millisecond,
	}
}

// Request is the input to one Generate call.
type Request struct {
	Now        time.Duration // Current track time
	Difficulty float64       // In [0, 1]
	Strategy   Strategy
	Pattern    string // Catalog name for StrategySequential
	Active     int    // Currently active notes
}

// Spawn describes one note to create.
type Spawn struct {
	Lane    int
	Timing  time.Duration // Arrival at the judgment line
	Subtype note.Subtype
	HoldFor time.Duration
}

// Result is the output of a Generate call.
type Result struct {
	Spawns   []Spawn
	Dropped  int // Removed by the density floor
	Thinned  int // Removed by low-quality thinning
	Rejected int // Refused by the active or rate ceiling
}

// Stats accumulates Result counters across calls.
type Stats struct {
	Proposed int
	Accepted int
	Dropped  int
	Thinned  int
	Rejected int
}

// Generator turns strategies into spawn descriptors. It is not safe for
// concurrent use.
type Generator struct {
	cfg    Config
	rng    *rand.Rand
	logger *log.Logger

	quality float64
	next    time.Duration // Timing of the next planned group
	started bool

	cursor   int   // Sequential pattern step
	pattern  string
	altOrder []int // Alternating lane order
	altPos   int
	lastLane int

	lastInLane []time.Duration
	hasInLane  []bool
	window     []time.Duration // Emission times of accepted spawns in the last second
	accepted   []laneMark      // Lane state before each spawn of the latest result

	outcomes [historySize]bool // true = miss
	outCount int
	outPos   int

	stats Stats
	buf   []Spawn
}

// laneMark is the per-lane density state an accepted spawn replaced.
type laneMark struct {
	lane int
	last time.Duration
	has  bool
}

// New creates a generator. Zero fields in cfg take DefaultConfig values.
func New(cfg Config) *Generator {
	def := DefaultConfig()
	if cfg.Lanes < 1 {
		cfg.Lanes = def.Lanes
	}
	if cfg.MaxActive < 1 {
		cfg.MaxActive = def.MaxActive
	}
	if cfg.MaxPerSecond < 1 {
		cfg.MaxPerSecond = def.MaxPerSecond
	}
	if cfg.MinInterval < 0 {
		cfg.MinInterval = 0
	}
	if cfg.LeadTime <= 0 {
		cfg.LeadTime = def.LeadTime
	}
	if cfg.BurstSize < 1 {
		cfg.BurstSize = def.BurstSize
	}
	if cfg.BurstSpacing <= 0 {
		cfg.BurstSpacing = def.BurstSpacing
	}
	if cfg.Catalog == nil {
		cfg.Catalog = DefaultCatalog()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}

	g := &Generator{
		cfg:      cfg,
		logger:   logger,
		altOrder: alternatingOrder(cfg.Lanes),
	}
	g.Reset(cfg.Seed)
	return g
}

// Config returns the effective configuration.
func (g *Generator) Config() Config {
	return g.cfg
}

// Reset clears all planning state and reseeds the random source.
func (g *Generator) Reset(seed int64) {
	g.cfg.Seed = seed
	g.rng = rand.New(rand.NewSource(seed))
	g.quality = 1
	g.next = 0
	g.started = false
	g.cursor = 0
	g.pattern = ""
	g.altPos = 0
	g.lastLane = -1
	g.lastInLane = make([]time.Duration, g.cfg.Lanes)
	g.hasInLane = make([]bool, g.cfg.Lanes)
	g.window = g.window[:0]
	g.accepted = g.accepted[:0]
	g.outcomes = [historySize]bool{}
	g.outCount = 0
	g.outPos = 0
	g.stats = Stats{}
}

// SetQuality applies the propagated quality level. Below 0.6 results are
// thinned.
func (g *Generator) SetQuality(q float64) {
	g.quality = core.ClampF(q, 0, 1)
}

// Quality returns the last applied quality level.
func (g *Generator) Quality() float64 {
	return g.quality
}

// RecordOutcome feeds one hit (true) or miss (false) into adaptive mode.
func (g *Generator) RecordOutcome(hit bool) {
	g.outcomes[g.outPos] = !hit
	g.outPos = (g.outPos + 1) % historySize
	if g.outCount < historySize {
		g.outCount++
	}
}

// MissRate returns the miss fraction over the recent outcomes.
func (g *Generator) MissRate() float64 {
	if g.outCount == 0 {
		return 0
	}
	misses := 0
	for i := 0; i < g.outCount; i++ {
		if g.outcomes[i] {
			misses++
		}
	}
	return float64(misses) / float64(g.outCount)
}

// Stats returns the cumulative counters.
func (g *Generator) Stats() Stats {
	return g.stats
}

// maxGroupsPerCall bounds planning when the horizon jumps far ahead.
const maxGroupsPerCall = 256

// Generate plans every note group that is due to be spawned by req.Now and
// runs the result through the density floor, thinning and the ceilings.
// Spawns refused by a ceiling are counted and logged, never queued.
func (g *Generator) Generate(req Request) Result {
	var res Result
	g.accepted = g.accepted[:0]
	if !g.started || g.next < req.Now {
		// First call or after a stall: plan from a full lead time out.
		g.next = req.Now + g.cfg.LeadTime
		g.started = true
	}

	horizon := req.Now + g.cfg.LeadTime
	d := core.ClampF(req.Difficulty, 0, 1)
	proposed := g.buf[:0]
	for i := 0; i < maxGroupsPerCall && g.next <= horizon; i++ {
		proposed = g.plan(proposed, req, d)
	}
	g.buf = proposed
	g.stats.Proposed += len(proposed)
	if len(proposed) == 0 {
		return res
	}

	g.pruneWindow(req.Now)
	activeRoom := g.cfg.MaxActive - req.Active
	for _, s := range proposed {
		if g.hasInLane[s.Lane] && s.Timing-g.lastInLane[s.Lane] < g.cfg.MinInterval {
			res.Dropped++
			continue
		}
		if g.quality < 0.6 && g.rng.Float64() < 0.6-g.quality {
			res.Thinned++
			continue
		}
		if len(res.Spawns) >= activeRoom || len(g.window) >= g.cfg.MaxPerSecond {
			res.Rejected++
			continue
		}
		res.Spawns = append(res.Spawns, s)
		g.accepted = append(g.accepted, laneMark{lane: s.Lane, last: g.lastInLane[s.Lane], has: g.hasInLane[s.Lane]})
		g.lastInLane[s.Lane] = s.Timing
		g.hasInLane[s.Lane] = true
		g.window = append(g.window, req.Now)
	}

	if res.Rejected > 0 {
		g.logger.Warn("spawns rejected by ceiling",
			"rejected", res.Rejected,
			"active", req.Active,
			"max_active", g.cfg.MaxActive,
			"rate", len(g.window),
			"max_per_second", g.cfg.MaxPerSecond,
		)
	}
	if res.Dropped > 0 {
		g.logger.Debug("spawns dropped by density floor", "dropped", res.Dropped, "min_interval", g.cfg.MinInterval)
	}

	g.stats.Accepted += len(res.Spawns)
	g.stats.Dropped += res.Dropped
	g.stats.Thinned += res.Thinned
	g.stats.Rejected += res.Rejected
	return res
}

// Unaccept rolls back the last n spawns of the latest Generate result, for
// spawns the caller could not turn into notes. They stop counting toward the
// density floor, the rate window and the accepted total.
func (g *Generator) Unaccept(n int) {
	n = min(n, len(g.accepted), len(g.window))
	for ; n > 0; n-- {
		m := g.accepted[len(g.accepted)-1]
		g.accepted = g.accepted[:len(g.accepted)-1]
		g.window = g.window[:len(g.window)-1]
		g.lastInLane[m.lane] = m.last
		g.hasInLane[m.lane] = m.has
		g.stats.Accepted--
	}
}

// pruneWindow drops rate-window entries older than one second.
func (g *Generator) pruneWindow(now time.Duration) {
	cut := 0
	for cut < len(g.window) && now-g.window[cut] >= time.Second {
		cut++
	}
	if cut > 0 {
		g.window = append(g.window[:0], g.window[cut:]...)
	}
}

// interval returns the base gap between groups for a difficulty.
func interval(d float64) time.Duration {
	return time.Duration(core.Lerp(float64(slowInterval), float64(fastInterval), d))
}

// plan appends the next group of notes at g.next and advances g.next.
func (g *Generator) plan(dst []Spawn, req Request, d float64) []Spawn {
	at := g.next
	switch req.Strategy {
	case StrategySequential:
		return g.planSequential(dst, req.Pattern, d)
	case StrategyBurst:
		lane := g.rng.Intn(g.cfg.Lanes)
		for i := 0; i < g.cfg.BurstSize; i++ {
			dst = append(dst, Spawn{
				Lane:   (lane + i) % g.cfg.Lanes,
				Timing: at + time.Duration(i)*g.cfg.BurstSpacing,
			})
		}
		g.next = at + time.Duration(g.cfg.BurstSize)*g.cfg.BurstSpacing + 2*interval(d)
		return dst
	case StrategyAlternating:
		dst = append(dst, Spawn{Lane: g.altOrder[g.altPos], Timing: at})
		g.altPos = (g.altPos + 1) % len(g.altOrder)
		g.next = at + interval(d)
		return dst
	case StrategySynchronized:
		for lane := 0; lane < g.cfg.Lanes; lane++ {
			dst = append(dst, Spawn{Lane: lane, Timing: at})
		}
		g.next = at + 2*interval(d)
		return dst
	default:
		return g.planAdaptive(dst, d)
	}
}

func (g *Generator) planSequential(dst []Spawn, name string, d float64) []Spawn {
	if name == "" {
		name = "stream"
	}
	p, err := g.cfg.Catalog.Get(name)
	if err != nil {
		if name != g.pattern {
			g.logger.Warn("unknown pattern, using stream", "pattern", name)
			g.pattern = name
		}
		if p, err = g.cfg.Catalog.Get("stream"); err != nil {
			// Empty catalog: fall back to difficulty-driven placement.
			return g.planAdaptive(dst, d)
		}
	} else if name != g.pattern {
		g.pattern = name
		g.cursor = 0
	}

	step := p.Steps[g.cursor%len(p.Steps)]
	g.cursor = (g.cursor + 1) % len(p.Steps)
	dst = append(dst, Spawn{Lane: step.Lane % g.cfg.Lanes, Timing: g.next})

	// Harder than the pattern's base difficulty plays faster, easier plays slower.
	scale := core.ClampF(1+(p.BaseDifficulty-d)*0.5, 0.5, 1.5)
	g.next += time.Duration(float64(step.Interval) * scale)
	return dst
}

func (g *Generator) planAdaptive(dst []Spawn, d float64) []Spawn {
	gap := time.Duration(float64(interval(d)) * (1 + 0.5*g.MissRate()))

	var lane int
	switch {
	case d < 0.3:
		// Easy: the rightmost lane is left out.
		lane = g.pickLane(max(1, g.cfg.Lanes-1), true)
	case d > 0.7:
		lane = g.rng.Intn(g.cfg.Lanes)
	default:
		lane = g.pickLane(g.cfg.Lanes, true)
	}
	g.lastLane = lane

	s := Spawn{Lane: lane, Timing: g.next}
	if d > 0.7 {
		// Tails become likelier as difficulty approaches 1.
		if g.rng.Float64() < (d-0.7)/0.3*0.5 {
			s.Subtype = note.SubtypeHold
			if g.rng.Intn(2) == 1 {
				s.Subtype = note.SubtypeSlide
			}
			s.HoldFor = 2 * gap
			gap += s.HoldFor
		}
	}
	dst = append(dst, s)
	g.next += gap
	return dst
}

// pickLane returns a random lane in [0, n), avoiding the previous lane when
// avoidRepeat is set and there is a choice.
func (g *Generator) pickLane(n int, avoidRepeat bool) int {
	if n <= 1 {
		return 0
	}
	if !avoidRepeat || g.lastLane < 0 || g.lastLane >= n {
		return g.rng.Intn(n)
	}
	lane := g.rng.Intn(n - 1)
	if lane >= g.lastLane {
		lane++
	}
	return lane
}

// alternatingOrder returns the ping-pong lane order: outer pair, moving inward,
// then back out. Four lanes give 0 3 1 2; six give 0 5 1 4 2 3 1 4.
func alternatingOrder(lanes int) []int {
	if lanes <= 1 {
		return []int{0}
	}
	half := lanes / 2
	var pairs []int
	for i := 0; i < half; i++ {
		pairs = append(pairs, i)
	}
	for i := half - 2; i >= 1; i-- {
		pairs = append(pairs, i)
	}
	var out []int
	for _, i := range pairs {
		out = append(out, i, lanes-1-i)
	}
	if lanes%2 == 1 {
		// The middle lane closes the inward sweep.
		out = append(out[:2*half], append([]int{half}, out[2*half:]...)...)
	}
	return out
}
