// Package pool provides a reusable entity pool that keeps steady-state
// acquisition allocation-free.
//
// Issued entities are tracked with an explicit arena and an owned index rather
// than weak references: every entity the pool has created lives in a slot, and
// the index maps the entity pointer to its slot. Discarded or evicted entities
// are removed from both, so reclamation is deterministic.
package pool

import (
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/vovakirdan/notefall/internal/core"
)

// Default maintenance settings.
const (
	DefaultMaintenanceInterval = 25 * time.Second
	DefaultIdleTimeout         = 60 * time.Second
)

// Options configures a Pool.
type Options struct {
	Name                string        // Used in diagnostics
	MinSize             int           // Idle entities kept warm
	MaxSize             int           // Upper bound on live (issued + idle) entities
	IdleTimeout         time.Duration // Idle entities unused this long may be evicted
	MaintenanceInterval time.Duration // Minimum time between maintenance sweeps
	Clock               core.Clock
	Logger              *log.Logger
}

// Stats is a snapshot of pool counters.
type Stats struct {
	Created     int // Entities ever constructed
	Issued      int // Entities currently handed out
	Idle        int // Entities waiting in the idle set
	Discarded   int // Entities dropped on release because the idle set was full
	Evicted     int // Idle entities dropped by maintenance
	Exhausted   int // Acquire calls that found no idle entity and no headroom
	BadReleases int // Release calls for entities that were not issued
}

// Live returns the number of entities the pool still owns.
func (s Stats) Live() int {
	return s.Issued + s.Idle
}

type slot[T any] struct {
	entity   *T
	issued   bool
	gen      uint32
	lastUsed time.Duration
}

// Pool hands out reset entities of type T and takes them back.
// It is not safe for concurrent use; the engine drives it from one goroutine.
type Pool[T any] struct {
	opts    Options
	newFn   func() *T
	resetFn func(*T)

	slots []slot[T]
	index map[*T]int // entity -> slot; the "currently owned" membership test
	free  []int      // vacated slot indices
	idle  []int      // LIFO stack of idle slot indices

	lastMaintenance time.Duration
	stats           Stats
	logger          *log.Logger
}

// New creates a pool. newFn constructs a fresh entity and resetFn zeroes one;
// resetFn runs on every acquire and release. The idle set is pre-warmed to MinSize.
func New[T any](opts Options, newFn func() *T, resetFn func(*T)) *Pool[T] {
	opts = normalize(opts)
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	p := &Pool[T]{
		opts:            opts,
		newFn:           newFn,
		resetFn:         resetFn,
		index:           make(map[*T]int, opts.MaxSize),
		logger:          logger,
		lastMaintenance: opts.Clock.Now(),
	}
	p.Prewarm()
	return p
}

func normalize(opts Options) Options {
	if opts.Name == "" {
		opts.Name = "pool"
	}
	if opts.MaxSize < 1 {
		opts.MaxSize = 1
	}
	if opts.MinSize < 0 {
		opts.MinSize = 0
	}
	if opts.MinSize > opts.MaxSize {
		opts.MinSize = opts.MaxSize
	}
	if opts.IdleTimeout <= 0 {
		opts.IdleTimeout = DefaultIdleTimeout
	}
	if opts.MaintenanceInterval <= 0 {
		opts.MaintenanceInterval = DefaultMaintenanceInterval
	}
	if opts.Clock == nil {
		opts.Clock = core.NewSystemClock()
	}
	return opts
}

// Acquire returns a reset entity. It reuses an idle entity when one exists, and
// otherwise creates one only while the pool is below MaxSize. When neither is
// possible it returns (nil, false).
func (p *Pool[T]) Acquire() (*T, bool) {
	var idx int
	switch {
	case len(p.idle) > 0:
		idx = p.idle[len(p.idle)-1]
		p.idle = p.idle[:len(p.idle)-1]
	case p.live() < p.opts.MaxSize:
		idx = p.create()
	default:
		p.stats.Exhausted++
		p.logger.Debug("pool exhausted", "pool", p.opts.Name, "max", p.opts.MaxSize)
		return nil, false
	}

	s := &p.slots[idx]
	s.issued = true
	s.gen++
	p.resetFn(s.entity)
	return s.entity, true
}

// Release returns an issued entity. Releasing an entity that is not currently
// issued is a logged no-op. If the idle set is already at capacity the entity
// is reset and discarded instead of kept.
func (p *Pool[T]) Release(e *T) bool {
	idx, ok := p.index[e]
	if e == nil || !ok || !p.slots[idx].issued {
		p.stats.BadReleases++
		p.logger.Warn("release of entity not issued by pool", "pool", p.opts.Name)
		return false
	}

	s := &p.slots[idx]
	s.issued = false
	p.resetFn(e)

	if len(p.idle) >= p.opts.MaxSize || p.live() > p.opts.MaxSize {
		p.drop(idx)
		p.stats.Discarded++
		return true
	}

	s.lastUsed = p.opts.Clock.Now()
	p.idle = append(p.idle, idx)
	return true
}

// Issued reports whether e is currently handed out by this pool.
func (p *Pool[T]) Issued(e *T) bool {
	idx, ok := p.index[e]
	return ok && p.slots[idx].issued
}

// Generation returns how many times the slot holding e has been issued.
// It is zero for entities the pool does not own.
func (p *Pool[T]) Generation(e *T) uint32 {
	idx, ok := p.index[e]
	if !ok {
		return 0
	}
	return p.slots[idx].gen
}

// Prewarm tops the idle set up to MinSize without exceeding MaxSize.
func (p *Pool[T]) Prewarm() {
	now := p.opts.Clock.Now()
	for len(p.idle) < p.opts.MinSize && p.live() < p.opts.MaxSize {
		idx := p.create()
		p.resetFn(p.slots[idx].entity)
		p.slots[idx].lastUsed = now
		p.idle = append(p.idle, idx)
	}
}

// Maintain runs a maintenance sweep if MaintenanceInterval has elapsed since
// the last one: idle entities unused beyond IdleTimeout are evicted (keeping at
// least MinSize idle) and the idle set is topped back up to MinSize.
// It reports whether a sweep ran.
func (p *Pool[T]) Maintain() bool {
	now := p.opts.Clock.Now()
	if now-p.lastMaintenance < p.opts.MaintenanceInterval {
		return false
	}
	p.lastMaintenance = now

	evicted := 0
	kept := p.idle[:0]
	for i, idx := range p.idle {
		remaining := len(p.idle) - i
		stale := now-p.slots[idx].lastUsed > p.opts.IdleTimeout
		if stale && len(kept)+remaining > p.opts.MinSize {
			p.drop(idx)
			evicted++
			continue
		}
		kept = append(kept, idx)
	}
	p.idle = kept
	p.stats.Evicted += evicted

	p.Prewarm()

	if evicted > 0 {
		p.logger.Debug("pool maintenance", "pool", p.opts.Name, "evicted", evicted, "idle", len(p.idle))
	}
	return true
}

// SetMaxSize changes the capacity. Shrinking drops idle entities immediately;
// issued entities above the new capacity are discarded as they are released.
func (p *Pool[T]) SetMaxSize(n int) {
	if n < 1 {
		n = 1
	}
	p.opts.MaxSize = n
	if p.opts.MinSize > n {
		p.opts.MinSize = n
	}
	for len(p.idle) > 0 && p.live() > n {
		idx := p.idle[len(p.idle)-1]
		p.idle = p.idle[:len(p.idle)-1]
		p.drop(idx)
		p.stats.Discarded++
	}
}

// Stats returns a snapshot of the pool counters.
func (p *Pool[T]) Stats() Stats {
	s := p.stats
	s.Idle = len(p.idle)
	s.Issued = p.live() - len(p.idle)
	return s
}

// MaxSize returns the current capacity.
func (p *Pool[T]) MaxSize() int {
	return p.opts.MaxSize
}

func (p *Pool[T]) live() int {
	return len(p.index)
}

func (p *Pool[T]) create() int {
	e := p.newFn()
	var idx int
	if n := len(p.free); n > 0 {
		idx = p.free[n-1]
		p.free = p.free[:n-1]
		gen := p.slots[idx].gen
		p.slots[idx] = slot[T]{entity: e, gen: gen}
	} else {
		idx = len(p.slots)
		p.slots = append(p.slots, slot[T]{entity: e})
	}
	p.index[e] = idx
	p.stats.Created++
	return idx
}

// drop forgets the entity in slot idx and recycles the slot.
func (p *Pool[T]) drop(idx int) {
	s := &p.slots[idx]
	delete(p.index, s.entity)
	s.entity = nil
	s.issued = false
	p.free = append(p.free, idx)
}
