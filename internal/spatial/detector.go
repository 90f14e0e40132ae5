package spatial

import (
	"io"
	"math"
	"sort"
	"time"

	"github.com/charmbracelet/log"

	"github.com/vovakirdan/notefall/internal/core"
	"github.com/vovakirdan/notefall/internal/note"
)

// Precision is the detector's degradation level, derived from the quality scalar.
type Precision uint8

const (
	PrecisionLow    Precision = iota // quality < 0.6: coarse cells, bounds-only narrow phase
	PrecisionMedium                  // 0.6 <= quality < 0.8: exact narrow phase
	PrecisionHigh                    // quality >= 0.8: exact narrow phase plus continuous sweep
)

// String returns a human-readable name for the precision level.
func (p Precision) String() string {
	switch p {
	case PrecisionLow:
		return "low"
	case PrecisionMedium:
		return "medium"
	case PrecisionHigh:
		return "high"
	default:
		return "unknown"
	}
}

// PrecisionFor maps a quality level in [0, 1] onto a precision level.
func PrecisionFor(quality float64) Precision {
	switch {
	case quality < 0.6:
		return PrecisionLow
	case quality < 0.8:
		return PrecisionMedium
	default:
		return PrecisionHigh
	}
}

// cellFactor scales the base cell size per precision level; coarser cells mean
// fewer buckets to visit at the cost of more narrow-phase candidates.
func (p Precision) cellFactor() float64 {
	switch p {
	case PrecisionLow:
		return 2
	case PrecisionMedium:
		return 1.5
	default:
		return 1
	}
}

// DetectorConfig describes the play-field layout the detector judges against.
type DetectorConfig struct {
	Lanes       int
	LaneWidth   float64
	LaneOrigin  float64 // X of the left edge of lane 0
	LineY       float64 // Judgment line
	FieldHeight float64
	CellSize    float64
	Bands       note.Bands
	Logger      *log.Logger
}

// Candidate is a note that overlaps, or will overlap, the judgment zone.
type Candidate struct {
	Note    *note.Note
	Depth   float64 // Distance from the judgment line along the fall axis
	Contact Contact
	TOI     float64 // Normalized time of impact for swept candidates, 0 otherwise
	Swept   bool    // Found only by the continuous sweep
}

// DetectorStats counts work done by the detector since creation.
type DetectorStats struct {
	BroadCandidates int // Ids returned by the grid
	NarrowTests     int // Exact shape tests run
	SweepTests      int // Swept-box tests run
	CellsVisited    int // Grid cells scanned by the broad phase
	Rebuilds        int // Grid rebuilds caused by precision changes
}

// Detector answers which active notes overlap a lane's judgment zone, now or
// within the next frame, and picks the note a hit attempt lands on.
// It is not safe for concurrent use.
type Detector struct {
	cfg       DetectorConfig
	grid      *Grid
	notes     map[uint64]*note.Note
	zoneShape note.Shape

	quality   float64
	precision Precision
	maxSpeed  float64
	lastTime  time.Duration

	scratch []uint64
	stats   DetectorStats
	logger  *log.Logger
}

// NewDetector creates a detector at full quality.
func NewDetector(cfg DetectorConfig) *Detector {
	if cfg.Lanes < 1 {
		cfg.Lanes = 1
	}
	if cfg.LaneWidth <= 0 {
		cfg.LaneWidth = 100
	}
	if cfg.CellSize <= 0 {
		cfg.CellSize = DefaultCellSize
	}
	if cfg.FieldHeight <= 0 {
		cfg.FieldHeight = DefaultFieldHeight
	}
	cfg.Bands = cfg.Bands.Normalize()
	logger := cfg.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Detector{
		cfg:       cfg,
		grid:      NewGrid(cfg.CellSize),
		notes:     make(map[uint64]*note.Note),
		zoneShape: note.Rect(cfg.LaneWidth, 2*cfg.Bands.Loosest()),
		quality:   1,
		precision: PrecisionHigh,
		logger:    logger,
	}
}

// LaneCenter returns the X coordinate of a lane's center.
func (d *Detector) LaneCenter(lane int) float64 {
	return d.cfg.LaneOrigin + (float64(lane)+0.5)*d.cfg.LaneWidth
}

// Zone returns the judgment zone box for a lane.
func (d *Detector) Zone(lane int) core.AABB {
	return d.zoneShape.Bounds(core.V(d.LaneCenter(lane), d.cfg.LineY))
}

// Bands returns the configured tolerance bands.
func (d *Detector) Bands() note.Bands {
	return d.cfg.Bands
}

// Config returns the detector layout.
func (d *Detector) Config() DetectorConfig {
	return d.cfg
}

// Insert starts tracking an active note at its current position.
func (d *Detector) Insert(n *note.Note) {
	d.notes[n.ID] = n
	d.grid.Insert(n.ID, n.Position)
	if n.Speed > d.maxSpeed {
		d.maxSpeed = n.Speed
	}
}

// Remove stops tracking a note.
func (d *Detector) Remove(id uint64) {
	delete(d.notes, id)
	d.grid.Remove(id)
}

// Update re-reads the position of a tracked note and moves it in the grid.
func (d *Detector) Update(id uint64) {
	n, ok := d.notes[id]
	if !ok {
		return
	}
	d.grid.Move(id, n.Position)
}

// Get returns a tracked note.
func (d *Detector) Get(id uint64) (*note.Note, bool) {
	n, ok := d.notes[id]
	return n, ok
}

// Len returns the number of tracked notes.
func (d *Detector) Len() int {
	return len(d.notes)
}

// Notes returns every tracked note, judged or not, ordered by id.
func (d *Detector) Notes() []*note.Note {
	out := make([]*note.Note, 0, len(d.notes))
	for _, n := range d.notes {
		out = append(out, n)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Advance repositions every tracked note for track time now.
func (d *Detector) Advance(now time.Duration) {
	for id, n := range d.notes {
		n.Position = n.PositionAt(now, d.cfg.LineY)
		d.grid.Move(id, n.Position)
	}
	d.lastTime = now
}

// SetQuality applies a quality level. Crossing a precision threshold changes
// the cell size and rebuilds the grid.
func (d *Detector) SetQuality(q float64) {
	d.quality = core.ClampF(q, 0, 1)
	p := PrecisionFor(d.quality)
	if p == d.precision {
		return
	}
	d.precision = p
	d.grid.Rebuild(d.cfg.CellSize * p.cellFactor())
	d.stats.Rebuilds++
	d.logger.Debug("detector precision changed", "precision", p, "quality", d.quality, "cell_size", d.grid.CellSize())
}

// Quality returns the last applied quality level.
func (d *Detector) Quality() float64 {
	return d.quality
}

// Precision returns the current precision level.
func (d *Detector) Precision() Precision {
	return d.precision
}

// CellSize returns the grid's current cell size.
func (d *Detector) CellSize() float64 {
	return d.grid.CellSize()
}

// Stats returns the detector work counters.
func (d *Detector) Stats() DetectorStats {
	return d.stats
}

// overlaps runs the narrow phase between a note at p and a lane's zone.
func (d *Detector) overlaps(n *note.Note, p core.Vec2, lane int) (Contact, bool) {
	d.stats.NarrowTests++
	zc := core.V(d.LaneCenter(lane), d.cfg.LineY)
	if d.precision == PrecisionLow {
		return BoundsOverlap(n.Shape, p, d.zoneShape, zc)
	}
	return Collide(n.Shape, p, d.zoneShape, zc)
}

// candidates returns the tracked note ids that can be inside box after moving
// up to drift along the fall axis. Past one field height of drift the grid
// span outgrows the field, so every tracked id is returned instead.
func (d *Detector) candidates(box core.AABB, drift float64) []uint64 {
	d.scratch = d.scratch[:0]
	if drift > d.cfg.FieldHeight {
		for id := range d.notes {
			d.scratch = append(d.scratch, id)
		}
		sort.Slice(d.scratch, func(i, j int) bool { return d.scratch[i] < d.scratch[j] })
	} else {
		box = box.Expand(core.V(0, -drift)).Expand(core.V(0, drift))
		d.stats.CellsVisited += d.grid.Span(box)
		d.scratch = d.grid.Query(box, d.scratch)
	}
	d.stats.BroadCandidates += len(d.scratch)
	return d.scratch
}

// Query returns the notes overlapping any judgment zone at track time now. At
// high precision it also sweeps every note over [now, now+dt] and reports the
// notes that enter a zone within that window, so fast notes cannot tunnel
// through the zone between two frames. Results are ordered by lane, then
// depth.
func (d *Detector) Query(now, dt time.Duration) []Candidate {
	var out []Candidate
	continuous := d.precision == PrecisionHigh && dt > 0
	drift := d.maxSpeed * math.Abs(core.Millis(now-d.lastTime))

	for lane := 0; lane < d.cfg.Lanes; lane++ {
		zone := d.Zone(lane)
		box := zone
		if continuous {
			// Notes fall along +Y, so anything that can reach the zone within
			// dt is at most maxSpeed*dt above it.
			box = box.Expand(core.V(0, -d.maxSpeed*core.Millis(dt)))
		}

		for _, id := range d.candidates(box, drift) {
			n := d.notes[id]
			if n == nil || n.Lane != lane || n.State != note.StateActive {
				continue
			}
			p := n.PositionAt(now, d.cfg.LineY)
			if c, ok := d.overlaps(n, p, lane); ok {
				out = append(out, Candidate{
					Note:    n,
					Depth:   math.Abs(p.Y - d.cfg.LineY),
					Contact: c,
				})
				continue
			}
			if !continuous {
				continue
			}
			d.stats.SweepTests++
			hit, ok := Sweep(n.Shape.Bounds(p), n.Velocity, dt, zone)
			if !ok {
				continue
			}
			at := p.Add(n.Velocity.Scale(core.Millis(dt) * hit.TOI))
			out = append(out, Candidate{
				Note:    n,
				Depth:   math.Abs(at.Y - d.cfg.LineY),
				Contact: Contact{Normal: hit.Normal},
				TOI:     hit.TOI,
				Swept:   true,
			})
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Note.Lane != b.Note.Lane {
			return a.Note.Lane < b.Note.Lane
		}
		if a.Swept != b.Swept {
			return !a.Swept
		}
		if a.Depth != b.Depth {
			return a.Depth < b.Depth
		}
		return a.Note.ID < b.Note.ID
	})
	return out
}

// Hit evaluates a hit attempt in lane at track time at. Every active note in
// the lane is placed where it is at that instant; the one closest to the
// judgment line within the loosest band wins. Ties on depth go to the earlier
// note, then the lower id. It returns false on a whiff or an invalid lane.
func (d *Detector) Hit(lane int, at time.Duration) (Candidate, note.JudgmentType, bool) {
	if lane < 0 || lane >= d.cfg.Lanes {
		return Candidate{}, note.Miss, false
	}

	// Positions were computed at lastTime; widen the broad phase along the
	// fall axis by how far any note can have moved since then.
	drift := d.maxSpeed * math.Abs(core.Millis(at-d.lastTime))

	var best Candidate
	var bestType note.JudgmentType
	found := false

	for _, id := range d.candidates(d.Zone(lane), drift) {
		n := d.notes[id]
		if n == nil || n.Lane != lane || n.State != note.StateActive {
			continue
		}
		p := n.PositionAt(at, d.cfg.LineY)
		c, ok := d.overlaps(n, p, lane)
		if !ok {
			continue
		}
		depth := math.Abs(p.Y - d.cfg.LineY)
		jt, ok := d.cfg.Bands.Classify(depth)
		if !ok {
			continue
		}
		if found && !closer(depth, n, best) {
			continue
		}
		best = Candidate{Note: n, Depth: depth, Contact: c}
		bestType = jt
		found = true
	}
	return best, bestType, found
}

func closer(depth float64, n *note.Note, best Candidate) bool {
	if depth != best.Depth {
		return depth < best.Depth
	}
	if n.Timing != best.Note.Timing {
		return n.Timing < best.Note.Timing
	}
	return n.ID < best.Note.ID
}

// Expired returns the active notes that have crossed the judgment line by more
// than the loosest band at track time now, ordered by timing. They can no
// longer be hit; the caller judges each one a miss.
func (d *Detector) Expired(now time.Duration) []*note.Note {
	limit := d.cfg.Bands.Loosest()
	var out []*note.Note
	for _, n := range d.notes {
		if n.State != note.StateActive {
			continue
		}
		if n.YAt(now, d.cfg.LineY)-d.cfg.LineY > limit {
			out = append(out, n)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Timing != out[j].Timing {
			return out[i].Timing < out[j].Timing
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// Exited returns the tracked notes, judged or not, whose shape has left the
// bottom of the play field at track time now, ordered by id.
func (d *Detector) Exited(now time.Duration) []*note.Note {
	var out []*note.Note
	for _, n := range d.notes {
		top := n.YAt(now, d.cfg.LineY) - n.Shape.HalfExtents().Y
		if top > d.cfg.FieldHeight {
			out = append(out, n)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Clear drops every tracked note.
func (d *Detector) Clear() {
	clear(d.notes)
	d.grid.Clear()
	d.maxSpeed = 0
}
