package spatial

import (
	"testing"
	"time"

	"github.com/vovakirdan/notefall/internal/core"
	"github.com/vovakirdan/notefall/internal/note"
)

const testLineY = 500.0

func newTestDetector() *Detector {
	return NewDetector(DetectorConfig{
		Lanes:       4,
		LaneWidth:   100,
		LineY:       testLineY,
		FieldHeight: 700,
		CellSize:    96,
		Bands:       note.Bands{Perfect: 10, Great: 25, Good: 50, Bad: 80},
	})
}

// addNote inserts an active note positioned for track time now.
func addNote(d *Detector, id uint64, lane int, timing, now time.Duration, speed float64) *note.Note {
	n := &note.Note{
		ID:       id,
		Lane:     lane,
		Timing:   timing,
		Speed:    speed,
		Velocity: core.V(0, speed),
		Shape:    note.Circle(8),
		State:    note.StateActive,
	}
	n.Position = core.V(d.LaneCenter(lane), n.YAt(now, testLineY))
	d.Insert(n)
	return n
}

func ms(v int) time.Duration {
	return time.Duration(v) * time.Millisecond
}

func TestHitPicksSmallestDepth(t *testing.T) {
	d := newTestDetector()
	now := ms(1000)
	shallow := addNote(d, 1, 0, ms(1005), now, 1) // 5 above the line
	addNote(d, 2, 0, ms(988), now, 1)             // 12 below the line
	d.Advance(now)

	c, jt, ok := d.Hit(0, now)
	if !ok {
		t.Fatal("expected a hit")
	}
	if c.Note != shallow {
		t.Errorf("hit note %d, expected %d", c.Note.ID, shallow.ID)
	}
	if jt != note.Perfect {
		t.Errorf("judgment = %v, expected perfect", jt)
	}
	if !near(c.Depth, 5) {
		t.Errorf("depth = %v, expected 5", c.Depth)
	}
}

func TestHitTiesGoToEarlierNote(t *testing.T) {
	d := newTestDetector()
	now := ms(1000)
	addNote(d, 1, 0, ms(1010), now, 1) // 10 above
	early := addNote(d, 2, 0, ms(990), now, 1)
	d.Advance(now)

	c, _, ok := d.Hit(0, now)
	if !ok || c.Note != early {
		t.Fatalf("expected the earlier-timed note to win the tie")
	}
}

func TestHitBandBoundaryIsInclusive(t *testing.T) {
	tests := []struct {
		name   string
		timing time.Duration
		want   note.JudgmentType
		wantOK bool
	}{
		{"exactly perfect limit", ms(1010), note.Perfect, true},
		{"just past perfect", ms(1011), note.Great, true},
		{"exactly great limit", ms(975), note.Great, true},
		{"good", ms(1040), note.Good, true},
		{"exactly bad limit", ms(1080), note.Bad, true},
		{"beyond bad", ms(1081), note.Miss, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := newTestDetector()
			now := ms(1000)
			addNote(d, 1, 2, tt.timing, now, 1)
			d.Advance(now)

			_, jt, ok := d.Hit(2, now)
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, expected %v", ok, tt.wantOK)
			}
			if ok && jt != tt.want {
				t.Errorf("judgment = %v, expected %v", jt, tt.want)
			}
		})
	}
}

func TestHitUsesHitTimestamp(t *testing.T) {
	d := newTestDetector()
	addNote(d, 1, 1, ms(1000), ms(900), 1)
	d.Advance(ms(900)) // 100 above the line at frame time

	if _, _, ok := d.Hit(1, ms(900)); ok {
		t.Fatal("note is out of every band at frame time")
	}
	c, jt, ok := d.Hit(1, ms(998))
	if !ok || jt != note.Perfect || !near(c.Depth, 2) {
		t.Errorf("hit at 998ms = %v %v depth %v, expected perfect at depth 2", ok, jt, c.Depth)
	}
}

func TestHitIgnoresOtherLanesAndJudgedNotes(t *testing.T) {
	d := newTestDetector()
	now := ms(1000)
	addNote(d, 1, 1, ms(1000), now, 1)
	judged := addNote(d, 2, 0, ms(1000), now, 1)
	judged.Judge(note.Judgment{Type: note.Perfect})
	d.Advance(now)

	if _, _, ok := d.Hit(0, now); ok {
		t.Error("judged note must not be hit again")
	}
	if _, _, ok := d.Hit(-1, now); ok {
		t.Error("negative lane must not hit")
	}
	if _, _, ok := d.Hit(4, now); ok {
		t.Error("out-of-range lane must not hit")
	}
	if _, _, ok := d.Hit(1, now); !ok {
		t.Error("lane 1 note should be hit")
	}
}

func TestBroadPhaseSkipsDistantNotes(t *testing.T) {
	d := newTestDetector()
	now := ms(1000)
	addNote(d, 1, 0, ms(1000), now, 1)
	for i := uint64(2); i < 12; i++ {
		addNote(d, i, 0, ms(4000), now, 1) // 3000 units above the line
	}
	d.Advance(now)

	before := d.Stats().BroadCandidates
	if _, _, ok := d.Hit(0, now); !ok {
		t.Fatal("expected a hit")
	}
	if got := d.Stats().BroadCandidates - before; got != 1 {
		t.Errorf("broad candidates = %d, expected 1", got)
	}
}

func TestHitFarFromLastAdvanceStaysBounded(t *testing.T) {
	d := newTestDetector()
	addNote(d, 1, 0, ms(1000), ms(496), 1)
	addNote(d, 2, 1, ms(200000), ms(496), 1) // Arrives long after the last advance
	d.Advance(ms(496))

	tests := []struct {
		name      string
		lane      int
		at        time.Duration
		wantHit   bool
		wantCells bool // Whether the grid is scanned at all
	}{
		{"near", 0, ms(1000), true, true},
		{"far past the note", 0, ms(200000), false, false},
		{"far note arriving", 1, ms(200000), true, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := d.Stats()
			_, _, ok := d.Hit(tt.lane, tt.at)
			if ok != tt.wantHit {
				t.Errorf("Hit(%d, %v) = %v, expected %v", tt.lane, tt.at, ok, tt.wantHit)
			}
			after := d.Stats()
			cells := after.CellsVisited - before.CellsVisited
			if (cells > 0) != tt.wantCells {
				t.Errorf("cells visited = %d", cells)
			}
			if cells > 100 {
				t.Errorf("cells visited = %d, expected at most one lane column", cells)
			}
			if got := after.BroadCandidates - before.BroadCandidates; got > d.Len() {
				t.Errorf("broad candidates = %d, tracked = %d", got, d.Len())
			}
		})
	}
}

func TestQueryReportsZoneOverlaps(t *testing.T) {
	d := newTestDetector()
	now := ms(1000)
	addNote(d, 1, 0, ms(1020), now, 1)
	addNote(d, 2, 3, ms(990), now, 1)
	addNote(d, 3, 2, ms(1500), now, 1) // far above
	d.Advance(now)

	got := d.Query(now, 0)
	if len(got) != 2 {
		t.Fatalf("Query returned %d candidates, expected 2", len(got))
	}
	if got[0].Note.ID != 1 || got[1].Note.ID != 2 {
		t.Errorf("order = %d, %d; expected lane order 1, 2", got[0].Note.ID, got[1].Note.ID)
	}
	if !near(got[0].Depth, 20) || got[0].Swept {
		t.Errorf("first candidate = %+v", got[0])
	}
}

func TestQuerySweepsFastNotesAtHighPrecision(t *testing.T) {
	d := newTestDetector()
	now := ms(1000)
	// Speed 50 puts the note 200 units above the line, clear of the zone,
	// and 800 units further along after one 16ms frame.
	addNote(d, 1, 0, ms(1004), now, 50)
	d.Advance(now)

	got := d.Query(now, 16*time.Millisecond)
	if len(got) != 1 || !got[0].Swept {
		t.Fatalf("Query = %+v, expected one swept candidate", got)
	}
	// Bottom edge at 308 enters the zone top at 420 after 112 of 800 units
	if !near(got[0].TOI, 0.14) {
		t.Errorf("TOI = %v, expected 0.14", got[0].TOI)
	}

	d.SetQuality(0.7)
	if got := d.Query(now, 16*time.Millisecond); len(got) != 0 {
		t.Errorf("medium precision should not sweep, got %+v", got)
	}
}

func TestSetQualityRebuildsGrid(t *testing.T) {
	d := newTestDetector()
	now := ms(1000)
	addNote(d, 1, 0, ms(1000), now, 1)
	d.Advance(now)

	tests := []struct {
		quality float64
		want    Precision
		cell    float64
	}{
		{0.5, PrecisionLow, 192},
		{0.59, PrecisionLow, 192},
		{0.6, PrecisionMedium, 144},
		{0.79, PrecisionMedium, 144},
		{0.8, PrecisionHigh, 96},
		{1, PrecisionHigh, 96},
	}
	for _, tt := range tests {
		d.SetQuality(tt.quality)
		if d.Precision() != tt.want {
			t.Errorf("quality %v: precision = %v, expected %v", tt.quality, d.Precision(), tt.want)
		}
		if d.CellSize() != tt.cell {
			t.Errorf("quality %v: cell size = %v, expected %v", tt.quality, d.CellSize(), tt.cell)
		}
		if _, _, ok := d.Hit(0, now); !ok {
			t.Errorf("quality %v: note lost after rebuild", tt.quality)
		}
	}
	if got := d.Stats().Rebuilds; got != 3 {
		t.Errorf("rebuilds = %d, expected 3", got)
	}
}

func TestExpired(t *testing.T) {
	d := newTestDetector()
	now := ms(1000)
	late := addNote(d, 1, 0, ms(1000), now, 1)
	addNote(d, 2, 1, ms(1100), now, 1)
	d.Advance(now)

	if got := d.Expired(ms(1080)); len(got) != 0 {
		t.Errorf("Expired at the bad limit = %d notes, expected 0", len(got))
	}
	got := d.Expired(ms(1081))
	if len(got) != 1 || got[0] != late {
		t.Errorf("Expired = %v, expected only note 1", got)
	}
}

func TestExitedIncludesJudgedNotes(t *testing.T) {
	d := newTestDetector()
	now := ms(1000)
	missed := addNote(d, 1, 0, ms(1000), now, 1)
	missed.Judge(note.Judgment{Type: note.Miss})
	addNote(d, 2, 1, ms(1300), now, 1)

	// Field bottom 700, radius 8: the top edge passes 700 once y > 708.
	if got := d.Exited(ms(1208)); len(got) != 0 {
		t.Errorf("Exited at the edge = %d notes, expected 0", len(got))
	}
	got := d.Exited(ms(1209))
	if len(got) != 1 || got[0] != missed {
		t.Errorf("Exited = %v, expected only the missed note", got)
	}
}

func TestRemoveStopsTracking(t *testing.T) {
	d := newTestDetector()
	now := ms(1000)
	addNote(d, 1, 0, ms(1000), now, 1)
	d.Remove(1)

	if d.Len() != 0 {
		t.Errorf("Len = %d, expected 0", d.Len())
	}
	if _, _, ok := d.Hit(0, now); ok {
		t.Error("removed note must not be hit")
	}
}
