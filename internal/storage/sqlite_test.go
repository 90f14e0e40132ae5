package storage

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/vovakirdan/notefall/internal/config"
	"github.com/vovakirdan/notefall/internal/core"
	"github.com/vovakirdan/notefall/internal/engine"
	"github.com/vovakirdan/notefall/internal/note"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestStoreOpenClose(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "nested", "dir", "test.db")

	store, err := Open(dbPath)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer store.Close()

	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Error("Database file was not created")
	}
}

func TestSaveRunAssignsID(t *testing.T) {
	store := openTestStore(t)

	id, err := store.SaveRun(RunReport{Strategy: "adaptive", Score: 100})
	if err != nil {
		t.Fatalf("SaveRun() failed: %v", err)
	}
	if _, err := uuid.Parse(id); err != nil {
		t.Errorf("SaveRun() id %q is not a UUID: %v", id, err)
	}

	if _, err := store.SaveRun(RunReport{ID: id, Strategy: "adaptive"}); err == nil {
		t.Error("expected an error when saving a duplicate id")
	}
}

func TestSaveAndRecentRuns(t *testing.T) {
	store := openTestStore(t)
	base := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	want := RunReport{
		Strategy:   "burst",
		Pattern:    "stream",
		Seed:       7,
		Frames:     3600,
		Score:      12345,
		MaxCombo:   88,
		Accuracy:   0.91,
		Counts:     map[note.JudgmentType]int{note.Perfect: 30, note.Great: 10, note.Good: 5, note.Bad: 2, note.Miss: 3},
		AvgFPS:     59.8,
		MinQuality: 0.7,
		CreatedAt:  base,
	}
	if _, err := store.SaveRun(want); err != nil {
		t.Fatalf("SaveRun() failed: %v", err)
	}
	for i := 1; i <= 3; i++ {
		r := RunReport{Strategy: "adaptive", Score: i, CreatedAt: base.Add(time.Duration(i) * time.Minute)}
		if _, err := store.SaveRun(r); err != nil {
			t.Fatalf("SaveRun() failed: %v", err)
		}
	}

	runs, err := store.RecentRuns(10)
	if err != nil {
		t.Fatalf("RecentRuns() failed: %v", err)
	}
	if len(runs) != 4 {
		t.Fatalf("Expected 4 runs, got %d", len(runs))
	}
	for i, wantScore := range []int{3, 2, 1, 12345} {
		if runs[i].Score != wantScore {
			t.Errorf("runs[%d].Score = %d, expected %d", i, runs[i].Score, wantScore)
		}
	}

	got := runs[3]
	if got.Strategy != want.Strategy || got.Pattern != want.Pattern || got.Seed != want.Seed || got.Frames != want.Frames {
		t.Errorf("Round trip mismatch: %+v", got)
	}
	if got.MaxCombo != 88 || got.Accuracy != 0.91 || got.AvgFPS != 59.8 || got.MinQuality != 0.7 {
		t.Errorf("Round trip mismatch: %+v", got)
	}
	for _, jt := range note.JudgmentTypes {
		if got.Counts[jt] != want.Counts[jt] {
			t.Errorf("Counts[%s] = %d, expected %d", jt, got.Counts[jt], want.Counts[jt])
		}
	}
	if !got.CreatedAt.Equal(base) {
		t.Errorf("CreatedAt = %v, expected %v", got.CreatedAt, base)
	}

	limited, err := store.RecentRuns(2)
	if err != nil {
		t.Fatalf("RecentRuns() failed: %v", err)
	}
	if len(limited) != 2 {
		t.Errorf("Expected 2 runs with limit, got %d", len(limited))
	}

	burst, err := store.RecentRunsFor("burst", 10)
	if err != nil {
		t.Fatalf("RecentRunsFor() failed: %v", err)
	}
	if len(burst) != 1 || burst[0].Score != 12345 {
		t.Errorf("RecentRunsFor(burst) = %+v, expected the single burst run", burst)
	}
}

func TestBestRun(t *testing.T) {
	store := openTestStore(t)

	if _, ok, err := store.BestRun(""); err != nil || ok {
		t.Fatalf("BestRun() on empty store = %v, %v", ok, err)
	}

	for _, r := range []RunReport{
		{Strategy: "adaptive", Score: 500},
		{Strategy: "adaptive", Score: 900},
		{Strategy: "burst", Score: 1200},
	} {
		if _, err := store.SaveRun(r); err != nil {
			t.Fatalf("SaveRun() failed: %v", err)
		}
	}

	tests := []struct {
		strategy string
		want     int
		ok       bool
	}{
		{"", 1200, true},
		{"adaptive", 900, true},
		{"burst", 1200, true},
		{"alternating", 0, false},
	}
	for _, tt := range tests {
		best, ok, err := store.BestRun(tt.strategy)
		if err != nil {
			t.Fatalf("BestRun(%q) failed: %v", tt.strategy, err)
		}
		if ok != tt.ok || best.Score != tt.want {
			t.Errorf("BestRun(%q) = %d, %v; expected %d, %v", tt.strategy, best.Score, ok, tt.want, tt.ok)
		}
	}
}

func TestClearRuns(t *testing.T) {
	store := openTestStore(t)

	if _, err := store.SaveRun(RunReport{Strategy: "adaptive", Score: 1}); err != nil {
		t.Fatalf("SaveRun() failed: %v", err)
	}
	if err := store.ClearRuns(); err != nil {
		t.Fatalf("ClearRuns() failed: %v", err)
	}

	runs, err := store.RecentRuns(10)
	if err != nil {
		t.Fatalf("RecentRuns() failed: %v", err)
	}
	if len(runs) != 0 {
		t.Errorf("Expected 0 runs after clear, got %d", len(runs))
	}
}

func TestReportOf(t *testing.T) {
	cfg := config.DefaultEngineConfig()
	cfg.Notes.Lanes = 1
	cfg.Generator.Strategy = "burst"
	cfg.Generator.BurstSize = 1
	cfg.Generator.Seed = 99
	cfg.Difficulty.Enabled = false

	clock := core.NewManualClock(0)
	e := engine.New(cfg, engine.WithClock(clock))
	if err := e.Initialize(cfg); err != nil {
		t.Fatalf("Initialize() failed: %v", err)
	}
	if err := e.Start(); err != nil {
		t.Fatalf("Start() failed: %v", err)
	}
	for clock.Now() <= time.Second {
		if err := e.Frame(); err != nil {
			t.Fatalf("Frame() failed: %v", err)
		}
		clock.Advance(10 * time.Millisecond)
	}
	if res := e.OnHitAttempt(0, 1000); res == nil || res.Type != note.Perfect {
		t.Fatalf("OnHitAttempt() = %+v, expected perfect", res)
	}

	r := ReportOf(e)
	if r.Strategy != "burst" || r.Seed != 99 || r.Frames != 101 {
		t.Errorf("ReportOf() = %+v", r)
	}
	if r.Score != 300 || r.MaxCombo != 1 || r.Accuracy != 1 || r.Counts[note.Perfect] != 1 {
		t.Errorf("ReportOf() counters = %+v", r)
	}

	store := openTestStore(t)
	id, err := store.SaveRun(r)
	if err != nil {
		t.Fatalf("SaveRun() failed: %v", err)
	}
	best, ok, err := store.BestRun("burst")
	if err != nil || !ok || best.ID != id {
		t.Errorf("BestRun() = %+v, %v, %v; expected run %s", best, ok, err, id)
	}
}
