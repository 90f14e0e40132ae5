package tui

import (
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/vovakirdan/notefall/internal/config"
	"github.com/vovakirdan/notefall/internal/core"
	"github.com/vovakirdan/notefall/internal/engine"
	"github.com/vovakirdan/notefall/internal/generator"
	"github.com/vovakirdan/notefall/internal/note"
)

func runeKey(r rune) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}
}

func TestLaneFor(t *testing.T) {
	km := NewLaneKeyMap(4, nil)

	tests := []struct {
		key  tea.KeyMsg
		lane int
		ok   bool
	}{
		{runeKey('d'), 0, true},
		{runeKey('f'), 1, true},
		{runeKey('j'), 2, true},
		{runeKey('k'), 3, true},
		{runeKey('D'), 0, true},
		{runeKey('x'), 0, false},
		{tea.KeyMsg{Type: tea.KeyEnter}, 0, false},
	}

	for _, tt := range tests {
		lane, ok := km.LaneFor(tt.key)
		if lane != tt.lane || ok != tt.ok {
			t.Errorf("LaneFor(%q) = %d, %v; expected %d, %v", tt.key.String(), lane, ok, tt.lane, tt.ok)
		}
	}
}

func TestLaneKeyMapFewerKeysThanLanes(t *testing.T) {
	km := NewLaneKeyMap(3, []string{"a", "s"})
	if len(km.Lanes) != 2 {
		t.Fatalf("Expected 2 bound lanes, got %d", len(km.Lanes))
	}
	if _, ok := km.LaneFor(runeKey('d')); ok {
		t.Error("Default keys should not apply when custom keys are given")
	}
	if lane, ok := km.LaneFor(runeKey('s')); !ok || lane != 1 {
		t.Errorf("LaneFor(s) = %d, %v; expected 1, true", lane, ok)
	}
}

func TestMapKeyToMenuAction(t *testing.T) {
	tests := []struct {
		key  tea.KeyMsg
		want MenuAction
	}{
		{runeKey('q'), MenuActionQuit},
		{tea.KeyMsg{Type: tea.KeyUp}, MenuActionUp},
		{runeKey('j'), MenuActionDown},
		{tea.KeyMsg{Type: tea.KeyEnter}, MenuActionSelect},
		{tea.KeyMsg{Type: tea.KeyTab}, MenuActionRuns},
		{runeKey('z'), MenuActionNone},
	}

	for _, tt := range tests {
		if got := MapKeyToMenuAction(tt.key); got != tt.want {
			t.Errorf("MapKeyToMenuAction(%q) = %d, expected %d", tt.key.String(), got, tt.want)
		}
	}
}

func TestMenuSelectsStrategy(t *testing.T) {
	m := NewMenuModel(generator.StrategyAdaptive, 80, 24)

	updated, _ := m.Update(tea.KeyMsg{Type: tea.KeyUp})
	updated, cmd := updated.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if cmd == nil {
		t.Fatal("Expected a quit command after selecting")
	}

	res := updated.(MenuModel).Result()
	if res.Quit || res.WantsRuns || res.Strategy != generator.StrategySynchronized {
		t.Errorf("Result() = %+v, expected synchronized", res)
	}

	updated, _ = NewMenuModel(generator.StrategyBurst, 80, 24).Update(tea.KeyMsg{Type: tea.KeyTab})
	if !updated.(MenuModel).Result().WantsRuns {
		t.Error("Tab should open the runs board")
	}
}

func TestTrackDelta(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		prev time.Time
		now  time.Time
		want time.Duration
	}{
		{"first tick", time.Time{}, base, 0},
		{"normal", base, base.Add(16 * time.Millisecond), 16 * time.Millisecond},
		{"stall capped", base, base.Add(2 * time.Second), maxTickGap},
		{"backwards", base, base.Add(-time.Millisecond), 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := trackDelta(tt.prev, tt.now); got != tt.want {
				t.Errorf("trackDelta() = %v, expected %v", got, tt.want)
			}
		})
	}
}

func TestLayoutRow(t *testing.T) {
	l := NewLayout(4, 100, 800, 1000, 80, 21, 1)
	if l.Rows != 20 {
		t.Fatalf("Rows = %d, expected 20", l.Rows)
	}

	tests := []struct {
		y   float64
		row int
		ok  bool
	}{
		{0, 0, true},
		{800, 16, true},
		{999, 19, true},
		{1000, 0, false},
		{-1, 0, false},
	}
	for _, tt := range tests {
		row, ok := l.Row(tt.y)
		if row != tt.row || ok != tt.ok {
			t.Errorf("Row(%v) = %d, %v; expected %d, %v", tt.y, row, ok, tt.row, tt.ok)
		}
	}
}

func TestDrawField(t *testing.T) {
	screen := core.NewScreen(40, 11)
	l := NewLayout(2, 100, 800, 1000, 40, 11, 1)

	DrawField(screen, l, []engine.NoteView{
		{ID: 1, Lane: 1, Y: 500, Subtype: note.SubtypeTap},
		{ID: 2, Lane: 0, Y: 2000}, // Off the field
	})

	lineRow, _ := l.Row(800)
	if c := screen.GetCell(l.Left+1, lineRow); c.Rune != '═' || c.Color != core.ColorLine {
		t.Errorf("Judgment line cell = %q/%d", c.Rune, c.Color)
	}

	row, _ := l.Row(500)
	cell := screen.GetCell(l.Left+l.CellWidth+1, row)
	if cell.Rune != '█' || cell.Color != core.ColorTap {
		t.Errorf("Note cell = %q/%d, expected tap glyph", cell.Rune, cell.Color)
	}
	if strings.Count(screen.String(), "█") != l.CellWidth-1 {
		t.Error("Off-field note should not be drawn")
	}

	if out := RenderScreen(screen); !strings.Contains(out, "█") {
		t.Error("RenderScreen() lost the note glyph")
	}

	DrawField(screen, l, []engine.NoteView{{ID: 3, Lane: 0, Y: 790, InZone: true}})
	zoneRow, _ := l.Row(790)
	if c := screen.GetCell(l.Left+1, zoneRow); c.Rune != '█' || c.Color != core.ColorPerfect {
		t.Errorf("In-zone note cell = %q/%d, expected highlighted tap glyph", c.Rune, c.Color)
	}
}

func newTestModel(t *testing.T) (Model, *engine.Engine, *core.ManualClock) {
	t.Helper()
	cfg := config.DefaultEngineConfig()
	cfg.Notes.Lanes = 1
	cfg.Generator.Strategy = "burst"
	cfg.Generator.BurstSize = 1
	cfg.Difficulty.Enabled = false

	clock := core.NewManualClock(0)
	e := engine.New(cfg, engine.WithClock(clock))
	if err := e.Initialize(cfg); err != nil {
		t.Fatalf("Initialize() failed: %v", err)
	}
	if err := e.Start(); err != nil {
		t.Fatalf("Start() failed: %v", err)
	}
	return NewModel(e, clock, Options{Width: 40, Height: 20}), e, clock
}

func TestModelTicksAndHits(t *testing.T) {
	m, e, clock := newTestModel(t)
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	var tm tea.Model = m
	for i := 0; i <= 62; i++ {
		tm, _ = tm.Update(TickMsg(base.Add(time.Duration(i) * 16 * time.Millisecond)))
	}
	if clock.Now() != 992*time.Millisecond {
		t.Fatalf("Track time = %v, expected 992ms", clock.Now())
	}
	if e.Stats().Spawned == 0 {
		t.Fatal("Expected spawned notes")
	}

	tm, _ = tm.Update(runeKey('d'))
	st := e.Stats()
	if st.Counts[note.Perfect] != 1 || st.Score != 300 {
		t.Errorf("Stats after hit = %+v, expected one perfect", st)
	}

	view := tm.View()
	if !strings.Contains(view, "perfect +300") {
		t.Error("View should flash the last judgment")
	}
	if !strings.Contains(view, "score 300") {
		t.Error("View should show the score")
	}
}

func TestModelPauseFreezesTrack(t *testing.T) {
	m, e, clock := newTestModel(t)
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	var tm tea.Model = m
	tm, _ = tm.Update(TickMsg(base))
	tm, _ = tm.Update(TickMsg(base.Add(16 * time.Millisecond)))
	tm, _ = tm.Update(runeKey('p'))
	if e.Running() {
		t.Fatal("Pause should stop the engine")
	}

	tm, _ = tm.Update(TickMsg(base.Add(32 * time.Millisecond)))
	tm, _ = tm.Update(TickMsg(base.Add(48 * time.Millisecond)))
	if clock.Now() != 16*time.Millisecond {
		t.Errorf("Track time moved while paused: %v", clock.Now())
	}
	if !strings.Contains(tm.View(), "PAUSED") {
		t.Error("View should show the pause banner")
	}

	tm, _ = tm.Update(runeKey('p'))
	tm, _ = tm.Update(TickMsg(base.Add(64 * time.Millisecond)))
	if !e.Running() || clock.Now() != 32*time.Millisecond {
		t.Errorf("After resume running=%v now=%v", e.Running(), clock.Now())
	}
}

func TestRunsBoardWithoutStore(t *testing.T) {
	m := NewRunsModel(nil, 100, 30)
	if !strings.Contains(m.View(), "No runs recorded yet") {
		t.Error("Empty board should say so")
	}

	updated, _ := m.Update(tea.KeyMsg{Type: tea.KeyTab})
	if got := updated.(RunsModel).strategy(); got != generator.Strategies[0].String() {
		t.Errorf("strategy() after tab = %q", got)
	}
	updated, _ = updated.Update(tea.KeyMsg{Type: tea.KeyShiftTab})
	updated, _ = updated.Update(tea.KeyMsg{Type: tea.KeyShiftTab})
	if got := updated.(RunsModel).strategy(); got != generator.Strategies[len(generator.Strategies)-1].String() {
		t.Errorf("strategy() after wrapping back = %q", got)
	}
}
