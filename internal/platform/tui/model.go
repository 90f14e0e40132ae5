package tui

import (
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"

	"github.com/vovakirdan/notefall/internal/core"
	"github.com/vovakirdan/notefall/internal/engine"
	"github.com/vovakirdan/notefall/internal/storage"
)

// flashFor is how long the last judgment stays on screen.
const flashFor = 400 * time.Millisecond

// Options configures the lane view.
type Options struct {
	Keys   []string       // One key per lane; DefaultLaneKeys when empty
	Store  *storage.Store // Run reports are saved on exit when set
	Logger *log.Logger
	Width  int
	Height int
}

// Model is the Bubble Tea model for one engine session. Track time comes
// from a manual clock advanced by the tick deltas, so pausing freezes the
// track.
type Model struct {
	engine *engine.Engine
	clock  *core.ManualClock
	store  *storage.Store
	logger *log.Logger

	keys   LaneKeyMap
	help   help.Model
	screen *core.Screen

	tickRate int
	lastTick time.Time
	paused   bool
	quitting bool
	saved    bool
	halted   error

	last   *engine.JudgmentResult
	lastAt time.Duration
	whiff  bool
}

// NewModel creates the lane view for an initialized engine whose clock is
// clock.
func NewModel(e *engine.Engine, clock *core.ManualClock, opts Options) Model {
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	w, h := opts.Width, opts.Height
	if w <= 0 || h <= 0 {
		w, h = 80, 24
	}
	cfg := e.Config()

	return Model{
		engine:   e,
		clock:    clock,
		store:    opts.Store,
		logger:   logger,
		keys:     NewLaneKeyMap(cfg.Notes.Lanes, opts.Keys),
		help:     help.New(),
		screen:   core.NewScreen(w, max(1, h-1)),
		tickRate: cfg.Timing.TargetFPS,
	}
}

// Init starts the tick loop.
func (m Model) Init() tea.Cmd {
	return tickCmd(m.tickRate)
}

// Update handles messages and updates the model state.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.screen.Resize(msg.Width, max(1, msg.Height-1))
		m.help.Width = msg.Width
		return m, nil

	case TickMsg:
		return m.handleTick(time.Time(msg))
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.quitting = true
		m.save()
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		return m, nil

	case key.Matches(msg, m.keys.Pause):
		m.paused = !m.paused
		if m.paused {
			m.engine.Stop()
		} else if err := m.engine.Start(); err != nil {
			m.logger.Warn("resume failed", "err", err)
		}
		return m, nil
	}

	if m.paused {
		return m, nil
	}
	if lane, ok := m.keys.LaneFor(msg); ok {
		res := m.engine.OnHitAttempt(lane, m.engine.NowMillis())
		m.last = res
		m.whiff = res == nil
		m.lastAt = m.clock.Now()
	}
	return m, nil
}

func (m Model) handleTick(t time.Time) (tea.Model, tea.Cmd) {
	if !m.paused {
		m.clock.Advance(trackDelta(m.lastTick, t))
	}
	m.lastTick = t
	if m.paused {
		return m, tickCmd(m.tickRate)
	}

	if err := m.engine.Frame(); err != nil {
		m.logger.Error("engine halted", "err", err)
		m.halted = err
		m.save()
		return m, tea.Quit
	}
	return m, tickCmd(m.tickRate)
}

// save records the session once, if anything was judged.
func (m *Model) save() {
	if m.store == nil || m.saved {
		return
	}
	m.saved = true
	if m.engine.Stats().Judged() == 0 {
		return
	}
	id, err := m.store.SaveRun(storage.ReportOf(m.engine))
	if err != nil {
		m.logger.Warn("save run failed", "err", err)
		return
	}
	m.logger.Info("run saved", "id", id)
}

// View renders the current state to a string for display.
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	cfg := m.engine.Config()
	m.screen.Clear()
	l := NewLayout(
		cfg.Notes.Lanes, cfg.Spatial.LaneWidth, cfg.Spatial.LineY, cfg.Spatial.FieldHeight,
		m.screen.Width(), m.screen.Height(), 1,
	)
	DrawField(m.screen, l, m.engine.Snapshot())

	if row, ok := l.Row(cfg.Spatial.LineY); ok && row > 0 {
		if text, color, ok := m.flash(); ok {
			m.screen.DrawText(l.Left+(l.Lanes*l.CellWidth-len(text))/2+1, row-1, text, color)
		}
	}
	if m.paused {
		m.screen.DrawText(centerX(m.screen.Width(), "PAUSED"), l.Rows/2, "PAUSED", core.ColorHUD)
	}
	DrawHUD(m.screen, l.Rows, m.engine.Stats(),
		m.engine.Scheduler().AverageFPS(), m.engine.Scheduler().Quality())

	return RenderScreen(m.screen) + "\n" + m.help.View(m.keys)
}

// flash returns the judgment text to show above the line, if any.
func (m Model) flash() (string, core.Color, bool) {
	if m.clock.Now()-m.lastAt > flashFor {
		return "", core.ColorDefault, false
	}
	switch {
	case m.last != nil:
		return fmt.Sprintf("%s +%d", m.last.Type, m.last.ScoreDelta), JudgmentColor(m.last.Type), true
	case m.whiff:
		return "-", core.ColorHUD, true
	}
	return "", core.ColorDefault, false
}

func centerX(width int, text string) int {
	return max(0, (width-len(text))/2)
}

// Run starts the engine and the Bubble Tea program. It returns the engine
// error if a frame halted the session.
func Run(e *engine.Engine, clock *core.ManualClock, opts Options) error {
	if err := e.Start(); err != nil {
		return err
	}
	defer e.Stop()

	p := tea.NewProgram(
		NewModel(e, clock, opts),
		tea.WithAltScreen(), // Use alternate screen buffer
	)

	final, err := p.Run()
	if err != nil {
		return err
	}
	if fm, ok := final.(Model); ok && fm.halted != nil {
		return fm.halted
	}
	return nil
}
