package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/vovakirdan/notefall/internal/generator"
)

// MenuItem is a selectable generation strategy.
type MenuItem struct {
	Strategy generator.Strategy
	Blurb    string
}

var strategyBlurbs = map[generator.Strategy]string{
	generator.StrategySequential:   "replay a catalog pattern",
	generator.StrategyBurst:        "clustered runs across lanes",
	generator.StrategyAlternating:  "outer and inner lanes in turn",
	generator.StrategySynchronized: "chords on every lane",
	generator.StrategyAdaptive:     "follows difficulty and misses",
}

// MenuModel is the Bubble Tea model for the strategy picker.
type MenuModel struct {
	items    []MenuItem
	cursor   int
	width    int
	height   int
	quitting bool
	selected *MenuItem // Set when user picks a strategy
	openRuns bool      // True if user pressed Tab for the runs board
}

// NewMenuModel creates a new menu model with the cursor on initial.
func NewMenuModel(initial generator.Strategy, width, height int) MenuModel {
	items := make([]MenuItem, 0, len(generator.Strategies))
	cursor := 0
	for i, s := range generator.Strategies {
		if s == initial {
			cursor = i
		}
		items = append(items, MenuItem{Strategy: s, Blurb: strategyBlurbs[s]})
	}

	return MenuModel{
		items:  items,
		cursor: cursor,
		width:  width,
		height: height,
	}
}

// Init initializes the menu model.
func (m MenuModel) Init() tea.Cmd {
	return nil
}

// Update handles messages for the menu.
func (m MenuModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	}

	return m, nil
}

// handleKey processes keyboard input for menu navigation.
func (m MenuModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch MapKeyToMenuAction(msg) {
	case MenuActionQuit:
		m.quitting = true
		return m, tea.Quit

	case MenuActionUp:
		if m.cursor > 0 {
			m.cursor--
		}

	case MenuActionDown:
		if m.cursor < len(m.items)-1 {
			m.cursor++
		}

	case MenuActionSelect:
		if len(m.items) > 0 {
			selected := m.items[m.cursor]
			m.selected = &selected
			return m, tea.Quit
		}

	case MenuActionRuns:
		m.openRuns = true
		return m, tea.Quit
	}

	return m, nil
}

// View renders the menu.
func (m MenuModel) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder

	b.WriteString("\n")
	b.WriteString(centerText("  N O T E F A L L  ", m.width))
	b.WriteString("\n\n")
	b.WriteString(centerText("Select a strategy", m.width))
	b.WriteString("\n\n")

	for i, item := range m.items {
		cursor := "  "
		if i == m.cursor {
			cursor = "> "
		}
		line := fmt.Sprintf("%s%-13s %s", cursor, item.Strategy, item.Blurb)
		b.WriteString(centerText(line, m.width))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	controls := "Up/Down: Navigate  |  Enter: Play  |  Tab: Runs  |  Q: Quit"
	b.WriteString(centerText(controls, m.width))
	b.WriteString("\n")

	return b.String()
}

// MenuResult holds the result of running the menu.
type MenuResult struct {
	Strategy  generator.Strategy
	WantsRuns bool
	Quit      bool
}

// Result reports what the user chose.
func (m MenuModel) Result() MenuResult {
	switch {
	case m.openRuns:
		return MenuResult{WantsRuns: true}
	case m.quitting || m.selected == nil:
		return MenuResult{Quit: true}
	}
	return MenuResult{Strategy: m.selected.Strategy}
}

// RunMenu runs the menu and returns the selection result.
func RunMenu(initial generator.Strategy, width, height int) (MenuResult, error) {
	p := tea.NewProgram(
		NewMenuModel(initial, width, height),
		tea.WithAltScreen(),
	)

	finalModel, err := p.Run()
	if err != nil {
		return MenuResult{}, err
	}

	m, ok := finalModel.(MenuModel)
	if !ok {
		return MenuResult{Quit: true}, nil
	}
	return m.Result(), nil
}
