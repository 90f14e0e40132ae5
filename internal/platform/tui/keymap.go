package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
)

// DefaultLaneKeys are the home-row keys for lanes 0..3.
var DefaultLaneKeys = []string{"d", "f", "j", "k"}

// LaneKeyMap defines the key bindings for the lane view.
// It centralizes bindings and makes them testable.
type LaneKeyMap struct {
	Lanes []key.Binding
	Pause key.Binding
	Help  key.Binding
	Quit  key.Binding
}

// NewLaneKeyMap binds one key per lane. Lanes beyond the given keys stay
// unbound.
func NewLaneKeyMap(lanes int, keys []string) LaneKeyMap {
	if len(keys) == 0 {
		keys = DefaultLaneKeys
	}
	km := LaneKeyMap{
		Pause: key.NewBinding(
			key.WithKeys("p", "esc"),
			key.WithHelp("p", "pause"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "help"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
	for i := 0; i < lanes && i < len(keys); i++ {
		k := keys[i]
		km.Lanes = append(km.Lanes, key.NewBinding(
			key.WithKeys(k, strings.ToUpper(k)),
			key.WithHelp(k, "lane "+string(rune('1'+i))),
		))
	}
	return km
}

// ShortHelp returns key bindings for the short help view.
func (k LaneKeyMap) ShortHelp() []key.Binding {
	return append(append([]key.Binding{}, k.Lanes...), k.Pause, k.Quit)
}

// FullHelp returns key bindings for the full help view.
func (k LaneKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		k.Lanes,
		{k.Pause, k.Help, k.Quit},
	}
}

// LaneFor maps a key message to a lane index.
func (k LaneKeyMap) LaneFor(msg tea.KeyMsg) (int, bool) {
	for i, b := range k.Lanes {
		if key.Matches(msg, b) {
			return i, true
		}
	}
	return 0, false
}

// MenuAction represents a menu-specific action derived from input.
type MenuAction int

const (
	MenuActionNone MenuAction = iota
	MenuActionUp
	MenuActionDown
	MenuActionSelect
	MenuActionRuns
	MenuActionQuit
)

// MapKeyToMenuAction translates a key to a menu action.
func MapKeyToMenuAction(msg tea.KeyMsg) MenuAction {
	switch msg.String() {
	case "ctrl+c", "q":
		return MenuActionQuit
	case "w", "up", "k": // vim-style k for up
		return MenuActionUp
	case "s", "down", "j": // vim-style j for down
		return MenuActionDown
	case "enter", " ":
		return MenuActionSelect
	case "tab":
		return MenuActionRuns
	}
	return MenuActionNone
}
