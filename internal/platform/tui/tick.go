// Package tui provides the Bubble Tea host for the note engine.
// It drives engine frames from terminal ticks, maps lane keys to hit
// attempts, and renders the play field.
package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// maxTickGap caps how far track time advances on one tick, so a stalled
// terminal does not skip a whole phrase of notes.
const maxTickGap = 100 * time.Millisecond

// TickMsg is sent to trigger an engine frame.
type TickMsg time.Time

// tickCmd returns a Bubble Tea command that sends tick messages at the specified rate.
func tickCmd(tickRate int) tea.Cmd {
	interval := time.Second / time.Duration(max(1, tickRate))
	return tea.Tick(interval, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}

// trackDelta returns how far track time moves between two ticks.
func trackDelta(prev, now time.Time) time.Duration {
	if prev.IsZero() || !now.After(prev) {
		return 0
	}
	return min(now.Sub(prev), maxTickGap)
}
