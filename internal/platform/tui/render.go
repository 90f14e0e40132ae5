package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/vovakirdan/notefall/internal/core"
	"github.com/vovakirdan/notefall/internal/engine"
	"github.com/vovakirdan/notefall/internal/note"
)

// colorStyles maps core.Color to lipgloss styles.
var colorStyles = map[core.Color]lipgloss.Style{
	core.ColorDefault: lipgloss.NewStyle(),
	core.ColorLane:    lipgloss.NewStyle().Foreground(lipgloss.Color("238")),
	core.ColorLine:    lipgloss.NewStyle().Foreground(lipgloss.Color("15")).Bold(true),
	core.ColorTap:     lipgloss.NewStyle().Foreground(lipgloss.Color("14")),
	core.ColorHold:    lipgloss.NewStyle().Foreground(lipgloss.Color("13")),
	core.ColorSlide:   lipgloss.NewStyle().Foreground(lipgloss.Color("208")),
	core.ColorPerfect: lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true),
	core.ColorGreat:   lipgloss.NewStyle().Foreground(lipgloss.Color("10")),
	core.ColorGood:    lipgloss.NewStyle().Foreground(lipgloss.Color("12")),
	core.ColorBad:     lipgloss.NewStyle().Foreground(lipgloss.Color("5")),
	core.ColorMiss:    lipgloss.NewStyle().Foreground(lipgloss.Color("9")),
	core.ColorHUD:     lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
}

// RenderScreen converts a Screen buffer to a styled string for display.
// Groups adjacent cells with the same color to minimize ANSI escape sequences.
func RenderScreen(s *core.Screen) string {
	var sb strings.Builder
	// Pre-allocate with extra space for ANSI codes
	sb.Grow(s.Width()*s.Height()*2 + s.Height())

	for y := 0; y < s.Height(); y++ {
		if y > 0 {
			sb.WriteRune('\n')
		}

		x := 0
		for x < s.Width() {
			cell := s.GetCell(x, y)
			startColor := cell.Color

			var run strings.Builder
			for x < s.Width() {
				cell = s.GetCell(x, y)
				if cell.Color != startColor {
					break
				}
				run.WriteRune(cell.Rune)
				x++
			}

			style, ok := colorStyles[startColor]
			if !ok {
				style = colorStyles[core.ColorDefault]
			}
			sb.WriteString(style.Render(run.String()))
		}
	}
	return sb.String()
}

// Layout maps the play field onto terminal cells.
type Layout struct {
	Lanes       int
	LaneWidth   float64 // Play-field units per lane
	LineY       float64
	FieldHeight float64
	CellWidth   int // Terminal columns per lane
	Rows        int // Terminal rows for the field
	Left        int // First column of lane 0
}

// NewLayout fits lanes into a w x h terminal area, keeping hudRows free at
// the bottom.
func NewLayout(lanes int, laneWidth, lineY, fieldHeight float64, w, h, hudRows int) Layout {
	cellW := 7
	if lanes > 0 && (w-2)/lanes < cellW {
		cellW = max(3, (w-2)/lanes)
	}
	rows := max(4, h-hudRows)
	left := max(0, (w-cellW*lanes)/2)
	return Layout{
		Lanes:       lanes,
		LaneWidth:   laneWidth,
		LineY:       lineY,
		FieldHeight: fieldHeight,
		CellWidth:   cellW,
		Rows:        rows,
		Left:        left,
	}
}

// Row maps a play-field Y onto a terminal row. ok is false off screen.
func (l Layout) Row(y float64) (int, bool) {
	if y < 0 || y >= l.FieldHeight {
		return 0, false
	}
	return int(y / l.FieldHeight * float64(l.Rows)), true
}

// DrawField draws the lanes, the judgment line and every tracked note.
func DrawField(dst *core.Screen, l Layout, notes []engine.NoteView) {
	for lane := 0; lane <= l.Lanes; lane++ {
		dst.DrawVLine(l.Left+lane*l.CellWidth, 0, l.Rows, '│', core.ColorLane)
	}
	if row, ok := l.Row(l.LineY); ok {
		dst.DrawHLine(l.Left, row, l.Lanes*l.CellWidth+1, '═', core.ColorLine)
	}

	for _, n := range notes {
		row, ok := l.Row(n.Y)
		if !ok || n.Lane >= l.Lanes {
			continue
		}
		x := l.Left + n.Lane*l.CellWidth + 1
		glyph, color := noteGlyph(n)

		if n.Subtype != note.SubtypeTap && n.HoldFor > 0 {
			tail := float64(n.HoldFor.Milliseconds()) / l.FieldHeight * float64(l.Rows)
			top := max(0, row-int(tail))
			for r := top; r < row; r++ {
				dst.DrawText(x+l.CellWidth/2-1, r, "┃", color)
			}
		}
		dst.DrawText(x, row, strings.Repeat(string(glyph), l.CellWidth-1), color)
	}
}

func noteGlyph(n engine.NoteView) (rune, core.Color) {
	if n.Judged {
		return '·', core.ColorMiss
	}
	glyph, color := '█', core.ColorTap
	switch n.Subtype {
	case note.SubtypeHold:
		glyph, color = '▓', core.ColorHold
	case note.SubtypeSlide:
		glyph, color = '▒', core.ColorSlide
	}
	if n.InZone {
		color = core.ColorPerfect
	}
	return glyph, color
}

// JudgmentColor returns the color a judgment is flashed in.
func JudgmentColor(j note.JudgmentType) core.Color {
	switch j {
	case note.Perfect:
		return core.ColorPerfect
	case note.Great:
		return core.ColorGreat
	case note.Good:
		return core.ColorGood
	case note.Bad:
		return core.ColorBad
	default:
		return core.ColorMiss
	}
}

// DrawHUD draws score, combo and accuracy on row y.
func DrawHUD(dst *core.Screen, y int, st engine.Stats, fps, quality float64) {
	line := fmt.Sprintf("score %d  combo %d  acc %.1f%%  fps %.0f  q %.2f",
		st.Score, st.Combo, st.Accuracy()*100, fps, quality)
	dst.DrawText(1, y, line, core.ColorHUD)
}
