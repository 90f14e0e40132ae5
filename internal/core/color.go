package core

// Color is a foreground color tag for a screen cell. The terminal host maps
// each tag to an ANSI 256-color style.
type Color uint8

// Colors used by the lane view.
const (
	ColorDefault Color = iota
	ColorLane
	ColorLine
	ColorTap
	ColorHold
	ColorSlide
	ColorPerfect
	ColorGreat
	ColorGood
	ColorBad
	ColorMiss
	ColorHUD
)
