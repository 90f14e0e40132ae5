// Package difficulty turns periodic player-performance signals into the
// difficulty scalar the note generator consumes.
package difficulty

import (
	"fmt"
	"strings"

	"github.com/vovakirdan/notefall/internal/core"
)

// Preset names a starting difficulty.
type Preset string

const (
	PresetEasy   Preset = "easy"
	PresetNormal Preset = "normal"
	PresetHard   Preset = "hard"
	PresetFixed  Preset = "fixed" // Stays at InitialLevel and ignores signals
)

// Presets lists every preset.
var Presets = []Preset{PresetEasy, PresetNormal, PresetHard, PresetFixed}

// Level returns the preset's starting level. Fixed has none of its own and
// reports ok false.
func (p Preset) Level() (float64, bool) {
	switch p {
	case PresetEasy:
		return 0.0, true
	case PresetNormal:
		return 0.3, true
	case PresetHard:
		return 0.7, true
	default:
		return 0, false
	}
}

// ParsePreset maps a config name onto a preset.
func ParsePreset(s string) (Preset, error) {
	p := Preset(strings.ToLower(strings.TrimSpace(s)))
	switch p {
	case PresetEasy, PresetNormal, PresetHard, PresetFixed:
		return p, nil
	case "":
		return PresetNormal, nil
	default:
		return PresetNormal, fmt.Errorf("difficulty: unknown preset %q", s)
	}
}

// Config configures a Controller.
type Config struct {
	Preset       Preset  `yaml:"preset"`
	InitialLevel float64 `yaml:"initial_level"` // Read only by the fixed preset
	Smoothing    float64 `yaml:"smoothing"`     // Weight of each new signal, in (0, 1]
	Enabled      bool    `yaml:"enabled"`       // Progression on/off
}

// DefaultConfig returns the stock controller settings.
func DefaultConfig() Config {
	return Config{
		Preset:    PresetNormal,
		Smoothing: 0.2,
		Enabled:   true,
	}
}

// comboCeiling is the combo length at which the streak bonus saturates.
const comboCeiling = 50

// Signal is one performance sample as fed to the controller.
type Signal struct {
	Score    int
	Combo    int
	Accuracy float64
}

// Controller keeps an exponentially smoothed difficulty level in [0, 1].
type Controller struct {
	cfg     Config
	initial float64
	level   float64
	last    Signal
	samples int
}

// New creates a controller at its preset's initial level. An empty preset
// means normal, as in ParsePreset.
func New(cfg Config) *Controller {
	if cfg.Preset == "" {
		cfg.Preset = PresetNormal
	}
	if cfg.Smoothing <= 0 || cfg.Smoothing > 1 {
		cfg.Smoothing = DefaultConfig().Smoothing
	}
	initial := core.ClampF(cfg.InitialLevel, 0, 1)
	if lvl, ok := cfg.Preset.Level(); ok {
		initial = lvl
	}
	return &Controller{cfg: cfg, initial: initial, level: initial}
}

// SetInitialLevel overrides the floor and restarts from it.
func (c *Controller) SetInitialLevel(level float64) {
	c.initial = core.ClampF(level, 0, 1)
	c.level = c.initial
}

// SetEnabled enables or disables progression.
func (c *Controller) SetEnabled(enabled bool) {
	c.cfg.Enabled = enabled
}

// IsEnabled reports whether signals move the level.
func (c *Controller) IsEnabled() bool {
	return c.cfg.Enabled && c.cfg.Preset != PresetFixed
}

// Preset returns the configured preset.
func (c *Controller) Preset() Preset {
	return c.cfg.Preset
}

// Signal folds one performance sample into the level. Accuracy dominates,
// combo streaks push the level up and accuracy under one half pulls it down.
// With progression enabled the level never drops below the initial level.
func (c *Controller) Signal(score, combo int, accuracy float64) {
	c.last = Signal{Score: score, Combo: combo, Accuracy: accuracy}
	c.samples++
	if !c.IsEnabled() {
		return
	}

	acc := core.ClampF(accuracy, 0, 1)
	streak := core.ClampF(float64(combo)/comboCeiling, 0, 1)
	target := 0.7*acc + 0.3*streak
	if acc < 0.5 {
		target -= 0.5 - acc
	}
	target = core.ClampF(target, 0, 1)

	c.level = core.Lerp(c.level, target, c.cfg.Smoothing)
	if c.level < c.initial {
		c.level = c.initial
	}
}

// Level returns the current difficulty level.
func (c *Controller) Level() float64 {
	return c.level
}

// Last returns the most recent signal and how many have been received.
func (c *Controller) Last() (Signal, int) {
	return c.last, c.samples
}

// Reset returns to the initial level and forgets past signals.
func (c *Controller) Reset() {
	c.level = c.initial
	c.last = Signal{}
	c.samples = 0
}
