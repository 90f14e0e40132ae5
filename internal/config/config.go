// Package config provides YAML-based engine configuration loading,
// environment overrides and range clamping.
package config

import (
	"math"
	"time"

	"github.com/vovakirdan/notefall/internal/note"
)

// EngineConfig contains every tunable of the engine.
type EngineConfig struct {
	Timing     TimingConfig     `yaml:"timing"`
	Notes      NotesConfig      `yaml:"notes"`
	Spatial    SpatialConfig    `yaml:"spatial"`
	Pool       PoolConfig       `yaml:"pool"`
	Scheduler  SchedulerConfig  `yaml:"scheduler"`
	Generator  GeneratorConfig  `yaml:"generator"`
	Difficulty DifficultyConfig `yaml:"difficulty"`
}

// TimingConfig defines the frame-rate targets.
type TimingConfig struct {
	TargetFPS int `yaml:"target_fps"`
	MinFPS    int `yaml:"min_fps"`
}

// NotesConfig defines note density and motion.
type NotesConfig struct {
	Lanes         int     `yaml:"lanes"`
	MaxActive     int     `yaml:"max_active"`
	MaxPerSecond  int     `yaml:"max_per_second"`
	MinIntervalMs int     `yaml:"min_interval_ms"` // Per-lane density floor
	Speed         float64 `yaml:"speed"`           // Play-field units per millisecond
	LeadTimeMs    int     `yaml:"lead_time_ms"`    // Spawn this long before arrival
	Shape         string  `yaml:"shape"`           // "circle" or "rect"
	Size          float64 `yaml:"size"`            // Circle radius, or rect height
}

// SpatialConfig defines the play field and judgment tolerances.
type SpatialConfig struct {
	CellSize    float64    `yaml:"cell_size"`
	LaneWidth   float64    `yaml:"lane_width"`
	LineY       float64    `yaml:"line_y"`
	FieldHeight float64    `yaml:"field_height"`
	Bands       note.Bands `yaml:"bands"`
}

// PoolConfig defines note pool sizing.
type PoolConfig struct {
	MinSize             int           `yaml:"min_size"`
	MaxSize             int           `yaml:"max_size"`
	IdleTimeout         time.Duration `yaml:"idle_timeout"`
	MaintenanceInterval time.Duration `yaml:"maintenance_interval"`
}

// SchedulerConfig defines the frame scheduler's fail-safe and sampling.
type SchedulerConfig struct {
	MaxErrors    int           `yaml:"max_errors"`
	PerfWindow   int           `yaml:"perf_window"`
	PerfInterval time.Duration `yaml:"perf_interval"`
	MaxFrameSkip int           `yaml:"max_frame_skip"`
}

// GeneratorConfig selects the generation strategy.
type GeneratorConfig struct {
	Strategy       string `yaml:"strategy"`
	Pattern        string `yaml:"pattern"`
	BurstSize      int    `yaml:"burst_size"`
	BurstSpacingMs int    `yaml:"burst_spacing_ms"`
	Seed           int64  `yaml:"seed"`
}

// DifficultyConfig defines the difficulty controller.
type DifficultyConfig struct {
	Preset       string  `yaml:"preset"` // "easy", "normal", "hard" or "fixed"
	InitialLevel float64 `yaml:"initial_level"`
	Smoothing    float64 `yaml:"smoothing"`
	Enabled      bool    `yaml:"enabled"`
}

// MinInterval returns the density floor as a duration.
func (n NotesConfig) MinInterval() time.Duration {
	return time.Duration(n.MinIntervalMs) * time.Millisecond
}

// LeadTime returns the spawn lead as a duration.
func (n NotesConfig) LeadTime() time.Duration {
	return time.Duration(n.LeadTimeMs) * time.Millisecond
}

// BurstSpacing returns the gap between notes in a burst.
func (g GeneratorConfig) BurstSpacing() time.Duration {
	return time.Duration(g.BurstSpacingMs) * time.Millisecond
}

// Clamp pulls every out-of-range value back into range. Nothing is rejected.
func (c EngineConfig) Clamp() EngineConfig {
	def := DefaultEngineConfig()

	c.Timing.TargetFPS = clampInt(c.Timing.TargetFPS, 30, 240)
	c.Timing.MinFPS = clampInt(c.Timing.MinFPS, 10, c.Timing.TargetFPS)

	c.Notes.Lanes = clampInt(c.Notes.Lanes, 1, 8)
	c.Notes.MaxActive = clampInt(c.Notes.MaxActive, 1, 1000)
	c.Notes.MaxPerSecond = clampInt(c.Notes.MaxPerSecond, 1, 200)
	c.Notes.MinIntervalMs = clampInt(c.Notes.MinIntervalMs, 0, 2000)
	c.Notes.Speed = clampFloat(c.Notes.Speed, 0.05, 10, def.Notes.Speed)
	c.Notes.LeadTimeMs = clampInt(c.Notes.LeadTimeMs, 100, 10000)
	if note.ParseShapeKind(c.Notes.Shape) == note.ShapeRect {
		c.Notes.Shape = "rect"
	} else {
		c.Notes.Shape = "circle"
	}
	c.Notes.Size = clampFloat(c.Notes.Size, 1, 200, def.Notes.Size)

	c.Spatial.CellSize = clampFloat(c.Spatial.CellSize, 16, 512, def.Spatial.CellSize)
	c.Spatial.LaneWidth = clampFloat(c.Spatial.LaneWidth, 10, 1000, def.Spatial.LaneWidth)
	c.Spatial.FieldHeight = clampFloat(c.Spatial.FieldHeight, 100, 10000, def.Spatial.FieldHeight)
	c.Spatial.LineY = clampFloat(c.Spatial.LineY, 0, c.Spatial.FieldHeight, def.Spatial.LineY)
	c.Spatial.Bands = c.Spatial.Bands.Normalize()
	if c.Spatial.Bands.Bad <= 0 {
		c.Spatial.Bands = def.Spatial.Bands
	}

	c.Pool.MaxSize = clampInt(c.Pool.MaxSize, 1, 4096)
	c.Pool.MinSize = clampInt(c.Pool.MinSize, 0, c.Pool.MaxSize)
	if c.Pool.IdleTimeout <= 0 {
		c.Pool.IdleTimeout = def.Pool.IdleTimeout
	}
	if c.Pool.MaintenanceInterval <= 0 {
		c.Pool.MaintenanceInterval = def.Pool.MaintenanceInterval
	}

	c.Scheduler.MaxErrors = clampInt(c.Scheduler.MaxErrors, 1, 10000)
	c.Scheduler.PerfWindow = clampInt(c.Scheduler.PerfWindow, 1, 600)
	if c.Scheduler.PerfInterval < 100*time.Millisecond {
		c.Scheduler.PerfInterval = def.Scheduler.PerfInterval
	}
	c.Scheduler.MaxFrameSkip = clampInt(c.Scheduler.MaxFrameSkip, 0, 16)

	c.Generator.BurstSize = clampInt(c.Generator.BurstSize, 1, c.Notes.MaxActive+c.Notes.MaxPerSecond)
	c.Generator.BurstSpacingMs = clampInt(c.Generator.BurstSpacingMs, 1, 1000)

	c.Difficulty.InitialLevel = clampFloat(c.Difficulty.InitialLevel, 0, 1, 0)
	c.Difficulty.Smoothing = clampFloat(c.Difficulty.Smoothing, 0.01, 1, def.Difficulty.Smoothing)
	return c
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// clampFloat clamps v into [lo, hi]; NaN and infinities take fallback.
func clampFloat(v, lo, hi, fallback float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return fallback
	}
	return math.Max(lo, math.Min(hi, v))
}
