package config

import (
	_ "embed"
	"time"

	"github.com/vovakirdan/notefall/internal/note"
)

//go:embed defaults/engine.yaml
var defaultEngineYAML []byte

// DefaultEngineConfig returns the default engine configuration. It mirrors
// defaults/engine.yaml.
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		Timing: TimingConfig{
			TargetFPS: 60,
			MinFPS:    30,
		},
		Notes: NotesConfig{
			Lanes:         4,
			MaxActive:     64,
			MaxPerSecond:  20,
			MinIntervalMs: 100,
			Speed:         1.0,
			LeadTimeMs:    1000,
			Shape:         "circle",
			Size:          12,
		},
		Spatial: SpatialConfig{
			CellSize:    96,
			LaneWidth:   100,
			LineY:       800,
			FieldHeight: 1000,
			Bands:       note.DefaultBands(),
		},
		Pool: PoolConfig{
			MinSize:             16,
			MaxSize:             128,
			IdleTimeout:         60 * time.Second,
			MaintenanceInterval: 25 * time.Second,
		},
		Scheduler: SchedulerConfig{
			MaxErrors:    10,
			PerfWindow:   60,
			PerfInterval: time.Second,
			MaxFrameSkip: 4,
		},
		Generator: GeneratorConfig{
			Strategy:       "adaptive",
			Pattern:        "stream",
			BurstSize:      4,
			BurstSpacingMs: 30,
			Seed:           1,
		},
		Difficulty: DifficultyConfig{
			Preset:    "normal",
			Smoothing: 0.2,
			Enabled:   true,
		},
	}
}
