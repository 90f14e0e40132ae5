package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// EnvPrefix is prepended to every override variable name.
const EnvPrefix = "NOTEFALL_"

// envOverrides is the subset of EngineConfig settable from the environment.
type envOverrides struct {
	TargetFPS         int     `env:"TARGET_FPS"`
	MinFPS            int     `env:"MIN_FPS"`
	MaxActiveNotes    int     `env:"MAX_ACTIVE_NOTES"`
	MaxNotesPerSecond int     `env:"MAX_NOTES_PER_SECOND"`
	CellSize          float64 `env:"CELL_SIZE"`
	PoolMinSize       int     `env:"POOL_MIN_SIZE"`
	PoolMaxSize       int     `env:"POOL_MAX_SIZE"`
	Seed              int64   `env:"SEED"`
}

// ApplyEnv overlays NOTEFALL_* variables from the process environment.
func ApplyEnv(cfg *EngineConfig) error {
	return applyEnv(cfg, env.Options{Prefix: EnvPrefix})
}

// ApplyEnvFrom overlays NOTEFALL_* variables from vars instead of the
// process environment.
func ApplyEnvFrom(cfg *EngineConfig, vars map[string]string) error {
	return applyEnv(cfg, env.Options{Prefix: EnvPrefix, Environment: vars})
}

func applyEnv(cfg *EngineConfig, opts env.Options) error {
	o := envOverrides{
		TargetFPS:         cfg.Timing.TargetFPS,
		MinFPS:            cfg.Timing.MinFPS,
		MaxActiveNotes:    cfg.Notes.MaxActive,
		MaxNotesPerSecond: cfg.Notes.MaxPerSecond,
		CellSize:          cfg.Spatial.CellSize,
		PoolMinSize:       cfg.Pool.MinSize,
		PoolMaxSize:       cfg.Pool.MaxSize,
		Seed:              cfg.Generator.Seed,
	}
	if err := env.ParseWithOptions(&o, opts); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}

	cfg.Timing.TargetFPS = o.TargetFPS
	cfg.Timing.MinFPS = o.MinFPS
	cfg.Notes.MaxActive = o.MaxActiveNotes
	cfg.Notes.MaxPerSecond = o.MaxNotesPerSecond
	cfg.Spatial.CellSize = o.CellSize
	cfg.Pool.MinSize = o.PoolMinSize
	cfg.Pool.MaxSize = o.PoolMaxSize
	cfg.Generator.Seed = o.Seed
	return nil
}
