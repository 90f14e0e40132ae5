package config

import (
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/vovakirdan/notefall/internal/difficulty"
	"github.com/vovakirdan/notefall/internal/note"
)

func TestEmbeddedMatchesDefaults(t *testing.T) {
	cfg, err := Parse(defaultEngineYAML)
	if err != nil {
		t.Fatalf("parse embedded defaults: %v", err)
	}
	if cfg != DefaultEngineConfig() {
		t.Errorf("embedded defaults differ from DefaultEngineConfig:\n got %+v\nwant %+v", cfg, DefaultEngineConfig())
	}
}

func TestParsePartialKeepsDefaults(t *testing.T) {
	cfg, err := Parse([]byte("timing:\n  target_fps: 120\npool:\n  idle_timeout: 5s\n"))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if cfg.Timing.TargetFPS != 120 {
		t.Errorf("target_fps = %d, expected 120", cfg.Timing.TargetFPS)
	}
	if cfg.Timing.MinFPS != 30 {
		t.Errorf("min_fps = %d, expected the default 30", cfg.Timing.MinFPS)
	}
	if cfg.Pool.IdleTimeout != 5*time.Second {
		t.Errorf("idle_timeout = %v, expected 5s", cfg.Pool.IdleTimeout)
	}
	if cfg.Notes.Lanes != 4 {
		t.Errorf("lanes = %d, expected the default 4", cfg.Notes.Lanes)
	}
}

func TestLoadCustomPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "engine.yaml")
	if err := os.WriteFile(path, []byte("notes:\n  max_active: 5000\n  shape: rect\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Notes.MaxActive != 1000 {
		t.Errorf("max_active = %d, expected clamp to 1000", cfg.Notes.MaxActive)
	}
	if cfg.Notes.Shape != "rect" {
		t.Errorf("shape = %q, expected rect", cfg.Notes.Shape)
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected an error for a missing custom path")
	}
	bad := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(bad, []byte("timing: [1, 2"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := Load(bad); err == nil {
		t.Error("expected an error for malformed YAML")
	}
}

func TestClamp(t *testing.T) {
	tests := []struct {
		name  string
		edit  func(*EngineConfig)
		check func(EngineConfig) bool
	}{
		{"target fps low", func(c *EngineConfig) { c.Timing.TargetFPS = 5 }, func(c EngineConfig) bool { return c.Timing.TargetFPS == 30 }},
		{"target fps high", func(c *EngineConfig) { c.Timing.TargetFPS = 1000 }, func(c EngineConfig) bool { return c.Timing.TargetFPS == 240 }},
		{"min above target", func(c *EngineConfig) { c.Timing.MinFPS = 90 }, func(c EngineConfig) bool { return c.Timing.MinFPS == 60 }},
		{"min fps low", func(c *EngineConfig) { c.Timing.MinFPS = 1 }, func(c EngineConfig) bool { return c.Timing.MinFPS == 10 }},
		{"max active zero", func(c *EngineConfig) { c.Notes.MaxActive = 0 }, func(c EngineConfig) bool { return c.Notes.MaxActive == 1 }},
		{"per second high", func(c *EngineConfig) { c.Notes.MaxPerSecond = 900 }, func(c EngineConfig) bool { return c.Notes.MaxPerSecond == 200 }},
		{"cell size small", func(c *EngineConfig) { c.Spatial.CellSize = 2 }, func(c EngineConfig) bool { return c.Spatial.CellSize == 16 }},
		{"cell size nan", func(c *EngineConfig) { c.Spatial.CellSize = math.NaN() }, func(c EngineConfig) bool { return c.Spatial.CellSize == 96 }},
		{"pool max high", func(c *EngineConfig) { c.Pool.MaxSize = 10000 }, func(c EngineConfig) bool { return c.Pool.MaxSize == 4096 }},
		{"pool min above max", func(c *EngineConfig) { c.Pool.MinSize = 500 }, func(c EngineConfig) bool { return c.Pool.MinSize == 128 }},
		{"pool below active is kept", func(c *EngineConfig) { c.Pool.MaxSize = 8 }, func(c EngineConfig) bool { return c.Pool.MaxSize == 8 }},
		{"unknown shape", func(c *EngineConfig) { c.Notes.Shape = "hexagon" }, func(c EngineConfig) bool { return c.Notes.Shape == "circle" }},
		{"bands reordered", func(c *EngineConfig) { c.Spatial.Bands = note.Bands{Perfect: 50, Great: 20, Good: 60, Bad: 40} }, func(c EngineConfig) bool {
			b := c.Spatial.Bands
			return b.Perfect <= b.Great && b.Great <= b.Good && b.Good <= b.Bad
		}},
		{"zero bands", func(c *EngineConfig) { c.Spatial.Bands = note.Bands{} }, func(c EngineConfig) bool { return c.Spatial.Bands == note.DefaultBands() }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultEngineConfig()
			tt.edit(&cfg)
			got := cfg.Clamp()
			if !tt.check(got) {
				t.Errorf("clamp result out of range: %+v", got)
			}
		})
	}
}

func TestClampKeepsDefaults(t *testing.T) {
	def := DefaultEngineConfig()
	if got := def.Clamp(); got != def {
		t.Errorf("clamping the defaults changed them:\n got %+v\nwant %+v", got, def)
	}
}

func TestApplyEnvFrom(t *testing.T) {
	cfg := DefaultEngineConfig()
	err := ApplyEnvFrom(&cfg, map[string]string{
		"NOTEFALL_TARGET_FPS":           "144",
		"NOTEFALL_MAX_ACTIVE_NOTES":     "50",
		"NOTEFALL_MAX_NOTES_PER_SECOND": "60",
		"NOTEFALL_CELL_SIZE":            "64.5",
		"NOTEFALL_SEED":                 "42",
	})
	if err != nil {
		t.Fatalf("apply env: %v", err)
	}
	if cfg.Timing.TargetFPS != 144 || cfg.Notes.MaxActive != 50 || cfg.Notes.MaxPerSecond != 60 {
		t.Errorf("overrides not applied: %+v", cfg)
	}
	if cfg.Spatial.CellSize != 64.5 || cfg.Generator.Seed != 42 {
		t.Errorf("overrides not applied: cell %v seed %d", cfg.Spatial.CellSize, cfg.Generator.Seed)
	}
	if cfg.Timing.MinFPS != 30 || cfg.Pool.MaxSize != 128 {
		t.Errorf("unset variables changed values: min_fps %d pool max %d", cfg.Timing.MinFPS, cfg.Pool.MaxSize)
	}

	if err := ApplyEnvFrom(&cfg, map[string]string{"NOTEFALL_MIN_FPS": "fast"}); err == nil {
		t.Error("expected an error for a non-numeric override")
	}
}

func TestApplyPreset(t *testing.T) {
	tests := []struct {
		preset  difficulty.Preset
		enabled bool
		level   float64
	}{
		{difficulty.PresetEasy, true, 0},
		{difficulty.PresetNormal, true, 0.3},
		{difficulty.PresetHard, true, 0.7},
		{difficulty.PresetFixed, false, 0},
	}
	for _, tt := range tests {
		cfg := DefaultEngineConfig()
		ApplyPreset(&cfg, tt.preset)
		if cfg.Difficulty.Enabled != tt.enabled {
			t.Errorf("%s: enabled = %v, expected %v", tt.preset, cfg.Difficulty.Enabled, tt.enabled)
		}
		if cfg.Difficulty.InitialLevel != tt.level {
			t.Errorf("%s: initial level = %v, expected %v", tt.preset, cfg.Difficulty.InitialLevel, tt.level)
		}
		if got := cfg.Difficulty.Controller().Preset; got != tt.preset {
			t.Errorf("%s: controller preset = %s", tt.preset, got)
		}
	}

	cfg := DefaultEngineConfig()
	ApplyPreset(&cfg, difficulty.PresetHard)
	if cfg.Notes.MaxPerSecond != 25 {
		t.Errorf("hard max_per_second = %d, expected 25", cfg.Notes.MaxPerSecond)
	}
}
