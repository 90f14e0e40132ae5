package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/vovakirdan/notefall/internal/difficulty"
)

const engineFile = "engine.yaml"

// Load loads the engine configuration, then applies environment overrides
// and clamps the result.
// Search order: customPath -> ~/.notefall/configs/engine.yaml -> ./configs/engine.yaml -> embedded default
func Load(customPath string) (EngineConfig, error) {
	cfg, err := loadFile(customPath)
	if err != nil {
		return cfg, err
	}
	if err := ApplyEnv(&cfg); err != nil {
		return cfg, err
	}
	return cfg.Clamp(), nil
}

func loadFile(customPath string) (EngineConfig, error) {
	// Try custom path first
	if customPath != "" {
		data, err := os.ReadFile(customPath)
		if err != nil {
			return DefaultEngineConfig(), fmt.Errorf("failed to read config %s: %w", customPath, err)
		}
		cfg, err := Parse(data)
		if err != nil {
			return cfg, fmt.Errorf("failed to parse config %s: %w", customPath, err)
		}
		return cfg, nil
	}

	// Try user config directory
	if userCfgPath := userConfigPath(engineFile); userCfgPath != "" {
		if data, err := os.ReadFile(userCfgPath); err == nil {
			if cfg, err := Parse(data); err == nil {
				return cfg, nil
			}
		}
	}

	// Try local configs directory
	if data, err := os.ReadFile(filepath.Join("configs", engineFile)); err == nil {
		if cfg, err := Parse(data); err == nil {
			return cfg, nil
		}
	}

	// Use embedded default YAML
	cfg, err := Parse(defaultEngineYAML)
	if err != nil {
		return DefaultEngineConfig(), nil // Fallback to hardcoded if embed fails
	}
	return cfg, nil
}

// Parse decodes YAML over the defaults, so sections missing from data keep
// their default values.
func Parse(data []byte) (EngineConfig, error) {
	cfg := DefaultEngineConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return DefaultEngineConfig(), err
	}
	return cfg, nil
}

// userConfigPath returns the path to user config file, or empty if home is unavailable.
func userConfigPath(filename string) string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".notefall", "configs", filename)
}

// ApplyPreset modifies the config based on a difficulty preset.
func ApplyPreset(cfg *EngineConfig, preset difficulty.Preset) {
	cfg.Difficulty.Preset = string(preset)
	if preset == difficulty.PresetFixed {
		cfg.Difficulty.Enabled = false
		return
	}
	cfg.Difficulty.Enabled = true
	if lvl, ok := preset.Level(); ok {
		cfg.Difficulty.InitialLevel = lvl
	}

	// Adjust density based on difficulty
	switch preset {
	case difficulty.PresetEasy:
		cfg.Notes.MaxPerSecond = max(1, cfg.Notes.MaxPerSecond*3/4)
		cfg.Notes.Speed *= 0.8
	case difficulty.PresetHard:
		cfg.Notes.MaxPerSecond = cfg.Notes.MaxPerSecond * 5 / 4
		cfg.Notes.Speed *= 1.25
	}
}

// Controller converts the YAML section into controller settings. An
// unknown preset falls back to normal.
func (d DifficultyConfig) Controller() difficulty.Config {
	p, _ := difficulty.ParsePreset(d.Preset)
	return difficulty.Config{
		Preset:       p,
		InitialLevel: d.InitialLevel,
		Smoothing:    d.Smoothing,
		Enabled:      d.Enabled,
	}
}
