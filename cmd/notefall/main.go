// notefall is a falling-note rhythm engine for the terminal.
//
// Usage:
//
//	notefall play            - Play in the terminal lane view
//	notefall simulate        - Run a headless session with a scripted player
//	notefall runs            - Show recorded run reports
//	notefall patterns        - List catalog patterns
//	notefall config          - Print the effective engine configuration
//
// Global flags:
//
//	--fps <rate>         - Target frame rate (default from config: 60)
//	--seed <value>       - Generator seed
//	--db <path>          - Run report database (default: ~/.notefall/runs.db)
//	--config <path>      - Engine config YAML
//	--log-level <level>  - debug, info, warn or error
package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/vovakirdan/notefall/internal/config"
	"github.com/vovakirdan/notefall/internal/difficulty"
	"github.com/vovakirdan/notefall/internal/generator"
)

var (
	// Global flags
	flagFPS      int
	flagSeed     int64
	flagDBPath   string
	flagConfig   string
	flagLogLevel string

	// Session flags shared by play and simulate
	flagDifficulty string
	flagStrategy   string
	flagPattern    string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "notefall",
	Short: "notefall - a falling-note rhythm engine",
	Long: `notefall schedules, spawns and judges falling notes on a fixed set of
lanes, adapting its workload to the frame rate it can sustain.

Available commands:
  play      - Play in the terminal lane view
  simulate  - Headless run with a scripted player
  runs      - Recorded run reports
  patterns  - Catalog patterns
  config    - Effective engine configuration

Examples:
  notefall play --strategy burst
  notefall simulate --duration 60s --accuracy 0.8 --record
  notefall runs --strategy adaptive
  NOTEFALL_TARGET_FPS=120 notefall config`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().IntVar(&flagFPS, "fps", 0, "Target frame rate (0 = from config)")
	rootCmd.PersistentFlags().Int64Var(&flagSeed, "seed", 0, "Generator seed (0 = from config)")
	rootCmd.PersistentFlags().StringVar(&flagDBPath, "db", "~/.notefall/runs.db", "Path to run report database")
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Path to engine config YAML")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "info", "Log level: debug, info, warn, error")

	rootCmd.AddCommand(playCmd)
	rootCmd.AddCommand(simulateCmd)
	rootCmd.AddCommand(runsCmd)
	rootCmd.AddCommand(patternsCmd)
	rootCmd.AddCommand(configCmd)
}

// addSessionFlags registers the flags that shape one engine session.
func addSessionFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&flagDifficulty, "difficulty", "", "Difficulty preset: easy, normal, hard, fixed")
	cmd.Flags().StringVar(&flagStrategy, "strategy", "", "Generation strategy: sequential, burst, alternating, synchronized, adaptive")
	cmd.Flags().StringVar(&flagPattern, "pattern", "", "Catalog pattern for the sequential strategy")
}

// loadEngineConfig loads the config file and applies the command-line
// overrides on top of it.
func loadEngineConfig() (config.EngineConfig, error) {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return cfg, err
	}

	if flagFPS > 0 {
		cfg.Timing.TargetFPS = flagFPS
	}
	if flagSeed != 0 {
		cfg.Generator.Seed = flagSeed
	}
	if flagDifficulty != "" {
		preset, err := difficulty.ParsePreset(flagDifficulty)
		if err != nil {
			return cfg, err
		}
		config.ApplyPreset(&cfg, preset)
	}
	if flagStrategy != "" {
		if _, err := generator.ParseStrategy(flagStrategy); err != nil {
			return cfg, err
		}
		cfg.Generator.Strategy = flagStrategy
	}
	if flagPattern != "" {
		cfg.Generator.Pattern = flagPattern
	}
	return cfg.Clamp(), nil
}

// newLogger builds the root logger writing to w at the --log-level level.
func newLogger(w io.Writer) (*log.Logger, error) {
	level, err := log.ParseLevel(flagLogLevel)
	if err != nil {
		return nil, fmt.Errorf("invalid --log-level: %w", err)
	}
	logger := log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		Prefix:          "notefall",
	})
	logger.SetLevel(level)
	return logger, nil
}

// openLogFile opens ~/.notefall/notefall.log for appending.
func openLogFile() (*os.File, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}
	dir := filepath.Join(home, ".notefall")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return os.OpenFile(filepath.Join(dir, "notefall.log"), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
}
