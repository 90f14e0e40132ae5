package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the effective engine configuration",
	Long: `Prints the configuration a session would run with, after the config
file, NOTEFALL_* environment overrides, command-line flags and clamping.

Examples:
  notefall config
  notefall config --config ./my-engine.yaml --difficulty hard
  NOTEFALL_MAX_ACTIVE_NOTES=5000 notefall config`,
	Args: cobra.NoArgs,
	RunE: runConfig,
}

func init() {
	addSessionFlags(configCmd)
}

func runConfig(_ *cobra.Command, _ []string) error {
	cfg, err := loadEngineConfig()
	if err != nil {
		return err
	}
	out, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	fmt.Print(string(out))
	return nil
}
