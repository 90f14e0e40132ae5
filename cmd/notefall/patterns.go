package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/notefall/internal/generator"
)

var patternsCmd = &cobra.Command{
	Use:   "patterns",
	Short: "List catalog patterns",
	Long:  `Shows every built-in pattern the sequential strategy can replay.`,
	Args:  cobra.NoArgs,
	Run:   runPatterns,
}

func runPatterns(_ *cobra.Command, _ []string) {
	patterns := generator.DefaultCatalog().List()

	if len(patterns) == 0 {
		fmt.Println("No patterns available.")
		return
	}

	fmt.Println("Available patterns:")
	fmt.Println()

	// Calculate column widths
	maxNameLen := 4 // "Name" header
	for _, p := range patterns {
		if len(p.Name) > maxNameLen {
			maxNameLen = len(p.Name)
		}
	}

	fmt.Printf("  %-*s  %-5s  %-8s  %-4s  %s\n", maxNameLen, "Name", "Steps", "Length", "Base", "Title")
	fmt.Printf("  %-*s  %-5s  %-8s  %-4s  %s\n", maxNameLen, "----", "-----", "------", "----", "-----")

	for _, p := range patterns {
		fmt.Printf("  %-*s  %-5d  %-8s  %-4.1f  %s\n", maxNameLen, p.Name, len(p.Steps), p.Duration(), p.BaseDifficulty, p.Title)
	}

	fmt.Println()
	fmt.Println("Run 'notefall play --strategy sequential --pattern <name>' to play one.")
}
