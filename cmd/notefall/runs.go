package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/vovakirdan/notefall/internal/note"
	"github.com/vovakirdan/notefall/internal/platform/tui"
	"github.com/vovakirdan/notefall/internal/storage"
)

var (
	flagRunsLimit    int
	flagRunsStrategy string
	flagRunsBoard    bool
	flagRunsClear    bool
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Show recorded run reports",
	Long: `Display the most recent run reports, newest first, and the best run.

Examples:
  notefall runs
  notefall runs --strategy burst --limit 20
  notefall runs --board
  notefall runs --clear`,
	Args: cobra.NoArgs,
	RunE: runRuns,
}

func init() {
	runsCmd.Flags().IntVar(&flagRunsLimit, "limit", 10, "Number of runs to show")
	runsCmd.Flags().StringVar(&flagRunsStrategy, "strategy", "", "Only show runs of this strategy")
	runsCmd.Flags().BoolVar(&flagRunsBoard, "board", false, "Open the interactive run board")
	runsCmd.Flags().BoolVar(&flagRunsClear, "clear", false, "Delete every recorded run")
}

func runRuns(_ *cobra.Command, _ []string) error {
	store, err := storage.Open(flagDBPath)
	if err != nil {
		return fmt.Errorf("open run database: %w", err)
	}
	defer store.Close()

	if flagRunsClear {
		if err := store.ClearRuns(); err != nil {
			return err
		}
		fmt.Println("All runs deleted.")
		return nil
	}

	if flagRunsBoard {
		width, height := 80, 24
		if w, h, termErr := term.GetSize(int(os.Stdout.Fd())); termErr == nil {
			width = w
			height = h
		}
		_, err := tui.RunRunsBoard(store, width, height)
		return err
	}

	runs, err := store.RecentRunsFor(flagRunsStrategy, flagRunsLimit)
	if err != nil {
		return err
	}

	title := "Recent runs"
	if flagRunsStrategy != "" {
		title += " - " + flagRunsStrategy
	}
	fmt.Println(title)
	fmt.Println()

	if len(runs) == 0 {
		fmt.Println("No runs recorded yet.")
		fmt.Println()
		fmt.Println("Run 'notefall simulate --record' to record one.")
		return nil
	}

	// Print header
	fmt.Printf("  %-16s  %-12s  %-9s  %-7s  %-5s  %-5s  %s\n", "Date", "Strategy", "Score", "Acc", "Combo", "Miss", "ID")
	fmt.Printf("  %-16s  %-12s  %-9s  %-7s  %-5s  %-5s  %s\n", "----", "--------", "-----", "---", "-----", "----", "--")

	for _, r := range runs {
		fmt.Printf("  %-16s  %-12s  %-9d  %6.1f%%  %-5d  %-5d  %s\n",
			r.CreatedAt.Format("2006-01-02 15:04"), r.Strategy, r.Score, r.Accuracy*100,
			r.MaxCombo, r.Counts[note.Miss], r.ID)
	}

	best, ok, err := store.BestRun(flagRunsStrategy)
	if err == nil && ok {
		fmt.Println()
		fmt.Printf("Best: %d (%s, %.1f%%)\n", best.Score, best.Strategy, best.Accuracy*100)
	}
	return nil
}
