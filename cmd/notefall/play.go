package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/vovakirdan/notefall/internal/core"
	"github.com/vovakirdan/notefall/internal/engine"
	"github.com/vovakirdan/notefall/internal/generator"
	"github.com/vovakirdan/notefall/internal/note"
	"github.com/vovakirdan/notefall/internal/platform/tui"
	"github.com/vovakirdan/notefall/internal/storage"
)

var flagKeys string

var playCmd = &cobra.Command{
	Use:   "play",
	Short: "Play in the terminal lane view",
	Long: `Start a session in the terminal lane view.

Without --strategy a picker menu is shown first; Tab in the menu opens the
run board.

Controls:
  D F J K    - Hit lanes 1-4 (see --keys)
  P/Esc      - Pause
  ?          - Toggle help
  Q/Ctrl+C   - Quit

The session is saved to the run database on exit when anything was judged.
Logs go to ~/.notefall/notefall.log.

Examples:
  notefall play
  notefall play --strategy burst --difficulty hard
  notefall play --strategy sequential --pattern stairs
  notefall play --keys asdfjkl`,
	Args: cobra.NoArgs,
	RunE: runPlay,
}

func init() {
	addSessionFlags(playCmd)
	playCmd.Flags().StringVar(&flagKeys, "keys", "dfjk", "One key per lane, left to right")
}

func runPlay(cmd *cobra.Command, _ []string) error {
	cfg, err := loadEngineConfig()
	if err != nil {
		return err
	}

	width, height := 80, 24 // Defaults
	if w, h, termErr := term.GetSize(int(os.Stdout.Fd())); termErr == nil {
		width = w
		height = h
	}

	store, err := storage.Open(flagDBPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not open run database: %v\n", err)
		// Continue without storage - the session still works
		store = nil
	}
	if store != nil {
		defer store.Close()
	}

	if !cmd.Flags().Changed("strategy") {
		initial, _ := generator.ParseStrategy(cfg.Generator.Strategy)
		strategy, ok, err := pickStrategy(initial, store, width, height)
		if err != nil || !ok {
			return err
		}
		cfg.Generator.Strategy = strategy.String()
	}

	logFile, err := openLogFile()
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer logFile.Close()
	logger, err := newLogger(logFile)
	if err != nil {
		return err
	}

	clock := core.NewManualClock(0)
	e := engine.New(cfg, engine.WithClock(clock), engine.WithLogger(logger.WithPrefix("engine")))
	if err := e.Initialize(cfg); err != nil {
		return err
	}

	runErr := tui.Run(e, clock, tui.Options{
		Keys:   splitKeys(flagKeys),
		Store:  store,
		Logger: logger.WithPrefix("tui"),
		Width:  width,
		Height: height,
	})

	printSummary(e)
	if runErr != nil {
		return fmt.Errorf("session ended: %w", runErr)
	}
	return nil
}

// pickStrategy shows the menu until a strategy is chosen or the user quits.
func pickStrategy(initial generator.Strategy, store *storage.Store, width, height int) (generator.Strategy, bool, error) {
	for {
		res, err := tui.RunMenu(initial, width, height)
		if err != nil {
			return initial, false, err
		}
		switch {
		case res.Quit:
			return initial, false, nil
		case res.WantsRuns:
			goBack, err := tui.RunRunsBoard(store, width, height)
			if err != nil || !goBack {
				return initial, false, err
			}
		default:
			return res.Strategy, true, nil
		}
	}
}

// splitKeys turns "dfjk" into one key per lane.
func splitKeys(s string) []string {
	var keys []string
	for _, r := range strings.ToLower(s) {
		keys = append(keys, string(r))
	}
	return keys
}

// printSummary prints the session counters to stdout.
func printSummary(e *engine.Engine) {
	st := e.Stats()
	fmt.Printf("Strategy:  %s", e.Strategy())
	if e.Pattern() != "" {
		fmt.Printf(" (%s)", e.Pattern())
	}
	fmt.Println()
	fmt.Printf("Score:     %d\n", st.Score)
	fmt.Printf("Max combo: %d\n", st.MaxCombo)
	fmt.Printf("Accuracy:  %.2f%%\n", st.Accuracy()*100)

	var counts []string
	for _, jt := range note.JudgmentTypes {
		counts = append(counts, fmt.Sprintf("%s %d", jt, st.Counts[jt]))
	}
	fmt.Printf("Judged:    %s\n", strings.Join(counts, ", "))
	fmt.Printf("Spawned:   %d (rejected %d, dropped %d, thinned %d, exhausted %d)\n",
		st.Spawned, st.Rejected, st.Dropped, st.Thinned, st.Exhausted)
	fmt.Printf("Whiffs:    %d\n", st.Whiffs)
	fmt.Printf("Frames:    %d at %.1f fps, min quality %.2f\n",
		e.Scheduler().Frames(), e.Scheduler().AverageFPS(), st.MinQuality)
}
