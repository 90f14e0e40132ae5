package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/notefall/internal/autoplay"
	"github.com/vovakirdan/notefall/internal/core"
	"github.com/vovakirdan/notefall/internal/engine"
	"github.com/vovakirdan/notefall/internal/storage"
)

var (
	flagDuration time.Duration
	flagAccuracy float64
	flagJitter   time.Duration
	flagRecord   bool
	flagEvents   bool
)

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Run a headless session with a scripted player",
	Long: `Run the engine on a simulated clock at the target frame rate with a
scripted player tapping notes from the detector lookahead.

The run is deterministic for a given config, seed and player settings.

Examples:
  notefall simulate
  notefall simulate --duration 2m --accuracy 0.75 --jitter 40ms
  notefall simulate --strategy burst --fps 30 --record
  notefall simulate --events --log-level debug`,
	Args: cobra.NoArgs,
	RunE: runSimulate,
}

func init() {
	addSessionFlags(simulateCmd)
	simulateCmd.Flags().DurationVar(&flagDuration, "duration", 30*time.Second, "Simulated track time")
	simulateCmd.Flags().Float64Var(&flagAccuracy, "accuracy", 0.9, "Chance the player takes each note (0-1)")
	simulateCmd.Flags().DurationVar(&flagJitter, "jitter", 20*time.Millisecond, "Max player timing error")
	simulateCmd.Flags().BoolVar(&flagRecord, "record", false, "Save the run report to the database")
	simulateCmd.Flags().BoolVar(&flagEvents, "events", false, "Print engine event counts")
}

func runSimulate(_ *cobra.Command, _ []string) error {
	cfg, err := loadEngineConfig()
	if err != nil {
		return err
	}
	logger, err := newLogger(os.Stderr)
	if err != nil {
		return err
	}

	clock := core.NewManualClock(0)
	e := engine.New(cfg, engine.WithClock(clock), engine.WithLogger(logger.WithPrefix("engine")))
	if err := e.Initialize(cfg); err != nil {
		return err
	}

	events := make(map[engine.EventType]int)
	if flagEvents {
		e.Subscribe(func(ev engine.Event) { events[ev.Type]++ })
	}

	if err := e.Start(); err != nil {
		return err
	}
	defer e.Stop()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	player := autoplay.New(autoplay.Config{
		Accuracy: flagAccuracy,
		Jitter:   flagJitter,
		Seed:     cfg.Generator.Seed,
		Logger:   logger.WithPrefix("autoplay"),
	})
	step := time.Second / time.Duration(cfg.Timing.TargetFPS)

	start := time.Now()
	runErr := player.Run(ctx, e, clock, flagDuration, step)
	logger.Info("simulation finished", "track", clock.Now(), "wall", time.Since(start).Round(time.Millisecond))

	printSummary(e)
	ps := player.Stats()
	fmt.Printf("Player:    seen %d, skipped %d, taps %d, landed %d\n", ps.Seen, ps.Skipped, ps.Attempts, ps.Landed)
	pool := e.PoolStats()
	fmt.Printf("Pool:      %d live, %d created, %d exhausted\n", pool.Live(), pool.Created, pool.Exhausted)

	if flagEvents {
		fmt.Println()
		fmt.Println("Events:")
		for _, typ := range []engine.EventType{
			engine.EventNoteSpawned, engine.EventNoteJudged, engine.EventNoteMissed,
			engine.EventPerformanceSample, engine.EventSnapshotReady,
		} {
			fmt.Printf("  %-18s %d\n", typ, events[typ])
		}
	}

	if runErr != nil {
		return fmt.Errorf("simulation stopped: %w", runErr)
	}

	if flagRecord {
		store, err := storage.Open(flagDBPath)
		if err != nil {
			return err
		}
		defer store.Close()

		id, err := store.SaveRun(storage.ReportOf(e))
		if err != nil {
			return err
		}
		fmt.Printf("\nRecorded run %s\n", id)
	}
	return nil
}
