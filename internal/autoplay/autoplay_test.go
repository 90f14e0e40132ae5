package autoplay

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/vovakirdan/notefall/internal/config"
	"github.com/vovakirdan/notefall/internal/core"
	"github.com/vovakirdan/notefall/internal/engine"
	"github.com/vovakirdan/notefall/internal/note"
)

const step = 16 * time.Millisecond

func singleLaneConfig() config.EngineConfig {
	cfg := config.DefaultEngineConfig()
	cfg.Notes.Lanes = 1
	cfg.Generator.Strategy = "burst"
	cfg.Generator.BurstSize = 1
	cfg.Difficulty.Enabled = false
	return cfg
}

func startEngine(t *testing.T, cfg config.EngineConfig) (*engine.Engine, *core.ManualClock) {
	t.Helper()
	clock := core.NewManualClock(0)
	e := engine.New(cfg, engine.WithClock(clock))
	if err := e.Initialize(cfg); err != nil {
		t.Fatalf("Initialize() failed: %v", err)
	}
	if err := e.Start(); err != nil {
		t.Fatalf("Start() failed: %v", err)
	}
	return e, clock
}

func TestPerfectPlayer(t *testing.T) {
	tests := []struct {
		name   string
		jitter time.Duration
	}{
		{"exact", 0},
		{"inside perfect band", 10 * time.Millisecond},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, clock := startEngine(t, singleLaneConfig())
			p := New(Config{Accuracy: 1, Jitter: tt.jitter, Seed: 3})

			if err := p.Run(context.Background(), e, clock, 3*time.Second, step); err != nil {
				t.Fatalf("Run() failed: %v", err)
			}

			ps := p.Stats()
			st := e.Stats()
			if ps.Landed == 0 {
				t.Fatal("Expected landed taps")
			}
			if ps.Landed != ps.Attempts || ps.Skipped != 0 {
				t.Errorf("Player stats = %+v, expected every attempt to land", ps)
			}
			if st.Counts[note.Miss] != 0 {
				t.Errorf("Expected no misses, got %d", st.Counts[note.Miss])
			}
			if st.Counts[note.Perfect] != ps.Landed {
				t.Errorf("Perfect = %d, expected %d", st.Counts[note.Perfect], ps.Landed)
			}
			if st.Combo != ps.Landed {
				t.Errorf("Combo = %d, expected %d", st.Combo, ps.Landed)
			}
		})
	}
}

func TestIdlePlayerMissesEverything(t *testing.T) {
	e, clock := startEngine(t, singleLaneConfig())
	p := New(Config{Accuracy: 0, Seed: 3})

	if err := p.Run(context.Background(), e, clock, 3*time.Second, step); err != nil {
		t.Fatalf("Run() failed: %v", err)
	}

	ps := p.Stats()
	if ps.Seen == 0 || ps.Skipped != ps.Seen || ps.Attempts != 0 {
		t.Errorf("Player stats = %+v, expected every note skipped", ps)
	}
	st := e.Stats()
	if st.Counts[note.Miss] == 0 || st.Score != 0 {
		t.Errorf("Engine stats = %+v, expected misses and no score", st)
	}
}

func TestSameSeedSameRun(t *testing.T) {
	run := func() (engine.Stats, Stats) {
		cfg := config.DefaultEngineConfig()
		cfg.Difficulty.Enabled = false
		e, clock := startEngine(t, cfg)
		p := New(Config{Accuracy: 0.6, Jitter: 60 * time.Millisecond, Seed: 11})
		if err := p.Run(context.Background(), e, clock, 5*time.Second, step); err != nil {
			t.Fatalf("Run() failed: %v", err)
		}
		return e.Stats(), p.Stats()
	}

	st1, ps1 := run()
	st2, ps2 := run()
	if !reflect.DeepEqual(st1, st2) {
		t.Errorf("Engine stats differ:\n%+v\n%+v", st1, st2)
	}
	if !reflect.DeepEqual(ps1, ps2) {
		t.Errorf("Player stats differ:\n%+v\n%+v", ps1, ps2)
	}
	if ps1.Skipped == 0 || ps1.Attempts == 0 {
		t.Errorf("Expected a mix of skips and attempts, got %+v", ps1)
	}
}

func TestRunErrors(t *testing.T) {
	e, clock := startEngine(t, singleLaneConfig())
	p := New(Config{Accuracy: 1})

	if err := p.Run(context.Background(), e, clock, time.Second, 0); !errors.Is(err, ErrBadStep) {
		t.Errorf("Run() with zero step = %v, expected ErrBadStep", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := p.Run(ctx, e, clock, time.Second, step); !errors.Is(err, context.Canceled) {
		t.Errorf("Run() with canceled ctx = %v, expected context.Canceled", err)
	}

	e.Stop()
	if err := p.Run(context.Background(), e, clock, time.Second, step); !errors.Is(err, engine.ErrNotRunning) {
		t.Errorf("Run() on stopped engine = %v, expected ErrNotRunning", err)
	}
}

func TestNewClampsSkill(t *testing.T) {
	p := New(Config{Accuracy: 7, Jitter: -time.Second})
	if p.cfg.Accuracy != 1 || p.cfg.Jitter != 0 {
		t.Errorf("New() config = %+v, expected accuracy 1 and no jitter", p.cfg)
	}
}
