package storage

import (
	"github.com/vovakirdan/notefall/internal/engine"
	"github.com/vovakirdan/notefall/internal/note"
)

// ReportOf summarizes the engine's current session as a run report.
func ReportOf(e *engine.Engine) RunReport {
	cfg := e.Config()
	st := e.Stats()

	counts := make(map[note.JudgmentType]int, len(note.JudgmentTypes))
	for _, jt := range note.JudgmentTypes {
		counts[jt] = st.Counts[jt]
	}

	return RunReport{
		Strategy:   e.Strategy().String(),
		Pattern:    e.Pattern(),
		Seed:       cfg.Generator.Seed,
		Frames:     int64(e.Scheduler().Frames()),
		Score:      st.Score,
		MaxCombo:   st.MaxCombo,
		Accuracy:   st.Accuracy(),
		Counts:     counts,
		AvgFPS:     e.Scheduler().AverageFPS(),
		MinQuality: st.MinQuality,
	}
}
