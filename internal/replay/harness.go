package replay

import (
	"github.com/danielpatrickdp/truthjournal/internal/drift"
	"github.com/danielpatrickdp/truthjournal/internal/eval"
	"github.com/danielpatrickdp/truthjournal/internal/journal"
	"github.com/danielpatrickdp/truthjournal/internal/state"
	"github.com/danielpatrickdp/truthjournal/internal/vector"
)

// #region types
// Step is one recorded input for replay.
type Step struct {
	ID       string
	Quality  float64
	Tags     []string
	Rotate   bool
	RotateTo []float64 // nil promotes the last report
}

// ReplayConfig configures the engine for a replay run.
type ReplayConfig struct {
	Thresholds  drift.Thresholds
	StartAnchor *vector.Truth // optional baseline before the first step
	Eval        eval.EvalConfig
}

// DefaultReplayConfig uses the default thresholds and eval floors, and no
// start anchor.
func DefaultReplayConfig() ReplayConfig {
	return ReplayConfig{Thresholds: drift.DefaultThresholds(), Eval: eval.DefaultEvalConfig()}
}

// ReplayResult captures the outcome of one step.
type ReplayResult struct {
	StepID string
	Action string // "baseline" | "analyze" | "alarm" | "rotate" | "rotate_failed"
	Reason string

	Report *drift.Report    // nil for rotate steps
	Eval   *eval.EvalResult // nil for rotate steps
	Alarm  bool

	// Baseline after this step.
	Baseline vector.Truth
}

// ReplaySummary provides aggregate stats from a replay run.
type ReplaySummary struct {
	TotalSteps    int
	Analyses      int
	Alarms        int
	Rotations     int
	FailedRotates int
	EvalFailures  int
	FinalBaseline vector.Truth
	Entries       []journal.Entry // newest first
}

// #endregion types

// #region replay
// Replay runs steps through a fresh engine over in-memory storage. The
// returned Run exposes the journal and final baseline for summarizing.
func Replay(steps []Step, config ReplayConfig) (*Run, error) {
	store := state.NewMemoryStore()
	log := journal.NewMemory(nil)
	eng, err := drift.New(store, log, drift.Options{Thresholds: &config.Thresholds})
	if err != nil {
		return nil, err
	}
	if config.StartAnchor != nil {
		if err := eng.RotateAnchor(config.StartAnchor); err != nil {
			return nil, err
		}
	}

	run := &Run{engine: eng, log: log, harness: eval.NewEvalHarness(config.Eval)}
	for _, step := range steps {
		run.Results = append(run.Results, run.apply(step))
	}
	return run, nil
}

// Run holds the results of one replay.
type Run struct {
	Results []ReplayResult

	engine  *drift.Engine
	log     *journal.Memory
	harness *eval.EvalHarness
}

func (r *Run) apply(step Step) ReplayResult {
	res := ReplayResult{StepID: step.ID}
	if step.Rotate {
		if err := r.engine.RotateAnchorSlice(step.RotateTo); err != nil {
			res.Action = "rotate_failed"
			res.Reason = err.Error()
		} else {
			res.Action = "rotate"
			res.Reason = "baseline replaced"
		}
		res.Baseline = r.baseline()
		return res
	}

	rep := r.engine.Report(step.Quality, step.Tags)
	ev := r.harness.Run(rep)
	res.Report = &rep
	res.Eval = &ev
	res.Alarm = rep.Alarm
	switch {
	case rep.NewBaseline:
		res.Action = "baseline"
		res.Reason = "first analysis established the baseline"
	case rep.Alarm:
		res.Action = "alarm"
		res.Reason = "drift exceeded threshold on " + exceededAxes(rep.Axes)
	default:
		res.Action = "analyze"
		res.Reason = "within thresholds"
	}
	res.Baseline = r.baseline()
	return res
}

func (r *Run) baseline() vector.Truth {
	rec, _ := r.engine.Baseline()
	return rec.Vector
}

func exceededAxes(axes []drift.AxisCheck) string {
	out := ""
	for _, a := range axes {
		if !a.Exceeded {
			continue
		}
		if out != "" {
			out += ", "
		}
		out += a.Axis
	}
	return out
}

// Summarize computes aggregate stats from a run.
func (r *Run) Summarize() ReplaySummary {
	s := ReplaySummary{
		TotalSteps:    len(r.Results),
		FinalBaseline: r.baseline(),
	}
	for _, res := range r.Results {
		if res.Eval != nil && !res.Eval.Passed {
			s.EvalFailures++
		}
		switch res.Action {
		case "baseline", "analyze":
			s.Analyses++
		case "alarm":
			s.Analyses++
			s.Alarms++
		case "rotate":
			s.Rotations++
		case "rotate_failed":
			s.FailedRotates++
		}
	}
	s.Entries, _ = r.log.List(0)
	return s
}

// #endregion replay
