package replay

import (
	"strings"
	"testing"

	"github.com/danielpatrickdp/truthjournal/internal/drift"
	"github.com/danielpatrickdp/truthjournal/internal/vector"
)

// 1. First step establishes the baseline and never alarms.
func TestReplay_FirstStepBaselines(t *testing.T) {
	run, err := Replay([]Step{{ID: "a", Quality: 0.2, Tags: []string{"fabrication"}}}, DefaultReplayConfig())
	if err != nil {
		t.Fatalf("Replay: %v", err)
	}
	r := run.Results[0]
	if r.Action != "baseline" || r.Alarm {
		t.Fatalf("expected baseline without alarm, got %+v", r)
	}
	if r.Baseline != r.Report.Vector {
		t.Fatalf("baseline %v != vector %v", r.Baseline, r.Report.Vector)
	}
}

// 2. Start anchor is in place before the first step.
func TestReplay_StartAnchor(t *testing.T) {
	anchor := vector.Truth{0.5, 0.5, 0.5, 0.5}
	config := DefaultReplayConfig()
	config.StartAnchor = &anchor

	run, err := Replay([]Step{{ID: "a", Quality: 1.0}}, config)
	if err != nil {
		t.Fatalf("Replay: %v", err)
	}
	r := run.Results[0]
	if r.Action != "alarm" {
		t.Fatalf("expected alarm against start anchor, got %s", r.Action)
	}
	if !strings.Contains(r.Reason, "quality") {
		t.Fatalf("reason should name the axes, got %q", r.Reason)
	}
}

// 3. Rotation before any analysis fails and leaves no baseline.
func TestReplay_RotateWithoutHistory(t *testing.T) {
	run, _ := Replay([]Step{{ID: "r", Rotate: true}}, DefaultReplayConfig())
	r := run.Results[0]
	if r.Action != "rotate_failed" {
		t.Fatalf("expected rotate_failed, got %s", r.Action)
	}
	if r.Baseline != (vector.Truth{}) {
		t.Fatalf("expected no baseline, got %v", r.Baseline)
	}
}

// 4. Custom thresholds change the alarm decision.
func TestReplay_CustomThresholds(t *testing.T) {
	steps := []Step{{ID: "a", Quality: 1.0}, {ID: "b", Quality: 0.5}}
	config := DefaultReplayConfig()
	config.Thresholds = drift.Thresholds{0.6, 0.2, 0.2, 0.2}

	run, _ := Replay(steps, config)
	if run.Results[1].Alarm {
		t.Fatal("0.5 drift must not alarm with a 0.6 threshold")
	}
}

// 5. Invalid thresholds surface as an error.
func TestReplay_InvalidThresholds(t *testing.T) {
	config := DefaultReplayConfig()
	config.Thresholds[0] = -1
	if _, err := Replay(nil, config); err == nil {
		t.Fatal("expected error")
	}
}

// 6. Every analysis carries an eval result; failures are counted.
func TestReplay_EvalResults(t *testing.T) {
	steps := []Step{
		{ID: "a", Quality: 1.0},
		{ID: "b", Quality: 0.2},
		{ID: "r", Rotate: true},
	}
	run, err := Replay(steps, DefaultReplayConfig())
	if err != nil {
		t.Fatalf("Replay: %v", err)
	}
	if run.Results[0].Eval == nil || !run.Results[0].Eval.Passed {
		t.Fatalf("expected passing eval for step a, got %+v", run.Results[0].Eval)
	}
	if run.Results[1].Eval == nil || run.Results[1].Eval.Passed {
		t.Fatalf("expected failing eval for step b, got %+v", run.Results[1].Eval)
	}
	if run.Results[2].Eval != nil {
		t.Fatal("rotate steps carry no eval")
	}
	if s := run.Summarize(); s.EvalFailures != 1 {
		t.Fatalf("expected 1 eval failure, got %d", s.EvalFailures)
	}
}
