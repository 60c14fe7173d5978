package replay

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/danielpatrickdp/truthjournal/internal/drift"
	"github.com/danielpatrickdp/truthjournal/internal/vector"
)

// #region fixture-types

// Fixture is the top-level JSON structure for a replay fixture.
type Fixture struct {
	Description string        `json:"description"`
	Thresholds  []float64     `json:"thresholds,omitempty"`
	StartAnchor []float64     `json:"start_anchor,omitempty"`
	Steps       []FixtureStep `json:"steps"`
}

// FixtureStep is one analysis or rotation. A rotate step with no rotate_to
// promotes the last report.
type FixtureStep struct {
	ID           string    `json:"id"`
	QualityScore float64   `json:"quality_score"`
	Tags         []string  `json:"tags"`
	Rotate       bool      `json:"rotate,omitempty"`
	RotateTo     []float64 `json:"rotate_to,omitempty"`
	ExpectAlarm  *bool     `json:"expect_alarm,omitempty"`
}

// #endregion fixture-types

// #region fixture-loader

// LoadFixture reads and parses a JSON fixture file.
func LoadFixture(path string) (*Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixture %s: %w", path, err)
	}
	var f Fixture
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse fixture %s: %w", path, err)
	}
	return &f, nil
}

// ToConfig converts fixture thresholds and anchor to a ReplayConfig.
func (f *Fixture) ToConfig() (ReplayConfig, error) {
	cfg := DefaultReplayConfig()
	if len(f.Thresholds) > 0 {
		t, err := vector.FromSlice(f.Thresholds)
		if err != nil {
			return cfg, fmt.Errorf("thresholds: %w", err)
		}
		cfg.Thresholds = drift.Thresholds(t)
	}
	if f.StartAnchor != nil {
		a, err := vector.FromSlice(f.StartAnchor)
		if err != nil {
			return cfg, fmt.Errorf("start_anchor: %w", err)
		}
		cfg.StartAnchor = &a
	}
	return cfg, nil
}

// ToStep converts a FixtureStep to a domain Step.
func (fs *FixtureStep) ToStep() Step {
	return Step{
		ID:       fs.ID,
		Quality:  fs.QualityScore,
		Tags:     fs.Tags,
		Rotate:   fs.Rotate,
		RotateTo: fs.RotateTo,
	}
}

// ToSteps converts every fixture step.
func (f *Fixture) ToSteps() []Step {
	steps := make([]Step, len(f.Steps))
	for i := range f.Steps {
		steps[i] = f.Steps[i].ToStep()
	}
	return steps
}

// #endregion fixture-loader

// #region check

// Mismatch is a step whose alarm differs from the fixture's expectation.
type Mismatch struct {
	StepID string `json:"step_id"`
	Want   bool   `json:"want"`
	Got    bool   `json:"got"`
}

// Check compares results against expect_alarm entries. Steps without an
// expectation are skipped.
func (f *Fixture) Check(results []ReplayResult) []Mismatch {
	var out []Mismatch
	for i, step := range f.Steps {
		if step.ExpectAlarm == nil || i >= len(results) {
			continue
		}
		if results[i].Alarm != *step.ExpectAlarm {
			out = append(out, Mismatch{StepID: step.ID, Want: *step.ExpectAlarm, Got: results[i].Alarm})
		}
	}
	return out
}

// #endregion check
