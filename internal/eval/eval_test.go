package eval

import (
	"math"
	"strings"
	"testing"

	"github.com/danielpatrickdp/truthjournal/internal/drift"
	"github.com/danielpatrickdp/truthjournal/internal/vector"
)

func makeReport(v, diff vector.Truth) drift.Report {
	return drift.Report{Vector: v, DiffAnchor: diff}
}

func TestEvalPassesOnIdealVector(t *testing.T) {
	h := NewEvalHarness(DefaultEvalConfig())

	result := h.Run(makeReport(vector.Ideal, vector.Truth{}))

	if !result.Passed {
		t.Fatalf("expected pass on ideal vector, got fail: %s", result.Reason)
	}
	if result.Reason != "all checks passed" {
		t.Fatalf("unexpected reason %q", result.Reason)
	}
}

func TestEvalFailsOnLowQuality(t *testing.T) {
	h := NewEvalHarness(DefaultEvalConfig())

	result := h.Run(makeReport(vector.Truth{0.2, 1, 1, 1}, vector.Truth{}))

	if result.Passed {
		t.Fatal("expected fail on low quality")
	}
	if !strings.Contains(result.Reason, "quality") {
		t.Fatalf("reason should name quality, got %q", result.Reason)
	}
}

func TestEvalFailsOnIntegrityAxis(t *testing.T) {
	config := DefaultEvalConfig()
	config.MinAxis = 0.6
	h := NewEvalHarness(config)

	// one factual and one contextual tag out of two: both axes at 0.5
	result := h.Run(makeReport(vector.Truth{1, 0.5, 0.5, 1}, vector.Truth{}))

	if result.Passed {
		t.Fatal("expected fail on integrity floor")
	}
	if !strings.Contains(result.Reason, "2 checks") {
		t.Fatalf("expected two failed checks, got %q", result.Reason)
	}

	foundFail := false
	for _, m := range result.Metrics {
		if m.Name == "axis_contextual" && !m.Pass {
			foundFail = true
		}
	}
	if !foundFail {
		t.Fatal("expected axis_contextual metric to fail")
	}
}

func TestEvalDriftNormInformationalOnly(t *testing.T) {
	h := NewEvalHarness(DefaultEvalConfig())

	result := h.Run(makeReport(vector.Ideal, vector.Truth{0.5, 0.5, 0, 0}))

	if !result.Passed {
		t.Fatalf("drift norm should be informational, not blocking: %s", result.Reason)
	}
	for _, m := range result.Metrics {
		if m.Name != "drift_norm" {
			continue
		}
		if m.Pass {
			t.Fatal("drift_norm metric should show pass=false above the limit")
		}
		if math.Abs(m.Value-math.Sqrt(0.5)) > 1e-9 {
			t.Fatalf("drift_norm = %v, want sqrt(0.5)", m.Value)
		}
	}
}

func TestEvalMetricCount(t *testing.T) {
	h := NewEvalHarness(DefaultEvalConfig())

	result := h.Run(makeReport(vector.Ideal, vector.Truth{}))

	// quality + 3 integrity axes + drift norm
	if len(result.Metrics) != 5 {
		t.Fatalf("expected 5 metrics, got %d", len(result.Metrics))
	}
}
