package eval

import (
	"fmt"
	"math"

	"github.com/danielpatrickdp/truthjournal/internal/drift"
	"github.com/danielpatrickdp/truthjournal/internal/vector"
)

// #region eval-harness
// EvalHarness runs lightweight validation on an analyzed vector.
type EvalHarness struct {
	config EvalConfig
}

// NewEvalHarness creates an eval harness with the given configuration.
func NewEvalHarness(config EvalConfig) *EvalHarness {
	return &EvalHarness{config: config}
}

// Run checks the report's vector against the configured floors. Drift norm is
// reported but never fails the run; alarms already cover drift.
func (h *EvalHarness) Run(r drift.Report) EvalResult {
	var metrics []EvalMetric
	passed := true
	var failReasons []string

	// 1. Quality floor
	quality := r.Vector[0]
	qualityPass := quality >= h.config.MinQuality
	metrics = append(metrics, EvalMetric{
		Name:  "quality",
		Value: quality,
		Pass:  qualityPass,
	})
	if !qualityPass {
		passed = false
		failReasons = append(failReasons, fmt.Sprintf("quality %.4f below %.4f", quality, h.config.MinQuality))
	}

	// 2. Integrity axes
	for i := 1; i < vector.Dims; i++ {
		v := r.Vector[i]
		axisPass := v >= h.config.MinAxis
		metrics = append(metrics, EvalMetric{
			Name:  "axis_" + vector.AxisNames[i],
			Value: v,
			Pass:  axisPass,
		})
		if !axisPass {
			passed = false
			failReasons = append(failReasons, fmt.Sprintf("%s axis %.4f below %.4f", vector.AxisNames[i], v, h.config.MinAxis))
		}
	}

	// 3. Drift norm: informational only
	norm := l2(r.DiffAnchor)
	metrics = append(metrics, EvalMetric{
		Name:  "drift_norm",
		Value: norm,
		Pass:  norm <= h.config.MaxDriftNorm,
	})

	reason := "all checks passed"
	if !passed {
		reason = fmt.Sprintf("eval failed: %s", failReasons[0])
		if len(failReasons) > 1 {
			reason = fmt.Sprintf("eval failed: %d checks: %s", len(failReasons), failReasons[0])
		}
	}

	return EvalResult{
		Passed:  passed,
		Metrics: metrics,
		Reason:  reason,
	}
}

// #endregion eval-harness

// #region helpers
func l2(v vector.Truth) float64 {
	var sum float64
	for _, x := range v {
		sum += x * x
	}
	return math.Sqrt(sum)
}

// #endregion helpers
