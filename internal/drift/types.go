package drift

import (
	"errors"
	"log/slog"
	"time"

	"github.com/danielpatrickdp/truthjournal/internal/vector"
)

// ErrNoVectorAvailable is returned by RotateAnchor when no vector was given
// and nothing has been analyzed yet.
var ErrNoVectorAvailable = errors.New("no vector available to rotate to")

// DefaultThreshold is the per-axis alarm threshold.
const DefaultThreshold = 0.20

// #region phase
// Phase is the engine's lifecycle state.
type Phase string

const (
	Uninitialized Phase = "uninitialized"
	Baselined     Phase = "baselined"
)

// #endregion phase

// #region thresholds
// Thresholds holds one alarm threshold per axis. An axis alarms when its
// distance from the baseline is strictly greater than its threshold.
type Thresholds [vector.Dims]float64

// DefaultThresholds returns DefaultThreshold on every axis.
func DefaultThresholds() Thresholds {
	var t Thresholds
	for i := range t {
		t[i] = DefaultThreshold
	}
	return t
}

// #endregion thresholds

// #region options
// Options configures an Engine. Zero values select defaults.
type Options struct {
	Thresholds *Thresholds
	Scorers    []vector.Scorer // tried in order; first success wins
	Logger     *slog.Logger
	Now        func() time.Time
}

// #endregion options

// #region report
// AxisCheck is the drift check for one axis.
type AxisCheck struct {
	Axis      string
	Diff      float64
	Threshold float64
	Exceeded  bool
}

// Report is the full outcome of one analysis.
type Report struct {
	Vector      vector.Truth
	DiffAnchor  vector.Truth
	DiffLast    *vector.Truth // nil when no previous report existed
	Alarm       bool
	Axes        []AxisCheck
	Scorer      string // name of the scorer that produced Vector
	NewBaseline bool   // this call established the baseline
	EntryID     string // empty if the audit append failed
}

// #endregion report
