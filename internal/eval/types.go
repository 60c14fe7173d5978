package eval

// #region eval-config
// EvalConfig holds floors for post-analysis validation.
type EvalConfig struct {
	MinQuality   float64 // fail if the quality axis drops below this
	MinAxis      float64 // fail if any integrity axis drops below this
	MaxDriftNorm float64 // informational: L2 norm of the anchor diff
}

// DefaultEvalConfig returns the default floors.
func DefaultEvalConfig() EvalConfig {
	return EvalConfig{
		MinQuality:   0.5,
		MinAxis:      0.5,
		MaxDriftNorm: 0.4,
	}
}

// #endregion eval-config

// #region eval-metric
// EvalMetric captures a single validation check result.
type EvalMetric struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
	Pass  bool    `json:"pass"`
}

// #endregion eval-metric

// #region eval-result
// EvalResult is the output of post-analysis validation.
type EvalResult struct {
	Passed  bool         `json:"passed"`
	Metrics []EvalMetric `json:"metrics"`
	Reason  string       `json:"reason"`
}

// #endregion eval-result
