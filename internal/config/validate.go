package config

import (
	"errors"
	"fmt"
	"math"
	"path/filepath"
	"strings"
)

// Validate checks the configuration for values the journal cannot run with.
func (c *Config) Validate() error {
	var problems []string

	if strings.TrimSpace(c.Paths.StateDir) == "" {
		problems = append(problems, "paths.state_dir must be set")
	}
	switch c.Store.Backend {
	case BackendSQLite, BackendFile:
	default:
		problems = append(problems, fmt.Sprintf("store.backend: unsupported value %q", c.Store.Backend))
	}
	if c.Store.Backend == BackendFile && c.Paths.AuditDir != "" &&
		filepath.Clean(c.Paths.AuditDir) == filepath.Clean(c.Paths.StateDir) {
		problems = append(problems, "paths.audit_dir must differ from paths.state_dir for the file backend")
	}
	if len(c.Drift.Thresholds) != 4 {
		problems = append(problems, fmt.Sprintf("drift.thresholds: expected 4 values, got %d", len(c.Drift.Thresholds)))
	}
	for i, t := range c.Drift.Thresholds {
		if math.IsNaN(t) || t < 0 || t > 1 {
			problems = append(problems, fmt.Sprintf("drift.thresholds[%d]: %v outside [0, 1]", i, t))
		}
	}
	if v := c.Eval.MinQuality; math.IsNaN(v) || v < 0 || v > 1 {
		problems = append(problems, fmt.Sprintf("eval.min_quality: %v outside [0, 1]", v))
	}
	if v := c.Eval.MinAxis; math.IsNaN(v) || v < 0 || v > 1 {
		problems = append(problems, fmt.Sprintf("eval.min_axis: %v outside [0, 1]", v))
	}
	if math.IsNaN(c.Eval.MaxDriftNorm) || c.Eval.MaxDriftNorm < 0 {
		problems = append(problems, "eval.max_drift_norm must not be negative")
	}
	switch c.Logging.Format {
	case "", "auto", "console", "json":
	default:
		problems = append(problems, fmt.Sprintf("logging.format: unsupported value %q", c.Logging.Format))
	}
	if c.LLM.TimeoutSeconds < 0 {
		problems = append(problems, "llm.timeout_seconds must not be negative")
	}

	if len(problems) > 0 {
		return errors.New("invalid config: " + strings.Join(problems, "; "))
	}
	return nil
}
