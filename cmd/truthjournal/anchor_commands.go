package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/danielpatrickdp/truthjournal/internal/drift"
	"github.com/danielpatrickdp/truthjournal/internal/state"
	"github.com/danielpatrickdp/truthjournal/internal/vector"
)

func newRotateAnchorCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "rotate-anchor [quality factual contextual other]",
		Short: "Replace the baseline with a vector or the last report",
		Long: "Replace the baseline. With four components the vector is used as given " +
			"(clamped into [0,1]); with no arguments the last analyzed vector is promoted.",
		RunE: func(cmd *cobra.Command, args []string) error {
			var vals []float64
			for _, arg := range args {
				v, err := strconv.ParseFloat(arg, 64)
				if err != nil {
					return fmt.Errorf("parse component %q: %w", arg, err)
				}
				vals = append(vals, v)
			}

			var baseline state.Record
			err := ctx.withSession(cmd, func(s *session) error {
				if err := s.engine.RotateAnchorSlice(vals); err != nil {
					return err
				}
				baseline, _ = s.engine.Baseline()
				return nil
			})
			if err != nil {
				return err
			}

			if ctx.jsonOutput() {
				return writeJSON(cmd, recordJSON(baseline))
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Baseline rotated to %s\n", baseline.Vector)
			return nil
		},
	}
}

type recordOutput struct {
	Vector    []float64 `json:"vector"`
	Timestamp string    `json:"timestamp"`
}

func recordJSON(r state.Record) *recordOutput {
	return &recordOutput{Vector: r.Vector.Slice(), Timestamp: r.CapturedAt.UTC().Format(time.RFC3339)}
}

type statusOutput struct {
	State      drift.Phase   `json:"state"`
	Backend    string        `json:"backend"`
	StateDir   string        `json:"state_dir"`
	Thresholds []float64     `json:"thresholds"`
	Baseline   *recordOutput `json:"baseline"`
	LastReport *recordOutput `json:"last_report"`
	Entries    int           `json:"journal_entries"`
}

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the baseline, last report, and thresholds",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			out := statusOutput{Backend: cfg.Store.Backend, StateDir: cfg.Paths.StateDir}
			var baseline, last state.Record
			var hasBaseline, hasLast bool
			var thresholds drift.Thresholds
			err = ctx.withSession(cmd, func(s *session) error {
				out.State = s.engine.State()
				thresholds = s.engine.Thresholds()
				baseline, hasBaseline = s.engine.Baseline()
				last, hasLast = s.engine.LastReport()
				entries, err := s.log.List(0)
				if err != nil {
					return fmt.Errorf("list journal: %w", err)
				}
				out.Entries = len(entries)
				return nil
			})
			if err != nil {
				return err
			}
			out.Thresholds = thresholds[:]
			if hasBaseline {
				out.Baseline = recordJSON(baseline)
			}
			if hasLast {
				out.LastReport = recordJSON(last)
			}

			if ctx.jsonOutput() {
				return writeJSON(cmd, out)
			}

			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "State: %s\n", out.State)
			fmt.Fprintf(w, "Backend: %s (%s)\n", out.Backend, out.StateDir)
			fmt.Fprintf(w, "Journal entries: %d\n", out.Entries)

			rows := [][]string{axisRow("threshold", vector.Truth(thresholds))}
			if hasBaseline {
				rows = append(rows, axisRow("baseline", baseline.Vector))
			}
			if hasLast {
				rows = append(rows, axisRow("last report", last.Vector))
			}
			fmt.Fprintln(w, renderTable(axisHeaders(""), rows, axisAligns()))
			return nil
		},
	}
}
