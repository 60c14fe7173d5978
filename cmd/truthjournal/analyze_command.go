package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/danielpatrickdp/truthjournal/internal/drift"
	"github.com/danielpatrickdp/truthjournal/internal/eval"
)

// errDriftAlarm is returned with --fail-on-alarm so scripts can branch on it.
var errDriftAlarm = errors.New("drift alarm raised")

type analyzeOutput struct {
	Vector     []float64        `json:"vector"`
	DiffAnchor []float64        `json:"diff_anchor"`
	DiffLast   []float64        `json:"diff_last"`
	Alarm      bool             `json:"alarm"`
	Scorer     string           `json:"scorer"`
	EntryID    string           `json:"entry_id,omitempty"`
	Baseline   bool             `json:"new_baseline"`
	Axes       []axisJSON       `json:"axes"`
	Eval       *eval.EvalResult `json:"eval"`
}

type axisJSON struct {
	Axis      string  `json:"axis"`
	Diff      float64 `json:"diff"`
	Threshold float64 `json:"threshold"`
	Exceeded  bool    `json:"exceeded"`
}

func newAnalyzeCommand(ctx *commandContext) *cobra.Command {
	var quality float64
	var tags []string
	var failOnAlarm bool

	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Score one input and compare it with the baseline",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			var report drift.Report
			err = ctx.withSession(cmd, func(s *session) error {
				report = s.engine.Report(quality, tags)
				return nil
			})
			if err != nil {
				return err
			}
			health := eval.NewEvalHarness(evalConfig(cfg)).Run(report)

			if ctx.jsonOutput() {
				out := toAnalyzeOutput(report)
				out.Eval = &health
				if err := writeJSON(cmd, out); err != nil {
					return err
				}
			} else {
				printReport(cmd, report)
				fmt.Fprintf(cmd.OutOrStdout(), "Eval: %s\n", health.Reason)
			}
			if failOnAlarm && report.Alarm {
				return errDriftAlarm
			}
			return nil
		},
	}
	cmd.Flags().Float64VarP(&quality, "quality", "q", 1.0, "Quality score (clamped into [0,1])")
	cmd.Flags().StringSliceVarP(&tags, "tag", "t", nil, "Issue tag (repeatable or comma-separated)")
	cmd.Flags().BoolVar(&failOnAlarm, "fail-on-alarm", false, "Exit non-zero when the alarm is raised")
	return cmd
}

func toAnalyzeOutput(r drift.Report) analyzeOutput {
	out := analyzeOutput{
		Vector:     r.Vector.Slice(),
		DiffAnchor: r.DiffAnchor.Slice(),
		Alarm:      r.Alarm,
		Scorer:     r.Scorer,
		EntryID:    r.EntryID,
		Baseline:   r.NewBaseline,
	}
	if r.DiffLast != nil {
		out.DiffLast = r.DiffLast.Slice()
	}
	for _, a := range r.Axes {
		out.Axes = append(out.Axes, axisJSON{Axis: a.Axis, Diff: a.Diff, Threshold: a.Threshold, Exceeded: a.Exceeded})
	}
	return out
}

func printReport(cmd *cobra.Command, r drift.Report) {
	rows := [][]string{axisRow("vector", r.Vector), axisRow("diff anchor", r.DiffAnchor)}
	if r.DiffLast != nil {
		rows = append(rows, axisRow("diff last", *r.DiffLast))
	}
	threshold := []string{"threshold"}
	for _, a := range r.Axes {
		threshold = append(threshold, formatAxis(a.Threshold))
	}
	rows = append(rows, threshold)

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, renderTable(axisHeaders(""), rows, axisAligns()))
	fmt.Fprintf(out, "Alarm: %s\n", yesNo(r.Alarm))
	fmt.Fprintf(out, "Scorer: %s\n", r.Scorer)
	if r.NewBaseline {
		fmt.Fprintln(out, "Baseline established")
	}
	if r.EntryID != "" {
		fmt.Fprintf(out, "Entry: %s\n", r.EntryID)
	}
}
