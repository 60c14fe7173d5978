package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/danielpatrickdp/truthjournal/internal/replay"
)

type replayOutput struct {
	Description   string             `json:"description,omitempty"`
	Steps         []replayStepOutput `json:"steps"`
	Analyses      int                `json:"analyses"`
	Alarms        int                `json:"alarms"`
	Rotations     int                `json:"rotations"`
	FailedRotates int                `json:"failed_rotates"`
	EvalFailures  int                `json:"eval_failures"`
	FinalBaseline []float64          `json:"final_baseline"`
	Mismatches    []replay.Mismatch  `json:"mismatches,omitempty"`
}

type replayStepOutput struct {
	ID     string `json:"id"`
	Action string `json:"action"`
	Reason string `json:"reason,omitempty"`
	Alarm  bool   `json:"alarm"`
}

func newReplayCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:         "replay <fixture.json>",
		Short:       "Replay a recorded session through a fresh in-memory engine",
		Args:        cobra.ExactArgs(1),
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			fixture, err := replay.LoadFixture(args[0])
			if err != nil {
				return err
			}
			config, err := fixture.ToConfig()
			if err != nil {
				return err
			}
			run, err := replay.Replay(fixture.ToSteps(), config)
			if err != nil {
				return err
			}

			summary := run.Summarize()
			mismatches := fixture.Check(run.Results)
			out := replayOutput{
				Description:   fixture.Description,
				Analyses:      summary.Analyses,
				Alarms:        summary.Alarms,
				Rotations:     summary.Rotations,
				FailedRotates: summary.FailedRotates,
				EvalFailures:  summary.EvalFailures,
				FinalBaseline: summary.FinalBaseline.Slice(),
				Mismatches:    mismatches,
			}
			for _, r := range run.Results {
				out.Steps = append(out.Steps, replayStepOutput{ID: r.StepID, Action: r.Action, Reason: r.Reason, Alarm: r.Alarm})
			}

			if ctx.jsonOutput() {
				if err := writeJSON(cmd, out); err != nil {
					return err
				}
			} else {
				w := cmd.OutOrStdout()
				rows := make([][]string, 0, len(out.Steps))
				for _, s := range out.Steps {
					rows = append(rows, []string{s.ID, s.Action, yesNo(s.Alarm), s.Reason})
				}
				fmt.Fprintln(w, renderTable([]string{"Step", "Action", "Alarm", "Reason"}, rows, nil))
				fmt.Fprintf(w, "Analyses: %d  Alarms: %d  Rotations: %d  Failed rotations: %d\n",
					out.Analyses, out.Alarms, out.Rotations, out.FailedRotates)
				fmt.Fprintf(w, "Eval failures: %d\n", out.EvalFailures)
				fmt.Fprintf(w, "Final baseline: %s\n", summary.FinalBaseline)
				for _, m := range mismatches {
					fmt.Fprintf(w, "Mismatch at %s: expected alarm=%v, got %v\n", m.StepID, m.Want, m.Got)
				}
			}

			if len(mismatches) > 0 {
				return fmt.Errorf("replay: %d step(s) differ from fixture expectations", len(mismatches))
			}
			return nil
		},
	}
}
