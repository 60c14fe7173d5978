package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/danielpatrickdp/truthjournal/internal/ingest"
)

type ingestOutput struct {
	Processed int                `json:"processed"`
	Alarms    int                `json:"alarms"`
	Failed    int                `json:"failed"`
	Files     []ingestFileOutput `json:"files"`
}

type ingestFileOutput struct {
	File     string `json:"file"`
	Output   string `json:"output,omitempty"`
	Archived string `json:"archived,omitempty"`
	Alarm    bool   `json:"alarm"`
	Error    string `json:"error,omitempty"`
}

func newIngestCommand(ctx *commandContext) *cobra.Command {
	var incoming, output, archive string
	var skipAnalysis bool

	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Process incoming reports into analyzed JSON records",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			p := &ingest.Pipeline{
				IncomingDir: firstNonEmpty(incoming, cfg.Paths.IncomingDir),
				OutputDir:   firstNonEmpty(output, cfg.Paths.OutputDir),
				ArchiveDir:  firstNonEmpty(archive, cfg.Paths.ArchiveDir),
				Logger:      ctx.logger,
			}

			var summary ingest.Summary
			err = ctx.withSession(cmd, func(s *session) error {
				if !skipAnalysis {
					p.Analyzer = s.engine
				}
				var runErr error
				summary, runErr = p.Run(cmd.Context())
				return runErr
			})
			if err != nil {
				return err
			}

			out := ingestOutput{Processed: summary.Processed, Alarms: summary.Alarms, Failed: summary.Failed}
			for _, r := range summary.Results {
				f := ingestFileOutput{File: r.File, Output: r.OutputPath, Archived: r.ArchivePath}
				if r.Record.Analysis != nil {
					f.Alarm = r.Record.Analysis.Alarm
				}
				if r.Err != nil {
					f.Error = r.Err.Error()
				}
				out.Files = append(out.Files, f)
			}

			if ctx.jsonOutput() {
				return writeJSON(cmd, out)
			}
			w := cmd.OutOrStdout()
			if len(out.Files) > 0 {
				rows := make([][]string, 0, len(out.Files))
				for _, f := range out.Files {
					status := "ok"
					if f.Error != "" {
						status = f.Error
					}
					rows = append(rows, []string{f.File, yesNo(f.Alarm), status})
				}
				fmt.Fprintln(w, renderTable([]string{"File", "Alarm", "Status"}, rows, nil))
			}
			fmt.Fprintf(w, "Processed %d report(s), %d alarm(s), %d failed\n", out.Processed, out.Alarms, out.Failed)
			return nil
		},
	}
	cmd.Flags().StringVar(&incoming, "incoming", "", "Incoming reports directory (overrides config)")
	cmd.Flags().StringVar(&output, "output", "", "Record output directory (overrides config)")
	cmd.Flags().StringVar(&archive, "archive", "", "Archive directory (overrides config)")
	cmd.Flags().BoolVar(&skipAnalysis, "no-analyze", false, "Write records without drift analysis")
	return cmd
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
