package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/danielpatrickdp/truthjournal/internal/journal"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List journal entries, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var entries []journal.Entry
			err := ctx.withSession(cmd, func(s *session) error {
				var err error
				entries, err = s.log.List(limit)
				return err
			})
			if err != nil {
				return fmt.Errorf("list journal: %w", err)
			}

			if ctx.jsonOutput() {
				if entries == nil {
					entries = []journal.Entry{}
				}
				return writeJSON(cmd, entries)
			}
			if len(entries) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No journal entries")
				return nil
			}

			rows := make([][]string, 0, len(entries))
			for _, e := range entries {
				rows = append(rows, []string{
					e.ID,
					e.Event,
					e.Vector.String(),
					e.DiffAnchor.String(),
					yesNo(e.Alarm),
					e.Scorer,
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"ID", "Event", "Vector", "Diff Anchor", "Alarm", "Scorer"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignLeft, alignLeft},
			))
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum entries to show (0 for all)")
	return cmd
}

func newVerifyJournalCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "verify-journal",
		Short: "Check the journal hash chain for tampering",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var entries []journal.Entry
			err := ctx.withSession(cmd, func(s *session) error {
				var err error
				entries, err = s.log.List(0)
				return err
			})
			if err != nil {
				return fmt.Errorf("list journal: %w", err)
			}
			if err := journal.Verify(entries); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Journal intact: %d entries\n", len(entries))
			return nil
		},
	}
}
