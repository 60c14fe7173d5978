package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/danielpatrickdp/truthjournal/internal/ledger"
)

var errNodeInvalid = errors.New("ledger node invalid")

type nodeOutput struct {
	Valid        bool             `json:"valid"`
	ExpectedHash string           `json:"expected_hash,omitempty"`
	Failures     []ledger.Failure `json:"failures,omitempty"`
}

func newValidateNodeCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:         "validate-node <file>",
		Short:       "Validate a ledger node JSON file",
		Args:        cobra.ExactArgs(1),
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			node, err := ledger.Load(args[0])
			if err != nil {
				return err
			}
			res := ledger.Validate(node)
			out := nodeOutput{Valid: res.Valid, Failures: res.Failures}
			if h, err := ledger.Hash(node); err == nil {
				out.ExpectedHash = h
			}

			if ctx.jsonOutput() {
				if err := writeJSON(cmd, out); err != nil {
					return err
				}
			} else if res.Valid {
				fmt.Fprintf(cmd.OutOrStdout(), "Node valid: %v\n", node[ledger.FieldID])
			} else {
				rows := make([][]string, 0, len(res.Failures))
				for _, f := range res.Failures {
					rows = append(rows, []string{f.Field, f.Reason})
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Field", "Failure"}, rows, nil))
			}

			if !res.Valid {
				return errNodeInvalid
			}
			return nil
		},
	}
}
