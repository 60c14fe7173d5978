package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/danielpatrickdp/truthjournal/internal/handshake"
)

var errHandshakeRejected = errors.New("handshake rejected")

type handshakeOutput struct {
	Confirmed bool         `json:"confirmed"`
	Mode      string       `json:"mode"`
	Reason    string       `json:"reason"`
	Vetoes    []vetoOutput `json:"vetoes,omitempty"`
}

type vetoOutput struct {
	Type   handshake.VetoType `json:"type"`
	Reason string             `json:"reason"`
}

func newHandshakeCommand(ctx *commandContext) *cobra.Command {
	var file string
	var audit bool

	cmd := &cobra.Command{
		Use:   "handshake",
		Short: "Verify the activation handshake document",
		Long: "Verify the activation handshake. Without --file the built-in canonical " +
			"document is checked. Exits non-zero when the handshake is rejected.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			doc := handshake.Canonical
			if file != "" {
				data, err := os.ReadFile(file)
				if err != nil {
					return fmt.Errorf("read handshake document: %w", err)
				}
				doc = string(data)
			}

			hc := handshake.DefaultConfig()
			hc.Audit = cfg.Handshake.Audit
			if cmd.Flags().Changed("audit") {
				hc.Audit = audit
			}
			decision := handshake.NewGate(hc).Evaluate(doc)

			if ctx.jsonOutput() {
				out := handshakeOutput{Confirmed: decision.Confirmed(), Mode: decision.Mode, Reason: decision.Reason}
				for _, v := range decision.VetoSignals {
					out.Vetoes = append(out.Vetoes, vetoOutput{Type: v.Type, Reason: v.Reason})
				}
				if err := writeJSON(cmd, out); err != nil {
					return err
				}
			} else {
				w := cmd.OutOrStdout()
				fmt.Fprintln(w, decision.Reason)
				for _, v := range decision.VetoSignals {
					fmt.Fprintf(w, "  %s: %s\n", v.Type, v.Reason)
				}
			}

			if !decision.Confirmed() {
				return errHandshakeRejected
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "Handshake document to verify")
	cmd.Flags().BoolVar(&audit, "audit", false, "Require an exact match with the canonical document")
	return cmd
}
