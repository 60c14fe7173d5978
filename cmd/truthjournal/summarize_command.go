package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/danielpatrickdp/truthjournal/internal/summarize"
)

func newSummarizeCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "summarize <input.json|->",
		Short: "Summarize an analysis record into Observe/Orient/Decide/Act",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if cfg.LLM.APIKey == "" {
				return errors.New("llm api key not configured (set [llm] api_key or TRUTHJOURNAL_LLM_API_KEY)")
			}

			input, err := readInput(cmd, args[0])
			if err != nil {
				return err
			}

			client := summarize.NewClient(summarize.Config{
				APIKey:         cfg.LLM.APIKey,
				BaseURL:        cfg.LLM.BaseURL,
				Model:          cfg.LLM.Model,
				TimeoutSeconds: cfg.LLM.TimeoutSeconds,
			}, summarize.WithLogger(ctx.logger))
			ooda, err := client.Summarize(cmd.Context(), input)
			if err != nil {
				return err
			}

			if ctx.jsonOutput() {
				return writeJSON(cmd, ooda)
			}
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "Observe: %s\n", ooda.Observe)
			fmt.Fprintf(w, "Orient:  %s\n", ooda.Orient)
			fmt.Fprintf(w, "Decide:  %s\n", ooda.Decide)
			fmt.Fprintf(w, "Act:     %s\n", ooda.Act)
			return nil
		},
	}
}

func readInput(cmd *cobra.Command, path string) (map[string]any, error) {
	var data []byte
	var err error
	if path == "-" {
		data, err = io.ReadAll(cmd.InOrStdin())
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("read input: %w", err)
	}
	var input map[string]any
	if err := json.Unmarshal(data, &input); err != nil {
		return nil, fmt.Errorf("parse input %s: %w", path, err)
	}
	return input, nil
}
