package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jlrickert/ontokit/pkg/ontokit"
)

// report prints a successful result message, or turns a failed one into an
// error.
func report(cmd *cobra.Command, deps *Deps, res ontokit.Result) error {
	if deps.JSON {
		if err := writeJSON(cmd, res); err != nil {
			return err
		}
	}
	if !res.Success {
		return &resultError{res: res}
	}
	if deps.JSON {
		return nil
	}
	_, err := fmt.Fprintln(cmd.OutOrStdout(), res.Message)
	return err
}

func writeJSON(cmd *cobra.Command, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), string(b))
	return err
}

// preview prints the diff a transform would produce.
func preview(cmd *cobra.Command, diff string) error {
	if diff == "" {
		_, err := fmt.Fprintln(cmd.OutOrStdout(), "no changes")
		return err
	}
	_, err := fmt.Fprint(cmd.OutOrStdout(), diff)
	return err
}

func bindDryRun(cmd *cobra.Command, deps *Deps) {
	cmd.Flags().BoolVar(&deps.DryRun, "dry-run", false, "print the index diff instead of writing")
}
