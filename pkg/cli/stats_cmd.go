package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jlrickert/ontokit/pkg/ontokit"
)

// NewStatsCmd returns the `stats` cobra command.
func NewStatsCmd(deps *Deps) *cobra.Command {
	var html bool

	cmd := &cobra.Command{
		Use:     "stats",
		Short:   "display the test dashboard",
		Long:    "Display test counts per ontology, by type and by status, as a markdown table.",
		Aliases: []string{"dashboard"},
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			k, err := deps.kit(cmd.Context())
			if err != nil {
				return err
			}
			stats, err := k.Stats(cmd.Context())
			if err != nil {
				return err
			}

			var output string
			switch {
			case deps.JSON:
				return writeJSON(cmd, stats)
			case html:
				output, err = ontokit.DashboardHTML(stats, k.Prefixes())
				if err != nil {
					return err
				}
			default:
				output = ontokit.DashboardMarkdown(stats, k.Prefixes())
			}

			_, err = fmt.Fprint(cmd.OutOrStdout(), output)
			return err
		},
	}

	cmd.Flags().BoolVar(&html, "html", false, "render the dashboard as HTML")

	return cmd
}
