package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jlrickert/ontokit/pkg/mcpserver"
	"github.com/jlrickert/ontokit/pkg/prefs"
)

func NewWatchCmd(deps *Deps) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "print the selection each time it changes",
		Long:  "Follow the selection file and print every new repository/branch selection until interrupted.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			k, err := deps.kit(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "watching %s\n", k.Selection().Path())
			return k.Watch(cmd.Context(), func(s prefs.Selection) {
				fmt.Fprintf(out, "%s@%s\n", s.Repository, s.Branch)
			})
		},
	}
}

func NewMCPCmd(deps *Deps) *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "serve the index as Model Context Protocol tools over stdio",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			k, err := deps.kit(ctx)
			if err != nil {
				return err
			}
			// reload whenever another process changes the selection
			go func() { _ = k.Watch(ctx, nil) }()
			streams := deps.Runtime.Stream()
			return mcpserver.New(k, Version).Run(ctx, streams.In, streams.Out)
		},
	}
}
