package cli

import (
	"github.com/spf13/cobra"
)

func NewInitCmd(deps *Deps) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "create an empty index on the selected branch",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			k, err := deps.kit(cmd.Context())
			if err != nil {
				return err
			}
			res, err := k.Init(cmd.Context())
			if err != nil {
				return err
			}
			return report(cmd, deps, res)
		},
	}
}
