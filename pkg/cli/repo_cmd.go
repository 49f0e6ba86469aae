package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func NewRepoCmd(deps *Deps) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "repo",
		Short: "choose the repository and branch to work on",
	}
	cmd.AddCommand(
		newRepoListCmd(deps),
		newRepoShowCmd(deps),
		newRepoSelectCmd(deps),
		newRepoBranchesCmd(deps),
		newRepoModeCmd(deps),
	)
	return cmd
}

func newRepoListCmd(deps *Deps) *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Short:   "list repositories visible to the token",
		Aliases: []string{"ls"},
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			k, err := deps.kit(cmd.Context())
			if err != nil {
				return err
			}
			repos, err := k.Repositories(cmd.Context())
			if err != nil {
				return err
			}
			if deps.JSON {
				return writeJSON(cmd, repos)
			}
			for _, r := range repos {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", r.FullName, r.DefaultBranch)
			}
			return nil
		},
	}
}

func newRepoShowCmd(deps *Deps) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "print the current selection",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			k, err := deps.kit(cmd.Context())
			if err != nil {
				return err
			}
			sel := k.Selection().Current()
			if deps.JSON {
				return writeJSON(cmd, sel)
			}
			if sel.Repository == "" {
				_, err := fmt.Fprintln(cmd.OutOrStdout(), "no repository selected")
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s@%s\n", sel.Repository, sel.Branch)
			if sel.TestingMode != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "testing mode: %s\n", sel.TestingMode)
			}
			return nil
		},
	}
}

func newRepoSelectCmd(deps *Deps) *cobra.Command {
	return &cobra.Command{
		Use:   "select OWNER/NAME [BRANCH]",
		Short: "select a repository, on its default branch unless one is given",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			k, err := deps.kit(cmd.Context())
			if err != nil {
				return err
			}
			branch := ""
			if len(args) == 2 {
				branch = args[1]
			}
			sel, err := k.Select(cmd.Context(), args[0], branch)
			if err != nil {
				return err
			}
			if deps.JSON {
				return writeJSON(cmd, sel)
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "selected %s@%s\n", sel.Repository, sel.Branch)
			return err
		},
	}
}

func newRepoBranchesCmd(deps *Deps) *cobra.Command {
	return &cobra.Command{
		Use:   "branches [OWNER/NAME]",
		Short: "list branches of a repository, the selected one by default",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			k, err := deps.kit(cmd.Context())
			if err != nil {
				return err
			}
			repo := ""
			if len(args) == 1 {
				repo = args[0]
			}
			branches, err := k.Branches(cmd.Context(), repo)
			if err != nil {
				return err
			}
			if deps.JSON {
				return writeJSON(cmd, branches)
			}
			for _, b := range branches {
				fmt.Fprintln(cmd.OutOrStdout(), b.Name)
			}
			return nil
		},
	}
}

func newRepoModeCmd(deps *Deps) *cobra.Command {
	return &cobra.Command{
		Use:   "mode MODE",
		Short: "set the testing mode stored with the selection",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			k, err := deps.kit(cmd.Context())
			if err != nil {
				return err
			}
			sel, err := k.SetTestingMode(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "testing mode: %s\n", sel.TestingMode)
			return err
		},
	}
}

func NewRunsCmd(deps *Deps) *cobra.Command {
	return &cobra.Command{
		Use:   "runs",
		Short: "list workflow runs of the selected branch",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			k, err := deps.kit(cmd.Context())
			if err != nil {
				return err
			}
			runs, err := k.Runs(cmd.Context())
			if err != nil {
				return err
			}
			if deps.JSON {
				return writeJSON(cmd, runs)
			}
			for _, r := range runs {
				conclusion := r.Conclusion
				if conclusion == "" {
					conclusion = "-"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%d\t%s\t%s\t%s\t%s\n",
					r.ID, r.Name, r.Status, conclusion, r.CreatedAt.Format("2006-01-02 15:04"))
			}
			return nil
		},
	}
}
