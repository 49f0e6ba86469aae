package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jlrickert/ontokit/pkg/onto"
)

func NewFragmentCmd(deps *Deps) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "fragment",
		Short:   "manage ontology fragments",
		Aliases: []string{"frag"},
	}
	cmd.AddCommand(
		newFragmentListCmd(deps),
		newFragmentCreateCmd(deps),
		newFragmentRenameCmd(deps),
		newFragmentDeleteCmd(deps),
	)
	return cmd
}

func newFragmentListCmd(deps *Deps) *cobra.Command {
	var ontology string
	cmd := &cobra.Command{
		Use:     "list",
		Short:   "list fragments",
		Aliases: []string{"ls"},
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			k, err := deps.kit(cmd.Context())
			if err != nil {
				return err
			}
			frags, err := k.Fragments(cmd.Context(), ontology)
			if err != nil {
				return err
			}
			if deps.JSON {
				return writeJSON(cmd, frags)
			}
			for _, f := range frags {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%d tests\n", f.Key(), len(f.Tests))
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&ontology, "ontology", "o", "", "only list fragments of this ontology")
	return cmd
}

func newFragmentCreateCmd(deps *Deps) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create ONTOLOGY NAME",
		Short: "create an empty fragment",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			k, err := deps.kit(ctx)
			if err != nil {
				return err
			}
			f := onto.Fragment{Name: args[1], OntologyName: args[0]}
			if deps.DryRun {
				diff, err := k.Preview(ctx, onto.CreateFragment(f))
				if err != nil {
					return err
				}
				return preview(cmd, diff)
			}
			res, err := k.CreateFragment(ctx, f)
			if err != nil {
				return err
			}
			return report(cmd, deps, res)
		},
	}
	bindDryRun(cmd, deps)
	return cmd
}

func newFragmentRenameCmd(deps *Deps) *cobra.Command {
	var moveTo string
	cmd := &cobra.Command{
		Use:     "rename ONTOLOGY NAME NEW_NAME",
		Short:   "rename a fragment or move it to another ontology",
		Aliases: []string{"mv"},
		Args:    cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			k, err := deps.kit(ctx)
			if err != nil {
				return err
			}
			key := onto.FragmentKey{Ontology: args[0], Name: args[1]}
			f := onto.Fragment{Name: args[2], OntologyName: key.Ontology}
			if moveTo != "" {
				f.OntologyName = moveTo
			}
			if deps.DryRun {
				diff, err := k.Preview(ctx, onto.UpdateFragment(key, f))
				if err != nil {
					return err
				}
				return preview(cmd, diff)
			}
			res, err := k.UpdateFragment(ctx, key, f)
			if err != nil {
				return err
			}
			return report(cmd, deps, res)
		},
	}
	cmd.Flags().StringVar(&moveTo, "to-ontology", "", "move the fragment to this ontology")
	bindDryRun(cmd, deps)
	return cmd
}

func newFragmentDeleteCmd(deps *Deps) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "delete ONTOLOGY NAME",
		Short:   "delete a fragment and its tests",
		Aliases: []string{"rm"},
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			k, err := deps.kit(ctx)
			if err != nil {
				return err
			}
			key := onto.FragmentKey{Ontology: args[0], Name: args[1]}
			if deps.DryRun {
				diff, err := k.Preview(ctx, onto.DeleteFragment(key))
				if err != nil {
					return err
				}
				return preview(cmd, diff)
			}
			res, err := k.DeleteFragment(ctx, key)
			if err != nil {
				return err
			}
			return report(cmd, deps, res)
		},
	}
	bindDryRun(cmd, deps)
	return cmd
}
