package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jlrickert/ontokit/pkg/onto"
)

func NewOntologyCmd(deps *Deps) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "ontology",
		Short:   "list, add and review ontologies",
		Aliases: []string{"ont"},
	}
	cmd.AddCommand(
		newOntologyListCmd(deps),
		newOntologyAddCmd(deps),
		newOntologyReviewCmd(deps, true),
		newOntologyReviewCmd(deps, false),
		newOntologyDeleteCmd(deps),
	)
	return cmd
}

func newOntologyListCmd(deps *Deps) *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Short:   "list ontologies by review state",
		Aliases: []string{"ls"},
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			k, err := deps.kit(cmd.Context())
			if err != nil {
				return err
			}
			p, err := k.Ontologies(cmd.Context())
			if err != nil {
				return err
			}
			if deps.JSON {
				return writeJSON(cmd, p)
			}
			out := cmd.OutOrStdout()
			for _, g := range []struct {
				title string
				list  []onto.Ontology
			}{
				{"active", p.Active},
				{"pending", p.Pending},
				{"ignored", p.Ignored},
			} {
				if len(g.list) == 0 {
					continue
				}
				fmt.Fprintf(out, "%s:\n", g.title)
				for _, o := range g.list {
					fmt.Fprintf(out, "  %s\t%s\n", o.Name, o.URL)
				}
			}
			return nil
		},
	}
}

func newOntologyAddCmd(deps *Deps) *cobra.Command {
	var url, file string
	cmd := &cobra.Command{
		Use:   "add NAME",
		Short: "register a user defined ontology",
		Long:  "Register a user defined ontology. With --file the ontology file is uploaded next to the index and its path becomes the url.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			k, err := deps.kit(ctx)
			if err != nil {
				return err
			}
			o := onto.Ontology{Name: args[0], URL: url, UserDefined: true}
			if deps.DryRun {
				diff, err := k.Preview(ctx, onto.AddOntology(o))
				if err != nil {
					return err
				}
				return preview(cmd, diff)
			}
			var f *onto.File
			if file != "" {
				f = onto.LocalFile(deps.Runtime, file)
			}
			res, err := k.AddOntology(ctx, o, f)
			if err != nil {
				return err
			}
			return report(cmd, deps, res)
		},
	}
	cmd.Flags().StringVar(&url, "url", "", "where the ontology lives")
	cmd.Flags().StringVar(&file, "file", "", "local ontology file to upload")
	bindDryRun(cmd, deps)
	return cmd
}

func newOntologyReviewCmd(deps *Deps, approve bool) *cobra.Command {
	use, short := "approve NAME", "mark a discovered ontology as parsed"
	if !approve {
		use, short = "reject NAME", "mark a discovered ontology as ignored"
	}
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			k, err := deps.kit(cmd.Context())
			if err != nil {
				return err
			}
			res, err := k.ReviewOntology(cmd.Context(), args[0], approve)
			if err != nil {
				return err
			}
			return report(cmd, deps, res)
		},
	}
}

func newOntologyDeleteCmd(deps *Deps) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "delete NAME",
		Short:   "delete an ontology and its fragments",
		Aliases: []string{"rm"},
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			k, err := deps.kit(ctx)
			if err != nil {
				return err
			}
			if deps.DryRun {
				diff, err := k.Preview(ctx, onto.DeleteOntology(args[0]))
				if err != nil {
					return err
				}
				return preview(cmd, diff)
			}
			res, err := k.DeleteOntology(ctx, args[0])
			if err != nil {
				return err
			}
			return report(cmd, deps, res)
		},
	}
	bindDryRun(cmd, deps)
	return cmd
}
