package cli

import (
	"context"
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/jlrickert/ontokit/pkg/onto"
	"github.com/jlrickert/ontokit/pkg/ontokit"
)

func NewTestCmd(deps *Deps) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "test",
		Short: "manage the tests of a fragment",
	}
	cmd.AddCommand(
		newTestListCmd(deps),
		newTestShowCmd(deps),
		newTestWriteCmd(deps, false),
		newTestWriteCmd(deps, true),
		newTestDeleteCmd(deps),
	)
	return cmd
}

func fragmentKey(args []string) onto.FragmentKey {
	return onto.FragmentKey{Ontology: args[0], Name: args[1]}
}

func newTestListCmd(deps *Deps) *cobra.Command {
	return &cobra.Command{
		Use:     "list ONTOLOGY FRAGMENT",
		Short:   "list the tests of a fragment",
		Aliases: []string{"ls"},
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			k, err := deps.kit(cmd.Context())
			if err != nil {
				return err
			}
			doc, err := k.Document(cmd.Context())
			if err != nil {
				return err
			}
			key := fragmentKey(args)
			f, ok := onto.FindFragment(doc, key)
			if !ok {
				return fmt.Errorf("%s: %w", key, onto.ErrFragmentNotFound)
			}
			if deps.JSON {
				return writeJSON(cmd, f.Tests)
			}
			for _, t := range f.Tests {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\t%s\n", t.ID, t.Type, t.Status, t.Content)
			}
			return nil
		},
	}
}

func newTestShowCmd(deps *Deps) *cobra.Command {
	var files bool
	cmd := &cobra.Command{
		Use:   "show ONTOLOGY FRAGMENT ID",
		Short: "show one test",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			k, err := deps.kit(cmd.Context())
			if err != nil {
				return err
			}
			d, err := k.ShowTest(cmd.Context(), fragmentKey(args), args[2], files)
			if err != nil {
				return err
			}
			if deps.JSON {
				return writeJSON(cmd, d)
			}
			out := cmd.OutOrStdout()
			t := d.Test
			fmt.Fprintf(out, "id: %s\ntype: %s\n", t.ID, t.Type)
			for _, f := range []struct{ label, value string }{
				{"status", t.Status},
				{"content", t.Content},
				{"query", t.Query},
				{"query file", t.QueryFileName},
				{"data", t.Data},
				{"data file", t.DataFileName},
				{"expected results", t.ExpectedResults},
				{"expected results file", t.ExpectedResultsFileName},
			} {
				if f.value != "" {
					fmt.Fprintf(out, "%s: %s\n", f.label, f.value)
				}
			}
			folders := make([]string, 0, len(d.Files))
			for folder := range d.Files {
				folders = append(folders, string(folder))
			}
			sort.Strings(folders)
			for _, folder := range folders {
				fmt.Fprintf(out, "\n--- %s\n%s\n", folder, d.Files[onto.FileFolder(folder)])
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&files, "files", false, "print the content of referenced files")
	return cmd
}

// newTestWriteCmd builds "test create" or, with update set, "test update".
func newTestWriteCmd(deps *Deps, update bool) *cobra.Command {
	var (
		typ     onto.TestType
		status  string
		content string
	)
	use, short, nargs := "create ONTOLOGY FRAGMENT", "add a test, allocating its id", 2
	if update {
		use, short, nargs = "update ONTOLOGY FRAGMENT ID", "update a test", 3
	}

	var query, data, expected *sourceFlags
	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Long: short + `.

Each of query, data and expected results can be given inline, as a local
file to upload (uploaded names never overwrite, a taken name gets a
timestamp suffix), or as the name of a file uploaded earlier. Use
--content - to read the description from piped stdin.`,
		Args: cobra.ExactArgs(nargs),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			k, err := deps.kit(ctx)
			if err != nil {
				return err
			}
			rt := deps.Runtime
			text, err := readContent(rt.Stream(), content)
			if err != nil {
				return err
			}
			in := onto.TestInput{Type: typ, Status: status, Content: text}
			if in.Query, err = query.source(rt); err != nil {
				return err
			}
			if in.Data, err = data.source(rt); err != nil {
				return err
			}
			if in.ExpectedResults, err = expected.source(rt); err != nil {
				return err
			}

			key := fragmentKey(args)
			if update && in.Type == "" {
				// without --type the update targets the test's current type
				res, ok, err := existingTestType(ctx, k, key, args[2], &in)
				if err != nil {
					return err
				}
				if !ok {
					return report(cmd, deps, res)
				}
			}
			if deps.DryRun {
				t := onto.CreateTest(key, in.AssumeUploaded(), k.Prefixes())
				if update {
					t = onto.UpdateTest(key, args[2], in.AssumeUploaded())
				}
				diff, err := k.Preview(ctx, t)
				if err != nil {
					return err
				}
				return preview(cmd, diff)
			}

			if update {
				res, err := k.UpdateTest(ctx, key, args[2], in)
				if err != nil {
					return err
				}
				return report(cmd, deps, res)
			}
			res, err := k.CreateTest(ctx, key, in)
			if err != nil {
				return err
			}
			if created, ok := res.Data.(onto.Test); ok && res.Success && !deps.JSON {
				res.Message = fmt.Sprintf("%s %s", res.Message, created.ID)
			}
			return report(cmd, deps, res)
		},
	}
	typeUsage := "test type name or id prefix (CQ, IV, EP, GC)"
	if update {
		typeUsage += ", defaults to the type of the existing test"
	}
	cmd.Flags().Var(testTypeValue{&typ}, "type", typeUsage)
	_ = cmd.RegisterFlagCompletionFunc("type", completeTestTypes)
	if !update {
		_ = cmd.MarkFlagRequired("type")
	}
	cmd.Flags().StringVar(&status, "status", "", "test status")
	cmd.Flags().StringVar(&content, "content", "", "natural language description, - reads stdin")
	query = bindSource(cmd, "query", "query")
	data = bindSource(cmd, "data", "dataset")
	expected = bindSource(cmd, "expected", "expected results")
	bindDryRun(cmd, deps)
	return cmd
}

// existingTestType copies the type of test id into in. A missing fragment or
// test is reported as a failed result.
func existingTestType(ctx context.Context, k *ontokit.Kit, key onto.FragmentKey, id string, in *onto.TestInput) (ontokit.Result, bool, error) {
	doc, err := k.Document(ctx)
	if err != nil {
		return ontokit.Result{}, false, err
	}
	f, ok := onto.FindFragment(doc, key)
	if !ok {
		return ontokit.Fail(ontokit.KindNotFound, onto.ErrFragmentNotFound.Error()), false, nil
	}
	for _, t := range f.Tests {
		if t.ID == id {
			in.Type = t.Type
			return ontokit.Result{}, true, nil
		}
	}
	return ontokit.Fail(ontokit.KindNotFound, onto.ErrTestNotFound.Error()), false, nil
}

func newTestDeleteCmd(deps *Deps) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "delete ONTOLOGY FRAGMENT ID",
		Short:   "delete a test",
		Aliases: []string{"rm"},
		Args:    cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			k, err := deps.kit(ctx)
			if err != nil {
				return err
			}
			key := fragmentKey(args)
			if deps.DryRun {
				diff, err := k.Preview(ctx, onto.DeleteTest(key, args[2]))
				if err != nil {
					return err
				}
				return preview(cmd, diff)
			}
			res, err := k.DeleteTest(ctx, key, args[2])
			if err != nil {
				return err
			}
			return report(cmd, deps, res)
		},
	}
	bindDryRun(cmd, deps)
	return cmd
}

func NewUploadCmd(deps *Deps) *cobra.Command {
	folder := onto.FolderQueries
	cmd := &cobra.Command{
		Use:   "upload ONTOLOGY FRAGMENT PATH",
		Short: "upload a file into a fragment folder",
		Long:  "Upload a local file into a folder of a fragment. A taken name gets a timestamp suffix; the stored name is printed.",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			k, err := deps.kit(cmd.Context())
			if err != nil {
				return err
			}
			res, err := k.UploadFile(cmd.Context(), fragmentKey(args), folder, onto.LocalFile(deps.Runtime, args[2]))
			if err != nil {
				return err
			}
			return report(cmd, deps, res)
		},
	}
	cmd.Flags().Var(folderValue{&folder}, "folder", "queries, expectedResults or datasets")
	return cmd
}
