package cli

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/jlrickert/cli-toolkit/toolkit"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/jlrickert/ontokit/pkg/onto"
)

// testTypeValue is a pflag.Value accepting a test type name or its prefix.
type testTypeValue struct {
	typ *onto.TestType
}

var _ pflag.Value = testTypeValue{}

func (v testTypeValue) String() string {
	if v.typ == nil {
		return ""
	}
	return string(*v.typ)
}

func (v testTypeValue) Set(s string) error {
	t, err := onto.ParseTestType(s)
	if err != nil {
		return err
	}
	*v.typ = t
	return nil
}

func (v testTypeValue) Type() string { return "type" }

// folderValue is a pflag.Value for a fragment file folder.
type folderValue struct {
	folder *onto.FileFolder
}

var _ pflag.Value = folderValue{}

func (v folderValue) String() string {
	if v.folder == nil {
		return ""
	}
	return string(*v.folder)
}

func (v folderValue) Set(s string) error {
	for _, f := range onto.FileFolders {
		if strings.EqualFold(string(f), s) {
			*v.folder = f
			return nil
		}
	}
	return fmt.Errorf("unknown folder %q, want one of %v", s, onto.FileFolders)
}

func (v folderValue) Type() string { return "folder" }

func completeTestTypes(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	out := make([]string, 0, len(onto.TestTypes))
	for _, t := range onto.TestTypes {
		out = append(out, string(t))
	}
	return out, cobra.ShellCompDirectiveNoFileComp
}

// sourceFlags binds the three ways a test field can be given: inline text,
// a local file to upload, or the name of an already uploaded file.
type sourceFlags struct {
	name     string
	text     string
	file     string
	uploaded string
}

func bindSource(cmd *cobra.Command, name, what string) *sourceFlags {
	s := &sourceFlags{name: name}
	cmd.Flags().StringVar(&s.text, name, "", "inline "+what)
	cmd.Flags().StringVar(&s.file, name+"-file", "", "local file to upload as the "+what)
	cmd.Flags().StringVar(&s.uploaded, name+"-uploaded", "", "name of an already uploaded "+what+" file")
	cmd.MarkFlagsMutuallyExclusive(name, name+"-file", name+"-uploaded")
	return s
}

func (s *sourceFlags) source(rt *toolkit.Runtime) (onto.Source, error) {
	switch {
	case s.file != "":
		data, err := rt.ReadFile(s.file)
		if err != nil {
			return onto.Source{}, fmt.Errorf("--%s-file: %w", s.name, err)
		}
		return onto.NewUpload(filepath.Base(s.file), data), nil
	case s.uploaded != "":
		return onto.UploadedFile(s.uploaded), nil
	case s.text != "":
		return onto.Inline(s.text), nil
	}
	return onto.Source{}, nil
}

// readContent resolves "-" to piped stdin.
func readContent(streams *toolkit.Stream, v string) (string, error) {
	if v != "-" {
		return v, nil
	}
	if !streams.IsPiped {
		return "", fmt.Errorf("--content - expects piped input")
	}
	b, err := io.ReadAll(streams.In)
	if err != nil {
		return "", err
	}
	return strings.TrimRight(string(b), "\n"), nil
}
