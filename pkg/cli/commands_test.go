package cli_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jlrickert/ontokit/pkg/onto"
)

type cmdTestCase struct {
	name             string
	args             []string
	expectedInStdout []string
	expectedErr      string
	description      string
}

func TestReadCommands(t *testing.T) {
	t.Parallel()
	tests := []cmdTestCase{
		{
			name:             "ontology_list",
			args:             []string{"ontology", "list"},
			expectedInStdout: []string{"active:", "pizza", "pending:", "wine"},
			description:      "ontologies are grouped by review state",
		},
		{
			name:             "fragment_list",
			args:             []string{"fragment", "list", "-o", "pizza"},
			expectedInStdout: []string{"pizza/toppings\t1 tests"},
			description:      "fragments show their test count",
		},
		{
			name:             "test_list",
			args:             []string{"test", "list", "pizza", "toppings"},
			expectedInStdout: []string{"CQ001\tCOMPETENCY_QUESTION\tpassed"},
			description:      "tests of a fragment are listed",
		},
		{
			name:             "test_show",
			args:             []string{"test", "show", "pizza", "toppings", "CQ001"},
			expectedInStdout: []string{"id: CQ001", "content: Which toppings exist?"},
			description:      "one test is shown",
		},
		{
			name:             "stats",
			args:             []string{"stats"},
			expectedInStdout: []string{"# Test dashboard", "| pizza | 1 | 1 | 1 | 0 | 0 | 0 | 1 |"},
			description:      "the dashboard renders as markdown",
		},
		{
			name:             "stats_html",
			args:             []string{"stats", "--html"},
			expectedInStdout: []string{"<table>", "<td>pizza</td>"},
			description:      "the dashboard renders as HTML",
		},
		{
			name:             "repo_show",
			args:             []string{"repo", "show"},
			expectedInStdout: []string{"acme/onto@main"},
			description:      "the selection is printed",
		},
		{
			name:             "repo_list",
			args:             []string{"repo", "list"},
			expectedInStdout: []string{"acme/onto\tmain"},
			description:      "repositories come from the API",
		},
		{
			name:        "missing_fragment",
			args:        []string{"test", "list", "pizza", "nope"},
			expectedErr: "Fragment not found",
			description: "unknown fragments are reported",
		},
		{
			name:        "bad_type",
			args:        []string{"test", "create", "pizza", "toppings", "--type", "XX"},
			expectedErr: "unknown test type",
			description: "test types are validated by the flag",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(innerT *testing.T) {
			innerT.Parallel()
			sb := NewSandbox(innerT).Select().SeedIndex(sampleIndex())
			res := sb.Run(nil, tt.args...)

			if tt.expectedErr != "" {
				require.Error(innerT, res.Err, "expected error - %s", tt.description)
				require.Equal(innerT, 1, res.Code)
				require.Contains(innerT, res.Stderr, tt.expectedErr,
					"error message should contain %q, got stderr: %s", tt.expectedErr, res.Stderr)
				return
			}
			require.NoError(innerT, res.Err, "command should succeed - %s: %s", tt.description, res.Stderr)
			for _, expected := range tt.expectedInStdout {
				require.Contains(innerT, res.Stdout, expected,
					"expected output to contain %q, got:\n%s", expected, res.Stdout)
			}
		})
	}
}

func TestNoSelection(t *testing.T) {
	t.Parallel()
	sb := NewSandbox(t).SeedIndex(sampleIndex())

	res := sb.Run(nil, "fragment", "list")
	require.Error(t, res.Err)
	require.Contains(t, res.Stderr, "no repository selected")
	require.Zero(t, len(sb.Srv.Requests()))
}

func TestFragmentLifecycle(t *testing.T) {
	t.Parallel()
	sb := NewSandbox(t).Select().SeedIndex(sampleIndex())

	res := sb.Run(nil, "fragment", "create", "pizza", "bases")
	require.NoError(t, res.Err, res.Stderr)
	require.Contains(t, res.Stdout, "Fragment created")

	res = sb.Run(nil, "fragment", "create", "pizza", "bases")
	require.Error(t, res.Err)
	require.Contains(t, res.Stderr, "Fragment already exists")

	res = sb.Run(nil, "fragment", "rename", "pizza", "bases", "crusts")
	require.NoError(t, res.Err, res.Stderr)
	_, ok := onto.FindFragment(sb.Index(), onto.FragmentKey{Name: "crusts", Ontology: "pizza"})
	require.True(t, ok)

	res = sb.Run(nil, "fragment", "delete", "pizza", "crusts")
	require.NoError(t, res.Err, res.Stderr)
	require.Len(t, sb.Index().Fragments, 1)
}

func TestDryRunDoesNotWrite(t *testing.T) {
	t.Parallel()
	sb := NewSandbox(t).Select().SeedIndex(sampleIndex())

	res := sb.Run(nil, "fragment", "create", "pizza", "bases", "--dry-run")
	require.NoError(t, res.Err, res.Stderr)
	require.Contains(t, res.Stdout, "--- a/ontologies/UserInput.json")
	require.Contains(t, res.Stdout, `+      "name": "bases",`)
	require.Zero(t, sb.Srv.CountRequests("PUT"))

	res = sb.Run(nil, "fragment", "delete", "pizza", "missing", "--dry-run")
	require.NoError(t, res.Err, res.Stderr)
	require.Equal(t, "no changes\n", res.Stdout)
}

func TestTestCreateWithFilesAndStdin(t *testing.T) {
	t.Parallel()
	sb := NewSandbox(t).Select().SeedIndex(sampleIndex())
	sb.MustWriteFile("spicy.sparql", []byte("SELECT ?t WHERE { ?t a :Spicy }"), 0o644)

	res := sb.Run(strings.NewReader("Which toppings are spicy?\n"),
		"test", "create", "pizza", "toppings",
		"--type", "cq",
		"--content", "-",
		"--query-file", "spicy.sparql",
		"--expected", "[]",
	)
	require.NoError(t, res.Err, res.Stderr)
	require.Contains(t, res.Stdout, "Test created CQ002")

	test, ok := onto.FindTest(sb.Index(), onto.FragmentKey{Name: "toppings", Ontology: "pizza"}, "CQ002")
	require.True(t, ok)
	require.Equal(t, "Which toppings are spicy?", test.Content)
	require.Equal(t, "spicy.sparql", test.QueryFileName)
	require.Equal(t, "[]", test.ExpectedResults)

	res = sb.Run(nil, "test", "show", "pizza", "toppings", "CQ002", "--files")
	require.NoError(t, res.Err, res.Stderr)
	require.Contains(t, res.Stdout, "--- queries\nSELECT ?t WHERE { ?t a :Spicy }")
}

func TestTestUpdateAndDelete(t *testing.T) {
	t.Parallel()
	sb := NewSandbox(t).Select().SeedIndex(sampleIndex())

	res := sb.Run(nil, "test", "update", "pizza", "toppings", "CQ001", "--status", "failed")
	require.NoError(t, res.Err, res.Stderr)
	test, _ := onto.FindTest(sb.Index(), onto.FragmentKey{Name: "toppings", Ontology: "pizza"}, "CQ001")
	require.Equal(t, "failed", test.Status)
	require.Equal(t, "Which toppings exist?", test.Content)

	res = sb.Run(nil, "test", "update", "pizza", "toppings", "CQ001", "--type", "EP", "--status", "x")
	require.Error(t, res.Err)
	require.Contains(t, res.Stderr, "Test id not found")

	res = sb.Run(nil, "test", "update", "pizza", "toppings", "CQ404", "--status", "x")
	require.Error(t, res.Err)
	require.Contains(t, res.Stderr, "Test id not found")
	test, _ = onto.FindTest(sb.Index(), onto.FragmentKey{Name: "toppings", Ontology: "pizza"}, "CQ001")
	require.Equal(t, onto.CompetencyQuestion, test.Type)

	res = sb.Run(nil, "test", "delete", "pizza", "toppings", "CQ001")
	require.NoError(t, res.Err, res.Stderr)
	f, _ := onto.FindFragment(sb.Index(), onto.FragmentKey{Name: "toppings", Ontology: "pizza"})
	require.Empty(t, f.Tests)
}

func TestUploadCollision(t *testing.T) {
	t.Parallel()
	sb := NewSandbox(t).Select().SeedIndex(sampleIndex())
	sb.Srv.Seed(repo, "main", "ontologies/pizza/toppings/datasets/data.ttl", []byte("old"))
	sb.MustWriteFile("data.ttl", []byte("new"), 0o644)

	res := sb.Run(nil, "upload", "pizza", "toppings", "data.ttl", "--folder", "datasets")
	require.NoError(t, res.Err, res.Stderr)
	require.Contains(t, res.Stdout, "Uploaded file data_20250102030405.ttl")
}

func TestOntologyReview(t *testing.T) {
	t.Parallel()
	sb := NewSandbox(t).Select().SeedIndex(sampleIndex())

	res := sb.Run(nil, "ontology", "approve", "wine")
	require.NoError(t, res.Err, res.Stderr)
	o, _ := onto.FindOntology(sb.Index(), "wine")
	require.True(t, o.Parsed)

	res = sb.Run(nil, "ontology", "reject", "beer")
	require.Error(t, res.Err)
	require.Contains(t, res.Stderr, "Ontology not found")
}

func TestRepoSelectAndInit(t *testing.T) {
	t.Parallel()
	sb := NewSandbox(t)
	sb.Srv.AddRepository("acme/empty", "trunk")

	res := sb.Run(nil, "repo", "select", "acme/empty")
	require.NoError(t, res.Err, res.Stderr)
	require.Contains(t, res.Stdout, "selected acme/empty@trunk")

	res = sb.Run(nil, "init")
	require.NoError(t, res.Err, res.Stderr)
	require.Contains(t, res.Stdout, "Created ontologies/UserInput.json")

	res = sb.Run(nil, "--json", "repo", "show")
	require.NoError(t, res.Err, res.Stderr)
	require.Contains(t, res.Stdout, `"branch": "trunk"`)
}

func TestRuns(t *testing.T) {
	t.Parallel()
	sb := NewSandbox(t).Select()
	sb.Srv.AddRun(repo, 42, "ontology tests", "main", "completed", "failure")
	sb.Srv.AddRun(repo, 43, "ontology tests", "dev", "queued", "")

	res := sb.Run(nil, "runs")
	require.NoError(t, res.Err, res.Stderr)
	require.Contains(t, res.Stdout, "42\tontology tests\tcompleted\tfailure\t2025-01-02 03:04")
	require.NotContains(t, res.Stdout, "43")
}

func TestTokenComesFromRuntimeEnv(t *testing.T) {
	t.Parallel()
	sb := NewSandbox(t).Select().SeedIndex(sampleIndex())

	res := sb.Run(nil, "fragment", "list")
	require.NoError(t, res.Err, res.Stderr)
	reqs := sb.Srv.Requests()
	require.NotEmpty(t, reqs)
	for _, r := range reqs {
		require.Equal(t, "Bearer "+token, r.Auth)
	}
}

func TestConfigFromUserConfigDir(t *testing.T) {
	t.Parallel()
	sb := NewSandbox(t).Select()
	sb.MustWriteFile("~/.config/ontokit/config.yaml",
		[]byte("api_url: "+sb.Srv.URL+"\nindex_file: Other.json\n"), 0o644)
	sb.Srv.Seed(repo, "main", "ontologies/Other.json", []byte(`{"ontologies": [], "fragments": []}`))

	res := sb.Run(nil, "init")
	require.NoError(t, res.Err, res.Stderr)
	require.Contains(t, res.Stdout, "ontologies/Other.json already exists")
}
