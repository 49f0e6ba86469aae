package cli_test

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"testing"
	"time"

	tu "github.com/jlrickert/cli-toolkit/sandbox"
	"github.com/jlrickert/cli-toolkit/toolkit"
	"github.com/stretchr/testify/require"

	"github.com/jlrickert/ontokit/pkg/cli"
	"github.com/jlrickert/ontokit/pkg/internal/ghfake"
	"github.com/jlrickert/ontokit/pkg/onto"
	"github.com/jlrickert/ontokit/pkg/ontokit"
	"github.com/jlrickert/ontokit/pkg/prefs"
)

const (
	repo     = "acme/onto"
	tokenEnv = "ONTOKIT_TEST_TOKEN"
	token    = "test-token"
	home     = "/home/testuser"
)

// Sandbox is a jailed runtime wired to a fake GitHub through the user
// config file.
type Sandbox struct {
	*tu.Sandbox
	t      *testing.T
	Srv    *ghfake.Server
	Config *ontokit.Config
}

func NewSandbox(t *testing.T, opts ...tu.Option) *Sandbox {
	t.Helper()
	srv := ghfake.New()
	t.Cleanup(srv.Close)
	srv.AddRepository(repo, "main")

	opts = append([]tu.Option{
		tu.WithClock(time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)),
		tu.WithEnv(tokenEnv, token),
	}, opts...)
	box := tu.NewSandbox(t, &tu.Options{Home: home, User: "testuser"}, opts...)

	cfg := ontokit.DefaultConfig()
	cfg.APIURL = srv.URL
	cfg.TokenEnv = tokenEnv
	box.MustWriteFile("~/.config/ontokit/config.yaml",
		[]byte(fmt.Sprintf("api_url: %s\ntoken_env: %s\n", srv.URL, tokenEnv)), 0o644)

	return &Sandbox{Sandbox: box, t: t, Srv: srv, Config: cfg}
}

// SelectionFile is the host path of the selection file the CLI uses.
func (sb *Sandbox) SelectionFile() string {
	return filepath.Join(sb.GetJail(), home, ".config", ontokit.AppName, prefs.DefaultFile)
}

// Select writes a selection of repo@main.
func (sb *Sandbox) Select() *Sandbox {
	sb.t.Helper()
	sel := prefs.Selection{Repository: repo, Branch: "main"}
	require.NoError(sb.t, prefs.NewStore(sb.SelectionFile()).Save(context.Background(), sel))
	return sb
}

// SeedIndex writes doc as the index on repo@main.
func (sb *Sandbox) SeedIndex(doc onto.Document) *Sandbox {
	sb.t.Helper()
	data, err := onto.Encode(doc)
	require.NoError(sb.t, err)
	sb.Srv.Seed(repo, "main", sb.Config.IndexPath(), data)
	return sb
}

// Index reads the index back from the fake.
func (sb *Sandbox) Index() onto.Document {
	sb.t.Helper()
	obj, err := sb.Srv.Store(repo, "main").Get(context.Background(), sb.Config.IndexPath(), "")
	require.NoError(sb.t, err)
	doc, err := onto.DecodeDocument(obj.Data)
	require.NoError(sb.t, err)
	return doc
}

type Result struct {
	Code   int
	Err    error
	Stdout string
	Stderr string
}

func NewProcess(args ...string) *tu.Process {
	return tu.NewProcess(func(ctx context.Context, rt *toolkit.Runtime) (int, error) {
		return cli.Run(ctx, rt, args)
	}, false)
}

// Run executes the CLI with args inside the sandbox. A nil stdin leaves
// standard input unpiped.
func (sb *Sandbox) Run(stdin io.Reader, args ...string) Result {
	sb.t.Helper()
	proc := NewProcess(args...)
	var res *tu.ProcessResult
	if stdin != nil {
		res = proc.RunWithIO(sb.Context(), sb.Runtime(), stdin)
	} else {
		res = proc.Run(sb.Context(), sb.Runtime())
	}
	return Result{Code: res.ExitCode, Err: res.Err, Stdout: string(res.Stdout), Stderr: string(res.Stderr)}
}

func sampleIndex() onto.Document {
	doc := onto.EmptyDocument()
	doc.Ontologies = []onto.Ontology{
		{Name: "pizza", URL: "ontologies/pizza/pizza.owl", UserDefined: true},
		{Name: "wine", URL: "https://example.org/wine.owl"},
	}
	doc.Fragments = []onto.Fragment{
		{Name: "toppings", OntologyName: "pizza", Tests: []onto.Test{
			{ID: "CQ001", Type: onto.CompetencyQuestion, Status: "passed", Content: "Which toppings exist?"},
		}},
	}
	return doc
}
