package ontokit_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/jlrickert/ontokit/pkg/onto"
	"github.com/jlrickert/ontokit/pkg/ontokit"
	"github.com/jlrickert/ontokit/pkg/prefs"
	"github.com/jlrickert/ontokit/pkg/remote"
	"github.com/stretchr/testify/require"
)

var toppings = onto.FragmentKey{Name: "toppings", Ontology: "pizza"}

func TestKit_CreateFragmentDuplicateIsResult(t *testing.T) {
	t.Parallel()
	fx := newFixture(t, seedDoc())
	ctx := context.Background()

	res, err := fx.kit.CreateFragment(ctx, onto.Fragment{Name: "toppings", OntologyName: "pizza"})
	require.NoError(t, err)
	require.False(t, res.Success)
	require.Equal(t, ontokit.KindDuplicate, res.Kind)
	require.Equal(t, "Fragment already exists", res.Message)
	require.Zero(t, fx.srv.CountRequests(http.MethodPut))

	res, err = fx.kit.CreateFragment(ctx, onto.Fragment{Name: "bases", OntologyName: "pizza"})
	require.NoError(t, err)
	require.True(t, res.Success)
	require.Equal(t, 1, fx.srv.CountRequests(http.MethodPut))
}

func TestKit_EmptyKeyIsError(t *testing.T) {
	t.Parallel()
	fx := newFixture(t, seedDoc())

	_, err := fx.kit.DeleteFragment(context.Background(), onto.FragmentKey{Name: "x"})
	require.ErrorIs(t, err, remote.ErrInvalid)
	require.Empty(t, fx.srv.Requests())
}

func TestKit_NoSelectionIsError(t *testing.T) {
	t.Parallel()
	fx := newFixture(t, seedDoc())
	require.NoError(t, fx.sel.Save(context.Background(), prefs.Selection{}))

	_, err := fx.kit.CreateFragment(context.Background(), onto.Fragment{Name: "a", OntologyName: "b"})
	require.ErrorIs(t, err, remote.ErrNoSelection)
}

func TestKit_ConflictResult(t *testing.T) {
	t.Parallel()
	fx := newFixture(t, seedDoc())
	ctx := context.Background()

	// warm the cache, then let another writer move the index
	_, err := fx.kit.Document(ctx)
	require.NoError(t, err)
	other := onto.EmptyDocument()
	data, err := onto.Encode(other)
	require.NoError(t, err)
	fx.srv.Seed(repo, "main", fx.kit.Config().IndexPath(), data)

	// the refresh fails, so the stale cached copy is written against
	fx.srv.FailNext(http.StatusServiceUnavailable, "maintenance")
	res, err := fx.kit.DeleteFragment(ctx, toppings)
	require.NoError(t, err)
	require.False(t, res.Success)
	require.Equal(t, ontokit.KindConflict, res.Kind)
	require.Equal(t, "stale data, please retry", res.Message)
}

func TestKit_TransportFailureResult(t *testing.T) {
	t.Parallel()
	fx := newFixture(t, seedDoc())
	ctx := context.Background()
	_, err := fx.kit.Document(ctx)
	require.NoError(t, err)

	// the refresh falls back to the cache, then the write fails
	fx.srv.FailNext(http.StatusBadGateway, "unavailable")
	fx.srv.FailNext(http.StatusBadGateway, "bad gateway from upstream")
	res, err := fx.kit.CreateFragment(ctx, onto.Fragment{Name: "bases", OntologyName: "pizza"})
	require.NoError(t, err)
	require.False(t, res.Success)
	require.Equal(t, ontokit.KindTransport, res.Kind)
	require.Equal(t, "bad gateway from upstream", res.Message)
}

func TestKit_CreateTestUploadsFiles(t *testing.T) {
	t.Parallel()
	fx := newFixture(t, seedDoc())
	ctx := context.Background()
	fx.srv.Seed(repo, "main", "ontologies/pizza/toppings/queries/q.sparql", []byte("old"))

	res, err := fx.kit.CreateTest(ctx, toppings, onto.TestInput{
		Type:            onto.CompetencyQuestion,
		Content:         "Which toppings are spicy?",
		Query:           onto.NewUpload("q.sparql", []byte("SELECT ?t")),
		ExpectedResults: onto.Inline("[]"),
	})
	require.NoError(t, err)
	require.True(t, res.Success, res.Message)
	test := res.Data.(onto.Test)
	require.Equal(t, "CQ002", test.ID)
	require.Equal(t, "q_20250102030405.sparql", test.QueryFileName)

	detail, err := fx.kit.ShowTest(ctx, toppings, "CQ002", true)
	require.NoError(t, err)
	require.Equal(t, "SELECT ?t", detail.Files[onto.FolderQueries])
	require.Equal(t, "[]", detail.Test.ExpectedResults)
}

func TestKit_CreateTestMissingFragmentSkipsUpload(t *testing.T) {
	t.Parallel()
	fx := newFixture(t, seedDoc())

	res, err := fx.kit.CreateTest(context.Background(), onto.FragmentKey{Name: "nope", Ontology: "pizza"}, onto.TestInput{
		Type:  onto.CompetencyQuestion,
		Query: onto.NewUpload("q.sparql", []byte("SELECT 1")),
	})
	require.NoError(t, err)
	require.Equal(t, ontokit.KindNotFound, res.Kind)
	require.Equal(t, "Fragment not found", res.Message)
	require.Zero(t, fx.srv.CountRequests(http.MethodPut))
}

func TestKit_InvalidTypeUploadsNothing(t *testing.T) {
	t.Parallel()
	fx := newFixture(t, seedDoc())
	ctx := context.Background()
	in := onto.TestInput{
		Type:  "BOGUS",
		Query: onto.NewUpload("q.sparql", []byte("SELECT 1")),
	}

	_, err := fx.kit.CreateTest(ctx, toppings, in)
	require.ErrorIs(t, err, remote.ErrInvalid)
	_, err = fx.kit.UpdateTest(ctx, toppings, "CQ001", onto.TestInput{Query: in.Query})
	require.ErrorIs(t, err, remote.ErrInvalid)

	require.Empty(t, fx.srv.Requests(), "type is checked before any request")
}

func TestKit_UpdateTestNotFound(t *testing.T) {
	t.Parallel()
	fx := newFixture(t, seedDoc())

	res, err := fx.kit.UpdateTest(context.Background(), toppings, "CQ001", onto.TestInput{Type: onto.ErrorProvocation})
	require.NoError(t, err)
	require.Equal(t, "Test id not found", res.Message)
}

func TestKit_ReviewOntology(t *testing.T) {
	t.Parallel()
	fx := newFixture(t, seedDoc())
	ctx := context.Background()

	part, err := fx.kit.Ontologies(ctx)
	require.NoError(t, err)
	require.Len(t, part.Pending, 1)

	res, err := fx.kit.ReviewOntology(ctx, "wine", true)
	require.NoError(t, err)
	require.True(t, res.Success)

	part, err = fx.kit.Ontologies(ctx)
	require.NoError(t, err)
	require.Empty(t, part.Pending)
	require.Len(t, part.Active, 2)

	res, err = fx.kit.ReviewOntology(ctx, "wine", false)
	require.NoError(t, err)
	require.True(t, res.Success)
	part, err = fx.kit.Ontologies(ctx)
	require.NoError(t, err)
	require.Len(t, part.Ignored, 1)

	res, err = fx.kit.ReviewOntology(ctx, "beer", true)
	require.NoError(t, err)
	require.Equal(t, ontokit.KindNotFound, res.Kind)
}

func TestKit_AddOntologyWithFile(t *testing.T) {
	t.Parallel()
	fx := newFixture(t, seedDoc())
	ctx := context.Background()

	res, err := fx.kit.AddOntology(ctx, onto.Ontology{Name: "beer"}, onto.BytesFile("beer.ttl", []byte("@prefix")))
	require.NoError(t, err)
	require.True(t, res.Success, res.Message)
	o := res.Data.(onto.Ontology)
	require.True(t, o.UserDefined)
	require.Equal(t, "ontologies/beer/beer.ttl", o.URL)

	obj, err := fx.srv.Store(repo, "main").Get(ctx, "ontologies/beer/beer.ttl", "")
	require.NoError(t, err)
	require.Equal(t, "@prefix", string(obj.Data))

	res, err = fx.kit.AddOntology(ctx, onto.Ontology{Name: "beer"}, onto.BytesFile("beer.ttl", []byte("x")))
	require.NoError(t, err)
	require.Equal(t, ontokit.KindDuplicate, res.Kind)
}

func TestKit_DeleteOntologyCascades(t *testing.T) {
	t.Parallel()
	fx := newFixture(t, seedDoc())
	ctx := context.Background()

	res, err := fx.kit.DeleteOntology(ctx, "pizza")
	require.NoError(t, err)
	require.True(t, res.Success)

	frags, err := fx.kit.Fragments(ctx, "")
	require.NoError(t, err)
	require.Empty(t, frags)
}

func TestKit_InitAndPreview(t *testing.T) {
	t.Parallel()
	fx := newFixture(t, nil)
	ctx := context.Background()

	res, err := fx.kit.Init(ctx)
	require.NoError(t, err)
	require.True(t, res.Success)
	require.Equal(t, "Created ontologies/UserInput.json", res.Message)

	res, err = fx.kit.Init(ctx)
	require.NoError(t, err)
	require.Contains(t, res.Message, "already exists")

	diff, err := fx.kit.Preview(ctx, onto.AddOntology(onto.Ontology{Name: "beer", UserDefined: true}))
	require.NoError(t, err)
	require.Contains(t, diff, `+      "name": "beer",`)
	require.Equal(t, 1, fx.srv.CountRequests(http.MethodPut))
}

func TestKit_MissingIndexIsNotFound(t *testing.T) {
	t.Parallel()
	fx := newFixture(t, nil)

	res, err := fx.kit.CreateFragment(context.Background(), onto.Fragment{Name: "a", OntologyName: "b"})
	require.NoError(t, err)
	require.Equal(t, ontokit.KindNotFound, res.Kind)
}

func TestKit_SelectReloads(t *testing.T) {
	t.Parallel()
	fx := newFixture(t, seedDoc())
	ctx := context.Background()
	fx.srv.AddRepository("acme/other", "trunk")
	fx.srv.Seed("acme/other", "trunk", "ontologies/UserInput.json", []byte(`{"ontologies":[],"fragments":[]}`))

	frags, err := fx.kit.Fragments(ctx, "")
	require.NoError(t, err)
	require.Len(t, frags, 1)

	sel, err := fx.kit.Select(ctx, "acme/other", "")
	require.NoError(t, err)
	require.Equal(t, "trunk", sel.Branch)

	frags, err = fx.kit.Fragments(ctx, "")
	require.NoError(t, err)
	require.Empty(t, frags)

	reloaded := prefs.NewStore(fx.sel.Path())
	got, err := reloaded.Load(ctx)
	require.NoError(t, err)
	require.Equal(t, "acme/other", got.Repository)
	require.Equal(t, "trunk", got.Branch)
}

func TestKit_ListsAndStats(t *testing.T) {
	t.Parallel()
	fx := newFixture(t, seedDoc())
	ctx := context.Background()
	fx.srv.AddRun(repo, 7, "ci", "main", "completed", "success")

	repos, err := fx.kit.Repositories(ctx)
	require.NoError(t, err)
	require.Len(t, repos, 1)

	branches, err := fx.kit.Branches(ctx, "")
	require.NoError(t, err)
	require.Equal(t, "main", branches[0].Name)

	runs, err := fx.kit.Runs(ctx)
	require.NoError(t, err)
	require.Len(t, runs, 1)

	stats, err := fx.kit.Stats(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, stats.Totals.Tests)

	md := ontokit.DashboardMarkdown(stats, fx.kit.Prefixes())
	require.Contains(t, md, "| Ontology | Fragments | Tests | CQ | IV | EP | GC | passed |")
	require.Contains(t, md, "| pizza | 1 | 1 | 1 | 0 | 0 | 0 | 1 |")
	require.Contains(t, md, "| **Total** | 1 | 1 | 1 | 0 | 0 | 0 | 1 |")

	html, err := ontokit.DashboardHTML(stats, fx.kit.Prefixes())
	require.NoError(t, err)
	require.Contains(t, html, "<table>")
	require.Contains(t, html, "<td>pizza</td>")
}
