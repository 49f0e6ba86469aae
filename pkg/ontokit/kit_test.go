package ontokit_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/jlrickert/ontokit/pkg/internal"
	"github.com/jlrickert/ontokit/pkg/internal/ghfake"
	"github.com/jlrickert/ontokit/pkg/onto"
	"github.com/jlrickert/ontokit/pkg/ontokit"
	"github.com/jlrickert/ontokit/pkg/prefs"
	"github.com/stretchr/testify/require"
)

const repo = "acme/onto"

type fixture struct {
	kit *ontokit.Kit
	srv *ghfake.Server
	sel *prefs.Store
}

func newFixture(t *testing.T, seed *onto.Document) *fixture {
	t.Helper()
	ctx := context.Background()
	srv := ghfake.New()
	t.Cleanup(srv.Close)
	srv.AddRepository(repo, "main")

	cfg := ontokit.DefaultConfig()
	cfg.APIURL = srv.URL
	cfg.TokenEnv = ""

	if seed != nil {
		data, err := onto.Encode(*seed)
		require.NoError(t, err)
		srv.Seed(repo, "main", cfg.IndexPath(), data)
	}

	sel := prefs.NewStore(filepath.Join(t.TempDir(), prefs.DefaultFile))
	require.NoError(t, sel.Save(ctx, prefs.Selection{Repository: repo, Branch: "main"}))

	kit, err := ontokit.New(ontokit.Options{
		Config:    cfg,
		Selection: sel,
		Clock:     internal.NewFixedClock(time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)),
	})
	require.NoError(t, err)
	return &fixture{kit: kit, srv: srv, sel: sel}
}

func seedDoc() *onto.Document {
	doc := onto.EmptyDocument()
	doc.Ontologies = []onto.Ontology{
		{Name: "pizza", URL: "ontologies/pizza/pizza.owl", UserDefined: true},
		{Name: "wine", URL: "https://example.org/wine.owl"},
	}
	doc.Fragments = []onto.Fragment{
		{Name: "toppings", OntologyName: "pizza", Tests: []onto.Test{
			{ID: "CQ001", Type: onto.CompetencyQuestion, Status: "passed"},
		}},
	}
	return &doc
}
