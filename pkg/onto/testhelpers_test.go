package onto_test

import (
	"context"
	"testing"

	"github.com/jlrickert/ontokit/pkg/onto"
	"github.com/jlrickert/ontokit/pkg/remote"
	"github.com/stretchr/testify/require"
)

const indexPath = "ontologies/UserInput.json"

// seedIndex writes doc into a fresh MemoryStore and returns an Index over it.
func seedIndex(t *testing.T, doc onto.Document, retries int) (*onto.Index, *remote.MemoryStore) {
	t.Helper()
	store := remote.NewMemoryStore()
	data, err := onto.Encode(doc)
	require.NoError(t, err)
	_, err = store.Put(context.Background(), indexPath, remote.PutRequest{Message: "seed", Data: data})
	require.NoError(t, err)
	return onto.NewIndex(onto.IndexOptions{Store: store, Path: indexPath, Retries: retries}), store
}

func sampleDocument() onto.Document {
	doc := onto.EmptyDocument()
	doc.Ontologies = []onto.Ontology{
		{Name: "pizza", URL: "https://example.org/pizza.owl", UserDefined: true},
		{Name: "wine", URL: "https://example.org/wine.owl"},
		{Name: "food", URL: "https://example.org/food.owl", Parsed: true},
		{Name: "spam", URL: "https://example.org/spam.owl", Ignored: true},
	}
	doc.Fragments = []onto.Fragment{
		{Name: "toppings", OntologyName: "pizza", Tests: []onto.Test{
			{ID: "CQ001", Type: onto.CompetencyQuestion, Status: "passed", Query: "SELECT 1"},
			{ID: "CQ002", Type: onto.CompetencyQuestion, Status: "failed"},
			{ID: "EP001", Type: onto.ErrorProvocation},
		}},
		{Name: "bases", OntologyName: "pizza"},
		{Name: "toppings", OntologyName: "wine", Tests: []onto.Test{
			{ID: "IV001", Type: onto.InferenceVerification, Status: "passed"},
		}},
	}
	return doc
}

// panicStore fails the test on any access.
type panicStore struct{ t *testing.T }

func (p panicStore) Name() string { return "panic" }
func (p panicStore) Get(context.Context, string, string) (*remote.Object, error) {
	p.t.Fatal("unexpected Get")
	return nil, nil
}
func (p panicStore) Put(context.Context, string, remote.PutRequest) (*remote.PutResult, error) {
	p.t.Fatal("unexpected Put")
	return nil, nil
}
func (p panicStore) List(context.Context, string) ([]remote.Entry, error) {
	p.t.Fatal("unexpected List")
	return nil, nil
}
