package prefs_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jlrickert/ontokit/pkg/prefs"
	"github.com/stretchr/testify/require"
)

func TestParse_AcceptsJSONC(t *testing.T) {
	t.Parallel()
	sel, err := prefs.Parse([]byte(`{
  // chosen in the repo picker
  "repository": "acme/onto",
  "branch": "main",
  "testingMode": "local",
}`))
	require.NoError(t, err)
	require.Equal(t, prefs.Selection{Repository: "acme/onto", Branch: "main", TestingMode: "local"}, sel)
	require.True(t, sel.Complete())

	_, err = prefs.Parse([]byte(`{"repository": `))
	require.Error(t, err)
}

func TestStore_LoadMissingIsEmpty(t *testing.T) {
	t.Parallel()
	s := prefs.NewStore(filepath.Join(t.TempDir(), "nope", prefs.DefaultFile))
	sel, err := s.Load(context.Background())
	require.NoError(t, err)
	require.False(t, sel.Complete())
	repo, branch := s.Selected()
	require.Empty(t, repo)
	require.Empty(t, branch)
}

func TestStore_SaveLoadRoundTrip(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "cfg", prefs.DefaultFile)
	s := prefs.NewStore(path)

	require.NoError(t, s.Save(ctx, prefs.Selection{Repository: "acme/onto", Branch: "dev"}))
	repo, branch := s.Selected()
	require.Equal(t, "acme/onto", repo)
	require.Equal(t, "dev", branch)

	other := prefs.NewStore(path)
	sel, err := other.Load(ctx)
	require.NoError(t, err)
	require.Equal(t, "dev", sel.Branch)

	sel, err = other.Update(ctx, func(s *prefs.Selection) { s.Branch = "main" })
	require.NoError(t, err)
	require.Equal(t, "main", sel.Branch)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(data), `"branch": "main"`)
}

func TestStore_WatchReportsChanges(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	path := filepath.Join(t.TempDir(), prefs.DefaultFile)
	watched := prefs.NewStore(path)
	_, err := watched.Load(ctx)
	require.NoError(t, err)

	changes := make(chan prefs.Selection, 4)
	done := make(chan error, 1)
	go func() {
		done <- watched.Watch(ctx, func(s prefs.Selection) { changes <- s })
	}()

	writer := prefs.NewStore(path)
	want := prefs.Selection{Repository: "acme/onto", Branch: "feature"}
	require.Eventually(t, func() bool {
		// the watcher may not be registered yet; rewrite until it sees one
		_ = writer.Save(ctx, want)
		select {
		case got := <-changes:
			return got == want
		case <-time.After(100 * time.Millisecond):
			return false
		}
	}, 5*time.Second, 10*time.Millisecond)

	repo, branch := watched.Selected()
	require.Equal(t, "acme/onto", repo)
	require.Equal(t, "feature", branch)

	cancel()
	require.NoError(t, <-done)
}
