// Package ontokit is the service layer over the index document and file
// uploads. It wires the GitHub client, the persisted selection and the
// index mutator together and reports outcomes as Result values.
package ontokit

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"github.com/jlrickert/cli-toolkit/toolkit"

	"github.com/jlrickert/ontokit/pkg/github"
	"github.com/jlrickert/ontokit/pkg/internal"
	"github.com/jlrickert/ontokit/pkg/onto"
	"github.com/jlrickert/ontokit/pkg/prefs"
	"github.com/jlrickert/ontokit/pkg/remote"
)

// Options configures a Kit.
type Options struct {
	Config *Config
	// Selection is the persisted selection. Required.
	Selection *prefs.Store
	// Runtime supplies the environment the token is read from and the
	// default clock. Optional.
	Runtime *toolkit.Runtime
	// Token overrides the token read from Config.TokenEnv.
	Token string
	// HTTPClient overrides the HTTP client (tests).
	HTTPClient *http.Client
	// Clock drives upload collision suffixes. Defaults to the wall clock.
	Clock internal.Clock
}

// Kit bundles everything the commands need. The index and uploader are bound
// to one repository/branch and rebuilt when the selection changes.
type Kit struct {
	cfg      *Config
	prefixes onto.PrefixTable
	client   *github.Client
	sel      *prefs.Store
	clock    internal.Clock

	mu       sync.Mutex
	boundTo  prefs.Selection
	index    *onto.Index
	uploader *onto.Uploader
}

// New builds a Kit from opts.
func New(opts Options) (*Kit, error) {
	cfg := opts.Config
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if opts.Selection == nil {
		return nil, fmt.Errorf("selection store is required: %w", remote.ErrInvalid)
	}
	prefixes, err := cfg.PrefixTable()
	if err != nil {
		return nil, err
	}
	token := opts.Token
	if token == "" {
		token = cfg.Token(opts.Runtime)
	}
	client, err := github.NewClient(github.Options{
		API:        cfg.APIURL,
		Token:      token,
		Timeout:    cfg.Timeout,
		HTTPClient: opts.HTTPClient,
		Selection:  opts.Selection,
	})
	if err != nil {
		return nil, err
	}
	clock := opts.Clock
	if clock == nil && opts.Runtime != nil {
		clock = opts.Runtime.Clock()
	}
	if clock == nil {
		clock = internal.RealClock{}
	}
	return &Kit{
		cfg:      cfg,
		prefixes: prefixes,
		client:   client,
		sel:      opts.Selection,
		clock:    clock,
	}, nil
}

// Config returns the active configuration.
func (k *Kit) Config() *Config { return k.cfg }

// Client returns the GitHub client.
func (k *Kit) Client() *github.Client { return k.client }

// Selection returns the selection store.
func (k *Kit) Selection() *prefs.Store { return k.sel }

// Reload drops the bound index so the next call re-resolves the selection
// and reads the index afresh.
func (k *Kit) Reload() {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.index = nil
	k.uploader = nil
	k.boundTo = prefs.Selection{}
}

// bind returns the index and uploader for the current selection.
func (k *Kit) bind(ctx context.Context) (*onto.Index, *onto.Uploader, error) {
	sel := k.sel.Current()
	if !sel.Complete() {
		return nil, nil, fmt.Errorf("select a repository and branch first: %w", remote.ErrNoSelection)
	}

	k.mu.Lock()
	defer k.mu.Unlock()
	if k.index != nil && k.boundTo.Repository == sel.Repository && k.boundTo.Branch == sel.Branch {
		return k.index, k.uploader, nil
	}

	store := k.client.Contents(github.Override{Repository: sel.Repository, Branch: sel.Branch})
	k.index = onto.NewIndex(onto.IndexOptions{
		Store:    store,
		Path:     k.cfg.IndexPath(),
		Prefixes: k.prefixes,
		Retries:  k.cfg.Retries,
	})
	k.uploader = onto.NewUploader(store, k.clock)
	k.boundTo = sel
	internal.LoggerFromContext(ctx).Debug("index bound", "repository", sel.Repository, "branch", sel.Branch, "path", k.index.Path())
	return k.index, k.uploader, nil
}

// Index returns the index for the current selection.
func (k *Kit) Index(ctx context.Context) (*onto.Index, error) {
	ix, _, err := k.bind(ctx)
	return ix, err
}

// Uploader returns the uploader for the current selection.
func (k *Kit) Uploader(ctx context.Context) (*onto.Uploader, error) {
	_, u, err := k.bind(ctx)
	return u, err
}

// Store returns the contents store for the current selection.
func (k *Kit) Store() (remote.Store, error) {
	sel := k.sel.Current()
	if !sel.Complete() {
		return nil, fmt.Errorf("select a repository and branch first: %w", remote.ErrNoSelection)
	}
	return k.client.Contents(github.Override{Repository: sel.Repository, Branch: sel.Branch}), nil
}

// Watch follows the selection file and reloads on every change until ctx is
// done. onChange, when non-nil, is called after each reload.
func (k *Kit) Watch(ctx context.Context, onChange func(prefs.Selection)) error {
	return k.sel.Watch(ctx, func(s prefs.Selection) {
		k.Reload()
		if onChange != nil {
			onChange(s)
		}
	})
}

// Prefixes returns the configured test id prefixes.
func (k *Kit) Prefixes() onto.PrefixTable { return k.prefixes }
