// Package prefs persists the user's repository, branch and testing mode
// selection between runs.
//
// The selection lives in a small JSON file (comments and trailing commas are
// tolerated) that is rewritten atomically. A Store caches the last loaded
// value and satisfies github.SelectionSource.
package prefs

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/natefinch/atomic"
	"github.com/tailscale/hujson"

	"github.com/jlrickert/ontokit/pkg/internal"
)

// DefaultFile is the selection file name inside the config dir.
const DefaultFile = "selection.json"

// Selection is the persisted user choice.
type Selection struct {
	Repository  string `json:"repository"`
	Branch      string `json:"branch"`
	TestingMode string `json:"testingMode,omitempty"`
}

// Complete reports whether both repository and branch are chosen.
func (s Selection) Complete() bool {
	return s.Repository != "" && s.Branch != ""
}

// Store reads and writes the selection file at Path.
type Store struct {
	path string

	mu      sync.RWMutex
	current Selection
}

// NewStore returns a Store for path. Nothing is read until Load.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Path returns the selection file location.
func (s *Store) Path() string { return s.path }

// Parse decodes selection file content. Empty content is an empty selection.
func Parse(data []byte) (Selection, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return Selection{}, nil
	}
	standardized, err := hujson.Standardize(data)
	if err != nil {
		return Selection{}, fmt.Errorf("invalid JSONC: %w", err)
	}
	var sel Selection
	if err := json.Unmarshal(standardized, &sel); err != nil {
		return Selection{}, fmt.Errorf("invalid JSON: %w", err)
	}
	return sel, nil
}

// Load reads the file. A missing file is an empty selection.
func (s *Store) Load(ctx context.Context) (Selection, error) {
	lg := internal.LoggerFromContext(ctx)
	data, err := os.ReadFile(s.path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return Selection{}, fmt.Errorf("read selection %s: %w", s.path, err)
	}
	sel, err := Parse(data)
	if err != nil {
		lg.Error("failed to parse selection", "path", s.path, "err", err)
		return Selection{}, fmt.Errorf("parse selection %s: %w", s.path, err)
	}
	s.mu.Lock()
	s.current = sel
	s.mu.Unlock()
	lg.Debug("selection loaded", "path", s.path, "repository", sel.Repository, "branch", sel.Branch)
	return sel, nil
}

// Save writes sel atomically, creating the directory if needed.
func (s *Store) Save(ctx context.Context, sel Selection) error {
	lg := internal.LoggerFromContext(ctx)
	b, err := json.MarshalIndent(sel, "", "  ")
	if err != nil {
		return err
	}
	b = append(b, '\n')
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create selection dir: %w", err)
	}
	if err := atomic.WriteFile(s.path, bytes.NewReader(b)); err != nil {
		lg.Error("failed to write selection", "path", s.path, "err", err)
		return fmt.Errorf("write selection %s: %w", s.path, err)
	}
	s.mu.Lock()
	s.current = sel
	s.mu.Unlock()
	lg.Info("selection saved", "path", s.path, "repository", sel.Repository, "branch", sel.Branch)
	return nil
}

// Update loads the current selection, applies fn and saves the result.
func (s *Store) Update(ctx context.Context, fn func(*Selection)) (Selection, error) {
	sel, err := s.Load(ctx)
	if err != nil {
		return Selection{}, err
	}
	fn(&sel)
	return sel, s.Save(ctx, sel)
}

// Current returns the last loaded or saved selection.
func (s *Store) Current() Selection {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Selected implements github.SelectionSource.
func (s *Store) Selected() (string, string) {
	sel := s.Current()
	return sel.Repository, sel.Branch
}

// Watch calls fn with the new selection each time the file changes on disk
// to a different value. It blocks until ctx is done. The parent directory is
// watched so atomic renames are observed.
func (s *Store) Watch(ctx context.Context, fn func(Selection)) error {
	lg := internal.LoggerFromContext(ctx)
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()
	if err := w.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}

	target := filepath.Clean(s.path)
	for {
		select {
		case <-ctx.Done():
			return nil
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			lg.Warn("selection watch error", "path", s.path, "err", err)
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != target {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) && !ev.Has(fsnotify.Remove) {
				continue
			}
			before := s.Current()
			sel, err := s.Load(ctx)
			if err != nil {
				lg.Warn("ignoring unreadable selection", "path", s.path, "err", err)
				continue
			}
			if sel != before {
				lg.Info("selection changed", "repository", sel.Repository, "branch", sel.Branch)
				fn(sel)
			}
		}
	}
}
