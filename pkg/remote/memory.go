package remote

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"path"
	"sort"
	"strings"
	"sync"
)

// MemoryStore is an in-memory implementation of Store intended for tests and
// lightweight tooling that doesn't require a remote backend.
//
// Concurrency / locking:
//
//   - MemoryStore uses an internal sync.RWMutex (mu) to guard the file map.
//     Readers use RLock/RUnlock; mutating operations use Lock/Unlock.
//   - The implementation is safe for concurrent use by multiple goroutines.
//
// Semantics / behavior:
//
//   - Revisions are git blob SHAs of the content, so identical content yields
//     identical SHAs just like the GitHub contents API.
//   - ETags are the quoted SHA. A Get whose etag matches returns an Object with
//     NotModified set.
//   - Put follows GitHub's precondition rules: a stale SHA, a SHA for a file
//     that does not exist, or a missing SHA for a file that does exist are all
//     rejected with a *ConflictError.
//   - Directories exist implicitly while they contain at least one file.
type MemoryStore struct {
	mu    sync.RWMutex
	files map[string]*memoryFile

	// writes counts accepted Put calls. Useful for asserting that an
	// operation did not touch the store.
	writes int
}

type memoryFile struct {
	data []byte
	sha  string
}

// NewMemoryStore constructs a ready-to-use in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{files: make(map[string]*memoryFile)}
}

func (s *MemoryStore) Name() string {
	return "memory"
}

// BlobSHA returns the git blob SHA-1 of data as lowercase hex.
func BlobSHA(data []byte) string {
	h := sha1.New()
	fmt.Fprintf(h, "blob %d\x00", len(data))
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

func etagFor(sha string) string {
	return `"` + sha + `"`
}

func cleanPath(p string) string {
	return strings.Trim(path.Clean("/"+p), "/")
}

// Get returns a copy of the stored content for path.
func (s *MemoryStore) Get(ctx context.Context, p string, etag string) (*Object, error) {
	_ = ctx
	p = cleanPath(p)

	s.mu.RLock()
	f, ok := s.files[p]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("get %s: %w", p, ErrNotExist)
	}

	tag := etagFor(f.sha)
	if etag != "" && etag == tag {
		return &Object{Path: p, SHA: f.sha, ETag: tag, NotModified: true}, nil
	}

	cp := make([]byte, len(f.data))
	copy(cp, f.data)
	return &Object{Path: p, Data: cp, SHA: f.sha, ETag: tag}, nil
}

// Put writes data to path after checking the SHA precondition.
func (s *MemoryStore) Put(ctx context.Context, p string, req PutRequest) (*PutResult, error) {
	_ = ctx
	p = cleanPath(p)
	if p == "" {
		return nil, fmt.Errorf("put: empty path: %w", ErrInvalid)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.files[p]
	switch {
	case ok && req.SHA == "":
		return nil, NewConflictError(p, "", `"sha" wasn't supplied`)
	case ok && req.SHA != existing.sha:
		return nil, NewConflictError(p, req.SHA, fmt.Sprintf("%s is at %s but expected %s", p, existing.sha, req.SHA))
	case !ok && req.SHA != "":
		return nil, NewConflictError(p, req.SHA, fmt.Sprintf("%s does not exist", p))
	}

	cp := make([]byte, len(req.Data))
	copy(cp, req.Data)
	sha := BlobSHA(cp)
	s.files[p] = &memoryFile{data: cp, sha: sha}
	s.writes++
	return &PutResult{Path: p, SHA: sha}, nil
}

// List returns the direct children of dir sorted by name.
func (s *MemoryStore) List(ctx context.Context, dir string) ([]Entry, error) {
	_ = ctx
	dir = cleanPath(dir)
	prefix := dir + "/"
	if dir == "" {
		prefix = ""
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := make(map[string]Entry)
	for p, f := range s.files {
		if !strings.HasPrefix(p, prefix) {
			continue
		}
		rest := strings.TrimPrefix(p, prefix)
		name, _, nested := strings.Cut(rest, "/")
		if nested {
			seen[name] = Entry{Name: name, Path: prefix + name, Type: EntryDir}
			continue
		}
		seen[name] = Entry{Name: name, Path: p, Type: EntryFile, SHA: f.sha}
	}
	if len(seen) == 0 {
		return nil, fmt.Errorf("list %s: %w", dir, ErrNotExist)
	}

	out := make([]Entry, 0, len(seen))
	for _, e := range seen {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// Delete removes a file. It exists for test setup; Store has no delete.
func (s *MemoryStore) Delete(p string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.files, cleanPath(p))
}

// Writes returns the number of accepted writes so far.
func (s *MemoryStore) Writes() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.writes
}

var _ Store = (*MemoryStore)(nil)
