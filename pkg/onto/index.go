package onto

import (
	"bytes"
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/jlrickert/ontokit/pkg/internal"
	"github.com/jlrickert/ontokit/pkg/remote"
)

// IndexOptions configures an Index.
type IndexOptions struct {
	Store remote.Store
	// Path of the index document inside the store.
	Path     string
	Prefixes PrefixTable
	// Retries is how many times a mutation rejected for a stale revision is
	// re-read and re-applied. Zero surfaces the first conflict.
	Retries int
}

// Index reads and mutates the index document. Every mutation reads the
// current document through the cache, applies a Transform, and writes the
// whole document back conditioned on the revision it read. The store decides
// races: the losing writer gets a *remote.ConflictError.
//
// An Index is safe for concurrent use.
type Index struct {
	store    remote.Store
	path     string
	prefixes PrefixTable
	retries  int
	cache    *remote.Cache[snapshot]
}

// snapshot is a decoded index document with the bytes it was decoded from.
type snapshot struct {
	doc Document
	raw []byte
}

func decodeSnapshot(data []byte) (snapshot, error) {
	doc, err := DecodeDocument(data)
	if err != nil {
		return snapshot{}, err
	}
	return snapshot{doc: doc, raw: append([]byte(nil), data...)}, nil
}

// stored returns the bytes the store holds for s.
func (s snapshot) stored() ([]byte, error) {
	if len(s.raw) > 0 {
		return s.raw, nil
	}
	return Encode(s.doc)
}

// NewIndex constructs an Index.
func NewIndex(opts IndexOptions) *Index {
	prefixes := opts.Prefixes
	if prefixes == nil {
		prefixes = DefaultPrefixes()
	}
	p := opts.Path
	if p == "" {
		p = DefaultIndexFile
	}
	ix := &Index{
		store:    opts.Store,
		path:     p,
		prefixes: prefixes,
		retries:  max(opts.Retries, 0),
	}
	ix.cache = remote.NewCache(p, func(ctx context.Context, etag string) (*remote.Object, error) {
		return ix.store.Get(ctx, ix.path, etag)
	}, decodeSnapshot)
	return ix
}

// Path returns the index document location.
func (ix *Index) Path() string { return ix.path }

// Prefixes returns the prefix table used for new test ids.
func (ix *Index) Prefixes() PrefixTable { return ix.prefixes }

// Revision returns the revision of the cached document.
func (ix *Index) Revision() remote.Revision { return ix.cache.Revision() }

// Invalidate drops the cached document.
func (ix *Index) Invalidate() { ix.cache.Invalidate() }

// Document returns a copy of the current document.
func (ix *Index) Document(ctx context.Context) (Document, error) {
	snap, _, err := ix.cache.Get(ctx)
	if err != nil {
		return Document{}, fmt.Errorf("read index %s: %w", ix.path, err)
	}
	return snap.doc.Clone(), nil
}

// Init creates the index document with EmptyDocument when the store has
// none. It reports whether a document was created.
func (ix *Index) Init(ctx context.Context) (bool, error) {
	lg := internal.LoggerFromContext(ctx)
	_, err := ix.store.Get(ctx, ix.path, "")
	if err == nil {
		lg.Debug("index already exists", "path", ix.path)
		return false, nil
	}
	if !remote.IsNotExist(err) {
		return false, fmt.Errorf("read index %s: %w", ix.path, err)
	}
	doc := EmptyDocument()
	data, err := Encode(doc)
	if err != nil {
		return false, err
	}
	res, err := ix.store.Put(ctx, ix.path, remote.PutRequest{Message: "Create " + ix.path, Data: data})
	if err != nil {
		return false, fmt.Errorf("create index %s: %w", ix.path, err)
	}
	ix.cache.UpdateFrom(snapshot{doc: doc, raw: data}, res)
	lg.Info("index created", "path", ix.path, "sha", res.SHA)
	return true, nil
}

// Preview applies t to the current document without writing and returns a
// unified diff between the stored bytes and what Mutate would write. It is
// empty when Mutate would not write.
func (ix *Index) Preview(ctx context.Context, t Transform) (string, error) {
	snap, _, err := ix.cache.Get(ctx)
	if err != nil {
		return "", fmt.Errorf("read index %s: %w", ix.path, err)
	}
	before, err := Encode(snap.doc)
	if err != nil {
		return "", err
	}
	next, err := t(snap.doc.Clone())
	if err != nil {
		return "", err
	}
	after, err := Encode(next)
	if err != nil {
		return "", err
	}
	if bytes.Equal(before, after) {
		return "", nil
	}
	stored, err := snap.stored()
	if err != nil {
		return "", err
	}
	return Diff(stored, after, ix.path)
}

// Mutate runs t against the current document and writes the result. The
// returned document is a copy of what the store accepted. A transform that
// changes nothing does not write.
func (ix *Index) Mutate(ctx context.Context, message string, t Transform) (Document, error) {
	lg := internal.LoggerFromContext(ctx)
	op := uuid.NewString()

	for attempt := 0; ; attempt++ {
		snap, rev, err := ix.cache.Get(ctx)
		if err != nil {
			return Document{}, fmt.Errorf("read index %s: %w", ix.path, err)
		}
		before, err := Encode(snap.doc)
		if err != nil {
			return Document{}, err
		}
		next, err := t(snap.doc.Clone())
		if err != nil {
			return Document{}, err
		}
		data, err := Encode(next)
		if err != nil {
			return Document{}, err
		}
		if bytes.Equal(before, data) {
			lg.Debug("index unchanged, skipping write", "op", op, "path", ix.path, "sha", rev.SHA)
			return next.Clone(), nil
		}

		res, err := ix.store.Put(ctx, ix.path, remote.PutRequest{
			Message: message,
			Data:    data,
			SHA:     rev.SHA,
		})
		if err == nil {
			ix.cache.UpdateFrom(snapshot{doc: next, raw: data}, res)
			lg.Info("index updated", "op", op, "path", ix.path, "message", message, "old_sha", rev.SHA, "new_sha", res.SHA)
			return next.Clone(), nil
		}
		if remote.IsConflict(err) && attempt < ix.retries {
			lg.Warn("index changed remotely, retrying", "op", op, "path", ix.path, "attempt", attempt+1, "sha", rev.SHA)
			ix.cache.Invalidate()
			continue
		}
		if remote.IsConflict(err) {
			lg.Warn("index write rejected", "op", op, "path", ix.path, "sha", rev.SHA, "err", err)
		}
		return Document{}, fmt.Errorf("write index %s: %w", ix.path, err)
	}
}

// AddOntology adds o to the index.
func (ix *Index) AddOntology(ctx context.Context, o Ontology) error {
	if o.Name == "" {
		return invalid("ontology name is required")
	}
	_, err := ix.Mutate(ctx, "Add ontology "+o.Name, AddOntology(o))
	return err
}

// UpdateOntologies merges list into the existing ontologies by URL.
func (ix *Index) UpdateOntologies(ctx context.Context, list []Ontology) error {
	_, err := ix.Mutate(ctx, "Update ontologies", UpdateOntologies(list))
	return err
}

// DeleteOntology removes an ontology and its fragments.
func (ix *Index) DeleteOntology(ctx context.Context, name string) error {
	if name == "" {
		return invalid("ontology name is required")
	}
	_, err := ix.Mutate(ctx, "Delete ontology "+name, DeleteOntology(name))
	return err
}

// CreateFragment adds f to the index.
func (ix *Index) CreateFragment(ctx context.Context, f Fragment) error {
	if !f.Key().valid() {
		return invalid("fragment name and ontology are required")
	}
	_, err := ix.Mutate(ctx, "Create fragment "+f.Key().String(), CreateFragment(f))
	return err
}

// UpdateFragment renames or moves the fragment at key.
func (ix *Index) UpdateFragment(ctx context.Context, key FragmentKey, f Fragment) error {
	if !key.valid() || !f.Key().valid() {
		return invalid("fragment name and ontology are required")
	}
	_, err := ix.Mutate(ctx, "Update fragment "+key.String(), UpdateFragment(key, f))
	return err
}

// DeleteFragment removes the fragment at key.
func (ix *Index) DeleteFragment(ctx context.Context, key FragmentKey) error {
	if !key.valid() {
		return invalid("fragment name and ontology are required")
	}
	_, err := ix.Mutate(ctx, "Delete fragment "+key.String(), DeleteFragment(key))
	return err
}

// CreateTest adds a test to the fragment at key and returns it with its
// allocated id. in must not carry pending uploads.
func (ix *Index) CreateTest(ctx context.Context, key FragmentKey, in TestInput) (Test, error) {
	if !key.valid() {
		return Test{}, invalid("fragment name and ontology are required")
	}
	if !in.Type.Valid() {
		return Test{}, invalid("unknown test type %q", in.Type)
	}
	var created Test
	_, err := ix.Mutate(ctx, "Create test in "+key.String(), createTest(key, in, ix.prefixes, &created))
	if err != nil {
		return Test{}, err
	}
	return created, nil
}

// UpdateTest changes the test id in the fragment at key.
func (ix *Index) UpdateTest(ctx context.Context, key FragmentKey, id string, in TestInput) error {
	if !key.valid() || id == "" {
		return invalid("fragment key and test id are required")
	}
	if !in.Type.Valid() {
		return invalid("unknown test type %q", in.Type)
	}
	_, err := ix.Mutate(ctx, "Update test "+id+" in "+key.String(), UpdateTest(key, id, in))
	return err
}

// DeleteTest removes the test id from the fragment at key.
func (ix *Index) DeleteTest(ctx context.Context, key FragmentKey, id string) error {
	if !key.valid() || id == "" {
		return invalid("fragment key and test id are required")
	}
	_, err := ix.Mutate(ctx, "Delete test "+id+" in "+key.String(), DeleteTest(key, id))
	return err
}
