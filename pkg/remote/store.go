package remote

import (
	"context"
)

// Store is the backing-store contract used by ontokit. Implementations expose
// a flat namespace of slash separated paths holding file content, where every
// file carries a content revision (SHA) used for optimistic concurrency.
// Methods are context-aware and return the typed errors defined in errors.go
// so callers can reliably use errors.Is / errors.As.
type Store interface {
	// Name returns a short, human-friendly name for the backend
	// implementation.
	Name() string

	// Get reads the file at path. When etag is non-empty it is sent as a
	// precondition; if the remote resource still matches, the returned Object
	// has NotModified set and carries no data. A missing file returns
	// ErrNotExist.
	Get(ctx context.Context, path string, etag string) (*Object, error)

	// Put creates or replaces the file at path. When req.SHA is set the write
	// is accepted only if the current revision still equals it; otherwise a
	// *ConflictError is returned. Omitting the SHA means "create".
	Put(ctx context.Context, path string, req PutRequest) (*PutResult, error)

	// List returns the entries directly below dir. A missing directory
	// returns ErrNotExist.
	List(ctx context.Context, dir string) ([]Entry, error)
}

// Object is a single file read from a Store.
type Object struct {
	Path        string
	// Data is the decoded file content (base64 transport encoding removed).
	Data        []byte
	SHA         string
	ETag        string
	// NotModified reports that the conditional read matched the caller's ETag.
	NotModified bool
}

// Revision returns the revision token identifying this object.
func (o *Object) Revision() Revision {
	if o == nil {
		return Revision{}
	}
	return Revision{SHA: o.SHA, ETag: o.ETag}
}

// PutRequest is the body of a write.
type PutRequest struct {
	Message string
	Data    []byte
	// SHA is the revision the caller last observed. Empty for new files.
	SHA     string
}

// PutResult describes the revision produced by an accepted write.
type PutResult struct {
	Path string
	SHA  string
}

// EntryType distinguishes files from directories in a listing.
type EntryType string

const (
	EntryFile EntryType = "file"
	EntryDir  EntryType = "dir"
)

// Entry is one element of a directory listing.
type Entry struct {
	Name string
	Path string
	Type EntryType
	SHA  string
}

// Revision is the opaque token identifying the exact state of a remote
// resource. SHA is the content revision used for write preconditions; ETag is
// the HTTP validator used for conditional reads.
type Revision struct {
	SHA  string
	ETag string
}

// IsZero reports whether no revision has been observed.
func (r Revision) IsZero() bool { return r.SHA == "" && r.ETag == "" }

// Names returns the names of entries, preserving order.
func Names(entries []Entry) []string {
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.Name)
	}
	return out
}
