package remote

import (
	"context"
	"sync"

	"github.com/jlrickert/ontokit/pkg/internal"
)

// Fetcher performs one conditional read. etag is the last validator the
// cache holds (empty on the first read). Implementations return an Object with
// NotModified set for a 304 style hit.
type Fetcher func(ctx context.Context, etag string) (*Object, error)

// Decoder turns fetched bytes into a value. It must accept empty input.
type Decoder[T any] func(data []byte) (T, error)

// Cache holds the last known decoded value of a single remote resource along
// with its revision. Reads are conditional on the stored ETag, so an unchanged
// resource is served from memory without transferring its body.
//
// When a read fails for any reason other than "not modified" and a value has
// been cached before, the cached value is returned instead of the error. The
// error only surfaces when there is nothing to fall back to.
//
// Cache is safe for concurrent use.
type Cache[T any] struct {
	name   string
	fetch  Fetcher
	decode Decoder[T]

	mu    sync.RWMutex
	value T
	rev   Revision
	valid bool
}

// NewCache constructs a Cache. name is only used for logging.
func NewCache[T any](name string, fetch Fetcher, decode Decoder[T]) *Cache[T] {
	return &Cache[T]{name: name, fetch: fetch, decode: decode}
}

// Get returns the current value of the resource and its revision.
func (c *Cache[T]) Get(ctx context.Context) (T, Revision, error) {
	lg := internal.LoggerFromContext(ctx)

	c.mu.RLock()
	etag := ""
	if c.valid {
		etag = c.rev.ETag
	}
	c.mu.RUnlock()

	obj, err := c.fetch(ctx, etag)
	if err == nil && obj != nil && obj.NotModified {
		c.mu.RLock()
		defer c.mu.RUnlock()
		if c.valid {
			lg.Debug("remote cache hit", "resource", c.name, "sha", c.rev.SHA)
			return c.value, c.rev, nil
		}
		// A 304 without a cached value means our validator came from an
		// invalidated entry. Treat it as a miss.
		err = NewBackendError("cache", "Get", 304, "not modified without cached value", nil, true)
	}

	if err == nil && obj != nil {
		v, decErr := c.decode(obj.Data)
		if decErr != nil {
			err = decErr
		} else {
			rev := obj.Revision()
			c.mu.Lock()
			c.value = v
			c.rev = rev
			c.valid = true
			c.mu.Unlock()
			lg.Debug("remote cache refreshed", "resource", c.name, "sha", rev.SHA)
			return v, rev, nil
		}
	}

	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.valid {
		lg.Warn("remote read failed, serving cached value", "resource", c.name, "sha", c.rev.SHA, "err", err)
		return c.value, c.rev, nil
	}
	var zero T
	return zero, Revision{}, err
}

// Invalidate drops the cached value so the next Get performs a full read.
func (c *Cache[T]) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	var zero T
	c.value = zero
	c.rev = Revision{}
	c.valid = false
}

// UpdateFrom installs a value this process just wrote. The SHA comes from the
// write response; the ETag is unknown until the next read, so it is cleared
// and the next Get transfers the body once.
func (c *Cache[T]) UpdateFrom(value T, res *PutResult) {
	if res == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.value = value
	c.rev = Revision{SHA: res.SHA}
	c.valid = true
}

// Revision returns the revision of the cached value, zero when empty.
func (c *Cache[T]) Revision() Revision {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.rev
}

// Peek returns the cached value without any network access.
func (c *Cache[T]) Peek() (T, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.value, c.valid
}

// Raw is a Decoder that returns the bytes unchanged.
func Raw(data []byte) ([]byte, error) {
	cp := make([]byte, len(data))
	copy(cp, data)
	return cp, nil
}
