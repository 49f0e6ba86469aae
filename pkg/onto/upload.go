package onto

import (
	"context"
	"fmt"
	"path"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/jlrickert/ontokit/pkg/internal"
	"github.com/jlrickert/ontokit/pkg/remote"
)

// File is content to upload. Read is called once, concurrently with the
// directory listing.
type File struct {
	Name string
	Read func(ctx context.Context) ([]byte, error)
}

// BytesFile wraps in-memory content.
func BytesFile(name string, data []byte) *File {
	return &File{Name: name, Read: func(context.Context) ([]byte, error) { return data, nil }}
}

// FileReader reads local files. *toolkit.Runtime satisfies it.
type FileReader interface {
	ReadFile(p string) ([]byte, error)
}

// LocalFile reads the file at p through fs when uploaded. The upload name is
// the base name of p.
func LocalFile(fs FileReader, p string) *File {
	return &File{Name: filepath.Base(p), Read: func(context.Context) ([]byte, error) { return fs.ReadFile(p) }}
}

// Uploader puts files into a directory of a store without overwriting: a
// name that is already taken gets a timestamp suffix.
type Uploader struct {
	store remote.Store
	clock internal.Clock
}

// NewUploader constructs an Uploader. A nil clock uses the wall clock.
func NewUploader(store remote.Store, clock internal.Clock) *Uploader {
	if clock == nil {
		clock = internal.RealClock{}
	}
	return &Uploader{store: store, clock: clock}
}

// CollisionName inserts a 14 digit UTC timestamp before the extension of
// name. Names without an extension, dotfiles included, get it appended.
func CollisionName(name string, now time.Time) string {
	stamp := now.UTC().Format(internal.StampLayout)
	ext := path.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	if ext == "" || stem == "" {
		return name + "_" + stamp
	}
	return stem + "_" + stamp + ext
}

// Upload writes f into dir and returns the name it was stored under. A nil
// or unnamed file is a no-op. Only one rename is attempted; the store's
// create semantics reject a second collision.
func (u *Uploader) Upload(ctx context.Context, f *File, dir string) (string, error) {
	if f == nil || f.Name == "" {
		return "", nil
	}
	lg := internal.LoggerFromContext(ctx)

	var (
		existing []remote.Entry
		data     []byte
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		entries, err := u.store.List(gctx, dir)
		if err != nil && !remote.IsNotExist(err) {
			return fmt.Errorf("list %s: %w", dir, err)
		}
		existing = entries
		return nil
	})
	g.Go(func() error {
		if f.Read == nil {
			return nil
		}
		b, err := f.Read(gctx)
		if err != nil {
			return fmt.Errorf("read %s: %w", f.Name, err)
		}
		data = b
		return nil
	})
	if err := g.Wait(); err != nil {
		return "", err
	}

	name := path.Base(f.Name)
	for _, e := range existing {
		if e.Name == name {
			renamed := CollisionName(name, u.clock.Now())
			lg.Debug("upload name taken, renaming", "dir", dir, "name", name, "renamed", renamed)
			name = renamed
			break
		}
	}

	target := path.Join(dir, name)
	res, err := u.store.Put(ctx, target, remote.PutRequest{
		Message: "Uploaded file " + name,
		Data:    data,
	})
	if err != nil {
		return "", fmt.Errorf("upload %s: %w", target, err)
	}
	lg.Info("file uploaded", "path", res.Path, "sha", res.SHA, "bytes", len(data))
	return name, nil
}

// ResolveUploads uploads every NewUpload source of in into its folder under
// the fragment at key and returns in with those sources replaced by
// UploadedFile references. The uploads run concurrently.
func (u *Uploader) ResolveUploads(ctx context.Context, base string, key FragmentKey, in TestInput) (TestInput, error) {
	if !in.HasPendingUploads() {
		return in, nil
	}
	if !key.valid() {
		return in, invalid("fragment name and ontology are required")
	}

	out := in
	g, gctx := errgroup.WithContext(ctx)
	for _, slot := range out.slots() {
		if slot.src.kind != SourceNewUpload {
			continue
		}
		g.Go(func() error {
			src := *slot.src
			name, err := u.Upload(gctx, BytesFile(src.name, src.data), FragmentDir(base, key, slot.folder))
			if err != nil {
				return err
			}
			*slot.src = UploadedFile(name)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return in, err
	}
	return out, nil
}
