package onto

import (
	"fmt"

	"github.com/jlrickert/ontokit/pkg/remote"
)

// SourceKind tags a Source.
type SourceKind int

const (
	// SourceUnset leaves the target fields untouched.
	SourceUnset SourceKind = iota
	// SourceInline is literal text stored in the index.
	SourceInline
	// SourceUploaded references a file already in the repository.
	SourceUploaded
	// SourceNewUpload is a file that still has to be uploaded.
	SourceNewUpload
)

func (k SourceKind) String() string {
	switch k {
	case SourceInline:
		return "inline"
	case SourceUploaded:
		return "uploaded"
	case SourceNewUpload:
		return "new-upload"
	default:
		return "unset"
	}
}

// Source is the content of one of a test's query, data or expected results
// slots. The zero value is SourceUnset.
type Source struct {
	kind SourceKind
	text string
	name string
	data []byte
}

// Inline returns a Source holding literal text.
func Inline(text string) Source { return Source{kind: SourceInline, text: text} }

// UploadedFile returns a Source referencing an existing repository file.
func UploadedFile(name string) Source { return Source{kind: SourceUploaded, name: name} }

// NewUpload returns a Source for content that must be uploaded first.
func NewUpload(name string, data []byte) Source {
	return Source{kind: SourceNewUpload, name: name, data: data}
}

func (s Source) Kind() SourceKind { return s.kind }
func (s Source) Text() string     { return s.text }
func (s Source) Name() string     { return s.name }
func (s Source) Bytes() []byte    { return s.data }

// assign writes s into a text/file-name field pair, clearing the other half.
func (s Source) assign(text, fileName *string) error {
	switch s.kind {
	case SourceUnset:
	case SourceInline:
		*text, *fileName = s.text, ""
	case SourceUploaded:
		*text, *fileName = "", s.name
	case SourceNewUpload:
		return fmt.Errorf("file %q has not been uploaded: %w", s.name, remote.ErrInvalid)
	}
	return nil
}

// TestInput carries the user editable parts of a test.
type TestInput struct {
	Type            TestType
	Status          string
	Content         string
	Query           Source
	Data            Source
	ExpectedResults Source
}

// slots returns the three sources with the folder each one uploads into.
func (in *TestInput) slots() []struct {
	src    *Source
	folder FileFolder
} {
	return []struct {
		src    *Source
		folder FileFolder
	}{
		{&in.Query, FolderQueries},
		{&in.Data, FolderDatasets},
		{&in.ExpectedResults, FolderExpectedResults},
	}
}

// HasPendingUploads reports whether any source still needs uploading.
func (in TestInput) HasPendingUploads() bool {
	for _, s := range in.slots() {
		if s.src.kind == SourceNewUpload {
			return true
		}
	}
	return false
}

// apply copies in onto t. Status and Content overwrite when non-empty.
func (in TestInput) apply(t *Test) error {
	if in.Status != "" {
		t.Status = in.Status
	}
	if in.Content != "" {
		t.Content = in.Content
	}
	if err := in.Query.assign(&t.Query, &t.QueryFileName); err != nil {
		return err
	}
	if err := in.Data.assign(&t.Data, &t.DataFileName); err != nil {
		return err
	}
	return in.ExpectedResults.assign(&t.ExpectedResults, &t.ExpectedResultsFileName)
}

// AssumeUploaded returns in with every NewUpload replaced by an UploadedFile
// of the same name, for previews that must not touch the store.
func (in TestInput) AssumeUploaded() TestInput {
	out := in
	for _, s := range out.slots() {
		if s.src.kind == SourceNewUpload {
			*s.src = UploadedFile(s.src.name)
		}
	}
	return out
}
