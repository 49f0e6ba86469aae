package onto

import (
	"fmt"
	"strings"

	"github.com/jlrickert/ontokit/pkg/remote"
)

// Transform is a pure change to an index document. It receives a private
// copy and returns the document to write. Returning an error aborts the
// mutation without a write.
type Transform func(doc Document) (Document, error)

// Chain runs transforms in order.
func Chain(ts ...Transform) Transform {
	return func(doc Document) (Document, error) {
		var err error
		for _, t := range ts {
			if doc, err = t(doc); err != nil {
				return doc, err
			}
		}
		return doc, nil
	}
}

func invalid(format string, args ...any) error {
	return fmt.Errorf(format+": %w", append(args, remote.ErrInvalid)...)
}

func findOntology(doc Document, name string) int {
	for i, o := range doc.Ontologies {
		if o.Name == name {
			return i
		}
	}
	return -1
}

func findFragment(doc Document, key FragmentKey) int {
	for i, f := range doc.Fragments {
		if f.Name == key.Name && f.OntologyName == key.Ontology {
			return i
		}
	}
	return -1
}

// findTest matches on both id and type.
func findTest(tests []Test, id string, typ TestType) int {
	for i, t := range tests {
		if t.ID == id && t.Type == typ {
			return i
		}
	}
	return -1
}

func findTestByID(tests []Test, id string) int {
	for i, t := range tests {
		if t.ID == id {
			return i
		}
	}
	return -1
}

// AddOntology appends o. Names are unique.
func AddOntology(o Ontology) Transform {
	return func(doc Document) (Document, error) {
		if strings.TrimSpace(o.Name) == "" {
			return doc, invalid("ontology name is required")
		}
		if findOntology(doc, o.Name) >= 0 {
			return doc, fmt.Errorf("%s: %w", o.Name, ErrOntologyExists)
		}
		doc.Ontologies = append(doc.Ontologies, o)
		return doc, nil
	}
}

// UpdateOntologies merges incoming into the existing ontologies keyed by URL.
// Only existing entries are updated: an incoming entry whose URL is empty or
// matches nothing is dropped.
func UpdateOntologies(incoming []Ontology) Transform {
	return func(doc Document) (Document, error) {
		byURL := make(map[string]Ontology, len(incoming))
		for _, o := range incoming {
			if o.URL != "" {
				byURL[o.URL] = o
			}
		}
		for i, o := range doc.Ontologies {
			if o.URL == "" {
				continue
			}
			if repl, ok := byURL[o.URL]; ok {
				doc.Ontologies[i] = repl
			}
		}
		return doc, nil
	}
}

// DeleteOntology removes the named ontology and every fragment under it.
// Deleting a missing ontology is not an error.
func DeleteOntology(name string) Transform {
	return func(doc Document) (Document, error) {
		if name == "" {
			return doc, invalid("ontology name is required")
		}
		ontologies := doc.Ontologies[:0]
		for _, o := range doc.Ontologies {
			if o.Name != name {
				ontologies = append(ontologies, o)
			}
		}
		fragments := doc.Fragments[:0]
		for _, f := range doc.Fragments {
			if f.OntologyName != name {
				fragments = append(fragments, f)
			}
		}
		doc.Ontologies, doc.Fragments = ontologies, fragments
		return doc, nil
	}
}

// CreateFragment appends f unless a fragment with the same name and ontology
// exists.
func CreateFragment(f Fragment) Transform {
	return func(doc Document) (Document, error) {
		if !f.Key().valid() {
			return doc, invalid("fragment name and ontology are required")
		}
		if findFragment(doc, f.Key()) >= 0 {
			return doc, fmt.Errorf("%s: %w", f.Key(), ErrFragmentExists)
		}
		doc.Fragments = append(doc.Fragments, f)
		return doc, nil
	}
}

// UpdateFragment renames or moves the fragment at key, keeping its tests.
func UpdateFragment(key FragmentKey, f Fragment) Transform {
	return func(doc Document) (Document, error) {
		if !key.valid() || !f.Key().valid() {
			return doc, invalid("fragment name and ontology are required")
		}
		i := findFragment(doc, key)
		if i < 0 {
			return doc, fmt.Errorf("%s: %w", key, ErrFragmentNotFound)
		}
		if f.Key() != key && findFragment(doc, f.Key()) >= 0 {
			return doc, fmt.Errorf("%s: %w", f.Key(), ErrFragmentExists)
		}
		doc.Fragments[i].Name = f.Name
		doc.Fragments[i].OntologyName = f.OntologyName
		return doc, nil
	}
}

// DeleteFragment removes the fragment at key along with its tests. Uploaded
// files are left in place. Deleting a missing fragment is not an error.
func DeleteFragment(key FragmentKey) Transform {
	return func(doc Document) (Document, error) {
		if !key.valid() {
			return doc, invalid("fragment name and ontology are required")
		}
		if i := findFragment(doc, key); i >= 0 {
			doc.Fragments = append(doc.Fragments[:i], doc.Fragments[i+1:]...)
		}
		return doc, nil
	}
}

// CreateTest adds a test built from in to the fragment at key, allocating
// its id from prefixes.
func CreateTest(key FragmentKey, in TestInput, prefixes PrefixTable) Transform {
	return createTest(key, in, prefixes, nil)
}

func createTest(key FragmentKey, in TestInput, prefixes PrefixTable, created *Test) Transform {
	return func(doc Document) (Document, error) {
		if !key.valid() {
			return doc, invalid("fragment name and ontology are required")
		}
		if !in.Type.Valid() {
			return doc, invalid("unknown test type %q", in.Type)
		}
		i := findFragment(doc, key)
		if i < 0 {
			return doc, fmt.Errorf("%s: %w", key, ErrFragmentNotFound)
		}
		frag := &doc.Fragments[i]
		id, err := AllocateID(frag.Tests, in.Type, prefixes)
		if err != nil {
			return doc, err
		}
		t := Test{ID: id, Type: in.Type}
		if err := in.apply(&t); err != nil {
			return doc, err
		}
		frag.Tests = append(frag.Tests, t)
		if created != nil {
			*created = t
		}
		return doc, nil
	}
}

// UpdateTest applies in to the test with the given id and in.Type in the
// fragment at key.
func UpdateTest(key FragmentKey, id string, in TestInput) Transform {
	return func(doc Document) (Document, error) {
		if !key.valid() || id == "" {
			return doc, invalid("fragment key and test id are required")
		}
		if !in.Type.Valid() {
			return doc, invalid("unknown test type %q", in.Type)
		}
		i := findFragment(doc, key)
		if i < 0 {
			return doc, fmt.Errorf("%s: %w", key, ErrFragmentNotFound)
		}
		tests := doc.Fragments[i].Tests
		j := findTest(tests, id, in.Type)
		if j < 0 {
			return doc, fmt.Errorf("%s in %s: %w", id, key, ErrTestNotFound)
		}
		if err := in.apply(&tests[j]); err != nil {
			return doc, err
		}
		return doc, nil
	}
}

// DeleteTest removes the test with id from the fragment at key. Missing
// fragments and tests are not errors.
func DeleteTest(key FragmentKey, id string) Transform {
	return func(doc Document) (Document, error) {
		if !key.valid() || id == "" {
			return doc, invalid("fragment key and test id are required")
		}
		i := findFragment(doc, key)
		if i < 0 {
			return doc, nil
		}
		if j := findTestByID(doc.Fragments[i].Tests, id); j >= 0 {
			tests := doc.Fragments[i].Tests
			doc.Fragments[i].Tests = append(tests[:j], tests[j+1:]...)
		}
		return doc, nil
	}
}
