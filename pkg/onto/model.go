package onto

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/jlrickert/ontokit/pkg/remote"
)

// TestType classifies a test case. Each type owns an ID prefix.
type TestType string

const (
	CompetencyQuestion    TestType = "COMPETENCY_QUESTION"
	InferenceVerification TestType = "INFERENCE_VERIFICATION"
	ErrorProvocation      TestType = "ERROR_PROVOCATION"
	GeneralConstraint     TestType = "GENERAL_CONSTRAINT"
)

// TestTypes lists the known test types in display order.
var TestTypes = []TestType{CompetencyQuestion, InferenceVerification, ErrorProvocation, GeneralConstraint}

// Valid reports whether t is one of the known types.
func (t TestType) Valid() bool {
	for _, k := range TestTypes {
		if t == k {
			return true
		}
	}
	return false
}

// ParseTestType accepts either the canonical name or a prefix from
// DefaultPrefixes (case-insensitive for the prefix).
func ParseTestType(s string) (TestType, error) {
	if t := TestType(s); t.Valid() {
		return t, nil
	}
	for t, p := range DefaultPrefixes() {
		if equalFold(p, s) {
			return t, nil
		}
	}
	return "", fmt.Errorf("unknown test type %q: %w", s, remote.ErrInvalid)
}

func equalFold(a, b string) bool {
	return bytes.EqualFold([]byte(a), []byte(b))
}

// PrefixTable maps a test type to its two letter ID prefix.
type PrefixTable map[TestType]string

// DefaultPrefixes returns the stock prefix table.
func DefaultPrefixes() PrefixTable {
	return PrefixTable{
		CompetencyQuestion:    "CQ",
		InferenceVerification: "IV",
		ErrorProvocation:      "EP",
		GeneralConstraint:     "GC",
	}
}

// With returns a copy of p with overrides applied. Empty override values are
// ignored.
func (p PrefixTable) With(overrides map[TestType]string) PrefixTable {
	out := make(PrefixTable, len(p))
	for k, v := range p {
		out[k] = v
	}
	for k, v := range overrides {
		if v != "" {
			out[k] = v
		}
	}
	return out
}

// Ontology is one ontology known to the index. Name is unique.
type Ontology struct {
	Name        string `json:"name"`
	URL         string `json:"url,omitempty"`
	UserDefined bool   `json:"userDefined"`
	Parsed      bool   `json:"parsed"`
	Ignored     bool   `json:"ignored"`
}

// Test is a single test case attached to a fragment.
type Test struct {
	ID                      string   `json:"id"`
	Type                    TestType `json:"type"`
	Status                  string   `json:"status,omitempty"`
	Content                 string   `json:"content,omitempty"`
	Query                   string   `json:"query,omitempty"`
	QueryFileName           string   `json:"queryFileName,omitempty"`
	Data                    string   `json:"data,omitempty"`
	DataFileName            string   `json:"dataFileName,omitempty"`
	ExpectedResults         string   `json:"expectedResults,omitempty"`
	ExpectedResultsFileName string   `json:"expectedResultsFileName,omitempty"`
}

// Fragment is a named subset of an ontology that tests attach to.
type Fragment struct {
	Name         string `json:"name"`
	OntologyName string `json:"ontologyName"`
	Tests        []Test `json:"tests,omitempty"`
}

// Key returns the fragment's identity.
func (f Fragment) Key() FragmentKey {
	return FragmentKey{Name: f.Name, Ontology: f.OntologyName}
}

// FragmentKey identifies a fragment. Names are only unique per ontology.
type FragmentKey struct {
	Name     string
	Ontology string
}

func (k FragmentKey) String() string {
	return k.Ontology + "/" + k.Name
}

func (k FragmentKey) valid() bool {
	return k.Name != "" && k.Ontology != ""
}

// Document is the index document. Top level keys other than ontologies and
// fragments are carried through untouched, and the top level key order of a
// decoded document is kept when it is encoded again.
type Document struct {
	Ontologies []Ontology
	Fragments  []Fragment

	extra map[string]json.RawMessage
	order []string
}

const (
	keyOntologies = "ontologies"
	keyFragments  = "fragments"
)

// EmptyDocument returns a document with empty, non-nil lists.
func EmptyDocument() Document {
	return Document{Ontologies: []Ontology{}, Fragments: []Fragment{}}
}

// Extra returns the raw value of an unrecognized top level key.
func (d Document) Extra(key string) (json.RawMessage, bool) {
	v, ok := d.extra[key]
	return v, ok
}

// ExtraKeys returns the unrecognized top level keys, sorted.
func (d Document) ExtraKeys() []string {
	keys := make([]string, 0, len(d.extra))
	for k := range d.extra {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Clone returns a deep copy so transforms never alias the cached value.
func (d Document) Clone() Document {
	out := Document{
		Ontologies: append([]Ontology{}, d.Ontologies...),
		Fragments:  make([]Fragment, len(d.Fragments)),
		order:      append([]string(nil), d.order...),
	}
	for i, f := range d.Fragments {
		f.Tests = append([]Test(nil), f.Tests...)
		out.Fragments[i] = f
	}
	if d.extra != nil {
		out.extra = make(map[string]json.RawMessage, len(d.extra))
		for k, v := range d.extra {
			out.extra[k] = append(json.RawMessage(nil), v...)
		}
	}
	return out
}

// keys returns the top level keys in output order: the decoded order first,
// then ontologies and fragments if they were absent, then any remaining
// extra keys sorted.
func (d Document) keys() []string {
	out := make([]string, 0, len(d.extra)+2)
	seen := make(map[string]bool, len(d.extra)+2)
	add := func(k string) {
		if !seen[k] {
			seen[k] = true
			out = append(out, k)
		}
	}
	for _, k := range d.order {
		if _, ok := d.extra[k]; ok || k == keyOntologies || k == keyFragments {
			add(k)
		}
	}
	add(keyOntologies)
	add(keyFragments)
	for _, k := range d.ExtraKeys() {
		add(k)
	}
	return out
}

func (d Document) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range d.keys() {
		if i > 0 {
			buf.WriteByte(',')
		}
		name, err := marshalNoEscape(k)
		if err != nil {
			return nil, err
		}
		buf.Write(name)
		buf.WriteByte(':')

		var v []byte
		switch k {
		case keyOntologies:
			ontologies := d.Ontologies
			if ontologies == nil {
				ontologies = []Ontology{}
			}
			v, err = marshalNoEscape(ontologies)
		case keyFragments:
			fragments := d.Fragments
			if fragments == nil {
				fragments = []Fragment{}
			}
			v, err = marshalNoEscape(fragments)
		default:
			v = d.extra[k]
		}
		if err != nil {
			return nil, fmt.Errorf("%s: %w", k, err)
		}
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// marshalNoEscape is json.Marshal without HTML escaping.
func marshalNoEscape(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

func (d *Document) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("index document must be a JSON object")
	}

	out := EmptyDocument()
	raw := map[string]json.RawMessage{}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, _ := tok.(string)
		var v json.RawMessage
		if err := dec.Decode(&v); err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		if _, dup := raw[key]; !dup {
			out.order = append(out.order, key)
		}
		raw[key] = v
	}
	if _, err := dec.Token(); err != nil {
		return err
	}

	if v, ok := raw[keyOntologies]; ok {
		if err := json.Unmarshal(v, &out.Ontologies); err != nil {
			return fmt.Errorf("ontologies: %w", err)
		}
		delete(raw, keyOntologies)
	}
	if v, ok := raw[keyFragments]; ok {
		if err := json.Unmarshal(v, &out.Fragments); err != nil {
			return fmt.Errorf("fragments: %w", err)
		}
		delete(raw, keyFragments)
	}
	if out.Ontologies == nil {
		out.Ontologies = []Ontology{}
	}
	if out.Fragments == nil {
		out.Fragments = []Fragment{}
	}
	if len(raw) > 0 {
		out.extra = raw
	}
	*d = out
	return nil
}

// DecodeDocument parses an index document. A blank body yields
// EmptyDocument.
func DecodeDocument(data []byte) (Document, error) {
	if len(bytes.TrimSpace(data)) == 0 || bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		return EmptyDocument(), nil
	}
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return Document{}, fmt.Errorf("%w: index document: %w", remote.ErrParse, err)
	}
	return doc, nil
}

// Encode renders doc the way it is stored: two space indented JSON with a
// trailing newline and no HTML escaping.
func Encode(doc Document) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
