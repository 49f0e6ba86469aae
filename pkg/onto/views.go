package onto

import "sort"

// Partition splits ontologies by review state.
type Partition struct {
	// Pending were discovered externally and not reviewed yet.
	Pending []Ontology
	// Active are user defined or approved.
	Active []Ontology
	// Ignored were rejected.
	Ignored []Ontology
}

// PartitionOntologies groups the ontologies of doc. Order within each group
// follows the document.
func PartitionOntologies(doc Document) Partition {
	var p Partition
	for _, o := range doc.Ontologies {
		switch {
		case o.Ignored:
			p.Ignored = append(p.Ignored, o)
		case o.UserDefined || o.Parsed:
			p.Active = append(p.Active, o)
		default:
			p.Pending = append(p.Pending, o)
		}
	}
	return p
}

// OntologyStats aggregates the tests under one ontology.
type OntologyStats struct {
	Name      string
	Fragments int
	Tests     int
	ByType    map[TestType]int
	ByStatus  map[string]int
}

// Stats is the dashboard summary of a document.
type Stats struct {
	Ontologies []OntologyStats
	Totals     OntologyStats
}

// NoStatus is the bucket for tests without a status.
const NoStatus = "(none)"

func newOntologyStats(name string) OntologyStats {
	return OntologyStats{Name: name, ByType: map[TestType]int{}, ByStatus: map[string]int{}}
}

// Dashboard counts fragments and tests per ontology, by type and by status.
// Ontologies referenced only by fragments are included. Rows are sorted by
// name.
func Dashboard(doc Document) Stats {
	rows := map[string]*OntologyStats{}
	row := func(name string) *OntologyStats {
		r, ok := rows[name]
		if !ok {
			s := newOntologyStats(name)
			r = &s
			rows[name] = r
		}
		return r
	}
	for _, o := range doc.Ontologies {
		row(o.Name)
	}

	totals := newOntologyStats("total")
	for _, f := range doc.Fragments {
		r := row(f.OntologyName)
		r.Fragments++
		totals.Fragments++
		for _, t := range f.Tests {
			status := t.Status
			if status == "" {
				status = NoStatus
			}
			r.Tests++
			r.ByType[t.Type]++
			r.ByStatus[status]++
			totals.Tests++
			totals.ByType[t.Type]++
			totals.ByStatus[status]++
		}
	}

	out := Stats{Totals: totals, Ontologies: make([]OntologyStats, 0, len(rows))}
	for _, r := range rows {
		out.Ontologies = append(out.Ontologies, *r)
	}
	sort.Slice(out.Ontologies, func(i, j int) bool {
		return out.Ontologies[i].Name < out.Ontologies[j].Name
	})
	return out
}

// Statuses returns the distinct statuses in s, sorted.
func (s Stats) Statuses() []string {
	out := make([]string, 0, len(s.Totals.ByStatus))
	for k := range s.Totals.ByStatus {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// FragmentsOf returns the fragments under ontology in document order.
func FragmentsOf(doc Document, ontology string) []Fragment {
	var out []Fragment
	for _, f := range doc.Fragments {
		if f.OntologyName == ontology {
			out = append(out, f)
		}
	}
	return out
}

// FindFragment looks up a fragment by key.
func FindFragment(doc Document, key FragmentKey) (Fragment, bool) {
	if i := findFragment(doc, key); i >= 0 {
		return doc.Fragments[i], true
	}
	return Fragment{}, false
}

// FindOntology looks up an ontology by name.
func FindOntology(doc Document, name string) (Ontology, bool) {
	if i := findOntology(doc, name); i >= 0 {
		return doc.Ontologies[i], true
	}
	return Ontology{}, false
}

// FindTest looks up a test by id within the fragment at key.
func FindTest(doc Document, key FragmentKey, id string) (Test, bool) {
	f, ok := FindFragment(doc, key)
	if !ok {
		return Test{}, false
	}
	if j := findTestByID(f.Tests, id); j >= 0 {
		return f.Tests[j], true
	}
	return Test{}, false
}
