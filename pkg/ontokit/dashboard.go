package ontokit

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/jlrickert/ontokit/pkg/onto"
)

// DashboardMarkdown renders stats as a GFM table: one row per ontology with
// fragment and test counts, a column per test type and per status, and a
// totals row.
func DashboardMarkdown(stats onto.Stats, prefixes onto.PrefixTable) string {
	if prefixes == nil {
		prefixes = onto.DefaultPrefixes()
	}
	statuses := stats.Statuses()

	var b strings.Builder
	b.WriteString("# Test dashboard\n\n")

	header := []string{"Ontology", "Fragments", "Tests"}
	for _, t := range onto.TestTypes {
		header = append(header, prefixes[t])
	}
	header = append(header, statuses...)
	writeRow(&b, header)

	sep := make([]string, len(header))
	for i := range sep {
		sep[i] = "---:"
	}
	sep[0] = "---"
	writeRow(&b, sep)

	row := func(s onto.OntologyStats, name string) {
		cells := []string{name, fmt.Sprint(s.Fragments), fmt.Sprint(s.Tests)}
		for _, t := range onto.TestTypes {
			cells = append(cells, fmt.Sprint(s.ByType[t]))
		}
		for _, st := range statuses {
			cells = append(cells, fmt.Sprint(s.ByStatus[st]))
		}
		writeRow(&b, cells)
	}
	for _, s := range stats.Ontologies {
		row(s, escapeCell(s.Name))
	}
	row(stats.Totals, "**Total**")
	return b.String()
}

func writeRow(b *strings.Builder, cells []string) {
	b.WriteString("| ")
	b.WriteString(strings.Join(cells, " | "))
	b.WriteString(" |\n")
}

func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}

// DashboardHTML renders the markdown dashboard to HTML.
func DashboardHTML(stats onto.Stats, prefixes onto.PrefixTable) (string, error) {
	md := goldmark.New(goldmark.WithExtensions(extension.GFM))
	var buf bytes.Buffer
	if err := md.Convert([]byte(DashboardMarkdown(stats, prefixes)), &buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}
