package onto

import (
	"strings"

	"github.com/pmezard/go-difflib/difflib"
)

// Diff returns a unified diff between two encoded documents, or "" when
// they are identical.
func Diff(before, after []byte, name string) (string, error) {
	if string(before) == string(after) {
		return "", nil
	}
	u := difflib.UnifiedDiff{
		A:        splitLinesKeepNL(string(before)),
		B:        splitLinesKeepNL(string(after)),
		FromFile: "a/" + name,
		ToFile:   "b/" + name,
		Context:  3,
	}
	return difflib.GetUnifiedDiffString(u)
}

func splitLinesKeepNL(s string) []string {
	if s == "" {
		return []string{}
	}
	lines := strings.SplitAfter(s, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}
