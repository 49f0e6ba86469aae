package onto

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/jlrickert/ontokit/pkg/remote"
)

// AllocateID returns the next identifier for a test of type typ within one
// fragment's tests: the prefix followed by the highest existing sequence for
// that prefix and type plus one, zero padded to three digits.
//
// Tests whose id carries the prefix but whose recorded type differs are not
// counted, and non-numeric suffixes are ignored. Uniqueness beyond that is not
// checked.
func AllocateID(tests []Test, typ TestType, prefixes PrefixTable) (string, error) {
	if prefixes == nil {
		prefixes = DefaultPrefixes()
	}
	prefix, ok := prefixes[typ]
	if !ok || prefix == "" {
		return "", fmt.Errorf("no id prefix for test type %q: %w", typ, remote.ErrInvalid)
	}

	highest := 0
	for _, t := range tests {
		if t.Type != typ || !strings.HasPrefix(t.ID, prefix) {
			continue
		}
		n, err := strconv.Atoi(strings.TrimPrefix(t.ID, prefix))
		if err != nil || n < 0 {
			continue
		}
		if n > highest {
			highest = n
		}
	}
	return fmt.Sprintf("%s%03d", prefix, highest+1), nil
}
