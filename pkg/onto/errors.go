package onto

import "errors"

// Domain failures. Messages are user facing.
var (
	ErrFragmentNotFound = errors.New("Fragment not found")
	ErrFragmentExists   = errors.New("Fragment already exists")
	ErrTestNotFound     = errors.New("Test id not found")
	ErrOntologyExists   = errors.New("Ontology already exists")
	ErrOntologyNotFound = errors.New("Ontology not found")
)

// IsDomainError reports whether err is one of the expected business rule
// failures above, as opposed to a transport or programmer error.
func IsDomainError(err error) bool {
	for _, target := range []error{
		ErrFragmentNotFound,
		ErrFragmentExists,
		ErrTestNotFound,
		ErrOntologyExists,
		ErrOntologyNotFound,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
