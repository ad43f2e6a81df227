package util

import "errors"

// Sentinel errors for common failure modes
var (
	// ErrMalformed indicates the library document could not be parsed
	ErrMalformed = errors.New("malformed document")

	// ErrStructure indicates the document parsed but lacks the expected dictionaries
	ErrStructure = errors.New("unexpected document structure")

	// ErrAmbiguous indicates a natural-key lookup matched more than one row
	ErrAmbiguous = errors.New("ambiguous natural key")

	// ErrNotFound indicates a required resource was not found
	ErrNotFound = errors.New("not found")

	// ErrInvalidConfig indicates invalid configuration
	ErrInvalidConfig = errors.New("invalid configuration")
)
