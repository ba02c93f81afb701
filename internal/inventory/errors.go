package inventory

import (
	"errors"
	"fmt"
)

var (
	// ErrTableNotFound means the rendered page has no item table header.
	ErrTableNotFound = errors.New("inventory table not found")

	// ErrMissingSetName means the document metadata scan found no set name.
	ErrMissingSetName = errors.New("set name not found in document")
)

// MalformedRowError aborts an extraction: a row matched the expected item
// link pattern but could not be parsed into a record. It carries the
// offending line for diagnosis.
type MalformedRowError struct {
	Line string
}

func (e *MalformedRowError) Error() string {
	return fmt.Sprintf("malformed inventory row: %q", e.Line)
}
