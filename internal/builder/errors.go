package builder

import (
	"errors"
	"strings"
)

var (
	// ErrAlreadyConfigured is recorded when a configuration method is
	// called on a builder that already holds an operation.
	ErrAlreadyConfigured = errors.New("builder already configured")

	// ErrNotConfigured is returned when rendering a builder with no
	// operation.
	ErrNotConfigured = errors.New("builder has no operation")

	// ErrNotSelect is returned when a builder that does not hold a select
	// is asked for a subquery fragment or column metadata.
	ErrNotSelect = errors.New("builder does not hold a select")

	// ErrNoRows is returned by Row and Scalar on an empty result.
	ErrNoRows = errors.New("query returned no rows")

	// ErrNoConnection is returned by fetch methods of a builder created
	// without a connection.
	ErrNoConnection = errors.New("builder has no connection")
)

// UnresolvedMacroError is returned by SQL in strict mode when macro calls
// survive resolution.
type UnresolvedMacroError struct {
	Names []string
}

func (e *UnresolvedMacroError) Error() string {
	return "unresolved macros: " + strings.Join(e.Names, ", ")
}

// IsUnresolvedMacro reports whether err is or wraps an UnresolvedMacroError.
func IsUnresolvedMacro(err error) bool {
	var ue *UnresolvedMacroError
	return errors.As(err, &ue)
}
