package queryir

import (
	"errors"
	"fmt"
)

// ErrorCode categorizes malformed query errors.
type ErrorCode string

const (
	// ErrCodeMissingField indicates a structurally required field is absent.
	ErrCodeMissingField ErrorCode = "MISSING_FIELD"

	// ErrCodeInvalidField indicates a field is present but unusable.
	ErrCodeInvalidField ErrorCode = "INVALID_FIELD"

	// ErrCodeUnsupported indicates the dialect cannot express the request.
	ErrCodeUnsupported ErrorCode = "UNSUPPORTED"
)

// QueryError is a malformed query: a render discovered that a required
// field is missing or unusable. It is fatal to that render.
type QueryError struct {
	// Code identifies the error category.
	Code ErrorCode

	// Operation is the statement kind being rendered.
	Operation Operation

	// Field names the offending field, e.g. "tables" or "indexes[1].name".
	Field string

	// Message is a human-readable description.
	Message string
}

// Error implements the error interface.
func (e *QueryError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("malformed %s query: %s: %s", e.Operation, e.Field, e.Message)
	}
	return fmt.Sprintf("malformed %s query: %s", e.Operation, e.Message)
}

// Missing creates a QueryError for an absent required field.
func Missing(op Operation, field, format string, args ...any) *QueryError {
	return &QueryError{Code: ErrCodeMissingField, Operation: op, Field: field, Message: fmt.Sprintf(format, args...)}
}

// Invalid creates a QueryError for an unusable field.
func Invalid(op Operation, field, format string, args ...any) *QueryError {
	return &QueryError{Code: ErrCodeInvalidField, Operation: op, Field: field, Message: fmt.Sprintf(format, args...)}
}

// Unsupported creates a QueryError for a request the dialect cannot render.
func Unsupported(op Operation, field, format string, args ...any) *QueryError {
	return &QueryError{Code: ErrCodeUnsupported, Operation: op, Field: field, Message: fmt.Sprintf(format, args...)}
}

// IsMalformed returns true if err is or wraps a QueryError.
// Uses errors.As to handle wrapped and joined errors.
func IsMalformed(err error) bool {
	var qe *QueryError
	return errors.As(err, &qe)
}

// Code returns the ErrorCode of the first QueryError in err's chain, or ""
// when err is not malformed.
func Code(err error) ErrorCode {
	var qe *QueryError
	if errors.As(err, &qe) {
		return qe.Code
	}
	return ""
}
