package cli

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"cuelang.org/go/cue/token"
	"github.com/spf13/afero"

	"github.com/roach88/metasql/internal/builder"
	"github.com/roach88/metasql/internal/compiler"
	"github.com/roach88/metasql/internal/queryir"
	"github.com/roach88/metasql/internal/querysql"
)

// Error code constants - unified across all CLI commands.
const (
	ErrCodeGeneric     = "E001" // Generic/unknown error
	ErrCodeNotFound    = "E005" // Path not found
	ErrCodeWriteFailed = "E007" // File write error
	ErrCodeConfig      = "E008" // Missing or invalid configuration
	ErrCodeDatabase    = "E009" // Database open failed

	// Query document errors
	ErrCodeCompile = "E101" // Document does not compile

	// Render errors
	ErrCodeMissingField = "E201" // Required field absent
	ErrCodeInvalidField = "E202" // Field present but unusable
	ErrCodeUnsupported  = "E203" // Dialect cannot express the request
	ErrCodeUnresolved   = "E204" // Macro call survived resolution

	// Execution errors
	ErrCodeExecFailed = "E301" // Statement failed on the database
)

// LoadError represents an error that occurred while loading a query
// document.
type LoadError struct {
	Code    string
	Message string
	Pos     token.Pos // CUE position if available
}

func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Line returns the 1-based line of the error, or 0 without a position.
func (e *LoadError) Line() int {
	if e.Pos.IsValid() {
		return e.Pos.Line()
	}
	return 0
}

// LoadDocument reads and compiles the query document at path. Subqueries
// are nested as builders on conn and d.
func LoadDocument(fs afero.Fs, path string, conn builder.Connection, d querysql.Dialect, logger *slog.Logger) (queryir.Statement, *LoadError) {
	if _, err := fs.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("query document not found: %s", path)}
	}

	nest := func(q *queryir.Select) queryir.Subquery {
		return builder.New(conn, d, builder.WithLogger(logger)).Select(*q)
	}
	stmt, err := compiler.CompileFile(fs, path, nest)
	if err != nil {
		return nil, convertCompileError(err)
	}
	return stmt, nil
}

// convertCompileError converts a compiler error to a LoadError with position info.
func convertCompileError(err error) *LoadError {
	var compileErr *compiler.CompileError
	if errors.As(err, &compileErr) {
		msg := compileErr.Message
		if compileErr.Field != "" {
			msg = compileErr.Field + ": " + msg
		}
		return &LoadError{
			Code:    ErrCodeCompile,
			Message: msg,
			Pos:     compileErr.Pos,
		}
	}
	return &LoadError{
		Code:    ErrCodeGeneric,
		Message: err.Error(),
	}
}

// MapErrorCode maps a render or resolution error to a CLI error code.
func MapErrorCode(err error) string {
	if builder.IsUnresolvedMacro(err) {
		return ErrCodeUnresolved
	}
	switch queryir.Code(err) {
	case queryir.ErrCodeMissingField:
		return ErrCodeMissingField
	case queryir.ErrCodeInvalidField:
		return ErrCodeInvalidField
	case queryir.ErrCodeUnsupported:
		return ErrCodeUnsupported
	default:
		return ErrCodeGeneric
	}
}
