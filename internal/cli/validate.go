package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/metasql/internal/builder"
	"github.com/roach88/metasql/internal/queryir"
	"github.com/roach88/metasql/internal/querysql"
)

// ValidationIssue is one problem found in a query document.
type ValidationIssue struct {
	Dialect string `json:"dialect,omitempty"` // empty for dialect independent problems
	Code    string `json:"code"`
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
	Line    int    `json:"line,omitempty"`
}

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Errors []ValidationIssue `json:"errors,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <file>",
		Short: "Check a query document against every dialect",
		Long: `Validate a query document without connecting to a database.

Compiles the document, checks its structure, then renders it for every
dialect and reports what each one cannot express and any macro call that
survives resolution.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	issues, loadErr := validateDocument(opts, path, cmd)
	if loadErr != nil {
		if loadErr.Code == ErrCodeNotFound {
			return formatter.Fail(ExitCommandError, loadErr.Code, loadErr.Message, nil)
		}
		issues = []ValidationIssue{{Code: loadErr.Code, Message: loadErr.Message, Line: loadErr.Line()}}
	}

	if len(issues) > 0 {
		return outputValidationErrors(formatter, issues)
	}
	return outputValidateSuccess(formatter, path)
}

// validateDocument compiles path once per dialect. Structural problems are
// reported once; render problems once per dialect.
func validateDocument(opts *RootOptions, path string, cmd *cobra.Command) ([]ValidationIssue, *LoadError) {
	logger := opts.logger(cmd)
	formatter := opts.formatter(cmd)

	var issues []ValidationIssue
	for i, name := range querysql.Names() {
		d, _ := querysql.New(name)
		stmt, loadErr := LoadDocument(opts.fs(), path, nil, d, logger)
		if loadErr != nil {
			return nil, loadErr
		}

		if i == 0 {
			if err := queryir.Validate(stmt); err != nil {
				return queryIssues("", err), nil
			}
		}

		formatter.VerboseLog("Rendering for %s", d.Name())
		_, err := builder.New(nil, d, builder.WithLogger(logger), builder.WithStrictMacros(true)).
			Statement(stmt).SQL(cmd.Context())
		if err != nil {
			issues = append(issues, queryIssues(d.Name(), err)...)
		}
	}
	return issues, nil
}

// queryIssues flattens a (possibly joined) render error into issues.
func queryIssues(dialect string, err error) []ValidationIssue {
	var errs []error
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		errs = joined.Unwrap()
	} else {
		errs = []error{err}
	}

	issues := make([]ValidationIssue, 0, len(errs))
	for _, e := range errs {
		issue := ValidationIssue{Dialect: dialect, Code: MapErrorCode(e), Message: e.Error()}
		var qe *queryir.QueryError
		if errors.As(e, &qe) {
			issue.Field = qe.Field
			issue.Message = qe.Message
		}
		issues = append(issues, issue)
	}
	return issues
}

// outputValidateSuccess outputs successful validation results.
func outputValidateSuccess(formatter *OutputFormatter, path string) error {
	if formatter.Format == "json" {
		return formatter.Success(ValidationResult{Valid: true})
	}

	fmt.Fprintf(formatter.Writer, "%s %s renders in every dialect\n", okMark(), path)
	return nil
}

// outputValidationErrors outputs multiple validation errors.
func outputValidationErrors(formatter *OutputFormatter, issues []ValidationIssue) error {
	if formatter.Format == "json" {
		response := CLIResponse{
			Status: "error",
			Data: ValidationResult{
				Valid:  false,
				Errors: issues,
			},
			Error: &CLIError{
				Code:    issues[0].Code,
				Message: issues[0].Message,
			},
		}
		if err := formatter.encode(response); err != nil {
			return err
		}

		// Validation failures = exit code 1 (test/validation failure)
		return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(issues)))
	}

	// Text format
	fmt.Fprintf(formatter.Writer, "%s Validation failed\n\n", failMark())

	for _, issue := range issues {
		if issue.Line > 0 {
			fmt.Fprintf(formatter.Writer, "line %d\n", issue.Line)
		}
		where := issue.Field
		if issue.Dialect != "" {
			where = "[" + issue.Dialect + "] " + where
		}
		if where != "" {
			fmt.Fprintf(formatter.Writer, "  %s: %s: %s\n\n", issue.Code, where, issue.Message)
		} else {
			fmt.Fprintf(formatter.Writer, "  %s: %s\n\n", issue.Code, issue.Message)
		}
	}

	// Validation failures = exit code 1 (test/validation failure)
	return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(issues)))
}
