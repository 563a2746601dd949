package harness

import (
	"context"
	"fmt"
	"strings"
)

// AssertionError is returned when an assertion fails.
// It includes every render to help debug the failure.
type AssertionError struct {
	Type     string   // Assertion type for categorization
	Dialect  string   // Dialect the failure was seen in, if any
	Expected string   // Human-readable expected outcome
	Actual   string   // Human-readable actual outcome
	Renders  []Render // All renders for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	if e.Dialect != "" {
		fmt.Fprintf(&buf, "Assertion failed: %s [%s]\n", e.Type, e.Dialect)
	} else {
		fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	}
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	fmt.Fprintf(&buf, "\nRenders:\n")
	for _, r := range e.Renders {
		if r.Error != "" {
			fmt.Fprintf(&buf, "  %s: error: %s\n", r.Dialect, r.Error)
		} else {
			fmt.Fprintf(&buf, "  %s: %s\n", r.Dialect, r.SQL)
		}
	}

	return buf.String()
}

// AssertionContext carries what assertions beyond the renders need.
type AssertionContext struct {
	Ctx context.Context

	// Execute runs the scenario on a fresh SQLite database.
	Execute func(ctx context.Context) (*Execution, error)
}

// targets returns the renders an assertion applies to.
func targets(result *Result, a Assertion) []Render {
	if a.Dialect == "" {
		return result.Renders
	}
	if rd, ok := result.Render(a.Dialect); ok {
		return []Render{rd}
	}
	return nil
}

// assertNoMarkers checks that every render succeeded without leftover
// macro calls.
func assertNoMarkers(result *Result, a Assertion) error {
	for _, rd := range targets(result, a) {
		if rd.Error != "" || len(rd.Unresolved) == 0 {
			continue
		}
		return &AssertionError{
			Type:     AssertNoMarkers,
			Dialect:  rd.Dialect,
			Expected: "no unresolved macros",
			Actual:   "unresolved: " + strings.Join(rd.Unresolved, ", "),
			Renders:  result.Renders,
		}
	}
	return nil
}

// assertContains checks that every render contains (or, when negate is
// set, does not contain) the text.
func assertContains(result *Result, a Assertion, negate bool) error {
	for _, rd := range targets(result, a) {
		if rd.Error != "" {
			return &AssertionError{
				Type:     a.Type,
				Dialect:  rd.Dialect,
				Expected: "a successful render",
				Actual:   rd.Error,
				Renders:  result.Renders,
			}
		}
		if strings.Contains(rd.SQL, a.Text) == negate {
			want := fmt.Sprintf("SQL containing %q", a.Text)
			if negate {
				want = fmt.Sprintf("SQL without %q", a.Text)
			}
			return &AssertionError{
				Type:     a.Type,
				Dialect:  rd.Dialect,
				Expected: want,
				Actual:   rd.SQL,
				Renders:  result.Renders,
			}
		}
	}
	return nil
}

// assertError checks that rendering failed, with the given code if set.
func assertError(result *Result, a Assertion) error {
	for _, rd := range targets(result, a) {
		want := "a render error"
		if a.Code != "" {
			want = "a " + a.Code + " render error"
		}
		switch {
		case rd.Error == "":
			return &AssertionError{Type: AssertError, Dialect: rd.Dialect, Expected: want, Actual: rd.SQL, Renders: result.Renders}
		case a.Code != "" && rd.Code != a.Code:
			return &AssertionError{Type: AssertError, Dialect: rd.Dialect, Expected: want, Actual: rd.Error, Renders: result.Renders}
		}
	}
	return nil
}

// assertExecutes runs the query on SQLite and checks the row count.
func assertExecutes(result *Result, a Assertion, actx *AssertionContext) error {
	exec, err := actx.Execute(actx.Ctx)
	if err != nil {
		return &AssertionError{
			Type:     AssertExecutes,
			Dialect:  "sqlite",
			Expected: "successful execution",
			Actual:   err.Error(),
			Renders:  result.Renders,
		}
	}
	if a.Rows == nil {
		return nil
	}
	got := int(exec.Affected)
	if exec.IsSelect {
		got = exec.Rows
	}
	if got != *a.Rows {
		return &AssertionError{
			Type:     AssertExecutes,
			Dialect:  "sqlite",
			Expected: fmt.Sprintf("%d rows", *a.Rows),
			Actual:   fmt.Sprintf("%d rows", got),
			Renders:  result.Renders,
		}
	}
	return nil
}

// EvaluateAssertions runs all assertions against a result.
// Returns the failure messages, empty if every assertion held.
func EvaluateAssertions(result *Result, assertions []Assertion, actx *AssertionContext) []string {
	var errors []string

	for i, assertion := range assertions {
		var err error

		switch assertion.Type {
		case AssertNoMarkers:
			err = assertNoMarkers(result, assertion)
		case AssertContains:
			err = assertContains(result, assertion, false)
		case AssertNotContains:
			err = assertContains(result, assertion, true)
		case AssertError:
			err = assertError(result, assertion)
		case AssertExecutes:
			if actx == nil || actx.Execute == nil {
				err = fmt.Errorf("assertion[%d]: executes requires database context", i)
			} else {
				err = assertExecutes(result, assertion, actx)
			}
		default:
			err = fmt.Errorf("assertion[%d]: unknown assertion type %q", i, assertion.Type)
		}

		if err != nil {
			errors = append(errors, err.Error())
		}
	}

	return errors
}
