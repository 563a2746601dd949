package harness

// Render is the outcome of rendering a scenario's query in one dialect.
type Render struct {
	Dialect string `json:"dialect"`

	// SQL is the resolved statement text. Empty when Error is set.
	SQL string `json:"sql,omitempty"`

	// Error is the render error message.
	Error string `json:"error,omitempty"`

	// Code is the malformed query code of Error, if any.
	Code string `json:"code,omitempty"`

	// Unresolved lists macro calls that survived resolution.
	Unresolved []string `json:"unresolved,omitempty"`
}

// Result is the outcome of a scenario run.
type Result struct {
	// Pass indicates overall success: every expectation and assertion held.
	Pass bool `json:"pass"`

	// Renders holds one entry per rendered dialect, in scenario order.
	Renders []Render `json:"renders"`

	// Errors contains validation error messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:    true,
		Renders: []Render{},
		Errors:  []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// Render returns the render for dialect.
func (r *Result) Render(dialect string) (Render, bool) {
	for _, rd := range r.Renders {
		if rd.Dialect == dialect {
			return rd, true
		}
	}
	return Render{}, false
}
