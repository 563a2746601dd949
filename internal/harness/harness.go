package harness

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"

	"github.com/google/uuid"

	"github.com/roach88/metasql/internal/builder"
	"github.com/roach88/metasql/internal/compiler"
	"github.com/roach88/metasql/internal/queryir"
	"github.com/roach88/metasql/internal/querysql"
	"github.com/roach88/metasql/internal/store"
	"github.com/roach88/metasql/internal/testutil"
)

// Harness runs conformance scenarios.
//
// Renders never touch a database: queries issued while rendering (column
// discovery for insert from select) are answered by an in-memory fake
// connection. Only the executes assertion opens a real SQLite database.
type Harness struct {
	logger *slog.Logger
}

// Option configures a Harness.
type Option func(*Harness)

// WithLogger sets the harness logger. The default discards all output.
func WithLogger(l *slog.Logger) Option {
	return func(h *Harness) {
		if l != nil {
			h.logger = l
		}
	}
}

// New creates a harness.
func New(opts ...Option) *Harness {
	h := &Harness{logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Run executes a scenario with a default harness.
func Run(ctx context.Context, s *Scenario) (*Result, error) {
	return New().Run(ctx, s)
}

// Run renders the scenario's query in each dialect, compares the renders
// with the expected SQL and evaluates the assertions.
//
// Mismatches are reported in the result; the returned error is reserved
// for scenarios that cannot run at all.
func (h *Harness) Run(ctx context.Context, s *Scenario) (*Result, error) {
	log := h.logger.With("run_id", uuid.NewString(), "scenario", s.Name)

	result := NewResult()
	for _, name := range s.Dialects {
		d, err := querysql.New(name)
		if err != nil {
			return nil, err
		}
		rd := h.render(ctx, s, d)
		log.Debug("dialect rendered", "dialect", rd.Dialect, "error", rd.Error)
		result.Renders = append(result.Renders, rd)
	}

	dialects := make([]string, 0, len(s.Expect))
	for name := range s.Expect {
		dialects = append(dialects, name)
	}
	sort.Strings(dialects)
	for _, name := range dialects {
		want := s.Expect[name]
		rd, _ := result.Render(name)
		switch {
		case rd.Error != "":
			result.AddError(fmt.Sprintf("expect[%s]: render failed: %s", name, rd.Error))
		case rd.SQL != want:
			result.AddError(fmt.Sprintf("expect[%s]:\n  want: %s\n  got:  %s", name, want, rd.SQL))
		}
	}

	actx := &AssertionContext{
		Ctx:     ctx,
		Execute: func(ctx context.Context) (*Execution, error) { return h.execute(ctx, s) },
	}
	for _, msg := range EvaluateAssertions(result, s.Assertions, actx) {
		result.AddError(msg)
	}

	log.Info("scenario completed", "pass", result.Pass, "errors", len(result.Errors))
	return result, nil
}

// renderConn answers render-time queries from canned results and escapes
// like the dialect under test.
type renderConn struct {
	*testutil.FakeConn
	dialect querysql.Dialect
}

func (c renderConn) EscapeLiteral(s string) string {
	return c.dialect.EscapeLiteral(s)
}

func (h *Harness) render(ctx context.Context, s *Scenario, d querysql.Dialect) Render {
	rd := Render{Dialect: d.Name()}

	conn := renderConn{FakeConn: testutil.NewFakeConn(), dialect: d}
	if len(s.SourceColumns) > 0 {
		conn.OnAnyQuery(testutil.ResultSet(s.SourceColumns))
	}

	stmt, err := compiler.Compile(s.Query, h.nester(conn, d))
	if err != nil {
		rd.Error = err.Error()
		return rd
	}

	sql, err := builder.New(conn, d, builder.WithLogger(h.logger)).Statement(stmt).SQL(ctx)
	if err != nil {
		rd.Error = err.Error()
		rd.Code = string(queryir.Code(err))
		return rd
	}
	rd.SQL = sql

	// Source columns are filled in by now, so the strict pass issues no queries.
	_, err = builder.New(conn, d, builder.WithLogger(h.logger), builder.WithStrictMacros(true)).
		Statement(stmt).SQL(ctx)
	var ue *builder.UnresolvedMacroError
	if errors.As(err, &ue) {
		rd.Unresolved = ue.Names
	}
	return rd
}

func (h *Harness) nester(conn builder.Connection, d querysql.Dialect) compiler.Nester {
	return func(q *queryir.Select) queryir.Subquery {
		return builder.New(conn, d, builder.WithLogger(h.logger)).Select(*q)
	}
}

// Execution is what running a scenario's query on SQLite produced.
type Execution struct {
	// Rows is the number of rows a select returned.
	Rows int

	// Affected is the number of rows a statement changed.
	Affected int64

	// IsSelect reports whether Rows applies.
	IsSelect bool
}

// execute runs the setup documents and then the query on a fresh in-memory
// SQLite database.
func (h *Harness) execute(ctx context.Context, s *Scenario) (*Execution, error) {
	st, err := store.Open(ctx, "sqlite", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	d := st.Dialect()
	nest := h.nester(st, d)
	for i, doc := range s.Setup {
		stmt, err := compiler.Compile(doc, nest)
		if err != nil {
			return nil, fmt.Errorf("setup[%d]: %w", i, err)
		}
		if _, err := builder.New(st, d, builder.WithLogger(h.logger)).Statement(stmt).Execute(ctx); err != nil {
			return nil, fmt.Errorf("setup[%d]: %w", i, err)
		}
	}

	stmt, err := compiler.Compile(s.Query, nest)
	if err != nil {
		return nil, err
	}
	b := builder.New(st, d, builder.WithLogger(h.logger)).Statement(stmt)
	if b.IsSelect() {
		rows, err := b.Rows(ctx)
		if err != nil {
			return nil, err
		}
		return &Execution{Rows: len(rows), IsSelect: true}, nil
	}
	res, err := b.Execute(ctx)
	if err != nil {
		return nil, err
	}
	return &Execution{Affected: res.RowsAffected}, nil
}
