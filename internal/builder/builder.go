package builder

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/roach88/metasql/internal/ir"
	"github.com/roach88/metasql/internal/macro"
	"github.com/roach88/metasql/internal/queryir"
	"github.com/roach88/metasql/internal/querysql"
)

// Builder holds one operation and renders it for one dialect.
type Builder struct {
	conn    Connection
	dialect querysql.Dialect
	logger  *slog.Logger
	strict  bool

	stmt     queryir.Statement
	rendered string
	memoized bool
	err      error
}

// Option configures a Builder.
type Option func(*Builder)

// WithLogger sets the logger for render, execute and misuse records.
func WithLogger(l *slog.Logger) Option {
	return func(b *Builder) {
		b.logger = l
	}
}

// WithStrictMacros makes SQL fail with an UnresolvedMacroError when a
// macro call survives resolution.
func WithStrictMacros(strict bool) Option {
	return func(b *Builder) {
		b.strict = strict
	}
}

// New creates an unconfigured builder. conn may be nil for builders that
// are only rendered or embedded.
func New(conn Connection, d querysql.Dialect, opts ...Option) *Builder {
	b := &Builder{
		conn:    conn,
		dialect: d,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Dialect returns the builder's dialect.
func (b *Builder) Dialect() querysql.Dialect { return b.dialect }

// Select configures a SELECT.
func (b *Builder) Select(q queryir.Select) *Builder { return b.configure(&q) }

// Insert configures an INSERT of rows or of a select's result.
func (b *Builder) Insert(q queryir.Insert) *Builder { return b.configure(&q) }

// Update configures an UPDATE.
func (b *Builder) Update(q queryir.Update) *Builder { return b.configure(&q) }

// Delete configures a DELETE.
func (b *Builder) Delete(q queryir.Delete) *Builder { return b.configure(&q) }

// CreateTable configures a CREATE TABLE.
func (b *Builder) CreateTable(q queryir.CreateTable) *Builder { return b.configure(&q) }

// AlterTable configures an ALTER TABLE.
func (b *Builder) AlterTable(q queryir.AlterTable) *Builder { return b.configure(&q) }

// TruncateTable configures a TRUNCATE of table.
func (b *Builder) TruncateTable(table string) *Builder {
	return b.configure(&queryir.TruncateTable{Table: table})
}

// DropTable configures a DROP TABLE.
func (b *Builder) DropTable(q queryir.DropTable) *Builder { return b.configure(&q) }

// CreateView configures a CREATE VIEW.
func (b *Builder) CreateView(q queryir.CreateView) *Builder { return b.configure(&q) }

// DropView configures a DROP VIEW.
func (b *Builder) DropView(q queryir.DropView) *Builder { return b.configure(&q) }

// CheckTable configures a table existence/health check.
func (b *Builder) CheckTable(q queryir.CheckTable) *Builder { return b.configure(&q) }

// Custom configures caller supplied SQL.
func (b *Builder) Custom(sql string) *Builder {
	return b.configure(&queryir.Custom{SQL: sql})
}

// Statement configures any statement value, e.g. one compiled from a
// query document.
func (b *Builder) Statement(stmt queryir.Statement) *Builder {
	if stmt == nil {
		return b
	}
	return b.configure(stmt)
}

func (b *Builder) configure(stmt queryir.Statement) *Builder {
	if b.stmt != nil {
		b.err = fmt.Errorf("%w: holds %s, ignored %s", ErrAlreadyConfigured, b.stmt.Operation(), stmt.Operation())
		b.logger.Warn("builder already configured",
			"operation", b.stmt.Operation().String(),
			"ignored", stmt.Operation().String(),
		)
		return b
	}
	b.stmt = stmt
	return b
}

// Err returns ErrAlreadyConfigured (wrapped) if a configuration call was
// ignored, otherwise nil.
func (b *Builder) Err() error { return b.err }

// Operation returns the configured operation, or OpNone.
func (b *Builder) Operation() queryir.Operation {
	if b.stmt == nil {
		return queryir.OpNone
	}
	return b.stmt.Operation()
}

// IsSelect reports whether the builder holds a select and may be embedded
// as a subquery.
func (b *Builder) IsSelect() bool {
	return b.Operation() == queryir.OpSelect
}

// SQL renders the statement on first use and returns it macro resolved.
// An insert from a select runs the select first to learn its columns.
func (b *Builder) SQL(ctx context.Context) (string, error) {
	raw, err := b.render(ctx)
	if err != nil {
		return "", err
	}
	if b.strict {
		if names := macro.Remaining(raw, b.dialect); len(names) > 0 {
			return "", &UnresolvedMacroError{Names: names}
		}
	}
	return macro.Resolve(raw, b.dialect), nil
}

// Fragment returns the unresolved render of a select without its
// terminator. The embedding builder resolves it along with its own text.
func (b *Builder) Fragment() (string, error) {
	if !b.IsSelect() {
		return "", fmt.Errorf("fragment of %s: %w", b.Operation(), ErrNotSelect)
	}
	// A select never runs queries while rendering.
	raw, err := b.render(context.Background())
	if err != nil {
		return "", err
	}
	return strings.TrimSuffix(raw, ";"), nil
}

func (b *Builder) render(ctx context.Context) (string, error) {
	if b.memoized {
		return b.rendered, nil
	}
	if b.stmt == nil {
		return "", ErrNotConfigured
	}
	if ins, ok := b.stmt.(*queryir.Insert); ok && ins.Source != nil && len(ins.SourceColumns) == 0 {
		cols, err := b.sourceColumns(ctx, ins.Source)
		if err != nil {
			return "", err
		}
		ins.SourceColumns = cols
	}

	var esc querysql.Escaper
	if b.conn != nil {
		esc = b.conn
	}
	sql, err := b.dialect.Render(b.stmt, esc)
	if err != nil {
		return "", err
	}

	b.rendered, b.memoized = sql, true
	b.logger.Debug("query rendered",
		"operation", b.stmt.Operation().String(),
		"dialect", b.dialect.Name(),
		"fingerprint", ir.Fingerprint(sql),
	)
	return sql, nil
}

// columnLister is a subquery that can report its result columns.
type columnLister interface {
	Columns(ctx context.Context) ([]string, error)
}

// sourceColumns runs the insert source to learn its columns. A source
// builder without a connection runs on this builder's connection.
func (b *Builder) sourceColumns(ctx context.Context, src queryir.Subquery) ([]string, error) {
	if sb, ok := src.(*Builder); ok && sb.conn == nil && b.conn != nil {
		return b.queryColumns(ctx, sb)
	}
	cl, ok := src.(columnLister)
	if !ok {
		if b.conn != nil {
			return b.queryColumns(ctx, src)
		}
		return nil, queryir.Invalid(queryir.OpInsert, "source", "cannot discover the columns of %T", src)
	}
	cols, err := cl.Columns(ctx)
	if err != nil {
		return nil, fmt.Errorf("insert source columns: %w", err)
	}
	return cols, nil
}

// queryColumns runs the embedded text of src as a standalone select.
func (b *Builder) queryColumns(ctx context.Context, src queryir.Subquery) ([]string, error) {
	if !src.IsSelect() {
		return nil, queryir.Invalid(queryir.OpInsert, "source", "source must be a select")
	}
	frag, err := src.Fragment()
	if err != nil {
		return nil, err
	}
	raw := frag + ";"
	if b.strict {
		if names := macro.Remaining(raw, b.dialect); len(names) > 0 {
			return nil, &UnresolvedMacroError{Names: names}
		}
	}
	sql := macro.Resolve(raw, b.dialect)
	rs, err := b.conn.Query(ctx, sql)
	if err != nil {
		return nil, fmt.Errorf("insert source columns: query %s: %w", ir.Fingerprint(sql), err)
	}
	return rs.ColumnNames(), nil
}

// Columns executes the select and returns its result column names in
// order. Insert from a select uses it to build the target column list.
func (b *Builder) Columns(ctx context.Context) ([]string, error) {
	if !b.IsSelect() {
		return nil, fmt.Errorf("columns of %s: %w", b.Operation(), ErrNotSelect)
	}
	rs, err := b.Result(ctx)
	if err != nil {
		return nil, err
	}
	return rs.ColumnNames(), nil
}

// Result runs the statement as a query and returns the full result set.
func (b *Builder) Result(ctx context.Context) (*ResultSet, error) {
	if b.conn == nil {
		return nil, ErrNoConnection
	}
	sql, err := b.SQL(ctx)
	if err != nil {
		return nil, err
	}
	fp := ir.Fingerprint(sql)
	rs, err := b.conn.Query(ctx, sql)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", fp, err)
	}
	b.logger.Debug("query executed", "fingerprint", fp, "rows", len(rs.Rows))
	return rs, nil
}

// Rows returns every row keyed by column name.
func (b *Builder) Rows(ctx context.Context) ([]map[string]any, error) {
	rs, err := b.Result(ctx)
	if err != nil {
		return nil, err
	}
	return rs.Maps(), nil
}

// Row returns the first row, or ErrNoRows.
func (b *Builder) Row(ctx context.Context) (map[string]any, error) {
	rs, err := b.Result(ctx)
	if err != nil {
		return nil, err
	}
	if len(rs.Rows) == 0 {
		return nil, ErrNoRows
	}
	return rs.rowMap(rs.Rows[0]), nil
}

// Column returns the first column of every row.
func (b *Builder) Column(ctx context.Context) ([]any, error) {
	rs, err := b.Result(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]any, 0, len(rs.Rows))
	for _, row := range rs.Rows {
		if len(row) > 0 {
			out = append(out, row[0])
		}
	}
	return out, nil
}

// Scalar returns the first column of the first row, or ErrNoRows.
func (b *Builder) Scalar(ctx context.Context) (any, error) {
	rs, err := b.Result(ctx)
	if err != nil {
		return nil, err
	}
	if len(rs.Rows) == 0 || len(rs.Rows[0]) == 0 {
		return nil, ErrNoRows
	}
	return rs.Rows[0][0], nil
}

// Execute runs a statement that returns no rows.
func (b *Builder) Execute(ctx context.Context) (Result, error) {
	if b.conn == nil {
		return Result{}, ErrNoConnection
	}
	sql, err := b.SQL(ctx)
	if err != nil {
		return Result{}, err
	}
	fp := ir.Fingerprint(sql)
	res, err := b.conn.Exec(ctx, sql)
	if err != nil {
		return Result{}, fmt.Errorf("execute %s: %w", fp, err)
	}
	b.logger.Debug("query executed", "fingerprint", fp, "affected", res.RowsAffected)
	return res, nil
}
