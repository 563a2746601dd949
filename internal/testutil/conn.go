package testutil

import (
	"context"
	"strings"
	"sync"

	"github.com/roach88/metasql/internal/builder"
)

// FakeConn is an in-memory builder.Connection that records every
// statement and answers queries from canned result sets.
//
// Thread-safety: all methods are safe for concurrent use.
type FakeConn struct {
	mu       sync.Mutex
	execs    []string
	queries  []string
	results  map[string]*builder.ResultSet
	fallback *builder.ResultSet
	affected int64
	err      error
	ids      *Sequence
}

// NewFakeConn creates a connection that answers every query with an empty
// result and reports one affected row per Exec.
func NewFakeConn() *FakeConn {
	return &FakeConn{
		results:  make(map[string]*builder.ResultSet),
		fallback: &builder.ResultSet{},
		affected: 1,
		ids:      NewSequence(),
	}
}

// OnQuery answers the exact SQL text with rs.
func (c *FakeConn) OnQuery(sql string, rs *builder.ResultSet) *FakeConn {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.results[sql] = rs
	return c
}

// OnAnyQuery answers every query without a specific result with rs.
func (c *FakeConn) OnAnyQuery(rs *builder.ResultSet) *FakeConn {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fallback = rs
	return c
}

// FailWith makes every subsequent call return err.
func (c *FakeConn) FailWith(err error) *FakeConn {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.err = err
	return c
}

// Exec records sql. LastInsertID counts up from 1.
func (c *FakeConn) Exec(_ context.Context, sql string) (builder.Result, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.execs = append(c.execs, sql)
	if c.err != nil {
		return builder.Result{}, c.err
	}
	return builder.Result{RowsAffected: c.affected, LastInsertID: c.ids.Next()}, nil
}

// Query records sql and returns its canned result.
func (c *FakeConn) Query(_ context.Context, sql string) (*builder.ResultSet, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.queries = append(c.queries, sql)
	if c.err != nil {
		return nil, c.err
	}
	if rs, ok := c.results[sql]; ok {
		return rs, nil
	}
	return c.fallback, nil
}

// EscapeLiteral doubles single quotes.
func (c *FakeConn) EscapeLiteral(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}

// Execs returns the statements passed to Exec, in order.
func (c *FakeConn) Execs() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.execs...)
}

// Queries returns the statements passed to Query, in order.
func (c *FakeConn) Queries() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.queries...)
}

// ResultSet builds a result set from column names and rows.
func ResultSet(columns []string, rows ...builder.Row) *builder.ResultSet {
	meta := make([]builder.ColumnMeta, len(columns))
	for i, name := range columns {
		meta[i] = builder.ColumnMeta{Name: name}
	}
	return &builder.ResultSet{Columns: meta, Rows: rows}
}
