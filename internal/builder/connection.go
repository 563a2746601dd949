package builder

import "context"

// Connection executes SQL against one logical database.
//
// The builder never opens, pools or closes connections. EscapeLiteral is
// the escaping used for every string literal the builder renders.
type Connection interface {
	Exec(ctx context.Context, sql string) (Result, error)
	Query(ctx context.Context, sql string) (*ResultSet, error)
	EscapeLiteral(s string) string
}

// Result reports the effect of an executed statement.
type Result struct {
	RowsAffected int64
	LastInsertID int64
}

// ColumnMeta describes one result column.
type ColumnMeta struct {
	Name     string
	Type     string
	Nullable bool
}

// Row is one result row with values in column order.
type Row []any

// ResultSet is a fully read query result.
type ResultSet struct {
	Columns []ColumnMeta
	Rows    []Row
}

// ColumnNames returns the result column names in order.
func (rs *ResultSet) ColumnNames() []string {
	names := make([]string, len(rs.Columns))
	for i, c := range rs.Columns {
		names[i] = c.Name
	}
	return names
}

// Maps returns every row keyed by column name.
func (rs *ResultSet) Maps() []map[string]any {
	out := make([]map[string]any, len(rs.Rows))
	for i, row := range rs.Rows {
		out[i] = rs.rowMap(row)
	}
	return out
}

func (rs *ResultSet) rowMap(row Row) map[string]any {
	m := make(map[string]any, len(rs.Columns))
	for j, c := range rs.Columns {
		if j < len(row) {
			m[c.Name] = row[j]
		}
	}
	return m
}
