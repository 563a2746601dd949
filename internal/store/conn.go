package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/roach88/metasql/internal/builder"
)

// Exec runs a statement that returns no rows.
// LastInsertID is 0 where the driver does not report one (PostgreSQL).
func (s *Store) Exec(ctx context.Context, query string) (builder.Result, error) {
	res, err := s.db.ExecContext(ctx, query)
	if err != nil {
		return builder.Result{}, err
	}

	var out builder.Result
	if n, err := res.RowsAffected(); err == nil {
		out.RowsAffected = n
	}
	if id, err := res.LastInsertId(); err == nil {
		out.LastInsertID = id
	}
	return out, nil
}

// Query runs a query and reads every row. []byte values are returned as
// strings.
func (s *Store) Query(ctx context.Context, query string) (rs *builder.ResultSet, err error) {
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer func() {
		err = errors.Join(err, rows.Close())
	}()

	types, err := rows.ColumnTypes()
	if err != nil {
		return nil, fmt.Errorf("read column types: %w", err)
	}
	rs = &builder.ResultSet{Columns: make([]builder.ColumnMeta, len(types))}
	for i, ct := range types {
		nullable, _ := ct.Nullable()
		rs.Columns[i] = builder.ColumnMeta{
			Name:     ct.Name(),
			Type:     ct.DatabaseTypeName(),
			Nullable: nullable,
		}
	}

	for rows.Next() {
		vals := make([]any, len(types))
		ptrs := make([]any, len(types))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scan row %d: %w", len(rs.Rows), err)
		}
		for i, v := range vals {
			if b, ok := v.([]byte); ok {
				vals[i] = string(b)
			}
		}
		rs.Rows = append(rs.Rows, builder.Row(vals))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return rs, nil
}
