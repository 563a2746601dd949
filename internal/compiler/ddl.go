package compiler

import (
	"strings"

	"github.com/roach88/metasql/internal/queryir"
)

var columnKeys = []string{"name", "type", "length", "nullable", "auto_increment", "default",
	"primary", "unique", "index", "check", "references"}

func (c *compiler) createTable(path string, m map[string]any) (*queryir.CreateTable, error) {
	if err := allow(m, path, "operation", "table", "if_not_exists", "temporary",
		"columns", "indexes", "args"); err != nil {
		return nil, err
	}

	q := &queryir.CreateTable{}
	var err error
	if q.Table, err = required(m, path, "table"); err != nil {
		return nil, err
	}
	if q.IfNotExists, err = boolean(m, path, "if_not_exists"); err != nil {
		return nil, err
	}
	if q.Temporary, err = temporary(m, path); err != nil {
		return nil, err
	}

	cols, err := list(m, path, "columns")
	if err != nil {
		return nil, err
	}
	for i, v := range cols {
		p := index(join(path, "columns"), i)
		cm, err := object(p, v)
		if err != nil {
			return nil, err
		}
		if err := allow(cm, p, columnKeys...); err != nil {
			return nil, err
		}
		col, err := columnDefinition(p, cm)
		if err != nil {
			return nil, err
		}
		q.Columns = append(q.Columns, col)
	}

	if q.Indexes, err = indexes(m, path); err != nil {
		return nil, err
	}
	if q.DialectArgs, err = args(m, path, "args"); err != nil {
		return nil, err
	}
	return q, nil
}

func (c *compiler) alterTable(path string, m map[string]any) (*queryir.AlterTable, error) {
	if err := allow(m, path, "operation", "table", "rename_to", "columns", "indexes", "args"); err != nil {
		return nil, err
	}

	q := &queryir.AlterTable{}
	var err error
	if q.Table, err = required(m, path, "table"); err != nil {
		return nil, err
	}
	if q.RenameTo, err = str(m, path, "rename_to"); err != nil {
		return nil, err
	}

	cols, err := list(m, path, "columns")
	if err != nil {
		return nil, err
	}
	for i, v := range cols {
		p := index(join(path, "columns"), i)
		cm, err := object(p, v)
		if err != nil {
			return nil, err
		}
		if err := allow(cm, p, append([]string{"request", "new_name"}, columnKeys...)...); err != nil {
			return nil, err
		}

		var change queryir.ColumnChange
		req, err := str(cm, p, "request")
		if err != nil {
			return nil, err
		}
		if change.Request, err = queryir.ParseColumnRequest(req); err != nil {
			return nil, fieldError(join(p, "request"), "%v", err)
		}
		if change.NewName, err = str(cm, p, "new_name"); err != nil {
			return nil, err
		}
		if change.Column, err = columnDefinition(p, cm); err != nil {
			return nil, err
		}
		q.Columns = append(q.Columns, change)
	}

	if q.Indexes, err = indexes(m, path); err != nil {
		return nil, err
	}
	if q.DialectArgs, err = args(m, path, "args"); err != nil {
		return nil, err
	}
	return q, nil
}

// columnDefinition reads the column keys of m. references is "table.column"
// or {table, column}.
func columnDefinition(path string, m map[string]any) (queryir.ColumnDefinition, error) {
	var col queryir.ColumnDefinition
	var err error
	if col.Name, err = required(m, path, "name"); err != nil {
		return col, err
	}
	if col.Type, err = str(m, path, "type"); err != nil {
		return col, err
	}
	if col.Length, err = scalar(m, path, "length"); err != nil {
		return col, err
	}
	if col.Check, err = str(m, path, "check"); err != nil {
		return col, err
	}

	flags := []struct {
		key string
		dst *bool
	}{
		{"nullable", &col.Nullable},
		{"auto_increment", &col.AutoIncrement},
		{"primary", &col.IsPrimary},
		{"unique", &col.IsUnique},
		{"index", &col.HasIndex},
	}
	for _, f := range flags {
		if *f.dst, err = boolean(m, path, f.key); err != nil {
			return col, err
		}
	}

	if _, ok := m["default"]; ok {
		if col.Default, err = literal(join(path, "default"), m["default"]); err != nil {
			return col, err
		}
	}

	ref, ok := lookup(m, "references")
	if !ok {
		return col, nil
	}
	p := join(path, "references")
	if s, ok := ref.(string); ok {
		table, column, found := strings.Cut(s, ".")
		if !found || table == "" || column == "" {
			return col, fieldError(p, "must be table.column, got %q", s)
		}
		col.ReferenceTable, col.ReferenceColumn = table, column
		return col, nil
	}
	rm, err := object(p, ref)
	if err != nil {
		return col, err
	}
	if err := allow(rm, p, "table", "column"); err != nil {
		return col, err
	}
	if col.ReferenceTable, err = required(rm, p, "table"); err != nil {
		return col, err
	}
	if col.ReferenceColumn, err = required(rm, p, "column"); err != nil {
		return col, err
	}
	return col, nil
}

func indexes(m map[string]any, path string) ([]queryir.IndexDefinition, error) {
	items, err := list(m, path, "indexes")
	if err != nil {
		return nil, err
	}

	var out []queryir.IndexDefinition
	for i, v := range items {
		p := index(join(path, "indexes"), i)
		im, err := object(p, v)
		if err != nil {
			return nil, err
		}
		if err := allow(im, p, "name", "kind", "columns", "check", "references",
			"request", "new_name"); err != nil {
			return nil, err
		}

		var idx queryir.IndexDefinition
		if idx.Name, err = str(im, p, "name"); err != nil {
			return nil, err
		}
		kind, err := str(im, p, "kind")
		if err != nil {
			return nil, err
		}
		if idx.Kind, err = queryir.ParseIndexKind(kind); err != nil {
			return nil, fieldError(join(p, "kind"), "%v", err)
		}
		if idx.Columns, err = stringList(im, p, "columns"); err != nil {
			return nil, err
		}
		if idx.Check, err = str(im, p, "check"); err != nil {
			return nil, err
		}
		req, err := str(im, p, "request")
		if err != nil {
			return nil, err
		}
		if idx.Request, err = queryir.ParseRequest(req); err != nil {
			return nil, fieldError(join(p, "request"), "%v", err)
		}
		if idx.NewName, err = str(im, p, "new_name"); err != nil {
			return nil, err
		}

		if ref, ok := lookup(im, "references"); ok {
			rp := join(p, "references")
			rm, err := object(rp, ref)
			if err != nil {
				return nil, err
			}
			if err := allow(rm, rp, "table", "columns"); err != nil {
				return nil, err
			}
			if idx.ReferenceTable, err = required(rm, rp, "table"); err != nil {
				return nil, err
			}
			if idx.ReferenceColumns, err = stringList(rm, rp, "columns"); err != nil {
				return nil, err
			}
		}
		out = append(out, idx)
	}
	return out, nil
}
