package queryir

import (
	"errors"
	"fmt"
	"strings"
)

// Validate checks that stmt carries every structurally required field.
//
// All problems are collected; the result is nil or an errors.Join of
// *QueryError values, so IsMalformed(err) holds for any non-nil result.
// Dialect specific limits are not checked here; renderers report those as
// ErrCodeUnsupported.
//
// Validate is a pure function with no side effects. It never renders
// subqueries; it only asks them whether they hold a select.
func Validate(stmt Statement) error {
	if stmt == nil {
		return Missing(OpNone, "operation", "no operation configured")
	}

	v := &validator{op: stmt.Operation()}
	v.validateStatement(stmt)
	return errors.Join(v.errs...)
}

// validator accumulates errors during traversal.
type validator struct {
	op   Operation
	errs []error
}

func (v *validator) missing(field, format string, args ...any) {
	v.errs = append(v.errs, Missing(v.op, field, format, args...))
}

func (v *validator) invalid(field, format string, args ...any) {
	v.errs = append(v.errs, Invalid(v.op, field, format, args...))
}

func (v *validator) validateStatement(stmt Statement) {
	switch s := stmt.(type) {
	case *Select:
		v.validateSelect(s)
	case *Insert:
		v.validateInsert(s)
	case *Update:
		v.validateTarget("table", s.Table)
		if len(s.Set) == 0 {
			v.missing("set", "at least one assignment is required")
		}
		v.validateRow("set", s.Set)
		v.validateConditions("where", s.Where)
	case *Delete:
		v.validateTarget("table", s.Table)
		v.validateConditions("where", s.Where)
	case *CreateTable:
		v.validateCreateTable(s)
	case *AlterTable:
		v.validateAlterTable(s)
	case *TruncateTable:
		v.validateName("table", s.Table)
	case *DropTable:
		v.validateNames("tables", s.Tables)
	case *CreateView:
		v.validateName("view", s.View)
		if s.Source == nil {
			v.missing("source", "a view needs its SELECT source")
		} else if !s.Source.IsSelect() {
			v.invalid("source", "view source must be a select")
		}
	case *DropView:
		v.validateNames("views", s.Views)
	case *CheckTable:
		v.validateNames("tables", s.Tables)
	case *Custom:
		if strings.TrimSpace(s.SQL) == "" {
			v.missing("sql", "custom statement is empty")
		}
	default:
		v.invalid("operation", "unknown statement type %T", stmt)
	}
}

func (v *validator) validateSelect(s *Select) {
	if len(s.Tables) == 0 {
		v.missing("tables", "at least one table is required")
	}
	for i, t := range s.Tables {
		field := fmt.Sprintf("tables[%d]", i)
		v.validateSource(field, t.Source)
		if i == 0 && t.Join != JoinNone {
			v.invalid(field+".join", "the first table cannot be joined")
		}
		if t.Join == JoinNone && len(t.On) > 0 {
			v.invalid(field+".on", "ON conditions need a join type")
		}
		if t.Join.Natural() && len(t.On) > 0 {
			v.invalid(field+".on", "natural joins take no ON conditions")
		}
		v.validateConditions(field+".on", t.On)
	}
	for i, c := range s.Columns {
		field := fmt.Sprintf("columns[%d]", i)
		if c.Expr == nil {
			v.missing(field, "column expression is required")
			continue
		}
		v.validateOperand(field, c.Expr)
	}
	for i, g := range s.Group {
		v.validateOperand(fmt.Sprintf("group[%d]", i), g)
	}
	for i, o := range s.Order {
		field := fmt.Sprintf("order[%d]", i)
		if o.Expr == nil {
			v.missing(field, "order expression is required")
			continue
		}
		v.validateOperand(field, o.Expr)
	}
	v.validateConditions("where", s.Where)
	v.validateConditions("having", s.Having)
	if s.PerPage < 0 {
		v.invalid("per_page", "must not be negative, got %d", s.PerPage)
	}
}

func (v *validator) validateInsert(s *Insert) {
	v.validateTarget("table", s.Table)

	switch {
	case s.Source != nil && len(s.Rows) > 0:
		v.invalid("values", "rows and a select source are mutually exclusive")
	case s.Source != nil:
		if !s.Source.IsSelect() {
			v.invalid("source", "insert source must be a select")
		}
	case len(s.Rows) == 0:
		v.missing("values", "a row, rows or a select source is required")
	default:
		first := s.Rows[0]
		if len(first) == 0 {
			v.missing("values[0]", "row has no columns")
		}
		for i, row := range s.Rows {
			field := fmt.Sprintf("values[%d]", i)
			v.validateRow(field, row)
			if i == 0 {
				continue
			}
			if len(row) != len(first) {
				v.invalid(field, "row has %d columns, first row has %d", len(row), len(first))
				continue
			}
			for _, col := range first.Columns() {
				if _, ok := row.Lookup(col); !ok {
					v.invalid(field, "row is missing column %q", col)
				}
			}
		}
	}
}

func (v *validator) validateRow(field string, row Row) {
	seen := make(map[string]bool, len(row))
	for i, f := range row {
		if strings.TrimSpace(f.Column) == "" {
			v.missing(fmt.Sprintf("%s[%d].column", field, i), "column name is required")
		}
		if seen[f.Column] {
			v.invalid(fmt.Sprintf("%s[%d].column", field, i), "duplicate column %q", f.Column)
		}
		seen[f.Column] = true
		if f.Value == nil {
			v.missing(fmt.Sprintf("%s[%d].value", field, i), "value is required (use ir.Null for NULL)")
		}
	}
}

func (v *validator) validateCreateTable(s *CreateTable) {
	v.validateName("table", s.Table)
	if len(s.Columns) == 0 {
		v.missing("columns", "at least one column is required")
	}
	seen := make(map[string]bool, len(s.Columns))
	for i, col := range s.Columns {
		field := fmt.Sprintf("columns[%d]", i)
		v.validateColumn(field, col)
		if seen[col.Name] {
			v.invalid(field+".name", "duplicate column %q", col.Name)
		}
		seen[col.Name] = true
	}
	for i, idx := range s.Indexes {
		field := fmt.Sprintf("indexes[%d]", i)
		if idx.Request != RequestAdd {
			v.invalid(field+".request", "CREATE TABLE only adds indexes")
			continue
		}
		v.validateIndexAdd(field, idx)
	}
}

func (v *validator) validateAlterTable(s *AlterTable) {
	v.validateName("table", s.Table)
	if s.RenameTo == "" && len(s.Columns) == 0 && len(s.Indexes) == 0 {
		v.missing("changes", "ALTER TABLE needs a rename, column changes or index changes")
	}
	for i, ch := range s.Columns {
		field := fmt.Sprintf("columns[%d]", i)
		switch ch.Request {
		case ColumnAdd, ColumnModify:
			v.validateColumn(field, ch.Column)
		case ColumnDrop:
			v.validateName(field+".name", ch.Column.Name)
		case ColumnRename:
			v.validateName(field+".name", ch.Column.Name)
			v.validateName(field+".new_name", ch.NewName)
		default:
			v.invalid(field+".request", "unknown column request %d", ch.Request)
		}
	}
	for i, idx := range s.Indexes {
		field := fmt.Sprintf("indexes[%d]", i)
		switch idx.Request {
		case RequestAdd:
			v.validateIndexAdd(field, idx)
		case RequestDrop:
			if idx.Kind != IndexPrimary && idx.Name == "" {
				v.missing(field+".name", "dropping a %s requires its name", kindLabel(idx.Kind))
			}
		case RequestRename:
			v.validateName(field+".name", idx.Name)
			v.validateName(field+".new_name", idx.NewName)
		default:
			v.invalid(field+".request", "unknown index request %d", idx.Request)
		}
	}
}

func (v *validator) validateColumn(field string, col ColumnDefinition) {
	v.validateName(field+".name", col.Name)
	if strings.TrimSpace(col.Type) == "" {
		v.missing(field+".type", "column %q has no type", col.Name)
	}
	if (col.ReferenceTable == "") != (col.ReferenceColumn == "") {
		v.missing(field+".reference", "a reference needs both table and column")
	}
}

func (v *validator) validateIndexAdd(field string, idx IndexDefinition) {
	switch idx.Kind {
	case IndexCheck:
		if strings.TrimSpace(idx.Check) == "" {
			v.missing(field+".check", "check constraint needs an expression")
		}
		return
	case IndexForeignKey:
		if idx.ReferenceTable == "" {
			v.missing(field+".reference_table", "foreign key needs a referenced table")
		}
		if len(idx.ReferenceColumns) != len(idx.Columns) {
			v.invalid(field+".reference_columns", "foreign key has %d columns but references %d",
				len(idx.Columns), len(idx.ReferenceColumns))
		}
	}
	if len(idx.Columns) == 0 {
		v.missing(field+".columns", "%s needs at least one column", kindLabel(idx.Kind))
	}
}

func (v *validator) validateTarget(field string, t TableRef) {
	if t.Source == nil {
		v.missing(field, "a target table is required")
		return
	}
	switch src := t.Source.(type) {
	case Ident:
		v.validateName(field, string(src))
	case Raw:
		v.validateName(field, string(src))
	default:
		v.invalid(field, "target table must be a name, got %T", t.Source)
	}
}

func (v *validator) validateSource(field string, op Operand) {
	switch src := op.(type) {
	case nil:
		v.missing(field, "table source is required")
	case Literal:
		v.invalid(field, "a literal cannot be a table source")
	case Sub:
		v.validateSub(field, src)
	case Ident:
		v.validateName(field, string(src))
	case Raw:
		v.validateName(field, string(src))
	}
}

func (v *validator) validateOperand(field string, op Operand) {
	switch o := op.(type) {
	case nil:
		v.missing(field, "operand is required")
	case Sub:
		v.validateSub(field, o)
	case Literal:
		if o.Value == nil {
			v.missing(field, "literal has no value")
		}
	}
}

func (v *validator) validateSub(field string, s Sub) {
	if s.Query == nil {
		v.missing(field, "subquery is nil")
		return
	}
	if !s.Query.IsSelect() {
		v.invalid(field, "only a select can be embedded as a subquery")
	}
}

func (v *validator) validateConditions(field string, conds []Condition) {
	for i, c := range conds {
		cf := fmt.Sprintf("%s[%d]", field, i)
		if strings.Trim(c.StartBrackets, "(") != "" {
			v.invalid(cf+".start_brackets", "may only contain '(', got %q", c.StartBrackets)
		}
		if strings.Trim(c.EndBrackets, ")") != "" {
			v.invalid(cf+".end_brackets", "may only contain ')', got %q", c.EndBrackets)
		}
		if c.Left != nil {
			v.validateOperand(cf+".left", c.Left)
		}
		if c.Right != nil {
			v.validateOperand(cf+".right", c.Right)
		}
	}
}

func (v *validator) validateName(field, name string) {
	if strings.TrimSpace(name) == "" {
		v.missing(field, "name is required")
	}
}

func (v *validator) validateNames(field string, names []string) {
	if len(names) == 0 {
		v.missing(field, "at least one name is required")
	}
	for i, n := range names {
		v.validateName(fmt.Sprintf("%s[%d]", field, i), n)
	}
}

func kindLabel(k IndexKind) string {
	switch {
	case k == IndexPrimary:
		return "primary key"
	case k == IndexForeignKey:
		return "foreign key"
	case k == IndexCheck:
		return "check constraint"
	case k.IsUnique():
		return "unique index"
	case k.IsFulltext():
		return "fulltext index"
	case k.IsSpatial():
		return "spatial index"
	default:
		return "index"
	}
}
