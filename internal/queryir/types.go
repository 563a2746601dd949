package queryir

import "github.com/roach88/metasql/internal/ir"

// Operation tags the kind of statement a builder holds.
type Operation int

const (
	OpNone Operation = iota
	OpSelect
	OpCheckTable
	OpCreateTable
	OpAlterTable
	OpTruncateTable
	OpDropTable
	OpCreateView
	OpDropView
	OpInsert
	OpUpdate
	OpDelete
	OpCustom
)

var operationNames = map[Operation]string{
	OpNone:          "NONE",
	OpSelect:        "SELECT",
	OpCheckTable:    "CHECK TABLE",
	OpCreateTable:   "CREATE TABLE",
	OpAlterTable:    "ALTER TABLE",
	OpTruncateTable: "TRUNCATE TABLE",
	OpDropTable:     "DROP TABLE",
	OpCreateView:    "CREATE VIEW",
	OpDropView:      "DROP VIEW",
	OpInsert:        "INSERT",
	OpUpdate:        "UPDATE",
	OpDelete:        "DELETE",
	OpCustom:        "CUSTOM",
}

func (o Operation) String() string {
	if name, ok := operationNames[o]; ok {
		return name
	}
	return "UNKNOWN"
}

// Statement is one operation's complete structural description.
//
// This is a sealed interface - only types in this package implement it.
type Statement interface {
	Operation() Operation
	statementNode() // Marker method - seals interface to this package
}

// Subquery is a select owned by another builder that can be embedded in a
// table, column, condition, view or insert source position.
//
// Fragment returns the select's render without its statement terminator.
// The same Subquery must return identical text every time it is asked.
type Subquery interface {
	IsSelect() bool
	Fragment() (string, error)
}

// Select represents:
//
//	SELECT [DISTINCT] <columns> FROM <tables> [WHERE] [GROUP BY] [HAVING] [ORDER BY] [LIMIT]
//
// Columns empty means "*". Tables[0] is the FROM source; later tables are
// joined according to their Join type, or comma separated when Join is
// JoinNone. Pagination applies when PerPage > 0; Page is clamped to >= 1.
type Select struct {
	Distinct bool
	Columns  []ColumnSpec
	Tables   []TableRef
	Where    []Condition
	Group    []Operand
	Having   []Condition
	Order    []OrderExpr
	PerPage  int
	Page     int
}

func (*Select) Operation() Operation { return OpSelect }
func (*Select) statementNode()       {}

// Offset returns the pagination offset PerPage × (Page − 1) with Page
// clamped to a minimum of 1. Zero when pagination is off.
func (s *Select) Offset() int {
	if s.PerPage <= 0 {
		return 0
	}
	page := s.Page
	if page < 1 {
		page = 1
	}
	return s.PerPage * (page - 1)
}

// Field is one column assignment of an insert row or an update.
type Field struct {
	Column string
	Value  ir.Value
}

// Row is an ordered set of column assignments.
type Row []Field

// Columns returns the column names in row order.
func (r Row) Columns() []string {
	cols := make([]string, len(r))
	for i, f := range r {
		cols[i] = f.Column
	}
	return cols
}

// Lookup returns the value assigned to column.
func (r Row) Lookup(column string) (ir.Value, bool) {
	for _, f := range r {
		if f.Column == column {
			return f.Value, true
		}
	}
	return nil, false
}

// Set is a convenience constructor for a Field.
func Set(column string, v ir.Value) Field {
	return Field{Column: column, Value: v}
}

// Insert represents either
//
//	INSERT INTO t (cols) VALUES (...), (...)
//
// with the column list taken from the first row, or
//
//	INSERT INTO t (cols) <select>
//
// when Source is set. SourceColumns is filled from the source's column
// metadata after executing it; the renderer never guesses it.
type Insert struct {
	Table         TableRef
	Rows          []Row
	Source        Subquery
	SourceColumns []string
	DialectArgs   map[string]string
}

func (*Insert) Operation() Operation { return OpInsert }
func (*Insert) statementNode()       {}

// Update represents UPDATE t SET col = val[, ...] [WHERE ...].
type Update struct {
	Table TableRef
	Set   Row
	Where []Condition
}

func (*Update) Operation() Operation { return OpUpdate }
func (*Update) statementNode()       {}

// Delete represents DELETE FROM t [WHERE ...].
type Delete struct {
	Table TableRef
	Where []Condition
}

func (*Delete) Operation() Operation { return OpDelete }
func (*Delete) statementNode()       {}

// CreateTable represents a table definition.
type CreateTable struct {
	Table       string
	IfNotExists bool
	Temporary   Temporary
	Columns     []ColumnDefinition
	Indexes     []IndexDefinition
	DialectArgs map[string]string
}

func (*CreateTable) Operation() Operation { return OpCreateTable }
func (*CreateTable) statementNode()       {}

// PrimaryColumns returns the names of columns flagged IsPrimary, in order.
// More than one means a composite key rendered as a table constraint.
func (c *CreateTable) PrimaryColumns() []string {
	var cols []string
	for _, col := range c.Columns {
		if col.IsPrimary {
			cols = append(cols, col.Name)
		}
	}
	return cols
}

// AlterTable represents a table rename and/or column and index changes.
type AlterTable struct {
	Table       string
	RenameTo    string
	Columns     []ColumnChange
	Indexes     []IndexDefinition
	DialectArgs map[string]string
}

func (*AlterTable) Operation() Operation { return OpAlterTable }
func (*AlterTable) statementNode()       {}

// TruncateTable removes all rows of one table.
type TruncateTable struct {
	Table string
}

func (*TruncateTable) Operation() Operation { return OpTruncateTable }
func (*TruncateTable) statementNode()       {}

// DropTable drops one or more tables.
type DropTable struct {
	Tables    []string
	IfExists  bool
	Temporary Temporary
}

func (*DropTable) Operation() Operation { return OpDropTable }
func (*DropTable) statementNode()       {}

// CreateView represents CREATE [OR REPLACE] VIEW v [(cols)] AS <select>.
type CreateView struct {
	View    string
	Columns []string
	Source  Subquery
	Replace bool
}

func (*CreateView) Operation() Operation { return OpCreateView }
func (*CreateView) statementNode()       {}

// DropView drops one or more views.
type DropView struct {
	Views    []string
	IfExists bool
}

func (*DropView) Operation() Operation { return OpDropView }
func (*DropView) statementNode()       {}

// CheckTable asks the database about the named tables.
// DialectArgs["mode"] selects a MySQL CHECK TABLE option (QUICK, FAST,
// MEDIUM, EXTENDED, CHANGED).
type CheckTable struct {
	Tables      []string
	DialectArgs map[string]string
}

func (*CheckTable) Operation() Operation { return OpCheckTable }
func (*CheckTable) statementNode()       {}

// Custom carries caller supplied SQL. It still passes through macro
// resolution and gets a statement terminator.
type Custom struct {
	SQL string
}

func (*Custom) Operation() Operation { return OpCustom }
func (*Custom) statementNode()       {}
