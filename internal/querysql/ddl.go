package querysql

import (
	"fmt"
	"strings"

	"github.com/roach88/metasql/internal/queryir"
)

// columnStyle carries the per-product parts of a column definition.
type columnStyle struct {
	// autoIncrement is the modifier for AutoIncrement columns.
	autoIncrement string
	// inlineReferences renders ReferenceTable as a REFERENCES modifier.
	// When false the caller emits a table-level FOREIGN KEY instead.
	inlineReferences bool
}

// columnDef renders one column definition. inlinePrimary adds PRIMARY KEY
// to the column itself.
func (w *writer) columnDef(col queryir.ColumnDefinition, inlinePrimary bool, style columnStyle) (string, error) {
	parts := []string{w.f.quote(col.Name), columnType(col)}
	if !col.Nullable {
		parts = append(parts, "NOT NULL")
	}
	if col.Default != nil {
		def, err := w.literal("columns."+col.Name+".default", col.Default)
		if err != nil {
			return "", err
		}
		parts = append(parts, "DEFAULT "+def)
	}
	if inlinePrimary {
		parts = append(parts, "PRIMARY KEY")
	}
	if col.AutoIncrement {
		parts = append(parts, style.autoIncrement)
	}
	if col.IsUnique && !inlinePrimary {
		parts = append(parts, "UNIQUE")
	}
	if col.Check != "" {
		parts = append(parts, "CHECK ("+col.Check+")")
	}
	if col.ReferenceTable != "" && style.inlineReferences {
		parts = append(parts, fmt.Sprintf("REFERENCES %s (%s)", w.f.quote(col.ReferenceTable), w.f.quote(col.ReferenceColumn)))
	}
	return strings.Join(parts, " "), nil
}

func columnType(col queryir.ColumnDefinition) string {
	if col.Length == "" {
		return col.Type
	}
	return col.Type + "(" + col.Length + ")"
}

// inlinePrimary reports whether the table has exactly one IsPrimary column
// and it is col.
func inlinePrimary(s *queryir.CreateTable, col queryir.ColumnDefinition) bool {
	pk := s.PrimaryColumns()
	return col.IsPrimary && len(pk) == 1
}

// compositePrimary returns the table-level PRIMARY KEY for multi-column
// keys, or "".
func (w *writer) compositePrimary(s *queryir.CreateTable) string {
	pk := s.PrimaryColumns()
	if len(pk) < 2 {
		return ""
	}
	return "PRIMARY KEY (" + w.identList(pk) + ")"
}

// constraintName prefixes CONSTRAINT name when a name is given.
func (w *writer) constraintName(name string) string {
	if name == "" {
		return ""
	}
	return "CONSTRAINT " + w.f.quote(name) + " "
}

func (w *writer) foreignKey(idx queryir.IndexDefinition) string {
	return fmt.Sprintf("%sFOREIGN KEY (%s) REFERENCES %s (%s)",
		w.constraintName(idx.Name), w.identList(idx.Columns),
		w.f.quote(idx.ReferenceTable), w.identList(idx.ReferenceColumns))
}

func (w *writer) checkConstraint(idx queryir.IndexDefinition) string {
	return w.constraintName(idx.Name) + "CHECK (" + idx.Check + ")"
}

// columnForeignKey is the table-level form of a column reference.
func (w *writer) columnForeignKey(col queryir.ColumnDefinition) string {
	return w.foreignKey(queryir.IndexDefinition{
		Kind:             queryir.IndexForeignKey,
		Columns:          []string{col.Name},
		ReferenceTable:   col.ReferenceTable,
		ReferenceColumns: []string{col.ReferenceColumn},
	})
}

// tableConstraint renders the standard SQL table constraint for a
// constraint kind. ok is false for plain, fulltext and spatial indexes.
func (w *writer) tableConstraint(idx queryir.IndexDefinition) (string, bool) {
	switch {
	case idx.Kind == queryir.IndexPrimary:
		return w.constraintName(idx.Name) + "PRIMARY KEY (" + w.identList(idx.Columns) + ")", true
	case idx.Kind == queryir.IndexForeignKey:
		return w.foreignKey(idx), true
	case idx.Kind == queryir.IndexCheck:
		return w.checkConstraint(idx), true
	case idx.Kind.IsUnique():
		return w.constraintName(idx.Name) + "UNIQUE (" + w.identList(idx.Columns) + ")", true
	default:
		return "", false
	}
}

// createIndex renders CREATE [UNIQUE] INDEX. using may be "".
func (w *writer) createIndex(table string, idx queryir.IndexDefinition, using string) string {
	var b strings.Builder
	b.WriteString("CREATE ")
	if idx.Kind.IsUnique() {
		b.WriteString("UNIQUE ")
	}
	b.WriteString("INDEX ")
	b.WriteString(w.f.quote(indexName(table, idx)))
	b.WriteString(" ON ")
	b.WriteString(w.f.quote(table))
	if using != "" {
		b.WriteString(" USING " + using)
	}
	b.WriteString(" (" + w.identList(idx.Columns) + ")")
	return b.String()
}

// indexName returns idx.Name or a name derived from the table and columns.
func indexName(table string, idx queryir.IndexDefinition) string {
	if idx.Name != "" {
		return idx.Name
	}
	prefix := "idx"
	if idx.Kind.IsUnique() {
		prefix = "uq"
	}
	return prefix + "_" + table + "_" + strings.Join(idx.Columns, "_")
}

// createPrefix renders CREATE [temp] TABLE [IF NOT EXISTS] name.
func (w *writer) createPrefix(s *queryir.CreateTable, temp string) string {
	var b strings.Builder
	b.WriteString("CREATE ")
	if temp != "" {
		b.WriteString(temp + " ")
	}
	b.WriteString("TABLE ")
	if s.IfNotExists {
		b.WriteString("IF NOT EXISTS ")
	}
	b.WriteString(w.f.quote(s.Table))
	return b.String()
}

// tableBody lays out definitions one per line.
func tableBody(defs []string) string {
	return "(\n  " + strings.Join(defs, ",\n  ") + "\n)"
}

func (w *writer) quoteAll(names []string) string {
	parts := make([]string, len(names))
	for i, n := range names {
		parts[i] = w.f.quote(n)
	}
	return strings.Join(parts, ", ")
}

func (w *writer) viewColumns(s *queryir.CreateView) string {
	if len(s.Columns) == 0 {
		return ""
	}
	return " (" + w.quoteAll(s.Columns) + ")"
}

// standardCreateView renders CREATE [OR REPLACE] VIEW.
func (w *writer) standardCreateView(s *queryir.CreateView, source string) []string {
	verb := "CREATE VIEW "
	if s.Replace {
		verb = "CREATE OR REPLACE VIEW "
	}
	return []string{verb + w.f.quote(s.View) + w.viewColumns(s) + " AS " + source}
}

// unsupported is a shorthand for queryir.Unsupported on the current
// operation.
func (w *writer) unsupported(field, format string, args ...any) error {
	return queryir.Unsupported(w.op, field, format, args...)
}
