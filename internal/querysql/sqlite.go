package querysql

import (
	"fmt"
	"strings"

	"github.com/roach88/metasql/internal/macro"
	"github.com/roach88/metasql/internal/queryir"
)

// SQLite returns the SQLite dialect.
func SQLite() Dialect {
	return &dialect{
		name:   "sqlite",
		flavor: sqliteFlavor{},
		macros: sqliteMacros,
		escape: EscapeStandard,
	}
}

// sqliteModifier returns a datetime() modifier expression adding amount
// units. SQLite has no week, quarter or microsecond modifiers.
func sqliteModifier(amount string, unit macro.Unit, sign string) string {
	var n, name string
	switch unit {
	case macro.Year:
		n, name = amount, "years"
	case macro.Quarter:
		n, name = "("+amount+") * 3", "months"
	case macro.Month:
		n, name = amount, "months"
	case macro.Week:
		n, name = "("+amount+") * 7", "days"
	case macro.Day:
		n, name = amount, "days"
	case macro.Hour:
		n, name = amount, "hours"
	case macro.Minute:
		n, name = amount, "minutes"
	case macro.Microsecond:
		n, name = "("+amount+") / 1000000.0", "seconds"
	default:
		n, name = amount, "seconds"
	}
	return fmt.Sprintf("%s(%s) || ' %s'", sign, n, name)
}

func sqliteStrftime(format string) macroFunc {
	return unary(func(x string) string {
		return "CAST(strftime('" + format + "', " + x + ") AS INTEGER)"
	})
}

var sqliteMacros = commonMacros.with(macroTable{
	"CurrentTimestamp": fixed("CURRENT_TIMESTAMP"),
	"CurrentDate":      fixed("CURRENT_DATE"),
	"CurrentTime":      fixed("CURRENT_TIME"),
	"UnixTimestamp": func(args []string) (string, bool) {
		switch len(args) {
		case 0:
			return "CAST(strftime('%s', 'now') AS INTEGER)", true
		case 1:
			return "CAST(strftime('%s', " + args[0] + ") AS INTEGER)", true
		}
		return "", false
	},
	"DateAdd": dateArith(func(date, amount string, unit macro.Unit) string {
		return fmt.Sprintf("datetime(%s, %s)", date, sqliteModifier(amount, unit, ""))
	}),
	"DateSub": dateArith(func(date, amount string, unit macro.Unit) string {
		return fmt.Sprintf("datetime(%s, %s)", date, sqliteModifier(amount, unit, "-"))
	}),
	"DateDiff": func(args []string) (string, bool) {
		if len(args) != 2 {
			return "", false
		}
		return fmt.Sprintf("CAST(julianday(%s) - julianday(%s) AS INTEGER)", args[0], args[1]), true
	},
	"Year":  sqliteStrftime("%Y"),
	"Month": sqliteStrftime("%m"),
	"Day":   sqliteStrftime("%d"),
	"Concat": func(args []string) (string, bool) {
		if len(args) == 0 {
			return "", false
		}
		return "(" + strings.Join(args, " || ") + ")", true
	},
	"Length":    call("LENGTH", 1, 1),
	"Substring": call("SUBSTR", 2, 3),
	"IfNull":    call("IFNULL", 2, 2),
	"Random":    fixed("RANDOM()"),
})

var sqliteColumns = columnStyle{
	autoIncrement:    "AUTOINCREMENT",
	inlineReferences: true,
}

type sqliteFlavor struct{}

func (sqliteFlavor) quote(ident string) string {
	return macro.Escape(`"` + strings.ReplaceAll(ident, `"`, `""`) + `"`)
}

func (sqliteFlavor) boolean(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

func (sqliteFlavor) limit(count, offset int) string {
	return fmt.Sprintf("LIMIT %d OFFSET %d", count, offset)
}

func (sqliteFlavor) join(j queryir.JoinType) string {
	return standardJoin(j, false)
}

func (sqliteFlavor) insertVerb(w *writer, args map[string]string) (string, string, error) {
	if err := w.checkArgs(args, "ignore"); err != nil {
		return "", "", err
	}
	if isTrue(args["ignore"]) {
		return "INSERT OR IGNORE INTO", "", nil
	}
	return "INSERT INTO", "", nil
}

func (f sqliteFlavor) columnDef(w *writer, col queryir.ColumnDefinition, inlinePK bool) (string, error) {
	if col.AutoIncrement && !inlinePK {
		return "", w.unsupported("columns."+col.Name+".auto_increment", "SQLite only auto-increments a single INTEGER PRIMARY KEY")
	}
	return w.columnDef(col, inlinePK, sqliteColumns)
}

func (f sqliteFlavor) createTable(w *writer, s *queryir.CreateTable) ([]string, error) {
	if err := w.checkArgs(s.DialectArgs, "strict", "without_rowid"); err != nil {
		return nil, err
	}

	var defs, after []string
	for _, col := range s.Columns {
		def, err := f.columnDef(w, col, inlinePrimary(s, col))
		if err != nil {
			return nil, err
		}
		defs = append(defs, def)
		if col.HasIndex {
			after = append(after, w.createIndex(s.Table, queryir.IndexDefinition{Columns: []string{col.Name}}, ""))
		}
	}
	if pk := w.compositePrimary(s); pk != "" {
		defs = append(defs, pk)
	}
	for i, idx := range s.Indexes {
		if idx.Kind.IsFulltext() || idx.Kind.IsSpatial() {
			return nil, w.unsupported(fmt.Sprintf("indexes[%d].kind", i), "SQLite has no %s indexes", kindName(idx.Kind))
		}
		if c, ok := w.tableConstraint(idx); ok {
			defs = append(defs, c)
			continue
		}
		after = append(after, w.createIndex(s.Table, idx, ""))
	}

	temp := ""
	if s.Temporary != queryir.TempNormal {
		temp = "TEMPORARY"
	}
	sql := w.createPrefix(s, temp) + " " + tableBody(defs)

	var opts []string
	if isTrue(s.DialectArgs["without_rowid"]) {
		opts = append(opts, "WITHOUT ROWID")
	}
	if isTrue(s.DialectArgs["strict"]) {
		opts = append(opts, "STRICT")
	}
	if len(opts) > 0 {
		sql += " " + strings.Join(opts, ", ")
	}
	return append([]string{sql}, after...), nil
}

// alterTable emits one ALTER TABLE per action; SQLite accepts no lists.
func (f sqliteFlavor) alterTable(w *writer, s *queryir.AlterTable) ([]string, error) {
	if err := w.checkArgs(s.DialectArgs); err != nil {
		return nil, err
	}
	prefix := "ALTER TABLE " + f.quote(s.Table) + " "

	var stmts []string
	for i, ch := range s.Columns {
		col := ch.Column
		field := fmt.Sprintf("columns[%d]", i)
		switch ch.Request {
		case queryir.ColumnAdd:
			if col.IsPrimary || col.IsUnique {
				return nil, w.unsupported(field, "SQLite cannot add a PRIMARY KEY or UNIQUE column")
			}
			def, err := f.columnDef(w, col, false)
			if err != nil {
				return nil, err
			}
			stmts = append(stmts, prefix+"ADD COLUMN "+def)
			if col.HasIndex {
				stmts = append(stmts, w.createIndex(s.Table, queryir.IndexDefinition{Columns: []string{col.Name}}, ""))
			}
		case queryir.ColumnModify:
			return nil, w.unsupported(field+".request", "SQLite cannot modify a column")
		case queryir.ColumnDrop:
			stmts = append(stmts, prefix+"DROP COLUMN "+f.quote(col.Name))
		case queryir.ColumnRename:
			stmts = append(stmts, prefix+"RENAME COLUMN "+f.quote(col.Name)+" TO "+f.quote(ch.NewName))
		}
	}

	for i, idx := range s.Indexes {
		field := fmt.Sprintf("indexes[%d]", i)
		indexLike := idx.Kind.IsPlain() || idx.Kind.IsUnique()
		switch {
		case !indexLike:
			return nil, w.unsupported(field, "SQLite cannot alter a %s on an existing table", kindName(idx.Kind))
		case idx.Request == queryir.RequestAdd:
			stmts = append(stmts, w.createIndex(s.Table, idx, ""))
		case idx.Request == queryir.RequestDrop:
			stmts = append(stmts, "DROP INDEX "+f.quote(idx.Name))
		default:
			return nil, w.unsupported(field+".request", "SQLite cannot rename an index")
		}
	}

	if s.RenameTo != "" {
		stmts = append(stmts, prefix+"RENAME TO "+f.quote(s.RenameTo))
	}
	return stmts, nil
}

func (sqliteFlavor) checkTable(w *writer, s *queryir.CheckTable) ([]string, error) {
	if err := w.checkArgs(s.DialectArgs); err != nil {
		return nil, err
	}
	if len(s.Tables) == 1 {
		return []string{`SELECT COUNT(*) AS "exists" FROM sqlite_master WHERE type = 'table' AND name = ` + w.quoted(s.Tables[0])}, nil
	}
	names := make([]string, len(s.Tables))
	for i, t := range s.Tables {
		names[i] = w.quoted(t)
	}
	return []string{fmt.Sprintf(`SELECT COUNT(*) = %d AS "exists" FROM sqlite_master WHERE type = 'table' AND name IN (%s)`,
		len(s.Tables), strings.Join(names, ", "))}, nil
}

func (f sqliteFlavor) truncateTable(_ *writer, s *queryir.TruncateTable) []string {
	return []string{"DELETE FROM " + f.quote(s.Table)}
}

func (f sqliteFlavor) dropTable(_ *writer, s *queryir.DropTable) []string {
	stmts := make([]string, len(s.Tables))
	for i, t := range s.Tables {
		stmts[i] = dropList("TABLE", s.IfExists, f.quote(t))
	}
	return stmts
}

func (f sqliteFlavor) createView(w *writer, s *queryir.CreateView, source string) []string {
	create := "CREATE VIEW " + f.quote(s.View) + w.viewColumns(s) + " AS " + source
	if !s.Replace {
		return []string{create}
	}
	return []string{dropList("VIEW", true, f.quote(s.View)), create}
}

func (f sqliteFlavor) dropView(_ *writer, s *queryir.DropView) []string {
	stmts := make([]string, len(s.Views))
	for i, v := range s.Views {
		stmts[i] = dropList("VIEW", s.IfExists, f.quote(v))
	}
	return stmts
}

func kindName(k queryir.IndexKind) string {
	switch {
	case k.IsFulltext():
		return "fulltext"
	case k.IsSpatial():
		return "spatial"
	case k == queryir.IndexPrimary:
		return "primary key"
	case k == queryir.IndexForeignKey:
		return "foreign key"
	case k == queryir.IndexCheck:
		return "check constraint"
	}
	return "index"
}
