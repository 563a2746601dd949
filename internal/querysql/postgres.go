package querysql

import (
	"fmt"
	"strings"

	"github.com/lib/pq"

	"github.com/roach88/metasql/internal/macro"
	"github.com/roach88/metasql/internal/queryir"
)

// Postgres returns the PostgreSQL dialect.
func Postgres() Dialect {
	return &dialect{
		name:   "postgres",
		flavor: postgresFlavor{},
		macros: postgresMacros,
		escape: EscapeStandard,
	}
}

// pgInterval is the one-unit interval literal for unit.
func pgInterval(unit macro.Unit) string {
	if unit == macro.Quarter {
		return "INTERVAL '3 MONTH'"
	}
	return "INTERVAL '1 " + unit.String() + "'"
}

var postgresMacros = commonMacros.with(macroTable{
	"CurrentTimestamp": fixed("CURRENT_TIMESTAMP"),
	"CurrentDate":      fixed("CURRENT_DATE"),
	"CurrentTime":      fixed("CURRENT_TIME"),
	"UnixTimestamp": func(args []string) (string, bool) {
		switch len(args) {
		case 0:
			return "CAST(EXTRACT(EPOCH FROM CURRENT_TIMESTAMP) AS BIGINT)", true
		case 1:
			return "CAST(EXTRACT(EPOCH FROM " + args[0] + ") AS BIGINT)", true
		}
		return "", false
	},
	"DateAdd": dateArith(func(date, amount string, unit macro.Unit) string {
		return fmt.Sprintf("(%s + (%s) * %s)", date, amount, pgInterval(unit))
	}),
	"DateSub": dateArith(func(date, amount string, unit macro.Unit) string {
		return fmt.Sprintf("(%s - (%s) * %s)", date, amount, pgInterval(unit))
	}),
	"DateDiff": func(args []string) (string, bool) {
		if len(args) != 2 {
			return "", false
		}
		return fmt.Sprintf("(CAST(%s AS DATE) - CAST(%s AS DATE))", args[0], args[1]), true
	},
	"Year":      unary(func(x string) string { return "CAST(EXTRACT(YEAR FROM " + x + ") AS INTEGER)" }),
	"Month":     unary(func(x string) string { return "CAST(EXTRACT(MONTH FROM " + x + ") AS INTEGER)" }),
	"Day":       unary(func(x string) string { return "CAST(EXTRACT(DAY FROM " + x + ") AS INTEGER)" }),
	"Concat":    call("CONCAT", 1, -1),
	"Length":    call("CHAR_LENGTH", 1, 1),
	"Substring": call("SUBSTR", 2, 3),
	"IfNull":    call("COALESCE", 2, 2),
	"Random":    fixed("RANDOM()"),
})

var postgresColumns = columnStyle{
	autoIncrement:    "GENERATED BY DEFAULT AS IDENTITY",
	inlineReferences: true,
}

type postgresFlavor struct{}

func (postgresFlavor) quote(ident string) string {
	return macro.Escape(pq.QuoteIdentifier(ident))
}

func (postgresFlavor) boolean(b bool) string {
	if b {
		return "TRUE"
	}
	return "FALSE"
}

func (postgresFlavor) limit(count, offset int) string {
	return fmt.Sprintf("LIMIT %d OFFSET %d", count, offset)
}

func (postgresFlavor) join(j queryir.JoinType) string {
	return standardJoin(j, false)
}

func (postgresFlavor) insertVerb(w *writer, args map[string]string) (string, string, error) {
	if err := w.checkArgs(args, "ignore"); err != nil {
		return "", "", err
	}
	if isTrue(args["ignore"]) {
		return "INSERT INTO", " ON CONFLICT DO NOTHING", nil
	}
	return "INSERT INTO", "", nil
}

// indexMethod is the access method for fulltext and spatial kinds.
func (postgresFlavor) indexMethod(k queryir.IndexKind) string {
	switch {
	case k.IsFulltext():
		return "GIN"
	case k.IsSpatial():
		return "GIST"
	}
	return ""
}

func (f postgresFlavor) createTable(w *writer, s *queryir.CreateTable) ([]string, error) {
	if err := w.checkArgs(s.DialectArgs, "tablespace"); err != nil {
		return nil, err
	}

	var defs, after []string
	for _, col := range s.Columns {
		def, err := w.columnDef(col, inlinePrimary(s, col), postgresColumns)
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
	for _, idx := range s.Indexes {
		if c, ok := w.tableConstraint(idx); ok {
			defs = append(defs, c)
			continue
		}
		after = append(after, w.createIndex(s.Table, idx, f.indexMethod(idx.Kind)))
	}

	temp := ""
	switch s.Temporary {
	case queryir.TempLocal:
		temp = "TEMPORARY"
	case queryir.TempGlobal:
		temp = "GLOBAL TEMPORARY"
	}
	sql := w.createPrefix(s, temp) + " " + tableBody(defs)
	if ts, ok := s.DialectArgs["tablespace"]; ok {
		sql += " TABLESPACE " + f.quote(ts)
	}
	return append([]string{sql}, after...), nil
}

func (f postgresFlavor) alterTable(w *writer, s *queryir.AlterTable) ([]string, error) {
	if err := w.checkArgs(s.DialectArgs); err != nil {
		return nil, err
	}
	table := f.quote(s.Table)

	var actions, after []string
	for _, ch := range s.Columns {
		col := ch.Column
		name := f.quote(col.Name)
		switch ch.Request {
		case queryir.ColumnAdd:
			def, err := w.columnDef(col, col.IsPrimary, postgresColumns)
			if err != nil {
				return nil, err
			}
			actions = append(actions, "ADD COLUMN "+def)
			if col.HasIndex {
				after = append(after, w.createIndex(s.Table, queryir.IndexDefinition{Columns: []string{col.Name}}, ""))
			}
		case queryir.ColumnModify:
			actions = append(actions, "ALTER COLUMN "+name+" TYPE "+columnType(col))
			if col.Nullable {
				actions = append(actions, "ALTER COLUMN "+name+" DROP NOT NULL")
			} else {
				actions = append(actions, "ALTER COLUMN "+name+" SET NOT NULL")
			}
			if col.Default != nil {
				def, err := w.literal("columns."+col.Name+".default", col.Default)
				if err != nil {
					return nil, err
				}
				actions = append(actions, "ALTER COLUMN "+name+" SET DEFAULT "+def)
			} else {
				actions = append(actions, "ALTER COLUMN "+name+" DROP DEFAULT")
			}
		case queryir.ColumnDrop:
			actions = append(actions, "DROP COLUMN "+name)
		case queryir.ColumnRename:
			after = append(after, "ALTER TABLE "+table+" RENAME COLUMN "+name+" TO "+f.quote(ch.NewName))
		}
	}

	for _, idx := range s.Indexes {
		switch idx.Request {
		case queryir.RequestAdd:
			if c, ok := w.tableConstraint(idx); ok {
				actions = append(actions, "ADD "+c)
			} else {
				after = append(after, w.createIndex(s.Table, idx, f.indexMethod(idx.Kind)))
			}
		case queryir.RequestDrop:
			switch {
			case idx.Kind == queryir.IndexPrimary && idx.Name == "":
				actions = append(actions, "DROP CONSTRAINT "+f.quote(s.Table+"_pkey"))
			case idx.Kind.IsConstraint():
				actions = append(actions, "DROP CONSTRAINT "+f.quote(idx.Name))
			default:
				after = append(after, "DROP INDEX "+f.quote(idx.Name))
			}
		case queryir.RequestRename:
			if idx.Kind.IsConstraint() {
				after = append(after, "ALTER TABLE "+table+" RENAME CONSTRAINT "+f.quote(idx.Name)+" TO "+f.quote(idx.NewName))
			} else {
				after = append(after, "ALTER INDEX "+f.quote(idx.Name)+" RENAME TO "+f.quote(idx.NewName))
			}
		}
	}

	var stmts []string
	if len(actions) > 0 {
		stmts = append(stmts, "ALTER TABLE "+table+" "+strings.Join(actions, ", "))
	}
	stmts = append(stmts, after...)
	if s.RenameTo != "" {
		stmts = append(stmts, "ALTER TABLE "+table+" RENAME TO "+f.quote(s.RenameTo))
	}
	return stmts, nil
}

func (postgresFlavor) checkTable(w *writer, s *queryir.CheckTable) ([]string, error) {
	if err := w.checkArgs(s.DialectArgs); err != nil {
		return nil, err
	}
	checks := make([]string, len(s.Tables))
	for i, t := range s.Tables {
		checks[i] = "to_regclass(" + w.quoted(t) + ") IS NOT NULL"
	}
	return []string{"SELECT " + strings.Join(checks, " AND ") + ` AS "exists"`}, nil
}

func (f postgresFlavor) truncateTable(_ *writer, s *queryir.TruncateTable) []string {
	return []string{"TRUNCATE TABLE " + f.quote(s.Table)}
}

func (postgresFlavor) dropTable(w *writer, s *queryir.DropTable) []string {
	return []string{dropList("TABLE", s.IfExists, w.quoteAll(s.Tables))}
}

func (postgresFlavor) createView(w *writer, s *queryir.CreateView, source string) []string {
	return w.standardCreateView(s, source)
}

func (postgresFlavor) dropView(w *writer, s *queryir.DropView) []string {
	return []string{dropList("VIEW", s.IfExists, w.quoteAll(s.Views))}
}
