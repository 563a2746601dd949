package querysql

import (
	"fmt"
	"strings"

	"github.com/roach88/metasql/internal/macro"
	"github.com/roach88/metasql/internal/queryir"
)

// MySQL returns the reference dialect.
func MySQL() Dialect {
	return &dialect{
		name:   "mysql",
		flavor: mysqlFlavor{},
		macros: mysqlMacros,
		escape: EscapeMySQL,
	}
}

var mysqlMacros = commonMacros.with(macroTable{
	"CurrentTimestamp": fixed("SYSDATE()"),
	"CurrentDate":      fixed("CURDATE()"),
	"CurrentTime":      fixed("CURTIME()"),
	"UnixTimestamp":    call("UNIX_TIMESTAMP", 0, 1),
	"DateAdd": dateArith(func(date, amount string, unit macro.Unit) string {
		return fmt.Sprintf("DATE_ADD(%s, INTERVAL %s %s)", date, amount, unit)
	}),
	"DateSub": dateArith(func(date, amount string, unit macro.Unit) string {
		return fmt.Sprintf("DATE_SUB(%s, INTERVAL %s %s)", date, amount, unit)
	}),
	"DateDiff":  call("DATEDIFF", 2, 2),
	"Year":      call("YEAR", 1, 1),
	"Month":     call("MONTH", 1, 1),
	"Day":       call("DAYOFMONTH", 1, 1),
	"Concat":    call("CONCAT", 1, -1),
	"Length":    call("CHAR_LENGTH", 1, 1),
	"Substring": call("SUBSTRING", 2, 3),
	"IfNull":    call("IFNULL", 2, 2),
	"Random":    fixed("RAND()"),
})

// mysqlTableOptions are the CREATE/ALTER TABLE options accepted as
// DialectArgs, in render order.
var mysqlTableOptions = []struct {
	key, keyword string
	quoted       bool
}{
	{"engine", "ENGINE", false},
	{"charset", "DEFAULT CHARSET", false},
	{"collate", "COLLATE", false},
	{"auto_increment", "AUTO_INCREMENT", false},
	{"comment", "COMMENT", true},
}

var mysqlCheckModes = []string{"QUICK", "FAST", "MEDIUM", "EXTENDED", "CHANGED", "FOR UPGRADE"}

var mysqlColumns = columnStyle{autoIncrement: "AUTO_INCREMENT"}

type mysqlFlavor struct{}

// quote escapes markers too, so a quoted name survives macro resolution.
func (mysqlFlavor) quote(ident string) string {
	return macro.Escape("`" + strings.ReplaceAll(ident, "`", "``") + "`")
}

func (mysqlFlavor) boolean(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

func (mysqlFlavor) limit(count, offset int) string {
	return fmt.Sprintf("LIMIT %d, %d", offset, count)
}

func (mysqlFlavor) join(j queryir.JoinType) string {
	return standardJoin(j, true)
}

func (mysqlFlavor) insertVerb(w *writer, args map[string]string) (string, string, error) {
	if err := w.checkArgs(args, "ignore"); err != nil {
		return "", "", err
	}
	if isTrue(args["ignore"]) {
		return "INSERT IGNORE INTO", "", nil
	}
	return "INSERT INTO", "", nil
}

func (f mysqlFlavor) createTable(w *writer, s *queryir.CreateTable) ([]string, error) {
	keys := make([]string, len(mysqlTableOptions))
	for i, o := range mysqlTableOptions {
		keys[i] = o.key
	}
	if err := w.checkArgs(s.DialectArgs, keys...); err != nil {
		return nil, err
	}

	var defs, extras []string
	for _, col := range s.Columns {
		def, err := w.columnDef(col, inlinePrimary(s, col), mysqlColumns)
		if err != nil {
			return nil, err
		}
		defs = append(defs, def)
		extras = append(extras, f.columnExtras(w, col)...)
	}
	if pk := w.compositePrimary(s); pk != "" {
		defs = append(defs, pk)
	}
	for _, idx := range s.Indexes {
		defs = append(defs, f.index(w, idx))
	}
	defs = append(defs, extras...)

	temp := ""
	if s.Temporary != queryir.TempNormal {
		temp = "TEMPORARY"
	}
	sql := w.createPrefix(s, temp) + " " + tableBody(defs)
	if opts := f.tableOptions(w, s.DialectArgs); opts != "" {
		sql += " " + opts
	}
	return []string{sql}, nil
}

// columnExtras returns the table-level definitions MySQL needs for a
// column: an INDEX for HasIndex and a FOREIGN KEY for references, which
// InnoDB ignores when written inline.
func (mysqlFlavor) columnExtras(w *writer, col queryir.ColumnDefinition) []string {
	var out []string
	if col.HasIndex {
		out = append(out, "INDEX ("+w.f.quote(col.Name)+")")
	}
	if col.ReferenceTable != "" {
		out = append(out, w.columnForeignKey(col))
	}
	return out
}

var mysqlIndexKeywords = map[queryir.IndexKind]string{
	queryir.IndexPlain:         "INDEX",
	queryir.IndexKey:           "KEY",
	queryir.IndexUnique:        "UNIQUE",
	queryir.IndexUniqueKey:     "UNIQUE KEY",
	queryir.IndexUniqueIndex:   "UNIQUE INDEX",
	queryir.IndexFulltext:      "FULLTEXT",
	queryir.IndexFulltextKey:   "FULLTEXT KEY",
	queryir.IndexFulltextIndex: "FULLTEXT INDEX",
	queryir.IndexSpatial:       "SPATIAL",
	queryir.IndexSpatialKey:    "SPATIAL KEY",
	queryir.IndexSpatialIndex:  "SPATIAL INDEX",
}

// index renders an index as a CREATE TABLE definition or ADD target.
func (mysqlFlavor) index(w *writer, idx queryir.IndexDefinition) string {
	switch idx.Kind {
	case queryir.IndexPrimary:
		return "PRIMARY KEY (" + w.identList(idx.Columns) + ")"
	case queryir.IndexForeignKey:
		return w.foreignKey(idx)
	case queryir.IndexCheck:
		return w.checkConstraint(idx)
	}
	kw := mysqlIndexKeywords[idx.Kind]
	if idx.Name != "" {
		kw += " " + w.f.quote(idx.Name)
	}
	return kw + " (" + w.identList(idx.Columns) + ")"
}

func (mysqlFlavor) tableOptions(w *writer, args map[string]string) string {
	var opts []string
	for _, o := range mysqlTableOptions {
		v, ok := args[o.key]
		if !ok {
			continue
		}
		if o.quoted {
			v = w.quoted(v)
		}
		opts = append(opts, o.keyword+"="+v)
	}
	return strings.Join(opts, " ")
}

func (f mysqlFlavor) alterTable(w *writer, s *queryir.AlterTable) ([]string, error) {
	keys := make([]string, len(mysqlTableOptions))
	for i, o := range mysqlTableOptions {
		keys[i] = o.key
	}
	if err := w.checkArgs(s.DialectArgs, keys...); err != nil {
		return nil, err
	}

	var actions []string
	for _, ch := range s.Columns {
		switch ch.Request {
		case queryir.ColumnAdd, queryir.ColumnModify:
			def, err := w.columnDef(ch.Column, ch.Column.IsPrimary, mysqlColumns)
			if err != nil {
				return nil, err
			}
			verb := "ADD COLUMN "
			if ch.Request == queryir.ColumnModify {
				verb = "MODIFY COLUMN "
			}
			actions = append(actions, verb+def)
			for _, extra := range f.columnExtras(w, ch.Column) {
				actions = append(actions, "ADD "+extra)
			}
		case queryir.ColumnDrop:
			actions = append(actions, "DROP COLUMN "+f.quote(ch.Column.Name))
		case queryir.ColumnRename:
			actions = append(actions, "RENAME COLUMN "+f.quote(ch.Column.Name)+" TO "+f.quote(ch.NewName))
		}
	}

	for _, idx := range s.Indexes {
		switch idx.Request {
		case queryir.RequestAdd:
			actions = append(actions, "ADD "+f.index(w, idx))
		case queryir.RequestDrop:
			switch idx.Kind {
			case queryir.IndexPrimary:
				actions = append(actions, "DROP PRIMARY KEY")
			case queryir.IndexForeignKey:
				actions = append(actions, "DROP FOREIGN KEY "+f.quote(idx.Name))
			case queryir.IndexCheck:
				actions = append(actions, "DROP CHECK "+f.quote(idx.Name))
			default:
				actions = append(actions, "DROP INDEX "+f.quote(idx.Name))
			}
		case queryir.RequestRename:
			actions = append(actions, "RENAME INDEX "+f.quote(idx.Name)+" TO "+f.quote(idx.NewName))
		}
	}

	if opts := f.tableOptions(w, s.DialectArgs); opts != "" {
		actions = append(actions, opts)
	}
	if s.RenameTo != "" {
		actions = append(actions, "RENAME TO "+f.quote(s.RenameTo))
	}
	return []string{"ALTER TABLE " + f.quote(s.Table) + " " + strings.Join(actions, ", ")}, nil
}

func (mysqlFlavor) checkTable(w *writer, s *queryir.CheckTable) ([]string, error) {
	if err := w.checkArgs(s.DialectArgs, "mode"); err != nil {
		return nil, err
	}
	sql := "CHECK TABLE " + w.quoteAll(s.Tables)
	if mode, ok := s.DialectArgs["mode"]; ok {
		mode = strings.ToUpper(strings.TrimSpace(mode))
		if !contains(mysqlCheckModes, mode) {
			return nil, queryir.Invalid(w.op, "dialect_args.mode", "unknown CHECK TABLE mode %q", mode)
		}
		sql += " " + mode
	}
	return []string{sql}, nil
}

func (f mysqlFlavor) truncateTable(_ *writer, s *queryir.TruncateTable) []string {
	return []string{"TRUNCATE TABLE " + f.quote(s.Table)}
}

func (mysqlFlavor) dropTable(w *writer, s *queryir.DropTable) []string {
	var b strings.Builder
	b.WriteString("DROP ")
	if s.Temporary != queryir.TempNormal {
		b.WriteString("TEMPORARY ")
	}
	b.WriteString("TABLE ")
	if s.IfExists {
		b.WriteString("IF EXISTS ")
	}
	b.WriteString(w.quoteAll(s.Tables))
	return []string{b.String()}
}

func (mysqlFlavor) createView(w *writer, s *queryir.CreateView, source string) []string {
	return w.standardCreateView(s, source)
}

func (mysqlFlavor) dropView(w *writer, s *queryir.DropView) []string {
	return []string{dropList("VIEW", s.IfExists, w.quoteAll(s.Views))}
}

func dropList(kind string, ifExists bool, names string) string {
	if ifExists {
		return "DROP " + kind + " IF EXISTS " + names
	}
	return "DROP " + kind + " " + names
}

func isTrue(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}
