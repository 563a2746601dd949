package querysql

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/roach88/metasql/internal/ir"
	"github.com/roach88/metasql/internal/macro"
	"github.com/roach88/metasql/internal/queryir"
)

// writer renders one statement for one flavor.
type writer struct {
	f   flavor
	esc Escaper
	op  queryir.Operation
}

// statement renders stmt and joins the flavor's statements into one
// terminated text.
func (w *writer) statement(stmt queryir.Statement) (string, error) {
	var (
		stmts []string
		err   error
	)

	switch s := stmt.(type) {
	case *queryir.Select:
		var sql string
		sql, err = w.selectSQL(s)
		stmts = []string{sql}
	case *queryir.Insert:
		var sql string
		sql, err = w.insertSQL(s)
		stmts = []string{sql}
	case *queryir.Update:
		var sql string
		sql, err = w.updateSQL(s)
		stmts = []string{sql}
	case *queryir.Delete:
		var sql string
		sql, err = w.deleteSQL(s)
		stmts = []string{sql}
	case *queryir.CreateTable:
		stmts, err = w.f.createTable(w, s)
	case *queryir.AlterTable:
		stmts, err = w.f.alterTable(w, s)
	case *queryir.CheckTable:
		stmts, err = w.f.checkTable(w, s)
	case *queryir.TruncateTable:
		stmts = w.f.truncateTable(w, s)
	case *queryir.DropTable:
		stmts = w.f.dropTable(w, s)
	case *queryir.CreateView:
		var source string
		source, err = w.fragment("source", s.Source)
		if err == nil {
			stmts = w.f.createView(w, s, source)
		}
	case *queryir.DropView:
		stmts = w.f.dropView(w, s)
	case *queryir.Custom:
		stmts = []string{strings.TrimRight(strings.TrimSpace(s.SQL), "; \t\n")}
	default:
		return "", queryir.Invalid(w.op, "operation", "unsupported statement type %T", stmt)
	}
	if err != nil {
		return "", err
	}
	return strings.Join(stmts, ";\n") + ";", nil
}

func (w *writer) selectSQL(s *queryir.Select) (string, error) {
	var b strings.Builder
	b.WriteString("SELECT ")
	if s.Distinct {
		b.WriteString("DISTINCT ")
	}

	cols, err := w.columns(s.Columns)
	if err != nil {
		return "", err
	}
	b.WriteString(cols)

	tables, err := w.tables(s.Tables)
	if err != nil {
		return "", err
	}
	b.WriteString(" FROM ")
	b.WriteString(tables)

	where, err := w.clause("WHERE", "where", s.Where)
	if err != nil {
		return "", err
	}
	appendPart(&b, where)

	if len(s.Group) > 0 {
		group, err := w.operandList("group", s.Group)
		if err != nil {
			return "", err
		}
		appendPart(&b, "GROUP BY "+group)
	}

	having, err := w.clause("HAVING", "having", s.Having)
	if err != nil {
		return "", err
	}
	appendPart(&b, having)

	if len(s.Order) > 0 {
		parts := make([]string, len(s.Order))
		for i, o := range s.Order {
			expr, err := w.operand(fmt.Sprintf("order[%d]", i), o.Expr)
			if err != nil {
				return "", err
			}
			switch o.Direction {
			case queryir.DirAsc:
				expr += " ASC"
			case queryir.DirDesc:
				expr += " DESC"
			}
			parts[i] = expr
		}
		appendPart(&b, "ORDER BY "+strings.Join(parts, ", "))
	}

	if s.PerPage > 0 {
		appendPart(&b, w.f.limit(s.PerPage, s.Offset()))
	}
	return b.String(), nil
}

func (w *writer) columns(cols []queryir.ColumnSpec) (string, error) {
	if len(cols) == 0 {
		return "*", nil
	}
	parts := make([]string, len(cols))
	for i, c := range cols {
		expr, err := w.operand(fmt.Sprintf("columns[%d]", i), c.Expr)
		if err != nil {
			return "", err
		}
		if c.Alias != "" {
			expr += " AS " + w.f.quote(c.Alias)
		}
		parts[i] = expr
	}
	return strings.Join(parts, ", "), nil
}

func (w *writer) tables(tables []queryir.TableRef) (string, error) {
	var b strings.Builder
	for i, t := range tables {
		field := fmt.Sprintf("tables[%d]", i)
		src, err := w.tableRef(field, t)
		if err != nil {
			return "", err
		}

		switch {
		case i == 0:
			b.WriteString(src)
		case t.Join == queryir.JoinNone:
			b.WriteString(", ")
			b.WriteString(src)
		default:
			b.WriteString(" ")
			b.WriteString(w.f.join(t.Join))
			b.WriteString(" ")
			b.WriteString(src)
			on, err := w.clause("ON", field+".on", t.On)
			if err != nil {
				return "", err
			}
			appendPart(&b, on)
		}
	}
	return b.String(), nil
}

// tableRef renders a table source with its alias.
func (w *writer) tableRef(field string, t queryir.TableRef) (string, error) {
	src, err := w.operand(field, t.Source)
	if err != nil {
		return "", err
	}
	if t.Alias != "" {
		src += " AS " + w.f.quote(t.Alias)
	}
	return src, nil
}

func (w *writer) insertSQL(s *queryir.Insert) (string, error) {
	verb, suffix, err := w.f.insertVerb(w, s.DialectArgs)
	if err != nil {
		return "", err
	}
	target, err := w.operand("table", s.Table.Source)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	b.WriteString(verb)
	b.WriteString(" ")
	b.WriteString(target)

	if s.Source != nil {
		if len(s.SourceColumns) == 0 {
			return "", queryir.Missing(w.op, "source_columns", "the source select reported no columns")
		}
		source, err := w.fragment("source", s.Source)
		if err != nil {
			return "", err
		}
		fmt.Fprintf(&b, " (%s) %s", w.identList(s.SourceColumns), source)
		b.WriteString(suffix)
		return b.String(), nil
	}

	cols := s.Rows[0].Columns()
	fmt.Fprintf(&b, " (%s) VALUES ", w.identList(cols))
	for i, row := range s.Rows {
		if i > 0 {
			b.WriteString(", ")
		}
		vals := make([]string, len(cols))
		for j, col := range cols {
			v, _ := row.Lookup(col)
			lit, err := w.literal(fmt.Sprintf("values[%d].%s", i, col), v)
			if err != nil {
				return "", err
			}
			vals[j] = lit
		}
		b.WriteString("(" + strings.Join(vals, ", ") + ")")
	}
	b.WriteString(suffix)
	return b.String(), nil
}

func (w *writer) updateSQL(s *queryir.Update) (string, error) {
	target, err := w.tableRef("table", s.Table)
	if err != nil {
		return "", err
	}
	sets := make([]string, len(s.Set))
	for i, f := range s.Set {
		lit, err := w.literal(fmt.Sprintf("set[%d].value", i), f.Value)
		if err != nil {
			return "", err
		}
		sets[i] = w.ident(f.Column) + " = " + lit
	}

	var b strings.Builder
	b.WriteString("UPDATE " + target + " SET " + strings.Join(sets, ", "))
	where, err := w.clause("WHERE", "where", s.Where)
	if err != nil {
		return "", err
	}
	appendPart(&b, where)
	return b.String(), nil
}

func (w *writer) deleteSQL(s *queryir.Delete) (string, error) {
	target, err := w.tableRef("table", s.Table)
	if err != nil {
		return "", err
	}
	var b strings.Builder
	b.WriteString("DELETE FROM " + target)
	where, err := w.clause("WHERE", "where", s.Where)
	if err != nil {
		return "", err
	}
	appendPart(&b, where)
	return b.String(), nil
}

// clause renders a WHERE, HAVING or ON condition sequence. The first
// condition takes keyword in place of its connective.
func (w *writer) clause(keyword, field string, conds []queryir.Condition) (string, error) {
	parts := make([]string, 0, len(conds))
	for i, c := range conds {
		cf := fmt.Sprintf("%s[%d]", field, i)
		tokens := []string{keyword}
		if i > 0 {
			tokens[0] = c.Connective.Keyword()
		}

		left, err := w.operand(cf+".left", c.Left)
		if err != nil {
			return "", err
		}
		right, err := w.operand(cf+".right", c.Right)
		if err != nil {
			return "", err
		}

		// With nothing to compare only the connective and brackets are
		// kept; NOT has nothing to negate and is dropped.
		if left == "" && right == "" {
			if brackets := c.StartBrackets + c.EndBrackets; brackets != "" {
				tokens = append(tokens, brackets)
			}
			parts = append(parts, strings.Join(tokens, " "))
			continue
		}

		if c.Not {
			tokens = append(tokens, "NOT")
		}
		op := c.Operator
		if op == "" && left != "" && right != "" {
			op = "="
		}
		body := make([]string, 0, 3)
		for _, s := range []string{left, op, right} {
			if s != "" {
				body = append(body, s)
			}
		}
		tokens = append(tokens, c.StartBrackets+strings.Join(body, " ")+c.EndBrackets)
		parts = append(parts, strings.Join(tokens, " "))
	}
	return strings.Join(parts, " "), nil
}

// operand renders op; nil renders as "".
func (w *writer) operand(field string, op queryir.Operand) (string, error) {
	switch o := op.(type) {
	case nil:
		return "", nil
	case queryir.Raw:
		return string(o), nil
	case queryir.Ident:
		return w.ident(string(o)), nil
	case queryir.Literal:
		return w.literal(field, o.Value)
	case queryir.Sub:
		frag, err := w.fragment(field, o.Query)
		if err != nil {
			return "", err
		}
		return "(" + frag + ")", nil
	default:
		return "", queryir.Invalid(w.op, field, "unsupported operand %T", op)
	}
}

func (w *writer) operandList(field string, ops []queryir.Operand) (string, error) {
	parts := make([]string, len(ops))
	for i, op := range ops {
		s, err := w.operand(fmt.Sprintf("%s[%d]", field, i), op)
		if err != nil {
			return "", err
		}
		parts[i] = s
	}
	return strings.Join(parts, ", "), nil
}

// fragment returns the unterminated render of an embedded select.
func (w *writer) fragment(field string, q queryir.Subquery) (string, error) {
	if q == nil {
		return "", queryir.Missing(w.op, field, "subquery is nil")
	}
	if !q.IsSelect() {
		return "", queryir.Invalid(w.op, field, "only a select can be embedded")
	}
	frag, err := q.Fragment()
	if err != nil {
		return "", fmt.Errorf("%s: %w", field, err)
	}
	return frag, nil
}

// literal renders v as an inline SQL literal.
func (w *writer) literal(field string, v ir.Value) (string, error) {
	switch val := v.(type) {
	case nil:
		return "", queryir.Missing(w.op, field, "value is required")
	case ir.Null:
		return "NULL", nil
	case ir.String:
		return w.quoted(string(val)), nil
	case ir.Int:
		return ir.FormatInt(val), nil
	case ir.Float:
		if math.IsNaN(float64(val)) || math.IsInf(float64(val), 0) {
			return "", queryir.Invalid(w.op, field, "%s has no SQL literal", ir.Describe(val))
		}
		return ir.FormatFloat(val), nil
	case ir.Bool:
		return w.f.boolean(bool(val)), nil
	case ir.Time:
		return w.quoted(ir.FormatTime(val)), nil
	case ir.UUID:
		return w.quoted(val.String()), nil
	case ir.List:
		if len(val) == 0 {
			// An empty IN list is not valid SQL; (NULL) matches nothing.
			return "(NULL)", nil
		}
		parts := make([]string, len(val))
		for i, elem := range val {
			s, err := w.literal(fmt.Sprintf("%s[%d]", field, i), elem)
			if err != nil {
				return "", err
			}
			parts[i] = s
		}
		return "(" + strings.Join(parts, ", ") + ")", nil
	case ir.Func:
		return string(val), nil
	default:
		return "", queryir.Invalid(w.op, field, "unsupported value %T", v)
	}
}

// quoted escapes and quotes a string literal body.
func (w *writer) quoted(s string) string {
	return "'" + macro.Escape(w.esc.EscapeLiteral(ir.Normalize(s))) + "'"
}

// ident quotes a possibly qualified identifier. "*" parts stay bare.
func (w *writer) ident(name string) string {
	parts := strings.Split(name, ".")
	for i, p := range parts {
		if p != "*" {
			parts[i] = w.f.quote(p)
		}
	}
	return strings.Join(parts, ".")
}

func (w *writer) identList(names []string) string {
	parts := make([]string, len(names))
	for i, n := range names {
		parts[i] = w.ident(n)
	}
	return strings.Join(parts, ", ")
}

// checkArgs rejects dialect arguments outside allowed.
func (w *writer) checkArgs(args map[string]string, allowed ...string) error {
	var unknown []string
	for k := range args {
		if !contains(allowed, k) {
			unknown = append(unknown, k)
		}
	}
	if len(unknown) == 0 {
		return nil
	}
	sort.Strings(unknown)
	return queryir.Unsupported(w.op, "dialect_args", "unknown argument(s) %s", strings.Join(unknown, ", "))
}

func appendPart(b *strings.Builder, part string) {
	if part == "" {
		return
	}
	b.WriteString(" ")
	b.WriteString(part)
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

var standardJoins = map[queryir.JoinType]string{
	queryir.JoinInner:             "INNER JOIN",
	queryir.JoinCross:             "CROSS JOIN",
	queryir.JoinStraight:          "STRAIGHT_JOIN",
	queryir.JoinLeft:              "LEFT JOIN",
	queryir.JoinRight:             "RIGHT JOIN",
	queryir.JoinNatural:           "NATURAL JOIN",
	queryir.JoinNaturalLeft:       "NATURAL LEFT JOIN",
	queryir.JoinNaturalRight:      "NATURAL RIGHT JOIN",
	queryir.JoinLeftOuter:         "LEFT OUTER JOIN",
	queryir.JoinRightOuter:        "RIGHT OUTER JOIN",
	queryir.JoinNaturalLeftOuter:  "NATURAL LEFT OUTER JOIN",
	queryir.JoinNaturalRightOuter: "NATURAL RIGHT OUTER JOIN",
}

// standardJoin maps j using the MySQL vocabulary; products without
// STRAIGHT_JOIN get INNER JOIN.
func standardJoin(j queryir.JoinType, straight bool) string {
	if j == queryir.JoinStraight && !straight {
		return "INNER JOIN"
	}
	if kw, ok := standardJoins[j]; ok {
		return kw
	}
	return "JOIN"
}
