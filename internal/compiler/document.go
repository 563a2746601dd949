package compiler

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/roach88/metasql/internal/ir"
	"github.com/roach88/metasql/internal/queryir"
)

// Nester turns a nested select into an embeddable subquery.
type Nester func(q *queryir.Select) queryir.Subquery

// Compile converts a decoded document tree into a statement. The tree is
// what yaml.v3 or cue.Value.Decode produce for an `any` target: objects as
// map[string]any, lists as []any and scalars as Go values.
func Compile(doc map[string]any, nest Nester) (queryir.Statement, error) {
	c := &compiler{nest: nest}
	return c.statement("", doc)
}

type compiler struct {
	nest Nester
}

func (c *compiler) statement(path string, m map[string]any) (queryir.Statement, error) {
	op, err := required(m, path, "operation")
	if err != nil {
		return nil, err
	}

	switch strings.ToLower(strings.TrimSpace(op)) {
	case "select":
		return c.selectStmt(path, m)
	case "insert":
		return c.insert(path, m)
	case "update":
		return c.update(path, m)
	case "delete":
		return c.delete(path, m)
	case "create_table":
		return c.createTable(path, m)
	case "alter_table":
		return c.alterTable(path, m)
	case "truncate_table":
		return truncateTable(path, m)
	case "drop_table":
		return dropTable(path, m)
	case "create_view":
		return c.createView(path, m)
	case "drop_view":
		return dropView(path, m)
	case "check_table":
		return checkTable(path, m)
	case "custom":
		return custom(path, m)
	default:
		return nil, fieldError(join(path, "operation"), "unknown operation %q", op)
	}
}

func (c *compiler) selectStmt(path string, m map[string]any) (*queryir.Select, error) {
	if err := allow(m, path, "operation", "distinct", "columns", "tables", "where",
		"group", "having", "order", "per_page", "page"); err != nil {
		return nil, err
	}

	q := &queryir.Select{}
	var err error
	if q.Distinct, err = boolean(m, path, "distinct"); err != nil {
		return nil, err
	}

	cols, err := list(m, path, "columns")
	if err != nil {
		return nil, err
	}
	for i, v := range cols {
		col, err := c.column(index(join(path, "columns"), i), v)
		if err != nil {
			return nil, err
		}
		q.Columns = append(q.Columns, col)
	}

	tables, err := list(m, path, "tables")
	if err != nil {
		return nil, err
	}
	for i, v := range tables {
		t, err := c.tableRef(index(join(path, "tables"), i), v)
		if err != nil {
			return nil, err
		}
		q.Tables = append(q.Tables, t)
	}

	if q.Where, err = c.conditions(m, path, "where"); err != nil {
		return nil, err
	}
	if q.Having, err = c.conditions(m, path, "having"); err != nil {
		return nil, err
	}

	group, err := list(m, path, "group")
	if err != nil {
		return nil, err
	}
	for i, v := range group {
		op, err := c.operand(index(join(path, "group"), i), v)
		if err != nil {
			return nil, err
		}
		q.Group = append(q.Group, op)
	}

	order, err := list(m, path, "order")
	if err != nil {
		return nil, err
	}
	for i, v := range order {
		o, err := c.orderExpr(index(join(path, "order"), i), v)
		if err != nil {
			return nil, err
		}
		q.Order = append(q.Order, o)
	}

	if q.PerPage, err = integer(m, path, "per_page"); err != nil {
		return nil, err
	}
	if q.Page, err = integer(m, path, "page"); err != nil {
		return nil, err
	}
	return q, nil
}

// column accepts "expr" or {expr|ident|value|select, as}.
func (c *compiler) column(path string, v any) (queryir.ColumnSpec, error) {
	if s, ok := v.(string); ok {
		return queryir.Column(s), nil
	}
	m, err := object(path, v)
	if err != nil {
		return queryir.ColumnSpec{}, err
	}
	if err := allow(m, path, "expr", "ident", "value", "func", "select", "as"); err != nil {
		return queryir.ColumnSpec{}, err
	}
	expr, err := c.operandObject(path, m)
	if err != nil {
		return queryir.ColumnSpec{}, err
	}
	alias, err := str(m, path, "as")
	if err != nil {
		return queryir.ColumnSpec{}, err
	}
	return queryir.ColumnSpec{Expr: expr, Alias: alias}, nil
}

// tableRef accepts "name" or {name|raw|select, as, join, on}.
func (c *compiler) tableRef(path string, v any) (queryir.TableRef, error) {
	if s, ok := v.(string); ok {
		return queryir.Table(s), nil
	}
	m, err := object(path, v)
	if err != nil {
		return queryir.TableRef{}, err
	}
	if err := allow(m, path, "name", "raw", "select", "as", "join", "on"); err != nil {
		return queryir.TableRef{}, err
	}

	var t queryir.TableRef
	switch present(m, "name", "raw", "select") {
	case "name":
		name, err := str(m, path, "name")
		if err != nil {
			return t, err
		}
		t.Source = queryir.Ident(name)
	case "raw":
		raw, err := str(m, path, "raw")
		if err != nil {
			return t, err
		}
		t.Source = queryir.Raw(raw)
	case "select":
		sub, err := c.subquery(join(path, "select"), m["select"])
		if err != nil {
			return t, err
		}
		t.Source = queryir.Sub{Query: sub}
	default:
		return t, fieldError(path, "exactly one of name, raw or select is required")
	}

	if t.Alias, err = str(m, path, "as"); err != nil {
		return t, err
	}
	code, err := str(m, path, "join")
	if err != nil {
		return t, err
	}
	if t.Join, err = queryir.ParseJoinType(code); err != nil {
		return t, fieldError(join(path, "join"), "%v", err)
	}
	if t.On, err = c.conditions(m, path, "on"); err != nil {
		return t, err
	}
	return t, nil
}

// conditions reads a list of {left, op, right|value, conn, not, open, close}.
func (c *compiler) conditions(m map[string]any, path, key string) ([]queryir.Condition, error) {
	items, err := list(m, path, key)
	if err != nil {
		return nil, err
	}
	var conds []queryir.Condition
	for i, v := range items {
		p := index(join(path, key), i)
		cm, err := object(p, v)
		if err != nil {
			return nil, err
		}
		cond, err := c.condition(p, cm)
		if err != nil {
			return nil, err
		}
		conds = append(conds, cond)
	}
	return conds, nil
}

func (c *compiler) condition(path string, m map[string]any) (queryir.Condition, error) {
	var cond queryir.Condition
	if err := allow(m, path, "left", "op", "right", "value", "conn", "not", "open", "close"); err != nil {
		return cond, err
	}

	var err error
	if v, ok := lookup(m, "left"); ok {
		if cond.Left, err = c.operand(join(path, "left"), v); err != nil {
			return cond, err
		}
	}
	_, hasRight := lookup(m, "right")
	_, hasValue := m["value"]
	switch {
	case hasRight && hasValue:
		return cond, fieldError(path, "set only one of right and value")
	case hasRight:
		if cond.Right, err = c.operand(join(path, "right"), m["right"]); err != nil {
			return cond, err
		}
	case hasValue:
		val, err := literal(join(path, "value"), m["value"])
		if err != nil {
			return cond, err
		}
		cond.Right = queryir.Lit(val)
	}

	if cond.Operator, err = str(m, path, "op"); err != nil {
		return cond, err
	}
	conn, err := str(m, path, "conn")
	if err != nil {
		return cond, err
	}
	if cond.Connective, err = queryir.ParseConnective(conn); err != nil {
		return cond, fieldError(join(path, "conn"), "%v", err)
	}
	if cond.Not, err = boolean(m, path, "not"); err != nil {
		return cond, err
	}
	if cond.StartBrackets, err = str(m, path, "open"); err != nil {
		return cond, err
	}
	if cond.EndBrackets, err = str(m, path, "close"); err != nil {
		return cond, err
	}
	return cond, nil
}

// operand accepts "raw expression" or {expr|ident|value|func|select}.
func (c *compiler) operand(path string, v any) (queryir.Operand, error) {
	if s, ok := v.(string); ok {
		return queryir.Raw(s), nil
	}
	m, err := object(path, v)
	if err != nil {
		return nil, err
	}
	if err := allow(m, path, "expr", "ident", "value", "func", "select"); err != nil {
		return nil, err
	}
	return c.operandObject(path, m)
}

func (c *compiler) operandObject(path string, m map[string]any) (queryir.Operand, error) {
	switch present(m, "expr", "ident", "value", "func", "select") {
	case "expr":
		s, err := str(m, path, "expr")
		return queryir.Raw(s), err
	case "ident":
		s, err := str(m, path, "ident")
		return queryir.Ident(s), err
	case "value":
		val, err := literal(join(path, "value"), m["value"])
		if err != nil {
			return nil, err
		}
		return queryir.Lit(val), nil
	case "func":
		s, err := str(m, path, "func")
		return queryir.Lit(ir.Func(s)), err
	case "select":
		sub, err := c.subquery(join(path, "select"), m["select"])
		if err != nil {
			return nil, err
		}
		return queryir.SubOf(sub), nil
	default:
		return nil, fieldError(path, "exactly one of expr, ident, value, func or select is required")
	}
}

// orderExpr accepts "expr [asc|desc]" or {expr|ident, dir}.
func (c *compiler) orderExpr(path string, v any) (queryir.OrderExpr, error) {
	if s, ok := v.(string); ok {
		s = strings.TrimSpace(s)
		if i := strings.LastIndexByte(s, ' '); i > 0 {
			if dir, err := queryir.ParseDirection(s[i+1:]); err == nil && dir != queryir.DirNone {
				return queryir.OrderExpr{Expr: queryir.Raw(strings.TrimSpace(s[:i])), Direction: dir}, nil
			}
		}
		return queryir.OrderExpr{Expr: queryir.Raw(s)}, nil
	}
	m, err := object(path, v)
	if err != nil {
		return queryir.OrderExpr{}, err
	}
	if err := allow(m, path, "expr", "ident", "dir"); err != nil {
		return queryir.OrderExpr{}, err
	}
	expr, err := c.operandObject(path, m)
	if err != nil {
		return queryir.OrderExpr{}, err
	}
	d, err := str(m, path, "dir")
	if err != nil {
		return queryir.OrderExpr{}, err
	}
	dir, err := queryir.ParseDirection(d)
	if err != nil {
		return queryir.OrderExpr{}, fieldError(join(path, "dir"), "%v", err)
	}
	return queryir.OrderExpr{Expr: expr, Direction: dir}, nil
}

// subquery compiles a nested select document. "operation" may be omitted.
func (c *compiler) subquery(path string, v any) (queryir.Subquery, error) {
	m, err := object(path, v)
	if err != nil {
		return nil, err
	}
	if op, err := str(m, path, "operation"); err != nil {
		return nil, err
	} else if op != "" && !strings.EqualFold(op, "select") {
		return nil, fieldError(join(path, "operation"), "nested statement must be a select, got %q", op)
	}
	if c.nest == nil {
		return nil, fieldError(path, "nested selects are not supported here")
	}
	q, err := c.selectStmt(path, m)
	if err != nil {
		return nil, err
	}
	return c.nest(q), nil
}

func (c *compiler) insert(path string, m map[string]any) (*queryir.Insert, error) {
	if err := allow(m, path, "operation", "table", "columns", "values", "source", "args"); err != nil {
		return nil, err
	}

	q := &queryir.Insert{}
	t, ok := lookup(m, "table")
	if !ok {
		return nil, fieldError(join(path, "table"), "table is required")
	}
	var err error
	if q.Table, err = c.tableRef(join(path, "table"), t); err != nil {
		return nil, err
	}

	cols, err := stringList(m, path, "columns")
	if err != nil {
		return nil, err
	}
	rows, err := list(m, path, "values")
	if err != nil {
		return nil, err
	}
	for i, v := range rows {
		p := index(join(path, "values"), i)
		vals, ok := v.([]any)
		if !ok {
			return nil, fieldError(p, "must be a list, got %s", kindOf(v))
		}
		if len(vals) != len(cols) {
			return nil, fieldError(p, "has %d values for %d columns", len(vals), len(cols))
		}
		row := make(queryir.Row, len(cols))
		for j, raw := range vals {
			val, err := literal(index(p, j), raw)
			if err != nil {
				return nil, err
			}
			row[j] = queryir.Set(cols[j], val)
		}
		q.Rows = append(q.Rows, row)
	}

	if src, ok := lookup(m, "source"); ok {
		if len(q.Rows) > 0 {
			return nil, fieldError(join(path, "source"), "set only one of values and source")
		}
		if q.Source, err = c.subquery(join(path, "source"), src); err != nil {
			return nil, err
		}
		// An explicit column list skips metadata discovery.
		q.SourceColumns = cols
	}

	if q.DialectArgs, err = args(m, path, "args"); err != nil {
		return nil, err
	}
	return q, nil
}

func (c *compiler) update(path string, m map[string]any) (*queryir.Update, error) {
	if err := allow(m, path, "operation", "table", "set", "where"); err != nil {
		return nil, err
	}

	q := &queryir.Update{}
	t, ok := lookup(m, "table")
	if !ok {
		return nil, fieldError(join(path, "table"), "table is required")
	}
	var err error
	if q.Table, err = c.tableRef(join(path, "table"), t); err != nil {
		return nil, err
	}

	sets, err := list(m, path, "set")
	if err != nil {
		return nil, err
	}
	for i, v := range sets {
		p := index(join(path, "set"), i)
		sm, err := object(p, v)
		if err != nil {
			return nil, err
		}
		if err := allow(sm, p, "column", "value", "func"); err != nil {
			return nil, err
		}
		col, err := required(sm, p, "column")
		if err != nil {
			return nil, err
		}
		var val ir.Value
		switch present(sm, "value", "func") {
		case "value":
			if val, err = literal(join(p, "value"), sm["value"]); err != nil {
				return nil, err
			}
		case "func":
			fn, err := str(sm, p, "func")
			if err != nil {
				return nil, err
			}
			val = ir.Func(fn)
		default:
			return nil, fieldError(p, "exactly one of value or func is required")
		}
		q.Set = append(q.Set, queryir.Set(col, val))
	}

	if q.Where, err = c.conditions(m, path, "where"); err != nil {
		return nil, err
	}
	return q, nil
}

func (c *compiler) delete(path string, m map[string]any) (*queryir.Delete, error) {
	if err := allow(m, path, "operation", "table", "where"); err != nil {
		return nil, err
	}

	q := &queryir.Delete{}
	t, ok := lookup(m, "table")
	if !ok {
		return nil, fieldError(join(path, "table"), "table is required")
	}
	var err error
	if q.Table, err = c.tableRef(join(path, "table"), t); err != nil {
		return nil, err
	}
	if q.Where, err = c.conditions(m, path, "where"); err != nil {
		return nil, err
	}
	return q, nil
}

func (c *compiler) createView(path string, m map[string]any) (*queryir.CreateView, error) {
	if err := allow(m, path, "operation", "view", "columns", "source", "replace"); err != nil {
		return nil, err
	}

	q := &queryir.CreateView{}
	var err error
	if q.View, err = required(m, path, "view"); err != nil {
		return nil, err
	}
	if q.Columns, err = stringList(m, path, "columns"); err != nil {
		return nil, err
	}
	if q.Replace, err = boolean(m, path, "replace"); err != nil {
		return nil, err
	}
	src, ok := lookup(m, "source")
	if !ok {
		return nil, fieldError(join(path, "source"), "source is required")
	}
	if q.Source, err = c.subquery(join(path, "source"), src); err != nil {
		return nil, err
	}
	return q, nil
}

func truncateTable(path string, m map[string]any) (*queryir.TruncateTable, error) {
	if err := allow(m, path, "operation", "table"); err != nil {
		return nil, err
	}
	table, err := required(m, path, "table")
	if err != nil {
		return nil, err
	}
	return &queryir.TruncateTable{Table: table}, nil
}

func dropTable(path string, m map[string]any) (*queryir.DropTable, error) {
	if err := allow(m, path, "operation", "tables", "if_exists", "temporary"); err != nil {
		return nil, err
	}

	q := &queryir.DropTable{}
	var err error
	if q.Tables, err = stringList(m, path, "tables"); err != nil {
		return nil, err
	}
	if q.IfExists, err = boolean(m, path, "if_exists"); err != nil {
		return nil, err
	}
	if q.Temporary, err = temporary(m, path); err != nil {
		return nil, err
	}
	return q, nil
}

func dropView(path string, m map[string]any) (*queryir.DropView, error) {
	if err := allow(m, path, "operation", "views", "if_exists"); err != nil {
		return nil, err
	}

	q := &queryir.DropView{}
	var err error
	if q.Views, err = stringList(m, path, "views"); err != nil {
		return nil, err
	}
	if q.IfExists, err = boolean(m, path, "if_exists"); err != nil {
		return nil, err
	}
	return q, nil
}

func checkTable(path string, m map[string]any) (*queryir.CheckTable, error) {
	if err := allow(m, path, "operation", "tables", "args"); err != nil {
		return nil, err
	}

	q := &queryir.CheckTable{}
	var err error
	if q.Tables, err = stringList(m, path, "tables"); err != nil {
		return nil, err
	}
	if q.DialectArgs, err = args(m, path, "args"); err != nil {
		return nil, err
	}
	return q, nil
}

func custom(path string, m map[string]any) (*queryir.Custom, error) {
	if err := allow(m, path, "operation", "sql"); err != nil {
		return nil, err
	}
	sql, err := required(m, path, "sql")
	if err != nil {
		return nil, err
	}
	return &queryir.Custom{SQL: sql}, nil
}

// literal converts a document scalar or list to a literal value.
// {func: "..."} is a raw SQL function.
func literal(path string, v any) (ir.Value, error) {
	switch val := v.(type) {
	case map[string]any:
		if err := allow(val, path, "func"); err != nil {
			return nil, err
		}
		fn, err := required(val, path, "func")
		if err != nil {
			return nil, err
		}
		return ir.Func(fn), nil
	case []any:
		out := make(ir.List, len(val))
		for i, elem := range val {
			lit, err := literal(index(path, i), elem)
			if err != nil {
				return nil, err
			}
			out[i] = lit
		}
		return out, nil
	}
	lit, err := ir.FromGo(v)
	if err != nil {
		return nil, fieldError(path, "%v", err)
	}
	return lit, nil
}

// Tree accessors. Missing keys and explicit nulls read as zero values.

func join(path, key string) string {
	if path == "" {
		return key
	}
	return path + "." + key
}

func index(path string, i int) string {
	return fmt.Sprintf("%s[%d]", path, i)
}

func lookup(m map[string]any, key string) (any, bool) {
	v, ok := m[key]
	return v, ok && v != nil
}

// present returns the first of keys set in m, or "" when none or more than
// one is set.
func present(m map[string]any, keys ...string) string {
	found := ""
	for _, k := range keys {
		if _, ok := m[k]; !ok {
			continue
		}
		if found != "" {
			return ""
		}
		found = k
	}
	return found
}

// allow rejects keys outside the given set, so typos surface as errors.
func allow(m map[string]any, path string, keys ...string) error {
	var unknown []string
	for k := range m {
		known := false
		for _, want := range keys {
			if k == want {
				known = true
				break
			}
		}
		if !known {
			unknown = append(unknown, k)
		}
	}
	if len(unknown) == 0 {
		return nil
	}
	sort.Strings(unknown)
	return fieldError(join(path, unknown[0]), "unknown field")
}

func object(path string, v any) (map[string]any, error) {
	m, ok := v.(map[string]any)
	if !ok {
		return nil, fieldError(path, "must be an object, got %s", kindOf(v))
	}
	return m, nil
}

func str(m map[string]any, path, key string) (string, error) {
	v, ok := lookup(m, key)
	if !ok {
		return "", nil
	}
	s, ok := v.(string)
	if !ok {
		return "", fieldError(join(path, key), "must be a string, got %s", kindOf(v))
	}
	return s, nil
}

func required(m map[string]any, path, key string) (string, error) {
	s, err := str(m, path, key)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(s) == "" {
		return "", fieldError(join(path, key), "%s is required", key)
	}
	return s, nil
}

// scalar reads a string or number as text, e.g. a type length of 255 or
// "10,2".
func scalar(m map[string]any, path, key string) (string, error) {
	v, ok := lookup(m, key)
	if !ok {
		return "", nil
	}
	switch val := v.(type) {
	case string:
		return val, nil
	case int, int64, uint64:
		return fmt.Sprint(val), nil
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64), nil
	default:
		return "", fieldError(join(path, key), "must be a string or number, got %s", kindOf(v))
	}
}

func boolean(m map[string]any, path, key string) (bool, error) {
	v, ok := lookup(m, key)
	if !ok {
		return false, nil
	}
	b, ok := v.(bool)
	if !ok {
		return false, fieldError(join(path, key), "must be a boolean, got %s", kindOf(v))
	}
	return b, nil
}

func integer(m map[string]any, path, key string) (int, error) {
	v, ok := lookup(m, key)
	if !ok {
		return 0, nil
	}
	switch val := v.(type) {
	case int:
		return val, nil
	case int64:
		return int(val), nil
	case uint64:
		if val <= math.MaxInt32 {
			return int(val), nil
		}
	case float64:
		if val == math.Trunc(val) && math.Abs(val) <= math.MaxInt32 {
			return int(val), nil
		}
	}
	return 0, fieldError(join(path, key), "must be an integer, got %s", kindOf(v))
}

func list(m map[string]any, path, key string) ([]any, error) {
	v, ok := lookup(m, key)
	if !ok {
		return nil, nil
	}
	l, ok := v.([]any)
	if !ok {
		return nil, fieldError(join(path, key), "must be a list, got %s", kindOf(v))
	}
	return l, nil
}

// stringList reads a list of strings. A single string is a one-element list.
func stringList(m map[string]any, path, key string) ([]string, error) {
	v, ok := lookup(m, key)
	if !ok {
		return nil, nil
	}
	if s, ok := v.(string); ok {
		return []string{s}, nil
	}
	l, ok := v.([]any)
	if !ok {
		return nil, fieldError(join(path, key), "must be a list of strings, got %s", kindOf(v))
	}
	out := make([]string, len(l))
	for i, elem := range l {
		s, ok := elem.(string)
		if !ok {
			return nil, fieldError(index(join(path, key), i), "must be a string, got %s", kindOf(elem))
		}
		out[i] = s
	}
	return out, nil
}

// args reads dialect arguments. Scalars are stringified.
func args(m map[string]any, path, key string) (map[string]string, error) {
	v, ok := lookup(m, key)
	if !ok {
		return nil, nil
	}
	am, err := object(join(path, key), v)
	if err != nil {
		return nil, err
	}
	out := make(map[string]string, len(am))
	for k := range am {
		s, err := scalar(am, join(path, key), k)
		if err != nil {
			if b, ok := am[k].(bool); ok {
				s = strconv.FormatBool(b)
			} else {
				return nil, err
			}
		}
		out[k] = s
	}
	return out, nil
}

func temporary(m map[string]any, path string) (queryir.Temporary, error) {
	s, err := str(m, path, "temporary")
	if err != nil {
		return queryir.TempNormal, err
	}
	t, err := queryir.ParseTemporary(s)
	if err != nil {
		return queryir.TempNormal, fieldError(join(path, "temporary"), "%v", err)
	}
	return t, nil
}

func kindOf(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case map[string]any:
		return "object"
	case []any:
		return "list"
	case string:
		return "string"
	case bool:
		return "boolean"
	case int, int64, uint64, float64:
		return "number"
	default:
		return fmt.Sprintf("%T", v)
	}
}
