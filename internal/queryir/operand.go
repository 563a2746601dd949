package queryir

import (
	"fmt"
	"strings"

	"github.com/roach88/metasql/internal/ir"
)

// Operand is one side of a condition, a select column, a grouping or
// ordering key, or a table source.
//
// This is a sealed interface - only types in this package implement it.
type Operand interface {
	operandNode() // Marker method - seals interface to this package
}

// Raw is a column name or expression emitted verbatim. Correctness is the
// caller's responsibility; meta-macros inside it are resolved after render.
type Raw string

func (Raw) operandNode() {}

// Ident is an identifier quoted by the dialect. Dots split qualified names:
// Ident("app.users") renders as `app`.`users` in MySQL.
type Ident string

func (Ident) operandNode() {}

// Literal is a value escaped and quoted by the dialect.
type Literal struct {
	Value ir.Value
}

func (Literal) operandNode() {}

// Sub embeds another builder's select, parenthesized.
type Sub struct {
	Query Subquery
}

func (Sub) operandNode() {}

// Col returns a Raw operand for a column name or expression.
func Col(expr string) Raw { return Raw(expr) }

// Lit returns a Literal operand.
func Lit(v ir.Value) Literal { return Literal{Value: v} }

// SubOf returns a Sub operand embedding q.
func SubOf(q Subquery) Sub { return Sub{Query: q} }

// JoinType selects how a table joins the tables before it.
type JoinType int

const (
	JoinNone JoinType = iota // comma separated source (or the FROM table itself)
	JoinInner
	JoinCross
	JoinStraight
	JoinLeft
	JoinRight
	JoinNatural
	JoinNaturalLeft
	JoinNaturalRight
	JoinLeftOuter
	JoinRightOuter
	JoinNaturalLeftOuter
	JoinNaturalRightOuter
)

// joinCodes is the fixed short-code vocabulary accepted by ParseJoinType.
var joinCodes = map[string]JoinType{
	"":    JoinNone,
	"i":   JoinInner,
	"c":   JoinCross,
	"s":   JoinStraight,
	"l":   JoinLeft,
	"r":   JoinRight,
	"n":   JoinNatural,
	"nl":  JoinNaturalLeft,
	"nr":  JoinNaturalRight,
	"lo":  JoinLeftOuter,
	"ro":  JoinRightOuter,
	"nlo": JoinNaturalLeftOuter,
	"nro": JoinNaturalRightOuter,

	"inner":               JoinInner,
	"cross":               JoinCross,
	"straight":            JoinStraight,
	"left":                JoinLeft,
	"right":               JoinRight,
	"natural":             JoinNatural,
	"natural-left":        JoinNaturalLeft,
	"natural-right":       JoinNaturalRight,
	"left-outer":          JoinLeftOuter,
	"right-outer":         JoinRightOuter,
	"natural-left-outer":  JoinNaturalLeftOuter,
	"natural-right-outer": JoinNaturalRightOuter,
}

// ParseJoinType maps a short code ("l", "nlo") or long code ("left",
// "natural-left-outer") to a JoinType. Case insensitive.
func ParseJoinType(code string) (JoinType, error) {
	jt, ok := joinCodes[strings.ToLower(strings.TrimSpace(code))]
	if !ok {
		return JoinNone, fmt.Errorf("unknown join type %q", code)
	}
	return jt, nil
}

// Natural reports whether the join takes no ON clause by definition.
func (j JoinType) Natural() bool {
	switch j {
	case JoinNatural, JoinNaturalLeft, JoinNaturalRight, JoinNaturalLeftOuter, JoinNaturalRightOuter:
		return true
	}
	return false
}

// TableRef is a table source with optional alias and join.
type TableRef struct {
	Source Operand // Ident, Raw or Sub
	Alias  string
	Join   JoinType
	On     []Condition
}

// Table returns a TableRef for a quoted table name.
func Table(name string) TableRef {
	return TableRef{Source: Ident(name)}
}

// RawTable returns a TableRef whose source is emitted verbatim.
func RawTable(expr string) TableRef {
	return TableRef{Source: Raw(expr)}
}

// SubTable returns a TableRef selecting from a subquery.
func SubTable(q Subquery, alias string) TableRef {
	return TableRef{Source: Sub{Query: q}, Alias: alias}
}

// As returns a copy of t with the given alias.
func (t TableRef) As(alias string) TableRef {
	t.Alias = alias
	return t
}

// Joined returns a copy of t joined with jt on the given conditions.
func (t TableRef) Joined(jt JoinType, on ...Condition) TableRef {
	t.Join = jt
	t.On = on
	return t
}

// Connective joins a condition to the one before it.
type Connective int

const (
	ConnDefault Connective = iota // renders as AND
	ConnAnd
	ConnOr
)

// Keyword returns the normalized connective keyword: AND unless OR.
func (c Connective) Keyword() string {
	if c == ConnOr {
		return "OR"
	}
	return "AND"
}

// ParseConnective normalizes "and"/"or"/"" to a Connective.
func ParseConnective(s string) (Connective, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "":
		return ConnDefault, nil
	case "AND":
		return ConnAnd, nil
	case "OR":
		return ConnOr, nil
	default:
		return ConnDefault, fmt.Errorf("unknown connective %q", s)
	}
}

// Condition is one comparison in a WHERE, HAVING or ON sequence.
//
// Semantics:
//
//	<connective> [NOT] <StartBrackets><Left> <Operator> <Right><EndBrackets>
//
// Operator defaults to "=". Either side may be nil (e.g. "EXISTS" with only
// a Right subquery, "IS NULL" with only a Left column).
type Condition struct {
	StartBrackets string
	Connective    Connective
	Not           bool
	Left          Operand
	Operator      string
	Right         Operand
	EndBrackets   string
}

// Where builds a condition comparing left and right with op.
func Where(left Operand, op string, right Operand) Condition {
	return Condition{Left: left, Operator: op, Right: right}
}

// Eq builds "column = literal".
func Eq(column string, v ir.Value) Condition {
	return Condition{Left: Raw(column), Operator: "=", Right: Literal{Value: v}}
}

// Or returns a copy of c connected with OR.
func (c Condition) Or() Condition {
	c.Connective = ConnOr
	return c
}

// And returns a copy of c connected with AND.
func (c Condition) And() Condition {
	c.Connective = ConnAnd
	return c
}

// Negate returns a copy of c prefixed with NOT.
func (c Condition) Negate() Condition {
	c.Not = true
	return c
}

// Open returns a copy of c with brackets opened before it.
func (c Condition) Open(brackets string) Condition {
	c.StartBrackets = brackets
	return c
}

// Close returns a copy of c with brackets closed after it.
func (c Condition) Close(brackets string) Condition {
	c.EndBrackets = brackets
	return c
}

// ColumnSpec is one entry of a select list.
type ColumnSpec struct {
	Expr  Operand
	Alias string
}

// Column returns a ColumnSpec for a raw column or expression.
func Column(expr string) ColumnSpec {
	return ColumnSpec{Expr: Raw(expr)}
}

// As returns a copy of c with the given alias.
func (c ColumnSpec) As(alias string) ColumnSpec {
	c.Alias = alias
	return c
}

// Direction is an ORDER BY direction.
type Direction int

const (
	DirNone Direction = iota
	DirAsc
	DirDesc
)

// ParseDirection normalizes "asc"/"desc"/"".
func ParseDirection(s string) (Direction, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "":
		return DirNone, nil
	case "ASC":
		return DirAsc, nil
	case "DESC":
		return DirDesc, nil
	default:
		return DirNone, fmt.Errorf("unknown order direction %q", s)
	}
}

// OrderExpr is one ORDER BY key.
type OrderExpr struct {
	Expr      Operand
	Direction Direction
}

// Asc orders by a raw column ascending.
func Asc(expr string) OrderExpr { return OrderExpr{Expr: Raw(expr), Direction: DirAsc} }

// Desc orders by a raw column descending.
func Desc(expr string) OrderExpr { return OrderExpr{Expr: Raw(expr), Direction: DirDesc} }
