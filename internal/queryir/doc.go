// Package queryir provides the intermediate representation of one database
// operation before it is rendered to SQL text.
//
// ARCHITECTURE:
//
//	[builder calls / query documents] → [Statement] → [querysql.Dialect] → [macro.Resolve]
//
// A Statement describes intent only: which tables, columns, conditions,
// joins, grouping, ordering, pagination and DDL attributes. It never holds
// SQL text for literal values; those are ir.Value and are escaped by the
// dialect at render time.
//
// SEALED INTERFACES:
//
// Statement and Operand are sealed interfaces using the marker method
// pattern. Only types in this package implement them, which lets renderers
// use exhaustive type switches:
//
//	switch s := stmt.(type) {
//	case *Select:
//	    // Handle select
//	case *Insert:
//	    // Handle insert
//	default:
//	    // Impossible - all Statement types are known
//	}
//
// OPERANDS:
//
// A condition side, a select column, a grouping or ordering key and a table
// source are all Operands:
//
//	Raw      column name or expression, emitted verbatim
//	Ident    identifier, quoted by the dialect
//	Literal  ir.Value, escaped and quoted by the dialect
//	Sub      embedded select, parenthesized render of another builder
//
// CONDITIONS:
//
// WHERE, HAVING and ON share one Condition shape. Conditions render strictly
// in sequence; the first condition of a clause always renders with the
// clause keyword instead of its connective. Bracket strings are raw caller
// groupings: Validate checks their characters, never their balance.
//
// VALIDATION:
//
// Validate reports structural problems (no table, a view without its
// select, an ALTER with nothing to do) as *QueryError values. Every such
// error is a malformed query and IsMalformed reports true for it.
package queryir
