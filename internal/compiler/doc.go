// Package compiler turns query documents into queryir statements.
//
// A query document describes one statement as data. The same tree is
// accepted as YAML (CompileYAML) or CUE (CompileCUE); CUE documents get
// source positions in their errors. A minimal select:
//
//	operation: select
//	columns: [id, {expr: "&Upper(name)", as: name}]
//	tables: [users]
//	where:
//	  - {left: active, value: true}
//	order: [id desc]
//	per_page: 20
//
// Nested selects (insert sources, view sources, subquery tables, columns
// and operands) become subqueries through the Nester supplied by the
// caller, normally a function returning a configured builder.
//
// The compiler only checks document shape. Whether the statement is
// complete is decided when it is rendered.
package compiler
