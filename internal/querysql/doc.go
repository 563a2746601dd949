// Package querysql renders queryir statements into SQL for one database
// product and expands the portable macros embedded in that SQL.
//
// # Dialects
//
// A Dialect does three jobs:
//   - Render turns a validated Statement into one complete SQL text ending
//     in ";". Products that cannot express a request in one statement get
//     several, separated by ";\n".
//   - Translate expands a single macro call for macro.Resolve.
//   - EscapeLiteral is the product's string escaping, used when the
//     connection does not supply its own.
//
// MySQL is the reference dialect. PostgreSQL and SQLite follow the same
// contract and report requests they cannot express as
// queryir.ErrCodeUnsupported errors.
//
// # Literals
//
// Values are rendered inline, never bound. Strings are NFC normalized,
// escaped by the Escaper, marker escaped with macro.Escape and quoted, so
// data can never trigger a macro expansion. ir.Func is emitted verbatim
// and may contain macros.
//
// # Clauses
//
// WHERE, HAVING and ON share one renderer. The first condition always
// renders with the clause keyword; later conditions render their
// connective, AND unless OR was requested.
package querysql
