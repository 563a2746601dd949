// Package builder is the query builder applications use.
//
// A Builder is configured exactly once with one operation (Select, Insert,
// Update, ...), then either fetched through its Connection or embedded in
// another builder as a subquery:
//
//	b := builder.New(conn, querysql.MySQL())
//	rows, err := b.Select(queryir.Select{
//		Tables: []queryir.TableRef{queryir.Table("users")},
//		Where:  []queryir.Condition{queryir.Eq("active", ir.Bool(true))},
//	}).Rows(ctx)
//
// Rendering happens lazily on first use and is memoized. Every SQL call
// pipes the memoized text through macro resolution again; resolution of
// already resolved text is a no-op, so the cache holds the raw render.
//
// A second configuration call is ignored: the builder keeps its first
// operation, logs a warning and reports ErrAlreadyConfigured from Err.
//
// Builders are not safe for concurrent use. Rendering independent builder
// trees concurrently is safe as long as no builder is reachable from two
// goroutines.
package builder
