// Package store is the database/sql backed connection the builder runs
// its SQL through.
//
// One Store wraps one *sql.DB for one dialect. It satisfies
// builder.Connection: Exec runs statements, Query reads a full result set
// with column metadata, and EscapeLiteral applies the dialect's string
// escaping.
//
// # Drivers
//
//   - sqlite: github.com/mattn/go-sqlite3, one connection, pragmas applied
//   - mysql: github.com/go-sql-driver/mysql, DSN normalized with
//     multiStatements and parseTime enabled
//   - postgres: github.com/lib/pq, URL DSNs converted to key/value form
//
// Multi-statement DDL renders are sent in one Exec call; every driver
// above accepts that for queries without arguments.
package store
