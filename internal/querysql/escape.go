package querysql

import "strings"

// mysqlEscaper escapes for MySQL string literals in the default SQL mode,
// where backslash is an escape character.
var mysqlEscaper = strings.NewReplacer(
	"\\", "\\\\",
	"'", "''",
	"\x00", "\\0",
	"\n", "\\n",
	"\r", "\\r",
	"\x1a", "\\Z",
)

// EscapeMySQL escapes s for use between single quotes in MySQL.
func EscapeMySQL(s string) string {
	return mysqlEscaper.Replace(s)
}

// EscapeStandard escapes s for standard conforming strings, as used by
// PostgreSQL and SQLite: only the quote is doubled.
func EscapeStandard(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}
