package querysql

import (
	"fmt"
	"sort"
	"strings"

	"github.com/roach88/metasql/internal/macro"
	"github.com/roach88/metasql/internal/queryir"
)

// Escaper escapes the body of a string literal. The result must be safe
// between single quotes; the renderer adds the quotes.
type Escaper interface {
	EscapeLiteral(s string) string
}

// EscaperFunc adapts a function to the Escaper interface.
type EscaperFunc func(s string) string

// EscapeLiteral calls f(s).
func (f EscaperFunc) EscapeLiteral(s string) string { return f(s) }

// Dialect renders statements and translates macros for one product.
type Dialect interface {
	Escaper
	macro.Translator

	// Name is the canonical dialect name, e.g. "mysql".
	Name() string

	// Render validates stmt and renders it. A nil esc uses the dialect's
	// own EscapeLiteral. The returned text is not macro resolved.
	Render(stmt queryir.Statement, esc Escaper) (string, error)
}

var constructors = map[string]func() Dialect{
	"mysql":      MySQL,
	"postgres":   Postgres,
	"postgresql": Postgres,
	"sqlite":     SQLite,
	"sqlite3":    SQLite,
}

// New returns the dialect registered under name (case-insensitive).
func New(name string) (Dialect, error) {
	ctor, ok := constructors[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return nil, fmt.Errorf("unknown dialect %q (known: %s)", name, strings.Join(Names(), ", "))
	}
	return ctor(), nil
}

// Names returns the canonical dialect names, sorted.
func Names() []string {
	return []string{"mysql", "postgres", "sqlite"}
}

// Aliases returns every accepted dialect name, sorted.
func Aliases() []string {
	names := make([]string, 0, len(constructors))
	for n := range constructors {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// flavor holds everything that differs between products.
// Statements are returned without terminators.
type flavor interface {
	quote(ident string) string
	boolean(b bool) string
	limit(count, offset int) string
	join(j queryir.JoinType) string
	insertVerb(w *writer, args map[string]string) (verb, suffix string, err error)

	createTable(w *writer, s *queryir.CreateTable) ([]string, error)
	alterTable(w *writer, s *queryir.AlterTable) ([]string, error)
	checkTable(w *writer, s *queryir.CheckTable) ([]string, error)
	truncateTable(w *writer, s *queryir.TruncateTable) []string
	dropTable(w *writer, s *queryir.DropTable) []string
	createView(w *writer, s *queryir.CreateView, source string) []string
	dropView(w *writer, s *queryir.DropView) []string
}

// dialect is the Dialect implementation shared by every product.
type dialect struct {
	name   string
	flavor flavor
	macros macroTable
	escape func(string) string
}

func (d *dialect) Name() string { return d.name }

func (d *dialect) EscapeLiteral(s string) string { return d.escape(s) }

func (d *dialect) Translate(name string, args []string) (string, bool) {
	return d.macros.translate(name, args)
}

func (d *dialect) Render(stmt queryir.Statement, esc Escaper) (string, error) {
	if err := queryir.Validate(stmt); err != nil {
		return "", err
	}
	if esc == nil {
		esc = d
	}
	w := &writer{f: d.flavor, esc: esc, op: stmt.Operation()}
	return w.statement(stmt)
}
