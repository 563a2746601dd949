package macro

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// upper is a translator that renders known names as upper-case calls and
// records every lookup.
type upper struct {
	known map[string]bool
	seen  []string
}

func newUpper(names ...string) *upper {
	u := &upper{known: make(map[string]bool)}
	for _, n := range names {
		u.known[n] = true
	}
	return u
}

func (u *upper) Translate(name string, args []string) (string, bool) {
	u.seen = append(u.seen, name)
	if !u.known[name] {
		return "", false
	}
	if name == "Now" {
		return "NOW()", true
	}
	return strings.ToUpper(name) + "(" + strings.Join(args, ", ") + ")", true
}

func TestResolve(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"no markers", "SELECT 1;", "SELECT 1;"},
		{"bare call", "SELECT &Now;", "SELECT NOW();"},
		{"call with args", "SELECT &Max(a, b) FROM t;", "SELECT MAX(a, b) FROM t;"},
		{"nested", "SELECT &Max(&Sum(amount)) FROM t;", "SELECT MAX(SUM(amount)) FROM t;"},
		{"deeply nested", "&Max(&Sum(&Max(x)))", "MAX(SUM(MAX(x)))"},
		{"nested parens in args", "&Max((a + b) * 2, c)", "MAX((a + b) * 2, c)"},
		{"adjacent", "&Now&Now", "NOW()NOW()"},
		{"escaped", "SELECT '&&Literal';", "SELECT '&Literal';"},
		{"escaped before call", "&&&Now", "&NOW()"},
		{"unknown kept", "SELECT &Nope(a, (b));", "SELECT &Nope(a, (b));"},
		{"unknown wraps known", "&Nope(&Max(x))", "&Nope(MAX(x))"},
		{"marker without name", "a & b", "a & b"},
		{"trailing marker", "a &", "a &"},
		{"unbalanced", "&Max(a", "&Max(a"},
		{"empty args", "&Max()", "MAX()"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := Resolve(tc.in, newUpper("Now", "Max", "Sum"))
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestResolve_EscapeSkipsLookup(t *testing.T) {
	tr := newUpper("Literal")
	got := Resolve("x &&Literal y", tr)

	assert.Equal(t, "x &Literal y", got)
	assert.Empty(t, tr.seen, "escaped marker must not be translated")
}

func TestResolve_SplitsTopLevelCommasOnly(t *testing.T) {
	var got []string
	tr := TranslatorFunc(func(name string, args []string) (string, bool) {
		if name == "F" {
			got = args
		}
		return name, true
	})

	Resolve("&F(a, &G(b, c), (d, e) ,  f )", tr)
	require.Len(t, got, 4)
	assert.Equal(t, []string{"a", "&G(b, c)", "(d, e)", "f"}, got)
}

func TestResolve_ArgsAreRaw(t *testing.T) {
	// The outer call sees its argument before the inner one is resolved.
	var outerArgs []string
	tr := TranslatorFunc(func(name string, args []string) (string, bool) {
		switch name {
		case "Outer":
			outerArgs = args
			return "OUTER(" + args[0] + ")", true
		case "Inner":
			return "INNER", true
		}
		return "", false
	})

	got := Resolve("&Outer(&Inner)", tr)
	assert.Equal(t, "OUTER(INNER)", got)
	assert.Equal(t, []string{"&Inner"}, outerArgs)
}

func TestResolve_TranslationEmittingMarkers(t *testing.T) {
	// Markers inside a translation are found by the re-scan, except at the
	// very start of the splice, which the scan has already passed.
	tr := TranslatorFunc(func(name string, args []string) (string, bool) {
		switch name {
		case "Avg":
			return "(&Sum(" + args[0] + ") / &Count(" + args[0] + "))", true
		case "Sum":
			return "SUM(" + args[0] + ")", true
		case "Count":
			return "COUNT(" + args[0] + ")", true
		}
		return "", false
	})

	assert.Equal(t, "(SUM(x) / COUNT(x))", Resolve("&Avg(x)", tr))
	assert.Equal(t, "&Sum(x)", Resolve("&Alias(x)", TranslatorFunc(func(name string, args []string) (string, bool) {
		if name == "Alias" {
			return "&Sum(" + args[0] + ")", true
		}
		return "SUM", true
	})))
}

func TestResolve_Idempotent(t *testing.T) {
	tr := newUpper("Now", "Max", "Sum")
	once := Resolve("SELECT &Max(&Sum(a)), &Now FROM t WHERE b = &Nope;", tr)
	twice := Resolve(once, tr)
	assert.Equal(t, once, twice)
}

func TestRemaining(t *testing.T) {
	tr := newUpper("Max")

	assert.Empty(t, Remaining("SELECT &Max(a), '&&Gone';", tr))
	assert.Equal(t, []string{"Foo", "Bar"}, Remaining("&Foo(&Max(x)) + &Bar", tr))
}

func TestEscape(t *testing.T) {
	assert.Equal(t, "AT&&T", Escape("AT&T"))
	assert.Equal(t, "plain", Escape("plain"))

	// Escaped data survives resolution unchanged.
	tr := newUpper("Max")
	for _, s := range []string{"AT&T", "&Max(x)", "&&", "&"} {
		assert.Equal(t, s, Resolve(Escape(s), tr), s)
	}
}

func TestCall(t *testing.T) {
	assert.Equal(t, "&CurrentTimestamp", Call("CurrentTimestamp"))
	assert.Equal(t, "&DateAdd(created, 7, 'd')", Call("DateAdd", "created", "7", "'d'"))
	assert.Equal(t, "&Max(&Sum(amount))", Call("Max", Call("Sum", "amount")))
}
