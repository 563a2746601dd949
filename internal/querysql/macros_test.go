package querysql

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/roach88/metasql/internal/macro"
)

// sampleArgs is a well-formed argument list for each macro name.
var sampleArgs = map[string][]string{
	"UnixTimestamp": nil,
	"DateAdd":       {"created", "7", "'d'"},
	"DateSub":       {"created", "1", "'q'"},
	"DateDiff":      {"a", "b"},
	"Year":          {"x"},
	"Month":         {"x"},
	"Day":           {"x"},
	"Max":           {"x"},
	"Min":           {"x"},
	"Sum":           {"x"},
	"Avg":           {"x"},
	"CountDistinct": {"x"},
	"Concat":        {"a", "b"},
	"Lower":         {"x"},
	"Upper":         {"x"},
	"Length":        {"x"},
	"Trim":          {"x"},
	"Substring":     {"s", "1", "3"},
	"Coalesce":      {"a", "b", "c"},
	"IfNull":        {"a", "b"},
}

func TestMacroVocabulary(t *testing.T) {
	for _, d := range []Dialect{MySQL(), Postgres(), SQLite()} {
		for _, name := range MacroNames {
			out, ok := d.Translate(name, sampleArgs[name])
			assert.True(t, ok, "%s: %s not translated", d.Name(), name)
			assert.NotContains(t, out, string(macro.Marker), "%s: %s", d.Name(), name)
		}
	}
}

func TestTranslate(t *testing.T) {
	tests := []struct {
		call                    string
		mysql, postgres, sqlite string
	}{
		{
			call:     "&CurrentTimestamp",
			mysql:    "SYSDATE()",
			postgres: "CURRENT_TIMESTAMP",
			sqlite:   "CURRENT_TIMESTAMP",
		},
		{
			call:     "&DateAdd(created, 7, 'd')",
			mysql:    "DATE_ADD(created, INTERVAL 7 DAY)",
			postgres: "(created + (7) * INTERVAL '1 DAY')",
			sqlite:   "datetime(created, (7) || ' days')",
		},
		{
			call:     "&DateSub(created, 1, q)",
			mysql:    "DATE_SUB(created, INTERVAL 1 QUARTER)",
			postgres: "(created - (1) * INTERVAL '3 MONTH')",
			sqlite:   "datetime(created, -((1) * 3) || ' months')",
		},
		{
			call:     "&DateAdd(x, 5)",
			mysql:    "DATE_ADD(x, INTERVAL 5 SECOND)",
			postgres: "(x + (5) * INTERVAL '1 SECOND')",
			sqlite:   "datetime(x, (5) || ' seconds')",
		},
		{
			call:     "&DateAdd(x, 2, 'fortnight')",
			mysql:    "DATE_ADD(x, INTERVAL 2 SECOND)",
			postgres: "(x + (2) * INTERVAL '1 SECOND')",
			sqlite:   "datetime(x, (2) || ' seconds')",
		},
		{
			call:     "&Count",
			mysql:    "COUNT(*)",
			postgres: "COUNT(*)",
			sqlite:   "COUNT(*)",
		},
		{
			call:     "&Concat(a, b, c)",
			mysql:    "CONCAT(a, b, c)",
			postgres: "CONCAT(a, b, c)",
			sqlite:   "(a || b || c)",
		},
		{
			call:     "&Year(d)",
			mysql:    "YEAR(d)",
			postgres: "CAST(EXTRACT(YEAR FROM d) AS INTEGER)",
			sqlite:   "CAST(strftime('%Y', d) AS INTEGER)",
		},
		{
			call:     "&IfNull(a, 0)",
			mysql:    "IFNULL(a, 0)",
			postgres: "COALESCE(a, 0)",
			sqlite:   "IFNULL(a, 0)",
		},
		{
			call:     "&Random",
			mysql:    "RAND()",
			postgres: "RANDOM()",
			sqlite:   "RANDOM()",
		},
		{
			call:     "&Max(&Sum(amount))",
			mysql:    "MAX(SUM(amount))",
			postgres: "MAX(SUM(amount))",
			sqlite:   "MAX(SUM(amount))",
		},
	}

	for _, tc := range tests {
		t.Run(tc.call, func(t *testing.T) {
			assert.Equal(t, tc.mysql, macro.Resolve(tc.call, MySQL()))
			assert.Equal(t, tc.postgres, macro.Resolve(tc.call, Postgres()))
			assert.Equal(t, tc.sqlite, macro.Resolve(tc.call, SQLite()))
		})
	}
}

func TestTranslate_BadArityIsLeftInPlace(t *testing.T) {
	d := MySQL()
	for _, in := range []string{"&Max(a, b)", "&CurrentTimestamp(1)", "&DateAdd(x)", "&IfNull(a)", "&CountDistinct()"} {
		assert.Equal(t, in, macro.Resolve(in, d))
	}
	assert.Equal(t, []string{"Max"}, macro.Remaining("&Max(a, b)", d))
}

func TestTranslate_CaseSensitive(t *testing.T) {
	_, ok := MySQL().Translate("currenttimestamp", nil)
	assert.False(t, ok)
}
