package querysql

import (
	"strings"

	"github.com/roach88/metasql/internal/macro"
)

// macroFunc expands one macro. ok is false for an unusable argument list,
// which leaves the call in the text like an unknown name.
type macroFunc func(args []string) (sql string, ok bool)

// macroTable maps case-sensitive macro names to their expansion.
type macroTable map[string]macroFunc

func (t macroTable) translate(name string, args []string) (string, bool) {
	fn, ok := t[name]
	if !ok {
		return "", false
	}
	return fn(args)
}

// with returns a copy of t with overrides applied.
func (t macroTable) with(overrides macroTable) macroTable {
	out := make(macroTable, len(t)+len(overrides))
	for k, v := range t {
		out[k] = v
	}
	for k, v := range overrides {
		out[k] = v
	}
	return out
}

// MacroNames lists the macro vocabulary every dialect implements.
var MacroNames = []string{
	"CurrentTimestamp", "CurrentDate", "CurrentTime", "UnixTimestamp",
	"DateAdd", "DateSub", "DateDiff", "Year", "Month", "Day",
	"Max", "Min", "Sum", "Avg", "Count", "CountDistinct",
	"Concat", "Lower", "Upper", "Length", "Trim", "Substring",
	"Coalesce", "IfNull", "Random",
}

// fixed expands to sql and takes no arguments.
func fixed(sql string) macroFunc {
	return func(args []string) (string, bool) {
		return sql, len(args) == 0
	}
}

// call expands to NAME(args...) when the argument count is in
// [minArgs, maxArgs]. maxArgs < 0 means unbounded.
func call(name string, minArgs, maxArgs int) macroFunc {
	return func(args []string) (string, bool) {
		if !arity(args, minArgs, maxArgs) {
			return "", false
		}
		return name + "(" + strings.Join(args, ", ") + ")", true
	}
}

func arity(args []string, minArgs, maxArgs int) bool {
	if len(args) < minArgs {
		return false
	}
	return maxArgs < 0 || len(args) <= maxArgs
}

// dateArith adapts an expansion of (date, amount, unit) for DateAdd and
// DateSub. The unit argument is optional.
func dateArith(expand func(date, amount string, unit macro.Unit) string) macroFunc {
	return func(args []string) (string, bool) {
		if !arity(args, 2, 3) {
			return "", false
		}
		unit := macro.Second
		if len(args) == 3 {
			unit = macro.ParseUnit(args[2])
		}
		return expand(args[0], args[1], unit), true
	}
}

// unary adapts a one-argument expansion.
func unary(expand func(x string) string) macroFunc {
	return func(args []string) (string, bool) {
		if len(args) != 1 {
			return "", false
		}
		return expand(args[0]), true
	}
}

// commonMacros holds the expansions every dialect shares.
var commonMacros = macroTable{
	"Max":   call("MAX", 1, 1),
	"Min":   call("MIN", 1, 1),
	"Sum":   call("SUM", 1, 1),
	"Avg":   call("AVG", 1, 1),
	"Lower": call("LOWER", 1, 1),
	"Upper": call("UPPER", 1, 1),
	"Trim":  call("TRIM", 1, 1),
	"Count": func(args []string) (string, bool) {
		switch len(args) {
		case 0:
			return "COUNT(*)", true
		case 1:
			return "COUNT(" + args[0] + ")", true
		}
		return "", false
	},
	"CountDistinct": func(args []string) (string, bool) {
		if len(args) == 0 {
			return "", false
		}
		return "COUNT(DISTINCT " + strings.Join(args, ", ") + ")", true
	},
	"Coalesce": call("COALESCE", 1, -1),
}
