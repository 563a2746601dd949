package ir

import (
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/unicode/norm"
)

// TimeLayout is the layout used for Time literals.
const TimeLayout = "2006-01-02 15:04:05.999999"

// Normalize returns s in Unicode NFC form.
// CRITICAL: applied to every String literal before escaping, so that two
// visually identical inputs always render to the same SQL bytes.
func Normalize(s string) string {
	return norm.NFC.String(s)
}

// FormatInt renders an Int without quoting.
func FormatInt(n Int) string {
	return strconv.FormatInt(int64(n), 10)
}

// FormatFloat renders a Float with the shortest exact representation.
// Integral floats keep no exponent so they stay valid SQL numerics.
func FormatFloat(f Float) string {
	return strconv.FormatFloat(float64(f), 'f', -1, 64)
}

// FormatTime renders a Time literal body (without quotes), in UTC.
func FormatTime(t Time) string {
	return time.Time(t).UTC().Format(TimeLayout)
}

// Describe returns a short human readable form of v for diagnostics.
// It is never used to produce SQL.
func Describe(v Value) string {
	switch val := v.(type) {
	case nil:
		return "<nil>"
	case Null:
		return "NULL"
	case String:
		return strconv.Quote(string(val))
	case Int:
		return FormatInt(val)
	case Float:
		return FormatFloat(val)
	case Bool:
		return strconv.FormatBool(bool(val))
	case Time:
		return FormatTime(val)
	case UUID:
		return val.String()
	case List:
		parts := make([]string, len(val))
		for i, elem := range val {
			parts[i] = Describe(elem)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case Func:
		return string(val)
	default:
		return "<unknown>"
	}
}
