package macro

import "strings"

// Unit is a date arithmetic unit understood by DateAdd and DateSub.
type Unit int

const (
	Second Unit = iota
	Microsecond
	Minute
	Hour
	Day
	Week
	Month
	Quarter
	Year
)

var unitNames = map[Unit]string{
	Microsecond: "MICROSECOND",
	Second:      "SECOND",
	Minute:      "MINUTE",
	Hour:        "HOUR",
	Day:         "DAY",
	Week:        "WEEK",
	Month:       "MONTH",
	Quarter:     "QUARTER",
	Year:        "YEAR",
}

var unitCodes = map[string]Unit{
	"y": Year, "year": Year,
	"q": Quarter, "quarter": Quarter,
	"m": Month, "month": Month,
	"w": Week, "week": Week,
	"d": Day, "day": Day,
	"h": Hour, "hour": Hour,
	"i": Minute, "min": Minute, "minute": Minute,
	"s": Second, "second": Second,
	"u": Microsecond, "microsecond": Microsecond,
}

// String returns the upper-case SQL keyword, e.g. "DAY".
func (u Unit) String() string {
	if name, ok := unitNames[u]; ok {
		return name
	}
	return "SECOND"
}

// ParseUnit maps a unit argument to a Unit. The code may be wrapped in
// single quotes and is case-insensitive. Unrecognized or empty codes are
// seconds.
func ParseUnit(code string) Unit {
	code = strings.TrimSpace(code)
	if len(code) >= 2 && code[0] == '\'' && code[len(code)-1] == '\'' {
		code = code[1 : len(code)-1]
	}
	if u, ok := unitCodes[strings.ToLower(code)]; ok {
		return u
	}
	return Second
}
