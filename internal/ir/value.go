package ir

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Value is a sealed interface representing a literal value in a query.
// Only Null, String, Int, Float, Bool, Time, UUID, List and Func implement it.
type Value interface {
	irValue() // Sealed - only these types implement it
}

// Null renders as SQL NULL.
type Null struct{}

func (Null) irValue() {}

// String is a text literal. It is escaped and quoted by the dialect.
type String string

func (String) irValue() {}

// Int is an integer literal.
type Int int64

func (Int) irValue() {}

// Float is a floating point literal.
type Float float64

func (Float) irValue() {}

// Bool is a boolean literal. Dialects decide between TRUE/FALSE and 1/0.
type Bool bool

func (Bool) irValue() {}

// Time is a timestamp literal rendered as 'YYYY-MM-DD HH:MM:SS[.ffffff]'.
type Time time.Time

func (Time) irValue() {}

// UUID is rendered as a quoted canonical UUID string.
type UUID uuid.UUID

func (UUID) irValue() {}

// List is a parenthesized, comma separated sequence of values (for IN).
type List []Value

func (List) irValue() {}

// Func marks raw SQL that must be emitted verbatim instead of being quoted,
// e.g. Func("NOW()") or a meta-macro call.
type Func string

func (Func) irValue() {}

// NewList creates a List from values.
func NewList(vals ...Value) List {
	return List(vals)
}

// NewUUID wraps a uuid.UUID.
func NewUUID(id uuid.UUID) UUID {
	return UUID(id)
}

// ParseUUID parses the textual form of a UUID into a UUID value.
func ParseUUID(s string) (UUID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return UUID{}, fmt.Errorf("parse uuid %q: %w", s, err)
	}
	return UUID(id), nil
}

// String returns the canonical textual form.
func (u UUID) String() string {
	return uuid.UUID(u).String()
}

// FromGo converts a native Go value into a Value.
//
// Supported inputs: nil, Value, string, all int/uint widths, float32/64,
// bool, time.Time, uuid.UUID, []any and []string. Maps are rejected since
// a literal has no object form in SQL.
func FromGo(v any) (Value, error) {
	switch val := v.(type) {
	case nil:
		return Null{}, nil
	case Value:
		return val, nil
	case string:
		return String(val), nil
	case int:
		return Int(val), nil
	case int8:
		return Int(val), nil
	case int16:
		return Int(val), nil
	case int32:
		return Int(val), nil
	case int64:
		return Int(val), nil
	case uint:
		return Int(val), nil
	case uint8:
		return Int(val), nil
	case uint16:
		return Int(val), nil
	case uint32:
		return Int(val), nil
	case uint64:
		if val > 1<<63-1 {
			return nil, fmt.Errorf("uint64 %d overflows int64", val)
		}
		return Int(val), nil
	case float32:
		return Float(val), nil
	case float64:
		return Float(val), nil
	case bool:
		return Bool(val), nil
	case time.Time:
		return Time(val), nil
	case uuid.UUID:
		return UUID(val), nil
	case []string:
		list := make(List, len(val))
		for i, s := range val {
			list[i] = String(s)
		}
		return list, nil
	case []any:
		list := make(List, len(val))
		for i, elem := range val {
			conv, err := FromGo(elem)
			if err != nil {
				return nil, fmt.Errorf("list[%d]: %w", i, err)
			}
			list[i] = conv
		}
		return list, nil
	default:
		return nil, fmt.Errorf("unsupported literal type: %T", v)
	}
}

// MustFromGo is FromGo that panics on error. Intended for tests and
// package-level literals.
func MustFromGo(v any) Value {
	val, err := FromGo(v)
	if err != nil {
		panic(err)
	}
	return val
}
