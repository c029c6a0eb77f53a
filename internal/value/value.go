// Package value defines the tagged union held by a cell: a high-precision
// decimal number, a text string, a boolean, or the empty value. All
// arithmetic runs at 34 significant digits with half-up rounding so that
// decimal literals combine without binary floating-point error.
package value

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Precision is the number of significant digits carried by divisions and
// other inexact operations.
const Precision = 34

func init() {
	decimal.DivisionPrecision = Precision
}

// Kind identifies which member of the union a Value holds.
type Kind uint8

const (
	KindEmpty Kind = iota
	KindNumber
	KindText
	KindBoolean
)

// String returns the external type name used by the engine's GetType.
func (k Kind) String() string {
	switch k {
	case KindNumber:
		return "number"
	case KindText:
		return "text"
	case KindBoolean:
		return "boolean"
	default:
		return "empty"
	}
}

// Value is an immutable cell value.
type Value struct {
	kind Kind
	num  decimal.Decimal
	text string
	b    bool
}

// Empty returns the empty value.
func Empty() Value {
	return Value{kind: KindEmpty}
}

// NewNumber wraps a decimal as a number value.
func NewNumber(d decimal.Decimal) Value {
	return Value{kind: KindNumber, num: d}
}

// NewInt wraps an integer as a number value.
func NewInt(n int64) Value {
	return Value{kind: KindNumber, num: decimal.NewFromInt(n)}
}

// NewText wraps a string as a text value.
func NewText(s string) Value {
	return Value{kind: KindText, text: s}
}

// NewBool wraps a boolean value.
func NewBool(b bool) Value {
	return Value{kind: KindBoolean, b: b}
}

// Kind reports which member the value holds.
func (v Value) Kind() Kind { return v.kind }

// IsEmpty reports whether the value is the empty value.
func (v Value) IsEmpty() bool { return v.kind == KindEmpty }

// Number returns the decimal member. The boolean is false when the value is
// not a number.
func (v Value) Number() (decimal.Decimal, bool) {
	return v.num, v.kind == KindNumber
}

// Bool returns the boolean member. The second result is false when the
// value is not a boolean.
func (v Value) Bool() (bool, bool) {
	return v.b, v.kind == KindBoolean
}

// Truthy reports the value's truthiness: booleans as-is, numbers when
// non-zero, text when non-empty, empty is false.
func (v Value) Truthy() bool {
	switch v.kind {
	case KindBoolean:
		return v.b
	case KindNumber:
		return !v.num.IsZero()
	case KindText:
		return v.text != ""
	default:
		return false
	}
}

// AsNumber coerces the value to a decimal: numbers pass through, booleans
// become 1 or 0, text is parsed. Empty and unparseable text fail.
func (v Value) AsNumber() (decimal.Decimal, error) {
	switch v.kind {
	case KindNumber:
		return v.num, nil
	case KindBoolean:
		if v.b {
			return decimal.NewFromInt(1), nil
		}
		return decimal.Zero, nil
	case KindText:
		d, err := decimal.NewFromString(strings.TrimSpace(v.text))
		if err != nil {
			return decimal.Zero, fmt.Errorf("cannot convert %q to a number", v.text)
		}
		return d, nil
	default:
		return decimal.Zero, fmt.Errorf("cannot convert empty value to a number")
	}
}

// String renders the value for display: numbers via FormatNumber, booleans
// as TRUE/FALSE, text verbatim, empty as the empty string.
func (v Value) String() string {
	switch v.kind {
	case KindNumber:
		return FormatNumber(v.num)
	case KindBoolean:
		if v.b {
			return "TRUE"
		}
		return "FALSE"
	case KindText:
		return v.text
	default:
		return ""
	}
}

// Compare orders two values. Same-kind comparison is natural; values of
// different kinds fall back to comparing their string renderings. The
// fallback is a documented compatibility rule, not a claim of correctness.
func Compare(a, b Value) int {
	if a.kind == b.kind {
		switch a.kind {
		case KindNumber:
			return a.num.Cmp(b.num)
		case KindText:
			return strings.Compare(a.text, b.text)
		case KindBoolean:
			switch {
			case a.b == b.b:
				return 0
			case b.b:
				return -1
			default:
				return 1
			}
		default:
			return 0
		}
	}
	return strings.Compare(a.String(), b.String())
}

// ParseLiteral interprets raw cell content that is not a formula: a quoted
// string yields text, then true/false (case-insensitive), then a decimal
// number, and anything else is plain text.
func ParseLiteral(s string) Value {
	t := strings.TrimSpace(s)
	if unquoted, ok := Unquote(t); ok {
		return NewText(unquoted)
	}
	if strings.EqualFold(t, "true") {
		return NewBool(true)
	}
	if strings.EqualFold(t, "false") {
		return NewBool(false)
	}
	if d, err := decimal.NewFromString(t); err == nil {
		return NewNumber(d)
	}
	return NewText(t)
}

// Unquote strips a matching pair of single or double quotes. It reports
// false when the string is not a quoted literal.
func Unquote(s string) (string, bool) {
	if len(s) >= 2 {
		if (s[0] == '\'' && s[len(s)-1] == '\'') || (s[0] == '"' && s[len(s)-1] == '"') {
			return s[1 : len(s)-1], true
		}
	}
	return s, false
}
