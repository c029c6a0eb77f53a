package value

import (
	"math/big"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

const (
	// maxPlainIntegerDigits is the widest integer part rendered without
	// switching to exponential form.
	maxPlainIntegerDigits = 15
	// maxPlainTrailingExp is the largest stripped power-of-ten exponent
	// rendered in plain form.
	maxPlainTrailingExp = 6
)

// FormatNumber renders a decimal for display: trailing fractional zeros are
// stripped and plain notation is used unless the magnitude exceeds the
// plain-form thresholds, in which case exponential notation with a
// single-digit mantissa is produced.
func FormatNumber(d decimal.Decimal) string {
	digits := new(big.Int).Abs(d.Coefficient()).String()
	exp := int(d.Exponent())

	// Fold trailing zeros of the coefficient into the exponent.
	for len(digits) > 1 && digits[len(digits)-1] == '0' {
		digits = digits[:len(digits)-1]
		exp++
	}
	if digits == "0" {
		return "0"
	}

	neg := d.Sign() < 0
	intDigits := len(digits) + exp

	if intDigits > maxPlainIntegerDigits || exp > maxPlainTrailingExp {
		return formatExponential(neg, digits, intDigits-1)
	}
	return formatPlain(neg, digits, exp, intDigits)
}

func formatPlain(neg bool, digits string, exp, intDigits int) string {
	var sb strings.Builder
	if neg {
		sb.WriteByte('-')
	}
	switch {
	case exp >= 0:
		sb.WriteString(digits)
		sb.WriteString(strings.Repeat("0", exp))
	case intDigits <= 0:
		sb.WriteString("0.")
		sb.WriteString(strings.Repeat("0", -intDigits))
		sb.WriteString(digits)
	default:
		sb.WriteString(digits[:intDigits])
		sb.WriteByte('.')
		sb.WriteString(digits[intDigits:])
	}
	return sb.String()
}

// formatExponential writes d.dddE+NN with a single leading digit.
func formatExponential(neg bool, digits string, adjusted int) string {
	var sb strings.Builder
	if neg {
		sb.WriteByte('-')
	}
	sb.WriteString(digits[:1])
	if len(digits) > 1 {
		sb.WriteByte('.')
		sb.WriteString(digits[1:])
	}
	sb.WriteByte('E')
	if adjusted >= 0 {
		sb.WriteByte('+')
	}
	sb.WriteString(strconv.Itoa(adjusted))
	return sb.String()
}
