package expr

import (
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/vk/gridcell/internal/value"
)

// builtin describes one entry of the fixed function table. maxArgs of -1
// means variadic.
type builtin struct {
	minArgs  int
	maxArgs  int
	arityDoc string
	fn       func(args []value.Value) (value.Value, error)
}

var builtins = map[string]builtin{
	"sqrt":  {1, 1, "1 argument", fnSqrt},
	"abs":   {1, 1, "1 argument", numericUnary(func(d decimal.Decimal) decimal.Decimal { return d.Abs() })},
	"ceil":  {1, 1, "1 argument", numericUnary(func(d decimal.Decimal) decimal.Decimal { return d.Ceil() })},
	"floor": {1, 1, "1 argument", numericUnary(func(d decimal.Decimal) decimal.Decimal { return d.Floor() })},
	"round": {1, 2, "1 or 2 arguments", fnRound},

	"sin":  {1, 1, "1 argument", floatUnary("sin", math.Sin, nil)},
	"cos":  {1, 1, "1 argument", floatUnary("cos", math.Cos, nil)},
	"tan":  {1, 1, "1 argument", floatUnary("tan", math.Tan, nil)},
	"asin": {1, 1, "1 argument", floatUnary("asin", math.Asin, domainAbsLEOne)},
	"acos": {1, 1, "1 argument", floatUnary("acos", math.Acos, domainAbsLEOne)},
	"atan": {1, 1, "1 argument", floatUnary("atan", math.Atan, nil)},
	"sinh": {1, 1, "1 argument", floatUnary("sinh", math.Sinh, nil)},
	"cosh": {1, 1, "1 argument", floatUnary("cosh", math.Cosh, nil)},
	"tanh": {1, 1, "1 argument", floatUnary("tanh", math.Tanh, nil)},

	"log":   {1, 1, "1 argument", floatUnary("log", math.Log, domainPositive)},
	"log10": {1, 1, "1 argument", floatUnary("log10", math.Log10, domainPositive)},
	"exp":   {1, 1, "1 argument", floatUnary("exp", math.Exp, nil)},

	"pow": {2, 2, "2 arguments", fnPow},
	"min": {1, -1, "at least 1 argument", fnMin},
	"max": {1, -1, "at least 1 argument", fnMax},
	"avg": {1, -1, "at least 1 argument", fnAvg},

	"and": {0, -1, "any number of arguments", fnAnd},
	"or":  {0, -1, "any number of arguments", fnOr},
	"not": {1, 1, "1 argument", fnNot},
	"xor": {0, -1, "any number of arguments", fnXor},
	"if":  {3, 3, "3 arguments", fnIf},
	"ifs": {2, -1, "at least 2 arguments", fnIfs},
}

func lookupBuiltin(name string) (builtin, bool) {
	b, ok := builtins[strings.ToLower(name)]
	return b, ok
}

// IsBuiltin reports whether name (case-insensitively) is a builtin function.
func IsBuiltin(name string) bool {
	_, ok := lookupBuiltin(name)
	return ok
}

// IsReservedName reports whether name may not be used as a cell identifier:
// the boolean literals, every builtin function, and the extern bridge.
func IsReservedName(name string) bool {
	if strings.EqualFold(name, "true") || strings.EqualFold(name, "false") || strings.EqualFold(name, ExternName) {
		return true
	}
	return IsBuiltin(name)
}

// argNumber coerces one argument to a decimal, mapping conversion failures
// to the domain error class.
func argNumber(args []value.Value, i int) (decimal.Decimal, error) {
	d, err := args[i].AsNumber()
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %v", ErrDomain, err)
	}
	return d, nil
}

func numericUnary(op func(decimal.Decimal) decimal.Decimal) func([]value.Value) (value.Value, error) {
	return func(args []value.Value) (value.Value, error) {
		d, err := argNumber(args, 0)
		if err != nil {
			return value.Empty(), err
		}
		return value.NewNumber(op(d)), nil
	}
}

func domainAbsLEOne(name string, f float64) error {
	if f < -1 || f > 1 {
		return fmt.Errorf("%w: %s requires an argument in [-1, 1]", ErrDomain, name)
	}
	return nil
}

func domainPositive(name string, f float64) error {
	if f <= 0 {
		return fmt.Errorf("%w: %s requires a positive argument", ErrDomain, name)
	}
	return nil
}

// floatUnary adapts a float64 math function, with an optional domain check
// on the input. Results outside float64 range are a domain error.
func floatUnary(name string, f func(float64) float64, check func(string, float64) error) func([]value.Value) (value.Value, error) {
	return func(args []value.Value) (value.Value, error) {
		d, err := argNumber(args, 0)
		if err != nil {
			return value.Empty(), err
		}
		in, _ := d.Float64()
		if check != nil {
			if err := check(name, in); err != nil {
				return value.Empty(), err
			}
		}
		out := f(in)
		if math.IsNaN(out) || math.IsInf(out, 0) {
			return value.Empty(), fmt.Errorf("%w: %s(%s) is not representable", ErrDomain, name, d)
		}
		return value.NewNumber(decimal.NewFromFloat(out)), nil
	}
}

// fnSqrt computes the square root by Newton's method on decimals, seeded
// with the float64 root, so results keep full decimal precision.
func fnSqrt(args []value.Value) (value.Value, error) {
	v, err := argNumber(args, 0)
	if err != nil {
		return value.Empty(), err
	}
	if v.IsNegative() {
		return value.Empty(), fmt.Errorf("%w: sqrt of a negative number", ErrDomain)
	}
	if v.IsZero() {
		return value.NewNumber(decimal.Zero), nil
	}

	x := v
	if f, _ := v.Float64(); f > 0 && !math.IsInf(f, 0) {
		if seed := math.Sqrt(f); seed > 0 && !math.IsInf(seed, 0) {
			x = decimal.NewFromFloat(seed)
		}
	}

	two := decimal.NewFromInt(2)
	eps := decimal.New(1, -value.Precision)
	for iter := 0; iter < 64; iter++ {
		next := x.Add(v.DivRound(x, value.Precision+2)).DivRound(two, value.Precision+2)
		if next.Sub(x).Abs().Cmp(eps) <= 0 {
			x = next
			break
		}
		x = next
	}
	return value.NewNumber(x), nil
}

func fnRound(args []value.Value) (value.Value, error) {
	d, err := argNumber(args, 0)
	if err != nil {
		return value.Empty(), err
	}
	places := int64(0)
	if len(args) == 2 {
		p, err := argNumber(args, 1)
		if err != nil {
			return value.Empty(), err
		}
		places = p.IntPart()
	}
	return value.NewNumber(d.Round(int32(places))), nil
}

func fnPow(args []value.Value) (value.Value, error) {
	base, err := argNumber(args, 0)
	if err != nil {
		return value.Empty(), err
	}
	exponent, err := argNumber(args, 1)
	if err != nil {
		return value.Empty(), err
	}
	return powDecimal(base, exponent)
}

func fnMin(args []value.Value) (value.Value, error) {
	return fold(args, func(best, next decimal.Decimal) decimal.Decimal {
		if next.LessThan(best) {
			return next
		}
		return best
	})
}

func fnMax(args []value.Value) (value.Value, error) {
	return fold(args, func(best, next decimal.Decimal) decimal.Decimal {
		if next.GreaterThan(best) {
			return next
		}
		return best
	})
}

func fold(args []value.Value, pick func(best, next decimal.Decimal) decimal.Decimal) (value.Value, error) {
	best, err := argNumber(args, 0)
	if err != nil {
		return value.Empty(), err
	}
	for i := 1; i < len(args); i++ {
		next, err := argNumber(args, i)
		if err != nil {
			return value.Empty(), err
		}
		best = pick(best, next)
	}
	return value.NewNumber(best), nil
}

func fnAvg(args []value.Value) (value.Value, error) {
	sum := decimal.Zero
	for i := range args {
		d, err := argNumber(args, i)
		if err != nil {
			return value.Empty(), err
		}
		sum = sum.Add(d)
	}
	return value.NewNumber(sum.DivRound(decimal.NewFromInt(int64(len(args))), value.Precision)), nil
}

func fnAnd(args []value.Value) (value.Value, error) {
	for _, a := range args {
		if !a.Truthy() {
			return value.NewBool(false), nil
		}
	}
	return value.NewBool(true), nil
}

func fnOr(args []value.Value) (value.Value, error) {
	for _, a := range args {
		if a.Truthy() {
			return value.NewBool(true), nil
		}
	}
	return value.NewBool(false), nil
}

func fnNot(args []value.Value) (value.Value, error) {
	return value.NewBool(!args[0].Truthy()), nil
}

// fnXor is true when an odd number of arguments are truthy.
func fnXor(args []value.Value) (value.Value, error) {
	count := 0
	for _, a := range args {
		if a.Truthy() {
			count++
		}
	}
	return value.NewBool(count%2 == 1), nil
}

func fnIf(args []value.Value) (value.Value, error) {
	if args[0].Truthy() {
		return args[1], nil
	}
	return args[2], nil
}

// fnIfs walks condition/result pairs in order; an odd trailing argument is
// the default when nothing matches.
func fnIfs(args []value.Value) (value.Value, error) {
	pairs := len(args) / 2
	for i := 0; i < pairs; i++ {
		if args[i*2].Truthy() {
			return args[i*2+1], nil
		}
	}
	if len(args)%2 == 1 {
		return args[len(args)-1], nil
	}
	return value.Empty(), fmt.Errorf("%w: ifs matched no condition and has no default", ErrDomain)
}
