package expr

import (
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/vk/gridcell/internal/hostfn"
	"github.com/vk/gridcell/internal/value"
)

// ExternName is the reserved function that forwards to the host registry.
const ExternName = "extern"

// Evaluate tokenizes, parses, and evaluates a formula (without the leading
// formula marker) against the given cell lookup and host registry. An empty
// formula yields the empty value.
func Evaluate(formula string, lookup Lookup, host *hostfn.Registry) (value.Value, error) {
	tokens, err := tokenize(formula)
	if err != nil {
		return value.Empty(), err
	}
	if len(tokens) == 0 {
		return value.Empty(), nil
	}
	root, err := parse(tokens)
	if err != nil {
		return value.Empty(), err
	}
	return root.eval(&evaluator{lookup: lookup, host: host})
}

func (n *numberNode) eval(*evaluator) (value.Value, error) {
	return value.NewNumber(n.val), nil
}

func (n *textNode) eval(*evaluator) (value.Value, error) {
	return value.NewText(n.val), nil
}

func (n *boolNode) eval(*evaluator) (value.Value, error) {
	return value.NewBool(n.val), nil
}

func (n *refNode) eval(ev *evaluator) (value.Value, error) {
	return ev.lookup(n.id)
}

func (n *unaryNode) eval(ev *evaluator) (value.Value, error) {
	v, err := n.operand.eval(ev)
	if err != nil {
		return value.Empty(), err
	}
	d, ok := v.Number()
	if !ok {
		return value.Empty(), fmt.Errorf("%w: unary %s requires a numeric operand", ErrDomain, n.op)
	}
	return value.NewNumber(d.Neg()), nil
}

func (n *binaryNode) eval(ev *evaluator) (value.Value, error) {
	left, err := n.left.eval(ev)
	if err != nil {
		return value.Empty(), err
	}
	right, err := n.right.eval(ev)
	if err != nil {
		return value.Empty(), err
	}

	switch n.op {
	case "||":
		return value.NewBool(left.Truthy() || right.Truthy()), nil
	case "&&":
		return value.NewBool(left.Truthy() && right.Truthy()), nil
	case "==", "!=", "<", "<=", ">", ">=":
		return compareValues(left, right, n.op), nil
	}

	a, aok := left.Number()
	b, bok := right.Number()
	if !aok || !bok {
		return value.Empty(), fmt.Errorf("%w: operator %s requires numeric operands", ErrDomain, n.op)
	}

	switch n.op {
	case "+":
		return value.NewNumber(a.Add(b)), nil
	case "-":
		return value.NewNumber(a.Sub(b)), nil
	case "*":
		return value.NewNumber(a.Mul(b)), nil
	case "/":
		if b.IsZero() {
			return value.Empty(), ErrDivisionByZero
		}
		return value.NewNumber(a.DivRound(b, value.Precision)), nil
	case `\`:
		if b.IsZero() {
			return value.Empty(), ErrDivisionByZero
		}
		return value.NewNumber(floorDiv(a, b)), nil
	case "%":
		if b.IsZero() {
			return value.Empty(), ErrDivisionByZero
		}
		return value.NewNumber(mathMod(a, b)), nil
	case "^":
		return powDecimal(a, b)
	default:
		return value.Empty(), fmt.Errorf("%w: unknown operator %q", ErrParse, n.op)
	}
}

func compareValues(a, b value.Value, op string) value.Value {
	cmp := value.Compare(a, b)
	switch op {
	case "==":
		return value.NewBool(cmp == 0)
	case "!=":
		return value.NewBool(cmp != 0)
	case "<":
		return value.NewBool(cmp < 0)
	case "<=":
		return value.NewBool(cmp <= 0)
	case ">":
		return value.NewBool(cmp > 0)
	default:
		return value.NewBool(cmp >= 0)
	}
}

// floorDiv is integer division rounded toward negative infinity.
func floorDiv(a, b decimal.Decimal) decimal.Decimal {
	q, r := a.QuoRem(b, 0)
	if !r.IsZero() && a.Sign()*b.Sign() < 0 {
		q = q.Sub(decimal.NewFromInt(1))
	}
	return q
}

// mathMod is the mathematical modulo: the result is always non-negative.
func mathMod(a, b decimal.Decimal) decimal.Decimal {
	m := a.Mod(b)
	if m.IsNegative() {
		m = m.Add(b.Abs())
	}
	return m
}

// powDecimal computes a^b through float64 and re-quantizes. This loses
// precision beyond float64 but matches the documented behavior of ^.
func powDecimal(a, b decimal.Decimal) (value.Value, error) {
	af, _ := a.Float64()
	bf, _ := b.Float64()
	res := math.Pow(af, bf)
	if math.IsNaN(res) || math.IsInf(res, 0) {
		return value.Empty(), fmt.Errorf("%w: %s^%s is not representable", ErrDomain, a, b)
	}
	return value.NewNumber(decimal.NewFromFloat(res)), nil
}

func (n *callNode) eval(ev *evaluator) (value.Value, error) {
	args := make([]value.Value, len(n.args))
	for i, argNode := range n.args {
		v, err := argNode.eval(ev)
		if err != nil {
			return value.Empty(), err
		}
		args[i] = v
	}

	if strings.EqualFold(n.name, ExternName) {
		return ev.callExtern(args)
	}

	b, ok := lookupBuiltin(n.name)
	if !ok {
		return value.Empty(), fmt.Errorf("%w: %q", ErrUnknownFunction, n.name)
	}
	if len(args) < b.minArgs || (b.maxArgs >= 0 && len(args) > b.maxArgs) {
		return value.Empty(), fmt.Errorf("%w: %s expects %s, got %d", ErrArityMismatch, n.name, b.arityDoc, len(args))
	}
	return b.fn(args)
}

func (ev *evaluator) callExtern(args []value.Value) (value.Value, error) {
	if len(args) < 1 {
		return value.Empty(), fmt.Errorf("%w: extern expects at least a function name", ErrArityMismatch)
	}
	name := args[0].String()
	if ev.host == nil {
		return value.Empty(), fmt.Errorf("%w: no host registry configured", ErrHostCall)
	}
	fn, ok := ev.host.Lookup(name)
	if !ok {
		return value.Empty(), fmt.Errorf("%w: unknown host function %q", ErrHostCall, name)
	}
	result, err := safeHostCall(fn, args[1:])
	if err != nil {
		return value.Empty(), fmt.Errorf("%w: %s: %v", ErrHostCall, name, err)
	}
	return result, nil
}

// safeHostCall invokes a host callable and converts a panic into an error;
// a misbehaving host function must never take down a recompute.
func safeHostCall(fn hostfn.Func, args []value.Value) (v value.Value, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return fn(args)
}
