package expr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/gridcell/internal/hostfn"
	"github.com/vk/gridcell/internal/value"
)

// evalWith evaluates a formula against a fixed set of cells.
func evalWith(t *testing.T, formula string, cells map[string]value.Value, host *hostfn.Registry) (value.Value, error) {
	t.Helper()
	lookup := func(id string) (value.Value, error) {
		if v, ok := cells[id]; ok {
			return v, nil
		}
		return value.Empty(), fmt.Errorf("%w: cell %q does not exist", ErrUnresolvedReference, id)
	}
	return Evaluate(formula, lookup, host)
}

func TestEvaluate_Arithmetic(t *testing.T) {
	testCases := []struct {
		formula  string
		expected string
	}{
		{"1+2", "3"},
		{"1+2*3", "7"},
		{"(1+2)*3", "9"},
		{"10-4-3", "3"},
		{"-3+5", "2"},
		{"+5", "5"},
		{"0.1+0.2", "0.3"},
		{"2^10", "1024"},
		{"2^3^2", "512"},
		{"7\\2", "3"},
		{"-7\\2", "-4"},
		{"7\\-2", "-4"},
		{"7%3", "1"},
		{"-7%3", "2"},
		{"7%-3", "1"},
		{"1/4", "0.25"},
		{"100*0.07", "7"},
	}

	for _, tc := range testCases {
		t.Run(tc.formula, func(t *testing.T) {
			got, err := evalWith(t, tc.formula, nil, nil)
			require.NoError(t, err)
			assert.Equal(t, tc.expected, got.String())
		})
	}
}

func TestEvaluate_DivisionPrecision(t *testing.T) {
	got, err := evalWith(t, "1/3", nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "0.3333333333333333333333333333333333", got.String())
}

func TestEvaluate_ComparisonsAndLogic(t *testing.T) {
	testCases := []struct {
		formula  string
		expected string
	}{
		{"1<2", "TRUE"},
		{"2<=2", "TRUE"},
		{"3>4", "FALSE"},
		{"1==1.0", "TRUE"},
		{"1!=2", "TRUE"},
		{`"apple"<"banana"`, "TRUE"},
		{"true&&false", "FALSE"},
		{"true||false", "TRUE"},
		{"1&&2", "TRUE"},
		{"0||0", "FALSE"},
		{`1=="1"`, "TRUE"}, // cross-kind comparison uses renderings
		{"1<2&&2<3", "TRUE"},
	}

	for _, tc := range testCases {
		t.Run(tc.formula, func(t *testing.T) {
			got, err := evalWith(t, tc.formula, nil, nil)
			require.NoError(t, err)
			assert.Equal(t, tc.expected, got.String())
		})
	}

	t.Run("operands evaluate eagerly", func(t *testing.T) {
		// || does not short circuit, so the division error surfaces.
		_, err := evalWith(t, "1==1||1/0==0", nil, nil)
		assert.ErrorIs(t, err, ErrDivisionByZero)
	})
}

func TestEvaluate_References(t *testing.T) {
	cells := map[string]value.Value{
		"a": value.NewInt(10),
		"b": value.NewInt(4),
		"s": value.NewText("hi"),
	}

	t.Run("arithmetic over references", func(t *testing.T) {
		got, err := evalWith(t, "a*b+1", cells, nil)
		require.NoError(t, err)
		assert.Equal(t, "41", got.String())
	})

	t.Run("text reference", func(t *testing.T) {
		got, err := evalWith(t, `s=="hi"`, cells, nil)
		require.NoError(t, err)
		assert.Equal(t, "TRUE", got.String())
	})

	t.Run("missing reference", func(t *testing.T) {
		_, err := evalWith(t, "a+nope", cells, nil)
		assert.ErrorIs(t, err, ErrUnresolvedReference)
	})

	t.Run("arithmetic on text is a domain error", func(t *testing.T) {
		_, err := evalWith(t, "s+1", cells, nil)
		assert.ErrorIs(t, err, ErrDomain)
	})
}

func TestEvaluate_Builtins(t *testing.T) {
	testCases := []struct {
		formula  string
		expected string
	}{
		{"sqrt(9)", "3"},
		{"sqrt(0)", "0"},
		{"abs(-5)", "5"},
		{"ceil(1.2)", "2"},
		{"floor(-1.2)", "-2"},
		{"round(2.5)", "3"},
		{"round(2.345, 2)", "2.35"},
		{"round(-2.5)", "-3"},
		{"pow(2, 10)", "1024"},
		{"min(3, 1, 2)", "1"},
		{"max(3, 1, 2)", "3"},
		{"avg(1, 2, 3)", "2"},
		{"and(1, true, \"x\")", "TRUE"},
		{"and(1, 0)", "FALSE"},
		{"and()", "TRUE"},
		{"or(0, false)", "FALSE"},
		{"or()", "FALSE"},
		{"not(0)", "TRUE"},
		{"xor(1, 1)", "FALSE"},
		{"xor(1, 1, 1)", "TRUE"},
		{"xor()", "FALSE"},
		{"if(1, \"yes\", \"no\")", "yes"},
		{"if(0, \"yes\", \"no\")", "no"},
		{"ifs(0, \"a\", 1, \"b\")", "b"},
		{"ifs(0, \"a\", \"fallback\")", "fallback"},
		{"SQRT(16)", "4"}, // function names are case-insensitive
		{"abs(\"-3\")", "3"}, // builtins coerce text arguments
		{"exp(0)", "1"},
		{"log(1)", "0"},
		{"sin(0)", "0"},
		{"cos(0)", "1"},
		{"atan(0)", "0"},
		{"tanh(0)", "0"},
	}

	for _, tc := range testCases {
		t.Run(tc.formula, func(t *testing.T) {
			got, err := evalWith(t, tc.formula, nil, nil)
			require.NoError(t, err)
			assert.Equal(t, tc.expected, got.String())
		})
	}
}

func TestEvaluate_SqrtPrecision(t *testing.T) {
	got, err := evalWith(t, "sqrt(2)", nil, nil)
	require.NoError(t, err)
	d, ok := got.Number()
	require.True(t, ok)

	want := decimal.RequireFromString("1.41421356237309504880168872420969808")
	assert.True(t, d.Sub(want).Abs().LessThan(decimal.New(1, -30)),
		"sqrt(2) = %s drifts from the reference value", d)
}

func TestEvaluate_Errors(t *testing.T) {
	testCases := []struct {
		name     string
		formula  string
		expected error
	}{
		{name: "division by zero", formula: "1/0", expected: ErrDivisionByZero},
		{name: "integer division by zero", formula: "1\\0", expected: ErrDivisionByZero},
		{name: "modulo by zero", formula: "1%0", expected: ErrDivisionByZero},
		{name: "unknown function", formula: "frobnicate(1)", expected: ErrUnknownFunction},
		{name: "too many arguments", formula: "sqrt(1, 2)", expected: ErrArityMismatch},
		{name: "too few arguments", formula: "if(1)", expected: ErrArityMismatch},
		{name: "sqrt of negative", formula: "sqrt(-1)", expected: ErrDomain},
		{name: "log of zero", formula: "log(0)", expected: ErrDomain},
		{name: "asin out of range", formula: "asin(2)", expected: ErrDomain},
		{name: "ifs without match or default", formula: "ifs(0, 1, 0, 2)", expected: ErrDomain},
		{name: "unary minus on text", formula: `-"x"`, expected: ErrDomain},
		{name: "trailing garbage", formula: "1 2", expected: ErrParse},
		{name: "dangling operator", formula: "1+", expected: ErrParse},
		{name: "unterminated string", formula: `"abc`, expected: ErrParse},
		{name: "missing closing paren", formula: "(1+2", expected: ErrParse},
		{name: "coercion failure in builtin", formula: `abs("zebra")`, expected: ErrDomain},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := evalWith(t, tc.formula, nil, nil)
			assert.ErrorIs(t, err, tc.expected)
		})
	}
}

func TestEvaluate_EmptyFormula(t *testing.T) {
	got, err := evalWith(t, "   ", nil, nil)
	require.NoError(t, err)
	assert.True(t, got.IsEmpty())
}

func TestEvaluate_Extern(t *testing.T) {
	host := hostfn.New()
	host.Register("double", func(args []value.Value) (value.Value, error) {
		d, err := args[0].AsNumber()
		if err != nil {
			return value.Empty(), err
		}
		return value.NewNumber(d.Mul(decimal.NewFromInt(2))), nil
	})
	host.Register("fail", func(args []value.Value) (value.Value, error) {
		return value.Empty(), errors.New("boom")
	})
	host.Register("explode", func(args []value.Value) (value.Value, error) {
		panic("kaboom")
	})

	t.Run("dispatches with remaining arguments", func(t *testing.T) {
		got, err := evalWith(t, `extern("double", 21)`, nil, host)
		require.NoError(t, err)
		assert.Equal(t, "42", got.String())
	})

	t.Run("unknown host function", func(t *testing.T) {
		_, err := evalWith(t, `extern("missing")`, nil, host)
		assert.ErrorIs(t, err, ErrHostCall)
	})

	t.Run("host error is wrapped", func(t *testing.T) {
		_, err := evalWith(t, `extern("fail")`, nil, host)
		require.ErrorIs(t, err, ErrHostCall)
		assert.Contains(t, err.Error(), "boom")
	})

	t.Run("host panic becomes an error", func(t *testing.T) {
		_, err := evalWith(t, `extern("explode")`, nil, host)
		require.ErrorIs(t, err, ErrHostCall)
		assert.Contains(t, err.Error(), "kaboom")
	})

	t.Run("no registry configured", func(t *testing.T) {
		_, err := evalWith(t, `extern("double", 1)`, nil, nil)
		assert.ErrorIs(t, err, ErrHostCall)
	})

	t.Run("needs a function name", func(t *testing.T) {
		_, err := evalWith(t, "extern()", nil, host)
		assert.ErrorIs(t, err, ErrArityMismatch)
	})
}

func TestReferences(t *testing.T) {
	testCases := []struct {
		name     string
		formula  string
		expected []string
	}{
		{name: "simple", formula: "a+b", expected: []string{"a", "b"}},
		{name: "deduplicated and sorted", formula: "b*b+a", expected: []string{"a", "b"}},
		{name: "builtins excluded", formula: "sqrt(x)+min(y, z)", expected: []string{"x", "y", "z"}},
		{name: "boolean literals excluded", formula: "true&&flag", expected: []string{"flag"}},
		{name: "extern name argument is a string", formula: `extern("fn", a)`, expected: []string{"a"}},
		{name: "no references", formula: "1+2", expected: nil},
		{name: "broken formula keeps prefix references", formula: `a+b+"unterminated`, expected: []string{"a", "b"}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, References(tc.formula))
		})
	}
}

func TestIsReservedName(t *testing.T) {
	reserved := []string{"true", "FALSE", "sqrt", "IF", "extern", "Avg"}
	for _, name := range reserved {
		assert.True(t, IsReservedName(name), name)
	}

	free := []string{"total", "a1", "sqrt2", "iff"}
	for _, name := range free {
		assert.False(t, IsReservedName(name), name)
	}
}
