package hostfn

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"

	"github.com/vk/gridcell/internal/value"
)

// MathModule registers a small set of host math functions that are not part
// of the expression language's builtin table. It doubles as the reference
// implementation of the Module interface.
type MathModule struct{}

// Register wires the module's functions into the registry.
func (MathModule) Register(r *Registry) {
	r.Register("hypot", hypot)
	r.Register("clamp", clamp)
	r.Register("signum", signum)
}

// CoreModules returns the host-function modules registered by default.
func CoreModules() []Module {
	return []Module{MathModule{}}
}

func hypot(args []value.Value) (value.Value, error) {
	if len(args) != 2 {
		return value.Empty(), fmt.Errorf("hypot expects 2 arguments, got %d", len(args))
	}
	x, err := args[0].AsNumber()
	if err != nil {
		return value.Empty(), err
	}
	y, err := args[1].AsNumber()
	if err != nil {
		return value.Empty(), err
	}
	xf, _ := x.Float64()
	yf, _ := y.Float64()
	return value.NewNumber(decimal.NewFromFloat(math.Hypot(xf, yf))), nil
}

func clamp(args []value.Value) (value.Value, error) {
	if len(args) != 3 {
		return value.Empty(), fmt.Errorf("clamp expects 3 arguments, got %d", len(args))
	}
	nums := make([]decimal.Decimal, 3)
	for i, a := range args {
		d, err := a.AsNumber()
		if err != nil {
			return value.Empty(), err
		}
		nums[i] = d
	}
	v, lo, hi := nums[0], nums[1], nums[2]
	if lo.GreaterThan(hi) {
		return value.Empty(), fmt.Errorf("clamp lower bound %s exceeds upper bound %s", lo, hi)
	}
	if v.LessThan(lo) {
		return value.NewNumber(lo), nil
	}
	if v.GreaterThan(hi) {
		return value.NewNumber(hi), nil
	}
	return value.NewNumber(v), nil
}

func signum(args []value.Value) (value.Value, error) {
	if len(args) != 1 {
		return value.Empty(), fmt.Errorf("signum expects 1 argument, got %d", len(args))
	}
	d, err := args[0].AsNumber()
	if err != nil {
		return value.Empty(), err
	}
	return value.NewInt(int64(d.Sign())), nil
}
