package expr

import (
	"github.com/shopspring/decimal"

	"github.com/vk/gridcell/internal/hostfn"
	"github.com/vk/gridcell/internal/value"
)

// Lookup resolves a cell id to its current committed value. The engine
// supplies it; the evaluator never touches cell state directly.
type Lookup func(id string) (value.Value, error)

// evaluator carries the per-evaluation context down the AST.
type evaluator struct {
	lookup Lookup
	host   *hostfn.Registry
}

type node interface {
	eval(ev *evaluator) (value.Value, error)
}

type numberNode struct{ val decimal.Decimal }

type textNode struct{ val string }

type boolNode struct{ val bool }

type refNode struct{ id string }

type unaryNode struct {
	op      string
	operand node
}

type binaryNode struct {
	op          string
	left, right node
}

type callNode struct {
	name string
	args []node
}
