package engine

import (
	"strings"

	"github.com/vk/gridcell/internal/expr"
	"github.com/vk/gridcell/internal/value"
)

// FormulaMarker prefixes cell definitions that are evaluated as formulas.
const FormulaMarker = "="

// cell holds one cell's raw definition and its last evaluation outcome.
// Exactly one of {val is meaningful, err is set, cell is empty} holds after
// any completed evaluation; val and err are never both populated.
type cell struct {
	id         string
	definition string
	val        value.Value
	err        error
}

func (c *cell) setValue(v value.Value) {
	c.val = v
	c.err = nil
}

func (c *cell) setError(err error) {
	c.val = value.Empty()
	c.err = err
}

// dependenciesOf extracts the referenced cell ids from a definition. Only
// formula definitions have dependencies.
func dependenciesOf(definition string) []string {
	if !strings.HasPrefix(definition, FormulaMarker) {
		return nil
	}
	return expr.References(definition[len(FormulaMarker):])
}

// validateID enforces the identifier rule shared by Set, Del, and Load.
func validateID(id string) error {
	if !value.IsIdentifier(id) {
		return errWithID(ErrInvalidIdentifier, id)
	}
	if expr.IsReservedName(id) {
		return errWithID(ErrReservedName, id)
	}
	return nil
}
