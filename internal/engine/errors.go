package engine

import "errors"

// Call-site errors: these reject the operation before any state changes.
// Cell-level evaluation failures are never returned from mutations; they
// are stored on the cell and read back through GetError.
var (
	// ErrInvalidIdentifier rejects ids that break the identifier syntax.
	ErrInvalidIdentifier = errors.New("invalid cell identifier")
	// ErrReservedName rejects ids colliding with builtin or reserved names.
	ErrReservedName = errors.New("reserved name")
	// ErrCircularReference rejects a Set that would close a dependency cycle.
	ErrCircularReference = errors.New("circular reference")
	// ErrMalformedLine aborts a Load on a line without a colon separator.
	ErrMalformedLine = errors.New("malformed line")
)
