package expr

import "errors"

// Evaluation failure classes. All of them are stored on the failing cell by
// the engine; none of them abort a recompute batch.
var (
	// ErrParse marks tokenizer and parser failures.
	ErrParse = errors.New("parse error")
	// ErrDivisionByZero is raised by /, \ and % when the divisor is zero.
	ErrDivisionByZero = errors.New("division by zero")
	// ErrUnknownFunction is raised when an unregistered name is called.
	ErrUnknownFunction = errors.New("unknown function")
	// ErrArityMismatch is raised when a function receives the wrong number
	// of arguments.
	ErrArityMismatch = errors.New("wrong number of arguments")
	// ErrDomain covers argument-domain violations and numeric type errors.
	ErrDomain = errors.New("domain error")
	// ErrUnresolvedReference is raised when a referenced cell is missing or
	// itself holds an error.
	ErrUnresolvedReference = errors.New("unresolved reference")
	// ErrHostCall wraps every failure of the extern() bridge.
	ErrHostCall = errors.New("host call failed")
)
