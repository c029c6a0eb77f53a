package value

import "unicode"

// IsIdentifier reports whether s is syntactically a valid cell identifier:
// a letter in any script or an underscore, followed by letters, digits, or
// underscores. Reserved-name checks are layered on top by the expression
// package, which owns the builtin function table.
func IsIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		if r == '_' || unicode.IsLetter(r) {
			continue
		}
		if i > 0 && unicode.IsDigit(r) {
			continue
		}
		return false
	}
	return true
}
