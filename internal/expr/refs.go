package expr

import (
	"sort"

	"github.com/vk/gridcell/internal/value"
)

// References extracts the cell ids a formula refers to: every identifier
// token that is syntactically a valid id and not a builtin or reserved
// name, deduplicated and sorted. The pass is purely lexical: it neither
// checks that the referenced cells exist nor that the formula parses; a
// broken formula still yields the references of its readable prefix.
func References(formula string) []string {
	tokens, _ := tokenize(formula)

	seen := make(map[string]struct{})
	var refs []string
	for _, t := range tokens {
		if t.kind != tokenIdent {
			continue
		}
		if IsReservedName(t.text) || !value.IsIdentifier(t.text) {
			continue
		}
		if _, dup := seen[t.text]; dup {
			continue
		}
		seen[t.text] = struct{}{}
		refs = append(refs, t.text)
	}
	sort.Strings(refs)
	return refs
}
