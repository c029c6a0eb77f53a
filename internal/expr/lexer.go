// Package expr implements the cell formula language: a tokenizer, a
// recursive-descent parser with the documented operator precedence, an AST
// evaluator driven by a caller-supplied cell lookup, a fixed builtin
// function table, and the extern() host-function bridge. Formulas are
// parsed to an AST and evaluated in a single pass; cell references are
// resolved through the lookup closure, never by rewriting the formula text.
package expr

import (
	"fmt"
	"strings"
	"unicode"
)

type tokenKind uint8

const (
	tokenNumber tokenKind = iota
	tokenString
	tokenIdent
	tokenOperator
	tokenLParen
	tokenRParen
	tokenComma
)

type token struct {
	kind tokenKind
	text string
	pos  int
}

// twoCharOperators are matched greedily before single-character operators.
var twoCharOperators = map[string]struct{}{
	"==": {}, "!=": {}, "<=": {}, ">=": {}, "&&": {}, "||": {},
}

func isOperatorRune(r rune) bool {
	return strings.ContainsRune(`+-*/\%^=!<>&|`, r)
}

func isWordRune(r rune) bool {
	return !unicode.IsSpace(r) && !isOperatorRune(r) &&
		r != '(' && r != ')' && r != ',' && r != '\'' && r != '"'
}

// tokenize splits a formula into tokens. On a lexical error the tokens
// collected so far are returned alongside the error so that dependency
// extraction can still work on broken formulas.
func tokenize(input string) ([]token, error) {
	var tokens []token
	runes := []rune(input)

	i := 0
	for i < len(runes) {
		r := runes[i]
		switch {
		case unicode.IsSpace(r):
			i++

		case r == '\'' || r == '"':
			j := i + 1
			for j < len(runes) && runes[j] != r {
				j++
			}
			if j == len(runes) {
				return tokens, fmt.Errorf("%w: unterminated string literal at offset %d", ErrParse, i)
			}
			tokens = append(tokens, token{tokenString, string(runes[i+1 : j]), i})
			i = j + 1

		case r == '(':
			tokens = append(tokens, token{tokenLParen, "(", i})
			i++
		case r == ')':
			tokens = append(tokens, token{tokenRParen, ")", i})
			i++
		case r == ',':
			tokens = append(tokens, token{tokenComma, ",", i})
			i++

		case isOperatorRune(r):
			if i+1 < len(runes) {
				two := string(runes[i : i+2])
				if _, ok := twoCharOperators[two]; ok {
					tokens = append(tokens, token{tokenOperator, two, i})
					i += 2
					continue
				}
			}
			tokens = append(tokens, token{tokenOperator, string(r), i})
			i++

		default:
			j := i
			for j < len(runes) && isWordRune(runes[j]) {
				j++
			}
			word := string(runes[i:j])
			kind := tokenIdent
			if r == '.' || unicode.IsDigit(r) {
				kind = tokenNumber
			}
			tokens = append(tokens, token{kind, word, i})
			i = j
		}
	}

	return tokens, nil
}
