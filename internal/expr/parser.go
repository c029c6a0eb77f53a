package expr

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// parser is a recursive-descent parser over a token slice. Precedence, from
// lowest to highest: ||, &&, comparisons, + -, * / \ %, ^ (right
// associative), unary + -, primary.
type parser struct {
	tokens []token
	pos    int
}

func parse(tokens []token) (node, error) {
	p := &parser{tokens: tokens}
	n, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if !p.atEnd() {
		return nil, fmt.Errorf("%w: unexpected token %q", ErrParse, p.tokens[p.pos].text)
	}
	return n, nil
}

func (p *parser) atEnd() bool { return p.pos >= len(p.tokens) }

func (p *parser) peek() (token, bool) {
	if p.atEnd() {
		return token{}, false
	}
	return p.tokens[p.pos], true
}

func (p *parser) next() (token, bool) {
	t, ok := p.peek()
	if ok {
		p.pos++
	}
	return t, ok
}

// matchOperator consumes the next token when it is one of the given
// operators and returns its text.
func (p *parser) matchOperator(ops ...string) (string, bool) {
	t, ok := p.peek()
	if !ok || t.kind != tokenOperator {
		return "", false
	}
	for _, op := range ops {
		if t.text == op {
			p.pos++
			return op, true
		}
	}
	return "", false
}

func (p *parser) parseExpression() (node, error) {
	return p.parseLogicalOr()
}

func (p *parser) parseLogicalOr() (node, error) {
	left, err := p.parseLogicalAnd()
	if err != nil {
		return nil, err
	}
	for {
		op, ok := p.matchOperator("||")
		if !ok {
			break
		}
		right, err := p.parseLogicalAnd()
		if err != nil {
			return nil, err
		}
		left = &binaryNode{op: op, left: left, right: right}
	}
	return left, nil
}

func (p *parser) parseLogicalAnd() (node, error) {
	left, err := p.parseComparison()
	if err != nil {
		return nil, err
	}
	for {
		op, ok := p.matchOperator("&&")
		if !ok {
			break
		}
		right, err := p.parseComparison()
		if err != nil {
			return nil, err
		}
		left = &binaryNode{op: op, left: left, right: right}
	}
	return left, nil
}

func (p *parser) parseComparison() (node, error) {
	left, err := p.parseAdditive()
	if err != nil {
		return nil, err
	}
	for {
		op, ok := p.matchOperator("==", "!=", "<", "<=", ">", ">=")
		if !ok {
			break
		}
		right, err := p.parseAdditive()
		if err != nil {
			return nil, err
		}
		left = &binaryNode{op: op, left: left, right: right}
	}
	return left, nil
}

func (p *parser) parseAdditive() (node, error) {
	left, err := p.parseMultiplicative()
	if err != nil {
		return nil, err
	}
	for {
		op, ok := p.matchOperator("+", "-")
		if !ok {
			break
		}
		right, err := p.parseMultiplicative()
		if err != nil {
			return nil, err
		}
		left = &binaryNode{op: op, left: left, right: right}
	}
	return left, nil
}

func (p *parser) parseMultiplicative() (node, error) {
	left, err := p.parsePower()
	if err != nil {
		return nil, err
	}
	for {
		op, ok := p.matchOperator("*", "/", `\`, "%")
		if !ok {
			break
		}
		right, err := p.parsePower()
		if err != nil {
			return nil, err
		}
		left = &binaryNode{op: op, left: left, right: right}
	}
	return left, nil
}

func (p *parser) parsePower() (node, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	if op, ok := p.matchOperator("^"); ok {
		// Right associative: the right side swallows further ^ operators.
		right, err := p.parsePower()
		if err != nil {
			return nil, err
		}
		return &binaryNode{op: op, left: left, right: right}, nil
	}
	return left, nil
}

func (p *parser) parseUnary() (node, error) {
	if op, ok := p.matchOperator("-", "+"); ok {
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		if op == "+" {
			return operand, nil
		}
		return &unaryNode{op: op, operand: operand}, nil
	}
	return p.parsePrimary()
}

func (p *parser) parsePrimary() (node, error) {
	t, ok := p.next()
	if !ok {
		return nil, fmt.Errorf("%w: unexpected end of expression", ErrParse)
	}

	switch t.kind {
	case tokenLParen:
		inner, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		if closing, ok := p.next(); !ok || closing.kind != tokenRParen {
			return nil, fmt.Errorf("%w: missing closing parenthesis", ErrParse)
		}
		return inner, nil

	case tokenNumber:
		d, err := decimal.NewFromString(t.text)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid number %q", ErrParse, t.text)
		}
		return &numberNode{val: d}, nil

	case tokenString:
		return &textNode{val: t.text}, nil

	case tokenIdent:
		if next, ok := p.peek(); ok && next.kind == tokenLParen {
			p.pos++
			args, err := p.parseArguments()
			if err != nil {
				return nil, err
			}
			return &callNode{name: t.text, args: args}, nil
		}
		if strings.EqualFold(t.text, "true") {
			return &boolNode{val: true}, nil
		}
		if strings.EqualFold(t.text, "false") {
			return &boolNode{val: false}, nil
		}
		return &refNode{id: t.text}, nil

	default:
		return nil, fmt.Errorf("%w: unexpected token %q", ErrParse, t.text)
	}
}

// parseArguments parses a comma-separated argument list; the opening
// parenthesis has already been consumed.
func (p *parser) parseArguments() ([]node, error) {
	var args []node
	if t, ok := p.peek(); ok && t.kind == tokenRParen {
		p.pos++
		return args, nil
	}
	for {
		arg, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		args = append(args, arg)

		t, ok := p.next()
		if !ok {
			return nil, fmt.Errorf("%w: unterminated argument list", ErrParse)
		}
		switch t.kind {
		case tokenComma:
			continue
		case tokenRParen:
			return args, nil
		default:
			return nil, fmt.Errorf("%w: unexpected token %q in argument list", ErrParse, t.text)
		}
	}
}
