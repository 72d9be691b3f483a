// Package parser reads template expressions into templex trees.
//
// Operators, loosest first:
//
//	OR ||
//	AND &&
//	NOT !                    (prefix)
//	= == != <> < <= > >=     (non-associative)
//	&                        (text concatenation)
//	+ -
//	* /
//
// Literals are numbers, "text" or 'text' with backslash escapes, #date/time#
// in RFC 3339 or YYYY-MM-DD form, true, false and null. If(c, a, b) is the
// conditional; any other Name(args) is a function call.
package parser

import (
	"fmt"
	"strings"
	"time"

	templex "github.com/krew-solutions/templex-go/templex/domain"
	"github.com/krew-solutions/templex-go/templex/domain/operators"
	"github.com/krew-solutions/templex-go/templex/path"
	"github.com/krew-solutions/templex-go/templex/value"
)

type ParseError struct {
	Message string
	Offset  int
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error at offset %d: %s", e.Offset, e.Message)
}

// Parse parses a whole expression.
func Parse(source string) (templex.Node, error) {
	tokens, err := NewLexer(source).Tokenize()
	if err != nil {
		return nil, err
	}
	p := &parser{tokens: tokens}
	node, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	if tok := p.peek(); tok.Type != TokenEOF {
		return nil, p.errorf(tok, "unexpected %s", tok)
	}
	return node, nil
}

// MustParse panics on invalid source; it is meant for fixed expressions.
func MustParse(source string) templex.Node {
	node, err := Parse(source)
	if err != nil {
		panic(err)
	}
	return node
}

type parser struct {
	tokens []Token
	i      int
}

func (p *parser) peek() Token {
	return p.tokens[p.i]
}

func (p *parser) next() Token {
	tok := p.tokens[p.i]
	if tok.Type != TokenEOF {
		p.i++
	}
	return tok
}

func (p *parser) errorf(tok Token, format string, args ...any) error {
	return &ParseError{Message: fmt.Sprintf(format, args...), Offset: tok.Position}
}

func (p *parser) expect(tt TokenType, what string) (Token, error) {
	tok := p.next()
	if tok.Type != tt {
		return tok, p.errorf(tok, "expected %s, got %s", what, tok)
	}
	return tok, nil
}

func isKeyword(tok Token, keyword string) bool {
	return tok.Type == TokenIdentifier && strings.EqualFold(tok.Value, keyword)
}

func (p *parser) acceptOr() bool {
	tok := p.peek()
	if tok.Type == TokenOr || isKeyword(tok, "OR") {
		p.next()
		return true
	}
	return false
}

func (p *parser) acceptAnd() bool {
	tok := p.peek()
	if tok.Type == TokenAnd || isKeyword(tok, "AND") {
		p.next()
		return true
	}
	return false
}

func (p *parser) parseOr() (templex.Node, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.acceptOr() {
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = templex.Or(left, right)
	}
	return left, nil
}

func (p *parser) parseAnd() (templex.Node, error) {
	left, err := p.parseNot()
	if err != nil {
		return nil, err
	}
	for p.acceptAnd() {
		right, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		left = templex.And(left, right)
	}
	return left, nil
}

func (p *parser) parseNot() (templex.Node, error) {
	if tok := p.peek(); tok.Type == TokenNot || isKeyword(tok, "NOT") {
		p.next()
		operand, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		return templex.Not(operand), nil
	}
	return p.parseComparison()
}

var comparisons = map[TokenType]operators.Operator{
	TokenEq:  operators.OperatorEq,
	TokenNe:  operators.OperatorNe,
	TokenLt:  operators.OperatorLt,
	TokenLte: operators.OperatorLte,
	TokenGt:  operators.OperatorGt,
	TokenGte: operators.OperatorGte,
}

func (p *parser) parseComparison() (templex.Node, error) {
	left, err := p.parseConcat()
	if err != nil {
		return nil, err
	}
	op, ok := comparisons[p.peek().Type]
	if !ok {
		return left, nil
	}
	p.next()
	right, err := p.parseConcat()
	if err != nil {
		return nil, err
	}
	if tok := p.peek(); comparisons[tok.Type] != "" {
		return nil, p.errorf(tok, "comparisons cannot be chained, use parentheses")
	}
	return templex.NewInfixNode(left, op, right), nil
}

func (p *parser) parseConcat() (templex.Node, error) {
	left, err := p.parseAdditive()
	if err != nil {
		return nil, err
	}
	for p.peek().Type == TokenConcat {
		p.next()
		right, err := p.parseAdditive()
		if err != nil {
			return nil, err
		}
		left = templex.Concat(left, right)
	}
	return left, nil
}

func (p *parser) parseAdditive() (templex.Node, error) {
	left, err := p.parseMultiplicative()
	if err != nil {
		return nil, err
	}
	for {
		switch p.peek().Type {
		case TokenPlus:
			p.next()
			right, err := p.parseMultiplicative()
			if err != nil {
				return nil, err
			}
			left = templex.Add(left, right)
		case TokenMinus:
			p.next()
			right, err := p.parseMultiplicative()
			if err != nil {
				return nil, err
			}
			left = templex.Sub(left, right)
		default:
			return left, nil
		}
	}
}

func (p *parser) parseMultiplicative() (templex.Node, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for {
		switch p.peek().Type {
		case TokenStar:
			p.next()
			right, err := p.parseUnary()
			if err != nil {
				return nil, err
			}
			left = templex.Mul(left, right)
		case TokenSlash:
			p.next()
			right, err := p.parseUnary()
			if err != nil {
				return nil, err
			}
			left = templex.Div(left, right)
		default:
			return left, nil
		}
	}
}

// parseUnary folds a minus sign into a number literal; before any other
// operand it reads as subtraction from zero.
func (p *parser) parseUnary() (templex.Node, error) {
	if p.peek().Type != TokenMinus {
		return p.parsePrimary()
	}
	minus := p.next()
	if tok := p.peek(); tok.Type == TokenNumber {
		p.next()
		return p.number(tok, "-"+tok.Value)
	}
	operand, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	zero, err := p.number(minus, "0")
	if err != nil {
		return nil, err
	}
	return templex.Sub(zero, operand), nil
}

func (p *parser) parsePrimary() (templex.Node, error) {
	tok := p.next()
	switch tok.Type {
	case TokenNumber:
		return p.number(tok, tok.Value)
	case TokenString:
		return templex.Literal(value.Text(unquote(tok.Value))), nil
	case TokenDateTime:
		t, err := parseDateTime(tok.Value[1 : len(tok.Value)-1])
		if err != nil {
			return nil, p.errorf(tok, "invalid date/time %s", tok)
		}
		return templex.Literal(value.DateTime(t)), nil
	case TokenLParen:
		node, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(TokenRParen, `")"`); err != nil {
			return nil, err
		}
		return node, nil
	case TokenIdentifier:
		return p.parseIdentifier(tok)
	case TokenBracketed:
		return p.parsePath(tok)
	}
	return nil, p.errorf(tok, "unexpected %s", tok)
}

func (p *parser) parseIdentifier(tok Token) (templex.Node, error) {
	switch strings.ToLower(tok.Value) {
	case "true":
		return templex.Literal(value.True), nil
	case "false":
		return templex.Literal(value.False), nil
	case "null":
		return templex.Literal(value.Null()), nil
	case "and", "or", "not":
		return nil, p.errorf(tok, "unexpected %s", tok)
	}
	if p.peek().Type == TokenLParen {
		return p.parseCall(tok)
	}
	return p.parsePath(tok)
}

// parsePath reads the dotted path starting at first.
func (p *parser) parsePath(first Token) (templex.Node, error) {
	segments := []string{segmentName(first)}
	for p.peek().Type == TokenDot {
		p.next()
		tok := p.next()
		if tok.Type != TokenIdentifier && tok.Type != TokenBracketed {
			return nil, p.errorf(tok, "expected property name, got %s", tok)
		}
		segments = append(segments, segmentName(tok))
	}
	ref, err := path.New(segments...)
	if err != nil {
		return nil, p.errorf(first, "%v", err)
	}
	return templex.Ref(ref), nil
}

func segmentName(tok Token) string {
	if tok.Type == TokenBracketed {
		return strings.ReplaceAll(tok.Value[1:len(tok.Value)-1], "]]", "]")
	}
	return tok.Value
}

func (p *parser) parseCall(name Token) (templex.Node, error) {
	p.next()
	var args []templex.Node
	if p.peek().Type != TokenRParen {
		for {
			arg, err := p.parseOr()
			if err != nil {
				return nil, err
			}
			args = append(args, arg)
			if p.peek().Type != TokenComma {
				break
			}
			p.next()
		}
	}
	if _, err := p.expect(TokenRParen, `")" or ","`); err != nil {
		return nil, err
	}
	if strings.EqualFold(name.Value, "If") {
		if len(args) != 3 {
			return nil, p.errorf(name, "If expects 3 arguments, got %d", len(args))
		}
		return templex.If(args[0], args[1], args[2]), nil
	}
	return templex.Call(name.Value, args...), nil
}

func (p *parser) number(tok Token, text string) (templex.Node, error) {
	n, err := value.ParseNumber(text)
	if err != nil {
		return nil, p.errorf(tok, "invalid number %s", tok)
	}
	return templex.Literal(n), nil
}

func unquote(quoted string) string {
	body := quoted[1 : len(quoted)-1]
	if !strings.Contains(body, `\`) {
		return body
	}
	var sb strings.Builder
	escaped := false
	for _, r := range body {
		if !escaped && r == '\\' {
			escaped = true
			continue
		}
		escaped = false
		sb.WriteRune(r)
	}
	return sb.String()
}

var dateTimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func parseDateTime(s string) (time.Time, error) {
	var err error
	for _, layout := range dateTimeLayouts {
		var t time.Time
		if t, err = time.Parse(layout, strings.TrimSpace(s)); err == nil {
			return t, nil
		}
	}
	return time.Time{}, err
}
