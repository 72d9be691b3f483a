package templex

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/krew-solutions/templex-go/templex/path"
	"github.com/krew-solutions/templex-go/templex/value"
)

// Render returns the infix form of n, parenthesized only where precedence
// or associativity requires it.
func Render(n Node) string {
	v := NewStringVisitor()
	if err := n.Accept(v); err != nil {
		return fmt.Sprintf("<%v>", err)
	}
	return v.Result()
}

type operandSide int

const (
	sideNone operandSide = iota
	sideLeft
	sideRight
)

func NewStringVisitor() *StringVisitor {
	v := &StringVisitor{
		precedenceMapping: make(map[string]int),
	}
	v.setPrecedence(70, "* LEFT", "/ LEFT")
	v.setPrecedence(60, "+ LEFT", "- LEFT")
	v.setPrecedence(50, "& LEFT")
	v.setPrecedence(40, "= NON", "!= NON", "< NON", "<= NON", "> NON", ">= NON")
	v.setPrecedence(30, "NOT RIGHT")
	v.setPrecedence(20, "AND LEFT")
	v.setPrecedence(10, "OR LEFT")
	return v
}

type StringVisitor struct {
	sb                strings.Builder
	precedence        int
	associativity     Associativity
	side              operandSide
	precedenceMapping map[string]int
}

func (v *StringVisitor) getNodePrecedenceKey(n Operable) string {
	return fmt.Sprintf("%s %s", n.Operator(), n.Associativity())
}

func (v *StringVisitor) setPrecedence(precedence int, operators ...string) {
	for _, op := range operators {
		v.precedenceMapping[op] = precedence
	}
}

func (v *StringVisitor) needsParens(inner int) bool {
	if inner != v.precedence {
		return inner < v.precedence
	}
	switch v.associativity {
	case LeftAssociative:
		return v.side == sideRight
	case RightAssociative:
		return v.side == sideLeft
	case NonAssociative:
		return true
	}
	return false
}

func (v *StringVisitor) visit(n Operable, callable func() error) error {
	inner := v.precedenceMapping[v.getNodePrecedenceKey(n)]
	parens := v.needsParens(inner)
	outerPrecedence, outerAssociativity, outerSide := v.precedence, v.associativity, v.side
	v.precedence, v.associativity = inner, n.Associativity()
	if parens {
		v.sb.WriteString("(")
	}
	err := callable()
	if err != nil {
		return err
	}
	if parens {
		v.sb.WriteString(")")
	}
	v.precedence, v.associativity, v.side = outerPrecedence, outerAssociativity, outerSide
	return nil
}

// operand renders a nested expression on one side of the current operator.
func (v *StringVisitor) operand(side operandSide, n Node) error {
	v.side = side
	return n.Accept(v)
}

// isolated renders n as a self-contained argument, such as a call argument.
func (v *StringVisitor) isolated(n Node) error {
	outerPrecedence, outerAssociativity, outerSide := v.precedence, v.associativity, v.side
	v.precedence, v.associativity, v.side = 0, "", sideNone
	err := n.Accept(v)
	v.precedence, v.associativity, v.side = outerPrecedence, outerAssociativity, outerSide
	return err
}

func (v *StringVisitor) VisitLiteral(n LiteralNode) error {
	v.sb.WriteString(FormatLiteral(n.Value()))
	return nil
}

func (v *StringVisitor) VisitPath(n PathNode) error {
	v.sb.WriteString(FormatPath(n.Path()))
	return nil
}

func (v *StringVisitor) VisitPrefix(n PrefixNode) error {
	return v.visit(n, func() error {
		v.sb.WriteString(string(n.Operator()))
		v.sb.WriteString(" ")
		return v.operand(sideRight, n.Operand())
	})
}

func (v *StringVisitor) VisitInfix(n InfixNode) error {
	return v.visit(n, func() error {
		if err := v.operand(sideLeft, n.Left()); err != nil {
			return err
		}
		v.sb.WriteString(" ")
		v.sb.WriteString(string(n.Operator()))
		v.sb.WriteString(" ")
		return v.operand(sideRight, n.Right())
	})
}

func (v *StringVisitor) VisitConditional(n ConditionalNode) error {
	return v.call("If", n.Condition(), n.Then(), n.Else())
}

func (v *StringVisitor) VisitCall(n CallNode) error {
	return v.call(n.Name(), n.Args()...)
}

func (v *StringVisitor) call(name string, args ...Node) error {
	v.sb.WriteString(name)
	v.sb.WriteString("(")
	for i, arg := range args {
		if i > 0 {
			v.sb.WriteString(", ")
		}
		if err := v.isolated(arg); err != nil {
			return err
		}
	}
	v.sb.WriteString(")")
	return nil
}

func (v *StringVisitor) Result() string {
	return v.sb.String()
}

// FormatLiteral renders a value in the form the parser reads back.
func FormatLiteral(val value.Value) string {
	switch val.Kind() {
	case value.KindNull:
		return "null"
	case value.KindText:
		s, _ := val.Str()
		return QuoteText(s)
	case value.KindDateTime:
		t, _ := val.Time()
		return "#" + t.Format(time.RFC3339Nano) + "#"
	case value.KindEntity:
		return QuoteText(val.String())
	}
	return val.String()
}

var textEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`)

func QuoteText(s string) string {
	return `"` + textEscaper.Replace(s) + `"`
}

var plainSegment = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

var reservedWords = map[string]struct{}{
	"and": {}, "or": {}, "not": {}, "true": {}, "false": {}, "null": {},
}

// FormatPath renders p as the parser reads it back. Segments that are
// reserved words or not plain identifiers are bracketed, ] doubled inside
// brackets: [Null].Name, [a]]b].
func FormatPath(p path.Path) string {
	segments := p.Segments()
	for i, segment := range segments {
		_, reserved := reservedWords[strings.ToLower(segment)]
		if reserved || !plainSegment.MatchString(segment) {
			segments[i] = "[" + strings.ReplaceAll(segment, "]", "]]") + "]"
		}
	}
	return strings.Join(segments, path.Separator)
}
