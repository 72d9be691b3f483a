package templex

import (
	"github.com/krew-solutions/templex-go/templex/domain/operators"
	"github.com/krew-solutions/templex-go/templex/path"
	"github.com/krew-solutions/templex-go/templex/value"
)

type Associativity string

const (
	LeftAssociative  Associativity = "LEFT"
	RightAssociative Associativity = "RIGHT"
	NonAssociative   Associativity = "NON"
)

type Operable interface {
	Associativity() Associativity
	Operator() operators.Operator
}

// Node is the closed set of expression forms. Nodes are immutable and may be
// shared by concurrent evaluations.
type Node interface {
	Accept(Visitor) error
	String() string
	node()
}

type Visitor interface {
	VisitLiteral(LiteralNode) error
	VisitPath(PathNode) error
	VisitPrefix(PrefixNode) error
	VisitInfix(InfixNode) error
	VisitConditional(ConditionalNode) error
	VisitCall(CallNode) error
}

func Literal(v value.Value) LiteralNode {
	return LiteralNode{value: v}
}

type LiteralNode struct {
	value value.Value
}

func (n LiteralNode) Value() value.Value {
	return n.value
}

func (n LiteralNode) Accept(v Visitor) error {
	return v.VisitLiteral(n)
}

func (n LiteralNode) String() string {
	return Render(n)
}

func (LiteralNode) node() {}

func Ref(p path.Path) PathNode {
	return PathNode{path: p}
}

// RefOf panics on a malformed dotted path; it is meant for fixed expressions.
func RefOf(dotted string) PathNode {
	return Ref(path.MustParse(dotted))
}

type PathNode struct {
	path path.Path
}

func (n PathNode) Path() path.Path {
	return n.path
}

func (n PathNode) Accept(v Visitor) error {
	return v.VisitPath(n)
}

func (n PathNode) String() string {
	return Render(n)
}

func (PathNode) node() {}

func Not(operand Node) PrefixNode {
	return PrefixNode{
		operator:      operators.OperatorNot,
		operand:       operand,
		associativity: RightAssociative,
	}
}

type PrefixNode struct {
	operator      operators.Operator
	operand       Node
	associativity Associativity
}

func (n PrefixNode) Operand() Node {
	return n.operand
}

func (n PrefixNode) Operator() operators.Operator {
	return n.operator
}

func (n PrefixNode) Associativity() Associativity {
	return n.associativity
}

func (n PrefixNode) Accept(v Visitor) error {
	return v.VisitPrefix(n)
}

func (n PrefixNode) String() string {
	return Render(n)
}

func (PrefixNode) node() {}

func NewInfixNode(left Node, operator operators.Operator, right Node) InfixNode {
	associativity := LeftAssociative
	if operator.IsComparison() {
		associativity = NonAssociative
	}
	return InfixNode{
		left:          left,
		operator:      operator,
		right:         right,
		associativity: associativity,
	}
}

func Or(left Node, rights ...Node) InfixNode {
	left, right := foldRights(Or, left, rights...)
	return NewInfixNode(left, operators.OperatorOr, right)
}

func And(left Node, rights ...Node) InfixNode {
	left, right := foldRights(And, left, rights...)
	return NewInfixNode(left, operators.OperatorAnd, right)
}

func Equal(left, right Node) InfixNode {
	return NewInfixNode(left, operators.OperatorEq, right)
}

func NotEqual(left, right Node) InfixNode {
	return NewInfixNode(left, operators.OperatorNe, right)
}

func LessThan(left, right Node) InfixNode {
	return NewInfixNode(left, operators.OperatorLt, right)
}

func LessThanEqual(left, right Node) InfixNode {
	return NewInfixNode(left, operators.OperatorLte, right)
}

func GreaterThan(left, right Node) InfixNode {
	return NewInfixNode(left, operators.OperatorGt, right)
}

func GreaterThanEqual(left, right Node) InfixNode {
	return NewInfixNode(left, operators.OperatorGte, right)
}

func Add(left, right Node) InfixNode {
	return NewInfixNode(left, operators.OperatorAdd, right)
}

func Sub(left, right Node) InfixNode {
	return NewInfixNode(left, operators.OperatorSub, right)
}

func Mul(left, right Node) InfixNode {
	return NewInfixNode(left, operators.OperatorMul, right)
}

func Div(left, right Node) InfixNode {
	return NewInfixNode(left, operators.OperatorDiv, right)
}

func Concat(left Node, rights ...Node) InfixNode {
	left, right := foldRights(Concat, left, rights...)
	return NewInfixNode(left, operators.OperatorConcat, right)
}

// foldRights turns Or(a, b, c) into Or(Or(a, b), c).
func foldRights(
	aCallable func(Node, ...Node) InfixNode,
	aLeft Node,
	aRights ...Node,
) (left, right Node) {
	for len(aRights) > 1 {
		aLeft = aCallable(aLeft, aRights[0])
		aRights = aRights[1:]
	}
	return aLeft, aRights[0]
}

type InfixNode struct {
	left          Node
	operator      operators.Operator
	right         Node
	associativity Associativity
}

func (n InfixNode) Left() Node {
	return n.left
}

func (n InfixNode) Operator() operators.Operator {
	return n.operator
}

func (n InfixNode) Right() Node {
	return n.right
}

func (n InfixNode) Associativity() Associativity {
	return n.associativity
}

func (n InfixNode) Accept(v Visitor) error {
	return v.VisitInfix(n)
}

func (n InfixNode) String() string {
	return Render(n)
}

func (InfixNode) node() {}

func If(condition, then, otherwise Node) ConditionalNode {
	return ConditionalNode{
		condition: condition,
		then:      then,
		otherwise: otherwise,
	}
}

type ConditionalNode struct {
	condition Node
	then      Node
	otherwise Node
}

func (n ConditionalNode) Condition() Node {
	return n.condition
}

func (n ConditionalNode) Then() Node {
	return n.then
}

func (n ConditionalNode) Else() Node {
	return n.otherwise
}

func (n ConditionalNode) Accept(v Visitor) error {
	return v.VisitConditional(n)
}

func (n ConditionalNode) String() string {
	return Render(n)
}

func (ConditionalNode) node() {}

func Call(name string, args ...Node) CallNode {
	return CallNode{
		name: name,
		args: append([]Node(nil), args...),
	}
}

type CallNode struct {
	name string
	args []Node
}

func (n CallNode) Name() string {
	return n.name
}

// Args returns a copy of the argument list.
func (n CallNode) Args() []Node {
	return append([]Node(nil), n.args...)
}

func (n CallNode) Accept(v Visitor) error {
	return v.VisitCall(n)
}

func (n CallNode) String() string {
	return Render(n)
}

func (CallNode) node() {}
