package templex

import (
	"context"

	"github.com/krew-solutions/templex-go/templex/domain/functions"
	"github.com/krew-solutions/templex-go/templex/domain/operators"
	"github.com/krew-solutions/templex-go/templex/path"
	"github.com/krew-solutions/templex-go/templex/value"
)

// Context resolves paths relative to one root entity. Resolve is the only
// point at which evaluation may block.
type Context interface {
	Resolve(ctx context.Context, p path.Path) (value.Value, error)
}

type EvaluateOption func(*EvaluateVisitor)

func WithOperators(registry *operators.Registry) EvaluateOption {
	return func(v *EvaluateVisitor) {
		v.operators = registry
	}
}

// WithFunctions sets the registry FunctionCall nodes are resolved against.
// Without one every call fails with ErrUnknownFunction.
func WithFunctions(registry *functions.Registry) EvaluateOption {
	return func(v *EvaluateVisitor) {
		v.functions = registry
	}
}

var defaultOperators = operators.NewDefaultRegistry()

func NewEvaluateVisitor(ctx context.Context, scope Context, opts ...EvaluateOption) *EvaluateVisitor {
	v := &EvaluateVisitor{
		ctx:       ctx,
		scope:     scope,
		operators: defaultOperators,
	}
	for i := range opts {
		opts[i](v)
	}
	return v
}

// Evaluate computes the value of n for the root of scope.
func Evaluate(ctx context.Context, n Node, scope Context, opts ...EvaluateOption) (value.Value, error) {
	v := NewEvaluateVisitor(ctx, scope, opts...)
	if err := n.Accept(v); err != nil {
		return value.Null(), err
	}
	return v.Result(), nil
}

// EvaluateVisitor evaluates one tree for one root. It is not safe for
// concurrent use; run one visitor per row.
type EvaluateVisitor struct {
	ctx          context.Context
	scope        Context
	operators    *operators.Registry
	functions    *functions.Registry
	currentValue value.Value
}

func (v *EvaluateVisitor) CurrentValue() value.Value {
	return v.currentValue
}

func (v *EvaluateVisitor) SetCurrentValue(val value.Value) {
	v.currentValue = val
}

func (v *EvaluateVisitor) Result() value.Value {
	return v.currentValue
}

func (v *EvaluateVisitor) checkCancelled(n Node) error {
	if err := v.ctx.Err(); err != nil {
		return cancelled(n, err)
	}
	return nil
}

func (v *EvaluateVisitor) eval(n Node) (value.Value, error) {
	if err := n.Accept(v); err != nil {
		return value.Null(), err
	}
	return v.CurrentValue(), nil
}

// truth reads val where a Boolean is required. Null reads as false.
func (v *EvaluateVisitor) truth(n Node, val value.Value) (bool, error) {
	b, ok := val.Boolean()
	if !ok {
		return false, &Error{
			Kind:       ErrTypeMismatch,
			Expression: n.String(),
			Message:    "expected Boolean, got " + val.Kind().String(),
		}
	}
	return b, nil
}

func (v *EvaluateVisitor) VisitLiteral(n LiteralNode) error {
	v.SetCurrentValue(n.Value())
	return nil
}

func (v *EvaluateVisitor) VisitPath(n PathNode) error {
	if v.scope == nil {
		return &Error{Kind: ErrStoreFailure, Expression: n.String(), Path: n.Path(), Message: "no evaluation context"}
	}
	val, err := v.scope.Resolve(v.ctx, n.Path())
	if err != nil {
		return atPath(classify(n, err, ErrStoreFailure), n.Path())
	}
	v.SetCurrentValue(val)
	return nil
}

func (v *EvaluateVisitor) VisitPrefix(n PrefixNode) error {
	if err := v.checkCancelled(n); err != nil {
		return err
	}
	operand, err := v.eval(n.Operand())
	if err != nil {
		return err
	}
	if n.Operator() == operators.OperatorNot {
		b, err := v.truth(n.Operand(), operand)
		if err != nil {
			return err
		}
		operand = value.Bool(b)
	}
	result, err := v.operators.ExecUnary(n.Operator(), operand)
	if err != nil {
		return classify(n, err, ErrTypeMismatch)
	}
	v.SetCurrentValue(result)
	return nil
}

// VisitInfix always evaluates both operands, including for AND and OR.
func (v *EvaluateVisitor) VisitInfix(n InfixNode) error {
	if err := v.checkCancelled(n); err != nil {
		return err
	}
	left, err := v.eval(n.Left())
	if err != nil {
		return err
	}
	right, err := v.eval(n.Right())
	if err != nil {
		return err
	}
	if op := n.Operator(); op == operators.OperatorAnd || op == operators.OperatorOr {
		l, err := v.truth(n.Left(), left)
		if err != nil {
			return err
		}
		r, err := v.truth(n.Right(), right)
		if err != nil {
			return err
		}
		left, right = value.Bool(l), value.Bool(r)
	}
	result, err := v.operators.ExecBinary(left, n.Operator(), right)
	if err != nil {
		return classify(n, err, ErrTypeMismatch)
	}
	v.SetCurrentValue(result)
	return nil
}

// VisitConditional evaluates only the branch the condition selects.
func (v *EvaluateVisitor) VisitConditional(n ConditionalNode) error {
	if err := v.checkCancelled(n); err != nil {
		return err
	}
	condition, err := v.eval(n.Condition())
	if err != nil {
		return err
	}
	b, err := v.truth(n.Condition(), condition)
	if err != nil {
		return err
	}
	branch := n.Else()
	if b {
		branch = n.Then()
	}
	return branch.Accept(v)
}

func (v *EvaluateVisitor) VisitCall(n CallNode) error {
	if err := v.checkCancelled(n); err != nil {
		return err
	}
	args := n.Args()
	values := make([]value.Value, 0, len(args))
	for _, arg := range args {
		val, err := v.eval(arg)
		if err != nil {
			return err
		}
		values = append(values, val)
	}
	fn, ok := v.functions.Lookup(n.Name())
	if !ok {
		return &Error{Kind: ErrUnknownFunction, Expression: n.String(), Message: n.Name()}
	}
	result, err := fn.Invoke(v.ctx, values)
	if err != nil {
		return classify(n, err, ErrTypeMismatch)
	}
	v.SetCurrentValue(result)
	return nil
}
