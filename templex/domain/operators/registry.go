package operators

import (
	"github.com/pkg/errors"

	"github.com/krew-solutions/templex-go/templex/value"
)

var (
	ErrTypeMismatch   = errors.New("type mismatch")
	ErrDivisionByZero = errors.New("division by zero")
)

type BinaryOp func(left, right value.Value) (value.Value, error)
type UnaryOp func(operand value.Value) (value.Value, error)

type binaryKey struct {
	left  value.Kind
	op    Operator
	right value.Kind
}

type unaryKey struct {
	op      Operator
	operand value.Kind
}

// Registry dispatches operators on the kinds of their operands. A missing
// entry is a type mismatch; values are never coerced across kinds to find one.
type Registry struct {
	binary map[binaryKey]BinaryOp
	unary  map[unaryKey]UnaryOp
}

func NewRegistry() *Registry {
	return &Registry{
		binary: make(map[binaryKey]BinaryOp),
		unary:  make(map[unaryKey]UnaryOp),
	}
}

func (r *Registry) RegisterBinary(left value.Kind, op Operator, right value.Kind, fn BinaryOp) {
	r.binary[binaryKey{left: left, op: op, right: right}] = fn
}

func (r *Registry) RegisterUnary(op Operator, operand value.Kind, fn UnaryOp) {
	r.unary[unaryKey{op: op, operand: operand}] = fn
}

// ExecBinary applies op. Null is equal only to Null and unequal to
// everything else; every other operator rejects Null unless a Null entry was
// registered. Concatenation accepts operands of any kind.
func (r *Registry) ExecBinary(left value.Value, op Operator, right value.Value) (value.Value, error) {
	switch op {
	case OperatorEq, OperatorNe:
		if left.IsNull() || right.IsNull() {
			equal := left.IsNull() && right.IsNull()
			return value.Bool(equal == (op == OperatorEq)), nil
		}
	case OperatorConcat:
		return value.Text(left.String() + right.String()), nil
	}
	fn, ok := r.binary[binaryKey{left: left.Kind(), op: op, right: right.Kind()}]
	if !ok {
		return value.Null(), errors.Wrapf(ErrTypeMismatch,
			"operator %q is not supported for %s and %s", op, left.Kind(), right.Kind())
	}
	return fn(left, right)
}

func (r *Registry) ExecUnary(op Operator, operand value.Value) (value.Value, error) {
	fn, ok := r.unary[unaryKey{op: op, operand: operand.Kind()}]
	if !ok {
		return value.Null(), errors.Wrapf(ErrTypeMismatch,
			"operator %q is not supported for %s", op, operand.Kind())
	}
	return fn(operand)
}
