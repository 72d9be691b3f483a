package operators

import (
	"github.com/cockroachdb/apd/v3"
	"github.com/pkg/errors"

	"github.com/krew-solutions/templex-go/templex/value"
)

// Precision is the number of significant digits kept by arithmetic, the
// precision of IEEE 754 decimal128.
const Precision = 34

var decimalContext = func() *apd.Context {
	c := apd.BaseContext.WithPrecision(Precision)
	c.Rounding = apd.RoundHalfEven
	return c
}()

type decimalOp func(c *apd.Context, d, x, y *apd.Decimal) (apd.Condition, error)

func arithmetic(op Operator, fn decimalOp) BinaryOp {
	return func(left, right value.Value) (value.Value, error) {
		var d apd.Decimal
		if _, err := fn(decimalContext, &d, left.Decimal(), right.Decimal()); err != nil {
			return value.Null(), errors.Wrapf(err, "operator %q", op)
		}
		return value.Number(&d), nil
	}
}

func divide(left, right value.Value) (value.Value, error) {
	divisor := right.Decimal()
	if divisor.IsZero() {
		return value.Null(), errors.Wrapf(ErrDivisionByZero, "%s / %s", left, right)
	}
	var d apd.Decimal
	if _, err := decimalContext.Quo(&d, left.Decimal(), divisor); err != nil {
		return value.Null(), errors.Wrap(err, "operator \"/\"")
	}
	return value.Number(&d), nil
}

func concat(left, right value.Value) (value.Value, error) {
	return value.Text(left.String() + right.String()), nil
}

func registerOrdering(reg *Registry, kind value.Kind) {
	compare := func(accept func(int) bool) BinaryOp {
		return func(left, right value.Value) (value.Value, error) {
			c, err := value.Compare(left, right)
			if err != nil {
				return value.Null(), errors.Wrap(ErrTypeMismatch, err.Error())
			}
			return value.Bool(accept(c)), nil
		}
	}
	reg.RegisterBinary(kind, OperatorEq, kind, compare(func(c int) bool { return c == 0 }))
	reg.RegisterBinary(kind, OperatorNe, kind, compare(func(c int) bool { return c != 0 }))
	reg.RegisterBinary(kind, OperatorLt, kind, compare(func(c int) bool { return c < 0 }))
	reg.RegisterBinary(kind, OperatorLte, kind, compare(func(c int) bool { return c <= 0 }))
	reg.RegisterBinary(kind, OperatorGt, kind, compare(func(c int) bool { return c > 0 }))
	reg.RegisterBinary(kind, OperatorGte, kind, compare(func(c int) bool { return c >= 0 }))
}

func registerEquality(reg *Registry, kind value.Kind) {
	reg.RegisterBinary(kind, OperatorEq, kind, func(a, b value.Value) (value.Value, error) {
		return value.Bool(a.Equal(b)), nil
	})
	reg.RegisterBinary(kind, OperatorNe, kind, func(a, b value.Value) (value.Value, error) {
		return value.Bool(!a.Equal(b)), nil
	})
}

// NewDefaultRegistry creates a registry with strict operator semantics:
// arithmetic only on Number, comparisons only between values of one kind,
// and + joining text when either side is Text and the other is Text, Number
// or DateTime.
func NewDefaultRegistry() *Registry {
	reg := NewRegistry()

	// Boolean
	registerEquality(reg, value.KindBoolean)
	reg.RegisterBinary(value.KindBoolean, OperatorAnd, value.KindBoolean, func(a, b value.Value) (value.Value, error) {
		l, _ := a.Boolean()
		r, _ := b.Boolean()
		return value.Bool(l && r), nil
	})
	reg.RegisterBinary(value.KindBoolean, OperatorOr, value.KindBoolean, func(a, b value.Value) (value.Value, error) {
		l, _ := a.Boolean()
		r, _ := b.Boolean()
		return value.Bool(l || r), nil
	})
	reg.RegisterUnary(OperatorNot, value.KindBoolean, func(a value.Value) (value.Value, error) {
		b, _ := a.Boolean()
		return value.Bool(!b), nil
	})

	// Number
	registerOrdering(reg, value.KindNumber)
	reg.RegisterBinary(value.KindNumber, OperatorAdd, value.KindNumber, arithmetic(OperatorAdd, (*apd.Context).Add))
	reg.RegisterBinary(value.KindNumber, OperatorSub, value.KindNumber, arithmetic(OperatorSub, (*apd.Context).Sub))
	reg.RegisterBinary(value.KindNumber, OperatorMul, value.KindNumber, arithmetic(OperatorMul, (*apd.Context).Mul))
	reg.RegisterBinary(value.KindNumber, OperatorDiv, value.KindNumber, divide)

	// Text
	registerOrdering(reg, value.KindText)
	reg.RegisterBinary(value.KindText, OperatorAdd, value.KindText, concat)
	reg.RegisterBinary(value.KindText, OperatorAdd, value.KindNumber, concat)
	reg.RegisterBinary(value.KindNumber, OperatorAdd, value.KindText, concat)
	reg.RegisterBinary(value.KindText, OperatorAdd, value.KindDateTime, concat)
	reg.RegisterBinary(value.KindDateTime, OperatorAdd, value.KindText, concat)

	// DateTime
	registerOrdering(reg, value.KindDateTime)

	// Entity references compare by identity only.
	registerEquality(reg, value.KindEntity)

	return reg
}
