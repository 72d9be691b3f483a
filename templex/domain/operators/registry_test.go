package operators

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/krew-solutions/templex-go/templex/value"
)

func TestArithmetic(t *testing.T) {
	reg := NewDefaultRegistry()
	cases := []struct {
		left  string
		op    Operator
		right string
		want  string
	}{
		{"1.5", OperatorAdd, "2.25", "3.75"},
		{"10", OperatorSub, "0.1", "9.9"},
		{"1.2", OperatorMul, "3", "3.6"},
		{"10", OperatorDiv, "4", "2.5"},
		{"0.1", OperatorAdd, "0.2", "0.3"},
	}
	for _, c := range cases {
		t.Run(c.left+string(c.op)+c.right, func(t *testing.T) {
			got, err := reg.ExecBinary(value.MustNumber(c.left), c.op, value.MustNumber(c.right))
			require.NoError(t, err)
			assert.True(t, got.Equal(value.MustNumber(c.want)), "got %#v", got)
		})
	}
}

func TestDivisionRounding(t *testing.T) {
	reg := NewDefaultRegistry()
	got, err := reg.ExecBinary(value.Int(2), OperatorDiv, value.Int(3))
	require.NoError(t, err)
	assert.Equal(t, "0.6666666666666666666666666666666667", got.String())
}

func TestDivisionByZero(t *testing.T) {
	reg := NewDefaultRegistry()
	_, err := reg.ExecBinary(value.Int(10), OperatorDiv, value.Int(0))
	assert.ErrorIs(t, err, ErrDivisionByZero)

	_, err = reg.ExecBinary(value.Int(10), OperatorDiv, value.MustNumber("0.000"))
	assert.ErrorIs(t, err, ErrDivisionByZero)
}

func TestAddJoinsText(t *testing.T) {
	reg := NewDefaultRegistry()

	got, err := reg.ExecBinary(value.Text("Invoice "), OperatorAdd, value.Int(42))
	require.NoError(t, err)
	assert.Equal(t, "Invoice 42", got.String())

	got, err = reg.ExecBinary(value.Int(7), OperatorAdd, value.Text("th"))
	require.NoError(t, err)
	assert.Equal(t, value.Text("7th"), got)

	_, err = reg.ExecBinary(value.Text("Invoice "), OperatorAdd, value.True)
	assert.ErrorIs(t, err, ErrTypeMismatch)

	_, err = reg.ExecBinary(value.Text("Invoice "), OperatorAdd, value.Null())
	assert.ErrorIs(t, err, ErrTypeMismatch)
}

func TestArithmeticIsStrict(t *testing.T) {
	reg := NewDefaultRegistry()
	for _, op := range []Operator{OperatorSub, OperatorMul, OperatorDiv} {
		_, err := reg.ExecBinary(value.Text("10"), op, value.Int(2))
		assert.ErrorIs(t, err, ErrTypeMismatch, op)
		_, err = reg.ExecBinary(value.Null(), op, value.Int(2))
		assert.ErrorIs(t, err, ErrTypeMismatch, op)
	}
}

func TestConcatenate(t *testing.T) {
	reg := NewDefaultRegistry()
	got, err := reg.ExecBinary(value.Null(), OperatorConcat, value.Int(5))
	require.NoError(t, err)
	assert.Equal(t, value.Text("5"), got)

	got, err = reg.ExecBinary(value.True, OperatorConcat, value.Text("!"))
	require.NoError(t, err)
	assert.Equal(t, value.Text("true!"), got)
}

func TestEqualityWithNull(t *testing.T) {
	reg := NewDefaultRegistry()
	cases := []struct {
		name        string
		left, right value.Value
		op          Operator
		want        bool
	}{
		{"null = null", value.Null(), value.Null(), OperatorEq, true},
		{"null = 1", value.Null(), value.Int(1), OperatorEq, false},
		{"text != null", value.Text("a"), value.Null(), OperatorNe, true},
		{"null != null", value.Null(), value.Null(), OperatorNe, false},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got, err := reg.ExecBinary(c.left, c.op, c.right)
			require.NoError(t, err)
			assert.Equal(t, value.Bool(c.want), got)
		})
	}
}

func TestComparisonRequiresSameKind(t *testing.T) {
	reg := NewDefaultRegistry()

	_, err := reg.ExecBinary(value.Int(1), OperatorEq, value.Text("1"))
	assert.ErrorIs(t, err, ErrTypeMismatch)

	_, err = reg.ExecBinary(value.Null(), OperatorLt, value.Int(1))
	assert.ErrorIs(t, err, ErrTypeMismatch)

	_, err = reg.ExecBinary(value.True, OperatorGt, value.False)
	assert.ErrorIs(t, err, ErrTypeMismatch)
}

func TestOrdering(t *testing.T) {
	reg := NewDefaultRegistry()
	earlier := value.DateTime(time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC))
	later := value.DateTime(time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC))

	cases := []struct {
		name        string
		left, right value.Value
		op          Operator
		want        bool
	}{
		{"150 > 100", value.Int(150), value.Int(100), OperatorGt, true},
		{"50 > 100", value.Int(50), value.Int(100), OperatorGt, false},
		{"1.0 = 1", value.MustNumber("1.0"), value.Int(1), OperatorEq, true},
		{"1 <= 1", value.Int(1), value.Int(1), OperatorLte, true},
		{"B < a", value.Text("B"), value.Text("a"), OperatorLt, true},
		{"date <", earlier, later, OperatorLt, true},
		{"date >=", earlier, later, OperatorGte, false},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got, err := reg.ExecBinary(c.left, c.op, c.right)
			require.NoError(t, err)
			assert.Equal(t, value.Bool(c.want), got)
		})
	}
}

func TestLogical(t *testing.T) {
	reg := NewDefaultRegistry()
	got, err := reg.ExecBinary(value.True, OperatorAnd, value.False)
	require.NoError(t, err)
	assert.Equal(t, value.False, got)

	got, err = reg.ExecBinary(value.False, OperatorOr, value.True)
	require.NoError(t, err)
	assert.Equal(t, value.True, got)

	got, err = reg.ExecUnary(OperatorNot, value.False)
	require.NoError(t, err)
	assert.Equal(t, value.True, got)

	_, err = reg.ExecUnary(OperatorNot, value.Int(1))
	assert.ErrorIs(t, err, ErrTypeMismatch)
}

func TestEntityEquality(t *testing.T) {
	reg := NewDefaultRegistry()
	a := value.Entity(value.EntityRef{Collection: "Centers", Key: "1"})
	b := value.Entity(value.EntityRef{Collection: "Centers", Key: "1"})
	got, err := reg.ExecBinary(a, OperatorEq, b)
	require.NoError(t, err)
	assert.Equal(t, value.True, got)

	_, err = reg.ExecBinary(a, OperatorLt, b)
	assert.ErrorIs(t, err, ErrTypeMismatch)
}
