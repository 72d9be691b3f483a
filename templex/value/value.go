// Package value implements the dynamically typed runtime values Templex
// expressions operate on.
//
// A Value is one of Null, Boolean, Number, Text, DateTime or Entity. Numbers
// are arbitrary-precision decimals. Values never coerce across kinds on their
// own; the only implicit conversion is Null read as false where an operator
// requires a Boolean, see Value.Boolean.
package value

import (
	"fmt"
	"strconv"
	"time"

	"github.com/cockroachdb/apd/v3"
	"github.com/pkg/errors"
)

type Kind uint8

const (
	KindNull Kind = iota
	KindBoolean
	KindNumber
	KindText
	KindDateTime
	KindEntity
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "Null"
	case KindBoolean:
		return "Boolean"
	case KindNumber:
		return "Number"
	case KindText:
		return "Text"
	case KindDateTime:
		return "DateTime"
	case KindEntity:
		return "Entity"
	}
	return "Kind(" + strconv.Itoa(int(k)) + ")"
}

var (
	ErrIncomparable = errors.New("values are not comparable")
	ErrUnsupported  = errors.New("unsupported native value")
)

// EntityRef identifies one entity of a collection.
type EntityRef struct {
	Collection string
	Key        string
}

func (r EntityRef) String() string {
	return r.Collection + "/" + r.Key
}

func (r EntityRef) IsZero() bool {
	return r.Collection == "" && r.Key == ""
}

// Value is immutable. The zero Value is Null.
type Value struct {
	kind Kind
	b    bool
	n    *apd.Decimal
	s    string
	t    time.Time
	ref  EntityRef
}

var (
	True  = Value{kind: KindBoolean, b: true}
	False = Value{kind: KindBoolean, b: false}
)

func Null() Value {
	return Value{}
}

func Bool(b bool) Value {
	if b {
		return True
	}
	return False
}

// Number copies d, so later changes to d are not observed.
func Number(d *apd.Decimal) Value {
	if d == nil {
		return Null()
	}
	n := new(apd.Decimal).Set(d)
	return Value{kind: KindNumber, n: n}
}

func Int(i int64) Value {
	return Value{kind: KindNumber, n: apd.New(i, 0)}
}

// Float converts through the shortest decimal representation of f.
func Float(f float64) (Value, error) {
	n, err := new(apd.Decimal).SetFloat64(f)
	if err != nil {
		return Null(), errors.Wrapf(err, "cannot represent %v as a number", f)
	}
	return Value{kind: KindNumber, n: n}, nil
}

func ParseNumber(s string) (Value, error) {
	n, _, err := apd.NewFromString(s)
	if err != nil {
		return Null(), errors.Wrapf(err, "invalid number %q", s)
	}
	if n.Form != apd.Finite {
		return Null(), errors.Errorf("invalid number %q", s)
	}
	return Value{kind: KindNumber, n: n}, nil
}

// MustNumber is ParseNumber for constants known to be valid.
func MustNumber(s string) Value {
	v, err := ParseNumber(s)
	if err != nil {
		panic(err)
	}
	return v
}

func Text(s string) Value {
	return Value{kind: KindText, s: s}
}

func DateTime(t time.Time) Value {
	return Value{kind: KindDateTime, t: t}
}

func Entity(ref EntityRef) Value {
	return Value{kind: KindEntity, ref: ref}
}

func (v Value) Kind() Kind {
	return v.kind
}

func (v Value) IsNull() bool {
	return v.kind == KindNull
}

// Boolean reports the truth value of v where an operator requires a
// Boolean. Null reads as false. ok is false for any other kind.
func (v Value) Boolean() (b bool, ok bool) {
	switch v.kind {
	case KindNull:
		return false, true
	case KindBoolean:
		return v.b, true
	}
	return false, false
}

// Decimal returns a copy of the number, or nil if v is not a Number.
func (v Value) Decimal() *apd.Decimal {
	if v.kind != KindNumber {
		return nil
	}
	return new(apd.Decimal).Set(v.n)
}

func (v Value) Str() (string, bool) {
	return v.s, v.kind == KindText
}

func (v Value) Time() (time.Time, bool) {
	return v.t, v.kind == KindDateTime
}

func (v Value) Ref() (EntityRef, bool) {
	return v.ref, v.kind == KindEntity
}

// String is the textual representation used by concatenation. Null renders
// as the empty string.
func (v Value) String() string {
	switch v.kind {
	case KindBoolean:
		return strconv.FormatBool(v.b)
	case KindNumber:
		return v.n.Text('f')
	case KindText:
		return v.s
	case KindDateTime:
		return v.t.Format(time.RFC3339Nano)
	case KindEntity:
		return v.ref.String()
	}
	return ""
}

// GoString renders v for diagnostics, e.g. Text("a") or Number(1.5).
func (v Value) GoString() string {
	switch v.kind {
	case KindNull:
		return "Null"
	case KindText:
		return "Text(" + strconv.Quote(v.s) + ")"
	}
	return fmt.Sprintf("%s(%s)", v.kind, v.String())
}

// Equal compares kind and content. Numbers compare by value, so 1.0 equals 1.
func (v Value) Equal(other Value) bool {
	if v.kind != other.kind {
		return false
	}
	switch v.kind {
	case KindNull:
		return true
	case KindBoolean:
		return v.b == other.b
	case KindNumber:
		return v.n.Cmp(other.n) == 0
	case KindText:
		return v.s == other.s
	case KindDateTime:
		return v.t.Equal(other.t)
	case KindEntity:
		return v.ref == other.ref
	}
	return false
}

// Compare orders two values of the same orderable kind: Number by exact
// decimal value, Text ordinally, DateTime chronologically.
func Compare(a, b Value) (int, error) {
	if a.kind != b.kind {
		return 0, errors.Wrapf(ErrIncomparable, "%s and %s", a.kind, b.kind)
	}
	switch a.kind {
	case KindNumber:
		return a.n.Cmp(b.n), nil
	case KindText:
		switch {
		case a.s < b.s:
			return -1, nil
		case a.s > b.s:
			return 1, nil
		}
		return 0, nil
	case KindDateTime:
		return a.t.Compare(b.t), nil
	}
	return 0, errors.Wrapf(ErrIncomparable, "%s has no ordering", a.kind)
}
