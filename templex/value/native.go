package value

import (
	"math/big"
	"strconv"
	"time"

	"github.com/cockroachdb/apd/v3"
	"github.com/pkg/errors"
)

// FromNative converts plain Go values, as produced by YAML decoding or a
// database driver, into a Value.
func FromNative(x any) (Value, error) {
	switch v := x.(type) {
	case nil:
		return Null(), nil
	case Value:
		return v, nil
	case bool:
		return Bool(v), nil
	case int:
		return Int(int64(v)), nil
	case int8:
		return Int(int64(v)), nil
	case int16:
		return Int(int64(v)), nil
	case int32:
		return Int(int64(v)), nil
	case int64:
		return Int(v), nil
	case uint:
		return fromUint(uint64(v)), nil
	case uint8:
		return Int(int64(v)), nil
	case uint16:
		return Int(int64(v)), nil
	case uint32:
		return Int(int64(v)), nil
	case uint64:
		return fromUint(v), nil
	case float32:
		return Float(float64(v))
	case float64:
		return Float(v)
	case *big.Int:
		if v == nil {
			return Null(), nil
		}
		return ParseNumber(v.String())
	case apd.Decimal:
		return Number(&v), nil
	case *apd.Decimal:
		return Number(v), nil
	case string:
		return Text(v), nil
	case []byte:
		return Text(string(v)), nil
	case time.Time:
		return DateTime(v), nil
	case *time.Time:
		if v == nil {
			return Null(), nil
		}
		return DateTime(*v), nil
	case EntityRef:
		return Entity(v), nil
	case *EntityRef:
		if v == nil {
			return Null(), nil
		}
		return Entity(*v), nil
	}
	return Null(), errors.Wrapf(ErrUnsupported, "%T", x)
}

func fromUint(u uint64) Value {
	return MustNumber(strconv.FormatUint(u, 10))
}

// Native is the inverse of FromNative. Numbers come back as *apd.Decimal.
func (v Value) Native() any {
	switch v.kind {
	case KindBoolean:
		return v.b
	case KindNumber:
		return v.Decimal()
	case KindText:
		return v.s
	case KindDateTime:
		return v.t
	case KindEntity:
		return v.ref
	}
	return nil
}
