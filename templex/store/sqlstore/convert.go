package sqlstore

import (
	"github.com/cockroachdb/apd/v3"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/pkg/errors"

	"github.com/krew-solutions/templex-go/templex/value"
)

// toValue converts a column value as returned by pgx.Rows.Values.
func toValue(x any) (value.Value, error) {
	switch v := x.(type) {
	case pgtype.Numeric:
		return numeric(v)
	case [16]byte:
		return value.Text(uuid.UUID(v).String()), nil
	case pgtype.UUID:
		if !v.Valid {
			return value.Null(), nil
		}
		return value.Text(uuid.UUID(v.Bytes).String()), nil
	}
	return value.FromNative(x)
}

func numeric(n pgtype.Numeric) (value.Value, error) {
	if !n.Valid {
		return value.Null(), nil
	}
	if n.NaN || n.InfinityModifier != pgtype.Finite {
		return value.Null(), errors.New("numeric is not finite")
	}
	coeff := new(apd.BigInt)
	if n.Int != nil {
		coeff.SetMathBigInt(n.Int)
	}
	return value.Number(apd.NewWithBigInt(coeff, n.Exp)), nil
}

func keyString(x any) (string, error) {
	if s, ok := x.(string); ok {
		return s, nil
	}
	v, err := toValue(x)
	if err != nil {
		return "", err
	}
	if v.IsNull() {
		return "", errors.New("null key")
	}
	return v.String(), nil
}
