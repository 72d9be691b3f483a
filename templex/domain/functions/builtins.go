package functions

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/cockroachdb/apd/v3"
	"github.com/pkg/errors"

	"github.com/krew-solutions/templex-go/templex/value"
)

var roundingContext = func() *apd.Context {
	c := apd.BaseContext.WithPrecision(34)
	c.Rounding = apd.RoundHalfUp
	return c
}()

// Builtins returns the standard functions. Every builtin except Coalesce,
// IsNull and Text passes Null through unchanged.
func Builtins() []Function {
	return []Function{
		{Name: "Coalesce", MinArgs: 1, MaxArgs: Variadic, Call: coalesce},
		{Name: "IsNull", MinArgs: 1, MaxArgs: 1, Call: isNull},
		{Name: "Upper", MinArgs: 1, MaxArgs: 1, Call: textFunc("Upper", strings.ToUpper)},
		{Name: "Lower", MinArgs: 1, MaxArgs: 1, Call: textFunc("Lower", strings.ToLower)},
		{Name: "Trim", MinArgs: 1, MaxArgs: 1, Call: textFunc("Trim", strings.TrimSpace)},
		{Name: "Length", MinArgs: 1, MaxArgs: 1, Call: length},
		{Name: "Abs", MinArgs: 1, MaxArgs: 1, Call: abs},
		{Name: "Round", MinArgs: 1, MaxArgs: 2, Call: round},
		{Name: "Year", MinArgs: 1, MaxArgs: 1, Call: datePart("Year", func(t time.Time) int { return t.Year() })},
		{Name: "Month", MinArgs: 1, MaxArgs: 1, Call: datePart("Month", func(t time.Time) int { return int(t.Month()) })},
		{Name: "Day", MinArgs: 1, MaxArgs: 1, Call: datePart("Day", func(t time.Time) int { return t.Day() })},
		{Name: "Text", MinArgs: 1, MaxArgs: 2, Call: text},
	}
}

func argumentError(fn string, i int, want value.Kind, got value.Value) error {
	return errors.Wrapf(ErrArgument, "%s: argument %d must be %s, got %s", fn, i+1, want, got.Kind())
}

func coalesce(_ context.Context, args []value.Value) (value.Value, error) {
	for _, arg := range args {
		if !arg.IsNull() {
			return arg, nil
		}
	}
	return value.Null(), nil
}

func isNull(_ context.Context, args []value.Value) (value.Value, error) {
	return value.Bool(args[0].IsNull()), nil
}

func textFunc(name string, fn func(string) string) func(context.Context, []value.Value) (value.Value, error) {
	return func(_ context.Context, args []value.Value) (value.Value, error) {
		if args[0].IsNull() {
			return value.Null(), nil
		}
		s, ok := args[0].Str()
		if !ok {
			return value.Null(), argumentError(name, 0, value.KindText, args[0])
		}
		return value.Text(fn(s)), nil
	}
}

func length(_ context.Context, args []value.Value) (value.Value, error) {
	if args[0].IsNull() {
		return value.Null(), nil
	}
	s, ok := args[0].Str()
	if !ok {
		return value.Null(), argumentError("Length", 0, value.KindText, args[0])
	}
	return value.Int(int64(utf8.RuneCountInString(s))), nil
}

func abs(_ context.Context, args []value.Value) (value.Value, error) {
	if args[0].IsNull() {
		return value.Null(), nil
	}
	d := args[0].Decimal()
	if d == nil {
		return value.Null(), argumentError("Abs", 0, value.KindNumber, args[0])
	}
	return value.Number(d.Abs(d)), nil
}

// round rounds half away from zero to the given number of fractional
// digits, zero by default.
func round(_ context.Context, args []value.Value) (value.Value, error) {
	if args[0].IsNull() {
		return value.Null(), nil
	}
	d := args[0].Decimal()
	if d == nil {
		return value.Null(), argumentError("Round", 0, value.KindNumber, args[0])
	}
	var digits int64
	if len(args) > 1 {
		places := args[1].Decimal()
		if places == nil {
			return value.Null(), argumentError("Round", 1, value.KindNumber, args[1])
		}
		n, err := places.Int64()
		if err != nil || n < 0 || n > 30 {
			return value.Null(), errors.Wrapf(ErrArgument, "Round: digits must be an integer in [0, 30], got %s", args[1])
		}
		digits = n
	}
	var result apd.Decimal
	if _, err := roundingContext.Quantize(&result, d, int32(-digits)); err != nil {
		return value.Null(), errors.Wrap(err, "Round")
	}
	return value.Number(&result), nil
}

func datePart(name string, part func(time.Time) int) func(context.Context, []value.Value) (value.Value, error) {
	return func(_ context.Context, args []value.Value) (value.Value, error) {
		if args[0].IsNull() {
			return value.Null(), nil
		}
		t, ok := args[0].Time()
		if !ok {
			return value.Null(), argumentError(name, 0, value.KindDateTime, args[0])
		}
		return value.Int(int64(part(t))), nil
	}
}

// text renders any value as Text. A DateTime may be given a Go time layout.
func text(_ context.Context, args []value.Value) (value.Value, error) {
	if len(args) == 1 {
		return value.Text(args[0].String()), nil
	}
	layout, ok := args[1].Str()
	if !ok {
		return value.Null(), argumentError("Text", 1, value.KindText, args[1])
	}
	if args[0].IsNull() {
		return value.Text(""), nil
	}
	t, ok := args[0].Time()
	if !ok {
		return value.Null(), argumentError("Text", 0, value.KindDateTime, args[0])
	}
	return value.Text(t.Format(layout)), nil
}
