package parser

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	templex "github.com/krew-solutions/templex-go/templex/domain"
	"github.com/krew-solutions/templex-go/templex/path"
	"github.com/krew-solutions/templex-go/templex/value"
)

func TestParse(t *testing.T) {
	a, b, c := templex.RefOf("A"), templex.RefOf("B"), templex.RefOf("C")
	cases := []struct {
		source string
		want   templex.Node
	}{
		{"A || B", templex.Or(a, b)},
		{"A or B", templex.Or(a, b)},
		{"A && B AND C", templex.And(a, b, c)},
		{"A || B && C", templex.Or(a, templex.And(b, c))},
		{"!A", templex.Not(a)},
		{"NOT A = B", templex.Not(templex.Equal(a, b))},
		{"A <> B", templex.NotEqual(a, b)},
		{"A == B", templex.Equal(a, b)},
		{"A - B - C", templex.Sub(templex.Sub(a, b), c)},
		{"A + B * C", templex.Add(a, templex.Mul(b, c))},
		{"(A + B) / C", templex.Div(templex.Add(a, b), c)},
		{"A & B + C", templex.Concat(a, templex.Add(b, c))},
		{"A - -5", templex.Sub(a, templex.Literal(value.MustNumber("-5")))},
		{"-A", templex.Sub(templex.Literal(value.Int(0)), a)},
		{"Center.Manager.Email", templex.Ref(path.MustParse("Center.Manager.Email"))},
		{`"Invoice " + SerialNumber`, templex.Add(templex.Literal(value.Text("Invoice ")), templex.RefOf("SerialNumber"))},
		{`'it\'s'`, templex.Literal(value.Text("it's"))},
		{"#2024-01-31#", templex.Literal(value.DateTime(time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC)))},
		{"null = NULL", templex.Equal(templex.Literal(value.Null()), templex.Literal(value.Null()))},
		{"true != False", templex.NotEqual(templex.Literal(value.True), templex.Literal(value.False))},
		{`If(Amount > 100, "High", "Low")`, templex.If(
			templex.GreaterThan(templex.RefOf("Amount"), templex.Literal(value.Int(100))),
			templex.Literal(value.Text("High")),
			templex.Literal(value.Text("Low")),
		)},
		{"Coalesce(A, B, 0)", templex.Call("Coalesce", a, b, templex.Literal(value.Int(0)))},
		{"Now()", templex.Call("Now")},
	}
	for _, c := range cases {
		t.Run(c.source, func(t *testing.T) {
			got, err := Parse(c.source)
			require.NoError(t, err)
			assert.Equal(t, c.want.String(), got.String())
		})
	}
}

func TestParseRoundTrip(t *testing.T) {
	sources := []string{
		"Center.IsActive || false",
		`"Invoice " + SerialNumber`,
		`If(Amount > 100, "High", "Low")`,
		"NOT (A OR B) AND C",
		"A - (B - C) * 2.50",
		"(NOT A) = B",
		`Upper(Trim(Customer.Name)) & " / " & Text(#2024-01-31T10:00:00Z#, "2006")`,
		"Round(Amount / 3, 2) >= -1.5",
		`"quote \" and backslash \\"`,
	}
	for _, source := range sources {
		t.Run(source, func(t *testing.T) {
			first, err := Parse(source)
			require.NoError(t, err)
			second, err := Parse(first.String())
			require.NoError(t, err, first.String())
			assert.Equal(t, first.String(), second.String())
			assert.Equal(t, first, second)
		})
	}
}

func TestParseBracketedSegments(t *testing.T) {
	nodes := []templex.Node{
		templex.RefOf("Null"),
		templex.RefOf("True"),
		templex.RefOf("Not.Name"),
		templex.Ref(path.MustNew("Center", "or")),
		templex.Ref(path.MustNew("Cost center", "Name")),
		templex.Ref(path.MustNew("a]b")),
		templex.Or(templex.RefOf("And"), templex.Literal(value.False)),
	}
	for _, n := range nodes {
		t.Run(n.String(), func(t *testing.T) {
			got, err := Parse(n.String())
			require.NoError(t, err)
			assert.Equal(t, n.String(), got.String())
			if want, ok := n.(templex.PathNode); ok {
				ref, ok := got.(templex.PathNode)
				require.True(t, ok, "%T", got)
				assert.Equal(t, want.Path(), ref.Path())
			}
		})
	}

	_, err := Parse("[Upper](1)")
	assert.Error(t, err)
}

func TestParseErrors(t *testing.T) {
	cases := []struct {
		source string
		offset int
	}{
		{"A +", 3},
		{"A = B = C", 6},
		{`"open`, 0},
		{"A $ B", 2},
		{"If(A, B)", 0},
		{"(A", 2},
		{"A B", 2},
		{"Center.", 7},
		{"#not a date#", 0},
		{"AND", 0},
		{"#2024-01-01", 0},
		{"[Center", 0},
		{"Center.(", 7},
	}
	for _, c := range cases {
		t.Run(c.source, func(t *testing.T) {
			_, err := Parse(c.source)
			require.Error(t, err)
			var pe *ParseError
			require.True(t, errors.As(err, &pe), "%T", err)
			assert.Equal(t, c.offset, pe.Offset, pe.Message)
		})
	}
}
