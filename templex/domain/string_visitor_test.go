package templex

import (
	"testing"
	"time"

	"github.com/krew-solutions/templex-go/templex/path"
	"github.com/krew-solutions/templex-go/templex/value"
)

func TestRender(t *testing.T) {
	a, b, c := RefOf("A"), RefOf("B"), RefOf("C")
	cases := []struct {
		name string
		node Node
		want string
	}{
		{"disjunction", Or(a, b), "A OR B"},
		{"conjunction", And(a, b, c), "A AND B AND C"},
		{"or inside and", And(Or(a, b), c), "(A OR B) AND C"},
		{"and inside or", Or(And(a, b), c), "A AND B OR C"},
		{"not", Not(a), "NOT A"},
		{"not of or", Not(Or(a, b)), "NOT (A OR B)"},
		{"double not", Not(Not(a)), "NOT NOT A"},
		{"not in comparison", Equal(Not(a), b), "(NOT A) = B"},
		{"left associative", Sub(Sub(a, b), c), "A - B - C"},
		{"right grouping", Sub(a, Sub(b, c)), "A - (B - C)"},
		{"precedence", Add(a, Mul(b, c)), "A + B * C"},
		{"grouping", Mul(Add(a, b), c), "(A + B) * C"},
		{"comparison", GreaterThan(RefOf("Amount"), Literal(value.Int(100))), "Amount > 100"},
		{"nested comparison", Equal(Equal(a, b), c), "(A = B) = C"},
		{"concat", Concat(Literal(value.Text("Invoice ")), RefOf("Number")), `"Invoice " & Number`},
		{"escaping", Literal(value.Text(`say "hi" \o/`)), `"say \"hi\" \\o/"`},
		{"null", Literal(value.Null()), "null"},
		{"boolean", Literal(value.True), "true"},
		{"number", Literal(value.MustNumber("-3.50")), "-3.50"},
		{"datetime", Literal(value.DateTime(time.Date(2024, 1, 31, 10, 0, 0, 0, time.UTC))), "#2024-01-31T10:00:00Z#"},
		{"conditional", If(GreaterThan(RefOf("Amount"), Literal(value.Int(100))), Literal(value.Text("High")), Literal(value.Text("Low"))), `If(Amount > 100, "High", "Low")`},
		{"call", Call("Coalesce", Or(a, b), c), "Coalesce(A OR B, C)"},
		{"call in product", Mul(Call("Abs", Sub(a, b)), c), "Abs(A - B) * C"},
		{"reserved segment", RefOf("Not.Name"), "[Not].Name"},
		{"reserved inner segment", RefOf("Center.Null"), "Center.[Null]"},
		{"spaced segment", Ref(path.MustNew("Cost center", "Name")), "[Cost center].Name"},
		{"closing bracket", Ref(path.MustNew("a]b")), "[a]]b]"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := c.node.String(); got != c.want {
				t.Errorf("String() = %s, want %s", got, c.want)
			}
		})
	}
}
