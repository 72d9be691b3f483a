package templex

import (
	"context"
	"sync"

	"github.com/pkg/errors"

	"github.com/krew-solutions/templex-go/templex/path"
	"github.com/krew-solutions/templex-go/templex/value"
)

// testContext resolves dotted paths from a flat map and counts lookups.
// Unknown paths resolve to Null, like a missing optional relation.
type testContext struct {
	mu      sync.Mutex
	values  map[string]value.Value
	failing map[string]error
	calls   map[string]int
}

func newTestContext(values map[string]value.Value) *testContext {
	return &testContext{
		values:  values,
		failing: make(map[string]error),
		calls:   make(map[string]int),
	}
}

func (c *testContext) Resolve(ctx context.Context, p path.Path) (value.Value, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls[p.String()]++
	if err := ctx.Err(); err != nil {
		return value.Null(), err
	}
	if err, ok := c.failing[p.String()]; ok {
		return value.Null(), err
	}
	return c.values[p.String()], nil
}

func (c *testContext) fail(dotted string, err error) {
	c.failing[dotted] = err
}

func (c *testContext) count(dotted string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls[dotted]
}

var errBoom = errors.New("boom")

// testShape is a fixed schema:
//
//	Invoices: Number, Amount, SerialNumber, Center -> Centers, Customer -> Customers
//	Centers: Name, IsActive, Manager -> Employees
//	Employees: Email, Phone
//	Customers: Name
type testShape map[string]map[string]string

func newTestShape() testShape {
	return testShape{
		"Invoices": {
			"Number":       "",
			"Amount":       "",
			"SerialNumber": "",
			"Name":         "",
			"Center":       "Centers",
			"Customer":     "Customers",
		},
		"Centers": {
			"Name":     "",
			"IsActive": "",
			"Manager":  "Employees",
		},
		"Employees": {
			"Email": "",
			"Phone": "",
		},
		"Customers": {
			"Name": "",
		},
	}
}

func (s testShape) Property(collection, name string) (PropertyKind, string) {
	props, ok := s[collection]
	if !ok {
		return UnknownProperty, ""
	}
	target, ok := props[name]
	switch {
	case !ok:
		return UnknownProperty, ""
	case target == "":
		return ScalarProperty, ""
	}
	return NavigationProperty, target
}
