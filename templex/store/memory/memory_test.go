package memory

import (
	"context"
	"errors"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"syreclabs.com/go/faker"

	"github.com/krew-solutions/templex-go/templex/path"
	"github.com/krew-solutions/templex-go/templex/store"
	"github.com/krew-solutions/templex-go/templex/value"
)

func ref(collection, key string) value.EntityRef {
	return value.EntityRef{Collection: collection, Key: key}
}

func refs(entities []*store.Entity) []string {
	result := make([]string, 0, len(entities))
	for _, e := range entities {
		result = append(result, e.Ref.String())
	}
	sort.Strings(result)
	return result
}

func newGraph() *Store {
	return New().
		Put(ref("Invoices", "1"), map[string]value.Value{
			"Amount": value.MustNumber("250.00"),
			"Center": value.Entity(ref("Centers", "10")),
		}).
		Put(ref("Invoices", "2"), map[string]value.Value{
			"Amount": value.Int(5),
			"Center": value.Entity(ref("Centers", "404")),
		}).
		Put(ref("Centers", "10"), map[string]value.Value{
			"IsActive": value.True,
			"Manager":  value.Entity(ref("Employees", "7")),
		}).
		Put(ref("Employees", "7"), map[string]value.Value{
			"Email": value.Text(faker.Internet().Email()),
		})
}

func TestFetchFollowsPaths(t *testing.T) {
	s := newGraph()
	entities, err := s.Fetch(context.Background(), []store.Request{
		{Ref: ref("Invoices", "1"), Paths: []path.Path{path.MustParse("Center.Manager.Email"), path.MustParse("Center")}},
		{Ref: ref("Invoices", "2"), Paths: []path.Path{path.MustParse("Center.IsActive")}},
		{Ref: ref("Invoices", "3")},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"Centers/10", "Employees/7", "Invoices/1", "Invoices/2"}, refs(entities))
	assert.Equal(t, 1, s.Fetches())
	assert.Equal(t, 3, s.Requests())
}

func TestFetchOnlyReachedEntities(t *testing.T) {
	s := newGraph()
	entities, err := s.Fetch(context.Background(), []store.Request{{Ref: ref("Invoices", "1")}})
	require.NoError(t, err)
	assert.Equal(t, []string{"Invoices/1"}, refs(entities))
}

func TestFetchReturnsCopies(t *testing.T) {
	s := newGraph()
	entities, err := s.Fetch(context.Background(), []store.Request{{Ref: ref("Invoices", "1")}})
	require.NoError(t, err)
	entities[0].Fields["Amount"] = value.Int(0)

	entities, err = s.Fetch(context.Background(), []store.Request{{Ref: ref("Invoices", "1")}})
	require.NoError(t, err)
	amount, ok := entities[0].Field("Amount")
	require.True(t, ok)
	assert.Equal(t, "250.00", amount.String())
}

func TestFetchCancelled(t *testing.T) {
	s := newGraph()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := s.Fetch(ctx, []store.Request{{Ref: ref("Invoices", "1")}})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, s.Fetches())
}

func TestFailWith(t *testing.T) {
	s := newGraph()
	boom := errors.New("connection reset")
	s.FailWith(boom)
	_, err := s.Fetch(context.Background(), []store.Request{{Ref: ref("Invoices", "1")}})
	assert.ErrorIs(t, err, boom)

	s.FailWith(nil)
	_, err = s.Fetch(context.Background(), []store.Request{{Ref: ref("Invoices", "1")}})
	assert.NoError(t, err)
	assert.Equal(t, 2, s.Fetches())
}

func TestLoad(t *testing.T) {
	doc := `
Invoices:
  "1":
    Number: INV-1
    Amount: 250.00
    Count: 3
    Paid: false
    Note: ~
    Issued: 2024-01-31T10:00:00Z
    Center: {ref: Centers/10}
Centers:
  10:
    Name: Head office
`
	s, err := Load(strings.NewReader(doc))
	require.NoError(t, err)

	entities, err := s.Fetch(context.Background(), []store.Request{
		{Ref: ref("Invoices", "1"), Paths: []path.Path{path.MustParse("Center.Name")}},
	})
	require.NoError(t, err)
	require.Len(t, entities, 2)

	invoice := entities[0]
	assert.Equal(t, ref("Invoices", "1"), invoice.Ref)
	assert.Equal(t, value.Text("INV-1"), invoice.Fields["Number"])
	assert.Equal(t, "250.00", invoice.Fields["Amount"].String())
	assert.Equal(t, "3", invoice.Fields["Count"].String())
	assert.Equal(t, value.False, invoice.Fields["Paid"])
	assert.True(t, invoice.Fields["Note"].IsNull())
	issued, ok := invoice.Fields["Issued"].Time()
	require.True(t, ok)
	assert.True(t, issued.Equal(time.Date(2024, 1, 31, 10, 0, 0, 0, time.UTC)))
	assert.Equal(t, value.Entity(ref("Centers", "10")), invoice.Fields["Center"])

	assert.Equal(t, value.Text("Head office"), entities[1].Fields["Name"])
}

func TestLoadRejectsBadReference(t *testing.T) {
	_, err := Load(strings.NewReader("Invoices:\n  \"1\":\n    Center: {ref: nowhere}\n"))
	assert.ErrorIs(t, err, ErrFixture)

	_, err = Load(strings.NewReader("Invoices:\n  \"1\":\n    Lines: [1, 2]\n"))
	assert.ErrorIs(t, err, ErrFixture)
}
