package sqlstore

import (
	"context"
	"math/big"
	"sort"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/krew-solutions/templex-go/templex/path"
	"github.com/krew-solutions/templex-go/templex/schema"
	"github.com/krew-solutions/templex-go/templex/session/sessiontest"
	"github.com/krew-solutions/templex-go/templex/store"
	"github.com/krew-solutions/templex-go/templex/value"
)

func newRegistry() *schema.Registry {
	reg := schema.NewRegistry()
	reg.Register("Invoices").AddScalar("Amount", "Number").AddNavigation("Center")
	reg.Register("Centers").AddScalar("IsActive").AddNavigationTo("Manager", "Employees", "manager_id")
	reg.Register("Employees").AddScalar("Email")
	return reg
}

// tables holds rows keyed by table, first column the key.
var tables = map[string][][]any{
	`"invoices"`: {
		{int64(1), pgtype.Numeric{Int: big.NewInt(25000), Exp: -2, Valid: true}, "INV-1", int64(10)},
		{int64(2), pgtype.Numeric{Int: big.NewInt(5), Exp: 0, Valid: true}, "INV-2", nil},
		{int64(3), pgtype.Numeric{Int: big.NewInt(7), Exp: 0, Valid: true}, "INV-3", int64(404)},
	},
	`"centers"`: {
		{int64(10), true, int64(7)},
	},
	`"employees"`: {
		{int64(7), "boss@example.com"},
	},
}

func answer(query string, args ...any) ([][]any, error) {
	keys := args[0].([]string)
	for table, rows := range tables {
		if !strings.Contains(query, "FROM "+table+" ") {
			continue
		}
		var result [][]any
		for _, row := range rows {
			key := value.Int(row[0].(int64)).String()
			for _, k := range keys {
				if k == key {
					result = append(result, row)
				}
			}
		}
		return result, nil
	}
	return nil, errors.Errorf("unexpected query %s", query)
}

func invoice(key string) value.EntityRef {
	return value.EntityRef{Collection: "Invoices", Key: key}
}

func TestSelectQuery(t *testing.T) {
	reg := newRegistry()
	assert.Equal(t,
		`SELECT "id", "amount", "number", "center_id" FROM "invoices" WHERE "id"::text = ANY($1)`,
		selectQuery(reg.MustGet("Invoices")),
	)

	reg.Register("Audit").WithTable("archive.audit_log").WithKey("code").AddScalar("Note")
	assert.Equal(t,
		`SELECT "code", "note" FROM "archive"."audit_log" WHERE "code"::text = ANY($1)`,
		selectQuery(reg.MustGet("Audit")),
	)
}

func TestFetchBreadthFirst(t *testing.T) {
	stub := sessiontest.NewDbSessionStub(answer)
	s := New(sessiontest.NewSessionPoolStub(stub), newRegistry())

	entities, err := s.Fetch(context.Background(), []store.Request{
		{Ref: invoice("1"), Paths: []path.Path{path.MustParse("Center.Manager.Email")}},
		{Ref: invoice("2"), Paths: []path.Path{path.MustParse("Center.IsActive")}},
		{Ref: invoice("3"), Paths: []path.Path{path.MustParse("Center")}},
		{Ref: invoice("99")},
	})
	require.NoError(t, err)

	var refs []string
	for _, e := range entities {
		refs = append(refs, e.Ref.String())
	}
	sort.Strings(refs)
	assert.Equal(t, []string{"Centers/10", "Employees/7", "Invoices/1", "Invoices/2", "Invoices/3"}, refs)

	queries := stub.Queries()
	require.Len(t, queries, 3)
	assert.Contains(t, queries[0].SQL, `FROM "invoices"`)
	assert.Equal(t, []string{"1", "2", "3", "99"}, queries[0].Params[0])
	assert.Contains(t, queries[1].SQL, `FROM "centers"`)
	assert.Equal(t, []string{"10", "404"}, queries[1].Params[0])
	assert.Contains(t, queries[2].SQL, `FROM "employees"`)
	assert.Equal(t, 1, stub.Transactions())
}

func TestFetchDecodesColumns(t *testing.T) {
	stub := sessiontest.NewDbSessionStub(answer)
	s := New(sessiontest.NewSessionPoolStub(stub), newRegistry())

	entities, err := s.Fetch(context.Background(), []store.Request{{Ref: invoice("1")}, {Ref: invoice("2")}})
	require.NoError(t, err)
	byKey := make(map[string]*store.Entity)
	for _, e := range entities {
		byKey[e.Ref.Key] = e
	}

	first := byKey["1"]
	assert.Equal(t, "250.00", first.Fields["Amount"].String())
	assert.Equal(t, value.Text("INV-1"), first.Fields["Number"])
	assert.Equal(t, value.Entity(value.EntityRef{Collection: "Centers", Key: "10"}), first.Fields["Center"])

	assert.True(t, byKey["2"].Fields["Center"].IsNull())
}

func TestFetchUnknownCollection(t *testing.T) {
	stub := sessiontest.NewDbSessionStub(answer)
	s := New(sessiontest.NewSessionPoolStub(stub), newRegistry())
	_, err := s.Fetch(context.Background(), []store.Request{{Ref: value.EntityRef{Collection: "Nowhere", Key: "1"}}})
	assert.ErrorIs(t, err, schema.ErrUnknownCollection)
}

func TestFetchQueryFailure(t *testing.T) {
	boom := errors.New("relation does not exist")
	stub := sessiontest.NewDbSessionStub(func(string, ...any) ([][]any, error) { return nil, boom })
	s := New(sessiontest.NewSessionPoolStub(stub), newRegistry())
	_, err := s.Fetch(context.Background(), []store.Request{{Ref: invoice("1")}})
	assert.ErrorIs(t, err, boom)
}

func TestFetchCancelled(t *testing.T) {
	stub := sessiontest.NewDbSessionStub(answer)
	s := New(sessiontest.NewSessionPoolStub(stub), newRegistry())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := s.Fetch(ctx, []store.Request{{Ref: invoice("1")}})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, stub.Queries())
}

func TestToValue(t *testing.T) {
	id := uuid.New()
	cases := []struct {
		name string
		in   any
		want value.Value
	}{
		{"null", nil, value.Null()},
		{"numeric", pgtype.Numeric{Int: big.NewInt(-1234), Exp: -3, Valid: true}, value.MustNumber("-1.234")},
		{"invalid numeric", pgtype.Numeric{}, value.Null()},
		{"uuid", [16]byte(id), value.Text(id.String())},
		{"pg uuid", pgtype.UUID{Bytes: id, Valid: true}, value.Text(id.String())},
		{"int", int32(42), value.Int(42)},
		{"text", "abc", value.Text("abc")},
		{"bool", true, value.True},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got, err := toValue(c.in)
			require.NoError(t, err)
			assert.True(t, c.want.Equal(got), "got %#v, want %#v", got, c.want)
		})
	}

	_, err := toValue(pgtype.Numeric{NaN: true, Valid: true})
	assert.Error(t, err)
}

func TestKeyString(t *testing.T) {
	id := uuid.New()
	for _, c := range []struct {
		in   any
		want string
	}{
		{int64(10), "10"},
		{"abc", "abc"},
		{[16]byte(id), id.String()},
	} {
		got, err := keyString(c.in)
		require.NoError(t, err)
		assert.Equal(t, c.want, got)
	}
	_, err := keyString(nil)
	assert.Error(t, err)
}
