package sessiontest

import (
	"context"
	"os"
	"testing"

	pgxsession "github.com/krew-solutions/templex-go/templex/session/pgx"
)

// NewPgSessionPool connects to the database named by TEMPLEX_TEST_DSN and
// skips the test when it is not set.
func NewPgSessionPool(t testing.TB) *pgxsession.SessionPool {
	t.Helper()
	dsn, ok := os.LookupEnv("TEMPLEX_TEST_DSN")
	if !ok {
		t.Skip("TEMPLEX_TEST_DSN is not set")
	}
	pool, err := pgxsession.Connect(context.Background(), dsn)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(pool.Close)
	return pool
}
