// Package sessiontest provides in-memory session doubles and a helper for
// tests against a real PostgreSQL database.
package sessiontest

import (
	"context"
	"sync"

	"github.com/pkg/errors"

	"github.com/krew-solutions/templex-go/templex/session"
)

// QueryFunc answers one query with rows of column values.
type QueryFunc func(query string, args ...any) ([][]any, error)

// DbSessionStub records every query and answers it with Answer.
type DbSessionStub struct {
	Answer  QueryFunc
	mu      sync.Mutex
	queries []Query
	atomic  int
}

type Query struct {
	SQL    string
	Params []any
}

func NewDbSessionStub(answer QueryFunc) *DbSessionStub {
	return &DbSessionStub{Answer: answer}
}

func (s *DbSessionStub) Context() context.Context {
	return context.Background()
}

func (s *DbSessionStub) Atomic(callback session.SessionCallback) error {
	s.mu.Lock()
	s.atomic++
	s.mu.Unlock()
	return callback(s)
}

func (s *DbSessionStub) Connection() session.DbQuerier {
	return s
}

func (s *DbSessionStub) Query(query string, args ...any) (session.Rows, error) {
	s.mu.Lock()
	s.queries = append(s.queries, Query{SQL: query, Params: args})
	s.mu.Unlock()
	rows, err := s.Answer(query, args...)
	if err != nil {
		return nil, err
	}
	return NewRowsStub(rows...), nil
}

// Queries returns the queries received so far, oldest first.
func (s *DbSessionStub) Queries() []Query {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Query(nil), s.queries...)
}

// Transactions counts Atomic calls.
func (s *DbSessionStub) Transactions() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.atomic
}

// SessionPoolStub hands out the same stub session.
type SessionPoolStub struct {
	Stub *DbSessionStub
}

func NewSessionPoolStub(s *DbSessionStub) *SessionPoolStub {
	return &SessionPoolStub{Stub: s}
}

func (p *SessionPoolStub) Session(ctx context.Context, callback session.SessionPoolCallback) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return callback(p.Stub)
}

func NewRowsStub(rows ...[]any) *RowsStub {
	return &RowsStub{
		rows: rows,
		idx:  -1,
	}
}

type RowsStub struct {
	rows   [][]any
	idx    int
	Closed bool
}

func (r *RowsStub) Close() {
	r.Closed = true
}

func (r *RowsStub) Err() error {
	return nil
}

func (r *RowsStub) Next() bool {
	r.idx++
	return r.idx < len(r.rows)
}

func (r *RowsStub) Values() ([]any, error) {
	if r.idx < 0 || r.idx >= len(r.rows) {
		return nil, errors.New("no current row")
	}
	return r.rows[r.idx], nil
}
