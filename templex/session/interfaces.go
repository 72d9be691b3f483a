// Package session abstracts read-only database access. Atomic runs a
// callback inside one consistent snapshot.
package session

import (
	"context"
)

type SessionCallback func(Session) error

type Session interface {
	Context() context.Context
	Atomic(SessionCallback) error
}

type SessionPoolCallback func(Session) error

type SessionPool interface {
	Session(context.Context, SessionPoolCallback) error
}

// Db

type Rows interface {
	Close()
	Err() error
	Next() bool
	Values() ([]any, error)
}

type DbQuerier interface {
	Query(query string, args ...any) (Rows, error)
}

type DbSession interface {
	Session
	Connection() DbQuerier
}
