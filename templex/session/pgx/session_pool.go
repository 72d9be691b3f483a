// Package pgx provides read-only sessions over a pgxpool.Pool.
package pgx

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"

	"github.com/krew-solutions/templex-go/templex/session"
	"github.com/krew-solutions/templex-go/templex/signals"
)

type SessionPool struct {
	pool    *pgxpool.Pool
	signals *querySignals
}

func NewSessionPool(pool *pgxpool.Pool) *SessionPool {
	return &SessionPool{
		pool: pool,
		signals: &querySignals{
			started: signals.NewSignal[session.QueryStartedEvent](),
			ended:   signals.NewSignal[session.QueryEndedEvent](),
		},
	}
}

// Connect opens a pool for dsn.
func Connect(ctx context.Context, dsn string) (*SessionPool, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, errors.Wrap(err, "unable to create pool")
	}
	return NewSessionPool(pool), nil
}

func (p *SessionPool) OnQueryStarted() signals.Signal[session.QueryStartedEvent] {
	return p.signals.started
}

func (p *SessionPool) OnQueryEnded() signals.Signal[session.QueryEndedEvent] {
	return p.signals.ended
}

func (p *SessionPool) Session(ctx context.Context, callback session.SessionPoolCallback) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	conn, err := p.pool.Acquire(ctx)
	if err != nil {
		return errors.Wrap(err, "unable to acquire connection")
	}
	defer conn.Release()

	sess := NewSession(ctx, conn)
	sess.signals = p.signals
	return callback(sess)
}

func (p *SessionPool) Close() {
	p.pool.Close()
}

var _ session.SessionPool = (*SessionPool)(nil)
