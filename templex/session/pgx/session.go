package pgx

import (
	"context"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"

	"github.com/krew-solutions/templex-go/templex/session"
	"github.com/krew-solutions/templex-go/templex/signals"
)

// readOnlySnapshot sees one consistent state of the database for the whole
// transaction.
var readOnlySnapshot = pgx.TxOptions{
	IsoLevel:   pgx.RepeatableRead,
	AccessMode: pgx.ReadOnly,
}

// Session represents a database session without transaction
type Session struct {
	ctx     context.Context
	conn    *pgxpool.Conn
	signals *querySignals
}

func NewSession(ctx context.Context, conn *pgxpool.Conn) *Session {
	return &Session{
		ctx:  ctx,
		conn: conn,
	}
}

func (s *Session) Context() context.Context {
	return s.ctx
}

func (s *Session) Connection() session.DbQuerier {
	return &connection{ctx: s.ctx, exec: s.conn, signals: s.signals}
}

// Atomic runs callback in a read-only repeatable-read transaction.
func (s *Session) Atomic(callback session.SessionCallback) error {
	tx, err := s.conn.BeginTx(s.ctx, readOnlySnapshot)
	if err != nil {
		return errors.Wrap(err, "unable to start transaction")
	}

	txSession := NewTransactionSession(s.ctx, tx)
	txSession.signals = s.signals

	err = callback(txSession)
	if err != nil {
		if txErr := tx.Rollback(s.ctx); txErr != nil {
			return multierror.Append(err, txErr)
		}
		return err
	}

	if txErr := tx.Commit(s.ctx); txErr != nil {
		return errors.Wrap(txErr, "failed to commit transaction")
	}

	return nil
}

// TransactionSession represents a session inside transaction
type TransactionSession struct {
	ctx     context.Context
	tx      pgx.Tx
	signals *querySignals
}

func NewTransactionSession(ctx context.Context, tx pgx.Tx) *TransactionSession {
	return &TransactionSession{
		ctx: ctx,
		tx:  tx,
	}
}

func (s *TransactionSession) Context() context.Context {
	return s.ctx
}

func (s *TransactionSession) Connection() session.DbQuerier {
	return &connection{ctx: s.ctx, exec: s.tx, signals: s.signals}
}

// Atomic reuses the snapshot already open.
func (s *TransactionSession) Atomic(callback session.SessionCallback) error {
	return callback(s)
}

// executor interface for both *pgxpool.Conn and pgx.Tx
type executor interface {
	Query(ctx context.Context, query string, args ...any) (pgx.Rows, error)
}

// connection implements session.DbQuerier
type connection struct {
	ctx     context.Context
	exec    executor
	signals *querySignals
}

func (c *connection) Query(query string, args ...any) (session.Rows, error) {
	c.signals.queryStarted(session.QueryStartedEvent{Query: query, Params: args})
	start := time.Now()
	rows, err := c.exec.Query(c.ctx, query, args...)
	c.signals.queryEnded(session.QueryEndedEvent{
		Query:        query,
		Params:       args,
		ResponseTime: time.Since(start),
		Err:          err,
	})
	if err != nil {
		return nil, errors.Wrap(err, "query failed")
	}
	return rows, nil
}

// querySignals may be nil for sessions created outside a pool.
type querySignals struct {
	started *signals.SignalImp[session.QueryStartedEvent]
	ended   *signals.SignalImp[session.QueryEndedEvent]
}

func (s *querySignals) queryStarted(e session.QueryStartedEvent) {
	if s != nil {
		s.started.Notify(e)
	}
}

func (s *querySignals) queryEnded(e session.QueryEndedEvent) {
	if s != nil {
		s.ended.Notify(e)
	}
}
