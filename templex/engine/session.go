package engine

import (
	"context"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/oklog/ulid/v2"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/krew-solutions/templex-go/templex/batch"
	templex "github.com/krew-solutions/templex-go/templex/domain"
	"github.com/krew-solutions/templex-go/templex/evaluation"
	"github.com/krew-solutions/templex-go/templex/identitymap"
	"github.com/krew-solutions/templex-go/templex/store"
	"github.com/krew-solutions/templex-go/templex/value"
)

// Row is the outcome of one root entity.
type Row struct {
	Key   string
	Value value.Value
	Err   error
}

type Rows []Row

// Err joins the errors of every failed row, nil when all succeeded.
func (r Rows) Err() error {
	var result *multierror.Error
	for _, row := range r {
		if row.Err != nil {
			result = multierror.Append(result, errors.Wrapf(row.Err, "row %s", row.Key))
		}
	}
	return result.ErrorOrNil()
}

// Session shares one entity cache across evaluations, so repeated
// evaluations over the same roots fetch nothing new. It is safe for
// concurrent use.
type Session struct {
	engine *Engine
	loader *batch.Loader
	batch  *evaluation.Batch
}

func (e *Engine) NewSession() (*Session, error) {
	entities, err := identitymap.New[*store.Entity](e.cacheSize, e.isolation)
	if err != nil {
		return nil, errors.Wrap(err, "engine: entity cache")
	}
	loader := batch.NewLoader(e.store)
	loader.OnFetchStarted().Attach(func(ev batch.FetchStarted) {
		e.logger.WithField("requests", ev.Requests).Debug("store fetch started")
	}, "log")
	loader.OnFetchEnded().Attach(func(ev batch.FetchEnded) {
		log := e.logger.WithFields(logrus.Fields{
			"requests": ev.Requests,
			"entities": ev.Entities,
			"duration": ev.Duration,
		})
		if ev.Err != nil {
			log.WithError(ev.Err).Debug("store fetch failed")
			return
		}
		log.Debug("store fetch ended")
	}, "log")
	loader.OnFetchEnded().Attach(e.metrics.ObserveFetch, "metrics")
	return &Session{
		engine: e,
		loader: loader,
		batch:  evaluation.NewBatch(loader, entities),
	}, nil
}

// Evaluate computes tpl for the entity of tpl.Root() keyed key in a fresh
// session.
func (e *Engine) Evaluate(ctx context.Context, tpl *Template, key string) (value.Value, error) {
	s, err := e.NewSession()
	if err != nil {
		return value.Null(), err
	}
	return s.Evaluate(ctx, tpl, key)
}

// EvaluateBatch computes tpl for every key in a fresh session.
func (e *Engine) EvaluateBatch(ctx context.Context, tpl *Template, keys []string) (Rows, error) {
	s, err := e.NewSession()
	if err != nil {
		return nil, err
	}
	return s.EvaluateBatch(ctx, tpl, keys)
}

func (s *Session) Evaluate(ctx context.Context, tpl *Template, key string) (value.Value, error) {
	rows, err := s.EvaluateBatch(ctx, tpl, []string{key})
	if err != nil {
		return value.Null(), err
	}
	return rows[0].Value, rows[0].Err
}

// EvaluateBatch prefetches every root along the template's plan in one
// round trip, then evaluates the rows concurrently. Rows come back in key
// order. A store failure or cancellation aborts the batch and is returned
// as the error unless row isolation is enabled; every other failure stays
// in its row.
func (s *Session) EvaluateBatch(ctx context.Context, tpl *Template, keys []string) (Rows, error) {
	e := s.engine
	log := e.logger.WithFields(logrus.Fields{
		"batch": ulid.Make().String(),
		"root":  tpl.root,
		"rows":  len(keys),
	})
	start := time.Now()
	log.Debug("batch started")

	roots := make([]value.EntityRef, len(keys))
	for i, key := range keys {
		roots[i] = value.EntityRef{Collection: tpl.root, Key: key}
	}
	if err := s.batch.Prefetch(ctx, roots, tpl.plan.Paths()); err != nil {
		err = batchError(err)
		if !e.rowIsolation {
			log.WithError(err).Error("batch aborted")
			return nil, err
		}
		log.WithError(err).Warn("prefetch failed, rows fetch on demand")
	}

	rows := make(Rows, len(keys))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.concurrency)
	for i, key := range keys {
		g.Go(func() error {
			v, err := templex.Evaluate(gctx, tpl.node, s.batch.Context(roots[i]), templex.WithFunctions(e.functions))
			rows[i] = Row{Key: key, Value: v, Err: err}
			e.metrics.ObserveEvaluation(err)
			if err == nil {
				return nil
			}
			if aborts(err) && !e.rowIsolation {
				return err
			}
			log.WithError(err).WithField("key", key).Warn("row failed")
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		log.WithError(err).Error("batch aborted")
		return nil, err
	}
	log.WithField("duration", time.Since(start)).Debug("batch finished")
	return rows, nil
}

// aborts reports whether err ends the whole batch.
func aborts(err error) bool {
	return errors.Is(err, templex.ErrStoreFailure) || errors.Is(err, templex.ErrOperationCancelled)
}

// batchError gives a prefetch failure the error kind a row would report.
func batchError(err error) error {
	kind := templex.ErrStoreFailure
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		kind = templex.ErrOperationCancelled
	}
	return &templex.Error{Kind: kind, Cause: err}
}
