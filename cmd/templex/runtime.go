package main

import (
	"context"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/krew-solutions/templex-go/templex/config"
	"github.com/krew-solutions/templex-go/templex/engine"
	"github.com/krew-solutions/templex-go/templex/masktrie"
	"github.com/krew-solutions/templex-go/templex/schema"
	"github.com/krew-solutions/templex-go/templex/session"
	"github.com/krew-solutions/templex-go/templex/session/pgx"
	"github.com/krew-solutions/templex-go/templex/store"
	"github.com/krew-solutions/templex-go/templex/store/memory"
	"github.com/krew-solutions/templex-go/templex/store/sqlstore"
)

// runtime is everything one command needs, built from configuration.
type runtime struct {
	engine *engine.Engine
	grants *masktrie.Trie
	logger *logrus.Logger
	close  func()
}

func newRuntime(ctx context.Context, cfg *config.Config) (*runtime, error) {
	logger, err := cfg.Logger()
	if err != nil {
		return nil, err
	}
	rt := &runtime{logger: logger, close: func() {}}

	var registry *schema.Registry
	if cfg.Schema.File != "" {
		if registry, err = schema.LoadFile(cfg.Schema.File); err != nil {
			return nil, err
		}
	}
	s, err := rt.openStore(ctx, cfg, registry)
	if err != nil {
		return nil, err
	}
	if rt.grants, err = cfg.Grants(); err != nil {
		rt.close()
		return nil, err
	}

	opts := []engine.Option{
		engine.WithLogger(logger),
		engine.WithConcurrency(cfg.Engine.Concurrency),
		engine.WithCacheSize(cfg.Engine.CacheSize),
		engine.WithPolicyCacheSize(cfg.Engine.PolicyCacheSize),
		engine.WithRowIsolation(cfg.Engine.RowIsolation),
	}
	if registry != nil {
		opts = append(opts, engine.WithShape(registry))
	}
	if rt.engine, err = engine.New(s, opts...); err != nil {
		rt.close()
		return nil, err
	}
	return rt, nil
}

func (rt *runtime) openStore(ctx context.Context, cfg *config.Config, registry *schema.Registry) (store.Store, error) {
	switch cfg.Store.Driver {
	case config.DriverPostgres:
		pool, err := pgx.Connect(ctx, cfg.Store.DSN)
		if err != nil {
			return nil, err
		}
		pool.OnQueryEnded().Attach(func(e session.QueryEndedEvent) {
			log := rt.logger.WithFields(logrus.Fields{
				"query":    e.Query,
				"duration": e.ResponseTime,
			})
			if e.Err != nil {
				log.WithError(e.Err).Warn("query failed")
				return
			}
			log.Debug("query")
		}, "log")
		rt.close = pool.Close
		return sqlstore.New(pool, registry, sqlstore.WithLogger(rt.logger)), nil
	case config.DriverMemory:
		if cfg.Store.Fixtures == "" {
			return memory.New(), nil
		}
		return memory.LoadFile(cfg.Store.Fixtures)
	}
	return nil, errors.Wrapf(config.ErrInvalid, "unknown store.driver %q", cfg.Store.Driver)
}
