// Package sqlstore reads entities from PostgreSQL tables described by a
// schema registry.
package sqlstore

import (
	"context"
	"io"
	"sort"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/krew-solutions/templex-go/templex/path"
	"github.com/krew-solutions/templex-go/templex/schema"
	"github.com/krew-solutions/templex-go/templex/session"
	"github.com/krew-solutions/templex-go/templex/store"
	"github.com/krew-solutions/templex-go/templex/value"
)

var ErrNoConnection = errors.New("sqlstore: session has no database connection")

type Option func(*Store)

func WithLogger(logger logrus.FieldLogger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

// Store loads breadth first: one query per collection per depth, all of
// them inside one read-only snapshot.
type Store struct {
	pool   session.SessionPool
	schema *schema.Registry
	logger logrus.FieldLogger
}

func New(pool session.SessionPool, registry *schema.Registry, opts ...Option) *Store {
	discard := logrus.New()
	discard.SetOutput(io.Discard)
	s := &Store{
		pool:   pool,
		schema: registry,
		logger: discard,
	}
	for i := range opts {
		opts[i](s)
	}
	return s
}

func (s *Store) Fetch(ctx context.Context, requests []store.Request) ([]*store.Entity, error) {
	var result []*store.Entity
	err := s.pool.Session(ctx, func(sess session.Session) error {
		return sess.Atomic(func(tx session.Session) error {
			db, ok := tx.(session.DbSession)
			if !ok {
				return ErrNoConnection
			}
			var err error
			result, err = s.load(ctx, db.Connection(), requests)
			return err
		})
	})
	if err != nil {
		return nil, errors.Wrap(err, "sqlstore")
	}
	return result, nil
}

// frontier maps each entity still to visit to the paths left to follow
// from it.
type frontier map[value.EntityRef]map[path.Path]struct{}

func (f frontier) add(ref value.EntityRef, paths ...path.Path) {
	set, ok := f[ref]
	if !ok {
		set = make(map[path.Path]struct{})
		f[ref] = set
	}
	for _, p := range paths {
		set[p] = struct{}{}
	}
}

func (s *Store) load(ctx context.Context, conn session.DbQuerier, requests []store.Request) ([]*store.Entity, error) {
	loaded := make(map[value.EntityRef]*store.Entity)
	absent := make(map[value.EntityRef]struct{})
	var result []*store.Entity

	level := frontier{}
	for _, r := range requests {
		level.add(r.Ref, r.Paths...)
	}

	for depth := 0; len(level) > 0; depth++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		missing := make(map[string][]string)
		for ref := range level {
			_, isLoaded := loaded[ref]
			_, isAbsent := absent[ref]
			if !isLoaded && !isAbsent {
				missing[ref.Collection] = append(missing[ref.Collection], ref.Key)
			}
		}
		for _, collection := range sortedKeys(missing) {
			keys := missing[collection]
			sort.Strings(keys)
			entities, err := s.query(conn, collection, keys)
			if err != nil {
				return nil, err
			}
			s.logger.WithFields(logrus.Fields{
				"collection": collection,
				"depth":      depth,
				"keys":       len(keys),
				"found":      len(entities),
			}).Debug("entities loaded")
			for _, e := range entities {
				loaded[e.Ref] = e
				result = append(result, e)
			}
			for _, key := range keys {
				ref := value.EntityRef{Collection: collection, Key: key}
				if _, ok := loaded[ref]; !ok {
					absent[ref] = struct{}{}
				}
			}
		}

		next := frontier{}
		for ref, paths := range level {
			e, ok := loaded[ref]
			if !ok {
				continue
			}
			for p := range paths {
				target, isRef := e.Fields[p.First()].Ref()
				if !isRef {
					continue
				}
				if rest, ok := p.Rest(); ok {
					next.add(target, rest)
				} else {
					next.add(target)
				}
			}
		}
		level = next
	}
	return result, nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

var _ store.Store = (*Store)(nil)
