package engine

import (
	"github.com/sirupsen/logrus"

	templex "github.com/krew-solutions/templex-go/templex/domain"
	"github.com/krew-solutions/templex-go/templex/domain/functions"
	"github.com/krew-solutions/templex-go/templex/identitymap"
	"github.com/krew-solutions/templex-go/templex/metrics"
)

type Option func(*Engine)

// WithShape resolves template paths against shape. Without one the last
// segment of every path is taken as scalar.
func WithShape(shape templex.Shape) Option {
	return func(e *Engine) {
		e.shape = shape
	}
}

// WithFunctions replaces the builtin function registry.
func WithFunctions(registry *functions.Registry) Option {
	return func(e *Engine) {
		e.functions = registry
	}
}

func WithLogger(logger logrus.FieldLogger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Engine) {
		e.metrics = m
	}
}

// WithConcurrency bounds the rows of one batch evaluated at once.
func WithConcurrency(n int) Option {
	return func(e *Engine) {
		e.concurrency = n
	}
}

// WithCacheSize bounds the entities one session keeps.
func WithCacheSize(n int) Option {
	return func(e *Engine) {
		e.cacheSize = n
	}
}

// WithPolicyCacheSize bounds the distinct permission tries kept compiled.
func WithPolicyCacheSize(n int) Option {
	return func(e *Engine) {
		e.policyCacheSize = n
	}
}

// WithIsolationLevel sets what a session's entity cache remembers.
func WithIsolationLevel(level identitymap.IsolationLevel) Option {
	return func(e *Engine) {
		e.isolation = level
	}
}

// WithRowIsolation keeps store failures and cancellation confined to the
// row they occur in instead of aborting the batch.
func WithRowIsolation(enabled bool) Option {
	return func(e *Engine) {
		e.rowIsolation = enabled
	}
}
