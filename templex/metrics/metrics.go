// Package metrics exposes evaluation and store counters to Prometheus.
package metrics

import (
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/krew-solutions/templex-go/templex/batch"
	templex "github.com/krew-solutions/templex-go/templex/domain"
)

const namespace = "templex"

// Outcome labels of templex_evaluations_total.
const (
	OutcomeOK               = "ok"
	OutcomeTypeMismatch     = "type_mismatch"
	OutcomeDivisionByZero   = "division_by_zero"
	OutcomeUnknownFunction  = "unknown_function"
	OutcomePermissionDenied = "permission_denied"
	OutcomeStoreFailure     = "store_failure"
	OutcomeCancelled        = "cancelled"
	OutcomeUnknownProperty  = "unknown_property"
	OutcomeRootNotFound     = "root_not_found"
	OutcomeError            = "error"
)

// Metrics is nil-safe: every method on a nil *Metrics does nothing.
type Metrics struct {
	evaluations   *prometheus.CounterVec
	fetches       prometheus.Counter
	fetchErrors   prometheus.Counter
	fetchRequests prometheus.Histogram
	fetchDuration prometheus.Histogram
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		evaluations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "evaluations_total",
			Help:      "Row evaluations by outcome.",
		}, []string{"outcome"}),
		fetches: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "store_fetches_total",
			Help:      "Store round trips.",
		}),
		fetchErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "store_fetch_errors_total",
			Help:      "Store round trips that failed.",
		}),
		fetchRequests: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "store_fetch_requests",
			Help:      "Entity requests carried by one round trip.",
			Buckets:   prometheus.ExponentialBuckets(1, 4, 8),
		}),
		fetchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "store_fetch_duration_seconds",
			Help:      "Store round trip latency.",
			Buckets:   prometheus.DefBuckets,
		}),
	}
	for _, c := range []prometheus.Collector{m.evaluations, m.fetches, m.fetchErrors, m.fetchRequests, m.fetchDuration} {
		if err := reg.Register(c); err != nil {
			return nil, errors.Wrap(err, "metrics")
		}
	}
	return m, nil
}

// Outcome names the label an evaluation result is counted under.
func Outcome(err error) string {
	switch {
	case err == nil:
		return OutcomeOK
	case errors.Is(err, templex.ErrOperationCancelled):
		return OutcomeCancelled
	case errors.Is(err, templex.ErrPermissionDenied):
		return OutcomePermissionDenied
	case errors.Is(err, templex.ErrStoreFailure):
		return OutcomeStoreFailure
	case errors.Is(err, templex.ErrDivisionByZero):
		return OutcomeDivisionByZero
	case errors.Is(err, templex.ErrTypeMismatch):
		return OutcomeTypeMismatch
	case errors.Is(err, templex.ErrUnknownFunction):
		return OutcomeUnknownFunction
	case errors.Is(err, templex.ErrUnknownProperty):
		return OutcomeUnknownProperty
	case errors.Is(err, templex.ErrRootNotFound):
		return OutcomeRootNotFound
	}
	return OutcomeError
}

func (m *Metrics) ObserveEvaluation(err error) {
	if m == nil {
		return
	}
	m.evaluations.WithLabelValues(Outcome(err)).Inc()
}

// ObserveFetch is a batch.Loader fetch-ended observer.
func (m *Metrics) ObserveFetch(e batch.FetchEnded) {
	if m == nil {
		return
	}
	m.fetches.Inc()
	if e.Err != nil {
		m.fetchErrors.Inc()
	}
	m.fetchRequests.Observe(float64(e.Requests))
	m.fetchDuration.Observe(e.Duration.Seconds())
}
