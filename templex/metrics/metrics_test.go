package metrics

import (
	"strings"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/krew-solutions/templex-go/templex/batch"
	templex "github.com/krew-solutions/templex-go/templex/domain"
)

func TestOutcome(t *testing.T) {
	cases := map[string]error{
		OutcomeOK:               nil,
		OutcomeTypeMismatch:     &templex.Error{Kind: templex.ErrTypeMismatch},
		OutcomeDivisionByZero:   &templex.Error{Kind: templex.ErrDivisionByZero},
		OutcomeUnknownFunction:  &templex.Error{Kind: templex.ErrUnknownFunction},
		OutcomePermissionDenied: &templex.Error{Kind: templex.ErrPermissionDenied},
		OutcomeStoreFailure:     errors.Wrap(&templex.Error{Kind: templex.ErrStoreFailure}, "row 1"),
		OutcomeCancelled:        &templex.Error{Kind: templex.ErrOperationCancelled},
		OutcomeUnknownProperty:  &templex.Error{Kind: templex.ErrUnknownProperty},
		OutcomeRootNotFound:     &templex.Error{Kind: templex.ErrRootNotFound},
		OutcomeError:            errors.New("other"),
	}
	for want, err := range cases {
		assert.Equal(t, want, Outcome(err), want)
	}
}

func TestObserve(t *testing.T) {
	reg := prometheus.NewPedanticRegistry()
	m, err := New(reg)
	require.NoError(t, err)

	m.ObserveEvaluation(nil)
	m.ObserveEvaluation(nil)
	m.ObserveEvaluation(&templex.Error{Kind: templex.ErrTypeMismatch})
	m.ObserveFetch(batch.FetchEnded{Requests: 3, Duration: 2 * time.Millisecond})
	m.ObserveFetch(batch.FetchEnded{Requests: 1, Err: errors.New("boom")})

	assert.Equal(t, 2.0, testutil.ToFloat64(m.evaluations.WithLabelValues(OutcomeOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.evaluations.WithLabelValues(OutcomeTypeMismatch)))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.fetches))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.fetchErrors))

	err = testutil.GatherAndCompare(reg, strings.NewReader(`
# HELP templex_store_fetches_total Store round trips.
# TYPE templex_store_fetches_total counter
templex_store_fetches_total 2
`), "templex_store_fetches_total")
	assert.NoError(t, err)
}

func TestDuplicateRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := New(reg)
	require.NoError(t, err)
	_, err = New(reg)
	assert.Error(t, err)
}

func TestNilMetrics(t *testing.T) {
	var m *Metrics
	m.ObserveEvaluation(nil)
	m.ObserveFetch(batch.FetchEnded{})
}
