package observability

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMetrics_IndependentRegistries(t *testing.T) {
	a := NewMetrics()
	b := NewMetrics()

	a.ObservationsLoaded.Set(42)
	a.OutputRows.WithLabelValues("state_pivot").Set(3)

	assert.InDelta(t, 42.0, testutil.ToFloat64(a.ObservationsLoaded), 0)
	assert.InDelta(t, 3.0, testutil.ToFloat64(a.OutputRows.WithLabelValues("state_pivot")), 0)
	assert.InDelta(t, 0.0, testutil.ToFloat64(b.ObservationsLoaded), 0)

	n, err := testutil.GatherAndCount(a.Gatherer(), "covid_pivot_observations_loaded")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestMetrics_Push(t *testing.T) {
	var method, path string
	var body []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		method, path = r.Method, r.URL.Path
		body, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(srv.Close)

	m := NewMetrics()
	m.ObservationsLoaded.Set(7)

	require.NoError(t, m.Push(context.Background(), srv.URL, "covid_pivot_etl"))
	assert.Equal(t, http.MethodPut, method)
	assert.Equal(t, "/metrics/job/covid_pivot_etl", path)
	assert.NotEmpty(t, body)
}

func TestMetrics_PushError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	t.Cleanup(srv.Close)

	err := NewMetrics().Push(context.Background(), srv.URL, "covid_pivot_etl")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "push metrics")
}
