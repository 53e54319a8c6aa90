package observability

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
)

const namespace = "covid_pivot"

// Metrics holds the Prometheus collectors for one pivot run. They live on a
// dedicated registry because the job pushes them instead of serving /metrics.
type Metrics struct {
	registry *prometheus.Registry

	ObservationsLoaded prometheus.Gauge
	RegionsDerived     *prometheus.GaugeVec // labels: granularity={state,county}
	OutputRows         *prometheus.GaugeVec // labels: output
	OutputColumns      *prometheus.GaugeVec // labels: output
	StageDuration      *prometheus.HistogramVec
	LastSuccess        prometheus.Gauge
	RunFailures        prometheus.Counter
}

// NewMetrics creates all pipeline metrics and registers them on a fresh registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		ObservationsLoaded: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "observations_loaded",
			Help:      "Input records read in the last run.",
		}),
		RegionsDerived: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "regions_derived",
			Help:      "Distinct regions with derived statistics, by granularity.",
		}, []string{"granularity"}),
		OutputRows: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "output_rows",
			Help:      "Rows written per output table.",
		}, []string{"output"}),
		OutputColumns: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "output_columns",
			Help:      "Columns written per output table.",
		}, []string{"output"}),
		StageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "stage_duration_seconds",
			Help:      "Duration of each pipeline stage.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30, 60},
		}, []string{"stage"}),
		LastSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix time of the last successful run.",
		}),
		RunFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "run_failures_total",
			Help:      "Runs that aborted with an error.",
		}),
	}

	m.registry.MustRegister(
		m.ObservationsLoaded,
		m.RegionsDerived,
		m.OutputRows,
		m.OutputColumns,
		m.StageDuration,
		m.LastSuccess,
		m.RunFailures,
	)

	return m
}

// Gatherer exposes the registry, mainly for tests.
func (m *Metrics) Gatherer() prometheus.Gatherer {
	return m.registry
}

// Push sends every collected metric to a Prometheus Pushgateway under the given job name.
func (m *Metrics) Push(ctx context.Context, url, job string) error {
	if err := push.New(url, job).Gatherer(m.registry).PushContext(ctx); err != nil {
		return fmt.Errorf("push metrics: %w", err)
	}
	return nil
}
