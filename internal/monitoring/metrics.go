package monitoring

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Grid search metrics
	tuplesCompleted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "backtest_grid_tuples_completed_total",
			Help: "Total number of grid tuples completed",
		},
		[]string{"symbol", "method"},
	)

	tupleFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "backtest_grid_tuple_failures_total",
			Help: "Total number of failed grid tuples",
		},
		[]string{"reason"},
	)

	gridDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "backtest_grid_search_duration_seconds",
			Help:    "Wall-clock duration of full grid searches",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 12),
		},
	)

	// Storage metrics
	fetchRetries = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "backtest_fetch_retries_total",
			Help: "Total number of retried external fetches",
		},
	)

	baselinesComputed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "backtest_baselines_computed_total",
			Help: "Total number of baselines computed",
		},
		[]string{"method"},
	)
)

func init() {
	prometheus.MustRegister(tuplesCompleted)
	prometheus.MustRegister(tupleFailures)
	prometheus.MustRegister(gridDuration)
	prometheus.MustRegister(fetchRetries)
	prometheus.MustRegister(baselinesComputed)
}

// MetricsHandler serves the Prometheus metrics endpoint.
type MetricsHandler struct{}

func NewMetricsHandler() *MetricsHandler {
	return &MetricsHandler{}
}

func (m *MetricsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

// RecordTupleCompleted records one completed grid tuple.
func RecordTupleCompleted(symbol, method string) {
	tuplesCompleted.WithLabelValues(symbol, method).Inc()
}

// RecordTupleFailure records one failed grid tuple by reason.
func RecordTupleFailure(reason string) {
	tupleFailures.WithLabelValues(reason).Inc()
}

// ObserveGridDuration records the wall-clock duration of a grid search.
func ObserveGridDuration(d time.Duration) {
	gridDuration.Observe(d.Seconds())
}

// RecordFetchRetry records one retried external fetch.
func RecordFetchRetry() {
	fetchRetries.Inc()
}

// RecordBaselineComputed records one computed baseline.
func RecordBaselineComputed(method string) {
	baselinesComputed.WithLabelValues(method).Inc()
}
