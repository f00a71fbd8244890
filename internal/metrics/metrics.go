package metrics

import (
	"database/sql"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "mumbso"

type Metrics struct {
	// HTTP
	HTTPRequestsTotal     *prometheus.CounterVec
	HTTPRequestDuration   *prometheus.HistogramVec
	HTTPRequestsInFlight  prometheus.Gauge
	HTTPResponseSizeBytes *prometheus.HistogramVec

	// Payments
	STKPushTotal      *prometheus.CounterVec
	STKPushDuration   prometheus.Histogram
	CallbacksTotal    *prometheus.CounterVec
	AmountMismatches  prometheus.Counter
	StoreWriteErrors  *prometheus.CounterVec
	PollAttemptsTotal *prometheus.CounterVec
	PollOutcomesTotal *prometheus.CounterVec
	EventsPublished   *prometheus.CounterVec

	// Store
	DBQueryDuration *prometheus.HistogramVec
	DBQueriesTotal  *prometheus.CounterVec

	// Validation
	ValidationErrors   *prometheus.CounterVec
	ValidationDuration *prometheus.HistogramVec

	registerer prometheus.Registerer
}

// NewMetrics registers every collector on reg. Tests pass a fresh prometheus.NewRegistry().
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)

	return &Metrics{
		HTTPRequestsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "path", "status_code"},
		),
		HTTPRequestDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "Duration of HTTP requests in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "path", "status_code"},
		),
		HTTPRequestsInFlight: f.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "http_requests_in_flight",
				Help:      "Number of HTTP requests currently being served",
			},
		),
		HTTPResponseSizeBytes: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_response_size_bytes",
				Help:      "Size of HTTP responses in bytes",
				Buckets:   []float64{100, 1000, 10_000, 100_000},
			},
			[]string{"method", "path", "status_code"},
		),

		STKPushTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "stk_push_total",
				Help:      "STK push initiations by outcome",
			},
			[]string{"outcome"},
		),
		STKPushDuration: f.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "stk_push_duration_seconds",
				Help:      "Round trip of an STK push initiation including the token exchange",
				Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
			},
		),
		CallbacksTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "callbacks_total",
				Help:      "Gateway callbacks by resulting status",
			},
			[]string{"status"},
		),
		AmountMismatches: f.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "callback_amount_mismatch_total",
				Help:      "Callbacks whose amount differed from the initiated amount",
			},
		),
		StoreWriteErrors: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "store_write_errors_total",
				Help:      "Payment store writes that failed",
			},
			[]string{"operation"},
		),
		PollAttemptsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "poll_attempts_total",
				Help:      "Status queries made by pollers",
			},
			[]string{"result"},
		),
		PollOutcomesTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "poll_outcomes_total",
				Help:      "Finished polling sessions by outcome",
			},
			[]string{"outcome"},
		),
		EventsPublished: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "events_published_total",
				Help:      "Settlement events published",
			},
			[]string{"status"},
		),

		DBQueryDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "db_query_duration_seconds",
				Help:      "Duration of payment store operations in seconds",
				Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1.0, 5.0},
			},
			[]string{"operation", "backend"},
		),
		DBQueriesTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "db_queries_total",
				Help:      "Total number of payment store operations",
			},
			[]string{"operation", "backend", "status"},
		),

		ValidationErrors: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "validation_errors_total",
				Help:      "Total number of validation errors",
			},
			[]string{"field", "tag"},
		),
		ValidationDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "validation_duration_seconds",
				Help:      "Duration of validation operations in seconds",
				Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5},
			},
			[]string{"endpoint"},
		),

		registerer: reg,
	}
}

// RegisterRuntimeCollectors adds the Go runtime and process collectors.
func (m *Metrics) RegisterRuntimeCollectors() error {
	if err := m.registerer.Register(collectors.NewGoCollector()); err != nil {
		return err
	}
	return m.registerer.Register(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
}

// RegisterDBStats exposes connection pool statistics of a SQL backed store.
func (m *Metrics) RegisterDBStats(db *sql.DB, name string) error {
	return m.registerer.Register(collectors.NewDBStatsCollector(db, name))
}

func (m *Metrics) RecordHTTPRequest(method, path, statusCode string, duration time.Duration, responseSize int) {
	m.HTTPRequestsTotal.WithLabelValues(method, path, statusCode).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, path, statusCode).Observe(duration.Seconds())
	m.HTTPResponseSizeBytes.WithLabelValues(method, path, statusCode).Observe(float64(responseSize))
}

func (m *Metrics) RecordSTKPush(outcome string, duration time.Duration) {
	m.STKPushTotal.WithLabelValues(outcome).Inc()
	m.STKPushDuration.Observe(duration.Seconds())
}

func (m *Metrics) RecordCallback(status string) {
	m.CallbacksTotal.WithLabelValues(status).Inc()
}

func (m *Metrics) RecordAmountMismatch() {
	m.AmountMismatches.Inc()
}

func (m *Metrics) RecordStoreWriteError(operation string) {
	m.StoreWriteErrors.WithLabelValues(operation).Inc()
}

func (m *Metrics) RecordPollAttempt(result string) {
	m.PollAttemptsTotal.WithLabelValues(result).Inc()
}

func (m *Metrics) RecordPollOutcome(outcome string) {
	m.PollOutcomesTotal.WithLabelValues(outcome).Inc()
}

func (m *Metrics) RecordEventPublished(status string) {
	m.EventsPublished.WithLabelValues(status).Inc()
}

func (m *Metrics) RecordDBQuery(operation, backend, status string, duration time.Duration) {
	m.DBQueriesTotal.WithLabelValues(operation, backend, status).Inc()
	m.DBQueryDuration.WithLabelValues(operation, backend).Observe(duration.Seconds())
}

func (m *Metrics) RecordValidationError(field, tag string) {
	m.ValidationErrors.WithLabelValues(field, tag).Inc()
}

func (m *Metrics) RecordValidationDuration(endpoint string, duration time.Duration) {
	m.ValidationDuration.WithLabelValues(endpoint).Observe(duration.Seconds())
}
