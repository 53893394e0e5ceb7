package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Collector struct {
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	InFlightGauge   prometheus.Gauge

	AuthzDecisions      *prometheus.CounterVec
	WorkflowTransitions *prometheus.CounterVec

	TxTotal    *prometheus.CounterVec
	TxDuration *prometheus.HistogramVec

	AuditEnqueuedTotal prometheus.Counter
	AuditEntriesTotal  *prometheus.CounterVec
	AuditWriteFailures prometheus.Counter
	AuditBufferDropped prometheus.Counter

	NotificationFailures *prometheus.CounterVec
}

// NewCollector registers every series on reg. Passing a fresh registry keeps
// tests independent of the process-wide default.
func NewCollector(serviceName string, reg prometheus.Registerer) *Collector {
	f := promauto.With(reg)

	return &Collector{
		RequestsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: serviceName,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests by method, path, and status code.",
		}, []string{"method", "path", "status"}),

		RequestDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: serviceName,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency distribution.",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0},
		}, []string{"method", "path", "status"}),

		InFlightGauge: f.NewGauge(prometheus.GaugeOpts{
			Namespace: serviceName,
			Subsystem: "http",
			Name:      "in_flight_requests",
			Help:      "Current number of in-flight HTTP requests.",
		}),

		AuthzDecisions: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: serviceName,
			Subsystem: "authz",
			Name:      "decisions_total",
			Help:      "Authorization decisions by permission and outcome.",
		}, []string{"permission", "outcome"}),

		WorkflowTransitions: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: serviceName,
			Subsystem: "workflow",
			Name:      "transitions_total",
			Help:      "Committed workflow transitions by workflow and resulting status.",
		}, []string{"workflow", "status"}),

		TxTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: serviceName,
			Subsystem: "db",
			Name:      "transactions_total",
			Help:      "Transactions by label and outcome (committed, rolled_back, begin_failed).",
		}, []string{"label", "outcome"}),

		TxDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: serviceName,
			Subsystem: "db",
			Name:      "transaction_duration_seconds",
			Help:      "Transaction latency distribution.",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1.0},
		}, []string{"label"}),

		AuditEnqueuedTotal: f.NewCounter(prometheus.CounterOpts{
			Namespace: serviceName,
			Subsystem: "audit",
			Name:      "enqueued_total",
			Help:      "Total audit log entries accepted into the buffer.",
		}),

		AuditEntriesTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: serviceName,
			Subsystem: "audit",
			Name:      "entries_total",
			Help:      "Audit log entries written, by action and result.",
		}, []string{"action", "result"}),

		AuditWriteFailures: f.NewCounter(prometheus.CounterOpts{
			Namespace: serviceName,
			Subsystem: "audit",
			Name:      "write_failures_total",
			Help:      "Audit entries that failed to persist and were discarded.",
		}),

		AuditBufferDropped: f.NewCounter(prometheus.CounterOpts{
			Namespace: serviceName,
			Subsystem: "audit",
			Name:      "buffer_dropped_total",
			Help:      "Audit entries dropped due to full buffer. Alert if non-zero.",
		}),

		NotificationFailures: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: serviceName,
			Subsystem: "notification",
			Name:      "failures_total",
			Help:      "Notification deliveries that failed after commit, by sink.",
		}, []string{"sink"}),
	}
}

func MetricsHandler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
