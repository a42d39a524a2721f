// Package metrics exposes collaboration counters in Prometheus format.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics owns a private registry so several instances can coexist in tests.
type Metrics struct {
	registry *prometheus.Registry

	messagesSent   *prometheus.CounterVec
	messagesDenied prometheus.Counter
	statusChanges  *prometheus.CounterVec
	journalErrors  prometheus.Counter
	requests       *prometheus.HistogramVec
}

// New registers the collectors. partitions is sampled on every scrape.
func New(partitions func() int) *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		messagesSent: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "collab_messages_sent_total",
			Help: "Chat messages appended, by conversation type.",
		}, []string{"type"}),
		messagesDenied: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "collab_message_denied_total",
			Help: "Chat messages rejected because the sender may not post.",
		}),
		statusChanges: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "collab_task_status_changes_total",
			Help: "Task status transitions, by new status.",
		}, []string{"status"}),
		journalErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "collab_journal_failures_total",
			Help: "Chat messages the journal gave up persisting.",
		}),
		requests: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "collab_http_request_duration_seconds",
			Help:    "HTTP request latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route", "code"}),
	}

	m.registry.MustRegister(
		m.messagesSent,
		m.messagesDenied,
		m.statusChanges,
		m.journalErrors,
		m.requests,
		collectors.NewGoCollector(),
	)
	if partitions != nil {
		m.registry.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "collab_conversation_partitions",
			Help: "Conversations holding at least one message.",
		}, func() float64 { return float64(partitions()) }))
	}
	return m
}

func (m *Metrics) MessageSent(kind string) {
	m.messagesSent.WithLabelValues(kind).Inc()
}

func (m *Metrics) MessageDenied() {
	m.messagesDenied.Inc()
}

func (m *Metrics) TaskStatusChanged(status string) {
	m.statusChanges.WithLabelValues(status).Inc()
}

func (m *Metrics) JournalFailed() {
	m.journalErrors.Inc()
}

func (m *Metrics) ObserveRequest(method, route string, code int, elapsed time.Duration) {
	m.requests.WithLabelValues(method, route, strconv.Itoa(code)).Observe(elapsed.Seconds())
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{EnableOpenMetrics: true})
}
