package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the service's Prometheus collectors.
type Metrics struct {
	registry *prometheus.Registry

	TicketsIssued       *prometheus.CounterVec
	WorkflowTransitions *prometheus.CounterVec
	EventsAppended      *prometheus.CounterVec
	Requests            *prometheus.CounterVec
	RequestDuration     *prometheus.HistogramVec
}

// NewMetrics creates a dedicated registry and registers every collector on it.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		TicketsIssued: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "tickets_issued_total",
			Help: "Tickets issued by the sequencer, per prefix",
		}, []string{"prefix"}),
		WorkflowTransitions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "workflow_transitions_total",
			Help: "Workflow transition attempts by entity type and result",
		}, []string{"entity_type", "result"}),
		EventsAppended: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "domain_events_appended_total",
			Help: "Committed audit events by name",
		}, []string{"name"}),
		Requests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "HTTP requests by method, route and status",
		}, []string{"method", "route", "status"}),
		RequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}
}

// Registry exposes the underlying registry, mostly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveTicket counts an issued ticket.
func (m *Metrics) ObserveTicket(prefix string, _ int64) {
	if m == nil {
		return
	}
	m.TicketsIssued.WithLabelValues(prefix).Inc()
}

// RecordTransition counts an accepted or rejected transition.
func (m *Metrics) RecordTransition(entityType string, accepted bool) {
	if m == nil {
		return
	}
	result := "rejected"
	if accepted {
		result = "accepted"
	}
	m.WorkflowTransitions.WithLabelValues(entityType, result).Inc()
}

// RecordEventAppended counts a committed audit event.
func (m *Metrics) RecordEventAppended(name string) {
	if m == nil {
		return
	}
	m.EventsAppended.WithLabelValues(name).Inc()
}

// RecordRequest counts a served request and its latency.
func (m *Metrics) RecordRequest(route, method string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	m.Requests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.RequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}
