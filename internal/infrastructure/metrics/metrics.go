package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics owns its registry so tests can build independent instances.
// All recording methods are safe on a nil receiver.
type Metrics struct {
	registry *prometheus.Registry

	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec

	applicationsSubmitted prometheus.Counter
	statusTransitions     *prometheus.CounterVec
	documentsUploaded     prometheus.Counter
	loansAccepted         prometheus.Counter
	idempotency           *prometheus.CounterVec
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "loanease_http_requests_total",
			Help: "HTTP requests by method, route and status code.",
		}, []string{"method", "route", "code"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "loanease_http_request_duration_seconds",
			Help:    "HTTP request latency by method and route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
		applicationsSubmitted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "loanease_applications_submitted_total",
			Help: "Loan applications accepted for review.",
		}),
		statusTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "loanease_status_transitions_total",
			Help: "Application status changes by source and target status.",
		}, []string{"from", "to"}),
		documentsUploaded: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "loanease_documents_uploaded_total",
			Help: "Supporting documents stored.",
		}),
		loansAccepted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "loanease_loans_accepted_total",
			Help: "Approved loans accepted by the applicant.",
		}),
		idempotency: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "loanease_idempotency_outcomes_total",
			Help: "Idempotent requests by route and outcome (stored, replayed, conflict, released).",
		}, []string{"route", "outcome"}),
	}
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.httpRequests, m.httpDuration,
		m.applicationsSubmitted, m.statusTransitions, m.documentsUploaded, m.loansAccepted,
		m.idempotency,
	)
	return m
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

func (m *Metrics) ObserveHTTP(method, route string, code int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(code)).Inc()
	m.httpDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

func (m *Metrics) ApplicationSubmitted() {
	if m != nil {
		m.applicationsSubmitted.Inc()
	}
}

func (m *Metrics) StatusChanged(from, to string) {
	if m != nil {
		m.statusTransitions.WithLabelValues(from, to).Inc()
	}
}

func (m *Metrics) DocumentUploaded() {
	if m != nil {
		m.documentsUploaded.Inc()
	}
}

func (m *Metrics) LoanAccepted() {
	if m != nil {
		m.loansAccepted.Inc()
	}
}

func (m *Metrics) IdempotencyOutcome(route, outcome string) {
	if m != nil {
		m.idempotency.WithLabelValues(route, outcome).Inc()
	}
}
