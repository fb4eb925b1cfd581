// Package metrics is the Prometheus instrumentation surface, grounded on
// the teacher's metrics-registration pattern (HistogramVec/CounterVec per
// concern, registered once at construction).
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry holds every series the gateway emits.
type Registry struct {
	reg *prometheus.Registry

	requestDuration   *prometheus.HistogramVec
	governorWait      *prometheus.HistogramVec
	cacheHits         *prometheus.CounterVec
	upstreamCalls     *prometheus.CounterVec
	upstreamDuration  *prometheus.HistogramVec
	bookingTransition *prometheus.CounterVec
}

func New() *Registry {
	reg := prometheus.NewRegistry()
	m := &Registry{
		reg: reg,
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "gateway_http_request_duration_seconds",
			Help:    "Inbound HTTP request duration by route and status.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "status"}),
		governorWait: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "gateway_governor_wait_seconds",
			Help:    "Time spent waiting for rate-limit governor admission, by endpoint.",
			Buckets: []float64{0, .01, .05, .1, .5, 1, 5, 15, 30, 60},
		}, []string{"endpoint"}),
		cacheHits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gateway_cache_lookups_total",
			Help: "Cache lookups by table and outcome (hit/miss).",
		}, []string{"table", "outcome"}),
		upstreamCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gateway_upstream_calls_total",
			Help: "Upstream calls by endpoint and outcome kind.",
		}, []string{"endpoint", "kind"}),
		upstreamDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "gateway_upstream_call_duration_seconds",
			Help:    "Upstream call duration by endpoint.",
			Buckets: prometheus.DefBuckets,
		}, []string{"endpoint"}),
		bookingTransition: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gateway_booking_transitions_total",
			Help: "Booking state machine transitions by resulting state.",
		}, []string{"state"}),
	}
	reg.MustRegister(m.requestDuration, m.governorWait, m.cacheHits, m.upstreamCalls, m.upstreamDuration, m.bookingTransition)
	return m
}

// Handler exposes /metrics in the Prometheus text exposition format.
func (m *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{})
}

func (m *Registry) ObserveRequest(route string, status int, duration time.Duration) {
	m.requestDuration.WithLabelValues(route, statusBucket(status)).Observe(duration.Seconds())
}

func (m *Registry) ObserveGovernorWait(endpoint string, d time.Duration) {
	m.governorWait.WithLabelValues(endpoint).Observe(d.Seconds())
}

func (m *Registry) ObserveCacheLookup(table string, hit bool) {
	outcome := "miss"
	if hit {
		outcome = "hit"
	}
	m.cacheHits.WithLabelValues(table, outcome).Inc()
}

func (m *Registry) ObserveUpstreamCall(endpoint, kind string, d time.Duration) {
	m.upstreamCalls.WithLabelValues(endpoint, kind).Inc()
	m.upstreamDuration.WithLabelValues(endpoint).Observe(d.Seconds())
}

func (m *Registry) ObserveBookingTransition(state string) {
	m.bookingTransition.WithLabelValues(state).Inc()
}

func statusBucket(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}
