package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Exchange outcomes recorded by statify_token_exchanges_total.
const (
	exchangeSuccess  = "success"
	exchangeRejected = "rejected"
	exchangeFailed   = "failed"
	exchangeInvalid  = "invalid_request"
)

// Metrics holds the backend's Prometheus collectors on a private registry.
type Metrics struct {
	registry        *prometheus.Registry
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	exchangesTotal  *prometheus.CounterVec
	signupsTotal    *prometheus.CounterVec
}

// NewMetrics registers the collectors on registry, or on a fresh one when nil.
func NewMetrics(registry *prometheus.Registry) *Metrics {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	m := &Metrics{
		registry: registry,
		requestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total HTTP requests processed",
		}, []string{"method", "path", "status"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path"}),
		exchangesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "statify_token_exchanges_total",
			Help: "Authorization code exchanges by result",
		}, []string{"result"}),
		signupsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "statify_signups_total",
			Help: "Signup submissions by result",
		}, []string{"result"}),
	}

	registry.MustRegister(m.requestsTotal, m.requestDuration, m.exchangesTotal, m.signupsTotal)
	return m
}

// Middleware records request counts and latency labelled by route pattern.
func (m *Metrics) Middleware() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			path := r.Pattern
			if path == "" {
				path = "unmatched"
			}
			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			m.requestsTotal.WithLabelValues(r.Method, path, strconv.Itoa(status)).Inc()
			m.requestDuration.WithLabelValues(r.Method, path).Observe(time.Since(start).Seconds())
		})
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) exchange(result string) {
	m.exchangesTotal.WithLabelValues(result).Inc()
}

func (m *Metrics) signup(result string) {
	m.signupsTotal.WithLabelValues(result).Inc()
}
