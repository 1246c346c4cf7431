// Package metrics exposes Prometheus instrumentation for the HTTP server.
// Init wires a registry once at startup; the recording helpers are no-ops
// until then, which keeps tests and the MCP entrypoint free of setup.
package metrics

import (
	"net/http"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type instruments struct {
	registry    *prometheus.Registry
	requests    *prometheus.CounterVec
	duration    *prometheus.HistogramVec
	authRejects *prometheus.CounterVec
}

var active atomic.Pointer[instruments]

// Init builds and registers the collectors, replacing any previous set.
func Init() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	c := &instruments{
		registry: reg,
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "atelier",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by method, route and status code.",
		}, []string{"method", "route", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "atelier",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency by method and route.",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		}, []string{"method", "route"}),
		authRejects: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "atelier",
			Subsystem: "auth",
			Name:      "rejects_total",
			Help:      "Guarded-route rejections by reason.",
		}, []string{"reason"}),
	}
	reg.MustRegister(c.requests, c.duration, c.authRejects,
		collectors.NewGoCollector())
	active.Store(c)
	return reg
}

// Handler serves the scrape endpoint. Before Init it answers 404.
func Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c := active.Load()
		if c == nil {
			http.NotFound(w, r)
			return
		}
		promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{}).ServeHTTP(w, r)
	})
}

// RecordAuthReject counts a guard rejection.
func RecordAuthReject(reason string) {
	if c := active.Load(); c != nil {
		c.authRejects.WithLabelValues(reason).Inc()
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (w *statusRecorder) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusRecorder) Unwrap() http.ResponseWriter { return w.ResponseWriter }

// Middleware records request counts and latency per chi route pattern, so
// /api/projects/{projectID} stays one series instead of one per UUID.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c := active.Load()
		if c == nil {
			next.ServeHTTP(w, r)
			return
		}
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		route := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				route = pattern
			}
		}
		c.requests.WithLabelValues(r.Method, route, strconv.Itoa(rec.status)).Inc()
		c.duration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}
