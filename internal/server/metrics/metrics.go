// Package metrics owns the Prometheus registry of the auth server.
package metrics

import (
	"database/sql"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups the collectors the server reports.
type Metrics struct {
	Registry *prometheus.Registry

	requestDuration *prometheus.HistogramVec
	authEvents      *prometheus.CounterVec
	mailFailures    prometheus.Counter
}

// New registers process, Go runtime and application collectors on a fresh
// registry. db may be nil.
func New(db *sql.DB) *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		Registry: reg,
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "http",
			Name:      "request_duration_seconds",
			Help:      "A histogram of duration, in seconds, handling HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 15),
		}, []string{"method", "path", "status"}),
		authEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "yapplr",
			Subsystem: "auth",
			Name:      "events_total",
			Help:      "Authentication events by kind and outcome.",
		}, []string{"event", "outcome"}),
		mailFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "yapplr",
			Subsystem: "auth",
			Name:      "reset_email_failures_total",
			Help:      "Password reset emails that could not be handed to the mail provider.",
		}),
	}
	reg.MustRegister(
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewGoCollector(),
		m.requestDuration,
		m.authEvents,
		m.mailFailures,
	)
	if db != nil {
		reg.MustRegister(collectors.NewDBStatsCollector(db, "yapplr"))
	}
	return m
}

// AuthEvent counts one authentication event. Safe on a nil *Metrics.
func (m *Metrics) AuthEvent(event, outcome string) {
	if m == nil {
		return
	}
	m.authEvents.WithLabelValues(event, outcome).Inc()
}

// ResetMailFailed counts a reset email that was not delivered.
func (m *Metrics) ResetMailFailed() {
	if m == nil {
		return
	}
	m.mailFailures.Inc()
}

// Middleware observes request duration labelled by the chi route pattern.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		path := "unmatched"
		if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
			path = rc.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		m.requestDuration.WithLabelValues(r.Method, path, strconv.Itoa(status)).
			Observe(time.Since(start).Seconds())
	})
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.InstrumentMetricHandler(m.Registry, promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{}))
}
