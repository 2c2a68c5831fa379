package server

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/greut/picture/picture"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// RequestsTotal counts the HTTP requests by route, method and status class.
	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "picture_requests_total",
			Help: "Total requests",
		},
		[]string{"route", "method", "status"},
	)

	// RequestDuration records the HTTP request duration in seconds.
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "picture_request_duration_seconds",
			Help:    "Request duration",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route", "method"},
	)

	// ResolveDuration records how long the engine takes for one image.
	ResolveDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "picture_resolve_duration_seconds",
			Help:    "Resolution duration",
			Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		},
	)

	// ResolvedSources counts the breakpoints kept per resolution.
	ResolvedSources = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "picture_resolved_sources",
			Help:    "Sources per resolution",
			Buckets: []float64{0, 1, 2, 3, 4, 6, 8, 12},
		},
	)

	// CandidatesDropped counts the srcset candidates the renderer refused.
	CandidatesDropped = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "picture_candidates_dropped_total",
			Help: "Dropped srcset candidates",
		},
		[]string{"format"},
	)
)

func init() {
	prometheus.MustRegister(
		RequestsTotal,
		RequestDuration,
		ResolveDuration,
		ResolvedSources,
		CandidatesDropped,
	)
}

// MetricsHooks reports the engine events to prometheus.
type MetricsHooks struct{}

// OnResolve records the duration and the number of sources.
func (MetricsHooks) OnResolve(_ context.Context, _ string, sources int, duration time.Duration) {
	ResolveDuration.Observe(duration.Seconds())
	ResolvedSources.Observe(float64(sources))
}

// OnCandidateDropped counts the refused candidate.
func (MetricsHooks) OnCandidateDropped(_ context.Context, _ string, format picture.Format, _ int, _ error) {
	CandidatesDropped.WithLabelValues(format.String()).Inc()
}

// MetricsMiddleware records the requests served by the named route.
func MetricsMiddleware(route string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, r)

		status := strconv.Itoa(sw.status/100) + "xx"
		RequestsTotal.WithLabelValues(route, r.Method, status).Inc()
		RequestDuration.WithLabelValues(route, r.Method).Observe(time.Since(start).Seconds())
	})
}

// statusWriter captures the status code.
type statusWriter struct {
	http.ResponseWriter
	status  int
	written bool
}

func (w *statusWriter) WriteHeader(status int) {
	if !w.written {
		w.status = status
		w.written = true
	}
	w.ResponseWriter.WriteHeader(status)
}

func (w *statusWriter) Write(b []byte) (int, error) {
	w.written = true
	return w.ResponseWriter.Write(b)
}

// Unwrap gives http.ResponseController access to the original writer.
func (w *statusWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}
