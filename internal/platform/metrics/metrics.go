// Package metrics exposes the Prometheus instrumentation shared by
// clipcast services: an HTTP middleware plus domain counters.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "clipcast_http_request_duration_seconds",
		Help:    "HTTP request latency by method and status code.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "status"})

	eventsRecorded = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "clipcast_analytics_events_total",
		Help: "Analytics events accepted, by event kind.",
	}, []string{"event"})

	eventsRejected = promauto.NewCounter(prometheus.CounterOpts{
		Name: "clipcast_analytics_events_rejected_total",
		Help: "Analytics events rejected as invalid.",
	})
)

// RecordEvent counts one accepted analytics event.
func RecordEvent(kind string) {
	eventsRecorded.WithLabelValues(kind).Inc()
}

// RejectEvent counts one rejected analytics event.
func RejectEvent() {
	eventsRejected.Inc()
}

// Handler serves the /metrics scrape endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Middleware records request latency for every handled request.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		requestDuration.
			WithLabelValues(r.Method, strconv.Itoa(rec.status)).
			Observe(time.Since(start).Seconds())
	})
}
