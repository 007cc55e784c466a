package server

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type httpMetrics struct {
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
}

var (
	metricsOnce sync.Once
	metricsInst *httpMetrics
)

// newHTTPMetrics registers the HTTP metrics once per process; additional
// servers (as in tests) share the same collectors.
func newHTTPMetrics() *httpMetrics {
	metricsOnce.Do(func() {
		metricsInst = &httpMetrics{
			requestsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total HTTP requests by method, route and status.",
			}, []string{"method", "route", "status"}),
			requestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request latency by method and route.",
				Buckets: prometheus.DefBuckets,
			}, []string{"method", "route"}),
		}
	})
	return metricsInst
}

func (s *Server) MetricsMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}

		next(sw, r)

		route := r.Pattern
		if route == "" {
			route = r.URL.Path
		}
		s.metrics.requestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(sw.status)).Inc()
		s.metrics.requestDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	}
}
