// Package middleware – Prometheus instrumentation
//
// Metrics() measures request counts, latencies, and in-flight concurrency.
// Label cardinality stays bounded by using the registered Gin route as the
// path label (falling back to the raw URL path only when no route matched)
// and the numeric status code as a string.
package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	httpReqs = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "path", "status"},
	)

	// Status is deliberately left off the latency histogram to keep its
	// cardinality down.
	httpLat = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	httpInflight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_requests_inflight",
			Help: "Current number of in-flight HTTP requests.",
		},
	)

	// turnEmotions counts completed conversation turns by detected emotion.
	turnEmotions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_turns_total",
			Help: "Total number of completed chat turns by detected emotion.",
		},
		[]string{"emotion"},
	)
)

func init() {
	prometheus.MustRegister(httpReqs, httpLat, httpInflight, turnEmotions)
}

// Metrics returns a Gin middleware instrumenting every request:
// http_requests_total(method, path, status), a latency histogram per
// method and path, and an in-flight gauge. Mount promhttp.Handler() on
// /metrics alongside it.
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		httpInflight.Inc()
		defer httpInflight.Dec()

		c.Next()

		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}
		method := c.Request.Method
		status := strconv.Itoa(c.Writer.Status())

		httpReqs.WithLabelValues(method, path, status).Inc()
		httpLat.WithLabelValues(method, path).Observe(time.Since(start).Seconds())
	}
}

// CountTurnEmotion records one completed chat turn under its detected
// emotion label. The label set is closed, so cardinality is fixed.
func CountTurnEmotion(emotion string) {
	turnEmotions.WithLabelValues(emotion).Inc()
}
