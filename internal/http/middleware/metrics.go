// Package middleware contains the Gin middleware shared by the tracking API.
//
// This file instruments HTTP traffic with Prometheus. Labels are kept to
// method, registered route, and status so cardinality stays bounded: the
// route label is "/api/v1/track-click", never the raw URL of a matched
// request (unmatched requests fall back to the raw path, which for a public
// tracking endpoint is worth watching for scanner noise).
package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	reqTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "path", "status"},
	)

	// Status is omitted from the latency histogram to halve its cardinality.
	reqLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	reqInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_requests_inflight",
			Help: "Current number of in-flight HTTP requests.",
		},
	)

	// Response sizes are bimodal here: track-click acknowledgements and
	// status bodies are tiny, analytics JSON runs to a few KiB, and the CSV
	// export can reach tens of MiB at the row cap. Buckets cover both modes.
	respSize = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "http_response_size_bytes",
			Help: "Size of HTTP responses in bytes.",
			Buckets: []float64{
				128, 256, 512, 1 << 10, 4 << 10, 16 << 10,
				64 << 10, 256 << 10, 1 << 20, 4 << 20, 16 << 20,
			},
		},
		[]string{"method", "path"},
	)
)

func init() {
	prometheus.MustRegister(reqTotal, reqLatency, reqInFlight, respSize)
}

// Metrics returns a middleware that records request counts, latencies,
// in-flight concurrency, and response sizes.
//
// Install it before the rate limiter so rejected (429) requests are counted;
// a flood that never reaches a handler should still be visible on the
// dashboard. Hijacked responses report size -1 and are skipped in the size
// histogram.
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		reqInFlight.Inc()
		defer reqInFlight.Dec()

		c.Next()

		path := routePath(c)
		method := c.Request.Method

		reqTotal.WithLabelValues(method, path, strconv.Itoa(c.Writer.Status())).Inc()
		reqLatency.WithLabelValues(method, path).Observe(time.Since(start).Seconds())
		if size := c.Writer.Size(); size >= 0 {
			respSize.WithLabelValues(method, path).Observe(float64(size))
		}
	}
}
