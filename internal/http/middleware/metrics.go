// Prometheus instrumentation for HTTP traffic.
//
// Labels are kept bounded: the route label is the registered Gin pattern
// (e.g. /api/v1/insights/:id) and every unmatched request shares the single
// value "unmatched", so scanners cannot blow up cardinality.
package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

const unmatchedPath = "unmatched"

// Response sizes of the API range from tiny error envelopes to full feedback
// pages; insight payloads sit in the low KiB.
var sizeBuckets = prometheus.ExponentialBuckets(128, 4, 8) // 128B .. 2MiB

var (
	httpReqs = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "HTTP requests by method, route and status code.",
		},
		[]string{"method", "path", "status"},
	)

	// Insight generation waits on the AI gateway, so the buckets reach a minute.
	httpLat = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency in seconds by method and route.",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"method", "path"},
	)

	httpInflight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_requests_inflight",
			Help: "HTTP requests currently being served.",
		},
	)

	httpRespSize = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_response_size_bytes",
			Help:    "HTTP response body size in bytes by method and route.",
			Buckets: sizeBuckets,
		},
		[]string{"method", "path"},
	)
)

func init() {
	prometheus.MustRegister(httpReqs, httpLat, httpInflight, httpRespSize)
}

// Metrics records request count, latency, in-flight gauge and response size
// for every request passing through it. Mount /metrics with promhttp.
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		httpInflight.Inc()
		defer httpInflight.Dec()
		start := time.Now()

		c.Next()

		observeRequest(c, time.Since(start))
	}
}

func observeRequest(c *gin.Context, elapsed time.Duration) {
	route := c.FullPath()
	if route == "" {
		route = unmatchedPath
	}
	method := c.Request.Method

	httpReqs.WithLabelValues(method, route, strconv.Itoa(c.Writer.Status())).Inc()
	httpLat.WithLabelValues(method, route).Observe(elapsed.Seconds())
	if n := c.Writer.Size(); n >= 0 {
		httpRespSize.WithLabelValues(method, route).Observe(float64(n))
	}
}
