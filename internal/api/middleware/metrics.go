package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/hestia-ops/hestia-backend-go/internal/core/metrics"
)

// MetricsMiddleware records per-request counters and latency.
func MetricsMiddleware(collector *metrics.Collector) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}

		c.Next()

		collector.ObserveHTTPRequest(c.Request.Method, path, c.Writer.Status(), time.Since(start))
	}
}
