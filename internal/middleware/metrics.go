// metrics.go provides Gin middleware that records per-request Prometheus metrics.
package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/committee-registry/committee-registry/internal/telemetry"
)

// MetricsMiddleware records request count and latency for every handled request.
//
// The path label uses the Gin route template (c.FullPath), not the raw URL, so
// committee and membership IDs in the path never explode label cardinality.
// Requests that match no route report the path as "unmatched".
func MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		method := c.Request.Method
		status := strconv.Itoa(c.Writer.Status())

		telemetry.HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
		telemetry.HTTPRequestDuration.WithLabelValues(method, path).Observe(time.Since(start).Seconds())
	}
}
