package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
)

const unmatchedRoute = "unmatched"

// RequestRecorder receives per-request measurements.
type RequestRecorder interface {
	ObserveHTTPRequest(method, route string, status int, duration time.Duration)
	ObserveResponseSource(source string, degraded bool)
}

// Metrics records latency per route template and, for agenda reads and writes, which
// backend answered. Requests that match no route share one label.
func Metrics(recorder RequestRecorder) gin.HandlerFunc {
	return func(c *gin.Context) {
		if recorder == nil {
			c.Next()
			return
		}
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = unmatchedRoute
		}
		recorder.ObserveHTTPRequest(c.Request.Method, route, c.Writer.Status(), time.Since(start))

		meta := ExtractMeta(c)
		source, _ := meta[sourceKey].(string)
		if source == "" {
			return
		}
		degraded, _ := meta[degradedKey].(bool)
		recorder.ObserveResponseSource(source, degraded)
	}
}
