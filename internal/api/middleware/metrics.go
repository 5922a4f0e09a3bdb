package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
)

// RequestObserver records the latency of handled requests
type RequestObserver interface {
	ObserveRequest(method, route string, status int, duration time.Duration)
}

// Metrics reports request latency labelled by the matched route template.
// Unmatched paths are grouped under "unmatched" to keep label cardinality low.
func Metrics(observer RequestObserver) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		observer.ObserveRequest(c.Request.Method, route, c.Writer.Status(), time.Since(start))
	}
}
