package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/skillbridge-backend/internal/observability"
)

// unmatchedRoute labels 404s so arbitrary paths cannot grow label cardinality.
const unmatchedRoute = "unmatched"

// Metrics records per-route request counts and latency. The /metrics scrape itself is
// not observed.
func Metrics(m *observability.Metrics) gin.HandlerFunc {
	if m == nil {
		return func(c *gin.Context) { c.Next() }
	}
	return func(c *gin.Context) {
		route := c.FullPath()
		if route == "/metrics" {
			c.Next()
			return
		}
		start := time.Now()
		c.Next()

		if route == "" {
			route = unmatchedRoute
		}
		m.ObserveHTTP(c.Request.Method, route, c.Writer.Status(), time.Since(start))
	}
}
