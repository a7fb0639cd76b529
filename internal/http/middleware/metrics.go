package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/xapi-mis-backend/internal/observability"
)

// Metrics records request duration and in-flight requests per route.
func Metrics(m *observability.Metrics) gin.HandlerFunc {
	if m == nil {
		return func(c *gin.Context) { c.Next() }
	}
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		route := c.FullPath()
		start := time.Now()
		m.HTTPInFlight(ctx, route, 1)
		defer m.HTTPInFlight(ctx, route, -1)

		c.Next()

		m.ObserveHTTP(ctx, c.Request.Method, route, c.Writer.Status(), time.Since(start))
	}
}
