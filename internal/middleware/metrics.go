package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/findmyteacher-api/internal/service"
)

// unmatchedRoute is the path label for requests no route claimed.
const unmatchedRoute = "unmatched"

// Metrics records duration and count per route template (e.g. /teachers/:id,
// /chats/:id/messages). Prometheus scrapes of /metrics are not recorded.
func Metrics(metricsSvc *service.MetricsService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if metricsSvc == nil || c.FullPath() == "/metrics" {
			c.Next()
			return
		}
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = unmatchedRoute
		}
		metricsSvc.ObserveHTTPRequest(c.Request.Method, route, c.Writer.Status(), time.Since(start))
	}
}
