package server

import (
	"github.com/gin-gonic/gin"
	obsmetrics "github.com/smallbiznis/profitlens/internal/observability/metrics"
)

// RequestMetrics counts served requests by route template.
func RequestMetrics(metrics *obsmetrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		metrics.RecordHTTPRequest(route, c.Writer.Status())
	}
}
