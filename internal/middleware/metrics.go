package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/school-records-api/internal/service"
)

// Metrics records the duration and status of every request under its route
// template, so /students/:id is one series rather than one per student.
// Requests that match no route are grouped under "unmatched".
func Metrics(metricsSvc *service.MetricsService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if metricsSvc == nil {
			c.Next()
			return
		}
		start := time.Now()
		c.Next()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		metricsSvc.ObserveHTTPRequest(c.Request.Method, route, c.Writer.Status(), time.Since(start))
	}
}
