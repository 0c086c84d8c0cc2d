package middleware

import (
	"strconv"
	"time"

	"tutorly/utils"

	"github.com/gin-gonic/gin"
)

// MetricsMiddleware records request counts and latency per matched route.
func MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := strconv.Itoa(c.Writer.Status())
		utils.HTTPRequestsTotal.WithLabelValues(c.Request.Method, route, status).Inc()
		utils.HTTPRequestDuration.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
	}
}
