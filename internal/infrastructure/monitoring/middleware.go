package monitoring

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
)

// Middleware creates a Gin middleware for metrics collection
func Middleware(metrics *Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}
		method := c.Request.Method

		// Process request
		c.Next()

		duration := time.Since(start)
		status := strconv.Itoa(c.Writer.Status())

		metrics.RecordHTTPRequest(method, path, status, duration)
	}
}

// StageObserver adapts the collector to a stage's task observer hook.
func StageObserver(metrics *Metrics, stage string) func(time.Duration, error) {
	return func(d time.Duration, err error) {
		metrics.RecordStageTask(stage, d, err != nil)
	}
}
