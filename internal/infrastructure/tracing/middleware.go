package tracing

import (
	"context"
	"strconv"

	"github.com/gin-gonic/gin"
)

// HTTPMiddleware creates Gin middleware for HTTP tracing
func HTTPMiddleware(tracer *Tracer) gin.HandlerFunc {
	return func(c *gin.Context) {
		// Extract trace context from headers
		headers := map[string]string{
			"X-Trace-ID": c.GetHeader("X-Trace-ID"),
			"X-Span-ID":  c.GetHeader("X-Span-ID"),
		}

		traceID, parentID := ExtractTraceContext(headers)

		ctx := c.Request.Context()
		if traceID != "" {
			ctx = context.WithValue(ctx, traceIDKey, traceID)
		}
		if parentID != "" {
			ctx = context.WithValue(ctx, spanIDKey, parentID)
		}

		// Start span
		span, ctx := tracer.StartSpan(ctx, c.FullPath())
		span.SetTag("http.method", c.Request.Method)
		span.SetTag("http.url", c.Request.URL.String())
		span.SetTag("http.host", c.Request.Host)

		// Update request context
		c.Request = c.Request.WithContext(ctx)

		// Inject trace context into response headers
		c.Header("X-Trace-ID", string(span.TraceID))
		c.Header("X-Span-ID", string(span.SpanID))

		// Process request
		c.Next()

		// Record response
		span.SetStatus(c.Writer.Status())
		span.SetTag("http.status", strconv.Itoa(c.Writer.Status()))

		if len(c.Errors) > 0 {
			span.SetError(c.Errors.Last())
		}

		span.Finish()
		tracer.Submit(span)
	}
}
