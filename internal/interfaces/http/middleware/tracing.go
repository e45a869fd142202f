package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// untracedPaths are probed constantly and only add noise to traces
var untracedPaths = map[string]struct{}{
	"/health":  {},
	"/metrics": {},
}

// Tracing starts a server span per request using the global tracer provider.
// Span names follow the gin route pattern, e.g. "GET /api/v1/orders/:id".
func Tracing(serviceName string, enabled bool) gin.HandlerFunc {
	if !enabled {
		return func(c *gin.Context) { c.Next() }
	}
	return otelgin.Middleware(serviceName,
		otelgin.WithFilter(func(r *http.Request) bool {
			_, skip := untracedPaths[r.URL.Path]
			return !skip
		}),
	)
}

// SpanEnricher must sit between Tracing and the handlers. It tags the span
// with the request id, then with the authenticated user once the chain has
// run, and marks server errors. 4xx responses are caller mistakes and leave
// the span status unset.
func SpanEnricher() gin.HandlerFunc {
	return func(c *gin.Context) {
		span := trace.SpanFromContext(c.Request.Context())
		if !span.IsRecording() {
			c.Next()
			return
		}

		if id := GetRequestID(c); id != "" {
			span.SetAttributes(attribute.String("request_id", id))
		}

		c.Next()

		if userID := c.GetString(JWTUserIDKey); userID != "" {
			span.SetAttributes(attribute.String("user_id", userID))
		}
		if status := c.Writer.Status(); status >= http.StatusInternalServerError {
			span.SetStatus(codes.Error, http.StatusText(status))
		}
		if len(c.Errors) > 0 {
			span.SetAttributes(attribute.String("gin.errors", c.Errors.String()))
		}
	}
}
