package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/grafana/pyroscope-go"
)

// Profiling labels CPU and allocation samples taken while serving a request
// with its route pattern and method, so profiles can be split per endpoint.
// Probes and docs are left unlabelled.
func Profiling(enabled bool) gin.HandlerFunc {
	if !enabled {
		return func(c *gin.Context) { c.Next() }
	}

	return func(c *gin.Context) {
		route := c.FullPath()
		if route == "" || route == "/health" || route == "/metrics" || strings.HasPrefix(route, "/swagger") {
			c.Next()
			return
		}

		labels := pyroscope.Labels(
			"route", route,
			"method", c.Request.Method,
			"resource", resourceFromRoute(route),
		)
		pyroscope.TagWrapper(c.Request.Context(), labels, func(ctx context.Context) {
			c.Request = c.Request.WithContext(ctx)
			c.Next()
		})
	}
}

// resourceFromRoute returns the first static segment after the version,
// e.g. "/api/v1/admin/orders/:id" gives "admin".
func resourceFromRoute(route string) string {
	for _, part := range strings.Split(route, "/") {
		if part == "" || part == "api" || isVersionSegment(part) || strings.HasPrefix(part, ":") {
			continue
		}
		return part
	}
	return ""
}

func isVersionSegment(s string) bool {
	if len(s) < 2 || s[0] != 'v' {
		return false
	}
	for _, r := range s[1:] {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
