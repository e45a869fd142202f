package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestResourceFromRoute(t *testing.T) {
	tests := map[string]string{
		"/api/v1/products/:id":       "products",
		"/api/v1/admin/orders/:id":   "admin",
		"/api/v2/cart":               "cart",
		"/api/v1/orders/:id/invoice": "orders",
		"/health":                    "health",
		"":                           "",
	}
	for route, want := range tests {
		assert.Equal(t, want, resourceFromRoute(route), route)
	}
}

func TestProfiling_PassesThrough(t *testing.T) {
	for _, enabled := range []bool{true, false} {
		r := gin.New()
		r.Use(Profiling(enabled))
		r.GET("/api/v1/products/:id", func(c *gin.Context) { c.Status(http.StatusOK) })
		r.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })

		for _, path := range []string{"/api/v1/products/1", "/health"} {
			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
			assert.Equal(t, http.StatusOK, w.Code)
		}
	}
}
