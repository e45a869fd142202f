package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/shopline/backend/internal/interfaces/http/dto"
)

// BodyLimit rejects requests whose declared body exceeds maxBytes and caps
// the reader for chunked bodies, so binding fails once the limit is crossed.
func BodyLimit(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.ContentLength > maxBytes {
			abortWithError(c, http.StatusRequestEntityTooLarge, dto.ErrCodeRequestTooLarge,
				"request body exceeds maximum allowed size")
			return
		}
		if c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		}
		c.Next()
	}
}
