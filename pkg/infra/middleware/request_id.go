package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/kart-io/resume-qa/pkg/utils/id"
)

// maxRequestIDLen bounds ids accepted from clients.
const maxRequestIDLen = 128

// RequestID returns a middleware that adds a unique request ID to each request.
// An incoming X-Request-ID is kept; otherwise a UUID is generated. The id is
// echoed in the response header and stored in the request context.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(HeaderXRequestID)
		if requestID == "" || len(requestID) > maxRequestIDLen {
			requestID = id.NewUUID()
		}

		c.Header(HeaderXRequestID, requestID)
		c.Request = c.Request.WithContext(WithRequestID(c.Request.Context(), requestID))
		c.Next()
	}
}
