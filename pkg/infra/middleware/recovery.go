package middleware

import (
	"runtime/debug"

	"github.com/gin-gonic/gin"
	"github.com/kart-io/logger"

	"github.com/kart-io/resume-qa/pkg/utils/errors"
	"github.com/kart-io/resume-qa/pkg/utils/response"
)

// Recovery returns a middleware that turns a panic into a 500 response.
// The stack trace is logged, never returned to the client.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				logger.Errorw("panic recovered",
					"panic", r,
					"method", c.Request.Method,
					"path", c.Request.URL.Path,
					"request_id", GetRequestID(c.Request.Context()),
					"stack", string(debug.Stack()),
				)
				response.Fail(c, errors.ErrPanic)
			}
		}()
		c.Next()
	}
}
