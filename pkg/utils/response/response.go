// Package response writes the JSON bodies returned by the HTTP API.
package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kart-io/resume-qa/pkg/utils/errors"
)

// ErrorBody is the body of every failed request.
type ErrorBody struct {
	Error string `json:"error"`
}

// OK writes data with status 200.
func OK(c *gin.Context, data any) {
	c.JSON(http.StatusOK, data)
}

// Fail aborts the request with the status and message carried by err.
// Server-side failures always report ErrInternal's message so internal
// detail never reaches the client.
func Fail(c *gin.Context, err error) {
	e := errors.FromError(err)
	status := e.HTTPStatus()

	msg := e.Message
	if status >= http.StatusInternalServerError {
		msg = errors.ErrInternal.Message
	}
	c.AbortWithStatusJSON(status, ErrorBody{Error: msg})
}
