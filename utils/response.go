package utils

import (
	"net/http"

	"github.com/clipnest/backend/apperr"
	"github.com/clipnest/backend/logging"
	"github.com/gin-gonic/gin"
)

// Envelope is the shape of every response body.
type Envelope struct {
	Status  int    `json:"status"`
	Message string `json:"message"`
	Data    any    `json:"data"`
}

func Respond(c *gin.Context, status int, message string, data any) {
	c.JSON(status, Envelope{Status: status, Message: message, Data: data})
}

// RespondError renders err as an envelope carrying only its category code.
// Internal causes are logged with the request scoped logger.
func RespondError(c *gin.Context, err error) {
	kind := apperr.KindOf(err)
	status := apperr.HTTPStatus(kind)
	message := apperr.MessageOf(err)

	if kind == apperr.Internal {
		logging.FromContext(c.Request.Context()).Error("request failed",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"err", err,
		)
	}

	c.AbortWithStatusJSON(status, Envelope{
		Status:  status,
		Message: message,
		Data:    gin.H{"code": kind, "retryable": apperr.IsRetryable(err)},
	})
}

// BadRequest reports a binding or parsing failure as InvalidArgument.
func BadRequest(c *gin.Context, format string, args ...any) {
	RespondError(c, apperr.InvalidArgumentf(format, args...))
}

// OK is shorthand for a 200 envelope.
func OK(c *gin.Context, message string, data any) {
	Respond(c, http.StatusOK, message, data)
}
