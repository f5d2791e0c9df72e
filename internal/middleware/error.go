package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/clinic/internal/handler"
)

// ErrorHandler writes the response for the last error a handler recorded with
// handler.Abort, unless something was already written.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}

		err := c.Errors.Last().Err
		resp := handler.ErrorBody(err)
		resp.TraceID = c.GetString(ContextRequestID)
		c.JSON(handler.StatusOf(err), resp)
	}
}
