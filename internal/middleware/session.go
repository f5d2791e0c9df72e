package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/clinic/internal/handler"
)

// Gate reports whether the session is unlocked.
type Gate interface {
	IsUnlocked() bool
}

// RequireUnlocked keeps every wrapped route behind the session gate.
func RequireUnlocked(gate Gate) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !gate.IsUnlocked() {
			resp := handler.NewErrorResponse("session is locked")
			resp.TraceID = c.GetString(ContextRequestID)
			c.AbortWithStatusJSON(http.StatusUnauthorized, resp)
			return
		}
		c.Next()
	}
}
