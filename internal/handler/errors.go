package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	apperrors "github.com/jwalitptl/clinic/pkg/errors"
)

// StatusOf maps an application error to the HTTP status reported for it.
func StatusOf(err error) int {
	switch apperrors.CodeOf(err) {
	case apperrors.ErrNotFound:
		return http.StatusNotFound
	case apperrors.ErrValidation:
		return http.StatusBadRequest
	case apperrors.ErrAuth:
		return http.StatusUnauthorized
	case apperrors.ErrNotification:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// ErrorBody renders err for the client. The wrapped cause stays in the logs.
func ErrorBody(err error) *Response {
	var appErr *apperrors.AppError
	if !errors.As(err, &appErr) {
		return NewErrorResponse("internal error")
	}
	if appErr.Code == apperrors.ErrValidation {
		return NewValidationResponse(appErr.Message, appErr.Fields)
	}
	return NewErrorResponse(appErr.Message)
}

// Abort records err on the context; the error middleware writes the response.
func Abort(c *gin.Context, err error) {
	_ = c.Error(err)
	c.Abort()
}

// ParseID reads a positive integer path parameter.
func ParseID(c *gin.Context, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperrors.Validation(name, "must be a positive integer")
	}
	return id, nil
}

// BindJSON decodes the request body into obj.
func BindJSON(c *gin.Context, obj interface{}) error {
	if err := c.ShouldBindJSON(obj); err != nil {
		return apperrors.NewValidation("invalid request body", map[string]string{"body": err.Error()})
	}
	return nil
}
