package handler

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	apperrors "github.com/jwalitptl/clinic/pkg/errors"
)

func TestStatusOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"not found", apperrors.NotFound("patient", nil), http.StatusNotFound},
		{"validation", apperrors.Validation("age", "is required"), http.StatusBadRequest},
		{"auth", apperrors.NewAuth("incorrect PIN", nil), http.StatusUnauthorized},
		{"notification", apperrors.NewNotification("reminders are disabled", nil), http.StatusBadGateway},
		{"storage", apperrors.Storage("insert patient", errors.New("disk full")), http.StatusInternalServerError},
		{"plain error", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StatusOf(tt.err))
		})
	}
}

func TestErrorBodyHidesCause(t *testing.T) {
	body := ErrorBody(apperrors.Storage("insert patient", errors.New("disk full")))
	assert.Equal(t, "error", body.Status)
	assert.Equal(t, "storage: insert patient", body.Message)
	assert.NotContains(t, body.Message, "disk full")

	body = ErrorBody(apperrors.Validation("phone_number", "must be a phone number"))
	assert.Equal(t, map[string]string{"phone_number": "must be a phone number"}, body.Fields)

	body = ErrorBody(errors.New("boom"))
	assert.Equal(t, "internal error", body.Message)
}

func TestParseID(t *testing.T) {
	gin.SetMode(gin.TestMode)

	for _, raw := range []string{"abc", "0", "-3"} {
		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		c.Params = gin.Params{{Key: "id", Value: raw}}
		_, err := ParseID(c, "id")
		assert.True(t, apperrors.Is(err, apperrors.ErrValidation), raw)
	}

	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Params = gin.Params{{Key: "id", Value: "42"}}
	id, err := ParseID(c, "id")
	assert.NoError(t, err)
	assert.Equal(t, int64(42), id)
}
