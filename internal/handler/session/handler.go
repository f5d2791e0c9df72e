package session

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/clinic/internal/handler"
	"github.com/jwalitptl/clinic/internal/model"
)

type Service interface {
	Status(ctx context.Context) (*model.SessionStatus, error)
	Verify(ctx context.Context, pin string) error
	AuthenticateBiometric(ctx context.Context) error
	Logout()
	SetPin(ctx context.Context, pin, confirm string) error
	ClearPin(ctx context.Context) error
	SetBiometric(ctx context.Context, enabled bool) error
}

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes mounts the routes a locked session may reach.
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	session := r.Group("/session")
	{
		session.GET("", h.GetStatus)
		session.POST("/unlock", h.Unlock)
		session.POST("/biometric", h.UnlockBiometric)
		session.POST("/lock", h.Lock)
	}
}

// RegisterProtectedRoutes mounts credential changes, which need an unlocked
// session.
func (h *Handler) RegisterProtectedRoutes(r *gin.RouterGroup) {
	session := r.Group("/session")
	{
		session.PUT("/pin", h.SetPin)
		session.DELETE("/pin", h.ClearPin)
		session.PUT("/biometric", h.SetBiometric)
	}
}

func (h *Handler) GetStatus(c *gin.Context) {
	status, err := h.service.Status(c.Request.Context())
	if err != nil {
		handler.Abort(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(status))
}

func (h *Handler) Unlock(c *gin.Context) {
	var req model.UnlockRequest
	if err := handler.BindJSON(c, &req); err != nil {
		handler.Abort(c, err)
		return
	}
	if err := h.service.Verify(c.Request.Context(), req.Pin); err != nil {
		handler.Abort(c, err)
		return
	}
	h.GetStatus(c)
}

func (h *Handler) UnlockBiometric(c *gin.Context) {
	if err := h.service.AuthenticateBiometric(c.Request.Context()); err != nil {
		handler.Abort(c, err)
		return
	}
	h.GetStatus(c)
}

func (h *Handler) Lock(c *gin.Context) {
	h.service.Logout()
	h.GetStatus(c)
}

func (h *Handler) SetPin(c *gin.Context) {
	var req model.SetPinRequest
	if err := handler.BindJSON(c, &req); err != nil {
		handler.Abort(c, err)
		return
	}
	if err := h.service.SetPin(c.Request.Context(), req.Pin, req.ConfirmPin); err != nil {
		handler.Abort(c, err)
		return
	}
	h.GetStatus(c)
}

func (h *Handler) ClearPin(c *gin.Context) {
	if err := h.service.ClearPin(c.Request.Context()); err != nil {
		handler.Abort(c, err)
		return
	}
	h.GetStatus(c)
}

func (h *Handler) SetBiometric(c *gin.Context) {
	var req model.BiometricRequest
	if err := handler.BindJSON(c, &req); err != nil {
		handler.Abort(c, err)
		return
	}
	if err := h.service.SetBiometric(c.Request.Context(), req.Enabled); err != nil {
		handler.Abort(c, err)
		return
	}
	h.GetStatus(c)
}
