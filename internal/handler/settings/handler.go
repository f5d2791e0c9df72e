package settings

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/clinic/internal/handler"
	"github.com/jwalitptl/clinic/internal/model"
)

type Service interface {
	Theme(ctx context.Context) (model.Theme, error)
	SetTheme(ctx context.Context, theme model.Theme) error
	ToggleTheme(ctx context.Context) (model.Theme, error)
}

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	settings := r.Group("/settings")
	{
		settings.GET("/theme", h.GetTheme)
		settings.PUT("/theme", h.SetTheme)
		settings.POST("/theme/toggle", h.ToggleTheme)
	}
}

func (h *Handler) GetTheme(c *gin.Context) {
	theme, err := h.service.Theme(c.Request.Context())
	if err != nil {
		handler.Abort(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(model.ThemeInput{Theme: theme}))
}

func (h *Handler) SetTheme(c *gin.Context) {
	var req model.ThemeInput
	if err := handler.BindJSON(c, &req); err != nil {
		handler.Abort(c, err)
		return
	}
	if err := h.service.SetTheme(c.Request.Context(), req.Theme); err != nil {
		handler.Abort(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(req))
}

func (h *Handler) ToggleTheme(c *gin.Context) {
	theme, err := h.service.ToggleTheme(c.Request.Context())
	if err != nil {
		handler.Abort(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(model.ThemeInput{Theme: theme}))
}
