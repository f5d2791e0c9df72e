package treatment

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/clinic/internal/handler"
	"github.com/jwalitptl/clinic/internal/model"
)

type Service interface {
	ListTreatments(ctx context.Context) ([]*model.Treatment, error)
	GetTreatment(ctx context.Context, id int64) (*model.Treatment, error)
	CreateTreatment(ctx context.Context, in model.TreatmentInput) (*model.Treatment, error)
	UpdateTreatment(ctx context.Context, id int64, in model.TreatmentInput) (*model.Treatment, error)
	DeleteTreatment(ctx context.Context, id int64) error
}

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	treatments := r.Group("/treatments")
	{
		treatments.POST("", h.CreateTreatment)
		treatments.GET("", h.ListTreatments)
		treatments.GET("/:id", h.GetTreatment)
		treatments.PUT("/:id", h.UpdateTreatment)
		treatments.DELETE("/:id", h.DeleteTreatment)
	}
}

func (h *Handler) ListTreatments(c *gin.Context) {
	treatments, err := h.service.ListTreatments(c.Request.Context())
	if err != nil {
		handler.Abort(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(treatments))
}

func (h *Handler) GetTreatment(c *gin.Context) {
	id, err := handler.ParseID(c, "id")
	if err != nil {
		handler.Abort(c, err)
		return
	}
	t, err := h.service.GetTreatment(c.Request.Context(), id)
	if err != nil {
		handler.Abort(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(t))
}

func (h *Handler) CreateTreatment(c *gin.Context) {
	var req model.TreatmentInput
	if err := handler.BindJSON(c, &req); err != nil {
		handler.Abort(c, err)
		return
	}
	t, err := h.service.CreateTreatment(c.Request.Context(), req)
	if err != nil {
		handler.Abort(c, err)
		return
	}
	c.JSON(http.StatusCreated, handler.NewSuccessResponse(t))
}

func (h *Handler) UpdateTreatment(c *gin.Context) {
	id, err := handler.ParseID(c, "id")
	if err != nil {
		handler.Abort(c, err)
		return
	}
	var req model.TreatmentInput
	if err := handler.BindJSON(c, &req); err != nil {
		handler.Abort(c, err)
		return
	}
	t, err := h.service.UpdateTreatment(c.Request.Context(), id, req)
	if err != nil {
		handler.Abort(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(t))
}

func (h *Handler) DeleteTreatment(c *gin.Context) {
	id, err := handler.ParseID(c, "id")
	if err != nil {
		handler.Abort(c, err)
		return
	}
	if err := h.service.DeleteTreatment(c.Request.Context(), id); err != nil {
		handler.Abort(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
