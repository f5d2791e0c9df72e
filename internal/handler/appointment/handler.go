package appointment

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/clinic/internal/handler"
	"github.com/jwalitptl/clinic/internal/model"
	apperrors "github.com/jwalitptl/clinic/pkg/errors"
)

type Service interface {
	ListAppointments(ctx context.Context) ([]*model.Appointment, error)
	GetAppointment(ctx context.Context, id int64) (*model.Appointment, error)
	CreateAppointment(ctx context.Context, in model.AppointmentInput) (*model.Appointment, error)
	UpdateAppointment(ctx context.Context, id int64, in model.AppointmentInput) (*model.Appointment, error)
	DeleteAppointment(ctx context.Context, id int64) error
	AppointmentsByDate(date string) []*model.Appointment
}

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	appointments := r.Group("/appointments")
	{
		appointments.POST("", h.CreateAppointment)
		appointments.GET("", h.ListAppointments)
		appointments.GET("/:id", h.GetAppointment)
		appointments.PUT("/:id", h.UpdateAppointment)
		appointments.DELETE("/:id", h.DeleteAppointment)
	}
}

// ListAppointments returns the schedule in date and time order. ?date=
// narrows it to one calendar day.
func (h *Handler) ListAppointments(c *gin.Context) {
	if date := c.Query("date"); date != "" {
		if _, err := time.Parse(model.DateLayout, date); err != nil {
			handler.Abort(c, apperrors.Validation("date", "must be a date (YYYY-MM-DD)"))
			return
		}
		c.JSON(http.StatusOK, handler.NewSuccessResponse(h.service.AppointmentsByDate(date)))
		return
	}

	appts, err := h.service.ListAppointments(c.Request.Context())
	if err != nil {
		handler.Abort(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(appts))
}

func (h *Handler) GetAppointment(c *gin.Context) {
	id, err := handler.ParseID(c, "id")
	if err != nil {
		handler.Abort(c, err)
		return
	}
	appt, err := h.service.GetAppointment(c.Request.Context(), id)
	if err != nil {
		handler.Abort(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(appt))
}

func (h *Handler) CreateAppointment(c *gin.Context) {
	var req model.AppointmentInput
	if err := handler.BindJSON(c, &req); err != nil {
		handler.Abort(c, err)
		return
	}
	appt, err := h.service.CreateAppointment(c.Request.Context(), req)
	if err != nil {
		handler.Abort(c, err)
		return
	}
	c.JSON(http.StatusCreated, handler.NewSuccessResponse(appt))
}

func (h *Handler) UpdateAppointment(c *gin.Context) {
	id, err := handler.ParseID(c, "id")
	if err != nil {
		handler.Abort(c, err)
		return
	}
	var req model.AppointmentInput
	if err := handler.BindJSON(c, &req); err != nil {
		handler.Abort(c, err)
		return
	}
	appt, err := h.service.UpdateAppointment(c.Request.Context(), id, req)
	if err != nil {
		handler.Abort(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(appt))
}

func (h *Handler) DeleteAppointment(c *gin.Context) {
	id, err := handler.ParseID(c, "id")
	if err != nil {
		handler.Abort(c, err)
		return
	}
	if err := h.service.DeleteAppointment(c.Request.Context(), id); err != nil {
		handler.Abort(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
