package patient

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/clinic/internal/handler"
	"github.com/jwalitptl/clinic/internal/model"
)

type Service interface {
	ListPatients(ctx context.Context) ([]*model.Patient, error)
	SearchPatients(ctx context.Context, query string) ([]*model.Patient, error)
	GetPatient(ctx context.Context, id int64) (*model.Patient, error)
	CreatePatient(ctx context.Context, in model.PatientInput) (*model.Patient, error)
	UpdatePatient(ctx context.Context, id int64, in model.PatientInput) (*model.Patient, error)
	DeletePatient(ctx context.Context, id int64) error
	PatientDetail(id int64) (*model.PatientDetail, error)
}

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	patients := r.Group("/patients")
	{
		patients.POST("", h.CreatePatient)
		patients.GET("", h.ListPatients)
		patients.GET("/:id", h.GetPatient)
		patients.GET("/:id/detail", h.GetPatientDetail)
		patients.PUT("/:id", h.UpdatePatient)
		patients.DELETE("/:id", h.DeletePatient)
	}
}

// ListPatients returns every patient, newest first. With ?q= it returns the
// name or phone matches instead.
func (h *Handler) ListPatients(c *gin.Context) {
	var (
		patients []*model.Patient
		err      error
	)
	if q, ok := c.GetQuery("q"); ok && q != "" {
		patients, err = h.service.SearchPatients(c.Request.Context(), q)
	} else {
		patients, err = h.service.ListPatients(c.Request.Context())
	}
	if err != nil {
		handler.Abort(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(patients))
}

func (h *Handler) GetPatient(c *gin.Context) {
	id, err := handler.ParseID(c, "id")
	if err != nil {
		handler.Abort(c, err)
		return
	}
	p, err := h.service.GetPatient(c.Request.Context(), id)
	if err != nil {
		handler.Abort(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(p))
}

func (h *Handler) GetPatientDetail(c *gin.Context) {
	id, err := handler.ParseID(c, "id")
	if err != nil {
		handler.Abort(c, err)
		return
	}
	detail, err := h.service.PatientDetail(id)
	if err != nil {
		handler.Abort(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(detail))
}

func (h *Handler) CreatePatient(c *gin.Context) {
	var req model.PatientInput
	if err := handler.BindJSON(c, &req); err != nil {
		handler.Abort(c, err)
		return
	}
	p, err := h.service.CreatePatient(c.Request.Context(), req)
	if err != nil {
		handler.Abort(c, err)
		return
	}
	c.JSON(http.StatusCreated, handler.NewSuccessResponse(p))
}

func (h *Handler) UpdatePatient(c *gin.Context) {
	id, err := handler.ParseID(c, "id")
	if err != nil {
		handler.Abort(c, err)
		return
	}
	var req model.PatientInput
	if err := handler.BindJSON(c, &req); err != nil {
		handler.Abort(c, err)
		return
	}
	p, err := h.service.UpdatePatient(c.Request.Context(), id, req)
	if err != nil {
		handler.Abort(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(p))
}

// DeletePatient removes the patient with every appointment and treatment.
func (h *Handler) DeletePatient(c *gin.Context) {
	id, err := handler.ParseID(c, "id")
	if err != nil {
		handler.Abort(c, err)
		return
	}
	if err := h.service.DeletePatient(c.Request.Context(), id); err != nil {
		handler.Abort(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
