package report

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/clinic/internal/handler"
	"github.com/jwalitptl/clinic/internal/model"
	apperrors "github.com/jwalitptl/clinic/pkg/errors"
)

const exportFilename = "patients_export.json"

// Service is the read side computed from the in-memory projections.
type Service interface {
	Revenue(date string) model.Revenue
	ExportPatients() ([]byte, error)
}

type Handler struct {
	service Service
	now     func() time.Time
}

func NewHandler(service Service, now func() time.Time) *Handler {
	if now == nil {
		now = time.Now
	}
	return &Handler{service: service, now: now}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	reports := r.Group("/reports")
	{
		reports.GET("/revenue", h.GetRevenue)
		reports.GET("/export", h.ExportPatients)
	}
}

// GetRevenue reports the day's takings for ?date= (today when omitted) and
// the all-time total.
func (h *Handler) GetRevenue(c *gin.Context) {
	date := c.Query("date")
	if date == "" {
		date = h.now().Format(model.DateLayout)
	} else if _, err := time.Parse(model.DateLayout, date); err != nil {
		handler.Abort(c, apperrors.Validation("date", "must be a date (YYYY-MM-DD)"))
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(h.service.Revenue(date)))
}

// ExportPatients serves the whole patient list as a JSON attachment.
func (h *Handler) ExportPatients(c *gin.Context) {
	blob, err := h.service.ExportPatients()
	if err != nil {
		handler.Abort(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+exportFilename+`"`)
	c.Data(http.StatusOK, "application/json; charset=utf-8", blob)
}
