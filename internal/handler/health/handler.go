package health

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/clinic/pkg/notify"
)

const pingTimeout = 2 * time.Second

// Pinger is the database handle.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Loader reports whether the first projection load has completed.
type Loader interface {
	Initialized() bool
}

// Gate reports the session state.
type Gate interface {
	IsUnlocked() bool
}

// Queue lists the reminders that are registered but have not fired.
type Queue interface {
	Pending() []notify.Notification
}

type Handler struct {
	db     Pinger
	loader Loader
	gate   Gate
	queue  Queue
}

// NewHandler builds the health endpoints. queue may be nil, in which case
// pending_reminders is left out of the status.
func NewHandler(db Pinger, loader Loader, gate Gate, queue Queue) *Handler {
	return &Handler{
		db:     db,
		loader: loader,
		gate:   gate,
		queue:  queue,
	}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	health := r.Group("/health")
	{
		health.GET("", h.Status)
		health.GET("/live", h.LivenessCheck)
		health.GET("/ready", h.ReadinessCheck)
	}
}

// Status is what the UI polls before choosing between the loading screen,
// the lock screen and the app.
func (h *Handler) Status(c *gin.Context) {
	status := gin.H{
		"db_initialized": h.loader.Initialized(),
		"authenticated":  h.gate.IsUnlocked(),
	}
	if h.queue != nil {
		status["pending_reminders"] = len(h.queue.Pending())
	}
	c.JSON(http.StatusOK, status)
}

func (h *Handler) LivenessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "UP"})
}

func (h *Handler) ReadinessCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), pingTimeout)
	defer cancel()

	if err := h.db.PingContext(ctx); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "DOWN",
			"reason": "Database connection failed",
		})
		return
	}
	if !h.loader.Initialized() {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "DOWN",
			"reason": "Data not loaded",
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "UP"})
}
