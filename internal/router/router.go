package router

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/clinic/internal/handler/prometheus"
	"github.com/jwalitptl/clinic/internal/handler/session"
	"github.com/jwalitptl/clinic/internal/middleware"
	"github.com/jwalitptl/clinic/pkg/logger"
)

type Handler interface {
	RegisterRoutes(*gin.RouterGroup)
}

// Handlers groups everything the router mounts. Metrics may be nil.
type Handlers struct {
	Health       Handler
	Session      *session.Handler
	Patients     Handler
	Appointments Handler
	Treatments   Handler
	Reports      Handler
	Settings     Handler
	Metrics      *prometheus.Handler
}

type RouterConfig struct {
	RateLimit      float64
	RateBurst      int
	CORSOrigins    []string
	MaxBodyBytes   int64
	RequestTimeout time.Duration
}

type Router struct {
	engine *gin.Engine
	gate   middleware.Gate
	h      Handlers
}

func NewRouter(log *logger.Logger, gate middleware.Gate, h Handlers, config RouterConfig) *Router {
	gin.SetMode(gin.ReleaseMode)

	engine := gin.New()

	r := &Router{
		engine: engine,
		gate:   gate,
		h:      h,
	}

	engine.Use(
		middleware.RequestID(),
		middleware.Logger(log),
		middleware.Recovery(log),
	)
	if h.Metrics != nil {
		engine.Use(h.Metrics.Middleware())
	}
	engine.Use(
		middleware.CORS(middleware.DefaultCORSConfig(config.CORSOrigins...)),
		middleware.SecurityHeaders(),
		middleware.SizeLimit(config.MaxBodyBytes),
		middleware.Timeout(config.RequestTimeout),
		middleware.ErrorHandler(),
	)

	rateLimiter := middleware.NewRateLimiter(middleware.RateLimiterConfig{
		RPS:   config.RateLimit,
		Burst: config.RateBurst,
	})
	engine.Use(rateLimiter.RateLimit())

	return r
}

// Setup mounts the routes. Health, metrics and the unlock endpoints are open;
// everything else needs an unlocked session.
func (r *Router) Setup() {
	if r.h.Metrics != nil {
		r.engine.GET("/metrics", r.h.Metrics.Handler())
	}

	api := r.engine.Group("/api/v1")
	r.h.Health.RegisterRoutes(api)
	r.h.Session.RegisterRoutes(api)

	protected := api.Group("")
	protected.Use(middleware.RequireUnlocked(r.gate))
	r.h.Session.RegisterProtectedRoutes(protected)
	for _, h := range []Handler{
		r.h.Patients,
		r.h.Appointments,
		r.h.Treatments,
		r.h.Reports,
		r.h.Settings,
	} {
		h.RegisterRoutes(protected)
	}
}

func (r *Router) Engine() *gin.Engine {
	return r.engine
}
