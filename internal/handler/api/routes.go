package api

import (
	"net/http"
	"time"

	domrepo "ChainPull/internal/domain/repository"

	"github.com/labstack/echo/v4"
)

// Router bundles all API handlers behind one route registration.
type Router struct {
	analyzers *AnalyzersHandler
	positions *PositionsHandler
	chain     *ChainHandler
	storage   domrepo.Storage
	connected func() bool
	started   time.Time
}

func NewRouter(
	analyzers *AnalyzersHandler,
	positions *PositionsHandler,
	chain *ChainHandler,
	storage domrepo.Storage,
	connected func() bool,
) *Router {
	return &Router{
		analyzers: analyzers,
		positions: positions,
		chain:     chain,
		storage:   storage,
		connected: connected,
		started:   time.Now(),
	}
}

func (r *Router) RegisterRoutes(e *echo.Echo) {
	r.analyzers.RegisterRoutes(e)
	r.positions.RegisterRoutes(e)
	r.chain.RegisterRoutes(e)
	e.GET("/health", r.Health)
}

func (r *Router) Health(c echo.Context) error {
	type health struct {
		Status        string  `json:"status"`
		UptimeSeconds float64 `json:"uptime_seconds"`
		Storage       string  `json:"storage"`
		Stream        string  `json:"stream"`
	}

	h := health{
		Status:        "ok",
		UptimeSeconds: time.Since(r.started).Seconds(),
		Storage:       "ok",
		Stream:        "connected",
	}
	code := http.StatusOK

	if err := r.storage.Health(c.Request().Context()); err != nil {
		h.Status = "degraded"
		h.Storage = err.Error()
		code = http.StatusServiceUnavailable
	}
	if r.connected != nil && !r.connected() {
		h.Status = "degraded"
		h.Stream = "disconnected"
	}
	return c.JSON(code, h)
}
