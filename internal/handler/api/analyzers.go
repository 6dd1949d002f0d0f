package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"ChainPull/internal/analyzer"
	icache "ChainPull/internal/service/cache"
	"ChainPull/internal/service/metrics"
	"ChainPull/internal/service/ratelimit"
	pkgcache "ChainPull/pkg/cache"
	xhttp "ChainPull/pkg/http"
	xlogger "ChainPull/pkg/logger"

	"github.com/labstack/echo/v4"
)

// dataCacheTTL is the fallback when analyzers.cache_ttl is unset.
const dataCacheTTL = 5 * time.Second

// analyzerEntry adapts one analyzer's cycle/result surface behind closures so
// the three result shapes share a single route set.
type analyzerEntry struct {
	status  func() analyzer.Status
	analyze func(ctx context.Context) interface{}
	latest  func() interface{}
}

// AnalyzersHandler serves the per-analyzer status/analyze/data routes.
type AnalyzersHandler struct {
	logger   *xlogger.Logger
	entries  map[string]analyzerEntry
	cache    icache.BytesCache
	cacheTTL time.Duration
	rl       *ratelimit.Limiter
}

func NewAnalyzersHandler(
	logger *xlogger.Logger,
	spread *analyzer.SpreadAnalyzer,
	condor *analyzer.CondorAnalyzer,
	vertical *analyzer.VerticalAnalyzer,
	cacheTTL time.Duration,
) *AnalyzersHandler {
	if cacheTTL <= 0 {
		cacheTTL = dataCacheTTL
	}
	metrics.Register()
	entries := map[string]analyzerEntry{
		spread.Name(): {
			status:  spread.Status,
			analyze: func(ctx context.Context) interface{} { return spread.RunCycle(ctx) },
			latest:  func() interface{} { return spread.Latest() },
		},
		condor.Name(): {
			status:  condor.Status,
			analyze: func(ctx context.Context) interface{} { return condor.RunCycle(ctx) },
			latest:  func() interface{} { return condor.Latest() },
		},
		vertical.Name(): {
			status:  vertical.Status,
			analyze: func(ctx context.Context) interface{} { return vertical.RunCycle(ctx) },
			latest:  func() interface{} { return vertical.Latest() },
		},
	}
	return &AnalyzersHandler{logger: logger, entries: entries, cacheTTL: cacheTTL, rl: ratelimit.New()}
}

// SetCache injects a response cache for the data route.
func (h *AnalyzersHandler) SetCache(c icache.BytesCache) { h.cache = c }

func (h *AnalyzersHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api/:analyzer")
	g.GET("/status", h.Status)
	g.POST("/analyze", h.Analyze)
	g.GET("/data", h.Data)
}

func (h *AnalyzersHandler) entry(c echo.Context) (analyzerEntry, string, bool) {
	name := c.Param("analyzer")
	e, ok := h.entries[name]
	return e, name, ok
}

func (h *AnalyzersHandler) Status(c echo.Context) error {
	e, name, ok := h.entry(c)
	if !ok {
		return xhttp.NotFoundResponse(c, xhttp.NotFoundErrorf("unknown analyzer: %s", name))
	}
	return xhttp.SuccessResponse(c, e.status())
}

func (h *AnalyzersHandler) Analyze(c echo.Context) error {
	start := time.Now()
	e, name, ok := h.entry(c)
	if !ok {
		return xhttp.NotFoundResponse(c, xhttp.NotFoundErrorf("unknown analyzer: %s", name))
	}
	if !h.rl.Allow(c.RealIP()+":analyze:"+name, 5, 2) {
		metrics.AnalyticsErrors.WithLabelValues(name).Inc()
		return xhttp.DataResponse(c, http.StatusTooManyRequests, "rate limited")
	}

	res := e.analyze(c.Request().Context())
	metrics.AnalyticsLatency.WithLabelValues(name).Observe(time.Since(start).Seconds())
	h.logger.Debug("analyze cycle",
		xlogger.String("analyzer", name),
		xlogger.Duration("elapsed", time.Since(start)))
	return xhttp.SuccessResponse(c, res)
}

func (h *AnalyzersHandler) Data(c echo.Context) error {
	e, name, ok := h.entry(c)
	if !ok {
		return xhttp.NotFoundResponse(c, xhttp.NotFoundErrorf("unknown analyzer: %s", name))
	}

	cacheKey := pkgcache.GenerateKey("analyzer:data", name)
	if h.cache != nil {
		if b, hit, err := h.cache.GetBytes(cacheKey); err == nil && hit {
			c.Response().Header().Set("X-Cache", "HIT")
			return xhttp.SuccessResponse(c, json.RawMessage(b))
		}
	}

	res := e.latest()
	if h.cache != nil {
		if b, err := json.Marshal(res); err == nil {
			_ = h.cache.SetBytes(cacheKey, b, h.cacheTTL)
		}
	}
	return xhttp.SuccessResponse(c, res)
}
