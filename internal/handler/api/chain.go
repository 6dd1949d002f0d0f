package api

import (
	"errors"
	"time"

	models "ChainPull/internal/domain/models"
	domrepo "ChainPull/internal/domain/repository"
	xhttp "ChainPull/pkg/http"
	xlogger "ChainPull/pkg/logger"
	"ChainPull/pkg/util"

	"github.com/labstack/echo/v4"
)

// ChainHandler serves raw chain rows, the spot price and retained logs.
type ChainHandler struct {
	logger  *xlogger.Logger
	storage domrepo.Storage
	snaps   domrepo.SnapshotStore
}

func NewChainHandler(logger *xlogger.Logger, storage domrepo.Storage, snaps domrepo.SnapshotStore) *ChainHandler {
	return &ChainHandler{logger: logger, storage: storage, snaps: snaps}
}

func (h *ChainHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	g.GET("/chain", h.Chain)
	g.GET("/spot", h.Spot)
	g.GET("/logs", h.Logs)
}

func (h *ChainHandler) Chain(c echo.Context) error {
	req := &models.ChainRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	to := xhttp.ParseTimeDefault(c.QueryParam("to"), time.Now())
	from := xhttp.ParseTimeDefault(c.QueryParam("from"), to.Add(-time.Duration(req.Minutes)*time.Minute))
	from, to = util.AlignFromTo(from, to, "1s")

	rows, err := h.storage.Query(c.Request().Context(), from, to, req.StrikeMin, req.StrikeMax, req.Limit)
	if err != nil {
		h.logger.Error("chain query failed", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.ListResponse(c, rows, int64(len(rows)))
}

func (h *ChainHandler) Spot(c echo.Context) error {
	tick, err := h.snaps.Spot(c.Request().Context())
	if err != nil {
		if errors.Is(err, domrepo.ErrNoData) {
			return xhttp.NotFoundResponse(c, xhttp.NotFoundError("no spot price available"))
		}
		h.logger.Error("spot query failed", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, tick)
}

func (h *ChainHandler) Logs(c echo.Context) error {
	ring := h.logger.Ring()
	if ring == nil {
		return xhttp.SuccessResponse(c, []xlogger.LogEntry{})
	}
	limit := xhttp.ParseIntDefault(c.QueryParam("limit"), 0)
	return xhttp.SuccessResponse(c, ring.Recent(limit))
}
