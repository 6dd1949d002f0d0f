package api

import (
	"net/http"

	"ChainPull/internal/analyzer"
	models "ChainPull/internal/domain/models"
	xhttp "ChainPull/pkg/http"
	xlogger "ChainPull/pkg/logger"

	"github.com/labstack/echo/v4"
)

// PositionsHandler serves the position ledger routes.
type PositionsHandler struct {
	logger *xlogger.Logger
	ledger *analyzer.Ledger
}

func NewPositionsHandler(logger *xlogger.Logger, ledger *analyzer.Ledger) *PositionsHandler {
	return &PositionsHandler{logger: logger, ledger: ledger}
}

func (h *PositionsHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api/positions")
	g.GET("", h.List)
	g.POST("", h.Add)
	g.POST("/:id/close", h.Close)
}

func (h *PositionsHandler) List(c echo.Context) error {
	req := &models.PositionsRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	rows := h.ledger.List(req.Status, req.Limit)
	return xhttp.ListResponse(c, rows, int64(h.ledger.Count()))
}

func (h *PositionsHandler) Add(c echo.Context) error {
	req := &models.AddPositionRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	res := h.ledger.Add(c.Request().Context(), req.Data)
	return xhttp.CreatedResponse(c, res)
}

func (h *PositionsHandler) Close(c echo.Context) error {
	id := c.Param("id")
	if id == "" {
		return xhttp.BadRequestResponse(c, xhttp.BadRequestError("position id required"))
	}
	res := h.ledger.Close(c.Request().Context(), id)
	if res.Status == "error" {
		h.logger.Warn("close unknown position", xlogger.String("position_id", id))
		return xhttp.DataResponse(c, http.StatusNotFound, res)
	}
	return xhttp.SuccessResponse(c, res)
}
