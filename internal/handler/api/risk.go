package api

import (
	"strings"

	"github.com/labstack/echo/v4"

	"QuantPulse/internal/domain/models"
	domrepo "QuantPulse/internal/domain/repository"
	"QuantPulse/internal/services/risk"
	"QuantPulse/internal/usecase"
	xhttp "QuantPulse/pkg/http"
	xlogger "QuantPulse/pkg/logger"
)

// RiskHandler exposes risk analytics and alert management.
type RiskHandler struct {
	logger  *xlogger.Logger
	alerts  domrepo.AlertStore
	monitor *usecase.RiskMonitor
}

func NewRiskHandler(logger *xlogger.Logger, alerts domrepo.AlertStore, monitor *usecase.RiskMonitor) *RiskHandler {
	return &RiskHandler{logger: logger, alerts: alerts, monitor: monitor}
}

func (h *RiskHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	g.GET("/portfolios/:id/alerts", h.Alerts)
	g.POST("/portfolios/:id/check", h.Check)
	g.GET("/portfolios/:id/var", h.VaR)
	g.POST("/alerts/:id/ack", h.Acknowledge)
	g.GET("/risk/kelly", h.Kelly)
	g.GET("/risk/position-size", h.PositionSize)
}

func (h *RiskHandler) Alerts(c echo.Context) error {
	unackedOnly := c.QueryParam("unacked") == "true"
	rows, err := h.alerts.List(c.Request().Context(), c.Param("id"), unackedOnly)
	if err != nil {
		h.logger.Error("list risk alerts", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.ListResponse(c, rows, int64(len(rows)))
}

// Check runs the full rule sweep for one portfolio on demand.
func (h *RiskHandler) Check(c echo.Context) error {
	raised, err := h.monitor.CheckPortfolio(c.Request().Context(), c.Param("id"))
	if err != nil {
		h.logger.Error("risk check", xlogger.String("portfolio_id", c.Param("id")), xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.ListResponse(c, raised, int64(len(raised)))
}

func (h *RiskHandler) Acknowledge(c echo.Context) error {
	if err := h.alerts.Acknowledge(c.Request().Context(), c.Param("id")); err != nil {
		h.logger.Error("acknowledge alert", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.NoContentResponse(c)
}

func (h *RiskHandler) VaR(c echo.Context) error {
	req := &models.VaRRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	res, err := h.monitor.PortfolioVaR(c.Request().Context(), req)
	if err != nil {
		h.logger.Error("portfolio VaR",
			xlogger.String("portfolio_id", req.PortfolioID),
			xlogger.String("method", req.Method),
			xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, res)
}

func (h *RiskHandler) Kelly(c echo.Context) error {
	req := &models.KellyRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	res, err := h.monitor.SymbolKelly(c.Request().Context(), strings.ToUpper(req.Symbol), req.MaxAllocation)
	if err != nil {
		h.logger.Error("kelly sizing", xlogger.String("symbol", req.Symbol), xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, res)
}

func (h *RiskHandler) PositionSize(c echo.Context) error {
	req := &models.PositionSizeRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	res, err := risk.PositionSize(req.AccountSize, req.RiskPct, req.Entry, req.Stop)
	if err != nil {
		return xhttp.AppErrorResponse(c, xhttp.BadRequestError(err.Error()))
	}
	return xhttp.SuccessResponse(c, res)
}
