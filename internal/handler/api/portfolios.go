package api

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"QuantPulse/internal/domain/models"
	domrepo "QuantPulse/internal/domain/repository"
	"QuantPulse/internal/usecase"
	xhttp "QuantPulse/pkg/http"
	xlogger "QuantPulse/pkg/logger"
)

// PortfoliosHandler exposes portfolio CRUD, holdings management, and
// the optimizer over HTTP.
type PortfoliosHandler struct {
	logger     *xlogger.Logger
	portfolios domrepo.PortfolioStore
	rebalancer *usecase.Rebalancer
}

func NewPortfoliosHandler(logger *xlogger.Logger, portfolios domrepo.PortfolioStore, rebalancer *usecase.Rebalancer) *PortfoliosHandler {
	return &PortfoliosHandler{logger: logger, portfolios: portfolios, rebalancer: rebalancer}
}

func (h *PortfoliosHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api/portfolios")
	g.POST("", h.Create)
	g.GET("", h.List)
	g.GET("/:id", h.Get)
	g.PUT("/:id", h.Update)
	g.DELETE("/:id", h.Delete)

	g.POST("/:id/assets", h.UpsertAsset)
	g.DELETE("/:id/assets/:symbol", h.RemoveAsset)

	g.POST("/:id/optimize", h.Optimize)
	g.GET("/:id/rebalances", h.Rebalances)
	g.GET("/:id/frontier", h.Frontier)
}

func (h *PortfoliosHandler) Create(c echo.Context) error {
	req := &models.CreatePortfolioRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	p := &models.Portfolio{
		ID:             uuid.NewString(),
		OwnerID:        req.OwnerID,
		Name:           req.Name,
		InitialCapital: req.InitialCapital,
		CurrentValue:   req.InitialCapital,
		Strategy:       req.Strategy,
		CreatedAt:      time.Now().UTC(),
	}
	if err := h.portfolios.Create(c.Request().Context(), p); err != nil {
		h.logger.Error("create portfolio", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.CreatedResponse(c, p)
}

func (h *PortfoliosHandler) List(c echo.Context) error {
	rows, err := h.portfolios.List(c.Request().Context(), c.QueryParam("owner_id"))
	if err != nil {
		h.logger.Error("list portfolios", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.ListResponse(c, rows, int64(len(rows)))
}

func (h *PortfoliosHandler) Get(c echo.Context) error {
	ctx := c.Request().Context()
	p, err := h.portfolios.Get(ctx, c.Param("id"))
	if err != nil {
		return xhttp.AppErrorResponse(c, xhttp.NotFoundErrorf("portfolio %s not found", c.Param("id")).WithError(err))
	}
	assets, err := h.portfolios.GetAssets(ctx, p.ID)
	if err != nil {
		h.logger.Error("load portfolio assets", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, map[string]interface{}{
		"portfolio": p,
		"assets":    assets,
	})
}

func (h *PortfoliosHandler) Update(c echo.Context) error {
	req := &models.UpdatePortfolioRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	ctx := c.Request().Context()
	p, err := h.portfolios.Get(ctx, c.Param("id"))
	if err != nil {
		return xhttp.AppErrorResponse(c, xhttp.NotFoundErrorf("portfolio %s not found", c.Param("id")).WithError(err))
	}
	if req.Name != "" {
		p.Name = req.Name
	}
	if req.Strategy != "" {
		p.Strategy = req.Strategy
	}
	if err := h.portfolios.Update(ctx, p); err != nil {
		h.logger.Error("update portfolio", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, p)
}

func (h *PortfoliosHandler) Delete(c echo.Context) error {
	if err := h.portfolios.Delete(c.Request().Context(), c.Param("id")); err != nil {
		h.logger.Error("delete portfolio", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.NoContentResponse(c)
}

func (h *PortfoliosHandler) UpsertAsset(c echo.Context) error {
	req := &models.UpsertAssetRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	a := &models.PortfolioAsset{
		PortfolioID:    c.Param("id"),
		Symbol:         strings.ToUpper(req.Symbol),
		Shares:         req.Shares,
		CostBasis:      req.CostBasis,
		CurrentPrice:   req.CurrentPrice,
		ExpectedReturn: req.ExpectedReturn,
		Volatility:     req.Volatility,
	}
	if err := h.portfolios.UpsertAsset(c.Request().Context(), a); err != nil {
		h.logger.Error("upsert asset", xlogger.String("symbol", a.Symbol), xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, a)
}

func (h *PortfoliosHandler) RemoveAsset(c echo.Context) error {
	symbol := strings.ToUpper(c.Param("symbol"))
	if err := h.portfolios.RemoveAsset(c.Request().Context(), c.Param("id"), symbol); err != nil {
		h.logger.Error("remove asset", xlogger.String("symbol", symbol), xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.NoContentResponse(c)
}

func (h *PortfoliosHandler) Optimize(c echo.Context) error {
	req := &models.OptimizeRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	reb, err := h.rebalancer.Optimize(c.Request().Context(), c.Param("id"), req.Strategy, req.Reason)
	if err != nil {
		h.logger.Error("optimize portfolio",
			xlogger.String("portfolio_id", c.Param("id")),
			xlogger.String("strategy", req.Strategy),
			xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, reb)
}

func (h *PortfoliosHandler) Rebalances(c echo.Context) error {
	rows, err := h.portfolios.ListRebalances(c.Request().Context(), c.Param("id"), 50)
	if err != nil {
		h.logger.Error("list rebalances", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.ListResponse(c, rows, int64(len(rows)))
}

func (h *PortfoliosHandler) Frontier(c echo.Context) error {
	req := &models.FrontierRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	points, err := h.rebalancer.Frontier(c.Request().Context(), c.Param("id"), req.Points)
	if err != nil {
		h.logger.Error("efficient frontier", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, points)
}
