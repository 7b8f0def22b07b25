package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"QuantPulse/internal/domain/models"
	domrepo "QuantPulse/internal/domain/repository"
	"QuantPulse/internal/hub"
	"QuantPulse/internal/services/ratelimit"
	"QuantPulse/internal/services/structure"
	"QuantPulse/internal/usecase"
	"QuantPulse/pkg/cache"
	xhttp "QuantPulse/pkg/http"
	xlogger "QuantPulse/pkg/logger"
)

const structureCacheTTL = 30 * time.Second

// SignalsHandler serves the signal feed, market-structure analysis,
// and the websocket upgrade endpoint.
type SignalsHandler struct {
	logger   *xlogger.Logger
	signals  domrepo.SignalStore
	bars     domrepo.BarStore
	analyzer *structure.Analyzer
	clock    *usecase.MarketClock
	hub      *hub.Hub
	cache    cache.Service
	rl       *ratelimit.Limiter
}

func NewSignalsHandler(logger *xlogger.Logger, signals domrepo.SignalStore, bars domrepo.BarStore, analyzer *structure.Analyzer, clock *usecase.MarketClock, h *hub.Hub, c cache.Service) *SignalsHandler {
	return &SignalsHandler{logger: logger, signals: signals, bars: bars, analyzer: analyzer, clock: clock, hub: h, cache: c, rl: ratelimit.New()}
}

func (h *SignalsHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	g.GET("/signals", h.List)
	g.GET("/structure", h.Structure)
	g.GET("/session", h.Session)
	e.GET("/ws", h.ServeWS)
}

func (h *SignalsHandler) List(c echo.Context) error {
	req := &models.SignalListRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	rows, err := h.signals.List(c.Request().Context(), strings.ToUpper(req.Symbol), req.ActiveOnly, req.Limit)
	if err != nil {
		h.logger.Error("list signals", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.ListResponse(c, rows, int64(len(rows)))
}

func (h *SignalsHandler) Structure(c echo.Context) error {
	if !h.rl.Allow("structure:"+c.RealIP(), 10, 5) {
		return xhttp.DataResponse(c, http.StatusTooManyRequests, map[string]string{"error": "rate limit exceeded"})
	}
	req := &models.StructureRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	tf := domrepo.NormalizeTimeframe(req.Timeframe)
	symbol := strings.ToUpper(req.Symbol)
	ctx := c.Request().Context()

	key := cache.GenerateKeyWithParams("structure", symbol, tf, req.Bars)
	if h.cache != nil {
		var cached models.StructureReport
		if err := h.cache.Get(ctx, key, &cached); err == nil {
			c.Response().Header().Set(echo.HeaderCacheControl, "private, max-age=30")
			return xhttp.SuccessResponse(c, cached)
		}
	}

	bars, err := h.bars.GetLatestNBars(ctx, symbol, req.Bars, tf)
	if err != nil {
		h.logger.Error("load bars for structure", xlogger.String("symbol", symbol), xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	report := h.analyzer.Analyze(symbol, string(tf), bars)
	if h.cache != nil {
		if err := h.cache.Set(ctx, key, report, structureCacheTTL); err != nil {
			h.logger.Warn("cache structure report", xlogger.String("symbol", symbol), xlogger.Error(err))
		}
	}
	c.Response().Header().Set(echo.HeaderCacheControl, "private, max-age=30")
	return xhttp.SuccessResponse(c, report)
}

func (h *SignalsHandler) Session(c echo.Context) error {
	now := time.Now()
	session := h.clock.SessionAt(now)
	return xhttp.SuccessResponse(c, map[string]interface{}{
		"session": session,
		"open":    session == usecase.SessionOpen,
		"time":    now.UTC(),
	})
}

// ServeWS hands the connection to the broadcast hub. The hub owns the
// socket after the upgrade.
func (h *SignalsHandler) ServeWS(c echo.Context) error {
	h.hub.ServeWS(c.Response(), c.Request())
	return nil
}
