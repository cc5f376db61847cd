package api

import (
	"net/http"
	"time"

	models "github.com/123jlee/market-workflow-app/internal/domain/models"
	domrepo "github.com/123jlee/market-workflow-app/internal/domain/repository"
	"github.com/123jlee/market-workflow-app/internal/usecase"
	xhttp "github.com/123jlee/market-workflow-app/pkg/http"
	xlogger "github.com/123jlee/market-workflow-app/pkg/logger"

	"github.com/labstack/echo/v4"
)

// ScannerEchoHandler exposes the context snapshot, signal scan, and kline
// endpoints over Echo.
type ScannerEchoHandler struct {
	logger   *xlogger.Logger
	snapshot *usecase.SnapshotUseCase
	scan     *usecase.ScanUseCase
	market   domrepo.MarketData
	history  domrepo.SignalHistory
}

func NewScannerEchoHandler(
	logger *xlogger.Logger,
	snapshot *usecase.SnapshotUseCase,
	scan *usecase.ScanUseCase,
	market domrepo.MarketData,
	history domrepo.SignalHistory,
) *ScannerEchoHandler {
	return &ScannerEchoHandler{
		logger:   logger,
		snapshot: snapshot,
		scan:     scan,
		market:   market,
		history:  history,
	}
}

func (h *ScannerEchoHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	g.GET("/context", h.Context)
	g.GET("/context/:symbol", h.ContextRow)
	g.GET("/signals/scan", h.Scan)
	g.GET("/signals/history", h.History)
	g.GET("/klines", h.Klines)
	g.GET("/debug/logs", h.DebugLogs)
	e.GET("/health", h.Health)
}

func (h *ScannerEchoHandler) Context(c echo.Context) error {
	req := &models.ContextRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	rows, err := h.snapshot.Snapshot(c.Request().Context(), req.Refresh)
	if err != nil {
		h.logger.Error("context usecase error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}

	filtered := make([]models.ContextRow, 0, len(rows))
	for _, r := range rows {
		if req.Band != "" && r.Band != models.Band(req.Band) {
			continue
		}
		if req.Regime != "" && r.Regime != models.Regime(req.Regime) {
			continue
		}
		if req.Bias != "" && r.Bias != models.Bias(req.Bias) {
			continue
		}
		filtered = append(filtered, r)
	}

	c.Response().Header().Set(echo.HeaderCacheControl, "private, max-age=15")
	return xhttp.ListResponse(c, filtered, int64(len(filtered)))
}

func (h *ScannerEchoHandler) ContextRow(c echo.Context) error {
	symbol := c.Param("symbol")
	if symbol == "" {
		return xhttp.BadRequestResponse(c, "symbol required")
	}

	row, err := h.snapshot.Row(c.Request().Context(), symbol)
	if err != nil {
		h.logger.Error("context row usecase error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	if row == nil {
		return xhttp.AppErrorResponse(c, xhttp.NotFoundErrorf("no context for %s", symbol))
	}
	return xhttp.SuccessResponse(c, row)
}

func (h *ScannerEchoHandler) Scan(c echo.Context) error {
	req := &models.ScanRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	res, err := h.scan.Scan(c.Request().Context(), req.Interval, req.Limit)
	if err != nil {
		h.logger.Error("scan usecase error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, res)
}

func (h *ScannerEchoHandler) History(c echo.Context) error {
	if h.history == nil {
		return xhttp.AppErrorResponse(c, xhttp.NotFoundError("signal history disabled"))
	}

	symbol := c.QueryParam("symbol")
	limit := xhttp.ParseIntDefault(c.QueryParam("limit"), 100)
	since := xhttp.ParseTimeDefault(c.QueryParam("since"), time.Now().UTC().Add(-24*time.Hour))

	signals, err := h.history.Recent(c.Request().Context(), symbol, since, limit)
	if err != nil {
		h.logger.Error("history usecase error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.ListResponse(c, signals, int64(len(signals)))
}

func (h *ScannerEchoHandler) Klines(c echo.Context) error {
	req := &models.KlinesRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	candles, err := h.market.Klines(c.Request().Context(), req.Symbol, req.Interval, req.Limit)
	if err != nil {
		h.logger.Error("klines fetch error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.ListResponse(c, candles, int64(len(candles)))
}

func (h *ScannerEchoHandler) DebugLogs(c echo.Context) error {
	collector := h.logger.Collector()
	if collector == nil {
		return xhttp.SuccessResponse(c, []struct{}{})
	}
	return xhttp.SuccessResponse(c, collector.Snapshot())
}

func (h *ScannerEchoHandler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}
