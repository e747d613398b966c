package api

import (
	"errors"

	"github.com/labstack/echo/v4"

	"FairVal/internal/domain/models"
	drepo "FairVal/internal/domain/repository"
	"FairVal/internal/usecase"
	phttp "FairVal/pkg/http"
	"FairVal/pkg/logger"
)

// DashboardHandler exposes the dashboard REST API: valuation lookups, price
// charts, and the recent-search history.
type DashboardHandler struct {
	lookup *usecase.LookupUseCase
	log    *logger.Logger
}

func NewDashboardHandler(lookup *usecase.LookupUseCase, log *logger.Logger) *DashboardHandler {
	return &DashboardHandler{lookup: lookup, log: log}
}

func (h *DashboardHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	g.GET("/valuation", h.Valuation)
	g.GET("/chart", h.Chart)
	g.GET("/history", h.History)
	e.GET("/healthz", h.Health)
}

// Valuation handles GET /api/valuation?symbol=AAPL&weight=0.7&history_growth=0.1.
func (h *DashboardHandler) Valuation(c echo.Context) error {
	req := new(models.ValuationRequest)
	if errs := phttp.ReadAndValidateRequest(c, req); errs != nil {
		return phttp.BadRequestResponse(c, errs)
	}

	res, err := h.lookup.Valuate(c.Request().Context(), req)
	if err != nil {
		return h.lookupError(c, req.Symbol, err)
	}
	return phttp.SuccessResponse(c, res)
}

// Chart handles GET /api/chart?symbol=AAPL&range=5y.
func (h *DashboardHandler) Chart(c echo.Context) error {
	req := new(models.ChartRequest)
	if errs := phttp.ReadAndValidateRequest(c, req); errs != nil {
		return phttp.BadRequestResponse(c, errs)
	}

	hist, err := h.lookup.Chart(c.Request().Context(), req)
	if err != nil {
		return h.lookupError(c, req.Symbol, err)
	}
	return phttp.SuccessResponse(c, hist)
}

// History handles GET /api/history.
func (h *DashboardHandler) History(c echo.Context) error {
	entries := h.lookup.History()
	if entries == nil {
		entries = []models.HistoryEntry{}
	}
	return phttp.SuccessResponse(c, entries)
}

// Health handles GET /healthz.
func (h *DashboardHandler) Health(c echo.Context) error {
	return phttp.SuccessResponse(c, h.lookup.Health(c.Request().Context()))
}

// lookupError maps provider failures onto the API error envelope: unknown
// tickers are the caller's problem, everything upstream is a 502.
func (h *DashboardHandler) lookupError(c echo.Context, symbol string, err error) error {
	switch {
	case errors.Is(err, drepo.ErrSymbolNotFound):
		return phttp.AppErrorResponse(c, phttp.NotFoundErrorf("symbol %q not found", symbol).WithError(err))
	case errors.Is(err, drepo.ErrRateLimited):
		h.log.Warn("lookup rate limited", logger.String("symbol", symbol))
		return phttp.AppErrorResponse(c, phttp.UpstreamError("provider quota exhausted, retry shortly").WithError(err))
	default:
		h.log.Error("lookup failed", logger.String("symbol", symbol), logger.Error(err))
		return phttp.AppErrorResponse(c, phttp.UpstreamError("market data unavailable").WithError(err))
	}
}
