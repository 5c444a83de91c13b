package api

import (
	"errors"

	"CoinSentry/internal/domain/models"
	"CoinSentry/internal/services/analytics"
	"CoinSentry/internal/usecase"
	xhttp "CoinSentry/pkg/http"
	xlogger "CoinSentry/pkg/logger"

	"github.com/labstack/echo/v4"
)

// advisoryRiskPct is the default account risk used for the advisory
// levels on the signal endpoint.
const advisoryRiskPct = 4.0

// MarketEchoHandler serves market data resolved through the provider chain.
type MarketEchoHandler struct {
	logger   *xlogger.Logger
	resolver *usecase.Resolver
}

func NewMarketEchoHandler(logger *xlogger.Logger, resolver *usecase.Resolver) *MarketEchoHandler {
	return &MarketEchoHandler{logger: logger, resolver: resolver}
}

func (h *MarketEchoHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	g.GET("/market/:symbol", h.Market)
	g.GET("/signal/:symbol", h.Signal)
}

// Market resolves one symbol through the fallback chain.
func (h *MarketEchoHandler) Market(c echo.Context) error {
	snap, err := h.resolve(c)
	if err != nil {
		return marketErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, snap)
}

// SignalView is the signal endpoint payload: the snapshot plus advisory
// entry levels for both directions at the current price.
type SignalView struct {
	Snapshot *models.MarketSnapshot `json:"snapshot"`
	Long     *models.Levels         `json:"long,omitempty"`
	Short    *models.Levels         `json:"short,omitempty"`
}

// Signal resolves a symbol and attaches advisory levels computed at the
// current price. A direction whose levels cannot be computed is omitted
// rather than failing the whole response.
func (h *MarketEchoHandler) Signal(c echo.Context) error {
	snap, err := h.resolve(c)
	if err != nil {
		return marketErrorResponse(c, err)
	}

	view := &SignalView{Snapshot: snap}
	if lv, err := analytics.OptimalLevels(snap.Price, models.DirectionLong, snap, advisoryRiskPct); err == nil {
		view.Long = lv
	}
	if lv, err := analytics.OptimalLevels(snap.Price, models.DirectionShort, snap, advisoryRiskPct); err == nil {
		view.Short = lv
	}
	return xhttp.SuccessResponse(c, view)
}

func (h *MarketEchoHandler) resolve(c echo.Context) (*models.MarketSnapshot, error) {
	symbol := c.Param("symbol")
	if symbol == "" {
		return nil, models.ErrUnsupportedSymbol
	}
	return h.resolver.Resolve(c.Request().Context(), symbol)
}

func marketErrorResponse(c echo.Context, err error) error {
	switch {
	case errors.Is(err, models.ErrUnsupportedSymbol):
		return xhttp.BadRequestResponse(c, err.Error())
	case errors.Is(err, models.ErrNoData):
		return xhttp.NotFoundResponse(c, err.Error())
	default:
		return xhttp.InternalServerErrorResponse(c)
	}
}
