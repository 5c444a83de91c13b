package api

import (
	"errors"
	"strings"

	"CoinSentry/internal/domain/models"
	drepo "CoinSentry/internal/domain/repository"
	"CoinSentry/internal/repository"
	"CoinSentry/internal/services/analytics"
	"CoinSentry/internal/usecase"
	xhttp "CoinSentry/pkg/http"
	xlogger "CoinSentry/pkg/logger"

	"github.com/labstack/echo/v4"
)

// CreatePositionRequest is the position creation payload. Stop and take
// profit are derived from weekly levels; deposit is optional and only
// drives sizing.
type CreatePositionRequest struct {
	OwnerID     string  `json:"owner_id" validate:"required"`
	Symbol      string  `json:"symbol" validate:"required"`
	Direction   string  `json:"direction" validate:"required,oneof=long short"`
	EntryPrice  float64 `json:"entry_price" validate:"required,gt=0"`
	Deposit     float64 `json:"deposit" validate:"gte=0"`
	RiskPercent float64 `json:"risk_percent" default:"4" validate:"gt=0,lte=100"`
}

// CreatePositionResponse echoes the stored position with the computed
// levels and, when a deposit was given, the sizing.
type CreatePositionResponse struct {
	Position *models.Position     `json:"position"`
	Levels   *models.Levels       `json:"levels"`
	Size     *models.PositionSize `json:"size,omitempty"`
}

// PnLView is the live P&L payload for one position.
type PnLView struct {
	PositionID string  `json:"position_id"`
	Symbol     string  `json:"symbol"`
	Price      float64 `json:"price"`
	PnL        float64 `json:"pnl"`
	PnLPercent float64 `json:"pnl_percent"`
}

// PositionsEchoHandler serves position CRUD and live P&L.
type PositionsEchoHandler struct {
	logger    *xlogger.Logger
	positions drepo.PositionStore
	resolver  *usecase.Resolver
}

func NewPositionsEchoHandler(logger *xlogger.Logger, positions drepo.PositionStore, resolver *usecase.Resolver) *PositionsEchoHandler {
	return &PositionsEchoHandler{logger: logger, positions: positions, resolver: resolver}
}

func (h *PositionsEchoHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	g.POST("/positions", h.Create)
	g.GET("/positions", h.List)
	g.POST("/positions/:id/close", h.Close)
	g.GET("/positions/:id/pnl", h.PnL)
}

// Create validates the request, computes levels from the current weekly
// range and stores the position.
func (h *PositionsEchoHandler) Create(c echo.Context) error {
	req := &CreatePositionRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	ctx := c.Request().Context()
	direction := models.Direction(strings.ToLower(req.Direction))

	snap, err := h.resolver.Resolve(ctx, req.Symbol)
	if err != nil {
		return marketErrorResponse(c, err)
	}

	levels, err := analytics.OptimalLevels(req.EntryPrice, direction, snap, req.RiskPercent)
	if err != nil {
		return xhttp.BadRequestResponse(c, err.Error())
	}

	var size *models.PositionSize
	if req.Deposit > 0 {
		size, err = analytics.PositionSize(req.Deposit, req.EntryPrice, levels.StopLoss, req.RiskPercent)
		if err != nil {
			return xhttp.BadRequestResponse(c, err.Error())
		}
	}

	pos := &models.Position{
		OwnerID:    req.OwnerID,
		Symbol:     strings.ToUpper(req.Symbol),
		Direction:  direction,
		EntryPrice: req.EntryPrice,
		StopLoss:   levels.StopLoss,
		TakeProfit: levels.TakeProfit,
		IsActive:   true,
	}
	if size != nil {
		pos.Quantity = size.Quantity
	}
	if err := h.positions.Save(ctx, pos); err != nil {
		h.logger.Error("position save failed", xlogger.Error(err))
		return xhttp.InternalServerErrorResponse(c)
	}

	return xhttp.CreatedResponse(c, &CreatePositionResponse{
		Position: pos,
		Levels:   levels,
		Size:     size,
	})
}

// List returns an owner's positions, oldest first.
func (h *PositionsEchoHandler) List(c echo.Context) error {
	owner := c.QueryParam("owner")
	if owner == "" {
		return xhttp.BadRequestResponse(c, "owner query parameter is required")
	}

	positions, err := h.positions.ListByOwner(c.Request().Context(), owner)
	if err != nil {
		h.logger.Error("position list failed", xlogger.Error(err))
		return xhttp.InternalServerErrorResponse(c)
	}
	return xhttp.ListResponse(c, positions, int64(len(positions)))
}

// Close marks a position inactive. Closing an already closed position
// succeeds.
func (h *PositionsEchoHandler) Close(c echo.Context) error {
	id := c.Param("id")
	if err := h.positions.Close(c.Request().Context(), id); err != nil {
		return positionErrorResponse(c, h.logger, err)
	}
	pos, err := h.positions.Get(c.Request().Context(), id)
	if err != nil {
		return positionErrorResponse(c, h.logger, err)
	}
	return xhttp.SuccessResponse(c, pos)
}

// PnL resolves the position's symbol and returns unrealized P&L at the
// current price.
func (h *PositionsEchoHandler) PnL(c echo.Context) error {
	ctx := c.Request().Context()

	pos, err := h.positions.Get(ctx, c.Param("id"))
	if err != nil {
		return positionErrorResponse(c, h.logger, err)
	}

	snap, err := h.resolver.Resolve(ctx, pos.Symbol)
	if err != nil {
		return marketErrorResponse(c, err)
	}

	pnl, pct := pos.PnL(snap.Price)
	return xhttp.SuccessResponse(c, &PnLView{
		PositionID: pos.ID,
		Symbol:     pos.Symbol,
		Price:      snap.Price,
		PnL:        pnl,
		PnLPercent: pct,
	})
}

func positionErrorResponse(c echo.Context, log *xlogger.Logger, err error) error {
	if errors.Is(err, repository.ErrPositionNotFound) {
		return xhttp.NotFoundResponse(c, err.Error())
	}
	log.Error("position store error", xlogger.Error(err))
	return xhttp.InternalServerErrorResponse(c)
}
