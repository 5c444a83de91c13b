package api

import (
	"crypto/subtle"
	"net/http"

	"CoinSentry/internal/usecase"
	xhttp "CoinSentry/pkg/http"
	xlogger "CoinSentry/pkg/logger"

	"github.com/labstack/echo/v4"
)

// tickSecretHeader carries the shared secret for the external sweep
// trigger.
const tickSecretHeader = "X-Tick-Secret"

// OpsEchoHandler serves the health probe and the externally triggered
// sweep used when the internal monitor loop is disabled.
type OpsEchoHandler struct {
	logger     *xlogger.Logger
	sweeper    *usecase.Sweeper
	tickSecret string
}

func NewOpsEchoHandler(logger *xlogger.Logger, sweeper *usecase.Sweeper, tickSecret string) *OpsEchoHandler {
	return &OpsEchoHandler{logger: logger, sweeper: sweeper, tickSecret: tickSecret}
}

func (h *OpsEchoHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/health", h.Health)
	e.POST("/tick", h.Tick)
}

func (h *OpsEchoHandler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// Tick runs one sweep on demand. The endpoint stays closed unless a
// shared secret is configured, and sweeps are idempotent so an external
// scheduler may retry freely.
func (h *OpsEchoHandler) Tick(c echo.Context) error {
	if h.tickSecret == "" {
		return xhttp.ForbiddenResponse(c, "tick endpoint disabled")
	}
	given := c.Request().Header.Get(tickSecretHeader)
	if subtle.ConstantTimeCompare([]byte(given), []byte(h.tickSecret)) != 1 {
		return xhttp.UnauthorizedResponse(c, "invalid tick secret")
	}

	events, err := h.sweeper.SweepAndNotify(c.Request().Context())
	if err != nil {
		h.logger.Error("manual sweep failed", xlogger.Error(err))
		return xhttp.InternalServerErrorResponse(c)
	}
	return xhttp.SuccessResponse(c, map[string]int{"events": len(events)})
}
