package api

import (
	xhttp "CoinSentry/pkg/http"

	"github.com/labstack/echo/v4"
)

// Router bundles the API handlers behind the single registration point
// the HTTP server expects.
type Router struct {
	handlers []xhttp.Handler
}

func NewRouter(market *MarketEchoHandler, positions *PositionsEchoHandler, ops *OpsEchoHandler) *Router {
	return &Router{handlers: []xhttp.Handler{market, positions, ops}}
}

func (r *Router) RegisterRoutes(e *echo.Echo) {
	for _, h := range r.handlers {
		h.RegisterRoutes(e)
	}
}

var _ xhttp.Handler = (*Router)(nil)
