package usecase

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"CoinSentry/internal/domain/models"
	drepo "CoinSentry/internal/domain/repository"
	scache "CoinSentry/internal/service/cache"
	xlogger "CoinSentry/pkg/logger"
)

// Resolver tries an ordered list of market sources and returns the
// first snapshot. Sources are never raced; each gets at most one
// attempt per resolution.
type Resolver struct {
	sources []drepo.MarketSource
	cache   *scache.SnapshotCache
	metrics drepo.Metrics
	log     *xlogger.Logger
}

// NewResolver creates a resolver over sources in priority order.
// cache may be nil.
func NewResolver(sources []drepo.MarketSource, cache *scache.SnapshotCache, metrics drepo.Metrics, log *xlogger.Logger) *Resolver {
	return &Resolver{sources: sources, cache: cache, metrics: metrics, log: log}
}

// Supports reports whether any source knows the symbol. No network I/O.
func (r *Resolver) Supports(symbol string) bool {
	symbol = strings.ToUpper(symbol)
	for _, src := range r.sources {
		if src.Supports(symbol) {
			return true
		}
	}
	return false
}

// Symbols returns the union of all source symbol tables, sorted.
func (r *Resolver) Symbols() []string {
	seen := make(map[string]struct{})
	for _, src := range r.sources {
		if lister, ok := src.(interface{ Symbols() []string }); ok {
			for _, s := range lister.Symbols() {
				seen[s] = struct{}{}
			}
		}
	}
	out := make([]string, 0, len(seen))
	for s := range seen {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

// Resolve returns a normalized snapshot for symbol.
//
// Unknown symbols fail fast with ErrUnsupportedSymbol before any
// network call. When every source fails, the result is ErrNoData,
// which callers must treat as an expected outcome rather than a
// fault. Provider failures are absorbed here and only logged.
func (r *Resolver) Resolve(ctx context.Context, symbol string) (*models.MarketSnapshot, error) {
	symbol = strings.ToUpper(symbol)
	if !r.Supports(symbol) {
		return nil, models.ErrUnsupportedSymbol
	}

	if r.cache != nil {
		if snap := r.cache.Get(ctx, symbol); snap != nil {
			return snap, nil
		}
	}

	attempted := 0
	for _, src := range r.sources {
		if !src.Supports(symbol) {
			continue
		}

		start := time.Now()
		snap, err := src.Fetch(ctx, symbol)
		r.metrics.RecordLatency("provider_fetch", time.Since(start).Seconds())
		if err != nil {
			attempted++
			r.metrics.RecordProviderRequest(string(src.Name()), classify(err))
			r.logProviderFailure(src.Name(), symbol, err)
			continue
		}

		r.metrics.RecordProviderRequest(string(src.Name()), "ok")
		if attempted > 0 {
			r.metrics.RecordFallback(symbol)
		}
		r.metrics.RecordLastPrice(symbol, snap.Price)
		if r.cache != nil {
			r.cache.Set(ctx, snap)
		}
		return snap, nil
	}

	return nil, models.ErrNoData
}

func classify(err error) string {
	var aerr *models.AdapterError
	if errors.As(err, &aerr) {
		return string(aerr.Kind)
	}
	return string(models.AdapterTransient)
}

func (r *Resolver) logProviderFailure(provider models.Provider, symbol string, err error) {
	var aerr *models.AdapterError
	if errors.As(err, &aerr) && aerr.Kind == models.AdapterGeoBlocked {
		// geo-blocking is routine for some providers; keep it quiet
		r.log.Debug("provider geo-blocked",
			xlogger.String("provider", string(provider)),
			xlogger.String("symbol", symbol))
		return
	}
	r.log.Warn("provider fetch failed",
		xlogger.String("provider", string(provider)),
		xlogger.String("symbol", symbol),
		xlogger.String("class", classify(err)),
		xlogger.Error(err))
}
