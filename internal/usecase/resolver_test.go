package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"CoinSentry/internal/domain/models"
	drepo "CoinSentry/internal/domain/repository"
	xlogger "CoinSentry/pkg/logger"
)

type fakeSource struct {
	name    models.Provider
	symbols map[string]bool
	snap    *models.MarketSnapshot
	err     error
	calls   int
}

func (f *fakeSource) Name() models.Provider { return f.name }

func (f *fakeSource) Supports(symbol string) bool { return f.symbols[symbol] }

func (f *fakeSource) Fetch(_ context.Context, symbol string) (*models.MarketSnapshot, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.snap, nil
}

type nopMetrics struct{}

func (nopMetrics) RecordProviderRequest(string, string) {}
func (nopMetrics) RecordFallback(string)                {}
func (nopMetrics) RecordLastPrice(string, float64)      {}
func (nopMetrics) RecordSignal(string)                  {}
func (nopMetrics) RecordError(string)                   {}
func (nopMetrics) RecordLatency(string, float64)        {}

func testLogger(t *testing.T) *xlogger.Logger {
	t.Helper()
	log, err := xlogger.New(&xlogger.Config{Level: "error", Format: "json", Output: "stderr"})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return log
}

func snapFor(p models.Provider, symbol string, price float64) *models.MarketSnapshot {
	return &models.MarketSnapshot{
		Provider:  p,
		Symbol:    symbol,
		Price:     price,
		High7d:    price * 1.1,
		Low7d:     price * 0.9,
		FetchedAt: time.Now(),
	}
}

func newTestResolver(t *testing.T, sources ...drepo.MarketSource) *Resolver {
	t.Helper()
	return NewResolver(sources, nil, nopMetrics{}, testLogger(t))
}

func TestResolveUnknownSymbolSkipsNetwork(t *testing.T) {
	primary := &fakeSource{name: models.ProviderBinance, symbols: map[string]bool{"BTC": true}}
	fallback := &fakeSource{name: models.ProviderCoinGecko, symbols: map[string]bool{"BTC": true}}
	r := newTestResolver(t, primary, fallback)

	_, err := r.Resolve(context.Background(), "SHIB")
	if !errors.Is(err, models.ErrUnsupportedSymbol) {
		t.Fatalf("got %v, want ErrUnsupportedSymbol", err)
	}
	if primary.calls != 0 || fallback.calls != 0 {
		t.Fatalf("adapters were called %d/%d times, want 0/0", primary.calls, fallback.calls)
	}
}

func TestResolvePrimaryWins(t *testing.T) {
	primary := &fakeSource{
		name:    models.ProviderBinance,
		symbols: map[string]bool{"BTC": true},
		snap:    snapFor(models.ProviderBinance, "BTC", 50000),
	}
	fallback := &fakeSource{
		name:    models.ProviderCoinGecko,
		symbols: map[string]bool{"BTC": true},
		snap:    snapFor(models.ProviderCoinGecko, "BTC", 50001),
	}
	r := newTestResolver(t, primary, fallback)

	snap, err := r.Resolve(context.Background(), "BTC")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if snap.Provider != models.ProviderBinance {
		t.Fatalf("got provider %s, want binance", snap.Provider)
	}
	if fallback.calls != 0 {
		t.Fatalf("fallback called %d times, want 0", fallback.calls)
	}
}

func TestResolveFallsBackOnPrimaryFailure(t *testing.T) {
	primary := &fakeSource{
		name:    models.ProviderBinance,
		symbols: map[string]bool{"BTC": true},
		err:     models.NewAdapterError(models.ProviderBinance, 451, errors.New("blocked")),
	}
	fallback := &fakeSource{
		name:    models.ProviderCoinGecko,
		symbols: map[string]bool{"BTC": true},
		snap:    snapFor(models.ProviderCoinGecko, "BTC", 50001),
	}
	r := newTestResolver(t, primary, fallback)

	snap, err := r.Resolve(context.Background(), "BTC")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if snap.Provider != models.ProviderCoinGecko {
		t.Fatalf("got provider %s, want coingecko fallback", snap.Provider)
	}
	if primary.calls != 1 || fallback.calls != 1 {
		t.Fatalf("got %d/%d calls, want exactly one attempt each", primary.calls, fallback.calls)
	}
}

func TestResolveAllSourcesFail(t *testing.T) {
	primary := &fakeSource{
		name:    models.ProviderBinance,
		symbols: map[string]bool{"BTC": true},
		err:     models.NewAdapterError(models.ProviderBinance, 429, errors.New("limited")),
	}
	fallback := &fakeSource{
		name:    models.ProviderCoinGecko,
		symbols: map[string]bool{"BTC": true},
		err:     models.NewAdapterError(models.ProviderCoinGecko, 500, errors.New("boom")),
	}
	r := newTestResolver(t, primary, fallback)

	_, err := r.Resolve(context.Background(), "BTC")
	if !errors.Is(err, models.ErrNoData) {
		t.Fatalf("got %v, want ErrNoData", err)
	}
	if primary.calls != 1 || fallback.calls != 1 {
		t.Fatalf("got %d/%d calls, want bounded single attempts", primary.calls, fallback.calls)
	}
}

func TestResolveLowercaseSymbol(t *testing.T) {
	primary := &fakeSource{
		name:    models.ProviderBinance,
		symbols: map[string]bool{"BTC": true},
		snap:    snapFor(models.ProviderBinance, "BTC", 50000),
	}
	r := newTestResolver(t, primary)

	if _, err := r.Resolve(context.Background(), "btc"); err != nil {
		t.Fatalf("resolve lowercase: %v", err)
	}
}
