package binance

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"time"

	"CoinSentry/internal/domain/models"
	drepo "CoinSentry/internal/domain/repository"
	"CoinSentry/internal/service/ratelimit"
	"CoinSentry/internal/services/analytics"
	xhttp "CoinSentry/pkg/http"
	xlogger "CoinSentry/pkg/logger"
)

// pairs maps tracker symbols to Binance USDT trading pairs.
var pairs = map[string]string{
	"BTC": "BTCUSDT", "ETH": "ETHUSDT", "SOL": "SOLUSDT", "ADA": "ADAUSDT",
	"DOT": "DOTUSDT", "MATIC": "MATICUSDT", "LINK": "LINKUSDT", "UNI": "UNIUSDT",
	"AVAX": "AVAXUSDT", "ATOM": "ATOMUSDT", "XRP": "XRPUSDT", "DOGE": "DOGEUSDT",
	"LTC": "LTCUSDT", "BCH": "BCHUSDT",
}

// Client implements the primary MarketSource backed by Binance REST.
// It tries hosts in order and uses the first one where both the 24h
// ticker and the kline series succeed.
type Client struct {
	hosts      []string
	klineLimit int
	http       *xhttp.Client
	limiter    *ratelimit.Limiter
	logger     *xlogger.Logger
}

// Option configures Client.
type Option func(*Client)

// WithLimiter attaches a per-provider rate limiter.
func WithLimiter(l *ratelimit.Limiter) Option {
	return func(c *Client) { c.limiter = l }
}

// WithKlineLimit overrides the trailing kline count (default 168, one
// hourly bar per hour of a 7-day window).
func WithKlineLimit(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.klineLimit = n
		}
	}
}

// New creates a Binance market source.
func New(hosts []string, timeout time.Duration, logger *xlogger.Logger, opts ...Option) *Client {
	c := &Client{
		hosts:      hosts,
		klineLimit: 168,
		http:       xhttp.NewClient(xhttp.WithTimeout(timeout)),
		logger:     logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Name reports the provider tag.
func (c *Client) Name() models.Provider { return models.ProviderBinance }

// Supports reports whether the symbol has a trading pair mapping. No
// network I/O.
func (c *Client) Supports(symbol string) bool {
	_, ok := pairs[symbol]
	return ok
}

// Pair returns the exchange trading pair for an asset symbol.
func Pair(symbol string) (string, bool) {
	p, ok := pairs[symbol]
	return p, ok
}

// Symbols returns all symbols this adapter can serve.
func Symbols() []string {
	out := make([]string, 0, len(pairs))
	for s := range pairs {
		out = append(out, s)
	}
	return out
}

type ticker24h struct {
	LastPrice          string `json:"lastPrice"`
	PriceChangePercent string `json:"priceChangePercent"`
	QuoteVolume        string `json:"quoteVolume"`
}

// Fetch issues the 24h ticker and the hourly kline series concurrently
// against each host in order, and normalizes the first complete pair of
// responses into a snapshot.
func (c *Client) Fetch(ctx context.Context, symbol string) (*models.MarketSnapshot, error) {
	pair, ok := pairs[symbol]
	if !ok {
		return nil, &models.AdapterError{
			Provider: models.ProviderBinance,
			Kind:     models.AdapterUnsupported,
			Err:      models.ErrUnsupportedSymbol,
		}
	}
	if c.limiter != nil && !c.limiter.Allow(string(models.ProviderBinance)) {
		return nil, &models.AdapterError{
			Provider: models.ProviderBinance,
			Kind:     models.AdapterRateLimited,
			Err:      fmt.Errorf("local rate limit exceeded"),
		}
	}

	var lastErr error
	for _, host := range c.hosts {
		snap, err := c.fetchFromHost(ctx, host, symbol, pair)
		if err == nil {
			return snap, nil
		}
		lastErr = err
		c.logger.Warn("binance host failed",
			xlogger.String("host", host),
			xlogger.String("symbol", symbol),
			xlogger.Error(err))
		if ctx.Err() != nil {
			break
		}
	}
	return nil, lastErr
}

func (c *Client) fetchFromHost(ctx context.Context, host, symbol, pair string) (*models.MarketSnapshot, error) {
	type tickerResult struct {
		t   *ticker24h
		err error
	}
	type klinesResult struct {
		k   [][]interface{}
		err error
	}

	tickerCh := make(chan tickerResult, 1)
	klinesCh := make(chan klinesResult, 1)

	go func() {
		var t ticker24h
		err := c.getJSON(ctx, host+"/api/v3/ticker/24hr", map[string][]string{"symbol": {pair}}, &t)
		tickerCh <- tickerResult{t: &t, err: err}
	}()
	go func() {
		var k [][]interface{}
		err := c.getJSON(ctx, host+"/api/v3/klines", map[string][]string{
			"symbol":   {pair},
			"interval": {"1h"},
			"limit":    {strconv.Itoa(c.klineLimit)},
		}, &k)
		klinesCh <- klinesResult{k: k, err: err}
	}()

	tr := <-tickerCh
	kr := <-klinesCh
	if tr.err != nil {
		return nil, tr.err
	}
	if kr.err != nil {
		return nil, kr.err
	}

	prices := make([]float64, 0, len(kr.k))
	volumes := make([]float64, 0, len(kr.k))
	for _, row := range kr.k {
		// kline row: [openTime, open, high, low, close, volume,
		// closeTime, quoteVolume, ...]
		if len(row) < 8 {
			continue
		}
		closePx, ok1 := asFloat(row[4])
		quoteVol, ok2 := asFloat(row[7])
		if !ok1 || !ok2 {
			continue
		}
		prices = append(prices, closePx)
		volumes = append(volumes, quoteVol)
	}

	price, err := strconv.ParseFloat(tr.t.LastPrice, 64)
	if err != nil {
		return nil, models.NewAdapterError(models.ProviderBinance, 0, fmt.Errorf("parse lastPrice: %w", err))
	}
	change, err := strconv.ParseFloat(tr.t.PriceChangePercent, 64)
	if err != nil {
		return nil, models.NewAdapterError(models.ProviderBinance, 0, fmt.Errorf("parse priceChangePercent: %w", err))
	}
	volume24h, err := strconv.ParseFloat(tr.t.QuoteVolume, 64)
	if err != nil {
		return nil, models.NewAdapterError(models.ProviderBinance, 0, fmt.Errorf("parse quoteVolume: %w", err))
	}

	snap := analytics.SnapshotFromSeries(models.ProviderBinance, symbol, prices, volumes, price, change, volume24h)
	if snap == nil {
		return nil, models.NewAdapterError(models.ProviderBinance, 0, fmt.Errorf("empty kline series for %s", pair))
	}
	return snap, nil
}

// Klines returns OHLCV bars for the signal engine's auxiliary series.
// The volume field carries the quote-denominated volume.
func (c *Client) Klines(ctx context.Context, symbol, interval string, limit int) ([]models.Candle, error) {
	pair, ok := pairs[symbol]
	if !ok {
		return nil, &models.AdapterError{
			Provider: models.ProviderBinance,
			Kind:     models.AdapterUnsupported,
			Err:      models.ErrUnsupportedSymbol,
		}
	}

	var lastErr error
	for _, host := range c.hosts {
		var rows [][]interface{}
		err := c.getJSON(ctx, host+"/api/v3/klines", map[string][]string{
			"symbol":   {pair},
			"interval": {interval},
			"limit":    {strconv.Itoa(limit)},
		}, &rows)
		if err != nil {
			lastErr = err
			if ctx.Err() != nil {
				break
			}
			continue
		}

		bars := make([]models.Candle, 0, len(rows))
		for _, row := range rows {
			if len(row) < 8 {
				continue
			}
			openTime, _ := asFloat(row[0])
			open, _ := asFloat(row[1])
			high, _ := asFloat(row[2])
			low, _ := asFloat(row[3])
			closePx, _ := asFloat(row[4])
			quoteVol, _ := asFloat(row[7])
			bars = append(bars, models.Candle{
				OpenTime: time.UnixMilli(int64(openTime)),
				Open:     open,
				High:     high,
				Low:      low,
				Close:    closePx,
				Volume:   quoteVol,
			})
		}
		return bars, nil
	}
	return nil, lastErr
}

// asFloat converts a kline cell to float64; Binance mixes JSON numbers
// (timestamps) and numeric strings (prices, volumes) in one row.
func asFloat(v interface{}) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case string:
		f, err := strconv.ParseFloat(x, 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

func (c *Client) getJSON(ctx context.Context, url string, params map[string][]string, dest interface{}) error {
	resp, err := c.http.SendRequest(ctx, &xhttp.RequestOptions{
		Method:      xhttp.MethodGet,
		URL:         url,
		QueryParams: params,
	})
	if err != nil {
		return models.NewAdapterError(models.ProviderBinance, 0, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return models.NewAdapterError(models.ProviderBinance, resp.StatusCode,
			fmt.Errorf("unexpected status %d: %s", resp.StatusCode, body))
	}
	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return models.NewAdapterError(models.ProviderBinance, 0, fmt.Errorf("decode response: %w", err))
	}
	return nil
}

var _ drepo.MarketSource = (*Client)(nil)
var _ drepo.CandleSource = (*Client)(nil)
