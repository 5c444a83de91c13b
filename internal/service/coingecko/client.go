package coingecko

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"CoinSentry/internal/domain/models"
	drepo "CoinSentry/internal/domain/repository"
	"CoinSentry/internal/service/ratelimit"
	"CoinSentry/internal/services/analytics"
	xhttp "CoinSentry/pkg/http"
	xlogger "CoinSentry/pkg/logger"
)

// coinIDs maps tracker symbols to CoinGecko coin identifiers. This is a
// separate namespace from Binance pairs.
var coinIDs = map[string]string{
	"BTC": "bitcoin", "ETH": "ethereum", "SOL": "solana", "ADA": "cardano",
	"DOT": "polkadot", "MATIC": "matic-network", "LINK": "chainlink",
	"UNI": "uniswap", "AVAX": "avalanche-2", "ATOM": "cosmos",
	"XRP": "ripple", "DOGE": "dogecoin", "LTC": "litecoin",
	"BCH": "bitcoin-cash",
}

const apiKeyHeader = "x-cg-demo-api-key"

// Client implements the fallback MarketSource backed by CoinGecko. The
// simple-price endpoint does not serve trailing series, so the 7-day
// range metrics are derived from the market-chart series.
type Client struct {
	baseURL string
	apiKey  string
	http    *xhttp.Client
	limiter *ratelimit.Limiter
	logger  *xlogger.Logger
}

// Option configures Client.
type Option func(*Client)

// WithAPIKey injects the optional demo API key header on every request.
func WithAPIKey(key string) Option {
	return func(c *Client) { c.apiKey = key }
}

// WithLimiter attaches a per-provider rate limiter.
func WithLimiter(l *ratelimit.Limiter) Option {
	return func(c *Client) { c.limiter = l }
}

// New creates a CoinGecko market source.
func New(baseURL string, timeout time.Duration, logger *xlogger.Logger, opts ...Option) *Client {
	c := &Client{
		baseURL: baseURL,
		http:    xhttp.NewClient(xhttp.WithTimeout(timeout)),
		logger:  logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Name reports the provider tag.
func (c *Client) Name() models.Provider { return models.ProviderCoinGecko }

// Supports reports whether the symbol has a coin id mapping. No network
// I/O.
func (c *Client) Supports(symbol string) bool {
	_, ok := coinIDs[symbol]
	return ok
}

// Symbols returns all symbols this adapter can serve.
func Symbols() []string {
	out := make([]string, 0, len(coinIDs))
	for s := range coinIDs {
		out = append(out, s)
	}
	return out
}

type simplePrice struct {
	USD          float64 `json:"usd"`
	USD24hChange float64 `json:"usd_24h_change"`
	USD24hVol    float64 `json:"usd_24h_vol"`
}

type marketChart struct {
	Prices       [][2]float64 `json:"prices"`
	TotalVolumes [][2]float64 `json:"total_volumes"`
}

// Fetch issues the simple-price lookup and the 7-day market chart
// concurrently and normalizes them into a snapshot.
func (c *Client) Fetch(ctx context.Context, symbol string) (*models.MarketSnapshot, error) {
	coinID, ok := coinIDs[symbol]
	if !ok {
		return nil, &models.AdapterError{
			Provider: models.ProviderCoinGecko,
			Kind:     models.AdapterUnsupported,
			Err:      models.ErrUnsupportedSymbol,
		}
	}
	if c.limiter != nil && !c.limiter.Allow(string(models.ProviderCoinGecko)) {
		return nil, &models.AdapterError{
			Provider: models.ProviderCoinGecko,
			Kind:     models.AdapterRateLimited,
			Err:      fmt.Errorf("local rate limit exceeded"),
		}
	}

	type priceResult struct {
		p   map[string]simplePrice
		err error
	}
	type chartResult struct {
		ch  *marketChart
		err error
	}

	priceCh := make(chan priceResult, 1)
	chartCh := make(chan chartResult, 1)

	go func() {
		var p map[string]simplePrice
		err := c.getJSON(ctx, c.baseURL+"/simple/price", map[string][]string{
			"ids":                 {coinID},
			"vs_currencies":       {"usd"},
			"include_24hr_change": {"true"},
			"include_24hr_vol":    {"true"},
		}, &p)
		priceCh <- priceResult{p: p, err: err}
	}()
	go func() {
		var ch marketChart
		err := c.getJSON(ctx, c.baseURL+"/coins/"+coinID+"/market_chart", map[string][]string{
			"vs_currency": {"usd"},
			"days":        {"7"},
		}, &ch)
		chartCh <- chartResult{ch: &ch, err: err}
	}()

	pr := <-priceCh
	cr := <-chartCh
	if pr.err != nil {
		return nil, pr.err
	}
	if cr.err != nil {
		return nil, cr.err
	}

	pd, ok := pr.p[coinID]
	if !ok || pd.USD <= 0 {
		return nil, models.NewAdapterError(models.ProviderCoinGecko, 0, fmt.Errorf("no price data for %s", coinID))
	}

	prices := make([]float64, 0, len(cr.ch.Prices))
	for _, point := range cr.ch.Prices {
		prices = append(prices, point[1])
	}
	volumes := make([]float64, 0, len(cr.ch.TotalVolumes))
	for _, point := range cr.ch.TotalVolumes {
		volumes = append(volumes, point[1])
	}

	snap := analytics.SnapshotFromSeries(models.ProviderCoinGecko, symbol, prices, volumes, pd.USD, pd.USD24hChange, pd.USD24hVol)
	if snap == nil {
		return nil, models.NewAdapterError(models.ProviderCoinGecko, 0, fmt.Errorf("empty market chart for %s", coinID))
	}
	return snap, nil
}

func (c *Client) getJSON(ctx context.Context, url string, params map[string][]string, dest interface{}) error {
	headers := map[string]string{}
	if c.apiKey != "" {
		headers[apiKeyHeader] = c.apiKey
	}

	resp, err := c.http.SendRequest(ctx, &xhttp.RequestOptions{
		Method:      xhttp.MethodGet,
		URL:         url,
		Headers:     headers,
		QueryParams: params,
	})
	if err != nil {
		return models.NewAdapterError(models.ProviderCoinGecko, 0, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return models.NewAdapterError(models.ProviderCoinGecko, resp.StatusCode,
			fmt.Errorf("unexpected status %d: %s", resp.StatusCode, body))
	}
	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return models.NewAdapterError(models.ProviderCoinGecko, 0, fmt.Errorf("decode response: %w", err))
	}
	return nil
}

var _ drepo.MarketSource = (*Client)(nil)
