package analytics

import (
	"time"

	"CoinSentry/internal/domain/models"
)

// SnapshotFromSeries builds a normalized snapshot from a trailing price
// and volume series plus the ticker-level figures. Both adapters funnel
// their provider-specific payloads through this single derivation so no
// provider shape leaks past the adapter boundary. Returns nil for an
// empty price series.
func SnapshotFromSeries(provider models.Provider, symbol string, prices, volumes []float64, price, change24h, volume24h float64) *models.MarketSnapshot {
	high, low, ok := HighLow(prices)
	if !ok {
		return nil
	}

	return &models.MarketSnapshot{
		Provider:   provider,
		Symbol:     symbol,
		Price:      price,
		Change24h:  change24h,
		Volume24h:  volume24h,
		High7d:     high,
		Low7d:      low,
		AvgVolume:  Mean(volumes),
		Volatility: AnnualizedVolatility(prices),
		Support:    low * 1.02,
		Resistance: high * 0.98,
		FetchedAt:  time.Now().UTC(),
	}
}
