package models

import "time"

// Provider identifies which adapter produced a snapshot. Ordering matches
// the resolver's fallback order.
type Provider string

const (
	ProviderBinance   Provider = "binance"
	ProviderCoinGecko Provider = "coingecko"
)

// MarketSnapshot is the normalized result of one successful fetch for one
// symbol. Constructed fresh per fetch, never mutated, never persisted.
type MarketSnapshot struct {
	Provider   Provider  `json:"provider"`
	Symbol     string    `json:"symbol"`
	Price      float64   `json:"price"`
	Change24h  float64   `json:"change_24h"`
	Volume24h  float64   `json:"volume_24h"`
	High7d     float64   `json:"high_7d"`
	Low7d      float64   `json:"low_7d"`
	AvgVolume  float64   `json:"avg_volume"`
	Volatility float64   `json:"volatility"` // annualized, percent
	Support    float64   `json:"support"`    // low7d * 1.02
	Resistance float64   `json:"resistance"` // high7d * 0.98
	FetchedAt  time.Time `json:"fetched_at"`
}

// Candle represents one OHLCV bar.
type Candle struct {
	OpenTime time.Time `json:"open_time"`
	Open     float64   `json:"open"`
	High     float64   `json:"high"`
	Low      float64   `json:"low"`
	Close    float64   `json:"close"`
	Volume   float64   `json:"volume"` // quote-denominated
}

// Tick is a single live price observation from the stream.
type Tick struct {
	Symbol    string
	Price     float64
	Volume    float64
	Timestamp int64 // unix seconds
}
