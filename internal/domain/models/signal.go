package models

import "time"

// SignalKind is the closed set of alert types the engine can produce.
type SignalKind string

const (
	SignalStopProximity SignalKind = "stop_proximity"
	SignalTakeProfit    SignalKind = "tp_proximity"
	SignalVolumeAnomaly SignalKind = "volume_anomaly"
	SignalVolatility    SignalKind = "volatility_spike"
	SignalImpulse       SignalKind = "impulse"
	SignalBreakout      SignalKind = "breakout"
	SignalBreakdown     SignalKind = "breakdown"
	SignalTrendContext  SignalKind = "trend_context"
	SignalVolatileBar   SignalKind = "volatile_bar"
	SignalDivergence    SignalKind = "divergence"
)

// Signal is one typed alert from a single evaluation of
// (position, snapshot).
type Signal struct {
	Kind    SignalKind `json:"kind"`
	Message string     `json:"message"`
}

// NotificationEvent carries one position's evaluation result to the
// delivery layer.
type NotificationEvent struct {
	OwnerID    string    `json:"owner_id"`
	Position   Position  `json:"position"`
	Price      float64   `json:"price"`
	PnL        float64   `json:"pnl"`
	PnLPercent float64   `json:"pnl_percent"`
	Signals    []Signal  `json:"signals"`
	Timestamp  time.Time `json:"timestamp"`
}

// DedupRecord is the per-position suppression state: the fingerprint of
// the last emitted signal batch and when it was emitted.
type DedupRecord struct {
	Fingerprint string    `json:"fingerprint"`
	EmittedAt   time.Time `json:"emitted_at"`
}
