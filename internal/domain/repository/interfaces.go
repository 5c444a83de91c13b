package repository

import (
	"context"

	"CoinSentry/internal/domain/models"
)

// MarketSource is the common provider adapter contract. Fetch returns a
// normalized snapshot or a *models.AdapterError. Supports must be checked
// without network I/O.
type MarketSource interface {
	Name() models.Provider
	Supports(symbol string) bool
	Fetch(ctx context.Context, symbol string) (*models.MarketSnapshot, error)
}

// CandleSource serves auxiliary OHLCV series for the signal engine
// (hourly trend/ATR, finer-grained impulse bars, reference-asset returns).
type CandleSource interface {
	Klines(ctx context.Context, symbol, interval string, limit int) ([]models.Candle, error)
}

// PositionStore owns position records. Implementations must be safe for
// concurrent use.
type PositionStore interface {
	Save(ctx context.Context, p *models.Position) error
	Get(ctx context.Context, id string) (*models.Position, error)
	ListByOwner(ctx context.Context, ownerID string) ([]*models.Position, error)
	ListActive(ctx context.Context) ([]*models.Position, error)
	Close(ctx context.Context, id string) error
}

// DedupStore keeps per-position suppression records for the signal
// engine's cooldown gate.
type DedupStore interface {
	Get(ctx context.Context, positionID string) (*models.DedupRecord, error)
	Put(ctx context.Context, positionID string, rec *models.DedupRecord) error
}

// Notifier delivers one notification event to an end channel.
type Notifier interface {
	Name() string
	IsEnabled() bool
	Send(ctx context.Context, ev *models.NotificationEvent) error
}

// EventPublisher pushes notification events to downstream consumers.
type EventPublisher interface {
	Publish(ctx context.Context, ev *models.NotificationEvent) error
	Close() error
}

// MarketStream is a live tick feed over a persistent connection.
type MarketStream interface {
	Connect(ctx context.Context) error
	Subscribe(ctx context.Context) error
	Read(ctx context.Context) (<-chan *models.Tick, <-chan error)
	Reconnect(ctx context.Context) error
	Close() error
	IsConnected() bool
}

// TickWindow exposes the live stream's rolling price window.
type TickWindow interface {
	// Window returns the prices seen for symbol within the trailing
	// duration, oldest first. ok is false when the stream has no data.
	Window(symbol string, seconds int64) (prices []float64, ok bool)
}

// Metrics is the domain-facing metrics recorder.
type Metrics interface {
	RecordProviderRequest(provider, outcome string)
	RecordFallback(symbol string)
	RecordLastPrice(symbol string, price float64)
	RecordSignal(kind string)
	RecordError(kind string)
	RecordLatency(op string, seconds float64)
}
