//go:build wireinject
// +build wireinject

package di

import (
	"CoinSentry/pkg/config"
	"CoinSentry/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		// Ambient
		ProvideLogger,
		ProvideMetrics,
		ProvideRateLimiter,
		ProvideCacheService,

		// Market sources
		ProvideBinance,
		ProvideCoinGecko,
		ProvideSnapshotCache,
		ProvideResolver,

		// Stores
		ProvidePositionStore,
		ProvideDedupStore,

		// Streaming
		ProvidePriceWindow,
		ProvideTickCollector,

		// Signals and monitoring
		ProvideSignalEngine,
		ProvideSweeper,

		// Delivery
		ProvideKafkaProducer,
		ProvideEventPublisher,
		ProvideNotifierManager,
		ProvideDispatchQueue,
		ProvideDispatcher,

		// HTTP
		ProvideRouter,

		// Application
		ProvideApp,
	)
	return &server.App{}, nil
}
