package di

import (
	"context"
	"fmt"
	"time"

	"CoinSentry/internal/domain/repository"
	"CoinSentry/internal/handler/api"
	mid "CoinSentry/internal/middleware"
	internalrepo "CoinSentry/internal/repository"
	"CoinSentry/internal/service/binance"
	scache "CoinSentry/internal/service/cache"
	"CoinSentry/internal/service/coingecko"
	"CoinSentry/internal/service/ratelimit"
	"CoinSentry/internal/service/stream"
	"CoinSentry/internal/usecase"
	"CoinSentry/pkg/cache"
	"CoinSentry/pkg/config"
	xhttp "CoinSentry/pkg/http"
	pkgkafka "CoinSentry/pkg/kafka"
	xlogger "CoinSentry/pkg/logger"
	"CoinSentry/pkg/metrics"
	pkgqueue "CoinSentry/pkg/queue"
	"CoinSentry/pkg/server"
)

// ProvideLogger creates the application logger.
func ProvideLogger(cfg *config.Config) (*xlogger.Logger, error) {
	log, err := xlogger.New(&xlogger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	})
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	return log, nil
}

// ProvideMetrics creates the Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	return metrics.New()
}

// ProvideRateLimiter creates the shared per-provider token bucket.
func ProvideRateLimiter(cfg *config.Config) *ratelimit.Limiter {
	return ratelimit.New(cfg.RateLimit.Capacity, cfg.RateLimit.RefillPerSec)
}

// ProvideBinance creates the primary market source.
func ProvideBinance(cfg *config.Config, log *xlogger.Logger, limiter *ratelimit.Limiter) *binance.Client {
	return binance.New(cfg.Binance.Hosts, cfg.Binance.Timeout, log,
		binance.WithLimiter(limiter),
		binance.WithKlineLimit(cfg.Binance.KlineLimit),
	)
}

// ProvideCoinGecko creates the fallback market source.
func ProvideCoinGecko(cfg *config.Config, log *xlogger.Logger, limiter *ratelimit.Limiter) *coingecko.Client {
	return coingecko.New(cfg.CoinGecko.BaseURL, cfg.CoinGecko.Timeout, log,
		coingecko.WithAPIKey(cfg.CoinGecko.APIKey),
		coingecko.WithLimiter(limiter),
	)
}

// ProvideCacheService selects the cache backend: Redis when configured,
// in-process otherwise.
func ProvideCacheService(cfg *config.Config) (cache.Service, error) {
	if cfg.Redis.Enabled {
		c, err := cache.NewRedisCache(
			cache.WithRedisHost(cfg.Redis.Host),
			cache.WithRedisPort(cfg.Redis.Port),
			cache.WithRedisPassword(cfg.Redis.Password),
			cache.WithRedisDB(cfg.Redis.DB),
		)
		if err != nil {
			return nil, fmt.Errorf("redis cache: %w", err)
		}
		return c, nil
	}
	return cache.NewMemoryCache(), nil
}

// ProvideSnapshotCache creates the short-TTL snapshot memoization layer.
func ProvideSnapshotCache(store cache.Service, cfg *config.Config, log *xlogger.Logger) *scache.SnapshotCache {
	return scache.NewSnapshotCache(store, cfg.Monitor.SnapshotTTL, log)
}

// ProvideDedupStore selects the cooldown gate backend.
func ProvideDedupStore(cfg *config.Config, store cache.Service) repository.DedupStore {
	if cfg.Redis.Enabled {
		return internalrepo.NewRedisDedupStore(store, 24*time.Hour)
	}
	return internalrepo.NewMemoryDedupStore()
}

// ProvidePositionStore creates the in-memory position store.
func ProvidePositionStore() repository.PositionStore {
	return internalrepo.NewMemoryPositionStore()
}

// ProvideResolver creates the ordered fallback resolver. Binance is
// always tried first.
func ProvideResolver(
	primary *binance.Client,
	fallback *coingecko.Client,
	snapCache *scache.SnapshotCache,
	m repository.Metrics,
	log *xlogger.Logger,
) *usecase.Resolver {
	return usecase.NewResolver(
		[]repository.MarketSource{primary, fallback},
		snapCache, m, log,
	)
}

// ProvidePriceWindow creates the rolling stream price window.
func ProvidePriceWindow(cfg *config.Config) *stream.PriceWindow {
	return stream.NewPriceWindow(cfg.Binance.StreamWindow)
}

// ProvideSignalEngine creates the signal rule engine.
func ProvideSignalEngine(
	candles *binance.Client,
	window *stream.PriceWindow,
	dedup repository.DedupStore,
	cfg *config.Config,
	log *xlogger.Logger,
) *usecase.SignalEngine {
	return usecase.NewSignalEngine(candles, window, dedup, usecase.SignalConfig{
		StopProximityPct: cfg.Signals.StopProximityPct,
		TPProximityPct:   cfg.Signals.TPProximityPct,
		VolumeMult:       cfg.Signals.VolumeMult,
		HourlyVolumeMult: cfg.Signals.HourlyVolumeMult,
		HourlyVolumeZ:    cfg.Signals.HourlyVolumeZ,
		Change24hPct:     cfg.Signals.Change24hPct,
		ImpulsePct:       cfg.Signals.ImpulsePct,
		ImpulseWindow:    cfg.Signals.ImpulseWindow,
		ATRMult:          cfg.Signals.ATRMult,
		ATRPeriod:        cfg.Signals.ATRPeriod,
		DivergencePct:    cfg.Signals.DivergencePct,
		Cooldown:         cfg.Monitor.Cooldown,
		ReferenceAsset:   cfg.Monitor.ReferenceAsset,
	}, log)
}

// ProvideKafkaProducer creates the Kafka producer, or nil when Kafka is
// disabled.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, error) {
	if !cfg.Kafka.Enabled {
		return nil, nil
	}
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithBatchSize(cfg.Kafka.Producer.BatchSize),
		pkgkafka.WithBatchBytes(cfg.Kafka.Producer.BatchBytes),
		pkgkafka.WithBatchTimeout(cfg.Kafka.Producer.Linger),
		pkgkafka.WithTimeouts(cfg.Kafka.Producer.WriteTimeout, cfg.Kafka.Producer.ReadTimeout),
		pkgkafka.WithMaxAttempts(cfg.Kafka.Producer.MaxAttempts),
		pkgkafka.WithAsync(cfg.Kafka.Producer.Async),
		pkgkafka.WithHashByKey(true),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return producer, nil
}

// ProvideEventPublisher mirrors notification events to Kafka when a
// producer is configured.
func ProvideEventPublisher(producer *pkgkafka.Producer, cfg *config.Config) repository.EventPublisher {
	if producer == nil {
		return nil
	}
	return internalrepo.NewKafkaEventPublisher(producer, cfg.Kafka.Topic)
}

// ProvideNotifierManager creates the delivery fan-out with the Telegram
// channel attached.
func ProvideNotifierManager(cfg *config.Config, log *xlogger.Logger) *internalrepo.NotifierManager {
	tg := internalrepo.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.Enabled, cfg.Telegram.SendDelay, log)
	return internalrepo.NewNotifierManager(log, tg)
}

// ProvideDispatchQueue creates the Redis-backed delivery queue with the
// notification job registered, or nil when Redis is disabled.
func ProvideDispatchQueue(
	cfg *config.Config,
	store cache.Service,
	manager *internalrepo.NotifierManager,
	log *xlogger.Logger,
) *pkgqueue.RedisQueue {
	if !cfg.Redis.Enabled {
		return nil
	}
	rc, ok := store.(*cache.RedisCache)
	if !ok {
		return nil
	}
	q := pkgqueue.NewRedisQueue(log, &pkgqueue.QueueConfig{
		Workers:    cfg.Queue.Workers,
		RetryLimit: cfg.Queue.RetryLimit,
		RetryDelay: cfg.Queue.RetryDelay,
	}, rc.Client(), pkgqueue.ModeProducerConsumer)
	q.RegisterJob(internalrepo.NewDispatchJob(manager))
	return q
}

// ProvideDispatcher routes emitted events to Kafka, the queue, or
// direct delivery.
func ProvideDispatcher(
	q *pkgqueue.RedisQueue,
	manager *internalrepo.NotifierManager,
	publisher repository.EventPublisher,
	log *xlogger.Logger,
) usecase.Dispatcher {
	var qs pkgqueue.QueueService
	if q != nil {
		qs = q
	}
	return internalrepo.NewEventDispatcher(qs, manager, publisher, log)
}

// ProvideSweeper creates the monitoring sweep.
func ProvideSweeper(
	positions repository.PositionStore,
	resolver *usecase.Resolver,
	engine *usecase.SignalEngine,
	dispatcher usecase.Dispatcher,
	m repository.Metrics,
	cfg *config.Config,
	log *xlogger.Logger,
) *usecase.Sweeper {
	return usecase.NewSweeper(positions, resolver, engine, dispatcher, m, cfg.Monitor.Interval, log)
}

// ProvideTickCollector wires the live stream into the price window, or
// returns nil when streaming is disabled.
func ProvideTickCollector(
	cfg *config.Config,
	window *stream.PriceWindow,
	m repository.Metrics,
	log *xlogger.Logger,
) *usecase.TickCollector {
	if !cfg.Monitor.Enabled || cfg.Binance.StreamURL == "" {
		return nil
	}

	symbolPairs := make(map[string]string)
	for _, sym := range binance.Symbols() {
		if pair, ok := binance.Pair(sym); ok {
			symbolPairs[sym] = pair
		}
	}

	ws := stream.New(cfg.Binance.StreamURL, symbolPairs, 5*time.Second, 30*time.Second, log)
	sink := usecase.NewWindowSink(window, m)
	pipe := mid.NewTickPipeline(sink, m,
		mid.WithMaxRPS(10),
		mid.WithBufferSize(1024),
	)
	return usecase.NewTickCollector(ws, pipe, m)
}

// ProvideRouter bundles the HTTP handlers.
func ProvideRouter(
	cfg *config.Config,
	log *xlogger.Logger,
	resolver *usecase.Resolver,
	positions repository.PositionStore,
	sweeper *usecase.Sweeper,
) xhttp.Handler {
	return api.NewRouter(
		api.NewMarketEchoHandler(log, resolver),
		api.NewPositionsEchoHandler(log, positions, resolver),
		api.NewOpsEchoHandler(log, sweeper, cfg.Server.TickSecret),
	)
}

// logPublisher adapts the Kafka producer to the log collector's
// publisher interface.
type logPublisher struct {
	producer *pkgkafka.Producer
}

func (p logPublisher) PublishMessage(ctx context.Context, topic string, payload interface{}) error {
	return p.producer.Publish(ctx, topic, nil, payload)
}

// ProvideApp assembles the application.
func ProvideApp(
	cfg *config.Config,
	log *xlogger.Logger,
	handler xhttp.Handler,
	collector *usecase.TickCollector,
	sweeper *usecase.Sweeper,
	queue *pkgqueue.RedisQueue,
	producer *pkgkafka.Producer,
) *server.App {
	if producer != nil {
		log.AddCollector(&xlogger.CollectionConfig{
			TimeInterval:   30 * time.Second,
			CountThreshold: 100,
			Topic:          cfg.Kafka.Topic + ".logs",
			Publisher:      logPublisher{producer: producer},
		})
	}
	return server.New(cfg, log, handler, collector, sweeper, queue, producer)
}
