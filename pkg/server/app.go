package server

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"CoinSentry/internal/usecase"
	"CoinSentry/pkg/config"
	xhttp "CoinSentry/pkg/http"
	pkgkafka "CoinSentry/pkg/kafka"
	xlogger "CoinSentry/pkg/logger"
	pkgqueue "CoinSentry/pkg/queue"
)

// App owns the process lifecycle: the HTTP server, the tick collector,
// the monitor loop and the dispatch queue, started together and shut
// down in reverse order on SIGINT/SIGTERM.
type App struct {
	cfg       *config.Config
	log       *xlogger.Logger
	handler   xhttp.Handler
	collector *usecase.TickCollector
	sweeper   *usecase.Sweeper
	queue     *pkgqueue.RedisQueue
	producer  *pkgkafka.Producer

	httpServer *xhttp.Server
}

// New creates the application. collector, queue and producer may be nil
// when their subsystem is disabled.
func New(
	cfg *config.Config,
	log *xlogger.Logger,
	handler xhttp.Handler,
	collector *usecase.TickCollector,
	sweeper *usecase.Sweeper,
	queue *pkgqueue.RedisQueue,
	producer *pkgkafka.Producer,
) *App {
	return &App{
		cfg:       cfg,
		log:       log,
		handler:   handler,
		collector: collector,
		sweeper:   sweeper,
		queue:     queue,
		producer:  producer,
	}
}

// Run starts all subsystems and blocks until a shutdown signal.
func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a.httpServer = xhttp.NewServer(a.handler,
		xhttp.WithPort(a.cfg.Server.Port),
		xhttp.WithTimeouts(a.cfg.Server.ReadTimeout, a.cfg.Server.WriteTimeout, a.cfg.Server.ShutdownTimeout),
	)

	if a.queue != nil {
		if err := a.queue.Start(); err != nil {
			a.log.Error("dispatch queue start failed", xlogger.Error(err))
			return err
		}
		a.queue.StartRetryProcessor()
		a.log.Info("dispatch queue started", xlogger.Int("workers", a.cfg.Queue.Workers))
	}

	if a.collector != nil {
		go func() {
			if err := a.collector.Start(ctx); err != nil {
				a.log.Error("tick collector error", xlogger.Error(err))
			}
		}()
		a.log.Info("tick collector started", xlogger.String("stream", a.cfg.Binance.StreamURL))
	}

	if a.cfg.Monitor.Enabled && a.sweeper != nil {
		a.sweeper.Start(ctx)
		a.log.Info("monitor loop started", xlogger.Duration("interval", a.cfg.Monitor.Interval))
	}

	if err := a.httpServer.Start(); err != nil {
		a.log.Error("http server start failed", xlogger.Error(err))
		return err
	}
	a.log.Info("http server started", xlogger.Int("port", a.cfg.Server.Port))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	a.log.Info("shutdown signal received")
	return a.shutdown(ctx)
}

func (a *App) shutdown(ctx context.Context) error {
	if a.sweeper != nil {
		a.sweeper.Stop()
	}
	if a.collector != nil {
		if err := a.collector.Shutdown(ctx); err != nil {
			a.log.Warn("tick collector stop error", xlogger.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, a.cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := a.httpServer.Stop(shutdownCtx); err != nil {
		a.log.Error("http shutdown error", xlogger.Error(err))
	}

	// queue after http so in-flight requests can still enqueue
	if a.queue != nil {
		if err := a.queue.Stop(shutdownCtx); err != nil {
			a.log.Warn("dispatch queue stop error", xlogger.Error(err))
		}
	}
	if a.producer != nil {
		if err := a.producer.Close(); err != nil {
			a.log.Warn("kafka producer close error", xlogger.Error(err))
		}
	}

	a.log.Info("shutdown complete")
	return nil
}
