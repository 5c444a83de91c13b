package usecase

import (
	"context"
	"errors"
	"sync"
	"time"

	"CoinSentry/internal/domain/models"
	drepo "CoinSentry/internal/domain/repository"
	svcmetrics "CoinSentry/internal/service/metrics"
	xlogger "CoinSentry/pkg/logger"
)

// Dispatcher hands one event to the delivery layer.
type Dispatcher interface {
	Dispatch(ctx context.Context, ev *models.NotificationEvent) error
}

// Sweeper walks all active positions, resolves each symbol once,
// evaluates signals and pushes deduplicated batches to the dispatcher.
// A sweep is idempotent and safe to trigger concurrently with itself;
// the dedup gate absorbs at-least-once invocation.
type Sweeper struct {
	positions  drepo.PositionStore
	resolver   *Resolver
	engine     *SignalEngine
	dispatcher Dispatcher
	metrics    drepo.Metrics
	log        *xlogger.Logger

	interval time.Duration
	stopCh   chan struct{}
	stopOnce sync.Once
}

// NewSweeper creates a sweeper. dispatcher may be nil; events are then
// only returned to the caller.
func NewSweeper(positions drepo.PositionStore, resolver *Resolver, engine *SignalEngine, dispatcher Dispatcher, metrics drepo.Metrics, interval time.Duration, log *xlogger.Logger) *Sweeper {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	svcmetrics.Register()
	return &Sweeper{
		positions:  positions,
		resolver:   resolver,
		engine:     engine,
		dispatcher: dispatcher,
		metrics:    metrics,
		log:        log,
		interval:   interval,
		stopCh:     make(chan struct{}),
	}
}

// Start runs the periodic sweep loop until Stop or ctx cancellation.
func (s *Sweeper) Start(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-s.stopCh:
				return
			case <-ticker.C:
				if _, err := s.SweepAndNotify(ctx); err != nil {
					s.log.Error("sweep failed", xlogger.Error(err))
				}
			}
		}
	}()
}

// Stop ends the periodic loop. In-flight sweeps finish on their own.
func (s *Sweeper) Stop() {
	s.stopOnce.Do(func() { close(s.stopCh) })
}

// SweepAndNotify evaluates every active position and returns the
// emitted events. Positions sharing a symbol reuse one resolution.
// A position whose symbol has no data is skipped, not failed.
func (s *Sweeper) SweepAndNotify(ctx context.Context) ([]*models.NotificationEvent, error) {
	start := time.Now()
	defer func() {
		svcmetrics.SweepDuration.WithLabelValues("total").Observe(time.Since(start).Seconds())
	}()

	active, err := s.positions.ListActive(ctx)
	if err != nil {
		svcmetrics.SweepErrors.WithLabelValues("list").Inc()
		return nil, err
	}

	bySymbol := make(map[string][]*models.Position)
	for _, p := range active {
		bySymbol[p.Symbol] = append(bySymbol[p.Symbol], p)
	}
	// drop labels for symbols whose positions all closed since last run
	svcmetrics.SweepPositions.Reset()
	for sym, group := range bySymbol {
		svcmetrics.SweepPositions.WithLabelValues(sym).Set(float64(len(group)))
	}

	events := make([]*models.NotificationEvent, 0)
	for sym, group := range bySymbol {
		snap, err := s.resolver.Resolve(ctx, sym)
		if err != nil {
			if !errors.Is(err, models.ErrNoData) && !errors.Is(err, models.ErrUnsupportedSymbol) {
				svcmetrics.SweepErrors.WithLabelValues("resolve").Inc()
			}
			s.log.Warn("sweep skipping symbol",
				xlogger.String("symbol", sym),
				xlogger.Int("positions", len(group)),
				xlogger.Error(err))
			continue
		}

		for _, pos := range group {
			if ev := s.evaluateOne(ctx, pos, snap); ev != nil {
				events = append(events, ev)
			}
		}
	}

	return events, nil
}

func (s *Sweeper) evaluateOne(ctx context.Context, pos *models.Position, snap *models.MarketSnapshot) *models.NotificationEvent {
	signals := s.engine.Evaluate(ctx, pos, snap)
	if len(signals) == 0 {
		return nil
	}

	fp := Fingerprint(signals)
	if !s.engine.ShouldEmit(ctx, pos.ID, fp) {
		return nil
	}

	for _, sig := range signals {
		s.metrics.RecordSignal(string(sig.Kind))
	}

	pnl, pnlPct := pos.PnL(snap.Price)
	ev := &models.NotificationEvent{
		OwnerID:    pos.OwnerID,
		Position:   *pos,
		Price:      snap.Price,
		PnL:        pnl,
		PnLPercent: pnlPct,
		Signals:    signals,
		Timestamp:  time.Now(),
	}

	if s.dispatcher != nil {
		if err := s.dispatcher.Dispatch(ctx, ev); err != nil {
			svcmetrics.SweepErrors.WithLabelValues("dispatch").Inc()
			s.log.Error("event dispatch failed",
				xlogger.String("position", pos.ID),
				xlogger.Error(err))
		}
	}
	return ev
}
