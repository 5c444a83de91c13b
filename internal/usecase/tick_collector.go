package usecase

import (
	"context"

	"CoinSentry/internal/domain/models"
	drepo "CoinSentry/internal/domain/repository"
	mid "CoinSentry/internal/middleware"
	"CoinSentry/internal/service/stream"
)

// WindowSink feeds validated ticks into the rolling price window.
type WindowSink struct {
	window  *stream.PriceWindow
	metrics drepo.Metrics
}

// NewWindowSink creates the pipeline's downstream processor.
func NewWindowSink(window *stream.PriceWindow, metrics drepo.Metrics) *WindowSink {
	return &WindowSink{window: window, metrics: metrics}
}

func (s *WindowSink) Process(_ context.Context, t *models.Tick) error {
	s.window.Add(t)
	s.metrics.RecordLastPrice(t.Symbol, t.Price)
	return nil
}

// TickCollector consumes the live stream and pushes ticks through the
// throttle pipeline into the price window.
type TickCollector struct {
	stream  drepo.MarketStream
	pipe    *mid.TickPipeline
	metrics drepo.Metrics
}

// NewTickCollector creates a new TickCollector instance.
func NewTickCollector(str drepo.MarketStream, pipe *mid.TickPipeline, metrics drepo.Metrics) *TickCollector {
	return &TickCollector{stream: str, pipe: pipe, metrics: metrics}
}

// IsConnected returns true if the market stream is connected.
func (c *TickCollector) IsConnected() bool {
	return c.stream.IsConnected()
}

func (c *TickCollector) Start(ctx context.Context) error {
	if err := c.stream.Connect(ctx); err != nil {
		return err
	}
	if err := c.stream.Subscribe(ctx); err != nil {
		return err
	}
	c.pipe.Start(ctx)
	tickCh, errCh := c.stream.Read(ctx)
	go c.consume(ctx, tickCh, errCh)
	return nil
}

func (c *TickCollector) consume(ctx context.Context, tickCh <-chan *models.Tick, errCh <-chan error) {
	for {
		select {
		case <-ctx.Done():
			return
		case err, ok := <-errCh:
			if !ok {
				return
			}
			if err != nil {
				c.metrics.RecordError("stream")
				if rerr := c.stream.Reconnect(ctx); rerr == nil {
					tickCh, errCh = c.stream.Read(ctx)
				}
			}
		case t, ok := <-tickCh:
			if !ok {
				return
			}
			if t == nil {
				continue
			}
			_ = c.pipe.Process(ctx, t)
		}
	}
}

// Shutdown stops the pipeline and closes the stream.
func (c *TickCollector) Shutdown(ctx context.Context) error {
	c.pipe.Stop()
	return c.stream.Close()
}
