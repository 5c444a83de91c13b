package usecase

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"CoinSentry/internal/domain/models"
	svcmetrics "CoinSentry/internal/service/metrics"
)

type memPositions struct {
	mu   sync.Mutex
	list []*models.Position
}

func (m *memPositions) Save(_ context.Context, p *models.Position) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.list = append(m.list, p)
	return nil
}

func (m *memPositions) Get(_ context.Context, id string) (*models.Position, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.list {
		if p.ID == id {
			return p, nil
		}
	}
	return nil, models.ErrNoData
}

func (m *memPositions) ListByOwner(_ context.Context, owner string) ([]*models.Position, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.Position
	for _, p := range m.list {
		if p.OwnerID == owner {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *memPositions) ListActive(_ context.Context) ([]*models.Position, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.Position
	for _, p := range m.list {
		if p.IsActive {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *memPositions) Close(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.list {
		if p.ID == id {
			p.IsActive = false
		}
	}
	return nil
}

type captureDispatcher struct {
	mu     sync.Mutex
	events []*models.NotificationEvent
}

func (d *captureDispatcher) Dispatch(_ context.Context, ev *models.NotificationEvent) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.events = append(d.events, ev)
	return nil
}

func (d *captureDispatcher) count() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.events)
}

func sweepFixture(t *testing.T) (*Sweeper, *memPositions, *fakeSource, *captureDispatcher, *SignalEngine) {
	t.Helper()

	source := &fakeSource{
		name:    models.ProviderBinance,
		symbols: map[string]bool{"ETH": true, "BTC": true},
		snap:    quietSnapshot(100),
	}
	resolver := newTestResolver(t, source)
	engine := newTestEngine(t, nil)
	store := &memPositions{}
	disp := &captureDispatcher{}
	sw := NewSweeper(store, resolver, engine, disp, nopMetrics{}, time.Minute, testLogger(t))
	return sw, store, source, disp, engine
}

func TestSweepEmitsForTriggeredPosition(t *testing.T) {
	sw, store, _, disp, _ := sweepFixture(t)
	ctx := context.Background()

	// stop at 99 with price 100 is within the proximity threshold
	triggered := position("ETH", 99, 1000)
	triggered.ID = "pos-triggered"
	quiet := position("ETH", 10, 1000)
	quiet.ID = "pos-quiet"
	for _, p := range []*models.Position{triggered, quiet} {
		if err := store.Save(ctx, p); err != nil {
			t.Fatalf("save: %v", err)
		}
	}

	events, err := sw.SweepAndNotify(ctx)
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("got %d events, want 1", len(events))
	}
	ev := events[0]
	if ev.Position.ID != "pos-triggered" {
		t.Fatalf("event for %s, want pos-triggered", ev.Position.ID)
	}
	if !hasKind(ev.Signals, models.SignalStopProximity) {
		t.Fatalf("expected stop proximity signal, got %v", ev.Signals)
	}
	if ev.Price != 100 {
		t.Fatalf("event price %v, want 100", ev.Price)
	}
	if disp.count() != 1 {
		t.Fatalf("dispatcher received %d events, want 1", disp.count())
	}
}

func TestSweepResolvesEachSymbolOnce(t *testing.T) {
	sw, store, source, _, _ := sweepFixture(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		p := position("ETH", 10, 1000)
		p.ID = "pos-" + string(rune('a'+i))
		if err := store.Save(ctx, p); err != nil {
			t.Fatalf("save: %v", err)
		}
	}

	if _, err := sw.SweepAndNotify(ctx); err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if source.calls != 1 {
		t.Fatalf("adapter called %d times for one symbol, want 1", source.calls)
	}
}

func TestSweepSkipsSymbolWithoutData(t *testing.T) {
	sw, store, source, disp, _ := sweepFixture(t)
	ctx := context.Background()

	source.err = models.NewAdapterError(models.ProviderBinance, 500, context.DeadlineExceeded)

	p := position("ETH", 99, 1000)
	p.ID = "pos-1"
	if err := store.Save(ctx, p); err != nil {
		t.Fatalf("save: %v", err)
	}

	events, err := sw.SweepAndNotify(ctx)
	if err != nil {
		t.Fatalf("sweep must not fail on a dead symbol: %v", err)
	}
	if len(events) != 0 || disp.count() != 0 {
		t.Fatalf("got %d events, want none", len(events))
	}
}

func TestSweepClearsStaleSymbolGauge(t *testing.T) {
	sw, store, _, _, _ := sweepFixture(t)
	ctx := context.Background()

	p := position("ETH", 10, 1000)
	p.ID = "pos-1"
	if err := store.Save(ctx, p); err != nil {
		t.Fatalf("save: %v", err)
	}

	if _, err := sw.SweepAndNotify(ctx); err != nil {
		t.Fatalf("first sweep: %v", err)
	}
	if n := testutil.CollectAndCount(svcmetrics.SweepPositions); n != 1 {
		t.Fatalf("gauge exports %d series after first sweep, want 1", n)
	}

	if err := store.Close(ctx, "pos-1"); err != nil {
		t.Fatalf("close: %v", err)
	}
	if _, err := sw.SweepAndNotify(ctx); err != nil {
		t.Fatalf("second sweep: %v", err)
	}
	if n := testutil.CollectAndCount(svcmetrics.SweepPositions); n != 0 {
		t.Fatalf("closed symbol still exports %d gauge series, want 0", n)
	}
}

func TestSweepSecondRunSuppressedByCooldown(t *testing.T) {
	sw, store, _, disp, engine := sweepFixture(t)
	ctx := context.Background()

	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	engine.now = func() time.Time { return base }

	p := position("ETH", 99, 1000)
	p.ID = "pos-1"
	if err := store.Save(ctx, p); err != nil {
		t.Fatalf("save: %v", err)
	}

	if _, err := sw.SweepAndNotify(ctx); err != nil {
		t.Fatalf("first sweep: %v", err)
	}
	if disp.count() != 1 {
		t.Fatalf("first sweep dispatched %d, want 1", disp.count())
	}

	// same findings five minutes later stay quiet
	engine.now = func() time.Time { return base.Add(5 * time.Minute) }
	if _, err := sw.SweepAndNotify(ctx); err != nil {
		t.Fatalf("second sweep: %v", err)
	}
	if disp.count() != 1 {
		t.Fatalf("cooldown leak: dispatched %d, want still 1", disp.count())
	}

	// past the cooldown the batch is emitted again
	engine.now = func() time.Time { return base.Add(16 * time.Minute) }
	if _, err := sw.SweepAndNotify(ctx); err != nil {
		t.Fatalf("third sweep: %v", err)
	}
	if disp.count() != 2 {
		t.Fatalf("after cooldown dispatched %d, want 2", disp.count())
	}
}
