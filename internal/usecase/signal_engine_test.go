package usecase

import (
	"context"
	"sync"
	"testing"
	"time"

	"CoinSentry/internal/domain/models"
)

type memDedup struct {
	mu   sync.Mutex
	recs map[string]*models.DedupRecord
}

func newMemDedup() *memDedup {
	return &memDedup{recs: make(map[string]*models.DedupRecord)}
}

func (m *memDedup) Get(_ context.Context, positionID string) (*models.DedupRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.recs[positionID], nil
}

func (m *memDedup) Put(_ context.Context, positionID string, rec *models.DedupRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.recs[positionID] = rec
	return nil
}

type fakeCandles struct {
	bars map[string][]models.Candle
	err  error
}

func (f *fakeCandles) Klines(_ context.Context, symbol, interval string, limit int) ([]models.Candle, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.bars[symbol+"/"+interval], nil
}

func defaultSignalConfig() SignalConfig {
	return SignalConfig{
		StopProximityPct: 2,
		TPProximityPct:   3,
		VolumeMult:       1.5,
		HourlyVolumeMult: 2,
		HourlyVolumeZ:    2.5,
		Change24hPct:     8,
		ImpulsePct:       1.5,
		ImpulseWindow:    30 * time.Minute,
		ATRMult:          1.8,
		ATRPeriod:        14,
		DivergencePct:    1,
		Cooldown:         15 * time.Minute,
		ReferenceAsset:   "BTC",
	}
}

func newTestEngine(t *testing.T, candles *fakeCandles) *SignalEngine {
	t.Helper()
	if candles == nil {
		candles = &fakeCandles{bars: map[string][]models.Candle{}}
	}
	return NewSignalEngine(candles, nil, newMemDedup(), defaultSignalConfig(), testLogger(t))
}

func position(symbol string, stop, tp float64) *models.Position {
	return &models.Position{
		ID:         "pos-1",
		OwnerID:    "42",
		Symbol:     symbol,
		Direction:  models.DirectionLong,
		EntryPrice: 100,
		StopLoss:   stop,
		TakeProfit: tp,
		IsActive:   true,
	}
}

func quietSnapshot(price float64) *models.MarketSnapshot {
	// levels far away so only the rule under test can fire
	return &models.MarketSnapshot{
		Provider:   models.ProviderBinance,
		Symbol:     "ETH",
		Price:      price,
		Support:    price * 0.5,
		Resistance: price * 2,
	}
}

func hasKind(signals []models.Signal, kind models.SignalKind) bool {
	for _, s := range signals {
		if s.Kind == kind {
			return true
		}
	}
	return false
}

func TestStopProximityFiresUnderThreshold(t *testing.T) {
	e := newTestEngine(t, nil)
	pos := position("ETH", 99, 1000)

	signals := e.Evaluate(context.Background(), pos, quietSnapshot(100))
	if !hasKind(signals, models.SignalStopProximity) {
		t.Fatalf("price 100 vs stop 99 (1.01%%) must fire, got %v", signals)
	}

	signals = e.Evaluate(context.Background(), pos, quietSnapshot(105))
	if hasKind(signals, models.SignalStopProximity) {
		t.Fatalf("price 105 vs stop 99 (6%%) must not fire, got %v", signals)
	}
}

func TestTakeProfitProximity(t *testing.T) {
	e := newTestEngine(t, nil)
	pos := position("ETH", 10, 102)

	signals := e.Evaluate(context.Background(), pos, quietSnapshot(100))
	if !hasKind(signals, models.SignalTakeProfit) {
		t.Fatalf("price 100 vs tp 102 (1.96%% < 3%%) must fire, got %v", signals)
	}
}

func TestChange24hRule(t *testing.T) {
	e := newTestEngine(t, nil)
	pos := position("ETH", 10, 1000)

	snap := quietSnapshot(100)
	snap.Change24h = -9.5
	signals := e.Evaluate(context.Background(), pos, snap)
	if !hasKind(signals, models.SignalVolatility) {
		t.Fatalf("|change24h|=9.5 > 8 must fire, got %v", signals)
	}

	snap.Change24h = 7.9
	signals = e.Evaluate(context.Background(), pos, snap)
	if hasKind(signals, models.SignalVolatility) {
		t.Fatalf("|change24h|=7.9 must not fire, got %v", signals)
	}
}

func TestVolumeAnomalyDisabledOnZeroAverage(t *testing.T) {
	e := newTestEngine(t, nil)
	pos := position("ETH", 10, 1000)

	snap := quietSnapshot(100)
	snap.AvgVolume = 0
	snap.Volume24h = 1e9
	signals := e.Evaluate(context.Background(), pos, snap)
	if hasKind(signals, models.SignalVolumeAnomaly) {
		t.Fatalf("zero average must disable the day-scale rule, got %v", signals)
	}

	snap.AvgVolume = 1000
	snap.Volume24h = 1600
	signals = e.Evaluate(context.Background(), pos, snap)
	if !hasKind(signals, models.SignalVolumeAnomaly) {
		t.Fatalf("1600 > 1.5*1000 must fire, got %v", signals)
	}
}

func TestBreakoutAndBreakdown(t *testing.T) {
	e := newTestEngine(t, nil)
	pos := position("ETH", 10, 1000)

	snap := quietSnapshot(100)
	snap.Resistance = 95
	signals := e.Evaluate(context.Background(), pos, snap)
	if !hasKind(signals, models.SignalBreakout) {
		t.Fatalf("close above weekly resistance must fire breakout, got %v", signals)
	}

	snap = quietSnapshot(100)
	snap.Support = 110
	snap.Resistance = 120
	signals = e.Evaluate(context.Background(), pos, snap)
	if !hasKind(signals, models.SignalBreakdown) {
		t.Fatalf("close below weekly support must fire breakdown, got %v", signals)
	}
}

func TestImpulseFromFiveMinuteBars(t *testing.T) {
	bars := []models.Candle{
		{Close: 100}, {Close: 100.4}, {Close: 100.9}, {Close: 101},
		{Close: 101.5}, {Close: 101.8}, {Close: 102},
	}
	candles := &fakeCandles{bars: map[string][]models.Candle{"ETH/5m": bars}}
	e := newTestEngine(t, candles)
	pos := position("ETH", 10, 1000)

	signals := e.Evaluate(context.Background(), pos, quietSnapshot(100))
	if !hasKind(signals, models.SignalImpulse) {
		t.Fatalf("2%% move over the window must fire impulse, got %v", signals)
	}
}

func calmHourly(n int) []models.Candle {
	bars := make([]models.Candle, 0, n)
	for i := 0; i < n; i++ {
		bars = append(bars, models.Candle{Open: 100, High: 100.5, Low: 99.5, Close: 100, Volume: 10})
	}
	return bars
}

func TestDivergenceAgainstReferenceAsset(t *testing.T) {
	candles := &fakeCandles{bars: map[string][]models.Candle{
		"ETH/1h": {{Close: 100, Volume: 10}, {Close: 102, Volume: 10}},
		"BTC/1h": {{Close: 100}, {Close: 98}},
	}}
	e := newTestEngine(t, candles)
	pos := position("ETH", 10, 1000)

	signals := e.Evaluate(context.Background(), pos, quietSnapshot(100))
	if !hasKind(signals, models.SignalDivergence) {
		t.Fatalf("ETH +2%% vs BTC -2%% over 1h must fire divergence, got %v", signals)
	}

	// co-moving assets are not a divergence
	candles.bars["BTC/1h"] = []models.Candle{{Close: 100}, {Close: 102}}
	signals = e.Evaluate(context.Background(), pos, quietSnapshot(100))
	if hasKind(signals, models.SignalDivergence) {
		t.Fatalf("same-direction moves must not fire divergence, got %v", signals)
	}
}

func TestTrendContextFromHourlyEMAs(t *testing.T) {
	up := make([]models.Candle, 0, 60)
	for i := 0; i < 60; i++ {
		c := 100 + float64(i)
		up = append(up, models.Candle{Open: c - 1, High: c + 0.5, Low: c - 1, Close: c, Volume: 10})
	}
	candles := &fakeCandles{bars: map[string][]models.Candle{"ETH/1h": up}}
	e := newTestEngine(t, candles)
	pos := position("ETH", 10, 1000)

	signals := e.Evaluate(context.Background(), pos, quietSnapshot(100))
	if !hasKind(signals, models.SignalTrendContext) {
		t.Fatalf("60 rising hourly closes must label a bullish trend, got %v", signals)
	}

	candles.bars["ETH/1h"] = calmHourly(60)
	signals = e.Evaluate(context.Background(), pos, quietSnapshot(100))
	if hasKind(signals, models.SignalTrendContext) {
		t.Fatalf("flat closes must not produce a trend label, got %v", signals)
	}
}

func TestVolatileBarAgainstATR(t *testing.T) {
	bars := calmHourly(20)
	// ATR(14) over the calm bars is 1; an 11-point bar is far beyond it
	bars[len(bars)-1] = models.Candle{Open: 100, High: 110, Low: 99, Close: 108, Volume: 10}
	candles := &fakeCandles{bars: map[string][]models.Candle{"ETH/1h": bars}}
	e := newTestEngine(t, candles)
	pos := position("ETH", 10, 1000)

	signals := e.Evaluate(context.Background(), pos, quietSnapshot(100))
	if !hasKind(signals, models.SignalVolatileBar) {
		t.Fatalf("bar range 11x ATR must fire, got %v", signals)
	}

	candles.bars["ETH/1h"] = calmHourly(20)
	signals = e.Evaluate(context.Background(), pos, quietSnapshot(100))
	if hasKind(signals, models.SignalVolatileBar) {
		t.Fatalf("calm last bar must not fire, got %v", signals)
	}
}

func TestHourlyVolumeSpikeFromBars(t *testing.T) {
	bars := calmHourly(10)
	bars[len(bars)-1].Volume = 50
	candles := &fakeCandles{bars: map[string][]models.Candle{"ETH/1h": bars}}
	e := newTestEngine(t, candles)
	pos := position("ETH", 10, 1000)

	// snapshot volumes stay zero so only the hourly path can fire
	signals := e.Evaluate(context.Background(), pos, quietSnapshot(100))
	if !hasKind(signals, models.SignalVolumeAnomaly) {
		t.Fatalf("last hour at 5x the trailing mean must fire, got %v", signals)
	}

	bars[len(bars)-1].Volume = 15
	signals = e.Evaluate(context.Background(), pos, quietSnapshot(100))
	if hasKind(signals, models.SignalVolumeAnomaly) {
		t.Fatalf("1.5x the trailing mean must not fire, got %v", signals)
	}
}

func TestAuxSeriesFailureDegradesGracefully(t *testing.T) {
	candles := &fakeCandles{err: context.DeadlineExceeded}
	e := newTestEngine(t, candles)
	pos := position("ETH", 99, 1000)

	signals := e.Evaluate(context.Background(), pos, quietSnapshot(100))
	if !hasKind(signals, models.SignalStopProximity) {
		t.Fatalf("snapshot-only rules must survive aux failures, got %v", signals)
	}
	for _, s := range signals {
		switch s.Kind {
		case models.SignalImpulse, models.SignalTrendContext, models.SignalVolatileBar, models.SignalDivergence:
			t.Fatalf("aux-dependent rule %s fired without data", s.Kind)
		}
	}
}

func TestDedupSuppressesRepeatWithinCooldown(t *testing.T) {
	e := newTestEngine(t, nil)
	base := time.Now()
	e.now = func() time.Time { return base }

	fp := Fingerprint([]models.Signal{{Kind: models.SignalStopProximity}})
	ctx := context.Background()

	if !e.ShouldEmit(ctx, "pos-1", fp) {
		t.Fatal("first batch must be emitted")
	}
	e.now = func() time.Time { return base.Add(5 * time.Minute) }
	if e.ShouldEmit(ctx, "pos-1", fp) {
		t.Fatal("identical fingerprint inside cooldown must be suppressed")
	}

	// suppression must not refresh the timestamp
	e.now = func() time.Time { return base.Add(16 * time.Minute) }
	if !e.ShouldEmit(ctx, "pos-1", fp) {
		t.Fatal("after cooldown the same fingerprint must emit again")
	}
}

func TestDedupChangedFingerprintEmitsImmediately(t *testing.T) {
	e := newTestEngine(t, nil)
	base := time.Now()
	e.now = func() time.Time { return base }
	ctx := context.Background()

	fp1 := Fingerprint([]models.Signal{{Kind: models.SignalStopProximity}})
	fp2 := Fingerprint([]models.Signal{
		{Kind: models.SignalStopProximity},
		{Kind: models.SignalVolumeAnomaly},
	})

	if !e.ShouldEmit(ctx, "pos-1", fp1) {
		t.Fatal("first batch must be emitted")
	}
	e.now = func() time.Time { return base.Add(time.Minute) }
	if !e.ShouldEmit(ctx, "pos-1", fp2) {
		t.Fatal("changed signal composition must re-alert immediately")
	}
}

func TestFingerprintIsOrderIndependent(t *testing.T) {
	a := Fingerprint([]models.Signal{
		{Kind: models.SignalVolumeAnomaly},
		{Kind: models.SignalStopProximity},
	})
	b := Fingerprint([]models.Signal{
		{Kind: models.SignalStopProximity},
		{Kind: models.SignalVolumeAnomaly},
	})
	if a != b {
		t.Fatalf("fingerprints differ: %q vs %q", a, b)
	}
	if a != "stop_proximity,volume_anomaly" {
		t.Fatalf("unexpected fingerprint %q", a)
	}
}
