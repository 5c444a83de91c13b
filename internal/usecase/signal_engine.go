package usecase

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"CoinSentry/internal/domain/models"
	drepo "CoinSentry/internal/domain/repository"
	"CoinSentry/internal/services/analytics"
	xlogger "CoinSentry/pkg/logger"
)

// SignalConfig holds the engine thresholds. Zero values are replaced
// with the defaults from pkg/config.
type SignalConfig struct {
	StopProximityPct float64
	TPProximityPct   float64
	VolumeMult       float64
	HourlyVolumeMult float64
	HourlyVolumeZ    float64
	Change24hPct     float64
	ImpulsePct       float64
	ImpulseWindow    time.Duration
	ATRMult          float64
	ATRPeriod        int
	DivergencePct    float64
	Cooldown         time.Duration
	ReferenceAsset   string
}

// SignalEngine evaluates a position against a market snapshot and
// auxiliary series, producing alert signals, and gates repeat batches
// through a cooldown dedup store.
type SignalEngine struct {
	candles drepo.CandleSource
	window  drepo.TickWindow
	dedup   drepo.DedupStore
	log     *xlogger.Logger
	cfg     SignalConfig

	now func() time.Time
}

// NewSignalEngine creates a signal engine. window may be nil; the
// impulse rule then falls back to 5m klines.
func NewSignalEngine(candles drepo.CandleSource, window drepo.TickWindow, dedup drepo.DedupStore, cfg SignalConfig, log *xlogger.Logger) *SignalEngine {
	return &SignalEngine{
		candles: candles,
		window:  window,
		dedup:   dedup,
		log:     log,
		cfg:     cfg,
		now:     time.Now,
	}
}

// Evaluate runs every rule against (position, snapshot). Rules are
// independent; several may fire at once. A failure to obtain an
// auxiliary series skips the rules that need it instead of failing
// the evaluation.
func (e *SignalEngine) Evaluate(ctx context.Context, pos *models.Position, snap *models.MarketSnapshot) []models.Signal {
	if pos == nil || snap == nil || snap.Price <= 0 {
		return nil
	}
	price := snap.Price
	signals := make([]models.Signal, 0, 4)

	if s := e.stopProximity(pos, price); s != nil {
		signals = append(signals, *s)
	}
	if s := e.tpProximity(pos, price); s != nil {
		signals = append(signals, *s)
	}
	if s := e.change24h(snap); s != nil {
		signals = append(signals, *s)
	}
	if s := e.breakouts(snap); s != nil {
		signals = append(signals, *s)
	}

	hourly := e.hourlyBars(ctx, pos.Symbol)
	if s := e.volumeAnomaly(snap, hourly); s != nil {
		signals = append(signals, *s)
	}
	if s := e.trendContext(hourly); s != nil {
		signals = append(signals, *s)
	}
	if s := e.volatileBar(hourly); s != nil {
		signals = append(signals, *s)
	}
	if s := e.divergence(ctx, pos.Symbol, hourly); s != nil {
		signals = append(signals, *s)
	}
	if s := e.impulse(ctx, pos.Symbol); s != nil {
		signals = append(signals, *s)
	}

	return signals
}

// Fingerprint is the sorted set of fired kinds joined deterministically.
func Fingerprint(signals []models.Signal) string {
	kinds := make([]string, 0, len(signals))
	for _, s := range signals {
		kinds = append(kinds, string(s.Kind))
	}
	sort.Strings(kinds)
	return strings.Join(kinds, ",")
}

// ShouldEmit decides whether a batch with the given fingerprint may go
// out for the position. An identical fingerprint inside the cooldown
// suppresses the batch and leaves the stored timestamp untouched, so a
// position stuck at a threshold stays quiet for the full window.
func (e *SignalEngine) ShouldEmit(ctx context.Context, positionID, fingerprint string) bool {
	rec, err := e.dedup.Get(ctx, positionID)
	if err != nil {
		e.log.Warn("dedup read failed", xlogger.String("position", positionID), xlogger.Error(err))
		// fail open: better a repeat alert than a swallowed one
		rec = nil
	}

	now := e.now()
	if rec != nil && rec.Fingerprint == fingerprint && now.Sub(rec.EmittedAt) < e.cfg.Cooldown {
		return false
	}

	if err := e.dedup.Put(ctx, positionID, &models.DedupRecord{Fingerprint: fingerprint, EmittedAt: now}); err != nil {
		e.log.Warn("dedup write failed", xlogger.String("position", positionID), xlogger.Error(err))
	}
	return true
}

// --- rules ---

func (e *SignalEngine) stopProximity(pos *models.Position, price float64) *models.Signal {
	if pos.StopLoss <= 0 {
		return nil
	}
	dist := math.Abs(price-pos.StopLoss) / pos.StopLoss * 100
	if dist >= e.cfg.StopProximityPct {
		return nil
	}
	return &models.Signal{
		Kind:    models.SignalStopProximity,
		Message: fmt.Sprintf("price %.6g is %.2f%% away from stop loss %.6g", price, dist, pos.StopLoss),
	}
}

func (e *SignalEngine) tpProximity(pos *models.Position, price float64) *models.Signal {
	if pos.TakeProfit <= 0 {
		return nil
	}
	dist := math.Abs(price-pos.TakeProfit) / pos.TakeProfit * 100
	if dist >= e.cfg.TPProximityPct {
		return nil
	}
	return &models.Signal{
		Kind:    models.SignalTakeProfit,
		Message: fmt.Sprintf("price %.6g is %.2f%% away from take profit %.6g, consider taking profit", price, dist, pos.TakeProfit),
	}
}

func (e *SignalEngine) change24h(snap *models.MarketSnapshot) *models.Signal {
	if math.Abs(snap.Change24h) <= e.cfg.Change24hPct {
		return nil
	}
	dir := "up"
	if snap.Change24h < 0 {
		dir = "down"
	}
	return &models.Signal{
		Kind:    models.SignalVolatility,
		Message: fmt.Sprintf("%s %.2f%% in 24h", dir, math.Abs(snap.Change24h)),
	}
}

func (e *SignalEngine) breakouts(snap *models.MarketSnapshot) *models.Signal {
	if snap.Resistance > 0 && snap.Price > snap.Resistance {
		return &models.Signal{
			Kind:    models.SignalBreakout,
			Message: fmt.Sprintf("price %.6g broke above weekly resistance %.6g", snap.Price, snap.Resistance),
		}
	}
	if snap.Support > 0 && snap.Price < snap.Support {
		return &models.Signal{
			Kind:    models.SignalBreakdown,
			Message: fmt.Sprintf("price %.6g broke below weekly support %.6g", snap.Price, snap.Support),
		}
	}
	return nil
}

// volumeAnomaly fires on the day-scale ratio or, when hourly bars are
// available, on the last hour's volume versus its trailing window.
// A zero average disables the day-scale check instead of satisfying it
// vacuously.
func (e *SignalEngine) volumeAnomaly(snap *models.MarketSnapshot, hourly []models.Candle) *models.Signal {
	if snap.AvgVolume > 0 && snap.Volume24h > snap.AvgVolume*e.cfg.VolumeMult {
		return &models.Signal{
			Kind:    models.SignalVolumeAnomaly,
			Message: fmt.Sprintf("24h volume %.3g is %.1fx the weekly average", snap.Volume24h, snap.Volume24h/snap.AvgVolume),
		}
	}

	if len(hourly) < 8 {
		return nil
	}
	vols := make([]float64, 0, len(hourly))
	for _, b := range hourly {
		vols = append(vols, b.Volume)
	}
	last := vols[len(vols)-1]
	trailing := vols[:len(vols)-1]
	mean := analytics.Mean(trailing)
	if mean > 0 && last > mean*e.cfg.HourlyVolumeMult {
		return &models.Signal{
			Kind:    models.SignalVolumeAnomaly,
			Message: fmt.Sprintf("hourly volume %.3g is %.1fx the trailing mean", last, last/mean),
		}
	}
	if z := analytics.ZScore(last, trailing); z > e.cfg.HourlyVolumeZ {
		return &models.Signal{
			Kind:    models.SignalVolumeAnomaly,
			Message: fmt.Sprintf("hourly volume z-score %.2f", z),
		}
	}
	return nil
}

// trendContext labels the hourly EMA(20)/EMA(50) relation, gated on the
// last close sitting on the same side as EMA(20).
func (e *SignalEngine) trendContext(hourly []models.Candle) *models.Signal {
	if len(hourly) < 50 {
		return nil
	}
	closes := make([]float64, 0, len(hourly))
	for _, b := range hourly {
		closes = append(closes, b.Close)
	}
	ema20 := analytics.EMA(closes, 20)
	ema50 := analytics.EMA(closes, 50)
	last := closes[len(closes)-1]
	e20 := ema20[len(ema20)-1]
	e50 := ema50[len(ema50)-1]

	switch {
	case e20 > e50 && last > e20:
		return &models.Signal{
			Kind:    models.SignalTrendContext,
			Message: "hourly trend bullish: EMA20 above EMA50, price above EMA20",
		}
	case e20 < e50 && last < e20:
		return &models.Signal{
			Kind:    models.SignalTrendContext,
			Message: "hourly trend bearish: EMA20 below EMA50, price below EMA20",
		}
	}
	return nil
}

func (e *SignalEngine) volatileBar(hourly []models.Candle) *models.Signal {
	if len(hourly) < e.cfg.ATRPeriod+2 {
		return nil
	}
	prev := hourly[:len(hourly)-1]
	atr, ok := analytics.ATR(prev, e.cfg.ATRPeriod)
	if !ok || atr <= 0 {
		return nil
	}
	lastBar := hourly[len(hourly)-1]
	tr := analytics.TrueRange(lastBar, prev[len(prev)-1].Close)
	if tr <= atr*e.cfg.ATRMult {
		return nil
	}
	return &models.Signal{
		Kind:    models.SignalVolatileBar,
		Message: fmt.Sprintf("current bar range is %.1fx ATR(%d), consider tightening stop", tr/atr, e.cfg.ATRPeriod),
	}
}

// divergence compares the symbol's and the reference asset's 1h
// returns; opposite signs beyond the threshold each fire the signal.
func (e *SignalEngine) divergence(ctx context.Context, symbol string, hourly []models.Candle) *models.Signal {
	ref := e.cfg.ReferenceAsset
	if ref == "" || e.candles == nil || strings.EqualFold(symbol, ref) || len(hourly) < 2 {
		return nil
	}
	symRet := hourlyReturn(hourly)

	refBars, err := e.candles.Klines(ctx, ref, "1h", 2)
	if err != nil || len(refBars) < 2 {
		return nil
	}
	refRet := hourlyReturn(refBars)

	th := e.cfg.DivergencePct
	if (symRet >= th && refRet <= -th) || (symRet <= -th && refRet >= th) {
		return &models.Signal{
			Kind:    models.SignalDivergence,
			Message: fmt.Sprintf("%s moved %.2f%% while %s moved %.2f%% over 1h", symbol, symRet, ref, refRet),
		}
	}
	return nil
}

// impulse measures the percent change over the short trailing window,
// preferring the live stream and falling back to 5m bars.
func (e *SignalEngine) impulse(ctx context.Context, symbol string) *models.Signal {
	seconds := int64(e.cfg.ImpulseWindow / time.Second)

	var prices []float64
	if e.window != nil {
		if ws, ok := e.window.Window(symbol, seconds); ok && len(ws) >= 2 {
			prices = ws
		}
	}
	if prices == nil {
		if e.candles == nil {
			return nil
		}
		limit := int(e.cfg.ImpulseWindow/(5*time.Minute)) + 1
		if limit < 2 {
			limit = 2
		}
		bars, err := e.candles.Klines(ctx, symbol, "5m", limit)
		if err != nil || len(bars) < 2 {
			return nil
		}
		prices = make([]float64, 0, len(bars))
		for _, b := range bars {
			prices = append(prices, b.Close)
		}
	}

	first, last := prices[0], prices[len(prices)-1]
	if first <= 0 {
		return nil
	}
	change := (last - first) / first * 100
	if math.Abs(change) <= e.cfg.ImpulsePct {
		return nil
	}
	return &models.Signal{
		Kind:    models.SignalImpulse,
		Message: fmt.Sprintf("impulse %+.2f%% over %s", change, e.cfg.ImpulseWindow),
	}
}

func (e *SignalEngine) hourlyBars(ctx context.Context, symbol string) []models.Candle {
	if e.candles == nil {
		return nil
	}
	bars, err := e.candles.Klines(ctx, symbol, "1h", 60)
	if err != nil {
		e.log.Debug("hourly series unavailable",
			xlogger.String("symbol", symbol),
			xlogger.Error(err))
		return nil
	}
	return bars
}

func hourlyReturn(bars []models.Candle) float64 {
	prev := bars[len(bars)-2].Close
	last := bars[len(bars)-1].Close
	if prev <= 0 {
		return 0
	}
	return (last - prev) / prev * 100
}
