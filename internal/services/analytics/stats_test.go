package analytics

import (
	"math"
	"testing"

	"CoinSentry/internal/domain/models"
)

func TestMeanAndStdDev(t *testing.T) {
	xs := []float64{2, 4, 4, 4, 5, 5, 7, 9}
	if got := Mean(xs); got != 5 {
		t.Fatalf("Mean = %v, want 5", got)
	}
	if got := StdDev(xs); got != 2 {
		t.Fatalf("StdDev = %v, want 2", got)
	}
}

func TestMeanEmptySeries(t *testing.T) {
	if got := Mean(nil); got != 0 {
		t.Fatalf("Mean(nil) = %v, want 0", got)
	}
	if got := StdDev(nil); got != 0 {
		t.Fatalf("StdDev(nil) = %v, want 0", got)
	}
}

func TestAnnualizedVolatilityConstantSeries(t *testing.T) {
	prices := []float64{100, 100, 100, 100}
	if got := AnnualizedVolatility(prices); got != 0 {
		t.Fatalf("volatility of constant series = %v, want 0", got)
	}
}

func TestAnnualizedVolatilityFiniteNonNegative(t *testing.T) {
	prices := []float64{100, 102, 99, 105, 101, 103}
	v := AnnualizedVolatility(prices)
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		t.Fatalf("volatility = %v, want finite >= 0", v)
	}
	if v == 0 {
		t.Fatal("volatility of a moving series should be positive")
	}
}

func TestAnnualizedVolatilityExactValue(t *testing.T) {
	// Single 1% return: sqrt(0.0001) * sqrt(365) * 100
	prices := []float64{100, 101}
	want := 0.01 * math.Sqrt(365) * 100
	got := AnnualizedVolatility(prices)
	if math.Abs(got-want) > 1e-9 {
		t.Fatalf("volatility = %v, want %v", got, want)
	}
}

func TestAnnualizedVolatilitySkipsNonPositivePrev(t *testing.T) {
	// Transitions from 0 are skipped; only the 100->101 return counts.
	prices := []float64{0, 100, 101}
	want := 0.01 * math.Sqrt(365) * 100
	got := AnnualizedVolatility(prices)
	if math.Abs(got-want) > 1e-9 {
		t.Fatalf("volatility = %v, want %v", got, want)
	}
}

func TestAnnualizedVolatilityTooShort(t *testing.T) {
	if got := AnnualizedVolatility([]float64{100}); got != 0 {
		t.Fatalf("volatility of single point = %v, want 0", got)
	}
}

func TestEMASeedAndLength(t *testing.T) {
	xs := []float64{10, 11, 12, 13, 14}
	out := EMA(xs, 3)
	if len(out) != len(xs) {
		t.Fatalf("EMA length = %d, want %d", len(out), len(xs))
	}
	if out[0] != xs[0] {
		t.Fatalf("EMA[0] = %v, want %v", out[0], xs[0])
	}
	// k = 2/(3+1) = 0.5; out[1] = 11*0.5 + 10*0.5 = 10.5
	if out[1] != 10.5 {
		t.Fatalf("EMA[1] = %v, want 10.5", out[1])
	}
}

func TestATRShortSeries(t *testing.T) {
	bars := []models.Candle{
		{High: 10, Low: 9, Close: 9.5},
		{High: 11, Low: 9.5, Close: 10.5},
	}
	if _, ok := ATR(bars, 14); ok {
		t.Fatal("ATR should be undefined for fewer than period+1 bars")
	}
}

func TestATRPositiveForRealisticSeries(t *testing.T) {
	bars := make([]models.Candle, 0, 20)
	price := 100.0
	for i := 0; i < 20; i++ {
		bars = append(bars, models.Candle{
			Open:  price,
			High:  price + 2,
			Low:   price - 2,
			Close: price + 1,
		})
		price += 1
	}
	atr, ok := ATR(bars, 14)
	if !ok {
		t.Fatal("expected defined ATR")
	}
	if math.IsNaN(atr) || atr <= 0 {
		t.Fatalf("ATR = %v, want finite > 0", atr)
	}
}

func TestTrueRangeUsesPrevClose(t *testing.T) {
	bar := models.Candle{High: 105, Low: 103, Close: 104}
	// Gap up from prevClose 100: TR = |105-100| = 5, not 2.
	if got := TrueRange(bar, 100); got != 5 {
		t.Fatalf("TrueRange = %v, want 5", got)
	}
}

func TestZScoreZeroStdDev(t *testing.T) {
	series := []float64{5, 5, 5}
	if got := ZScore(9, series); got != 0 {
		t.Fatalf("ZScore with zero stddev = %v, want 0", got)
	}
}

func TestZScoreValue(t *testing.T) {
	series := []float64{2, 4, 4, 4, 5, 5, 7, 9} // mean 5, stddev 2
	if got := ZScore(9, series); got != 2 {
		t.Fatalf("ZScore = %v, want 2", got)
	}
}

func TestSnapshotFromSeries(t *testing.T) {
	prices := []float64{90, 95, 100, 110, 105}
	volumes := []float64{1000, 2000, 3000}
	snap := SnapshotFromSeries(models.ProviderBinance, "BTC", prices, volumes, 105, 2.5, 4000)
	if snap == nil {
		t.Fatal("expected snapshot")
	}
	if snap.High7d != 110 || snap.Low7d != 90 {
		t.Fatalf("high/low = %v/%v, want 110/90", snap.High7d, snap.Low7d)
	}
	if snap.Support != 90*1.02 {
		t.Fatalf("support = %v, want %v", snap.Support, 90*1.02)
	}
	if snap.Resistance != 110*0.98 {
		t.Fatalf("resistance = %v, want %v", snap.Resistance, 110*0.98)
	}
	if snap.AvgVolume != 2000 {
		t.Fatalf("avgVolume = %v, want 2000", snap.AvgVolume)
	}
}

func TestSnapshotFromSeriesEmpty(t *testing.T) {
	if snap := SnapshotFromSeries(models.ProviderCoinGecko, "BTC", nil, nil, 1, 0, 0); snap != nil {
		t.Fatal("expected nil snapshot for empty series")
	}
}
