package analytics

import (
	"math"

	"CoinSentry/internal/domain/models"
)

// Series statistics over price/volume sequences. All functions are pure
// and deterministic; empty-series behavior: Mean and StdDev return 0.

// Mean returns the arithmetic mean of xs, 0 for an empty slice.
func Mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	sum := 0.0
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

// StdDev returns the population standard deviation of xs, 0 for an empty
// slice.
func StdDev(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	m := Mean(xs)
	sum := 0.0
	for _, x := range xs {
		d := x - m
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(xs)))
}

// HighLow returns the maximum and minimum of xs. ok is false for an empty
// slice.
func HighLow(xs []float64) (high, low float64, ok bool) {
	if len(xs) == 0 {
		return 0, 0, false
	}
	high, low = xs[0], xs[0]
	for _, x := range xs[1:] {
		if x > high {
			high = x
		}
		if x < low {
			low = x
		}
	}
	return high, low, true
}

// AnnualizedVolatility computes volatility from simple returns. Returns
// are taken only across transitions where the previous price is positive
// and the ratio is finite; variance is the mean of squared returns around
// zero (not mean-centered), matching the dispersion-of-returns
// approximation. Result is sqrt(variance) * sqrt(365) * 100. Fewer than
// two points, or an empty filtered return set, yields 0.
func AnnualizedVolatility(prices []float64) float64 {
	if len(prices) < 2 {
		return 0
	}
	var sumSq float64
	var n int
	for i := 1; i < len(prices); i++ {
		prev := prices[i-1]
		if prev <= 0 {
			continue
		}
		r := (prices[i] - prev) / prev
		if !isFinite(r) {
			continue
		}
		sumSq += r * r
		n++
	}
	if n == 0 {
		return 0
	}
	return math.Sqrt(sumSq/float64(n)) * math.Sqrt(365) * 100
}

// EMA computes the exponential moving average with smoothing
// k = 2/(period+1), seeded with the first element. Output length equals
// input length; out[0] == xs[0].
func EMA(xs []float64, period int) []float64 {
	if len(xs) == 0 {
		return nil
	}
	out := make([]float64, len(xs))
	k := 2.0 / (float64(period) + 1.0)
	out[0] = xs[0]
	for i := 1; i < len(xs); i++ {
		out[i] = xs[i]*k + out[i-1]*(1-k)
	}
	return out
}

// TrueRange returns the true range of a bar against the previous close.
func TrueRange(bar models.Candle, prevClose float64) float64 {
	tr := bar.High - bar.Low
	if hc := math.Abs(bar.High - prevClose); hc > tr {
		tr = hc
	}
	if lc := math.Abs(bar.Low - prevClose); lc > tr {
		tr = lc
	}
	return tr
}

// ATR computes the average true range as the EMA of the true-range series
// over period. It needs at least period+1 bars; ok is false otherwise.
func ATR(bars []models.Candle, period int) (atr float64, ok bool) {
	if period <= 0 || len(bars) < period+1 {
		return 0, false
	}
	trs := make([]float64, 0, len(bars)-1)
	for i := 1; i < len(bars); i++ {
		trs = append(trs, TrueRange(bars[i], bars[i-1].Close))
	}
	ema := EMA(trs, period)
	return ema[len(ema)-1], true
}

// ZScore returns (x - mean) / stddev over series, 0 when the deviation
// is 0.
func ZScore(x float64, series []float64) float64 {
	sd := StdDev(series)
	if sd == 0 {
		return 0
	}
	return (x - Mean(series)) / sd
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
