package analytics

import (
	"math"

	"CoinSentry/internal/domain/models"
)

const (
	// DefaultRiskPercent is the flat risk-percent stop distance.
	DefaultRiskPercent = 4.0

	// volBufferCoeff scales the volatility-aware buffer below support
	// (above resistance for shorts).
	volBufferCoeff = 0.4

	// rewardRiskRatio is the minimum reward:risk enforced on take-profit.
	rewardRiskRatio = 2.0
)

// OptimalLevels derives stop-loss and take-profit from the entry, the
// direction, and a fresh snapshot.
//
// Long: stop = min(support − entry·(vol/100)·0.4, entry·(1 − risk/100)),
// take = max(resistance, entry + (entry − stop)·2). The min keeps the stop
// at or below both candidates; with a far support this selects the looser
// of the two, which follows the source formula as-is (see DESIGN.md).
// Short is the mirror image. The returned RiskPercent is the realized
// |stop − entry| / entry · 100, which can exceed the requested one when
// the support/resistance candidate dominates.
//
// Rejects non-finite or non-positive entry, unknown direction, non-finite
// snapshot levels, and a computed stop that is not positive.
func OptimalLevels(entry float64, direction models.Direction, snap *models.MarketSnapshot, riskPercent float64) (*models.Levels, error) {
	if snap == nil || !direction.Valid() {
		return nil, models.ErrInvalidLevelInput
	}
	if !isFinite(entry) || entry <= 0 {
		return nil, models.ErrInvalidLevelInput
	}
	if !isFinite(riskPercent) || riskPercent <= 0 || riskPercent >= 100 {
		return nil, models.ErrInvalidLevelInput
	}
	if !isFinite(snap.Support) || !isFinite(snap.Resistance) || !isFinite(snap.Volatility) {
		return nil, models.ErrInvalidLevelInput
	}

	volBuffer := entry * (snap.Volatility / 100) * volBufferCoeff

	var stop, take float64
	switch direction {
	case models.DirectionLong:
		stop = math.Min(snap.Support-volBuffer, entry*(1-riskPercent/100))
		take = math.Max(snap.Resistance, entry+(entry-stop)*rewardRiskRatio)
	case models.DirectionShort:
		stop = math.Max(snap.Resistance+volBuffer, entry*(1+riskPercent/100))
		take = math.Min(snap.Support, entry-(stop-entry)*rewardRiskRatio)
	}

	if stop <= 0 || take <= 0 {
		return nil, models.ErrInvalidLevelInput
	}

	return &models.Levels{
		StopLoss:    stop,
		TakeProfit:  take,
		RiskPercent: math.Abs(stop-entry) / entry * 100,
	}, nil
}

// PositionSize derives the quantity to trade from the deposit, the entry
// and the stop so that hitting the stop loses riskPercent of the deposit.
func PositionSize(deposit, entry, stopLoss, riskPercent float64) (*models.PositionSize, error) {
	if !isFinite(deposit) || deposit <= 0 || !isFinite(entry) || entry <= 0 || !isFinite(stopLoss) || stopLoss <= 0 {
		return nil, models.ErrInvalidLevelInput
	}
	if !isFinite(riskPercent) || riskPercent <= 0 || riskPercent >= 100 {
		return nil, models.ErrInvalidLevelInput
	}

	riskAmount := deposit * riskPercent / 100
	priceRisk := math.Abs(entry - stopLoss)
	if priceRisk == 0 {
		return nil, models.ErrZeroPriceRisk
	}

	positionValue := riskAmount / (priceRisk / entry)
	return &models.PositionSize{
		Quantity:      positionValue / entry,
		PositionValue: positionValue,
		RiskAmount:    riskAmount,
	}, nil
}
