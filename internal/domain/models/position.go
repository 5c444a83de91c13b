package models

import "time"

// Direction of a tracked trade.
type Direction string

const (
	DirectionLong  Direction = "long"
	DirectionShort Direction = "short"
)

// Valid reports whether d is a known direction.
func (d Direction) Valid() bool {
	return d == DirectionLong || d == DirectionShort
}

// Position is a user's tracked trade. StopLoss and TakeProfit are set once
// at creation by the level calculator and never change afterwards. Closing
// flips IsActive; closed positions stay in the store but are excluded from
// monitoring and P&L views.
type Position struct {
	ID         string     `json:"id"`
	OwnerID    string     `json:"owner_id"`
	Symbol     string     `json:"symbol"`
	Direction  Direction  `json:"direction"`
	EntryPrice float64    `json:"entry_price"`
	StopLoss   float64    `json:"stop_loss"`
	TakeProfit float64    `json:"take_profit"`
	Quantity   float64    `json:"quantity"`
	IsActive   bool       `json:"is_active"`
	CreatedAt  time.Time  `json:"created_at"`
	ClosedAt   *time.Time `json:"closed_at,omitempty"`
}

// PnL returns the unrealized profit for the position at the given price,
// in quote currency and as a percentage of entry.
func (p *Position) PnL(price float64) (amount, percent float64) {
	if p.EntryPrice <= 0 {
		return 0, 0
	}
	diff := price - p.EntryPrice
	if p.Direction == DirectionShort {
		diff = -diff
	}
	return diff * p.Quantity, diff / p.EntryPrice * 100
}

// Levels is the level calculator's output for one entry.
type Levels struct {
	StopLoss    float64 `json:"stop_loss"`
	TakeProfit  float64 `json:"take_profit"`
	RiskPercent float64 `json:"risk_percent"` // realized |stop-entry|/entry*100
}

// PositionSize is the sizing calculator's output.
type PositionSize struct {
	Quantity      float64 `json:"quantity"`
	PositionValue float64 `json:"position_value"`
	RiskAmount    float64 `json:"risk_amount"`
}
