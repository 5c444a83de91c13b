package stream

import (
	"sync"
	"time"

	"CoinSentry/internal/domain/models"
)

type point struct {
	price float64
	at    int64 // unix seconds
}

// PriceWindow keeps a trailing window of live prices per symbol. It is
// the impulse detector's view of the stream.
type PriceWindow struct {
	mu        sync.RWMutex
	retention int64 // seconds
	points    map[string][]point
	now       func() time.Time
}

// NewPriceWindow creates a window retaining ticks for the given duration.
func NewPriceWindow(retention time.Duration) *PriceWindow {
	if retention <= 0 {
		retention = 35 * time.Minute
	}
	return &PriceWindow{
		retention: int64(retention / time.Second),
		points:    make(map[string][]point),
		now:       time.Now,
	}
}

// Add records one tick and prunes anything past retention.
func (w *PriceWindow) Add(t *models.Tick) {
	if t == nil || t.Price <= 0 {
		return
	}
	at := t.Timestamp
	if at <= 0 {
		at = w.now().Unix()
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	pts := append(w.points[t.Symbol], point{price: t.Price, at: at})
	cutoff := w.now().Unix() - w.retention
	start := 0
	for start < len(pts) && pts[start].at < cutoff {
		start++
	}
	w.points[t.Symbol] = pts[start:]
}

// Window returns prices for symbol within the trailing duration, oldest
// first. ok is false when no tick falls inside the window.
func (w *PriceWindow) Window(symbol string, seconds int64) ([]float64, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()

	pts := w.points[symbol]
	if len(pts) == 0 {
		return nil, false
	}

	cutoff := w.now().Unix() - seconds
	out := make([]float64, 0, len(pts))
	for _, p := range pts {
		if p.at >= cutoff {
			out = append(out, p.price)
		}
	}
	if len(out) == 0 {
		return nil, false
	}
	return out, true
}
