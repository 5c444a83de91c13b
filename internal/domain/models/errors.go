package models

import (
	"errors"
	"fmt"
)

var (
	// ErrUnsupportedSymbol means no adapter has a mapping for the symbol.
	// Checked before any network call.
	ErrUnsupportedSymbol = errors.New("symbol not supported")

	// ErrNoData means every adapter failed; callers must treat it as a
	// normal outcome ("no data right now"), not a fault.
	ErrNoData = errors.New("no market data available")

	// ErrInvalidLevelInput rejects non-finite or non-positive inputs to
	// the level calculator.
	ErrInvalidLevelInput = errors.New("invalid level input")

	// ErrZeroPriceRisk guards the position sizing division when the stop
	// equals the entry price.
	ErrZeroPriceRisk = errors.New("stop equals entry, zero price risk")
)

// AdapterErrorKind classifies a provider failure.
type AdapterErrorKind string

const (
	AdapterUnsupported AdapterErrorKind = "unsupported" // symbol not in this adapter's table
	AdapterRateLimited AdapterErrorKind = "rate_limited"
	AdapterGeoBlocked  AdapterErrorKind = "geo_blocked"
	AdapterTransient   AdapterErrorKind = "transient" // network, 5xx, malformed payload
)

// AdapterError is the typed failure of one provider adapter.
type AdapterError struct {
	Provider Provider
	Kind     AdapterErrorKind
	Status   int // HTTP status when one was received, 0 otherwise
	Err      error
}

func (e *AdapterError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s: %s (status %d): %v", e.Provider, e.Kind, e.Status, e.Err)
	}
	return fmt.Sprintf("%s: %s: %v", e.Provider, e.Kind, e.Err)
}

func (e *AdapterError) Unwrap() error { return e.Err }

// NewAdapterError builds an AdapterError, classifying by HTTP status:
// 429 is a rate limit, 451 is a geo block, everything else transient.
func NewAdapterError(provider Provider, status int, err error) *AdapterError {
	kind := AdapterTransient
	switch status {
	case 429:
		kind = AdapterRateLimited
	case 451:
		kind = AdapterGeoBlocked
	}
	return &AdapterError{Provider: provider, Kind: kind, Status: status, Err: err}
}
