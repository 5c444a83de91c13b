package ratelimit

import "testing"

func TestAllowConsumesTokens(t *testing.T) {
	l := New(2, 0.0001)
	if !l.Allow("binance") {
		t.Fatal("first call should be allowed")
	}
	if !l.Allow("binance") {
		t.Fatal("second call should be allowed")
	}
	if l.Allow("binance") {
		t.Fatal("third call should be throttled")
	}
}

func TestKeysAreIndependent(t *testing.T) {
	l := New(1, 0.0001)
	if !l.Allow("binance") {
		t.Fatal("binance should be allowed")
	}
	if !l.Allow("coingecko") {
		t.Fatal("coingecko has its own bucket")
	}
	if l.Allow("binance") {
		t.Fatal("binance bucket should be empty")
	}
}
