package util

import (
	"math"
	"testing"
)

func TestRound(t *testing.T) {
	cases := []struct {
		in       float64
		decimals int
		want     float64
	}{
		{1.5, 0, 2},
		{123.4567, 2, 123.46},
		{-2.346, 2, -2.35},
		{math.NaN(), 2, 0},
		{math.Inf(1), 2, 0},
	}
	for _, c := range cases {
		if got := Round(c.in, c.decimals); got != c.want {
			t.Errorf("Round(%v, %d) = %v, want %v", c.in, c.decimals, got, c.want)
		}
	}
}

func TestFormatUSD(t *testing.T) {
	cases := []struct {
		in       float64
		decimals int
		want     string
	}{
		{1234567.891, 2, "1,234,567.89"},
		{999, 0, "999"},
		{1000, 0, "1,000"},
		{-4521.5, 2, "-4,521.50"},
		{0.42, 2, "0.42"},
	}
	for _, c := range cases {
		if got := FormatUSD(c.in, c.decimals); got != c.want {
			t.Errorf("FormatUSD(%v, %d) = %q, want %q", c.in, c.decimals, got, c.want)
		}
	}
}

func TestFormatPct(t *testing.T) {
	if got := FormatPct(3.456, 2); got != "+3.46%" {
		t.Errorf("got %q", got)
	}
	if got := FormatPct(-8.1, 2); got != "-8.10%" {
		t.Errorf("got %q", got)
	}
}
