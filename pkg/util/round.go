package util

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Round rounds value to the given number of decimals. Non-finite
// values round to 0 so they never leak into rendered messages.
func Round(value float64, decimals int) float64 {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return 0
	}
	d := math.Pow(10, float64(decimals))
	return math.Round(value*d) / d
}

// FormatUSD renders a dollar amount with thousands separators, e.g.
// 1234567.891 with 2 decimals becomes "1,234,567.89".
func FormatUSD(value float64, decimals int) string {
	v := Round(value, decimals)
	neg := v < 0
	if neg {
		v = -v
	}

	s := strconv.FormatFloat(v, 'f', decimals, 64)
	intPart, fracPart, _ := strings.Cut(s, ".")

	var b strings.Builder
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}

	out := b.String()
	if fracPart != "" {
		out += "." + fracPart
	}
	if neg {
		out = "-" + out
	}
	return out
}

// FormatPct renders a percentage with a leading sign.
func FormatPct(value float64, decimals int) string {
	return fmt.Sprintf("%+.*f%%", decimals, Round(value, decimals))
}
