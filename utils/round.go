package utils

import (
	"math"
	"strconv"
)

// RoundTo rounds x to the given number of decimal places using the correctly
// rounded decimal expansion of x, so 2.675 (stored as 2.67499...) becomes
// 2.67 rather than 2.68. Non-finite values are returned unchanged.
func RoundTo(x float64, places int) float64 {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return x
	}
	v, err := strconv.ParseFloat(strconv.FormatFloat(x, 'f', places, 64), 64)
	if err != nil {
		return x
	}
	if v == 0 {
		// drop negative zero
		return 0
	}
	return v
}

func RoundAll(xs []float64, places int) []float64 {
	out := make([]float64, len(xs))
	for i, x := range xs {
		out[i] = RoundTo(x, places)
	}
	return out
}
