package utils

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRoundTo(t *testing.T) {
	tests := []struct {
		x      float64
		places int
		want   float64
	}{
		{120.18750, 1, 120.2},
		{117.45383, 1, 117.5},
		{0.51246, 3, 0.512},
		{0.0005, 3, 0.001},
		{2.675, 2, 2.67},
		{0.25, 1, 0.2},
		{0.35, 1, 0.3},
		{1.0, 3, 1.0},
		{-0.00001, 3, 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, RoundTo(tt.x, tt.places), "RoundTo(%v, %d)", tt.x, tt.places)
	}
}

func TestRoundToNonFinite(t *testing.T) {
	assert.True(t, math.IsNaN(RoundTo(math.NaN(), 1)))
	assert.True(t, math.IsInf(RoundTo(math.Inf(1), 1), 1))
}

func TestRoundAll(t *testing.T) {
	in := []float64{0.01161, 0.51083, 1.00998}
	got := RoundAll(in, 3)
	assert.Equal(t, []float64{0.012, 0.511, 1.01}, got)
	assert.Equal(t, 0.01161, in[0], "input must not be modified")
	assert.Empty(t, RoundAll(nil, 3))
}
