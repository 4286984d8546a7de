package grading

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAccumulate(t *testing.T) {
	tests := []struct {
		name  string
		total float64
		delta int
		want  float64
	}{
		{name: "zero", want: 0},
		{name: "one hour", delta: 60, want: 1},
		{name: "adds to total", total: 1.5, delta: 30, want: 2},
		{name: "negative delta", total: 1, delta: -30, want: 0.5},
		{name: "clamped at zero", total: 0.5, delta: -120, want: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, Accumulate(tt.total, tt.delta), 1e-9)
		})
	}
}

func TestCreditsForHours(t *testing.T) {
	tests := []struct {
		name  string
		hours float64
		hpc   float64
		want  float64
	}{
		{name: "full credit at threshold", hours: 120, hpc: 120, want: 1},
		{name: "above threshold", hours: 500, hpc: 120, want: 1},
		{name: "half at threshold", hours: 60, hpc: 120, want: 0.5},
		{name: "just under full", hours: 119.99, hpc: 120, want: 0.5},
		{name: "quarter at threshold", hours: 30, hpc: 120, want: 0.25},
		{name: "just under half", hours: 59.99, hpc: 120, want: 0.25},
		{name: "under quarter", hours: 29.99, hpc: 120, want: 0},
		{name: "nothing studied", hours: 0, hpc: 120, want: 0},
		{name: "small hpc", hours: 2, hpc: 1, want: 1},
		{name: "invalid hpc", hours: 10, hpc: 0, want: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CreditsForHours(tt.hours, tt.hpc))
		})
	}
}

func TestCreditsForHours_monotonic(t *testing.T) {
	for _, hpc := range []float64{1, 7.5, 120, 180} {
		prev := CreditsForHours(0, hpc)
		for h := 0.0; h <= hpc*1.5; h += hpc / 40 {
			got := CreditsForHours(h, hpc)
			assert.GreaterOrEqual(t, got, prev, "h=%v hpc=%v", h, hpc)
			prev = got
		}
	}
}

func TestRound2(t *testing.T) {
	assert.Equal(t, 3.33, Round2(10.0/3))
	assert.Equal(t, 2.67, Round2(8.0/3))
	assert.Equal(t, 0.0, Round2(0))
	assert.Equal(t, 4.0, Round2(3.999))
}

func TestClamp(t *testing.T) {
	assert.Equal(t, 100.0, Clamp(150))
	assert.Equal(t, 0.0, Clamp(-20))
	assert.Equal(t, 42.5, Clamp(42.5))
	assert.Equal(t, 0.0, Clamp(math.NaN()))
	assert.Equal(t, 100.0, Clamp(math.Inf(1)))
}
