package rules

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProgress_NoGoal(t *testing.T) {
	for _, goal := range []float64{0, -1, -5000, math.NaN(), math.Inf(1)} {
		for _, current := range []float64{0, 10, 1e9} {
			p := Progress(current, goal)
			assert.False(t, p.HasValidGoal)
			assert.Zero(t, p.Percentage)
		}
	}
}

func TestProgress_Clamped(t *testing.T) {
	assert.Equal(t, 100.0, Progress(10000, 10000).Percentage)
	assert.Equal(t, 100.0, Progress(25000, 10000).Percentage)
}

func TestProgress_NegativeFundingIsZero(t *testing.T) {
	p := Progress(-50, 1000)
	assert.True(t, p.HasValidGoal)
	assert.Zero(t, p.Percentage)
}

func TestProgress_Monotonic(t *testing.T) {
	const goal = 7300
	prev := -1.0
	for current := 0.0; current <= 9000; current += 137 {
		p := Progress(current, goal).Percentage
		assert.GreaterOrEqual(t, p, prev)
		prev = p
	}
}
