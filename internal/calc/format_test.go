package calc

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCurrency(t *testing.T) {
	assert.Equal(t, "1,234.57", Currency(1234.5678))
	assert.Equal(t, "0.00", Currency(0))
	assert.Equal(t, "-1,050.00", Currency(-1050))
	assert.Equal(t, "999.99", Currency(999.994))
}

func TestPercent(t *testing.T) {
	assert.Equal(t, "12.35%", Percent(12.346))
	assert.Equal(t, "0.00%", Percent(0))
	assert.Equal(t, "-2.38%", Percent(-2.381))
}

func TestRound(t *testing.T) {
	assert.InDelta(t, 12.35, Round(12.346, 2), 1e-9)
	assert.InDelta(t, 12.0, Round(12.346, 0), 1e-9)
	assert.InDelta(t, -2.38, Round(-2.381, 2), 1e-9)
}
