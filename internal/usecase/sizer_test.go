package usecase

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBalanceSizer(t *testing.T) {
	s := BalanceSizer{}

	assert.Equal(t, 10, s.Quantity(1000, 100))
	assert.Equal(t, 10, s.Quantity(1050, 100)) // fractional shares floored
	assert.Equal(t, 1, s.Quantity(100, 100))
	assert.Equal(t, 0, s.Quantity(99, 100)) // cannot afford one share
	assert.Equal(t, 0, s.Quantity(1000, 0))
	assert.Equal(t, 0, s.Quantity(1000, -1))
}

func TestFixedCapitalSizer(t *testing.T) {
	s := FixedCapitalSizer{Capital: 100000, RiskPct: 0.01, StopLossPct: 0.01}

	// capital*riskPct / (price*stopPct) = 1000/1 = 1000, capped by balance.
	assert.Equal(t, 1000, s.Quantity(200000, 100))
	assert.Equal(t, 500, s.Quantity(50000, 100))
	assert.Equal(t, 0, s.Quantity(50, 100))

	s.StopLossPct = 0
	assert.Equal(t, 0, s.Quantity(200000, 100))
}

func TestNewSizer(t *testing.T) {
	s, err := NewSizer("", 0, 0, 0)
	require.NoError(t, err)
	assert.IsType(t, BalanceSizer{}, s)

	s, err = NewSizer("balance", 0, 0, 0)
	require.NoError(t, err)
	assert.IsType(t, BalanceSizer{}, s)

	s, err = NewSizer("fixed_capital", 100000, 0.01, 0.01)
	require.NoError(t, err)
	assert.IsType(t, FixedCapitalSizer{}, s)

	_, err = NewSizer("fixed_capital", 0, 0.01, 0.01)
	assert.Error(t, err)

	_, err = NewSizer("martingale", 0, 0, 0)
	assert.Error(t, err)
}
