package usecase

import (
	"fmt"
	"math"
)

// Sizer decides the whole-share quantity for a new entry. Returning 0
// skips the entry entirely.
type Sizer interface {
	Quantity(balance, price float64) int
}

// BalanceSizer spends the whole available balance on a single symbol:
// floor(balance/price), minimum 1 share once the balance covers at least
// one share. The default policy.
type BalanceSizer struct{}

func (BalanceSizer) Quantity(balance, price float64) int {
	if price <= 0 || balance < price {
		return 0
	}
	qty := int(math.Floor(balance / price))
	if qty < 1 {
		qty = 1
	}
	return qty
}

// FixedCapitalSizer risks a fixed fraction of a capital pool per trade,
// scaled by the hard-stop distance: qty = capital*riskPct / (price*stopPct).
// Still capped by the available balance.
type FixedCapitalSizer struct {
	Capital     float64
	RiskPct     float64
	StopLossPct float64
}

func (s FixedCapitalSizer) Quantity(balance, price float64) int {
	if price <= 0 || balance < price {
		return 0
	}
	if s.StopLossPct <= 0 {
		return 0
	}
	qty := int(math.Floor(s.Capital * s.RiskPct / (price * s.StopLossPct)))
	if max := int(math.Floor(balance / price)); qty > max {
		qty = max
	}
	if qty < 0 {
		qty = 0
	}
	return qty
}

// NewSizer builds the configured sizing policy.
func NewSizer(policy string, capital, riskPct, stopLossPct float64) (Sizer, error) {
	switch policy {
	case "", "balance":
		return BalanceSizer{}, nil
	case "fixed_capital":
		if capital <= 0 || riskPct <= 0 {
			return nil, fmt.Errorf("fixed_capital sizing requires positive capital and risk_pct")
		}
		return FixedCapitalSizer{Capital: capital, RiskPct: riskPct, StopLossPct: stopLossPct}, nil
	default:
		return nil, fmt.Errorf("unknown sizing policy %q", policy)
	}
}
