package domain

import "errors"

var (
	// ErrInvalidState marks a ledger contract violation: opening a symbol
	// that already has a position, or closing one that has none. Callers
	// must treat it as a logic error, not retry it.
	ErrInvalidState = errors.New("invalid position state")

	// ErrDataUnavailable marks a missing quote or a price series too short
	// for indicator computation. Recovered locally: the symbol is skipped
	// for the cycle.
	ErrDataUnavailable = errors.New("market data unavailable")
)
