package domain

type SignalAction string

const (
	ActionNone SignalAction = "NONE"
	ActionBuy  SignalAction = "BUY"
	ActionSell SignalAction = "SELL"
)

// Signal is a trade intent produced by the signal generator.
// Score is the conviction: the number of indicator conditions that fired
// for the winning direction (0 when Action is NONE).
type Signal struct {
	Symbol    string
	Action    SignalAction
	Score     int
	Rationale string
}
