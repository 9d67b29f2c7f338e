package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	CyclesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "bot_cycles_total", Help: "Completed decision cycles"})
	SignalsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "bot_signals_total", Help: "Signals emitted by action"}, []string{"action"})
	OrdersPlaced = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "bot_orders_placed_total", Help: "Orders successfully handed to the broker"})
	OrdersFailed = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "bot_orders_failed_total", Help: "Order placements that errored"})
	OrdersSuppressed = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "bot_orders_suppressed_total", Help: "Entries blocked by guards, approval veto or sizing"})
	ForcedCloses = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "bot_forced_closes_total", Help: "Positions closed by the end-of-session rule"})
	DailyPnL = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "bot_daily_pnl", Help: "Realized P&L accumulated this session"})
	OpenPositions = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "bot_open_positions", Help: "Currently open positions"})
	LastPrice = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "bot_last_price", Help: "Last traded price per symbol"}, []string{"symbol"})
)

func init() {
	prometheus.MustRegister(
		CyclesTotal, SignalsTotal,
		OrdersPlaced, OrdersFailed, OrdersSuppressed, ForcedCloses,
		DailyPnL, OpenPositions, LastPrice,
	)
}
