package web

import (
	"encoding/json"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/Akhileshal96/Trident-Trade-Bot-Aura/internal/domain"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

type positionView struct {
	Symbol     string  `json:"symbol"`
	Quantity   int     `json:"quantity"`
	EntryPrice float64 `json:"entry_price"`
	PeakPrice  float64 `json:"peak_price"`
}

type statusView struct {
	Running       bool           `json:"running"`
	DailyPnL      float64        `json:"daily_pnl"`
	GuardBreached bool           `json:"guard_breached"`
	Positions     []positionView `json:"positions"`
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	status := statusView{
		Running:       s.control.IsRunning(),
		DailyPnL:      s.ledger.DailyPnL(),
		GuardBreached: s.ledger.GuardBreached(),
		Positions:     []positionView{},
	}
	for _, symbol := range s.ledger.OpenSymbols() {
		pos, ok := s.ledger.Position(symbol)
		if !ok {
			continue
		}
		status.Positions = append(status.Positions, positionView{
			Symbol:     pos.Symbol,
			Quantity:   pos.Quantity,
			EntryPrice: pos.EntryPrice,
			PeakPrice:  pos.PeakPrice,
		})
	}
	s.writeJSON(w, status)
}

func (s *Server) handleTrades(w http.ResponseWriter, r *http.Request) {
	trades, err := s.tradeRepo.ListTrades(r.Context(), queryLimit(r, 50))
	if err != nil {
		s.logger.Error("Failed to list trades", zap.Error(err))
		http.Error(w, "Failed to list trades", http.StatusInternalServerError)
		return
	}
	if trades == nil {
		trades = []*domain.TradeRecord{}
	}
	s.writeJSON(w, trades)
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	events, err := s.tradeRepo.ListEvents(r.Context(), queryLimit(r, 50))
	if err != nil {
		s.logger.Error("Failed to list events", zap.Error(err))
		http.Error(w, "Failed to list events", http.StatusInternalServerError)
		return
	}
	if events == nil {
		events = []string{}
	}
	s.writeJSON(w, events)
}

func (s *Server) writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("Failed to encode response", zap.Error(err))
	}
}

func queryLimit(r *http.Request, def int) int {
	v := r.URL.Query().Get("limit")
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 {
		return def
	}
	return n
}
