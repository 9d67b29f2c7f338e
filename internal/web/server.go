package web

import (
	"context"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/Akhileshal96/Trident-Trade-Bot-Aura/internal/domain"
	"github.com/Akhileshal96/Trident-Trade-Bot-Aura/internal/usecase"
)

// Server is the local observability surface: Prometheus metrics plus a few
// read-only JSON endpoints over the live ledger and the trade history. It
// never mutates trading state; control stays with Telegram.
type Server struct {
	router    *http.ServeMux
	server    *http.Server
	ledger    *usecase.RiskLedger
	control   domain.Control
	tradeRepo domain.TradeRepository
	logger    *zap.Logger
}

func NewServer(
	port int,
	ledger *usecase.RiskLedger,
	control domain.Control,
	tradeRepo domain.TradeRepository,
	logger *zap.Logger,
) *Server {
	s := &Server{
		router:    http.NewServeMux(),
		ledger:    ledger,
		control:   control,
		tradeRepo: tradeRepo,
		logger:    logger,
	}
	s.routes()
	s.server = &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: s.router,
	}
	return s
}

func (s *Server) routes() {
	// Metrics
	s.router.Handle("GET /metrics", promhttp.Handler())

	// Health
	s.router.HandleFunc("GET /healthz", s.handleHealth)

	// Status
	s.router.HandleFunc("GET /status", s.handleStatus)

	// Trades
	s.router.HandleFunc("GET /api/trades", s.handleTrades)

	// Events
	s.router.HandleFunc("GET /api/events", s.handleEvents)
}

func (s *Server) Start() error {
	s.logger.Info("Starting web server", zap.String("addr", s.server.Addr))
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
