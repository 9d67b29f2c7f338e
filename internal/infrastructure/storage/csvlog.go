package storage

import (
	"encoding/csv"
	"fmt"
	"os"
	"sync"

	"go.uber.org/zap"

	"github.com/Akhileshal96/Trident-Trade-Bot-Aura/internal/domain"
)

// CSVTradeLog appends closed trades to a CSV file, writing the header the
// first time the file is created. Events are ignored; it only audits
// trades. Best-effort like every AuditSink.
type CSVTradeLog struct {
	path string
	log  *zap.Logger
	mu   sync.Mutex
}

func NewCSVTradeLog(path string, log *zap.Logger) *CSVTradeLog {
	return &CSVTradeLog{path: path, log: log}
}

func (c *CSVTradeLog) RecordEvent(string) {}

func (c *CSVTradeLog) RecordTrade(rec *domain.TradeRecord) {
	c.mu.Lock()
	defer c.mu.Unlock()

	f, err := os.OpenFile(c.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		c.log.Warn("failed to open trade log", zap.String("path", c.path), zap.Error(err))
		return
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if info, err := f.Stat(); err == nil && info.Size() == 0 {
		_ = w.Write([]string{"Time", "Symbol", "Qty", "Side", "Entry", "Exit", "PnL", "Reason", "Regime", "Approved"})
	}
	_ = w.Write([]string{
		rec.ClosedAt.Format("2006-01-02 15:04:05"),
		rec.Symbol,
		fmt.Sprintf("%d", rec.Quantity),
		string(rec.Side),
		fmt.Sprintf("%.2f", rec.EntryPrice),
		fmt.Sprintf("%.2f", rec.ExitPrice),
		fmt.Sprintf("%.2f", rec.RealizedPnL),
		rec.Reason,
		string(rec.Regime),
		fmt.Sprintf("%t", rec.Approved),
	})
	w.Flush()
	if err := w.Error(); err != nil {
		c.log.Warn("failed to append trade log", zap.Error(err))
	}
}
