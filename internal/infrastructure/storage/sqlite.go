package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/Akhileshal96/Trident-Trade-Bot-Aura/internal/domain"
)

// SQLiteStore is the append-only audit trail: closed trades and event
// lines. It implements domain.AuditSink (best-effort writes, errors are
// logged and swallowed) and domain.TradeRepository (read-back for the
// tradelog utility and the remote /log, /trades commands).
type SQLiteStore struct {
	db  *sql.DB
	log *zap.Logger
}

func NewSQLiteStore(dbPath string, log *zap.Logger) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}

	store := &SQLiteStore{db: db, log: log}
	if err := store.initSchema(); err != nil {
		return nil, err
	}
	return store, nil
}

func (s *SQLiteStore) initSchema() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS trades (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			symbol TEXT NOT NULL,
			quantity INTEGER NOT NULL,
			side TEXT NOT NULL,
			entry_price REAL NOT NULL,
			exit_price REAL NOT NULL,
			realized_pnl REAL NOT NULL,
			approved BOOLEAN NOT NULL,
			regime TEXT NOT NULL,
			reason TEXT NOT NULL,
			closed_at DATETIME NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_trades_symbol ON trades(symbol);`,
		`CREATE TABLE IF NOT EXISTS events (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			message TEXT NOT NULL,
			created_at DATETIME NOT NULL
		);`,
	}

	for _, q := range queries {
		if _, err := s.db.Exec(q); err != nil {
			return fmt.Errorf("failed to exec query %s: %w", q, err)
		}
	}
	return nil
}

// --- AuditSink ---

func (s *SQLiteStore) RecordEvent(text string) {
	_, err := s.db.Exec(`INSERT INTO events (message, created_at) VALUES (?, ?)`,
		text, time.Now())
	if err != nil {
		s.log.Warn("failed to record event", zap.Error(err))
	}
}

func (s *SQLiteStore) RecordTrade(rec *domain.TradeRecord) {
	_, err := s.db.Exec(
		`INSERT INTO trades (symbol, quantity, side, entry_price, exit_price, realized_pnl, approved, regime, reason, closed_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.Symbol, rec.Quantity, string(rec.Side), rec.EntryPrice, rec.ExitPrice,
		rec.RealizedPnL, rec.Approved, string(rec.Regime), rec.Reason, rec.ClosedAt)
	if err != nil {
		s.log.Warn("failed to record trade", zap.String("symbol", rec.Symbol), zap.Error(err))
	}
}

// --- TradeRepository ---

func (s *SQLiteStore) ListTrades(ctx context.Context, limit int) ([]*domain.TradeRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, symbol, quantity, side, entry_price, exit_price, realized_pnl, approved, regime, reason, closed_at
		 FROM trades ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var trades []*domain.TradeRecord
	for rows.Next() {
		var rec domain.TradeRecord
		var side, regime string
		if err := rows.Scan(&rec.ID, &rec.Symbol, &rec.Quantity, &side, &rec.EntryPrice,
			&rec.ExitPrice, &rec.RealizedPnL, &rec.Approved, &regime, &rec.Reason, &rec.ClosedAt); err != nil {
			return nil, err
		}
		rec.Side = domain.Side(side)
		rec.Regime = domain.MarketRegime(regime)
		trades = append(trades, &rec)
	}
	return trades, rows.Err()
}

func (s *SQLiteStore) ListEvents(ctx context.Context, limit int) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT message, created_at FROM events ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []string
	for rows.Next() {
		var msg string
		var at time.Time
		if err := rows.Scan(&msg, &at); err != nil {
			return nil, err
		}
		events = append(events, fmt.Sprintf("[%s] %s", at.Format("2006-01-02 15:04:05"), msg))
	}
	return events, rows.Err()
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
