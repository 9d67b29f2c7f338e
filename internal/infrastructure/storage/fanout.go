package storage

import "github.com/Akhileshal96/Trident-Trade-Bot-Aura/internal/domain"

// FanoutSink duplicates audit writes to several sinks (sqlite + CSV).
// Order of writes is preserved per sink; each sink is best-effort on its
// own.
type FanoutSink struct {
	sinks []domain.AuditSink
}

func NewFanoutSink(sinks ...domain.AuditSink) *FanoutSink {
	return &FanoutSink{sinks: sinks}
}

func (f *FanoutSink) RecordEvent(text string) {
	for _, s := range f.sinks {
		s.RecordEvent(text)
	}
}

func (f *FanoutSink) RecordTrade(rec *domain.TradeRecord) {
	for _, s := range f.sinks {
		s.RecordTrade(rec)
	}
}
