package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"voicebook/internal/amqp"
	"voicebook/internal/core"
	"voicebook/internal/ledger"
	applog "voicebook/internal/log"
	"voicebook/internal/sheets"
)

// SummaryWorker reacts to ledger change notifications. It holds no ledger
// state of its own: every message triggers a fresh scan of the store.
type SummaryWorker struct {
	store    ledger.Store
	exporter sheets.Exporter
	now      func() time.Time
}

// NewSummaryWorker wires a worker. exporter may be nil to skip the
// spreadsheet mirror.
func NewSummaryWorker(store ledger.Store, exporter sheets.Exporter, now func() time.Time) *SummaryWorker {
	if now == nil {
		now = time.Now
	}
	return &SummaryWorker{store: store, exporter: exporter, now: now}
}

// HandleChange recomputes the summary of the period the change touched
// (the current month when the message names none), logs its share text and
// refreshes the spreadsheet mirror.
func (w *SummaryWorker) HandleChange(ctx context.Context, msg *amqp.LedgerChangeMessage) error {
	records, err := w.store.ScanAll(ctx)
	if err != nil {
		return fmt.Errorf("scan records: %w", err)
	}

	period := msg.Period
	if period == "" {
		period = core.PeriodOf(w.now())
	}
	summary := core.Summarize(records, period)

	slog.InfoContext(ctx, "Ledger summary refreshed",
		applog.FieldComponent, applog.ComponentWorker,
		applog.FieldMessageID, msg.MessageID,
		applog.FieldOperation, msg.Op,
		applog.FieldPeriod, period,
		"records", len(records),
		"share", core.ShareText(summary))

	if w.exporter == nil {
		return nil
	}

	core.SortRecords(records)
	if _, err := w.exporter.Export(ctx, records); err != nil {
		return fmt.Errorf("export to sheets: %w", err)
	}
	return nil
}
