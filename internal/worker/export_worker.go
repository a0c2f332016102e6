package worker

import (
	"context"
	"fmt"
	"log/slog"

	"ledgerbot/internal/core"
	"ledgerbot/internal/gateway"
	"ledgerbot/internal/ledger"
	"ledgerbot/internal/sheets"
)

// ExportWorker publishes monthly category reports to an external target.
// Requests arrive over AMQP; a periodic pass re-exports the current month as
// a backup in case messages are lost.
type ExportWorker struct {
	store  ledger.OperationStore
	target sheets.ReportWriter
}

func NewExportWorker(store ledger.OperationStore, target sheets.ReportWriter) *ExportWorker {
	return &ExportWorker{store: store, target: target}
}

// HandleReportRequest processes a single report request message.
func (w *ExportWorker) HandleReportRequest(ctx context.Context, msg *gateway.ReportRequestMessage) error {
	slog.InfoContext(ctx, "Processing report request",
		"message_id", msg.MessageID,
		"year_month", msg.YearMonth)
	return w.Export(ctx, msg.YearMonth)
}

// Export reads the month's category totals and writes them to the target.
func (w *ExportWorker) Export(ctx context.Context, yearMonth string) error {
	totals, err := w.store.MonthlyCategoryStats(ctx, yearMonth)
	if err != nil {
		return fmt.Errorf("monthly category stats: %w", err)
	}

	if err := w.target.AppendMonthlyReport(ctx, yearMonth, totals); err != nil {
		return fmt.Errorf("append monthly report: %w", err)
	}

	slog.InfoContext(ctx, "Monthly report exported",
		"year_month", yearMonth,
		"rows", len(totals))
	return nil
}

// ExportCurrentMonth is the periodic backup pass.
func (w *ExportWorker) ExportCurrentMonth(ctx context.Context) error {
	return w.Export(ctx, core.Today().YearMonth())
}
