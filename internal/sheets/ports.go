package sheets

import (
	"context"

	"ledgerbot/internal/core"
)

// Ports for outbound report targets.
type (
	// ReportWriter appends one month's category breakdown to an external
	// report destination.
	ReportWriter interface {
		AppendMonthlyReport(ctx context.Context, yearMonth string, totals []core.CategoryTotal) error
	}
)
