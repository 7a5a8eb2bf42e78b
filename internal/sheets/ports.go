package sheets

import (
	"context"

	"receipts/internal/core"
)

// Ports for outbound adapters.
type (
	// ReportWriter mirrors an exported report into a named tab, replacing any
	// previous content of that tab.
	ReportWriter interface {
		WriteReport(ctx context.Context, title string, r core.Report) (ref string, err error)
	}
)
