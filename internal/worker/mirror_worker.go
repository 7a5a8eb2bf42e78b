package worker

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"receipts/internal/amqp"
	"receipts/internal/cache"
	"receipts/internal/sheets"
)

// MirrorStats counts processed report messages.
type MirrorStats struct {
	Mirrored   int64
	Duplicates int64
	Failed     int64
}

// ReportMirrorWorker writes exported reports received from AMQP into the
// configured mirror.
type ReportMirrorWorker struct {
	writer sheets.ReportWriter
	// IDs of messages already mirrored, so a redelivery after a lost ack
	// does not rewrite the tab.
	seen *cache.LRUCache[string]

	mirrored   atomic.Int64
	duplicates atomic.Int64
	failed     atomic.Int64
}

func NewReportMirrorWorker(writer sheets.ReportWriter, seen *cache.LRUCache[string]) *ReportMirrorWorker {
	if seen == nil {
		seen = cache.NewLRUCache[string](256, time.Hour)
	}
	return &ReportMirrorWorker{writer: writer, seen: seen}
}

// HandleReportMessage mirrors a single report. A returned error makes the
// consumer requeue the message.
func (w *ReportMirrorWorker) HandleReportMessage(ctx context.Context, msg *amqp.ReportExportedMessage) error {
	if ref, ok := w.seen.Get(msg.ID); ok {
		w.duplicates.Add(1)
		slog.InfoContext(ctx, "Report already mirrored, skipping",
			"id", msg.ID,
			"sheets_ref", ref)
		return nil
	}

	slog.InfoContext(ctx, "Processing report message",
		"id", msg.ID,
		"file_name", msg.FileName,
		"reporting_currency", msg.Currency,
		"rows", len(msg.Report.Rows),
		"generated_at", msg.GeneratedAt)

	ref, err := w.writer.WriteReport(ctx, msg.SheetTitle(), msg.Report)
	if err != nil {
		w.failed.Add(1)
		return fmt.Errorf("mirror report %s: %w", msg.FileName, err)
	}

	w.seen.Set(msg.ID, ref)
	w.mirrored.Add(1)
	slog.InfoContext(ctx, "Successfully mirrored report",
		"id", msg.ID,
		"sheets_ref", ref,
		"total", msg.Report.Total)
	return nil
}

func (w *ReportMirrorWorker) Stats() MirrorStats {
	return MirrorStats{
		Mirrored:   w.mirrored.Load(),
		Duplicates: w.duplicates.Load(),
		Failed:     w.failed.Load(),
	}
}
