package services

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"chengdumed/internal/domain"
	"chengdumed/internal/metrics"
)

const (
	exportBatchSize = 100
	// exportClaimLease is how long a claim blocks other exporters before an
	// exporter that died mid-flush loses it
	exportClaimLease = 5 * time.Minute
)

// ExportQueue is the outbox of inquiries waiting for the export log
type ExportQueue interface {
	ClaimExports(ctx context.Context, owner string, limit int, now time.Time, lease time.Duration) ([]domain.InquiryExport, error)
	ReleaseExports(ctx context.Context, owner string) error
	MarkExported(ctx context.Context, taskID uint, at time.Time) error
	RecordExportFailure(ctx context.Context, taskID uint, cause error) error
	CountPendingExports(ctx context.Context) (int64, error)
}

// ExportWriter appends one inquiry to the export log
type ExportWriter interface {
	Append(inquiry *domain.Inquiry) error
}

// Exporter moves outbox entries into the export log in inquiry order.
// Only one flush runs at a time per exporter, and entries are claimed in the
// store first, so exporters in separate processes never append the same
// entry. Delivery is at-least-once: a crash between the append and the
// outbox update repeats the row once the claim lease runs out.
type Exporter struct {
	owner  string
	queue  ExportQueue
	writer ExportWriter
	log    *zap.SugaredLogger
	mu     sync.Mutex
}

// NewExporter creates a new exporter
func NewExporter(queue ExportQueue, writer ExportWriter, log *zap.SugaredLogger) *Exporter {
	return &Exporter{
		owner:  uuid.NewString(),
		queue:  queue,
		writer: writer,
		log:    log,
	}
}

// Flush appends every pending inquiry and returns how many were written.
// It stops at the first append failure, which is recorded on the entry.
func (e *Exporter) Flush(ctx context.Context) (int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	defer e.updateBacklog(ctx)

	exported := 0
	for {
		tasks, err := e.queue.ClaimExports(ctx, e.owner, exportBatchSize, time.Now(), exportClaimLease)
		if err != nil {
			return exported, err
		}
		if len(tasks) == 0 {
			return exported, nil
		}

		for i := range tasks {
			task := &tasks[i]

			if task.Inquiry.ID == 0 {
				e.log.Warnf("Export skipped: entry id=%d has no inquiry id=%d", task.ID, task.InquiryID)
			} else if err := e.writer.Append(&task.Inquiry); err != nil {
				metrics.RecordInquiryExport(false)
				if recErr := e.queue.RecordExportFailure(ctx, task.ID, err); recErr != nil {
					e.log.Warnf("Export failure for inquiry id=%d not recorded: %v", task.InquiryID, recErr)
				}
				e.release(ctx)
				return exported, err
			} else {
				metrics.RecordInquiryExport(true)
				exported++
			}

			if err := e.queue.MarkExported(ctx, task.ID, time.Now()); err != nil {
				e.release(ctx)
				return exported, err
			}
		}
	}
}

// Run flushes immediately and then on every tick until ctx is cancelled
func (e *Exporter) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	e.log.Infof("Export worker started: interval=%v", interval)
	for {
		if n, err := e.Flush(ctx); err != nil {
			if ctx.Err() == nil {
				e.log.Warnf("Export retry failed after %d rows: %v", n, err)
			}
		} else if n > 0 {
			e.log.Infof("Export worker appended %d pending inquiries", n)
		}

		select {
		case <-ctx.Done():
			e.log.Info("Export worker stopped")
			return
		case <-ticker.C:
		}
	}
}

// release hands unprocessed claims back so the next flush, here or in
// another process, can retry them without waiting for the lease
func (e *Exporter) release(ctx context.Context) {
	if err := e.queue.ReleaseExports(ctx, e.owner); err != nil {
		e.log.Warnf("Export claims of %s not released: %v", e.owner, err)
	}
}

func (e *Exporter) updateBacklog(ctx context.Context) {
	if n, err := e.queue.CountPendingExports(ctx); err == nil {
		metrics.SetPendingExports(n)
	}
}
