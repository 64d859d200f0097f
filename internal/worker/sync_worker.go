package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"fintrack/internal/amqp"
	"fintrack/internal/core"
	"fintrack/internal/sheets"
	"fintrack/internal/storage"
)

// SyncWorker mirrors transactions from SQLite to the external sheet. It
// reacts to queue messages and periodically re-scans for pending rows so a
// lost message never loses data.
type SyncWorker struct {
	storage   *storage.SQLiteRepository
	writer    sheets.TransactionWriter
	deleter   sheets.TransactionDeleter
	batchSize int
}

func NewSyncWorker(storage *storage.SQLiteRepository, writer sheets.TransactionWriter, deleter sheets.TransactionDeleter, batchSize int) *SyncWorker {
	return &SyncWorker{
		storage:   storage,
		writer:    writer,
		deleter:   deleter,
		batchSize: batchSize,
	}
}

// HandleMessage processes a single queue message.
func (w *SyncWorker) HandleMessage(ctx context.Context, msg *amqp.TransactionMessage) error {
	switch msg.Action {
	case amqp.ActionSync:
		return w.handleSync(ctx, msg.ID)
	case amqp.ActionDelete:
		return w.handleDelete(ctx, msg.ID)
	default:
		slog.WarnContext(ctx, "Dropping message with unknown action",
			"action", msg.Action, "id", msg.ID)
		return nil
	}
}

func (w *SyncWorker) handleSync(ctx context.Context, id int64) error {
	t, err := w.storage.GetTransaction(ctx, id)
	if errors.Is(err, core.ErrTransactionNotFound) {
		// Deleted between publish and consume. Nothing to mirror.
		slog.WarnContext(ctx, "Transaction vanished before sync, dropping message", "id", id)
		return nil
	}
	if err != nil {
		return fmt.Errorf("get transaction from storage: %w", err)
	}

	return w.syncToSheet(ctx, t)
}

func (w *SyncWorker) handleDelete(ctx context.Context, id int64) error {
	if w.deleter == nil {
		slog.WarnContext(ctx, "No sheet deleter configured, skipping delete", "id", id)
		return nil
	}

	if err := w.deleter.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete transaction from sheet: %w", err)
	}

	slog.InfoContext(ctx, "Deleted transaction from sheet", "id", id)
	return nil
}

// ProcessPending syncs rows still in the pending state. This is the
// safety net for messages the broker lost.
func (w *SyncWorker) ProcessPending(ctx context.Context) error {
	return w.processPendingBatch(ctx, w.batchSize)
}

// StartupSyncCheck drains a larger pending backlog once at boot, covering
// worker downtime.
func (w *SyncWorker) StartupSyncCheck(ctx context.Context) error {
	return w.processPendingBatch(ctx, w.batchSize*5)
}

func (w *SyncWorker) processPendingBatch(ctx context.Context, limit int) error {
	pending, err := w.storage.GetPendingSync(ctx, limit)
	if err != nil {
		return fmt.Errorf("get pending transactions: %w", err)
	}
	if len(pending) == 0 {
		return nil
	}

	slog.InfoContext(ctx, "Processing pending transactions", "count", len(pending))

	synced := 0
	for _, t := range pending {
		if err := w.syncToSheet(ctx, t); err != nil {
			slog.ErrorContext(ctx, "Failed to sync transaction",
				"id", t.ID, "error", err)
			continue
		}
		synced++
	}

	slog.InfoContext(ctx, "Pending sync batch completed",
		"total", len(pending), "synced", synced)
	return nil
}

// RunPeriodic re-scans for pending rows every interval until the context
// ends.
func (w *SyncWorker) RunPeriodic(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := w.ProcessPending(ctx); err != nil {
				slog.ErrorContext(ctx, "Periodic pending sync failed", "error", err)
			}
		}
	}
}

func (w *SyncWorker) syncToSheet(ctx context.Context, t core.Transaction) error {
	ref, err := w.writer.Append(ctx, t)
	if err != nil {
		if markErr := w.storage.MarkSyncError(ctx, t.ID); markErr != nil {
			slog.ErrorContext(ctx, "Failed to mark sync error", "id", t.ID, "error", markErr)
		}
		return fmt.Errorf("append to sheet: %w", err)
	}

	if err := w.storage.MarkSynced(ctx, t.ID); err != nil {
		// The mirror succeeded; a failed mark only means one extra append
		// attempt later.
		slog.ErrorContext(ctx, "Failed to mark as synced", "id", t.ID, "error", err)
	}

	slog.InfoContext(ctx, "Synced transaction to sheet",
		"id", t.ID,
		"sheets_ref", ref,
		"amount_cents", t.Amount.Cents)
	return nil
}
