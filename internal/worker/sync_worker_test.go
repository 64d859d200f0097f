package worker

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"fintrack/internal/amqp"
	"fintrack/internal/core"
	"fintrack/internal/sheets/memory"
	"fintrack/internal/storage"
)

func newWorkerFixture(t *testing.T) (*SyncWorker, *storage.SQLiteRepository, *memory.Store) {
	t.Helper()
	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("NewSQLiteRepository() error: %v", err)
	}
	t.Cleanup(func() { repo.Close() })

	mirror := memory.New()
	return NewSyncWorker(repo, mirror, mirror, 10), repo, mirror
}

func seedTransaction(t *testing.T, repo *storage.SQLiteRepository) core.Transaction {
	t.Helper()
	ctx := context.Background()
	user, err := repo.CreateUser(ctx, "mario", "mario@example.com", "hash")
	if err != nil {
		t.Fatalf("CreateUser() error: %v", err)
	}
	tx, err := repo.CreateTransaction(ctx, core.Transaction{
		UserID:   user.ID,
		Amount:   core.Money{Cents: 1500},
		Category: core.DefaultCategory,
		Type:     core.Expense,
	})
	if err != nil {
		t.Fatalf("CreateTransaction() error: %v", err)
	}
	return tx
}

func TestHandleSyncMessage(t *testing.T) {
	w, repo, mirror := newWorkerFixture(t)
	ctx := context.Background()
	tx := seedTransaction(t, repo)

	if err := w.HandleMessage(ctx, amqp.NewTransactionSyncMessage(tx.ID)); err != nil {
		t.Fatalf("HandleMessage(sync) error: %v", err)
	}
	if !mirror.Has(tx.ID) {
		t.Error("transaction was not mirrored")
	}

	pending, err := repo.GetPendingSync(ctx, 10)
	if err != nil {
		t.Fatalf("GetPendingSync() error: %v", err)
	}
	if len(pending) != 0 {
		t.Errorf("still %d pending after sync, want 0", len(pending))
	}
}

func TestHandleSyncMessageVanishedTransaction(t *testing.T) {
	w, _, mirror := newWorkerFixture(t)

	// Deleted before the worker got to it: drop, don't requeue.
	if err := w.HandleMessage(context.Background(), amqp.NewTransactionSyncMessage(999)); err != nil {
		t.Errorf("HandleMessage(missing) error = %v, want nil", err)
	}
	if mirror.Len() != 0 {
		t.Error("mirror gained an entry for a missing transaction")
	}
}

func TestHandleDeleteMessage(t *testing.T) {
	w, repo, mirror := newWorkerFixture(t)
	ctx := context.Background()
	tx := seedTransaction(t, repo)

	if err := w.HandleMessage(ctx, amqp.NewTransactionSyncMessage(tx.ID)); err != nil {
		t.Fatalf("HandleMessage(sync) error: %v", err)
	}
	if err := w.HandleMessage(ctx, amqp.NewTransactionDeleteMessage(tx.ID)); err != nil {
		t.Fatalf("HandleMessage(delete) error: %v", err)
	}
	if mirror.Has(tx.ID) {
		t.Error("transaction still mirrored after delete")
	}
}

func TestSyncFailureMarksError(t *testing.T) {
	w, repo, mirror := newWorkerFixture(t)
	ctx := context.Background()
	tx := seedTransaction(t, repo)

	mirror.FailAppends(errors.New("quota exceeded"))

	if err := w.HandleMessage(ctx, amqp.NewTransactionSyncMessage(tx.ID)); err == nil {
		t.Fatal("HandleMessage(sync) succeeded despite append failure")
	}

	// The row must leave the pending state so the periodic scan does not
	// spin on it.
	pending, err := repo.GetPendingSync(ctx, 10)
	if err != nil {
		t.Fatalf("GetPendingSync() error: %v", err)
	}
	if len(pending) != 0 {
		t.Errorf("row still pending after sync error, want error state")
	}
}

func TestProcessPending(t *testing.T) {
	w, repo, mirror := newWorkerFixture(t)
	ctx := context.Background()

	user, err := repo.CreateUser(ctx, "mario", "mario@example.com", "hash")
	if err != nil {
		t.Fatalf("CreateUser() error: %v", err)
	}
	for i := 0; i < 3; i++ {
		if _, err := repo.CreateTransaction(ctx, core.Transaction{
			UserID:   user.ID,
			Amount:   core.Money{Cents: int64(100 * (i + 1))},
			Category: core.DefaultCategory,
			Type:     core.Income,
		}); err != nil {
			t.Fatalf("CreateTransaction() error: %v", err)
		}
	}

	if err := w.ProcessPending(ctx); err != nil {
		t.Fatalf("ProcessPending() error: %v", err)
	}
	if mirror.Len() != 3 {
		t.Errorf("mirrored %d transactions, want 3", mirror.Len())
	}

	pending, err := repo.GetPendingSync(ctx, 10)
	if err != nil {
		t.Fatalf("GetPendingSync() error: %v", err)
	}
	if len(pending) != 0 {
		t.Errorf("%d rows still pending, want 0", len(pending))
	}
}
