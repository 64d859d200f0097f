package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"fintrack/internal/core"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("NewSQLiteRepository() error: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func createTestUser(t *testing.T, repo *SQLiteRepository, username, email string) core.User {
	t.Helper()
	user, err := repo.CreateUser(context.Background(), username, email, "hash-"+username)
	if err != nil {
		t.Fatalf("CreateUser(%s) error: %v", username, err)
	}
	return user
}

func createTestTransaction(t *testing.T, repo *SQLiteRepository, userID int64, cents int64, txType core.TransactionType) core.Transaction {
	t.Helper()
	tx, err := repo.CreateTransaction(context.Background(), core.Transaction{
		UserID:   userID,
		Amount:   core.Money{Cents: cents},
		Category: core.DefaultCategory,
		Type:     txType,
	})
	if err != nil {
		t.Fatalf("CreateTransaction() error: %v", err)
	}
	return tx
}

func TestCreateUserAndLookup(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	user := createTestUser(t, repo, "mario", "mario@example.com")
	if user.ID == 0 {
		t.Fatal("CreateUser() returned zero ID")
	}

	byUsername, err := repo.GetUserByIdentifier(ctx, "mario")
	if err != nil {
		t.Fatalf("GetUserByIdentifier(username) error: %v", err)
	}
	if byUsername.ID != user.ID {
		t.Errorf("lookup by username returned ID %d, want %d", byUsername.ID, user.ID)
	}

	byEmail, err := repo.GetUserByIdentifier(ctx, "mario@example.com")
	if err != nil {
		t.Fatalf("GetUserByIdentifier(email) error: %v", err)
	}
	if byEmail.ID != user.ID {
		t.Errorf("lookup by email returned ID %d, want %d", byEmail.ID, user.ID)
	}

	if _, err := repo.GetUserByIdentifier(ctx, "nobody"); !errors.Is(err, core.ErrUserNotFound) {
		t.Errorf("GetUserByIdentifier(missing) error = %v, want ErrUserNotFound", err)
	}
}

func TestCreateUserDuplicates(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	createTestUser(t, repo, "mario", "mario@example.com")

	if _, err := repo.CreateUser(ctx, "mario", "other@example.com", "h"); !errors.Is(err, core.ErrDuplicateIdentity) {
		t.Errorf("duplicate username error = %v, want ErrDuplicateIdentity", err)
	}
	if _, err := repo.CreateUser(ctx, "other", "mario@example.com", "h"); !errors.Is(err, core.ErrDuplicateIdentity) {
		t.Errorf("duplicate email error = %v, want ErrDuplicateIdentity", err)
	}
}

func TestCreateAndListTransactions(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	user := createTestUser(t, repo, "mario", "mario@example.com")
	other := createTestUser(t, repo, "luigi", "luigi@example.com")

	createTestTransaction(t, repo, user.ID, 10000, core.Income)
	createTestTransaction(t, repo, user.ID, 4000, core.Expense)
	createTestTransaction(t, repo, user.ID, 1000, core.Expense)
	createTestTransaction(t, repo, other.ID, 99900, core.Income)

	all, err := repo.ListTransactions(ctx, user.ID, "")
	if err != nil {
		t.Fatalf("ListTransactions(all) error: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("ListTransactions(all) returned %d rows, want 3", len(all))
	}
	// Newest first: the 1000-cent expense was inserted last.
	if all[0].Amount.Cents != 1000 {
		t.Errorf("first transaction cents = %d, want 1000 (newest first)", all[0].Amount.Cents)
	}

	expenses, err := repo.ListTransactions(ctx, user.ID, core.Expense)
	if err != nil {
		t.Fatalf("ListTransactions(expense) error: %v", err)
	}
	if len(expenses) != 2 {
		t.Errorf("ListTransactions(expense) returned %d rows, want 2", len(expenses))
	}
	for _, tx := range expenses {
		if tx.Type != core.Expense {
			t.Errorf("expense filter returned type %q", tx.Type)
		}
	}
}

func TestDeleteTransactionOwnership(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	owner := createTestUser(t, repo, "mario", "mario@example.com")
	intruder := createTestUser(t, repo, "waluigi", "waluigi@example.com")
	tx := createTestTransaction(t, repo, owner.ID, 500, core.Expense)

	if err := repo.DeleteTransaction(ctx, intruder.ID, tx.ID); !errors.Is(err, core.ErrNotOwner) {
		t.Errorf("delete by non-owner error = %v, want ErrNotOwner", err)
	}

	if err := repo.DeleteTransaction(ctx, owner.ID, tx.ID); err != nil {
		t.Fatalf("delete by owner error: %v", err)
	}

	if err := repo.DeleteTransaction(ctx, owner.ID, tx.ID); !errors.Is(err, core.ErrTransactionNotFound) {
		t.Errorf("delete of missing transaction error = %v, want ErrTransactionNotFound", err)
	}

	remaining, err := repo.ListTransactions(ctx, owner.ID, "")
	if err != nil {
		t.Fatalf("ListTransactions() error: %v", err)
	}
	if len(remaining) != 0 {
		t.Errorf("owner still has %d transactions after delete", len(remaining))
	}
}

func TestSummarize(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	user := createTestUser(t, repo, "mario", "mario@example.com")
	createTestTransaction(t, repo, user.ID, 10000, core.Income)
	createTestTransaction(t, repo, user.ID, 4000, core.Expense)
	createTestTransaction(t, repo, user.ID, 1000, core.Expense)

	s, err := repo.Summarize(ctx, user.ID)
	if err != nil {
		t.Fatalf("Summarize() error: %v", err)
	}
	if s.IncomeTotal.Cents != 10000 {
		t.Errorf("IncomeTotal = %d, want 10000", s.IncomeTotal.Cents)
	}
	if s.ExpenseTotal.Cents != 5000 {
		t.Errorf("ExpenseTotal = %d, want 5000", s.ExpenseTotal.Cents)
	}
	if s.Balance.Cents != 5000 {
		t.Errorf("Balance = %d, want 5000", s.Balance.Cents)
	}
	if len(s.Recent) != 3 {
		t.Errorf("Recent has %d transactions, want 3", len(s.Recent))
	}
}

func TestSummarizeNegativeBalanceAndEmpty(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	empty := createTestUser(t, repo, "fresh", "fresh@example.com")
	s, err := repo.Summarize(ctx, empty.ID)
	if err != nil {
		t.Fatalf("Summarize(empty) error: %v", err)
	}
	if s.IncomeTotal.Cents != 0 || s.ExpenseTotal.Cents != 0 || s.Balance.Cents != 0 {
		t.Errorf("empty summary = %+v, want all zero", s)
	}
	if len(s.Recent) != 0 {
		t.Errorf("empty summary has %d recent transactions", len(s.Recent))
	}

	spender := createTestUser(t, repo, "spender", "spender@example.com")
	createTestTransaction(t, repo, spender.ID, 2000, core.Expense)
	s, err = repo.Summarize(ctx, spender.ID)
	if err != nil {
		t.Fatalf("Summarize(spender) error: %v", err)
	}
	if s.Balance.Cents != -2000 {
		t.Errorf("Balance = %d, want -2000", s.Balance.Cents)
	}
}

func TestSummarizeRecentLimit(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	user := createTestUser(t, repo, "busy", "busy@example.com")
	for i := int64(1); i <= 8; i++ {
		createTestTransaction(t, repo, user.ID, i*100, core.Expense)
	}

	s, err := repo.Summarize(ctx, user.ID)
	if err != nil {
		t.Fatalf("Summarize() error: %v", err)
	}
	if len(s.Recent) != core.RecentLimit {
		t.Fatalf("Recent has %d transactions, want %d", len(s.Recent), core.RecentLimit)
	}
	// Newest first: the 800-cent row was inserted last.
	if s.Recent[0].Amount.Cents != 800 {
		t.Errorf("Recent[0] cents = %d, want 800", s.Recent[0].Amount.Cents)
	}
}

func TestSyncLifecycle(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	user := createTestUser(t, repo, "mario", "mario@example.com")
	first := createTestTransaction(t, repo, user.ID, 100, core.Income)
	second := createTestTransaction(t, repo, user.ID, 200, core.Expense)

	pending, err := repo.GetPendingSync(ctx, 10)
	if err != nil {
		t.Fatalf("GetPendingSync() error: %v", err)
	}
	if len(pending) != 2 {
		t.Fatalf("GetPendingSync() returned %d rows, want 2", len(pending))
	}
	// Oldest first.
	if pending[0].ID != first.ID {
		t.Errorf("pending[0].ID = %d, want %d", pending[0].ID, first.ID)
	}

	if err := repo.MarkSynced(ctx, first.ID); err != nil {
		t.Fatalf("MarkSynced() error: %v", err)
	}
	if err := repo.MarkSyncError(ctx, second.ID); err != nil {
		t.Fatalf("MarkSyncError() error: %v", err)
	}

	pending, err = repo.GetPendingSync(ctx, 10)
	if err != nil {
		t.Fatalf("GetPendingSync() after marks error: %v", err)
	}
	if len(pending) != 0 {
		t.Errorf("GetPendingSync() after marks returned %d rows, want 0", len(pending))
	}
}

func TestGetTransaction(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	user := createTestUser(t, repo, "mario", "mario@example.com")
	created := createTestTransaction(t, repo, user.ID, 1234, core.Income)

	got, err := repo.GetTransaction(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetTransaction() error: %v", err)
	}
	if got.Amount.Cents != 1234 || got.Type != core.Income || got.UserID != user.ID {
		t.Errorf("GetTransaction() = %+v", got)
	}

	if _, err := repo.GetTransaction(ctx, 99999); !errors.Is(err, core.ErrTransactionNotFound) {
		t.Errorf("GetTransaction(missing) error = %v, want ErrTransactionNotFound", err)
	}
}
