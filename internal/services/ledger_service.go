package services

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"fintrack/internal/amqp"
	"fintrack/internal/cache"
	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/storage"
)

const (
	summaryCacheSize = 256
	summaryCacheTTL  = 30 * time.Second
)

// LedgerService orchestrates transaction operations: SQLite is the source
// of truth, the AMQP queue feeds the export worker, and a small cache
// keeps dashboard reloads cheap.
type LedgerService struct {
	storage    *storage.SQLiteRepository
	amqpClient *amqp.Client
	summaries  *cache.LRUCache[core.Summary]
	logger     *log.Logger
}

// NewLedgerService builds the service. amqpClient may be nil, in which
// case transactions are stored locally and never mirrored.
func NewLedgerService(storage *storage.SQLiteRepository, amqpClient *amqp.Client, logger *log.Logger) *LedgerService {
	return &LedgerService{
		storage:    storage,
		amqpClient: amqpClient,
		summaries:  cache.NewLRUCache[core.Summary](summaryCacheSize, summaryCacheTTL),
		logger:     logger.WithComponent(log.ComponentLedger),
	}
}

// SummaryCache exposes the cache for cleanup registration.
func (s *LedgerService) SummaryCache() *cache.LRUCache[core.Summary] {
	return s.summaries
}

// CreateTransaction validates and stores a transaction for the given
// user, then queues a sync message. A broker failure never fails the
// request: the row stays in the pending sync state and the worker's
// periodic scan picks it up.
func (s *LedgerService) CreateTransaction(ctx context.Context, userID int64, t core.Transaction) (core.Transaction, error) {
	t.UserID = userID
	t.Category = core.NormalizeCategory(t.Category)
	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}

	created, err := s.storage.CreateTransaction(ctx, t)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("save transaction: %w", err)
	}

	s.invalidateSummary(userID)

	s.logger.InfoContext(ctx, "transaction created",
		log.FieldOperation, log.OpCreate,
		log.FieldTxID, created.ID,
		log.FieldTxType, string(created.Type),
		log.FieldAmountCents, created.Amount.Cents,
		log.FieldCategory, created.Category)

	if s.amqpClient != nil {
		if err := s.amqpClient.PublishTransactionSync(ctx, created.ID); err != nil {
			s.logger.ErrorContext(ctx, "failed to publish sync message",
				log.FieldTxID, created.ID, log.FieldError, err.Error())
		}
	}

	return created, nil
}

// DeleteTransaction removes one of the user's transactions. Deleting a
// row that does not exist returns core.ErrTransactionNotFound; deleting
// another user's row returns core.ErrNotOwner.
func (s *LedgerService) DeleteTransaction(ctx context.Context, userID, id int64) error {
	if err := s.storage.DeleteTransaction(ctx, userID, id); err != nil {
		return err
	}

	s.invalidateSummary(userID)

	s.logger.InfoContext(ctx, "transaction deleted",
		log.FieldOperation, log.OpDelete,
		log.FieldTxID, id)

	if s.amqpClient != nil {
		if err := s.amqpClient.PublishTransactionDelete(ctx, id); err != nil {
			s.logger.ErrorContext(ctx, "failed to publish delete message",
				log.FieldTxID, id, log.FieldError, err.Error())
		}
	}

	return nil
}

// ListTransactions returns the user's transactions newest first,
// optionally filtered by type.
func (s *LedgerService) ListTransactions(ctx context.Context, userID int64, typeFilter core.TransactionType) ([]core.Transaction, error) {
	if typeFilter != "" && !typeFilter.IsValid() {
		return nil, core.ErrInvalidType
	}
	return s.storage.ListTransactions(ctx, userID, typeFilter)
}

// Summarize computes the dashboard figures, consulting the cache first.
func (s *LedgerService) Summarize(ctx context.Context, userID int64) (core.Summary, error) {
	key := summaryKey(userID)
	if summary, ok := s.summaries.Get(key); ok {
		return summary, nil
	}

	summary, err := s.storage.Summarize(ctx, userID)
	if err != nil {
		return core.Summary{}, fmt.Errorf("summarize ledger: %w", err)
	}

	s.summaries.Set(key, summary)
	return summary, nil
}

func (s *LedgerService) invalidateSummary(userID int64) {
	s.summaries.Delete(summaryKey(userID))
}

func summaryKey(userID int64) string {
	return strconv.FormatInt(userID, 10)
}

// Close releases storage and broker connections.
func (s *LedgerService) Close() error {
	var errs []error

	if s.storage != nil {
		if err := s.storage.Close(); err != nil {
			errs = append(errs, fmt.Errorf("storage: %w", err))
		}
	}

	if s.amqpClient != nil {
		if err := s.amqpClient.Close(); err != nil {
			errs = append(errs, fmt.Errorf("amqp: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close ledger service: %v", errs)
	}

	return nil
}
