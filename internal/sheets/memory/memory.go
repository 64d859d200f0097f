package memory

import (
	"context"
	"fmt"
	"sync"

	"fintrack/internal/core"
)

// Store is an in-memory mirror used in tests and when no spreadsheet is
// configured. It keeps the same append/delete contract as the Google
// Sheets adapter.
type Store struct {
	mu        sync.Mutex
	items     map[int64]core.Transaction
	appendErr error
}

func New() *Store {
	return &Store{items: make(map[int64]core.Transaction)}
}

// FailAppends makes every subsequent Append return err. Pass nil to heal.
func (s *Store) FailAppends(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.appendErr = err
}

// Append stores the transaction and returns a synthetic row reference.
func (s *Store) Append(_ context.Context, t core.Transaction) (string, error) {
	if err := t.Validate(); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.appendErr != nil {
		return "", s.appendErr
	}
	s.items[t.ID] = t
	return fmt.Sprintf("mem:%d", t.ID), nil
}

// Delete removes the mirrored transaction. Deleting an absent row is a
// no-op, matching the sheet adapter.
func (s *Store) Delete(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.items, id)
	return nil
}

// Has reports whether a transaction is currently mirrored.
func (s *Store) Has(id int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.items[id]
	return ok
}

// Len returns the number of mirrored transactions.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}
