package ledger

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/moneta-erp/moneta/internal/calendar"
	"github.com/moneta-erp/moneta/internal/shared"
)

// MemoryStore is an in-memory Store for tests and local development.
type MemoryStore struct {
	mu  sync.RWMutex
	txs map[string]Transaction
}

// NewMemoryStore constructs an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{txs: make(map[string]Transaction)}
}

func (s *MemoryStore) Insert(ctx context.Context, tx Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.txs[tx.ID]; ok {
		return fmt.Errorf("ledger: duplicate transaction id %s", tx.ID)
	}
	s.txs[tx.ID] = tx
	return nil
}

func (s *MemoryStore) Get(ctx context.Context, id string) (Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	tx, ok := s.txs[id]
	if !ok {
		return Transaction{}, shared.ErrNotFound
	}
	return tx, nil
}

func (s *MemoryStore) FindInRange(ctx context.Context, scope Scope, start, endExclusive time.Time) ([]Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := []Transaction{}
	for _, tx := range s.txs {
		if tx.Deleted || !scope.Matches(tx) {
			continue
		}
		if tx.TransactionAt.Before(start) || !tx.TransactionAt.Before(endExclusive) {
			continue
		}
		result = append(result, tx)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].TransactionAt.Equal(result[j].TransactionAt) {
			return result[i].Number < result[j].Number
		}
		return result[i].TransactionAt.Before(result[j].TransactionAt)
	})
	return result, nil
}

func (s *MemoryStore) CountByAccountingDate(ctx context.Context, date calendar.Date) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	count := 0
	for _, tx := range s.txs {
		if tx.AccountingDate == date {
			count++
		}
	}
	return count, nil
}

func (s *MemoryStore) SoftDelete(ctx context.Context, id, actorID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	tx, ok := s.txs[id]
	if !ok || tx.Deleted {
		return shared.ErrNotFound
	}
	now := time.Now().UTC()
	tx.Deleted = true
	tx.DeletedBy = actorID
	tx.DeletedAt = &now
	s.txs[id] = tx
	return nil
}

// Mutate rewrites a stored transaction in place. Test harness use only; the
// production store has no equivalent.
func (s *MemoryStore) Mutate(id string, fn func(*Transaction)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if tx, ok := s.txs[id]; ok {
		fn(&tx)
		s.txs[id] = tx
	}
}
