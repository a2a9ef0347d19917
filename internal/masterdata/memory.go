package masterdata

import (
	"context"
	"sort"
	"sync"

	"github.com/moneta-erp/moneta/internal/shared"
)

// MemoryStore is an in-memory master data backend for tests and local runs.
type MemoryStore struct {
	mu         sync.RWMutex
	branches   map[string]Branch
	balances   map[string]map[string]OpeningBalance
	currencies map[string]Currency
	customers  map[string]CustomerProfile
}

// NewMemoryStore constructs an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		branches:   make(map[string]Branch),
		balances:   make(map[string]map[string]OpeningBalance),
		currencies: make(map[string]Currency),
		customers:  make(map[string]CustomerProfile),
	}
}

// PutBranch registers a branch.
func (s *MemoryStore) PutBranch(b Branch) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.branches[b.ID] = b
}

// PutOpeningBalance sets the configured opening position for a pair.
func (s *MemoryStore) PutOpeningBalance(branchID, currencyCode string, balance OpeningBalance) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.balances[branchID] == nil {
		s.balances[branchID] = make(map[string]OpeningBalance)
	}
	s.balances[branchID][currencyCode] = balance
}

// SetOpeningBalance upserts the configured opening position for a pair,
// failing with shared.ErrNotFound for an unknown branch.
func (s *MemoryStore) SetOpeningBalance(ctx context.Context, branchID, currencyCode string, balance OpeningBalance) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.branches[branchID]; !ok {
		return shared.ErrNotFound
	}
	if s.balances[branchID] == nil {
		s.balances[branchID] = make(map[string]OpeningBalance)
	}
	s.balances[branchID][currencyCode] = balance
	return nil
}

// PutCurrency registers a currency.
func (s *MemoryStore) PutCurrency(c Currency) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.currencies[c.Code] = c
}

// PutCustomer registers a customer profile.
func (s *MemoryStore) PutCustomer(p CustomerProfile) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.customers[p.ID] = p
}

func (s *MemoryStore) GetBranchCode(ctx context.Context, branchID string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.branches[branchID]
	if !ok {
		return "", shared.ErrNotFound
	}
	return b.Code, nil
}

func (s *MemoryStore) Exists(ctx context.Context, branchID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.branches[branchID]
	return ok, nil
}

func (s *MemoryStore) GetOpeningBalance(ctx context.Context, branchID, currencyCode string) (OpeningBalance, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.branches[branchID]; !ok {
		return OpeningBalance{}, shared.ErrNotFound
	}
	return s.balances[branchID][currencyCode], nil
}

func (s *MemoryStore) ListBranchIDs(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := []string{}
	for id, b := range s.branches {
		if b.IsActive {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

func (s *MemoryStore) ListActive(ctx context.Context) ([]Currency, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	currencies := []Currency{}
	for _, c := range s.currencies {
		if c.IsActive {
			currencies = append(currencies, c)
		}
	}
	sort.Slice(currencies, func(i, j int) bool { return currencies[i].Code < currencies[j].Code })
	return currencies, nil
}

func (s *MemoryStore) GetByCode(ctx context.Context, code string) (Currency, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.currencies[code]
	if !ok {
		return Currency{}, shared.ErrNotFound
	}
	return c, nil
}

func (s *MemoryStore) GetByID(ctx context.Context, id string) (CustomerProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.customers[id]
	if !ok {
		return CustomerProfile{}, shared.ErrNotFound
	}
	return p, nil
}
