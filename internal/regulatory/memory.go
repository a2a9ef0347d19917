package regulatory

import (
	"context"
	"sync"

	"github.com/moneta-erp/moneta/internal/shared"
)

// MemoryRepository is an in-memory Repository for tests. InsertLocked is
// atomic under the mutex, matching the database unique-constraint contract.
type MemoryRepository struct {
	mu      sync.Mutex
	periods map[PeriodKey]Snapshot
}

// NewMemoryRepository constructs an empty MemoryRepository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{periods: make(map[PeriodKey]Snapshot)}
}

func (r *MemoryRepository) normalize(key PeriodKey) PeriodKey {
	if key.Scope.IsAll() {
		key.Scope = shared.ScopeAllBranches
	}
	return key
}

func (r *MemoryRepository) GetLocked(ctx context.Context, key PeriodKey) (Snapshot, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	snap, ok := r.periods[r.normalize(key)]
	return snap, ok, nil
}

func (r *MemoryRepository) ReportedBefore(ctx context.Context, scope shared.BranchScope, year, quarter int) (map[string]struct{}, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	reported := make(map[string]struct{})
	for key, snap := range r.periods {
		if key.Scope != r.normalize(PeriodKey{Scope: scope}).Scope || key.Year != year || key.Quarter >= quarter {
			continue
		}
		for _, id := range snap.CustomerIDs {
			reported[id] = struct{}{}
		}
	}
	return reported, nil
}

func (r *MemoryRepository) InsertLocked(ctx context.Context, key PeriodKey, snap Snapshot) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key = r.normalize(key)
	if _, exists := r.periods[key]; exists {
		return shared.ErrAlreadyLocked
	}
	r.periods[key] = snap
	return nil
}

func (r *MemoryRepository) YearStatus(ctx context.Context, scope shared.BranchScope, year int) (map[int]LockInfo, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	status := make(map[int]LockInfo)
	for key, snap := range r.periods {
		if key.Scope != r.normalize(PeriodKey{Scope: scope}).Scope || key.Year != year {
			continue
		}
		status[key.Quarter] = lockInfoOf(snap)
	}
	return status, nil
}

// Len reports the number of locked periods. Test helper.
func (r *MemoryRepository) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.periods)
}
