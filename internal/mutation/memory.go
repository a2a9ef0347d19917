package mutation

import (
	"context"
	"sort"
	"sync"

	"github.com/moneta-erp/moneta/internal/calendar"
	"github.com/moneta-erp/moneta/internal/shared"
)

// MemorySnapshots is an in-memory SnapshotRepository for tests.
type MemorySnapshots struct {
	mu    sync.RWMutex
	snaps map[string]Snapshot
}

// NewMemorySnapshots constructs an empty MemorySnapshots.
func NewMemorySnapshots() *MemorySnapshots {
	return &MemorySnapshots{snaps: make(map[string]Snapshot)}
}

func (s *MemorySnapshots) UpsertAll(ctx context.Context, snaps []Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, snap := range snaps {
		key := snap.BranchScope.BranchID() + ":" + snap.CurrencyCode + ":" + snap.Date.String()
		s.snaps[key] = snap
	}
	return nil
}

func (s *MemorySnapshots) List(ctx context.Context, scope shared.BranchScope, dates calendar.Range) ([]Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := []Snapshot{}
	for _, snap := range s.snaps {
		if !scope.IsAll() && snap.BranchScope.BranchID() != scope.BranchID() {
			continue
		}
		if snap.Date.Before(dates.Start) || snap.Date.After(dates.End) {
			continue
		}
		result = append(result, snap)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Date != result[j].Date {
			return result[j].Date.Before(result[i].Date)
		}
		return result[i].CurrencyCode < result[j].CurrencyCode
	})
	return result, nil
}
