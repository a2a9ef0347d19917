package mutation

import (
	"context"
	"time"

	"github.com/moneta-erp/moneta/internal/calendar"
	"github.com/moneta-erp/moneta/internal/shared"
)

// Snapshot is a materialized single-day record. Snapshots exist for cheap
// historical listing; recomputation from the transaction store remains the
// source of truth and always wins on disagreement.
type Snapshot struct {
	Record
	Date       calendar.Date
	ComputedAt time.Time
}

// SnapshotRepository persists materialized daily records. UpsertAll stores a
// batch atomically; a partially materialized day is never observable.
type SnapshotRepository interface {
	UpsertAll(ctx context.Context, snaps []Snapshot) error
	List(ctx context.Context, scope shared.BranchScope, dates calendar.Range) ([]Snapshot, error)
}

// BranchLister enumerates branch ids for materialization runs.
type BranchLister interface {
	ListBranchIDs(ctx context.Context) ([]string, error)
}

// Materializer recomputes and stores daily snapshots, one record per
// (branch, currency, day).
type Materializer struct {
	svc       *Service
	snapshots SnapshotRepository
	branches  BranchLister
	now       func() time.Time
}

// NewMaterializer builds Materializer.
func NewMaterializer(svc *Service, snapshots SnapshotRepository, branches BranchLister) *Materializer {
	return &Materializer{svc: svc, snapshots: snapshots, branches: branches, now: time.Now}
}

// MaterializeDay recomputes every branch's records for one accounting date
// and upserts them. Returns the number of stored records. Re-running for the
// same day overwrites with identical data.
func (m *Materializer) MaterializeDay(ctx context.Context, date calendar.Date) (int, error) {
	branchIDs, err := m.branches.ListBranchIDs(ctx)
	if err != nil {
		return 0, err
	}
	stored := 0
	for _, branchID := range branchIDs {
		records, err := m.svc.ComputeAll(ctx, shared.ScopeFor(branchID), calendar.Range{Start: date, End: date})
		if err != nil {
			return stored, err
		}
		snaps := make([]Snapshot, 0, len(records))
		for _, record := range records {
			snaps = append(snaps, Snapshot{Record: record, Date: date, ComputedAt: m.now().UTC()})
		}
		if err := m.snapshots.UpsertAll(ctx, snaps); err != nil {
			return stored, err
		}
		stored += len(snaps)
	}
	return stored, nil
}

// ListSnapshots returns stored daily records for the scope and range.
func (m *Materializer) ListSnapshots(ctx context.Context, scope shared.BranchScope, dates calendar.Range) ([]Snapshot, error) {
	return m.snapshots.List(ctx, scope, dates)
}
