package regulatory

import (
	"context"
	"fmt"
	"time"

	"github.com/moneta-erp/moneta/internal/calendar"
	"github.com/moneta-erp/moneta/internal/ledger"
	"github.com/moneta-erp/moneta/internal/masterdata"
	"github.com/moneta-erp/moneta/internal/shared"
)

// DraftResult is the caller-facing view of a period: recomputed rows for a
// draft, the frozen snapshot verbatim for a locked period.
type DraftResult struct {
	Status  Status      `json:"status"`
	Rows    []ReportRow `json:"rows"`
	Summary Summary     `json:"summary"`
	Lock    *LockInfo   `json:"lock,omitempty"`
}

// Service orchestrates draft generation and period locking.
type Service struct {
	repo       Repository
	store      ledger.Store
	customers  masterdata.Directory
	branches   masterdata.BranchConfig
	cal        calendar.Calendar
	operatorID string
	cache      *SnapshotCache
	audit      shared.AuditPort
	now        func() time.Time
}

// NewService builds Service. cache and audit may be nil.
func NewService(repo Repository, store ledger.Store, customers masterdata.Directory, branches masterdata.BranchConfig, cal calendar.Calendar, operatorID string, cache *SnapshotCache, audit shared.AuditPort) *Service {
	return &Service{
		repo:       repo,
		store:      store,
		customers:  customers,
		branches:   branches,
		cal:        cal,
		operatorID: operatorID,
		cache:      cache,
		audit:      audit,
		now:        time.Now,
	}
}

// WithNow overrides the clock for deterministic tests.
func (s *Service) WithNow(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// Draft returns the period state: a locked period always returns its frozen
// snapshot, a draft period is recomputed from the transaction store.
func (s *Service) Draft(ctx context.Context, scope shared.BranchScope, year, quarter int) (DraftResult, error) {
	key, err := s.checkedKey(ctx, scope, year, quarter)
	if err != nil {
		return DraftResult{}, err
	}

	if snap, ok, err := s.lockedSnapshot(ctx, key); err != nil {
		return DraftResult{}, err
	} else if ok {
		info := lockInfoOf(snap)
		return DraftResult{Status: StatusLocked, Rows: snap.Rows, Summary: snap.Summary, Lock: &info}, nil
	}

	rows, summary, err := s.generate(ctx, key)
	if err != nil {
		return DraftResult{}, err
	}
	return DraftResult{Status: StatusDraft, Rows: rows, Summary: summary}, nil
}

// Lock freezes the period. The draft is regenerated server-side at lock time;
// a client-submitted payload is never trusted. Returns the locked customer
// count.
func (s *Service) Lock(ctx context.Context, scope shared.BranchScope, year, quarter int, actorID string) (int, error) {
	key, err := s.checkedKey(ctx, scope, year, quarter)
	if err != nil {
		return 0, err
	}
	if _, ok, err := s.lockedSnapshot(ctx, key); err != nil {
		return 0, err
	} else if ok {
		return 0, shared.ErrAlreadyLocked
	}

	rows, summary, err := s.generate(ctx, key)
	if err != nil {
		return 0, err
	}
	if len(rows) == 0 {
		return 0, shared.ErrEmptyPeriod
	}

	customerIDs := make([]string, 0, len(rows))
	for _, row := range rows {
		customerIDs = append(customerIDs, row.CustomerID)
	}
	snap := Snapshot{
		Rows:        rows,
		CustomerIDs: customerIDs,
		Summary:     summary,
		LockedBy:    actorID,
		LockedAt:    s.now().UTC(),
	}
	// The repository insert is the atomicity point: the unique period key
	// rejects the losing side of a concurrent lock race.
	if err := s.repo.InsertLocked(ctx, key, snap); err != nil {
		return 0, err
	}
	if s.cache != nil {
		s.cache.Put(ctx, key, snap)
	}
	s.recordAudit(ctx, actorID, key, len(customerIDs))
	return len(customerIDs), nil
}

// YearStatus returns the lock state of all four quarters in one call.
func (s *Service) YearStatus(ctx context.Context, scope shared.BranchScope, year int) (map[int]LockInfo, error) {
	if err := s.checkBranch(ctx, scope); err != nil {
		return nil, err
	}
	status, err := s.repo.YearStatus(ctx, scope, year)
	if err != nil {
		return nil, err
	}
	for q := 1; q <= 4; q++ {
		if _, ok := status[q]; !ok {
			status[q] = LockInfo{}
		}
	}
	return status, nil
}

// State returns the tagged period state.
func (s *Service) State(ctx context.Context, scope shared.BranchScope, year, quarter int) (State, error) {
	key, err := s.checkedKey(ctx, scope, year, quarter)
	if err != nil {
		return State{}, err
	}
	snap, ok, err := s.lockedSnapshot(ctx, key)
	if err != nil {
		return State{}, err
	}
	if !ok {
		return State{Status: StatusDraft}, nil
	}
	return State{Status: StatusLocked, Locked: &snap}, nil
}

func (s *Service) checkedKey(ctx context.Context, scope shared.BranchScope, year, quarter int) (PeriodKey, error) {
	if _, _, err := s.cal.QuarterRangeOf(year, quarter); err != nil {
		return PeriodKey{}, fmt.Errorf("regulatory: %d Q%d: %w", year, quarter, shared.ErrInvalidPeriod)
	}
	if err := s.checkBranch(ctx, scope); err != nil {
		return PeriodKey{}, err
	}
	return PeriodKey{Scope: scope, Year: year, Quarter: quarter}, nil
}

func (s *Service) checkBranch(ctx context.Context, scope shared.BranchScope) error {
	if scope.IsAll() {
		return nil
	}
	exists, err := s.branches.Exists(ctx, scope.BranchID())
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("regulatory: branch %s: %w", scope.BranchID(), shared.ErrNotFound)
	}
	return nil
}

func (s *Service) lockedSnapshot(ctx context.Context, key PeriodKey) (Snapshot, bool, error) {
	if s.cache != nil {
		if snap, ok := s.cache.Get(ctx, key); ok {
			return snap, true, nil
		}
	}
	snap, ok, err := s.repo.GetLocked(ctx, key)
	if err != nil || !ok {
		return Snapshot{}, false, err
	}
	if s.cache != nil {
		s.cache.Put(ctx, key, snap)
	}
	return snap, true, nil
}

// generate builds the draft rows: each in-scope customer not yet reported in
// an earlier locked quarter of the same year emits exactly one row.
func (s *Service) generate(ctx context.Context, key PeriodKey) ([]ReportRow, Summary, error) {
	first, last, err := s.cal.QuarterRangeOf(key.Year, key.Quarter)
	if err != nil {
		return nil, Summary{}, fmt.Errorf("regulatory: %w", shared.ErrInvalidPeriod)
	}
	excluded, err := s.repo.ReportedBefore(ctx, key.Scope, key.Year, key.Quarter)
	if err != nil {
		return nil, Summary{}, err
	}

	start, end := s.cal.UTCRangeOfSpan(calendar.Range{Start: first, End: last})
	txs, err := s.store.FindInRange(ctx, ledger.Scope{Branch: key.Scope}, start, end)
	if err != nil {
		return nil, Summary{}, err
	}

	rows := []ReportRow{}
	var summary Summary
	seen := make(map[string]struct{})
	for _, tx := range txs {
		if _, dup := seen[tx.CustomerID]; dup {
			continue
		}
		if _, reported := excluded[tx.CustomerID]; reported {
			continue
		}
		seen[tx.CustomerID] = struct{}{}

		profile, err := s.customers.GetByID(ctx, tx.CustomerID)
		if err != nil {
			return nil, Summary{}, fmt.Errorf("regulatory: customer %s: %w", tx.CustomerID, err)
		}
		rows = append(rows, s.rowFor(profile))
		summary.Total++
		if profile.LegalType == masterdata.LegalTypeEntity {
			summary.Entities++
		} else {
			summary.Individuals++
		}
	}
	return rows, summary, nil
}

func (s *Service) rowFor(p masterdata.CustomerProfile) ReportRow {
	row := ReportRow{
		CustomerID:   p.ID,
		CustomerCode: p.Code,
		LegalType:    p.LegalType,
		Name:         p.DisplayName(),
		NPWP:         p.NPWP,
		OperatorID:   s.operatorID,
	}
	if p.LegalType == masterdata.LegalTypeEntity {
		row.Address = p.EntityAddress
		row.LicenseNumber = p.LicenseNumber
		return row
	}
	row.IdentityType = p.IdentityType
	row.IdentityNumber = p.IdentityNumber
	row.BirthPlace = p.BirthPlace
	row.BirthDate = p.BirthDate
	row.Address = p.IdentityAddress
	return row
}

func (s *Service) recordAudit(ctx context.Context, actorID string, key PeriodKey, count int) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		ActorID:  actorID,
		Action:   "regulatory.lock",
		Entity:   "reporting_period",
		EntityID: fmt.Sprintf("%s:%d:Q%d", key.Scope, key.Year, key.Quarter),
		Meta:     map[string]any{"customer_count": count},
		At:       s.now().UTC(),
	})
}

func lockInfoOf(snap Snapshot) LockInfo {
	return LockInfo{
		Locked:        true,
		LockedBy:      snap.LockedBy,
		LockedAt:      snap.LockedAt,
		CustomerCount: len(snap.CustomerIDs),
	}
}
