package regulatory

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/moneta-erp/moneta/internal/shared"
)

// scopeColumn is the stored branch-scope value; the all-branches sentinel is
// persisted literally so the compound key stays total.
func scopeColumn(scope shared.BranchScope) string {
	if scope.IsAll() {
		return string(shared.ScopeAllBranches)
	}
	return scope.BranchID()
}

// PgRepository persists locked periods in PostgreSQL. The table carries a
// unique constraint on (branch_scope, year, quarter); that constraint is the
// whole concurrency story for the lock race.
type PgRepository struct {
	pool *pgxpool.Pool
}

// NewPgRepository constructs PgRepository.
func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

func (r *PgRepository) GetLocked(ctx context.Context, key PeriodKey) (Snapshot, bool, error) {
	var payload []byte
	err := r.pool.QueryRow(ctx, `SELECT snapshot FROM regulatory_periods WHERE branch_scope=$1 AND year=$2 AND quarter=$3 AND status='LOCKED'`,
		scopeColumn(key.Scope), key.Year, key.Quarter).Scan(&payload)
	if errors.Is(err, pgx.ErrNoRows) {
		return Snapshot{}, false, nil
	}
	if err != nil {
		return Snapshot{}, false, err
	}
	var snap Snapshot
	if err := json.Unmarshal(payload, &snap); err != nil {
		return Snapshot{}, false, err
	}
	return snap, true, nil
}

func (r *PgRepository) ReportedBefore(ctx context.Context, scope shared.BranchScope, year, quarter int) (map[string]struct{}, error) {
	rows, err := r.pool.Query(ctx, `SELECT customer_ids FROM regulatory_periods
WHERE branch_scope=$1 AND year=$2 AND quarter < $3 AND status='LOCKED'`,
		scopeColumn(scope), year, quarter)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	reported := make(map[string]struct{})
	for rows.Next() {
		var ids []string
		if err := rows.Scan(&ids); err != nil {
			return nil, err
		}
		for _, id := range ids {
			reported[id] = struct{}{}
		}
	}
	return reported, rows.Err()
}

func (r *PgRepository) InsertLocked(ctx context.Context, key PeriodKey, snap Snapshot) error {
	payload, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	_, err = r.pool.Exec(ctx, `INSERT INTO regulatory_periods
(branch_scope, year, quarter, status, customer_ids, snapshot, locked_by, locked_at)
VALUES ($1,$2,$3,'LOCKED',$4,$5,$6,$7)`,
		scopeColumn(key.Scope), key.Year, key.Quarter, snap.CustomerIDs, payload, snap.LockedBy, snap.LockedAt)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return shared.ErrAlreadyLocked
	}
	return err
}

func (r *PgRepository) YearStatus(ctx context.Context, scope shared.BranchScope, year int) (map[int]LockInfo, error) {
	rows, err := r.pool.Query(ctx, `SELECT quarter, locked_by, locked_at, COALESCE(array_length(customer_ids, 1), 0)
FROM regulatory_periods WHERE branch_scope=$1 AND year=$2 AND status='LOCKED'`,
		scopeColumn(scope), year)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	status := make(map[int]LockInfo)
	for rows.Next() {
		var quarter int
		var info LockInfo
		if err := rows.Scan(&quarter, &info.LockedBy, &info.LockedAt, &info.CustomerCount); err != nil {
			return nil, err
		}
		info.Locked = true
		status[quarter] = info
	}
	return status, rows.Err()
}
