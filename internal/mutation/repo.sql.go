package mutation

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/moneta-erp/moneta/internal/calendar"
	"github.com/moneta-erp/moneta/internal/platform/db"
	"github.com/moneta-erp/moneta/internal/shared"
)

// SnapshotRepo stores materialized daily records in PostgreSQL.
type SnapshotRepo struct {
	pool *pgxpool.Pool
}

// NewSnapshotRepo constructs SnapshotRepo.
func NewSnapshotRepo(pool *pgxpool.Pool) *SnapshotRepo {
	return &SnapshotRepo{pool: pool}
}

const upsertSnapshotSQL = `INSERT INTO mutation_snapshots
(branch_id, currency_code, snapshot_date, opening_fc, opening_lc, purchases_fc, purchases_lc,
 sales_fc, sales_lc, ending_fc, avg_rate, ending_lc, profit_loss_lc, transaction_count, computed_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)
ON CONFLICT (branch_id, currency_code, snapshot_date) DO UPDATE SET
 opening_fc=EXCLUDED.opening_fc, opening_lc=EXCLUDED.opening_lc,
 purchases_fc=EXCLUDED.purchases_fc, purchases_lc=EXCLUDED.purchases_lc,
 sales_fc=EXCLUDED.sales_fc, sales_lc=EXCLUDED.sales_lc,
 ending_fc=EXCLUDED.ending_fc, avg_rate=EXCLUDED.avg_rate, ending_lc=EXCLUDED.ending_lc,
 profit_loss_lc=EXCLUDED.profit_loss_lc, transaction_count=EXCLUDED.transaction_count,
 computed_at=EXCLUDED.computed_at`

// UpsertAll writes a batch of records in one transaction.
func (r *SnapshotRepo) UpsertAll(ctx context.Context, snaps []Snapshot) error {
	if len(snaps) == 0 {
		return nil
	}
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		for _, snap := range snaps {
			_, err := tx.Exec(ctx, upsertSnapshotSQL,
				snap.BranchScope.BranchID(), snap.CurrencyCode, snap.Date.Time(time.UTC),
				snap.OpeningStockFC, snap.OpeningStockLC, snap.PurchasesFC, snap.PurchasesLC,
				snap.SalesFC, snap.SalesLC, snap.EndingStockFC, snap.WeightedAvgRate, snap.EndingStockLC,
				snap.ProfitLossLC, snap.TransactionCount, snap.ComputedAt)
			if err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *SnapshotRepo) List(ctx context.Context, scope shared.BranchScope, dates calendar.Range) ([]Snapshot, error) {
	query := `SELECT branch_id, currency_code, snapshot_date, opening_fc, opening_lc, purchases_fc, purchases_lc,
 sales_fc, sales_lc, ending_fc, avg_rate, ending_lc, profit_loss_lc, transaction_count, computed_at
FROM mutation_snapshots WHERE snapshot_date >= $1 AND snapshot_date <= $2`
	args := []any{dates.Start.Time(time.UTC), dates.End.Time(time.UTC)}
	if !scope.IsAll() {
		args = append(args, scope.BranchID())
		query += ` AND branch_id = $3`
	}
	query += ` ORDER BY snapshot_date DESC, currency_code ASC`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	snaps := []Snapshot{}
	for rows.Next() {
		var snap Snapshot
		var branchID string
		var snapshotDate time.Time
		if err := rows.Scan(&branchID, &snap.CurrencyCode, &snapshotDate,
			&snap.OpeningStockFC, &snap.OpeningStockLC, &snap.PurchasesFC, &snap.PurchasesLC,
			&snap.SalesFC, &snap.SalesLC, &snap.EndingStockFC, &snap.WeightedAvgRate, &snap.EndingStockLC,
			&snap.ProfitLossLC, &snap.TransactionCount, &snap.ComputedAt); err != nil {
			return nil, err
		}
		snap.BranchScope = shared.ScopeFor(branchID)
		snap.Date = calendar.DateOf(snapshotDate)
		snap.Range = calendar.Range{Start: snap.Date, End: snap.Date}
		snaps = append(snaps, snap)
	}
	return snaps, rows.Err()
}
