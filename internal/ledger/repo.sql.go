package ledger

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/moneta-erp/moneta/internal/calendar"
	"github.com/moneta-erp/moneta/internal/shared"
)

// Repository persists transactions in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const txColumns = `id, number, voucher_number, customer_id, branch_id, currency_code, direction,
foreign_amount, exchange_rate, local_amount, notes, payment_method,
transaction_at, accounting_date, created_by, created_at, deleted, deleted_by, deleted_at`

func (r *Repository) Insert(ctx context.Context, tx Transaction) error {
	_, err := r.pool.Exec(ctx, `INSERT INTO transactions (`+txColumns+`)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,false,'',NULL)`,
		tx.ID, tx.Number, tx.VoucherNumber, tx.CustomerID, tx.BranchID, tx.CurrencyCode, string(tx.Direction),
		tx.ForeignAmount, tx.ExchangeRate, tx.LocalAmount, tx.Notes, tx.PaymentMethod,
		tx.TransactionAt, tx.AccountingDate.Time(time.UTC), tx.CreatedBy, tx.CreatedAt)
	return err
}

func (r *Repository) Get(ctx context.Context, id string) (Transaction, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+txColumns+` FROM transactions WHERE id=$1`, id)
	tx, err := scanTransaction(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Transaction{}, shared.ErrNotFound
	}
	return tx, err
}

func (r *Repository) FindInRange(ctx context.Context, scope Scope, start, endExclusive time.Time) ([]Transaction, error) {
	query := `SELECT ` + txColumns + ` FROM transactions
WHERE NOT deleted AND transaction_at >= $1 AND transaction_at < $2`
	args := []any{start, endExclusive}
	if !scope.Branch.IsAll() {
		args = append(args, scope.Branch.BranchID())
		query += ` AND branch_id = $3`
	}
	if scope.CurrencyCode != "" {
		args = append(args, scope.CurrencyCode)
		if len(args) == 4 {
			query += ` AND currency_code = $4`
		} else {
			query += ` AND currency_code = $3`
		}
	}
	query += ` ORDER BY transaction_at ASC, number ASC`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	txs := []Transaction{}
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		txs = append(txs, tx)
	}
	return txs, rows.Err()
}

func (r *Repository) CountByAccountingDate(ctx context.Context, date calendar.Date) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM transactions WHERE accounting_date=$1`, date.Time(time.UTC)).Scan(&count)
	return count, err
}

func (r *Repository) SoftDelete(ctx context.Context, id, actorID string) error {
	tag, err := r.pool.Exec(ctx, `UPDATE transactions SET deleted=true, deleted_by=$2, deleted_at=NOW() WHERE id=$1 AND NOT deleted`, id, actorID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func scanTransaction(row pgx.Row) (Transaction, error) {
	var tx Transaction
	var direction string
	var accountingDate time.Time
	err := row.Scan(&tx.ID, &tx.Number, &tx.VoucherNumber, &tx.CustomerID, &tx.BranchID, &tx.CurrencyCode, &direction,
		&tx.ForeignAmount, &tx.ExchangeRate, &tx.LocalAmount, &tx.Notes, &tx.PaymentMethod,
		&tx.TransactionAt, &accountingDate, &tx.CreatedBy, &tx.CreatedAt, &tx.Deleted, &tx.DeletedBy, &tx.DeletedAt)
	if err != nil {
		return Transaction{}, err
	}
	tx.Direction = Direction(direction)
	tx.AccountingDate = calendar.DateOf(accountingDate)
	return tx, nil
}
