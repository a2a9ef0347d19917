package masterdata

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/moneta-erp/moneta/internal/shared"
)

// Repository reads master data from PostgreSQL. It implements BranchConfig,
// CurrencyCatalog, and Directory.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func (r *Repository) GetBranchCode(ctx context.Context, branchID string) (string, error) {
	var code string
	err := r.pool.QueryRow(ctx, `SELECT code FROM branches WHERE id=$1`, branchID).Scan(&code)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", shared.ErrNotFound
	}
	return code, err
}

func (r *Repository) Exists(ctx context.Context, branchID string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM branches WHERE id=$1)`, branchID).Scan(&exists)
	return exists, err
}

func (r *Repository) GetOpeningBalance(ctx context.Context, branchID, currencyCode string) (OpeningBalance, error) {
	exists, err := r.Exists(ctx, branchID)
	if err != nil {
		return OpeningBalance{}, err
	}
	if !exists {
		return OpeningBalance{}, shared.ErrNotFound
	}
	var foreign, local decimal.Decimal
	err = r.pool.QueryRow(ctx, `SELECT foreign_amount, local_amount FROM branch_currency_balances WHERE branch_id=$1 AND currency_code=$2`,
		branchID, currencyCode).Scan(&foreign, &local)
	if errors.Is(err, pgx.ErrNoRows) {
		return OpeningBalance{Foreign: decimal.Zero, Local: decimal.Zero}, nil
	}
	if err != nil {
		return OpeningBalance{}, err
	}
	return OpeningBalance{Foreign: foreign, Local: local}, nil
}

// SetOpeningBalance upserts the configured opening position for a pair.
func (r *Repository) SetOpeningBalance(ctx context.Context, branchID, currencyCode string, balance OpeningBalance) error {
	_, err := r.pool.Exec(ctx, `INSERT INTO branch_currency_balances (branch_id, currency_code, foreign_amount, local_amount, updated_at)
VALUES ($1,$2,$3,$4,NOW())
ON CONFLICT (branch_id, currency_code) DO UPDATE SET foreign_amount=EXCLUDED.foreign_amount, local_amount=EXCLUDED.local_amount, updated_at=NOW()`,
		branchID, currencyCode, balance.Foreign, balance.Local)
	return err
}

// ListBranchIDs returns the ids of all active branches.
func (r *Repository) ListBranchIDs(ctx context.Context) ([]string, error) {
	rows, err := r.pool.Query(ctx, `SELECT id FROM branches WHERE is_active ORDER BY code`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *Repository) ListActive(ctx context.Context) ([]Currency, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, code, name, symbol, is_active FROM currencies WHERE is_active ORDER BY code`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	currencies := []Currency{}
	for rows.Next() {
		var c Currency
		if err := rows.Scan(&c.ID, &c.Code, &c.Name, &c.Symbol, &c.IsActive); err != nil {
			return nil, err
		}
		currencies = append(currencies, c)
	}
	return currencies, rows.Err()
}

func (r *Repository) GetByCode(ctx context.Context, code string) (Currency, error) {
	var c Currency
	err := r.pool.QueryRow(ctx, `SELECT id, code, name, symbol, is_active FROM currencies WHERE code=$1`, code).
		Scan(&c.ID, &c.Code, &c.Name, &c.Symbol, &c.IsActive)
	if errors.Is(err, pgx.ErrNoRows) {
		return Currency{}, shared.ErrNotFound
	}
	return c, err
}

func (r *Repository) GetByID(ctx context.Context, id string) (CustomerProfile, error) {
	var p CustomerProfile
	err := r.pool.QueryRow(ctx, `SELECT id, code, legal_type, branch_id,
COALESCE(name,''), COALESCE(gender,''), COALESCE(identity_type,''), COALESCE(identity_number,''),
COALESCE(birth_place,''), COALESCE(birth_date,''), COALESCE(identity_address,''), COALESCE(domicile_address,''),
COALESCE(phone,''), COALESCE(occupation,''), COALESCE(fund_source,''), COALESCE(is_pep,false),
COALESCE(entity_type,''), COALESCE(entity_name,''), COALESCE(license_number,''), COALESCE(npwp,''),
COALESCE(entity_address,''), COALESCE(pic_name,'')
FROM customers WHERE id=$1`, id).Scan(
		&p.ID, &p.Code, &p.LegalType, &p.BranchID,
		&p.Name, &p.Gender, &p.IdentityType, &p.IdentityNumber,
		&p.BirthPlace, &p.BirthDate, &p.IdentityAddress, &p.DomicileAddress,
		&p.Phone, &p.Occupation, &p.FundSource, &p.IsPEP,
		&p.EntityType, &p.EntityName, &p.LicenseNumber, &p.NPWP,
		&p.EntityAddress, &p.PICName,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return CustomerProfile{}, shared.ErrNotFound
	}
	return p, err
}
