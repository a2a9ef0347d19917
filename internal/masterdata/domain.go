// Package masterdata holds branch, currency, and customer reference data
// consumed by the ledger and reporting engines. Admin CRUD for these records
// lives outside this service; the engines only read.
package masterdata

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Branch describes a money-changer outlet.
type Branch struct {
	ID             string
	Code           string
	Name           string
	Address        string
	Phone          string
	IsHeadquarters bool
	IsActive       bool
	CreatedAt      time.Time
}

// OpeningBalance is the administrator-set period-zero stock position for one
// (branch, currency) pair: foreign units plus their local-currency valuation.
type OpeningBalance struct {
	Foreign decimal.Decimal
	Local   decimal.Decimal
}

// Currency describes a tradable foreign currency.
type Currency struct {
	ID       string
	Code     string
	Name     string
	Symbol   string
	IsActive bool
}

// LegalType distinguishes individual from entity customers.
type LegalType string

const (
	LegalTypeIndividual LegalType = "INDIVIDUAL"
	LegalTypeEntity     LegalType = "ENTITY"
)

// CustomerProfile carries the fields regulatory report rows are built from.
// Individual and entity customers populate disjoint field sets.
type CustomerProfile struct {
	ID        string
	Code      string
	LegalType LegalType
	BranchID  string

	// Individual fields.
	Name            string
	Gender          string
	IdentityType    string
	IdentityNumber  string
	BirthPlace      string
	BirthDate       string
	IdentityAddress string
	DomicileAddress string
	Phone           string
	Occupation      string
	FundSource      string
	IsPEP           bool

	// Entity fields.
	EntityType    string
	EntityName    string
	LicenseNumber string
	NPWP          string
	EntityAddress string
	PICName       string
}

// DisplayName returns the customer-facing name for either legal type.
func (p CustomerProfile) DisplayName() string {
	if p.LegalType == LegalTypeEntity {
		return p.EntityName
	}
	return p.Name
}

// BranchConfig exposes the branch reference data the engines read.
type BranchConfig interface {
	// GetBranchCode returns the configured branch code, or shared.ErrNotFound.
	GetBranchCode(ctx context.Context, branchID string) (string, error)
	// GetOpeningBalance returns the configured opening position for the pair,
	// zero values when none is configured, shared.ErrNotFound for an unknown
	// branch.
	GetOpeningBalance(ctx context.Context, branchID, currencyCode string) (OpeningBalance, error)
	// Exists reports whether the branch is known.
	Exists(ctx context.Context, branchID string) (bool, error)
}

// CurrencyCatalog lists tradable currencies.
type CurrencyCatalog interface {
	ListActive(ctx context.Context) ([]Currency, error)
	GetByCode(ctx context.Context, code string) (Currency, error)
}

// Directory resolves customer profiles for regulatory rows.
type Directory interface {
	GetByID(ctx context.Context, id string) (CustomerProfile, error)
}
