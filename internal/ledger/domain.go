// Package ledger is the append-style log of buy/sell events every other
// engine derives from. Transactions are immutable once created; corrections
// happen through soft deletion, never edits.
package ledger

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/moneta-erp/moneta/internal/calendar"
	"github.com/moneta-erp/moneta/internal/shared"
)

// Direction states whether the branch buys from or sells to the customer.
type Direction string

const (
	DirectionBuy  Direction = "BUY"
	DirectionSell Direction = "SELL"
)

// StoredAmountScale is the precision stored monetary amounts are rounded to.
const StoredAmountScale = 2

// Transaction models one immutable buy/sell event.
type Transaction struct {
	ID            string
	Number        string
	VoucherNumber string
	CustomerID    string
	BranchID      string
	CurrencyCode  string
	Direction     Direction
	ForeignAmount decimal.Decimal
	ExchangeRate  decimal.Decimal
	// LocalAmount is always ForeignAmount * ExchangeRate rounded to
	// StoredAmountScale. It is derived at creation, never set directly.
	LocalAmount   decimal.Decimal
	Notes         string
	PaymentMethod string
	// TransactionAt is the business-effective instant. It defaults to the
	// creation time but may be backdated.
	TransactionAt time.Time
	// AccountingDate is derived from TransactionAt at creation time and
	// stored, so later calendar changes never rewrite history.
	AccountingDate calendar.Date
	CreatedBy      string
	CreatedAt      time.Time

	Deleted   bool
	DeletedBy string
	DeletedAt *time.Time
}

// LocalAmountOf derives the stored local-currency value of a trade.
func LocalAmountOf(foreignAmount, rate decimal.Decimal) decimal.Decimal {
	return foreignAmount.Mul(rate).Round(StoredAmountScale)
}

// CreateInput carries the caller-settable fields of a new transaction.
type CreateInput struct {
	CustomerID    string    `validate:"required"`
	BranchID      string    `validate:"required"`
	CurrencyCode  string    `validate:"required,len=3,uppercase"`
	Direction     Direction `validate:"required,oneof=BUY SELL"`
	ForeignAmount decimal.Decimal
	ExchangeRate  decimal.Decimal
	VoucherNumber string
	Notes         string
	PaymentMethod string
	// TransactionAt backdates the trade when non-zero.
	TransactionAt time.Time
	ActorID       string `validate:"required"`
}

// ErrInvalidAmount rejects non-positive trade amounts and rates.
var ErrInvalidAmount = errors.New("ledger: amount and rate must be positive")

// Validate checks the decimal fields validator tags cannot express.
func (in CreateInput) Validate() error {
	if !in.ForeignAmount.IsPositive() {
		return fmt.Errorf("foreign amount %s: %w", in.ForeignAmount, ErrInvalidAmount)
	}
	if !in.ExchangeRate.IsPositive() {
		return fmt.Errorf("exchange rate %s: %w", in.ExchangeRate, ErrInvalidAmount)
	}
	return nil
}

// BatchLeg is one trade inside a multi-leg voucher.
type BatchLeg struct {
	CustomerID    string    `validate:"required"`
	CurrencyCode  string    `validate:"required,len=3,uppercase"`
	Direction     Direction `validate:"required,oneof=BUY SELL"`
	ForeignAmount decimal.Decimal
	ExchangeRate  decimal.Decimal
	Notes         string
}

// BatchInput creates several trades sharing one voucher number.
type BatchInput struct {
	BranchID      string     `validate:"required"`
	Legs          []BatchLeg `validate:"required,min=1,dive"`
	VoucherNumber string
	PaymentMethod string
	TransactionAt time.Time
	ActorID       string `validate:"required"`
}

// Scope narrows store queries to a branch and optionally one currency.
type Scope struct {
	Branch       shared.BranchScope
	CurrencyCode string
}

// Matches reports whether a transaction falls inside the scope.
func (s Scope) Matches(tx Transaction) bool {
	if !s.Branch.IsAll() && tx.BranchID != s.Branch.BranchID() {
		return false
	}
	if s.CurrencyCode != "" && tx.CurrencyCode != s.CurrencyCode {
		return false
	}
	return true
}
