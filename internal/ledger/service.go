package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/moneta-erp/moneta/internal/calendar"
	"github.com/moneta-erp/moneta/internal/masterdata"
	"github.com/moneta-erp/moneta/internal/shared"
)

// Service coordinates transaction creation, listing, and soft deletion.
type Service struct {
	store      Store
	branches   masterdata.BranchConfig
	currencies masterdata.CurrencyCatalog
	customers  masterdata.Directory
	numbers    *NumberGenerator
	cal        calendar.Calendar
	audit      shared.AuditPort
	validate   *validator.Validate
	now        func() time.Time
}

// NewService builds Service.
func NewService(store Store, branches masterdata.BranchConfig, currencies masterdata.CurrencyCatalog, customers masterdata.Directory, numbers *NumberGenerator, cal calendar.Calendar, audit shared.AuditPort) *Service {
	return &Service{
		store:      store,
		branches:   branches,
		currencies: currencies,
		customers:  customers,
		numbers:    numbers,
		cal:        cal,
		audit:      audit,
		validate:   validator.New(),
		now:        time.Now,
	}
}

// WithNow overrides the clock for deterministic tests.
func (s *Service) WithNow(now func() time.Time) {
	if now != nil {
		s.now = now
		s.numbers.WithNow(now)
	}
}

// Create validates, numbers, and appends one transaction.
func (s *Service) Create(ctx context.Context, in CreateInput) (Transaction, error) {
	if err := s.validate.Struct(in); err != nil {
		return Transaction{}, fmt.Errorf("ledger: invalid input: %w", err)
	}
	if err := in.Validate(); err != nil {
		return Transaction{}, err
	}
	exists, err := s.branches.Exists(ctx, in.BranchID)
	if err != nil {
		return Transaction{}, err
	}
	if !exists {
		return Transaction{}, fmt.Errorf("ledger: branch %s: %w", in.BranchID, shared.ErrNotFound)
	}
	if _, err := s.currencies.GetByCode(ctx, in.CurrencyCode); err != nil {
		return Transaction{}, fmt.Errorf("ledger: currency %s: %w", in.CurrencyCode, err)
	}
	if _, err := s.customers.GetByID(ctx, in.CustomerID); err != nil {
		return Transaction{}, fmt.Errorf("ledger: customer %s: %w", in.CustomerID, err)
	}

	number, err := s.numbers.Next(ctx, in.Direction, in.BranchID)
	if err != nil {
		return Transaction{}, err
	}

	now := s.now().UTC()
	instant := in.TransactionAt
	if instant.IsZero() {
		instant = now
	}

	tx := Transaction{
		ID:            uuid.NewString(),
		Number:        number,
		VoucherNumber: in.VoucherNumber,
		CustomerID:    in.CustomerID,
		BranchID:      in.BranchID,
		CurrencyCode:  in.CurrencyCode,
		Direction:     in.Direction,
		ForeignAmount: in.ForeignAmount,
		ExchangeRate:  in.ExchangeRate,
		LocalAmount:   LocalAmountOf(in.ForeignAmount, in.ExchangeRate),
		Notes:         in.Notes,
		PaymentMethod: in.PaymentMethod,
		TransactionAt: instant,
		AccountingDate: s.cal.AccountingDateOf(instant),
		CreatedBy:     in.ActorID,
		CreatedAt:     now,
	}
	if err := s.store.Insert(ctx, tx); err != nil {
		return Transaction{}, err
	}
	s.recordAudit(ctx, in.ActorID, "transaction.create", tx.ID, map[string]any{
		"number":   tx.Number,
		"branch":   tx.BranchID,
		"currency": tx.CurrencyCode,
	})
	return tx, nil
}

// CreateBatch creates one transaction per leg, all sharing a voucher number.
// A missing voucher number is generated from the batch timestamp the way the
// cashier front office expects.
func (s *Service) CreateBatch(ctx context.Context, in BatchInput) ([]Transaction, error) {
	if err := s.validate.Struct(in); err != nil {
		return nil, fmt.Errorf("ledger: invalid input: %w", err)
	}
	voucher := in.VoucherNumber
	if voucher == "" {
		voucher = fmt.Sprintf("MULTI-%s", s.now().UTC().Format("20060102150405"))
	}
	created := make([]Transaction, 0, len(in.Legs))
	for _, leg := range in.Legs {
		tx, err := s.Create(ctx, CreateInput{
			CustomerID:    leg.CustomerID,
			BranchID:      in.BranchID,
			CurrencyCode:  leg.CurrencyCode,
			Direction:     leg.Direction,
			ForeignAmount: leg.ForeignAmount,
			ExchangeRate:  leg.ExchangeRate,
			VoucherNumber: voucher,
			Notes:         leg.Notes,
			PaymentMethod: in.PaymentMethod,
			TransactionAt: in.TransactionAt,
			ActorID:       in.ActorID,
		})
		if err != nil {
			return nil, err
		}
		created = append(created, tx)
	}
	return created, nil
}

// SoftDelete flags a transaction as deleted and audits the actor.
func (s *Service) SoftDelete(ctx context.Context, id, actorID string) error {
	if err := s.store.SoftDelete(ctx, id, actorID); err != nil {
		return err
	}
	s.recordAudit(ctx, actorID, "transaction.soft_delete", id, nil)
	return nil
}

// Get loads a transaction by id.
func (s *Service) Get(ctx context.Context, id string) (Transaction, error) {
	return s.store.Get(ctx, id)
}

// ListInRange returns non-deleted transactions for the scope across an
// inclusive accounting-date range.
func (s *Service) ListInRange(ctx context.Context, scope Scope, dates calendar.Range) ([]Transaction, error) {
	start, end := s.cal.UTCRangeOfSpan(dates)
	return s.store.FindInRange(ctx, scope, start, end)
}

func (s *Service) recordAudit(ctx context.Context, actorID, action, entityID string, meta map[string]any) {
	if s.audit == nil {
		return
	}
	// Auditing is best-effort; a failed audit write never rolls back money.
	_ = s.audit.Record(ctx, shared.AuditLog{
		ActorID:  actorID,
		Action:   action,
		Entity:   "transaction",
		EntityID: entityID,
		Meta:     meta,
		At:       s.now().UTC(),
	})
}
