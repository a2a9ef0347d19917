package regulatory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/moneta-erp/moneta/internal/calendar"
	"github.com/moneta-erp/moneta/internal/ledger"
	"github.com/moneta-erp/moneta/internal/masterdata"
	"github.com/moneta-erp/moneta/internal/shared"
)

var testCal = calendar.New(8 * time.Hour)

type fixture struct {
	repo   *MemoryRepository
	store  *ledger.MemoryStore
	master *masterdata.MemoryStore
	svc    *Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	repo := NewMemoryRepository()
	store := ledger.NewMemoryStore()
	master := masterdata.NewMemoryStore()
	master.PutBranch(masterdata.Branch{ID: "br-1", Code: "JKT-01", IsActive: true})
	master.PutCustomer(masterdata.CustomerProfile{
		ID: "cust-a", Code: "C001", LegalType: masterdata.LegalTypeIndividual,
		Name: "Budi Santoso", IdentityType: "KTP", IdentityNumber: "317301",
		BirthPlace: "Jakarta", BirthDate: "1990-01-15", IdentityAddress: "Jl. Sudirman 1",
	})
	master.PutCustomer(masterdata.CustomerProfile{
		ID: "cust-b", Code: "C002", LegalType: masterdata.LegalTypeIndividual,
		Name: "Siti Rahma", IdentityType: "KTP", IdentityNumber: "317302",
	})
	master.PutCustomer(masterdata.CustomerProfile{
		ID: "cust-c", Code: "C003", LegalType: masterdata.LegalTypeEntity,
		EntityName: "PT Maju Jaya", EntityType: "PT", LicenseNumber: "KEP-100",
		NPWP: "01.234", EntityAddress: "Jl. Thamrin 9", PICName: "Andi",
	})

	svc := NewService(repo, store, master, master, testCal, "OP-7", nil, nil)
	svc.WithNow(func() time.Time {
		return time.Date(2025, time.July, 1, 3, 0, 0, 0, time.UTC)
	})
	return &fixture{repo: repo, store: store, master: master, svc: svc}
}

// trade records a transaction for the customer at 12:00 local time.
func (f *fixture) trade(t *testing.T, customerID string, year int, month time.Month, dayN int) {
	t.Helper()
	at := time.Date(year, month, dayN, 4, 0, 0, 0, time.UTC)
	amount := decimal.NewFromInt(100)
	rate := decimal.NewFromInt(15000)
	err := f.store.Insert(context.Background(), ledger.Transaction{
		ID:             uuid.NewString(),
		Number:         uuid.NewString(),
		CustomerID:     customerID,
		BranchID:       "br-1",
		CurrencyCode:   "USD",
		Direction:      ledger.DirectionBuy,
		ForeignAmount:  amount,
		ExchangeRate:   rate,
		LocalAmount:    ledger.LocalAmountOf(amount, rate),
		TransactionAt:  at,
		AccountingDate: testCal.AccountingDateOf(at),
		CreatedAt:      at,
	})
	require.NoError(t, err)
}

func customerIDs(rows []ReportRow) []string {
	ids := make([]string, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.CustomerID)
	}
	return ids
}

func TestDraftListsQuarterCustomersOnce(t *testing.T) {
	f := newFixture(t)
	f.trade(t, "cust-a", 2025, time.January, 10)
	f.trade(t, "cust-a", 2025, time.February, 20)
	f.trade(t, "cust-b", 2025, time.March, 5)

	result, err := f.svc.Draft(context.Background(), shared.ScopeAllBranches, 2025, 1)
	require.NoError(t, err)
	require.Equal(t, StatusDraft, result.Status)
	require.ElementsMatch(t, []string{"cust-a", "cust-b"}, customerIDs(result.Rows))
	require.Equal(t, Summary{Total: 2, Individuals: 2}, result.Summary)
	require.Nil(t, result.Lock)
}

func TestReportOnceAcrossQuarters(t *testing.T) {
	f := newFixture(t)
	f.trade(t, "cust-a", 2025, time.January, 10)
	f.trade(t, "cust-b", 2025, time.February, 20)
	// Q2: one repeat customer, one new.
	f.trade(t, "cust-a", 2025, time.April, 3)
	f.trade(t, "cust-c", 2025, time.May, 8)

	ctx := context.Background()
	scope := shared.ScopeAllBranches

	_, err := f.svc.Lock(ctx, scope, 2025, 1, "compliance-1")
	require.NoError(t, err)

	q2, err := f.svc.Draft(ctx, scope, 2025, 2)
	require.NoError(t, err)
	require.Equal(t, []string{"cust-c"}, customerIDs(q2.Rows))
	require.Equal(t, Summary{Total: 1, Entities: 1}, q2.Summary)
}

func TestReportOnceResetsEachYear(t *testing.T) {
	f := newFixture(t)
	f.trade(t, "cust-a", 2025, time.January, 10)
	f.trade(t, "cust-a", 2026, time.February, 10)

	ctx := context.Background()
	scope := shared.ScopeAllBranches

	_, err := f.svc.Lock(ctx, scope, 2025, 1, "compliance-1")
	require.NoError(t, err)

	next, err := f.svc.Draft(ctx, scope, 2026, 1)
	require.NoError(t, err)
	require.Equal(t, []string{"cust-a"}, customerIDs(next.Rows))
}

func TestRowFieldsPerLegalType(t *testing.T) {
	f := newFixture(t)
	f.trade(t, "cust-a", 2025, time.January, 10)
	f.trade(t, "cust-c", 2025, time.January, 11)

	result, err := f.svc.Draft(context.Background(), shared.ScopeAllBranches, 2025, 1)
	require.NoError(t, err)
	require.Len(t, result.Rows, 2)

	byID := map[string]ReportRow{}
	for _, row := range result.Rows {
		byID[row.CustomerID] = row
	}

	individual := byID["cust-a"]
	require.Equal(t, "Budi Santoso", individual.Name)
	require.Equal(t, "KTP", individual.IdentityType)
	require.Equal(t, "317301", individual.IdentityNumber)
	require.Equal(t, "Jl. Sudirman 1", individual.Address)
	require.Equal(t, "OP-7", individual.OperatorID)
	require.Empty(t, individual.LicenseNumber)

	entity := byID["cust-c"]
	require.Equal(t, "PT Maju Jaya", entity.Name)
	require.Equal(t, "KEP-100", entity.LicenseNumber)
	require.Equal(t, "Jl. Thamrin 9", entity.Address)
	require.Equal(t, "01.234", entity.NPWP)
	require.Empty(t, entity.IdentityNumber)
}

func TestLockFreezesSnapshot(t *testing.T) {
	f := newFixture(t)
	f.trade(t, "cust-a", 2025, time.January, 10)

	ctx := context.Background()
	scope := shared.ScopeAllBranches

	count, err := f.svc.Lock(ctx, scope, 2025, 1, "compliance-1")
	require.NoError(t, err)
	require.Equal(t, 1, count)

	// New history inside the locked quarter must not change the report.
	f.trade(t, "cust-b", 2025, time.February, 1)

	result, err := f.svc.Draft(ctx, scope, 2025, 1)
	require.NoError(t, err)
	require.Equal(t, StatusLocked, result.Status)
	require.Equal(t, []string{"cust-a"}, customerIDs(result.Rows))
	require.NotNil(t, result.Lock)
	require.Equal(t, "compliance-1", result.Lock.LockedBy)
	require.Equal(t, 1, result.Lock.CustomerCount)

	state, err := f.svc.State(ctx, scope, 2025, 1)
	require.NoError(t, err)
	require.Equal(t, StatusLocked, state.Status)
	require.NotNil(t, state.Locked)
}

func TestLockRejectsEmptyPeriod(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Lock(context.Background(), shared.ScopeAllBranches, 2025, 3, "compliance-1")
	require.ErrorIs(t, err, shared.ErrEmptyPeriod)
	require.Zero(t, f.repo.Len())
}

func TestLockTwiceRejected(t *testing.T) {
	f := newFixture(t)
	f.trade(t, "cust-a", 2025, time.January, 10)

	ctx := context.Background()
	_, err := f.svc.Lock(ctx, shared.ScopeAllBranches, 2025, 1, "compliance-1")
	require.NoError(t, err)
	_, err = f.svc.Lock(ctx, shared.ScopeAllBranches, 2025, 1, "compliance-2")
	require.ErrorIs(t, err, shared.ErrAlreadyLocked)
}

func TestConcurrentLockExactlyOneWinner(t *testing.T) {
	f := newFixture(t)
	f.trade(t, "cust-a", 2025, time.January, 10)

	const attempts = 8
	var wg sync.WaitGroup
	errs := make([]error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(slot int) {
			defer wg.Done()
			_, errs[slot] = f.svc.Lock(context.Background(), shared.ScopeAllBranches, 2025, 1, "compliance-1")
		}(i)
	}
	wg.Wait()

	wins := 0
	for _, err := range errs {
		switch {
		case err == nil:
			wins++
		case errors.Is(err, shared.ErrAlreadyLocked):
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	require.Equal(t, 1, wins)
	require.Equal(t, 1, f.repo.Len())
}

func TestInvalidQuarterRejected(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Draft(ctx, shared.ScopeAllBranches, 2025, 0)
	require.ErrorIs(t, err, shared.ErrInvalidPeriod)
	_, err = f.svc.Lock(ctx, shared.ScopeAllBranches, 2025, 5, "compliance-1")
	require.ErrorIs(t, err, shared.ErrInvalidPeriod)
}

func TestUnknownBranchRejected(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Draft(context.Background(), shared.ScopeFor("missing"), 2025, 1)
	require.ErrorIs(t, err, shared.ErrNotFound)
}

func TestBranchScopesAreIndependent(t *testing.T) {
	f := newFixture(t)
	f.trade(t, "cust-a", 2025, time.January, 10)

	ctx := context.Background()
	_, err := f.svc.Lock(ctx, shared.ScopeFor("br-1"), 2025, 1, "compliance-1")
	require.NoError(t, err)

	// The all-branches scope has its own lock state.
	result, err := f.svc.Draft(ctx, shared.ScopeAllBranches, 2025, 1)
	require.NoError(t, err)
	require.Equal(t, StatusDraft, result.Status)
}

func TestYearStatusCoversAllQuarters(t *testing.T) {
	f := newFixture(t)
	f.trade(t, "cust-a", 2025, time.January, 10)

	ctx := context.Background()
	scope := shared.ScopeAllBranches
	_, err := f.svc.Lock(ctx, scope, 2025, 1, "compliance-1")
	require.NoError(t, err)

	status, err := f.svc.YearStatus(ctx, scope, 2025)
	require.NoError(t, err)
	require.Len(t, status, 4)
	require.True(t, status[1].Locked)
	require.Equal(t, "compliance-1", status[1].LockedBy)
	require.Equal(t, 1, status[1].CustomerCount)
	for q := 2; q <= 4; q++ {
		require.False(t, status[q].Locked)
	}
}
