package ledger

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/moneta-erp/moneta/internal/calendar"
	"github.com/moneta-erp/moneta/internal/masterdata"
	"github.com/moneta-erp/moneta/internal/shared"
)

type memAudit struct {
	mu   sync.Mutex
	logs []shared.AuditLog
}

func (a *memAudit) Record(ctx context.Context, log shared.AuditLog) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.logs = append(a.logs, log)
	return nil
}

func newTestService(t *testing.T) (*Service, *MemoryStore, *memAudit) {
	t.Helper()
	store := NewMemoryStore()
	master := masterdata.NewMemoryStore()
	master.PutBranch(masterdata.Branch{ID: "br-1", Code: "JKT-01", IsActive: true})
	master.PutCurrency(masterdata.Currency{ID: "cur-usd", Code: "USD", Name: "US Dollar", IsActive: true})
	master.PutCurrency(masterdata.Currency{ID: "cur-sgd", Code: "SGD", Name: "Singapore Dollar", IsActive: true})
	master.PutCustomer(masterdata.CustomerProfile{
		ID: "cust-1", Code: "C001", LegalType: masterdata.LegalTypeIndividual, Name: "Budi Santoso",
	})

	cal := calendar.New(8 * time.Hour)
	numbers := NewNumberGenerator(store, master, cal, "MBA")
	audit := &memAudit{}
	svc := NewService(store, master, master, master, numbers, cal, audit)
	svc.WithNow(func() time.Time {
		return time.Date(2025, time.March, 10, 4, 0, 0, 0, time.UTC)
	})
	return svc, store, audit
}

func validInput() CreateInput {
	return CreateInput{
		CustomerID:    "cust-1",
		BranchID:      "br-1",
		CurrencyCode:  "USD",
		Direction:     DirectionBuy,
		ForeignAmount: decimal.NewFromInt(100),
		ExchangeRate:  decimal.NewFromInt(15000),
		ActorID:       "teller-1",
	}
}

func TestCreateDerivesLocalAmount(t *testing.T) {
	svc, _, _ := newTestService(t)

	in := validInput()
	in.ForeignAmount = decimal.RequireFromString("100.50")
	in.ExchangeRate = decimal.RequireFromString("15000.25")

	tx, err := svc.Create(context.Background(), in)
	require.NoError(t, err)
	// 100.50 * 15000.25 = 1507525.125, rounded half up to two decimals.
	require.True(t, tx.LocalAmount.Equal(decimal.RequireFromString("1507525.13")),
		"got %s", tx.LocalAmount)
}

func TestCreateAssignsNumberAndAccountingDate(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	first, err := svc.Create(ctx, validInput())
	require.NoError(t, err)
	require.Equal(t, "TRX-MBA-B-00001-JKT-100325", first.Number)
	require.Equal(t, calendar.Date{Year: 2025, Month: time.March, Day: 10}, first.AccountingDate)
	require.NotEmpty(t, first.ID)

	second, err := svc.Create(ctx, validInput())
	require.NoError(t, err)
	require.Equal(t, "TRX-MBA-B-00002-JKT-100325", second.Number)
	require.NotEqual(t, first.ID, second.ID)
}

func TestCreateBackdatedUsesTransactionInstant(t *testing.T) {
	svc, _, _ := newTestService(t)

	in := validInput()
	// 17:30 UTC on Mar 5 is already Mar 6 at UTC+8.
	in.TransactionAt = time.Date(2025, time.March, 5, 17, 30, 0, 0, time.UTC)

	tx, err := svc.Create(context.Background(), in)
	require.NoError(t, err)
	require.Equal(t, calendar.Date{Year: 2025, Month: time.March, Day: 6}, tx.AccountingDate)
	// The number's date segment follows the creation clock, not the backdate.
	require.True(t, strings.HasSuffix(tx.Number, "-100325"), "number %s", tx.Number)
}

func TestCreateRejectsNonPositiveAmounts(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	in := validInput()
	in.ForeignAmount = decimal.Zero
	_, err := svc.Create(ctx, in)
	require.ErrorIs(t, err, ErrInvalidAmount)

	in = validInput()
	in.ExchangeRate = decimal.NewFromInt(-1)
	_, err = svc.Create(ctx, in)
	require.ErrorIs(t, err, ErrInvalidAmount)
}

func TestCreateRejectsUnknownReferences(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	in := validInput()
	in.BranchID = "nope"
	_, err := svc.Create(ctx, in)
	require.ErrorIs(t, err, shared.ErrNotFound)

	in = validInput()
	in.CurrencyCode = "XXX"
	_, err = svc.Create(ctx, in)
	require.ErrorIs(t, err, shared.ErrNotFound)

	in = validInput()
	in.CustomerID = "nope"
	_, err = svc.Create(ctx, in)
	require.ErrorIs(t, err, shared.ErrNotFound)
}

func TestCreateValidatesInputShape(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	in := validInput()
	in.CurrencyCode = "usd"
	_, err := svc.Create(ctx, in)
	require.Error(t, err)

	in = validInput()
	in.Direction = "TRANSFER"
	_, err = svc.Create(ctx, in)
	require.Error(t, err)
}

func TestSoftDeleteHidesFromListingsOnly(t *testing.T) {
	svc, _, audit := newTestService(t)
	ctx := context.Background()

	tx, err := svc.Create(ctx, validInput())
	require.NoError(t, err)

	require.NoError(t, svc.SoftDelete(ctx, tx.ID, "supervisor-1"))

	// The row survives with its deletion marks.
	got, err := svc.Get(ctx, tx.ID)
	require.NoError(t, err)
	require.True(t, got.Deleted)
	require.Equal(t, "supervisor-1", got.DeletedBy)
	require.NotNil(t, got.DeletedAt)

	// Listings exclude it.
	day := calendar.Date{Year: 2025, Month: time.March, Day: 10}
	listed, err := svc.ListInRange(ctx, Scope{}, calendar.Range{Start: day, End: day})
	require.NoError(t, err)
	require.Empty(t, listed)

	// Double deletion is rejected.
	require.ErrorIs(t, svc.SoftDelete(ctx, tx.ID, "supervisor-1"), shared.ErrNotFound)

	require.Len(t, audit.logs, 2)
	require.Equal(t, "transaction.soft_delete", audit.logs[1].Action)
}

func TestSoftDeletedRowsStillAdvanceNumbering(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	first, err := svc.Create(ctx, validInput())
	require.NoError(t, err)
	require.NoError(t, svc.SoftDelete(ctx, first.ID, "supervisor-1"))

	second, err := svc.Create(ctx, validInput())
	require.NoError(t, err)
	require.Equal(t, "TRX-MBA-B-00002-JKT-100325", second.Number)
}

func TestListInRangeFiltersScopeAndOrder(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	early := validInput()
	early.TransactionAt = time.Date(2025, time.March, 10, 1, 0, 0, 0, time.UTC)
	late := validInput()
	late.TransactionAt = time.Date(2025, time.March, 10, 9, 0, 0, 0, time.UTC)
	sgd := validInput()
	sgd.CurrencyCode = "SGD"
	sgd.TransactionAt = time.Date(2025, time.March, 10, 5, 0, 0, 0, time.UTC)

	for _, in := range []CreateInput{late, early, sgd} {
		_, err := svc.Create(ctx, in)
		require.NoError(t, err)
	}

	day := calendar.Date{Year: 2025, Month: time.March, Day: 10}
	all, err := svc.ListInRange(ctx, Scope{}, calendar.Range{Start: day, End: day})
	require.NoError(t, err)
	require.Len(t, all, 3)
	require.True(t, all[0].TransactionAt.Before(all[1].TransactionAt))

	usdOnly, err := svc.ListInRange(ctx, Scope{CurrencyCode: "USD"}, calendar.Range{Start: day, End: day})
	require.NoError(t, err)
	require.Len(t, usdOnly, 2)
}

func TestCreateBatchSharesVoucher(t *testing.T) {
	svc, _, _ := newTestService(t)

	created, err := svc.CreateBatch(context.Background(), BatchInput{
		BranchID: "br-1",
		ActorID:  "teller-1",
		Legs: []BatchLeg{
			{CustomerID: "cust-1", CurrencyCode: "USD", Direction: DirectionBuy,
				ForeignAmount: decimal.NewFromInt(100), ExchangeRate: decimal.NewFromInt(15000)},
			{CustomerID: "cust-1", CurrencyCode: "SGD", Direction: DirectionSell,
				ForeignAmount: decimal.NewFromInt(200), ExchangeRate: decimal.NewFromInt(11500)},
		},
	})
	require.NoError(t, err)
	require.Len(t, created, 2)
	require.True(t, strings.HasPrefix(created[0].VoucherNumber, "MULTI-"))
	require.Equal(t, created[0].VoucherNumber, created[1].VoucherNumber)
}

func TestCreateBatchRejectsEmptyLegs(t *testing.T) {
	svc, _, _ := newTestService(t)
	created, err := svc.CreateBatch(context.Background(), BatchInput{BranchID: "br-1", ActorID: "teller-1"})
	require.Error(t, err)
	require.Nil(t, created)
}
