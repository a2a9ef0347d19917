package jobs

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/moneta-erp/moneta/internal/calendar"
	"github.com/moneta-erp/moneta/internal/ledger"
	"github.com/moneta-erp/moneta/internal/masterdata"
	"github.com/moneta-erp/moneta/internal/mutation"
	"github.com/moneta-erp/moneta/internal/shared"
)

func newSnapshotHandler(t *testing.T) (*MutationSnapshotHandler, *mutation.Materializer) {
	t.Helper()
	cal := calendar.New(8 * time.Hour)
	store := ledger.NewMemoryStore()
	master := masterdata.NewMemoryStore()
	master.PutBranch(masterdata.Branch{ID: "br-1", Code: "JKT-01", IsActive: true})
	master.PutCurrency(masterdata.Currency{ID: "cur-usd", Code: "USD", Name: "US Dollar", IsActive: true})

	at := time.Date(2025, time.March, 10, 2, 0, 0, 0, time.UTC)
	amount := decimal.NewFromInt(500)
	rate := decimal.NewFromInt(15200)
	require.NoError(t, store.Insert(context.Background(), ledger.Transaction{
		ID:             uuid.NewString(),
		Number:         uuid.NewString(),
		CustomerID:     "cust-1",
		BranchID:       "br-1",
		CurrencyCode:   "USD",
		Direction:      ledger.DirectionBuy,
		ForeignAmount:  amount,
		ExchangeRate:   rate,
		LocalAmount:    ledger.LocalAmountOf(amount, rate),
		TransactionAt:  at,
		AccountingDate: cal.AccountingDateOf(at),
		CreatedAt:      at,
	}))

	svc := mutation.NewService(store, master, master, cal)
	materializer := mutation.NewMaterializer(svc, mutation.NewMemorySnapshots(), master)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewMutationSnapshotHandler(materializer, cal, logger), materializer
}

func TestProcessMutationSnapshotTask(t *testing.T) {
	handler, materializer := newSnapshotHandler(t)

	day := calendar.Date{Year: 2025, Month: time.March, Day: 10}
	task, err := NewMutationSnapshotTask(day)
	require.NoError(t, err)

	require.NoError(t, handler.ProcessTask(context.Background(), task))

	snaps, err := materializer.ListSnapshots(context.Background(), shared.ScopeFor("br-1"),
		calendar.Range{Start: day, End: day})
	require.NoError(t, err)
	require.Len(t, snaps, 1)
	require.Equal(t, "USD", snaps[0].CurrencyCode)
}

func TestProcessMutationSnapshotDefaultsToPreviousDay(t *testing.T) {
	handler, materializer := newSnapshotHandler(t)
	handler.now = func() time.Time {
		// 00:30 local on March 11 at UTC+8.
		return time.Date(2025, time.March, 10, 16, 30, 0, 0, time.UTC)
	}

	task, err := NewMutationSnapshotTask(calendar.Date{})
	require.NoError(t, err)
	require.NoError(t, handler.ProcessTask(context.Background(), task))

	day := calendar.Date{Year: 2025, Month: time.March, Day: 10}
	snaps, err := materializer.ListSnapshots(context.Background(), shared.ScopeAllBranches,
		calendar.Range{Start: day, End: day})
	require.NoError(t, err)
	require.Len(t, snaps, 1)
}

func TestProcessMutationSnapshotBadPayload(t *testing.T) {
	handler, _ := newSnapshotHandler(t)

	task := asynq.NewTask(TaskMutationSnapshot, []byte("{not json"))
	err := handler.ProcessTask(context.Background(), task)
	require.ErrorIs(t, err, asynq.SkipRetry)

	task = asynq.NewTask(TaskMutationSnapshot, []byte(`{"date":"10-03-2025"}`))
	err = handler.ProcessTask(context.Background(), task)
	require.ErrorIs(t, err, asynq.SkipRetry)
}
