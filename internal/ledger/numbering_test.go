package ledger

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/moneta-erp/moneta/internal/calendar"
	"github.com/moneta-erp/moneta/internal/masterdata"
)

func TestNumberFormat(t *testing.T) {
	store := NewMemoryStore()
	master := masterdata.NewMemoryStore()
	master.PutBranch(masterdata.Branch{ID: "br-1", Code: "JKT-01", IsActive: true})

	cal := calendar.New(8 * time.Hour)
	gen := NewNumberGenerator(store, master, cal, "MBA")
	gen.WithNow(func() time.Time {
		return time.Date(2025, time.March, 10, 4, 0, 0, 0, time.UTC)
	})

	ctx := context.Background()

	number, err := gen.Next(ctx, DirectionBuy, "br-1")
	require.NoError(t, err)
	require.Equal(t, "TRX-MBA-B-00001-JKT-100325", number)

	number, err = gen.Next(ctx, DirectionSell, "br-1")
	require.NoError(t, err)
	require.Equal(t, "TRX-MBA-J-00001-JKT-100325", number)
}

func TestNumberDateSegmentUsesAccountingDate(t *testing.T) {
	store := NewMemoryStore()
	master := masterdata.NewMemoryStore()
	master.PutBranch(masterdata.Branch{ID: "br-1", Code: "JKT-01", IsActive: true})

	cal := calendar.New(8 * time.Hour)
	gen := NewNumberGenerator(store, master, cal, "MBA")
	// 18:30 UTC is already 02:30 of the next day at UTC+8.
	gen.WithNow(func() time.Time {
		return time.Date(2025, time.March, 10, 18, 30, 0, 0, time.UTC)
	})

	number, err := gen.Next(context.Background(), DirectionBuy, "br-1")
	require.NoError(t, err)
	require.Equal(t, "TRX-MBA-B-00001-JKT-110325", number)
}

func TestNumberFallsBackOnUnknownBranch(t *testing.T) {
	store := NewMemoryStore()
	master := masterdata.NewMemoryStore()

	cal := calendar.New(8 * time.Hour)
	gen := NewNumberGenerator(store, master, cal, "MBA")
	gen.WithNow(func() time.Time {
		return time.Date(2025, time.March, 10, 4, 0, 0, 0, time.UTC)
	})

	number, err := gen.Next(context.Background(), DirectionBuy, "missing")
	require.NoError(t, err)
	require.Equal(t, "TRX-MBA-B-00001-00-100325", number)
}

func TestNormalizeBranchCode(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"JKT-01", "JKT"},
		{"sby", "SBY"},
		{"MEDAN", "MED"},
		{" bd ", "BD"},
		{"", "00"},
		{"-01", "00"},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, NormalizeBranchCode(tc.in), "input %q", tc.in)
	}
}
