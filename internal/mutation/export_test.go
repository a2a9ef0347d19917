package mutation

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/moneta-erp/moneta/internal/calendar"
	"github.com/moneta-erp/moneta/internal/shared"
)

func TestFormatterIndonesianGrouping(t *testing.T) {
	f := NewFormatter("id")

	record := Record{
		BranchScope:     shared.ScopeFor("br-1"),
		CurrencyCode:    "USD",
		CurrencyName:    "US Dollar",
		Range:           calendar.Range{Start: calendar.Date{Year: 2025, Month: time.March, Day: 10}, End: calendar.Date{Year: 2025, Month: time.March, Day: 10}},
		OpeningStockFC:  decimal.NewFromInt(1000),
		OpeningStockLC:  decimal.NewFromInt(15_000_000),
		PurchasesFC:     decimal.NewFromInt(500),
		PurchasesLC:     decimal.NewFromInt(7_600_000),
		SalesFC:         decimal.NewFromInt(300),
		SalesLC:         decimal.NewFromInt(4_650_000),
		EndingStockFC:   decimal.NewFromInt(1200),
		WeightedAvgRate: decimal.RequireFromString("15066.666666"),
		EndingStockLC:   decimal.NewFromInt(18_080_000),
		ProfitLossLC:    decimal.NewFromInt(130_000),
	}

	out := f.Format(record)
	require.Equal(t, "US Dollar", out.CurrencyName)
	require.Equal(t, "1.000,00", out.OpeningStockFC)
	require.Equal(t, "15.000.000", out.OpeningStockLC)
	require.Equal(t, "15.066,67", out.WeightedAvgRate)
	require.Equal(t, "18.080.000", out.EndingStockLC)
	require.Equal(t, "130.000", out.ProfitLossLC)
}

func TestFormatterFallsBackOnBadTag(t *testing.T) {
	f := NewFormatter("!!")
	out := f.Format(Record{EndingStockLC: decimal.NewFromInt(1_234_567)})
	require.Equal(t, "1.234.567", out.EndingStockLC)
}

func TestFormatterExactForLargeAmounts(t *testing.T) {
	f := NewFormatter("id")
	// 2^53 + 1 cannot be represented as a float64; the digits must come
	// through unchanged.
	out := f.Format(Record{
		EndingStockLC: decimal.RequireFromString("9007199254740993"),
		ProfitLossLC:  decimal.NewFromInt(-130_000),
	})
	require.Equal(t, "9.007.199.254.740.993", out.EndingStockLC)
	require.Equal(t, "-130.000", out.ProfitLossLC)
}

func TestRoundedHalfUp(t *testing.T) {
	r := Record{
		EndingStockLC:   decimal.RequireFromString("18079999.5"),
		WeightedAvgRate: decimal.RequireFromString("15066.665"),
	}.Rounded()
	require.Equal(t, "18080000", r.EndingStockLC.String())
	require.Equal(t, "15066.67", r.WeightedAvgRate.String())
}
