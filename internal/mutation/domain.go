// Package mutation computes per-currency stock movement figures for an
// accounting period: opening stock, purchases, sales, ending stock,
// weighted-average cost rate, and realized profit/loss.
package mutation

import (
	"github.com/shopspring/decimal"

	"github.com/moneta-erp/moneta/internal/calendar"
	"github.com/moneta-erp/moneta/internal/shared"
)

// Presentation rounding scales. Internal arithmetic stays exact; rounding
// happens once, at the output boundary.
const (
	ForeignScale = 2
	LocalScale   = 0
	RateScale    = 2
)

// Record is the derived stock ledger for one (scope, currency, date range).
// It is reconstructible at any time from the transaction store plus the
// configured opening position.
type Record struct {
	BranchScope  shared.BranchScope
	CurrencyCode string
	CurrencyName string
	Range        calendar.Range

	OpeningStockFC decimal.Decimal
	OpeningStockLC decimal.Decimal
	PurchasesFC    decimal.Decimal
	PurchasesLC    decimal.Decimal
	SalesFC        decimal.Decimal
	SalesLC        decimal.Decimal
	// EndingStockFC = OpeningStockFC + PurchasesFC - SalesFC.
	EndingStockFC decimal.Decimal
	// WeightedAvgRate = (OpeningStockLC + PurchasesLC) / (OpeningStockFC +
	// PurchasesFC); zero when the denominator is zero. Sales never move the
	// average cost.
	WeightedAvgRate decimal.Decimal
	// EndingStockLC = EndingStockFC * WeightedAvgRate.
	EndingStockLC decimal.Decimal
	// ProfitLossLC = (EndingStockLC + SalesLC) - (OpeningStockLC + PurchasesLC).
	ProfitLossLC decimal.Decimal

	TransactionCount int
}

// Rounded returns a copy with presentation rounding applied: foreign amounts
// to ForeignScale, local amounts to whole units, half-up.
func (r Record) Rounded() Record {
	r.OpeningStockFC = r.OpeningStockFC.Round(ForeignScale)
	r.PurchasesFC = r.PurchasesFC.Round(ForeignScale)
	r.SalesFC = r.SalesFC.Round(ForeignScale)
	r.EndingStockFC = r.EndingStockFC.Round(ForeignScale)
	r.OpeningStockLC = r.OpeningStockLC.Round(LocalScale)
	r.PurchasesLC = r.PurchasesLC.Round(LocalScale)
	r.SalesLC = r.SalesLC.Round(LocalScale)
	r.EndingStockLC = r.EndingStockLC.Round(LocalScale)
	r.ProfitLossLC = r.ProfitLossLC.Round(LocalScale)
	r.WeightedAvgRate = r.WeightedAvgRate.Round(RateScale)
	return r
}

// IsEmpty reports whether the record carries no stock and no activity, in
// which case it is omitted from output.
func (r Record) IsEmpty() bool {
	return r.TransactionCount == 0 &&
		r.OpeningStockFC.IsZero() && r.OpeningStockLC.IsZero()
}
