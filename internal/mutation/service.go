package mutation

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/singleflight"

	"github.com/moneta-erp/moneta/internal/calendar"
	"github.com/moneta-erp/moneta/internal/ledger"
	"github.com/moneta-erp/moneta/internal/masterdata"
	"github.com/moneta-erp/moneta/internal/shared"
)

// Service computes mutation records. Every invocation re-reads the store, so
// there is no cache staleness to reason about; identical concurrent report
// requests are collapsed through singleflight instead.
type Service struct {
	store      ledger.Store
	branches   masterdata.BranchConfig
	currencies masterdata.CurrencyCatalog
	cal        calendar.Calendar
	group      singleflight.Group
}

// NewService builds Service.
func NewService(store ledger.Store, branches masterdata.BranchConfig, currencies masterdata.CurrencyCatalog, cal calendar.Calendar) *Service {
	return &Service{store: store, branches: branches, currencies: currencies, cal: cal}
}

// Compute derives the mutation record for one (scope, currency, date range).
// The second return is false when the currency has no stock and no activity
// in scope and is therefore omitted. An unknown currency code yields an
// omitted record, not an error; an unknown branch yields shared.ErrNotFound.
func (s *Service) Compute(ctx context.Context, scope shared.BranchScope, currencyCode string, dates calendar.Range) (Record, bool, error) {
	if dates.Start.IsZero() || dates.End.IsZero() || dates.End.Before(dates.Start) {
		return Record{}, false, fmt.Errorf("mutation: bad date range: %w", shared.ErrInvalidPeriod)
	}
	if !scope.IsAll() {
		exists, err := s.branches.Exists(ctx, scope.BranchID())
		if err != nil {
			return Record{}, false, err
		}
		if !exists {
			return Record{}, false, fmt.Errorf("mutation: branch %s: %w", scope.BranchID(), shared.ErrNotFound)
		}
	}
	currency, err := s.currencies.GetByCode(ctx, currencyCode)
	if errors.Is(err, shared.ErrNotFound) {
		return Record{}, false, nil
	}
	if err != nil {
		return Record{}, false, err
	}
	return s.compute(ctx, scope, currency, dates)
}

// ComputeAll derives one record per active currency for the scope, omitting
// zero-history currencies.
func (s *Service) ComputeAll(ctx context.Context, scope shared.BranchScope, dates calendar.Range) ([]Record, error) {
	if dates.Start.IsZero() || dates.End.IsZero() || dates.End.Before(dates.Start) {
		return nil, fmt.Errorf("mutation: bad date range: %w", shared.ErrInvalidPeriod)
	}
	if !scope.IsAll() {
		exists, err := s.branches.Exists(ctx, scope.BranchID())
		if err != nil {
			return nil, err
		}
		if !exists {
			return nil, fmt.Errorf("mutation: branch %s: %w", scope.BranchID(), shared.ErrNotFound)
		}
	}
	key := fmt.Sprintf("%s:%s:%s", scope, dates.Start, dates.End)
	result, err, _ := s.group.Do(key, func() (any, error) {
		currencies, err := s.currencies.ListActive(ctx)
		if err != nil {
			return nil, err
		}
		records := []Record{}
		for _, currency := range currencies {
			record, ok, err := s.compute(ctx, scope, currency, dates)
			if err != nil {
				return nil, err
			}
			if ok {
				records = append(records, record)
			}
		}
		return records, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]Record), nil
}

func (s *Service) compute(ctx context.Context, scope shared.BranchScope, currency masterdata.Currency, dates calendar.Range) (Record, bool, error) {
	txScope := ledger.Scope{Branch: scope, CurrencyCode: currency.Code}

	openingFC, openingLC, err := s.openingPosition(ctx, txScope, dates.Start)
	if err != nil {
		return Record{}, false, err
	}

	start, end := s.cal.UTCRangeOfSpan(dates)
	txs, err := s.store.FindInRange(ctx, txScope, start, end)
	if err != nil {
		return Record{}, false, err
	}

	purchasesFC, purchasesLC, salesFC, salesLC := sumByDirection(txs)

	record := Record{
		BranchScope:      scope,
		CurrencyCode:     currency.Code,
		CurrencyName:     currency.Name,
		Range:            dates,
		OpeningStockFC:   openingFC,
		OpeningStockLC:   openingLC,
		PurchasesFC:      purchasesFC,
		PurchasesLC:      purchasesLC,
		SalesFC:          salesFC,
		SalesLC:          salesLC,
		TransactionCount: len(txs),
	}

	record.EndingStockFC = openingFC.Add(purchasesFC).Sub(salesFC)
	record.WeightedAvgRate = weightedAvgRate(openingFC, openingLC, purchasesFC, purchasesLC)
	record.EndingStockLC = record.EndingStockFC.Mul(record.WeightedAvgRate)
	record.ProfitLossLC = record.EndingStockLC.Add(salesLC).Sub(openingLC.Add(purchasesLC))

	if record.IsEmpty() {
		return Record{}, false, nil
	}
	return record, true, nil
}

// openingPosition replays the configured opening balance and every
// non-deleted transaction strictly before the range start, one accounting day
// at a time. Each day's sales are removed at that day's running average, the
// same expression the daily record uses for its ending values, so a day's
// opening always equals the previous day's computed ending exactly.
func (s *Service) openingPosition(ctx context.Context, txScope ledger.Scope, start calendar.Date) (decimal.Decimal, decimal.Decimal, error) {
	configuredFC, configuredLC := decimal.Zero, decimal.Zero
	if !txScope.Branch.IsAll() {
		balance, err := s.branches.GetOpeningBalance(ctx, txScope.Branch.BranchID(), txScope.CurrencyCode)
		if err != nil {
			return decimal.Zero, decimal.Zero, err
		}
		configuredFC, configuredLC = balance.Foreign, balance.Local
	}

	rangeStart, _ := s.cal.UTCRangeOf(start)
	prior, err := s.store.FindInRange(ctx, txScope, time.Time{}, rangeStart)
	if err != nil {
		return decimal.Zero, decimal.Zero, err
	}
	if len(prior) == 0 {
		return configuredFC, configuredLC, nil
	}

	byDay := map[calendar.Date][]ledger.Transaction{}
	days := []calendar.Date{}
	for _, tx := range prior {
		if _, seen := byDay[tx.AccountingDate]; !seen {
			days = append(days, tx.AccountingDate)
		}
		byDay[tx.AccountingDate] = append(byDay[tx.AccountingDate], tx)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })

	fc, lc := configuredFC, configuredLC
	for _, d := range days {
		// Sale proceeds carry profit; cost removal values sold units at
		// the day's average, so the sellsLC sum is not used here.
		buysFC, buysLC, sellsFC, _ := sumByDirection(byDay[d])
		avg := weightedAvgRate(fc, lc, buysFC, buysLC)
		fc = fc.Add(buysFC).Sub(sellsFC)
		lc = fc.Mul(avg)
	}
	return fc, lc, nil
}

// weightedAvgRate is the cost-basis average: (openingLC + purchasesLC) /
// (openingFC + purchasesFC), zero when the denominator is zero. A brand-new
// currency with no history resolves to zero, not an error.
func weightedAvgRate(openingFC, openingLC, purchasesFC, purchasesLC decimal.Decimal) decimal.Decimal {
	denominator := openingFC.Add(purchasesFC)
	if denominator.IsZero() {
		return decimal.Zero
	}
	return openingLC.Add(purchasesLC).Div(denominator)
}

func sumByDirection(txs []ledger.Transaction) (buysFC, buysLC, sellsFC, sellsLC decimal.Decimal) {
	buysFC, buysLC = decimal.Zero, decimal.Zero
	sellsFC, sellsLC = decimal.Zero, decimal.Zero
	for _, tx := range txs {
		switch tx.Direction {
		case ledger.DirectionBuy:
			buysFC = buysFC.Add(tx.ForeignAmount)
			buysLC = buysLC.Add(tx.LocalAmount)
		case ledger.DirectionSell:
			sellsFC = sellsFC.Add(tx.ForeignAmount)
			sellsLC = sellsLC.Add(tx.LocalAmount)
		}
	}
	return buysFC, buysLC, sellsFC, sellsLC
}
