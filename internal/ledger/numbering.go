package ledger

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/moneta-erp/moneta/internal/calendar"
	"github.com/moneta-erp/moneta/internal/masterdata"
	"github.com/moneta-erp/moneta/internal/shared"
)

const (
	fallbackBranchCode = "00"
	branchCodeWidth    = 3
)

// NumberGenerator produces the human-readable transaction number
// TRX-<org>-<J|B>-<seq>-<branch>-<DDMMYY>. The sequence is a same-day count
// across all branches; two concurrent creations can race on it and produce a
// duplicate, which is cosmetic only because the uuid id carries uniqueness.
type NumberGenerator struct {
	store    Store
	branches masterdata.BranchConfig
	cal      calendar.Calendar
	orgCode  string
	now      func() time.Time
}

// NewNumberGenerator constructs NumberGenerator.
func NewNumberGenerator(store Store, branches masterdata.BranchConfig, cal calendar.Calendar, orgCode string) *NumberGenerator {
	return &NumberGenerator{
		store:    store,
		branches: branches,
		cal:      cal,
		orgCode:  orgCode,
		now:      time.Now,
	}
}

// WithNow overrides the clock for deterministic tests.
func (g *NumberGenerator) WithNow(now func() time.Time) {
	if now != nil {
		g.now = now
	}
}

// Next generates the number for a new transaction. The date segment uses the
// accounting date, not the wall-clock UTC date.
func (g *NumberGenerator) Next(ctx context.Context, direction Direction, branchID string) (string, error) {
	indicator := "B"
	if direction == DirectionSell {
		indicator = "J"
	}

	branchCode := fallbackBranchCode
	code, err := g.branches.GetBranchCode(ctx, branchID)
	if err != nil && !errors.Is(err, shared.ErrNotFound) {
		return "", err
	}
	if code != "" {
		branchCode = NormalizeBranchCode(code)
	}

	today := g.cal.AccountingDateOf(g.now())
	count, err := g.store.CountByAccountingDate(ctx, today)
	if err != nil {
		return "", err
	}

	dateSuffix := fmt.Sprintf("%02d%02d%02d", today.Day, int(today.Month), today.Year%100)
	return fmt.Sprintf("TRX-%s-%s-%05d-%s-%s", g.orgCode, indicator, count+1, branchCode, dateSuffix), nil
}

// NormalizeBranchCode reduces a configured branch code to the segment before
// the first separator, upper-cased and truncated.
func NormalizeBranchCode(code string) string {
	segment, _, _ := strings.Cut(code, "-")
	segment = strings.ToUpper(strings.TrimSpace(segment))
	if len(segment) > branchCodeWidth {
		segment = segment[:branchCodeWidth]
	}
	if segment == "" {
		return fallbackBranchCode
	}
	return segment
}
