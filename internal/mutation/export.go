package mutation

import (
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// FormattedRecord is a record rendered for reports, with locale-aware digit
// grouping on the local-currency figures.
type FormattedRecord struct {
	CurrencyCode    string `json:"currency_code"`
	CurrencyName    string `json:"currency_name"`
	OpeningStockFC  string `json:"opening_stock_fc"`
	OpeningStockLC  string `json:"opening_stock_lc"`
	PurchasesFC     string `json:"purchases_fc"`
	PurchasesLC     string `json:"purchases_lc"`
	SalesFC         string `json:"sales_fc"`
	SalesLC         string `json:"sales_lc"`
	EndingStockFC   string `json:"ending_stock_fc"`
	WeightedAvgRate string `json:"weighted_avg_rate"`
	EndingStockLC   string `json:"ending_stock_lc"`
	ProfitLossLC    string `json:"profit_loss_lc"`
}

// Formatter renders records with a fixed locale. The deployment reports in
// Indonesian digit grouping (1.234.567,89). Digits are taken straight from
// the rounded decimal, never through a float, so output stays exact at any
// magnitude; only the separators come from the locale.
type Formatter struct {
	groupSep string
	decSep   string
}

// NewFormatter builds a Formatter for the given BCP 47 tag, falling back to
// Indonesian when the tag does not parse.
func NewFormatter(tag string) *Formatter {
	lang, err := language.Parse(tag)
	if err != nil {
		lang = language.Indonesian
	}
	p := message.NewPrinter(lang)
	return &Formatter{
		groupSep: separatorOf(p.Sprint(number.Decimal(int64(1000))), "1", "000", "."),
		decSep: separatorOf(p.Sprint(number.Decimal(1.5,
			number.MaxFractionDigits(1), number.MinFractionDigits(1))), "1", "5", ","),
	}
}

// separatorOf extracts the separator between the known prefix and suffix of a
// formatted sample, falling back for locales that render digits themselves
// differently.
func separatorOf(sample, prefix, suffix, fallback string) string {
	if !strings.HasPrefix(sample, prefix) || !strings.HasSuffix(sample, suffix) {
		return fallback
	}
	sep := strings.TrimSuffix(strings.TrimPrefix(sample, prefix), suffix)
	if sep == "" {
		return fallback
	}
	return sep
}

// Format renders one record after presentation rounding.
func (f *Formatter) Format(r Record) FormattedRecord {
	rounded := r.Rounded()
	return FormattedRecord{
		CurrencyCode:    rounded.CurrencyCode,
		CurrencyName:    rounded.CurrencyName,
		OpeningStockFC:  f.decimal(rounded.OpeningStockFC, ForeignScale),
		OpeningStockLC:  f.decimal(rounded.OpeningStockLC, LocalScale),
		PurchasesFC:     f.decimal(rounded.PurchasesFC, ForeignScale),
		PurchasesLC:     f.decimal(rounded.PurchasesLC, LocalScale),
		SalesFC:         f.decimal(rounded.SalesFC, ForeignScale),
		SalesLC:         f.decimal(rounded.SalesLC, LocalScale),
		EndingStockFC:   f.decimal(rounded.EndingStockFC, ForeignScale),
		WeightedAvgRate: f.decimal(rounded.WeightedAvgRate, RateScale),
		EndingStockLC:   f.decimal(rounded.EndingStockLC, LocalScale),
		ProfitLossLC:    f.decimal(rounded.ProfitLossLC, LocalScale),
	}
}

// FormatAll renders a report page.
func (f *Formatter) FormatAll(records []Record) []FormattedRecord {
	out := make([]FormattedRecord, 0, len(records))
	for _, r := range records {
		out = append(out, f.Format(r))
	}
	return out
}

func (f *Formatter) decimal(d decimal.Decimal, scale int) string {
	s := d.StringFixed(int32(scale))
	neg := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")
	intPart, fracPart, _ := strings.Cut(s, ".")

	var b strings.Builder
	if neg {
		b.WriteByte('-')
	}
	for i, ch := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteString(f.groupSep)
		}
		b.WriteRune(ch)
	}
	if scale > 0 {
		b.WriteString(f.decSep)
		b.WriteString(fracPart)
	}
	return b.String()
}
