// Package calendar maps wall-clock instants to local accounting dates and
// reporting periods. Every "which day does this transaction belong to"
// decision in the system goes through here.
package calendar

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidPeriod indicates a quarter outside [1,4].
var ErrInvalidPeriod = errors.New("calendar: quarter must be between 1 and 4")

// Date is a calendar day in the accounting timezone.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// DateOf builds a Date from a time.Time in its own location.
func DateOf(t time.Time) Date {
	return Date{Year: t.Year(), Month: t.Month(), Day: t.Day()}
}

// String renders the date as YYYY-MM-DD.
func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return Date{}, fmt.Errorf("calendar: parse date %q: %w", s, err)
	}
	return DateOf(t), nil
}

// Time returns midnight of the date in the given location.
func (d Date) Time(loc *time.Location) time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, loc)
}

// Next returns the following calendar day.
func (d Date) Next() Date {
	return DateOf(d.Time(time.UTC).AddDate(0, 0, 1))
}

// Prev returns the preceding calendar day.
func (d Date) Prev() Date {
	return DateOf(d.Time(time.UTC).AddDate(0, 0, -1))
}

// Before reports whether d is strictly earlier than other.
func (d Date) Before(other Date) bool {
	if d.Year != other.Year {
		return d.Year < other.Year
	}
	if d.Month != other.Month {
		return d.Month < other.Month
	}
	return d.Day < other.Day
}

// After reports whether d is strictly later than other.
func (d Date) After(other Date) bool {
	return other.Before(d)
}

// IsZero reports whether d is the zero value.
func (d Date) IsZero() bool {
	return d.Year == 0 && d.Month == 0 && d.Day == 0
}

// Range is an inclusive span of accounting dates.
type Range struct {
	Start Date
	End   Date
}

// Calendar converts between instants and accounting dates using a fixed
// local offset. The deployment runs at UTC+8; the offset is configuration,
// never hard-coded at call sites.
type Calendar struct {
	loc *time.Location
}

// New builds a Calendar with the given offset from UTC.
func New(offset time.Duration) Calendar {
	seconds := int(offset / time.Second)
	return Calendar{loc: time.FixedZone(fmt.Sprintf("UTC%+03d", seconds/3600), seconds)}
}

// Location exposes the accounting timezone.
func (c Calendar) Location() *time.Location {
	if c.loc == nil {
		return time.UTC
	}
	return c.loc
}

// AccountingDateOf returns the local accounting date for an instant.
func (c Calendar) AccountingDateOf(instant time.Time) Date {
	return DateOf(instant.In(c.Location()))
}

// UTCRangeOf returns the half-open UTC instant range covering the accounting
// date: [local midnight, local midnight + 24h).
func (c Calendar) UTCRangeOf(d Date) (time.Time, time.Time) {
	start := d.Time(c.Location())
	return start.UTC(), start.AddDate(0, 0, 1).UTC()
}

// UTCRangeOfSpan returns the half-open UTC instant range covering the
// inclusive date range [r.Start, r.End].
func (c Calendar) UTCRangeOfSpan(r Range) (time.Time, time.Time) {
	start, _ := c.UTCRangeOf(r.Start)
	_, end := c.UTCRangeOf(r.End)
	return start, end
}

// QuarterRangeOf maps (year, quarter) to the inclusive first and last
// accounting dates of the quarter. Month arithmetic handles 28/29/30/31-day
// months and leap years.
func (c Calendar) QuarterRangeOf(year, quarter int) (Date, Date, error) {
	if quarter < 1 || quarter > 4 {
		return Date{}, Date{}, ErrInvalidPeriod
	}
	firstMonth := time.Month(3*(quarter-1) + 1)
	first := Date{Year: year, Month: firstMonth, Day: 1}
	// Day zero of month+3 is the last day of the quarter's final month.
	lastT := time.Date(year, firstMonth+3, 0, 0, 0, 0, 0, time.UTC)
	return first, DateOf(lastT), nil
}

// QuarterOf returns the quarter [1,4] containing the date.
func QuarterOf(d Date) int {
	return (int(d.Month)-1)/3 + 1
}
