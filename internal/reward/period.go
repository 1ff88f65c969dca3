package reward

import (
	"fmt"
	"time"

	"github.com/marchweiss/perkly/internal/model"
)

// Period identifies a calendar-month billing period. Statement-cycle
// boundaries other than calendar months are a possible future
// generalization.
type Period struct {
	Year  int
	Month time.Month
}

// CurrentPeriod returns the period for the current calendar month.
func CurrentPeriod() Period {
	now := time.Now()
	return Period{Year: now.Year(), Month: now.Month()}
}

// ParsePeriod parses a YYYY-MM period string.
func ParsePeriod(s string) (Period, error) {
	t, err := time.Parse("2006-01", s)
	if err != nil {
		return Period{}, fmt.Errorf("invalid period %q (expected YYYY-MM): %w", s, err)
	}
	return Period{Year: t.Year(), Month: t.Month()}, nil
}

// String formats the period as YYYY-MM.
func (p Period) String() string {
	return fmt.Sprintf("%04d-%02d", p.Year, int(p.Month))
}

// Bounds returns the first instant of the month and the first instant of
// the following month. The period covers [start, end).
func (p Period) Bounds() (start, end time.Time) {
	start = time.Date(p.Year, p.Month, 1, 0, 0, 0, 0, time.Local)
	end = start.AddDate(0, 1, 0)
	return start, end
}

// Contains reports whether the given date falls within the period.
func (p Period) Contains(t time.Time) bool {
	return t.Year() == p.Year && t.Month() == p.Month
}

// FilterTransactions selects the subset of transactions belonging to the
// period and drops payments. Payments never count as spend regardless of
// any rule flag, so they are removed before any aggregation.
func FilterTransactions(txns []model.Transaction, p Period) []model.Transaction {
	var filtered []model.Transaction
	for _, txn := range txns {
		if txn.IsPayment {
			continue
		}
		if !p.Contains(txn.Date) {
			continue
		}
		filtered = append(filtered, txn)
	}
	return filtered
}
