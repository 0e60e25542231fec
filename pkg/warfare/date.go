package warfare

import (
	"fmt"
)

// Calendar constants. The simulation uses uniform 30-day months.
const (
	DaysPerMonth  = 30
	MonthsPerYear = 12
	DaysPerYear   = DaysPerMonth * MonthsPerYear
	epochYear     = 1444
)

// Date is a simulation calendar date. Months and days are 1-based.
type Date struct {
	Year  int
	Month int
	Day   int
}

// NewDate returns a date; it does not normalize out-of-range fields.
func NewDate(year, month, day int) Date {
	return Date{Year: year, Month: month, Day: day}
}

// DaysFromEpoch returns the number of days since 1444.1.1.
func (d Date) DaysFromEpoch() int {
	return (d.Year-epochYear)*DaysPerYear + (d.Month-1)*DaysPerMonth + (d.Day - 1)
}

func dateFromEpochDays(n int) Date {
	y := epochYear + floorDiv(n, DaysPerYear)
	rem := n - (y-epochYear)*DaysPerYear
	return Date{Year: y, Month: rem/DaysPerMonth + 1, Day: rem%DaysPerMonth + 1}
}

func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

// AddDays returns the date n days later (n may be negative).
func (d Date) AddDays(n int) Date { return dateFromEpochDays(d.DaysFromEpoch() + n) }

// AddYears returns the same day n years later.
func (d Date) AddYears(n int) Date { return Date{Year: d.Year + n, Month: d.Month, Day: d.Day} }

// DaysUntil returns o - d in days.
func (d Date) DaysUntil(o Date) int { return o.DaysFromEpoch() - d.DaysFromEpoch() }

func (d Date) Before(o Date) bool { return d.DaysFromEpoch() < o.DaysFromEpoch() }
func (d Date) After(o Date) bool  { return d.DaysFromEpoch() > o.DaysFromEpoch() }

// Compare returns -1, 0 or 1.
func (d Date) Compare(o Date) int {
	a, b := d.DaysFromEpoch(), o.DaysFromEpoch()
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

// IsMonthStart reports whether d is the first day of a month.
func (d Date) IsMonthStart() bool { return d.Day == 1 }

func (d Date) String() string { return fmt.Sprintf("%d.%d.%d", d.Year, d.Month, d.Day) }

// MarshalText encodes the date as "1444.11.11".
func (d Date) MarshalText() ([]byte, error) { return []byte(d.String()), nil }

// UnmarshalText parses "1444.11.11".
func (d *Date) UnmarshalText(b []byte) error {
	p, err := ParseDate(string(b))
	if err != nil {
		return err
	}
	*d = p
	return nil
}

// ParseDate parses "Y.M.D".
func ParseDate(s string) (Date, error) {
	var d Date
	if _, err := fmt.Sscanf(s, "%d.%d.%d", &d.Year, &d.Month, &d.Day); err != nil {
		return Date{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	if d.Month < 1 || d.Month > MonthsPerYear || d.Day < 1 || d.Day > DaysPerMonth {
		return Date{}, fmt.Errorf("parse date %q: out of range", s)
	}
	return d, nil
}
