package core

import (
	"strconv"
	"strings"
	"time"
)

const isoDate = "2006-01-02"

// Date is a calendar date with no time component. The zero value is invalid.
type Date struct {
	time.Time
}

// NewDate creates a Date from year, month, day.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// Today returns the current date in local time.
func Today() Date {
	now := time.Now()
	return NewDate(now.Year(), int(now.Month()), now.Day())
}

// Yesterday returns the date one day before today.
func Yesterday() Date {
	y := time.Now().AddDate(0, 0, -1)
	return NewDate(y.Year(), int(y.Month()), y.Day())
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

// String formats the date as YYYY-MM-DD, the representation used in storage.
func (d Date) String() string {
	return d.Format(isoDate)
}

// YearMonth returns the YYYY-MM prefix used by monthly aggregation.
func (d Date) YearMonth() string {
	return d.Format("2006-01")
}

// ParseISODate parses a YYYY-MM-DD string.
func ParseISODate(s string) (Date, error) {
	t, err := time.Parse(isoDate, strings.TrimSpace(s))
	if err != nil {
		return Date{}, ErrInvalidDate
	}
	return Date{Time: t}, nil
}

// ParseDayMonth parses user input of the form "day.month" (e.g. "7.3") and
// resolves it within the current year. The parsed date must round-trip: "31.2"
// is rejected rather than normalized to March.
func ParseDayMonth(s string) (Date, error) {
	parts := strings.Split(strings.TrimSpace(s), ".")
	if len(parts) != 2 {
		return Date{}, ErrInvalidDate
	}
	day, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return Date{}, ErrInvalidDate
	}
	month, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return Date{}, ErrInvalidDate
	}
	if month < 1 || month > 12 || day < 1 || day > 31 {
		return Date{}, ErrInvalidDate
	}
	d := NewDate(time.Now().Year(), month, day)
	if d.Day() != day || int(d.Month()) != month {
		return Date{}, ErrInvalidDate
	}
	return d, nil
}
