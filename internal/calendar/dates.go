package calendar

import (
	"fmt"
	"time"

	"github.com/zapponejosh/pathshala-api/internal/database"
	"github.com/zapponejosh/pathshala-api/internal/nepali"
)

// DayName returns the day of week name (Sunday, Monday, etc.)
func DayName(date time.Time) string {
	return date.Weekday().String()
}

// Today returns the current calendar date in loc.
func Today(loc *time.Location) database.Date {
	return database.NewDate(time.Now().In(loc))
}

// ParseDateString parses a date string in YYYY-MM-DD format
func ParseDateString(dateStr string) (database.Date, error) {
	return database.ParseDate(dateStr)
}

// ParseAnyDate accepts either an AD date (YYYY-MM-DD) or a BS date
// (YYYY/MM/DD) and returns the AD date.
func ParseAnyDate(s string) (database.Date, error) {
	if d, err := database.ParseDate(s); err == nil {
		return d, nil
	}
	bs, err := nepali.Parse(s)
	if err != nil {
		return database.Date{}, fmt.Errorf("date %q is neither YYYY-MM-DD nor a valid BS YYYY/MM/DD: %w", s, err)
	}
	ad, err := bs.ToAD()
	if err != nil {
		return database.Date{}, err
	}
	return database.NewDate(ad), nil
}

// BSMonthRange returns the first and last AD dates of a BS month.
func BSMonthRange(year, month int) (first, last database.Date, err error) {
	n, err := nepali.DaysInMonth(year, month)
	if err != nil {
		return database.Date{}, database.Date{}, err
	}
	start, err := nepali.Date{Year: year, Month: month, Day: 1}.ToAD()
	if err != nil {
		return database.Date{}, database.Date{}, err
	}
	first = database.NewDate(start)
	return first, first.AddDays(n - 1), nil
}
