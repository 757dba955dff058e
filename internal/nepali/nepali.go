// Package nepali converts dates between the Gregorian (AD) calendar and the
// Bikram Sambat (BS) calendar used in Nepal.
//
// BS month lengths are not computable, so conversion is driven by an embedded
// table covering BS 2000 through BS 2090 (AD 1943-04-14 through 2034-04-13).
// Dates outside that window fail with ErrUnsupportedDateRange.
package nepali

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

const firstYear = 2000

// epoch is the AD date of BS 2000/01/01.
var epoch = time.Date(1943, time.April, 14, 0, 0, 0, 0, time.UTC)

var (
	// ErrUnsupportedDateRange is returned for dates the embedded table does not cover.
	ErrUnsupportedDateRange = errors.New("date outside supported Bikram Sambat range")

	// ErrInvalidDate is returned for BS dates whose month or day does not exist.
	ErrInvalidDate = errors.New("invalid Bikram Sambat date")
)

// yearStarts[i] is the number of days between epoch and the first day of
// BS year firstYear+i. The final entry marks the end of the table.
var yearStarts = func() []int {
	starts := make([]int, len(monthLengths)+1)
	for i, months := range monthLengths {
		total := 0
		for _, n := range months {
			total += n
		}
		starts[i+1] = starts[i] + total
	}
	return starts
}()

// Date is a Bikram Sambat calendar date. Month is 1-based (1 = Baisakh).
type Date struct {
	Year  int `json:"year"`
	Month int `json:"month"`
	Day   int `json:"day"`
}

// LastYear returns the last BS year covered by the table.
func LastYear() int {
	return firstYear + len(monthLengths) - 1
}

// SupportedRange returns the first and last AD dates that can be converted.
func SupportedRange() (first, last time.Time) {
	return epoch, epoch.AddDate(0, 0, yearStarts[len(yearStarts)-1]-1)
}

// FromAD converts the calendar date of t (in t's own location) to BS.
func FromAD(t time.Time) (Date, error) {
	y, m, d := t.Date()
	day := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)

	offset := int(day.Sub(epoch).Hours() / 24)
	if day.Before(epoch) || offset >= yearStarts[len(yearStarts)-1] {
		return Date{}, fmt.Errorf("%w: %s", ErrUnsupportedDateRange, day.Format(time.DateOnly))
	}

	idx := sort.Search(len(yearStarts), func(i int) bool { return yearStarts[i] > offset }) - 1
	rem := offset - yearStarts[idx]
	for month, n := range monthLengths[idx] {
		if rem < n {
			return Date{Year: firstYear + idx, Month: month + 1, Day: rem + 1}, nil
		}
		rem -= n
	}

	// Unreachable: yearStarts is built from the same table.
	return Date{}, fmt.Errorf("%w: %s", ErrUnsupportedDateRange, day.Format(time.DateOnly))
}

// ToAD converts d to the AD date at midnight UTC.
func (d Date) ToAD() (time.Time, error) {
	if err := d.Validate(); err != nil {
		return time.Time{}, err
	}

	idx := d.Year - firstYear
	offset := yearStarts[idx]
	for m := 0; m < d.Month-1; m++ {
		offset += monthLengths[idx][m]
	}
	offset += d.Day - 1

	return epoch.AddDate(0, 0, offset), nil
}

// Validate reports whether d exists in the table.
func (d Date) Validate() error {
	if d.Year < firstYear || d.Year > LastYear() {
		return fmt.Errorf("%w: year %d", ErrUnsupportedDateRange, d.Year)
	}
	n, err := DaysInMonth(d.Year, d.Month)
	if err != nil {
		return err
	}
	if d.Day < 1 || d.Day > n {
		return fmt.Errorf("%w: %s has %d days in %d", ErrInvalidDate, MonthName(d.Month), n, d.Year)
	}
	return nil
}

// Weekday returns the day of the week d falls on.
func (d Date) Weekday() (time.Weekday, error) {
	ad, err := d.ToAD()
	if err != nil {
		return 0, err
	}
	return ad.Weekday(), nil
}

// String renders d as YYYY/MM/DD.
func (d Date) String() string {
	return fmt.Sprintf("%04d/%02d/%02d", d.Year, d.Month, d.Day)
}

// DaysInMonth returns the length of a BS month.
func DaysInMonth(year, month int) (int, error) {
	if year < firstYear || year > LastYear() {
		return 0, fmt.Errorf("%w: year %d", ErrUnsupportedDateRange, year)
	}
	if month < 1 || month > 12 {
		return 0, fmt.Errorf("%w: month %d", ErrInvalidDate, month)
	}
	return monthLengths[year-firstYear][month-1], nil
}

// Parse reads a BS date written as YYYY/MM/DD. A dash separator is also accepted.
func Parse(s string) (Date, error) {
	parts := strings.FieldsFunc(strings.TrimSpace(s), func(r rune) bool {
		return r == '/' || r == '-'
	})
	if len(parts) != 3 {
		return Date{}, fmt.Errorf("%w: %q is not YYYY/MM/DD", ErrInvalidDate, s)
	}

	var nums [3]int
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil {
			return Date{}, fmt.Errorf("%w: %q is not YYYY/MM/DD", ErrInvalidDate, s)
		}
		nums[i] = n
	}

	d := Date{Year: nums[0], Month: nums[1], Day: nums[2]}
	if err := d.Validate(); err != nil {
		return Date{}, err
	}
	return d, nil
}

// SessionLabel returns the academic session label for the BS year containing
// t, e.g. "2082-83".
func SessionLabel(t time.Time) (string, error) {
	d, err := FromAD(t)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%d-%02d", d.Year, (d.Year+1)%100), nil
}
