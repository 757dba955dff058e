package calendar

import (
	"context"

	"github.com/zapponejosh/pathshala-api/internal/nepali"
)

// MonthView is a BS month laid out day by day for one school.
type MonthView struct {
	Year        int              `json:"year"`
	Month       int              `json:"month"`
	MonthName   string           `json:"month_name"`
	MonthNameNe string           `json:"month_name_ne"`
	Session     string           `json:"session"`
	Days        []Classification `json:"days"`
	Counts      map[Kind]int     `json:"counts"`
	SchoolDays  int              `json:"school_days"`
}

// MonthView classifies every day of BS month year/month.
func (c *Classifier) MonthView(ctx context.Context, schoolID string, year, month int) (*MonthView, error) {
	first, last, err := BSMonthRange(year, month)
	if err != nil {
		return nil, err
	}

	days, err := c.ClassifyRange(ctx, schoolID, first, last)
	if err != nil {
		return nil, err
	}

	session, err := nepali.SessionLabel(first.Time)
	if err != nil {
		return nil, err
	}

	view := &MonthView{
		Year:        year,
		Month:       month,
		MonthName:   nepali.MonthName(month),
		MonthNameNe: nepali.MonthNameNe(month),
		Session:     session,
		Days:        days,
		Counts:      make(map[Kind]int),
	}
	for _, d := range days {
		view.Counts[d.Kind]++
		if d.SchoolDay {
			view.SchoolDays++
		}
	}
	return view, nil
}
