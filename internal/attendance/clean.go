package attendance

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/zapponejosh/pathshala-api/internal/calendar"
	"github.com/zapponejosh/pathshala-api/internal/database"
)

// CleanedDate is one date whose records were removed.
type CleanedDate struct {
	Date    database.Date   `json:"date"`
	Reason  calendar.Reason `json:"reason"`
	Events  []string        `json:"events,omitempty"`
	Records int             `json:"records"`
}

// CleanReport summarises Clean.
type CleanReport struct {
	SchoolID     string        `json:"school_id,omitempty"`
	From         database.Date `json:"from"`
	To           database.Date `json:"to"`
	DatesChecked int           `json:"dates_checked"`
	Dates        []CleanedDate `json:"dates"`
	Deleted      int64         `json:"deleted"`
}

// Clean removes the school's records between from and to whose dates no
// longer classify as school days, for example after a holiday was added
// late. Everything runs in one transaction.
func (l *Ledger) Clean(ctx context.Context, schoolID string, from, to database.Date) (*CleanReport, error) {
	if to.Before(from.Time) {
		return nil, fmt.Errorf("range end %s is before start %s", to, from)
	}

	report := &CleanReport{SchoolID: schoolID, From: from, To: to, Dates: []CleanedDate{}}
	scope := database.AttendanceFilter{From: &from, To: &to, School: &schoolID}

	err := l.db.WithTx(ctx, func(tx *database.Tx) error {
		dates, err := tx.AttendanceDates(ctx, scope)
		if err != nil {
			return err
		}
		report.DatesChecked = len(dates)
		if len(dates) == 0 {
			return nil
		}

		// Classify inside the transaction; the pool may hold a single connection.
		classifier := calendar.NewClassifier(tx, l.gate.Classifier().RestDay())
		days, err := classifier.ClassifyRange(ctx, schoolID, dates[0], dates[len(dates)-1])
		if err != nil {
			return err
		}
		byDate := make(map[string]calendar.Classification, len(days))
		for _, d := range days {
			byDate[d.Date.String()] = d
		}

		var blocked []database.Date
		for _, d := range dates {
			err := calendar.Check(byDate[d.String()])
			if err == nil {
				continue
			}
			invalid := err.(*calendar.InvalidAttendanceDateError)

			day := scope
			day.From, day.To = &d, &d
			counts, err := tx.CountAttendance(ctx, day)
			if err != nil {
				return err
			}

			report.Dates = append(report.Dates, CleanedDate{
				Date:    d,
				Reason:  invalid.Reason,
				Events:  invalid.Events,
				Records: counts.Total,
			})
			blocked = append(blocked, d)
		}

		report.Deleted, err = tx.DeleteAttendanceOnDates(ctx, scope, blocked)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("clean attendance: %w", err)
	}

	l.logger.Info("attendance cleaned",
		slog.String("school_id", schoolID),
		slog.String("from", from.String()),
		slog.String("to", to.String()),
		slog.Int("dates", len(report.Dates)),
		slog.Int64("deleted", report.Deleted),
	)
	return report, nil
}
