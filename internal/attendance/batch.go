package attendance

import (
	"context"
	"errors"

	"github.com/zapponejosh/pathshala-api/internal/calendar"
	"github.com/zapponejosh/pathshala-api/internal/database"
)

// BatchItem reports what happened to one request of a batch.
type BatchItem struct {
	Index     int             `json:"index"`
	StudentID string          `json:"student_id"`
	Date      database.Date   `json:"date"`
	Reason    calendar.Reason `json:"reason,omitempty"`
	Error     string          `json:"error,omitempty"`
}

// BatchReport summarises MarkBatch. Duplicates count as already done.
type BatchReport struct {
	Created    []database.AttendanceRecord `json:"created"`
	Duplicates []BatchItem                 `json:"duplicates"`
	Skipped    []BatchItem                 `json:"skipped"` // dates that are not school days
	Failed     []BatchItem                 `json:"failed"`
}

// MarkBatch marks every request independently. Ineligible dates,
// duplicates and invalid requests are reported without stopping the batch.
// Each date is classified once per school. Only a cancelled context ends
// the batch early.
func (l *Ledger) MarkBatch(ctx context.Context, reqs []MarkRequest) (*BatchReport, error) {
	report := &BatchReport{
		Created:    []database.AttendanceRecord{},
		Duplicates: []BatchItem{},
		Skipped:    []BatchItem{},
		Failed:     []BatchItem{},
	}
	eligible := make(map[string]error)

	for i, req := range reqs {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		item := BatchItem{Index: i, StudentID: req.StudentID, Date: req.Date}

		r, err := req.record()
		if err != nil {
			item.Error = err.Error()
			report.Failed = append(report.Failed, item)
			continue
		}

		key := req.SchoolID + "|" + req.Date.String()
		gateErr, seen := eligible[key]
		if !seen {
			gateErr = l.gate.AssertEligible(ctx, req.SchoolID, req.Date)
			eligible[key] = gateErr
		}

		var invalid *calendar.InvalidAttendanceDateError
		switch {
		case errors.As(gateErr, &invalid):
			item.Reason = invalid.Reason
			item.Error = gateErr.Error()
			report.Skipped = append(report.Skipped, item)
			continue
		case gateErr != nil:
			delete(eligible, key)
			item.Error = gateErr.Error()
			report.Failed = append(report.Failed, item)
			continue
		}

		err = l.insert(ctx, r)
		switch {
		case errors.Is(err, ErrDuplicateAttendance):
			item.Error = err.Error()
			report.Duplicates = append(report.Duplicates, item)
		case err != nil:
			item.Error = err.Error()
			report.Failed = append(report.Failed, item)
		default:
			report.Created = append(report.Created, *r)
		}
	}

	l.logger.Info("attendance batch marked",
		"requested", len(reqs),
		"created", len(report.Created),
		"duplicates", len(report.Duplicates),
		"skipped", len(report.Skipped),
		"failed", len(report.Failed),
	)
	return report, nil
}
