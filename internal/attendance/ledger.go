// Package attendance records daily student attendance on school days and
// summarises it.
package attendance

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"

	"github.com/zapponejosh/pathshala-api/internal/calendar"
	"github.com/zapponejosh/pathshala-api/internal/database"
	"github.com/zapponejosh/pathshala-api/internal/nepali"
)

var (
	// ErrDuplicateAttendance is returned when the student already has a
	// record for the date.
	ErrDuplicateAttendance = errors.New("attendance already recorded")

	// ErrInvalidRecord is returned when a mark request fails validation.
	ErrInvalidRecord = errors.New("invalid attendance record")
)

// MarkRequest asks for one student's attendance on one date.
type MarkRequest struct {
	StudentID string
	SchoolID  string // empty for records outside any school scope
	Date      database.Date
	Status    database.AttendanceStatus
	Remark    string
	MarkedBy  string
}

func (r MarkRequest) validate() error {
	if strings.TrimSpace(r.StudentID) == "" {
		return fmt.Errorf("%w: student id is required", ErrInvalidRecord)
	}
	if r.Date.IsZero() {
		return fmt.Errorf("%w: date is required", ErrInvalidRecord)
	}
	if !r.Status.Valid() {
		return fmt.Errorf("%w: unknown status %q", ErrInvalidRecord, r.Status)
	}
	return nil
}

// record builds the row for r with its cached BS date.
func (r MarkRequest) record() (*database.AttendanceRecord, error) {
	if err := r.validate(); err != nil {
		return nil, err
	}
	bs, err := nepali.FromAD(r.Date.Time)
	if err != nil {
		return nil, err
	}
	bsDate := bs.String()

	return &database.AttendanceRecord{
		StudentID:        strings.TrimSpace(r.StudentID),
		SchoolID:         database.NullString(r.SchoolID),
		AttendanceDate:   r.Date,
		AttendanceDateBS: &bsDate,
		Status:           r.Status,
		Remark:           database.NullString(r.Remark),
		MarkedBy:         r.MarkedBy,
	}, nil
}

// Ledger stores attendance records, admitting only dates the gate accepts.
type Ledger struct {
	db     *database.DB
	gate   *calendar.Gate
	logger *slog.Logger
}

// NewLedger creates a ledger over db that checks dates with gate.
func NewLedger(db *database.DB, gate *calendar.Gate, logger *slog.Logger) *Ledger {
	if logger == nil {
		logger = slog.Default()
	}
	return &Ledger{db: db, gate: gate, logger: logger}
}

// Mark records attendance, failing with ErrDuplicateAttendance if the
// student already has a record for the date. The store's unique constraint
// decides between concurrent callers.
func (l *Ledger) Mark(ctx context.Context, req MarkRequest) (*database.AttendanceRecord, error) {
	r, err := l.admit(ctx, req)
	if err != nil {
		return nil, err
	}
	if err := l.insert(ctx, r); err != nil {
		return nil, err
	}
	return r, nil
}

// MarkOrGet records attendance unless the student already has a record for
// the date, in which case the existing record is returned unchanged. The
// bool reports whether a new record was created.
func (l *Ledger) MarkOrGet(ctx context.Context, req MarkRequest) (*database.AttendanceRecord, bool, error) {
	r, err := l.admit(ctx, req)
	if err != nil {
		return nil, false, err
	}

	created, err := l.db.InsertAttendanceIfAbsent(ctx, r)
	if err != nil {
		return nil, false, err
	}

	stored, err := l.db.GetAttendance(ctx, r.StudentID, r.AttendanceDate)
	if err != nil {
		return nil, false, err
	}
	if created {
		l.logMarked(stored)
	}
	return stored, created, nil
}

// admit validates req and checks its date against the gate.
func (l *Ledger) admit(ctx context.Context, req MarkRequest) (*database.AttendanceRecord, error) {
	r, err := req.record()
	if err != nil {
		return nil, err
	}
	if err := l.gate.AssertEligible(ctx, req.SchoolID, req.Date); err != nil {
		return nil, err
	}
	return r, nil
}

func (l *Ledger) insert(ctx context.Context, r *database.AttendanceRecord) error {
	if err := l.db.CreateAttendance(ctx, r); err != nil {
		if errors.Is(err, database.ErrDuplicate) {
			return fmt.Errorf("%w: student %s on %s", ErrDuplicateAttendance, r.StudentID, r.AttendanceDate)
		}
		return err
	}
	l.logMarked(r)
	return nil
}

func (l *Ledger) logMarked(r *database.AttendanceRecord) {
	l.logger.Debug("attendance marked",
		slog.String("student_id", r.StudentID),
		slog.String("date", r.AttendanceDate.String()),
		slog.String("status", string(r.Status)),
	)
}

// Get returns a student's record for a date.
// Returns database.ErrNotFound if there is none.
func (l *Ledger) Get(ctx context.Context, studentID string, date database.Date) (*database.AttendanceRecord, error) {
	return l.db.GetAttendance(ctx, studentID, date)
}

// List returns matching records, most recent first.
func (l *Ledger) List(ctx context.Context, f database.AttendanceFilter) ([]database.AttendanceRecord, error) {
	return l.db.ListAttendance(ctx, f)
}

// Summary tallies a student's attendance.
type Summary struct {
	StudentID            string         `json:"student_id"`
	From                 *database.Date `json:"from,omitempty"`
	To                   *database.Date `json:"to,omitempty"`
	Total                int            `json:"total"`
	Present              int            `json:"present"`
	Absent               int            `json:"absent"`
	Late                 int            `json:"late"`
	AttendancePercentage float64        `json:"attendance_percentage"`
}

// Summary counts a student's records between from and to (either may be
// nil). The percentage is present/total, and 0 when there are no records.
func (l *Ledger) Summary(ctx context.Context, studentID string, from, to *database.Date) (*Summary, error) {
	counts, err := l.db.CountAttendance(ctx, database.AttendanceFilter{
		StudentID: studentID,
		From:      from,
		To:        to,
	})
	if err != nil {
		return nil, err
	}

	s := &Summary{
		StudentID: studentID,
		From:      from,
		To:        to,
		Total:     counts.Total,
		Present:   counts.Present,
		Absent:    counts.Absent,
		Late:      counts.Late,
	}
	if counts.Total > 0 {
		pct := float64(counts.Present) / float64(counts.Total) * 100
		s.AttendancePercentage = math.Round(pct*100) / 100
	}
	return s, nil
}
