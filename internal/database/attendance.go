package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
)

const attendanceColumns = `
	id, student_id, school_id, attendance_date, attendance_date_bs, status,
	remark, marked_by, created_at, updated_at`

func (f AttendanceFilter) where() (string, []any) {
	var clauses []string
	var args []any

	if f.StudentID != "" {
		clauses = append(clauses, "student_id = ?")
		args = append(args, f.StudentID)
	}
	if f.From != nil {
		clauses = append(clauses, "attendance_date >= ?")
		args = append(args, f.From.String())
	}
	if f.To != nil {
		clauses = append(clauses, "attendance_date <= ?")
		args = append(args, f.To.String())
	}
	if f.School != nil {
		if *f.School == "" {
			clauses = append(clauses, "school_id IS NULL")
		} else {
			clauses = append(clauses, "school_id = ?")
			args = append(args, *f.School)
		}
	}

	if len(clauses) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

// =============================================================================
// Attendance Queries
// =============================================================================

const insertAttendance = `
	INSERT INTO attendance_records (
		student_id, school_id, attendance_date, attendance_date_bs, status,
		remark, marked_by, created_at, updated_at
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

func attendanceArgs(r *AttendanceRecord, now time.Time) []any {
	return []any{
		r.StudentID, r.SchoolID, r.AttendanceDate, r.AttendanceDateBS, string(r.Status),
		r.Remark, r.MarkedBy, now, now,
	}
}

// CreateAttendance inserts a record and fills in its ID and timestamps.
// Returns ErrDuplicate if the student already has a record for that date.
func (q Queries) CreateAttendance(ctx context.Context, r *AttendanceRecord) error {
	now := time.Now().UTC().Truncate(time.Second)

	result, err := q.ext.ExecContext(ctx, insertAttendance, attendanceArgs(r, now)...)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("attendance for %s on %s: %w", r.StudentID, r.AttendanceDate, ErrDuplicate)
		}
		return fmt.Errorf("insert attendance: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("get attendance id: %w", err)
	}

	r.ID = id
	r.CreatedAt = now
	r.UpdatedAt = now
	return nil
}

// InsertAttendanceIfAbsent inserts a record unless the student already has
// one for that date. It reports whether a row was written.
func (q Queries) InsertAttendanceIfAbsent(ctx context.Context, r *AttendanceRecord) (bool, error) {
	now := time.Now().UTC().Truncate(time.Second)

	result, err := q.ext.ExecContext(ctx,
		insertAttendance+" ON CONFLICT (student_id, attendance_date) DO NOTHING",
		attendanceArgs(r, now)...,
	)
	if err != nil {
		return false, fmt.Errorf("insert attendance: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("insert attendance: %w", err)
	}
	return n > 0, nil
}

// GetAttendance retrieves a student's record for a date.
// Returns ErrNotFound if there is none.
func (q Queries) GetAttendance(ctx context.Context, studentID string, date Date) (*AttendanceRecord, error) {
	var r AttendanceRecord
	err := sqlx.GetContext(ctx, q.ext, &r,
		"SELECT"+attendanceColumns+" FROM attendance_records WHERE student_id = ? AND attendance_date = ?",
		studentID, date.String(),
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get attendance: %w", err)
	}
	return &r, nil
}

// ListAttendance returns matching records, most recent date first.
func (q Queries) ListAttendance(ctx context.Context, f AttendanceFilter) ([]AttendanceRecord, error) {
	where, args := f.where()
	records := []AttendanceRecord{}
	err := sqlx.SelectContext(ctx, q.ext, &records,
		"SELECT"+attendanceColumns+" FROM attendance_records"+where+
			" ORDER BY attendance_date DESC, student_id",
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("list attendance: %w", err)
	}
	return records, nil
}

// CountAttendance tallies matching records by status.
func (q Queries) CountAttendance(ctx context.Context, f AttendanceFilter) (AttendanceCounts, error) {
	where, args := f.where()
	var c AttendanceCounts
	err := sqlx.GetContext(ctx, q.ext, &c, `
		SELECT
			COUNT(*) AS total,
			COALESCE(SUM(CASE WHEN status = 'present' THEN 1 ELSE 0 END), 0) AS present,
			COALESCE(SUM(CASE WHEN status = 'absent' THEN 1 ELSE 0 END), 0) AS absent,
			COALESCE(SUM(CASE WHEN status = 'late' THEN 1 ELSE 0 END), 0) AS late
		FROM attendance_records`+where,
		args...,
	)
	if err != nil {
		return AttendanceCounts{}, fmt.Errorf("count attendance: %w", err)
	}
	return c, nil
}

// AttendanceDates returns the distinct dates that have at least one record
// matching the filter, oldest first.
func (q Queries) AttendanceDates(ctx context.Context, f AttendanceFilter) ([]Date, error) {
	where, args := f.where()
	dates := []Date{}
	err := sqlx.SelectContext(ctx, q.ext, &dates,
		"SELECT DISTINCT attendance_date FROM attendance_records"+where+" ORDER BY attendance_date",
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("list attendance dates: %w", err)
	}
	return dates, nil
}

// DeleteAttendanceOnDates removes every record matching the filter whose
// date is in dates. Returns the number of rows deleted.
func (q Queries) DeleteAttendanceOnDates(ctx context.Context, f AttendanceFilter, dates []Date) (int64, error) {
	if len(dates) == 0 {
		return 0, nil
	}

	days := make([]string, len(dates))
	for i, d := range dates {
		days[i] = d.String()
	}

	where, args := f.where()
	if where == "" {
		where = " WHERE attendance_date IN (?)"
	} else {
		where += " AND attendance_date IN (?)"
	}
	args = append(args, days)

	query, args, err := q.bind("DELETE FROM attendance_records"+where, args)
	if err != nil {
		return 0, err
	}
	result, err := q.ext.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("delete attendance: %w", err)
	}
	return result.RowsAffected()
}
