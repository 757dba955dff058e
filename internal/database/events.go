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

const eventColumns = `
	id, title, description, event_date, event_date_bs, event_type,
	school_id, is_active, created_by, created_at, updated_at`

// where renders the filter as a WHERE clause (empty when unrestricted) and
// its arguments. Slice arguments are expanded later by sqlx.In.
func (f EventFilter) where() (string, []any) {
	var clauses []string
	var args []any

	if f.From != nil {
		clauses = append(clauses, "event_date >= ?")
		args = append(args, f.From.String())
	}
	if f.To != nil {
		clauses = append(clauses, "event_date <= ?")
		args = append(args, f.To.String())
	}
	if len(f.Types) > 0 {
		types := make([]string, len(f.Types))
		for i, t := range f.Types {
			types[i] = string(t)
		}
		clauses = append(clauses, "event_type IN (?)")
		args = append(args, types)
	}
	if f.ActiveOnly {
		clauses = append(clauses, "is_active = 1")
	}
	if f.Title != "" {
		clauses = append(clauses, "title = ?")
		args = append(args, f.Title)
	}
	if f.School != nil {
		switch {
		case *f.School == "":
			clauses = append(clauses, "school_id IS NULL")
		case f.ExcludeGlobal:
			clauses = append(clauses, "school_id = ?")
			args = append(args, *f.School)
		default:
			clauses = append(clauses, "(school_id IS NULL OR school_id = ?)")
			args = append(args, *f.School)
		}
	}
	if f.Before != nil {
		clauses = append(clauses, "(event_date < ? OR (event_date = ? AND id < ?))")
		day := f.Before.Date.String()
		args = append(args, day, day, f.Before.ID)
	}

	if len(clauses) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

// bind expands slice arguments and rebinds placeholders for the driver.
func (q Queries) bind(query string, args []any) (string, []any, error) {
	query, args, err := sqlx.In(query, args...)
	if err != nil {
		return "", nil, fmt.Errorf("expand query arguments: %w", err)
	}
	return q.ext.Rebind(query), args, nil
}

// =============================================================================
// Event Queries
// =============================================================================

// CreateEvent inserts an event and fills in its ID and timestamps.
func (q Queries) CreateEvent(ctx context.Context, e *CalendarEvent) error {
	now := time.Now().UTC().Truncate(time.Second)

	result, err := q.ext.ExecContext(ctx, `
		INSERT INTO calendar_events (
			title, description, event_date, event_date_bs, event_type,
			school_id, is_active, created_by, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.Title, e.Description, e.EventDate, e.EventDateBS, string(e.EventType),
		e.SchoolID, e.IsActive, e.CreatedBy, now, now,
	)
	if err != nil {
		return fmt.Errorf("insert event: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("get event id: %w", err)
	}

	e.ID = id
	e.CreatedAt = now
	e.UpdatedAt = now
	return nil
}

// GetEvent retrieves an event by ID.
// Returns ErrNotFound if it doesn't exist.
func (q Queries) GetEvent(ctx context.Context, id int64) (*CalendarEvent, error) {
	var e CalendarEvent
	err := sqlx.GetContext(ctx, q.ext, &e,
		"SELECT"+eventColumns+" FROM calendar_events WHERE id = ?", id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get event %d: %w", id, err)
	}
	return &e, nil
}

func (q Queries) selectEvents(f EventFilter) (string, []any, error) {
	where, args := f.where()
	query := "SELECT" + eventColumns + " FROM calendar_events" + where +
		" ORDER BY event_date DESC, id DESC"
	if f.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", f.Limit)
	}
	return q.bind(query, args)
}

// ListEvents returns every event matching the filter, newest date first.
func (q Queries) ListEvents(ctx context.Context, f EventFilter) ([]CalendarEvent, error) {
	query, args, err := q.selectEvents(f)
	if err != nil {
		return nil, err
	}
	events := []CalendarEvent{}
	if err := sqlx.SelectContext(ctx, q.ext, &events, query, args...); err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	return events, nil
}

// CountEvents returns the number of events matching the filter.
func (q Queries) CountEvents(ctx context.Context, f EventFilter) (int, error) {
	where, args := f.where()
	query, args, err := q.bind("SELECT COUNT(*) FROM calendar_events"+where, args)
	if err != nil {
		return 0, err
	}
	var n int
	if err := sqlx.GetContext(ctx, q.ext, &n, query, args...); err != nil {
		return 0, fmt.Errorf("count events: %w", err)
	}
	return n, nil
}

// DeleteEvents removes every event matching the filter and returns how many
// rows were deleted.
func (q Queries) DeleteEvents(ctx context.Context, f EventFilter) (int64, error) {
	where, args := f.where()
	query, args, err := q.bind("DELETE FROM calendar_events"+where, args)
	if err != nil {
		return 0, err
	}
	result, err := q.ext.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("delete events: %w", err)
	}
	return result.RowsAffected()
}

// SetEventsActive flips is_active on every event matching the filter.
func (q Queries) SetEventsActive(ctx context.Context, f EventFilter, active bool) (int64, error) {
	where, args := f.where()
	args = append([]any{active, time.Now().UTC().Truncate(time.Second)}, args...)
	query, args, err := q.bind("UPDATE calendar_events SET is_active = ?, updated_at = ?"+where, args)
	if err != nil {
		return 0, err
	}
	result, err := q.ext.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("update events: %w", err)
	}
	return result.RowsAffected()
}

// SetEventActive flips is_active on a single event.
// Returns ErrNotFound if it doesn't exist.
func (q Queries) SetEventActive(ctx context.Context, id int64, active bool) error {
	result, err := q.ext.ExecContext(ctx,
		"UPDATE calendar_events SET is_active = ?, updated_at = ? WHERE id = ?",
		active, time.Now().UTC().Truncate(time.Second), id,
	)
	if err != nil {
		return fmt.Errorf("update event %d: %w", id, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update event %d: %w", id, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
