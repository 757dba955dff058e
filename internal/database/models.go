package database

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"slices"
	"strings"
	"time"
)

// =============================================================================
// Date
// =============================================================================

// DateLayout is the storage and wire format for calendar dates.
const DateLayout = "2006-01-02"

// Date is a calendar date without time of day, stored as TEXT 'YYYY-MM-DD'.
type Date struct {
	time.Time
}

// NewDate truncates t to its calendar date (in t's location).
func NewDate(t time.Time) Date {
	y, m, d := t.Date()
	return Date{time.Date(y, m, d, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q: use YYYY-MM-DD", s)
	}
	return Date{t}, nil
}

// String renders the date as YYYY-MM-DD.
func (d Date) String() string {
	return d.Format(DateLayout)
}

// AddDays returns the date n days later.
func (d Date) AddDays(n int) Date {
	return Date{d.AddDate(0, 0, n)}
}

// Value implements driver.Valuer. Dates are always bound as strings so
// comparisons in SQL stay lexicographic.
func (d Date) Value() (driver.Value, error) {
	return d.String(), nil
}

// Scan implements sql.Scanner. The sqlite3 driver returns time.Time for
// columns declared DATE and a string for computed columns.
func (d *Date) Scan(src any) error {
	switch v := src.(type) {
	case time.Time:
		*d = NewDate(v)
		return nil
	case string:
		return d.parseStored(v)
	case []byte:
		return d.parseStored(string(v))
	default:
		return fmt.Errorf("cannot scan %T into Date", src)
	}
}

func (d *Date) parseStored(s string) error {
	if len(s) >= len(DateLayout) {
		s = s[:len(DateLayout)]
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// MarshalJSON renders the date as "YYYY-MM-DD".
func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

// UnmarshalJSON reads a "YYYY-MM-DD" string.
func (d *Date) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// =============================================================================
// Calendar Events
// =============================================================================

// EventType categorises a calendar event.
type EventType string

const (
	EventTypeHoliday   EventType = "holiday"
	EventTypeFestival  EventType = "festival"
	EventTypeExam      EventType = "exam"
	EventTypeMeeting   EventType = "meeting"
	EventTypeEvent     EventType = "event"
	EventTypeSchoolDay EventType = "school-day"
	EventTypeOther     EventType = "other"
)

// ValidEventTypes returns all valid event types.
func ValidEventTypes() []EventType {
	return []EventType{
		EventTypeHoliday,
		EventTypeFestival,
		EventTypeExam,
		EventTypeMeeting,
		EventTypeEvent,
		EventTypeSchoolDay,
		EventTypeOther,
	}
}

// IsValid checks if an event type is valid.
func (et EventType) IsValid() bool {
	return slices.Contains(ValidEventTypes(), et)
}

// ClosesSchool reports whether events of this type make the day a non-school day.
func (et EventType) ClosesSchool() bool {
	return et == EventTypeHoliday || et == EventTypeFestival
}

// ParseEventType normalises an event type name. "school-event" is accepted
// as an older spelling of "event".
func ParseEventType(s string) (EventType, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "school-event" {
		return EventTypeEvent, nil
	}
	et := EventType(s)
	if !et.IsValid() {
		return "", fmt.Errorf("unknown event type %q", s)
	}
	return et, nil
}

// CalendarEvent is a dated entry on a school calendar.
//
// EventDateBS caches the Bikram Sambat rendering computed when the row was
// written. It is never read back as the source of truth.
type CalendarEvent struct {
	ID          int64     `db:"id" json:"id"`
	Title       string    `db:"title" json:"title"`
	Description *string   `db:"description" json:"description,omitempty"`
	EventDate   Date      `db:"event_date" json:"event_date"`
	EventDateBS *string   `db:"event_date_bs" json:"event_date_bs,omitempty"`
	EventType   EventType `db:"event_type" json:"event_type"`
	SchoolID    *string   `db:"school_id" json:"school_id,omitempty"`
	IsActive    bool      `db:"is_active" json:"is_active"`
	CreatedBy   string    `db:"created_by" json:"created_by"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// EventFilter selects calendar events. The zero value matches every event.
type EventFilter struct {
	From       *Date       // inclusive
	To         *Date       // inclusive
	Types      []EventType // any of
	ActiveOnly bool
	Title      string // exact match

	// School scopes the query. nil matches every school; a pointer to ""
	// matches global events only; any other value matches global events
	// plus that school's own, or only the school's own with ExcludeGlobal.
	School        *string
	ExcludeGlobal bool

	// Before resumes a listing after the last event of a previous page.
	Before *EventCursor

	Limit int // 0 means no limit
}

// EventCursor is a position in the (event_date DESC, id DESC) ordering.
type EventCursor struct {
	Date Date
	ID   int64
}

// CursorAfter returns the cursor positioned just past e.
func CursorAfter(e CalendarEvent) *EventCursor {
	return &EventCursor{Date: e.EventDate, ID: e.ID}
}

// OnDate restricts the filter to a single day.
func (f EventFilter) OnDate(d Date) EventFilter {
	f.From, f.To = &d, &d
	return f
}

// =============================================================================
// Attendance
// =============================================================================

// AttendanceStatus is the outcome recorded for a student on a day.
type AttendanceStatus string

const (
	StatusPresent AttendanceStatus = "present"
	StatusAbsent  AttendanceStatus = "absent"
	StatusLate    AttendanceStatus = "late"
)

// Valid reports whether s is a known status.
func (s AttendanceStatus) Valid() bool {
	switch s {
	case StatusPresent, StatusAbsent, StatusLate:
		return true
	}
	return false
}

// AttendanceRecord is one student's attendance on one date.
type AttendanceRecord struct {
	ID               int64            `db:"id" json:"id"`
	StudentID        string           `db:"student_id" json:"student_id"`
	SchoolID         *string          `db:"school_id" json:"school_id,omitempty"`
	AttendanceDate   Date             `db:"attendance_date" json:"attendance_date"`
	AttendanceDateBS *string          `db:"attendance_date_bs" json:"attendance_date_bs,omitempty"`
	Status           AttendanceStatus `db:"status" json:"status"`
	Remark           *string          `db:"remark" json:"remark,omitempty"`
	MarkedBy         string           `db:"marked_by" json:"marked_by"`
	CreatedAt        time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time        `db:"updated_at" json:"updated_at"`
}

// AttendanceFilter selects attendance records. Empty fields are ignored.
type AttendanceFilter struct {
	StudentID string
	From      *Date // inclusive
	To        *Date // inclusive

	// School nil matches every school; a pointer to "" matches records
	// with no school.
	School *string
}

// AttendanceCounts tallies records by status.
type AttendanceCounts struct {
	Total   int `db:"total"`
	Present int `db:"present"`
	Absent  int `db:"absent"`
	Late    int `db:"late"`
}

// NullString returns nil for an empty string.
func NullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
