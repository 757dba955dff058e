package database

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"sync"
	"testing"
	"time"
)

// testDB creates a temporary in-memory database for testing.
func testDB(t *testing.T) *DB {
	t.Helper()

	cfg := Config{
		Path:            ":memory:",
		MaxOpenConns:    1,
		MaxIdleConns:    1,
		ConnMaxLifetime: time.Hour,
	}

	// Quiet logger for tests
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelError,
	}))

	db, err := Open(cfg, logger)
	if err != nil {
		t.Fatalf("open test database: %v", err)
	}

	if _, err := db.Migrate(context.Background()); err != nil {
		t.Fatalf("migrate test database: %v", err)
	}

	t.Cleanup(func() {
		db.Close()
	})

	return db
}

func mustDate(t *testing.T, s string) Date {
	t.Helper()
	d, err := ParseDate(s)
	if err != nil {
		t.Fatal(err)
	}
	return d
}

func strPtr(s string) *string {
	return &s
}

func newEvent(t *testing.T, title, date string, et EventType, school *string) *CalendarEvent {
	t.Helper()
	return &CalendarEvent{
		Title:     title,
		EventDate: mustDate(t, date),
		EventType: et,
		SchoolID:  school,
		IsActive:  true,
		CreatedBy: "test",
	}
}

// -----------------------------------------------------------------
// DB tests
// -----------------------------------------------------------------

func TestOpen(t *testing.T) {
	db := testDB(t)

	if err := db.Health(context.Background()); err != nil {
		t.Errorf("Health() error = %v", err)
	}
}

func TestMigrate(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	// Migrations already ran in testDB; running again is a no-op.
	count, err := db.Migrate(ctx)
	if err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}
	if count != 0 {
		t.Errorf("Migrate() count = %d, want 0 (already applied)", count)
	}
}

func TestRunMigrations(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	if err := db.RunMigrations(ctx, "status"); err != nil {
		t.Errorf("status error = %v", err)
	}
	if err := db.RunMigrations(ctx, "down-to", "1"); err != nil {
		t.Fatalf("down-to 1 error = %v", err)
	}
	if _, err := db.CountAttendance(ctx, AttendanceFilter{}); err == nil {
		t.Error("attendance_records still exists after down-to 1")
	}
	if err := db.RunMigrations(ctx, "up"); err != nil {
		t.Fatalf("up error = %v", err)
	}
	if _, err := db.CountAttendance(ctx, AttendanceFilter{}); err != nil {
		t.Errorf("attendance_records missing after up: %v", err)
	}

	if err := db.RunMigrations(ctx, "up-to"); err == nil {
		t.Error("up-to without version succeeded")
	}
	if err := db.RunMigrations(ctx, "sideways"); !errors.Is(err, ErrUnknownMigrationCommand) {
		t.Errorf("unknown command error = %v, want ErrUnknownMigrationCommand", err)
	}
}

func TestWithTx_Rollback(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	boom := errors.New("boom")
	err := db.WithTx(ctx, func(tx *Tx) error {
		if err := tx.CreateEvent(ctx, newEvent(t, "Dashain", "2025-10-02", EventTypeFestival, nil)); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("WithTx() error = %v, want boom", err)
	}

	n, err := db.CountEvents(ctx, EventFilter{})
	if err != nil {
		t.Fatal(err)
	}
	if n != 0 {
		t.Errorf("events after rollback = %d, want 0", n)
	}
}

// -----------------------------------------------------------------
// Date tests
// -----------------------------------------------------------------

func TestDate_RoundTrip(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	e := newEvent(t, "Ghatasthapana", "2025-09-22", EventTypeFestival, nil)
	e.EventDateBS = strPtr("2082/06/06")
	if err := db.CreateEvent(ctx, e); err != nil {
		t.Fatal(err)
	}

	got, err := db.GetEvent(ctx, e.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.EventDate.String() != "2025-09-22" {
		t.Errorf("EventDate = %s, want 2025-09-22", got.EventDate)
	}
	if got.EventDateBS == nil || *got.EventDateBS != "2082/06/06" {
		t.Errorf("EventDateBS = %v, want 2082/06/06", got.EventDateBS)
	}
	if got.CreatedAt.IsZero() {
		t.Error("CreatedAt not scanned")
	}
}

func TestParseEventType(t *testing.T) {
	tests := []struct {
		in      string
		want    EventType
		wantErr bool
	}{
		{"holiday", EventTypeHoliday, false},
		{"Festival", EventTypeFestival, false},
		{"school-event", EventTypeEvent, false},
		{"school-day", EventTypeSchoolDay, false},
		{"picnic", "", true},
	}
	for _, tt := range tests {
		got, err := ParseEventType(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseEventType(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseEventType(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

// -----------------------------------------------------------------
// Event query tests
// -----------------------------------------------------------------

func TestListEvents_Filters(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	school := strPtr("janata")
	other := strPtr("kalika")
	seed := []*CalendarEvent{
		newEvent(t, "Dashain", "2025-10-02", EventTypeFestival, nil),
		newEvent(t, "Terminal exam", "2025-10-05", EventTypeExam, school),
		newEvent(t, "Parents meeting", "2025-10-05", EventTypeMeeting, other),
		newEvent(t, "Tihar", "2025-10-21", EventTypeFestival, nil),
		newEvent(t, "Sports day", "2025-11-01", EventTypeEvent, school),
	}
	for _, e := range seed {
		if err := db.CreateEvent(ctx, e); err != nil {
			t.Fatal(err)
		}
	}
	if err := db.SetEventActive(ctx, seed[3].ID, false); err != nil {
		t.Fatal(err)
	}

	from, to := mustDate(t, "2025-10-01"), mustDate(t, "2025-10-31")
	global := ""

	tests := []struct {
		name   string
		filter EventFilter
		want   []string
	}{
		{"all", EventFilter{}, []string{"Sports day", "Tihar", "Parents meeting", "Terminal exam", "Dashain"}},
		{"active only", EventFilter{ActiveOnly: true}, []string{"Sports day", "Parents meeting", "Terminal exam", "Dashain"}},
		{"range", EventFilter{From: &from, To: &to}, []string{"Tihar", "Parents meeting", "Terminal exam", "Dashain"}},
		{"types", EventFilter{Types: []EventType{EventTypeFestival, EventTypeExam}}, []string{"Tihar", "Terminal exam", "Dashain"}},
		{"global only", EventFilter{School: &global}, []string{"Tihar", "Dashain"}},
		{"school scope", EventFilter{School: school}, []string{"Sports day", "Tihar", "Terminal exam", "Dashain"}},
		{"title", EventFilter{Title: "Dashain"}, []string{"Dashain"}},
		{"limit", EventFilter{Limit: 2}, []string{"Sports day", "Tihar"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			events, err := db.ListEvents(ctx, tt.filter)
			if err != nil {
				t.Fatalf("ListEvents() error = %v", err)
			}
			var got []string
			for _, e := range events {
				got = append(got, e.Title)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("ListEvents() = %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("ListEvents()[%d] = %q, want %q", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestDeleteEvents(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	for _, e := range []*CalendarEvent{
		newEvent(t, "Dashain", "2025-10-02", EventTypeFestival, nil),
		newEvent(t, "Tihar", "2025-10-21", EventTypeFestival, nil),
		newEvent(t, "Exam", "2025-10-05", EventTypeExam, nil),
	} {
		if err := db.CreateEvent(ctx, e); err != nil {
			t.Fatal(err)
		}
	}

	n, err := db.DeleteEvents(ctx, EventFilter{Types: []EventType{EventTypeFestival}})
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Errorf("DeleteEvents() = %d, want 2", n)
	}

	left, err := db.CountEvents(ctx, EventFilter{})
	if err != nil {
		t.Fatal(err)
	}
	if left != 1 {
		t.Errorf("remaining events = %d, want 1", left)
	}
}

func TestSetEventActive_NotFound(t *testing.T) {
	db := testDB(t)

	err := db.SetEventActive(context.Background(), 999, false)
	if !IsNotFound(err) {
		t.Errorf("SetEventActive() error = %v, want ErrNotFound", err)
	}
}

func TestGetEvent_NotFound(t *testing.T) {
	db := testDB(t)

	_, err := db.GetEvent(context.Background(), 42)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("GetEvent() error = %v, want ErrNotFound", err)
	}
}

// -----------------------------------------------------------------
// Attendance query tests
// -----------------------------------------------------------------

func newRecord(t *testing.T, student, date string, status AttendanceStatus) *AttendanceRecord {
	t.Helper()
	return &AttendanceRecord{
		StudentID:      student,
		AttendanceDate: mustDate(t, date),
		Status:         status,
		MarkedBy:       "teacher",
	}
}

func TestCreateAttendance_Duplicate(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	if err := db.CreateAttendance(ctx, newRecord(t, "S1", "2025-10-21", StatusPresent)); err != nil {
		t.Fatalf("first CreateAttendance() error = %v", err)
	}

	err := db.CreateAttendance(ctx, newRecord(t, "S1", "2025-10-21", StatusAbsent))
	if !errors.Is(err, ErrDuplicate) {
		t.Errorf("CreateAttendance() duplicate error = %v, want ErrDuplicate", err)
	}

	// Different student, same date is fine.
	if err := db.CreateAttendance(ctx, newRecord(t, "S2", "2025-10-21", StatusAbsent)); err != nil {
		t.Errorf("CreateAttendance() other student error = %v", err)
	}
}

func TestCreateAttendance_Concurrent(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	const workers = 8
	var wg sync.WaitGroup
	errs := make([]error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = db.CreateAttendance(ctx, newRecord(t, "S1", "2025-10-21", StatusPresent))
		}(i)
	}
	wg.Wait()

	created := 0
	for _, err := range errs {
		switch {
		case err == nil:
			created++
		case errors.Is(err, ErrDuplicate):
		default:
			t.Errorf("unexpected error: %v", err)
		}
	}
	if created != 1 {
		t.Errorf("created = %d, want exactly 1", created)
	}
}

func TestInsertAttendanceIfAbsent(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	created, err := db.InsertAttendanceIfAbsent(ctx, newRecord(t, "S1", "2025-10-21", StatusLate))
	if err != nil || !created {
		t.Fatalf("first insert = %v, %v; want true, nil", created, err)
	}

	created, err = db.InsertAttendanceIfAbsent(ctx, newRecord(t, "S1", "2025-10-21", StatusAbsent))
	if err != nil || created {
		t.Fatalf("second insert = %v, %v; want false, nil", created, err)
	}

	got, err := db.GetAttendance(ctx, "S1", mustDate(t, "2025-10-21"))
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != StatusLate {
		t.Errorf("Status = %q, want late (first write wins)", got.Status)
	}
}

func TestCountAttendance(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	c, err := db.CountAttendance(ctx, AttendanceFilter{StudentID: "nobody"})
	if err != nil {
		t.Fatal(err)
	}
	if c != (AttendanceCounts{}) {
		t.Errorf("empty counts = %+v, want zero", c)
	}

	for _, r := range []*AttendanceRecord{
		newRecord(t, "S1", "2025-10-19", StatusPresent),
		newRecord(t, "S1", "2025-10-20", StatusPresent),
		newRecord(t, "S1", "2025-10-21", StatusLate),
		newRecord(t, "S1", "2025-10-22", StatusAbsent),
		newRecord(t, "S2", "2025-10-22", StatusAbsent),
	} {
		if err := db.CreateAttendance(ctx, r); err != nil {
			t.Fatal(err)
		}
	}

	c, err = db.CountAttendance(ctx, AttendanceFilter{StudentID: "S1"})
	if err != nil {
		t.Fatal(err)
	}
	want := AttendanceCounts{Total: 4, Present: 2, Absent: 1, Late: 1}
	if c != want {
		t.Errorf("CountAttendance() = %+v, want %+v", c, want)
	}
}

func TestDeleteAttendanceOnDates(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	school := strPtr("janata")
	for _, r := range []*AttendanceRecord{
		newRecord(t, "S1", "2025-10-20", StatusPresent),
		newRecord(t, "S1", "2025-10-21", StatusPresent),
		newRecord(t, "S2", "2025-10-21", StatusPresent),
	} {
		r.SchoolID = school
		if err := db.CreateAttendance(ctx, r); err != nil {
			t.Fatal(err)
		}
	}

	dates, err := db.AttendanceDates(ctx, AttendanceFilter{School: school})
	if err != nil {
		t.Fatal(err)
	}
	if len(dates) != 2 || dates[0].String() != "2025-10-20" || dates[1].String() != "2025-10-21" {
		t.Fatalf("AttendanceDates() = %v", dates)
	}

	n, err := db.DeleteAttendanceOnDates(ctx, AttendanceFilter{School: school}, []Date{mustDate(t, "2025-10-21")})
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Errorf("DeleteAttendanceOnDates() = %d, want 2", n)
	}

	records, err := db.ListAttendance(ctx, AttendanceFilter{})
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 1 || records[0].AttendanceDate.String() != "2025-10-20" {
		t.Errorf("remaining records = %+v", records)
	}
}
