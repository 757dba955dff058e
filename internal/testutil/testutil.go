// Package testutil holds helpers shared by package tests.
package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/zapponejosh/pathshala-api/internal/database"
	"github.com/zapponejosh/pathshala-api/internal/logger"
)

// NewDB opens a migrated in-memory database that is closed when the test ends.
func NewDB(t *testing.T) *database.DB {
	t.Helper()

	db, err := database.Open(database.Config{
		Path:            ":memory:",
		MaxOpenConns:    1,
		MaxIdleConns:    1,
		ConnMaxLifetime: time.Hour,
	}, logger.Discard())
	if err != nil {
		t.Fatalf("open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if _, err := db.Migrate(context.Background()); err != nil {
		t.Fatalf("migrate test database: %v", err)
	}
	return db
}

// Date parses a YYYY-MM-DD date or fails the test.
func Date(t *testing.T, s string) database.Date {
	t.Helper()
	d, err := database.ParseDate(s)
	if err != nil {
		t.Fatalf("parse date %q: %v", s, err)
	}
	return d
}

// CreateEvent stores an active event directly, bypassing the event store.
func CreateEvent(t *testing.T, db *database.DB, title, date string, et database.EventType, schoolID string) database.CalendarEvent {
	t.Helper()
	e := database.CalendarEvent{
		Title:     title,
		EventDate: Date(t, date),
		EventType: et,
		SchoolID:  database.NullString(schoolID),
		IsActive:  true,
		CreatedBy: "testutil",
	}
	if err := db.CreateEvent(context.Background(), &e); err != nil {
		t.Fatalf("create event %q: %v", title, err)
	}
	return e
}
