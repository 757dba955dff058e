// Package calendar implements school-calendar policy: the event store,
// the school-day classifier, and the attendance eligibility gate.
package calendar

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"log/slog"
	"strings"

	"github.com/zapponejosh/pathshala-api/internal/database"
	"github.com/zapponejosh/pathshala-api/internal/nepali"
)

// ErrInvalidEvent is returned when an event fails validation before storage.
var ErrInvalidEvent = errors.New("invalid calendar event")

// findPageSize bounds how many events Find loads per round trip.
const findPageSize = 100

// NewEvent describes an event to be stored.
type NewEvent struct {
	Title       string
	Date        database.Date
	Type        database.EventType
	Description string
	SchoolID    string // empty for a global (all schools) event
	CreatedBy   string
}

func (n NewEvent) validate() error {
	if strings.TrimSpace(n.Title) == "" {
		return fmt.Errorf("%w: title is required", ErrInvalidEvent)
	}
	if !n.Type.IsValid() {
		return fmt.Errorf("%w: unknown event type %q", ErrInvalidEvent, n.Type)
	}
	if n.Date.IsZero() {
		return fmt.Errorf("%w: date is required", ErrInvalidEvent)
	}
	return nil
}

// record builds the row for n with its cached Bikram Sambat date. It fails
// with nepali.ErrUnsupportedDateRange when the date cannot be converted.
func (n NewEvent) record() (*database.CalendarEvent, error) {
	bs, err := nepali.FromAD(n.Date.Time)
	if err != nil {
		return nil, err
	}
	bsDate := bs.String()

	return &database.CalendarEvent{
		Title:       strings.TrimSpace(n.Title),
		Description: database.NullString(n.Description),
		EventDate:   n.Date,
		EventDateBS: &bsDate,
		EventType:   n.Type,
		SchoolID:    database.NullString(n.SchoolID),
		IsActive:    true,
		CreatedBy:   n.CreatedBy,
	}, nil
}

// EventStore is the persisted collection of calendar events.
type EventStore struct {
	db     *database.DB
	logger *slog.Logger
}

// NewEventStore creates an event store backed by db.
func NewEventStore(db *database.DB, logger *slog.Logger) *EventStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &EventStore{db: db, logger: logger}
}

// Add validates and stores a new event.
func (s *EventStore) Add(ctx context.Context, n NewEvent) (*database.CalendarEvent, error) {
	if err := n.validate(); err != nil {
		return nil, err
	}

	e, err := n.record()
	if err != nil {
		return nil, err
	}
	if err := s.db.CreateEvent(ctx, e); err != nil {
		return nil, err
	}

	s.logger.Debug("event added",
		slog.Int64("id", e.ID),
		slog.String("date", e.EventDate.String()),
		slog.String("type", string(e.EventType)),
	)
	return e, nil
}

// AddIfMissing stores n unless an event with the same date and title already
// exists. It returns the stored or existing event and whether it was created.
func (s *EventStore) AddIfMissing(ctx context.Context, n NewEvent) (*database.CalendarEvent, bool, error) {
	existing, err := s.FindDuplicate(ctx, n.Date, n.Title)
	switch {
	case err == nil:
		return existing, false, nil
	case !errors.Is(err, database.ErrNotFound):
		return nil, false, err
	}

	e, err := s.Add(ctx, n)
	if err != nil {
		return nil, false, err
	}
	return e, true, nil
}

// FindDuplicate returns an event on date with exactly this title.
// Returns database.ErrNotFound if there is none.
func (s *EventStore) FindDuplicate(ctx context.Context, date database.Date, title string) (*database.CalendarEvent, error) {
	events, err := s.db.ListEvents(ctx, database.EventFilter{
		Title: strings.TrimSpace(title),
		Limit: 1,
	}.OnDate(date))
	if err != nil {
		return nil, err
	}
	if len(events) == 0 {
		return nil, database.ErrNotFound
	}
	return &events[0], nil
}

// Get returns a single event by ID.
func (s *EventStore) Get(ctx context.Context, id int64) (*database.CalendarEvent, error) {
	return s.db.GetEvent(ctx, id)
}

// List returns every matching event, newest date first.
func (s *EventStore) List(ctx context.Context, f database.EventFilter) ([]database.CalendarEvent, error) {
	return s.db.ListEvents(ctx, f)
}

// Find lazily yields events matching f, newest date first. Events are
// loaded a page at a time and no connection is held between yields, so
// the caller may query the store while ranging. Each range starts over.
func (s *EventStore) Find(ctx context.Context, f database.EventFilter) iter.Seq2[database.CalendarEvent, error] {
	return func(yield func(database.CalendarEvent, error) bool) {
		page := f
		page.Before = nil
		remaining := f.Limit

		for {
			page.Limit = findPageSize
			if remaining > 0 && remaining < findPageSize {
				page.Limit = remaining
			}

			events, err := s.db.ListEvents(ctx, page)
			if err != nil {
				yield(database.CalendarEvent{}, err)
				return
			}

			for _, e := range events {
				if !yield(e, nil) {
					return
				}
			}

			if f.Limit > 0 {
				remaining -= len(events)
				if remaining <= 0 {
					return
				}
			}
			if len(events) < page.Limit {
				return
			}
			page.Before = database.CursorAfter(events[len(events)-1])
		}
	}
}

// SetActive activates or deactivates a single event.
func (s *EventStore) SetActive(ctx context.Context, id int64, active bool) error {
	return s.db.SetEventActive(ctx, id, active)
}

// DeactivateMatching soft-deletes every event matching f.
func (s *EventStore) DeactivateMatching(ctx context.Context, f database.EventFilter) (int64, error) {
	n, err := s.db.SetEventsActive(ctx, f, false)
	if err != nil {
		return 0, err
	}
	s.logger.Info("events deactivated", slog.Int64("count", n))
	return n, nil
}

// DeleteMatching permanently removes every event matching f.
func (s *EventStore) DeleteMatching(ctx context.Context, f database.EventFilter) (int64, error) {
	n, err := s.db.DeleteEvents(ctx, f)
	if err != nil {
		return 0, err
	}
	s.logger.Info("events deleted", slog.Int64("count", n))
	return n, nil
}

// ItemError describes one rejected entry of a batch.
type ItemError struct {
	Index  int    `json:"index"`
	Title  string `json:"title,omitempty"`
	Reason string `json:"reason"`
}

func (e ItemError) Error() string {
	return fmt.Sprintf("item %d (%s): %s", e.Index, e.Title, e.Reason)
}

// ReplaceReport summarises a category replacement.
type ReplaceReport struct {
	Category database.EventType `json:"category"`
	SchoolID string             `json:"school_id,omitempty"`
	Deleted  int64              `json:"deleted"`
	Inserted int                `json:"inserted"`
	Failed   []ItemError        `json:"failed"`
}

// ReplaceCategory swaps every event of one type, within one school's own
// events (or the global events when schoolID is empty), for items. The
// delete and inserts share a transaction, so readers never see the
// category empty. Invalid items are reported and skipped; a storage error
// rolls the whole replacement back.
func (s *EventStore) ReplaceCategory(ctx context.Context, category database.EventType, schoolID string, items []NewEvent) (*ReplaceReport, error) {
	if !category.IsValid() {
		return nil, fmt.Errorf("%w: unknown event type %q", ErrInvalidEvent, category)
	}

	report := &ReplaceReport{Category: category, SchoolID: schoolID, Failed: []ItemError{}}

	err := s.db.WithTx(ctx, func(tx *database.Tx) error {
		deleted, err := tx.DeleteEvents(ctx, database.EventFilter{
			Types:         []database.EventType{category},
			School:        &schoolID,
			ExcludeGlobal: true,
		})
		if err != nil {
			return err
		}
		report.Deleted = deleted

		for i, item := range items {
			if item.Type == "" {
				item.Type = category
			}
			item.SchoolID = schoolID

			if item.Type != category {
				report.Failed = append(report.Failed, ItemError{
					Index:  i,
					Title:  item.Title,
					Reason: fmt.Sprintf("type %q does not belong to category %q", item.Type, category),
				})
				continue
			}
			if err := item.validate(); err != nil {
				report.Failed = append(report.Failed, ItemError{Index: i, Title: item.Title, Reason: err.Error()})
				continue
			}
			e, err := item.record()
			if err != nil {
				report.Failed = append(report.Failed, ItemError{Index: i, Title: item.Title, Reason: err.Error()})
				continue
			}

			if err := tx.CreateEvent(ctx, e); err != nil {
				return fmt.Errorf("insert item %d: %w", i, err)
			}
			report.Inserted++
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("replace %s events: %w", category, err)
	}

	s.logger.Info("event category replaced",
		slog.String("category", string(category)),
		slog.String("school_id", schoolID),
		slog.Int64("deleted", report.Deleted),
		slog.Int("inserted", report.Inserted),
		slog.Int("failed", len(report.Failed)),
	)
	return report, nil
}
