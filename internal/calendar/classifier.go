package calendar

import (
	"context"
	"fmt"
	"time"

	"github.com/zapponejosh/pathshala-api/internal/database"
	"github.com/zapponejosh/pathshala-api/internal/nepali"
)

// Kind is the outcome of classifying a date.
type Kind string

const (
	KindHoliday   Kind = "holiday"
	KindFestival  Kind = "festival"
	KindSchoolDay Kind = "school-day"
	KindWeekday   Kind = "unclassified-weekday"
	KindRestDay   Kind = "unclassified-rest-day"
)

// IsSchoolDay reports whether attendance may be taken on a day of this kind.
func (k Kind) IsSchoolDay() bool {
	return k == KindSchoolDay || k == KindWeekday
}

// Classification describes one date on a school's calendar.
type Classification struct {
	Date      database.Date            `json:"date"`
	BSDate    *nepali.Date             `json:"bs_date,omitempty"`
	Weekday   string                   `json:"weekday"`
	Kind      Kind                     `json:"kind"`
	SchoolDay bool                     `json:"is_school_day"`
	Events    []database.CalendarEvent `json:"events"`
}

// EventLister is the read side of the event store the classifier needs.
// Both *database.DB and *database.Tx satisfy it.
type EventLister interface {
	ListEvents(ctx context.Context, f database.EventFilter) ([]database.CalendarEvent, error)
}

// Classifier decides whether a date is a school day for a school.
//
// Precedence, highest first:
//  1. an active holiday or festival closes the school
//  2. an active school-day or school event opens it
//  3. the weekly rest day closes it
//  4. any other weekday is a school day
type Classifier struct {
	events  EventLister
	restDay time.Weekday
}

// NewClassifier creates a classifier over events with the given weekly rest day.
func NewClassifier(events EventLister, restDay time.Weekday) *Classifier {
	return &Classifier{events: events, restDay: restDay}
}

// RestDay returns the configured weekly rest day.
func (c *Classifier) RestDay() time.Weekday {
	return c.restDay
}

// Classify classifies a single date.
func (c *Classifier) Classify(ctx context.Context, schoolID string, date database.Date) (Classification, error) {
	days, err := c.ClassifyRange(ctx, schoolID, date, date)
	if err != nil {
		return Classification{}, err
	}
	return days[0], nil
}

// ClassifyRange classifies every date from..to inclusive, oldest first,
// using a single event query.
func (c *Classifier) ClassifyRange(ctx context.Context, schoolID string, from, to database.Date) ([]Classification, error) {
	if to.Before(from.Time) {
		return nil, fmt.Errorf("range end %s is before start %s", to, from)
	}

	// Global events apply to every school; a school also sees its own.
	events, err := c.events.ListEvents(ctx, database.EventFilter{
		From:       &from,
		To:         &to,
		ActiveOnly: true,
		School:     &schoolID,
	})
	if err != nil {
		return nil, fmt.Errorf("load events: %w", err)
	}

	byDate := make(map[string][]database.CalendarEvent)
	for _, e := range events {
		key := e.EventDate.String()
		byDate[key] = append(byDate[key], e)
	}

	var days []Classification
	for d := from; !d.After(to.Time); d = d.AddDays(1) {
		days = append(days, c.classifyDay(d, byDate[d.String()]))
	}
	return days, nil
}

// classifyDay applies the precedence rules to one date and its active events.
func (c *Classifier) classifyDay(date database.Date, events []database.CalendarEvent) Classification {
	var holiday, festival, opened bool
	for _, e := range events {
		switch e.EventType {
		case database.EventTypeHoliday:
			holiday = true
		case database.EventTypeFestival:
			festival = true
		case database.EventTypeSchoolDay, database.EventTypeEvent:
			opened = true
		}
	}

	var kind Kind
	switch {
	case holiday:
		kind = KindHoliday
	case festival:
		kind = KindFestival
	case opened:
		kind = KindSchoolDay
	case date.Weekday() == c.restDay:
		kind = KindRestDay
	default:
		kind = KindWeekday
	}

	cl := Classification{
		Date:      date,
		Weekday:   DayName(date.Time),
		Kind:      kind,
		SchoolDay: kind.IsSchoolDay(),
		Events:    events,
	}
	if cl.Events == nil {
		cl.Events = []database.CalendarEvent{}
	}
	if bs, err := nepali.FromAD(date.Time); err == nil {
		cl.BSDate = &bs
	}
	return cl
}
