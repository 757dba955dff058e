package calendar

import (
	"context"
	"errors"
	"fmt"

	"github.com/zapponejosh/pathshala-api/internal/database"
)

// ErrInvalidAttendanceDate matches every *InvalidAttendanceDateError via errors.Is.
var ErrInvalidAttendanceDate = errors.New("invalid attendance date")

// Reason explains why attendance cannot be taken on a date.
type Reason string

const (
	ReasonHoliday        Reason = "IsHoliday"
	ReasonFestival       Reason = "IsFestival"
	ReasonDefaultRestDay Reason = "IsDefaultRestDay"
)

// InvalidAttendanceDateError is returned when attendance is attempted on a
// non-school day.
type InvalidAttendanceDateError struct {
	Date   database.Date
	Reason Reason
	Events []string // titles of the events that closed the school, if any
}

func (e *InvalidAttendanceDateError) Error() string {
	if len(e.Events) > 0 {
		return fmt.Sprintf("attendance not allowed on %s: %s (%v)", e.Date, e.Reason, e.Events)
	}
	return fmt.Sprintf("attendance not allowed on %s: %s", e.Date, e.Reason)
}

// Is lets errors.Is(err, ErrInvalidAttendanceDate) match.
func (e *InvalidAttendanceDateError) Is(target error) bool {
	return target == ErrInvalidAttendanceDate
}

// ReasonFor maps a non-school-day classification to its rejection reason.
// It returns false for school days.
func ReasonFor(c Classification) (Reason, bool) {
	switch c.Kind {
	case KindHoliday:
		return ReasonHoliday, true
	case KindFestival:
		return ReasonFestival, true
	case KindRestDay:
		return ReasonDefaultRestDay, true
	default:
		return "", false
	}
}

// Check returns nil for a school day, otherwise an *InvalidAttendanceDateError.
func Check(c Classification) error {
	reason, blocked := ReasonFor(c)
	if !blocked {
		return nil
	}

	err := &InvalidAttendanceDateError{Date: c.Date, Reason: reason}
	for _, e := range c.Events {
		if e.EventType.ClosesSchool() {
			err.Events = append(err.Events, e.Title)
		}
	}
	return err
}

// Gate rejects attendance on dates the classifier marks as non-school days.
type Gate struct {
	classifier *Classifier
}

// NewGate creates a gate backed by classifier.
func NewGate(classifier *Classifier) *Gate {
	return &Gate{classifier: classifier}
}

// Classifier returns the classifier the gate consults.
func (g *Gate) Classifier() *Classifier {
	return g.classifier
}

// AssertEligible returns nil when attendance may be recorded for schoolID
// on date.
func (g *Gate) AssertEligible(ctx context.Context, schoolID string, date database.Date) error {
	c, err := g.classifier.Classify(ctx, schoolID, date)
	if err != nil {
		return err
	}
	return Check(c)
}
