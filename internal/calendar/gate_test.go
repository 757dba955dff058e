package calendar

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zapponejosh/pathshala-api/internal/database"
	"github.com/zapponejosh/pathshala-api/internal/testutil"
)

func TestAssertEligible(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()

	testutil.CreateEvent(t, db, "Vijaya Dashami", "2025-10-11", database.EventTypeFestival, "")
	testutil.CreateEvent(t, db, "Chhath", "2025-10-27", database.EventTypeHoliday, "")
	testutil.CreateEvent(t, db, "Extra class", "2025-11-15", database.EventTypeSchoolDay, school)

	gate := NewGate(NewClassifier(db, time.Saturday))

	tests := []struct {
		name       string
		date       string
		wantReason Reason // empty means eligible
	}{
		{"festival", "2025-10-11", ReasonFestival},
		{"holiday", "2025-10-27", ReasonHoliday},
		{"default rest day", "2025-11-08", ReasonDefaultRestDay},
		{"opened saturday", "2025-11-15", ""},
		{"ordinary tuesday", "2025-10-28", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := gate.AssertEligible(ctx, school, testutil.Date(t, tt.date))
			if tt.wantReason == "" {
				assert.NoError(t, err)
				return
			}

			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidAttendanceDate)

			var invalid *InvalidAttendanceDateError
			require.True(t, errors.As(err, &invalid))
			assert.Equal(t, tt.wantReason, invalid.Reason)
			assert.Equal(t, tt.date, invalid.Date.String())
		})
	}
}

func TestAssertEligible_ReportsClosingEvents(t *testing.T) {
	db := testutil.NewDB(t)

	testutil.CreateEvent(t, db, "Vijaya Dashami", "2025-10-11", database.EventTypeFestival, "")
	gate := NewGate(NewClassifier(db, time.Saturday))

	err := gate.AssertEligible(context.Background(), school, testutil.Date(t, "2025-10-11"))

	var invalid *InvalidAttendanceDateError
	require.True(t, errors.As(err, &invalid))
	assert.Equal(t, []string{"Vijaya Dashami"}, invalid.Events)
	assert.Contains(t, err.Error(), "IsFestival")
}

// The gate accepts a date exactly when the classifier calls it a school day.
func TestGate_AgreesWithClassifier(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()

	testutil.CreateEvent(t, db, "Tihar", "2025-10-21", database.EventTypeFestival, "")
	testutil.CreateEvent(t, db, "Tihar", "2025-10-22", database.EventTypeHoliday, "")
	testutil.CreateEvent(t, db, "Open day", "2025-10-25", database.EventTypeEvent, school)

	c := NewClassifier(db, time.Saturday)
	gate := NewGate(c)

	days, err := c.ClassifyRange(ctx, school, testutil.Date(t, "2025-10-17"), testutil.Date(t, "2025-11-15"))
	require.NoError(t, err)

	for _, d := range days {
		err := gate.AssertEligible(ctx, school, d.Date)
		assert.Equal(t, d.SchoolDay, err == nil, "%s classified %s, gate error %v", d.Date, d.Kind, err)
		assert.Equal(t, d.Kind == KindSchoolDay || d.Kind == KindWeekday, d.SchoolDay)
	}
}

func TestReasonFor(t *testing.T) {
	for kind, want := range map[Kind]Reason{
		KindHoliday:  ReasonHoliday,
		KindFestival: ReasonFestival,
		KindRestDay:  ReasonDefaultRestDay,
	} {
		got, blocked := ReasonFor(Classification{Kind: kind})
		assert.True(t, blocked, kind)
		assert.Equal(t, want, got, kind)
	}

	for _, kind := range []Kind{KindSchoolDay, KindWeekday} {
		_, blocked := ReasonFor(Classification{Kind: kind})
		assert.False(t, blocked, kind)
	}
}
