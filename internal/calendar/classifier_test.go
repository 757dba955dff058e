package calendar

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zapponejosh/pathshala-api/internal/database"
	"github.com/zapponejosh/pathshala-api/internal/nepali"
	"github.com/zapponejosh/pathshala-api/internal/testutil"
)

const school = "janata"

func TestClassify_Precedence(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()

	// 2025-10-21 is a Tuesday, 2025-11-08 and 2025-10-11 are Saturdays.
	testutil.CreateEvent(t, db, "Laxmi Puja", "2025-10-21", database.EventTypeHoliday, "")
	testutil.CreateEvent(t, db, "Make-up class", "2025-10-21", database.EventTypeSchoolDay, school)
	testutil.CreateEvent(t, db, "Vijaya Dashami", "2025-10-11", database.EventTypeFestival, "")
	testutil.CreateEvent(t, db, "Holiday and festival", "2025-10-22", database.EventTypeFestival, "")
	testutil.CreateEvent(t, db, "Holiday and festival", "2025-10-22", database.EventTypeHoliday, "")
	testutil.CreateEvent(t, db, "Science fair", "2025-11-15", database.EventTypeEvent, school)
	testutil.CreateEvent(t, db, "Unit test", "2025-11-04", database.EventTypeExam, school)
	inactive := testutil.CreateEvent(t, db, "Cancelled holiday", "2025-11-05", database.EventTypeHoliday, "")
	require.NoError(t, db.SetEventActive(ctx, inactive.ID, false))
	testutil.CreateEvent(t, db, "Other school's holiday", "2025-11-06", database.EventTypeHoliday, "kalika")

	c := NewClassifier(db, time.Saturday)

	tests := []struct {
		name string
		date string
		want Kind
	}{
		{"holiday beats school-day", "2025-10-21", KindHoliday},
		{"festival on a saturday", "2025-10-11", KindFestival},
		{"holiday beats festival", "2025-10-22", KindHoliday},
		{"school event opens a saturday", "2025-11-15", KindSchoolDay},
		{"exam does not change a weekday", "2025-11-04", KindWeekday},
		{"inactive holiday is ignored", "2025-11-05", KindWeekday},
		{"another school's holiday is ignored", "2025-11-06", KindWeekday},
		{"plain saturday", "2025-11-08", KindRestDay},
		{"plain tuesday", "2025-11-11", KindWeekday},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := c.Classify(ctx, school, testutil.Date(t, tt.date))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.Kind)
			assert.Equal(t, tt.want.IsSchoolDay(), got.SchoolDay)
		})
	}
}

func TestClassify_GlobalScopeIgnoresSchoolEvents(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()

	testutil.CreateEvent(t, db, "Sports day", "2025-11-08", database.EventTypeSchoolDay, school)

	c := NewClassifier(db, time.Saturday)

	got, err := c.Classify(ctx, "", testutil.Date(t, "2025-11-08"))
	require.NoError(t, err)
	assert.Equal(t, KindRestDay, got.Kind)

	got, err = c.Classify(ctx, school, testutil.Date(t, "2025-11-08"))
	require.NoError(t, err)
	assert.Equal(t, KindSchoolDay, got.Kind)
}

func TestClassify_RestDayOverride(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()

	c := NewClassifier(db, time.Friday)

	sat, err := c.Classify(ctx, school, testutil.Date(t, "2025-11-08"))
	require.NoError(t, err)
	assert.Equal(t, KindWeekday, sat.Kind)

	fri, err := c.Classify(ctx, school, testutil.Date(t, "2025-11-07"))
	require.NoError(t, err)
	assert.Equal(t, KindRestDay, fri.Kind)
}

func TestClassify_CarriesBSDate(t *testing.T) {
	db := testutil.NewDB(t)

	c := NewClassifier(db, time.Saturday)
	got, err := c.Classify(context.Background(), "", testutil.Date(t, "2025-04-14"))
	require.NoError(t, err)

	require.NotNil(t, got.BSDate)
	assert.Equal(t, nepali.Date{Year: 2082, Month: 1, Day: 1}, *got.BSDate)
	assert.Equal(t, "Monday", got.Weekday)
	assert.Empty(t, got.Events)
}

// Scenario: a plain Saturday is closed until a school-day event opens it.
func TestClassify_ExplicitSchoolDayOverridesRestDay(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()
	store := NewEventStore(db, nil)
	c := NewClassifier(db, time.Saturday)
	date := testutil.Date(t, "2025-11-08")

	before, err := c.Classify(ctx, school, date)
	require.NoError(t, err)
	assert.Equal(t, KindRestDay, before.Kind)
	assert.False(t, before.SchoolDay)

	_, err = store.Add(ctx, NewEvent{
		Title:    "Saturday class",
		Date:     date,
		Type:     database.EventTypeSchoolDay,
		SchoolID: school,
	})
	require.NoError(t, err)

	after, err := c.Classify(ctx, school, date)
	require.NoError(t, err)
	assert.Equal(t, KindSchoolDay, after.Kind)
	assert.True(t, after.SchoolDay)
}

func TestClassifyRange(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()

	testutil.CreateEvent(t, db, "Tihar", "2025-10-21", database.EventTypeFestival, "")

	c := NewClassifier(db, time.Saturday)
	days, err := c.ClassifyRange(ctx, school, testutil.Date(t, "2025-10-18"), testutil.Date(t, "2025-10-22"))
	require.NoError(t, err)
	require.Len(t, days, 5)

	var kinds []Kind
	for _, d := range days {
		kinds = append(kinds, d.Kind)
	}
	assert.Equal(t, []Kind{KindRestDay, KindWeekday, KindWeekday, KindFestival, KindWeekday}, kinds)
	assert.Equal(t, "2025-10-18", days[0].Date.String())

	_, err = c.ClassifyRange(ctx, school, testutil.Date(t, "2025-10-22"), testutil.Date(t, "2025-10-18"))
	assert.Error(t, err)
}

func TestMonthView(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()

	// Kartik 2082 starts on 2025-10-17 and has 30 days.
	testutil.CreateEvent(t, db, "Laxmi Puja", "2025-10-21", database.EventTypeFestival, "")

	c := NewClassifier(db, time.Saturday)
	view, err := c.MonthView(ctx, school, 2082, 7)
	require.NoError(t, err)

	assert.Equal(t, "Kartik", view.MonthName)
	assert.Equal(t, "2082-83", view.Session)
	require.Len(t, view.Days, 30)
	assert.Equal(t, "2025-10-17", view.Days[0].Date.String())
	assert.Equal(t, 1, view.Counts[KindFestival])

	total := 0
	for _, n := range view.Counts {
		total += n
	}
	assert.Equal(t, 30, total)
	assert.Equal(t, view.Counts[KindWeekday]+view.Counts[KindSchoolDay], view.SchoolDays)

	_, err = c.MonthView(ctx, school, 2082, 13)
	assert.ErrorIs(t, err, nepali.ErrInvalidDate)
}

type failingLister struct{}

func (failingLister) ListEvents(context.Context, database.EventFilter) ([]database.CalendarEvent, error) {
	return nil, errors.New("store offline")
}

func TestClassify_StoreError(t *testing.T) {
	c := NewClassifier(failingLister{}, time.Saturday)
	_, err := c.Classify(context.Background(), school, testutil.Date(t, "2025-11-08"))
	assert.ErrorContains(t, err, "store offline")
}
