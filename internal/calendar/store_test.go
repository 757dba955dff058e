package calendar

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zapponejosh/pathshala-api/internal/database"
	"github.com/zapponejosh/pathshala-api/internal/logger"
	"github.com/zapponejosh/pathshala-api/internal/nepali"
	"github.com/zapponejosh/pathshala-api/internal/testutil"
)

func newStore(t *testing.T) (*EventStore, *database.DB) {
	t.Helper()
	db := testutil.NewDB(t)
	return NewEventStore(db, logger.Discard()), db
}

func TestAdd_CachesBSDate(t *testing.T) {
	store, db := newStore(t)
	ctx := context.Background()

	e, err := store.Add(ctx, NewEvent{
		Title:     "  Vijaya Dashami ",
		Date:      testutil.Date(t, "2025-10-02"),
		Type:      database.EventTypeFestival,
		CreatedBy: "admin",
	})
	require.NoError(t, err)
	assert.NotZero(t, e.ID)
	assert.Equal(t, "Vijaya Dashami", e.Title)

	stored, err := db.GetEvent(ctx, e.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.EventDateBS)

	bs, err := nepali.FromAD(stored.EventDate.Time)
	require.NoError(t, err)
	assert.Equal(t, bs.String(), *stored.EventDateBS)
	assert.True(t, stored.IsActive)
	assert.Nil(t, stored.SchoolID)
}

func TestAdd_Invalid(t *testing.T) {
	store, _ := newStore(t)
	ctx := context.Background()

	_, err := store.Add(ctx, NewEvent{Title: " ", Date: testutil.Date(t, "2025-10-02"), Type: database.EventTypeHoliday})
	assert.ErrorIs(t, err, ErrInvalidEvent)

	_, err = store.Add(ctx, NewEvent{Title: "Picnic", Date: testutil.Date(t, "2025-10-02"), Type: "picnic"})
	assert.ErrorIs(t, err, ErrInvalidEvent)

	_, err = store.Add(ctx, NewEvent{Title: "Far future", Date: testutil.Date(t, "2040-01-01"), Type: database.EventTypeHoliday})
	assert.ErrorIs(t, err, nepali.ErrUnsupportedDateRange)
}

func TestAddIfMissing(t *testing.T) {
	store, db := newStore(t)
	ctx := context.Background()

	n := NewEvent{Title: "Teej", Date: testutil.Date(t, "2025-08-26"), Type: database.EventTypeFestival}

	first, created, err := store.AddIfMissing(ctx, n)
	require.NoError(t, err)
	assert.True(t, created)

	second, created, err := store.AddIfMissing(ctx, n)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, second.ID)

	// The store itself permits duplicates.
	_, err = store.Add(ctx, n)
	require.NoError(t, err)
	count, err := db.CountEvents(ctx, database.EventFilter{Title: "Teej"})
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestFind_LazyAndRestartable(t *testing.T) {
	store, _ := newStore(t)
	ctx := context.Background()

	// More than one page, several events per day.
	start := testutil.Date(t, "2025-04-14")
	const total = 2*findPageSize + 17
	for i := 0; i < total; i++ {
		_, err := store.Add(ctx, NewEvent{
			Title: "Event",
			Date:  start.AddDays(i / 3),
			Type:  database.EventTypeEvent,
		})
		require.NoError(t, err)
	}

	collect := func() []database.CalendarEvent {
		var out []database.CalendarEvent
		for e, err := range store.Find(ctx, database.EventFilter{ActiveOnly: true}) {
			require.NoError(t, err)
			out = append(out, e)
		}
		return out
	}

	first := collect()
	require.Len(t, first, total)
	for i := 1; i < len(first); i++ {
		prev, cur := first[i-1], first[i]
		ordered := cur.EventDate.Before(prev.EventDate.Time) ||
			(cur.EventDate.Equal(prev.EventDate.Time) && cur.ID < prev.ID)
		require.True(t, ordered, "event %d out of order", i)
	}

	second := collect()
	assert.Equal(t, first, second)

	// Early exit stops after the requested number of events.
	n := 0
	for _, err := range store.Find(ctx, database.EventFilter{}) {
		require.NoError(t, err)
		n++
		if n == 5 {
			break
		}
	}
	assert.Equal(t, 5, n)

	// Limit spans pages.
	n = 0
	for range store.Find(ctx, database.EventFilter{Limit: findPageSize + 3}) {
		n++
	}
	assert.Equal(t, findPageSize+3, n)
}

func TestFind_Filters(t *testing.T) {
	store, _ := newStore(t)
	ctx := context.Background()

	for _, n := range []NewEvent{
		{Title: "Dashain", Date: testutil.Date(t, "2025-10-02"), Type: database.EventTypeFestival},
		{Title: "Exam", Date: testutil.Date(t, "2025-10-05"), Type: database.EventTypeExam, SchoolID: school},
		{Title: "Tihar", Date: testutil.Date(t, "2025-10-21"), Type: database.EventTypeFestival},
	} {
		_, err := store.Add(ctx, n)
		require.NoError(t, err)
	}

	from, to := testutil.Date(t, "2025-10-01"), testutil.Date(t, "2025-10-10")
	var titles []string
	for e, err := range store.Find(ctx, database.EventFilter{
		From:  &from,
		To:    &to,
		Types: []database.EventType{database.EventTypeFestival},
	}) {
		require.NoError(t, err)
		titles = append(titles, e.Title)
	}
	assert.Equal(t, []string{"Dashain"}, titles)
}

func TestDeactivateAndDeleteMatching(t *testing.T) {
	store, db := newStore(t)
	ctx := context.Background()

	for _, n := range []NewEvent{
		{Title: "Dashain", Date: testutil.Date(t, "2025-10-02"), Type: database.EventTypeFestival},
		{Title: "Tihar", Date: testutil.Date(t, "2025-10-21"), Type: database.EventTypeFestival},
		{Title: "Exam", Date: testutil.Date(t, "2025-10-05"), Type: database.EventTypeExam},
	} {
		_, err := store.Add(ctx, n)
		require.NoError(t, err)
	}

	festivals := database.EventFilter{Types: []database.EventType{database.EventTypeFestival}}

	n, err := store.DeactivateMatching(ctx, festivals)
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	active, err := db.CountEvents(ctx, database.EventFilter{ActiveOnly: true})
	require.NoError(t, err)
	assert.Equal(t, 1, active)

	n, err = store.DeleteMatching(ctx, festivals)
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	all, err := db.CountEvents(ctx, database.EventFilter{})
	require.NoError(t, err)
	assert.Equal(t, 1, all)
}

func TestReplaceCategory(t *testing.T) {
	store, db := newStore(t)
	ctx := context.Background()

	// Old global festival table, a school's own festival, and an unrelated holiday.
	_, err := store.Add(ctx, NewEvent{Title: "Dashain (old)", Date: testutil.Date(t, "2025-10-01"), Type: database.EventTypeFestival})
	require.NoError(t, err)
	_, err = store.Add(ctx, NewEvent{Title: "School foundation day", Date: testutil.Date(t, "2025-09-01"), Type: database.EventTypeFestival, SchoolID: school})
	require.NoError(t, err)
	_, err = store.Add(ctx, NewEvent{Title: "Constitution day", Date: testutil.Date(t, "2025-09-19"), Type: database.EventTypeHoliday})
	require.NoError(t, err)

	report, err := store.ReplaceCategory(ctx, database.EventTypeFestival, "", []NewEvent{
		{Title: "Vijaya Dashami", Date: testutil.Date(t, "2025-10-02")},
		{Title: "Laxmi Puja", Date: testutil.Date(t, "2025-10-21"), Type: database.EventTypeFestival},
		{Title: "", Date: testutil.Date(t, "2025-10-22")},
		{Title: "Wrong bucket", Date: testutil.Date(t, "2025-10-23"), Type: database.EventTypeExam},
		{Title: "Out of table", Date: testutil.Date(t, "2050-01-01")},
	})
	require.NoError(t, err)

	assert.EqualValues(t, 1, report.Deleted)
	assert.Equal(t, 2, report.Inserted)
	require.Len(t, report.Failed, 3)
	assert.Equal(t, 2, report.Failed[0].Index)
	assert.Equal(t, 3, report.Failed[1].Index)
	assert.Equal(t, 4, report.Failed[2].Index)

	festivals, err := db.ListEvents(ctx, database.EventFilter{Types: []database.EventType{database.EventTypeFestival}})
	require.NoError(t, err)
	var titles []string
	for _, e := range festivals {
		titles = append(titles, e.Title)
	}
	assert.Equal(t, []string{"Laxmi Puja", "Vijaya Dashami", "School foundation day"}, titles)

	holidays, err := db.CountEvents(ctx, database.EventFilter{Types: []database.EventType{database.EventTypeHoliday}})
	require.NoError(t, err)
	assert.Equal(t, 1, holidays)
}

func TestReplaceCategory_RollsBackOnStorageError(t *testing.T) {
	store, db := newStore(t)

	_, err := store.Add(context.Background(), NewEvent{Title: "Dashain", Date: testutil.Date(t, "2025-10-02"), Type: database.EventTypeFestival})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = store.ReplaceCategory(ctx, database.EventTypeFestival, "", []NewEvent{
		{Title: "Tihar", Date: testutil.Date(t, "2025-10-21")},
	})
	require.Error(t, err)

	events, err := db.ListEvents(context.Background(), database.EventFilter{})
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "Dashain", events[0].Title)
}

func TestReplaceCategory_UnknownCategory(t *testing.T) {
	store, _ := newStore(t)

	_, err := store.ReplaceCategory(context.Background(), "picnic", "", nil)
	assert.ErrorIs(t, err, ErrInvalidEvent)
}
