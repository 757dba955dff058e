package main

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/zapponejosh/pathshala-api/internal/calendar"
	"github.com/zapponejosh/pathshala-api/internal/database"
	"github.com/zapponejosh/pathshala-api/internal/testutil"
)

func monthView(t *testing.T) *calendar.MonthView {
	t.Helper()
	db := testutil.NewDB(t)
	testutil.CreateEvent(t, db, "Dashain", "2025-10-02", database.EventTypeFestival, "")

	view, err := calendar.NewClassifier(db, time.Saturday).MonthView(context.Background(), "janata", 2082, 6)
	if err != nil {
		t.Fatalf("MonthView: %v", err)
	}
	return view
}

func TestCheckMonth_Consistent(t *testing.T) {
	view := monthView(t)
	if problems := checkMonth(view); len(problems) != 0 {
		t.Errorf("checkMonth() = %v, want none", problems)
	}
}

func TestCheckMonth_Problems(t *testing.T) {
	tests := []struct {
		name   string
		tamper func(v *calendar.MonthView)
		want   string
	}{
		{
			name:   "missing day",
			tamper: func(v *calendar.MonthView) { v.Days = v.Days[:len(v.Days)-1] },
			want:   "got 29 days, want 30",
		},
		{
			name:   "gap",
			tamper: func(v *calendar.MonthView) { v.Days = append(v.Days[:3:3], v.Days[4:]...) },
			want:   "gap between",
		},
		{
			name:   "school day flag",
			tamper: func(v *calendar.MonthView) { v.Days[15].SchoolDay = true },
			want:   "marked is_school_day=true",
		},
		{
			name:   "counts",
			tamper: func(v *calendar.MonthView) { v.Counts[calendar.KindFestival] = 3 },
			want:   "counts[festival]=3",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			view := monthView(t)
			tt.tamper(view)

			problems := checkMonth(view)
			joined := strings.Join(problems, "\n")
			if !strings.Contains(joined, tt.want) {
				t.Errorf("checkMonth() = %q, want a problem containing %q", joined, tt.want)
			}
		})
	}
}
