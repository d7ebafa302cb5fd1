package util

import (
	"testing"
	"time"
)

func TestPreviousMonth_SameYear(t *testing.T) {
	tests := []struct {
		year      int
		month     int
		wantYear  int
		wantMonth int
	}{
		{2026, 6, 2026, 5},   // June -> May
		{2026, 12, 2026, 11}, // Dec -> Nov
		{2026, 2, 2026, 1},   // Feb -> Jan
	}

	for _, tt := range tests {
		gotYear, gotMonth := PreviousMonth(tt.year, tt.month)
		if gotYear != tt.wantYear || gotMonth != tt.wantMonth {
			t.Errorf("PreviousMonth(%d, %d) = (%d, %d), want (%d, %d)",
				tt.year, tt.month, gotYear, gotMonth, tt.wantYear, tt.wantMonth)
		}
	}
}

func TestPreviousMonth_YearBoundary(t *testing.T) {
	// January -> December of previous year
	gotYear, gotMonth := PreviousMonth(2026, 1)
	if gotYear != 2025 || gotMonth != 12 {
		t.Errorf("PreviousMonth(2026, 1) = (%d, %d), want (2025, 12)", gotYear, gotMonth)
	}
}

func TestNextMonth_YearBoundary(t *testing.T) {
	gotYear, gotMonth := NextMonth(2025, 12)
	if gotYear != 2026 || gotMonth != 1 {
		t.Errorf("NextMonth(2025, 12) = (%d, %d), want (2026, 1)", gotYear, gotMonth)
	}
}

func TestValidMonth(t *testing.T) {
	tests := []struct {
		year, month int
		want        bool
	}{
		{2024, 1, true},
		{2024, 12, true},
		{2024, 0, false},
		{2024, 13, false},
		{1969, 5, false},
	}

	for _, tt := range tests {
		if got := ValidMonth(tt.year, tt.month); got != tt.want {
			t.Errorf("ValidMonth(%d, %d) = %v, want %v", tt.year, tt.month, got, tt.want)
		}
	}
}

func TestMonthBoundaries(t *testing.T) {
	start, end := MonthBoundaries(2024, 2)

	wantStart := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	wantEnd := time.Date(2024, 2, 29, 23, 59, 59, 999999999, time.UTC)

	if !start.Equal(wantStart) {
		t.Errorf("start = %v, want %v", start, wantStart)
	}
	if !end.Equal(wantEnd) {
		t.Errorf("end = %v, want %v", end, wantEnd)
	}
}

func TestMonthRange_December(t *testing.T) {
	start, next := MonthRange(2025, 12)

	if !start.Equal(time.Date(2025, 12, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("unexpected start %v", start)
	}
	if !next.Equal(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("unexpected end %v", next)
	}
}

func TestCalculateActualDate(t *testing.T) {
	tests := []struct {
		name      string
		year      int
		month     time.Month
		targetDay int
		wantDay   int
	}{
		{"normal day", 2026, time.March, 15, 15},
		{"31st in 30-day month", 2026, time.April, 31, 30},
		{"31st in February", 2026, time.February, 31, 28},
		{"29th in leap February", 2024, time.February, 29, 29},
		{"30th in leap February", 2024, time.February, 30, 29},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CalculateActualDate(tt.year, tt.month, tt.targetDay)
			if got.Day() != tt.wantDay {
				t.Errorf("CalculateActualDate(%d, %v, %d) day = %d, want %d",
					tt.year, tt.month, tt.targetDay, got.Day(), tt.wantDay)
			}
		})
	}
}

func TestAddMonthsClamped(t *testing.T) {
	tests := []struct {
		name string
		in   time.Time
		n    int
		want time.Time
	}{
		{
			name: "jan 31 to feb in leap year",
			in:   time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC),
			n:    1,
			want: time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC),
		},
		{
			name: "jan 31 plus two months keeps the 31st",
			in:   time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC),
			n:    2,
			want: time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC),
		},
		{
			name: "crosses year end",
			in:   time.Date(2025, 11, 15, 8, 30, 0, 0, time.UTC),
			n:    3,
			want: time.Date(2026, 2, 15, 8, 30, 0, 0, time.UTC),
		},
		{
			name: "negative months",
			in:   time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC),
			n:    -1,
			want: time.Date(2024, 12, 10, 0, 0, 0, 0, time.UTC),
		},
		{
			name: "leap day plus a year",
			in:   time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC),
			n:    12,
			want: time.Date(2025, 2, 28, 0, 0, 0, 0, time.UTC),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := AddMonthsClamped(tt.in, tt.n)
			if !got.Equal(tt.want) {
				t.Errorf("AddMonthsClamped(%v, %d) = %v, want %v", tt.in, tt.n, got, tt.want)
			}
		})
	}
}

func TestDaysBetween(t *testing.T) {
	a := time.Date(2025, 3, 1, 23, 0, 0, 0, time.UTC)
	b := time.Date(2025, 3, 4, 1, 0, 0, 0, time.UTC)

	if got := DaysBetween(a, b); got != 3 {
		t.Errorf("DaysBetween = %d, want 3", got)
	}
	if got := DaysBetween(b, a); got != -3 {
		t.Errorf("DaysBetween reversed = %d, want -3", got)
	}
}
