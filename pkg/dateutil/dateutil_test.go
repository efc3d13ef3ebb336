package dateutil

import (
	"testing"
	"time"
)

func TestTruncate(t *testing.T) {
	paris, err := time.LoadLocation("Europe/Paris")
	if err != nil {
		t.Skipf("tzdata unavailable: %v", err)
	}
	input := time.Date(2022, 7, 14, 23, 30, 45, 123456789, paris)
	expected := time.Date(2022, 7, 14, 0, 0, 0, 0, time.UTC)

	result := Truncate(input)

	if !result.Equal(expected) || result.Location() != time.UTC {
		t.Errorf("Truncate(%v) = %v, want %v", input, result, expected)
	}
}

func TestWeekdayIndex(t *testing.T) {
	tests := []struct {
		name  string
		input time.Time
		want  int
	}{
		{"Monday is 0", Date(2022, 7, 11), 0},
		{"Friday is 4", Date(2022, 7, 15), 4},
		{"Saturday is 5", Date(2022, 7, 16), 5},
		{"Sunday is 6", Date(2022, 7, 17), 6},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := WeekdayIndex(tt.input); got != tt.want {
				t.Errorf("WeekdayIndex(%v) = %d, want %d",
					tt.input.Format("2006-01-02 Mon"), got, tt.want)
			}
		})
	}
}

func TestStartOfWeek(t *testing.T) {
	tests := []struct {
		name     string
		input    time.Time
		expected time.Time
	}{
		{
			name:     "Wednesday returns Monday",
			input:    time.Date(2025, 1, 15, 12, 0, 0, 0, time.UTC), // Wednesday
			expected: time.Date(2025, 1, 13, 0, 0, 0, 0, time.UTC),  // Monday
		},
		{
			name:     "Monday returns same Monday",
			input:    time.Date(2025, 1, 13, 12, 0, 0, 0, time.UTC), // Monday
			expected: time.Date(2025, 1, 13, 0, 0, 0, 0, time.UTC),
		},
		{
			name:     "Sunday returns previous Monday",
			input:    time.Date(2025, 1, 19, 12, 0, 0, 0, time.UTC), // Sunday
			expected: time.Date(2025, 1, 13, 0, 0, 0, 0, time.UTC),  // Previous Monday
		},
		{
			name:     "Week crossing a month boundary",
			input:    Date(2022, 7, 1), // Friday
			expected: Date(2022, 6, 27),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := StartOfWeek(tt.input)

			if !result.Equal(tt.expected) {
				t.Errorf("StartOfWeek(%v) = %v, want %v",
					tt.input.Format("2006-01-02 Mon"),
					result.Format("2006-01-02 Mon"),
					tt.expected.Format("2006-01-02 Mon"))
			}
		})
	}
}

func TestDaysIn(t *testing.T) {
	tests := []struct {
		year  int
		month time.Month
		want  int
	}{
		{2022, time.February, 28},
		{2024, time.February, 29},
		{2022, time.July, 31},
		{2022, time.December, 31},
		{2022, time.November, 30},
	}

	for _, tt := range tests {
		if got := DaysIn(tt.year, tt.month); got != tt.want {
			t.Errorf("DaysIn(%d, %v) = %d, want %d", tt.year, tt.month, got, tt.want)
		}
	}
}

func TestDaysBetween(t *testing.T) {
	if got := DaysBetween(Date(2022, 7, 1), Date(2022, 7, 31)); got != 30 {
		t.Errorf("DaysBetween = %d, want 30", got)
	}
	if got := DaysBetween(Date(2022, 7, 31), Date(2022, 7, 1)); got != -30 {
		t.Errorf("DaysBetween reversed = %d, want -30", got)
	}
}

func TestYearsSpanned(t *testing.T) {
	got := YearsSpanned(Date(2021, 12, 31), Date(2023, 1, 1))
	want := []int{2021, 2022, 2023}
	if len(got) != len(want) {
		t.Fatalf("YearsSpanned = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("YearsSpanned[%d] = %d, want %d", i, got[i], want[i])
		}
	}

	if got := YearsSpanned(Date(2023, 1, 1), Date(2022, 1, 1)); len(got) != 0 {
		t.Errorf("YearsSpanned on reversed range = %v, want empty", got)
	}
}

func TestParseDate(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    time.Time
		wantErr bool
	}{
		{"ISO format YYYY-MM-DD", "2025-01-15", Date(2025, 1, 15), false},
		{"Compact YYYYMMDD", "20220712", Date(2022, 7, 12), false},
		{"Dotted DD.MM.YYYY", "15.01.2025", Date(2025, 1, 15), false},
		{"ISO with time drops the clock", "2025-01-15T10:30:00", Date(2025, 1, 15), false},
		{"Garbage", "yesterday", time.Time{}, true},
		{"Empty", "", time.Time{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := ParseDate(tt.input)

			if (err != nil) != tt.wantErr {
				t.Errorf("ParseDate(%v) error = %v, wantErr %v", tt.input, err, tt.wantErr)
				return
			}

			if !tt.wantErr && !result.Equal(tt.want) {
				t.Errorf("ParseDate(%v) = %v, want %v", tt.input, result, tt.want)
			}
		})
	}
}

func TestDateSet(t *testing.T) {
	s := NewDateSet(
		Date(2022, 7, 14),
		time.Date(2022, 7, 14, 18, 0, 0, 0, time.UTC), // same calendar date
		Date(2022, 7, 1),
	)

	if s.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", s.Len())
	}
	if !s.Has(time.Date(2022, 7, 1, 9, 0, 0, 0, time.UTC)) {
		t.Errorf("Has(2022-07-01 09:00) = false, want true")
	}

	got := s.Strings()
	if got[0] != "2022-07-01" || got[1] != "2022-07-14" {
		t.Errorf("Strings() = %v, want [2022-07-01 2022-07-14]", got)
	}
}
