package validation

import (
	"testing"
	"time"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestAddMonths(t *testing.T) {
	tests := []struct {
		name     string
		start    time.Time
		months   int
		expected time.Time
	}{
		{
			name:     "plain month addition",
			start:    date(2024, time.March, 15),
			months:   1,
			expected: date(2024, time.April, 15),
		},
		{
			name:     "year rollover",
			start:    date(2024, time.November, 1),
			months:   3,
			expected: date(2025, time.February, 1),
		},
		{
			name:     "clamp jan 31 to feb 29 in leap year",
			start:    date(2024, time.January, 31),
			months:   1,
			expected: date(2024, time.February, 29),
		},
		{
			name:     "clamp jan 31 to feb 28 in common year",
			start:    date(2023, time.January, 31),
			months:   1,
			expected: date(2023, time.February, 28),
		},
		{
			name:     "clamp may 31 to june 30",
			start:    date(2024, time.May, 31),
			months:   1,
			expected: date(2024, time.June, 30),
		},
		{
			name:     "twelve months from month end",
			start:    date(2024, time.February, 29),
			months:   12,
			expected: date(2025, time.February, 28),
		},
		{
			name:     "zero months",
			start:    date(2024, time.July, 4),
			months:   0,
			expected: date(2024, time.July, 4),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := AddMonths(tt.start, tt.months); !got.Equal(tt.expected) {
				t.Errorf("AddMonths(%s, %d) = %s, want %s",
					tt.start.Format("2006-01-02"), tt.months,
					got.Format("2006-01-02"), tt.expected.Format("2006-01-02"))
			}
		})
	}
}

func TestFirstOfMonth(t *testing.T) {
	got := FirstOfMonth(time.Date(2024, time.August, 23, 14, 30, 0, 0, time.UTC))
	want := date(2024, time.August, 1)
	if !got.Equal(want) {
		t.Errorf("FirstOfMonth() = %s, want %s", got, want)
	}
}
