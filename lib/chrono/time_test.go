package chrono

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDayOfYear(t *testing.T) {
	testCases := []struct {
		date     string
		expected int
	}{
		{date: "2024-01-01", expected: 1},
		// 2024 is a leap year
		{date: "2024-03-09", expected: 69},
		{date: "2024-03-10", expected: 70},
		{date: "2023-03-10", expected: 69},
		{date: "2024-12-31", expected: 366},
	}
	for _, tc := range testCases {
		day, err := time.Parse("2006-01-02", tc.date)
		require.NoError(t, err)
		require.Equal(t, tc.expected, DayOfYear(day), tc.date)
	}
}

func TestWeekStart(t *testing.T) {
	testCases := []struct {
		date     string
		expected string
	}{
		// 2024-03-10 is a Sunday
		{date: "2024-03-10", expected: "2024-03-10"},
		{date: "2024-03-11", expected: "2024-03-10"},
		{date: "2024-03-16", expected: "2024-03-10"},
		{date: "2024-03-17", expected: "2024-03-17"},
	}
	for _, tc := range testCases {
		day, err := time.Parse("2006-01-02", tc.date)
		require.NoError(t, err)
		require.Equal(t, tc.expected, ISODate(WeekStart(day)), tc.date)
	}
}

func TestWeekStartKeepsLocation(t *testing.T) {
	loc := time.FixedZone("UTC+9", 9*60*60)
	start := WeekStart(time.Date(2024, 3, 13, 15, 30, 0, 0, loc))
	require.Equal(t, "2024-03-10", ISODate(start))
	require.Equal(t, loc, start.Location())
	require.Equal(t, 0, start.Hour())
}
