package chrono

import "time"

// Clock is the interface anything depending on the system clock should use.
type Clock interface {
	Now() time.Time
}

// SystemClock is the standard implementation of Clock using the standard library.
type SystemClock struct{}

func (SystemClock) Now() time.Time {
	return time.Now()
}

// ISODate renders t as a calendar date, the only date format the planner
// endpoints accept.
func ISODate(t time.Time) string {
	return t.Format("2006-01-02")
}

// DayOfYear returns the 1-based ordinal day of t within its year.
func DayOfYear(t time.Time) int {
	return t.YearDay()
}

// WeekStart returns the most recent Sunday on or before t, truncated to
// midnight in t's location.
func WeekStart(t time.Time) time.Time {
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	return day.AddDate(0, 0, -int(day.Weekday()))
}

// AddDays returns t shifted by the given number of calendar days.
func AddDays(t time.Time, days int) time.Time {
	return t.AddDate(0, 0, days)
}
