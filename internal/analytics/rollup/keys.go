package rollup

import (
	"fmt"
	"time"
)

// WeekKey returns YYYY-W## where weeks start on Sunday and week 1 holds
// January 1st. Weeks never straddle a calendar year.
func WeekKey(t time.Time) string {
	jan1 := time.Date(t.Year(), time.January, 1, 0, 0, 0, 0, time.UTC)
	week := (t.YearDay() + int(jan1.Weekday()) + 6) / 7
	return fmt.Sprintf("%04d-W%02d", t.Year(), week)
}

func weekLabel(t time.Time) string {
	return fmt.Sprintf("Week %s, %d", WeekKey(t)[6:], t.Year())
}

// MonthKey returns YYYY-MM.
func MonthKey(t time.Time) string {
	return t.Format("2006-01")
}

func monthLabel(t time.Time) string {
	return t.Format("Jan 2006")
}

func dayLabel(t time.Time) string {
	return t.Format("Jan 2, 2006")
}
