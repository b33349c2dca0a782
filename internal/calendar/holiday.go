package calendar

import "time"

// HolidayRule marks either a fixed month/day or a floating weekday that falls
// inside a day-of-month window ("4th Thursday" is Thursday within 22..28).
type HolidayRule struct {
	Name     string
	Month    time.Month
	Day      int
	Weekday  time.Weekday
	FirstDay int
	LastDay  int
}

func fixed(name string, m time.Month, day int) HolidayRule {
	return HolidayRule{Name: name, Month: m, Day: day}
}

// nth covers the n-th weekday of a month.
func nth(name string, m time.Month, wd time.Weekday, n int) HolidayRule {
	first := (n-1)*7 + 1
	return HolidayRule{Name: name, Month: m, Weekday: wd, FirstDay: first, LastDay: first + 6}
}

// last covers the last weekday of a 31-day month.
func last(name string, m time.Month, wd time.Weekday) HolidayRule {
	return HolidayRule{Name: name, Month: m, Weekday: wd, FirstDay: 25, LastDay: 31}
}

// USHolidays are the federal holidays marked on the date dimension.
var USHolidays = []HolidayRule{
	fixed("New Year's Day", time.January, 1),
	nth("Martin Luther King Jr. Day", time.January, time.Monday, 3),
	nth("Presidents' Day", time.February, time.Monday, 3),
	last("Memorial Day", time.May, time.Monday),
	fixed("Juneteenth", time.June, 19),
	fixed("Independence Day", time.July, 4),
	nth("Labor Day", time.September, time.Monday, 1),
	nth("Columbus Day", time.October, time.Monday, 2),
	fixed("Veterans Day", time.November, 11),
	nth("Thanksgiving Day", time.November, time.Thursday, 4),
	fixed("Christmas Day", time.December, 25),
}

func (r HolidayRule) Fixed() bool { return r.Day > 0 }

func (r HolidayRule) Matches(t time.Time) bool {
	if t.Month() != r.Month {
		return false
	}
	if r.Fixed() {
		return t.Day() == r.Day
	}
	return t.Weekday() == r.Weekday && t.Day() >= r.FirstDay && t.Day() <= r.LastDay
}

// HolidayOn returns the name of the holiday falling on t, if any.
func HolidayOn(t time.Time) (string, bool) {
	for _, r := range USHolidays {
		if r.Matches(t) {
			return r.Name, true
		}
	}
	return "", false
}

// Resolve returns the date a rule falls on in the given year.
func (r HolidayRule) Resolve(year int) time.Time {
	if r.Fixed() {
		return time.Date(year, r.Month, r.Day, 0, 0, 0, 0, time.UTC)
	}
	for d := r.FirstDay; d <= r.LastDay; d++ {
		t := time.Date(year, r.Month, d, 0, 0, 0, 0, time.UTC)
		if t.Weekday() == r.Weekday {
			return t
		}
	}
	return time.Time{}
}
