// Package calendar derives date-dimension attributes. Every function is a pure
// function of its arguments.
package calendar

import (
	"fmt"
	"time"

	"retailworks/internal/model"
)

// DefaultFiscalStartMonth starts the fiscal year in July.
const DefaultFiscalStartMonth = time.July

// Day truncates t to midnight UTC of its calendar date.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDay parses a yyyy-mm-dd date.
func ParseDay(s string) (time.Time, error) {
	t, err := time.ParseInLocation(time.DateOnly, s, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, expected YYYY-MM-DD", s)
	}
	return t, nil
}

// DaysInRange counts the calendar days in [start, end], both inclusive.
func DaysInRange(start, end time.Time) int {
	return int(Day(end).Sub(Day(start)).Hours()/24) + 1
}

// ISOWeekday maps Go's Sunday=0 weekday to ISO Monday=1 .. Sunday=7.
func ISOWeekday(wd time.Weekday) int {
	if wd == time.Sunday {
		return 7
	}
	return int(wd)
}

// USWeek numbers weeks starting on Sunday; the week containing January 1 is week 1.
func USWeek(t time.Time) int {
	jan1 := time.Date(t.Year(), time.January, 1, 0, 0, 0, 0, time.UTC)
	return (t.YearDay()-1+int(jan1.Weekday()))/7 + 1
}

// Fiscal returns the fiscal year, quarter and month of t. The fiscal year is
// named after the calendar year in which it ends.
func Fiscal(t time.Time, startMonth time.Month) (year, quarter, month int) {
	if startMonth < time.January || startMonth > time.December {
		startMonth = DefaultFiscalStartMonth
	}
	m := int(t.Month())
	s := int(startMonth)
	month = (m-s+12)%12 + 1
	quarter = (month-1)/3 + 1
	year = t.Year()
	if s != 1 && m >= s {
		year++
	}
	return year, quarter, month
}

// Season returns the northern-hemisphere meteorological season.
func Season(m time.Month) string {
	switch m {
	case time.December, time.January, time.February:
		return "Winter"
	case time.March, time.April, time.May:
		return "Spring"
	case time.June, time.July, time.August:
		return "Summer"
	default:
		return "Fall"
	}
}

// Derive builds the date-dimension row for t. Holiday columns are left unset;
// they belong to the holiday pass.
func Derive(t time.Time, fiscalStart time.Month) model.DateDim {
	t = Day(t)
	isoYear, isoWeek := t.ISOWeek()
	fy, fq, fm := Fiscal(t, fiscalStart)
	q := (int(t.Month())-1)/3 + 1
	return model.DateDim{
		DateKey:       model.DateKeyOf(t),
		DateActual:    t,
		DayOfWeek:     ISOWeekday(t.Weekday()),
		DayOfWeekName: t.Weekday().String(),
		DayOfMonth:    t.Day(),
		DayOfYear:     t.YearDay(),
		ISOWeek:       isoWeek,
		ISOYear:       isoYear,
		USWeek:        USWeek(t),
		MonthNumber:   int(t.Month()),
		MonthName:     t.Month().String(),
		QuarterNumber: q,
		QuarterName:   fmt.Sprintf("Q%d", q),
		YearNumber:    t.Year(),
		FiscalYear:    fy,
		FiscalQuarter: fq,
		FiscalMonth:   fm,
		Season:        Season(t.Month()),
		IsWeekend:     t.Weekday() == time.Saturday || t.Weekday() == time.Sunday,
	}
}

// Generate derives one row per day in [start, end].
func Generate(start, end time.Time, fiscalStart time.Month) []model.DateDim {
	start, end = Day(start), Day(end)
	if end.Before(start) {
		return nil
	}
	rows := make([]model.DateDim, 0, DaysInRange(start, end))
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		rows = append(rows, Derive(d, fiscalStart))
	}
	return rows
}
