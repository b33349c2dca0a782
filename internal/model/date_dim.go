package model

import "time"

// DateDim is one calendar day. Every column except the holiday pair is a
// pure function of DateActual and the fiscal-year start month.
type DateDim struct {
	DateKey       int       `gorm:"primaryKey;autoIncrement:false"` // yyyymmdd
	DateActual    time.Time `gorm:"type:date;not null;uniqueIndex"`
	DayOfWeek     int       `gorm:"not null"` // ISO: Monday=1 .. Sunday=7
	DayOfWeekName string    `gorm:"not null"`
	DayOfMonth    int       `gorm:"not null"`
	DayOfYear     int       `gorm:"not null"`
	ISOWeek       int       `gorm:"column:iso_week;not null"`
	ISOYear       int       `gorm:"column:iso_year;not null"`
	USWeek        int       `gorm:"column:us_week;not null"`
	MonthNumber   int       `gorm:"not null"`
	MonthName     string    `gorm:"not null"`
	QuarterNumber int       `gorm:"not null"`
	QuarterName   string    `gorm:"not null"`
	YearNumber    int       `gorm:"not null"`
	FiscalYear    int       `gorm:"not null"`
	FiscalQuarter int       `gorm:"not null"`
	FiscalMonth   int       `gorm:"not null"`
	Season        string    `gorm:"not null"`
	IsWeekend     bool      `gorm:"not null"`
	IsHoliday     bool      `gorm:"not null;default:false"`
	HolidayName   *string
}

// DateKeyOf returns the yyyymmdd key of t in UTC.
func DateKeyOf(t time.Time) int {
	t = t.UTC()
	return t.Year()*10000 + int(t.Month())*100 + t.Day()
}
