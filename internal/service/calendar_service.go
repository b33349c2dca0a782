package service

import (
	"context"
	"fmt"
	"time"

	"retailworks/internal/apierror"
	"retailworks/internal/calendar"
	"retailworks/internal/dto"
	"retailworks/internal/model"
	"retailworks/internal/repository"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// maxCalendarDays caps one generation request at roughly a century.
const maxCalendarDays = 36600

type CalendarService interface {
	// Generate writes every date-dimension row in [start, end], overwriting the
	// derived columns of days that already exist. Holiday flags are reset.
	Generate(ctx context.Context, start, end time.Time) (int, error)
	// ApplyHolidays marks holidays in [start, end]; re-running it is a no-op.
	ApplyHolidays(ctx context.Context, start, end time.Time) (int, error)
	// Build runs Generate followed by ApplyHolidays.
	Build(ctx context.Context, start, end time.Time) (generated, holidays int, err error)
	// EnsureRange generates only the days missing from [start, end] and then
	// applies holidays over the whole range.
	EnsureRange(ctx context.Context, start, end time.Time) error
	ListDays(ctx context.Context, start, end time.Time) ([]dto.DateDimResponse, error)
}

type calendarService struct {
	repo        repository.DateDimRepository
	fiscalStart time.Month
}

func NewCalendarService(repo repository.DateDimRepository, fiscalStart time.Month) CalendarService {
	if fiscalStart < time.January || fiscalStart > time.December {
		fiscalStart = calendar.DefaultFiscalStartMonth
	}
	return &calendarService{repo: repo, fiscalStart: fiscalStart}
}

func checkRange(start, end time.Time) (time.Time, time.Time, error) {
	start, end = calendar.Day(start), calendar.Day(end)
	if end.Before(start) {
		return start, end, apierror.Validation("end_date", "end date %s is before start date %s",
			end.Format(time.DateOnly), start.Format(time.DateOnly))
	}
	if calendar.DaysInRange(start, end) > maxCalendarDays {
		return start, end, apierror.Validation("end_date", "date range exceeds %d days", maxCalendarDays)
	}
	return start, end, nil
}

func (s *calendarService) Generate(ctx context.Context, start, end time.Time) (int, error) {
	start, end, err := checkRange(start, end)
	if err != nil {
		return 0, err
	}
	rows := calendar.Generate(start, end, s.fiscalStart)
	if err := s.write(ctx, rows); err != nil {
		return 0, err
	}
	log.Info().Str("start", start.Format(time.DateOnly)).Str("end", end.Format(time.DateOnly)).
		Int("rows", len(rows)).Msg("date dimension generated")
	return len(rows), nil
}

func (s *calendarService) write(ctx context.Context, rows []model.DateDim) error {
	return runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		if err := s.repo.UpsertTx(ctx, tx, rows); err != nil {
			return fmt.Errorf("write date rows: %w", err)
		}
		return nil
	})
}

func (s *calendarService) ApplyHolidays(ctx context.Context, start, end time.Time) (int, error) {
	start, end, err := checkRange(start, end)
	if err != nil {
		return 0, err
	}
	startKey, endKey := model.DateKeyOf(start), model.DateKeyOf(end)
	var marked int64
	err = runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		for _, rule := range calendar.USHolidays {
			n, err := s.repo.MarkHolidayTx(ctx, tx, rule, startKey, endKey)
			if err != nil {
				return fmt.Errorf("mark %s: %w", rule.Name, err)
			}
			marked += n
		}
		return nil
	})
	return int(marked), err
}

func (s *calendarService) Build(ctx context.Context, start, end time.Time) (int, int, error) {
	n, err := s.Generate(ctx, start, end)
	if err != nil {
		return 0, 0, err
	}
	h, err := s.ApplyHolidays(ctx, start, end)
	if err != nil {
		return n, 0, err
	}
	return n, h, nil
}

func (s *calendarService) EnsureRange(ctx context.Context, start, end time.Time) error {
	start, end, err := checkRange(start, end)
	if err != nil {
		return err
	}
	keys, err := s.repo.ListKeys(ctx, model.DateKeyOf(start), model.DateKeyOf(end))
	if err != nil {
		return fmt.Errorf("list date keys: %w", err)
	}
	if len(keys) == calendar.DaysInRange(start, end) {
		return nil
	}
	have := make(map[int]bool, len(keys))
	for _, k := range keys {
		have[k] = true
	}
	var missing []model.DateDim
	for _, d := range calendar.Generate(start, end, s.fiscalStart) {
		if !have[d.DateKey] {
			missing = append(missing, d)
		}
	}
	if err := s.write(ctx, missing); err != nil {
		return err
	}
	if _, err := s.ApplyHolidays(ctx, start, end); err != nil {
		return err
	}
	log.Info().Str("start", start.Format(time.DateOnly)).Str("end", end.Format(time.DateOnly)).
		Int("rows", len(missing)).Msg("date dimension gaps filled")
	return nil
}

func (s *calendarService) ListDays(ctx context.Context, start, end time.Time) ([]dto.DateDimResponse, error) {
	start, end, err := checkRange(start, end)
	if err != nil {
		return nil, err
	}
	rows, err := s.repo.ListRange(ctx, model.DateKeyOf(start), model.DateKeyOf(end))
	if err != nil {
		return nil, fmt.Errorf("list date range: %w", err)
	}
	out := make([]dto.DateDimResponse, 0, len(rows))
	for _, d := range rows {
		out = append(out, dto.DateDimResponse{
			DateKey:       d.DateKey,
			Date:          d.DateActual.UTC().Format(time.DateOnly),
			DayOfWeek:     d.DayOfWeek,
			DayOfWeekName: d.DayOfWeekName,
			ISOWeek:       d.ISOWeek,
			MonthName:     d.MonthName,
			QuarterName:   d.QuarterName,
			FiscalYear:    d.FiscalYear,
			FiscalQuarter: d.FiscalQuarter,
			Season:        d.Season,
			IsWeekend:     d.IsWeekend,
			IsHoliday:     d.IsHoliday,
			HolidayName:   d.HolidayName,
		})
	}
	return out, nil
}
