package repository

import (
	"context"

	"retailworks/internal/calendar"
	"retailworks/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type DateDimRepository interface {
	// UpsertTx writes rows keyed by date_key. Existing rows keep their key, so
	// facts referencing them stay valid; their holiday flags are cleared.
	UpsertTx(ctx context.Context, tx *gorm.DB, rows []model.DateDim) error
	// MarkHolidayTx flags the dates in range matching rule. Dates already carrying
	// another holiday's name are left untouched.
	MarkHolidayTx(ctx context.Context, tx *gorm.DB, rule calendar.HolidayRule, startKey, endKey int) (int64, error)
	ListKeys(ctx context.Context, startKey, endKey int) ([]int, error)
	ListRange(ctx context.Context, startKey, endKey int) ([]model.DateDim, error)
	DB() *gorm.DB
}

type dateDimRepo struct{ db *gorm.DB }

func NewDateDimRepository(db *gorm.DB) DateDimRepository { return &dateDimRepo{db: db} }

func (r *dateDimRepo) DB() *gorm.DB { return r.db }

var dateDimDerived = []string{
	"date_actual", "day_of_week", "day_of_week_name", "day_of_month", "day_of_year",
	"iso_week", "iso_year", "us_week", "month_number", "month_name",
	"quarter_number", "quarter_name", "year_number",
	"fiscal_year", "fiscal_quarter", "fiscal_month", "season", "is_weekend",
	"is_holiday", "holiday_name",
}

func (r *dateDimRepo) UpsertTx(ctx context.Context, tx *gorm.DB, rows []model.DateDim) error {
	if len(rows) == 0 {
		return nil
	}
	return tx.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "date_key"}},
		DoUpdates: clause.AssignmentColumns(dateDimDerived),
	}).CreateInBatches(rows, 500).Error
}

func (r *dateDimRepo) MarkHolidayTx(ctx context.Context, tx *gorm.DB, rule calendar.HolidayRule, startKey, endKey int) (int64, error) {
	q := tx.WithContext(ctx).Model(&model.DateDim{}).
		Where("date_key BETWEEN ? AND ?", startKey, endKey).
		Where("month_number = ?", int(rule.Month)).
		Where("(holiday_name IS NULL OR holiday_name = ?)", rule.Name)
	if rule.Fixed() {
		q = q.Where("day_of_month = ?", rule.Day)
	} else {
		q = q.Where("day_of_week = ? AND day_of_month BETWEEN ? AND ?",
			calendar.ISOWeekday(rule.Weekday), rule.FirstDay, rule.LastDay)
	}
	res := q.Updates(map[string]any{"is_holiday": true, "holiday_name": rule.Name})
	return res.RowsAffected, res.Error
}

func (r *dateDimRepo) ListKeys(ctx context.Context, startKey, endKey int) ([]int, error) {
	var keys []int
	err := r.db.WithContext(ctx).Model(&model.DateDim{}).
		Where("date_key BETWEEN ? AND ?", startKey, endKey).
		Order("date_key ASC").Pluck("date_key", &keys).Error
	return keys, err
}

func (r *dateDimRepo) ListRange(ctx context.Context, startKey, endKey int) ([]model.DateDim, error) {
	var rows []model.DateDim
	err := r.db.WithContext(ctx).Where("date_key BETWEEN ? AND ?", startKey, endKey).
		Order("date_key ASC").Find(&rows).Error
	return rows, err
}
