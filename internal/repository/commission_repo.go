package repository

import (
	"context"
	"errors"
	"time"

	"retailworks/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CommissionRepository interface {
	// FindPayrollForUpdateTx locks the payroll row matching the period exactly.
	FindPayrollForUpdateTx(ctx context.Context, tx *gorm.DB, employeeID uuid.UUID, start, end time.Time) (*model.Payroll, error)
	UpdatePayrollTx(ctx context.Context, tx *gorm.DB, p *model.Payroll) error
	// SaveTx overwrites the record of the same employee and period, or creates it.
	SaveTx(ctx context.Context, tx *gorm.DB, rec *model.CommissionRecord) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.CommissionRecord, error)
	DB() *gorm.DB
}

type commissionRepo struct{ db *gorm.DB }

func NewCommissionRepository(db *gorm.DB) CommissionRepository { return &commissionRepo{db: db} }

func (r *commissionRepo) DB() *gorm.DB { return r.db }

func (r *commissionRepo) FindPayrollForUpdateTx(ctx context.Context, tx *gorm.DB, employeeID uuid.UUID, start, end time.Time) (*model.Payroll, error) {
	var p model.Payroll
	err := tx.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("employee_id = ? AND pay_period_start = ? AND pay_period_end = ?", employeeID, start, end).
		First(&p).Error
	return &p, err
}

func (r *commissionRepo) UpdatePayrollTx(ctx context.Context, tx *gorm.DB, p *model.Payroll) error {
	return tx.WithContext(ctx).Model(p).Updates(map[string]any{
		"commission_amount": p.CommissionAmount,
		"gross_pay":         p.GrossPay,
		"net_pay":           p.NetPay,
		"updated_at":        time.Now().UTC(),
	}).Error
}

func (r *commissionRepo) SaveTx(ctx context.Context, tx *gorm.DB, rec *model.CommissionRecord) error {
	var existing model.CommissionRecord
	err := tx.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("employee_id = ? AND period_start = ? AND period_end = ?", rec.EmployeeID, rec.PeriodStart, rec.PeriodEnd).
		First(&existing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return tx.WithContext(ctx).Omit(clause.Associations).Create(rec).Error
	}
	if err != nil {
		return err
	}
	rec.ID = existing.ID
	return tx.WithContext(ctx).Model(&existing).Updates(map[string]any{
		"order_count":       rec.OrderCount,
		"total_sales":       rec.TotalSales,
		"commission_rate":   rec.CommissionRate,
		"commission_amount": rec.CommissionAmount,
		"calculated_at":     rec.CalculatedAt,
	}).Error
}

func (r *commissionRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.CommissionRecord, error) {
	var rec model.CommissionRecord
	err := r.db.WithContext(ctx).Preload("SalesRep").First(&rec, "id = ?", id).Error
	return &rec, err
}
