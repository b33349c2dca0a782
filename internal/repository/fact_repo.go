package repository

import (
	"context"

	"retailworks/internal/model"

	"gorm.io/gorm"
)

const factBatchSize = 500

// FactRepository writes fact tables. Rows are never updated: a date range is
// replaced as a whole inside one transaction.
type FactRepository interface {
	DeleteRangeTx(ctx context.Context, tx *gorm.DB, startKey, endKey int) (int64, error)
	InsertSalesTx(ctx context.Context, tx *gorm.DB, rows []model.SalesFact) error
	InsertCustomerAnalyticsTx(ctx context.Context, tx *gorm.DB, rows []model.CustomerAnalyticsFact) error
	InsertProductPerformanceTx(ctx context.Context, tx *gorm.DB, rows []model.ProductPerformanceFact) error
	ListSales(ctx context.Context, startKey, endKey int) ([]model.SalesFact, error)
	DB() *gorm.DB
}

type factRepo struct{ db *gorm.DB }

func NewFactRepository(db *gorm.DB) FactRepository { return &factRepo{db: db} }

func (r *factRepo) DB() *gorm.DB { return r.db }

func (r *factRepo) DeleteRangeTx(ctx context.Context, tx *gorm.DB, startKey, endKey int) (int64, error) {
	tx = tx.WithContext(ctx)
	var deleted int64
	res := tx.Where("order_date_key BETWEEN ? AND ?", startKey, endKey).Delete(&model.SalesFact{})
	if res.Error != nil {
		return 0, res.Error
	}
	deleted += res.RowsAffected
	for _, m := range []any{&model.CustomerAnalyticsFact{}, &model.ProductPerformanceFact{}} {
		res = tx.Where("date_key BETWEEN ? AND ?", startKey, endKey).Delete(m)
		if res.Error != nil {
			return 0, res.Error
		}
		deleted += res.RowsAffected
	}
	return deleted, nil
}

func (r *factRepo) InsertSalesTx(ctx context.Context, tx *gorm.DB, rows []model.SalesFact) error {
	if len(rows) == 0 {
		return nil
	}
	return tx.WithContext(ctx).CreateInBatches(rows, factBatchSize).Error
}

func (r *factRepo) InsertCustomerAnalyticsTx(ctx context.Context, tx *gorm.DB, rows []model.CustomerAnalyticsFact) error {
	if len(rows) == 0 {
		return nil
	}
	return tx.WithContext(ctx).CreateInBatches(rows, factBatchSize).Error
}

func (r *factRepo) InsertProductPerformanceTx(ctx context.Context, tx *gorm.DB, rows []model.ProductPerformanceFact) error {
	if len(rows) == 0 {
		return nil
	}
	return tx.WithContext(ctx).CreateInBatches(rows, factBatchSize).Error
}

func (r *factRepo) ListSales(ctx context.Context, startKey, endKey int) ([]model.SalesFact, error) {
	var rows []model.SalesFact
	err := r.db.WithContext(ctx).Where("order_date_key BETWEEN ? AND ?", startKey, endKey).
		Order("order_date_key ASC, order_number ASC, sales_fact_id ASC").Find(&rows).Error
	return rows, err
}
