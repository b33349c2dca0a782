package repository

import (
	"context"
	"time"

	"retailworks/internal/dto"
	"retailworks/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type OrderRepository interface {
	CreateTx(ctx context.Context, tx *gorm.DB, o *model.Order) error
	CreateItemTx(ctx context.Context, tx *gorm.DB, item *model.OrderItem) error
	UpdateTotalsTx(ctx context.Context, tx *gorm.DB, id uuid.UUID, subtotal, tax, total decimal.Decimal) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Order, error)
	// FindForUpdateTx locks the order row for the rest of tx.
	FindForUpdateTx(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*model.Order, error)
	// TransitionTx moves the order only if it is still in status from.
	TransitionTx(ctx context.Context, tx *gorm.DB, id uuid.UUID, from, to string, fields map[string]any) (bool, error)
	List(ctx context.Context, filter dto.OrderFilter) ([]model.Order, int64, error)
	// ShippedTotals returns the total_amount of every SHIPPED order of a rep placed in [from, until).
	ShippedTotals(ctx context.Context, tx *gorm.DB, salesRepID uuid.UUID, from, until time.Time) ([]decimal.Decimal, error)
	// ListForFacts returns non-cancelled orders placed in [from, until) with their items.
	ListForFacts(ctx context.Context, tx *gorm.DB, from, until time.Time) ([]model.Order, error)
	DB() *gorm.DB // exposes the DB for transaction creation in service layer
}

type orderRepo struct{ db *gorm.DB }

func NewOrderRepository(db *gorm.DB) OrderRepository { return &orderRepo{db: db} }

func (r *orderRepo) DB() *gorm.DB { return r.db }

func (r *orderRepo) CreateTx(ctx context.Context, tx *gorm.DB, o *model.Order) error {
	return tx.WithContext(ctx).Omit(clause.Associations).Create(o).Error
}

func (r *orderRepo) CreateItemTx(ctx context.Context, tx *gorm.DB, item *model.OrderItem) error {
	return tx.WithContext(ctx).Omit(clause.Associations).Create(item).Error
}

func (r *orderRepo) UpdateTotalsTx(ctx context.Context, tx *gorm.DB, id uuid.UUID, subtotal, tax, total decimal.Decimal) error {
	return tx.WithContext(ctx).Model(&model.Order{}).Where("id = ?", id).Updates(map[string]any{
		"subtotal":     subtotal,
		"tax_amount":   tax,
		"total_amount": total,
		"updated_at":   time.Now().UTC(),
	}).Error
}

func (r *orderRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	var o model.Order
	err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("line_number ASC") }).
		First(&o, "id = ?", id).Error
	return &o, err
}

func (r *orderRepo) FindForUpdateTx(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*model.Order, error) {
	var o model.Order
	if err := tx.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}).First(&o, "id = ?", id).Error; err != nil {
		return nil, err
	}
	err := tx.WithContext(ctx).Where("order_id = ?", id).Order("line_number ASC").Find(&o.Items).Error
	return &o, err
}

func (r *orderRepo) TransitionTx(ctx context.Context, tx *gorm.DB, id uuid.UUID, from, to string, fields map[string]any) (bool, error) {
	updates := map[string]any{"status": to, "updated_at": time.Now().UTC()}
	for k, v := range fields {
		updates[k] = v
	}
	res := tx.WithContext(ctx).Model(&model.Order{}).
		Where("id = ? AND status = ?", id, from).
		Updates(updates)
	return res.RowsAffected == 1, res.Error
}

func (r *orderRepo) List(ctx context.Context, filter dto.OrderFilter) ([]model.Order, int64, error) {
	var orders []model.Order
	var total int64

	q := r.db.WithContext(ctx).Model(&model.Order{})
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	if filter.CustomerID != "" {
		q = q.Where("customer_id = ?", filter.CustomerID)
	}
	if from, err := time.Parse(time.DateOnly, filter.From); err == nil {
		q = q.Where("order_date >= ?", from)
	}
	if to, err := time.Parse(time.DateOnly, filter.To); err == nil {
		q = q.Where("order_date < ?", to.AddDate(0, 0, 1))
	}

	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (filter.Page - 1) * filter.Limit
	err := q.Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("line_number ASC") }).
		Order("order_date DESC").
		Offset(offset).Limit(filter.Limit).
		Find(&orders).Error
	return orders, total, err
}

func (r *orderRepo) ShippedTotals(ctx context.Context, tx *gorm.DB, salesRepID uuid.UUID, from, until time.Time) ([]decimal.Decimal, error) {
	var totals []decimal.Decimal
	err := tx.WithContext(ctx).Model(&model.Order{}).
		Where("sales_rep_id = ? AND status = ? AND order_date >= ? AND order_date < ?", salesRepID, model.OrderShipped, from, until).
		Pluck("total_amount", &totals).Error
	return totals, err
}

func (r *orderRepo) ListForFacts(ctx context.Context, tx *gorm.DB, from, until time.Time) ([]model.Order, error) {
	var orders []model.Order
	err := tx.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("line_number ASC") }).
		Where("status <> ? AND order_date >= ? AND order_date < ?", model.OrderCancelled, from, until).
		Order("order_date ASC, order_number ASC").
		Find(&orders).Error
	return orders, err
}
