package repository

import (
	"context"
	"time"

	"retailworks/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// InventoryRepository is the only writer of inventory_records and inventory_movements.
type InventoryRepository interface {
	Find(ctx context.Context, productID uuid.UUID, location string) (*model.InventoryRecord, error)
	FindByProduct(ctx context.Context, productID uuid.UUID) ([]model.InventoryRecord, error)
	// FindForUpdateTx row-locks the record for the rest of tx.
	FindForUpdateTx(ctx context.Context, tx *gorm.DB, productID uuid.UUID, location string) (*model.InventoryRecord, error)
	CreateTx(ctx context.Context, tx *gorm.DB, rec *model.InventoryRecord) error
	// SwapTx writes rec's quantities if the stored version still equals expected.
	SwapTx(ctx context.Context, tx *gorm.DB, rec *model.InventoryRecord, expected int64) (bool, error)
	CreateMovementTx(ctx context.Context, tx *gorm.DB, m *model.InventoryMovement) error
	ListReorderAlerts(ctx context.Context) ([]model.InventoryRecord, error)
	ListMovements(ctx context.Context, productID uuid.UUID, limit int) ([]model.InventoryMovement, error)
	DB() *gorm.DB
}

type inventoryRepo struct{ db *gorm.DB }

func NewInventoryRepository(db *gorm.DB) InventoryRepository { return &inventoryRepo{db: db} }

func (r *inventoryRepo) DB() *gorm.DB { return r.db }

func (r *inventoryRepo) Find(ctx context.Context, productID uuid.UUID, location string) (*model.InventoryRecord, error) {
	var rec model.InventoryRecord
	err := r.db.WithContext(ctx).
		Where("product_id = ? AND location_code = ?", productID, location).
		First(&rec).Error
	return &rec, err
}

func (r *inventoryRepo) FindByProduct(ctx context.Context, productID uuid.UUID) ([]model.InventoryRecord, error) {
	var recs []model.InventoryRecord
	err := r.db.WithContext(ctx).Where("product_id = ?", productID).Order("location_code ASC").Find(&recs).Error
	return recs, err
}

func (r *inventoryRepo) FindForUpdateTx(ctx context.Context, tx *gorm.DB, productID uuid.UUID, location string) (*model.InventoryRecord, error) {
	var rec model.InventoryRecord
	err := tx.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("product_id = ? AND location_code = ?", productID, location).
		First(&rec).Error
	return &rec, err
}

func (r *inventoryRepo) CreateTx(ctx context.Context, tx *gorm.DB, rec *model.InventoryRecord) error {
	return tx.WithContext(ctx).Omit(clause.Associations).Create(rec).Error
}

func (r *inventoryRepo) SwapTx(ctx context.Context, tx *gorm.DB, rec *model.InventoryRecord, expected int64) (bool, error) {
	res := tx.WithContext(ctx).Model(&model.InventoryRecord{}).
		Where("id = ? AND version = ?", rec.ID, expected).
		Updates(map[string]any{
			"quantity_on_hand":   rec.QuantityOnHand,
			"quantity_allocated": rec.QuantityAllocated,
			"quantity_available": rec.QuantityAvailable,
			"last_counted_at":    rec.LastCountedAt,
			"version":            expected + 1,
			"updated_at":         time.Now().UTC(),
		})
	return res.RowsAffected == 1, res.Error
}

func (r *inventoryRepo) CreateMovementTx(ctx context.Context, tx *gorm.DB, m *model.InventoryMovement) error {
	return tx.WithContext(ctx).Create(m).Error
}

func (r *inventoryRepo) ListReorderAlerts(ctx context.Context) ([]model.InventoryRecord, error) {
	var recs []model.InventoryRecord
	err := r.db.WithContext(ctx).
		Where("quantity_on_hand <= reorder_point").
		Order("quantity_on_hand ASC, location_code ASC").
		Find(&recs).Error
	return recs, err
}

func (r *inventoryRepo) ListMovements(ctx context.Context, productID uuid.UUID, limit int) ([]model.InventoryMovement, error) {
	var movs []model.InventoryMovement
	err := r.db.WithContext(ctx).Where("product_id = ?", productID).
		Order("created_at DESC").Limit(limit).Find(&movs).Error
	return movs, err
}
