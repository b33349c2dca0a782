package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// InventoryRecord holds stock for one product at one location.
// QuantityAvailable is always QuantityOnHand - QuantityAllocated.
type InventoryRecord struct {
	ID                uuid.UUID `gorm:"type:uuid;primaryKey"`
	ProductID         uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:ux_inventory_product_location"`
	LocationCode      string    `gorm:"not null;uniqueIndex:ux_inventory_product_location"`
	QuantityOnHand    int       `gorm:"not null;default:0"`
	QuantityAllocated int       `gorm:"not null;default:0"`
	QuantityAvailable int       `gorm:"not null;default:0"`
	ReorderPoint      int       `gorm:"not null;default:0"`
	ReorderQuantity   int       `gorm:"not null;default:0"`
	Version           int64     `gorm:"not null;default:0"`
	LastCountedAt     *time.Time
	CreatedAt         time.Time
	UpdatedAt         time.Time

	Product *Product `gorm:"foreignKey:ProductID"`
}

func (r *InventoryRecord) BeforeCreate(*gorm.DB) error { ensureID(&r.ID); return nil }

// NeedsReorder reports whether on-hand stock sits at or below the reorder point.
func (r *InventoryRecord) NeedsReorder() bool {
	return r.QuantityOnHand <= r.ReorderPoint
}

const (
	MovementAllocation = "ALLOCATION"
	MovementRelease    = "RELEASE"
	MovementShipment   = "SHIPMENT"
	MovementReceipt    = "RECEIPT"
	MovementAdjustment = "ADJUSTMENT"
	MovementReturn     = "RETURN"
)

// InventoryMovement is an append-only entry written for every ledger mutation.
type InventoryMovement struct {
	ID              uuid.UUID `gorm:"type:uuid;primaryKey"`
	InventoryID     uuid.UUID `gorm:"type:uuid;not null;index"`
	ProductID       uuid.UUID `gorm:"type:uuid;not null;index"`
	LocationCode    string    `gorm:"not null"`
	Kind            string    `gorm:"not null"`
	Quantity        int       `gorm:"not null"`
	OnHandBefore    int       `gorm:"not null"`
	OnHandAfter     int       `gorm:"not null"`
	AllocatedBefore int       `gorm:"not null"`
	AllocatedAfter  int       `gorm:"not null"`
	Note            string
	ReferenceID     *uuid.UUID `gorm:"type:uuid;index"` // order id when applicable
	CreatedAt       time.Time
}

func (m *InventoryMovement) BeforeCreate(*gorm.DB) error { ensureID(&m.ID); return nil }
