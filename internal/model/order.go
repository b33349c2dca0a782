package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	OrderPending    = "PENDING"
	OrderProcessing = "PROCESSING"
	OrderShipped    = "SHIPPED"
	OrderCancelled  = "CANCELLED"
)

// orderTransitions lists the legal status moves. SHIPPED and CANCELLED are terminal.
var orderTransitions = map[string][]string{
	OrderPending:    {OrderProcessing, OrderCancelled},
	OrderProcessing: {OrderShipped, OrderCancelled},
}

// CanTransition reports whether an order may move from one status to another.
func CanTransition(from, to string) bool {
	for _, s := range orderTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// Order is never deleted; cancellation is a status.
type Order struct {
	ID           uuid.UUID  `gorm:"type:uuid;primaryKey"`
	OrderNumber  string     `gorm:"uniqueIndex;not null"`
	CustomerID   uuid.UUID  `gorm:"type:uuid;not null;index"`
	SalesRepID   uuid.UUID  `gorm:"type:uuid;not null;index"`
	OrderDate    time.Time  `gorm:"not null;index"`
	RequiredDate *time.Time `gorm:"type:date"`
	ShippedDate  *time.Time

	ShipLine1      string
	ShipLine2      string
	ShipCity       string
	ShipState      string
	ShipPostalCode string
	ShipCountry    string

	Subtotal     decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	TaxAmount    decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	Freight      decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	TotalAmount  decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	Status       string          `gorm:"not null;index;default:'PENDING'"`
	CancelReason *string
	CreatedAt    time.Time
	UpdatedAt    time.Time

	Items []OrderItem `gorm:"foreignKey:OrderID"`
}

func (o *Order) BeforeCreate(*gorm.DB) error { ensureID(&o.ID); return nil }

type OrderItem struct {
	ID           uuid.UUID       `gorm:"type:uuid;primaryKey"`
	OrderID      uuid.UUID       `gorm:"type:uuid;not null;index"`
	LineNumber   int             `gorm:"not null"`
	ProductID    uuid.UUID       `gorm:"type:uuid;not null;index"`
	LocationCode string          `gorm:"not null"`
	Quantity     int             `gorm:"not null"`
	UnitPrice    decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Discount     decimal.Decimal `gorm:"type:decimal(5,4);not null;default:0"`
	LineTotal    decimal.Decimal `gorm:"type:decimal(12,2);not null"`

	Product *Product `gorm:"foreignKey:ProductID"`
}

func (i *OrderItem) BeforeCreate(*gorm.DB) error { ensureID(&i.ID); return nil }
