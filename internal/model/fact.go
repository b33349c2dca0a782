package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Fact rows are immutable. A date range is corrected by deleting and
// reloading it as a whole, keyed by LoadBatchID for traceability.

// SalesFact has order-line grain.
type SalesFact struct {
	SalesFactID  int64     `gorm:"primaryKey;autoIncrement"`
	OrderID      uuid.UUID `gorm:"type:uuid;not null;index"`
	OrderItemID  uuid.UUID `gorm:"type:uuid;not null;uniqueIndex"`
	OrderNumber  string    `gorm:"not null"`
	OrderStatus  string    `gorm:"not null"`
	OrderDateKey int       `gorm:"not null;index"`
	ShipDateKey  *int
	CustomerKey  int64           `gorm:"not null;index"`
	ProductKey   int64           `gorm:"not null;index"`
	SalesRepKey  int64           `gorm:"not null;index"`
	Quantity     int             `gorm:"not null"`
	UnitPrice    decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Discount     decimal.Decimal `gorm:"type:decimal(5,4);not null"`
	LineTotal    decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	CostAmount   decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Profit       decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	LoadBatchID  string          `gorm:"not null;index"`
	LoadedAt     time.Time       `gorm:"not null"`
}

// CustomerAnalyticsFact has customer-per-day grain.
type CustomerAnalyticsFact struct {
	ID             int64           `gorm:"primaryKey;autoIncrement"`
	CustomerKey    int64           `gorm:"not null;uniqueIndex:ux_customer_analytics_day"`
	DateKey        int             `gorm:"not null;uniqueIndex:ux_customer_analytics_day"`
	OrderCount     int             `gorm:"not null"`
	ItemsPurchased int             `gorm:"not null"`
	Revenue        decimal.Decimal `gorm:"type:decimal(14,2);not null"`
	AvgOrderValue  decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Profit         decimal.Decimal `gorm:"type:decimal(14,2);not null"`
	LoadBatchID    string          `gorm:"not null;index"`
	LoadedAt       time.Time       `gorm:"not null"`
}

// ProductPerformanceFact has product-per-day grain.
type ProductPerformanceFact struct {
	ID          int64           `gorm:"primaryKey;autoIncrement"`
	ProductKey  int64           `gorm:"not null;uniqueIndex:ux_product_performance_day"`
	DateKey     int             `gorm:"not null;uniqueIndex:ux_product_performance_day"`
	OrderCount  int             `gorm:"not null"`
	UnitsSold   int             `gorm:"not null"`
	Revenue     decimal.Decimal `gorm:"type:decimal(14,2);not null"`
	CostAmount  decimal.Decimal `gorm:"type:decimal(14,2);not null"`
	Profit      decimal.Decimal `gorm:"type:decimal(14,2);not null"`
	LoadBatchID string          `gorm:"not null;index"`
	LoadedAt    time.Time       `gorm:"not null"`
}
