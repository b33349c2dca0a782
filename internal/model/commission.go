package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// CommissionRecord is overwritten on every recalculation of the same period.
type CommissionRecord struct {
	ID               uuid.UUID       `gorm:"type:uuid;primaryKey"`
	EmployeeID       uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:ux_commission_period"`
	PeriodStart      time.Time       `gorm:"type:date;not null;uniqueIndex:ux_commission_period"`
	PeriodEnd        time.Time       `gorm:"type:date;not null;uniqueIndex:ux_commission_period"`
	OrderCount       int             `gorm:"not null"`
	TotalSales       decimal.Decimal `gorm:"type:decimal(14,2);not null"`
	CommissionRate   decimal.Decimal `gorm:"type:decimal(5,4);not null"`
	CommissionAmount decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	CalculatedAt     time.Time       `gorm:"not null"`

	SalesRep *SalesRep `gorm:"foreignKey:EmployeeID"`
}

func (c *CommissionRecord) BeforeCreate(*gorm.DB) error { ensureID(&c.ID); return nil }
