package model

import (
	"strconv"

	"retailworks/internal/scd"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Dimension rows are written only through scd.Upsert. Fingerprint lists the
// tracked attributes; untracked columns ride along with the next version.

type CustomerDim struct {
	CustomerKey    int64     `gorm:"primaryKey;autoIncrement"`
	CustomerID     uuid.UUID `gorm:"type:uuid;not null;index:idx_customer_dims_natural;uniqueIndex:ux_customer_dims_current,where:is_current"`
	CustomerNumber string    `gorm:"not null"`
	CustomerName   string    `gorm:"not null"`
	CustomerType   string    `gorm:"not null"`
	Email          string
	Phone          string
	AgeGroup       string
	IncomeCategory string
	AnnualIncome   decimal.Decimal `gorm:"type:decimal(14,2)"`
	SegmentName    string
	City           string
	State          string
	Country        string
	Status         string `gorm:"not null"`
	scd.Version
}

func (CustomerDim) TableName() string           { return "customer_dims" }
func (*CustomerDim) NaturalKeyColumn() string   { return "customer_id" }
func (d *CustomerDim) NaturalKey() any          { return d.CustomerID }
func (d *CustomerDim) SurrogateKey() int64      { return d.CustomerKey }
func (d *CustomerDim) Versioning() *scd.Version { return &d.Version }

func (d *CustomerDim) Fingerprint() string {
	return scd.Fingerprint(
		d.CustomerNumber, d.CustomerName, d.CustomerType, d.Email, d.Phone,
		d.IncomeCategory, d.AnnualIncome.StringFixed(2), d.SegmentName,
		d.City, d.State, d.Country, d.Status,
	)
}

type ProductDim struct {
	ProductKey    int64     `gorm:"primaryKey;autoIncrement"`
	ProductID     uuid.UUID `gorm:"type:uuid;not null;index:idx_product_dims_natural;uniqueIndex:ux_product_dims_current,where:is_current"`
	ProductNumber string    `gorm:"not null"`
	ProductName   string    `gorm:"not null"`
	CategoryName  string
	SupplierName  string
	UnitPrice     decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Cost          decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Discontinued  bool            `gorm:"not null"`
	scd.Version
}

func (ProductDim) TableName() string           { return "product_dims" }
func (*ProductDim) NaturalKeyColumn() string   { return "product_id" }
func (d *ProductDim) NaturalKey() any          { return d.ProductID }
func (d *ProductDim) SurrogateKey() int64      { return d.ProductKey }
func (d *ProductDim) Versioning() *scd.Version { return &d.Version }

func (d *ProductDim) Fingerprint() string {
	return scd.Fingerprint(
		d.ProductNumber, d.ProductName, d.CategoryName, d.SupplierName,
		d.UnitPrice.StringFixed(2), d.Cost.StringFixed(2), strconv.FormatBool(d.Discontinued),
	)
}

type SalesRepDim struct {
	SalesRepKey    int64     `gorm:"primaryKey;autoIncrement"`
	SalesRepID     uuid.UUID `gorm:"type:uuid;not null;index:idx_sales_rep_dims_natural;uniqueIndex:ux_sales_rep_dims_current,where:is_current"`
	EmployeeNumber string    `gorm:"not null"`
	SalesRepName   string    `gorm:"not null"`
	Email          string
	TerritoryName  string
	Region         string
	CommissionRate decimal.Decimal `gorm:"type:decimal(5,4)"`
	Status         string          `gorm:"not null"`
	scd.Version
}

func (SalesRepDim) TableName() string           { return "sales_rep_dims" }
func (*SalesRepDim) NaturalKeyColumn() string   { return "sales_rep_id" }
func (d *SalesRepDim) NaturalKey() any          { return d.SalesRepID }
func (d *SalesRepDim) SurrogateKey() int64      { return d.SalesRepKey }
func (d *SalesRepDim) Versioning() *scd.Version { return &d.Version }

func (d *SalesRepDim) Fingerprint() string {
	return scd.Fingerprint(
		d.EmployeeNumber, d.SalesRepName, d.Email, d.TerritoryName, d.Region,
		d.CommissionRate.StringFixed(4), d.Status,
	)
}
