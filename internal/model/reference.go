package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Reference data is owned by upstream systems. This core reads it and never
// enforces uniqueness on it: duplicates are reported by data-quality runs.

const (
	StatusActive   = "ACTIVE"
	StatusInactive = "INACTIVE"

	CustomerIndividual = "INDIVIDUAL"
	CustomerBusiness   = "BUSINESS"
)

func ensureID(id *uuid.UUID) {
	if *id == uuid.Nil {
		*id = uuid.New()
	}
}

type Category struct {
	ID       uuid.UUID  `gorm:"type:uuid;primaryKey"`
	Name     string     `gorm:"not null"`
	ParentID *uuid.UUID `gorm:"type:uuid"`
}

func (c *Category) BeforeCreate(*gorm.DB) error { ensureID(&c.ID); return nil }

type Supplier struct {
	ID      uuid.UUID `gorm:"type:uuid;primaryKey"`
	Name    string    `gorm:"not null"`
	Country string
	Status  string `gorm:"not null;default:'ACTIVE'"`
}

func (s *Supplier) BeforeCreate(*gorm.DB) error { ensureID(&s.ID); return nil }

type Territory struct {
	ID      uuid.UUID `gorm:"type:uuid;primaryKey"`
	Name    string    `gorm:"not null"`
	Region  string
	Country string
}

func (t *Territory) BeforeCreate(*gorm.DB) error { ensureID(&t.ID); return nil }

type Customer struct {
	ID               uuid.UUID `gorm:"type:uuid;primaryKey"`
	CustomerNumber   string    `gorm:"index;not null"`
	CustomerType     string    `gorm:"not null;default:'INDIVIDUAL'"`
	FirstName        string
	LastName         string
	CompanyName      string
	Email            string `gorm:"index"`
	Phone            string
	BirthDate        *time.Time       `gorm:"type:date"`
	AnnualIncome     *decimal.Decimal `gorm:"type:decimal(14,2)"`
	SegmentName      string
	City             string
	State            string
	Country          string
	RegistrationDate time.Time `gorm:"not null"`
	Status           string    `gorm:"not null;default:'ACTIVE'"`
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

func (c *Customer) BeforeCreate(*gorm.DB) error { ensureID(&c.ID); return nil }

// DisplayName is the company name for businesses and "first last" otherwise.
func (c *Customer) DisplayName() string {
	if c.CustomerType == CustomerBusiness && c.CompanyName != "" {
		return c.CompanyName
	}
	if c.LastName == "" {
		return c.FirstName
	}
	return c.FirstName + " " + c.LastName
}

type Product struct {
	ID            uuid.UUID       `gorm:"type:uuid;primaryKey"`
	ProductNumber string          `gorm:"index;not null"`
	Name          string          `gorm:"not null"`
	CategoryID    *uuid.UUID      `gorm:"type:uuid;index"`
	SupplierID    *uuid.UUID      `gorm:"type:uuid;index"`
	UnitPrice     decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Cost          decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Discontinued  bool            `gorm:"not null;default:false"`
	CreatedAt     time.Time
	UpdatedAt     time.Time

	Category *Category `gorm:"foreignKey:CategoryID"`
	Supplier *Supplier `gorm:"foreignKey:SupplierID"`
}

func (p *Product) BeforeCreate(*gorm.DB) error { ensureID(&p.ID); return nil }

type SalesRep struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey"`
	EmployeeNumber string    `gorm:"index;not null"`
	FirstName      string    `gorm:"not null"`
	LastName       string    `gorm:"not null"`
	Email          string
	TerritoryID    *uuid.UUID       `gorm:"type:uuid"`
	CommissionRate *decimal.Decimal `gorm:"type:decimal(5,4)"`
	HireDate       *time.Time       `gorm:"type:date"`
	Status         string           `gorm:"not null;default:'ACTIVE'"`
	CreatedAt      time.Time
	UpdatedAt      time.Time

	Territory *Territory `gorm:"foreignKey:TerritoryID"`
}

func (r *SalesRep) BeforeCreate(*gorm.DB) error { ensureID(&r.ID); return nil }

func (r *SalesRep) FullName() string { return r.FirstName + " " + r.LastName }

// Payroll is created upstream per employee and pay period. Only the
// commission-derived columns are written here.
type Payroll struct {
	ID               uuid.UUID       `gorm:"type:uuid;primaryKey"`
	EmployeeID       uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:ux_payroll_period"`
	PayPeriodStart   time.Time       `gorm:"type:date;not null;uniqueIndex:ux_payroll_period"`
	PayPeriodEnd     time.Time       `gorm:"type:date;not null;uniqueIndex:ux_payroll_period"`
	BaseSalary       decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	CommissionAmount decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	Deductions       decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	GrossPay         decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	NetPay           decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

func (p *Payroll) BeforeCreate(*gorm.DB) error { ensureID(&p.ID); return nil }

func (Payroll) TableName() string { return "payroll" }
