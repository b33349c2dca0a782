// Package testutil provides a throwaway SQLite database with the full schema
// and a small reference-data fixture for service tests.
package testutil

import (
	"path/filepath"
	"testing"
	"time"

	"retailworks/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDB opens a file-backed SQLite database in t.TempDir() and migrates every model.
// Transactions begin IMMEDIATE so concurrent writers queue on the busy timeout.
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := filepath.Join(t.TempDir(), "retailworks.db") + "?_journal_mode=WAL&_busy_timeout=5000&_txlock=immediate"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError:                           true,
		DisableForeignKeyConstraintWhenMigrating: true,
		Logger:                                   logger.Default.LogMode(logger.Silent),
		NowFunc:                                  func() time.Time { return time.Now().UTC() },
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(model.All()...))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

// Fixture is the reference data most tests start from.
type Fixture struct {
	Category  model.Category
	Supplier  model.Supplier
	Territory model.Territory
	Customer  model.Customer
	Rep       model.SalesRep
	Products  []model.Product
}

func Dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

// Seed inserts one category, supplier, territory, customer, a sales rep with a
// 5% commission rate and two products priced 10.00 and 25.00.
func Seed(t *testing.T, db *gorm.DB) *Fixture {
	t.Helper()
	f := &Fixture{
		Category:  model.Category{Name: "Outdoor"},
		Supplier:  model.Supplier{Name: "Acme Supply", Country: "US"},
		Territory: model.Territory{Name: "Northwest", Region: "West", Country: "US"},
	}
	require.NoError(t, db.Create(&f.Category).Error)
	require.NoError(t, db.Create(&f.Supplier).Error)
	require.NoError(t, db.Create(&f.Territory).Error)

	birth := time.Date(1985, time.March, 14, 0, 0, 0, 0, time.UTC)
	income := Dec("62000")
	f.Customer = model.Customer{
		CustomerNumber:   "C-0001",
		CustomerType:     model.CustomerIndividual,
		FirstName:        "Dana",
		LastName:         "Reyes",
		Email:            "dana.reyes@example.com",
		Phone:            "(503) 555-0101",
		BirthDate:        &birth,
		AnnualIncome:     &income,
		SegmentName:      "Retail",
		City:             "Portland",
		State:            "OR",
		Country:          "US",
		RegistrationDate: time.Date(2020, time.January, 5, 0, 0, 0, 0, time.UTC),
	}
	require.NoError(t, db.Create(&f.Customer).Error)

	rate := Dec("0.05")
	f.Rep = model.SalesRep{
		EmployeeNumber: "E-100",
		FirstName:      "Sam",
		LastName:       "Ortiz",
		Email:          "sam.ortiz@example.com",
		TerritoryID:    &f.Territory.ID,
		CommissionRate: &rate,
	}
	require.NoError(t, db.Create(&f.Rep).Error)

	for i, p := range []struct {
		number, name, price, cost string
	}{
		{"P-100", "Trail Lantern", "10.00", "6.00"},
		{"P-200", "Camp Stove", "25.00", "15.00"},
	} {
		prod := model.Product{
			ProductNumber: p.number,
			Name:          p.name,
			CategoryID:    &f.Category.ID,
			SupplierID:    &f.Supplier.ID,
			UnitPrice:     Dec(p.price),
			Cost:          Dec(p.cost),
		}
		require.NoError(t, db.Create(&prod).Error, "product %d", i)
		f.Products = append(f.Products, prod)
	}
	return f
}

// Stock creates an inventory record with the given on-hand quantity and reorder point.
func Stock(t *testing.T, db *gorm.DB, productID uuid.UUID, location string, onHand, reorderPoint int) *model.InventoryRecord {
	t.Helper()
	rec := &model.InventoryRecord{
		ProductID:         productID,
		LocationCode:      location,
		QuantityOnHand:    onHand,
		QuantityAvailable: onHand,
		ReorderPoint:      reorderPoint,
		ReorderQuantity:   reorderPoint * 2,
	}
	require.NoError(t, db.Create(rec).Error)
	return rec
}

// Payroll creates the payroll row a commission run updates.
func Payroll(t *testing.T, db *gorm.DB, employeeID uuid.UUID, start, end time.Time, base, deductions string) *model.Payroll {
	t.Helper()
	p := &model.Payroll{
		EmployeeID:     employeeID,
		PayPeriodStart: start,
		PayPeriodEnd:   end,
		BaseSalary:     Dec(base),
		Deductions:     Dec(deductions),
	}
	require.NoError(t, db.Create(p).Error)
	return p
}

// Reload reads an inventory record back from the database.
func Reload(t *testing.T, db *gorm.DB, productID uuid.UUID, location string) model.InventoryRecord {
	t.Helper()
	var rec model.InventoryRecord
	require.NoError(t, db.Where("product_id = ? AND location_code = ?", productID, location).First(&rec).Error)
	return rec
}
