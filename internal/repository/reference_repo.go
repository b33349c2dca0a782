package repository

import (
	"context"

	"retailworks/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ReferenceRepository reads master data owned by upstream systems.
type ReferenceRepository interface {
	FindCustomer(ctx context.Context, id uuid.UUID) (*model.Customer, error)
	FindSalesRep(ctx context.Context, id uuid.UUID) (*model.SalesRep, error)
	FindProducts(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*model.Product, error)
	ListCustomers(ctx context.Context) ([]model.Customer, error)
	// ListProducts preloads category and supplier.
	ListProducts(ctx context.Context) ([]model.Product, error)
	// ListSalesReps preloads the territory.
	ListSalesReps(ctx context.Context) ([]model.SalesRep, error)
}

type referenceRepo struct{ db *gorm.DB }

func NewReferenceRepository(db *gorm.DB) ReferenceRepository { return &referenceRepo{db: db} }

func (r *referenceRepo) FindCustomer(ctx context.Context, id uuid.UUID) (*model.Customer, error) {
	var c model.Customer
	err := r.db.WithContext(ctx).First(&c, "id = ?", id).Error
	return &c, err
}

func (r *referenceRepo) FindSalesRep(ctx context.Context, id uuid.UUID) (*model.SalesRep, error) {
	var s model.SalesRep
	err := r.db.WithContext(ctx).First(&s, "id = ?", id).Error
	return &s, err
}

func (r *referenceRepo) FindProducts(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*model.Product, error) {
	var products []model.Product
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&products).Error; err != nil {
		return nil, err
	}
	out := make(map[uuid.UUID]*model.Product, len(products))
	for i := range products {
		out[products[i].ID] = &products[i]
	}
	return out, nil
}

func (r *referenceRepo) ListCustomers(ctx context.Context) ([]model.Customer, error) {
	var customers []model.Customer
	err := r.db.WithContext(ctx).Order("customer_number ASC").Find(&customers).Error
	return customers, err
}

func (r *referenceRepo) ListProducts(ctx context.Context) ([]model.Product, error) {
	var products []model.Product
	err := r.db.WithContext(ctx).Preload("Category").Preload("Supplier").
		Order("product_number ASC").Find(&products).Error
	return products, err
}

func (r *referenceRepo) ListSalesReps(ctx context.Context) ([]model.SalesRep, error) {
	var reps []model.SalesRep
	err := r.db.WithContext(ctx).Preload("Territory").Order("employee_number ASC").Find(&reps).Error
	return reps, err
}
