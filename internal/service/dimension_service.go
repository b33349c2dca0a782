package service

import (
	"context"
	"fmt"

	"retailworks/internal/dto"
	"retailworks/internal/metrics"
	"retailworks/internal/model"
	"retailworks/internal/repository"
	"retailworks/internal/scd"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

const (
	DimensionCustomer = "customer"
	DimensionProduct  = "product"
	DimensionSalesRep = "sales_rep"
)

type DimensionService interface {
	UpsertCustomer(ctx context.Context, row *model.CustomerDim) (scd.Result, error)
	UpsertProduct(ctx context.Context, row *model.ProductDim) (scd.Result, error)
	UpsertSalesRep(ctx context.Context, row *model.SalesRepDim) (scd.Result, error)
	// SyncAll cleanses every source row and applies it to its dimension.
	SyncAll(ctx context.Context) ([]dto.DimensionSyncResult, error)
}

type dimensionService struct {
	db         *gorm.DB
	refs       repository.ReferenceRepository
	maxRetries int
}

func NewDimensionService(db *gorm.DB, refs repository.ReferenceRepository, maxRetries int) DimensionService {
	return &dimensionService{db: db, refs: refs, maxRetries: maxRetries}
}

func (s *dimensionService) UpsertCustomer(ctx context.Context, row *model.CustomerDim) (scd.Result, error) {
	return upsertDimension(ctx, s, DimensionCustomer, row)
}

func (s *dimensionService) UpsertProduct(ctx context.Context, row *model.ProductDim) (scd.Result, error) {
	return upsertDimension(ctx, s, DimensionProduct, row)
}

func (s *dimensionService) UpsertSalesRep(ctx context.Context, row *model.SalesRepDim) (scd.Result, error) {
	return upsertDimension(ctx, s, DimensionSalesRep, row)
}

// upsertDimension runs one SCD2 change in its own transaction. Each attempt
// works on a fresh copy so a rolled-back insert never leaks a surrogate key.
func upsertDimension[T any, P interface {
	*T
	scd.Row
}](ctx context.Context, s *dimensionService, dimension string, row P) (scd.Result, error) {
	var res scd.Result
	err := retryConflicts(ctx, "scd."+dimension, s.maxRetries, func() error {
		attempt := *row
		return runTx(ctx, s.db, func(tx *gorm.DB) error {
			r, err := scd.Upsert[T, P](ctx, tx, P(&attempt), clock())
			if err != nil {
				return err
			}
			res = r
			*row = attempt
			return nil
		})
	})
	if err != nil {
		return scd.Result{}, err
	}
	metrics.DimensionChanges.WithLabelValues(dimension, string(res.Action)).Inc()
	return res, nil
}

func tally(r *dto.DimensionSyncResult, a scd.Action) {
	switch a {
	case scd.Inserted:
		r.Inserted++
	case scd.Versioned:
		r.Versioned++
	default:
		r.Unchanged++
	}
}

func (s *dimensionService) SyncAll(ctx context.Context) ([]dto.DimensionSyncResult, error) {
	asOf := clock()

	customers, err := s.refs.ListCustomers(ctx)
	if err != nil {
		return nil, fmt.Errorf("list customers: %w", err)
	}
	cust := dto.DimensionSyncResult{Dimension: DimensionCustomer}
	for _, c := range customers {
		cust.Processed++
		row, err := customerDim(c, asOf)
		if err != nil {
			cust.Rejected++
			log.Warn().Err(err).Str("customer_number", c.CustomerNumber).Msg("customer rejected by cleansing")
			continue
		}
		res, err := s.UpsertCustomer(ctx, row)
		if err != nil {
			return nil, fmt.Errorf("customer %s: %w", c.CustomerNumber, err)
		}
		tally(&cust, res.Action)
	}

	products, err := s.refs.ListProducts(ctx)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	prod := dto.DimensionSyncResult{Dimension: DimensionProduct}
	for _, p := range products {
		prod.Processed++
		row, err := productDim(p)
		if err != nil {
			prod.Rejected++
			log.Warn().Err(err).Str("product_number", p.ProductNumber).Msg("product rejected by cleansing")
			continue
		}
		res, err := s.UpsertProduct(ctx, row)
		if err != nil {
			return nil, fmt.Errorf("product %s: %w", p.ProductNumber, err)
		}
		tally(&prod, res.Action)
	}

	reps, err := s.refs.ListSalesReps(ctx)
	if err != nil {
		return nil, fmt.Errorf("list sales reps: %w", err)
	}
	rep := dto.DimensionSyncResult{Dimension: DimensionSalesRep}
	for _, r := range reps {
		rep.Processed++
		res, err := s.UpsertSalesRep(ctx, salesRepDim(r))
		if err != nil {
			return nil, fmt.Errorf("sales rep %s: %w", r.EmployeeNumber, err)
		}
		tally(&rep, res.Action)
	}

	results := []dto.DimensionSyncResult{cust, prod, rep}
	for _, r := range results {
		log.Info().Str("dimension", r.Dimension).Int("processed", r.Processed).Int("inserted", r.Inserted).
			Int("versioned", r.Versioned).Int("unchanged", r.Unchanged).Int("rejected", r.Rejected).
			Msg("dimension synced")
	}
	return results, nil
}
