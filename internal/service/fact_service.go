package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"retailworks/internal/apierror"
	"retailworks/internal/dto"
	"retailworks/internal/metrics"
	"retailworks/internal/model"
	"retailworks/internal/repository"
	"retailworks/internal/scd"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type FactService interface {
	// LoadFacts replaces every fact row whose order date falls in [start, end].
	LoadFacts(ctx context.Context, start, end time.Time, batchID string) (dto.FactLoadResult, error)
	ListSales(ctx context.Context, start, end time.Time) ([]dto.SalesFactResponse, error)
}

type factService struct {
	repo   repository.FactRepository
	orders repository.OrderRepository
}

func NewFactService(repo repository.FactRepository, orders repository.OrderRepository) FactService {
	return &factService{repo: repo, orders: orders}
}

type dayKey struct {
	key  int64
	date int
}

type customerDay struct {
	orders  map[uuid.UUID]bool
	items   int
	revenue decimal.Decimal
	profit  decimal.Decimal
}

type productDay struct {
	orders  map[uuid.UUID]bool
	units   int
	revenue decimal.Decimal
	cost    decimal.Decimal
	profit  decimal.Decimal
}

func (s *factService) LoadFacts(ctx context.Context, start, end time.Time, batchID string) (dto.FactLoadResult, error) {
	result := dto.FactLoadResult{BatchID: batchID}
	start, end, err := checkRange(start, end)
	if err != nil {
		return result, err
	}
	startKey, endKey := model.DateKeyOf(start), model.DateKeyOf(end)
	loadedAt := clock()

	err = runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		orders, err := s.orders.ListForFacts(ctx, tx, start, end.AddDate(0, 0, 1))
		if err != nil {
			return fmt.Errorf("list orders: %w", err)
		}
		if _, err := s.repo.DeleteRangeTx(ctx, tx, startKey, endKey); err != nil {
			return fmt.Errorf("clear fact range: %w", err)
		}

		customers := scd.NewTimeline[model.CustomerDim](tx)
		products := scd.NewTimeline[model.ProductDim](tx)
		reps := scd.NewTimeline[model.SalesRepDim](tx)

		sales := make([]model.SalesFact, 0, len(orders))
		custDays := map[dayKey]*customerDay{}
		prodDays := map[dayKey]*productDay{}

		for _, o := range orders {
			lines, err := resolveOrder(ctx, o, customers, products, reps)
			if apierror.KindOf(err) == apierror.KindReferenceNotFound {
				result.Skipped += len(o.Items)
				log.Warn().Err(err).Str("order_number", o.OrderNumber).Msg("order skipped by fact load, dimension row missing")
				continue
			}
			if err != nil {
				return err
			}

			dateKey := model.DateKeyOf(o.OrderDate)
			var shipKey *int
			if o.ShippedDate != nil {
				k := model.DateKeyOf(*o.ShippedDate)
				shipKey = &k
			}
			for _, l := range lines {
				item := l.item
				cost := l.product.Cost.Mul(decimal.NewFromInt(int64(item.Quantity))).Round(2)
				profit := item.LineTotal.Sub(cost)
				sales = append(sales, model.SalesFact{
					OrderID:      o.ID,
					OrderItemID:  item.ID,
					OrderNumber:  o.OrderNumber,
					OrderStatus:  o.Status,
					OrderDateKey: dateKey,
					ShipDateKey:  shipKey,
					CustomerKey:  l.customerKey,
					ProductKey:   l.product.ProductKey,
					SalesRepKey:  l.salesRepKey,
					Quantity:     item.Quantity,
					UnitPrice:    item.UnitPrice,
					Discount:     item.Discount,
					LineTotal:    item.LineTotal,
					CostAmount:   cost,
					Profit:       profit,
					LoadBatchID:  batchID,
					LoadedAt:     loadedAt,
				})

				ck := dayKey{key: l.customerKey, date: dateKey}
				cd := custDays[ck]
				if cd == nil {
					cd = &customerDay{orders: map[uuid.UUID]bool{}}
					custDays[ck] = cd
				}
				cd.orders[o.ID] = true
				cd.items += item.Quantity
				cd.revenue = cd.revenue.Add(item.LineTotal)
				cd.profit = cd.profit.Add(profit)

				pk := dayKey{key: l.product.ProductKey, date: dateKey}
				pd := prodDays[pk]
				if pd == nil {
					pd = &productDay{orders: map[uuid.UUID]bool{}}
					prodDays[pk] = pd
				}
				pd.orders[o.ID] = true
				pd.units += item.Quantity
				pd.revenue = pd.revenue.Add(item.LineTotal)
				pd.cost = pd.cost.Add(cost)
				pd.profit = pd.profit.Add(profit)
			}
		}

		if err := s.repo.InsertSalesTx(ctx, tx, sales); err != nil {
			return fmt.Errorf("insert sales facts: %w", err)
		}
		ca := customerAnalytics(custDays, batchID, loadedAt)
		if err := s.repo.InsertCustomerAnalyticsTx(ctx, tx, ca); err != nil {
			return fmt.Errorf("insert customer analytics: %w", err)
		}
		pp := productPerformance(prodDays, batchID, loadedAt)
		if err := s.repo.InsertProductPerformanceTx(ctx, tx, pp); err != nil {
			return fmt.Errorf("insert product performance: %w", err)
		}
		result.SalesFacts = len(sales)
		result.CustomerAnalytics = len(ca)
		result.ProductPerformance = len(pp)
		return nil
	})
	if err != nil {
		return dto.FactLoadResult{BatchID: batchID}, err
	}

	metrics.FactsLoaded.WithLabelValues("sales").Add(float64(result.SalesFacts))
	metrics.FactsLoaded.WithLabelValues("customer_analytics").Add(float64(result.CustomerAnalytics))
	metrics.FactsLoaded.WithLabelValues("product_performance").Add(float64(result.ProductPerformance))
	log.Info().Str("batch_id", batchID).Int("sales", result.SalesFacts).
		Int("customer_analytics", result.CustomerAnalytics).Int("product_performance", result.ProductPerformance).
		Int("skipped", result.Skipped).Msg("facts loaded")
	return result, nil
}

type resolvedFactLine struct {
	item        model.OrderItem
	customerKey int64
	salesRepKey int64
	product     *model.ProductDim
}

// resolveOrder looks up the dimension versions valid at the order date for
// every line before any fact is built, so an order loads whole or not at all.
func resolveOrder(
	ctx context.Context,
	o model.Order,
	customers *scd.Timeline[model.CustomerDim, *model.CustomerDim],
	products *scd.Timeline[model.ProductDim, *model.ProductDim],
	reps *scd.Timeline[model.SalesRepDim, *model.SalesRepDim],
) ([]resolvedFactLine, error) {
	custKey, err := customers.KeyAt(ctx, o.CustomerID, o.OrderDate)
	if err != nil {
		return nil, err
	}
	repKey, err := reps.KeyAt(ctx, o.SalesRepID, o.OrderDate)
	if err != nil {
		return nil, err
	}
	lines := make([]resolvedFactLine, 0, len(o.Items))
	for _, item := range o.Items {
		p, err := products.At(ctx, item.ProductID, o.OrderDate)
		if err != nil {
			return nil, err
		}
		lines = append(lines, resolvedFactLine{item: item, customerKey: custKey, salesRepKey: repKey, product: p})
	}
	return lines, nil
}

func sortedDays[V any](m map[dayKey]V) []dayKey {
	keys := make([]dayKey, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].date != keys[j].date {
			return keys[i].date < keys[j].date
		}
		return keys[i].key < keys[j].key
	})
	return keys
}

func customerAnalytics(days map[dayKey]*customerDay, batchID string, loadedAt time.Time) []model.CustomerAnalyticsFact {
	rows := make([]model.CustomerAnalyticsFact, 0, len(days))
	for _, k := range sortedDays(days) {
		d := days[k]
		n := len(d.orders)
		rows = append(rows, model.CustomerAnalyticsFact{
			CustomerKey:    k.key,
			DateKey:        k.date,
			OrderCount:     n,
			ItemsPurchased: d.items,
			Revenue:        d.revenue,
			AvgOrderValue:  d.revenue.Div(decimal.NewFromInt(int64(n))).Round(2),
			Profit:         d.profit,
			LoadBatchID:    batchID,
			LoadedAt:       loadedAt,
		})
	}
	return rows
}

func productPerformance(days map[dayKey]*productDay, batchID string, loadedAt time.Time) []model.ProductPerformanceFact {
	rows := make([]model.ProductPerformanceFact, 0, len(days))
	for _, k := range sortedDays(days) {
		d := days[k]
		rows = append(rows, model.ProductPerformanceFact{
			ProductKey:  k.key,
			DateKey:     k.date,
			OrderCount:  len(d.orders),
			UnitsSold:   d.units,
			Revenue:     d.revenue,
			CostAmount:  d.cost,
			Profit:      d.profit,
			LoadBatchID: batchID,
			LoadedAt:    loadedAt,
		})
	}
	return rows
}

func (s *factService) ListSales(ctx context.Context, start, end time.Time) ([]dto.SalesFactResponse, error) {
	start, end, err := checkRange(start, end)
	if err != nil {
		return nil, err
	}
	rows, err := s.repo.ListSales(ctx, model.DateKeyOf(start), model.DateKeyOf(end))
	if err != nil {
		return nil, fmt.Errorf("list sales facts: %w", err)
	}
	out := make([]dto.SalesFactResponse, 0, len(rows))
	for _, f := range rows {
		out = append(out, dto.SalesFactResponse{
			OrderNumber:  f.OrderNumber,
			OrderItemID:  f.OrderItemID.String(),
			OrderDateKey: f.OrderDateKey,
			ShipDateKey:  f.ShipDateKey,
			CustomerKey:  f.CustomerKey,
			ProductKey:   f.ProductKey,
			SalesRepKey:  f.SalesRepKey,
			Quantity:     f.Quantity,
			LineTotal:    f.LineTotal,
			CostAmount:   f.CostAmount,
			Profit:       f.Profit,
			LoadBatchID:  f.LoadBatchID,
		})
	}
	return out, nil
}
