package service

import (
	"context"
	"testing"
	"time"

	"retailworks/internal/model"
	"retailworks/internal/repository"
	"retailworks/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFactEnv(t *testing.T) (*testEnv, FactService) {
	t.Helper()
	e := newTestEnv(t)
	testutil.Stock(t, e.db, e.fx.Products[0].ID, "MAIN", 50, 0)
	testutil.Stock(t, e.db, e.fx.Products[1].ID, "MAIN", 50, 0)

	fixClock(t, day(2026, time.March, 1))
	_, err := NewDimensionService(e.db, e.refs, 3).SyncAll(context.Background())
	require.NoError(t, err)
	fixClock(t, time.Date(2026, time.March, 10, 12, 0, 0, 0, time.UTC))
	return e, NewFactService(repository.NewFactRepository(e.db), e.orderRepo)
}

func TestLoadFacts_BuildsAllFactTables(t *testing.T) {
	e, svc := newFactEnv(t)
	ctx := context.Background()

	a, err := e.orders.SubmitOrder(ctx, e.orderRequest(e.item(0, 1, "10.00", "0")))
	require.NoError(t, err)
	b, err := e.orders.SubmitOrder(ctx, e.orderRequest(e.item(1, 2, "25.00", "0.10")))
	require.NoError(t, err)
	c, err := e.orders.SubmitOrder(ctx, e.orderRequest(e.item(0, 3, "10.00", "0")))
	require.NoError(t, err)
	e.advance(t, a.ID, model.OrderProcessing, model.OrderShipped)
	e.advance(t, c.ID, model.OrderCancelled)

	start, end := day(2026, time.March, 1), day(2026, time.March, 31)
	res, err := svc.LoadFacts(ctx, start, end, "B-1")
	require.NoError(t, err)
	assert.Equal(t, 2, res.SalesFacts, "cancelled orders are excluded")
	assert.Equal(t, 1, res.CustomerAnalytics)
	assert.Equal(t, 2, res.ProductPerformance)
	assert.Zero(t, res.Skipped)
	assert.Equal(t, 5, res.Total())

	var facts []model.SalesFact
	require.NoError(t, e.db.Order("order_number ASC").Find(&facts).Error)
	require.Len(t, facts, 2)
	byOrder := map[string]model.SalesFact{}
	for _, f := range facts {
		byOrder[f.OrderNumber] = f
	}
	fa, fb := byOrder[a.OrderNumber], byOrder[b.OrderNumber]
	assert.Equal(t, "6.00", fa.CostAmount.StringFixed(2))
	assert.Equal(t, "4.00", fa.Profit.StringFixed(2))
	require.NotNil(t, fa.ShipDateKey)
	assert.Equal(t, 20260310, *fa.ShipDateKey)
	assert.Equal(t, "45.00", fb.LineTotal.StringFixed(2))
	assert.Equal(t, "30.00", fb.CostAmount.StringFixed(2))
	assert.Equal(t, "15.00", fb.Profit.StringFixed(2))
	assert.Nil(t, fb.ShipDateKey)
	assert.Equal(t, 20260310, fb.OrderDateKey)

	var ca model.CustomerAnalyticsFact
	require.NoError(t, e.db.First(&ca).Error)
	assert.Equal(t, 2, ca.OrderCount)
	assert.Equal(t, 3, ca.ItemsPurchased)
	assert.Equal(t, "55.00", ca.Revenue.StringFixed(2))
	assert.Equal(t, "27.50", ca.AvgOrderValue.StringFixed(2))
	assert.Equal(t, "19.00", ca.Profit.StringFixed(2))

	rows, err := svc.ListSales(ctx, start, end)
	require.NoError(t, err)
	assert.Len(t, rows, 2)
	for _, r := range rows {
		assert.Equal(t, "B-1", r.LoadBatchID)
	}
}

func TestLoadFacts_RerunReplacesRows(t *testing.T) {
	e, svc := newFactEnv(t)
	ctx := context.Background()
	_, err := e.orders.SubmitOrder(ctx, e.orderRequest(e.item(0, 1, "10.00", "0"), e.item(1, 1, "25.00", "0")))
	require.NoError(t, err)

	start, end := day(2026, time.March, 1), day(2026, time.March, 31)
	_, err = svc.LoadFacts(ctx, start, end, "B-1")
	require.NoError(t, err)
	res, err := svc.LoadFacts(ctx, start, end, "B-2")
	require.NoError(t, err)
	assert.Equal(t, 2, res.SalesFacts)

	var total, stale int64
	require.NoError(t, e.db.Model(&model.SalesFact{}).Count(&total).Error)
	require.NoError(t, e.db.Model(&model.SalesFact{}).Where("load_batch_id = ?", "B-1").Count(&stale).Error)
	assert.EqualValues(t, 2, total)
	assert.Zero(t, stale)

	var perf int64
	require.NoError(t, e.db.Model(&model.ProductPerformanceFact{}).Count(&perf).Error)
	assert.EqualValues(t, 2, perf)

	outside, err := svc.ListSales(ctx, day(2026, time.April, 1), day(2026, time.April, 30))
	require.NoError(t, err)
	assert.Empty(t, outside)
}

func TestLoadFacts_SkipsOrdersWithoutDimensionRows(t *testing.T) {
	e, svc := newFactEnv(t)
	ctx := context.Background()

	late := model.Customer{
		CustomerNumber: "C-0002", FirstName: "Ari", LastName: "Moss", Email: "ari@example.com",
		RegistrationDate: day(2026, time.March, 5),
	}
	require.NoError(t, e.db.Create(&late).Error)
	req := e.orderRequest(e.item(0, 1, "10.00", "0"), e.item(1, 1, "25.00", "0"))
	req.CustomerID = late.ID.String()
	_, err := e.orders.SubmitOrder(ctx, req)
	require.NoError(t, err)
	_, err = e.orders.SubmitOrder(ctx, e.orderRequest(e.item(0, 2, "10.00", "0")))
	require.NoError(t, err)

	res, err := svc.LoadFacts(ctx, day(2026, time.March, 1), day(2026, time.March, 31), "B-1")
	require.NoError(t, err)
	assert.Equal(t, 1, res.SalesFacts)
	assert.Equal(t, 2, res.Skipped, "both lines of the unresolvable order are skipped")
}

func TestLoadFacts_RejectsReversedRange(t *testing.T) {
	_, svc := newFactEnv(t)
	_, err := svc.LoadFacts(context.Background(), day(2026, time.March, 2), day(2026, time.March, 1), "B-1")
	assert.Error(t, err)
}
