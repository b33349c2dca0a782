package service

import (
	"context"
	"errors"
	"testing"

	"retailworks/internal/apierror"
	"retailworks/internal/dto"
	"retailworks/internal/model"
	"retailworks/internal/testutil"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustUUID(t *testing.T, s string) uuid.UUID {
	t.Helper()
	id, err := uuid.Parse(s)
	require.NoError(t, err)
	return id
}

func TestLineTotalAndOrderTotals(t *testing.T) {
	assert.Equal(t, "45.00", LineTotal(2, testutil.Dec("25.00"), testutil.Dec("0.10")).StringFixed(2))
	assert.Equal(t, "3.33", LineTotal(1, testutil.Dec("9.99"), testutil.Dec("0.6667")).StringFixed(2))

	tax, total := OrderTotals(testutil.Dec("75.00"), testutil.Dec("0.08"), testutil.Dec("5.00"))
	assert.Equal(t, "6.00", tax.StringFixed(2))
	assert.Equal(t, "86.00", total.StringFixed(2))
}

func TestSubmitOrder_TwoLinesWithDiscountNoFreight(t *testing.T) {
	e := newTestEnv(t)
	testutil.Stock(t, e.db, e.fx.Products[0].ID, "MAIN", 10, 2)
	testutil.Stock(t, e.db, e.fx.Products[1].ID, "MAIN", 10, 2)

	req := e.orderRequest(e.item(0, 3, "10.00", "0"), e.item(1, 2, "5.00", "0.10"))
	req.Freight = decimal.Zero
	resp, err := e.orders.SubmitOrder(context.Background(), req)
	require.NoError(t, err)

	require.Len(t, resp.Items, 2)
	assert.Equal(t, "30.00", resp.Items[0].LineTotal.StringFixed(2))
	assert.Equal(t, "9.00", resp.Items[1].LineTotal.StringFixed(2))
	assert.Equal(t, "39.00", resp.Subtotal.StringFixed(2))
	assert.Equal(t, "3.12", resp.TaxAmount.StringFixed(2))
	assert.Equal(t, "42.12", resp.TotalAmount.StringFixed(2))
}

func TestSubmitOrder_AllocatesInventoryAndComputesTotals(t *testing.T) {
	e := newTestEnv(t)
	p0, p1 := e.fx.Products[0].ID, e.fx.Products[1].ID
	testutil.Stock(t, e.db, p0, "MAIN", 10, 2)
	testutil.Stock(t, e.db, p1, "MAIN", 4, 1)

	resp, err := e.orders.SubmitOrder(context.Background(),
		e.orderRequest(e.item(0, 3, "10.00", "0"), e.item(1, 2, "25.00", "0.10")))
	require.NoError(t, err)

	assert.Equal(t, model.OrderPending, resp.Status)
	assert.Regexp(t, `^SO-\d+$`, resp.OrderNumber)
	assert.Equal(t, "75.00", resp.Subtotal.StringFixed(2))
	assert.Equal(t, "6.00", resp.TaxAmount.StringFixed(2))
	assert.Equal(t, "86.00", resp.TotalAmount.StringFixed(2))
	require.Len(t, resp.Items, 2)
	assert.Equal(t, "MAIN", resp.Items[0].LocationCode)

	r0 := testutil.Reload(t, e.db, p0, "MAIN")
	assert.Equal(t, 10, r0.QuantityOnHand)
	assert.Equal(t, 3, r0.QuantityAllocated)
	assert.Equal(t, 7, r0.QuantityAvailable)
	r1 := testutil.Reload(t, e.db, p1, "MAIN")
	assert.Equal(t, 2, r1.QuantityAvailable)

	var moves []model.InventoryMovement
	require.NoError(t, e.db.Where("kind = ?", model.MovementAllocation).Find(&moves).Error)
	require.Len(t, moves, 2)
	require.NotNil(t, moves[0].ReferenceID)
	assert.Equal(t, resp.ID, moves[0].ReferenceID.String())

	stored, err := e.orders.GetOrder(context.Background(), mustUUID(t, resp.ID))
	require.NoError(t, err)
	assert.Equal(t, "86.00", stored.TotalAmount.StringFixed(2))
	assert.Len(t, stored.Items, 2)
}

func TestSubmitOrder_InsufficientInventoryRollsBackEverything(t *testing.T) {
	e := newTestEnv(t)
	p0, p1 := e.fx.Products[0].ID, e.fx.Products[1].ID
	testutil.Stock(t, e.db, p0, "MAIN", 10, 0)
	testutil.Stock(t, e.db, p1, "MAIN", 1, 0)

	_, err := e.orders.SubmitOrder(context.Background(),
		e.orderRequest(e.item(0, 3, "10.00", "0"), e.item(1, 2, "25.00", "0")))
	require.Error(t, err)
	assert.True(t, errors.Is(err, apierror.ErrInsufficientInventory))

	var ae *apierror.Error
	require.True(t, errors.As(err, &ae))
	assert.Equal(t, "items[1].quantity", ae.Field)

	var orders int64
	require.NoError(t, e.db.Model(&model.Order{}).Count(&orders).Error)
	assert.Zero(t, orders)
	var items int64
	require.NoError(t, e.db.Model(&model.OrderItem{}).Count(&items).Error)
	assert.Zero(t, items)

	assert.Zero(t, testutil.Reload(t, e.db, p0, "MAIN").QuantityAllocated, "first line's allocation must roll back")
}

func TestSubmitOrder_RejectsBadReferences(t *testing.T) {
	e := newTestEnv(t)
	testutil.Stock(t, e.db, e.fx.Products[0].ID, "MAIN", 10, 0)

	t.Run("unknown customer", func(t *testing.T) {
		req := e.orderRequest(e.item(0, 1, "10.00", "0"))
		req.CustomerID = uuid.NewString()
		_, err := e.orders.SubmitOrder(context.Background(), req)
		assert.True(t, errors.Is(err, apierror.ErrReferenceNotFound))
	})

	t.Run("unknown product", func(t *testing.T) {
		req := e.orderRequest(dto.OrderItemRequest{ProductID: uuid.NewString(), Quantity: 1, UnitPrice: testutil.Dec("1")})
		_, err := e.orders.SubmitOrder(context.Background(), req)
		assert.True(t, errors.Is(err, apierror.ErrReferenceNotFound))
	})

	t.Run("discount out of range", func(t *testing.T) {
		_, err := e.orders.SubmitOrder(context.Background(), e.orderRequest(e.item(0, 1, "10.00", "1")))
		assert.True(t, errors.Is(err, apierror.ErrValidation))
	})

	t.Run("no stock record at location", func(t *testing.T) {
		item := e.item(0, 1, "10.00", "0")
		item.LocationCode = "EAST"
		_, err := e.orders.SubmitOrder(context.Background(), e.orderRequest(item))
		assert.True(t, errors.Is(err, apierror.ErrReferenceNotFound))
	})

	t.Run("discontinued product", func(t *testing.T) {
		require.NoError(t, e.db.Model(&model.Product{}).Where("id = ?", e.fx.Products[1].ID).
			Update("discontinued", true).Error)
		_, err := e.orders.SubmitOrder(context.Background(), e.orderRequest(e.item(1, 1, "25.00", "0")))
		assert.True(t, errors.Is(err, apierror.ErrValidation))
	})

	t.Run("inactive customer", func(t *testing.T) {
		require.NoError(t, e.db.Model(&model.Customer{}).Where("id = ?", e.fx.Customer.ID).
			Update("status", model.StatusInactive).Error)
		_, err := e.orders.SubmitOrder(context.Background(), e.orderRequest(e.item(0, 1, "10.00", "0")))
		assert.True(t, errors.Is(err, apierror.ErrValidation))
	})
}

func TestAdvanceStatus_ShipConsumesAllocation(t *testing.T) {
	e := newTestEnv(t)
	p0 := e.fx.Products[0].ID
	testutil.Stock(t, e.db, p0, "MAIN", 5, 3)

	resp, err := e.orders.SubmitOrder(context.Background(), e.orderRequest(e.item(0, 2, "10.00", "0")))
	require.NoError(t, err)
	assert.Zero(t, e.notifier.count(), "allocation does not change on-hand")

	shipped := e.advance(t, resp.ID, model.OrderProcessing, model.OrderShipped)
	assert.Equal(t, model.OrderShipped, shipped.Status)
	assert.NotNil(t, shipped.ShippedDate)

	rec := testutil.Reload(t, e.db, p0, "MAIN")
	assert.Equal(t, 3, rec.QuantityOnHand)
	assert.Zero(t, rec.QuantityAllocated)
	assert.Equal(t, 3, rec.QuantityAvailable)

	require.Equal(t, 1, e.notifier.count(), "on-hand reached the reorder point")
	assert.Equal(t, p0.String(), e.notifier.signals[0].ProductID)
	assert.Equal(t, 3, e.notifier.signals[0].QuantityOnHand)
}

func TestAdvanceStatus_CancelReleasesAllocation(t *testing.T) {
	e := newTestEnv(t)
	p0 := e.fx.Products[0].ID
	testutil.Stock(t, e.db, p0, "MAIN", 5, 0)

	resp, err := e.orders.SubmitOrder(context.Background(), e.orderRequest(e.item(0, 4, "10.00", "0")))
	require.NoError(t, err)

	cancelled, err := e.orders.AdvanceStatus(context.Background(), mustUUID(t, resp.ID),
		dto.AdvanceStatusRequest{Status: model.OrderCancelled, Reason: "customer request"})
	require.NoError(t, err)
	assert.Equal(t, model.OrderCancelled, cancelled.Status)
	require.NotNil(t, cancelled.CancelReason)
	assert.Equal(t, "customer request", *cancelled.CancelReason)

	rec := testutil.Reload(t, e.db, p0, "MAIN")
	assert.Equal(t, 5, rec.QuantityOnHand)
	assert.Zero(t, rec.QuantityAllocated)
	assert.Equal(t, 5, rec.QuantityAvailable)
}

func TestAdvanceStatus_RejectsIllegalTransitions(t *testing.T) {
	e := newTestEnv(t)
	testutil.Stock(t, e.db, e.fx.Products[0].ID, "MAIN", 10, 0)
	resp, err := e.orders.SubmitOrder(context.Background(), e.orderRequest(e.item(0, 1, "10.00", "0")))
	require.NoError(t, err)
	id := mustUUID(t, resp.ID)

	_, err = e.orders.AdvanceStatus(context.Background(), id, dto.AdvanceStatusRequest{Status: model.OrderShipped})
	assert.True(t, errors.Is(err, apierror.ErrInvalidStateTransition), "PENDING cannot ship directly")

	e.advance(t, resp.ID, model.OrderProcessing, model.OrderShipped)
	_, err = e.orders.AdvanceStatus(context.Background(), id, dto.AdvanceStatusRequest{Status: model.OrderCancelled})
	assert.True(t, errors.Is(err, apierror.ErrInvalidStateTransition), "SHIPPED is terminal")

	_, err = e.orders.AdvanceStatus(context.Background(), uuid.New(), dto.AdvanceStatusRequest{Status: model.OrderProcessing})
	assert.True(t, errors.Is(err, apierror.ErrReferenceNotFound))
}

func TestListOrders_FiltersByStatus(t *testing.T) {
	e := newTestEnv(t)
	testutil.Stock(t, e.db, e.fx.Products[0].ID, "MAIN", 10, 0)
	for i := 0; i < 3; i++ {
		_, err := e.orders.SubmitOrder(context.Background(), e.orderRequest(e.item(0, 1, "10.00", "0")))
		require.NoError(t, err)
	}
	first, err := e.orders.ListOrders(context.Background(), dto.OrderFilter{Page: 1, Limit: 10})
	require.NoError(t, err)
	require.Len(t, first.Data, 3)
	e.advance(t, first.Data[0].ID, model.OrderProcessing)

	pending, err := e.orders.ListOrders(context.Background(), dto.OrderFilter{Status: model.OrderPending, Page: 1, Limit: 10})
	require.NoError(t, err)
	assert.EqualValues(t, 2, pending.Total)
	for _, o := range pending.Data {
		assert.Equal(t, model.OrderPending, o.Status)
	}
}
