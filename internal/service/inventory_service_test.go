package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"retailworks/internal/apierror"
	"retailworks/internal/dto"
	"retailworks/internal/model"
	"retailworks/internal/testutil"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyTransaction_ReceiptCreatesRecordAtNewLocation(t *testing.T) {
	e := newTestEnv(t)
	p0 := e.fx.Products[0].ID

	resp, err := e.inventory.ApplyTransaction(context.Background(), dto.InventoryTransactionRequest{
		ProductID:       p0.String(),
		LocationCode:    "EAST",
		Quantity:        12,
		TransactionType: model.MovementReceipt,
		Note:            "PO-7781",
	})
	require.NoError(t, err)
	assert.Equal(t, 12, resp.QuantityOnHand)
	assert.Equal(t, 12, resp.QuantityAvailable)
	assert.Equal(t, 5, resp.ReorderPoint, "new records take the default reorder point")
	assert.False(t, resp.NeedsReorder)

	moves, err := e.inventory.ListMovements(context.Background(), p0, 10)
	require.NoError(t, err)
	require.Len(t, moves, 1)
	assert.Equal(t, model.MovementReceipt, moves[0].Kind)
	assert.Equal(t, 12, moves[0].Quantity)
	assert.Equal(t, 0, moves[0].OnHandBefore)
	assert.Equal(t, 12, moves[0].OnHandAfter)
	assert.Equal(t, "PO-7781", moves[0].Note)
}

func TestApplyTransaction_AdjustmentSetsAbsoluteCount(t *testing.T) {
	e := newTestEnv(t)
	p0 := e.fx.Products[0].ID
	testutil.Stock(t, e.db, p0, "MAIN", 10, 2)
	_, err := e.inventory.Allocate(context.Background(), p0, "MAIN", 4)
	require.NoError(t, err)

	t.Run("below allocated is rejected", func(t *testing.T) {
		_, err := e.inventory.ApplyTransaction(context.Background(), dto.InventoryTransactionRequest{
			ProductID: p0.String(), LocationCode: "MAIN", Quantity: 3, TransactionType: model.MovementAdjustment,
		})
		assert.True(t, errors.Is(err, apierror.ErrValidation))
		assert.Equal(t, 10, testutil.Reload(t, e.db, p0, "MAIN").QuantityOnHand)
	})

	t.Run("recount", func(t *testing.T) {
		resp, err := e.inventory.ApplyTransaction(context.Background(), dto.InventoryTransactionRequest{
			ProductID: p0.String(), LocationCode: "MAIN", Quantity: 6, TransactionType: model.MovementAdjustment,
		})
		require.NoError(t, err)
		assert.Equal(t, 6, resp.QuantityOnHand)
		assert.Equal(t, 4, resp.QuantityAllocated)
		assert.Equal(t, 2, resp.QuantityAvailable)
		assert.NotNil(t, resp.LastCountedAt)

		moves, err := e.inventory.ListMovements(context.Background(), p0, 10)
		require.NoError(t, err)
		var adj *dto.InventoryMovementResponse
		for i := range moves {
			if moves[i].Kind == model.MovementAdjustment {
				adj = &moves[i]
			}
		}
		require.NotNil(t, adj)
		assert.Equal(t, -4, adj.Quantity)
	})
}

func TestApplyTransaction_Validation(t *testing.T) {
	e := newTestEnv(t)
	p0 := e.fx.Products[0].ID.String()

	cases := []dto.InventoryTransactionRequest{
		{ProductID: "not-a-uuid", LocationCode: "MAIN", Quantity: 1, TransactionType: model.MovementReceipt},
		{ProductID: p0, LocationCode: "", Quantity: 1, TransactionType: model.MovementReceipt},
		{ProductID: p0, LocationCode: "MAIN", Quantity: 0, TransactionType: model.MovementReturn},
		{ProductID: p0, LocationCode: "MAIN", Quantity: 1, TransactionType: model.MovementShipment},
	}
	for _, req := range cases {
		_, err := e.inventory.ApplyTransaction(context.Background(), req)
		assert.True(t, errors.Is(err, apierror.ErrValidation), "%+v", req)
	}

	_, err := e.inventory.ApplyTransaction(context.Background(), dto.InventoryTransactionRequest{
		ProductID: p0, LocationCode: "MAIN", Quantity: 2, TransactionType: model.MovementReturn,
	})
	assert.True(t, errors.Is(err, apierror.ErrReferenceNotFound), "returns need an existing record")
}

func TestReleaseCannotExceedAllocation(t *testing.T) {
	e := newTestEnv(t)
	p0 := e.fx.Products[0].ID
	testutil.Stock(t, e.db, p0, "MAIN", 10, 0)

	_, err := e.inventory.Allocate(context.Background(), p0, "MAIN", 2)
	require.NoError(t, err)
	_, err = e.inventory.Release(context.Background(), p0, "MAIN", 3)
	assert.True(t, errors.Is(err, apierror.ErrValidation))

	rec, err := e.inventory.Release(context.Background(), p0, "MAIN", 2)
	require.NoError(t, err)
	assert.Zero(t, rec.QuantityAllocated)
	assert.Equal(t, int64(2), rec.Version)
}

func TestAllocate_NeverOversells(t *testing.T) {
	e := newTestEnv(t)
	p0 := e.fx.Products[0].ID
	testutil.Stock(t, e.db, p0, "MAIN", 5, 0)

	var wg sync.WaitGroup
	var mu sync.Mutex
	succeeded := 0
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := e.inventory.Allocate(context.Background(), p0, "MAIN", 1); err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	rec := testutil.Reload(t, e.db, p0, "MAIN")
	assert.LessOrEqual(t, succeeded, 5)
	assert.Equal(t, succeeded, rec.QuantityAllocated)
	assert.GreaterOrEqual(t, rec.QuantityAvailable, 0)
	assert.Equal(t, rec.QuantityOnHand-rec.QuantityAllocated, rec.QuantityAvailable)
}

func TestGetRecordsAndAlerts(t *testing.T) {
	e := newTestEnv(t)
	p0, p1 := e.fx.Products[0].ID, e.fx.Products[1].ID
	testutil.Stock(t, e.db, p0, "MAIN", 2, 5)
	testutil.Stock(t, e.db, p0, "EAST", 20, 5)
	testutil.Stock(t, e.db, p1, "MAIN", 30, 5)

	recs, err := e.inventory.GetRecords(context.Background(), p0)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, "EAST", recs[0].LocationCode)

	_, err = e.inventory.GetRecords(context.Background(), uuid.New())
	assert.True(t, errors.Is(err, apierror.ErrReferenceNotFound))

	alerts, err := e.inventory.ListReorderAlerts(context.Background())
	require.NoError(t, err)
	require.Len(t, alerts, 1)
	assert.Equal(t, p0.String(), alerts[0].ProductID)
	assert.Equal(t, "MAIN", alerts[0].LocationCode)
	assert.True(t, alerts[0].NeedsReorder)
}
