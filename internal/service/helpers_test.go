package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"retailworks/internal/dto"
	"retailworks/internal/repository"
	"retailworks/internal/testutil"

	"github.com/bwmarrin/snowflake"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// ── Stubs ─────────────────────────────────────────────────────────────────────

type recordingNotifier struct {
	mu      sync.Mutex
	signals []dto.ReorderSignal
}

func (n *recordingNotifier) NotifyReorder(_ context.Context, s dto.ReorderSignal) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.signals = append(n.signals, s)
	return nil
}

func (n *recordingNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.signals)
}

var _ ReorderNotifier = (*recordingNotifier)(nil)

// ── Environment ───────────────────────────────────────────────────────────────

type testEnv struct {
	db        *gorm.DB
	fx        *testutil.Fixture
	refs      repository.ReferenceRepository
	orderRepo repository.OrderRepository
	notifier  *recordingNotifier
	inventory InventoryService
	orders    OrderService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := testutil.NewDB(t)
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	e := &testEnv{
		db:        db,
		fx:        testutil.Seed(t, db),
		refs:      repository.NewReferenceRepository(db),
		orderRepo: repository.NewOrderRepository(db),
		notifier:  &recordingNotifier{},
	}
	e.inventory = NewInventoryService(repository.NewInventoryRepository(db), e.notifier,
		InventorySettings{DefaultReorderPoint: 5, MaxRetries: 3})
	e.orders = NewOrderService(e.orderRepo, e.refs, e.inventory, node, OrderSettings{
		TaxRate:         testutil.Dec("0.08"),
		DefaultLocation: "MAIN",
		MaxRetries:      3,
	})
	return e
}

func (e *testEnv) orderRequest(items ...dto.OrderItemRequest) dto.SubmitOrderRequest {
	return dto.SubmitOrderRequest{
		CustomerID: e.fx.Customer.ID.String(),
		SalesRepID: e.fx.Rep.ID.String(),
		ShipAddress: dto.AddressRequest{
			Line1: "12 Alder St", City: "Portland", State: "OR", PostalCode: "97201", Country: "US",
		},
		Items:   items,
		Freight: testutil.Dec("5.00"),
	}
}

func (e *testEnv) item(product int, qty int, price, discount string) dto.OrderItemRequest {
	return dto.OrderItemRequest{
		ProductID: e.fx.Products[product].ID.String(),
		Quantity:  qty,
		UnitPrice: testutil.Dec(price),
		Discount:  testutil.Dec(discount),
	}
}

func (e *testEnv) advance(t *testing.T, id string, statuses ...string) *dto.OrderResponse {
	t.Helper()
	var resp *dto.OrderResponse
	for _, s := range statuses {
		var err error
		resp, err = e.orders.AdvanceStatus(context.Background(), mustUUID(t, id), dto.AdvanceStatusRequest{Status: s})
		require.NoError(t, err, "advance to %s", s)
	}
	return resp
}

// fixClock pins the service clock for the rest of the test.
func fixClock(t *testing.T, at time.Time) {
	t.Helper()
	prev := clock
	clock = func() time.Time { return at.UTC() }
	t.Cleanup(func() { clock = prev })
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
