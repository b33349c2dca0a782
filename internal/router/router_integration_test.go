//go:build integration

package router

// Runs the HTTP surface against real PostgreSQL and Redis via testcontainers.
// Run with: go test -tags integration ./internal/router/...

import (
	"context"
	"net/http"
	"sync"
	"testing"
	"time"

	"retailworks/internal/app"
	"retailworks/internal/config"
	"retailworks/internal/dto"
	"retailworks/internal/infra"
	"retailworks/internal/middleware"
	"retailworks/internal/model"
	"retailworks/internal/testutil"
	"retailworks/internal/worker"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcPostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	tcRedis "github.com/testcontainers/testcontainers-go/modules/redis"
	"gorm.io/gorm"
)

type stack struct {
	*harness
	db  *gorm.DB
	rdb *redis.Client
}

func newStack(t *testing.T) *stack {
	t.Helper()
	ctx := context.Background()

	pgC, err := tcPostgres.RunContainer(ctx,
		testcontainers.WithImage("postgres:15-alpine"),
		tcPostgres.WithDatabase("retailworks_test"),
		tcPostgres.WithUsername("retailworks"),
		tcPostgres.WithPassword("retailworks"),
		testcontainers.WithWaitStrategy(tcPostgres.BasicWaitStrategies()...),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = pgC.Terminate(ctx) })
	pgURL, err := pgC.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	rdC, err := tcRedis.RunContainer(ctx, testcontainers.WithImage("redis:7-alpine"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = rdC.Terminate(ctx) })
	rdURL, err := rdC.ConnectionString(ctx)
	require.NoError(t, err)

	db, err := infra.NewDatabase(pgURL)
	require.NoError(t, err)
	require.NoError(t, infra.RunMigrations(db))
	rdb, err := infra.NewRedis(rdURL)
	require.NoError(t, err)
	t.Cleanup(func() { _ = rdb.Close() })

	fx := testutil.Seed(t, db)
	testutil.Stock(t, db, fx.Products[0].ID, "MAIN", 20, 18)

	cfg := &config.Config{
		Env:                    "test",
		JWTSecret:              testSecret,
		RateLimit:              1000,
		TaxRate:                0.08,
		FiscalYearStartMonth:   7,
		DefaultLocationCode:    "MAIN",
		DefaultReorderPoint:    5,
		StatementStoragePath:   t.TempDir(),
		IDNode:                 1,
		ConflictMaxRetries:     5,
		ReorderAlertTTLMinutes: 60,
	}
	c, err := app.New(cfg, db, rdb)
	require.NoError(t, err)
	return &stack{harness: &harness{engine: New(c), fx: fx}, db: db, rdb: rdb}
}

func TestIntegration_ConcurrentOrdersNeverOversell(t *testing.T) {
	s := newStack(t)
	op := token(t, middleware.RoleOperator)

	const attempts = 10
	codes := make([]int, attempts)
	ids := make([]string, attempts)
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			w := s.do(t, http.MethodPost, "/v1/orders", op, s.order(3))
			codes[i] = w.Code
			if w.Code == http.StatusCreated {
				ids[i] = decode[dto.OrderResponse](t, w).ID
			}
		}(i)
	}
	wg.Wait()

	var created, rejected int
	var placed []string
	for i, code := range codes {
		switch code {
		case http.StatusCreated:
			created++
			placed = append(placed, ids[i])
		case http.StatusConflict:
			rejected++
		default:
			t.Fatalf("unexpected status %d", code)
		}
	}
	assert.Equal(t, 6, created, "20 units cover six orders of 3")
	assert.Equal(t, 4, rejected)

	rec := testutil.Reload(t, s.db, s.fx.Products[0].ID, "MAIN")
	assert.Equal(t, 20, rec.QuantityOnHand)
	assert.Equal(t, 18, rec.QuantityAllocated)
	assert.Equal(t, 2, rec.QuantityAvailable)

	// Shipping drops on-hand below the reorder point; the second alert is deduplicated.
	for _, id := range placed[:2] {
		w := s.do(t, http.MethodPost, "/v1/orders/"+id+"/status", op, dto.AdvanceStatusRequest{Status: model.OrderProcessing})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		w = s.do(t, http.MethodPost, "/v1/orders/"+id+"/status", op, dto.AdvanceStatusRequest{Status: model.OrderShipped})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	}
	rec = testutil.Reload(t, s.db, s.fx.Products[0].ID, "MAIN")
	assert.Equal(t, 14, rec.QuantityOnHand)
	assert.Equal(t, 12, rec.QuantityAllocated)

	queued, err := s.rdb.LLen(context.Background(), worker.QueueReorder).Result()
	require.NoError(t, err)
	assert.EqualValues(t, 1, queued)
}

func TestIntegration_CommissionAndNightlyLoad(t *testing.T) {
	s := newStack(t)
	op := token(t, middleware.RoleOperator)
	analyst := token(t, middleware.RoleAnalyst)

	today := time.Now().UTC()
	start := time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, -1)
	testutil.Payroll(t, s.db, s.fx.Rep.ID, start, end, "3000.00", "400.00")

	w := s.do(t, http.MethodPost, "/v1/orders", op, s.order(1))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	o := decode[dto.OrderResponse](t, w)
	for _, st := range []string{model.OrderProcessing, model.OrderShipped} {
		w = s.do(t, http.MethodPost, "/v1/orders/"+o.ID+"/status", op, dto.AdvanceStatusRequest{Status: st})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	}

	run := dto.CommissionRunRequest{
		EmployeeID:  s.fx.Rep.ID.String(),
		PeriodStart: start.Format(time.DateOnly),
		PeriodEnd:   end.Format(time.DateOnly),
	}
	w = s.do(t, http.MethodPost, "/v1/commissions", analyst, run)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	comm := decode[dto.CommissionResponse](t, w)
	assert.Equal(t, "15.80", comm.TotalSales.StringFixed(2))
	assert.Equal(t, "0.79", comm.CommissionAmount.StringFixed(2))

	w = s.do(t, http.MethodGet, "/v1/commissions/"+comm.ID+"/statement", analyst, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))

	w = s.do(t, http.MethodPost, "/v1/etl/runs", analyst, dto.DateRangeRequest{
		StartDate: start.Format(time.DateOnly),
		EndDate:   end.Format(time.DateOnly),
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	etl := decode[dto.EtlRunResponse](t, w)
	assert.Equal(t, model.RunSuccess, etl.Status)
	assert.Equal(t, 1, etl.Facts.SalesFacts)
	assert.Zero(t, etl.IssuesFound)

	w = s.do(t, http.MethodGet, "/v1/warehouse/sales?from="+start.Format(time.DateOnly)+"&to="+end.Format(time.DateOnly), analyst, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	sales := decode[[]dto.SalesFactResponse](t, w)
	require.Len(t, sales, 1)
	assert.Equal(t, o.OrderNumber, sales[0].OrderNumber)

	w = s.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())
}
