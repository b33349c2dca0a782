package service

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"retailworks/internal/apierror"
	"retailworks/internal/model"
	"retailworks/internal/repository"
	"retailworks/internal/testutil"
	"retailworks/internal/worker"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type capturingQueue struct{ jobs []worker.EmailJobPayload }

func (q *capturingQueue) EnqueueEmail(_ context.Context, p worker.EmailJobPayload) error {
	q.jobs = append(q.jobs, p)
	return nil
}

func newCommissionEnv(t *testing.T) (*testEnv, CommissionService, *capturingQueue) {
	t.Helper()
	e := newTestEnv(t)
	q := &capturingQueue{}
	svc := NewCommissionService(repository.NewCommissionRepository(e.db), e.orderRepo, e.refs, q, t.TempDir(), 3)
	return e, svc, q
}

func TestCalculateCommission_IsIdempotentAndUpdatesPayroll(t *testing.T) {
	e, svc, _ := newCommissionEnv(t)
	fixClock(t, time.Date(2026, time.March, 10, 12, 0, 0, 0, time.UTC))
	testutil.Stock(t, e.db, e.fx.Products[0].ID, "MAIN", 50, 0)
	testutil.Stock(t, e.db, e.fx.Products[1].ID, "MAIN", 50, 0)
	start, end := day(2026, time.March, 1), day(2026, time.March, 31)
	testutil.Payroll(t, e.db, e.fx.Rep.ID, start, end, "3000.00", "400.00")

	a, err := e.orders.SubmitOrder(context.Background(), e.orderRequest(e.item(0, 1, "10.00", "0")))
	require.NoError(t, err)
	b, err := e.orders.SubmitOrder(context.Background(), e.orderRequest(e.item(1, 2, "25.00", "0")))
	require.NoError(t, err)
	pending, err := e.orders.SubmitOrder(context.Background(), e.orderRequest(e.item(1, 1, "25.00", "0")))
	require.NoError(t, err)
	e.advance(t, a.ID, model.OrderProcessing, model.OrderShipped)
	e.advance(t, b.ID, model.OrderProcessing, model.OrderShipped)

	// 15.80 + 59.00 shipped; the pending order does not count.
	first, err := svc.Calculate(context.Background(), e.fx.Rep.ID, start, end)
	require.NoError(t, err)
	assert.Equal(t, 2, first.OrderCount)
	assert.Equal(t, "74.80", first.TotalSales.StringFixed(2))
	assert.Equal(t, "3.74", first.CommissionAmount.StringFixed(2))
	assert.Equal(t, "3003.74", first.GrossPay.StringFixed(2))
	assert.Equal(t, "2603.74", first.NetPay.StringFixed(2))

	second, err := svc.Calculate(context.Background(), e.fx.Rep.ID, start, end)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, first.CommissionAmount.StringFixed(2), second.CommissionAmount.StringFixed(2))
	assert.Equal(t, first.GrossPay.StringFixed(2), second.GrossPay.StringFixed(2))

	e.advance(t, pending.ID, model.OrderProcessing, model.OrderShipped)
	third, err := svc.Calculate(context.Background(), e.fx.Rep.ID, start, end)
	require.NoError(t, err)
	assert.Equal(t, first.ID, third.ID, "re-running a period overwrites the record")
	assert.Equal(t, 3, third.OrderCount)
	assert.Equal(t, "106.80", third.TotalSales.StringFixed(2))
	assert.Equal(t, "5.34", third.CommissionAmount.StringFixed(2))

	var records int64
	require.NoError(t, e.db.Model(&model.CommissionRecord{}).Count(&records).Error)
	assert.EqualValues(t, 1, records)

	var payroll model.Payroll
	require.NoError(t, e.db.Where("employee_id = ?", e.fx.Rep.ID).First(&payroll).Error)
	assert.Equal(t, "5.34", payroll.CommissionAmount.StringFixed(2))
	assert.Equal(t, "3005.34", payroll.GrossPay.StringFixed(2))
	assert.Equal(t, "2605.34", payroll.NetPay.StringFixed(2))
}

func TestCalculateCommission_OrdersOutsidePeriodAreIgnored(t *testing.T) {
	e, svc, _ := newCommissionEnv(t)
	testutil.Stock(t, e.db, e.fx.Products[0].ID, "MAIN", 50, 0)
	start, end := day(2026, time.March, 1), day(2026, time.March, 31)
	testutil.Payroll(t, e.db, e.fx.Rep.ID, start, end, "3000.00", "0")

	fixClock(t, time.Date(2026, time.March, 31, 23, 59, 0, 0, time.UTC))
	inside, err := e.orders.SubmitOrder(context.Background(), e.orderRequest(e.item(0, 1, "10.00", "0")))
	require.NoError(t, err)
	fixClock(t, time.Date(2026, time.April, 1, 0, 0, 0, 0, time.UTC))
	outside, err := e.orders.SubmitOrder(context.Background(), e.orderRequest(e.item(0, 1, "10.00", "0")))
	require.NoError(t, err)
	e.advance(t, inside.ID, model.OrderProcessing, model.OrderShipped)
	e.advance(t, outside.ID, model.OrderProcessing, model.OrderShipped)

	resp, err := svc.Calculate(context.Background(), e.fx.Rep.ID, start, end)
	require.NoError(t, err)
	assert.Equal(t, 1, resp.OrderCount)
	assert.Equal(t, "15.80", resp.TotalSales.StringFixed(2))
}

func TestCalculateCommission_Errors(t *testing.T) {
	e, svc, _ := newCommissionEnv(t)
	start, end := day(2026, time.March, 1), day(2026, time.March, 31)

	_, err := svc.Calculate(context.Background(), e.fx.Rep.ID, start, end)
	assert.True(t, errors.Is(err, apierror.ErrNoPayrollRecord))

	_, err = svc.Calculate(context.Background(), e.fx.Rep.ID, end, start)
	assert.True(t, errors.Is(err, apierror.ErrValidation))

	_, err = svc.Calculate(context.Background(), uuid.New(), start, end)
	assert.True(t, errors.Is(err, apierror.ErrReferenceNotFound))

	require.NoError(t, e.db.Model(&model.SalesRep{}).Where("id = ?", e.fx.Rep.ID).
		Update("commission_rate", nil).Error)
	_, err = svc.Calculate(context.Background(), e.fx.Rep.ID, start, end)
	assert.True(t, errors.Is(err, apierror.ErrMissingCommissionRate), "rate is checked before payroll")
}

func TestCommissionStatement_RenderAndEmail(t *testing.T) {
	e, svc, q := newCommissionEnv(t)
	start, end := day(2026, time.March, 1), day(2026, time.March, 31)
	testutil.Payroll(t, e.db, e.fx.Rep.ID, start, end, "3000.00", "0")
	resp, err := svc.Calculate(context.Background(), e.fx.Rep.ID, start, end)
	require.NoError(t, err)
	id := mustUUID(t, resp.ID)

	path, err := svc.RenderStatement(context.Background(), id)
	require.NoError(t, err)
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Positive(t, info.Size())

	_, err = svc.EmailStatement(context.Background(), id)
	require.NoError(t, err)
	require.Len(t, q.jobs, 1)
	assert.Equal(t, e.fx.Rep.Email, q.jobs[0].ToEmail)
	assert.NotEmpty(t, q.jobs[0].AttachmentPath)
	assert.Contains(t, q.jobs[0].Subject, "2026-03-01")

	_, err = svc.RenderStatement(context.Background(), uuid.New())
	assert.True(t, errors.Is(err, apierror.ErrReferenceNotFound))
}
