package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"retailworks/internal/apierror"
	"retailworks/internal/dto"
	"retailworks/internal/model"
	"retailworks/internal/repository"
	"retailworks/internal/testutil"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newQualityEnv(t *testing.T) (*testEnv, QualityService) {
	t.Helper()
	e := newTestEnv(t)
	return e, NewQualityService(repository.NewQualityRepository(e.db))
}

func TestQualityRun_CleanFixtureHasNoIssues(t *testing.T) {
	_, svc := newQualityEnv(t)
	fixClock(t, day(2026, time.April, 1))

	report, err := svc.Run(context.Background())
	require.NoError(t, err)
	assert.Zero(t, report.Open)
	assert.Empty(t, report.Issues)
	assert.Equal(t, 0, report.BySeverity[model.SeverityCritical])
}

func TestQualityRun_IssueLifecycle(t *testing.T) {
	e, svc := newQualityEnv(t)
	ctx := context.Background()
	t1, t2 := day(2026, time.April, 1), day(2026, time.April, 2)

	dup := model.Customer{
		CustomerNumber: "C-0002", FirstName: "Dana", LastName: "Reyes-Cole",
		Email: "DANA.REYES@example.com", RegistrationDate: day(2021, time.May, 1),
	}
	require.NoError(t, e.db.Create(&dup).Error)

	fixClock(t, t1)
	first, err := svc.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, first.New)
	require.Equal(t, 1, first.Open)
	issue := first.Issues[0]
	assert.Equal(t, IssueDuplicateKey, issue.IssueType)
	assert.Equal(t, "customers", issue.Table)
	assert.Equal(t, "dana.reyes@example.com", issue.RecordRef)
	assert.Equal(t, model.SeverityMedium, issue.Severity)
	assert.Equal(t, 1, first.BySeverity[model.SeverityMedium])

	fixClock(t, t2)
	second, err := svc.Run(ctx)
	require.NoError(t, err)
	assert.Zero(t, second.New)
	assert.Zero(t, second.Resolved)
	require.Len(t, second.Issues, 1)
	assert.Equal(t, issue.ID, second.Issues[0].ID, "a recurring finding keeps its issue")
	assert.Equal(t, t1.Format(time.RFC3339), second.Issues[0].FirstSeenAt)
	assert.Equal(t, t2.Format(time.RFC3339), second.Issues[0].LastSeenAt)

	require.NoError(t, e.db.Model(&dup).Update("email", "dana.cole@example.com").Error)
	third, err := svc.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, third.Resolved)
	assert.Zero(t, third.Open)

	resolved, err := svc.ListIssues(ctx, dto.QualityIssueFilter{Status: model.IssueResolved})
	require.NoError(t, err)
	require.Len(t, resolved, 1)
	assert.NotNil(t, resolved[0].ResolvedAt)

	_, err = svc.Run(ctx)
	require.NoError(t, err)
	all, err := svc.ListIssues(ctx, dto.QualityIssueFilter{Status: "all"})
	require.NoError(t, err)
	assert.Empty(t, all, "resolved issues are purged by the next run")
}

func TestQualityRun_DetectsTotalMismatch(t *testing.T) {
	e, svc := newQualityEnv(t)
	fixClock(t, day(2026, time.April, 1))

	o := model.Order{
		OrderNumber: "SO-BROKEN",
		CustomerID:  e.fx.Customer.ID,
		SalesRepID:  e.fx.Rep.ID,
		OrderDate:   day(2026, time.March, 30),
		Subtotal:    testutil.Dec("10.00"),
		TaxAmount:   testutil.Dec("0.80"),
		Freight:     testutil.Dec("5.00"),
		TotalAmount: testutil.Dec("20.00"),
		Status:      model.OrderPending,
		Items: []model.OrderItem{{
			LineNumber: 1, ProductID: e.fx.Products[0].ID, LocationCode: "MAIN", Quantity: 1,
			UnitPrice: testutil.Dec("10.00"), LineTotal: testutil.Dec("10.00"),
		}},
	}
	require.NoError(t, e.db.Create(&o).Error)

	report, err := svc.Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, report.Open)
	assert.Equal(t, IssueTotalMismatch, report.Issues[0].IssueType)
	assert.Equal(t, "SO-BROKEN", report.Issues[0].RecordRef)
	assert.Equal(t, model.SeverityCritical, report.Issues[0].Severity)
}

func TestQualityResolve(t *testing.T) {
	e, svc := newQualityEnv(t)
	ctx := context.Background()
	fixClock(t, day(2026, time.April, 1))
	require.NoError(t, e.db.Model(&e.fx.Customer).Update("email", "dana at example").Error)

	report, err := svc.Run(ctx)
	require.NoError(t, err)
	require.Len(t, report.Issues, 1)
	assert.Equal(t, IssueInvalidFormat, report.Issues[0].IssueType)
	id := mustUUID(t, report.Issues[0].ID)

	got, err := svc.Resolve(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, model.IssueResolved, got.Status)
	require.NotNil(t, got.ResolvedAt)

	_, err = svc.Resolve(ctx, id)
	assert.True(t, errors.Is(err, apierror.ErrValidation), "only open issues can be resolved")
	_, err = svc.Resolve(ctx, uuid.New())
	assert.True(t, errors.Is(err, apierror.ErrReferenceNotFound))

	again, err := svc.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, again.New, "a manually resolved issue reopens while the record is still wrong")
	assert.NotEqual(t, report.Issues[0].ID, again.Issues[0].ID)
}
