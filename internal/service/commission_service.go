package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"retailworks/internal/apierror"
	"retailworks/internal/calendar"
	"retailworks/internal/dto"
	"retailworks/internal/infra"
	"retailworks/internal/model"
	"retailworks/internal/repository"
	"retailworks/internal/worker"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type CommissionService interface {
	Calculate(ctx context.Context, employeeID uuid.UUID, start, end time.Time) (*dto.CommissionResponse, error)
	RenderStatement(ctx context.Context, id uuid.UUID) (string, error)
	// EmailStatement renders the statement and queues it to the rep's email.
	EmailStatement(ctx context.Context, id uuid.UUID) (string, error)
}

// EmailQueue accepts outbound email jobs; *worker.Dispatcher implements it.
type EmailQueue interface {
	EnqueueEmail(ctx context.Context, payload worker.EmailJobPayload) error
}

type commissionService struct {
	repo        repository.CommissionRepository
	orders      repository.OrderRepository
	refs        repository.ReferenceRepository
	emails      EmailQueue
	storagePath string
	maxRetries  int
}

func NewCommissionService(
	repo repository.CommissionRepository,
	orders repository.OrderRepository,
	refs repository.ReferenceRepository,
	emails EmailQueue,
	storagePath string,
	maxRetries int,
) CommissionService {
	return &commissionService{
		repo:        repo,
		orders:      orders,
		refs:        refs,
		emails:      emails,
		storagePath: storagePath,
		maxRetries:  maxRetries,
	}
}

// ── Calculate ─────────────────────────────────────────────────────────────────
// Sums the rep's SHIPPED orders placed in [start, end] and writes the result to
// both the commission record and the matching payroll row in one transaction.
// Re-running a period overwrites; it never adds.

func (s *commissionService) Calculate(ctx context.Context, employeeID uuid.UUID, start, end time.Time) (*dto.CommissionResponse, error) {
	start, end = calendar.Day(start), calendar.Day(end)
	if end.Before(start) {
		return nil, apierror.Validation("period_end", "period end %s is before start %s",
			end.Format("2006-01-02"), start.Format("2006-01-02"))
	}

	rep, err := s.refs.FindSalesRep(ctx, employeeID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apierror.NotFound("sales_rep", "employee_id", employeeID)
	}
	if err != nil {
		return nil, fmt.Errorf("load sales rep: %w", err)
	}
	if rep.CommissionRate == nil {
		return nil, apierror.MissingCommissionRate(rep.EmployeeNumber)
	}
	rate := *rep.CommissionRate

	var rec *model.CommissionRecord
	var payroll *model.Payroll
	err = retryConflicts(ctx, "commission.calculate", s.maxRetries, func() error {
		return runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
			p, err := s.repo.FindPayrollForUpdateTx(ctx, tx, employeeID, start, end)
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apierror.NoPayrollRecord(rep.EmployeeNumber, start.Format("2006-01-02"), end.Format("2006-01-02"))
			}
			if err != nil {
				return fmt.Errorf("load payroll: %w", err)
			}

			totals, err := s.orders.ShippedTotals(ctx, tx, employeeID, start, end.AddDate(0, 0, 1))
			if err != nil {
				return fmt.Errorf("sum shipped orders: %w", err)
			}
			sales := decimal.Zero
			for _, t := range totals {
				sales = sales.Add(t)
			}
			commission := sales.Mul(rate).Round(2)

			rec = &model.CommissionRecord{
				EmployeeID:       employeeID,
				PeriodStart:      start,
				PeriodEnd:        end,
				OrderCount:       len(totals),
				TotalSales:       sales,
				CommissionRate:   rate,
				CommissionAmount: commission,
				CalculatedAt:     clock(),
			}
			if err := s.repo.SaveTx(ctx, tx, rec); err != nil {
				if errors.Is(err, gorm.ErrDuplicatedKey) {
					return apierror.Conflict("commission_record", err)
				}
				return fmt.Errorf("save commission: %w", err)
			}

			p.CommissionAmount = commission
			p.GrossPay = p.BaseSalary.Add(commission)
			p.NetPay = p.GrossPay.Sub(p.Deductions)
			if err := s.repo.UpdatePayrollTx(ctx, tx, p); err != nil {
				return fmt.Errorf("update payroll: %w", err)
			}
			payroll = p
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	log.Info().Str("employee", rep.EmployeeNumber).Str("period_start", start.Format("2006-01-02")).
		Str("commission", rec.CommissionAmount.StringFixed(2)).Int("orders", rec.OrderCount).
		Msg("commission calculated")

	return &dto.CommissionResponse{
		ID:               rec.ID.String(),
		EmployeeID:       employeeID.String(),
		PeriodStart:      start.Format("2006-01-02"),
		PeriodEnd:        end.Format("2006-01-02"),
		OrderCount:       rec.OrderCount,
		TotalSales:       rec.TotalSales,
		CommissionRate:   rec.CommissionRate,
		CommissionAmount: rec.CommissionAmount,
		GrossPay:         payroll.GrossPay,
		NetPay:           payroll.NetPay,
		CalculatedAt:     rec.CalculatedAt.Format(time.RFC3339),
	}, nil
}

// RenderStatement writes the PDF statement of a stored commission record.
func (s *commissionService) RenderStatement(ctx context.Context, id uuid.UUID) (string, error) {
	rec, err := s.repo.FindByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", apierror.NotFound("commission_record", "id", id)
	}
	if err != nil {
		return "", fmt.Errorf("load commission: %w", err)
	}
	return infra.GenerateCommissionStatementPDF(rec, s.storagePath)
}

func (s *commissionService) EmailStatement(ctx context.Context, id uuid.UUID) (string, error) {
	rec, err := s.repo.FindByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", apierror.NotFound("commission_record", "id", id)
	}
	if err != nil {
		return "", fmt.Errorf("load commission: %w", err)
	}
	if rec.SalesRep == nil || rec.SalesRep.Email == "" {
		return "", apierror.Validation("email", "sales rep of commission %s has no email address", id)
	}
	if s.emails == nil {
		return "", fmt.Errorf("email queue not configured")
	}
	path, err := infra.GenerateCommissionStatementPDF(rec, s.storagePath)
	if err != nil {
		return "", err
	}
	payload := worker.EmailJobPayload{
		ToEmail: rec.SalesRep.Email,
		Subject: fmt.Sprintf("Commission statement %s to %s",
			rec.PeriodStart.Format(time.DateOnly), rec.PeriodEnd.Format(time.DateOnly)),
		Body: fmt.Sprintf("Hello %s,\n\nAttached is your commission statement. Commission: $%s on $%s of shipped sales.\n",
			rec.SalesRep.FirstName, rec.CommissionAmount.StringFixed(2), rec.TotalSales.StringFixed(2)),
		AttachmentPath: path,
	}
	if err := s.emails.EnqueueEmail(ctx, payload); err != nil {
		return "", fmt.Errorf("enqueue statement email: %w", err)
	}
	return path, nil
}
