package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"retailworks/internal/apierror"
	"retailworks/internal/dto"
	"retailworks/internal/metrics"
	"retailworks/internal/model"
	"retailworks/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// ReorderNotifier receives advisory reorder signals after a mutation commits.
type ReorderNotifier interface {
	NotifyReorder(ctx context.Context, signal dto.ReorderSignal) error
}

type InventoryService interface {
	Allocate(ctx context.Context, productID uuid.UUID, location string, qty int) (*model.InventoryRecord, error)
	Release(ctx context.Context, productID uuid.UUID, location string, qty int) (*model.InventoryRecord, error)
	ApplyTransaction(ctx context.Context, req dto.InventoryTransactionRequest) (*dto.InventoryRecordResponse, error)
	GetRecords(ctx context.Context, productID uuid.UUID) ([]dto.InventoryRecordResponse, error)
	ListReorderAlerts(ctx context.Context) ([]dto.InventoryRecordResponse, error)
	ListMovements(ctx context.Context, productID uuid.UUID, limit int) ([]dto.InventoryMovementResponse, error)

	// Used inside transactions owned by the caller.
	AllocateTx(ctx context.Context, tx *gorm.DB, productID uuid.UUID, location string, qty int, ref *uuid.UUID) (*model.InventoryRecord, error)
	ReleaseTx(ctx context.Context, tx *gorm.DB, productID uuid.UUID, location string, qty int, ref *uuid.UUID) (*model.InventoryRecord, error)
	ShipTx(ctx context.Context, tx *gorm.DB, productID uuid.UUID, location string, qty int, ref *uuid.UUID) (*model.InventoryRecord, error)

	// SignalReorder emits a reorder signal for every record at or below its
	// reorder point. Call it after the mutating transaction has committed.
	SignalReorder(ctx context.Context, recs ...*model.InventoryRecord)
}

type InventorySettings struct {
	DefaultReorderPoint int
	MaxRetries          int
}

type inventoryService struct {
	repo     repository.InventoryRepository
	notifier ReorderNotifier
	settings InventorySettings
}

func NewInventoryService(repo repository.InventoryRepository, notifier ReorderNotifier, settings InventorySettings) InventoryService {
	return &inventoryService{repo: repo, notifier: notifier, settings: settings}
}

// ── Standalone operations ─────────────────────────────────────────────────────

func (s *inventoryService) Allocate(ctx context.Context, productID uuid.UUID, location string, qty int) (*model.InventoryRecord, error) {
	return s.standalone(ctx, "inventory.allocate", func(tx *gorm.DB) (*model.InventoryRecord, error) {
		return s.AllocateTx(ctx, tx, productID, location, qty, nil)
	})
}

func (s *inventoryService) Release(ctx context.Context, productID uuid.UUID, location string, qty int) (*model.InventoryRecord, error) {
	return s.standalone(ctx, "inventory.release", func(tx *gorm.DB) (*model.InventoryRecord, error) {
		return s.ReleaseTx(ctx, tx, productID, location, qty, nil)
	})
}

func (s *inventoryService) ApplyTransaction(ctx context.Context, req dto.InventoryTransactionRequest) (*dto.InventoryRecordResponse, error) {
	productID, err := uuid.Parse(req.ProductID)
	if err != nil {
		return nil, apierror.Validation("product_id", "invalid uuid %q", req.ProductID)
	}
	if req.LocationCode == "" {
		return nil, apierror.Validation("location_code", "location code is required")
	}
	switch req.TransactionType {
	case model.MovementReceipt, model.MovementReturn:
		if req.Quantity <= 0 {
			return nil, apierror.Validation("quantity", "%s quantity must be positive", req.TransactionType)
		}
	case model.MovementAdjustment:
		if req.Quantity < 0 {
			return nil, apierror.Validation("quantity", "counted quantity cannot be negative")
		}
	default:
		return nil, apierror.Validation("transaction_type", "unsupported transaction type %q", req.TransactionType)
	}

	rec, err := s.standalone(ctx, "inventory.apply", func(tx *gorm.DB) (*model.InventoryRecord, error) {
		if req.TransactionType == model.MovementReceipt {
			if err := s.ensureRecordTx(ctx, tx, productID, req.LocationCode); err != nil {
				return nil, err
			}
		}
		return s.mutateTx(ctx, tx, productID, req.LocationCode, req.TransactionType, nil, req.Note,
			func(r *model.InventoryRecord) (int, error) {
				switch req.TransactionType {
				case model.MovementAdjustment:
					if req.Quantity < r.QuantityAllocated {
						return 0, apierror.Validation("quantity",
							"counted quantity %d is below the %d units allocated to open orders", req.Quantity, r.QuantityAllocated)
					}
					delta := req.Quantity - r.QuantityOnHand
					now := clock()
					r.QuantityOnHand = req.Quantity
					r.LastCountedAt = &now
					return delta, nil
				default:
					r.QuantityOnHand += req.Quantity
					return req.Quantity, nil
				}
			})
	})
	if err != nil {
		return nil, err
	}
	return recordToResponse(rec), nil
}

func (s *inventoryService) GetRecords(ctx context.Context, productID uuid.UUID) ([]dto.InventoryRecordResponse, error) {
	recs, err := s.repo.FindByProduct(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("list inventory: %w", err)
	}
	if len(recs) == 0 {
		return nil, apierror.NotFound("inventory_record", "product_id", productID)
	}
	return recordsToResponse(recs), nil
}

func (s *inventoryService) ListReorderAlerts(ctx context.Context) ([]dto.InventoryRecordResponse, error) {
	recs, err := s.repo.ListReorderAlerts(ctx)
	if err != nil {
		return nil, fmt.Errorf("list reorder alerts: %w", err)
	}
	return recordsToResponse(recs), nil
}

// standalone wraps a single ledger mutation in its own retried transaction and
// emits the reorder signal once it has committed.
func (s *inventoryService) standalone(ctx context.Context, op string, fn func(tx *gorm.DB) (*model.InventoryRecord, error)) (*model.InventoryRecord, error) {
	var rec *model.InventoryRecord
	err := retryConflicts(ctx, op, s.settings.MaxRetries, func() error {
		return runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
			r, err := fn(tx)
			rec = r
			return err
		})
	})
	if err != nil {
		return nil, err
	}
	s.SignalReorder(ctx, rec)
	return rec, nil
}

// ── Transactional primitives ──────────────────────────────────────────────────

func (s *inventoryService) AllocateTx(ctx context.Context, tx *gorm.DB, productID uuid.UUID, location string, qty int, ref *uuid.UUID) (*model.InventoryRecord, error) {
	if qty <= 0 {
		return nil, apierror.Validation("quantity", "quantity must be positive")
	}
	return s.mutateTx(ctx, tx, productID, location, model.MovementAllocation, ref, "",
		func(r *model.InventoryRecord) (int, error) {
			available := r.QuantityOnHand - r.QuantityAllocated
			if available < qty {
				return 0, apierror.InsufficientInventory("quantity", productID, qty, available)
			}
			r.QuantityAllocated += qty
			return qty, nil
		})
}

func (s *inventoryService) ReleaseTx(ctx context.Context, tx *gorm.DB, productID uuid.UUID, location string, qty int, ref *uuid.UUID) (*model.InventoryRecord, error) {
	if qty <= 0 {
		return nil, apierror.Validation("quantity", "quantity must be positive")
	}
	return s.mutateTx(ctx, tx, productID, location, model.MovementRelease, ref, "",
		func(r *model.InventoryRecord) (int, error) {
			if r.QuantityAllocated < qty {
				return 0, apierror.Validation("quantity",
					"cannot release %d units of product %s, only %d allocated", qty, productID, r.QuantityAllocated)
			}
			r.QuantityAllocated -= qty
			return -qty, nil
		})
}

// ShipTx consumes an allocation: the units leave both on-hand and allocated.
func (s *inventoryService) ShipTx(ctx context.Context, tx *gorm.DB, productID uuid.UUID, location string, qty int, ref *uuid.UUID) (*model.InventoryRecord, error) {
	if qty <= 0 {
		return nil, apierror.Validation("quantity", "quantity must be positive")
	}
	return s.mutateTx(ctx, tx, productID, location, model.MovementShipment, ref, "",
		func(r *model.InventoryRecord) (int, error) {
			if r.QuantityAllocated < qty {
				return 0, apierror.Validation("quantity",
					"cannot ship %d units of product %s, only %d allocated", qty, productID, r.QuantityAllocated)
			}
			r.QuantityAllocated -= qty
			r.QuantityOnHand -= qty
			return -qty, nil
		})
}

// mutateTx locks the record, applies fn, recomputes availability, checks the
// non-negativity invariant and writes the result with a version compare-and-set.
// fn returns the signed quantity recorded on the movement.
func (s *inventoryService) mutateTx(
	ctx context.Context,
	tx *gorm.DB,
	productID uuid.UUID,
	location, kind string,
	ref *uuid.UUID,
	note string,
	fn func(r *model.InventoryRecord) (int, error),
) (*model.InventoryRecord, error) {
	rec, err := s.repo.FindForUpdateTx(ctx, tx, productID, location)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apierror.NotFound("inventory_record", "product_id", fmt.Sprintf("%s at %s", productID, location))
	}
	if err != nil {
		return nil, fmt.Errorf("load inventory record: %w", err)
	}

	before := *rec
	delta, err := fn(rec)
	if err != nil {
		return nil, err
	}
	rec.QuantityAvailable = rec.QuantityOnHand - rec.QuantityAllocated
	if rec.QuantityOnHand < 0 || rec.QuantityAllocated < 0 || rec.QuantityAvailable < 0 {
		return nil, apierror.Validation("quantity",
			"%s would leave product %s at %s with on-hand %d and allocated %d",
			kind, productID, location, rec.QuantityOnHand, rec.QuantityAllocated)
	}

	swapped, err := s.repo.SwapTx(ctx, tx, rec, before.Version)
	if err != nil {
		return nil, fmt.Errorf("update inventory record: %w", err)
	}
	if !swapped {
		return nil, apierror.Conflict("inventory_record", nil)
	}
	rec.Version = before.Version + 1

	mov := &model.InventoryMovement{
		InventoryID:     rec.ID,
		ProductID:       productID,
		LocationCode:    location,
		Kind:            kind,
		Quantity:        delta,
		OnHandBefore:    before.QuantityOnHand,
		OnHandAfter:     rec.QuantityOnHand,
		AllocatedBefore: before.QuantityAllocated,
		AllocatedAfter:  rec.QuantityAllocated,
		Note:            note,
		ReferenceID:     ref,
	}
	if err := s.repo.CreateMovementTx(ctx, tx, mov); err != nil {
		return nil, fmt.Errorf("record inventory movement: %w", err)
	}
	metrics.InventoryMovements.WithLabelValues(kind).Inc()
	return rec, nil
}

// ensureRecordTx creates an empty record so a first receipt can land on a new location.
func (s *inventoryService) ensureRecordTx(ctx context.Context, tx *gorm.DB, productID uuid.UUID, location string) error {
	_, err := s.repo.FindForUpdateTx(ctx, tx, productID, location)
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("load inventory record: %w", err)
	}
	rec := &model.InventoryRecord{
		ProductID:    productID,
		LocationCode: location,
		ReorderPoint: s.settings.DefaultReorderPoint,
	}
	if err := s.repo.CreateTx(ctx, tx, rec); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return apierror.Conflict("inventory_record", err)
		}
		return fmt.Errorf("create inventory record: %w", err)
	}
	return nil
}

// ── Reorder signals ───────────────────────────────────────────────────────────

func (s *inventoryService) SignalReorder(ctx context.Context, recs ...*model.InventoryRecord) {
	if s.notifier == nil {
		return
	}
	seen := make(map[uuid.UUID]bool, len(recs))
	for _, r := range recs {
		if r == nil || seen[r.ID] || !r.NeedsReorder() {
			continue
		}
		seen[r.ID] = true
		signal := dto.ReorderSignal{
			ProductID:       r.ProductID.String(),
			LocationCode:    r.LocationCode,
			QuantityOnHand:  r.QuantityOnHand,
			ReorderPoint:    r.ReorderPoint,
			ReorderQuantity: r.ReorderQuantity,
			EmittedAt:       clock().Format(time.RFC3339),
		}
		if err := s.notifier.NotifyReorder(ctx, signal); err != nil {
			metrics.ReorderSignals.WithLabelValues("failed").Inc()
			log.Warn().Err(err).Str("product_id", signal.ProductID).Str("location", r.LocationCode).
				Msg("reorder signal not delivered")
		}
	}
}

func (s *inventoryService) ListMovements(ctx context.Context, productID uuid.UUID, limit int) ([]dto.InventoryMovementResponse, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	moves, err := s.repo.ListMovements(ctx, productID, limit)
	if err != nil {
		return nil, fmt.Errorf("list movements: %w", err)
	}
	out := make([]dto.InventoryMovementResponse, 0, len(moves))
	for _, m := range moves {
		r := dto.InventoryMovementResponse{
			ID:              m.ID.String(),
			LocationCode:    m.LocationCode,
			Kind:            m.Kind,
			Quantity:        m.Quantity,
			OnHandBefore:    m.OnHandBefore,
			OnHandAfter:     m.OnHandAfter,
			AllocatedBefore: m.AllocatedBefore,
			AllocatedAfter:  m.AllocatedAfter,
			Note:            m.Note,
			CreatedAt:       m.CreatedAt.UTC().Format(time.RFC3339),
		}
		if m.ReferenceID != nil {
			ref := m.ReferenceID.String()
			r.ReferenceID = &ref
		}
		out = append(out, r)
	}
	return out, nil
}

// ── Mapping ───────────────────────────────────────────────────────────────────

func recordToResponse(r *model.InventoryRecord) *dto.InventoryRecordResponse {
	resp := &dto.InventoryRecordResponse{
		ProductID:         r.ProductID.String(),
		LocationCode:      r.LocationCode,
		QuantityOnHand:    r.QuantityOnHand,
		QuantityAllocated: r.QuantityAllocated,
		QuantityAvailable: r.QuantityAvailable,
		ReorderPoint:      r.ReorderPoint,
		ReorderQuantity:   r.ReorderQuantity,
		NeedsReorder:      r.NeedsReorder(),
	}
	if r.LastCountedAt != nil {
		s := r.LastCountedAt.UTC().Format(time.RFC3339)
		resp.LastCountedAt = &s
	}
	return resp
}

func recordsToResponse(recs []model.InventoryRecord) []dto.InventoryRecordResponse {
	out := make([]dto.InventoryRecordResponse, 0, len(recs))
	for i := range recs {
		out = append(out, *recordToResponse(&recs[i]))
	}
	return out
}
