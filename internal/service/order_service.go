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

	"github.com/bwmarrin/snowflake"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type OrderService interface {
	SubmitOrder(ctx context.Context, req dto.SubmitOrderRequest) (*dto.OrderResponse, error)
	AdvanceStatus(ctx context.Context, id uuid.UUID, req dto.AdvanceStatusRequest) (*dto.OrderResponse, error)
	GetOrder(ctx context.Context, id uuid.UUID) (*dto.OrderResponse, error)
	ListOrders(ctx context.Context, filter dto.OrderFilter) (*dto.OrderListResponse, error)
}

type OrderSettings struct {
	TaxRate         decimal.Decimal
	DefaultLocation string
	MaxRetries      int
}

type orderService struct {
	repo      repository.OrderRepository
	refs      repository.ReferenceRepository
	inventory InventoryService
	ids       *snowflake.Node
	settings  OrderSettings
}

func NewOrderService(
	repo repository.OrderRepository,
	refs repository.ReferenceRepository,
	inventory InventoryService,
	ids *snowflake.Node,
	settings OrderSettings,
) OrderService {
	return &orderService{
		repo:      repo,
		refs:      refs,
		inventory: inventory,
		ids:       ids,
		settings:  settings,
	}
}

// LineTotal is quantity × unit price × (1 − discount), rounded to cents.
func LineTotal(qty int, unitPrice, discount decimal.Decimal) decimal.Decimal {
	return unitPrice.Mul(decimal.NewFromInt(int64(qty))).
		Mul(decimal.NewFromInt(1).Sub(discount)).
		Round(2)
}

// OrderTotals derives tax and grand total from the line subtotal.
func OrderTotals(subtotal, taxRate, freight decimal.Decimal) (tax, total decimal.Decimal) {
	tax = subtotal.Mul(taxRate).Round(2)
	return tax, subtotal.Add(tax).Add(freight)
}

// ── SubmitOrder ───────────────────────────────────────────────────────────────
//   1. Validate customer, sales rep and products (pre-flight, outside TX)
//   2. Compute line totals, tax and grand total
//   3. BEGIN TX: create order, then per item: create line + allocate inventory
//   4. Write totals back, COMMIT
//   5. Emit reorder signals for allocated records

type resolvedLine struct {
	productID uuid.UUID
	location  string
	qty       int
	price     decimal.Decimal
	discount  decimal.Decimal
	total     decimal.Decimal
}

func (s *orderService) SubmitOrder(ctx context.Context, req dto.SubmitOrderRequest) (*dto.OrderResponse, error) {
	resp, err := s.submit(ctx, req)
	result := "accepted"
	if err != nil {
		result = string(apierror.KindOf(err))
	}
	metrics.OrdersSubmitted.WithLabelValues(result).Inc()
	return resp, err
}

func (s *orderService) submit(ctx context.Context, req dto.SubmitOrderRequest) (*dto.OrderResponse, error) {
	customerID, err := uuid.Parse(req.CustomerID)
	if err != nil {
		return nil, apierror.Validation("customer_id", "invalid uuid %q", req.CustomerID)
	}
	repID, err := uuid.Parse(req.SalesRepID)
	if err != nil {
		return nil, apierror.Validation("sales_rep_id", "invalid uuid %q", req.SalesRepID)
	}
	if len(req.Items) == 0 {
		return nil, apierror.Validation("items", "an order needs at least one item")
	}
	if req.Freight.IsNegative() {
		return nil, apierror.Validation("freight", "freight cannot be negative")
	}
	var required *time.Time
	if req.RequiredDate != nil {
		d, err := time.Parse("2006-01-02", *req.RequiredDate)
		if err != nil {
			return nil, apierror.Validation("required_date", "expected YYYY-MM-DD, got %q", *req.RequiredDate)
		}
		required = &d
	}

	customer, err := s.refs.FindCustomer(ctx, customerID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apierror.NotFound("customer", "customer_id", customerID)
	}
	if err != nil {
		return nil, fmt.Errorf("load customer: %w", err)
	}
	if customer.Status != model.StatusActive {
		return nil, apierror.Validation("customer_id", "customer %s is %s", customer.CustomerNumber, customer.Status)
	}
	rep, err := s.refs.FindSalesRep(ctx, repID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apierror.NotFound("sales_rep", "sales_rep_id", repID)
	}
	if err != nil {
		return nil, fmt.Errorf("load sales rep: %w", err)
	}
	if rep.Status != model.StatusActive {
		return nil, apierror.Validation("sales_rep_id", "sales rep %s is %s", rep.EmployeeNumber, rep.Status)
	}

	lines := make([]resolvedLine, 0, len(req.Items))
	productIDs := make([]uuid.UUID, 0, len(req.Items))
	for i, item := range req.Items {
		field := fmt.Sprintf("items[%d]", i)
		pid, err := uuid.Parse(item.ProductID)
		if err != nil {
			return nil, apierror.Validation(field+".product_id", "invalid uuid %q", item.ProductID)
		}
		if item.Quantity <= 0 {
			return nil, apierror.Validation(field+".quantity", "quantity must be positive")
		}
		if item.UnitPrice.IsNegative() {
			return nil, apierror.Validation(field+".unit_price", "unit price cannot be negative")
		}
		if item.Discount.IsNegative() || item.Discount.GreaterThanOrEqual(decimal.NewFromInt(1)) {
			return nil, apierror.Validation(field+".discount", "discount must be in [0, 1), got %s", item.Discount)
		}
		location := item.LocationCode
		if location == "" {
			location = s.settings.DefaultLocation
		}
		lines = append(lines, resolvedLine{
			productID: pid,
			location:  location,
			qty:       item.Quantity,
			price:     item.UnitPrice,
			discount:  item.Discount,
			total:     LineTotal(item.Quantity, item.UnitPrice, item.Discount),
		})
		productIDs = append(productIDs, pid)
	}

	products, err := s.refs.FindProducts(ctx, productIDs)
	if err != nil {
		return nil, fmt.Errorf("load products: %w", err)
	}
	for i, l := range lines {
		p, ok := products[l.productID]
		if !ok {
			return nil, apierror.NotFound("product", fmt.Sprintf("items[%d].product_id", i), l.productID)
		}
		if p.Discontinued {
			return nil, apierror.Validation(fmt.Sprintf("items[%d].product_id", i), "product %s is discontinued", p.ProductNumber)
		}
	}

	subtotal := decimal.Zero
	for _, l := range lines {
		subtotal = subtotal.Add(l.total)
	}
	tax, total := OrderTotals(subtotal, s.settings.TaxRate, req.Freight)

	var order *model.Order
	var touched []*model.InventoryRecord
	err = retryConflicts(ctx, "order.submit", s.settings.MaxRetries, func() error {
		touched = touched[:0]
		return runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
			order = &model.Order{
				OrderNumber:    "SO-" + s.ids.Generate().String(),
				CustomerID:     customerID,
				SalesRepID:     repID,
				OrderDate:      clock(),
				RequiredDate:   required,
				ShipLine1:      req.ShipAddress.Line1,
				ShipLine2:      req.ShipAddress.Line2,
				ShipCity:       req.ShipAddress.City,
				ShipState:      req.ShipAddress.State,
				ShipPostalCode: req.ShipAddress.PostalCode,
				ShipCountry:    req.ShipAddress.Country,
				Freight:        req.Freight,
				Status:         model.OrderPending,
			}
			if err := s.repo.CreateTx(ctx, tx, order); err != nil {
				return fmt.Errorf("create order: %w", err)
			}
			for i, l := range lines {
				item := model.OrderItem{
					OrderID:      order.ID,
					LineNumber:   i + 1,
					ProductID:    l.productID,
					LocationCode: l.location,
					Quantity:     l.qty,
					UnitPrice:    l.price,
					Discount:     l.discount,
					LineTotal:    l.total,
				}
				if err := s.repo.CreateItemTx(ctx, tx, &item); err != nil {
					return fmt.Errorf("create order line %d: %w", i+1, err)
				}
				rec, err := s.inventory.AllocateTx(ctx, tx, l.productID, l.location, l.qty, &order.ID)
				if err != nil {
					return atItem(i, err)
				}
				order.Items = append(order.Items, item)
				touched = append(touched, rec)
			}
			order.Subtotal, order.TaxAmount, order.TotalAmount = subtotal, tax, total
			return s.repo.UpdateTotalsTx(ctx, tx, order.ID, subtotal, tax, total)
		})
	})
	if err != nil {
		return nil, err
	}

	s.inventory.SignalReorder(ctx, touched...)
	log.Info().Str("order_number", order.OrderNumber).Str("total", total.StringFixed(2)).
		Int("items", len(order.Items)).Msg("order submitted")
	return orderToResponse(order), nil
}

// atItem re-targets a domain error at the order line that caused it.
func atItem(i int, err error) error {
	var e *apierror.Error
	if !errors.As(err, &e) {
		return err
	}
	c := *e
	c.Field = fmt.Sprintf("items[%d]", i)
	if e.Field != "" {
		c.Field += "." + e.Field
	}
	return &c
}

// ── AdvanceStatus ─────────────────────────────────────────────────────────────
// SHIPPED consumes the allocations; CANCELLED releases them. Both happen in the
// same transaction as the status change.

func (s *orderService) AdvanceStatus(ctx context.Context, id uuid.UUID, req dto.AdvanceStatusRequest) (*dto.OrderResponse, error) {
	target := req.Status
	switch target {
	case model.OrderProcessing, model.OrderShipped, model.OrderCancelled:
	default:
		return nil, apierror.Validation("status", "unknown target status %q", target)
	}

	var from string
	var touched []*model.InventoryRecord
	err := retryConflicts(ctx, "order.advance", s.settings.MaxRetries, func() error {
		touched = touched[:0]
		return runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
			o, err := s.repo.FindForUpdateTx(ctx, tx, id)
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apierror.NotFound("order", "id", id)
			}
			if err != nil {
				return fmt.Errorf("load order: %w", err)
			}
			from = o.Status
			if !model.CanTransition(o.Status, target) {
				return apierror.InvalidTransition(o.Status, target)
			}

			fields := map[string]any{}
			switch target {
			case model.OrderShipped:
				for i, item := range o.Items {
					rec, err := s.inventory.ShipTx(ctx, tx, item.ProductID, item.LocationCode, item.Quantity, &o.ID)
					if err != nil {
						return atItem(i, err)
					}
					touched = append(touched, rec)
				}
				fields["shipped_date"] = clock()
			case model.OrderCancelled:
				for i, item := range o.Items {
					if _, err := s.inventory.ReleaseTx(ctx, tx, item.ProductID, item.LocationCode, item.Quantity, &o.ID); err != nil {
						return atItem(i, err)
					}
				}
				if req.Reason != "" {
					fields["cancel_reason"] = req.Reason
				}
			}

			ok, err := s.repo.TransitionTx(ctx, tx, o.ID, o.Status, target, fields)
			if err != nil {
				return fmt.Errorf("update order status: %w", err)
			}
			if !ok {
				return apierror.Conflict("order", nil)
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	metrics.OrderTransitions.WithLabelValues(from, target).Inc()
	s.inventory.SignalReorder(ctx, touched...)
	log.Info().Str("order_id", id.String()).Str("from", from).Str("to", target).Msg("order status advanced")
	return s.GetOrder(ctx, id)
}

// ── Queries ───────────────────────────────────────────────────────────────────

func (s *orderService) GetOrder(ctx context.Context, id uuid.UUID) (*dto.OrderResponse, error) {
	o, err := s.repo.FindByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apierror.NotFound("order", "id", id)
	}
	if err != nil {
		return nil, fmt.Errorf("load order: %w", err)
	}
	return orderToResponse(o), nil
}

func (s *orderService) ListOrders(ctx context.Context, filter dto.OrderFilter) (*dto.OrderListResponse, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 {
		filter.Limit = 50
	}
	orders, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	data := make([]dto.OrderResponse, 0, len(orders))
	for i := range orders {
		data = append(data, *orderToResponse(&orders[i]))
	}
	return &dto.OrderListResponse{Data: data, Total: total, Page: filter.Page, Limit: filter.Limit}, nil
}

// ── Mapping ───────────────────────────────────────────────────────────────────

func orderToResponse(o *model.Order) *dto.OrderResponse {
	resp := &dto.OrderResponse{
		ID:           o.ID.String(),
		OrderNumber:  o.OrderNumber,
		CustomerID:   o.CustomerID.String(),
		SalesRepID:   o.SalesRepID.String(),
		OrderDate:    o.OrderDate.UTC().Format(time.RFC3339),
		Status:       o.Status,
		Subtotal:     o.Subtotal,
		TaxAmount:    o.TaxAmount,
		Freight:      o.Freight,
		TotalAmount:  o.TotalAmount,
		CancelReason: o.CancelReason,
		Items:        make([]dto.OrderItemResponse, 0, len(o.Items)),
	}
	if o.ShippedDate != nil {
		s := o.ShippedDate.UTC().Format(time.RFC3339)
		resp.ShippedDate = &s
	}
	for _, it := range o.Items {
		resp.Items = append(resp.Items, dto.OrderItemResponse{
			LineNumber:   it.LineNumber,
			ProductID:    it.ProductID.String(),
			LocationCode: it.LocationCode,
			Quantity:     it.Quantity,
			UnitPrice:    it.UnitPrice,
			Discount:     it.Discount,
			LineTotal:    it.LineTotal,
		})
	}
	return resp
}
