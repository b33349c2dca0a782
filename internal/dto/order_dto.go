package dto

import "github.com/shopspring/decimal"

// ─── Filter / List ──────────────────────────────────────────────────────────

// OrderFilter is bound from the query string of GET /v1/orders.
type OrderFilter struct {
	Status     string `form:"status"`      // PENDING | PROCESSING | SHIPPED | CANCELLED; empty = all
	CustomerID string `form:"customer_id"` // optional uuid
	From       string `form:"from"`        // YYYY-MM-DD, inclusive
	To         string `form:"to"`          // YYYY-MM-DD, inclusive
	Page       int    `form:"page,default=1"   validate:"min=1"`
	Limit      int    `form:"limit,default=50" validate:"min=1,max=200"`
}

type OrderListResponse struct {
	Data  []OrderResponse `json:"data"`
	Total int64           `json:"total"`
	Page  int             `json:"page"`
	Limit int             `json:"limit"`
}

// ─── Request DTOs ────────────────────────────────────────────────────────────

type AddressRequest struct {
	Line1      string `json:"line1"       validate:"required"`
	Line2      string `json:"line2"`
	City       string `json:"city"        validate:"required"`
	State      string `json:"state"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"     validate:"required"`
}

type OrderItemRequest struct {
	ProductID string          `json:"product_id" validate:"required,uuid"`
	Quantity  int             `json:"quantity"   validate:"required,min=1"`
	UnitPrice decimal.Decimal `json:"unit_price" validate:"gte=0"`
	Discount  decimal.Decimal `json:"discount"   validate:"gte=0,lt=1"`
	// LocationCode defaults to the configured fulfilment location.
	LocationCode string `json:"location_code"`
}

type SubmitOrderRequest struct {
	CustomerID   string             `json:"customer_id"   validate:"required,uuid"`
	SalesRepID   string             `json:"sales_rep_id"  validate:"required,uuid"`
	ShipAddress  AddressRequest     `json:"ship_address"  validate:"required"`
	Items        []OrderItemRequest `json:"items"         validate:"required,min=1,dive"`
	Freight      decimal.Decimal    `json:"freight"       validate:"gte=0"`
	RequiredDate *string            `json:"required_date" validate:"omitempty,datetime=2006-01-02"`
}

type AdvanceStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=PROCESSING SHIPPED CANCELLED"`
	Reason string `json:"reason" validate:"omitempty,max=500"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type OrderItemResponse struct {
	LineNumber   int             `json:"line_number"`
	ProductID    string          `json:"product_id"`
	LocationCode string          `json:"location_code"`
	Quantity     int             `json:"quantity"`
	UnitPrice    decimal.Decimal `json:"unit_price"`
	Discount     decimal.Decimal `json:"discount"`
	LineTotal    decimal.Decimal `json:"line_total"`
}

type OrderResponse struct {
	ID           string              `json:"id"`
	OrderNumber  string              `json:"order_number"`
	CustomerID   string              `json:"customer_id"`
	SalesRepID   string              `json:"sales_rep_id"`
	OrderDate    string              `json:"order_date"`
	ShippedDate  *string             `json:"shipped_date,omitempty"`
	Status       string              `json:"status"`
	Subtotal     decimal.Decimal     `json:"subtotal"`
	TaxAmount    decimal.Decimal     `json:"tax_amount"`
	Freight      decimal.Decimal     `json:"freight"`
	TotalAmount  decimal.Decimal     `json:"total_amount"`
	CancelReason *string             `json:"cancel_reason,omitempty"`
	Items        []OrderItemResponse `json:"items"`
}
