package dto

// InventoryTransactionRequest replenishes or recounts stock.
// ADJUSTMENT treats Quantity as the new absolute on-hand count.
type InventoryTransactionRequest struct {
	ProductID       string `json:"product_id"       validate:"required,uuid"`
	LocationCode    string `json:"location_code"    validate:"required,max=32"`
	Quantity        int    `json:"quantity"         validate:"min=0"`
	TransactionType string `json:"transaction_type" validate:"required,oneof=RECEIPT ADJUSTMENT RETURN"`
	Note            string `json:"note"             validate:"omitempty,max=500"`
}

type InventoryRecordResponse struct {
	ProductID         string  `json:"product_id"`
	LocationCode      string  `json:"location_code"`
	QuantityOnHand    int     `json:"quantity_on_hand"`
	QuantityAllocated int     `json:"quantity_allocated"`
	QuantityAvailable int     `json:"quantity_available"`
	ReorderPoint      int     `json:"reorder_point"`
	ReorderQuantity   int     `json:"reorder_quantity"`
	NeedsReorder      bool    `json:"needs_reorder"`
	LastCountedAt     *string `json:"last_counted_at,omitempty"`
}

// ReorderSignal is the advisory message emitted when on-hand reaches the reorder point.
type ReorderSignal struct {
	ProductID       string `json:"product_id"`
	LocationCode    string `json:"location_code"`
	QuantityOnHand  int    `json:"quantity_on_hand"`
	ReorderPoint    int    `json:"reorder_point"`
	ReorderQuantity int    `json:"reorder_quantity"`
	EmittedAt       string `json:"emitted_at"`
}

type InventoryMovementResponse struct {
	ID              string  `json:"id"`
	LocationCode    string  `json:"location_code"`
	Kind            string  `json:"kind"`
	Quantity        int     `json:"quantity"`
	OnHandBefore    int     `json:"on_hand_before"`
	OnHandAfter     int     `json:"on_hand_after"`
	AllocatedBefore int     `json:"allocated_before"`
	AllocatedAfter  int     `json:"allocated_after"`
	Note            string  `json:"note,omitempty"`
	ReferenceID     *string `json:"reference_id,omitempty"`
	CreatedAt       string  `json:"created_at"`
}
