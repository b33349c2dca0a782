package handler

import (
	"net/http"
	"strconv"

	"retailworks/internal/dto"
	"retailworks/internal/service"

	"github.com/gin-gonic/gin"
)

type InventoryHandler struct{ svc service.InventoryService }

func NewInventoryHandler(svc service.InventoryService) *InventoryHandler {
	return &InventoryHandler{svc: svc}
}

// ApplyTransaction handles POST /v1/inventory/transactions (RECEIPT, ADJUSTMENT, RETURN).
func (h *InventoryHandler) ApplyTransaction(c *gin.Context) {
	var req dto.InventoryTransactionRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.ApplyTransaction(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// GetRecords handles GET /v1/inventory/:product_id.
func (h *InventoryHandler) GetRecords(c *gin.Context) {
	id, ok := uuidParam(c, "product_id")
	if !ok {
		return
	}
	resp, err := h.svc.GetRecords(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Movements handles GET /v1/inventory/:product_id/movements.
func (h *InventoryHandler) Movements(c *gin.Context) {
	id, ok := uuidParam(c, "product_id")
	if !ok {
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))
	resp, err := h.svc.ListMovements(c.Request.Context(), id, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Alerts handles GET /v1/inventory/alerts.
func (h *InventoryHandler) Alerts(c *gin.Context) {
	resp, err := h.svc.ListReorderAlerts(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
