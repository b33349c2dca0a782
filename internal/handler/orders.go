package handler

import (
	"net/http"

	"retailworks/internal/dto"
	"retailworks/internal/service"

	"github.com/gin-gonic/gin"
)

type OrdersHandler struct{ svc service.OrderService }

func NewOrdersHandler(svc service.OrderService) *OrdersHandler { return &OrdersHandler{svc: svc} }

// Submit handles POST /v1/orders. The order and all of its allocations
// commit together or not at all.
func (h *OrdersHandler) Submit(c *gin.Context) {
	var req dto.SubmitOrderRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.SubmitOrder(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// Get handles GET /v1/orders/:id.
func (h *OrdersHandler) Get(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	resp, err := h.svc.GetOrder(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// List handles GET /v1/orders.
func (h *OrdersHandler) List(c *gin.Context) {
	var filter dto.OrderFilter
	if !bindQuery(c, &filter) {
		return
	}
	resp, err := h.svc.ListOrders(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// AdvanceStatus handles POST /v1/orders/:id/status.
func (h *OrdersHandler) AdvanceStatus(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var req dto.AdvanceStatusRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.AdvanceStatus(c.Request.Context(), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
