package handler

import (
	"net/http"
	"strconv"

	"retailworks/internal/dto"
	"retailworks/internal/service"

	"github.com/gin-gonic/gin"
)

// WarehouseHandler exposes the batch side: calendar, ETL runs and fact reads.
type WarehouseHandler struct {
	calendar service.CalendarService
	etl      service.EtlService
	facts    service.FactService
}

func NewWarehouseHandler(calendar service.CalendarService, etl service.EtlService, facts service.FactService) *WarehouseHandler {
	return &WarehouseHandler{calendar: calendar, etl: etl, facts: facts}
}

// BuildCalendar handles POST /v1/calendar.
func (h *WarehouseHandler) BuildCalendar(c *gin.Context) {
	var req dto.DateRangeRequest
	if !bindAndValidate(c, &req) {
		return
	}
	n, holidays, err := h.calendar.Build(c.Request.Context(), parseDate(req.StartDate), parseDate(req.EndDate))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.CalendarResponse{RowsGenerated: n, HolidaysMarked: holidays})
}

// ListCalendar handles GET /v1/calendar?from=&to=.
func (h *WarehouseHandler) ListCalendar(c *gin.Context) {
	var q dto.DateQuery
	if !bindQuery(c, &q) {
		return
	}
	resp, err := h.calendar.ListDays(c.Request.Context(), parseDate(q.From), parseDate(q.To))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// RunEtl handles POST /v1/etl/runs. The batch runs synchronously.
func (h *WarehouseHandler) RunEtl(c *gin.Context) {
	var req dto.DateRangeRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.etl.Run(c.Request.Context(), parseDate(req.StartDate), parseDate(req.EndDate))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ListEtlRuns handles GET /v1/etl/runs.
func (h *WarehouseHandler) ListEtlRuns(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	resp, err := h.etl.ListRuns(c.Request.Context(), limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ListSales handles GET /v1/warehouse/sales?from=&to=.
func (h *WarehouseHandler) ListSales(c *gin.Context) {
	var q dto.DateQuery
	if !bindQuery(c, &q) {
		return
	}
	resp, err := h.facts.ListSales(c.Request.Context(), parseDate(q.From), parseDate(q.To))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
