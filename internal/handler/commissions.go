package handler

import (
	"net/http"
	"path/filepath"

	"retailworks/internal/dto"
	"retailworks/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type CommissionsHandler struct{ svc service.CommissionService }

func NewCommissionsHandler(svc service.CommissionService) *CommissionsHandler {
	return &CommissionsHandler{svc: svc}
}

// Calculate handles POST /v1/commissions. Re-running a period overwrites
// the stored record and payroll figures.
func (h *CommissionsHandler) Calculate(c *gin.Context) {
	var req dto.CommissionRunRequest
	if !bindAndValidate(c, &req) {
		return
	}
	employeeID := uuid.MustParse(req.EmployeeID)
	resp, err := h.svc.Calculate(c.Request.Context(), employeeID, parseDate(req.PeriodStart), parseDate(req.PeriodEnd))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Statement handles GET /v1/commissions/:id/statement and streams the PDF.
func (h *CommissionsHandler) Statement(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	path, err := h.svc.RenderStatement(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.FileAttachment(path, filepath.Base(path))
}

// EmailStatement handles POST /v1/commissions/:id/statement/email.
func (h *CommissionsHandler) EmailStatement(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	if _, err := h.svc.EmailStatement(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"queued": true})
}
