package handler

import (
	"net/http"

	"retailworks/internal/dto"
	"retailworks/internal/service"

	"github.com/gin-gonic/gin"
)

type QualityHandler struct{ svc service.QualityService }

func NewQualityHandler(svc service.QualityService) *QualityHandler { return &QualityHandler{svc: svc} }

// Run handles POST /v1/data-quality/runs.
func (h *QualityHandler) Run(c *gin.Context) {
	report, err := h.svc.Run(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

// ListIssues handles GET /v1/data-quality/issues.
func (h *QualityHandler) ListIssues(c *gin.Context) {
	var filter dto.QualityIssueFilter
	if !bindQuery(c, &filter) {
		return
	}
	resp, err := h.svc.ListIssues(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Resolve handles POST /v1/data-quality/issues/:id/resolve.
func (h *QualityHandler) Resolve(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	resp, err := h.svc.Resolve(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
