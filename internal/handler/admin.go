package handler

import (
	"net/http"
	"strconv"

	"retailworks/internal/apierror"
	"retailworks/internal/worker"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

var dlqQueues = map[string]string{
	"reorder": worker.QueueReorder,
	"email":   worker.QueueEmail,
}

type AdminHandler struct{ rdb *redis.Client }

func NewAdminHandler(rdb *redis.Client) *AdminHandler { return &AdminHandler{rdb: rdb} }

// DeadLetters handles GET /v1/admin/dlq/:queue.
func (h *AdminHandler) DeadLetters(c *gin.Context) {
	queue, ok := dlqQueues[c.Param("queue")]
	if !ok {
		c.JSON(http.StatusNotFound, apierror.New("unknown queue"))
		return
	}
	limit, err := strconv.ParseInt(c.DefaultQuery("limit", "50"), 10, 64)
	if err != nil || limit < 1 || limit > 500 {
		limit = 50
	}
	ctx := c.Request.Context()
	total, err := worker.DLQLength(ctx, h.rdb, queue)
	if err != nil {
		respondError(c, err)
		return
	}
	entries, err := worker.PeekDLQ(ctx, h.rdb, queue, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"queue": queue, "total": total, "entries": entries})
}
