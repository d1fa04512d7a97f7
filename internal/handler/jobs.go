package handler

import (
	"net/http"
	"strconv"

	"acopio/internal/worker"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// ListarDLQ returns the close-report jobs that exhausted their retries.
func ListarDLQ(rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit, err := strconv.ParseInt(c.DefaultQuery("limit", "50"), 10, 64)
		if err != nil || limit < 1 || limit > 500 {
			limit = 50
		}
		ctx := c.Request.Context()
		total, err := worker.DLQLength(ctx, rdb, worker.QueueReporteCierre)
		if err != nil {
			respondError(c, err)
			return
		}
		entries, err := worker.ListDLQ(ctx, rdb, worker.QueueReporteCierre, limit)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": entries, "total": total})
	}
}
