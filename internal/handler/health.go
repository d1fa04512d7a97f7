package handler

import (
	"context"
	"net/http"
	"time"

	"acopio/internal/infra"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Breaker is a collaborator guarded by a circuit breaker.
type Breaker interface {
	Estado() infra.CBState
}

// Health returns a JSON health check response.
// Checks DB and, when configured, Redis connectivity. Redis being down
// degrades the service (no identity cache, no close reports) but does not
// make it unhealthy; neither does an open collaborator breaker.
func Health(db *gorm.DB, rdb *redis.Client, breakers map[string]Breaker) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
		defer cancel()

		dbStatus := "connected"
		sqlDB, err := db.DB()
		if err != nil || sqlDB.PingContext(ctx) != nil {
			dbStatus = "error"
		}

		redisStatus := "disabled"
		if rdb != nil {
			redisStatus = "connected"
			if rdb.Ping(ctx).Err() != nil {
				redisStatus = "error"
			}
		}

		colaboradores := gin.H{}
		for nombre, b := range breakers {
			if b != nil {
				colaboradores[nombre] = b.Estado().String()
			}
		}

		status := http.StatusOK
		if dbStatus != "connected" {
			status = http.StatusServiceUnavailable
		}

		c.JSON(status, gin.H{
			"ok":            status == http.StatusOK,
			"db":            dbStatus,
			"redis":         redisStatus,
			"colaboradores": colaboradores,
		})
	}
}
