package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

const healthTimeout = 3 * time.Second

// Health pings the database and, when configured, Redis in parallel.
// Redis only backs the record cache, so a broken Redis is reported but
// keeps the check green.
func Health(app string, db *gorm.DB, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), healthTimeout)
		defer cancel()

		dbStatus, redisStatus := "connected", "disabled"
		var g errgroup.Group
		g.Go(func() error {
			sqlDB, err := db.DB()
			if err == nil {
				err = sqlDB.PingContext(ctx)
			}
			if err != nil {
				dbStatus = "error"
			}
			return nil
		})
		if rdb != nil {
			g.Go(func() error {
				redisStatus = "connected"
				if rdb.Ping(ctx).Err() != nil {
					redisStatus = "error"
				}
				return nil
			})
		}
		_ = g.Wait()

		status := http.StatusOK
		if dbStatus != "connected" {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, gin.H{
			"app":   app,
			"ok":    status == http.StatusOK,
			"db":    dbStatus,
			"redis": redisStatus,
		})
	}
}
