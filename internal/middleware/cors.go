package middleware

import (
	"fmt"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// CORS allows the given origins ("*" for any) and exposes the paging and
// alert headers to browser clients.
func CORS(origins []string, appName string) gin.HandlerFunc {
	cfg := cors.Config{
		AllowMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept", RequestIDHeader},
		ExposeHeaders: []string{
			"X-Total-Count", "Link", "Location", RequestIDHeader,
			fmt.Sprintf("X-%s-alert", appName),
			fmt.Sprintf("X-%s-error", appName),
			fmt.Sprintf("X-%s-params", appName),
		},
		MaxAge: 12 * time.Hour,
	}

	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	return cors.New(cfg)
}
