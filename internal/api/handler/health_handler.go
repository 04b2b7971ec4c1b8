package handler

import (
	"context"
	"net/http"
	"time"

	"chirp-go/internal/api/response"
	"chirp-go/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// HealthCheck 依赖检查项
type HealthCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

// Health 存活检查，任一依赖不可用时返回 503
func Health(name, version string, checks ...HealthCheck) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		status, code := "ok", http.StatusOK
		deps := gin.H{}
		for _, hc := range checks {
			if err := hc.Check(ctx); err != nil {
				logger.Warn("Health check failed", zap.String("dependency", hc.Name), zap.Error(err))
				deps[hc.Name] = "down"
				status, code = "degraded", http.StatusServiceUnavailable
				continue
			}
			deps[hc.Name] = "up"
		}

		response.JSON(c, code, gin.H{
			"status":       status,
			"app":          name,
			"version":      version,
			"dependencies": deps,
			"time":         time.Now().UTC().Format(time.RFC3339),
		})
	}
}
