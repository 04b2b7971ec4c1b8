package middleware

import (
	"chirp-go/internal/api/response"
	"chirp-go/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Recovery 恢复中间件，捕获panic并渲染 500 页面
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				fields := []zap.Field{
					zap.Any("error", err),
					zap.String("path", c.Request.URL.Path),
					zap.String("method", c.Request.Method),
					zap.Stack("stack"),
				}
				if userID, ok := GetCurrentUserID(c); ok {
					fields = append(fields, zap.Int64("user_id", userID))
				}
				logger.Error("Panic recovered", fields...)

				if !c.Writer.Written() {
					response.InternalError(c)
				}
				c.Abort()
			}
		}()

		c.Next()
	}
}
