package middleware

import (
	"errors"
	"lingua_backend/internal/service"
	"lingua_backend/internal/util"
	"lingua_backend/pkg/logger"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// AuthMiddleware 通过认证提供方校验 Bearer 令牌，成功后写入用户 ID
func AuthMiddleware(provider service.AuthProvider) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := ""
		authHeader := c.GetHeader("Authorization")
		if strings.HasPrefix(authHeader, "Bearer ") {
			tokenString = strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
		}

		if tokenString == "" {
			util.Unauthorized(c)
			c.Abort()
			return
		}

		user, err := provider.ValidateToken(c.Request.Context(), tokenString)
		if err != nil {
			if !errors.Is(err, util.ErrUnauthorized) {
				logger.Log.Warn("Token validation failed",
					zap.String("request_id", c.GetString(util.RequestIDKey)),
					zap.Error(err),
				)
			}
			util.Unauthorized(c)
			c.Abort()
			return
		}

		c.Set(util.ContextUserIDKey, user.ID)
		c.Next()
	}
}
