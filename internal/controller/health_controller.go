package controller

import (
	"lingua_backend/internal/util"
	"lingua_backend/pkg/kvstore"
	"lingua_backend/pkg/logger"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type HealthController struct {
	Store kvstore.Store
}

func NewHealthController(store kvstore.Store) *HealthController {
	return &HealthController{Store: store}
}

// @Summary 健康检查
// @Description 检查服务及存储状态
// @Tags 系统
// @Produce json
// @Success 200 {object} object "{status:ok}"
// @Failure 503 {object} util.ErrorResponse
// @Router /health [get]
func (c *HealthController) HealthCheck(ctx *gin.Context) {
	if err := c.Store.Ping(ctx.Request.Context()); err != nil {
		logger.Log.Warn("Store ping failed", zap.Error(err))
		util.Error(ctx, http.StatusServiceUnavailable, "Store unavailable")
		return
	}

	util.Success(ctx, gin.H{"status": "ok"})
}
