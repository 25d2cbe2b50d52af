package app

import (
	"lingua_backend/internal/middleware"
	"lingua_backend/pkg/monitoring"
	"strings"

	"github.com/gin-gonic/gin"
)

func (a *App) registerRoutes(router *gin.Engine, c *controllers) {
	router.GET("/metrics", monitoring.PrometheusHandler())

	// 根路径和部署前缀下挂载同一组路由
	a.registerAPIRoutes(&router.RouterGroup, c)

	prefix := "/" + strings.Trim(a.Config.Server.RoutePrefix, "/")
	if prefix != "/" {
		a.registerAPIRoutes(router.Group(prefix), c)
	}
}

func (a *App) registerAPIRoutes(group *gin.RouterGroup, c *controllers) {
	// 1. 公共路由(无需登录)
	group.GET("/health", c.health.HealthCheck)
	group.POST("/signup", c.auth.Signup)
	group.POST("/login", c.auth.Login)

	// 2. 需要授权的路由
	authGroup := group.Group("")
	authGroup.Use(middleware.AuthMiddleware(a.services.auth))
	{
		authGroup.POST("/onboard", c.profile.Onboard)
		authGroup.GET("/profile", c.profile.Profile)
		authGroup.GET("/progress", c.profile.Progress)
		authGroup.POST("/generate-lesson", c.lesson.GenerateLesson)
		authGroup.POST("/submit-quiz", c.lesson.SubmitQuiz)
	}
}
