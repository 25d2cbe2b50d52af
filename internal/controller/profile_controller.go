package controller

import (
	"lingua_backend/internal/service"
	"lingua_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type ProfileController struct {
	UserService *service.UserService
}

func NewProfileController(userService *service.UserService) *ProfileController {
	return &ProfileController{UserService: userService}
}

// OnboardRequest 入门自评
type OnboardRequest struct {
	Level string `json:"level" binding:"required"`
}

// Onboard godoc
// @Summary 完成入门
// @Description 记录自评水平并重置学习进度
// @Tags 学习档案
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   body body OnboardRequest true "自评水平 none / beginner / low-beginner"
// @Success 200 {object} object "{success:true}"
// @Failure 400 {object} util.ErrorResponse
// @Failure 401 {object} util.ErrorResponse
// @Router /onboard [post]
func (c *ProfileController) Onboard(ctx *gin.Context) {
	var req OnboardRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	userID := util.GetUserIDFromContext(ctx)
	if err := c.UserService.Onboard(ctx.Request.Context(), userID, req.Level); err != nil {
		util.ErrorFromService(ctx, err, "Failed to onboard")
		return
	}

	util.Success(ctx, gin.H{"success": true})
}

// Profile godoc
// @Summary 获取学习档案
// @Tags 学习档案
// @Produce  json
// @Security ApiKeyAuth
// @Success 200 {object} object "{profile, progress}"
// @Failure 401 {object} util.ErrorResponse
// @Router /profile [get]
func (c *ProfileController) Profile(ctx *gin.Context) {
	profile, progress, err := c.UserService.GetProfile(ctx.Request.Context(), util.GetUserIDFromContext(ctx))
	if err != nil {
		util.ErrorFromService(ctx, err, "Failed to get profile")
		return
	}

	util.Success(ctx, gin.H{"profile": profile, "progress": progress})
}

// Progress godoc
// @Summary 获取学习进度
// @Description 档案、进度以及最近的测验记录
// @Tags 学习档案
// @Produce  json
// @Security ApiKeyAuth
// @Success 200 {object} service.ProgressOverview
// @Failure 401 {object} util.ErrorResponse
// @Router /progress [get]
func (c *ProfileController) Progress(ctx *gin.Context) {
	overview, err := c.UserService.GetProgress(ctx.Request.Context(), util.GetUserIDFromContext(ctx))
	if err != nil {
		util.ErrorFromService(ctx, err, "Failed to get progress")
		return
	}

	util.Success(ctx, overview)
}
