package controller

import (
	"lingua_backend/internal/service"
	"lingua_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type AuthController struct {
	UserService *service.UserService
}

func NewAuthController(userService *service.UserService) *AuthController {
	return &AuthController{UserService: userService}
}

// SignupRequest 注册请求
type SignupRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

// LoginRequest 登录请求
type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Signup godoc
// @Summary 注册新用户
// @Description 创建账号并初始化学习档案
// @Tags 认证
// @Accept  json
// @Produce  json
// @Param   body body SignupRequest true "注册信息"
// @Success 200 {object} object "{user}"
// @Failure 400 {object} util.ErrorResponse "请求参数错误"
// @Failure 500 {object} util.ErrorResponse "服务器内部错误"
// @Router /signup [post]
func (c *AuthController) Signup(ctx *gin.Context) {
	var req SignupRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	user, err := c.UserService.SignUp(ctx.Request.Context(), req.Email, req.Password, req.Name)
	if err != nil {
		util.ErrorFromService(ctx, err, "Failed to sign up")
		return
	}

	util.Success(ctx, gin.H{"user": user})
}

// Login godoc
// @Summary 用户登录
// @Description 校验邮箱和密码，返回访问令牌
// @Tags 认证
// @Accept  json
// @Produce  json
// @Param   body body LoginRequest true "登录凭证"
// @Success 200 {object} service.Session
// @Failure 401 {object} util.ErrorResponse "邮箱或密码错误"
// @Router /login [post]
func (c *AuthController) Login(ctx *gin.Context) {
	var req LoginRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	session, err := c.UserService.SignIn(ctx.Request.Context(), req.Email, req.Password)
	if err != nil {
		util.ErrorFromService(ctx, err, "Failed to log in")
		return
	}

	util.Success(ctx, session)
}
