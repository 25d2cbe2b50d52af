package util

import (
	"errors"
	"lingua_backend/pkg/logger"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ErrorResponse 统一错误结构
type ErrorResponse struct {
	Error string `json:"error"`
}

func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, data)
}

func Error(c *gin.Context, code int, message string) {
	c.JSON(code, ErrorResponse{Error: message})
}

func Unauthorized(c *gin.Context) {
	Error(c, http.StatusUnauthorized, ErrUnauthorized.Error())
}

func BadRequest(c *gin.Context, message string) {
	Error(c, http.StatusBadRequest, message)
}

func NotFound(c *gin.Context, message string) {
	Error(c, http.StatusNotFound, message)
}

func InternalServerError(c *gin.Context, message string) {
	Error(c, http.StatusInternalServerError, message)
}

func LogInternalError(c *gin.Context, err error, message string) {
	logger.Log.Error("Internal server error",
		zap.String("path", c.FullPath()),
		zap.String("request_id", c.GetString(RequestIDKey)),
		zap.Error(err),
	)
	InternalServerError(c, message)
}

// ErrorFromService 将服务层错误映射为 HTTP 状态码，未知错误记录日志并返回 fallback
func ErrorFromService(c *gin.Context, err error, fallback string) {
	var validation *ValidationError
	var upstream *UpstreamError
	var parse *ParseError

	switch {
	case errors.Is(err, ErrUnauthorized), errors.Is(err, ErrInvalidCredentials):
		Error(c, http.StatusUnauthorized, err.Error())
	case errors.Is(err, ErrProfileNotFound), errors.Is(err, ErrLessonNotFound):
		NotFound(c, err.Error())
	case errors.As(err, &validation), errors.Is(err, ErrInvalidAnswers), errors.Is(err, ErrEmailRegistered):
		BadRequest(c, err.Error())
	case errors.As(err, &upstream):
		logger.Log.Warn("Upstream failure", zap.String("service", upstream.Service), zap.Int("status", upstream.Status), zap.Error(err))
		InternalServerError(c, fallback+": "+err.Error())
	case errors.As(err, &parse):
		logger.Log.Warn("Generated lesson is not valid JSON", zap.String("raw", parse.Raw), zap.Error(err))
		InternalServerError(c, fallback+": "+err.Error())
	case errors.Is(err, ErrEmptyQuiz), errors.Is(err, ErrMalformedLesson), errors.Is(err, ErrAIKeyMissing):
		logger.Log.Error("Lesson configuration error", zap.Error(err))
		InternalServerError(c, fallback+": "+err.Error())
	default:
		LogInternalError(c, err, fallback)
	}
}
