package controller

import (
	"lingua_backend/internal/service"
	"lingua_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type LessonController struct {
	LessonService *service.LessonService
	QuizService   *service.QuizService
}

func NewLessonController(lessonService *service.LessonService, quizService *service.QuizService) *LessonController {
	return &LessonController{LessonService: lessonService, QuizService: quizService}
}

// SubmitQuizRequest 测验答案，answers[i] 为第 i 题所选选项下标
type SubmitQuizRequest struct {
	LessonID string `json:"lessonId" binding:"required"`
	Answers  []int  `json:"answers"`
}

// GenerateLesson godoc
// @Summary 生成课程
// @Description 按当前阶段调用模型生成课程内容并保存
// @Tags 课程
// @Produce  json
// @Security ApiKeyAuth
// @Success 200 {object} object "{lessonId, lesson}"
// @Failure 404 {object} util.ErrorResponse "档案不存在"
// @Failure 500 {object} util.ErrorResponse "模型调用或解析失败"
// @Router /generate-lesson [post]
func (c *LessonController) GenerateLesson(ctx *gin.Context) {
	lessonID, lesson, err := c.LessonService.Generate(ctx.Request.Context(), util.GetUserIDFromContext(ctx))
	if err != nil {
		util.ErrorFromService(ctx, err, "Failed to generate lesson")
		return
	}

	util.Success(ctx, gin.H{"lessonId": lessonID, "lesson": lesson})
}

// SubmitQuiz godoc
// @Summary 提交测验
// @Description 评分并在通过时推进阶段
// @Tags 课程
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   body body SubmitQuizRequest true "课程 ID 与答案"
// @Success 200 {object} service.SubmitResult
// @Failure 400 {object} util.ErrorResponse
// @Failure 404 {object} util.ErrorResponse "课程不存在"
// @Router /submit-quiz [post]
func (c *LessonController) SubmitQuiz(ctx *gin.Context) {
	var req SubmitQuizRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	result, err := c.QuizService.Submit(ctx.Request.Context(), util.GetUserIDFromContext(ctx), req.LessonID, req.Answers)
	if err != nil {
		util.ErrorFromService(ctx, err, "Failed to submit quiz")
		return
	}

	util.Success(ctx, result)
}
