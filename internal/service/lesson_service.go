package service

import (
	"context"
	"encoding/json"
	"errors"
	"lingua_backend/internal/model"
	"lingua_backend/internal/repository"
	"lingua_backend/internal/util"
	"lingua_backend/pkg/kvstore"
	"lingua_backend/pkg/logger"
	"lingua_backend/pkg/monitoring"
	"strconv"
	"time"

	"go.uber.org/zap"
)

// LessonService 按当前阶段生成课程并保存
type LessonService struct {
	ProfileRepo  *repository.ProfileRepository
	ProgressRepo *repository.ProgressRepository
	LessonRepo   *repository.LessonRepository
	Generator    TextGenerator
	Curriculum   *Curriculum
	Archive      *ArchiveService
	now          func() time.Time
}

func NewLessonService(
	profileRepo *repository.ProfileRepository,
	progressRepo *repository.ProgressRepository,
	lessonRepo *repository.LessonRepository,
	generator TextGenerator,
	curriculum *Curriculum,
	archive *ArchiveService,
) *LessonService {
	return &LessonService{
		ProfileRepo:  profileRepo,
		ProgressRepo: progressRepo,
		LessonRepo:   lessonRepo,
		Generator:    generator,
		Curriculum:   curriculum,
		Archive:      archive,
		now:          time.Now,
	}
}

// Generate 返回 lessonId 和模型生成的课程 JSON
func (s *LessonService) Generate(ctx context.Context, userID string) (string, json.RawMessage, error) {
	profile, err := s.ProfileRepo.FindByUserID(ctx, userID)
	if err != nil {
		return "", nil, notFoundAs(err, util.ErrProfileNotFound)
	}
	progress, err := s.ProgressRepo.FindByUserID(ctx, userID)
	if err != nil {
		return "", nil, notFoundAs(err, util.ErrProfileNotFound)
	}

	stage := profile.CurrentStage
	stageLabel := strconv.Itoa(stage)
	prompt := s.Curriculum.Prompt(stage, progress.WordsLearned, progress.Mistakes)

	logger.Log.Info("Generating lesson", zap.String("user_id", userID), zap.Int("stage", stage))
	text, err := s.Generator.Generate(ctx, prompt)
	if err != nil {
		monitoring.LessonsGenerated.WithLabelValues(stageLabel, "upstream_error").Inc()
		return "", nil, err
	}
	logger.Log.Debug("Raw AI response", zap.String("text", text))

	content, err := parseLessonContent(text)
	if err != nil {
		monitoring.LessonsGenerated.WithLabelValues(stageLabel, "parse_error").Inc()
		return "", nil, err
	}

	lesson := &model.Lesson{
		UserID:    userID,
		Stage:     stage,
		Content:   content,
		CreatedAt: s.now(),
	}
	lessonID, err := s.LessonRepo.Create(ctx, lesson)
	if err != nil {
		monitoring.LessonsGenerated.WithLabelValues(stageLabel, "store_error").Inc()
		return "", nil, err
	}
	monitoring.LessonsGenerated.WithLabelValues(stageLabel, "ok").Inc()

	// 归档失败不影响本次请求
	if s.Archive.Enabled() {
		if _, err := s.Archive.ArchiveLesson(ctx, lessonID, lesson); err != nil {
			logger.Log.Warn("Failed to archive lesson", zap.String("lesson_id", lessonID), zap.Error(err))
		}
	}

	logger.Log.Info("Lesson generated", zap.String("lesson_id", lessonID), zap.Int("stage", stage))
	return lessonID, content, nil
}

// parseLessonContent 去掉代码块标记后解析，结果必须是 JSON 对象
func parseLessonContent(text string) (json.RawMessage, error) {
	cleaned := StripCodeFences(text)

	var obj map[string]json.RawMessage
	if err := json.Unmarshal([]byte(cleaned), &obj); err != nil {
		return nil, &util.ParseError{Raw: cleaned, Err: err}
	}
	return json.RawMessage(cleaned), nil
}

func notFoundAs(err, target error) error {
	if errors.Is(err, kvstore.ErrNotFound) {
		return target
	}
	return err
}
