package service

import (
	"context"
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

// SubmitResult 测验提交的返回，NewStage 在没有 profile 时为 null
type SubmitResult struct {
	Score    float64                `json:"score"`
	Results  []model.QuestionResult `json:"results"`
	Passed   bool                   `json:"passed"`
	NewStage *int                   `json:"newStage"`
}

// QuizService 评分、保存测验记录并推进学习进度
type QuizService struct {
	ProfileRepo  *repository.ProfileRepository
	ProgressRepo *repository.ProgressRepository
	LessonRepo   *repository.LessonRepository
	QuizRepo     *repository.QuizResultRepository
	MaxStage     int
	now          func() time.Time
}

func NewQuizService(
	profileRepo *repository.ProfileRepository,
	progressRepo *repository.ProgressRepository,
	lessonRepo *repository.LessonRepository,
	quizRepo *repository.QuizResultRepository,
	maxStage int,
) *QuizService {
	return &QuizService{
		ProfileRepo:  profileRepo,
		ProgressRepo: progressRepo,
		LessonRepo:   lessonRepo,
		QuizRepo:     quizRepo,
		MaxStage:     maxStage,
		now:          time.Now,
	}
}

func (s *QuizService) Submit(ctx context.Context, userID, lessonID string, answers []int) (*SubmitResult, error) {
	lesson, err := s.LessonRepo.FindByID(ctx, lessonID)
	if err != nil {
		return nil, notFoundAs(err, util.ErrLessonNotFound)
	}
	// 不能提交其他用户的课程
	if lesson.UserID != userID {
		return nil, util.ErrLessonNotFound
	}

	quiz, err := lesson.Quiz()
	if err != nil {
		return nil, quizError(err)
	}
	grade, err := GradeQuiz(quiz, answers)
	if err != nil {
		return nil, err
	}

	now := s.now()
	if _, err := s.QuizRepo.Create(ctx, &model.QuizResult{
		UserID:    userID,
		LessonID:  lessonID,
		Score:     grade.Score,
		Answers:   answers,
		Results:   grade.Results,
		Timestamp: now,
	}); err != nil {
		return nil, err
	}
	monitoring.QuizSubmissions.WithLabelValues(strconv.FormatBool(grade.Passed)).Inc()

	newStage, err := s.advance(ctx, userID, lessonID, lesson.Words(), grade, now)
	if err != nil {
		return nil, err
	}

	logger.Log.Info("Quiz submitted",
		zap.String("user_id", userID),
		zap.String("lesson_id", lessonID),
		zap.Float64("score", grade.Score),
		zap.Bool("passed", grade.Passed),
	)

	return &SubmitResult{
		Score:    grade.Score,
		Results:  grade.Results,
		Passed:   grade.Passed,
		NewStage: newStage,
	}, nil
}

// advance 仅当 profile 和 progress 都存在时更新，两条记录各自原子更新。
// 返回提交后的阶段，没有 profile 时为 nil。
func (s *QuizService) advance(ctx context.Context, userID, lessonID string, words []string, grade *Grade, now time.Time) (*int, error) {
	profile, err := s.ProfileRepo.FindByUserID(ctx, userID)
	if errors.Is(err, kvstore.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	stage := profile.CurrentStage
	if _, err := s.ProgressRepo.FindByUserID(ctx, userID); err != nil {
		if errors.Is(err, kvstore.ErrNotFound) {
			return &stage, nil
		}
		return nil, err
	}

	updated, err := s.ProfileRepo.Update(ctx, userID, func(p *model.Profile) error {
		ApplyToProfile(p, grade.Score, grade.Passed, s.MaxStage)
		return nil
	})
	if err != nil {
		return nil, err
	}
	stage = updated.CurrentStage

	_, err = s.ProgressRepo.Update(ctx, userID, func(pr *model.Progress) error {
		ApplyToProgress(pr, lessonID, words, grade, now)
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &stage, nil
}
