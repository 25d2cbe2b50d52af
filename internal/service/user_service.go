package service

import (
	"context"
	"errors"
	"lingua_backend/internal/model"
	"lingua_backend/internal/repository"
	"lingua_backend/internal/util"
	"lingua_backend/pkg/kvstore"
	"lingua_backend/pkg/logger"
	"time"

	"go.uber.org/zap"
)

// 入门时可选的自评水平
const (
	LevelNone        = "none"
	LevelBeginner    = "beginner"
	LevelLowBeginner = "low-beginner"
)

func validLevel(level string) bool {
	switch level {
	case LevelNone, LevelBeginner, LevelLowBeginner:
		return true
	}
	return false
}

// ProgressOverview 进度页数据
type ProgressOverview struct {
	Profile       *model.Profile     `json:"profile"`
	Progress      *model.Progress    `json:"progress"`
	RecentQuizzes []model.QuizResult `json:"recentQuizzes"`
}

// UserService 注册、入门以及资料查询
type UserService struct {
	Auth         AuthProvider
	ProfileRepo  *repository.ProfileRepository
	ProgressRepo *repository.ProgressRepository
	QuizRepo     *repository.QuizResultRepository
	now          func() time.Time
}

func NewUserService(
	auth AuthProvider,
	profileRepo *repository.ProfileRepository,
	progressRepo *repository.ProgressRepository,
	quizRepo *repository.QuizResultRepository,
) *UserService {
	return &UserService{
		Auth:         auth,
		ProfileRepo:  profileRepo,
		ProgressRepo: progressRepo,
		QuizRepo:     quizRepo,
		now:          time.Now,
	}
}

// SignUp 创建账号及初始 profile。进度在入门时创建。
func (s *UserService) SignUp(ctx context.Context, email, password, name string) (*model.User, error) {
	user, err := s.Auth.SignUp(ctx, email, password, name)
	if err != nil {
		return nil, err
	}

	profile := model.NewProfile(user.ID, name, email, s.now())
	if err := s.ProfileRepo.Create(ctx, profile); err != nil {
		return nil, err
	}

	logger.Log.Info("User signed up", zap.String("user_id", user.ID))
	return user, nil
}

func (s *UserService) SignIn(ctx context.Context, email, password string) (*Session, error) {
	return s.Auth.SignIn(ctx, email, password)
}

// Onboard 写入自评水平（profile 存在时），并将进度重置为空
func (s *UserService) Onboard(ctx context.Context, userID, level string) error {
	if !validLevel(level) {
		return util.NewValidationError("level must be one of %s, %s, %s", LevelNone, LevelBeginner, LevelLowBeginner)
	}

	_, err := s.ProfileRepo.Update(ctx, userID, func(p *model.Profile) error {
		lvl := level
		p.Level = &lvl
		return nil
	})
	if err != nil && !errors.Is(err, kvstore.ErrNotFound) {
		return err
	}

	return s.ProgressRepo.Reset(ctx, userID)
}

// GetProfile 记录不存在时对应返回值为 nil
func (s *UserService) GetProfile(ctx context.Context, userID string) (*model.Profile, *model.Progress, error) {
	profile, err := s.ProfileRepo.FindByUserID(ctx, userID)
	if err != nil && !errors.Is(err, kvstore.ErrNotFound) {
		return nil, nil, err
	}

	progress, err := s.ProgressRepo.FindByUserID(ctx, userID)
	if err != nil && !errors.Is(err, kvstore.ErrNotFound) {
		return nil, nil, err
	}

	return profile, progress, nil
}

func (s *UserService) GetProgress(ctx context.Context, userID string) (*ProgressOverview, error) {
	profile, progress, err := s.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}

	recent, err := s.QuizRepo.ListRecent(ctx, userID, util.RecentQuizLimit)
	if err != nil {
		return nil, err
	}

	return &ProgressOverview{Profile: profile, Progress: progress, RecentQuizzes: recent}, nil
}
