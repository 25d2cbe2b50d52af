package repository

import (
	"context"
	"lingua_backend/internal/model"
	"lingua_backend/pkg/kvstore"
	"strings"
	"time"
)

type LessonRepository struct {
	Store kvstore.Store
}

func NewLessonRepository(store kvstore.Store) *LessonRepository {
	return &LessonRepository{Store: store}
}

// Create 保存课程并返回 lessonId，课程不会被覆盖
func (r *LessonRepository) Create(ctx context.Context, lesson *model.Lesson) (string, error) {
	return insertTimestamped(ctx, r.Store, &lesson.CreatedAt, func(at time.Time) string {
		return LessonKey(lesson.UserID, at)
	}, lesson)
}

func (r *LessonRepository) FindByID(ctx context.Context, lessonID string) (*model.Lesson, error) {
	if !strings.HasPrefix(lessonID, lessonPrefix) {
		return nil, kvstore.ErrNotFound
	}
	return getJSON[model.Lesson](ctx, r.Store, lessonID)
}

func (r *LessonRepository) ListByUser(ctx context.Context, userID string) ([]model.Lesson, error) {
	return listJSON[model.Lesson](ctx, r.Store, LessonPrefix(userID))
}
