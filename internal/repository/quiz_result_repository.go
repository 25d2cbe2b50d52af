package repository

import (
	"context"
	"lingua_backend/internal/model"
	"lingua_backend/pkg/kvstore"
	"sort"
	"time"
)

type QuizResultRepository struct {
	Store kvstore.Store
}

func NewQuizResultRepository(store kvstore.Store) *QuizResultRepository {
	return &QuizResultRepository{Store: store}
}

func (r *QuizResultRepository) Create(ctx context.Context, result *model.QuizResult) (string, error) {
	return insertTimestamped(ctx, r.Store, &result.Timestamp, func(at time.Time) string {
		return QuizResultKey(result.UserID, at)
	}, result)
}

// ListRecent 按时间倒序返回最多 limit 条，limit <= 0 表示全部
func (r *QuizResultRepository) ListRecent(ctx context.Context, userID string, limit int) ([]model.QuizResult, error) {
	results, err := listJSON[model.QuizResult](ctx, r.Store, QuizResultPrefix(userID))
	if err != nil {
		return nil, err
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Timestamp.After(results[j].Timestamp)
	})

	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}
