package repository

import (
	"context"
	"lingua_backend/internal/model"
	"lingua_backend/pkg/kvstore"
)

type ProgressRepository struct {
	Store kvstore.Store
}

func NewProgressRepository(store kvstore.Store) *ProgressRepository {
	return &ProgressRepository{Store: store}
}

// Reset 写入空进度，入门时调用
func (r *ProgressRepository) Reset(ctx context.Context, userID string) error {
	return setJSON(ctx, r.Store, ProgressKey(userID), model.NewProgress())
}

func (r *ProgressRepository) FindByUserID(ctx context.Context, userID string) (*model.Progress, error) {
	return getJSON[model.Progress](ctx, r.Store, ProgressKey(userID))
}

func (r *ProgressRepository) Update(ctx context.Context, userID string, fn func(*model.Progress) error) (*model.Progress, error) {
	return updateJSON(ctx, r.Store, ProgressKey(userID), fn)
}
