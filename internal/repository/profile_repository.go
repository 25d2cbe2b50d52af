package repository

import (
	"context"
	"lingua_backend/internal/model"
	"lingua_backend/pkg/kvstore"
)

type ProfileRepository struct {
	Store kvstore.Store
}

func NewProfileRepository(store kvstore.Store) *ProfileRepository {
	return &ProfileRepository{Store: store}
}

func (r *ProfileRepository) Create(ctx context.Context, p *model.Profile) error {
	return setJSON(ctx, r.Store, ProfileKey(p.UserID), p)
}

func (r *ProfileRepository) FindByUserID(ctx context.Context, userID string) (*model.Profile, error) {
	return getJSON[model.Profile](ctx, r.Store, ProfileKey(userID))
}

func (r *ProfileRepository) Update(ctx context.Context, userID string, fn func(*model.Profile) error) (*model.Profile, error) {
	return updateJSON(ctx, r.Store, ProfileKey(userID), fn)
}
