package repository

import (
	"context"
	"encoding/json"
	"lingua_backend/internal/model"
	"lingua_backend/pkg/kvstore"
)

type AuthUserRepository struct {
	Store kvstore.Store
}

func NewAuthUserRepository(store kvstore.Store) *AuthUserRepository {
	return &AuthUserRepository{Store: store}
}

// Create 邮箱已注册时返回 kvstore.ErrExists
func (r *AuthUserRepository) Create(ctx context.Context, u *model.AuthUser) error {
	raw, err := json.Marshal(u)
	if err != nil {
		return err
	}
	return r.Store.Insert(ctx, AuthUserKey(u.Email), raw)
}

func (r *AuthUserRepository) FindByEmail(ctx context.Context, email string) (*model.AuthUser, error) {
	return getJSON[model.AuthUser](ctx, r.Store, AuthUserKey(email))
}
