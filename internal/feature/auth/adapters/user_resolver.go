package adapters

import (
	"context"
	"errors"

	"foodlog_backend/internal/feature/auth/usecase"
	jwtmw "foodlog_backend/internal/platform/jwt"
)

// userResolver は認証ミドルウェアにユーザーの存在確認を提供します。
type userResolver struct {
	users usecase.UserRepository
}

var _ jwtmw.UserResolver = (*userResolver)(nil)

// NewUserResolver はuserResolverの新しいインスタンスを生成します。
func NewUserResolver(users usecase.UserRepository) *userResolver {
	return &userResolver{users: users}
}

// ResolveUser はトークンのユーザーが現在も存在するか確認し、最新のメールアドレスを返します。
func (r *userResolver) ResolveUser(ctx context.Context, id uint) (string, error) {
	u, err := r.users.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, usecase.ErrUserNotFound) {
			return "", jwtmw.ErrUserGone
		}
		return "", err
	}
	return u.Email, nil
}
