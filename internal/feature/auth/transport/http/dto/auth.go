// Package dto はauthフィーチャーのHTTPトランスポート層のデータ転送オブジェクトを定義します。
package dto

import (
	"time"

	"foodlog_backend/internal/feature/auth/domain/entity"
)

// SignupReq は/signupエンドポイントのリクエストボディを表します。
type SignupReq struct {
	Email    string  `json:"email" binding:"required,email"`
	Password string  `json:"password" binding:"required,min=6,max=72"`
	Name     *string `json:"name"`
}

// LoginReq は/loginエンドポイントのリクエストボディを表します。
type LoginReq struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// UserRes is the public projection of a user. The password hash is never included.
type UserRes struct {
	ID        uint      `json:"id"`
	Email     string    `json:"email"`
	Name      *string   `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}

// AuthRes is returned by signup and login.
type AuthRes struct {
	User  UserRes `json:"user"`
	Token string  `json:"token"`
}

// MeRes is returned by /me.
type MeRes struct {
	User UserRes `json:"user"`
}

// NewUserRes はエンティティを公開用レスポンスに変換します。
func NewUserRes(u *entity.User) UserRes {
	return UserRes{ID: u.ID, Email: u.Email, Name: u.Name, CreatedAt: u.CreatedAt}
}
