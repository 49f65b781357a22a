// Package handler はauthフィーチャーのHTTPハンドラーを提供します。
package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"foodlog_backend/internal/api"
	"foodlog_backend/internal/feature/auth/domain/entity"
	"foodlog_backend/internal/feature/auth/transport/http/dto"
	"foodlog_backend/internal/feature/auth/usecase"
	jwtmw "foodlog_backend/internal/platform/jwt"
)

// AuthUsecase は認証操作のユースケースを定義します。
// インターフェースはプロバイダー（usecase）ではなくコンシューマー（handler）が定義します。
type AuthUsecase interface {
	Signup(ctx context.Context, email, password string, name *string) (*entity.User, string, error)
	Login(ctx context.Context, email, password string) (*entity.User, string, error)
	Me(ctx context.Context, userID uint) (*entity.User, error)
}

// AuthHandler は認証操作のHTTPリクエストを処理します。
type AuthHandler struct {
	auth AuthUsecase
}

// NewAuthHandler はAuthHandlerの新しいインスタンスを生成します。
func NewAuthHandler(auth AuthUsecase) *AuthHandler {
	return &AuthHandler{auth: auth}
}

// Signup はユーザー登録APIエンドポイントを処理します。
//   - バリデーションエラー時は400
//   - メール重複時は409
//   - 成功時は201で {user, token}
func (h *AuthHandler) Signup(c *gin.Context) {
	var req dto.SignupReq
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.Warn("signup validation failed", "error", err, "remote_addr", c.ClientIP())
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "valid email and a password of at least 6 characters are required"})
		return
	}

	user, token, err := h.auth.Signup(c.Request.Context(), req.Email, req.Password, req.Name)
	if err != nil {
		switch {
		case errors.Is(err, usecase.ErrEmailAlreadyExists):
			slog.Warn("signup rejected: duplicate email", "remote_addr", c.ClientIP())
			c.JSON(http.StatusConflict, api.ErrorResponse{Error: "email already registered"})
		case errors.Is(err, usecase.ErrPasswordTooLong):
			slog.Warn("signup validation failed", "error", err, "remote_addr", c.ClientIP())
			c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: usecase.ErrPasswordTooLong.Error()})
		case errors.Is(err, usecase.ErrWeakPassword), errors.Is(err, usecase.ErrInvalidEmail):
			slog.Warn("signup validation failed", "error", err, "remote_addr", c.ClientIP())
			c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "valid email and a password of at least 6 characters are required"})
		default:
			slog.Error("signup failed", "error", err, "remote_addr", c.ClientIP())
			c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: api.MsgInternalError})
		}
		return
	}

	slog.Info("user signup successful", "user_id", user.ID, "remote_addr", c.ClientIP())
	c.JSON(http.StatusCreated, dto.AuthRes{User: dto.NewUserRes(user), Token: token})
}

// Login はユーザーログインAPIエンドポイントを処理します。
// ユーザー列挙攻撃を防止するため、認証失敗の理由は公開しません。
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginReq
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.Warn("login validation failed", "error", err, "remote_addr", c.ClientIP())
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "email and password are required"})
		return
	}

	user, token, err := h.auth.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, usecase.ErrInvalidCredentials) {
			slog.Warn("login failed", "remote_addr", c.ClientIP())
			c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "invalid email or password"})
			return
		}
		slog.Error("login error", "error", err, "remote_addr", c.ClientIP())
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: api.MsgInternalError})
		return
	}

	slog.Info("user login successful", "user_id", user.ID, "remote_addr", c.ClientIP())
	c.JSON(http.StatusOK, dto.AuthRes{User: dto.NewUserRes(user), Token: token})
}

// Me は認証済みユーザーの情報を返します。AuthRequiredの後段で使用します。
func (h *AuthHandler) Me(c *gin.Context) {
	userID, ok := jwtmw.UserIDFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: api.MsgUnauthorized})
		return
	}

	user, err := h.auth.Me(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, usecase.ErrUserNotFound) {
			c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: api.MsgUnauthorized})
			return
		}
		slog.Error("me lookup failed", "error", err, "user_id", userID, "remote_addr", c.ClientIP())
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: api.MsgInternalError})
		return
	}

	c.JSON(http.StatusOK, dto.MeRes{User: dto.NewUserRes(user)})
}
