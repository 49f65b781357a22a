package jwtmw

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"foodlog_backend/internal/api"
)

// Context keys set by AuthRequired.
const (
	ContextUserID    = "userID"
	ContextUserEmail = "userEmail"
)

// ErrUserGone is returned by a UserResolver when the token's user no longer exists.
var ErrUserGone = errors.New("user no longer exists")

// UserResolver confirms that a token's user still exists and returns its current email.
type UserResolver interface {
	ResolveUser(ctx context.Context, id uint) (email string, err error)
}

// AuthRequired returns a Gin middleware function that validates bearer tokens,
// re-checks that the user still exists, and restricts access to authenticated users only.
func AuthRequired(v Verifier, users UserResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		// 1. Get Authorization header
		auth := c.GetHeader("Authorization")
		if !strings.HasPrefix(auth, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, api.ErrorResponse{Error: api.MsgUnauthorized})
			return
		}
		tokenStr := strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))

		// 2. Verify signature and expiry
		claims, err := v.VerifyToken(tokenStr)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, api.ErrorResponse{Error: api.MsgUnauthorized})
			return
		}

		// 3. Confirm the user still exists
		email, err := users.ResolveUser(c.Request.Context(), claims.UserID)
		if err != nil {
			if errors.Is(err, ErrUserGone) {
				slog.Warn("token for deleted user", "user_id", claims.UserID, "remote_addr", c.ClientIP())
				c.AbortWithStatusJSON(http.StatusUnauthorized, api.ErrorResponse{Error: api.MsgUnauthorized})
				return
			}
			slog.Error("failed to resolve token user", "error", err, "user_id", claims.UserID)
			c.AbortWithStatusJSON(http.StatusInternalServerError, api.ErrorResponse{Error: api.MsgInternalError})
			return
		}

		c.Set(ContextUserID, claims.UserID)
		c.Set(ContextUserEmail, email)
		c.Next()
	}
}

// UserIDFrom returns the authenticated user id stored by AuthRequired.
func UserIDFrom(c *gin.Context) (uint, bool) {
	v, ok := c.Get(ContextUserID)
	if !ok {
		return 0, false
	}
	id, ok := v.(uint)
	return id, ok && id != 0
}
