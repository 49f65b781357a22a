package ratelimit

import (
	"log/slog"
	"math"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"foodlog_backend/internal/api"
)

// KeyFunc はリクエストから制限単位のキーを取り出します。空文字なら制限しません。
type KeyFunc func(c *gin.Context) string

// ByClientIP はクライアントIPをキーにします。
func ByClientIP(c *gin.Context) string {
	return c.ClientIP()
}

// Middleware は上限を超えたリクエストに429を返します。
// Redisが利用できない場合はリクエストを通します。
func Middleware(l *Limiter, keyFn KeyFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := keyFn(c)
		if key == "" {
			c.Next()
			return
		}

		res, err := l.Allow(c.Request.Context(), key)
		if err != nil {
			slog.Warn("rate limiter unavailable", "error", err, "remote_addr", c.ClientIP())
			c.Next()
			return
		}
		if !res.Allowed {
			secs := int(math.Ceil(res.RetryAfter.Seconds()))
			c.Header("Retry-After", strconv.Itoa(secs))
			slog.Warn("rate limit exceeded", "key", key, "count", res.Count, "limit", res.Limit, "remote_addr", c.ClientIP())
			c.AbortWithStatusJSON(http.StatusTooManyRequests, api.ErrorResponse{Error: api.MsgTooManyRequests})
			return
		}
		c.Next()
	}
}
