// Package ratelimit provides a Redis-backed fixed-window rate limiter shared by all server instances.
package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Result はAllowの判定結果です。
type Result struct {
	Allowed    bool
	Count      int64
	Limit      int
	RetryAfter time.Duration
}

// Limiter はキー単位でウィンドウ内のリクエスト数を数えます。
type Limiter struct {
	client redis.Cmdable
	prefix string
	limit  int
	window time.Duration
}

// NewLimiter は新しいLimiterを生成します。limit <= 0 の場合は常に許可します。
func NewLimiter(client redis.Cmdable, prefix string, limit int, window time.Duration) *Limiter {
	if window <= 0 {
		window = time.Minute
	}
	return &Limiter{client: client, prefix: prefix, limit: limit, window: window}
}

func (l *Limiter) key(id string) string {
	return fmt.Sprintf("ratelimit:%s:%s", l.prefix, id)
}

// Allow はidのカウンタを1つ進め、上限以内なら許可します。
func (l *Limiter) Allow(ctx context.Context, id string) (Result, error) {
	if l == nil || l.client == nil || l.limit <= 0 {
		return Result{Allowed: true}, nil
	}

	key := l.key(id)
	count, err := l.client.Incr(ctx, key).Result()
	if err != nil {
		return Result{}, fmt.Errorf("ratelimit incr: %w", err)
	}
	// 最初のリクエストでウィンドウを開始する
	if count == 1 {
		if err := l.client.Expire(ctx, key, l.window).Err(); err != nil {
			return Result{}, fmt.Errorf("ratelimit expire: %w", err)
		}
		return Result{Allowed: count <= int64(l.limit), Count: count, Limit: l.limit}, nil
	}

	// 前回のEXPIREが失敗していた場合、TTLのないキーが残るのでここで張り直す
	ttl, err := l.client.TTL(ctx, key).Result()
	if err == nil && ttl == -1 {
		if err := l.client.Expire(ctx, key, l.window).Err(); err != nil {
			return Result{}, fmt.Errorf("ratelimit expire: %w", err)
		}
		ttl = l.window
	}

	res := Result{Allowed: count <= int64(l.limit), Count: count, Limit: l.limit}
	if !res.Allowed {
		if err != nil || ttl <= 0 {
			ttl = l.window
		}
		res.RetryAfter = ttl
	}
	return res, nil
}
