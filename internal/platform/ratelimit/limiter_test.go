package ratelimit

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/go-redis/redismock/v9"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

// setupTestRedis creates a miniredis instance for testing.
func setupTestRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return client, mr
}

func TestLimiter_Allow(t *testing.T) {
	client, mr := setupTestRedis(t)
	l := NewLimiter(client, "login", 2, time.Minute)
	ctx := context.Background()

	for i := 1; i <= 2; i++ {
		res, err := l.Allow(ctx, "1.2.3.4")
		require.NoError(t, err)
		assert.True(t, res.Allowed, "request %d should pass", i)
	}

	res, err := l.Allow(ctx, "1.2.3.4")
	require.NoError(t, err)
	assert.False(t, res.Allowed)
	assert.Equal(t, int64(3), res.Count)
	assert.Greater(t, res.RetryAfter, time.Duration(0))

	// 別キーは独立してカウントされる
	res, err = l.Allow(ctx, "5.6.7.8")
	require.NoError(t, err)
	assert.True(t, res.Allowed)

	assert.Equal(t, time.Minute, mr.TTL("ratelimit:login:1.2.3.4"))

	// ウィンドウ経過後はリセットされる
	mr.FastForward(time.Minute + time.Second)
	res, err = l.Allow(ctx, "1.2.3.4")
	require.NoError(t, err)
	assert.True(t, res.Allowed)
	assert.Equal(t, int64(1), res.Count)
}

func TestLimiter_Disabled(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		l    *Limiter
	}{
		{"nil limiter", nil},
		{"nil client", NewLimiter(nil, "x", 5, time.Minute)},
		{"zero limit", NewLimiter(redis.NewClient(&redis.Options{Addr: "127.0.0.1:0"}), "x", 0, time.Minute)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			res, err := tt.l.Allow(context.Background(), "k")
			assert.NoError(t, err)
			assert.True(t, res.Allowed)
		})
	}
}

func TestLimiter_RedisError(t *testing.T) {
	db, mock := redismock.NewClientMock()
	mock.ExpectIncr("ratelimit:analyze:7").SetErr(errors.New("connection refused"))

	l := NewLimiter(db, "analyze", 5, time.Minute)
	_, err := l.Allow(context.Background(), "7")

	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLimiter_ExpireSetOnFirstHitOnly(t *testing.T) {
	db, mock := redismock.NewClientMock()
	mock.ExpectIncr("ratelimit:p:k").SetVal(1)
	mock.ExpectExpire("ratelimit:p:k", 30*time.Second).SetVal(true)
	mock.ExpectIncr("ratelimit:p:k").SetVal(2)
	mock.ExpectTTL("ratelimit:p:k").SetVal(29 * time.Second)

	l := NewLimiter(db, "p", 5, 30*time.Second)
	_, err := l.Allow(context.Background(), "k")
	require.NoError(t, err)
	_, err = l.Allow(context.Background(), "k")
	require.NoError(t, err)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLimiter_ExpireFailureRecovers(t *testing.T) {
	db, mock := redismock.NewClientMock()
	mock.ExpectIncr("ratelimit:p:k").SetVal(1)
	mock.ExpectExpire("ratelimit:p:k", 30*time.Second).SetErr(errors.New("timeout"))
	// キーはTTLなしで残っている
	mock.ExpectIncr("ratelimit:p:k").SetVal(2)
	mock.ExpectTTL("ratelimit:p:k").SetVal(-1)
	mock.ExpectExpire("ratelimit:p:k", 30*time.Second).SetVal(true)

	l := NewLimiter(db, "p", 1, 30*time.Second)
	_, err := l.Allow(context.Background(), "k")
	require.Error(t, err)

	res, err := l.Allow(context.Background(), "k")
	require.NoError(t, err)
	assert.False(t, res.Allowed)
	assert.Equal(t, 30*time.Second, res.RetryAfter)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLimiter_KeyWithoutTTLExpires(t *testing.T) {
	client, mr := setupTestRedis(t)
	// EXPIREに失敗した後の状態を再現する
	require.NoError(t, mr.Set("ratelimit:login:1.2.3.4", "5"))
	l := NewLimiter(client, "login", 2, time.Minute)

	res, err := l.Allow(context.Background(), "1.2.3.4")
	require.NoError(t, err)
	assert.False(t, res.Allowed)
	assert.Equal(t, time.Minute, mr.TTL("ratelimit:login:1.2.3.4"))

	mr.FastForward(time.Minute + time.Second)
	res, err = l.Allow(context.Background(), "1.2.3.4")
	require.NoError(t, err)
	assert.True(t, res.Allowed)
}

func TestMiddleware(t *testing.T) {
	client, _ := setupTestRedis(t)
	l := NewLimiter(client, "mw", 1, time.Minute)

	r := gin.New()
	r.GET("/", Middleware(l, ByClientIP), func(c *gin.Context) { c.Status(http.StatusOK) })

	do := func() *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		r.ServeHTTP(w, req)
		return w
	}

	assert.Equal(t, http.StatusOK, do().Code)

	w := do()
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.JSONEq(t, `{"error":"too many requests"}`, w.Body.String())
	assert.Equal(t, "60", w.Header().Get("Retry-After"))
}

func TestMiddleware_FailOpenOnRedisError(t *testing.T) {
	db, mock := redismock.NewClientMock()
	mock.ExpectIncr("ratelimit:mw:10.0.0.1").SetErr(errors.New("down"))

	r := gin.New()
	r.GET("/", Middleware(NewLimiter(db, "mw", 1, time.Minute), ByClientIP), func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.1:1234"
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestMiddleware_EmptyKeySkips(t *testing.T) {
	client, _ := setupTestRedis(t)
	l := NewLimiter(client, "mw", 1, time.Minute)

	r := gin.New()
	r.GET("/", Middleware(l, func(*gin.Context) string { return "" }), func(c *gin.Context) { c.Status(http.StatusOK) })

	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusOK, w.Code)
	}
}
