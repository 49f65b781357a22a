package router

import (
	"log/slog"
	"net/http"
	"slices"
	"strconv"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/unrolled/secure"

	analysishandler "foodlog_backend/internal/feature/analysis/transport/handler"
	authhandler "foodlog_backend/internal/feature/auth/transport/handler"
	foodentryhandler "foodlog_backend/internal/feature/foodentry/transport/handler"
	imagehandler "foodlog_backend/internal/feature/image/transport/handler"
	"foodlog_backend/internal/platform/http/handler"
	jwtmw "foodlog_backend/internal/platform/jwt"
	"foodlog_backend/internal/platform/logging"
	"foodlog_backend/internal/platform/metrics"
	"foodlog_backend/internal/platform/ratelimit"
)

// defaultMaxBodyBytes はJSON/multipartリクエスト本文の上限です（base64画像を含む）。
const defaultMaxBodyBytes = 16 << 20

// Handlers はルーティング対象のハンドラー群です。
type Handlers struct {
	Health    *handler.HealthHandler
	Auth      *authhandler.AuthHandler
	Image     *imagehandler.ImageHandler
	Analysis  *analysishandler.AnalysisHandler
	FoodEntry *foodentryhandler.FoodEntryHandler
}

// Options はミドルウェアの設定です。nilのリミッターとメトリクスは無効として扱われます。
type Options struct {
	Logger         *slog.Logger
	Metrics        *metrics.Metrics
	CORSOrigins    []string
	Production     bool
	Verifier       jwtmw.Verifier
	Users          jwtmw.UserResolver
	LoginLimiter   *ratelimit.Limiter
	AnalyzeLimiter *ratelimit.Limiter
	MaxBodyBytes   int64
}

// byUserID は認証済みユーザーIDをレート制限のキーにします。
func byUserID(c *gin.Context) string {
	id, ok := jwtmw.UserIDFrom(c)
	if !ok {
		return ""
	}
	return strconv.FormatUint(uint64(id), 10)
}

// bodyLimit はリクエスト本文をn bytesに制限します。
func bodyLimit(n int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, n)
		}
		c.Next()
	}
}

// secureHeaders はunrolled/secureをginミドルウェアとして適用します。
func secureHeaders(production bool) gin.HandlerFunc {
	s := secure.New(secure.Options{
		FrameDeny:          true,
		ContentTypeNosniff: true,
		BrowserXssFilter:   true,
		ReferrerPolicy:     "strict-origin-when-cross-origin",
		SSLRedirect:        production,
		SSLProxyHeaders:    map[string]string{"X-Forwarded-Proto": "https"},
		STSSeconds:         31536000,
		IsDevelopment:      !production,
	})
	return func(c *gin.Context) {
		if err := s.Process(c.Writer, c.Request); err != nil {
			c.Abort()
			return
		}
		// リダイレクト済みなら後続を実行しない
		if status := c.Writer.Status(); status > 300 && status < 399 {
			c.Abort()
		}
	}
}

// corsConfig は許可オリジンからCORS設定を組み立てます。"*"は全オリジン許可です。
func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{http.MethodGet, http.MethodPost, http.MethodHead, http.MethodOptions},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders: []string{"Retry-After"},
		MaxAge:        12 * time.Hour,
	}
	if slices.Contains(origins, "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	return cfg
}

// NewRouter はginエンジンにミドルウェアとルートを登録します。
func NewRouter(h Handlers, o Options) *gin.Engine {
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	if o.MaxBodyBytes <= 0 {
		o.MaxBodyBytes = defaultMaxBodyBytes
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(logging.RequestLogger(o.Logger))
	r.Use(o.Metrics.Middleware())
	r.Use(secureHeaders(o.Production))
	if len(o.CORSOrigins) > 0 {
		r.Use(cors.New(corsConfig(o.CORSOrigins)))
	}

	// 認証不要
	// 導通確認用
	r.GET("/healthz", h.Health.Health)
	r.HEAD("/healthz", h.Health.Health)
	r.GET("/readyz", h.Health.Ready)
	r.GET("/metrics", o.Metrics.Handler())

	api := r.Group("/api")
	api.Use(bodyLimit(o.MaxBodyBytes))
	{
		// 新規ユーザー登録
		api.POST("/auth/signup", h.Auth.Signup)
		// ログイン（JWT 発行）
		api.POST("/auth/login", ratelimit.Middleware(o.LoginLimiter, ratelimit.ByClientIP), h.Auth.Login)
		// 保存済み画像（<img>から参照されるため認証不要）
		api.GET("/images/:filename", h.Image.Serve)
	}

	// 認証必須のルート
	// → リクエストヘッダーに JWT が必要になる
	auth := api.Group("")
	auth.Use(jwtmw.AuthRequired(o.Verifier, o.Users))
	{
		auth.GET("/auth/me", h.Auth.Me)
		auth.POST("/upload-image", h.Image.Upload)
		auth.POST("/analyze-food", ratelimit.Middleware(o.AnalyzeLimiter, byUserID), h.Analysis.AnalyzeFood)
		auth.GET("/food-entries", h.FoodEntry.List)
		auth.POST("/food-entries", h.FoodEntry.Create)
		auth.GET("/food-entries/summary", h.FoodEntry.Summary)
	}

	return r
}
