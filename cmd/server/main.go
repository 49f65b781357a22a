package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	redisv9 "github.com/redis/go-redis/v9"

	"foodlog_backend/internal/app/config"
	"foodlog_backend/internal/app/di"
	"foodlog_backend/internal/app/router"
	analysishandler "foodlog_backend/internal/feature/analysis/transport/handler"
	analysisusecase "foodlog_backend/internal/feature/analysis/usecase"
	authadapters "foodlog_backend/internal/feature/auth/adapters"
	"foodlog_backend/internal/feature/auth/domain/entity"
	authhandler "foodlog_backend/internal/feature/auth/transport/handler"
	authusecase "foodlog_backend/internal/feature/auth/usecase"
	foodentryadapters "foodlog_backend/internal/feature/foodentry/adapters"
	foodentryhandler "foodlog_backend/internal/feature/foodentry/transport/handler"
	foodentryusecase "foodlog_backend/internal/feature/foodentry/usecase"
	imagehandler "foodlog_backend/internal/feature/image/transport/handler"
	imageusecase "foodlog_backend/internal/feature/image/usecase"
	"foodlog_backend/internal/platform/db"
	"foodlog_backend/internal/platform/http/handler"
	jwtmw "foodlog_backend/internal/platform/jwt"
	"foodlog_backend/internal/platform/logging"
	"foodlog_backend/internal/platform/metrics"
	"foodlog_backend/internal/platform/ratelimit"
	infraredis "foodlog_backend/internal/platform/redis"
)

// shutdownTimeout は処理中リクエストの完了を待つ上限です。
const shutdownTimeout = 15 * time.Second

func main() {
	if err := run(); err != nil {
		slog.Error("server exited with error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// .envを読み込む
	config.LoadDotEnv()

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := logging.New(cfg.LogFormat, cfg.LogLevel)
	slog.SetDefault(logger)
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	loc, err := cfg.Location()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// db
	gdb, err := db.Open(db.Config{
		Driver:       cfg.DB.Driver,
		User:         cfg.DB.User,
		Password:     cfg.DB.Password,
		Name:         cfg.DB.Name,
		Host:         cfg.DB.Host,
		Port:         cfg.DB.Port,
		SSLMode:      cfg.DB.SSLMode,
		InstanceName: cfg.DB.InstanceName,
		SQLitePath:   cfg.DB.SQLitePath,
	}, cfg.DB.ConnectTimeout, cfg.DB.RunMigrations, &entity.User{}, &foodentryadapters.FoodEntryModel{})
	if err != nil {
		return err
	}
	sqlDB, err := gdb.DB()
	if err != nil {
		return err
	}
	defer func() {
		if err := sqlDB.Close(); err != nil {
			slog.Error("failed to close database", "error", err)
		}
	}()

	// Redis（任意）。未設定・接続失敗時はレート制限なしで起動する
	var rdb *redisv9.Client
	if cfg.Redis.Enabled() {
		if tmp, err := infraredis.NewRedisClient(ctx, cfg.Redis.Host, cfg.Redis.Port, cfg.Redis.Password); err != nil {
			slog.Warn("Redis unavailable. Running without rate limiting.")
		} else {
			rdb = tmp
			defer func() {
				if err := rdb.Close(); err != nil {
					slog.Error("Failed to close Redis client", "error", err)
				}
			}()
		}
	}

	m := metrics.New()
	if err := m.RegisterDBStats(sqlDB, cfg.DB.Driver); err != nil {
		slog.Warn("failed to register db stats collector", "error", err)
	}

	// Repository / 外部サービス
	userRepo := authadapters.NewUserGorm(gdb)
	foodRepo := foodentryadapters.NewFoodEntryRepository(gdb)
	store, reader, err := di.NewImageStorage(ctx, cfg.Storage)
	if err != nil {
		return err
	}
	model, err := di.NewVisionModel(ctx, cfg.Analysis)
	if err != nil {
		return err
	}
	hinter, closeHinter := di.NewLabelHinter(ctx, cfg.Analysis)
	defer func() {
		if err := closeHinter(); err != nil {
			slog.Warn("failed to close vision client", "error", err)
		}
	}()

	// Usecase
	authUC := authusecase.NewAuthUsecase(userRepo, jwtmw.NewGenerator(cfg.JWTSecret, cfg.JWTExpiration))
	imageUC := imageusecase.NewImageUsecase(store, reader, cfg.Storage.MaxUploadBytes)
	analysisUC := analysisusecase.NewAnalysisUsecase(model, cfg.Analysis.Provider, hinter, m)
	foodUC := foodentryusecase.NewFoodEntryUsecase(foodRepo, loc)

	// Handler
	checks := map[string]handler.Pinger{"database": handler.PingFunc(sqlDB.PingContext)}
	if rdb != nil {
		checks["redis"] = handler.PingFunc(func(ctx context.Context) error { return rdb.Ping(ctx).Err() })
	}
	handlers := router.Handlers{
		Health:    handler.NewHealthHandler(checks),
		Auth:      authhandler.NewAuthHandler(authUC),
		Image:     imagehandler.NewImageHandler(imageUC, cfg.Storage.PlaceholderOnMissing),
		Analysis:  analysishandler.NewAnalysisHandler(analysisUC),
		FoodEntry: foodentryhandler.NewFoodEntryHandler(foodUC),
	}

	opts := router.Options{
		Logger:      logger,
		Metrics:     m,
		CORSOrigins: cfg.CORSOrigins,
		Production:  cfg.IsProduction(),
		Verifier:    jwtmw.NewVerifier(cfg.JWTSecret),
		Users:       authadapters.NewUserResolver(userRepo),
	}
	if rdb != nil {
		opts.LoginLimiter = ratelimit.NewLimiter(rdb, "login", cfg.RateLimit.Login, cfg.RateLimit.Window)
		opts.AnalyzeLimiter = ratelimit.NewLimiter(rdb, "analyze", cfg.RateLimit.Analyze, cfg.RateLimit.Window)
	}

	// ルータ生成
	srv := &http.Server{
		Addr:              cfg.AppAddr,
		Handler:           router.NewRouter(handlers, opts),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       cfg.AppReadTimeout,
		WriteTimeout:      cfg.AppWriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server listening", "addr", cfg.AppAddr, "env", cfg.AppEnv)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	slog.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
