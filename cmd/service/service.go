package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"post-management/internal/apperror"
	"post-management/internal/asset"
	"post-management/internal/config"
	"post-management/internal/database"
	"post-management/internal/logging"
	"post-management/internal/ratelimit"
	"post-management/internal/router"
	"post-management/internal/service"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/sirupsen/logrus"

	_ "post-management/docs" // 引入 swag 產出的 docs
)

// 單檔上限 5MB 由 asset 檢查，這裡只擋明顯過大的請求
const bodyLimit = "10M"

// CustomValidator wraps go-playground/validator for Echo
// swagger:ignore
type CustomValidator struct {
	validator *validator.Validate
}

// Validate calls the underlying validator
func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}

var (
	loadDotenv      = func() error { return godotenv.Load() }
	newPgxPool      = database.NewPgxPool
	newRedisClient  = ratelimit.NewRedisClient
	newS3Client     = asset.NewS3Client
	runMigrationsFn = database.RunMigrations
	startServer     = func(e *echo.Echo, addr string) error { return e.Start(addr) }
	notifyContext   = signal.NotifyContext
)

func newAssetStore(ctx context.Context, cfg *config.Config) (asset.Store, error) {
	if cfg.AssetBackend == config.AssetBackendS3 {
		client, err := newS3Client(ctx, asset.S3Config{
			Bucket:          cfg.S3Bucket,
			Region:          cfg.S3Region,
			Endpoint:        cfg.S3Endpoint,
			AccessKeyID:     cfg.S3AccessKeyID,
			SecretAccessKey: cfg.S3SecretAccessKey,
		})
		if err != nil {
			return nil, err
		}
		return asset.NewS3Store(client, cfg.S3Bucket), nil
	}
	return asset.NewLocalStore(cfg.UploadDir)
}

func newEcho(cfg *config.Config, logger *logrus.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Debug = cfg.IsDevelopment()
	e.Validator = &CustomValidator{validator: validator.New()}
	e.HTTPErrorHandler = apperror.Handler(logger)

	e.Use(middleware.RequestID())
	e.Use(logging.RequestLogger(logger))
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: cfg.CORSAllowedOrigins,
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
	}))
	e.Use(middleware.BodyLimit(bodyLimit))
	return e
}

func run() error {
	// .env 不存在時直接使用環境變數
	if err := loadDotenv(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("讀取 .env 失敗: %w", err)
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("設定錯誤: %w", err)
	}
	logger := logging.NewLogger(cfg.AppName, cfg.Env)

	ctx, stop := notifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := newPgxPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns)
	if err != nil {
		return fmt.Errorf("DB 連線失敗: %w", err)
	}
	defer db.Close()

	if err := runMigrationsFn(cfg.DatabaseURL); err != nil {
		return fmt.Errorf("Migration 執行失敗: %w", err)
	}

	store, err := newAssetStore(ctx, cfg)
	if err != nil {
		return fmt.Errorf("檔案儲存初始化失敗: %w", err)
	}

	var rdb ratelimit.Client
	if cfg.RedisAddr != "" {
		rdb, err = newRedisClient(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			return fmt.Errorf("Redis 連線失敗: %w", err)
		}
		defer rdb.Close()
	} else {
		logger.Info("REDIS_ADDR not set, using in-memory rate limiting")
	}

	e := newEcho(cfg, logger)
	router.Setup(e, router.Deps{
		DB:             db,
		Redis:          rdb,
		Tokens:         service.NewTokenManager(cfg.JWTSecret, cfg.JWTExpiry),
		Assets:         asset.NewService(store),
		AuthRateLimit:  cfg.AuthRateLimit,
		AuthRateWindow: cfg.AuthRateWindow,
		Logger:         logger,
	})

	errCh := make(chan error, 1)
	go func() {
		logger.WithFields(logrus.Fields{"addr": cfg.Addr(), "asset_backend": cfg.AssetBackend}).Info("server starting")
		errCh <- startServer(e, cfg.Addr())
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server 啟動失敗: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server 關閉失敗: %w", err)
	}
	return nil
}
