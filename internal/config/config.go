package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	AssetBackendLocal = "local"
	AssetBackendS3    = "s3"
)

// Config 服務啟動所需的所有設定，皆由環境變數載入
type Config struct {
	AppName string
	Env     string
	Port    string

	DatabaseURL string
	DBMaxConns  int32

	JWTSecret string
	JWTExpiry time.Duration

	AssetBackend      string
	UploadDir         string
	S3Bucket          string
	S3Region          string
	S3Endpoint        string
	S3AccessKeyID     string
	S3SecretAccessKey string

	// RedisAddr 為空時，限流改用行程內記憶體
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	AuthRateLimit  int
	AuthRateWindow time.Duration

	CORSAllowedOrigins []string
	ShutdownTimeout    time.Duration
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getint(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return i, nil
}

func getdur(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

// ParseDuration 支援 time.ParseDuration 的格式，另外接受以天為單位的 "7d"
func ParseDuration(s string) (time.Duration, error) {
	if days, ok := strings.CutSuffix(s, "d"); ok {
		n, err := strconv.Atoi(days)
		if err != nil || n < 0 {
			return 0, fmt.Errorf("invalid day duration %q", s)
		}
		return time.Duration(n) * 24 * time.Hour, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, err
	}
	if d < 0 {
		return 0, fmt.Errorf("negative duration %q", s)
	}
	return d, nil
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Load 讀取環境變數並檢查必要欄位
func Load() (*Config, error) {
	cfg := &Config{
		AppName:            getenv("APP_NAME", "post-management"),
		Env:                getenv("APP_ENV", "development"),
		Port:               getenv("PORT", "8080"),
		DatabaseURL:        os.Getenv("DATABASE_URL"),
		JWTSecret:          os.Getenv("JWT_SECRET"),
		AssetBackend:       strings.ToLower(getenv("ASSET_BACKEND", AssetBackendLocal)),
		UploadDir:          getenv("UPLOAD_DIR", "./uploads"),
		S3Bucket:           os.Getenv("S3_BUCKET"),
		S3Region:           getenv("S3_REGION", "auto"),
		S3Endpoint:         os.Getenv("S3_ENDPOINT"),
		S3AccessKeyID:      os.Getenv("S3_ACCESS_KEY_ID"),
		S3SecretAccessKey:  os.Getenv("S3_SECRET_ACCESS_KEY"),
		RedisAddr:          os.Getenv("REDIS_ADDR"),
		RedisPassword:      os.Getenv("REDIS_PASSWORD"),
		CORSAllowedOrigins: splitList(getenv("CORS_ALLOWED_ORIGINS", "*")),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is not set")
	}
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is not set")
	}

	maxConns, err := getint("DB_MAX_CONNS", 10)
	if err != nil {
		return nil, err
	}
	if maxConns <= 0 {
		return nil, fmt.Errorf("invalid DB_MAX_CONNS: must be positive")
	}
	cfg.DBMaxConns = int32(maxConns)

	if cfg.JWTExpiry, err = getdur("JWT_EXPIRY", 7*24*time.Hour); err != nil {
		return nil, err
	}
	if cfg.JWTExpiry == 0 {
		return nil, fmt.Errorf("invalid JWT_EXPIRY: must be positive")
	}
	if cfg.RedisDB, err = getint("REDIS_DB", 0); err != nil {
		return nil, err
	}
	if cfg.AuthRateLimit, err = getint("AUTH_RATE_LIMIT", 20); err != nil {
		return nil, err
	}
	if cfg.AuthRateWindow, err = getdur("AUTH_RATE_WINDOW", time.Minute); err != nil {
		return nil, err
	}
	if cfg.ShutdownTimeout, err = getdur("SHUTDOWN_TIMEOUT", 10*time.Second); err != nil {
		return nil, err
	}

	switch cfg.AssetBackend {
	case AssetBackendLocal:
	case AssetBackendS3:
		if cfg.S3Bucket == "" {
			return nil, fmt.Errorf("S3_BUCKET is required when ASSET_BACKEND=s3")
		}
	default:
		return nil, fmt.Errorf("invalid ASSET_BACKEND %q", cfg.AssetBackend)
	}

	return cfg, nil
}

// Addr 回傳 HTTP 監聽位址
func (c *Config) Addr() string {
	return ":" + c.Port
}

// IsDevelopment 判斷是否為開發環境
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}
