// Package config loads runtime configuration from environment variables.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Storage backends selectable with STORAGE_BACKEND.
const (
	StorageLocal = "local"
	StorageS3    = "s3"
)

// Analysis providers selectable with ANALYSIS_PROVIDER.
const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
)

// Config holds runtime configuration for the server.
type Config struct {
	AppEnv          string        `envconfig:"APP_ENV" default:"development"`
	AppAddr         string        `envconfig:"APP_ADDR" default:":8080"`
	AppReadTimeout  time.Duration `envconfig:"APP_READ_TIMEOUT" default:"15s"`
	AppWriteTimeout time.Duration `envconfig:"APP_WRITE_TIMEOUT" default:"60s"`
	LogFormat       string        `envconfig:"LOG_FORMAT" default:"text"`
	LogLevel        string        `envconfig:"LOG_LEVEL" default:"info"`
	CORSOrigins     []string      `envconfig:"CORS_ALLOWED_ORIGINS" default:"http://localhost:3000"`
	// Timezone is used to resolve calendar days for the food-entry date filter.
	Timezone string `envconfig:"TIMEZONE" default:"Local"`

	DB DBConfig

	JWTSecret     string        `envconfig:"JWT_SECRET" required:"true"`
	JWTExpiration time.Duration `envconfig:"JWT_EXPIRATION" default:"168h"`

	Redis     RedisConfig
	RateLimit RateLimitConfig
	Storage   StorageConfig
	Analysis  AnalysisConfig
}

// DBConfig holds database connection settings.
type DBConfig struct {
	Driver         string        `envconfig:"DB_DRIVER" default:"sqlite"`
	Host           string        `envconfig:"DB_HOST" default:"localhost"`
	Port           string        `envconfig:"DB_PORT"`
	User           string        `envconfig:"DB_USER"`
	Password       string        `envconfig:"DB_PASSWORD"`
	Name           string        `envconfig:"DB_NAME" default:"foodlog"`
	SSLMode        string        `envconfig:"DB_SSLMODE" default:"disable"`
	InstanceName   string        `envconfig:"INSTANCE_CONNECTION_NAME"`
	SQLitePath     string        `envconfig:"SQLITE_PATH" default:"./foodlog.db"`
	ConnectTimeout time.Duration `envconfig:"DB_CONNECT_TIMEOUT" default:"60s"`
	RunMigrations  bool          `envconfig:"RUN_MIGRATIONS" default:"true"`
}

// RedisConfig holds the optional Redis connection used for rate limiting.
type RedisConfig struct {
	Host     string `envconfig:"REDIS_HOST"`
	Port     string `envconfig:"REDIS_PORT" default:"6379"`
	Password string `envconfig:"REDIS_PASSWORD"`
}

// Enabled reports whether a Redis host was configured.
func (r RedisConfig) Enabled() bool {
	return r.Host != ""
}

// RateLimitConfig defines per-window request budgets. A limit of 0 disables the limiter.
type RateLimitConfig struct {
	Login   int           `envconfig:"LOGIN_RATE_LIMIT" default:"10"`
	Analyze int           `envconfig:"ANALYZE_RATE_LIMIT" default:"20"`
	Window  time.Duration `envconfig:"RATE_LIMIT_WINDOW" default:"1m"`
}

// StorageConfig selects and configures the image storage backend.
type StorageConfig struct {
	Backend              string `envconfig:"STORAGE_BACKEND" default:"local"`
	UploadDir            string `envconfig:"UPLOAD_DIR" default:"./private/uploads"`
	PlaceholderOnMissing bool   `envconfig:"IMAGE_PLACEHOLDER_ON_MISSING" default:"true"`
	MaxUploadBytes       int64  `envconfig:"MAX_UPLOAD_BYTES" default:"10485760"`

	S3Bucket          string `envconfig:"S3_BUCKET"`
	S3Region          string `envconfig:"S3_REGION" default:"us-east-1"`
	S3Endpoint        string `envconfig:"S3_ENDPOINT"`
	S3AccessKeyID     string `envconfig:"S3_ACCESS_KEY_ID"`
	S3SecretAccessKey string `envconfig:"S3_SECRET_ACCESS_KEY"`
	S3PublicBaseURL   string `envconfig:"S3_PUBLIC_BASE_URL"`
	S3UsePathStyle    bool   `envconfig:"S3_USE_PATH_STYLE" default:"false"`
	S3PublicACL       bool   `envconfig:"S3_PUBLIC_ACL" default:"false"`
}

// AnalysisConfig configures the external vision model.
type AnalysisConfig struct {
	Provider        string        `envconfig:"ANALYSIS_PROVIDER" default:"gemini"`
	GeminiAPIKey    string        `envconfig:"GEMINI_API_KEY"`
	GeminiModel     string        `envconfig:"GEMINI_MODEL" default:"gemini-2.5-flash"`
	OpenAIAPIKey    string        `envconfig:"OPENAI_API_KEY"`
	OpenAIBaseURL   string        `envconfig:"OPENAI_BASE_URL" default:"https://api.openai.com"`
	OpenAIModel     string        `envconfig:"OPENAI_MODEL" default:"gpt-4o"`
	Timeout         time.Duration `envconfig:"ANALYSIS_TIMEOUT" default:"60s"`
	MaxOutputTokens int32         `envconfig:"ANALYSIS_MAX_OUTPUT_TOKENS" default:"1000"`
	VisionHints     bool          `envconfig:"ANALYSIS_VISION_HINTS" default:"false"`
}

// LoadDotEnv は.envファイルが存在すれば環境変数に読み込みます。
func LoadDotEnv(paths ...string) {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err == nil {
			slog.Info("loaded env file", "path", p)
			return
		}
	}
	slog.Info(".env not found; using system environment variables")
}

// Load reads configuration from environment variables and validates it.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks cross-field constraints that struct tags cannot express.
func (c *Config) Validate() error {
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET must be provided")
	}
	if c.JWTExpiration <= 0 {
		return errors.New("JWT_EXPIRATION must be positive")
	}
	switch c.Storage.Backend {
	case StorageLocal:
	case StorageS3:
		if c.Storage.S3Bucket == "" {
			return errors.New("S3_BUCKET must be provided when STORAGE_BACKEND=s3")
		}
	default:
		return fmt.Errorf("unknown STORAGE_BACKEND %q", c.Storage.Backend)
	}
	switch c.Analysis.Provider {
	case ProviderGemini:
	case ProviderOpenAI:
		if c.Analysis.OpenAIAPIKey == "" {
			return errors.New("OPENAI_API_KEY must be provided when ANALYSIS_PROVIDER=openai")
		}
	default:
		return fmt.Errorf("unknown ANALYSIS_PROVIDER %q", c.Analysis.Provider)
	}
	if _, err := c.Location(); err != nil {
		return fmt.Errorf("invalid TIMEZONE %q: %w", c.Timezone, err)
	}
	return nil
}

// Location resolves the configured timezone.
func (c *Config) Location() (*time.Location, error) {
	return time.LoadLocation(c.Timezone)
}

// IsProduction returns true when the application runs in production.
func (c *Config) IsProduction() bool {
	return c != nil && c.AppEnv == "production"
}
