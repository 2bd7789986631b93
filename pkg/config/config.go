package config

import (
	"errors"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Database   DatabaseConfig
	Redis      RedisConfig
	JWT        JWTConfig
	CORS       CORSConfig
	Log        LogConfig
	Pipeline   PipelineConfig
	Automation AutomationConfig
	Exports    ExportsConfig
}

type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
}

type JWTConfig struct {
	Secret string
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// PipelineConfig tunes listing, caching and bulk behaviour of the recruiting pipeline.
type PipelineConfig struct {
	DefaultLimit    int
	MaxLimit        int
	BulkConcurrency int
	CacheEnabled    bool
	CacheTTL        time.Duration
}

// AutomationConfig controls how pipeline events reach the automation subsystem.
type AutomationConfig struct {
	Async        bool
	Workers      int
	BufferSize   int
	MaxRetries   int
	RetryDelay   time.Duration
	Stream       string
	StreamMaxLen int64
}

// ExportsConfig gates the CSV/PDF pipeline export endpoint.
type ExportsConfig struct {
	Enabled bool
	MaxRows int
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.Database = DatabaseConfig{
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
	}

	cfg.Redis = RedisConfig{
		Enabled:  v.GetBool("REDIS_ENABLED"),
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.JWT = JWTConfig{Secret: v.GetString("JWT_SECRET")}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Pipeline = PipelineConfig{
		DefaultLimit:    positiveOr(v.GetInt("PIPELINE_DEFAULT_LIMIT"), 50),
		MaxLimit:        positiveOr(v.GetInt("PIPELINE_MAX_LIMIT"), 500),
		BulkConcurrency: positiveOr(v.GetInt("PIPELINE_BULK_CONCURRENCY"), 1),
		CacheEnabled:    v.GetBool("PIPELINE_CACHE_ENABLED"),
		CacheTTL:        parseDuration(v.GetString("PIPELINE_CACHE_TTL"), 2*time.Minute),
	}

	cfg.Automation = AutomationConfig{
		Async:        v.GetBool("AUTOMATION_ASYNC"),
		Workers:      positiveOr(v.GetInt("AUTOMATION_WORKERS"), 2),
		BufferSize:   positiveOr(v.GetInt("AUTOMATION_BUFFER_SIZE"), 256),
		MaxRetries:   positiveOr(v.GetInt("AUTOMATION_MAX_RETRIES"), 3),
		RetryDelay:   parseDuration(v.GetString("AUTOMATION_RETRY_DELAY"), time.Second),
		Stream:       v.GetString("AUTOMATION_STREAM"),
		StreamMaxLen: v.GetInt64("AUTOMATION_STREAM_MAXLEN"),
	}

	cfg.Exports = ExportsConfig{
		Enabled: v.GetBool("ENABLE_EXPORTS"),
		MaxRows: positiveOr(v.GetInt("EXPORT_MAX_ROWS"), 1000),
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "recruiting_crm")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_ENABLED", false)
	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("JWT_SECRET", "dev_secret")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("PIPELINE_DEFAULT_LIMIT", 50)
	v.SetDefault("PIPELINE_MAX_LIMIT", 500)
	v.SetDefault("PIPELINE_BULK_CONCURRENCY", 1)
	v.SetDefault("PIPELINE_CACHE_ENABLED", false)
	v.SetDefault("PIPELINE_CACHE_TTL", "2m")

	v.SetDefault("AUTOMATION_ASYNC", true)
	v.SetDefault("AUTOMATION_WORKERS", 2)
	v.SetDefault("AUTOMATION_BUFFER_SIZE", 256)
	v.SetDefault("AUTOMATION_MAX_RETRIES", 3)
	v.SetDefault("AUTOMATION_RETRY_DELAY", "1s")
	v.SetDefault("AUTOMATION_STREAM", "automation:events")
	v.SetDefault("AUTOMATION_STREAM_MAXLEN", 100000)

	v.SetDefault("ENABLE_EXPORTS", false)
	v.SetDefault("EXPORT_MAX_ROWS", 1000)
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func positiveOr(value, fallback int) int {
	if value <= 0 {
		return fallback
	}
	return value
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
