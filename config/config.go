// Package config loads application configuration from environment
// variables with sensible development defaults.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Environment represents the application environment.
type Environment string

const (
	EnvDevelopment Environment = "development"
	EnvStaging     Environment = "staging"
	EnvProduction  Environment = "production"
)

// Config holds all application configuration.
type Config struct {
	App           AppConfig
	Database      DatabaseConfig
	Redis         RedisConfig
	HTTP          HTTPConfig
	Auth          AuthConfig
	Tips          TipsConfig
	Usage         UsageConfig
	Scheduler     SchedulerConfig
	Features      *FeatureFlags
	Observability ObservabilityConfig
}

// AppConfig holds general application settings.
type AppConfig struct {
	Name        string
	Environment Environment
	Debug       bool
	Version     string

	// Timezone controls the daily quota day boundary and scheduled jobs.
	Timezone string
	Location *time.Location

	ShutdownTimeout time.Duration
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	// URL is the full connection string. Built from DB_* parts when
	// unset.
	URL string

	MaxConns        int
	MinConns        int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
	QueryTimeout    time.Duration
}

// RedisConfig holds Redis connection settings.
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int

	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration

	// Disabled runs the app without the snapshot cache.
	Disabled bool
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Host           string
	Port           int
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
	EnableCORS     bool
	AllowedOrigins []string
	SessionCookie  string

	// RateLimitPerMinute caps requests per client IP. 0 disables it.
	RateLimitPerMinute int
}

// AuthConfig holds authentication settings.
type AuthConfig struct {
	SessionTTL    time.Duration
	ActionCodeTTL time.Duration
	BcryptCost    int
}

// TipsConfig holds the premium tip generator settings.
type TipsConfig struct {
	// APIKey enables the premium generator. Empty runs fallback-only.
	APIKey      string
	APIURL      string
	Model       string
	MaxTokens   int
	Temperature float64
	Timeout     time.Duration
}

// UsageConfig holds the daily quota settings.
type UsageConfig struct {
	UserDailyLimit   int64
	GlobalDailyLimit int64
}

// SchedulerConfig holds maintenance job settings.
type SchedulerConfig struct {
	Enabled       bool
	RunAt         string
	RetentionDays int
}

// ObservabilityConfig holds logging settings.
type ObservabilityConfig struct {
	LogLevel  string
	LogFormat string // "json" or "text"
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{
		App:           loadAppConfig(),
		Database:      loadDatabaseConfig(),
		Redis:         loadRedisConfig(),
		HTTP:          loadHTTPConfig(),
		Auth:          loadAuthConfig(),
		Tips:          loadTipsConfig(),
		Usage:         loadUsageConfig(),
		Scheduler:     loadSchedulerConfig(),
		Features:      LoadFeatureFlags(),
		Observability: loadObservabilityConfig(),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}
	return cfg, nil
}

func loadAppConfig() AppConfig {
	timezone := getEnv("APP_TIMEZONE", "UTC")
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		loc = time.UTC
	}

	return AppConfig{
		Name:            getEnv("APP_NAME", "study-hub"),
		Environment:     Environment(getEnv("APP_ENV", "development")),
		Debug:           getEnvBool("APP_DEBUG", false),
		Version:         getEnv("APP_VERSION", "dev"),
		Timezone:        timezone,
		Location:        loc,
		ShutdownTimeout: getEnvDuration("APP_SHUTDOWN_TIMEOUT", 30*time.Second),
	}
}

func loadDatabaseConfig() DatabaseConfig {
	url := getEnv("DATABASE_URL", "")
	if url == "" {
		host := getEnv("DB_HOST", "")
		port := getEnv("DB_PORT", "5432")
		user := getEnv("DB_USER", "")
		pass := getEnv("DB_PASSWORD", "")
		name := getEnv("DB_NAME", "studyhub")
		sslmode := getEnv("DB_SSLMODE", "disable")

		if host != "" && user != "" {
			url = fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
				user, pass, host, port, name, sslmode)
		}
	}

	return DatabaseConfig{
		URL:             url,
		MaxConns:        getEnvInt("DB_MAX_CONNS", 25),
		MinConns:        getEnvInt("DB_MIN_CONNS", 5),
		ConnMaxLifetime: getEnvDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute),
		ConnMaxIdleTime: getEnvDuration("DB_CONN_MAX_IDLE_TIME", time.Minute),
		QueryTimeout:    getEnvDuration("DB_QUERY_TIMEOUT", 30*time.Second),
	}
}

func loadRedisConfig() RedisConfig {
	return RedisConfig{
		Host:         getEnv("REDIS_HOST", "localhost"),
		Port:         getEnvInt("REDIS_PORT", 6379),
		Password:     getEnv("REDIS_PASSWORD", ""),
		DB:           getEnvInt("REDIS_DB", 0),
		PoolSize:     getEnvInt("REDIS_POOL_SIZE", 10),
		MinIdleConns: getEnvInt("REDIS_MIN_IDLE_CONNS", 2),
		DialTimeout:  getEnvDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
		ReadTimeout:  getEnvDuration("REDIS_READ_TIMEOUT", 3*time.Second),
		WriteTimeout: getEnvDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		Disabled:     getEnvBool("REDIS_DISABLED", false),
	}
}

func loadHTTPConfig() HTTPConfig {
	return HTTPConfig{
		Host:           getEnv("HTTP_HOST", "0.0.0.0"),
		Port:           getEnvInt("HTTP_PORT", 8080),
		ReadTimeout:    getEnvDuration("HTTP_READ_TIMEOUT", 15*time.Second),
		WriteTimeout:   getEnvDuration("HTTP_WRITE_TIMEOUT", 15*time.Second),
		IdleTimeout:    getEnvDuration("HTTP_IDLE_TIMEOUT", 60*time.Second),
		EnableCORS:     getEnvBool("HTTP_ENABLE_CORS", true),
		AllowedOrigins: getEnvStringSlice("HTTP_ALLOWED_ORIGINS", []string{"*"}),
		SessionCookie:  getEnv("HTTP_SESSION_COOKIE", "session"),

		RateLimitPerMinute: getEnvInt("HTTP_RATE_LIMIT_PER_MINUTE", 100),
	}
}

func loadAuthConfig() AuthConfig {
	return AuthConfig{
		SessionTTL:    getEnvDuration("AUTH_SESSION_TTL", 30*24*time.Hour),
		ActionCodeTTL: getEnvDuration("AUTH_ACTION_CODE_TTL", time.Hour),
		BcryptCost:    getEnvInt("AUTH_BCRYPT_COST", 10),
	}
}

func loadTipsConfig() TipsConfig {
	return TipsConfig{
		APIKey:      getEnv("TIPS_API_KEY", ""),
		APIURL:      getEnv("TIPS_API_URL", "https://api.openai.com/v1/chat/completions"),
		Model:       getEnv("TIPS_MODEL", "gpt-3.5-turbo"),
		MaxTokens:   getEnvInt("TIPS_MAX_TOKENS", 120),
		Temperature: getEnvFloat("TIPS_TEMPERATURE", 0.7),
		Timeout:     getEnvDuration("TIPS_TIMEOUT", 6*time.Second),
	}
}

func loadUsageConfig() UsageConfig {
	return UsageConfig{
		UserDailyLimit:   int64(getEnvInt("USAGE_USER_DAILY_LIMIT", 5)),
		GlobalDailyLimit: int64(getEnvInt("USAGE_GLOBAL_DAILY_LIMIT", 1000)),
	}
}

func loadSchedulerConfig() SchedulerConfig {
	return SchedulerConfig{
		Enabled:       getEnvBool("SCHEDULER_ENABLED", true),
		RunAt:         getEnv("SCHEDULER_RUN_AT", "03:30"),
		RetentionDays: getEnvInt("SCHEDULER_RETENTION_DAYS", 30),
	}
}

func loadObservabilityConfig() ObservabilityConfig {
	return ObservabilityConfig{
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	var errs []string

	if c.App.Environment == EnvProduction && c.Database.URL == "" {
		errs = append(errs, "DATABASE_URL is required in production")
	}
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		errs = append(errs, "HTTP_PORT must be 1-65535")
	}
	if c.Usage.UserDailyLimit <= 0 {
		errs = append(errs, "USAGE_USER_DAILY_LIMIT must be positive")
	}
	if c.Usage.GlobalDailyLimit < c.Usage.UserDailyLimit {
		errs = append(errs, "USAGE_GLOBAL_DAILY_LIMIT must be at least the per-user limit")
	}
	if c.Auth.BcryptCost < 4 || c.Auth.BcryptCost > 31 {
		errs = append(errs, "AUTH_BCRYPT_COST must be 4-31")
	}
	if c.Scheduler.RunAt != "" {
		if _, err := time.Parse("15:04", c.Scheduler.RunAt); err != nil {
			errs = append(errs, "SCHEDULER_RUN_AT must be HH:MM")
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.App.Environment == EnvDevelopment
}

// IsProduction returns true if running in production mode.
func (c *Config) IsProduction() bool {
	return c.App.Environment == EnvProduction
}

// --- Helper functions for environment variable parsing ---

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		return defaultVal
	}
	return b
}

func getEnvInt(key string, defaultVal int) int {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return i
}

func getEnvFloat(key string, defaultVal float64) float64 {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	f, err := strconv.ParseFloat(val, 64)
	if err != nil {
		return defaultVal
	}
	return f
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return defaultVal
	}
	return d
}

func getEnvStringSlice(key string, defaultVal []string) []string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	parts := strings.Split(val, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			result = append(result, p)
		}
	}
	if len(result) == 0 {
		return defaultVal
	}
	return result
}
