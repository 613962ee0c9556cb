package config

import (
	"errors"
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

	Database    DatabaseConfig
	Redis       RedisConfig
	JWT         JWTConfig
	CORS        CORSConfig
	Log         LogConfig
	Cache       CacheConfig
	Exams       ExamConfig
	Wallet      WalletConfig
	AntiForgery AntiForgeryConfig
	InFlight    InFlightConfig
	Locale      LocaleConfig
	Metrics     MetricsConfig
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
	Secret            string
	Issuer            string
	Expiration        time.Duration
	RefreshExpiration time.Duration
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// CacheConfig tunes the Redis-backed lookup cache (subjects per year).
type CacheConfig struct {
	Enabled     bool
	SubjectsTTL time.Duration
}

// ExamConfig holds the countdown thresholds and auto-submit worker sizing.
type ExamConfig struct {
	WarningThreshold  time.Duration
	CriticalThreshold time.Duration
	PassPercentage    float64
	AutoSubmitWorkers int
	AutoSubmitRetries int
}

// WalletConfig controls expiry bucketing of wallet exam rows.
type WalletConfig struct {
	ExpiringWithinDays int
}

// AntiForgeryConfig governs the token required on state-changing requests.
type AntiForgeryConfig struct {
	Enabled    bool
	Secret     string
	HeaderName string
	TTL        time.Duration
}

// InFlightConfig controls the per-action duplicate request guard.
type InFlightConfig struct {
	Enabled bool
	TTL     time.Duration
}

// LocaleConfig lists the cultures the formatter can serve.
type LocaleConfig struct {
	Default   string
	Supported []string
	Currency  string
}

// MetricsConfig toggles the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool
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
		if !errors.As(err, &notFound) && !isMissingFile(err) {
			return nil, err
		}
	}

	return fromViper(v), nil
}

func fromViper(v *viper.Viper) *Config {
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
		Enabled:  v.GetBool("ENABLE_REDIS"),
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.JWT = JWTConfig{
		Secret:            v.GetString("JWT_SECRET"),
		Issuer:            v.GetString("JWT_ISSUER"),
		Expiration:        parseDuration(v.GetString("JWT_EXPIRATION"), 24*time.Hour),
		RefreshExpiration: parseDuration(v.GetString("REFRESH_TOKEN_EXPIRATION"), 7*24*time.Hour),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Cache = CacheConfig{
		Enabled:     v.GetBool("ENABLE_CACHE"),
		SubjectsTTL: parseDuration(v.GetString("SUBJECTS_CACHE_TTL"), 15*time.Minute),
	}

	pass := v.GetFloat64("EXAM_PASS_PERCENTAGE")
	if pass <= 0 || pass > 100 {
		pass = 50
	}
	cfg.Exams = ExamConfig{
		WarningThreshold:  parseDuration(v.GetString("EXAM_WARNING_THRESHOLD"), 5*time.Minute),
		CriticalThreshold: parseDuration(v.GetString("EXAM_CRITICAL_THRESHOLD"), time.Minute),
		PassPercentage:    pass,
		AutoSubmitWorkers: v.GetInt("EXAM_AUTOSUBMIT_WORKERS"),
		AutoSubmitRetries: v.GetInt("EXAM_AUTOSUBMIT_RETRIES"),
	}

	cfg.Wallet = WalletConfig{ExpiringWithinDays: v.GetInt("WALLET_EXPIRING_WITHIN_DAYS")}

	cfg.AntiForgery = AntiForgeryConfig{
		Enabled:    v.GetBool("ENABLE_ANTIFORGERY"),
		Secret:     v.GetString("ANTIFORGERY_SECRET"),
		HeaderName: v.GetString("ANTIFORGERY_HEADER"),
		TTL:        parseDuration(v.GetString("ANTIFORGERY_TTL"), 12*time.Hour),
	}

	cfg.InFlight = InFlightConfig{
		Enabled: v.GetBool("ENABLE_INFLIGHT_GUARD"),
		TTL:     parseDuration(v.GetString("INFLIGHT_TTL"), 30*time.Second),
	}

	cfg.Locale = LocaleConfig{
		Default:   v.GetString("DEFAULT_CULTURE"),
		Supported: splitAndTrim(v.GetString("SUPPORTED_CULTURES")),
		Currency:  v.GetString("DEFAULT_CURRENCY"),
	}

	cfg.Metrics = MetricsConfig{Enabled: v.GetBool("ENABLE_METRICS")}

	return cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "edu_center")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("ENABLE_REDIS", true)
	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("JWT_SECRET", "dev_secret")
	v.SetDefault("JWT_ISSUER", "edu-center-api")
	v.SetDefault("JWT_EXPIRATION", "24h")
	v.SetDefault("REFRESH_TOKEN_EXPIRATION", "168h")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("ENABLE_CACHE", true)
	v.SetDefault("SUBJECTS_CACHE_TTL", "15m")

	v.SetDefault("EXAM_WARNING_THRESHOLD", "5m")
	v.SetDefault("EXAM_CRITICAL_THRESHOLD", "1m")
	v.SetDefault("EXAM_PASS_PERCENTAGE", 50)
	v.SetDefault("EXAM_AUTOSUBMIT_WORKERS", 2)
	v.SetDefault("EXAM_AUTOSUBMIT_RETRIES", 3)

	v.SetDefault("WALLET_EXPIRING_WITHIN_DAYS", 7)

	v.SetDefault("ENABLE_ANTIFORGERY", true)
	v.SetDefault("ANTIFORGERY_SECRET", "dev_antiforgery_secret")
	v.SetDefault("ANTIFORGERY_HEADER", "RequestVerificationToken")
	v.SetDefault("ANTIFORGERY_TTL", "12h")

	v.SetDefault("ENABLE_INFLIGHT_GUARD", true)
	v.SetDefault("INFLIGHT_TTL", "30s")

	v.SetDefault("DEFAULT_CULTURE", "en-US")
	v.SetDefault("SUPPORTED_CULTURES", "en-US,ar-EG")
	v.SetDefault("DEFAULT_CURRENCY", "EGP")

	v.SetDefault("ENABLE_METRICS", true)
}

func isMissingFile(err error) bool {
	return strings.Contains(err.Error(), "no such file or directory")
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
