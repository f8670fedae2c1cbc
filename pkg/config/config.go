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

// Supported database/sql driver names.
const (
	DriverPQ  = "postgres"
	DriverPGX = "pgx"
)

// Slot intersection modes for group courses.
const (
	IntersectionExact   = "exact"
	IntersectionContain = "contain"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Database      DatabaseConfig
	Redis         RedisConfig
	Cache         CacheConfig
	JWT           JWTConfig
	CORS          CORSConfig
	Log           LogConfig
	Scheduling    SchedulingConfig
	RateLimit     RateLimitConfig
	Notifications NotificationConfig
	Payments      PaymentConfig
}

type DatabaseConfig struct {
	Driver         string
	Host           string
	Port           int
	User           string
	Password       string
	Name           string
	SSLMode        string
	MaxOpenConns   int
	MaxIdleConns   int
	MigrateOnBoot  bool
	MigrationTable string
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// CacheConfig toggles Redis backed caching of availability reads and enrollment intents.
type CacheConfig struct {
	Enabled         bool
	AvailabilityTTL time.Duration
}

type JWTConfig struct {
	Secret string
	Issuer string
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// SchedulingConfig governs slot resolution and session projection.
type SchedulingConfig struct {
	Timezone            string
	SessionCount        int
	IntentTTL           time.Duration
	DefaultSessionStart string
	PlaceholderLeadDays int
	IntersectionMode    string
}

// Location resolves the configured timezone, falling back to the process local zone.
func (s SchedulingConfig) Location() *time.Location {
	if s.Timezone == "" || strings.EqualFold(s.Timezone, "local") {
		return time.Local
	}
	loc, err := time.LoadLocation(s.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}

// RateLimitConfig throttles write endpoints per client IP.
type RateLimitConfig struct {
	RequestsPerSecond float64
	Burst             int
}

// NotificationConfig wires outbound notification sinks.
type NotificationConfig struct {
	SendGridAPIKey string
	FromName       string
	FromEmail      string
	Workers        int
	MaxRetries     int
	RetryDelay     time.Duration
}

// PaymentConfig configures payment link issuance.
type PaymentConfig struct {
	StripeSecretKey string
	StripePriceID   string
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

	driver := strings.ToLower(v.GetString("DB_DRIVER"))
	if driver != DriverPGX {
		driver = DriverPQ
	}
	cfg.Database = DatabaseConfig{
		Driver:         driver,
		Host:           v.GetString("DB_HOST"),
		Port:           v.GetInt("DB_PORT"),
		User:           v.GetString("DB_USER"),
		Password:       v.GetString("DB_PASSWORD"),
		Name:           v.GetString("DB_NAME"),
		SSLMode:        v.GetString("DB_SSL_MODE"),
		MaxOpenConns:   v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns:   v.GetInt("DB_MAX_IDLE_CONNS"),
		MigrateOnBoot:  v.GetBool("DB_MIGRATE_ON_BOOT"),
		MigrationTable: v.GetString("DB_MIGRATION_TABLE"),
	}

	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.Cache = CacheConfig{
		Enabled:         v.GetBool("ENABLE_CACHE"),
		AvailabilityTTL: parseDuration(v.GetString("AVAILABILITY_CACHE_TTL"), 5*time.Minute),
	}

	cfg.JWT = JWTConfig{
		Secret: v.GetString("JWT_SECRET"),
		Issuer: v.GetString("JWT_ISSUER"),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	sessionCount := v.GetInt("ENROLLMENT_SESSION_COUNT")
	if sessionCount <= 0 {
		sessionCount = 4
	}
	mode := strings.ToLower(v.GetString("SLOT_INTERSECTION_MODE"))
	if mode != IntersectionContain {
		mode = IntersectionExact
	}
	cfg.Scheduling = SchedulingConfig{
		Timezone:            v.GetString("SCHEDULING_TIMEZONE"),
		SessionCount:        sessionCount,
		IntentTTL:           parseDuration(v.GetString("ENROLLMENT_INTENT_TTL"), 15*time.Minute),
		DefaultSessionStart: v.GetString("DEFAULT_SESSION_START"),
		PlaceholderLeadDays: v.GetInt("PLACEHOLDER_LEAD_DAYS"),
		IntersectionMode:    mode,
	}

	cfg.RateLimit = RateLimitConfig{
		RequestsPerSecond: v.GetFloat64("RATE_LIMIT_RPS"),
		Burst:             v.GetInt("RATE_LIMIT_BURST"),
	}

	cfg.Notifications = NotificationConfig{
		SendGridAPIKey: v.GetString("SENDGRID_API_KEY"),
		FromName:       v.GetString("MAIL_FROM_NAME"),
		FromEmail:      v.GetString("MAIL_FROM_EMAIL"),
		Workers:        v.GetInt("NOTIFY_WORKERS"),
		MaxRetries:     v.GetInt("NOTIFY_RETRIES"),
		RetryDelay:     parseDuration(v.GetString("NOTIFY_RETRY_DELAY"), 2*time.Second),
	}

	cfg.Payments = PaymentConfig{
		StripeSecretKey: v.GetString("STRIPE_SECRET_KEY"),
		StripePriceID:   v.GetString("STRIPE_PRICE_ID"),
	}

	return cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("DB_DRIVER", DriverPQ)
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "music_school")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)
	v.SetDefault("DB_MIGRATE_ON_BOOT", true)
	v.SetDefault("DB_MIGRATION_TABLE", "goose_db_version")

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("ENABLE_CACHE", false)
	v.SetDefault("AVAILABILITY_CACHE_TTL", "5m")

	v.SetDefault("JWT_SECRET", "dev_secret")
	v.SetDefault("JWT_ISSUER", "")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("SCHEDULING_TIMEZONE", "Local")
	v.SetDefault("ENROLLMENT_SESSION_COUNT", 4)
	v.SetDefault("ENROLLMENT_INTENT_TTL", "15m")
	v.SetDefault("DEFAULT_SESSION_START", "14:00")
	v.SetDefault("PLACEHOLDER_LEAD_DAYS", 7)
	v.SetDefault("SLOT_INTERSECTION_MODE", IntersectionExact)

	v.SetDefault("RATE_LIMIT_RPS", 5)
	v.SetDefault("RATE_LIMIT_BURST", 20)

	v.SetDefault("SENDGRID_API_KEY", "")
	v.SetDefault("MAIL_FROM_NAME", "Music School")
	v.SetDefault("MAIL_FROM_EMAIL", "no-reply@example.com")
	v.SetDefault("NOTIFY_WORKERS", 2)
	v.SetDefault("NOTIFY_RETRIES", 3)
	v.SetDefault("NOTIFY_RETRY_DELAY", "2s")

	v.SetDefault("STRIPE_SECRET_KEY", "")
	v.SetDefault("STRIPE_PRICE_ID", "")
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
