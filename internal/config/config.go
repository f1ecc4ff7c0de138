package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config aggregates runtime configuration for the service.
type Config struct {
	App          AppConfig
	Postgres     PostgresConfig
	Redis        RedisConfig
	Logger       LoggerConfig
	Auth         AuthConfig
	Token        TokenConfig
	Stream       StreamConfig
	Notification NotificationConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string
	Env                   string
	Host                  string
	Port                  string
	Version               string
	PublicBaseURL         string
	RequestTimeoutSeconds int
}

// PostgresConfig holds DB connection values.
type PostgresConfig struct {
	DSN            string
	MaxConns       int32
	MinConns       int32
	RunMigrations  bool
	ConnMaxIdleSec int32
	ConnMaxLifeSec int32
}

// RedisConfig holds Redis connection values.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string
}

// AuthConfig defines session authentication parameters.
type AuthConfig struct {
	JWTSecret             string
	AccessTokenTTLMinutes int
	BcryptCost            int
}

// TokenConfig defines the purpose-bound token secret and TTLs. The secret is
// mandatory: the service refuses to start rather than issue unsigned action
// tokens.
type TokenConfig struct {
	Secret                    string
	PasswordResetTTLHours     int
	ReservationCancelTTLHours int
}

// StreamConfig bounds SSE subscriber behavior.
type StreamConfig struct {
	KeepAliveSeconds    int
	WriteTimeoutMillis  int
	SubscriberQueueSize int
}

// NotificationConfig holds delivery provider endpoints and retry budgets.
type NotificationConfig struct {
	EmailProviderURL  string
	EmailAPIKey       string
	EmailFrom         string
	PushProviderURL   string
	EmailMaxAttempts  int
	EmailBackoffMilli int
}

// ErrMissingTokenSecret signals the fail-closed startup check.
var ErrMissingTokenSecret = errors.New("TOKEN_SECRET is required")

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	tokenSecret := os.Getenv("TOKEN_SECRET")
	if tokenSecret == "" {
		return nil, ErrMissingTokenSecret
	}

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "reservation-service"),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "8080"),
			Version:               getEnv("APP_VERSION", "dev"),
			PublicBaseURL:         getEnv("APP_PUBLIC_BASE_URL", "http://localhost:8080"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
		},
		Postgres: PostgresConfig{
			DSN:            os.Getenv("POSTGRES_DSN"),
			MaxConns:       int32(getEnvAsInt("POSTGRES_MAX_CONNS", 10)),
			MinConns:       int32(getEnvAsInt("POSTGRES_MIN_CONNS", 2)),
			RunMigrations:  getEnvAsBool("POSTGRES_RUN_MIGRATIONS", true),
			ConnMaxIdleSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_SECONDS", 30)),
			ConnMaxLifeSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_LIFE_SECONDS", 300)),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "127.0.0.1:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Auth: AuthConfig{
			JWTSecret:             getEnv("AUTH_JWT_SECRET", "dev-secret"),
			AccessTokenTTLMinutes: getEnvAsInt("AUTH_ACCESS_TOKEN_TTL_MINUTES", 60),
			BcryptCost:            getEnvAsInt("AUTH_BCRYPT_COST", 12),
		},
		Token: TokenConfig{
			Secret:                    tokenSecret,
			PasswordResetTTLHours:     getEnvAsInt("TOKEN_PASSWORD_RESET_TTL_HOURS", 24),
			ReservationCancelTTLHours: getEnvAsInt("TOKEN_RESERVATION_CANCEL_TTL_HOURS", 48),
		},
		Stream: StreamConfig{
			KeepAliveSeconds:    getEnvAsInt("STREAM_KEEPALIVE_SECONDS", 25),
			WriteTimeoutMillis:  getEnvAsInt("STREAM_WRITE_TIMEOUT_MILLIS", 2000),
			SubscriberQueueSize: getEnvAsInt("STREAM_SUBSCRIBER_QUEUE_SIZE", 16),
		},
		Notification: NotificationConfig{
			EmailProviderURL:  getEnv("NOTIFY_EMAIL_PROVIDER_URL", ""),
			EmailAPIKey:       os.Getenv("NOTIFY_EMAIL_API_KEY"),
			EmailFrom:         getEnv("NOTIFY_EMAIL_FROM", "noreply@example.com"),
			PushProviderURL:   getEnv("NOTIFY_PUSH_PROVIDER_URL", ""),
			EmailMaxAttempts:  getEnvAsInt("NOTIFY_EMAIL_MAX_ATTEMPTS", 3),
			EmailBackoffMilli: getEnvAsInt("NOTIFY_EMAIL_BACKOFF_MILLIS", 500),
		},
	}

	return cfg, nil
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

// KeepAlive returns the SSE keep-alive interval.
func (s StreamConfig) KeepAlive() time.Duration {
	if s.KeepAliveSeconds <= 0 {
		return 25 * time.Second
	}
	return time.Duration(s.KeepAliveSeconds) * time.Second
}

// WriteTimeout bounds a single subscriber delivery.
func (s StreamConfig) WriteTimeout() time.Duration {
	if s.WriteTimeoutMillis <= 0 {
		return 2 * time.Second
	}
	return time.Duration(s.WriteTimeoutMillis) * time.Millisecond
}

// EmailBackoff returns the initial email retry delay.
func (n NotificationConfig) EmailBackoff() time.Duration {
	if n.EmailBackoffMilli <= 0 {
		return 500 * time.Millisecond
	}
	return time.Duration(n.EmailBackoffMilli) * time.Millisecond
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return parsed
}
