package config

import (
	"errors"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	HTTPHost string
	HTTPPort string
	MySQLDSN string

	JWTSecret         string
	JWTAccessTokenTTL time.Duration
	// JWTClockSkew is the fixed leeway applied when verifying access token
	// expiry. It is configuration, never computed at runtime.
	JWTClockSkew time.Duration

	// RefreshTokenDays is the validity window of newly issued refresh tokens.
	RefreshTokenDays int

	// RetentionDays is how long a soft-deleted account is kept before the
	// purge worker removes it permanently.
	RetentionDays int
	PurgeInterval time.Duration

	LoginRateLimit float64
	LoginRateBurst int

	LogLevel  string
	LogFormat string
}

func Load() (*Config, error) {
	// Load .env file if it exists (ignores error if not found)
	_ = godotenv.Load()

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		return nil, errors.New("JWT_SECRET environment variable is required")
	}

	mysqlDSN := os.Getenv("MYSQL_DSN")
	if mysqlDSN == "" {
		return nil, errors.New("MYSQL_DSN environment variable is required")
	}

	return &Config{
		HTTPHost:          getEnv("HTTP_HOST", ""),
		HTTPPort:          getEnv("HTTP_PORT", "8080"),
		MySQLDSN:          mysqlDSN,
		JWTSecret:         jwtSecret,
		JWTAccessTokenTTL: getDurationEnv("JWT_ACCESS_TOKEN_TTL", 15*time.Minute),
		JWTClockSkew:      getDurationEnv("JWT_CLOCK_SKEW", 30*time.Second),
		RefreshTokenDays:  getIntEnv("REFRESH_TOKEN_DAYS", 14),
		RetentionDays:     getIntEnv("ACCOUNT_RETENTION_DAYS", 30),
		PurgeInterval:     getDurationEnv("PURGE_INTERVAL", time.Hour),
		LoginRateLimit:    getFloatEnv("LOGIN_RATE_LIMIT", 5),
		LoginRateBurst:    getIntEnv("LOGIN_RATE_BURST", 10),
		LogLevel:          getEnv("LOG_LEVEL", "info"),
		LogFormat:         getEnv("LOG_FORMAT", "json"),
	}, nil
}

func (c *Config) DSN() string {
	return c.MySQLDSN
}

// RefreshTokenTTL is the refresh validity expressed as a duration, used for
// the cookie Max-Age.
func (c *Config) RefreshTokenTTL() time.Duration {
	return time.Duration(c.RefreshTokenDays) * 24 * time.Hour
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getFloatEnv(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}
