package config

import (
	"fmt"

	pkgconfig "github.com/kennytong915/Japan-Ramen-Database/pkg/config"
)

// Config holds all configuration for the ramen directory server.
type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	// HTTP server
	HTTPPort int    `env:"HTTP_PORT" envDefault:"8080"`
	BaseURL  string `env:"BASE_URL" envDefault:""`

	// PostgreSQL
	PostgresHost string `env:"POSTGRES_HOST" envDefault:"localhost"`
	PostgresPort int    `env:"POSTGRES_PORT" envDefault:"5432"`
	PostgresUser string `env:"POSTGRES_USER" envDefault:"ramen"`
	PostgresPass string `env:"POSTGRES_PASSWORD" envDefault:"ramen_secret"`
	PostgresDB   string `env:"POSTGRES_DB_NAME" envDefault:"ramen_directory"`
	PostgresSSL  string `env:"POSTGRES_SSL_MODE" envDefault:"disable"`

	// Database pool
	DBMaxConns int32 `env:"DB_MAX_CONNS" envDefault:"25"`
	DBMinConns int32 `env:"DB_MIN_CONNS" envDefault:"5"`

	// Redis (restaurant ranking cache)
	RedisHost     string `env:"REDIS_HOST" envDefault:"localhost"`
	RedisPort     int    `env:"REDIS_PORT" envDefault:"6379"`
	RedisPassword string `env:"REDIS_PASSWORD" envDefault:""`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`

	// Kafka
	KafkaBrokers []string `env:"KAFKA_BROKERS" envDefault:"localhost:9092" envSeparator:","`

	// JWT
	JWTSecret        string `env:"JWT_SECRET" envDefault:"dev-secret-change-me"`
	JWTExpiryMinutes int    `env:"JWT_EXPIRY_MINUTES" envDefault:"60"`

	// Comment submission
	CommentCooldownHours     int      `env:"COMMENT_COOLDOWN_HOURS" envDefault:"0"`
	CommentRateLimitCapacity int      `env:"COMMENT_RATE_LIMIT_CAPACITY" envDefault:"10"`
	CommentRateLimitRefill   int      `env:"COMMENT_RATE_LIMIT_REFILL_MINUTES" envDefault:"5"`
	CommentMaxPhotos         int      `env:"COMMENT_MAX_PHOTOS" envDefault:"5"`
	AllowedContentTypes      []string `env:"COMMENT_ALLOWED_CONTENT_TYPES" envDefault:"image/jpeg,image/png,image/webp" envSeparator:","`

	// Pprof debug endpoints (IP allowlist in CIDR notation)
	PprofEnabled      bool     `env:"PPROF_ENABLED" envDefault:"false"`
	PprofAllowedCIDRs []string `env:"PPROF_ALLOWED_CIDRS" envDefault:"10.0.0.0/8,172.16.0.0/12,192.168.0.0/16,127.0.0.0/8,::1/128" envSeparator:","`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := pkgconfig.Load(cfg); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if cfg.HTTPPort < 1 || cfg.HTTPPort > 65535 {
		return nil, fmt.Errorf("invalid HTTP port: %d", cfg.HTTPPort)
	}
	if cfg.PostgresHost == "" {
		return nil, fmt.Errorf("POSTGRES_HOST is required")
	}
	if cfg.PostgresUser == "" {
		return nil, fmt.Errorf("POSTGRES_USER is required")
	}
	if len(cfg.KafkaBrokers) == 0 {
		return nil, fmt.Errorf("KAFKA_BROKERS is required")
	}
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}
	if cfg.CommentCooldownHours < 0 {
		return nil, fmt.Errorf("COMMENT_COOLDOWN_HOURS must not be negative")
	}
	if cfg.CommentRateLimitCapacity < 1 {
		return nil, fmt.Errorf("COMMENT_RATE_LIMIT_CAPACITY must be at least 1")
	}
	if cfg.CommentRateLimitRefill < 1 {
		return nil, fmt.Errorf("COMMENT_RATE_LIMIT_REFILL_MINUTES must be at least 1")
	}
	if cfg.CommentMaxPhotos < 1 {
		return nil, fmt.Errorf("COMMENT_MAX_PHOTOS must be at least 1")
	}
	return cfg, nil
}

// PostgresDSN returns the PostgreSQL connection string.
func (c *Config) PostgresDSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.PostgresUser, c.PostgresPass, c.PostgresHost, c.PostgresPort, c.PostgresDB, c.PostgresSSL,
	)
}
