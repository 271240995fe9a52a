package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/labstack/gommon/random"
)

// Config represents the complete service configuration
type Config struct {
	Environment string `toml:"environment"`
	Port        string `toml:"port"`
	AppURL      string `toml:"app_url"`
	PublicURL   string `toml:"public_url"`
	AutoMigrate bool   `toml:"auto_migrate"`

	Database      DatabaseConfig      `toml:"database"`
	Auth          AuthConfig          `toml:"auth"`
	Redis         RedisConfig         `toml:"redis"`
	Minio         MinioConfig         `toml:"minio"`
	Kafka         KafkaConfig         `toml:"kafka"`
	Elasticsearch ElasticsearchConfig `toml:"elasticsearch"`
	Sentry        SentryConfig        `toml:"sentry"`
	Email         EmailConfig         `toml:"email"`
	Social        SocialConfig        `toml:"social"`
	Queuing       QueuingConfig       `toml:"queuing"`

	// GeneratedSecret is set when JWT_SECRET was missing and a random one was used.
	GeneratedSecret bool `toml:"-"`
}

type DatabaseConfig struct {
	URL string `toml:"url"`
}

type AuthConfig struct {
	JWTSecret       string        `toml:"jwt_secret"`
	AccessTokenTTL  time.Duration `toml:"access_token_ttl"`
	RefreshTokenTTL time.Duration `toml:"refresh_token_ttl"`
	// JWKSURL enables RS256 tokens issued by a hosted auth provider.
	JWKSURL string `toml:"jwks_url"`
}

type RedisConfig struct {
	Addr     string `toml:"addr"`
	Password string `toml:"password"`
	DB       int    `toml:"db"`
}

type MinioConfig struct {
	Endpoint  string `toml:"endpoint"`
	AccessKey string `toml:"access_key"`
	SecretKey string `toml:"secret_key"`
	UseSSL    bool   `toml:"use_ssl"`
	Bucket    string `toml:"bucket"`
}

type KafkaConfig struct {
	Brokers []string `toml:"brokers"`
	Topic   string   `toml:"topic"`
	GroupID string   `toml:"group_id"`
}

type ElasticsearchConfig struct {
	URL      string `toml:"url"`
	Username string `toml:"username"`
	Password string `toml:"password"`
	Index    string `toml:"index"`
}

type SentryConfig struct {
	DSN              string  `toml:"dsn"`
	TracesSampleRate float64 `toml:"traces_sample_rate"`
}

type EmailConfig struct {
	APIURL string `toml:"api_url"`
	APIKey string `toml:"api_key"`
	From   string `toml:"from"`
}

type SocialConfig struct {
	Enabled     bool   `toml:"enabled"`
	AppID       string `toml:"app_id"`
	AppSecret   string `toml:"app_secret"`
	VerifyToken string `toml:"verify_token"`
	GraphURL    string `toml:"graph_url"`
	DialogURL   string `toml:"dialog_url"`
	// WebhookRPS and WebhookBurst bound deliveries per source IP.
	WebhookRPS   float64 `toml:"webhook_rps"`
	WebhookBurst int     `toml:"webhook_burst"`
}

// QueuingConfig contains asynq concurrency settings
type QueuingConfig struct {
	Concurrency     int            `toml:"concurrency"`
	QueuePriorities map[string]int `toml:"queue_priorities"`
}

// Load reads configuration from the environment and overlays the TOML file
// named by GLOWDESK_CONFIG when it is set.
func Load() (*Config, error) {
	cfg := FromEnv()

	if path := os.Getenv("GLOWDESK_CONFIG"); path != "" {
		if err := LoadFile(path, cfg); err != nil {
			return nil, err
		}
	}

	if cfg.Database.URL == "" {
		return nil, errors.New("DATABASE_URL environment variable is required")
	}
	if cfg.Auth.JWTSecret == "" {
		cfg.Auth.JWTSecret = random.String(32)
		cfg.GeneratedSecret = true
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFile decodes a TOML file over cfg; keys absent from the file keep their current value.
func LoadFile(filename string, cfg *Config) error {
	if _, err := toml.DecodeFile(filename, cfg); err != nil {
		return fmt.Errorf("failed to load config file: %w", err)
	}
	return nil
}

// FromEnv builds a Config from environment variables with development defaults.
func FromEnv() *Config {
	return &Config{
		Environment: getEnv("APP_ENV", "development"),
		Port:        getEnv("PORT", "8080"),
		AppURL:      getEnv("APP_URL", "http://localhost:3000"),
		PublicURL:   getEnv("PUBLIC_URL", "http://localhost:8080"),
		AutoMigrate: getEnvBool("AUTO_MIGRATE", false),
		Database: DatabaseConfig{
			URL: os.Getenv("DATABASE_URL"),
		},
		Auth: AuthConfig{
			JWTSecret:       os.Getenv("JWT_SECRET"),
			AccessTokenTTL:  getEnvDuration("ACCESS_TOKEN_TTL", 15*time.Minute),
			RefreshTokenTTL: getEnvDuration("REFRESH_TOKEN_TTL", 7*24*time.Hour),
			JWKSURL:         os.Getenv("AUTH_JWKS_URL"),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		Minio: MinioConfig{
			Endpoint:  getEnv("MINIO_ENDPOINT", "localhost:9000"),
			AccessKey: getEnv("MINIO_ACCESS_KEY", "minioadmin"),
			SecretKey: getEnv("MINIO_SECRET_KEY", "minioadmin"),
			UseSSL:    getEnvBool("MINIO_USE_SSL", false),
			Bucket:    getEnv("MINIO_BUCKET", "portfolio"),
		},
		Kafka: KafkaConfig{
			Brokers: splitList(os.Getenv("KAFKA_BROKERS")),
			Topic:   getEnv("KAFKA_TOPIC", "glowdesk.events"),
			GroupID: getEnv("KAFKA_GROUP_ID", "glowdesk-indexer"),
		},
		Elasticsearch: ElasticsearchConfig{
			URL:      os.Getenv("ELASTICSEARCH_URL"),
			Username: os.Getenv("ELASTICSEARCH_USERNAME"),
			Password: os.Getenv("ELASTICSEARCH_PASSWORD"),
			Index:    getEnv("ELASTICSEARCH_INDEX", "glowdesk-clients"),
		},
		Sentry: SentryConfig{
			DSN:              os.Getenv("SENTRY_DSN"),
			TracesSampleRate: getEnvFloat("SENTRY_TRACES_SAMPLE_RATE", 0.1),
		},
		Email: EmailConfig{
			APIURL: os.Getenv("EMAIL_API_URL"),
			APIKey: os.Getenv("EMAIL_API_KEY"),
			From:   getEnv("EMAIL_FROM", "GlowDesk <hello@glowdesk.app>"),
		},
		Social: SocialConfig{
			Enabled:      getEnvBool("SOCIAL_ENABLED", false),
			AppID:        os.Getenv("SOCIAL_APP_ID"),
			AppSecret:    os.Getenv("SOCIAL_APP_SECRET"),
			VerifyToken:  os.Getenv("SOCIAL_VERIFY_TOKEN"),
			GraphURL:     getEnv("SOCIAL_GRAPH_URL", "https://graph.facebook.com/v19.0"),
			DialogURL:    getEnv("SOCIAL_DIALOG_URL", "https://www.facebook.com/v19.0/dialog/oauth"),
			WebhookRPS:   getEnvFloat("SOCIAL_WEBHOOK_RPS", 10),
			WebhookBurst: getEnvInt("SOCIAL_WEBHOOK_BURST", 20),
		},
		Queuing: QueuingConfig{
			Concurrency:     getEnvInt("QUEUE_CONCURRENCY", 10),
			QueuePriorities: map[string]int{"email": 6, "default": 3},
		},
	}
}

// Validate checks values that would otherwise fail late at runtime.
func (c *Config) Validate() error {
	port, err := strconv.Atoi(c.Port)
	if err != nil || port <= 0 || port > 65535 {
		return fmt.Errorf("invalid port %q", c.Port)
	}
	if c.Social.Enabled && c.Social.AppSecret == "" {
		return errors.New("SOCIAL_APP_SECRET is required when social integration is enabled")
	}
	if c.Social.Enabled && c.Social.AppID == "" {
		return errors.New("SOCIAL_APP_ID is required when social integration is enabled")
	}
	if c.Queuing.Concurrency <= 0 {
		return errors.New("queue concurrency must be positive")
	}
	return nil
}

// IsProduction reports whether the service runs with production settings.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
