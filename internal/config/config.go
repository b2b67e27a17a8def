package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server         ServerConfig
	Database       DatabaseConfig
	Auth           AuthConfig
	RateLimit      RateLimitConfig
	CORS           CORSConfig
	AdminBootstrap AdminBootstrapConfig
	Search         SearchConfig
	Logging        LoggingConfig
	Environment    string
}

type ServerConfig struct {
	Host    string
	Port    int `validate:"gte=1,lte=65535"`
	BaseURL string
}

type DatabaseConfig struct {
	URL            string `validate:"required"`
	MaxConnections int    `validate:"gte=1"`
	QueryTimeout   time.Duration
}

type AuthConfig struct {
	JWTSecret string `validate:"required"`
	JWTExpiry time.Duration
}

type RateLimitConfig struct {
	PublicPerMinute int
	AdminPerMinute  int
	// LoginPer15Minutes bounds login attempts per client; the token bucket
	// refills at one attempt every 15/n minutes.
	LoginPer15Minutes int
	// TrustedProxyCIDRs lists proxies whose X-Forwarded-For is believed.
	TrustedProxyCIDRs []string
}

type CORSConfig struct {
	AllowedOrigins  []string
	AllowAllOrigins bool
}

type AdminBootstrapConfig struct {
	Username string
	Password string
	Email    string
}

// SearchConfig makes the search degrade policy an explicit choice instead of
// an implicit catch-all: when DegradeOnStoreError is set, store failures on
// the search and count paths produce empty successful responses.
type SearchConfig struct {
	DegradeOnStoreError bool
}

type LoggingConfig struct {
	Level  string
	Format string
}

// fileConfig is the optional YAML config file shape. Environment variables
// take precedence over file values.
type fileConfig struct {
	Server struct {
		Host    string `yaml:"host"`
		Port    int    `yaml:"port"`
		BaseURL string `yaml:"base_url"`
	} `yaml:"server"`
	Database struct {
		URL            string `yaml:"url"`
		MaxConnections int    `yaml:"max_connections"`
		QueryTimeout   string `yaml:"query_timeout"`
	} `yaml:"database"`
	Auth struct {
		JWTSecret   string `yaml:"jwt_secret"`
		JWTExpiryHr int    `yaml:"jwt_expiry_hours"`
	} `yaml:"auth"`
	Search struct {
		DegradeOnStoreError *bool `yaml:"degrade_on_store_error"`
	} `yaml:"search"`
	Logging struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"logging"`
	Environment string `yaml:"environment"`
}

// Load builds the configuration from defaults, the optional YAML file at
// path, and environment variables, in increasing precedence.
func Load(path string) (Config, error) {
	cfg := Config{
		Server: ServerConfig{
			Host:    "0.0.0.0",
			Port:    8080,
			BaseURL: "http://localhost:8080",
		},
		Database: DatabaseConfig{
			MaxConnections: 25,
			QueryTimeout:   5 * time.Second,
		},
		Auth: AuthConfig{
			JWTExpiry: 24 * time.Hour,
		},
		RateLimit: RateLimitConfig{
			PublicPerMinute:   120,
			AdminPerMinute:    0,
			LoginPer15Minutes: 5,
		},
		Search: SearchConfig{
			DegradeOnStoreError: true,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Environment: "development",
	}

	if path != "" {
		if err := applyFile(&cfg, path); err != nil {
			return Config{}, err
		}
	}
	applyEnv(&cfg)

	// Without an explicit origin whitelist, development allows everything
	// and production allows nothing.
	cfg.CORS.AllowAllOrigins = len(cfg.CORS.AllowedOrigins) == 0 && cfg.Environment == "development"

	if err := validator.New().Struct(cfg); err != nil {
		return Config{}, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func applyFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	var file fileConfig
	if err := yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}

	if file.Server.Host != "" {
		cfg.Server.Host = file.Server.Host
	}
	if file.Server.Port != 0 {
		cfg.Server.Port = file.Server.Port
	}
	if file.Server.BaseURL != "" {
		cfg.Server.BaseURL = file.Server.BaseURL
	}
	if file.Database.URL != "" {
		cfg.Database.URL = file.Database.URL
	}
	if file.Database.MaxConnections != 0 {
		cfg.Database.MaxConnections = file.Database.MaxConnections
	}
	if file.Database.QueryTimeout != "" {
		timeout, err := time.ParseDuration(file.Database.QueryTimeout)
		if err != nil {
			return fmt.Errorf("parse database query_timeout: %w", err)
		}
		cfg.Database.QueryTimeout = timeout
	}
	if file.Auth.JWTSecret != "" {
		cfg.Auth.JWTSecret = file.Auth.JWTSecret
	}
	if file.Auth.JWTExpiryHr != 0 {
		cfg.Auth.JWTExpiry = time.Duration(file.Auth.JWTExpiryHr) * time.Hour
	}
	if file.Search.DegradeOnStoreError != nil {
		cfg.Search.DegradeOnStoreError = *file.Search.DegradeOnStoreError
	}
	if file.Logging.Level != "" {
		cfg.Logging.Level = file.Logging.Level
	}
	if file.Logging.Format != "" {
		cfg.Logging.Format = file.Logging.Format
	}
	if file.Environment != "" {
		cfg.Environment = file.Environment
	}
	return nil
}

func applyEnv(cfg *Config) {
	cfg.Server.Host = getEnv("SERVER_HOST", cfg.Server.Host)
	cfg.Server.Port = getEnvInt("SERVER_PORT", cfg.Server.Port)
	cfg.Server.BaseURL = getEnv("SERVER_BASE_URL", cfg.Server.BaseURL)

	cfg.Database.URL = getEnv("DATABASE_URL", cfg.Database.URL)
	cfg.Database.MaxConnections = getEnvInt("DATABASE_MAX_CONNECTIONS", cfg.Database.MaxConnections)
	if value := os.Getenv("DATABASE_QUERY_TIMEOUT"); value != "" {
		if timeout, err := time.ParseDuration(value); err == nil {
			cfg.Database.QueryTimeout = timeout
		}
	}

	cfg.Auth.JWTSecret = getEnv("JWT_SECRET", cfg.Auth.JWTSecret)
	cfg.Auth.JWTExpiry = time.Duration(getEnvInt("JWT_EXPIRY_HOURS", int(cfg.Auth.JWTExpiry/time.Hour))) * time.Hour

	cfg.RateLimit.PublicPerMinute = getEnvInt("RATE_LIMIT_PUBLIC", cfg.RateLimit.PublicPerMinute)
	cfg.RateLimit.AdminPerMinute = getEnvInt("RATE_LIMIT_ADMIN", cfg.RateLimit.AdminPerMinute)
	cfg.RateLimit.LoginPer15Minutes = getEnvInt("RATE_LIMIT_LOGIN", cfg.RateLimit.LoginPer15Minutes)
	cfg.RateLimit.TrustedProxyCIDRs = getEnvList("RATE_LIMIT_TRUSTED_PROXIES", cfg.RateLimit.TrustedProxyCIDRs)

	cfg.CORS.AllowedOrigins = getEnvList("CORS_ALLOWED_ORIGINS", cfg.CORS.AllowedOrigins)

	cfg.AdminBootstrap.Username = getEnv("ADMIN_USERNAME", cfg.AdminBootstrap.Username)
	cfg.AdminBootstrap.Password = getEnv("ADMIN_PASSWORD", cfg.AdminBootstrap.Password)
	cfg.AdminBootstrap.Email = getEnv("ADMIN_EMAIL", cfg.AdminBootstrap.Email)

	cfg.Search.DegradeOnStoreError = getEnvBool("SEARCH_DEGRADE_ON_STORE_ERROR", cfg.Search.DegradeOnStoreError)

	cfg.Logging.Level = getEnv("LOG_LEVEL", cfg.Logging.Level)
	cfg.Logging.Format = getEnv("LOG_FORMAT", cfg.Logging.Format)

	cfg.Environment = getEnv("ENVIRONMENT", cfg.Environment)
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvList(key string, fallback []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parts := strings.Split(value, ",")
	list := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			list = append(list, trimmed)
		}
	}
	return list
}

func getEnvBool(key string, fallback bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}
