// Package config loads the service configuration from the environment.
// A local .env file is read first; variables already set in the process win.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	BackendPostgres = "postgres"
	BackendMemory   = "memory"

	// DevSecretKey is used when no secret is configured. Startup logs a warning for it.
	DevSecretKey = "dev-insecure-secret-change"
)

type Config struct {
	// Application
	AppName    string
	AppVersion string
	APIPrefix  string
	GinMode    string

	// HTTP server
	Port            string
	AllowedOrigins  []string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration

	// Storage
	StorageBackend    string
	DatabaseURL       string
	AutoMigrate       bool
	DBTimeout         time.Duration
	DBMaxOpenConns    int
	DBMaxIdleConns    int
	DBConnMaxLifetime time.Duration

	// Auth
	SecretKey      string
	TokenAlgorithm string
	TokenLifetime  time.Duration
	BcryptCost     int

	// Logging
	LogLevel  string
	LogFormat string
}

// Load reads .env (if present) and the process environment.
func Load() *Config {
	_ = godotenv.Load()
	return FromEnv()
}

// FromEnv builds a Config from the process environment only.
func FromEnv() *Config {
	return &Config{
		AppName:    getEnv("APP_NAME", "Budgeting Application"),
		AppVersion: getEnv("APP_VERSION", "1.0.0"),
		APIPrefix:  getEnv("API_PREFIX", "/api/v1"),
		GinMode:    getEnv("GIN_MODE", ""),

		Port:            getEnv("PORT", "8081"),
		AllowedOrigins:  getEnvList("ALLOWED_ORIGINS", []string{"http://localhost:3000"}),
		ReadTimeout:     getEnvDuration("HTTP_READ_TIMEOUT", 15*time.Second),
		WriteTimeout:    getEnvDuration("HTTP_WRITE_TIMEOUT", 15*time.Second),
		IdleTimeout:     getEnvDuration("HTTP_IDLE_TIMEOUT", 60*time.Second),
		ShutdownTimeout: getEnvDuration("SHUTDOWN_TIMEOUT", 30*time.Second),

		StorageBackend:    getEnv("STORAGE_BACKEND", BackendPostgres),
		DatabaseURL:       getEnv("DATABASE_URL", os.Getenv("DB_DSN")),
		AutoMigrate:       getEnvBool("DB_AUTO_MIGRATE", true),
		DBTimeout:         getEnvDuration("DB_TIMEOUT", 5*time.Second),
		DBMaxOpenConns:    getEnvInt("DB_MAX_OPEN_CONNS", 10),
		DBMaxIdleConns:    getEnvInt("DB_MAX_IDLE_CONNS", 5),
		DBConnMaxLifetime: getEnvDuration("DB_CONN_MAX_LIFETIME", 30*time.Minute),

		SecretKey:      getEnv("SECRET_KEY", getEnv("JWT_SECRET", DevSecretKey)),
		TokenAlgorithm: strings.ToUpper(getEnv("TOKEN_ALGORITHM", "HS256")),
		TokenLifetime:  getEnvDuration("TOKEN_LIFETIME", 30*time.Minute),
		BcryptCost:     getEnvInt("BCRYPT_COST", 10),

		LogLevel:  strings.ToLower(getEnv("LOG_LEVEL", "info")),
		LogFormat: strings.ToLower(getEnv("LOG_FORMAT", "text")),
	}
}

// Validate reports every configuration problem at once.
func (c *Config) Validate() error {
	var problems []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		problems = append(problems, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		problems = append(problems, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	switch c.StorageBackend {
	case BackendPostgres:
		if strings.TrimSpace(c.DatabaseURL) == "" {
			problems = append(problems, "DATABASE_URL is required when using the postgres backend")
		}
	case BackendMemory:
	default:
		problems = append(problems, fmt.Sprintf("invalid storage backend '%s': must be one of [%s %s]", c.StorageBackend, BackendPostgres, BackendMemory))
	}

	if c.SecretKey == "" {
		problems = append(problems, "SECRET_KEY cannot be empty")
	}
	switch c.TokenAlgorithm {
	case "HS256", "HS384", "HS512":
	default:
		problems = append(problems, fmt.Sprintf("unsupported token algorithm '%s': must be HS256, HS384 or HS512", c.TokenAlgorithm))
	}
	if c.TokenLifetime <= 0 {
		problems = append(problems, "TOKEN_LIFETIME must be positive")
	}
	// bcrypt accepts 4..31
	if c.BcryptCost < 4 || c.BcryptCost > 31 {
		problems = append(problems, fmt.Sprintf("invalid bcrypt cost %d: must be between 4 and 31", c.BcryptCost))
	}

	if c.DBTimeout <= 0 {
		problems = append(problems, "DB_TIMEOUT must be positive")
	}
	if c.DBMaxOpenConns < 1 {
		problems = append(problems, "DB_MAX_OPEN_CONNS must be at least 1")
	}
	if c.DBMaxIdleConns < 0 || c.DBMaxIdleConns > c.DBMaxOpenConns {
		problems = append(problems, "DB_MAX_IDLE_CONNS must be between 0 and DB_MAX_OPEN_CONNS")
	}

	for _, o := range c.AllowedOrigins {
		if o != "*" && !strings.HasPrefix(o, "http://") && !strings.HasPrefix(o, "https://") {
			problems = append(problems, fmt.Sprintf("invalid allowed origin '%s': must be '*' or start with http:// or https://", o))
		}
	}

	if !strings.HasPrefix(c.APIPrefix, "/") {
		problems = append(problems, fmt.Sprintf("API_PREFIX '%s' must start with '/'", c.APIPrefix))
	}

	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		problems = append(problems, fmt.Sprintf("invalid log level '%s': must be debug, info, warn or error", c.LogLevel))
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		problems = append(problems, fmt.Sprintf("invalid log format '%s': must be text or json", c.LogFormat))
	}

	if len(problems) > 0 {
		return errors.New("configuration validation failed:\n- " + strings.Join(problems, "\n- "))
	}
	return nil
}

// UsesDevSecret reports whether the fallback development key is in use.
func (c *Config) UsesDevSecret() bool {
	return c.SecretKey == DevSecretKey
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(key))) {
	case "":
		return defaultValue
	case "false", "0", "no", "off":
		return false
	default:
		return true
	}
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
