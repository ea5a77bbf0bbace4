package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config is the full application configuration, loaded from the
// environment.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	JWT      JWTConfig
	Metrics  MetricsConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port           string
	Env            string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	AllowedOrigins []string
}

// DatabaseConfig holds SurrealDB connection settings.
type DatabaseConfig struct {
	Host      string
	Port      string
	Namespace string
	Database  string
	User      string
	Password  string
}

// JWTConfig holds token signing settings.
type JWTConfig struct {
	PrivateKeyPath string
	PublicKeyPath  string
	ExpirationMins int
	Issuer         string
}

// MetricsConfig controls Prometheus exposure.
type MetricsConfig struct {
	Enabled bool
}

// Load builds a Config from environment variables, falling back to
// development defaults for anything unset.
func Load() (*Config, error) {
	return &Config{
		Server: ServerConfig{
			Port:           envOr("SERVER_PORT", "8080"),
			Env:            envOr("SERVER_ENV", "development"),
			ReadTimeout:    envDuration("SERVER_READ_TIMEOUT", 15*time.Second),
			WriteTimeout:   envDuration("SERVER_WRITE_TIMEOUT", 15*time.Second),
			AllowedOrigins: envList("CORS_ALLOWED_ORIGINS", []string{"http://localhost:3000"}),
		},
		Database: DatabaseConfig{
			Host:      envOr("DB_HOST", "localhost"),
			Port:      envOr("DB_PORT", "8000"),
			Namespace: envOr("DB_NAMESPACE", "ember"),
			Database:  envOr("DB_DATABASE", "main"),
			User:      envOr("DB_USER", "root"),
			Password:  envOr("DB_PASSWORD", "root"),
		},
		JWT: JWTConfig{
			PrivateKeyPath: envOr("JWT_PRIVATE_KEY_PATH", "./keys/private.pem"),
			PublicKeyPath:  envOr("JWT_PUBLIC_KEY_PATH", "./keys/public.pem"),
			ExpirationMins: envInt("JWT_EXPIRATION_MINS", 60),
			Issuer:         envOr("JWT_ISSUER", "api.emberquest.dev"),
		},
		Metrics: MetricsConfig{
			Enabled: envBool("METRICS_ENABLED", true),
		},
	}, nil
}

// IsDevelopment reports whether the server runs in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Server.Env == "development"
}

// IsProduction reports whether the server runs in production mode.
func (c *Config) IsProduction() bool {
	return c.Server.Env == "production"
}

// Validate checks the loaded configuration and reports every problem at
// once via errors.Join.
func (c *Config) Validate() error {
	var errs []error
	fail := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf(format, args...))
	}

	if c.Server.Port == "" {
		fail("SERVER_PORT is required")
	}
	switch c.Server.Env {
	case "development", "production", "test":
	default:
		fail("SERVER_ENV must be 'development', 'production', or 'test', got '%s'", c.Server.Env)
	}
	if len(c.Server.AllowedOrigins) == 0 {
		fail("CORS_ALLOWED_ORIGINS must have at least one origin")
	}

	for env, value := range map[string]string{
		"DB_HOST":      c.Database.Host,
		"DB_PORT":      c.Database.Port,
		"DB_NAMESPACE": c.Database.Namespace,
		"DB_DATABASE":  c.Database.Database,
	} {
		if value == "" {
			fail("%s is required", env)
		}
	}

	// Production must never start without key material.
	if c.IsProduction() {
		if c.JWT.PrivateKeyPath == "" {
			fail("JWT_PRIVATE_KEY_PATH is required in production")
		}
		if c.JWT.PublicKeyPath == "" {
			fail("JWT_PUBLIC_KEY_PATH is required in production")
		}
	}
	if c.JWT.ExpirationMins <= 0 {
		fail("JWT_EXPIRATION_MINS must be positive")
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func envDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}

func envList(key string, fallback []string) []string {
	if v := os.Getenv(key); v != "" {
		return strings.Split(v, ",")
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}
