package config

import (
	"strings"
	"testing"
	"time"
)

func validConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:           "8080",
			Env:            "development",
			ReadTimeout:    15 * time.Second,
			WriteTimeout:   15 * time.Second,
			AllowedOrigins: []string{"http://localhost:3000"},
		},
		Database: DatabaseConfig{
			Host:      "localhost",
			Port:      "8000",
			Namespace: "ember",
			Database:  "main",
			User:      "root",
			Password:  "root",
		},
		JWT: JWTConfig{
			PrivateKeyPath: "./keys/private.pem",
			PublicKeyPath:  "./keys/public.pem",
			ExpirationMins: 60,
			Issuer:         "api.emberquest.dev",
		},
		Metrics: MetricsConfig{Enabled: true},
	}
}

func TestConfig_Validate_ValidConfig(t *testing.T) {
	cfg := validConfig()

	if err := cfg.Validate(); err != nil {
		t.Errorf("expected valid config, got: %v", err)
	}
}

func TestConfig_Validate_InvalidServerEnv(t *testing.T) {
	cfg := validConfig()
	cfg.Server.Env = "staging"

	err := cfg.Validate()
	if err == nil || !strings.Contains(err.Error(), "SERVER_ENV") {
		t.Errorf("expected SERVER_ENV error, got: %v", err)
	}
}

func TestConfig_Validate_MissingPort(t *testing.T) {
	cfg := validConfig()
	cfg.Server.Port = ""

	err := cfg.Validate()
	if err == nil || !strings.Contains(err.Error(), "SERVER_PORT") {
		t.Errorf("expected SERVER_PORT error, got: %v", err)
	}
}

func TestConfig_Validate_EmptyAllowedOrigins(t *testing.T) {
	cfg := validConfig()
	cfg.Server.AllowedOrigins = nil

	err := cfg.Validate()
	if err == nil || !strings.Contains(err.Error(), "CORS_ALLOWED_ORIGINS") {
		t.Errorf("expected CORS_ALLOWED_ORIGINS error, got: %v", err)
	}
}

func TestConfig_Validate_MissingDatabaseHost(t *testing.T) {
	cfg := validConfig()
	cfg.Database.Host = ""

	err := cfg.Validate()
	if err == nil || !strings.Contains(err.Error(), "DB_HOST") {
		t.Errorf("expected DB_HOST error, got: %v", err)
	}
}

func TestConfig_Validate_MissingNamespace(t *testing.T) {
	cfg := validConfig()
	cfg.Database.Namespace = ""

	err := cfg.Validate()
	if err == nil || !strings.Contains(err.Error(), "DB_NAMESPACE") {
		t.Errorf("expected DB_NAMESPACE error, got: %v", err)
	}
}

func TestConfig_Validate_InvalidJWTExpiration(t *testing.T) {
	cfg := validConfig()
	cfg.JWT.ExpirationMins = 0

	err := cfg.Validate()
	if err == nil || !strings.Contains(err.Error(), "JWT_EXPIRATION_MINS") {
		t.Errorf("expected JWT_EXPIRATION_MINS error, got: %v", err)
	}
}

func TestConfig_Validate_ProductionRequiresJWTKeys(t *testing.T) {
	cfg := validConfig()
	cfg.Server.Env = "production"
	cfg.JWT.PrivateKeyPath = ""
	cfg.JWT.PublicKeyPath = ""

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error for missing JWT keys in production")
	}
	if !strings.Contains(err.Error(), "JWT_PRIVATE_KEY_PATH") {
		t.Errorf("expected JWT_PRIVATE_KEY_PATH error, got: %v", err)
	}
	if !strings.Contains(err.Error(), "JWT_PUBLIC_KEY_PATH") {
		t.Errorf("expected JWT_PUBLIC_KEY_PATH error, got: %v", err)
	}
}

func TestConfig_Validate_DevelopmentAllowsMissingJWTKeys(t *testing.T) {
	cfg := validConfig()
	cfg.JWT.PrivateKeyPath = ""
	cfg.JWT.PublicKeyPath = ""

	if err := cfg.Validate(); err != nil {
		t.Errorf("expected development config valid without key paths, got: %v", err)
	}
}

func TestConfig_Validate_CollectsAllErrors(t *testing.T) {
	cfg := validConfig()
	cfg.Server.Port = ""
	cfg.Database.Host = ""
	cfg.JWT.ExpirationMins = -1

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected errors")
	}
	for _, want := range []string{"SERVER_PORT", "DB_HOST", "JWT_EXPIRATION_MINS"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("expected %s in joined error, got: %v", want, err)
		}
	}
}

func TestConfig_EnvHelpers(t *testing.T) {
	cfg := validConfig()

	if !cfg.IsDevelopment() {
		t.Error("expected development mode")
	}
	if cfg.IsProduction() {
		t.Error("did not expect production mode")
	}

	cfg.Server.Env = "production"
	if !cfg.IsProduction() || cfg.IsDevelopment() {
		t.Error("expected production mode")
	}
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Server.Port == "" {
		t.Error("expected default server port")
	}
	if cfg.Database.Namespace == "" {
		t.Error("expected default database namespace")
	}
	if cfg.JWT.ExpirationMins <= 0 {
		t.Error("expected positive default JWT expiration")
	}
}
