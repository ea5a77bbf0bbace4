// Package config manages application configuration for the Ember Quest API.
//
// The config package loads and validates configuration from environment variables.
// All configuration is centralized here to provide a single source of truth.
//
// # Configuration Loading
//
// Configuration is loaded from environment variables:
//
//	cfg, err := config.Load()
//
// # Configuration Groups
//
// Configuration is organized into logical groups:
//
//   - ServerConfig: HTTP server settings (port, timeouts, CORS)
//   - DatabaseConfig: SurrealDB connection settings
//   - JWTConfig: JWT signing and validation settings
//   - MetricsConfig: Prometheus exposure settings
//
// # Environment Variables
//
// Key environment variables:
//
//	SERVER_PORT         - HTTP server port (default: 8080)
//	SERVER_ENV          - development, production, or test
//	DB_HOST / DB_PORT   - SurrealDB endpoint
//	DB_NAMESPACE        - Database namespace (default: ember)
//	DB_DATABASE         - Database name (default: main)
//	JWT_PRIVATE_KEY_PATH, JWT_PUBLIC_KEY_PATH - RSA key pair locations
//	JWT_EXPIRATION_MINS - Token lifetime in minutes
//	METRICS_ENABLED     - Expose /metrics (default: true)
//
// # Validation
//
// Validate reports every problem at once via errors.Join, so a
// misconfigured deployment fails fast with the full list.
package config
