// internal/config/config.go
// Configuration management using environment variables and optional config files

package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	Environment string
	Server      ServerConfig
	Database    DatabaseConfig
	Auth        AuthConfig
	Sync        SyncConfig
	Gathering   GatheringConfig
	Features    FeatureFlags
	Version     Version
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Port          string
	ReadTimeout   time.Duration
	WriteTimeout  time.Duration
	IdleTimeout   time.Duration
	AllowedOrigin string
}

// DatabaseConfig contains all database connection settings
type DatabaseConfig struct {
	MySQL   MySQLConfig
	MongoDB MongoDBConfig
	Redis   RedisConfig
}

// MySQLConfig contains MySQL-specific settings
type MySQLConfig struct {
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// MongoDBConfig contains MongoDB-specific settings
type MongoDBConfig struct {
	URI      string
	Database string
}

// RedisConfig contains Redis-specific settings
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// AuthConfig contains authentication and authorization settings
type AuthConfig struct {
	BCryptCost      int
	SessionLifetime time.Duration
}

// SyncConfig governs the op-log merge chain bookkeeping.
type SyncConfig struct {
	// ChainRetention is read from SYNC_CHAIN_RETENTION but is not passed
	// to any MessageManager: every Gathering's manager is built with
	// syncproto.NewMessageManager(0), which keeps closed chains for its
	// own 10-minute default regardless of this value.
	ChainRetention time.Duration
	// HandshakeTimeout bounds how long a freshly-opened websocket has to
	// send its first (session-token) message before being dropped.
	HandshakeTimeout time.Duration
}

// GatheringConfig governs the per-tournament actor's lifecycle.
type GatheringConfig struct {
	// IdleWindow is how long a Gathering waits with no inbound message
	// before persisting its tournament and terminating.
	IdleWindow time.Duration
}

// FeatureFlags allows toggling features without code changes
type FeatureFlags struct {
	MaintenanceMode bool
}

// ServerMode reports whether this deployment exposes only the core
// external interfaces (Basic) or adds deployment-specific extensions
// (Extended) — mirrors the original ServerMode enum's two variants.
type ServerMode string

const (
	ModeBasic    ServerMode = "Basic"
	ModeExtended ServerMode = "Extended"
)

// Version identifies the running build for `GET /version`.
type Version struct {
	Version string
	Mode    ServerMode
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists (for local development)
	if err := godotenv.Load(); err != nil {
		// It's okay if .env doesn't exist in production
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("error loading .env file: %w", err)
		}
	}

	cfg := &Config{
		Environment: getEnvOrDefault("ENVIRONMENT", "development"),
		Server: ServerConfig{
			Port:          getEnvOrDefault("PORT", "8080"),
			ReadTimeout:   getDurationOrDefault("SERVER_READ_TIMEOUT", 15*time.Second),
			WriteTimeout:  getDurationOrDefault("SERVER_WRITE_TIMEOUT", 15*time.Second),
			IdleTimeout:   getDurationOrDefault("SERVER_IDLE_TIMEOUT", 60*time.Second),
			AllowedOrigin: getEnvOrDefault("ALLOWED_ORIGIN", "*"),
		},
		Database: DatabaseConfig{
			MySQL: MySQLConfig{
				DSN:             getEnvOrDefault("MYSQL_DSN", ""),
				MaxOpenConns:    getIntOrDefault("MYSQL_MAX_OPEN_CONNS", 25),
				MaxIdleConns:    getIntOrDefault("MYSQL_MAX_IDLE_CONNS", 5),
				ConnMaxLifetime: getDurationOrDefault("MYSQL_CONN_MAX_LIFETIME", 5*time.Minute),
			},
			MongoDB: MongoDBConfig{
				URI:      getEnvOrDefault("MONGO_URI", ""),
				Database: getEnvOrDefault("MONGO_DATABASE", "tourneysync"),
			},
			Redis: RedisConfig{
				Addr:     getEnvOrDefault("REDIS_ADDR", "localhost:6379"),
				Password: getEnvOrDefault("REDIS_PASSWORD", ""),
				DB:       getIntOrDefault("REDIS_DB", 0),
			},
		},
		Auth: AuthConfig{
			BCryptCost:      getIntOrDefault("BCRYPT_COST", 10),
			SessionLifetime: getDurationOrDefault("SESSION_LIFETIME", 7*24*time.Hour),
		},
		Sync: SyncConfig{
			ChainRetention:   getDurationOrDefault("SYNC_CHAIN_RETENTION", 10*time.Minute),
			HandshakeTimeout: getDurationOrDefault("SYNC_HANDSHAKE_TIMEOUT", 10*time.Second),
		},
		Gathering: GatheringConfig{
			IdleWindow: getDurationOrDefault("GATHERING_IDLE_WINDOW", 10*time.Second),
		},
		Features: FeatureFlags{
			MaintenanceMode: getBoolOrDefault("MAINTENANCE_MODE", false),
		},
		Version: Version{
			Version: getEnvOrDefault("SERVER_VERSION", "0.1.0"),
			Mode:    ServerMode(getEnvOrDefault("SERVER_MODE", string(ModeBasic))),
		},
	}

	// Validate required configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks that all required configuration is present
func (c *Config) Validate() error {
	if c.Database.MySQL.DSN == "" {
		return fmt.Errorf("MYSQL_DSN is required")
	}
	if c.Database.MongoDB.URI == "" {
		return fmt.Errorf("MONGO_URI is required")
	}
	return nil
}

// Helper functions to read environment variables with defaults
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
