package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	Database   DatabaseConfig
	Server     ServerConfig
	App        AppConfig
	Log        LogConfig
	Collateral CollateralConfig
	Oracle     OracleConfig
	Redis      RedisConfig
	Kafka      KafkaConfig
	Jobs       JobsConfig
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Driver     string // postgres or sqlite
	Host       string
	Port       string
	User       string
	Password   string
	DBName     string
	SQLitePath string
}

// ServerConfig holds server settings
type ServerConfig struct {
	Port           string
	AllowedOrigins []string
}

// AppConfig holds application-specific settings
type AppConfig struct {
	JWTSecret      string
	OperatorWallet string
}

// LogConfig controls the zap logger
type LogConfig struct {
	Level       string
	Encoding    string // json or console
	Development bool
}

// CollateralConfig selects the collateral token backend.
// "virtual" keeps balances in the database, "spl" moves an SPL token on Solana.
type CollateralConfig struct {
	Kind                   string
	VenueAccount           string
	Network                string
	MintAddress            string
	ServerWalletPrivateKey string
}

// OracleConfig selects the outcome oracle. "manual" reads operator reports from
// the database, "http" queries an external resolution service.
type OracleConfig struct {
	Kind    string
	BaseURL string
	APIKey  string
	Secret  string
	Timeout time.Duration
}

// RedisConfig enables distributed market locks and event fan-out
type RedisConfig struct {
	Enabled  bool
	Addr     string
	Password string
	DB       int
	LockTTL  time.Duration
}

// KafkaConfig enables the kafka event publisher when brokers are set
type KafkaConfig struct {
	Brokers []string
	Topic   string
}

// JobsConfig holds background job schedules (robfig/cron spec with seconds)
type JobsConfig struct {
	SettlementSpec string
	DispatchSpec   string
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Try to load .env file (ignore error if it doesn't exist)
	_ = godotenv.Load()

	config := &Config{
		Database: DatabaseConfig{
			Driver:     getEnv("DB_DRIVER", "postgres"),
			Host:       getEnv("DB_HOST", "localhost"),
			Port:       getEnv("DB_PORT", "5432"),
			User:       getEnv("DB_USER", "postgres"),
			Password:   getEnv("DB_PASSWORD", ""),
			DBName:     getEnv("DB_NAME", "prediction_venue"),
			SQLitePath: getEnv("SQLITE_PATH", "venue.db"),
		},
		Server: ServerConfig{
			Port:           getEnv("SERVER_PORT", "8080"),
			AllowedOrigins: getEnvList("ALLOWED_ORIGINS", "http://localhost:3000,http://localhost:5173"),
		},
		App: AppConfig{
			JWTSecret:      getEnv("JWT_SECRET", ""),
			OperatorWallet: getEnv("OPERATOR_WALLET", ""),
		},
		Log: LogConfig{
			Level:       getEnv("LOG_LEVEL", "info"),
			Encoding:    getEnv("LOG_ENCODING", "json"),
			Development: getEnvBool("LOG_DEVELOPMENT", false),
		},
		Collateral: CollateralConfig{
			Kind:                   getEnv("COLLATERAL_KIND", "virtual"),
			VenueAccount:           getEnv("VENUE_ACCOUNT", "venue"),
			Network:                getEnv("SOLANA_NETWORK", "devnet"),
			MintAddress:            getEnv("COLLATERAL_MINT", ""),
			ServerWalletPrivateKey: getEnv("SERVER_WALLET_PRIVATE_KEY", ""),
		},
		Oracle: OracleConfig{
			Kind:    getEnv("ORACLE_KIND", "manual"),
			BaseURL: getEnv("ORACLE_URL", ""),
			APIKey:  getEnv("ORACLE_API_KEY", ""),
			Secret:  getEnv("ORACLE_SECRET", ""),
			Timeout: getEnvDuration("ORACLE_TIMEOUT", 10*time.Second),
		},
		Redis: RedisConfig{
			Enabled:  getEnvBool("REDIS_ENABLED", false),
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
			LockTTL:  getEnvDuration("REDIS_LOCK_TTL", 30*time.Second),
		},
		Kafka: KafkaConfig{
			Brokers: getEnvList("KAFKA_BROKERS", ""),
			Topic:   getEnv("KAFKA_TOPIC", "venue-events"),
		},
		Jobs: JobsConfig{
			SettlementSpec: getEnv("SETTLEMENT_CRON", "*/30 * * * * *"),
			DispatchSpec:   getEnv("DISPATCH_CRON", "*/1 * * * * *"),
		},
	}

	// Validate required fields
	if config.App.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	if config.App.OperatorWallet == "" {
		return nil, fmt.Errorf("OPERATOR_WALLET is required")
	}

	switch config.Database.Driver {
	case "postgres", "sqlite":
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", config.Database.Driver)
	}

	switch config.Collateral.Kind {
	case "virtual":
	case "spl":
		if config.Collateral.MintAddress == "" || config.Collateral.ServerWalletPrivateKey == "" {
			return nil, fmt.Errorf("COLLATERAL_MINT and SERVER_WALLET_PRIVATE_KEY are required for spl collateral")
		}
	default:
		return nil, fmt.Errorf("unsupported COLLATERAL_KIND %q", config.Collateral.Kind)
	}

	switch config.Oracle.Kind {
	case "manual":
	case "http":
		if config.Oracle.BaseURL == "" {
			return nil, fmt.Errorf("ORACLE_URL is required for http oracle")
		}
	default:
		return nil, fmt.Errorf("unsupported ORACLE_KIND %q", config.Oracle.Kind)
	}

	return config, nil
}

// GetDSN returns the PostgreSQL connection string
func (c *Config) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.DBName,
	)
}

// getEnv gets an environment variable with a fallback default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvInt(key string, defaultValue int) int {
	v, err := strconv.Atoi(getEnv(key, ""))
	if err != nil {
		return defaultValue
	}
	return v
}

func getEnvBool(key string, defaultValue bool) bool {
	v, err := strconv.ParseBool(getEnv(key, ""))
	if err != nil {
		return defaultValue
	}
	return v
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	v, err := time.ParseDuration(getEnv(key, ""))
	if err != nil {
		return defaultValue
	}
	return v
}

// getEnvList splits a comma separated variable, dropping empty entries
func getEnvList(key, defaultValue string) []string {
	var out []string
	for _, part := range strings.Split(getEnv(key, defaultValue), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
