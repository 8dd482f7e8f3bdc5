// Package config builds the process configuration once at startup. The
// resulting *Config is handed to every constructor; nothing reads the
// environment after Load returns.
package config

import (
	"encoding/base64"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server        ServerConfig
	Database      DatabaseConfig
	Redis         RedisConfig
	Legacy        LegacyCodecConfig
	Authenticated AuthenticatedCodecConfig
	Gateway       GatewayConfig
	Mandate       MandateConfig
	Auth          AuthConfig
}

type ServerConfig struct {
	Port          string
	AllowOrigins  string
	Env           string
	CalcRateLimit int
}

type DatabaseConfig struct {
	Host            string
	Port            string
	User            string
	Password        string
	Name            string
	SSLMode         string
	MaxIdleConns    int
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

// DSN returns the postgres connection string.
func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s",
		c.Host, c.User, c.Password, c.Name, c.Port, c.SSLMode)
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	SlabTTL  time.Duration
}

// LegacyCodecConfig holds the fixed AES-128 key and IV of the query-string channel.
type LegacyCodecConfig struct {
	Key string
	IV  string
}

// AuthenticatedCodecConfig holds base64 encoded key material of the external API channel.
type AuthenticatedCodecConfig struct {
	AESKey  string
	HMACKey string
}

type GatewayConfig struct {
	BaseURL    string
	APIKey     string
	Timeout    time.Duration
	RetryCount int
}

type MandateConfig struct {
	ReturnURL            string
	WebhookBaseURL       string
	RelaySchedule        string
	MaxReconcileAttempts int
}

type AuthConfig struct {
	JWTSecret string
}

// Load reads variables from a .env file if present and builds the Config.
func Load() (*Config, error) {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Port:          GetEnv("PORT", "3000"),
			AllowOrigins:  GetEnv("CORS_ALLOW_ORIGINS", "http://localhost:5173"),
			Env:           GetEnv("ENV", "development"),
			CalcRateLimit: GetIntEnv("CALC_RATE_LIMIT", 60),
		},
		Database: DatabaseConfig{
			Host:            GetEnv("DB_HOST", "localhost"),
			Port:            GetEnv("DB_PORT", "5432"),
			User:            GetEnv("DB_USER", "postgres"),
			Password:        GetEnv("DB_PASSWORD", "postgres"),
			Name:            GetEnv("DB_NAME", "emandate"),
			SSLMode:         GetEnv("DB_SSL_MODE", "disable"),
			MaxIdleConns:    GetIntEnv("DB_MAX_IDLE_CONNS", 10),
			MaxOpenConns:    GetIntEnv("DB_MAX_OPEN_CONNS", 100),
			ConnMaxLifetime: GetDurationEnv("DB_CONN_MAX_LIFETIME", time.Hour),
			ConnMaxIdleTime: GetDurationEnv("DB_CONN_MAX_IDLE_TIME", 30*time.Minute),
		},
		Redis: RedisConfig{
			Host:     GetEnv("REDIS_HOST", "localhost"),
			Port:     GetEnv("REDIS_PORT", "6379"),
			Password: GetEnv("REDIS_PASSWORD", ""),
			DB:       GetIntEnv("REDIS_DB", 0),
			SlabTTL:  GetDurationEnv("REDIS_SLAB_TTL", time.Minute),
		},
		Legacy: LegacyCodecConfig{
			Key: GetEnv("AUTH_KEY", ""),
			IV:  GetEnv("AUTH_IV", ""),
		},
		Authenticated: AuthenticatedCodecConfig{
			AESKey:  GetEnv("API_AES_KEY", ""),
			HMACKey: GetEnv("API_HMAC_KEY", ""),
		},
		Gateway: GatewayConfig{
			BaseURL:    GetEnv("GATEWAY_BASE_URL", ""),
			APIKey:     GetEnv("GATEWAY_API_KEY", ""),
			Timeout:    GetDurationEnv("GATEWAY_TIMEOUT", 30*time.Second),
			RetryCount: GetIntEnv("GATEWAY_RETRY_COUNT", 2),
		},
		Mandate: MandateConfig{
			ReturnURL:            GetEnv("RETURN_URL", ""),
			WebhookBaseURL:       GetEnv("WEBHOOK_BASE_URL", ""),
			RelaySchedule:        GetEnv("RECONCILE_RELAY_SCHEDULE", "@every 1m"),
			MaxReconcileAttempts: GetIntEnv("RECONCILE_MAX_ATTEMPTS", 5),
		},
		Auth: AuthConfig{
			JWTSecret: GetEnv("JWT_SECRET", ""),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects codec material the codecs would refuse later, so a bad
// deployment fails at boot instead of on the first request.
func (c *Config) Validate() error {
	if len(c.Legacy.Key) != 16 {
		return fmt.Errorf("AUTH_KEY must be exactly 16 bytes, got %d", len(c.Legacy.Key))
	}
	if len(c.Legacy.IV) != 16 {
		return fmt.Errorf("AUTH_IV must be exactly 16 bytes, got %d", len(c.Legacy.IV))
	}
	aesKey, err := base64.StdEncoding.DecodeString(c.Authenticated.AESKey)
	if err != nil {
		return fmt.Errorf("API_AES_KEY is not valid base64: %w", err)
	}
	if len(aesKey) != 32 {
		return fmt.Errorf("API_AES_KEY must decode to 32 bytes, got %d", len(aesKey))
	}
	hmacKey, err := base64.StdEncoding.DecodeString(c.Authenticated.HMACKey)
	if err != nil {
		return fmt.Errorf("API_HMAC_KEY is not valid base64: %w", err)
	}
	if len(hmacKey) == 0 {
		return fmt.Errorf("API_HMAC_KEY is required")
	}
	if c.Gateway.BaseURL == "" {
		return fmt.Errorf("GATEWAY_BASE_URL is required")
	}
	if c.Mandate.ReturnURL == "" {
		return fmt.Errorf("RETURN_URL is required")
	}
	return nil
}

// IsProduction checks if the app runs in production mode.
func (c *Config) IsProduction() bool {
	return c.Server.Env == "production"
}

// GetEnv returns an environment variable or a default value.
func GetEnv(key, defaultVal string) string {
	if val, ok := os.LookupEnv(key); ok && val != "" {
		return val
	}
	return defaultVal
}

// GetIntEnv returns an int environment variable or a default value.
func GetIntEnv(key string, defaultVal int) int {
	if val, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

// GetDurationEnv returns a time.Duration environment variable or a default value.
func GetDurationEnv(key string, defaultVal time.Duration) time.Duration {
	if val, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return defaultVal
}
