package app

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/aussiebroadwan/medoffice/pkg/totpx"
)

// maxTOTPSkew caps AUTH_2FA_SKEW; wider windows accept codes from minutes away.
const maxTOTPSkew = 10

type Config struct {
	Issuer         string // Required: issuer claim for tokens and authenticator app label
	BootstrapToken string // Optional: token required to perform bootstrap

	SigningKeyFile string        // Optional: PKCS8 Ed25519 key file, generated on first start (default: ephemeral keys)
	NumKeys        int           // Optional: number of ephemeral signing keys (default: 1, max: 10)
	SessionTTL     time.Duration // Session token lifetime (default: 24h)
	PendingTTL     time.Duration // Temporary token lifetime (default: 15m)

	SecondFactorRoles string // Comma separated roles that must pass TOTP (default: doctor)
	TOTPSkew          uint   // Accepted TOTP steps either side of now (default: 4)
	BypassCode        string // Optional: fixed code accepted for any account, never honoured in production
	ReauthOnReset     bool   // Require the password to replace an active second factor (default: true)

	RedisAddr     string // Optional: enables the shared attempt limiter
	RedisPassword string
	RedisDB       int

	DatabaseFile         string        // Optional: path to SQLite database file (default: ./auth.db)
	PepperFile           string        // Optional: path to file containing pepper for password hashing (default: ./pepper)
	Env                  string        // Environment (dev, staging, prod) (default: dev)
	LogLevel             string        // Log level (debug, info, warn, error) (default: info)
	LogFormat            string        // Log format (json, text) (default: json)
	Port                 int           // HTTP server port (default: 8080)
	ShutdownGracePeriod  time.Duration // Graceful shutdown timeout (default: 10s)
	HousekeepingInterval time.Duration // Housekeeping interval (default: 1h)
	BackupCodeRetention  time.Duration // How long used backup codes are kept (default: 30 days)
}

// LoadConfig reads the environment. A .env file in the working directory is
// loaded first but never overrides variables that are already set.
func LoadConfig() Config {
	_ = godotenv.Load()

	cfg := Config{
		Issuer:         os.Getenv("AUTH_ISSUER"),
		SigningKeyFile: os.Getenv("AUTH_SIGNING_KEY_FILE"),
		NumKeys:        getEnvIntOrDefault("AUTH_NUM_KEYS", 0),
		SessionTTL:     getEnvDurationOrDefault("AUTH_SESSION_TTL", 24*time.Hour),
		PendingTTL:     getEnvDurationOrDefault("AUTH_TEMP_TOKEN_TTL", 15*time.Minute),
		DatabaseFile: getEnvOrDefault(
			"AUTH_DATABASE_FILE",
			"auth.db",
		),
		PepperFile: getEnvOrDefault("AUTH_PEPPER_FILE", "pepper"), // Default to ./pepper
		BootstrapToken: os.Getenv(
			"BOOTSTRAP_TOKEN",
		), // Optional: if set, required to perform bootstrap

		SecondFactorRoles: getEnvOrDefault("AUTH_2FA_ROLES", "doctor"), // "none" disables the second factor
		TOTPSkew:          getSkewOrDefault("AUTH_2FA_SKEW"),
		BypassCode:        os.Getenv("AUTH_2FA_BYPASS_CODE"),
		ReauthOnReset:     getEnvBoolOrDefault("AUTH_2FA_REAUTH_ON_RESET", true),

		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       getEnvIntOrDefault("REDIS_DB", 0),

		Env:                  getEnvOrDefault("ENV", "dev"),
		LogLevel:             getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:            getEnvOrDefault("LOG_FORMAT", "json"),
		Port:                 getEnvIntOrDefault("PORT", 8080),
		ShutdownGracePeriod:  getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", 10*time.Second),
		HousekeepingInterval: getEnvDurationOrDefault("HOUSEKEEPING_INTERVAL", 1*time.Hour),
		BackupCodeRetention:  getEnvDurationOrDefault("BACKUP_CODE_RETENTION", 30*24*time.Hour),
	}

	// Default issuer
	if cfg.Issuer == "" {
		cfg.Issuer = "medoffice-auth"
	}

	return cfg
}

// IsProduction reports whether Env names a production deployment.
func (c Config) IsProduction() bool {
	switch strings.ToLower(strings.TrimSpace(c.Env)) {
	case "prod", "production":
		return true
	}
	return false
}

// EffectiveBypassCode is the bypass code the service should honour.
func (c Config) EffectiveBypassCode() string {
	if c.IsProduction() {
		return ""
	}
	return strings.TrimSpace(c.BypassCode)
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getSkewOrDefault falls back to the default window for values outside
// 0..maxTOTPSkew instead of wrapping negatives into a huge uint.
func getSkewOrDefault(key string) uint {
	skew := getEnvIntOrDefault(key, totpx.DefaultSkew)
	if skew < 0 || skew > maxTOTPSkew {
		return totpx.DefaultSkew
	}
	return uint(skew)
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if intValue, err := strconv.Atoi(value); err == nil {
		return intValue
	}

	return defaultValue
}

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if b, err := strconv.ParseBool(value); err == nil {
		return b
	}

	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	// Try parsing as duration (e.g., "1h", "30m", "90s")
	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}

	// Try parsing as integer minutes (for backwards compatibility)
	if minutes, err := strconv.Atoi(value); err == nil {
		return time.Duration(minutes) * time.Minute
	}

	return defaultValue
}
