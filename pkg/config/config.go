package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// insecure development secret used when JWT_SECRET is unset
const devJWTSecret = "dev-insecure-secret-change"

type Config struct {
	Port    string
	GinMode string

	DBDriver      string // postgres or sqlite
	DBDSN         string
	DBAutoMigrate bool
	DBLog         bool

	JWTSecret  string
	JWTIssuer  string
	JWTTTL     time.Duration
	RefreshTTL time.Duration

	GoogleClientID string

	PlaidClientID   string
	PlaidSecret     string
	PlaidEnv        string
	PlaidClientName string
	ProviderTimeout time.Duration
	SyncWindowDays  int

	// TokenEncryptionKey encrypts ledger access credentials at rest. Empty keeps them in plaintext.
	TokenEncryptionKey string

	LogLevel  string
	LogFormat string
}

// Load reads ./.env (if present, without overriding the real environment) and then
// resolves every setting from the environment with defaults.
func Load() *Config {
	_ = godotenv.Load()
	return FromViper(newViper())
}

func newViper() *viper.Viper {
	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("PORT", "8081")
	v.SetDefault("GIN_MODE", "release")
	v.SetDefault("DB_DRIVER", "postgres")
	v.SetDefault("DB_AUTO_MIGRATE", true)
	v.SetDefault("DB_LOG", false)
	v.SetDefault("JWT_SECRET", devJWTSecret)
	v.SetDefault("JWT_ISSUER", "vint")
	v.SetDefault("JWT_TTL", 15*time.Minute)
	v.SetDefault("REFRESH_TTL", 30*24*time.Hour)
	v.SetDefault("PLAID_ENV", "sandbox")
	v.SetDefault("PLAID_CLIENT_NAME", "Vint Budget Tracker")
	v.SetDefault("PROVIDER_TIMEOUT", 15*time.Second)
	v.SetDefault("SYNC_WINDOW_DAYS", 30)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")
	return v
}

// FromViper builds a Config from an already populated viper instance.
func FromViper(v *viper.Viper) *Config {
	return &Config{
		Port:    v.GetString("PORT"),
		GinMode: v.GetString("GIN_MODE"),

		DBDriver:      strings.ToLower(v.GetString("DB_DRIVER")),
		DBDSN:         v.GetString("DB_DSN"),
		DBAutoMigrate: v.GetBool("DB_AUTO_MIGRATE"),
		DBLog:         v.GetBool("DB_LOG"),

		JWTSecret:  v.GetString("JWT_SECRET"),
		JWTIssuer:  v.GetString("JWT_ISSUER"),
		JWTTTL:     v.GetDuration("JWT_TTL"),
		RefreshTTL: v.GetDuration("REFRESH_TTL"),

		GoogleClientID: v.GetString("GOOGLE_CLIENT_ID"),

		PlaidClientID:   v.GetString("PLAID_CLIENT_ID"),
		PlaidSecret:     v.GetString("PLAID_SECRET"),
		PlaidEnv:        strings.ToLower(v.GetString("PLAID_ENV")),
		PlaidClientName: v.GetString("PLAID_CLIENT_NAME"),
		ProviderTimeout: v.GetDuration("PROVIDER_TIMEOUT"),
		SyncWindowDays:  v.GetInt("SYNC_WINDOW_DAYS"),

		TokenEncryptionKey: v.GetString("TOKEN_ENCRYPTION_KEY"),

		LogLevel:  v.GetString("LOG_LEVEL"),
		LogFormat: strings.ToLower(v.GetString("LOG_FORMAT")),
	}
}

// UsesDevSecret reports whether the JWT secret is the built-in development fallback.
func (c *Config) UsesDevSecret() bool {
	return c.JWTSecret == devJWTSecret
}

// Validate validates the configuration and returns every problem found at once.
func (c *Config) Validate() error {
	var errs []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errs = append(errs, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errs = append(errs, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	switch c.DBDriver {
	case "postgres", "sqlite":
	default:
		errs = append(errs, fmt.Sprintf("invalid DB_DRIVER '%s': must be postgres or sqlite", c.DBDriver))
	}
	if strings.TrimSpace(c.DBDSN) == "" {
		errs = append(errs, "DB_DSN is required")
	}

	if c.JWTSecret == "" {
		errs = append(errs, "JWT_SECRET cannot be empty")
	}
	if c.JWTTTL <= 0 {
		errs = append(errs, fmt.Sprintf("invalid JWT_TTL %v: must be positive", c.JWTTTL))
	}
	if c.RefreshTTL < c.JWTTTL {
		errs = append(errs, "REFRESH_TTL must not be shorter than JWT_TTL")
	}

	switch c.PlaidEnv {
	case "sandbox", "production":
	default:
		errs = append(errs, fmt.Sprintf("invalid PLAID_ENV '%s': must be sandbox or production", c.PlaidEnv))
	}
	if c.ProviderTimeout < time.Second || c.ProviderTimeout > 2*time.Minute {
		errs = append(errs, fmt.Sprintf("invalid PROVIDER_TIMEOUT %v: must be between 1s and 2m", c.ProviderTimeout))
	}
	if c.SyncWindowDays < 1 || c.SyncWindowDays > 730 {
		errs = append(errs, fmt.Sprintf("invalid SYNC_WINDOW_DAYS %d: must be between 1 and 730", c.SyncWindowDays))
	}

	switch c.LogFormat {
	case "json", "text":
	default:
		errs = append(errs, fmt.Sprintf("invalid LOG_FORMAT '%s': must be json or text", c.LogFormat))
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errs, "\n- "))
	}
	return nil
}
