package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	t.Setenv("DB_DSN", "file.db")
	cfg := FromViper(newViper())

	assert.Equal(t, "8081", cfg.Port)
	assert.Equal(t, "postgres", cfg.DBDriver)
	assert.True(t, cfg.DBAutoMigrate)
	assert.Equal(t, 15*time.Minute, cfg.JWTTTL)
	assert.Equal(t, 15*time.Second, cfg.ProviderTimeout)
	assert.Equal(t, 30, cfg.SyncWindowDays)
	assert.True(t, cfg.UsesDevSecret())
	require.NoError(t, cfg.Validate())
}

func TestEnvironmentOverrides(t *testing.T) {
	t.Setenv("DB_DSN", "file.db")
	t.Setenv("DB_DRIVER", "SQLite")
	t.Setenv("DB_AUTO_MIGRATE", "false")
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("JWT_TTL", "1h")
	t.Setenv("PROVIDER_TIMEOUT", "5s")
	t.Setenv("SYNC_WINDOW_DAYS", "90")
	t.Setenv("LOG_FORMAT", "text")

	cfg := FromViper(newViper())

	assert.Equal(t, "sqlite", cfg.DBDriver)
	assert.False(t, cfg.DBAutoMigrate)
	assert.False(t, cfg.UsesDevSecret())
	assert.Equal(t, time.Hour, cfg.JWTTTL)
	assert.Equal(t, 5*time.Second, cfg.ProviderTimeout)
	assert.Equal(t, 90, cfg.SyncWindowDays)
	require.NoError(t, cfg.Validate())
}

func TestValidateCollectsAllErrors(t *testing.T) {
	cfg := &Config{
		Port:            "abc",
		DBDriver:        "mysql",
		JWTSecret:       "",
		JWTTTL:          time.Minute,
		RefreshTTL:      time.Hour,
		PlaidEnv:        "development",
		ProviderTimeout: 0,
		SyncWindowDays:  0,
		LogFormat:       "xml",
	}

	err := cfg.Validate()
	require.Error(t, err)
	for _, want := range []string{
		"invalid port",
		"invalid DB_DRIVER",
		"DB_DSN is required",
		"JWT_SECRET cannot be empty",
		"invalid PLAID_ENV",
		"invalid PROVIDER_TIMEOUT",
		"invalid SYNC_WINDOW_DAYS",
		"invalid LOG_FORMAT",
	} {
		assert.Contains(t, err.Error(), want)
	}
}
