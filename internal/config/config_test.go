package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadRequiresDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("JWT_SECRET", "secret")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoadRequiresJWTSecret(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/fleetops")
	t.Setenv("JWT_SECRET", "")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/fleetops")
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("PORT", "")
	t.Setenv("DB_MAX_CONNS", "")
	t.Setenv("NOTIFIER_SCHEDULE", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, int32(10), cfg.DB.MaxConns)
	assert.Equal(t, "uploads", cfg.Upload.Dir)
	assert.Equal(t, "0 8 * * *", cfg.NotifierSchedule)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/fleetops")
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("PORT", "9000")
	t.Setenv("DB_MAX_CONNS", "25")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9000", cfg.Port)
	assert.Equal(t, int32(25), cfg.DB.MaxConns)
}

func TestLoadRejectsBadIntegers(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/fleetops")
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("DB_MAX_CONNS", "lots")

	_, err := Load()
	assert.Error(t, err)
}
