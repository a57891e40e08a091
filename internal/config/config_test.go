package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestLoadDefaults expects that only the JWT secret is mandatory and that
// everything else has a usable default.
func TestLoadDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")

	cfg, err := Load()
	assert.NoError(t, err)
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "localhost:3306", cfg.DBHost)
	assert.Equal(t, "contacts", cfg.DBName)
	assert.Equal(t, "secret", cfg.JWTSecret)
}

// TestLoadOverrides expects that environment variables take precedence over
// the defaults.
func TestLoadOverrides(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("PORT", "9090")
	t.Setenv("DBHOST", "db:3306")
	t.Setenv("DBNAME", "directory")

	cfg, err := Load()
	assert.NoError(t, err)
	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, "db:3306", cfg.DBHost)
	assert.Equal(t, "directory", cfg.DBName)
}
