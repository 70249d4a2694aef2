package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/junioryono/fnboot/config"
)

func writeEnvFile(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestNew_Environ(t *testing.T) {
	t.Parallel()

	cfg, err := config.New(
		config.WithoutEnvFile(),
		config.WithEnviron([]string{
			"DATABASE_URL=postgres://localhost/app",
			"FEATURE_ENABLED=true",
			"WORKERS=4",
			"TIMEOUT=1m30s",
			"EQUALS=a=b",
			"malformed",
			"=nokey",
		}),
	)
	require.NoError(t, err)

	t.Run("keys are case-insensitive", func(t *testing.T) {
		assert.Equal(t, "postgres://localhost/app", cfg.Get("DATABASE_URL"))
		assert.Equal(t, "postgres://localhost/app", cfg.Get("database_url"))
		assert.Equal(t, "postgres://localhost/app", cfg.Get("Database_Url"))
	})

	t.Run("typed accessors", func(t *testing.T) {
		assert.True(t, cfg.GetBool("feature_enabled"))
		assert.Equal(t, 4, cfg.GetInt("WORKERS"))
		assert.Equal(t, 90*time.Second, cfg.GetDuration("TIMEOUT"))
	})

	t.Run("values keep their equals signs", func(t *testing.T) {
		assert.Equal(t, "a=b", cfg.Get("EQUALS"))
	})

	t.Run("missing keys", func(t *testing.T) {
		_, ok := cfg.Lookup("MISSING")
		assert.False(t, ok)
		assert.Empty(t, cfg.Get("MISSING"))
		assert.Equal(t, "fallback", cfg.GetOr("MISSING", "fallback"))
		assert.Equal(t, "4", cfg.GetOr("WORKERS", "fallback"))
		assert.NotContains(t, cfg.Keys(), "malformed")
	})
}

func TestNew_EnvFile(t *testing.T) {
	t.Parallel()

	path := writeEnvFile(t, "API_KEY=from-file\nREGION=eu-west-1\n# comment\nQUOTED=\"with spaces\"\n")

	cfg, err := config.New(
		config.WithEnvFile(path),
		config.WithEnviron([]string{"REGION=us-east-1"}),
	)
	require.NoError(t, err)

	assert.Equal(t, "from-file", cfg.Get("api_key"))
	assert.Equal(t, "us-east-1", cfg.Get("REGION"), "environment overrides the file")
	assert.Equal(t, "with spaces", cfg.Get("QUOTED"))
}

func TestNew_MissingEnvFile(t *testing.T) {
	t.Parallel()

	missing := filepath.Join(t.TempDir(), "missing.env")

	_, err := config.New(config.WithEnvFile(missing), config.WithEnviron([]string{}))
	assert.Error(t, err)
}

func TestNew_Defaults(t *testing.T) {
	t.Parallel()

	cfg, err := config.New(
		config.WithoutEnvFile(),
		config.WithEnviron([]string{"PORT=9000"}),
		config.WithDefaults(map[string]any{"PORT": "8080", "LOG_LEVEL": "info"}),
	)
	require.NoError(t, err)

	assert.Equal(t, "9000", cfg.Get("PORT"))
	assert.Equal(t, "info", cfg.Get("log_level"))

	value, ok := cfg.Lookup("LOG_LEVEL")
	assert.True(t, ok)
	assert.Equal(t, "info", value)
}

func TestConfiguration_Set(t *testing.T) {
	t.Parallel()

	cfg, err := config.New(config.WithoutEnvFile(), config.WithEnviron([]string{}))
	require.NoError(t, err)

	cfg.Set("Shutdown_Timeout", "5s")
	assert.Equal(t, 5*time.Second, cfg.GetDuration("SHUTDOWN_TIMEOUT"))
	assert.Contains(t, cfg.Keys(), "shutdown_timeout")
}
