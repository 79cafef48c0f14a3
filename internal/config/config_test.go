package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("test", writeConfig(t, "server:\n  port: 9090\n"))
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "logs", cfg.Logs.BaseDir)
	assert.Equal(t, 2*time.Second, cfg.Audit.WriteTimeout)
	assert.True(t, cfg.Audit.TrackToLogFile)
	assert.Empty(t, cfg.CORS.AllowOrigins)
}

func TestLoadCORSFromEnv(t *testing.T) {
	t.Setenv("APP_CORS_ALLOW_ORIGINS", "https://a.example,https://b.example")

	cfg, err := Load("test", writeConfig(t, "cors:\n  allow_methods: [GET, POST]\n"))
	require.NoError(t, err)

	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORS.AllowOrigins)
	assert.Equal(t, []string{"GET", "POST"}, cfg.CORS.AllowMethods)
}
