package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
servers:
  - id: primary
    host: news.example.com
    port: 563
    tls: true
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "./downloads", cfg.Download.OutDir)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.True(t, cfg.Log.IncludeStdout)
	assert.Equal(t, "./yendl.db", cfg.History.SQLitePath)
	assert.Equal(t, 10, cfg.Servers[0].MaxConnection)
	assert.Equal(t, 1, cfg.Servers[0].Priority)
}

func TestLoadRejectsMissingServers(t *testing.T) {
	path := writeConfig(t, "servers: []\n")

	_, err := Load(path)
	assert.ErrorContains(t, err, "at least one server")
}

func TestLoadRejectsServerMissingHost(t *testing.T) {
	path := writeConfig(t, `
servers:
  - id: primary
    port: 119
`)

	_, err := Load(path)
	assert.ErrorContains(t, err, "host is required")
}

func TestLoadRejectsServerMissingID(t *testing.T) {
	path := writeConfig(t, `
servers:
  - host: news.example.com
    port: 119
`)

	_, err := Load(path)
	assert.ErrorContains(t, err, "unique ID")
}

func TestLoadEnvOverride(t *testing.T) {
	path := writeConfig(t, `
servers:
  - id: primary
    host: news.example.com
    port: 119
`)

	t.Setenv("GONZB_DOWNLOAD_OUT_DIR", "/tmp/custom")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/custom", cfg.Download.OutDir)
}
