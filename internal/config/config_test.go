package config

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kanban/internal/storage"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "kanban.jsonc")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.True(t, cfg.CompactOnDelete)
	assert.Equal(t, storage.DriverSQLite, cfg.DBDriver)
}

func TestLoad_FileThenEnv(t *testing.T) {
	path := writeConfig(t, `{
		// comments and trailing commas are allowed
		"addr": ":9090",
		"dbDriver": "pgx",
		"dbDsn": "postgres://kanban@localhost/kanban",
		"tokenTTL": "2h",
		"compactOnDelete": false,
		"corsOrigins": ["http://localhost:5173"],
	}`)
	t.Setenv("KANBAN_ADDR", ":7070")
	t.Setenv("KANBAN_LOG_FORMAT", "json")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":7070", cfg.Addr, "env wins over file")
	assert.Equal(t, storage.DriverPostgres, cfg.DBDriver)
	assert.Equal(t, "postgres://kanban@localhost/kanban", cfg.DBDSN)
	assert.Equal(t, 2*time.Hour, cfg.TokenTTL.Duration)
	assert.False(t, cfg.CompactOnDelete)
	assert.Equal(t, []string{"http://localhost:5173"}, cfg.CORSOrigins)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, "info", cfg.LogLevel, "absent keys keep defaults")
}

func TestLoad_EnvTypedValues(t *testing.T) {
	t.Setenv("KANBAN_TOKEN_TTL", "90m")
	t.Setenv("KANBAN_COMPACT_ON_DELETE", "false")
	t.Setenv("KANBAN_CORS_ORIGINS", "http://a.test, ,http://b.test")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 90*time.Minute, cfg.TokenTTL.Duration)
	assert.False(t, cfg.CompactOnDelete)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.CORSOrigins)

	t.Setenv("KANBAN_COMPACT_ON_DELETE", "sometimes")
	_, err = Load("")
	assert.Error(t, err)
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.jsonc"))
	assert.Error(t, err)

	_, err = Load(writeConfig(t, `{"addr": `))
	assert.ErrorContains(t, err, "invalid JSONC")

	_, err = Load(writeConfig(t, `{"tokenTTL": "soon"}`))
	assert.Error(t, err)

	_, err = Load(writeConfig(t, `{"dbDriver": "mysql", "logLevel": "loud"}`))
	require.Error(t, err)
	assert.ErrorContains(t, err, "dbDriver")
	assert.ErrorContains(t, err, "logLevel")
}

func TestLogger(t *testing.T) {
	var buf bytes.Buffer
	cfg := Default()
	cfg.LogFormat = "json"
	cfg.LogLevel = "warn"

	log := cfg.Logger(&buf)
	log.Info("hidden")
	log.Warn("shown")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), `"msg":"shown"`)
}
