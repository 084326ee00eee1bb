package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const resourcesYAML = `
resources:
  posts:
    sort: {field: published_at, order: DESC}
    perPage: 25
    filterDefaultValues:
      status: published
      authorId: 7
  comments:
    sort: {field: id}
`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0o600))
	return p
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "missing.yaml"))

	cfg, err := load(filepath.Join(t.TempDir(), ".env"))
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.App.Port)
	assert.Equal(t, "/api/v1/lists", cfg.App.BasePath)
	assert.Equal(t, DriverMemory, cfg.Store.Driver)
	assert.Equal(t, 500*time.Millisecond, cfg.Lists.Debounce)
	assert.Equal(t, 30*time.Minute, cfg.Lists.IdleTTL)
	assert.Equal(t, 720*time.Hour, cfg.Store.TTL)
	assert.Empty(t, cfg.Lists.Resources)
}

func TestLoadResourcesKeepsKeyCase(t *testing.T) {
	t.Setenv("CONFIG_FILE", writeFile(t, "listkeeper.yaml", resourcesYAML))

	cfg, err := load(filepath.Join(t.TempDir(), ".env"))
	require.NoError(t, err)
	require.Len(t, cfg.Lists.Resources, 2)

	posts := cfg.Lists.Resources["posts"]
	assert.Equal(t, SortCfg{Field: "published_at", Order: "DESC"}, posts.Sort)
	assert.Equal(t, 25, posts.PerPage)
	assert.Equal(t, map[string]any{"status": "published", "authorId": 7}, posts.FilterDefaultValues)
	assert.Equal(t, SortCfg{Field: "id"}, cfg.Lists.Resources["comments"].Sort)
}

func TestLoadReadsDotenv(t *testing.T) {
	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "missing.yaml"))
	// registered so the variables godotenv sets are restored afterwards
	t.Setenv("APP_PORT", "")
	os.Unsetenv("APP_PORT")
	t.Setenv("FILTER_DEBOUNCE", "")
	os.Unsetenv("FILTER_DEBOUNCE")

	env := writeFile(t, ".env", "APP_PORT=9999\nFILTER_DEBOUNCE=250ms\n")
	cfg, err := load(env)
	require.NoError(t, err)
	assert.Equal(t, "9999", cfg.App.Port)
	assert.Equal(t, 250*time.Millisecond, cfg.Lists.Debounce)
}

func TestLoadRejectsBadSettings(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"unknown driver", map[string]string{"STORE_DRIVER": "mongo"}},
		{"postgres without dsn", map[string]string{"STORE_DRIVER": "postgres"}},
		{"redis without addr", map[string]string{"STORE_DRIVER": "redis"}},
		{"zero debounce", map[string]string{"FILTER_DEBOUNCE": "0s"}},
		{"negative sweep interval", map[string]string{"SWEEP_EVERY": "-1s"}},
		{"zero sweep interval", map[string]string{"SWEEP_EVERY": "0s"}},
		{"negative idle ttl", map[string]string{"SESSION_IDLE_TTL": "-5m"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "missing.yaml"))
			t.Setenv("DB_DSN", "")
			t.Setenv("REDIS_ADDR", "")
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := load(filepath.Join(t.TempDir(), ".env"))
			assert.Error(t, err)
		})
	}
}

func TestLoadAcceptsConfiguredStores(t *testing.T) {
	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "missing.yaml"))
	t.Setenv("STORE_DRIVER", " Redis ")
	t.Setenv("REDIS_ADDR", "localhost:6379")

	cfg, err := load(filepath.Join(t.TempDir(), ".env"))
	require.NoError(t, err)
	assert.Equal(t, DriverRedis, cfg.Store.Driver)
	assert.Equal(t, "localhost:6379", cfg.Store.RedisAddr)
}

func TestLoadResourcesErrors(t *testing.T) {
	_, err := loadResources(writeFile(t, "bad.yaml", "resources: [1, 2"))
	assert.Error(t, err)

	_, err = loadResources(writeFile(t, "neg.yaml", "resources:\n  posts:\n    perPage: -5\n"))
	assert.Error(t, err)

	out, err := loadResources(writeFile(t, "empty.yaml", ""))
	require.NoError(t, err)
	assert.NotNil(t, out)
}
