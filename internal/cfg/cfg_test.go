package cfg

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	s, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":5001", s.ListenAddr)
	assert.Equal(t, "model/scrap_rf.gob", s.ModelPath)
	assert.Equal(t, 300, s.Trees)
	assert.Equal(t, int64(42), s.Seed)
	assert.Equal(t, 0.2, s.HoldoutFraction)
	assert.Equal(t, 4, s.EvalBuckets)
	assert.Equal(t, 5*time.Second, s.FetchTimeout)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("LISTEN_ADDR", ":9900")
	t.Setenv("FOREST_TREES", "50")
	t.Setenv("EVAL_BUCKETS", "3")
	t.Setenv("DATABASE_URL", "postgres://localhost/scrap")

	s, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":9900", s.ListenAddr)
	assert.Equal(t, 50, s.Trees)
	assert.Equal(t, 3, s.EvalBuckets)
	assert.Equal(t, "postgres://localhost/scrap", s.DatabaseURL)
}

func TestLoadFromYAML(t *testing.T) {
	content := `
server:
  listen: ":7070"
  requestTimeout: 30s
store:
  sourceURL: https://example.supabase.co
  sourceKey: service-role-key
  fetchTimeout: 10s
model:
  path: /var/lib/scrap/model.gob
  trees: 120
  seed: 7
  holdoutFraction: 0.25
evaluation:
  buckets: 5
  outputDir: /var/lib/scrap/reports
system:
  dataPath: /var/lib/scrap
`
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	t.Setenv("CONFIG_FILE", path)

	s, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":7070", s.ListenAddr)
	assert.Equal(t, "https://example.supabase.co", s.SourceURL)
	assert.Equal(t, "service-role-key", s.SourceKey)
	assert.Equal(t, "/var/lib/scrap/model.gob", s.ModelPath)
	assert.Equal(t, 120, s.Trees)
	assert.Equal(t, int64(7), s.Seed)
	assert.Equal(t, 0.25, s.HoldoutFraction)
	assert.Equal(t, 5, s.EvalBuckets)
	assert.Equal(t, 10*time.Second, s.FetchTimeout)
	assert.Equal(t, 30*time.Second, s.RequestTimeout)
	assert.Equal(t, "/var/lib/scrap", s.DataPath)
}

func TestEnvOverridesYAML(t *testing.T) {
	content := `
model:
  trees: 120
`
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("FOREST_TREES", "77")

	s, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 77, s.Trees)
}

func TestValidation(t *testing.T) {
	cases := map[string]map[string]string{
		"too many trees":      {"FOREST_TREES": "100000"},
		"holdout too large":   {"HOLDOUT_FRACTION": "0.9"},
		"too few buckets":     {"EVAL_BUCKETS": "1"},
		"fetch timeout range": {"FETCH_TIMEOUT": "500ms"},
		"two sources": {
			"DATABASE_URL": "postgres://localhost/scrap",
			"SOURCE_URL":   "https://example.supabase.co",
		},
	}
	for name, env := range cases {
		t.Run(name, func(t *testing.T) {
			for k, v := range env {
				t.Setenv(k, v)
			}
			_, err := Load()
			assert.Error(t, err)
		})
	}
}
