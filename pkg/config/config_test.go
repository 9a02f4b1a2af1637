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
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 8090, cfg.Server.Port)
	assert.Equal(t, 5, cfg.Analyzer.DefaultTopN)
	assert.Equal(t, "dict", cfg.Segmenter.Mode)
	assert.Equal(t, "embed", cfg.Lexicon.Source)
	assert.Equal(t, "keyword-extraction-jobs", cfg.Kafka.Topics.ExtractionJobs)
}

func TestLoadFileOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 9000
analyzer:
  defaultTopN: 10
  maxTopN: 20
segmenter:
  mode: unicode
  lowercase: true
lexicon:
  source: dir
  dir: /srv/lexicon
redis:
  cacheTTL: 30s
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, 10, cfg.Analyzer.DefaultTopN)
	assert.Equal(t, "unicode", cfg.Segmenter.Mode)
	assert.True(t, cfg.Segmenter.Lowercase)
	assert.Equal(t, "/srv/lexicon", cfg.Lexicon.Dir)
	assert.Equal(t, 30*time.Second, cfg.Redis.CacheTTL)
	assert.Equal(t, "idf_dict.txt", cfg.Lexicon.IDFName, "unset fields keep defaults")
}

func TestEnvOverridesFile(t *testing.T) {
	path := writeConfig(t, "server:\n  port: 9000\n")
	t.Setenv("KE_SERVER_PORT", "9100")
	t.Setenv("KE_KAFKA_BROKERS", "k1:9092,k2:9092")
	t.Setenv("KE_REDIS_ENABLED", "false")
	t.Setenv("KE_LEXICON_SOURCE", "s3")
	t.Setenv("KE_LEXICON_S3_BUCKET", "lexicons")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 9100, cfg.Server.Port)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
	assert.False(t, cfg.Redis.Enabled)
	assert.Equal(t, "lexicons", cfg.Lexicon.S3.Bucket)
}

func TestLoadRejectsInvalid(t *testing.T) {
	cases := map[string]string{
		"topN above max":      "analyzer:\n  defaultTopN: 50\n  maxTopN: 10\n",
		"unknown segmenter":   "segmenter:\n  mode: whitespace\n",
		"dir without path":    "lexicon:\n  source: dir\n",
		"s3 without bucket":   "lexicon:\n  source: s3\n",
		"unknown source":      "lexicon:\n  source: ftp\n",
		"bad rate limit":      "rateLimit:\n  requestsPerWindow: 0\n",
		"zero content budget": "analyzer:\n  maxContentBytes: 0\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeConfig(t, body))
			assert.ErrorContains(t, err, "invalid config")
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestDSN(t *testing.T) {
	p := defaultConfig().Postgres
	assert.Equal(t, "host=localhost port=5432 user=keywords password=localdev dbname=keywords sslmode=disable", p.DSN())
}
