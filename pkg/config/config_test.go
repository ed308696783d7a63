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
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, "environment: test\nserver:\n  port: 9090\n")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "test", cfg.Environment)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 7, cfg.Model.Residual.Lags)
	assert.Equal(t, 100, cfg.Model.Residual.Estimators)
	assert.InDelta(t, 0.1, cfg.Model.Residual.LearningRate, 1e-12)
	assert.Equal(t, int64(42), cfg.Model.Residual.Seed)
	assert.InDelta(t, 0.8, cfg.Model.Residual.TrainRatio, 1e-12)
	assert.Equal(t, 10*time.Second, cfg.Source.Timeout)
	assert.True(t, cfg.Model.TrainOnStartup)
	assert.Equal(t, time.Date(2026, 12, 31, 0, 0, 0, 0, time.UTC), cfg.HorizonEnd())
}

func TestLoadKeepsExplicitFalse(t *testing.T) {
	path := writeConfig(t, "model:\n  train_on_startup: false\nmetrics:\n  enabled: false\n")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.False(t, cfg.Model.TrainOnStartup)
	assert.False(t, cfg.Metrics.Enabled)
}

func TestLoadRejectsInvalid(t *testing.T) {
	cases := map[string]string{
		"bad lags":      "model:\n  residual:\n    lags: 5\n",
		"bad backend":   "cache:\n  backend: disk\n",
		"redis needed":  "cache:\n  backend: redis\n",
		"queue needs":   "queue:\n  enabled: true\n",
		"kafka brokers": "kafka:\n  enabled: true\n  brokers: []\n",
		"bad window":    "source:\n  from: \"2020-01-01\"\n  to: \"2019-01-01\"\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeConfig(t, body))
			require.Error(t, err)
		})
	}
}

func TestLoadWithEnvOverrides(t *testing.T) {
	path := writeConfig(t, "environment: test\n")
	t.Setenv("HTTP_PORT", "7070")
	t.Setenv("MODEL_DIR", "/tmp/models")
	t.Setenv("KAFKA_BROKERS", "a:9092,b:9092")

	cfg, err := LoadWithEnv(path)
	require.NoError(t, err)
	assert.Equal(t, 7070, cfg.Server.Port)
	assert.Equal(t, "/tmp/models", cfg.Model.Dir)
	assert.True(t, cfg.Kafka.Enabled)
	assert.Equal(t, []string{"a:9092", "b:9092"}, cfg.Kafka.Brokers)
}

func TestLoadWithEnvMissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadWithEnv(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "development", cfg.Environment)

	from, to := cfg.SourceWindow()
	assert.Equal(t, 2005, from.Year())
	assert.True(t, to.IsZero())
}
