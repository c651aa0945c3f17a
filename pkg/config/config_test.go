package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFileAppliesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("sqlite:\n  path: /tmp/test.db\n"), 0o600))

	cfg, err := LoadFile(path)
	require.NoError(t, err)

	assert.Equal(t, "/tmp/test.db", cfg.SQLite.Path)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 1, cfg.LLM.FeedbackMaxAttempts)
	assert.InDelta(t, 0.2, cfg.LLM.Temperature, 0.0001)
	assert.False(t, cfg.Redis.Enabled)
}

func TestLoadFileEnvOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("llm:\n  model: gpt-4o\n"), 0o600))
	t.Setenv("MOCKPREP_LLM_MODEL", "gpt-4.1")

	cfg, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "gpt-4.1", cfg.LLM.Model)
}

func TestLoadFileRejectsOutOfRangeTemperature(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("llm:\n  temperature: 1.7\n"), 0o600))

	_, err := LoadFile(path)
	assert.ErrorContains(t, err, "llm.temperature")
}

func TestLoadFileRejectsZeroTemperature(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("llm:\n  temperature: 0\n"), 0o600))

	_, err := LoadFile(path)
	assert.ErrorContains(t, err, "llm.temperature")
}
