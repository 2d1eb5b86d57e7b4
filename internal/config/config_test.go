package config

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pgprism/pgprism/test"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, "auto", cfg.Color)
	assert.True(t, cfg.Icons)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 30*time.Second, cfg.QueryTimeout)
	assert.Equal(t, 20, cfg.Diff.MaxItems)
}

func TestLoadSampleFile(t *testing.T) {
	t.Cleanup(func() { Use(Default()) })

	path := filepath.Join(test.RootPath(t), "samples", "config.example.yaml")
	require.NoError(t, Load(path, nil))

	cfg := Active()
	assert.Equal(t, 45*time.Second, cfg.QueryTimeout)
	assert.InDelta(t, 2.5, cfg.Diff.MinSelfDelta, 1e-9)
	assert.Equal(t, 12, cfg.Diff.MaxItems)
	assert.Equal(t, "auto", cfg.Color)
}

func TestLoadEnvironment(t *testing.T) {
	t.Cleanup(func() { Use(Default()) })
	t.Setenv("PGPRISM_COLOR", "never")
	t.Setenv("PGPRISM_QUERY_TIMEOUT", "10s")
	t.Setenv("PGPRISM_DIFF_MAX_ITEMS", "7")

	require.NoError(t, Load("", nil))

	cfg := Active()
	assert.Equal(t, "never", cfg.Color)
	assert.Equal(t, 10*time.Second, cfg.QueryTimeout)
	assert.Equal(t, 7, cfg.Diff.MaxItems)
}

func TestLoadMissingExplicitFile(t *testing.T) {
	t.Cleanup(func() { Use(Default()) })

	err := Load(filepath.Join(t.TempDir(), "missing.yaml"), nil)
	require.Error(t, err)
}

func TestLoadRejectsBadValues(t *testing.T) {
	t.Cleanup(func() { Use(Default()) })
	t.Setenv("PGPRISM_COLOR", "sometimes")

	err := Load("", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "color mode")
}

func TestValidate(t *testing.T) {
	cfg := Config{}
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "auto", cfg.Color)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 30*time.Second, cfg.QueryTimeout)
	assert.Equal(t, 20, cfg.Diff.MaxItems)

	cfg = Config{LogLevel: "noisy"}
	require.Error(t, cfg.Validate())

	cfg = Config{QueryTimeout: -time.Second}
	require.Error(t, cfg.Validate())
}
