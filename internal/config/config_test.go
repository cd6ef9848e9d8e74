package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadEmptyPathReturnsDefault(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, Default(), cfg)
}

func TestEnsureConfigFileWritesDefaultsOnce(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cfg.json")
	require.NoError(t, EnsureConfigFile(path))

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	require.NotEmpty(t, b)

	// A second call must not overwrite a pre-existing file.
	require.NoError(t, os.WriteFile(path, []byte(`{"replay":{"concurrency":3}}`), 0o644))
	require.NoError(t, EnsureConfigFile(path))
	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, 3, cfg.Replay.Concurrency)
}

func TestLoadFillsMissingDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cfg.json")
	require.NoError(t, os.WriteFile(path, []byte(`{}`), 0o644))
	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, 8, cfg.Replay.Concurrency)
	require.Equal(t, "info", cfg.Logging.Level)
	require.Equal(t, ":1517", cfg.DebugAPI.Addr)
}

func TestValidateRejectsBadConcurrency(t *testing.T) {
	cfg := Default()
	cfg.Replay.Concurrency = 0
	require.Error(t, cfg.Validate())
}

func TestValidateRejectsBadLogLevel(t *testing.T) {
	cfg := Default()
	cfg.Logging.Level = "verbose"
	require.Error(t, cfg.Validate())
}
