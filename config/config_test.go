package config

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadCreatesDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "leveldb", cfg.Backend)
	require.Equal(t, uint64(1), cfg.StaleAfterSlots)
	require.FileExists(t, path)

	// Loading again reads the persisted file rather than regenerating it.
	again, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, cfg, again)
}

func TestLoadNormalizesBackend(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, persist(path, &Config{Backend: "Bolt", DataDir: "/tmp/x"}))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "bolt", cfg.Backend)
	require.Equal(t, filepath.Join("/tmp/x", "records.db"), cfg.DatabasePath())
}

func TestLoadRejectsUnknownBackend(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, persist(path, &Config{Backend: "sqlite"}))

	_, err := Load(path)
	require.Error(t, err)
}
