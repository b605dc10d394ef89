package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigCreatesDefault(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "RPGMapper.config")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.FileExists(t, path)

	assert.Equal(t, 8090, cfg.Server.Port)
	assert.Equal(t, filepath.Join(dir, "data", "atlases"), cfg.Storage.AtlasDirectory)
	assert.Equal(t, filepath.Join(dir, "data", "resources.duckdb"), cfg.Storage.ResourceDB)
	assert.Equal(t, filepath.Join(dir, "data", "shapes.yaml"), cfg.Editor.ShapeCatalog)
	assert.True(t, cfg.Editor.SeedDefaultAtlas)
	assert.Equal(t, "0.0.0.0:8090", cfg.GetServerAddr())
}

func TestLoadConfigReadsFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "RPGMapper.config")
	cfg := DefaultConfig()
	cfg.Server.Port = 9100
	cfg.Editor.MaxSessions = 3
	cfg.Storage.DocumentCodec = "msgpack"
	cfg.Storage.AtlasDirectory = "/srv/atlases"
	require.NoError(t, cfg.Save(path))

	loaded, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 9100, loaded.Server.Port)
	assert.Equal(t, 3, loaded.Editor.MaxSessions)
	assert.Equal(t, "msgpack", loaded.Storage.DocumentCodec)
	assert.Equal(t, "/srv/atlases", loaded.Storage.AtlasDirectory, "absolute paths stay as they are")
}

func TestLoadConfigEnvironmentOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "RPGMapper.config")
	require.NoError(t, DefaultConfig().Save(path))

	t.Setenv("RPGMAPPER_PORT", "9999")
	t.Setenv("RPGMAPPER_RESOURCE_DB", "/var/lib/rpgmapper/res.duckdb")
	t.Setenv("RPGMAPPER_SEED_DEFAULT_ATLAS", "false")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 9999, cfg.Server.Port)
	assert.Equal(t, "/var/lib/rpgmapper/res.duckdb", cfg.Storage.ResourceDB)
	assert.False(t, cfg.Editor.SeedDefaultAtlas)
	assert.Equal(t, "0.0.0.0", cfg.Server.BindAddress, "unset variables keep file values")
}

func TestLoadConfigErrors(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "RPGMapper.config")
	require.NoError(t, os.WriteFile(path, []byte("<RPGMapper><Server>"), 0644))
	_, err := LoadConfig(path)
	assert.Error(t, err)

	require.NoError(t, DefaultConfig().Save(path))
	t.Setenv("RPGMAPPER_PORT", "not-a-port")
	_, err = LoadConfig(path)
	assert.Error(t, err)
}

func TestDurations(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, 30*time.Minute, cfg.SessionTimeout())
	assert.Equal(t, 5*time.Minute, cfg.CleanupInterval())
	cfg.Editor.CleanupIntervalMinutes = 0
	assert.Equal(t, 5*time.Minute, cfg.CleanupInterval())
}

func TestEnsureDirectories(t *testing.T) {
	dir := t.TempDir()
	cfg := DefaultConfig()
	cfg.resolvePaths(dir)
	require.NoError(t, cfg.EnsureDirectories())
	assert.DirExists(t, filepath.Join(dir, "data", "atlases"))
}
