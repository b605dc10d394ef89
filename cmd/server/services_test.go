package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rpgmapper/backend/internal/config"
	"github.com/rpgmapper/backend/internal/resource"
)

func testConfig(t *testing.T) *config.AppConfig {
	t.Helper()
	dir := t.TempDir()
	cfg := config.DefaultConfig()
	cfg.Storage.DataDirectory = dir
	cfg.Storage.AtlasDirectory = filepath.Join(dir, "atlases")
	cfg.Storage.ResourceDB = filepath.Join(dir, "resources.duckdb")
	cfg.Editor.ShapeCatalog = filepath.Join(dir, "shapes.yaml")
	cfg.Advanced.DuckDBThreads = 1
	cfg.Advanced.DuckDBMemoryLimit = "128MB"
	return cfg
}

func TestOpenServicesInMemory(t *testing.T) {
	cfg := testConfig(t)
	cfg.Storage.InMemoryResources = true

	svc, err := openServices(cfg)
	require.NoError(t, err)
	assert.IsType(t, &resource.MemoryStore{}, svc.resources)
	assert.Equal(t, "in-memory", svc.resourceMode)
	assert.Equal(t, "json", svc.codec.Name())
	assert.Equal(t, 0, svc.shapes.Len())
	assert.NoError(t, svc.Close())
}

func TestOpenServicesDuckDB(t *testing.T) {
	cfg := testConfig(t)
	cfg.Storage.DocumentCodec = "msgpack"

	svc, err := openServices(cfg)
	require.NoError(t, err)
	assert.IsType(t, &resource.DuckStore{}, svc.resources)
	assert.Equal(t, cfg.Storage.ResourceDB, svc.resourceMode)
	assert.Equal(t, "msgpack", svc.codec.Name())
	require.NoError(t, svc.Close())
	assert.NoError(t, svc.Close(), "closing twice is harmless")
}

func TestOpenServicesFailuresLeaveDatabaseUnopened(t *testing.T) {
	tests := []struct {
		name   string
		modify func(t *testing.T, cfg *config.AppConfig)
	}{
		{"unknown codec", func(t *testing.T, cfg *config.AppConfig) {
			cfg.Storage.DocumentCodec = "xml"
		}},
		{"broken shape catalog", func(t *testing.T, cfg *config.AppConfig) {
			require.NoError(t, os.WriteFile(cfg.Editor.ShapeCatalog, []byte("shapes: ["), 0644))
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig(t)
			tt.modify(t, cfg)

			svc, err := openServices(cfg)
			require.Error(t, err)
			assert.Nil(t, svc)
			assert.NoFileExists(t, cfg.Storage.ResourceDB)
		})
	}
}
