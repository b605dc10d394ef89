// Package config provides XML-based configuration management with
// environment overrides.
package config

import (
	"encoding/xml"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"
)

// AppConfig represents the root XML configuration structure
type AppConfig struct {
	XMLName xml.Name `xml:"RPGMapper"`

	// Server configuration
	Server ServerConfig `xml:"Server"`

	// Storage configuration
	Storage StorageConfig `xml:"Storage"`

	// Editor configuration
	Editor EditorConfig `xml:"Editor"`

	// Advanced options
	Advanced AdvancedConfig `xml:"Advanced"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Port         int    `xml:"Port" env:"RPGMAPPER_PORT"`
	BindAddress  string `xml:"BindAddress" env:"RPGMAPPER_BIND_ADDRESS"`
	EnableCORS   bool   `xml:"EnableCORS" env:"RPGMAPPER_ENABLE_CORS"`
	AllowOrigins string `xml:"AllowOrigins" env:"RPGMAPPER_ALLOW_ORIGINS"`
	ReadTimeout  int    `xml:"ReadTimeoutSeconds"`
	WriteTimeout int    `xml:"WriteTimeoutSeconds"`
	IdleTimeout  int    `xml:"IdleTimeoutSeconds"`
	BodyLimit    string `xml:"BodyLimit" env:"RPGMAPPER_BODY_LIMIT"`
}

// StorageConfig contains file storage settings
type StorageConfig struct {
	DataDirectory  string `xml:"DataDirectory" env:"RPGMAPPER_DATA_DIR"`
	AtlasDirectory string `xml:"AtlasDirectory" env:"RPGMAPPER_ATLAS_DIR"`
	ResourceDB     string `xml:"ResourceDatabase" env:"RPGMAPPER_RESOURCE_DB"`
	// InMemoryResources keeps resources in memory instead of DuckDB.
	InMemoryResources bool `xml:"InMemoryResources" env:"RPGMAPPER_IN_MEMORY_RESOURCES"`
	// DocumentCodec is the codec of saved archives: json or msgpack.
	DocumentCodec string `xml:"DocumentCodec" env:"RPGMAPPER_DOCUMENT_CODEC"`
}

// EditorConfig contains session and editing settings
type EditorConfig struct {
	TileSize               float64 `xml:"TileSize"`
	MaxSessions            int     `xml:"MaxSessions" env:"RPGMAPPER_MAX_SESSIONS"`
	SessionTimeoutMinutes  int     `xml:"SessionTimeoutMinutes"`
	CleanupIntervalMinutes int     `xml:"CleanupIntervalMinutes"`
	SeedDefaultAtlas       bool    `xml:"SeedDefaultAtlas" env:"RPGMAPPER_SEED_DEFAULT_ATLAS"`
	ShapeCatalog           string  `xml:"ShapeCatalog" env:"RPGMAPPER_SHAPE_CATALOG"`
	RecentFilesLimit       int     `xml:"RecentFilesLimit"`
}

// AdvancedConfig contains advanced/tuning options
type AdvancedConfig struct {
	EnableRequestLogging    bool   `xml:"EnableRequestLogging" env:"RPGMAPPER_REQUEST_LOGGING"`
	DuckDBThreads           int    `xml:"DuckDBThreads"`
	DuckDBMemoryLimit       string `xml:"DuckDBMemoryLimit"`
	WebSocketMaxMessageSize int    `xml:"WebSocketMaxMessageSizeKB"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *AppConfig {
	return &AppConfig{
		Server: ServerConfig{
			Port:         8090,
			BindAddress:  "0.0.0.0",
			EnableCORS:   true,
			AllowOrigins: "*",
			ReadTimeout:  30,
			WriteTimeout: 30,
			IdleTimeout:  120,
			BodyLimit:    "64M",
		},
		Storage: StorageConfig{
			DataDirectory:  "./data",
			AtlasDirectory: "./data/atlases",
			ResourceDB:     "./data/resources.duckdb",
			DocumentCodec:  "json",
		},
		Editor: EditorConfig{
			TileSize:               32,
			MaxSessions:            10,
			SessionTimeoutMinutes:  30,
			CleanupIntervalMinutes: 5,
			SeedDefaultAtlas:       true,
			ShapeCatalog:           "./data/shapes.yaml",
			RecentFilesLimit:       20,
		},
		Advanced: AdvancedConfig{
			EnableRequestLogging:    true,
			DuckDBThreads:           2,
			DuckDBMemoryLimit:       "256MB",
			WebSocketMaxMessageSize: 64,
		},
	}
}

// LoadConfig loads configuration from XML file. A missing file is created
// with defaults. Environment variables override file values.
func LoadConfig(configPath string) (*AppConfig, error) {
	config := DefaultConfig()

	// If file doesn't exist, create default
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		if err := config.Save(configPath); err != nil {
			return nil, fmt.Errorf("failed to create default config: %w", err)
		}
	} else {
		data, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := xml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	// Apply environment variable overrides
	if err := config.applyEnvironmentOverrides(); err != nil {
		return nil, err
	}

	// Resolve relative paths
	config.resolvePaths(filepath.Dir(configPath))

	return config, nil
}

// Save saves the configuration to XML file
func (c *AppConfig) Save(configPath string) error {
	output, err := xml.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	header := []byte(xml.Header + "\n<!-- RPG Mapper Configuration -->\n<!-- This file is auto-generated on first run -->\n\n")
	content := append(header, output...)

	if err := os.WriteFile(configPath, content, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// applyEnvironmentOverrides lets RPGMAPPER_* environment variables override
// config values. Unset variables leave the file values untouched.
func (c *AppConfig) applyEnvironmentOverrides() error {
	if err := env.Parse(c); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// resolvePaths converts relative paths to absolute based on config file location
func (c *AppConfig) resolvePaths(configDir string) {
	for _, p := range []*string{
		&c.Storage.DataDirectory,
		&c.Storage.AtlasDirectory,
		&c.Storage.ResourceDB,
		&c.Editor.ShapeCatalog,
	} {
		if *p != "" && !filepath.IsAbs(*p) {
			*p = filepath.Join(configDir, *p)
		}
	}
}

// GetServerAddr returns the server bind address
func (c *AppConfig) GetServerAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.BindAddress, c.Server.Port)
}

// SessionTimeout returns the idle age after which unmodified sessions are dropped.
func (c *AppConfig) SessionTimeout() time.Duration {
	return time.Duration(c.Editor.SessionTimeoutMinutes) * time.Minute
}

// CleanupInterval returns how often idle sessions are collected.
func (c *AppConfig) CleanupInterval() time.Duration {
	if c.Editor.CleanupIntervalMinutes <= 0 {
		return 5 * time.Minute
	}
	return time.Duration(c.Editor.CleanupIntervalMinutes) * time.Minute
}

// EnsureDirectories creates all necessary directories
func (c *AppConfig) EnsureDirectories() error {
	dirs := []string{
		c.Storage.DataDirectory,
		c.Storage.AtlasDirectory,
	}
	if !c.Storage.InMemoryResources {
		dirs = append(dirs, filepath.Dir(c.Storage.ResourceDB))
	}

	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	return nil
}
