// Package config loads host-process settings from defaults, an optional
// YAML file, and BROWSER_* environment variables, in that order.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/mj1618/browser-host/internal/logging"
	"gopkg.in/yaml.v3"
)

// EnvPrefix is the prefix for environment overrides.
const EnvPrefix = "BROWSER"

// PlacementFile is the window placement file name inside DataDir.
const PlacementFile = "window-data.json"

// Config holds all host settings.
type Config struct {
	// Env "dev" loads the UI from DevServerURL and opens devtools.
	// Read from BROWSER_ENV, falling back to ENV.
	Env           string `yaml:"env"           envconfig:"ENV"`
	AppPath       string `yaml:"appPath"       split_words:"true"`
	DataDir       string `yaml:"dataDir"       split_words:"true"`
	ExtensionsDir string `yaml:"extensionsDir" split_words:"true"`
	DevServerURL  string `yaml:"devServerURL"  split_words:"true"`

	Window  WindowConfig   `yaml:"window"`
	IPC     IPCConfig      `yaml:"ipc"`
	Logging logging.Config `yaml:"logging"`
	MCP     MCPConfig      `yaml:"mcp"`
}

// WindowConfig tunes app window behavior.
type WindowConfig struct {
	// RelayoutDelay is the wait before the second tabs-resize notification
	// after a maximize/restore.
	RelayoutDelay time.Duration `yaml:"relayoutDelay" split_words:"true"`
}

// IPCConfig configures the renderer websocket bridge.
type IPCConfig struct {
	Addr string `yaml:"addr"`
	// AllowedOrigins restricts websocket upgrades. Empty allows any origin.
	AllowedOrigins []string `yaml:"allowedOrigins" split_words:"true"`
}

// MCPConfig configures the MCP tool server.
type MCPConfig struct {
	Transport string `yaml:"transport"`
	Port      int    `yaml:"port"`
	// CacheTTL caches tabs_query results per session. Tab creation and view
	// destruction invalidate the entry; navigation does not. 0 disables it.
	CacheTTL time.Duration `yaml:"cacheTTL" split_words:"true"`
}

// Default returns the built-in configuration.
func Default() *Config {
	dataDir := "."
	if dir, err := os.UserConfigDir(); err == nil {
		dataDir = filepath.Join(dir, "browser-host")
	}
	return &Config{
		Env:          "production",
		AppPath:      ".",
		DataDir:      dataDir,
		DevServerURL: "http://localhost:4444/app.html",
		Window: WindowConfig{
			RelayoutDelay: 500 * time.Millisecond,
		},
		IPC: IPCConfig{
			Addr: "127.0.0.1:4445",
		},
		Logging: logging.DefaultConfig(),
		MCP: MCPConfig{
			Transport: "stdio",
			Port:      8080,
		},
	}
}

// Load builds a Config from defaults, the YAML file at path (ignored if
// path is empty or the file does not exist), and the environment.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("read config: %w", err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse config %s: %w", path, err)
			}
		}
	}

	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from environment: %w", err)
	}

	if cfg.ExtensionsDir == "" {
		cfg.ExtensionsDir = filepath.Join(cfg.DataDir, "extensions")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks values that would otherwise fail later at startup.
func (c *Config) Validate() error {
	if c.DataDir == "" {
		return fmt.Errorf("dataDir must not be empty")
	}
	if c.Window.RelayoutDelay < 0 {
		return fmt.Errorf("window.relayoutDelay must not be negative, got %s", c.Window.RelayoutDelay)
	}
	switch c.MCP.Transport {
	case "stdio", "streamable-http":
	default:
		return fmt.Errorf("unsupported mcp transport: %s (use stdio or streamable-http)", c.MCP.Transport)
	}
	return nil
}

// DevMode reports whether the UI should be loaded from the dev server.
func (c *Config) DevMode() bool {
	return c.Env == "dev"
}

// PlacementPath is the location of the persisted window placement.
func (c *Config) PlacementPath() string {
	return filepath.Join(c.DataDir, PlacementFile)
}
