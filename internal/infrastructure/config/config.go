// Package config provides configuration loading and management.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

const (
	// DefaultConfigDir is the directory name for nes configuration.
	DefaultConfigDir = ".nes"
	// DefaultConfigFile is the default config file name.
	DefaultConfigFile = "config.yaml"
	// DefaultStorePath is the default record store directory.
	DefaultStorePath = "nes-db/v2"
	// DefaultListenAddr is the default API listen address.
	DefaultListenAddr = ":8090"
)

// Config holds static infrastructure configuration (read-only after init).
type Config struct {
	Store      StoreConfig      `yaml:"store,omitempty"`
	Server     ServerConfig     `yaml:"server,omitempty"`
	Translator TranslatorConfig `yaml:"translator,omitempty"`
}

// StoreConfig holds configuration for the record store.
type StoreConfig struct {
	// Path is the directory holding the record files.
	Path string `yaml:"path,omitempty"`
	// Watch enables the directory watcher that refreshes the read
	// cache when another process writes the store.
	Watch bool `yaml:"watch,omitempty"`
	// WatchDebounceMS is the watcher debounce in milliseconds.
	WatchDebounceMS int `yaml:"watch_debounce_ms,omitempty"`
}

// ServerConfig holds configuration for the HTTP API server.
type ServerConfig struct {
	Addr string `yaml:"addr,omitempty"`
}

// TranslatorConfig holds configuration for the name translator.
type TranslatorConfig struct {
	Provider string `yaml:"provider,omitempty"`
	Model    string `yaml:"model,omitempty"`
	APIKey   string `yaml:"api_key,omitempty"`
}

// Default returns a Config with default values.
func Default() *Config {
	return &Config{
		Store: StoreConfig{
			Path: DefaultStorePath,
		},
		Server: ServerConfig{
			Addr: DefaultListenAddr,
		},
		Translator: TranslatorConfig{
			Provider: "openai",
			Model:    "gpt-4o-mini",
		},
	}
}

// Load loads configuration from the .nes directory in the given path.
// A missing config file is not an error; defaults apply.
func Load(basePath string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(ConfigFilePath(basePath))
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	if err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if path := os.Getenv("NES_DB_PATH"); path != "" {
		c.Store.Path = path
	}
	if addr := os.Getenv("NES_ADDR"); addr != "" {
		c.Server.Addr = addr
	}
	if key := os.Getenv("OPENAI_API_KEY"); key != "" && c.Translator.APIKey == "" {
		c.Translator.APIKey = key
	}
}

// ConfigDir returns the path to the .nes config directory.
func ConfigDir(basePath string) string {
	return filepath.Join(basePath, DefaultConfigDir)
}

// ConfigFilePath returns the path to the config file.
func ConfigFilePath(basePath string) string {
	return filepath.Join(basePath, DefaultConfigDir, DefaultConfigFile)
}
