/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package config

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/ssargent/beluga/pkg/tree"
)

// Config represents the beluga engine's configuration.
type Config struct {
	DataDir   string    `yaml:"data_dir"`
	Bind      string    `yaml:"bind"`
	Port      int       `yaml:"port"`
	Cache     Cache     `yaml:"cache"`
	Build     Build     `yaml:"build"`
	Filenames Filenames `yaml:"filenames"`
	Logging   Logging   `yaml:"logging"`
	Security  Security  `yaml:"security"`
}

// Cache configures the shared LRU node cache.
type Cache struct {
	CapacityBytes uint64 `yaml:"capacity_bytes"`
}

// Build configures the per-node size limits used when constructing a
// new dictionary file.
type Build struct {
	IndexNodeSizeBytes int    `yaml:"index_node_size_bytes"`
	LeafNodeSizeBytes  int    `yaml:"leaf_node_size_bytes"`
	StagingDir         string `yaml:"staging_dir"`
}

// Filenames records the entry/resource file extensions ("bel"/"beld"
// by default). These values are not read when dictionaries are opened:
// pkg/dictionary always uses its fixed ExtEntry/ExtResource.
type Filenames struct {
	EntryExt    string `yaml:"entry_ext"`
	ResourceExt string `yaml:"resource_ext"`
}

// Logging contains logging configuration.
type Logging struct {
	Level string `yaml:"level"`
}

// Security contains the API key required of HTTP clients.
type Security struct {
	APIKey string `yaml:"api_key"`
}

// DefaultConfig returns a default configuration.
func DefaultConfig() *Config {
	return &Config{
		DataDir: "./data",
		Bind:    "127.0.0.1",
		Port:    8080,
		Cache: Cache{
			CapacityBytes: 64 * 1024 * 1024,
		},
		Build: Build{
			IndexNodeSizeBytes: tree.DefaultIndexSizeLimit,
			LeafNodeSizeBytes:  tree.DefaultLeafSizeLimit,
			StagingDir:         "./staging",
		},
		Filenames: Filenames{
			EntryExt:    "bel",
			ResourceExt: "beld",
		},
		Logging: Logging{Level: "info"},
		Security: Security{APIKey: "auto"},
	}
}

// LoadConfig loads configuration from the specified path.
func LoadConfig(configPath string) (*Config, error) {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file does not exist: %s", configPath)
	}

	if !filepath.IsAbs(configPath) {
		absPath, err := filepath.Abs(configPath)
		if err != nil {
			return nil, fmt.Errorf("invalid config path: %w", err)
		}
		configPath = absPath
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return &config, nil
}

// SaveConfig saves the configuration to the specified path with secure
// permissions.
func SaveConfig(config *Config, configPath string) error {
	configDir := filepath.Dir(configPath)
	if err := os.MkdirAll(configDir, 0750); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// GenerateSecureKey generates a cryptographically secure random key.
func GenerateSecureKey(length int) (string, error) {
	bytes := make([]byte, length)
	if _, err := rand.Read(bytes); err != nil {
		return "", fmt.Errorf("failed to generate secure key: %w", err)
	}
	return hex.EncodeToString(bytes), nil
}

// BootstrapConfig creates a new configuration with a generated API key
// if none exists yet, and persists it to configPath.
func BootstrapConfig(configPath, dataDir string) (*Config, error) {
	config := DefaultConfig()
	if dataDir != "" {
		config.DataDir = dataDir
	}

	apiKey, err := GenerateSecureKey(32)
	if err != nil {
		return nil, fmt.Errorf("failed to generate API key: %w", err)
	}
	config.Security.APIKey = apiKey

	if err := SaveConfig(config, configPath); err != nil {
		return nil, fmt.Errorf("failed to save bootstrap config: %w", err)
	}
	return config, nil
}

// GetDefaultConfigPath returns the default configuration path for the
// current platform.
func GetDefaultConfigPath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "./beluga.yaml"
	}
	configDir := filepath.Join(homeDir, ".config", "beluga")
	return filepath.Join(configDir, "config.yaml")
}

// ConfigExists checks if a configuration file exists.
func ConfigExists(configPath string) bool {
	_, err := os.Stat(configPath)
	return !os.IsNotExist(err)
}
