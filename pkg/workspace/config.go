package workspace

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"github.com/memovlab/memov/pkg/ignore"
)

const configFileName = "config.toml"

// Config holds workspace settings from .mem/config.toml.
type Config struct {
	DefaultBranch string `toml:"default_branch"`
	ForkPrefix    string `toml:"fork_prefix"`
	LogLevel      string `toml:"log_level"`
}

// DefaultConfig returns the settings used when no config file exists.
func DefaultConfig() *Config {
	return &Config{
		DefaultBranch: "main",
		ForkPrefix:    "develop/",
		LogLevel:      "info",
	}
}

func configPath(root string) string {
	return filepath.Join(root, ignore.MetaDir, configFileName)
}

// LoadConfig reads the workspace config. A missing file yields defaults;
// fields left blank fall back to their defaults.
func LoadConfig(root string) (*Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(configPath(root))
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("read config: unmarshal: %w", err)
	}
	def := DefaultConfig()
	if cfg.DefaultBranch == "" {
		cfg.DefaultBranch = def.DefaultBranch
	}
	if cfg.ForkPrefix == "" {
		cfg.ForkPrefix = def.ForkPrefix
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = def.LogLevel
	}
	return cfg, nil
}

// SaveConfig atomically writes the workspace config.
func SaveConfig(root string, cfg *Config) error {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return fmt.Errorf("write config: encode: %w", err)
	}

	dir := filepath.Join(root, ignore.MetaDir)
	tmp, err := os.CreateTemp(dir, ".config-tmp-*")
	if err != nil {
		return fmt.Errorf("write config: tmpfile: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write config: write: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("write config: close: %w", err)
	}
	if err := os.Rename(tmpName, configPath(root)); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("write config: rename: %w", err)
	}
	return nil
}
