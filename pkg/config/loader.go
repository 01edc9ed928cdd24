package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"go.uber.org/zap"
	"gopkg.in/yaml.v2"
)

// Load reads profiles from path. YAML files hold a plain list of
// profiles; TOML files hold [[profiles]] tables. If path is empty the
// default files are loaded and merged in order.
func Load(path string, logger *zap.Logger) (*Config, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if path == "" {
		return loadDefaultConfigs(logger)
	}

	expandedPath, err := expandPath(path)
	if err != nil {
		return nil, fmt.Errorf("expand config path: %w", err)
	}
	return loadSingleConfig(expandedPath)
}

func loadDefaultConfigs(logger *zap.Logger) (*Config, error) {
	paths, err := DefaultConfigPaths()
	if err != nil {
		return nil, err
	}

	var all []*Profile
	var loadedCount int

	for _, path := range paths {
		if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
			continue
		}

		cfg, err := loadSingleConfig(path)
		if err != nil {
			logger.Warn("skipping profile file", zap.String("path", path), zap.Error(err))
			continue
		}

		all = append(all, cfg.Profiles...)
		loadedCount++
	}

	if loadedCount == 0 {
		return nil, fmt.Errorf("no config files found (tried: %v)", paths)
	}
	return &Config{Profiles: all}, nil
}

func loadSingleConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file %s: %w", path, err)
	}

	cfg, err := Parse(data, formatOf(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Format is a profile file encoding.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
)

func formatOf(path string) Format {
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		return FormatTOML
	}
	return FormatYAML
}

// Parse decodes and validates profiles.
func Parse(data []byte, format Format) (*Config, error) {
	cfg := &Config{}
	switch format {
	case FormatTOML:
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse toml: %w", err)
		}
	default:
		if err := yaml.Unmarshal(data, &cfg.Profiles); err != nil {
			return nil, fmt.Errorf("parse yaml: %w", err)
		}
	}

	for i, p := range cfg.Profiles {
		if err := p.Validate(); err != nil {
			return nil, fmt.Errorf("validate profile #%d (%s): %w", i, p.Name, err)
		}
	}
	return cfg, nil
}

// Save writes cfg to path, encoded by the path's extension.
func Save(cfg *Config, path string) error {
	expandedPath, err := expandPath(path)
	if err != nil {
		return fmt.Errorf("expand config path: %w", err)
	}

	var data []byte
	switch formatOf(expandedPath) {
	case FormatTOML:
		data, err = toml.Marshal(cfg)
		if err != nil {
			return fmt.Errorf("marshal toml: %w", err)
		}
	default:
		data, err = yaml.Marshal(cfg.Profiles)
		if err != nil {
			return fmt.Errorf("marshal yaml: %w", err)
		}
	}

	// Profiles may carry passwords.
	if err := os.WriteFile(expandedPath, data, 0600); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}
