package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Config represents the flat weft configuration
type Config struct {
	Version      string `json:"version"`
	DatabasePath string `json:"database_path,omitempty"` // overrides ~/.weft/weft.db
	DefaultLine  string `json:"default_line,omitempty"`  // line code, e.g. PP1
	DefaultShift string `json:"default_shift,omitempty"` // shift code, e.g. A
	OperatorID   string `json:"operator_id,omitempty"`   // stamped on batches this terminal creates
}

// LoadConfig reads .weft/config.json from the specified directory.
// Resolution order: cwd only (no home fallback).
// Returns error if no config found - caller should handle accordingly.
func LoadConfig(dir string) (*Config, error) {
	path := filepath.Join(dir, ".weft", "config.json")
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return &cfg, nil
}

// SaveConfig writes config.json to directory
func SaveConfig(dir string, cfg *Config) error {
	weftDir := filepath.Join(dir, ".weft")
	if err := os.MkdirAll(weftDir, 0755); err != nil {
		return fmt.Errorf("failed to create .weft dir: %w", err)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	path := filepath.Join(weftDir, "config.json")
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}
