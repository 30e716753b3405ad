package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// LoadRaw reads the configuration file as an untyped mapping. The panel's
// config editor round-trips the whole document, including keys this build
// does not understand.
func LoadRaw(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if raw == nil {
		raw = map[string]any{}
	}
	return raw, nil
}

// SaveRaw writes an untyped mapping back to the configuration file.
func SaveRaw(raw map[string]any, path string) error {
	data, err := yaml.Marshal(raw)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}
