// Package config resolves, loads, and persists the agent's YAML configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// EnvConfigPath overrides the configuration file location.
const EnvConfigPath = "SLEEPLESS_CONFIG"

// DefaultConfigName is the file name used under the state directory.
const DefaultConfigName = "config.yaml"

const stateDirName = ".sleepless-agent"

// Config represents the application configuration.
type Config struct {
	Agent AgentConfig `yaml:"agent"`
	WebUI WebUIConfig `yaml:"webui"`
}

// AgentConfig configures the background worker and its workspace.
type AgentConfig struct {
	// WorkspaceRoot is the directory tree exposed through the file browser.
	WorkspaceRoot string `yaml:"workspace_root"`
	// DaemonCommand is the command line used to launch the worker. Empty
	// means "this binary with the daemon subcommand".
	DaemonCommand []string `yaml:"daemon_command,omitempty"`
	// HeartbeatInterval is how often the worker records a heartbeat,
	// as a Go duration string.
	HeartbeatInterval string `yaml:"heartbeat_interval,omitempty"`
}

// WebUIConfig configures the control panel HTTP server.
type WebUIConfig struct {
	Host string `yaml:"host,omitempty"`
	Port int    `yaml:"port,omitempty"`
}

// Heartbeat parses the configured interval, falling back to 30s.
func (a AgentConfig) Heartbeat() time.Duration {
	if a.HeartbeatInterval == "" {
		return 30 * time.Second
	}
	d, err := time.ParseDuration(a.HeartbeatInterval)
	if err != nil || d <= 0 {
		return 30 * time.Second
	}
	return d
}

// StateDir returns the per-user state directory (~/.sleepless-agent),
// creating it if absent.
func StateDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	dir := filepath.Join(home, stateDirName)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create state directory: %w", err)
	}
	return dir, nil
}

// Path resolves the configuration file location: the SLEEPLESS_CONFIG
// environment variable if set, otherwise config.yaml under the state
// directory. The default file is materialized on first access so the
// panel always has something to edit.
func Path() (string, error) {
	if override := os.Getenv(EnvConfigPath); override != "" {
		expanded, err := expandUser(override)
		if err != nil {
			return "", err
		}
		return filepath.Abs(expanded)
	}

	dir, err := StateDir()
	if err != nil {
		return "", err
	}
	path := filepath.Join(dir, DefaultConfigName)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		if werr := os.WriteFile(path, []byte(defaultConfigYAML), 0o644); werr != nil {
			return "", fmt.Errorf("write default config: %w", werr)
		}
	}
	return path, nil
}

// DefaultPath resolves the configuration file location like Path, but never
// materializes the default file.
func DefaultPath() (string, error) {
	if override := os.Getenv(EnvConfigPath); override != "" {
		expanded, err := expandUser(override)
		if err != nil {
			return "", err
		}
		return filepath.Abs(expanded)
	}

	dir, err := StateDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, DefaultConfigName), nil
}

// Load reads and parses the configuration file at path, applying defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	// Expand environment variables in the YAML content
	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	cfg.applyDefaults()
	return &cfg, nil
}

// Save writes the configuration back to path.
func Save(cfg *Config, path string) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}

// WriteDefault writes the default configuration to path. An existing file is
// preserved unless force is set.
func WriteDefault(path string, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config file already exists: %s", path)
		}
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(defaultConfigYAML), 0o644); err != nil {
		return fmt.Errorf("write default config: %w", err)
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.Agent.WorkspaceRoot == "" {
		c.Agent.WorkspaceRoot = "./workspace"
	}
	if c.WebUI.Host == "" {
		c.WebUI.Host = "127.0.0.1"
	}
	if c.WebUI.Port == 0 {
		c.WebUI.Port = 8080
	}
}

// expandUser replaces a leading ~ with the current user's home directory.
func expandUser(path string) (string, error) {
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
	}
	return path, nil
}

const defaultConfigYAML = `agent:
  workspace_root: ./workspace
  heartbeat_interval: 30s

webui:
  host: 127.0.0.1
  port: 8080
`
