package config

import (
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

const (
	// EnvUsername and EnvPassword carry the panel's Basic auth credentials.
	// An empty password disables authentication entirely.
	EnvUsername = "WEBUI_USERNAME"
	EnvPassword = "WEBUI_PASSWORD"
	// EnvDebug enables verbose request logging in the panel.
	EnvDebug = "SLEEPLESS_WEBUI_DEBUG"
)

// Credentials holds the Basic auth credentials for the panel. Loaded once at
// process start and immutable afterwards.
type Credentials struct {
	Username string
	Password string
}

// Enabled reports whether authentication is configured. The security model is
// opt-in: no password means every request is allowed.
func (c Credentials) Enabled() bool {
	return c.Password != ""
}

// Environment is the process-level configuration read from environment
// variables (after best-effort .env loading). Constructed once in main and
// passed to components explicitly.
type Environment struct {
	Credentials Credentials
	Debug       bool
}

// LoadEnvironment loads .env files if present and reads the panel's
// environment surface. Missing .env files are not an error.
func LoadEnvironment() Environment {
	for _, envPath := range []string{".env", ".env.local"} {
		if err := godotenv.Load(envPath); err == nil {
			slog.Debug("Loaded environment variables", "file", envPath)
			break
		}
	}

	username := os.Getenv(EnvUsername)
	if username == "" {
		username = "admin"
	}

	return Environment{
		Credentials: Credentials{
			Username: username,
			Password: os.Getenv(EnvPassword),
		},
		Debug: strings.EqualFold(os.Getenv(EnvDebug), "true"),
	}
}
