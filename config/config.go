// ABOUTME: Application configuration loaded from XDG JSON, .env files and environment
// ABOUTME: Chooses the storage backend and carries the Gemini gateway settings
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
)

const (
	AppName        = "agentcrm"
	ConfigFileName = "config.json"

	BackendCharm  = "charm"
	BackendSQLite = "sqlite"
	BackendMemory = "memory"

	DefaultGeminiModel = "gemini-2.0-flash"
)

// ErrMissingAPIKey marks the degraded state where chat cannot reach Gemini.
var ErrMissingAPIKey = errors.New("gemini api key is not configured")

// Config holds the settings every command needs.
type Config struct {
	Backend       string `json:"backend"`
	DBPath        string `json:"db_path,omitempty"`
	GeminiAPIKey  string `json:"gemini_api_key,omitempty"`
	GeminiModel   string `json:"gemini_model,omitempty"`
	GeminiBaseURL string `json:"gemini_base_url,omitempty"`
	CharmHost     string `json:"charm_host,omitempty"`
	AutoSync      *bool  `json:"auto_sync,omitempty"`
	Debug         bool   `json:"debug,omitempty"`
}

// envOverrides lists the variables that take precedence over the config file.
// Booleans accept strconv.ParseBool values; unset ones leave the file alone.
type envOverrides struct {
	Backend       string `env:"AGENTCRM_BACKEND"`
	DBPath        string `env:"AGENTCRM_DB_PATH"`
	GeminiAPIKey  string `env:"GEMINI_API_KEY"`
	ViteAPIKey    string `env:"VITE_GEMINI_API_KEY"`
	GeminiModel   string `env:"AGENTCRM_GEMINI_MODEL"`
	GeminiBaseURL string `env:"AGENTCRM_GEMINI_BASE_URL"`
	CharmHost     string `env:"AGENTCRM_CHARM_HOST"`
	AutoSync      *bool  `env:"AGENTCRM_AUTO_SYNC"`
	Debug         *bool  `env:"AGENTCRM_DEBUG"`
}

func Default() *Config {
	return &Config{
		Backend:     BackendCharm,
		GeminiModel: DefaultGeminiModel,
	}
}

// Dir returns the XDG data directory for the app.
func Dir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// Path returns the default config file location.
func Path() string {
	return filepath.Join(Dir(), ConfigFileName)
}

// DefaultDBPath is where the sqlite backend keeps its file.
func DefaultDBPath() string {
	return filepath.Join(Dir(), "agentcrm.db")
}

// LoadEnv loads whichever of the given .env files exist. Variables already set win.
func LoadEnv(files ...string) (int, error) {
	existing := make([]string, 0, len(files))
	for _, f := range files {
		if _, err := os.Stat(f); err == nil {
			existing = append(existing, f)
		}
	}
	if len(existing) == 0 {
		return 0, nil
	}
	return len(existing), godotenv.Load(existing...)
}

// Load reads the config file at path (Path() when empty), then applies
// environment overrides. A missing file yields defaults.
func Load(path string) (*Config, error) {
	if path == "" {
		path = Path()
	}

	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to decode config %s: %w", path, err)
		}
	case os.IsNotExist(err):
	default:
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}

	if cfg.GeminiModel == "" {
		cfg.GeminiModel = DefaultGeminiModel
	}
	if cfg.Backend == BackendSQLite && cfg.DBPath == "" {
		cfg.DBPath = DefaultDBPath()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) error {
	var e envOverrides
	if err := env.Parse(&e); err != nil {
		return fmt.Errorf("failed to parse environment: %w", err)
	}

	if e.Backend != "" {
		cfg.Backend = strings.ToLower(e.Backend)
	}
	if e.DBPath != "" {
		cfg.DBPath = e.DBPath
	}
	switch {
	case e.GeminiAPIKey != "":
		cfg.GeminiAPIKey = e.GeminiAPIKey
	case e.ViteAPIKey != "":
		cfg.GeminiAPIKey = e.ViteAPIKey
	}
	if e.GeminiModel != "" {
		cfg.GeminiModel = e.GeminiModel
	}
	if e.GeminiBaseURL != "" {
		cfg.GeminiBaseURL = e.GeminiBaseURL
	}
	if e.CharmHost != "" {
		cfg.CharmHost = e.CharmHost
	}
	if e.AutoSync != nil {
		cfg.AutoSync = e.AutoSync
	}
	if e.Debug != nil {
		cfg.Debug = *e.Debug
	}
	return nil
}

// Validate checks the backend name.
func (c *Config) Validate() error {
	switch c.Backend {
	case BackendCharm, BackendSQLite, BackendMemory:
		return nil
	}
	return fmt.Errorf("unknown backend %q (want charm, sqlite or memory)", c.Backend)
}

// GatewayConfigured reports whether an API key is present.
func (c *Config) GatewayConfigured() bool {
	return strings.TrimSpace(c.GeminiAPIKey) != ""
}

// RequireAPIKey returns ErrMissingAPIKey when the gateway is not configured.
func (c *Config) RequireAPIKey() error {
	if !c.GatewayConfigured() {
		return ErrMissingAPIKey
	}
	return nil
}
