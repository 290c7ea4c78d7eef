// Package config defines the Minuteman application configuration.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the top-level Minuteman configuration.
type Config struct {
	Server    ServerConfig    `json:"server" yaml:"server"`
	Auth      AuthConfig      `json:"auth" yaml:"auth"`
	Extractor ExtractorConfig `json:"extractor" yaml:"extractor"`
	DBPath    string          `json:"db_path" yaml:"db_path"`
	LogLevel  string          `json:"log_level" yaml:"log_level"`
}

// ServerConfig controls the HTTP server.
type ServerConfig struct {
	Addr string `json:"addr" yaml:"addr"` // listen address, e.g., ":8000"
}

// AuthConfig controls authentication and the bootstrap admin account.
type AuthConfig struct {
	JWTSecret     string `json:"jwt_secret" yaml:"jwt_secret"`
	AdminUser     string `json:"admin_user" yaml:"admin_user"`
	AdminPass     string `json:"admin_pass" yaml:"admin_pass"` // hashed before storage
	TokenTTLHours int    `json:"token_ttl_hours" yaml:"token_ttl_hours"`
}

// ExtractorConfig selects and configures the transcript extractor backend.
type ExtractorConfig struct {
	Provider string `json:"provider" yaml:"provider"` // "gemini" or "mock"
	APIKey   string `json:"api_key" yaml:"api_key"`
	Model    string `json:"model,omitempty" yaml:"model"`
	BaseURL  string `json:"base_url,omitempty" yaml:"base_url"`
}

// DefaultConfig returns a config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Addr: ":8000",
		},
		Auth: AuthConfig{
			AdminUser:     "admin",
			TokenTTLHours: 24 * 7,
		},
		Extractor: ExtractorConfig{
			Provider: "gemini",
		},
		DBPath:   "./minuteman.db",
		LogLevel: "info",
	}
}

// Load reads a YAML config file and returns the parsed configuration.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if cfg.Extractor.APIKey == "" {
		cfg.Extractor.APIKey = os.Getenv("GEMINI_API_KEY")
	}
	return cfg, nil
}
