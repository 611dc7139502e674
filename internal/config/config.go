// Package config loads the application configuration from YAML with
// environment variable expansion.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/mujagent/freshbrain/internal/intent"
	"github.com/mujagent/freshbrain/internal/logging"
	"github.com/mujagent/freshbrain/internal/notes"
	"github.com/mujagent/freshbrain/internal/notify"
	"github.com/mujagent/freshbrain/internal/store"
	"github.com/mujagent/freshbrain/internal/telegram"
)

// Config is the full application configuration.
type Config struct {
	Server        ServerConfig    `yaml:"server"`
	Telegram      telegram.Config `yaml:"telegram"`
	OpenAI        intent.Config   `yaml:"openai"`
	Google        GoogleConfig    `yaml:"google"`
	Notes         notes.Config    `yaml:"notes"`
	Notifications notify.Config   `yaml:"notifications"`
	Storage       store.Config    `yaml:"storage"`
	Logging       logging.Config  `yaml:"logging"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// Addr returns the host:port listen address.
func (c ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// GoogleConfig holds the OAuth application credentials.
type GoogleConfig struct {
	ClientID     string `yaml:"client_id"`
	ClientSecret string `yaml:"client_secret"`
	RedirectURI  string `yaml:"redirect_uri"`
}

// Default returns the configuration defaults applied before the file is
// read.
func Default() *Config {
	return &Config{
		Server:        ServerConfig{Host: "0.0.0.0", Port: 8080},
		OpenAI:        *intent.DefaultConfig(),
		Notifications: *notify.DefaultConfig(),
		Storage:       *store.DefaultConfig(),
		Logging:       *logging.DefaultConfig(),
	}
}

// Load reads the configuration file, expanding ${VAR} references from the
// environment before parsing. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err == nil {
		expanded := os.ExpandEnv(string(data))
		if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks settings that would otherwise fail late at runtime.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port %d", c.Server.Port)
	}
	if c.Telegram.BotToken == "" {
		return fmt.Errorf("telegram bot_token is required")
	}
	if c.Storage.Path == "" {
		return fmt.Errorf("storage path is required")
	}
	return nil
}
