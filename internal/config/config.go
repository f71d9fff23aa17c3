// Package config loads server settings from the environment, with an
// optional .env file for local development.
package config

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds all server settings. Values come from CHAT_* environment
// variables with the listed defaults.
type Config struct {
	Host         string `envconfig:"HOST" default:"0.0.0.0" validate:"required"`
	Port         int    `envconfig:"PORT" default:"5000" validate:"min=1,max=65535"`
	DatabasePath string `envconfig:"DATABASE_PATH" default:"./realchat.db" validate:"required"`

	// HistoryLimit caps both the history envelope sent on join and the
	// /api/messages response.
	HistoryLimit int `envconfig:"HISTORY_LIMIT" default:"50" validate:"min=1"`

	// SendBufferSize bounds each connection's outbound queue; frames beyond
	// it are dropped rather than queued.
	SendBufferSize int `envconfig:"SEND_BUFFER_SIZE" default:"100" validate:"min=1"`

	WriteTimeout      time.Duration `envconfig:"WRITE_TIMEOUT" default:"5s" validate:"gt=0"`
	ReadHeaderTimeout time.Duration `envconfig:"READ_HEADER_TIMEOUT" default:"10s" validate:"gt=0"`
	ShutdownTimeout   time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"30s" validate:"gt=0"`

	// AllowedOrigins configures CORS on the HTTP API; "*" allows any origin.
	AllowedOrigins []string `envconfig:"ALLOWED_ORIGINS" default:"*" validate:"min=1"`
}

var validate = validator.New()

// Load reads configuration from the environment. A .env file in the working
// directory is applied first if present; a missing file is not an error.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("chat", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns the configuration used when no environment is set.
func Default() *Config {
	return &Config{
		Host:              "0.0.0.0",
		Port:              5000,
		DatabasePath:      "./realchat.db",
		HistoryLimit:      50,
		SendBufferSize:    100,
		WriteTimeout:      5 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
		ShutdownTimeout:   30 * time.Second,
		AllowedOrigins:    []string{"*"},
	}
}

// Validate checks structural constraints on the configuration.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// Addr returns the host:port the HTTP server listens on.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
