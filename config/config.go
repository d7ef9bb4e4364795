// Package config reads the service settings from the environment once at start-up.
package config

import (
	"errors"
	"fmt"
	"net"
	"strconv"
	"time"

	env "github.com/Netflix/go-env"
	"github.com/joho/godotenv"
)

// Config holds environment-driven settings.
type Config struct {
	Host              string `env:"HOST,default=0.0.0.0"`
	Port              int    `env:"PORT,default=5000"`
	DatabaseURL       string `env:"DATABASE_URL"`
	MaxFileSize       int64  `env:"MAX_FILE_SIZE,default=10485760"`
	UploadDir         string `env:"UPLOAD_DIR,default=uploads"`
	OutputDir         string `env:"OUTPUT_DIR,default=outputs"`
	LogLevel          string `env:"LOG_LEVEL,default=info"`
	LogFormat         string `env:"LOG_FORMAT,default=json"`
	SofficePath       string `env:"SOFFICE_PATH"`
	ConversionTimeout int    `env:"CONVERSION_TIMEOUT,default=120"`
	OfficeWorkers     int    `env:"OFFICE_WORKERS,default=2"`
	SweepAge          int    `env:"SWEEP_AGE,default=3600"`
}

// Load reads an optional .env file and then the process environment.
func Load(envFiles ...string) (*Config, error) {
	// A missing .env is normal outside development.
	_ = godotenv.Load(envFiles...)

	es, err := env.EnvironToEnvSet(environ())
	if err != nil {
		return nil, fmt.Errorf("reading environment: %w", err)
	}
	return FromEnvSet(es)
}

// FromEnvSet builds a Config from an explicit set of variables.
func FromEnvSet(es env.EnvSet) (*Config, error) {
	cfg := &Config{}
	if err := env.Unmarshal(es, cfg); err != nil {
		return nil, fmt.Errorf("parsing environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings the server cannot start with.
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid PORT %d", c.Port)
	}
	if c.MaxFileSize <= 0 {
		return errors.New("MAX_FILE_SIZE must be positive")
	}
	if c.UploadDir == "" || c.OutputDir == "" {
		return errors.New("UPLOAD_DIR and OUTPUT_DIR must be set")
	}
	if c.ConversionTimeout <= 0 {
		return errors.New("CONVERSION_TIMEOUT must be positive")
	}
	if c.OfficeWorkers <= 0 {
		return errors.New("OFFICE_WORKERS must be positive")
	}
	return nil
}

// Addr returns host:port for the HTTP listener.
func (c *Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// Timeout is the limit applied to external conversion binaries.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.ConversionTimeout) * time.Second
}

// SweepMaxAge is how old a leftover upload or output must be before start-up removes it.
// Zero disables the sweep.
func (c *Config) SweepMaxAge() time.Duration {
	return time.Duration(c.SweepAge) * time.Second
}
