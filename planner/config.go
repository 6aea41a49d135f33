package planner

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the engine and server configuration.
type Config struct {
	Server  ServerConfig  `yaml:"server" json:"server"`
	Agents  AgentConfig   `yaml:"agents" json:"agents"`
	Booking BookingConfig `yaml:"booking" json:"booking"`
}

type ServerConfig struct {
	Host  string `yaml:"host" json:"host"`
	Port  int    `yaml:"port" json:"port"`
	Debug bool   `yaml:"debug" json:"debug"`
}

type AgentConfig struct {
	TimeoutSeconds int `yaml:"timeoutSeconds" json:"timeoutSeconds"`
	DelayMillis    int `yaml:"delayMillis" json:"delayMillis"`
}

type BookingConfig struct {
	MaxAttempts         int     `yaml:"maxAttempts" json:"maxAttempts"`
	InitialDelaySeconds float64 `yaml:"initialDelaySeconds" json:"initialDelaySeconds"`
	BackoffMultiplier   float64 `yaml:"backoffMultiplier" json:"backoffMultiplier"`
	Seed                int64   `yaml:"seed" json:"seed"`
}

// DefaultConfig returns the configuration used when no file is supplied.
func DefaultConfig() Config {
	return Config{
		Server: ServerConfig{Host: "localhost", Port: 8080},
		Agents: AgentConfig{TimeoutSeconds: 30},
		Booking: BookingConfig{
			MaxAttempts:         3,
			InitialDelaySeconds: 1,
			BackoffMultiplier:   2,
		},
	}
}

// LoadConfig reads a YAML config file over the defaults.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// AgentTimeout returns the configured per-agent search timeout.
func (c Config) AgentTimeout() time.Duration {
	return time.Duration(c.Agents.TimeoutSeconds) * time.Second
}

// RetryPolicy returns the configured booking retry policy.
func (c Config) RetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:       c.Booking.MaxAttempts,
		InitialDelay:      time.Duration(c.Booking.InitialDelaySeconds * float64(time.Second)),
		BackoffMultiplier: c.Booking.BackoffMultiplier,
	}
}
