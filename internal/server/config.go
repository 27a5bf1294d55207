// Package server provides configuration helpers that define runtime defaults,
// validation, and rate-limiting parameters for the signaling service.
package server

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/golobby/config/v3"
	"github.com/golobby/config/v3/pkg/feeder"
	"github.com/joho/godotenv"
	"go.yaml.in/yaml/v3"
)

const (
	defaultPort                   = ":8080"
	defaultMaxMessageSize         = 64 * 1024
	defaultRateLimitBurst         = 20
	defaultRateLimitRefillSeconds = 1
	defaultSendBufferSize         = 256
	defaultLogLevel               = "info"
	defaultShutdownTimeoutSeconds = 10
)

// RateLimitConfig defines the parameters for per-connection message rate limiting.
type RateLimitConfig struct {
	Burst          int
	RefillInterval time.Duration
}

// Config holds the server configuration settings including security controls.
// Scalar fields can be overridden from the environment; list fields are read
// from comma-separated variables by applyListEnv.
type Config struct {
	Port                   string   `yaml:"port" env:"SERVER_PORT"`
	AllowedOrigins         []string `yaml:"allowed_origins"`
	MaxMessageSize         int      `yaml:"max_message_size" env:"MAX_MESSAGE_SIZE"`
	RateLimitBurst         int      `yaml:"rate_limit_burst" env:"RATE_LIMIT_BURST"`
	RateLimitRefillSeconds int      `yaml:"rate_limit_refill_seconds" env:"RATE_LIMIT_REFILL_INTERVAL"`
	SendBufferSize         int      `yaml:"send_buffer_size" env:"SEND_BUFFER_SIZE"`
	LogLevel               string   `yaml:"log_level" env:"LOG_LEVEL"`
	STUNURLs               []string `yaml:"stun_urls"`
	TURNURLs               []string `yaml:"turn_urls"`
	TURNUsername           string   `yaml:"turn_username" env:"TURN_USERNAME"`
	TURNCredential         string   `yaml:"turn_credential" env:"TURN_CREDENTIAL"`
	ShutdownTimeoutSeconds int      `yaml:"shutdown_timeout_seconds" env:"SHUTDOWN_TIMEOUT"`
}

func defaultConfig() Config {
	return Config{
		Port: defaultPort,
		AllowedOrigins: []string{
			"http://localhost:8080",
		},
		MaxMessageSize:         defaultMaxMessageSize,
		RateLimitBurst:         defaultRateLimitBurst,
		RateLimitRefillSeconds: defaultRateLimitRefillSeconds,
		SendBufferSize:         defaultSendBufferSize,
		LogLevel:               defaultLogLevel,
		ShutdownTimeoutSeconds: defaultShutdownTimeoutSeconds,
	}
}

// NewConfig creates a Config instance populated with default values for all settings.
func NewConfig() *Config {
	cfg := defaultConfig()
	return &cfg
}

// LoadConfig builds the configuration from defaults, the optional YAML file
// at path, a .env file in the working directory and the process environment,
// in increasing order of precedence.
func LoadConfig(path string) (*Config, error) {
	_ = godotenv.Load(".env")

	cfg := NewConfig()
	loader := config.New()
	if path != "" {
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("config file %s: %w", path, err)
		}
		loader.AddFeeder(feeder.Yaml{Path: path})
	}
	loader.AddFeeder(feeder.Env{})

	if err := loader.AddStruct(cfg).Feed(); err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	applyListEnv(cfg)

	sanitized := sanitizeConfig(*cfg)
	return &sanitized, nil
}

func applyListEnv(cfg *Config) {
	if origins := os.Getenv("ALLOWED_ORIGINS"); origins != "" {
		cfg.AllowedOrigins = parseList(origins)
	}
	if urls := os.Getenv("STUN_URLS"); urls != "" {
		cfg.STUNURLs = parseList(urls)
	}
	if urls := os.Getenv("TURN_URLS"); urls != "" {
		cfg.TURNURLs = parseList(urls)
	}
}

// sanitizeConfig replaces out-of-range values with defaults.
func sanitizeConfig(cfg Config) Config {
	if cfg.Port == "" {
		cfg.Port = defaultPort
	}
	if !strings.Contains(cfg.Port, ":") {
		cfg.Port = ":" + cfg.Port
	}

	if cfg.MaxMessageSize <= 0 {
		cfg.MaxMessageSize = defaultMaxMessageSize
	}

	if cfg.RateLimitBurst <= 0 {
		cfg.RateLimitBurst = defaultRateLimitBurst
	}

	if cfg.RateLimitRefillSeconds <= 0 {
		cfg.RateLimitRefillSeconds = defaultRateLimitRefillSeconds
	}

	if cfg.SendBufferSize <= 0 {
		cfg.SendBufferSize = defaultSendBufferSize
	}

	if strings.TrimSpace(cfg.LogLevel) == "" {
		cfg.LogLevel = defaultLogLevel
	} else if _, err := parseLogLevel(cfg.LogLevel); err != nil {
		cfg.LogLevel = defaultLogLevel
	}

	if cfg.ShutdownTimeoutSeconds <= 0 {
		cfg.ShutdownTimeoutSeconds = defaultShutdownTimeoutSeconds
	}

	cfg.AllowedOrigins = append([]string(nil), cfg.AllowedOrigins...)
	cfg.STUNURLs = append([]string(nil), cfg.STUNURLs...)
	cfg.TURNURLs = append([]string(nil), cfg.TURNURLs...)
	return cfg
}

// RateLimit returns the per-connection limiter settings.
func (c Config) RateLimit() RateLimitConfig {
	return RateLimitConfig{
		Burst:          c.RateLimitBurst,
		RefillInterval: time.Duration(c.RateLimitRefillSeconds) * time.Second,
	}
}

// ShutdownTimeout returns how long graceful shutdown may take.
func (c Config) ShutdownTimeout() time.Duration {
	return time.Duration(c.ShutdownTimeoutSeconds) * time.Second
}

// YAML renders the configuration with secrets redacted.
func (c Config) YAML() (string, error) {
	if c.TURNCredential != "" {
		c.TURNCredential = "********"
	}
	out, err := yaml.Marshal(c)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

func parseList(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}
