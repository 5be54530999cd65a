// TopicBot - LINE topic bot
// License: MIT
//
// Copyright (c) 2026 TopicBot contributors

package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/adhocore/gronx"
	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"

	BackendJSON   = "json"
	BackendSQLite = "sqlite"
)

type LINEConfig struct {
	ChannelAccessToken string        `env:"CHANNEL_ACCESS_TOKEN"`
	ChannelSecret      string        `env:"CHANNEL_SECRET"`
	APIBase            string        `env:"LINE_API_BASE" envDefault:"https://api.line.me"`
	Timeout            time.Duration `env:"LINE_TIMEOUT" envDefault:"10s"`
}

type LLMConfig struct {
	Provider         string        `env:"LLM_PROVIDER" envDefault:"openai"`
	OpenAIAPIKey     string        `env:"OPENAI_API_KEY"`
	OpenAIAPIBase    string        `env:"OPENAI_API_BASE"`
	AnthropicAPIKey  string        `env:"ANTHROPIC_API_KEY"`
	AnthropicAPIBase string        `env:"ANTHROPIC_API_BASE"`
	Model            string        `env:"LLM_MODEL"`
	Temperature      float64       `env:"LLM_TEMPERATURE" envDefault:"0.5"`
	MaxTokens        int           `env:"LLM_MAX_TOKENS" envDefault:"500"`
	TopicTemperature float64       `env:"TOPIC_TEMPERATURE" envDefault:"0.9"`
	TopicMaxTokens   int           `env:"TOPIC_MAX_TOKENS" envDefault:"200"`
	Timeout          time.Duration `env:"LLM_TIMEOUT" envDefault:"30s"`
}

// APIKey returns the key of the selected provider.
func (c LLMConfig) APIKey() string {
	if c.Provider == ProviderAnthropic {
		return c.AnthropicAPIKey
	}
	return c.OpenAIAPIKey
}

// APIBase returns the base URL override of the selected provider.
func (c LLMConfig) APIBase() string {
	if c.Provider == ProviderAnthropic {
		return c.AnthropicAPIBase
	}
	return c.OpenAIAPIBase
}

type ConversionConfig struct {
	Topic   bool   `env:"CONVERT_TOPIC" envDefault:"true"`
	Reply   bool   `env:"CONVERT_REPLY" envDefault:"false"`
	Profile string `env:"CONVERT_PROFILE" envDefault:"s2t"`
}

type RegistryConfig struct {
	Backend string `env:"REGISTRY_BACKEND" envDefault:"json"`
	Path    string `env:"REGISTRY_PATH" envDefault:"users.json"`
}

type BroadcastConfig struct {
	Enabled  bool          `env:"BROADCAST_ENABLED" envDefault:"true"`
	Interval time.Duration `env:"BROADCAST_INTERVAL" envDefault:"10m"`
	Cron     string        `env:"BROADCAST_CRON"`
}

type ServerConfig struct {
	Host           string        `env:"HOST" envDefault:"0.0.0.0"`
	Port           int           `env:"PORT" envDefault:"5000"`
	HandlerTimeout time.Duration `env:"HANDLER_TIMEOUT" envDefault:"60s"`
}

// Addr is the listen address.
func (c ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

type LoggingConfig struct {
	Level  string `env:"LOG_LEVEL" envDefault:"info"`
	Format string `env:"LOG_FORMAT" envDefault:"text"`
}

type Config struct {
	LINE        LINEConfig
	LLM         LLMConfig
	Conversion  ConversionConfig
	Registry    RegistryConfig
	Broadcast   BroadcastConfig
	Server      ServerConfig
	Logging     LoggingConfig
	PersonaPath string `env:"PERSONA_PATH" envDefault:"persona.json"`
}

// LoadDotEnv loads KEY=VALUE pairs from the given files into the process
// environment. Variables already set are left alone and missing files are
// skipped.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return fmt.Errorf("stat %s: %w", p, err)
		}
		if err := godotenv.Load(p); err != nil {
			return fmt.Errorf("load %s: %w", p, err)
		}
	}
	return nil
}

// Parse reads the configuration from the environment without validating it.
func Parse() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}
	cfg.normalize()
	return cfg, nil
}

// Load parses and validates the configuration.
func Load() (*Config, error) {
	cfg, err := Parse()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) normalize() {
	c.LLM.Provider = strings.ToLower(strings.TrimSpace(c.LLM.Provider))
	c.Registry.Backend = strings.ToLower(strings.TrimSpace(c.Registry.Backend))
	c.Broadcast.Cron = strings.TrimSpace(c.Broadcast.Cron)
	c.LINE.ChannelAccessToken = strings.TrimSpace(c.LINE.ChannelAccessToken)
	c.LINE.ChannelSecret = strings.TrimSpace(c.LINE.ChannelSecret)
	c.LLM.OpenAIAPIKey = strings.TrimSpace(c.LLM.OpenAIAPIKey)
	c.LLM.AnthropicAPIKey = strings.TrimSpace(c.LLM.AnthropicAPIKey)
}

// Validate checks the secrets required to serve traffic and the sanity of
// the remaining settings. All missing secrets are reported together.
func (c *Config) Validate() error {
	var missing []string
	if c.LINE.ChannelAccessToken == "" {
		missing = append(missing, "CHANNEL_ACCESS_TOKEN")
	}
	if c.LINE.ChannelSecret == "" {
		missing = append(missing, "CHANNEL_SECRET")
	}

	switch c.LLM.Provider {
	case ProviderOpenAI:
		if c.LLM.OpenAIAPIKey == "" {
			missing = append(missing, "OPENAI_API_KEY")
		}
	case ProviderAnthropic:
		if c.LLM.AnthropicAPIKey == "" {
			missing = append(missing, "ANTHROPIC_API_KEY")
		}
	default:
		return fmt.Errorf("unsupported LLM_PROVIDER %q (want %s or %s)", c.LLM.Provider, ProviderOpenAI, ProviderAnthropic)
	}

	if len(missing) > 0 {
		return fmt.Errorf("missing required environment variables: %s", strings.Join(missing, ", "))
	}

	return c.ValidateRuntime()
}

// ValidateRuntime checks everything except the secrets, for commands that
// never talk to the outside world.
func (c *Config) ValidateRuntime() error {
	switch c.Registry.Backend {
	case BackendJSON, BackendSQLite:
	default:
		return fmt.Errorf("unsupported REGISTRY_BACKEND %q (want %s or %s)", c.Registry.Backend, BackendJSON, BackendSQLite)
	}
	if strings.TrimSpace(c.Registry.Path) == "" {
		return fmt.Errorf("REGISTRY_PATH must not be empty")
	}
	if c.Broadcast.Cron != "" {
		if !gronx.New().IsValid(c.Broadcast.Cron) {
			return fmt.Errorf("invalid BROADCAST_CRON expression %q", c.Broadcast.Cron)
		}
	} else if c.Broadcast.Interval <= 0 {
		return fmt.Errorf("BROADCAST_INTERVAL must be positive, got %s", c.Broadcast.Interval)
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("PORT out of range: %d", c.Server.Port)
	}
	if c.LLM.MaxTokens <= 0 || c.LLM.TopicMaxTokens <= 0 {
		return fmt.Errorf("LLM_MAX_TOKENS and TOPIC_MAX_TOKENS must be positive")
	}
	if c.LLM.Timeout <= 0 || c.LINE.Timeout <= 0 {
		return fmt.Errorf("LLM_TIMEOUT and LINE_TIMEOUT must be positive")
	}
	return nil
}
