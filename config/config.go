// Package config loads assistant configuration from a YAML file with
// ELROY_* environment overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"
)

// ModelConfig describes one backend model.
type ModelConfig struct {
	Name    string `yaml:"name"`
	APIKey  string `yaml:"api_key"`
	APIBase string `yaml:"api_base"`
	// Provider selects the adapter: "openai" or "anthropic".
	Provider               string `yaml:"provider"`
	EnsureAlternatingRoles bool   `yaml:"ensure_alternating_roles"`
	InlineToolCalls        bool   `yaml:"inline_tool_calls"`
}

// Config is the root configuration.
type Config struct {
	// ChatModel is the primary model for conversation turns.
	ChatModel ModelConfig `yaml:"chat_model"`
	// FallbackModel, when set, is used after transient primary failures.
	FallbackModel *ModelConfig `yaml:"fallback_model"`
	// MaxCompletionRetries bounds turn re-issues; 0 means the default.
	MaxCompletionRetries int `yaml:"max_completion_retries"`

	// Persona overrides the default system persona.
	Persona string `yaml:"persona"`
	// HistoryWindow is how many recent session messages are replayed per turn.
	HistoryWindow int `yaml:"history_window"`

	// DatabasePath is the SQLite file for memories, goals and transcripts.
	DatabasePath string `yaml:"database_path"`

	Redis RedisConfig  `yaml:"redis"`
	Queue QueueConfig  `yaml:"queue"`
	HTTP  ServerConfig `yaml:"http"`

	// LogLevel is a logrus level name; default "info".
	LogLevel string `yaml:"log_level"`
}

// RedisConfig configures session storage. Empty Addr keeps sessions in
// process memory.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// QueueConfig selects the background job queue.
type QueueConfig struct {
	// Kind is "inmemory" (default) or "sqs".
	Kind string `yaml:"kind"`
	// SQSQueueURL is required when Kind is "sqs".
	SQSQueueURL string `yaml:"sqs_queue_url"`
	Region      string `yaml:"region"`
}

// ServerConfig configures the HTTP surface.
type ServerConfig struct {
	Port int `yaml:"port"`
}

// Default returns the built-in configuration.
func Default() *Config {
	home, _ := os.UserHomeDir()
	return &Config{
		ChatModel:     ModelConfig{Name: "gpt-4o", Provider: "openai"},
		HistoryWindow: 20,
		DatabasePath:  filepath.Join(home, ".elroy", "elroy.db"),
		Queue:         QueueConfig{Kind: "inmemory"},
		HTTP:          ServerConfig{Port: 8080},
		LogLevel:      "info",
	}
}

// Load reads the config file at path (when it exists), then applies
// environment overrides. An empty path loads defaults plus environment.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err == nil {
			if err := yaml.Unmarshal(b, cfg); err != nil {
				return nil, fmt.Errorf("parse config: %w", err)
			}
		}
	}
	cfg.applyEnv()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("ELROY_CHAT_MODEL"); v != "" {
		c.ChatModel.Name = v
	}
	if v := os.Getenv("ELROY_CHAT_MODEL_API_KEY"); v != "" {
		c.ChatModel.APIKey = v
	}
	if v := os.Getenv("ELROY_CHAT_MODEL_API_BASE"); v != "" {
		c.ChatModel.APIBase = v
	}
	if v := os.Getenv("ELROY_CHAT_MODEL_PROVIDER"); v != "" {
		c.ChatModel.Provider = v
	}
	if v := os.Getenv("OPENAI_API_KEY"); v != "" && c.ChatModel.APIKey == "" && c.ChatModel.Provider == "openai" {
		c.ChatModel.APIKey = v
	}
	if v := os.Getenv("ANTHROPIC_API_KEY"); v != "" && c.ChatModel.APIKey == "" && c.ChatModel.Provider == "anthropic" {
		c.ChatModel.APIKey = v
	}
	if v := os.Getenv("ELROY_DATABASE_PATH"); v != "" {
		c.DatabasePath = v
	}
	if v := os.Getenv("ELROY_REDIS_ADDR"); v != "" {
		c.Redis.Addr = v
	}
	if v := os.Getenv("ELROY_PERSONA"); v != "" {
		c.Persona = v
	}
	if v := os.Getenv("ELROY_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv("ELROY_HTTP_PORT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.HTTP.Port = n
		}
	}
	if v := os.Getenv("ELROY_MAX_COMPLETION_RETRIES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.MaxCompletionRetries = n
		}
	}
}

func (c *Config) validate() error {
	if c.ChatModel.Name == "" {
		return fmt.Errorf("chat_model.name is required")
	}
	switch c.ChatModel.Provider {
	case "", "openai", "anthropic":
	default:
		return fmt.Errorf("unknown provider %q", c.ChatModel.Provider)
	}
	switch c.Queue.Kind {
	case "", "inmemory":
	case "sqs":
		if c.Queue.SQSQueueURL == "" {
			return fmt.Errorf("queue.sqs_queue_url is required for the sqs queue")
		}
	default:
		return fmt.Errorf("unknown queue kind %q", c.Queue.Kind)
	}
	return nil
}

// DefaultPath returns the conventional config file location.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "elroy.yaml"
	}
	return filepath.Join(home, ".elroy", "elroy.yaml")
}
