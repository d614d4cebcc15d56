package main

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/elroy-bot/elroy-sub001/assistant"
	"github.com/elroy-bot/elroy-sub001/config"
	"github.com/elroy-bot/elroy-sub001/llm"
	"github.com/elroy-bot/elroy-sub001/llm/anthropic"
	"github.com/elroy-bot/elroy-sub001/llm/openai"
	"github.com/elroy-bot/elroy-sub001/memory"
	"github.com/elroy-bot/elroy-sub001/observability"
	"github.com/elroy-bot/elroy-sub001/tools"
)

// app holds the wired components shared by the commands.
type app struct {
	cfg       *config.Config
	log       *logrus.Logger
	hooks     *observability.Hooks
	store     *memory.Store
	sessions  memory.SessionStore
	registry  tools.Registry
	assistant *assistant.Assistant
}

func buildApp(cfgPath string) (*app, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, err
	}

	log := logrus.New()
	if lvl, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		log.SetLevel(lvl)
	}

	hooks := logrusHooks(log)

	client, err := buildClient(cfg, hooks)
	if err != nil {
		return nil, err
	}

	opts := []llm.DriverOption{llm.WithHooks(hooks)}
	if cfg.MaxCompletionRetries > 0 {
		opts = append(opts, llm.WithMaxRetries(cfg.MaxCompletionRetries))
	}
	if cfg.FallbackModel != nil {
		opts = append(opts, llm.WithFallbackModel(toChatModel(*cfg.FallbackModel)))
	}
	driver := llm.NewDriver(client, toChatModel(cfg.ChatModel), opts...)

	store, err := memory.NewStore(cfg.DatabasePath)
	if err != nil {
		return nil, err
	}

	sessions, err := buildSessions(cfg)
	if err != nil {
		return nil, err
	}

	registry := tools.NewRegistry(hooks)
	if err := tools.RegisterMemoryTools(registry, store); err != nil {
		return nil, err
	}

	asst := assistant.New(driver, registry, store, sessions, hooks, assistant.Config{
		Persona:       cfg.Persona,
		HistoryWindow: cfg.HistoryWindow,
	})

	return &app{
		cfg:       cfg,
		log:       log,
		hooks:     hooks,
		store:     store,
		sessions:  sessions,
		registry:  registry,
		assistant: asst,
	}, nil
}

// buildClient constructs the provider client for the chat model. When a
// fallback model lives on a different provider, both clients are wrapped in a
// router that dispatches by the model name the completion driver sets per
// attempt.
func buildClient(cfg *config.Config, hooks *observability.Hooks) (llm.Client, error) {
	primary, err := clientFor(cfg.ChatModel, hooks)
	if err != nil {
		return nil, err
	}
	fb := cfg.FallbackModel
	if fb == nil || providerOf(*fb) == providerOf(cfg.ChatModel) {
		return primary, nil
	}
	fallback, err := clientFor(*fb, hooks)
	if err != nil {
		return nil, err
	}
	return llm.NewRouterClient(llm.StaticPolicy{
		Default: primary,
		ByModel: map[string]llm.Client{fb.Name: fallback},
	}), nil
}

func clientFor(mc config.ModelConfig, hooks *observability.Hooks) (llm.Client, error) {
	switch providerOf(mc) {
	case "openai":
		return openai.NewClient(openai.Config{
			APIKey:  mc.APIKey,
			Model:   mc.Name,
			BaseURL: mc.APIBase,
			Hooks:   hooks,
		})
	case "anthropic":
		return anthropic.NewClient(anthropic.Config{
			APIKey:  mc.APIKey,
			Model:   mc.Name,
			BaseURL: mc.APIBase,
			Hooks:   hooks,
		})
	default:
		return nil, fmt.Errorf("unknown provider %q", mc.Provider)
	}
}

func providerOf(mc config.ModelConfig) string {
	if mc.Provider == "" {
		return "openai"
	}
	return mc.Provider
}

func toChatModel(mc config.ModelConfig) llm.ChatModel {
	return llm.ChatModel{
		Name:                   mc.Name,
		APIKey:                 mc.APIKey,
		APIBase:                mc.APIBase,
		EnsureAlternatingRoles: mc.EnsureAlternatingRoles,
		InlineToolCalls:        mc.InlineToolCalls,
	}
}

func buildSessions(cfg *config.Config) (memory.SessionStore, error) {
	if cfg.Redis.Addr == "" {
		return memory.NewInMemorySessionStore(200), nil
	}
	return memory.NewRedisSessionStore(memory.SessionConfig{
		Addr:     cfg.Redis.Addr,
		Username: cfg.Redis.Username,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
}

// logrusHooks bridges observability callbacks onto a logrus logger.
func logrusHooks(log *logrus.Logger) *observability.Hooks {
	return &observability.Hooks{
		Logf: func(ctx context.Context, level string, msg string, fields map[string]any) {
			entry := log.WithFields(logrus.Fields(fields))
			lvl, err := logrus.ParseLevel(level)
			if err != nil {
				lvl = logrus.InfoLevel
			}
			entry.Log(lvl, msg)
		},
		OnLLMRequest: func(ctx context.Context, provider, model string, meta map[string]any) {
			log.WithFields(logrus.Fields{"provider": provider, "model": model}).Debug("llm request")
		},
		OnLLMResponse: func(ctx context.Context, provider, model string, latency time.Duration, meta map[string]any) {
			log.WithFields(logrus.Fields{
				"provider": provider,
				"model":    model,
				"duration": latency.String(),
			}).Debug("llm response")
		},
		OnLLMRetry: func(ctx context.Context, provider, model string, attempt int, err error) {
			log.WithFields(logrus.Fields{
				"provider": provider,
				"model":    model,
				"attempt":  attempt,
			}).WithError(err).Warn("retrying completion")
		},
		OnToolExecute: func(ctx context.Context, tool string, latency time.Duration, err error) {
			entry := log.WithFields(logrus.Fields{"tool": tool, "duration": latency.String()})
			if err != nil {
				entry.WithError(err).Warn("tool failed")
				return
			}
			entry.Debug("tool executed")
		},
	}
}
