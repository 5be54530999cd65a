package main

import (
	"fmt"

	"github.com/zhaopengme/topicbot/pkg/config"
	"github.com/zhaopengme/topicbot/pkg/generator"
	"github.com/zhaopengme/topicbot/pkg/logger"
	"github.com/zhaopengme/topicbot/pkg/providers"
	"github.com/zhaopengme/topicbot/pkg/registry"
	"github.com/zhaopengme/topicbot/pkg/textconv"
)

func setupLogging(cfg config.LoggingConfig) error {
	level, err := logger.ParseLevel(cfg.Level)
	if err != nil {
		return err
	}
	logger.SetLevel(level)
	return logger.SetFormat(cfg.Format)
}

func openRegistry(cfg config.RegistryConfig) (*registry.Registry, error) {
	store, err := registry.NewStore(cfg.Backend, cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("open registry: %w", err)
	}
	return registry.New(store), nil
}

func newGenerator(cfg *config.Config) (*generator.Generator, error) {
	provider, model, err := providers.CreateProvider(cfg.LLM)
	if err != nil {
		return nil, err
	}

	var converter textconv.Converter = textconv.Nop{}
	if cfg.Conversion.Topic || cfg.Conversion.Reply {
		converter = textconv.NewOpenCC(cfg.Conversion.Profile)
	}

	opts := generator.Options{
		Temperature:      cfg.LLM.Temperature,
		MaxTokens:        cfg.LLM.MaxTokens,
		TopicTemperature: cfg.LLM.TopicTemperature,
		TopicMaxTokens:   cfg.LLM.TopicMaxTokens,
		ConvertTopic:     cfg.Conversion.Topic,
		ConvertReply:     cfg.Conversion.Reply,
	}

	logger.InfoCF("main", "Content generator ready", map[string]interface{}{
		"provider": cfg.LLM.Provider,
		"model":    model,
	})
	return generator.New(provider, model, opts, converter), nil
}

// loadRuntimeConfig is for commands that touch only local state, so the
// secrets are not required.
func loadRuntimeConfig() (*config.Config, error) {
	cfg, err := config.Parse()
	if err != nil {
		return nil, err
	}
	if err := cfg.ValidateRuntime(); err != nil {
		return nil, err
	}
	if err := setupLogging(cfg.Logging); err != nil {
		return nil, err
	}
	return cfg, nil
}
