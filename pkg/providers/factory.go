// TopicBot - LINE topic bot
// License: MIT
//
// Copyright (c) 2026 TopicBot contributors

package providers

import (
	"fmt"
	"strings"

	"github.com/zhaopengme/topicbot/pkg/config"
	anthropicprovider "github.com/zhaopengme/topicbot/pkg/providers/anthropic"
	openaiprovider "github.com/zhaopengme/topicbot/pkg/providers/openai"
)

// CreateProvider builds the provider selected in cfg and returns it with
// the model id to request.
func CreateProvider(cfg config.LLMConfig) (LLMProvider, string, error) {
	var provider LLMProvider
	cfg.Provider = strings.ToLower(strings.TrimSpace(cfg.Provider))
	switch cfg.Provider {
	case "", config.ProviderOpenAI:
		provider = openaiprovider.NewProvider(cfg.APIKey(), cfg.APIBase(), cfg.Timeout)
	case config.ProviderAnthropic:
		provider = anthropicprovider.NewProvider(cfg.APIKey(), cfg.APIBase(), cfg.Timeout)
	default:
		return nil, "", fmt.Errorf("unsupported LLM provider %q", cfg.Provider)
	}

	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = provider.GetDefaultModel()
	}
	return provider, model, nil
}
