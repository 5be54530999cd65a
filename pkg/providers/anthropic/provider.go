// TopicBot - LINE topic bot
// License: MIT
//
// Copyright (c) 2026 TopicBot contributors

package anthropicprovider

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/zhaopengme/topicbot/pkg/providers/protocoltypes"
)

const (
	DefaultModel     = "claude-sonnet-4-5"
	defaultBaseURL   = "https://api.anthropic.com"
	defaultMaxTokens = 1024
	providerName     = "anthropic"
)

type Provider struct {
	client *anthropic.Client
}

func NewProvider(apiKey, apiBase string, timeout time.Duration) *Provider {
	opts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithBaseURL(normalizeBaseURL(apiBase)),
		option.WithMaxRetries(0),
	}
	if timeout > 0 {
		opts = append(opts, option.WithRequestTimeout(timeout))
	}
	client := anthropic.NewClient(opts...)
	return &Provider{client: &client}
}

func (p *Provider) Chat(ctx context.Context, messages []protocoltypes.Message, model string, options map[string]interface{}) (*protocoltypes.LLMResponse, error) {
	if model == "" {
		model = DefaultModel
	}

	resp, err := p.client.Messages.New(ctx, buildParams(messages, model, options))
	if err != nil {
		return nil, wrapError(err, model)
	}

	return parseResponse(resp), nil
}

func (p *Provider) GetDefaultModel() string {
	return DefaultModel
}

func buildParams(messages []protocoltypes.Message, model string, options map[string]interface{}) anthropic.MessageNewParams {
	var system []anthropic.TextBlockParam
	var anthropicMessages []anthropic.MessageParam

	for _, msg := range messages {
		switch msg.Role {
		case protocoltypes.RoleSystem:
			system = append(system, anthropic.TextBlockParam{Text: msg.Content})
		case protocoltypes.RoleAssistant:
			anthropicMessages = append(anthropicMessages,
				anthropic.NewAssistantMessage(anthropic.NewTextBlock(msg.Content)),
			)
		default:
			anthropicMessages = append(anthropicMessages,
				anthropic.NewUserMessage(anthropic.NewTextBlock(msg.Content)),
			)
		}
	}

	maxTokens := int64(defaultMaxTokens)
	if mt, ok := options["max_tokens"].(int); ok && mt > 0 {
		maxTokens = int64(mt)
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(model),
		Messages:  anthropicMessages,
		MaxTokens: maxTokens,
	}

	if len(system) > 0 {
		params.System = system
	}

	if temp, ok := options["temperature"].(float64); ok {
		params.Temperature = anthropic.Float(temp)
	}

	return params
}

func parseResponse(resp *anthropic.Message) *protocoltypes.LLMResponse {
	var content strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			content.WriteString(block.AsText().Text)
		}
	}

	finishReason := "stop"
	if resp.StopReason == anthropic.StopReasonMaxTokens {
		finishReason = "length"
	}

	return &protocoltypes.LLMResponse{
		ID:           resp.ID,
		Content:      content.String(),
		FinishReason: finishReason,
		Usage: &protocoltypes.UsageInfo{
			PromptTokens:     int(resp.Usage.InputTokens),
			CompletionTokens: int(resp.Usage.OutputTokens),
			TotalTokens:      int(resp.Usage.InputTokens + resp.Usage.OutputTokens),
		},
	}
}

func wrapError(err error, model string) error {
	perr := &protocoltypes.ProviderError{
		Reason:   protocoltypes.ReasonUnknown,
		Provider: providerName,
		Model:    model,
		Wrapped:  err,
	}
	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) {
		perr.Status = apiErr.StatusCode
		perr.Reason = protocoltypes.ReasonFromStatus(apiErr.StatusCode)
		if apiErr.Response != nil {
			perr.RequestID = apiErr.Response.Header.Get("request-id")
		}
	} else if errors.Is(err, context.DeadlineExceeded) {
		perr.Reason = protocoltypes.ReasonTimeout
	}
	return perr
}

func normalizeBaseURL(apiBase string) string {
	base := strings.TrimSpace(apiBase)
	if base == "" {
		return defaultBaseURL
	}

	base = strings.TrimRight(base, "/")
	if strings.HasSuffix(base, "/v1") {
		base = strings.TrimSuffix(base, "/v1")
	}
	if base == "" {
		return defaultBaseURL
	}

	return base
}
