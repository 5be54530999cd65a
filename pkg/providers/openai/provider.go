// TopicBot - LINE topic bot
// License: MIT
//
// Copyright (c) 2026 TopicBot contributors

package openaiprovider

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"github.com/zhaopengme/topicbot/pkg/providers/protocoltypes"
)

const (
	DefaultModel = "gpt-4o"
	providerName = "openai"
)

type Provider struct {
	client *openai.Client
}

func NewProvider(apiKey, apiBase string, timeout time.Duration) *Provider {
	opts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	}
	if base := strings.TrimSpace(apiBase); base != "" {
		opts = append(opts, option.WithBaseURL(strings.TrimRight(base, "/")+"/"))
	}
	if timeout > 0 {
		opts = append(opts, option.WithRequestTimeout(timeout))
	}
	client := openai.NewClient(opts...)
	return &Provider{client: &client}
}

func (p *Provider) Chat(ctx context.Context, messages []protocoltypes.Message, model string, options map[string]interface{}) (*protocoltypes.LLMResponse, error) {
	if model == "" {
		model = DefaultModel
	}

	resp, err := p.client.Chat.Completions.New(ctx, buildParams(messages, model, options))
	if err != nil {
		return nil, wrapError(err, model)
	}
	if len(resp.Choices) == 0 {
		return nil, &protocoltypes.ProviderError{
			Reason:    protocoltypes.ReasonFormat,
			Provider:  providerName,
			Model:     model,
			RequestID: resp.ID,
			Wrapped:   protocoltypes.ErrEmptyResponse,
		}
	}

	choice := resp.Choices[0]
	return &protocoltypes.LLMResponse{
		ID:           resp.ID,
		Content:      choice.Message.Content,
		FinishReason: string(choice.FinishReason),
		Usage: &protocoltypes.UsageInfo{
			PromptTokens:     int(resp.Usage.PromptTokens),
			CompletionTokens: int(resp.Usage.CompletionTokens),
			TotalTokens:      int(resp.Usage.TotalTokens),
		},
	}, nil
}

func (p *Provider) GetDefaultModel() string {
	return DefaultModel
}

func buildParams(messages []protocoltypes.Message, model string, options map[string]interface{}) openai.ChatCompletionNewParams {
	msgs := make([]openai.ChatCompletionMessageParamUnion, 0, len(messages))
	for _, msg := range messages {
		switch msg.Role {
		case protocoltypes.RoleSystem:
			msgs = append(msgs, openai.SystemMessage(msg.Content))
		case protocoltypes.RoleAssistant:
			msgs = append(msgs, openai.AssistantMessage(msg.Content))
		default:
			msgs = append(msgs, openai.UserMessage(msg.Content))
		}
	}

	params := openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(model),
		Messages: msgs,
	}
	if mt, ok := options["max_tokens"].(int); ok && mt > 0 {
		params.MaxTokens = openai.Int(int64(mt))
	}
	if temp, ok := options["temperature"].(float64); ok {
		params.Temperature = openai.Float(temp)
	}
	return params
}

func wrapError(err error, model string) error {
	perr := &protocoltypes.ProviderError{
		Reason:   protocoltypes.ReasonUnknown,
		Provider: providerName,
		Model:    model,
		Wrapped:  err,
	}
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		perr.Status = apiErr.StatusCode
		perr.Reason = protocoltypes.ReasonFromStatus(apiErr.StatusCode)
		if apiErr.Response != nil {
			perr.RequestID = apiErr.Response.Header.Get("x-request-id")
		}
	} else if errors.Is(err, context.DeadlineExceeded) {
		perr.Reason = protocoltypes.ReasonTimeout
	}
	return perr
}
