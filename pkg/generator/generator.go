// TopicBot - LINE topic bot
// License: MIT
//
// Copyright (c) 2026 TopicBot contributors

package generator

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/zhaopengme/topicbot/pkg/logger"
	"github.com/zhaopengme/topicbot/pkg/persona"
	"github.com/zhaopengme/topicbot/pkg/providers"
	"github.com/zhaopengme/topicbot/pkg/providers/protocoltypes"
	"github.com/zhaopengme/topicbot/pkg/textconv"
)

type Options struct {
	Temperature      float64
	MaxTokens        int
	TopicTemperature float64
	TopicMaxTokens   int
	// ConvertTopic and ConvertReply pass output through the converter.
	ConvertTopic bool
	ConvertReply bool
}

func DefaultOptions() Options {
	return Options{
		Temperature:      0.5,
		MaxTokens:        500,
		TopicTemperature: 0.9,
		TopicMaxTokens:   200,
		ConvertTopic:     true,
	}
}

// Generator turns prompts into user-facing text. It never returns an
// error: provider failures are logged and replaced by FallbackMessage.
type Generator struct {
	provider  providers.LLMProvider
	model     string
	opts      Options
	converter textconv.Converter
}

func New(provider providers.LLMProvider, model string, opts Options, converter textconv.Converter) *Generator {
	if converter == nil {
		converter = textconv.Nop{}
	}
	if model == "" {
		model = provider.GetDefaultModel()
	}
	return &Generator{
		provider:  provider,
		model:     model,
		opts:      opts,
		converter: converter,
	}
}

func (g *Generator) Model() string {
	return g.model
}

// GenerateReply answers userText in the voice described by p.
func (g *Generator) GenerateReply(ctx context.Context, userText string, p persona.Config) string {
	messages := []providers.Message{
		{Role: protocoltypes.RoleSystem, Content: p.SystemPrompt()},
		{Role: protocoltypes.RoleUser, Content: userText},
	}
	text, err := g.complete(ctx, "reply", messages, g.opts.MaxTokens, g.opts.Temperature)
	if err != nil {
		return FallbackMessage
	}
	if g.opts.ConvertReply {
		text = g.convert(text)
	}
	return text
}

// GenerateTopic produces one discussion topic with no user input.
func (g *Generator) GenerateTopic(ctx context.Context) string {
	text, err := g.Topic(ctx)
	if err != nil {
		return FallbackMessage
	}
	return text
}

// Topic is GenerateTopic without the fallback: a failed call is returned as
// an error so callers can decide not to send anything.
func (g *Generator) Topic(ctx context.Context) (string, error) {
	messages := []providers.Message{
		{Role: protocoltypes.RoleSystem, Content: topicSystemPrompt},
		{Role: protocoltypes.RoleUser, Content: topicUserPrompt},
	}
	text, err := g.complete(ctx, "topic", messages, g.opts.TopicMaxTokens, g.opts.TopicTemperature)
	if err != nil {
		return "", err
	}
	text = sanitizeTopic(text)
	if g.opts.ConvertTopic {
		text = g.convert(text)
	}
	return text, nil
}

func (g *Generator) complete(ctx context.Context, kind string, messages []providers.Message, maxTokens int, temperature float64) (string, error) {
	options := map[string]interface{}{
		"max_tokens":  maxTokens,
		"temperature": temperature,
	}

	resp, err := g.provider.Chat(ctx, messages, g.model, options)
	if err != nil {
		fields := map[string]interface{}{
			"kind":  kind,
			"model": g.model,
			"error": err.Error(),
		}
		var perr *providers.ProviderError
		if errors.As(err, &perr) {
			for k, v := range perr.Fields() {
				fields[k] = v
			}
		}
		logger.ErrorCF("generator", "LLM call failed", fields)
		return "", err
	}

	text := ""
	if resp != nil {
		text = strings.TrimSpace(resp.Content)
	}
	if text == "" {
		logger.ErrorCF("generator", "LLM returned empty content", map[string]interface{}{
			"kind":  kind,
			"model": g.model,
		})
		return "", protocoltypes.ErrEmptyResponse
	}

	fields := map[string]interface{}{
		"kind":   kind,
		"model":  g.model,
		"length": utf8.RuneCountInString(text),
	}
	if resp.Usage != nil {
		fields["total_tokens"] = resp.Usage.TotalTokens
	}
	if resp.FinishReason != "" {
		fields["finish_reason"] = resp.FinishReason
	}
	logger.DebugCF("generator", "LLM call completed", fields)
	return text, nil
}

func (g *Generator) convert(text string) string {
	out, err := g.converter.Convert(text)
	if err != nil {
		logger.WarnCF("generator", "Script conversion failed, sending unconverted text", map[string]interface{}{
			"error": err.Error(),
		})
		return text
	}
	return out
}

var quotePairs = [][2]string{
	{"「", "」"},
	{"『", "』"},
	{"“", "”"},
	{"\"", "\""},
	{"'", "'"},
}

// sanitizeTopic drops a leading "話題：" style label and one layer of
// wrapping quotes.
func sanitizeTopic(text string) string {
	text = strings.TrimSpace(text)
	for _, label := range []string{"話題：", "话题：", "話題:", "话题:", "Topic:"} {
		if strings.HasPrefix(text, label) {
			text = strings.TrimSpace(strings.TrimPrefix(text, label))
			break
		}
	}
	for _, q := range quotePairs {
		if len(text) > len(q[0])+len(q[1]) && strings.HasPrefix(text, q[0]) && strings.HasSuffix(text, q[1]) {
			inner := text[len(q[0]) : len(text)-len(q[1])]
			if !strings.Contains(inner, q[0]) {
				text = strings.TrimSpace(inner)
			}
			break
		}
	}
	return text
}
