// TopicBot - LINE topic bot
// License: MIT
//
// Copyright (c) 2026 TopicBot contributors

package providers

import (
	"context"

	"github.com/zhaopengme/topicbot/pkg/providers/protocoltypes"
)

type Message = protocoltypes.Message
type LLMResponse = protocoltypes.LLMResponse
type UsageInfo = protocoltypes.UsageInfo
type ProviderError = protocoltypes.ProviderError

// LLMProvider issues a single chat completion. Recognized options are
// "max_tokens" (int) and "temperature" (float64).
type LLMProvider interface {
	Chat(ctx context.Context, messages []Message, model string, options map[string]interface{}) (*LLMResponse, error)
	GetDefaultModel() string
}
