// TopicBot - LINE topic bot
// License: MIT
//
// Copyright (c) 2026 TopicBot contributors

package handler

import (
	"context"
	"fmt"

	"github.com/zhaopengme/topicbot/pkg/line"
	"github.com/zhaopengme/topicbot/pkg/logger"
	"github.com/zhaopengme/topicbot/pkg/persona"
	"github.com/zhaopengme/topicbot/pkg/utils"
)

type Messenger interface {
	Reply(ctx context.Context, token *line.ReplyToken, texts ...string) error
	GetMemberProfile(ctx context.Context, source line.Source, userID string) (*line.Profile, error)
}

type ReplyGenerator interface {
	GenerateReply(ctx context.Context, userText string, p persona.Config) string
	GenerateTopic(ctx context.Context) string
}

type UserRegistry interface {
	Add(ctx context.Context, id string) error
}

type PersonaSource interface {
	Load() persona.Config
}

// Handler turns one webhook event into at most one reply.
type Handler struct {
	messenger Messenger
	generator ReplyGenerator
	registry  UserRegistry
	persona   PersonaSource
}

func New(messenger Messenger, generator ReplyGenerator, registry UserRegistry, personaSource PersonaSource) *Handler {
	return &Handler{
		messenger: messenger,
		generator: generator,
		registry:  registry,
		persona:   personaSource,
	}
}

// Handle processes one event. The returned error reports a failed reply;
// registry and profile lookup failures are logged and swallowed.
func (h *Handler) Handle(ctx context.Context, event line.Event) error {
	switch ev := event.(type) {
	case *line.TextMessageEvent:
		return h.handleText(ctx, ev)
	case *line.PostbackEvent:
		logger.InfoCF("handler", "Postback received", map[string]interface{}{
			"user_id": ev.Source.UserID,
			"data":    ev.Data,
		})
		return nil
	case *line.MemberJoinedEvent:
		return h.handleMemberJoined(ctx, ev)
	default:
		logger.DebugCF("handler", "Ignoring unsupported event", map[string]interface{}{
			"kind":    event.Kind(),
			"chat_id": event.EventSource().ChatID(),
		})
		return nil
	}
}

func (h *Handler) handleText(ctx context.Context, ev *line.TextMessageEvent) error {
	senderID := ev.Source.UserID
	if senderID != "" {
		if err := h.registry.Add(ctx, senderID); err != nil {
			logger.WarnCF("handler", "Failed to register sender", map[string]interface{}{
				"user_id": senderID,
				"error":   err.Error(),
			})
		}
	}

	logger.DebugCF("handler", "Text message received", map[string]interface{}{
		"user_id": senderID,
		"chat_id": ev.Source.ChatID(),
		"preview": utils.Truncate(ev.Text, 50),
	})

	var text string
	if isTopicRequest(ev.Text) {
		text = h.generator.GenerateTopic(ctx)
	} else {
		text = h.generator.GenerateReply(ctx, ev.Text, h.persona.Load())
	}

	if err := h.messenger.Reply(ctx, ev.ReplyToken, text); err != nil {
		return fmt.Errorf("reply to %s: %w", senderID, err)
	}
	return nil
}

func (h *Handler) handleMemberJoined(ctx context.Context, ev *line.MemberJoinedEvent) error {
	greetings := make([]string, 0, len(ev.Members))
	for _, memberID := range ev.Members {
		profile, err := h.messenger.GetMemberProfile(ctx, ev.Source, memberID)
		if err != nil {
			logger.WarnCF("handler", "Member profile lookup failed", map[string]interface{}{
				"chat_id":   ev.Source.ChatID(),
				"member_id": memberID,
				"error":     err.Error(),
			})
			continue
		}
		greetings = append(greetings, fmt.Sprintf(greetingTemplate, profile.DisplayName))
	}

	if len(greetings) == 0 {
		return nil
	}
	if len(greetings) > line.MaxMessagesPerRequest {
		logger.WarnCF("handler", "Dropping greetings over the reply limit", map[string]interface{}{
			"chat_id": ev.Source.ChatID(),
			"dropped": len(greetings) - line.MaxMessagesPerRequest,
		})
		greetings = greetings[:line.MaxMessagesPerRequest]
	}

	if err := h.messenger.Reply(ctx, ev.ReplyToken, greetings...); err != nil {
		return fmt.Errorf("greet members in %s: %w", ev.Source.ChatID(), err)
	}
	return nil
}
