// TopicBot - LINE topic bot
// License: MIT
//
// Copyright (c) 2026 TopicBot contributors

package line

import (
	"encoding/json"
	"fmt"
)

// Source identifies where an event came from.
type Source struct {
	Type    string `json:"type"` // "user", "group", "room"
	UserID  string `json:"userId"`
	GroupID string `json:"groupId"`
	RoomID  string `json:"roomId"`
}

// ChatID is the id to push to for this source: the group or room for
// multi-person chats, the user otherwise.
func (s Source) ChatID() string {
	switch s.Type {
	case "group":
		return s.GroupID
	case "room":
		return s.RoomID
	default:
		return s.UserID
	}
}

// Event is one decoded webhook event. The set of implementations is closed:
// *TextMessageEvent, *PostbackEvent, *MemberJoinedEvent, *UnsupportedEvent.
type Event interface {
	Kind() string
	EventSource() Source
	sealed()
}

// Base carries the fields every event shares.
type Base struct {
	ReplyToken *ReplyToken
	Source     Source
	Timestamp  int64
	EventID    string
}

func (b Base) EventSource() Source { return b.Source }
func (b Base) sealed()             {}

type TextMessageEvent struct {
	Base
	MessageID string
	Text      string
}

func (*TextMessageEvent) Kind() string { return "message.text" }

type PostbackEvent struct {
	Base
	Data string
}

func (*PostbackEvent) Kind() string { return "postback" }

type MemberJoinedEvent struct {
	Base
	// UserIDs of the members that joined, in payload order.
	Members []string
}

func (*MemberJoinedEvent) Kind() string { return "memberJoined" }

// UnsupportedEvent is any event or message type the bot does not handle.
type UnsupportedEvent struct {
	Base
	Type string
}

func (e *UnsupportedEvent) Kind() string { return e.Type }

type rawEvent struct {
	Type           string          `json:"type"`
	ReplyToken     string          `json:"replyToken"`
	Source         Source          `json:"source"`
	Timestamp      int64           `json:"timestamp"`
	WebhookEventID string          `json:"webhookEventId"`
	Message        json.RawMessage `json:"message"`
	Postback       *struct {
		Data string `json:"data"`
	} `json:"postback"`
	Joined *struct {
		Members []Source `json:"members"`
	} `json:"joined"`
}

type rawMessage struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Text string `json:"text"`
}

// ParseEvents decodes a webhook body into events in payload order.
func ParseEvents(body []byte) ([]Event, error) {
	var payload struct {
		Destination string     `json:"destination"`
		Events      []rawEvent `json:"events"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("decode webhook payload: %w", err)
	}

	events := make([]Event, 0, len(payload.Events))
	for _, raw := range payload.Events {
		events = append(events, convertEvent(raw))
	}
	return events, nil
}

func convertEvent(raw rawEvent) Event {
	b := Base{
		ReplyToken: NewReplyToken(raw.ReplyToken),
		Source:     raw.Source,
		Timestamp:  raw.Timestamp,
		EventID:    raw.WebhookEventID,
	}

	switch raw.Type {
	case "message":
		var msg rawMessage
		if len(raw.Message) > 0 {
			if err := json.Unmarshal(raw.Message, &msg); err != nil {
				return &UnsupportedEvent{Base: b, Type: "message.invalid"}
			}
		}
		if msg.Type != "text" {
			return &UnsupportedEvent{Base: b, Type: "message." + msg.Type}
		}
		return &TextMessageEvent{Base: b, MessageID: msg.ID, Text: msg.Text}
	case "postback":
		ev := &PostbackEvent{Base: b}
		if raw.Postback != nil {
			ev.Data = raw.Postback.Data
		}
		return ev
	case "memberJoined":
		ev := &MemberJoinedEvent{Base: b}
		if raw.Joined != nil {
			for _, m := range raw.Joined.Members {
				if m.UserID != "" {
					ev.Members = append(ev.Members, m.UserID)
				}
			}
		}
		return ev
	default:
		return &UnsupportedEvent{Base: b, Type: raw.Type}
	}
}
