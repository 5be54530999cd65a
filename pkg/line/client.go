// TopicBot - LINE topic bot
// License: MIT
//
// Copyright (c) 2026 TopicBot contributors

package line

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	DefaultAPIBase = "https://api.line.me"

	replyPath       = "/v2/bot/message/reply"
	pushPath        = "/v2/bot/message/push"
	groupMemberPath = "/v2/bot/group/%s/member/%s"
	roomMemberPath  = "/v2/bot/room/%s/member/%s"

	// MaxMessagesPerRequest is the platform limit for reply and push.
	MaxMessagesPerRequest = 5
)

// APIError is a non-200 answer from the Messaging API.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("LINE API error (status %d): %s", e.StatusCode, e.Body)
}

type Profile struct {
	UserID      string `json:"userId"`
	DisplayName string `json:"displayName"`
	PictureURL  string `json:"pictureUrl"`
}

// Client talks to the LINE Messaging API with a channel access token.
type Client struct {
	accessToken string
	apiBase     string
	httpClient  *http.Client
}

func NewClient(accessToken, apiBase string, timeout time.Duration) *Client {
	apiBase = strings.TrimRight(strings.TrimSpace(apiBase), "/")
	if apiBase == "" {
		apiBase = DefaultAPIBase
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		accessToken: accessToken,
		apiBase:     apiBase,
		httpClient:  &http.Client{Timeout: timeout},
	}
}

func buildTextMessages(texts []string) []map[string]string {
	msgs := make([]map[string]string, 0, len(texts))
	for _, text := range texts {
		msgs = append(msgs, map[string]string{
			"type": "text",
			"text": text,
		})
	}
	return msgs
}

// Reply answers an event through its reply token. The token is consumed
// before the request is sent, so a failed reply cannot be retried with it.
func (c *Client) Reply(ctx context.Context, token *ReplyToken, texts ...string) error {
	if len(texts) == 0 {
		return fmt.Errorf("reply: no messages")
	}
	if len(texts) > MaxMessagesPerRequest {
		return fmt.Errorf("reply: %d messages exceeds limit of %d", len(texts), MaxMessagesPerRequest)
	}
	value, err := token.Take()
	if err != nil {
		return err
	}

	payload := map[string]interface{}{
		"replyToken": value,
		"messages":   buildTextMessages(texts),
	}
	return c.callAPI(ctx, http.MethodPost, replyPath, payload, nil)
}

// Push sends text to a user, group or room outside any reply context.
func (c *Client) Push(ctx context.Context, to string, text string) error {
	if to == "" {
		return fmt.Errorf("push: empty recipient")
	}
	payload := map[string]interface{}{
		"to":       to,
		"messages": buildTextMessages([]string{text}),
	}
	return c.callAPI(ctx, http.MethodPost, pushPath, payload, nil)
}

func (c *Client) GetGroupMemberProfile(ctx context.Context, groupID, userID string) (*Profile, error) {
	var profile Profile
	path := fmt.Sprintf(groupMemberPath, url.PathEscape(groupID), url.PathEscape(userID))
	if err := c.callAPI(ctx, http.MethodGet, path, nil, &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

func (c *Client) GetRoomMemberProfile(ctx context.Context, roomID, userID string) (*Profile, error) {
	var profile Profile
	path := fmt.Sprintf(roomMemberPath, url.PathEscape(roomID), url.PathEscape(userID))
	if err := c.callAPI(ctx, http.MethodGet, path, nil, &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

// GetMemberProfile looks up a member of the group or room the source
// points at.
func (c *Client) GetMemberProfile(ctx context.Context, source Source, userID string) (*Profile, error) {
	switch {
	case source.GroupID != "":
		return c.GetGroupMemberProfile(ctx, source.GroupID, userID)
	case source.RoomID != "":
		return c.GetRoomMemberProfile(ctx, source.RoomID, userID)
	default:
		return nil, fmt.Errorf("member profile: source %q has no group or room id", source.Type)
	}
}

// callAPI makes an authenticated request to the LINE API and decodes the
// JSON answer into out when out is non-nil.
func (c *Client) callAPI(ctx context.Context, method, path string, payload interface{}, out interface{}) error {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to marshal payload: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.apiBase+path, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Authorization", "Bearer "+c.accessToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("API request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &APIError{StatusCode: resp.StatusCode, Body: string(respBody)}
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}
