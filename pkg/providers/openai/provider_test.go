// TopicBot - LINE topic bot
// License: MIT
//
// Copyright (c) 2026 TopicBot contributors

package openaiprovider

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/zhaopengme/topicbot/pkg/providers/protocoltypes"
)

func TestProvider_ChatRoundTrip(t *testing.T) {
	var reqBody map[string]interface{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		if r.Header.Get("Authorization") != "Bearer sk-test" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		json.NewDecoder(r.Body).Decode(&reqBody)

		resp := map[string]interface{}{
			"id":      "chatcmpl-1",
			"object":  "chat.completion",
			"created": 1,
			"model":   reqBody["model"],
			"choices": []map[string]interface{}{
				{
					"index":         0,
					"finish_reason": "stop",
					"message":       map[string]interface{}{"role": "assistant", "content": "  你好！  "},
				},
			},
			"usage": map[string]interface{}{
				"prompt_tokens":     12,
				"completion_tokens": 3,
				"total_tokens":      15,
			},
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	p := NewProvider("sk-test", server.URL, 5*time.Second)
	messages := []protocoltypes.Message{
		{Role: protocoltypes.RoleSystem, Content: "請使用繁體中文回答。"},
		{Role: protocoltypes.RoleUser, Content: "hi"},
	}
	resp, err := p.Chat(t.Context(), messages, "gpt-4o", map[string]interface{}{
		"max_tokens":  500,
		"temperature": 0.5,
	})
	if err != nil {
		t.Fatalf("Chat() error: %v", err)
	}
	if resp.Content != "  你好！  " {
		t.Errorf("Content = %q", resp.Content)
	}
	if resp.Usage.TotalTokens != 15 {
		t.Errorf("TotalTokens = %d, want 15", resp.Usage.TotalTokens)
	}

	if reqBody["model"] != "gpt-4o" {
		t.Errorf("model = %v", reqBody["model"])
	}
	if reqBody["max_tokens"] != float64(500) {
		t.Errorf("max_tokens = %v, want 500", reqBody["max_tokens"])
	}
	if reqBody["temperature"] != 0.5 {
		t.Errorf("temperature = %v, want 0.5", reqBody["temperature"])
	}
	msgs, _ := reqBody["messages"].([]interface{})
	if len(msgs) != 2 {
		t.Fatalf("messages = %d, want 2", len(msgs))
	}
	first, _ := msgs[0].(map[string]interface{})
	if first["role"] != "system" {
		t.Errorf("first role = %v, want system", first["role"])
	}
}

func TestProvider_ChatAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("x-request-id", "req_123")
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":{"message":"bad key","type":"invalid_request_error","code":"invalid_api_key"}}`))
	}))
	defer server.Close()

	p := NewProvider("sk-wrong", server.URL, 5*time.Second)
	_, err := p.Chat(t.Context(), []protocoltypes.Message{{Role: "user", Content: "hi"}}, "", nil)
	if err == nil {
		t.Fatal("expected error")
	}

	var perr *protocoltypes.ProviderError
	if !errors.As(err, &perr) {
		t.Fatalf("error type = %T, want *ProviderError", err)
	}
	if perr.Status != http.StatusUnauthorized {
		t.Errorf("Status = %d, want 401", perr.Status)
	}
	if perr.Reason != protocoltypes.ReasonAuth {
		t.Errorf("Reason = %q, want auth", perr.Reason)
	}
	if perr.RequestID != "req_123" {
		t.Errorf("RequestID = %q", perr.RequestID)
	}
	if perr.Model != DefaultModel {
		t.Errorf("Model = %q, want default", perr.Model)
	}
}

func TestProvider_EmptyChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"x","object":"chat.completion","created":1,"model":"gpt-4o","choices":[]}`))
	}))
	defer server.Close()

	p := NewProvider("sk-test", server.URL, 5*time.Second)
	_, err := p.Chat(t.Context(), []protocoltypes.Message{{Role: "user", Content: "hi"}}, "gpt-4o", nil)
	if !errors.Is(err, protocoltypes.ErrEmptyResponse) {
		t.Fatalf("err = %v, want ErrEmptyResponse", err)
	}
}
