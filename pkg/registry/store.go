// TopicBot - LINE topic bot
// License: MIT
//
// Copyright (c) 2026 TopicBot contributors

package registry

import (
	"context"
	"fmt"
	"strings"
)

// Store is the durable backend behind a Registry.
type Store interface {
	// Load returns every stored user id in insertion order.
	Load(ctx context.Context) ([]string, error)
	// Add stores id if it is not present yet and reports whether it was added.
	Add(ctx context.Context, id string) (bool, error)
	Close() error
}

// NewStore builds the backend named by kind ("json" or "sqlite").
func NewStore(kind, path string) (Store, error) {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "", "json":
		return NewJSONFileStore(path), nil
	case "sqlite":
		return NewSQLiteStore(path)
	default:
		return nil, fmt.Errorf("unknown registry backend %q", kind)
	}
}

// dedupe drops empty and repeated ids while keeping first-seen order.
func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
