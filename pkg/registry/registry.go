// TopicBot - LINE topic bot
// License: MIT
//
// Copyright (c) 2026 TopicBot contributors

package registry

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/zhaopengme/topicbot/pkg/logger"
)

var ErrEmptyUserID = errors.New("registry: empty user id")

// Registry is the set of users the bot has talked to. All access goes
// through one mutex so a read-modify-write never interleaves with another.
type Registry struct {
	store Store
	mu    sync.Mutex
}

func New(store Store) *Registry {
	return &Registry{store: store}
}

// Load returns all registered ids. Storage errors are logged and reported as
// an empty registry.
func (r *Registry) Load(ctx context.Context) []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	ids, err := r.store.Load(ctx)
	if err != nil {
		logger.WarnCF("registry", "Failed to load registry, treating as empty", map[string]interface{}{
			"error": err.Error(),
		})
		return []string{}
	}
	if ids == nil {
		return []string{}
	}
	return ids
}

// Add registers id. Adding an id that is already present is a no-op.
func (r *Registry) Add(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return ErrEmptyUserID
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	added, err := r.store.Add(ctx, id)
	if err != nil {
		return err
	}
	if added {
		logger.InfoCF("registry", "User registered", map[string]interface{}{
			"user_id": id,
		})
	}
	return nil
}

func (r *Registry) Count(ctx context.Context) int {
	return len(r.Load(ctx))
}

func (r *Registry) Close() error {
	return r.store.Close()
}
