// TopicBot - LINE topic bot
// License: MIT
//
// Copyright (c) 2026 TopicBot contributors

package registry

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/zhaopengme/topicbot/pkg/logger"
)

var ErrDecodeFailed = errors.New("registry: decode failed")

// JSONFileStore keeps user ids as an indented JSON array of strings.
// Every change rewrites the whole file through a temp file and rename, under
// an advisory lock on "<path>.lock".
type JSONFileStore struct {
	path string
}

func NewJSONFileStore(path string) *JSONFileStore {
	return &JSONFileStore{path: path}
}

func (s *JSONFileStore) Load(ctx context.Context) ([]string, error) {
	ids, err := s.read()
	if err != nil {
		return nil, err
	}
	return ids, nil
}

func (s *JSONFileStore) Add(ctx context.Context, id string) (bool, error) {
	added := false
	err := withFileLock(ctx, s.path+".lock", func() error {
		ids, err := s.read()
		if err != nil {
			if !errors.Is(err, ErrDecodeFailed) {
				return err
			}
			if qerr := s.quarantine(); qerr != nil {
				return qerr
			}
			ids = nil
		}
		if slices.Contains(ids, id) {
			return nil
		}
		ids = append(ids, id)
		if err := s.write(ids); err != nil {
			return err
		}
		added = true
		return nil
	})
	return added, err
}

func (s *JSONFileStore) Close() error {
	return nil
}

func (s *JSONFileStore) read() ([]string, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("read %s: %w", s.path, err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return []string{}, nil
	}

	var ids []string
	if err := json.Unmarshal(data, &ids); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrDecodeFailed, s.path, err)
	}
	return dedupe(ids), nil
}

// quarantine moves an undecodable file aside so the next write does not
// destroy what was in it. Earlier quarantined copies are never overwritten.
func (s *JSONFileStore) quarantine() error {
	dst := quarantinePath(s.path, time.Now())
	if err := os.Rename(s.path, dst); err != nil {
		return fmt.Errorf("move corrupt registry aside: %w", err)
	}
	logger.WarnCF("registry", "Corrupt registry file moved aside", map[string]interface{}{
		"path":  s.path,
		"moved": dst,
	})
	return nil
}

// quarantinePath returns "<path>.corrupt-<unix>", adding "-<n>" when that
// name is already taken.
func quarantinePath(path string, now time.Time) string {
	base := fmt.Sprintf("%s.corrupt-%d", path, now.Unix())
	dst := base
	for n := 1; ; n++ {
		if _, err := os.Lstat(dst); errors.Is(err, os.ErrNotExist) {
			return dst
		}
		dst = fmt.Sprintf("%s-%d", base, n)
	}
}

func (s *JSONFileStore) write(ids []string) error {
	data, err := json.MarshalIndent(ids, "", "  ")
	if err != nil {
		return fmt.Errorf("encode registry: %w", err)
	}
	data = append(data, '\n')

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create registry dir: %w", err)
	}

	tmpFile, err := os.CreateTemp(dir, filepath.Base(s.path)+".tmp.*")
	if err != nil {
		return err
	}

	tmpPath := tmpFile.Name()
	cleanup := true
	defer func() {
		if cleanup {
			_ = os.Remove(tmpPath)
		}
	}()

	if _, err := tmpFile.Write(data); err != nil {
		_ = tmpFile.Close()
		return err
	}
	if err := tmpFile.Chmod(0644); err != nil {
		_ = tmpFile.Close()
		return err
	}
	if err := tmpFile.Sync(); err != nil {
		_ = tmpFile.Close()
		return err
	}
	if err := tmpFile.Close(); err != nil {
		return err
	}

	if err := os.Rename(tmpPath, s.path); err != nil {
		return err
	}
	cleanup = false
	return nil
}
