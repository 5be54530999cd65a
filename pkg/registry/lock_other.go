//go:build windows

package registry

import "context"

// No advisory lock on Windows; Registry still serializes in-process access.
func withFileLock(_ context.Context, _ string, fn func() error) error {
	return fn()
}
