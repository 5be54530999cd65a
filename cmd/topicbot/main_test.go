package main

import (
	"bytes"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(append([]string{"--env-file", filepath.Join(t.TempDir(), "missing.env")}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func TestVersionCmd(t *testing.T) {
	out, err := runCLI(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "topicbot dev")
}

func TestPrintVersion_BuildFlags(t *testing.T) {
	oldVersion, oldCommit, oldBuilt := version, commit, builtAt
	t.Cleanup(func() { version, commit, builtAt = oldVersion, oldCommit, oldBuilt })
	version, commit, builtAt = "1.2.0", "abc1234", "2026-10-01T08:00:00Z"

	var out bytes.Buffer
	printVersion(&out)

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "topicbot 1.2.0 (abc1234)", lines[0])
	assert.Equal(t, "built 2026-10-01T08:00:00Z", lines[1])
	assert.Contains(t, lines[2], runtime.GOOS+"/"+runtime.GOARCH)
}

func TestUsersAddAndList(t *testing.T) {
	path := filepath.Join(t.TempDir(), "users.json")
	t.Setenv("REGISTRY_BACKEND", "json")
	t.Setenv("REGISTRY_PATH", path)

	_, err := runCLI(t, "users", "add", "U1")
	require.NoError(t, err)
	_, err = runCLI(t, "users", "add", "U2")
	require.NoError(t, err)
	_, err = runCLI(t, "users", "add", "U1")
	require.NoError(t, err)

	out, err := runCLI(t, "users", "list")
	require.NoError(t, err)
	assert.Equal(t, []string{"U1", "U2"}, strings.Fields(out))

	_, err = runCLI(t, "users", "add")
	assert.Error(t, err)
}

func TestPersonaShow(t *testing.T) {
	path := filepath.Join(t.TempDir(), "persona.yaml")
	require.NoError(t, os.WriteFile(path, []byte("language: 繁體中文\ntone: 輕鬆\n"), 0o644))
	t.Setenv("PERSONA_PATH", path)

	out, err := runCLI(t, "persona", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "請使用繁體中文回答。")
	assert.Contains(t, out, "輕鬆")
}

func TestServeRequiresSecrets(t *testing.T) {
	t.Setenv("CHANNEL_ACCESS_TOKEN", "")
	t.Setenv("CHANNEL_SECRET", "")
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("LLM_PROVIDER", "openai")

	_, err := runCLI(t, "serve")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "CHANNEL_ACCESS_TOKEN")
	assert.Contains(t, err.Error(), "OPENAI_API_KEY")
}
