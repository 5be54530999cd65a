package logger

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    LogLevel
		wantErr bool
	}{
		{"", INFO, false},
		{"DEBUG", DEBUG, false},
		{"warning", WARN, false},
		{" error ", ERROR, false},
		{"verbose", INFO, true},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		assert.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	defer SetOutput(nil)
	SetLevel(WARN)
	defer SetLevel(INFO)

	InfoC("test", "hidden")
	WarnC("test", "shown")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "shown")
	assert.Equal(t, WARN, GetLevel())
}

func TestJSONFormatCarriesComponentAndFields(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	defer SetOutput(nil)
	require.NoError(t, SetFormat("json"))
	defer SetFormat("text")

	InfoCF("registry", "User added", map[string]interface{}{"user_id": "U1"})

	line := strings.TrimSpace(buf.String())
	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(line), &entry))
	assert.Equal(t, "registry", entry["component"])
	assert.Equal(t, "U1", entry["user_id"])
	assert.Equal(t, "User added", entry["msg"])
}

func TestSetFormatRejectsUnknown(t *testing.T) {
	assert.Error(t, SetFormat("xml"))
}
