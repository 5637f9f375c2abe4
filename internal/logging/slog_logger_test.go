package logging

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSlogLogger_JSON(t *testing.T) {
	var buf bytes.Buffer
	logger := NewSlogLogger(SlogConfig{Writer: &buf, JSON: true, Attrs: []any{"run_id", "r1"}})

	logger.Info("inserted %s", "a.json")
	logger.Verbose("hidden")
	logger.Error("failed %d", 2)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)

	var first map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &first))
	assert.Equal(t, "INFO", first["level"])
	assert.Equal(t, "inserted a.json", first["msg"])
	assert.Equal(t, "r1", first["run_id"])

	var second map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &second))
	assert.Equal(t, "ERROR", second["level"])
	assert.Equal(t, "failed 2", second["msg"])
}

func TestSlogLogger_VerboseEnablesDebug(t *testing.T) {
	var buf bytes.Buffer
	logger := NewSlogLogger(SlogConfig{Writer: &buf, Verbose: true})

	logger.Verbose("batch %d dispatched", 1)

	assert.Contains(t, buf.String(), "level=DEBUG")
	assert.Contains(t, buf.String(), "batch 1 dispatched")
}

func TestSlogLogger_With(t *testing.T) {
	var buf bytes.Buffer
	logger := NewSlogLogger(SlogConfig{Writer: &buf}).With("file", "x.json")

	logger.Info("duplicate")

	assert.Contains(t, buf.String(), "file=x.json")
}

func TestSlogLogger_Color(t *testing.T) {
	var buf bytes.Buffer
	logger := NewSlogLogger(SlogConfig{Writer: &buf, Color: true})

	logger.Error("connection lost")

	assert.Contains(t, buf.String(), "connection lost")
}
