package app

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/corey/xtags/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLogger_LevelFilters(t *testing.T) {
	var buf bytes.Buffer
	log := NewLogger(config.Config{LogLevel: "WARN", LogFormat: "text"}, &buf)
	log.Info("hidden")
	log.Warn("shown", "file", "a.tex")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "shown")
	assert.Contains(t, out, "file=a.tex")
}

func TestNewLogger_LevelOffset(t *testing.T) {
	var buf bytes.Buffer
	log := NewLogger(config.Config{LogLevel: "info+2"}, &buf)
	log.Info("hidden")
	log.Warn("shown")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
}

func TestNewLogger_JSON(t *testing.T) {
	var buf bytes.Buffer
	NewLogger(config.Config{LogLevel: "debug", LogFormat: "JSON"}, &buf).Debug("opened", "pid", 42)

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "opened", rec["msg"])
	assert.Equal(t, "DEBUG", rec["level"])
	assert.EqualValues(t, 42, rec["pid"])
}

func TestNewLogger_UnknownLevelIsInfo(t *testing.T) {
	var buf bytes.Buffer
	log := NewLogger(config.Config{LogLevel: "chatty"}, &buf)
	log.Debug("hidden")
	log.Info("shown")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
}
